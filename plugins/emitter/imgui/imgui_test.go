package imgui

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icongen/pkg/contract"
)

func macros(n int) []contract.MacroName {
	out := make([]contract.MacroName, n)
	for i := range out {
		out[i] = contract.MacroName(fmt.Sprintf("ICON_T_%02d", i))
	}
	return out
}

func mustNew(t *testing.T, opts *Options) contract.Emitter {
	t.Helper()
	e, err := New(opts)
	require.NoError(t, err)
	return e
}

// TestEmitEmpty 空序列只含四个框架行。
func TestEmitEmpty(t *testing.T) {
	b, err := mustNew(t, nil).Emit(context.Background(), "Kenney", nil)
	require.NoError(t, err)
	require.Len(t, b.Lines, 4)
	kinds := []contract.LineKind{contract.WindowBegin, contract.TableBegin, contract.TableEnd, contract.WindowEnd}
	for i, k := range kinds {
		assert.Equal(t, k, b.Lines[i].Kind)
	}
	want := "ImGui::Begin(\"Kenney\", openWindow);\n" +
		"if (ImGui::BeginTable(\"Table-Kenney\", 5, flags)) {\n" +
		"    ImGui::EndTable();\n" +
		"}\n" +
		"ImGui::End();"
	assert.Equal(t, want, b.Render())
}

// TestEmitLineCounts 行数 = 2 + ceil(n/5) + n + 2，列号恒为 i mod 5。
func TestEmitLineCounts(t *testing.T) {
	e := mustNew(t, nil)
	for _, n := range []int{1, 4, 5, 6, 10, 11, 23} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			b, err := e.Emit(context.Background(), "T", macros(n))
			require.NoError(t, err)
			rows := (n + 4) / 5
			assert.Len(t, b.Lines, 2+rows+n+2)
			assert.Equal(t, rows, b.Count(contract.RowNext))
			cells := b.Cells()
			require.Len(t, cells, n)
			for i, c := range cells {
				assert.Equal(t, i%5, c.Column)
				assert.Equal(t, macros(n)[i], c.Macro)
				assert.True(t, c.Column >= 0 && c.Column < 5)
			}
		})
	}
}

// TestEmitSevenRoundTrip 7 个条目：两个换行标记，第 6 个单元格紧随第二个标记。
func TestEmitSevenRoundTrip(t *testing.T) {
	names := []contract.MacroName{
		"ICON_FA_APPLE", "ICON_FA_BANANA", "ICON_FA_CHERRY", "ICON_FA_DATE",
		"ICON_FA_ELDER", "ICON_FA_FIG", "ICON_FA_GRAPE",
	}
	b, err := mustNew(t, nil).Emit(context.Background(), "Fruits", names)
	require.NoError(t, err)
	assert.Equal(t, 2, b.Count(contract.RowNext))
	assert.Equal(t, 7, b.Count(contract.Cell))

	var rowAt []int
	for i, l := range b.Lines {
		if l.Kind == contract.RowNext {
			rowAt = append(rowAt, i)
		}
	}
	require.Len(t, rowAt, 2)
	// 第一个标记位于首个单元格前，第二个位于下标 5 的单元格前
	assert.Equal(t, contract.MacroName("ICON_FA_APPLE"), b.Lines[rowAt[0]+1].Macro)
	sixth := b.Lines[rowAt[1]+1]
	assert.Equal(t, contract.Cell, sixth.Kind)
	assert.Equal(t, contract.MacroName("ICON_FA_FIG"), sixth.Macro)
	assert.Equal(t, 0, sixth.Column)
	assert.Equal(t, `    ImGui::TableSetColumnIndex(0); ImGui::Text(ICON_FA_FIG"  ICON_FA_FIG");`, sixth.Text)
}

// TestEmitLegacyParity 渲染结果与历史 .code 产物逐字节一致。
func TestEmitLegacyParity(t *testing.T) {
	names := []contract.MacroName{"ICON_LC_A", "ICON_LC_B", "ICON_LC_C", "ICON_LC_D", "ICON_LC_E", "ICON_LC_F"}
	b, err := mustNew(t, nil).Emit(context.Background(), "Lucide", names)
	require.NoError(t, err)

	var sb strings.Builder
	sb.WriteString("ImGui::Begin(\"Lucide\", openWindow);\n")
	sb.WriteString("if (ImGui::BeginTable(\"Table-Lucide\", 5, flags)) {\n")
	for i, m := range names {
		if i%5 == 0 {
			sb.WriteString("    ImGui::TableNextRow();\n")
		}
		fmt.Fprintf(&sb, "    ImGui::TableSetColumnIndex(%d); ImGui::Text(%s\"  %s\");\n", i%5, m, m)
	}
	sb.WriteString("    ImGui::EndTable();\n")
	sb.WriteString("}\nImGui::End();")
	assert.Equal(t, sb.String(), b.Render())
}

// TestEmitOptions 自定义列数与变量名。
func TestEmitOptions(t *testing.T) {
	e := mustNew(t, &Options{Columns: 3, FlagsVar: "tableFlags", OpenVar: "open", TablePrefix: "Icons-"})
	b, err := e.Emit(context.Background(), "X", macros(7))
	require.NoError(t, err)
	assert.Equal(t, 3, b.Count(contract.RowNext))
	assert.Equal(t, `ImGui::Begin("X", open);`, b.Lines[0].Text)
	assert.Equal(t, `if (ImGui::BeginTable("Icons-X", 3, tableFlags)) {`, b.Lines[1].Text)
	for i, c := range b.Cells() {
		assert.Equal(t, i%3, c.Column)
	}
	assert.Equal(t, 3, b.Columns)
	assert.NoError(t, contract.ValidateBlock(b, macros(7)))
}

// TestEmitInvalidColumns 负列数非法。
func TestEmitInvalidColumns(t *testing.T) {
	_, err := New(&Options{Columns: -1})
	assert.ErrorIs(t, err, contract.ErrInvalidInput)
}

// TestEmitTitleEscape 标题中的引号被转义。
func TestEmitTitleEscape(t *testing.T) {
	b, err := mustNew(t, nil).Emit(context.Background(), `a"b`, nil)
	require.NoError(t, err)
	assert.Equal(t, `ImGui::Begin("a\"b", openWindow);`, b.Lines[0].Text)
}

// TestEmitWrapFunction 函数包装：缩进并加头尾。
func TestEmitWrapFunction(t *testing.T) {
	e := mustNew(t, &Options{WrapFunction: true, ClassName: "FontManager"})
	b, err := e.Emit(context.Background(), "Lucide", macros(1))
	require.NoError(t, err)
	assert.Equal(t, 1, b.Count(contract.FuncBegin))
	assert.Equal(t, 1, b.Count(contract.FuncEnd))
	want := "void FontManager::drawLucide(bool* openWindow) {\n" +
		"    ImGui::Begin(\"Lucide\", openWindow);\n" +
		"    if (ImGui::BeginTable(\"Table-Lucide\", 5, flags)) {\n" +
		"        ImGui::TableNextRow();\n" +
		"        ImGui::TableSetColumnIndex(0); ImGui::Text(ICON_T_00\"  ICON_T_00\");\n" +
		"        ImGui::EndTable();\n" +
		"    }\n" +
		"    ImGui::End();\n" +
		"}"
	assert.Equal(t, want, b.Render())
	assert.NoError(t, contract.ValidateBlock(b, macros(1)))
}

// TestFuncName 无类名时为自由函数。
func TestFuncName(t *testing.T) {
	e := mustNew(t, nil).(*emitter)
	assert.Equal(t, "drawFontAwesome6", e.FuncName("FontAwesome6"))
	e.className = "FontManager"
	assert.Equal(t, "FontManager::drawKenney", e.FuncName("Kenney"))
}

// TestEmitCanceled ctx 取消。
func TestEmitCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := mustNew(t, nil).Emit(ctx, "x", macros(3))
	assert.ErrorIs(t, err, context.Canceled)
}
