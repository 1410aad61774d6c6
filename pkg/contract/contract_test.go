package contract

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestNormalizeFileID 验证路径规范化逻辑。
func TestNormalizeFileID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Windows路径", "C:\\Users\\test\\file.h", "C:/Users/test/file.h"},
		{"相对路径反斜杠", "src\\icon\\Lucide.h", "src/icon/Lucide.h"},
		{"清理多余斜杠", "path//to///file.h", "path/to/file.h"},
		{"处理父目录", "path/to/../from/file.h", "path/from/file.h"},
		{"空串", "", "."},
		{"混合分隔符", "src\\..\\icon/./Kenney.h", "icon/Kenney.h"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(NormalizeFileID(tt.input)))
		})
	}
}

// TestSourceBase 基名取首个 '.' 之前的部分。
func TestSourceBase(t *testing.T) {
	cases := map[string]string{
		"FontAwesome6.h":             "FontAwesome6",
		"src/icon/MaterialSymbols.h": "MaterialSymbols",
		"src\\icon\\CodIcons.h":      "CodIcons",
		"Multi.Dot.h":                "Multi",
		"NoExt":                      "NoExt",
	}
	for in, want := range cases {
		assert.Equal(t, want, Source{File: in}.Base(), in)
	}
}

// TestSourceTitleAndArtifact 标题回退与工件名。
func TestSourceTitleAndArtifact(t *testing.T) {
	s := Source{File: "icon/Lucide.h", Marker: "ICON_LC"}
	assert.Equal(t, "Lucide", s.DisplayTitle())
	assert.Equal(t, ArtifactID("Lucide.code"), s.ArtifactFor("code"))
	assert.Equal(t, ArtifactID("Lucide.code"), s.ArtifactFor(".code"))
	assert.Equal(t, ArtifactID("Lucide"), s.ArtifactFor(""))

	s.Title = "  Lucide Icons "
	assert.Equal(t, "Lucide Icons", s.DisplayTitle())
	// 标题不影响工件名
	assert.Equal(t, ArtifactID("Lucide.code"), s.ArtifactFor("code"))
}

// TestBlockRenderCount 渲染与计数。
func TestBlockRenderCount(t *testing.T) {
	b := Block{Title: "x", Lines: []Line{
		{Kind: WindowBegin, Text: "a"},
		{Kind: Cell, Column: 0, Macro: "M", Text: "b"},
		{Kind: TableEnd, Text: "c\nd"},
	}}
	assert.Equal(t, "a\nb\nc\nd", b.Render())
	assert.Equal(t, 1, b.Count(Cell))
	assert.Equal(t, 0, b.Count(RowNext))
	cells := b.Cells()
	if assert.Len(t, cells, 1) {
		assert.Equal(t, MacroName("M"), cells[0].Macro)
	}
	assert.Equal(t, "", Block{}.Render())
}

// TestLineKindString 覆盖种类名称。
func TestLineKindString(t *testing.T) {
	assert.Equal(t, "cell", Cell.String())
	assert.Equal(t, "row_next", RowNext.String())
	assert.Equal(t, "func_end", FuncEnd.String())
	assert.Equal(t, "unknown", LineKind(99).String())
}

// validBlock 构造一个 n 个单元格、cols 列的合法块。
func validBlock(n, cols int) (Block, []MacroName) {
	b := Block{Title: "T", Columns: cols, Lines: []Line{{Kind: WindowBegin}, {Kind: TableBegin}}}
	var ms []MacroName
	for i := 0; i < n; i++ {
		m := MacroName(fmt.Sprintf("ICON_T_%d", i))
		ms = append(ms, m)
		if i%cols == 0 {
			b.Lines = append(b.Lines, Line{Kind: RowNext})
		}
		b.Lines = append(b.Lines, Line{Kind: Cell, Column: i % cols, Macro: m})
	}
	b.Lines = append(b.Lines, Line{Kind: TableEnd}, Line{Kind: WindowEnd})
	return b, ms
}

func TestValidateBlockOK(t *testing.T) {
	for _, n := range []int{0, 1, 5, 7, 10} {
		b, ms := validBlock(n, 5)
		assert.NoError(t, ValidateBlock(b, ms), "n=%d", n)
	}
	b, ms := validBlock(4, 3)
	assert.NoError(t, ValidateBlock(b, ms))

	// 函数包装
	b, ms = validBlock(6, 5)
	b.Lines = append(append([]Line{{Kind: FuncBegin}}, b.Lines...), Line{Kind: FuncEnd})
	assert.NoError(t, ValidateBlock(b, ms))
}

func TestValidateBlockRejects(t *testing.T) {
	cases := map[string]func(b *Block, ms *[]MacroName){
		"zero columns":  func(b *Block, ms *[]MacroName) { b.Columns = 0 },
		"missing begin": func(b *Block, ms *[]MacroName) { b.Lines = b.Lines[1:] },
		"missing end":   func(b *Block, ms *[]MacroName) { b.Lines = b.Lines[:len(b.Lines)-1] },
		"unpaired func": func(b *Block, ms *[]MacroName) { b.Lines = append([]Line{{Kind: FuncBegin}}, b.Lines...) },
		"wrong column":  func(b *Block, ms *[]MacroName) { b.Lines[3].Column = 4 },
		"column five":   func(b *Block, ms *[]MacroName) { b.Lines[10].Column = 5 },
		"missing row":   func(b *Block, ms *[]MacroName) { b.Lines = append(b.Lines[:8:8], b.Lines[9:]...) },
		"extra row":     func(b *Block, ms *[]MacroName) { b.Lines[4] = Line{Kind: RowNext} },
		"cells swapped": func(b *Block, ms *[]MacroName) { (*ms)[0], (*ms)[1] = (*ms)[1], (*ms)[0] },
		"fewer macros":  func(b *Block, ms *[]MacroName) { *ms = (*ms)[:6] },
		"more macros":   func(b *Block, ms *[]MacroName) { *ms = append(*ms, "ICON_T_X") },
		"stray line":    func(b *Block, ms *[]MacroName) { b.Lines[4] = Line{Kind: WindowBegin} },
		"dangling row":  func(b *Block, ms *[]MacroName) { b.Lines = append(b.Lines[:11:11], Line{Kind: RowNext}, b.Lines[11], b.Lines[12]) },
	}
	for name, mut := range cases {
		t.Run(name, func(t *testing.T) {
			b, ms := validBlock(7, 5)
			mut(&b, &ms)
			err := ValidateBlock(b, ms)
			assert.True(t, errors.Is(err, ErrBlockInvalid), "err=%v", err)
		})
	}
}
