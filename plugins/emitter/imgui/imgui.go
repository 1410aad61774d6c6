package imgui

import (
	"context"
	"fmt"
	"strings"

	"github.com/iancoleman/strcase"

	"icongen/pkg/contract"
)

// Options: ImGui 表格块的可选配置；零值即历史产物格式。
type Options struct {
	// Columns: 表格列数，默认 5。
	Columns int `json:"columns"`
	// FlagsVar/OpenVar: 生成代码中引用的表格标志与窗口开关变量名。
	FlagsVar string `json:"flags_var"`
	OpenVar  string `json:"open_var"`
	// TablePrefix: 表格 ID 前缀，默认 "Table-"。
	TablePrefix string `json:"table_prefix"`
	// WrapFunction: 以 `void <Class>::draw<Title>(bool* open)` 包装整个块。
	WrapFunction bool   `json:"wrap_function"`
	ClassName    string `json:"class_name"`
}

const (
	defaultColumns = 5
	indent         = "    "
)

type emitter struct {
	columns     int
	flagsVar    string
	openVar     string
	tablePrefix string
	wrap        bool
	className   string
}

// New 创建 ImGui 表格块生成器。
func New(opts *Options) (contract.Emitter, error) {
	e := &emitter{columns: defaultColumns, flagsVar: "flags", openVar: "openWindow", tablePrefix: "Table-"}
	if opts == nil {
		return e, nil
	}
	if opts.Columns < 0 {
		return nil, fmt.Errorf("%w: columns must be >= 1", contract.ErrInvalidInput)
	}
	if opts.Columns > 0 {
		e.columns = opts.Columns
	}
	if v := strings.TrimSpace(opts.FlagsVar); v != "" {
		e.flagsVar = v
	}
	if v := strings.TrimSpace(opts.OpenVar); v != "" {
		e.openVar = v
	}
	if opts.TablePrefix != "" {
		e.tablePrefix = opts.TablePrefix
	}
	e.wrap = opts.WrapFunction
	e.className = strings.TrimSpace(opts.ClassName)
	return e, nil
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// Emit 生成窗口 + 表格 + 单元格声明。
// 行数 = 2 + ceil(n/columns) + n + 2（启用函数包装时另加 2）。
func (e *emitter) Emit(ctx context.Context, title string, macros []contract.MacroName) (contract.Block, error) {
	select {
	case <-ctx.Done():
		return contract.Block{}, ctx.Err()
	default:
	}
	rows := (len(macros) + e.columns - 1) / e.columns
	lines := make([]contract.Line, 0, len(macros)+rows+6)
	qt := quoteEscaper.Replace(title)

	lines = append(lines,
		contract.Line{Kind: contract.WindowBegin, Text: fmt.Sprintf(`ImGui::Begin("%s", %s);`, qt, e.openVar)},
		contract.Line{Kind: contract.TableBegin, Text: fmt.Sprintf(`if (ImGui::BeginTable("%s%s", %d, %s)) {`, quoteEscaper.Replace(e.tablePrefix), qt, e.columns, e.flagsVar)},
	)
	for i, m := range macros {
		col := i % e.columns
		if col == 0 {
			lines = append(lines, contract.Line{Kind: contract.RowNext, Text: indent + "ImGui::TableNextRow();"})
		}
		lines = append(lines, contract.Line{
			Kind:   contract.Cell,
			Column: col,
			Macro:  m,
			Text:   fmt.Sprintf(`%sImGui::TableSetColumnIndex(%d); ImGui::Text(%s"  %s");`, indent, col, m, m),
		})
	}
	lines = append(lines,
		contract.Line{Kind: contract.TableEnd, Text: indent + "ImGui::EndTable();\n}"},
		contract.Line{Kind: contract.WindowEnd, Text: "ImGui::End();"},
	)

	if e.wrap {
		lines = e.wrapFunction(title, lines)
	}
	return contract.Block{Title: title, Columns: e.columns, Lines: lines}, nil
}

// wrapFunction 缩进全部行并加上函数头尾。
func (e *emitter) wrapFunction(title string, body []contract.Line) []contract.Line {
	out := make([]contract.Line, 0, len(body)+2)
	out = append(out, contract.Line{Kind: contract.FuncBegin, Text: fmt.Sprintf("void %s(bool* %s) {", e.FuncName(title), e.openVar)})
	for _, l := range body {
		l.Text = indent + strings.ReplaceAll(l.Text, "\n", "\n"+indent)
		out = append(out, l)
	}
	return append(out, contract.Line{Kind: contract.FuncEnd, Text: "}"})
}

// FuncName 返回包装函数名，例如 "FontManager::drawFontAwesome6S"。
func (e *emitter) FuncName(title string) string {
	name := strcase.ToLowerCamel("draw_" + title)
	if e.className != "" {
		return e.className + "::" + name
	}
	return name
}

var _ contract.Emitter = (*emitter)(nil)
