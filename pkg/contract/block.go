package contract

import "strings"

// LineKind: 生成块中逻辑行的种类。
type LineKind int

const (
	WindowBegin LineKind = iota
	TableBegin
	RowNext
	Cell
	TableEnd
	WindowEnd
	// FuncBegin/FuncEnd 仅在启用函数包装时出现。
	FuncBegin
	FuncEnd
)

func (k LineKind) String() string {
	switch k {
	case WindowBegin:
		return "window_begin"
	case TableBegin:
		return "table_begin"
	case RowNext:
		return "row_next"
	case Cell:
		return "cell"
	case TableEnd:
		return "table_end"
	case WindowEnd:
		return "window_end"
	case FuncBegin:
		return "func_begin"
	case FuncEnd:
		return "func_end"
	default:
		return "unknown"
	}
}

// Line: 生成块的一条逻辑行。
// Text 为渲染后的文本，可能内含换行（例如表格收尾 "EndTable();\n}"）。
// Column/Macro 仅对 Cell 有意义。
type Line struct {
	Kind   LineKind
	Column int
	Macro  MacroName
	Text   string
}

// Block: 单个源的生成结果；写出后不再修改。
// Columns 为表格列数，供 ValidateBlock 校验列号。
type Block struct {
	Title   string
	Columns int
	Lines   []Line
}

// Render 以 '\n' 连接所有行，不追加结尾换行（与历史 .code 工件逐字节一致）。
func (b Block) Render() string {
	var sb strings.Builder
	for i, l := range b.Lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(l.Text)
	}
	return sb.String()
}

// Count 统计指定种类的逻辑行数。
func (b Block) Count(kind LineKind) int {
	n := 0
	for _, l := range b.Lines {
		if l.Kind == kind {
			n++
		}
	}
	return n
}

// Cells 按出现顺序返回全部 Cell 行。
func (b Block) Cells() []Line {
	out := make([]Line, 0, len(b.Lines))
	for _, l := range b.Lines {
		if l.Kind == Cell {
			out = append(out, l)
		}
	}
	return out
}
