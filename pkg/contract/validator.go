package contract

import "fmt"

// ValidateBlock 校验生成块结构（纯函数，无 I/O）：
// - 可选的 FuncBegin/FuncEnd 包装必须成对出现在首尾；
// - 框架行依次为 WindowBegin、TableBegin …… TableEnd、WindowEnd；
// - 第 i 个单元格列号为 i mod Columns，列 0 的单元格前恰有一个 RowNext；
// - 单元格宏名与 macros 逐个相同（顺序一致）。
func ValidateBlock(b Block, macros []MacroName) error {
	if b.Columns < 1 {
		return fmt.Errorf("%w: columns=%d", ErrBlockInvalid, b.Columns)
	}
	body := b.Lines
	if len(body) > 0 && body[0].Kind == FuncBegin {
		if body[len(body)-1].Kind != FuncEnd {
			return fmt.Errorf("%w: unterminated function wrapper", ErrBlockInvalid)
		}
		body = body[1 : len(body)-1]
	}
	if len(body) < 4 ||
		body[0].Kind != WindowBegin || body[1].Kind != TableBegin ||
		body[len(body)-2].Kind != TableEnd || body[len(body)-1].Kind != WindowEnd {
		return fmt.Errorf("%w: bad framing", ErrBlockInvalid)
	}

	n := 0
	rowOpen := false // 已出现 RowNext，尚未跟随列 0 单元格
	for i, l := range body[2 : len(body)-2] {
		switch l.Kind {
		case RowNext:
			if rowOpen || n%b.Columns != 0 {
				return fmt.Errorf("%w: unexpected row marker at line %d", ErrBlockInvalid, i+2)
			}
			rowOpen = true
		case Cell:
			if l.Column != n%b.Columns {
				return fmt.Errorf("%w: cell %d at column %d, want %d", ErrBlockInvalid, n, l.Column, n%b.Columns)
			}
			if l.Column == 0 && !rowOpen {
				return fmt.Errorf("%w: cell %d without row marker", ErrBlockInvalid, n)
			}
			if n >= len(macros) || l.Macro != macros[n] {
				return fmt.Errorf("%w: cell %d macro %q out of order", ErrBlockInvalid, n, l.Macro)
			}
			rowOpen = false
			n++
		default:
			return fmt.Errorf("%w: unexpected %s inside table", ErrBlockInvalid, l.Kind)
		}
	}
	if rowOpen {
		return fmt.Errorf("%w: trailing row marker", ErrBlockInvalid)
	}
	if n != len(macros) {
		return fmt.Errorf("%w: %d cells for %d macros", ErrBlockInvalid, n, len(macros))
	}
	return nil
}
