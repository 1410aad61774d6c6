package contract

import "errors"

// 最小错误分类（上层通过 errors.Is 判定）。
var (
	// ErrSourceUnavailable: 输入文件缺失或不可读。
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrMalformedLine: 命中标记的行缺少第二个 token。
	ErrMalformedLine = errors.New("malformed line")
	// ErrDestinationUnwritable: 输出无法创建或写入。
	ErrDestinationUnwritable = errors.New("destination unwritable")
	// ErrPathInvalid: 工件标识映射为无效/越界路径（例如绝对路径或 '..' 逃逸）。
	ErrPathInvalid = errors.New("path invalid")
	// ErrBlockInvalid: 生成块结构不符（行标记/列号/单元格顺序）。
	ErrBlockInvalid = errors.New("block invalid")
	// ErrInvalidInput: 参数非法（空标记、列数 < 1 等）。
	ErrInvalidInput = errors.New("invalid input")
)
