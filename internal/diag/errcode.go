package diag

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"icongen/pkg/contract"
)

// Code 是最小错误分类代码。
// 仅用于日志/指标汇总，与退出码解耦。
type Code string

const (
	CodeUnknown           Code = "unknown"
	CodeSourceUnavailable Code = "source_unavailable"
	CodeMalformedLine     Code = "malformed_line"
	CodeUnwritable        Code = "destination_unwritable"
	CodeInvariant         Code = "invariant"
	CodeCancel            Code = "cancel"
	CodeIO                Code = "io"
)

// Classify 将错误归为最小分类。
// 仅依赖哨兵错误与标准库错误类型，不做字符串匹配。
func Classify(err error) Code {
	if err == nil {
		return CodeUnknown
	}
	// 取消/超时优先
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return CodeCancel
	}
	switch {
	case errors.Is(err, contract.ErrSourceUnavailable):
		return CodeSourceUnavailable
	case errors.Is(err, contract.ErrMalformedLine):
		return CodeMalformedLine
	case errors.Is(err, contract.ErrDestinationUnwritable):
		return CodeUnwritable
	case errors.Is(err, contract.ErrInvalidInput), errors.Is(err, contract.ErrPathInvalid), errors.Is(err, contract.ErrBlockInvalid):
		return CodeInvariant
	}
	var perr *fs.PathError
	if errors.As(err, &perr) {
		return CodeIO
	}
	var lerr *os.LinkError
	if errors.As(err, &lerr) {
		return CodeIO
	}
	return CodeUnknown
}
