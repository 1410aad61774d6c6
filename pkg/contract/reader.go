package contract

import (
	"context"
	"io"
)

// Reader: 输入源抽象（文件系统/内存）。
// 约束：
// 1) 按 Source 打开，返回的 ReadCloser 由调用方关闭；
// 2) 打开失败须包装 ErrSourceUnavailable；
// 3) 不做解析，仅提供字节流。
type Reader interface {
	Open(ctx context.Context, src Source) (io.ReadCloser, error)
}
