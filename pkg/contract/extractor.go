package contract

import (
	"context"
	"io"
)

// Extractor: 单遍扫描文本行，收集命中 marker 的行的第二个 token。
// 约束：
//  1. 结果保持扫描顺序；
//  2. 纯计算（仅读取 r），无内部并发；
//  3. 读失败包装 ErrSourceUnavailable；畸形行按实现策略跳过或返回 ErrMalformedLine。
type Extractor interface {
	Extract(ctx context.Context, r io.Reader, marker string) (ExtractResult, error)
}
