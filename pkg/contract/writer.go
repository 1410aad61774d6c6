package contract

import (
	"context"
	"io"
)

// ArtifactID: 与 FileID 等价的持久化工件标识（语义别名）。
type ArtifactID = FileID

// Writer: 将生成结果持久化到目标介质。
// 约束：
//  1. 覆盖已存在的同名工件；
//  2. 按字节透传，不读取/修改内容；
//  3. ctx 取消需尽快返回；
//  4. 创建/写入失败包装 ErrDestinationUnwritable，不做重试。
type Writer interface {
	Write(ctx context.Context, id ArtifactID, r io.Reader) error
}

// Manifest: 可选边车工件，描述单个源的抽取结果。
type Manifest interface {
	// Ext 返回清单工件扩展名（不含前导点），例如 "icons.toml"。
	Ext() string
	Encode(ctx context.Context, src Source, res ExtractResult) (io.Reader, error)
}
