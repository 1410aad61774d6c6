package memory

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"icongen/pkg/contract"
)

// Options: 内联源内容（文件名 → 文本）。
type Options struct {
	Files map[string]string `json:"files"`
}

// Memory 从内存映射提供源内容，供测试与内联配置使用。
type Memory struct {
	files map[string]string
}

// New 创建内存 Reader；文件名按 NormalizeFileID 规范化。
func New(opts *Options) *Memory {
	m := &Memory{files: map[string]string{}}
	if opts != nil {
		for k, v := range opts.Files {
			m.files[string(contract.NormalizeFileID(k))] = v
		}
	}
	return m
}

var _ contract.Reader = (*Memory)(nil)

// Put 添加或替换一个源。
func (m *Memory) Put(name, content string) {
	m.files[string(contract.NormalizeFileID(name))] = content
}

// Open 返回对应内容；缺失时包装 ErrSourceUnavailable 与 os.ErrNotExist。
func (m *Memory) Open(ctx context.Context, src contract.Source) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s, ok := m.files[string(contract.NormalizeFileID(src.File))]
	if !ok {
		return nil, fmt.Errorf("%w: %s: %w", contract.ErrSourceUnavailable, src.File, os.ErrNotExist)
	}
	return io.NopCloser(strings.NewReader(s)), nil
}
