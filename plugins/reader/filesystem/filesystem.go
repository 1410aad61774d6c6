package filesystem

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"icongen/pkg/contract"
)

// Options 为 FileSystem Reader 的可选配置（最小必要）。
type Options struct {
	// BaseDir: 相对路径的解析根；为空时相对于当前工作目录。
	BaseDir string `json:"base_dir"`
	// BufSize 为读缓冲区大小（字节）。默认 64KiB。
	BufSize int `json:"buf_size"`
}

// FileSystem 实现基于文件系统与 STDIN 的 Reader。
type FileSystem struct {
	baseDir string
	bufSize int
}

// New 创建 FileSystem Reader。
func New(opts *Options) *FileSystem {
	const defaultBuf = 64 * 1024
	r := &FileSystem{bufSize: defaultBuf}
	if opts != nil {
		if opts.BufSize > 0 {
			r.bufSize = opts.BufSize
		}
		r.baseDir = strings.TrimSpace(opts.BaseDir)
	}
	return r
}

var _ contract.Reader = (*FileSystem)(nil)

// Open 打开 src.File；"-" 表示 STDIN（关闭时不关闭 STDIN 本身）。
// 目录、非常规文件与打开失败均包装为 ErrSourceUnavailable。
func (r *FileSystem) Open(ctx context.Context, src contract.Source) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	if strings.TrimSpace(src.File) == "-" {
		return newBufferedCloser(io.NopCloser(os.Stdin), r.bufSize), nil
	}
	p := r.resolve(src.File)
	// Stat 跟随符号链接：指向常规文件的链接可读
	info, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", contract.ErrSourceUnavailable, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: not a regular file: %s", contract.ErrSourceUnavailable, p)
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", contract.ErrSourceUnavailable, err)
	}
	return newBufferedCloser(f, r.bufSize), nil
}

func (r *FileSystem) resolve(file string) string {
	p := filepath.FromSlash(strings.ReplaceAll(file, "\\", "/"))
	if r.baseDir == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(r.baseDir, p)
}

// bufferedCloser 将 bufio.Reader 与底层 Closer 组合为 ReadCloser。
type bufferedCloser struct {
	*bufio.Reader
	c io.Closer
}

func newBufferedCloser(c io.ReadCloser, bufSize int) *bufferedCloser {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	return &bufferedCloser{Reader: bufio.NewReaderSize(c, bufSize), c: c}
}

func (b *bufferedCloser) Close() error { return b.c.Close() }
