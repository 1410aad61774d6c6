package tomlfile

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/BurntSushi/toml"

	"icongen/pkg/contract"
)

// Options: 清单边车配置。
type Options struct {
	// Ext: 工件扩展名（不含前导点），默认 "icons.toml"。
	Ext string `json:"ext"`
}

// Document 为清单的 TOML 结构。
type Document struct {
	Source     string    `toml:"source"`
	Marker     string    `toml:"marker"`
	Title      string    `toml:"title"`
	Count      int       `toml:"count"`
	Duplicates int       `toml:"duplicates"`
	Icons      []string  `toml:"icons"`
	Skipped    []Skipped `toml:"skipped,omitempty"`
}

// Skipped 记录一条被跳过的畸形行。
type Skipped struct {
	Line int    `toml:"line"`
	Text string `toml:"text"`
}

type manifest struct {
	ext string
}

// New 创建 TOML 清单编码器。
func New(opts *Options) contract.Manifest {
	m := &manifest{ext: "icons.toml"}
	if opts != nil {
		if e := strings.TrimPrefix(strings.TrimSpace(opts.Ext), "."); e != "" {
			m.ext = e
		}
	}
	return m
}

func (m *manifest) Ext() string { return m.ext }

// Encode 将抽取结果编码为 TOML 文档。
func (m *manifest) Encode(ctx context.Context, src contract.Source, res contract.ExtractResult) (io.Reader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc := Document{
		Source:     string(contract.NormalizeFileID(src.File)),
		Marker:     src.Marker,
		Title:      src.DisplayTitle(),
		Count:      len(res.Macros),
		Duplicates: res.Duplicates,
		Icons:      make([]string, len(res.Macros)),
	}
	for i, mac := range res.Macros {
		doc.Icons[i] = string(mac)
	}
	for _, s := range res.Skipped {
		doc.Skipped = append(doc.Skipped, Skipped{Line: s.LineNo, Text: s.Text})
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
		return nil, err
	}
	return &buf, nil
}

var _ contract.Manifest = (*manifest)(nil)
