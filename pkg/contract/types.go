package contract

import (
	"path"
	"strings"
)

// MacroName: 图标宏名（不透明 token）。仅按文本身份使用，不解析内部结构。
type MacroName string

// Source: 一个输入配置项（头文件 + 标记子串）。
// 约束：
// - File 非空；
// - Marker 非空，按子串匹配；
// - Title 可选，为空时由 File 基名推导（见 Base）。
type Source struct {
	File   string `json:"file" yaml:"file" toml:"file"`
	Marker string `json:"marker" yaml:"marker" toml:"marker"`
	Title  string `json:"title,omitempty" yaml:"title,omitempty" toml:"title,omitempty"`
}

// Base 返回去掉扩展名后的基名：取文件名中首个 '.' 之前的部分。
// 例如 "icon/FontAwesome6.h" -> "FontAwesome6"，"a.b.h" -> "a"。
func (s Source) Base() string {
	name := path.Base(string(NormalizeFileID(s.File)))
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[:i]
	}
	return name
}

// DisplayTitle 返回窗口标题：优先 Title，否则 Base。
func (s Source) DisplayTitle() string {
	if t := strings.TrimSpace(s.Title); t != "" {
		return t
	}
	return s.Base()
}

// ArtifactFor 按 "<base>.<ext>" 生成输出工件名；ext 可带或不带前导点。
func (s Source) ArtifactFor(ext string) ArtifactID {
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	if ext == "" {
		return ArtifactID(s.Base())
	}
	return ArtifactID(s.Base() + "." + ext)
}

// SkippedLine: 命中标记但缺少第二个 token 的行（LineNo 自 1 起）。
type SkippedLine struct {
	LineNo int
	Text   string
}

// ExtractResult: 抽取结果。Macros 保持首次出现顺序。
type ExtractResult struct {
	Macros  []MacroName
	Skipped []SkippedLine
	// Duplicates: 去重时被丢弃的重复条目数；保留重复时恒为 0。
	Duplicates int
}
