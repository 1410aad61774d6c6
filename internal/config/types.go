package config

import (
	"encoding/json"

	"icongen/pkg/contract"
)

// Config: 运行期只读配置（一次解析，运行期不变）。
// 字段使用 snake_case；未知字段在解析期失败（JSON/YAML/TOML 一致）。
type Config struct {
	// Sources: (头文件, 标记) 列表，按顺序处理。
	Sources []contract.Source `json:"sources"`
	Output  Output            `json:"output"`
	// FailFast: 首个源失败即停止；nil 表示未设置（默认继续处理后续源）。
	FailFast *bool `json:"fail_fast,omitempty"`
	// Manifest: 是否为每个源额外写出清单边车；nil 表示未设置（默认关闭）。
	Manifest *bool   `json:"manifest,omitempty"`
	Logging  Logging `json:"logging"`

	// 组件名选择（空则使用默认名）。
	Components Components `json:"components"`

	// 各组件 Options 子树，原样 JSON 传入工厂。
	Options Options `json:"options"`
}

// Output: 输出目录与扩展名。Dir 为空时沿用 writer 选项（默认当前目录）。
type Output struct {
	Dir string `json:"dir,omitempty"`
	Ext string `json:"ext,omitempty"`
}

// Logging: 仅保留日志等级可配置；输出路径与轮转策略为固定默认。
type Logging struct {
	Level string `json:"level,omitempty"`
}

// Components: 组件名选择（注册表中的实现名）。
type Components struct {
	Reader    string `json:"reader,omitempty"`
	Extractor string `json:"extractor,omitempty"`
	Emitter   string `json:"emitter,omitempty"`
	Writer    string `json:"writer,omitempty"`
	Manifest  string `json:"manifest,omitempty"`
}

// Options: 各组件的原样 JSON Options。
type Options struct {
	Reader    json.RawMessage `json:"reader,omitempty"`
	Extractor json.RawMessage `json:"extractor,omitempty"`
	Emitter   json.RawMessage `json:"emitter,omitempty"`
	Writer    json.RawMessage `json:"writer,omitempty"`
	Manifest  json.RawMessage `json:"manifest,omitempty"`
}

// Bool 返回指针布尔值；nil 视为 false。
func Bool(p *bool) bool { return p != nil && *p }

func boolPtr(v bool) *bool { return &v }
