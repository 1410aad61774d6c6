package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"icongen/pkg/contract"
)

// EnvPrefix 为全部环境变量的统一前缀。
const EnvPrefix = "ICONGEN_"

// Defaults 返回带有安全默认值的 Config 雏形（不含 Sources）。
func Defaults() Config {
	return Config{
		Output:  Output{Ext: "code"},
		Logging: Logging{Level: "info"},
		Components: Components{
			Reader:    "fs",
			Extractor: "macro",
			Emitter:   "imgui",
			Writer:    "fs",
			Manifest:  "toml",
		},
	}
}

// LoadFile 按扩展名选择格式：.json / .yaml / .yml / .toml。
func LoadFile(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return LoadJSON("", raw)
	case ".yaml", ".yml":
		return LoadYAML(raw)
	case ".toml":
		return LoadTOML(raw)
	default:
		return Config{}, fmt.Errorf("config: unsupported file type %q", filepath.Ext(path))
	}
}

// LoadJSON 从文件路径或原始 JSON 解析 Config（严格拒绝未知字段）。
func LoadJSON(path string, raw []byte) (Config, error) {
	var cfg Config
	var r io.Reader
	switch {
	case len(raw) > 0:
		r = bytes.NewReader(raw)
	case path != "":
		f, err := os.Open(path)
		if err != nil {
			return cfg, err
		}
		defer f.Close()
		r = f
	default:
		return cfg, errors.New("no config source provided")
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadYAML 解析 YAML：先解码为通用树，再经严格 JSON 解码。
func LoadYAML(raw []byte) (Config, error) {
	var tree map[string]any
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return Config{}, fmt.Errorf("yaml: %w", err)
	}
	return fromTree(tree)
}

// LoadTOML 解析 TOML：先解码为通用树，再经严格 JSON 解码。
func LoadTOML(raw []byte) (Config, error) {
	var tree map[string]any
	if err := toml.Unmarshal(raw, &tree); err != nil {
		return Config{}, fmt.Errorf("toml: %w", err)
	}
	return fromTree(tree)
}

func fromTree(tree map[string]any) (Config, error) {
	if len(tree) == 0 {
		return Config{}, nil
	}
	b, err := json.Marshal(tree)
	if err != nil {
		return Config{}, err
	}
	return LoadJSON("", b)
}

// Merge 按优先级合并（后者覆盖前者）。
// 仅标量/字符串/原样 JSON 为“替换”；不做深度合并。
func Merge(base, over Config) Config {
	out := base
	if len(over.Sources) > 0 {
		out.Sources = cloneSources(over.Sources)
	}
	if v := strings.TrimSpace(over.Output.Dir); v != "" {
		out.Output.Dir = v
	}
	if v := strings.TrimSpace(over.Output.Ext); v != "" {
		out.Output.Ext = v
	}
	if over.FailFast != nil {
		out.FailFast = boolPtr(*over.FailFast)
	}
	if over.Manifest != nil {
		out.Manifest = boolPtr(*over.Manifest)
	}
	if v := strings.TrimSpace(over.Logging.Level); v != "" {
		out.Logging.Level = v
	}

	// 组件名（空不覆盖）
	if over.Components.Reader != "" {
		out.Components.Reader = over.Components.Reader
	}
	if over.Components.Extractor != "" {
		out.Components.Extractor = over.Components.Extractor
	}
	if over.Components.Emitter != "" {
		out.Components.Emitter = over.Components.Emitter
	}
	if over.Components.Writer != "" {
		out.Components.Writer = over.Components.Writer
	}
	if over.Components.Manifest != "" {
		out.Components.Manifest = over.Components.Manifest
	}

	// Options（完整替换对应键）
	if len(over.Options.Reader) > 0 {
		out.Options.Reader = cloneRaw(over.Options.Reader)
	}
	if len(over.Options.Extractor) > 0 {
		out.Options.Extractor = cloneRaw(over.Options.Extractor)
	}
	if len(over.Options.Emitter) > 0 {
		out.Options.Emitter = cloneRaw(over.Options.Emitter)
	}
	if len(over.Options.Writer) > 0 {
		out.Options.Writer = cloneRaw(over.Options.Writer)
	}
	if len(over.Options.Manifest) > 0 {
		out.Options.Manifest = cloneRaw(over.Options.Manifest)
	}
	return out
}

// EnvOverlay 从环境变量构建一个 Config 覆盖（仅解析有限键集合）。
// 前缀 ICONGEN_；集合之外的键忽略。
// 支持：SOURCES, OUTPUT_DIR, OUTPUT_EXT, FAIL_FAST, MANIFEST, LOG_LEVEL,
// COMPONENTS_{READER,EXTRACTOR,EMITTER,WRITER,MANIFEST},
// OPTIONS_{READER,EXTRACTOR,EMITTER,WRITER,MANIFEST}_JSON。
// CONFIG_FILE 由 CLI 读取，不在此处理。
func EnvOverlay(environ []string) (Config, error) {
	var over Config
	for _, kv := range environ {
		if !strings.HasPrefix(kv, EnvPrefix) {
			continue
		}
		eq := strings.IndexByte(kv, '=')
		if eq <= len(EnvPrefix) {
			continue
		}
		key := kv[len(EnvPrefix):eq]
		val := strings.TrimSpace(kv[eq+1:])
		if val == "" {
			// 空值视为未设置，避免清空现有配置
			continue
		}
		switch key {
		case "SOURCES":
			srcs, err := ParseSourceList(val)
			if err != nil {
				return Config{}, fmt.Errorf("env %sSOURCES: %w", EnvPrefix, err)
			}
			over.Sources = srcs
		case "OUTPUT_DIR":
			over.Output.Dir = val
		case "OUTPUT_EXT":
			over.Output.Ext = val
		case "FAIL_FAST", "MANIFEST":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return Config{}, fmt.Errorf("env %s%s: %w", EnvPrefix, key, err)
			}
			if key == "FAIL_FAST" {
				over.FailFast = boolPtr(b)
			} else {
				over.Manifest = boolPtr(b)
			}
		case "LOG_LEVEL":
			over.Logging.Level = val
		case "COMPONENTS_READER":
			over.Components.Reader = val
		case "COMPONENTS_EXTRACTOR":
			over.Components.Extractor = val
		case "COMPONENTS_EMITTER":
			over.Components.Emitter = val
		case "COMPONENTS_WRITER":
			over.Components.Writer = val
		case "COMPONENTS_MANIFEST":
			over.Components.Manifest = val
		case "OPTIONS_READER_JSON":
			over.Options.Reader = json.RawMessage(val)
		case "OPTIONS_EXTRACTOR_JSON":
			over.Options.Extractor = json.RawMessage(val)
		case "OPTIONS_EMITTER_JSON":
			over.Options.Emitter = json.RawMessage(val)
		case "OPTIONS_WRITER_JSON":
			over.Options.Writer = json.RawMessage(val)
		case "OPTIONS_MANIFEST_JSON":
			over.Options.Manifest = json.RawMessage(val)
		}
	}
	return over, nil
}

// ParseSourceArg 解析 "file:marker"；以最后一个 ':' 切分，兼容 Windows 盘符。
func ParseSourceArg(s string) (contract.Source, error) {
	s = strings.TrimSpace(s)
	i := strings.LastIndexByte(s, ':')
	if i <= 0 || i == len(s)-1 {
		return contract.Source{}, fmt.Errorf("%w: source %q: want file:marker", contract.ErrInvalidInput, s)
	}
	file := strings.TrimSpace(s[:i])
	marker := strings.TrimSpace(s[i+1:])
	if file == "" || marker == "" {
		return contract.Source{}, fmt.Errorf("%w: source %q: want file:marker", contract.ErrInvalidInput, s)
	}
	return contract.Source{File: file, Marker: marker}, nil
}

// ParseSourceList 解析逗号分隔的 "file:marker" 列表。
func ParseSourceList(s string) ([]contract.Source, error) {
	var out []contract.Source
	for _, p := range splitComma(s) {
		src, err := ParseSourceArg(p)
		if err != nil {
			return nil, err
		}
		out = append(out, src)
	}
	return out, nil
}

// SetOption 在原样 JSON 选项对象上设置一个键并返回新对象；raw 为空时视为 {}。
func SetOption(raw json.RawMessage, key string, val any) (json.RawMessage, error) {
	m := map[string]any{}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("options: %w", err)
		}
		if m == nil {
			m = map[string]any{}
		}
	}
	m[key] = val
	return json.Marshal(m)
}

func cloneSources(in []contract.Source) []contract.Source {
	if len(in) == 0 {
		return nil
	}
	out := make([]contract.Source, len(in))
	copy(out, in)
	return out
}

func cloneRaw(in json.RawMessage) json.RawMessage {
	if len(in) == 0 {
		return nil
	}
	out := make([]byte, len(in))
	copy(out, in)
	return out
}

func splitComma(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
