package config

import (
	"bytes"
	"encoding/json"
	"strings"

	"gopkg.in/yaml.v3"

	"icongen/pkg/contract"
)

// legacyFonts: 历史生成脚本处理的字体头文件与宏前缀。
var legacyFonts = []contract.Source{
	{File: "FontAwesome6.h", Marker: "ICON_FA6"},
	{File: "FontAwesome6Brands.h", Marker: "ICON_FA6"},
	{File: "FontAwesome5.h", Marker: "ICON_FA5"},
	{File: "FontAwesome5Brands.h", Marker: "ICON_FA5"},
	{File: "FontAwesome4.h", Marker: "ICON_FA4"},
	{File: "CodIcons.h", Marker: "ICON_CI"},
	{File: "FontAudio.h", Marker: "ICON_FAD"},
	{File: "ForkAwesome.h", Marker: "ICON_FK"},
	{File: "Kenney.h", Marker: "ICON_KI"},
	{File: "Lucide.h", Marker: "ICON_LC"},
	{File: "MaterialDesign.h", Marker: "ICON_MD"},
	{File: "MaterialDesignIcons.h", Marker: "ICON_MDI"},
	{File: "MaterialSymbols.h", Marker: "ICON_MS"},
}

// DefaultTemplateConfig 返回一个“可运行”的默认配置模板：
// - Sources 为十三个常见图标字体头文件（当前目录）；
// - 输出 <base>.code 到当前目录，保留重复宏名以与历史产物逐字节一致；
// - 选项给出全部键与中性默认值。
func DefaultTemplateConfig() Config {
	d := Defaults()
	cfg := Config{
		Sources:    cloneSources(legacyFonts),
		Output:     Output{Dir: ".", Ext: d.Output.Ext},
		FailFast:   boolPtr(false),
		Manifest:   boolPtr(false),
		Logging:    d.Logging,
		Components: d.Components,
	}
	cfg.Options.Reader = json.RawMessage(`{"base_dir": "", "buf_size": 65536}`)
	cfg.Options.Extractor = json.RawMessage(`{"strict": false, "keep_duplicates": true, "require_prefix": false}`)
	cfg.Options.Emitter = json.RawMessage(`{
  "columns": 5,
  "flags_var": "flags",
  "open_var": "openWindow",
  "table_prefix": "Table-",
  "wrap_function": false,
  "class_name": ""
}`)
	cfg.Options.Writer = json.RawMessage(`{"atomic": true, "perm_file": 0, "perm_dir": 0, "buf_size": 65536}`)
	cfg.Options.Manifest = json.RawMessage(`{"ext": "icons.toml"}`)
	return cfg
}

// EncodeYAML 将 Config 编码为块风格 YAML（键顺序与 JSON 字段顺序一致）。
func EncodeYAML(cfg Config) ([]byte, error) {
	b, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	// JSON 是 YAML 的子集：解析为节点树后清除流式风格
	var doc yaml.Node
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	clearStyle(&doc)
	doc.HeadComment = "icongen 配置（由 init-config 生成）\n优先级：CLI > ENV(.env) > 配置文件 > 默认值"
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func clearStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		clearStyle(c)
	}
}

// DotEnvTemplate 返回 .env 模板内容（全部键留空）。
func DotEnvTemplate() string {
	var b strings.Builder
	b.WriteString("# icongen .env 模板（由 init-config 生成）\n")
	b.WriteString("# 优先级：CLI > ENV(.env) > 配置文件；已存在的环境变量不被 .env 覆盖。\n")
	b.WriteString("# 空值表示未设置。\n\n")

	b.WriteString("# 配置文件路径（.json / .yaml / .toml）\n")
	b.WriteString(EnvPrefix + "CONFIG_FILE=\n\n")

	b.WriteString("# 运行参数覆盖；SOURCES 为逗号分隔的 file:marker 列表\n")
	for _, k := range []string{"SOURCES", "OUTPUT_DIR", "OUTPUT_EXT", "FAIL_FAST", "MANIFEST", "LOG_LEVEL"} {
		b.WriteString(EnvPrefix + k + "=\n")
	}
	b.WriteString("\n# 组件选择与原样 JSON 选项\n")
	for _, k := range []string{"READER", "EXTRACTOR", "EMITTER", "WRITER", "MANIFEST"} {
		b.WriteString(EnvPrefix + "COMPONENTS_" + k + "=\n")
	}
	for _, k := range []string{"READER", "EXTRACTOR", "EMITTER", "WRITER", "MANIFEST"} {
		b.WriteString(EnvPrefix + "OPTIONS_" + k + "_JSON=\n")
	}
	return b.String()
}
