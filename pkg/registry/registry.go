package registry

import (
	"bytes"
	"encoding/json"

	"icongen/pkg/contract"
	imgui "icongen/plugins/emitter/imgui"
	macro "icongen/plugins/extractor/macro"
	mtoml "icongen/plugins/manifest/tomlfile"
	rfs "icongen/plugins/reader/filesystem"
	rmem "icongen/plugins/reader/memory"
	wfs "icongen/plugins/writer/filesystem"
)

// strictUnmarshal: 使用 DisallowUnknownFields 严格解码，拒绝未知字段。
func strictUnmarshal(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		// 保持零值（默认选项）
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// NewReader 工厂签名：接收原样 JSON Options。
type NewReader func(raw json.RawMessage) (contract.Reader, error)

// NewExtractor 工厂签名：接收原样 JSON Options。
type NewExtractor func(raw json.RawMessage) (contract.Extractor, error)

// NewEmitter 工厂签名：接收原样 JSON Options。
type NewEmitter func(raw json.RawMessage) (contract.Emitter, error)

// NewWriter 工厂签名：接收原样 JSON Options。
type NewWriter func(raw json.RawMessage) (contract.Writer, error)

// NewManifest 工厂签名：接收原样 JSON Options。
type NewManifest func(raw json.RawMessage) (contract.Manifest, error)

// Reader 工厂注册表（显式、零反射）。
var Reader = map[string]NewReader{
	// fs: 文件系统/STDIN Reader
	"fs": func(raw json.RawMessage) (contract.Reader, error) {
		var opts rfs.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return rfs.New(&opts), nil
	},
	// memory: 内存文件表（测试与内嵌场景）
	"memory": func(raw json.RawMessage) (contract.Reader, error) {
		var opts rmem.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return rmem.New(&opts), nil
	},
}

// Extractor 工厂注册表。
var Extractor = map[string]NewExtractor{
	// macro: 按标记子串抽取第二个 token
	"macro": func(raw json.RawMessage) (contract.Extractor, error) {
		var opts macro.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return macro.New(&opts), nil
	},
}

// Emitter 工厂注册表。
var Emitter = map[string]NewEmitter{
	// imgui: Dear ImGui 窗口 + 表格声明
	"imgui": func(raw json.RawMessage) (contract.Emitter, error) {
		var opts imgui.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return imgui.New(&opts)
	},
}

// Writer 工厂注册表。
var Writer = map[string]NewWriter{
	// fs: 文件系统 Writer（覆盖写/原子替换可配置）
	"fs": func(raw json.RawMessage) (contract.Writer, error) {
		var opts wfs.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return wfs.New(&opts)
	},
}

// Manifest 工厂注册表。
var Manifest = map[string]NewManifest{
	// toml: 每个源一份 <base>.icons.toml 清单
	"toml": func(raw json.RawMessage) (contract.Manifest, error) {
		var opts mtoml.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return mtoml.New(&opts), nil
	},
}
