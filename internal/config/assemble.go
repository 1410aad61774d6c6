package config

import (
	"errors"
	"fmt"
	"strings"

	"icongen/internal/pipeline"
	"icongen/pkg/contract"
	"icongen/pkg/registry"
)

var validLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate 对最小必要边界做静态校验。
func Validate(cfg Config) error {
	if len(cfg.Sources) == 0 {
		return errors.New("config: sources empty")
	}
	seen := make(map[contract.ArtifactID]string, len(cfg.Sources))
	ext := effName(cfg.Output.Ext, Defaults().Output.Ext)
	for i, s := range cfg.Sources {
		if strings.TrimSpace(s.File) == "" {
			return fmt.Errorf("config: sources[%d]: file cannot be empty", i)
		}
		if strings.TrimSpace(s.Marker) == "" {
			return fmt.Errorf("config: sources[%d]: marker cannot be empty", i)
		}
		if s.Base() == "" {
			return fmt.Errorf("config: sources[%d]: file %q has empty base name", i, s.File)
		}
		// 同名工件会被后一个源静默覆盖
		id := s.ArtifactFor(ext)
		if prev, ok := seen[id]; ok {
			return fmt.Errorf("config: sources %q and %q both write %q", prev, s.File, id)
		}
		seen[id] = s.File
	}
	if strings.ContainsAny(cfg.Output.Ext, `/\`) {
		return fmt.Errorf("config: output.ext %q cannot contain path separators", cfg.Output.Ext)
	}
	if lv := strings.ToLower(strings.TrimSpace(cfg.Logging.Level)); lv != "" && !validLevels[lv] {
		return fmt.Errorf("config: logging.level %q invalid", cfg.Logging.Level)
	}
	d := Defaults().Components
	if name := effName(cfg.Components.Reader, d.Reader); registry.Reader[name] == nil {
		return fmt.Errorf("config: reader %q not registered", name)
	}
	if name := effName(cfg.Components.Extractor, d.Extractor); registry.Extractor[name] == nil {
		return fmt.Errorf("config: extractor %q not registered", name)
	}
	if name := effName(cfg.Components.Emitter, d.Emitter); registry.Emitter[name] == nil {
		return fmt.Errorf("config: emitter %q not registered", name)
	}
	if name := effName(cfg.Components.Writer, d.Writer); registry.Writer[name] == nil {
		return fmt.Errorf("config: writer %q not registered", name)
	}
	if name := effName(cfg.Components.Manifest, d.Manifest); Bool(cfg.Manifest) && registry.Manifest[name] == nil {
		return fmt.Errorf("config: manifest %q not registered", name)
	}
	return nil
}

// Assemble 构造 Components 与 Settings。
// 严格 Options 解析在 registry（工厂）层进行；此处只传 raw JSON。
func Assemble(cfg Config) (pipeline.Components, pipeline.Settings, error) {
	if err := Validate(cfg); err != nil {
		return pipeline.Components{}, pipeline.Settings{}, err
	}
	d := Defaults()

	r, err := registry.Reader[effName(cfg.Components.Reader, d.Components.Reader)](cfg.Options.Reader)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("config: reader options: %w", err)
	}
	ex, err := registry.Extractor[effName(cfg.Components.Extractor, d.Components.Extractor)](cfg.Options.Extractor)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("config: extractor options: %w", err)
	}
	em, err := registry.Emitter[effName(cfg.Components.Emitter, d.Components.Emitter)](cfg.Options.Emitter)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("config: emitter options: %w", err)
	}
	// output.dir 优先于 options.writer.output_dir
	wraw := cfg.Options.Writer
	if dir := strings.TrimSpace(cfg.Output.Dir); dir != "" {
		if wraw, err = SetOption(wraw, "output_dir", dir); err != nil {
			return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("config: writer options: %w", err)
		}
	}
	w, err := registry.Writer[effName(cfg.Components.Writer, d.Components.Writer)](wraw)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("config: writer options: %w", err)
	}
	comp := pipeline.Components{Reader: r, Extractor: ex, Emitter: em, Writer: w}
	if Bool(cfg.Manifest) {
		m, err := registry.Manifest[effName(cfg.Components.Manifest, d.Components.Manifest)](cfg.Options.Manifest)
		if err != nil {
			return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("config: manifest options: %w", err)
		}
		comp.Manifest = m
	}

	set := pipeline.Settings{
		Sources:   cloneSources(cfg.Sources),
		OutputExt: effName(cfg.Output.Ext, d.Output.Ext),
		FailFast:  Bool(cfg.FailFast),
	}
	return comp, set, nil
}

func effName(got, def string) string {
	if strings.TrimSpace(got) == "" {
		return def
	}
	return strings.TrimSpace(got)
}
