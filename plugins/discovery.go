package plugins

import (
	"fmt"

	"github.com/reedfield/strata/internal/config"
	"github.com/reedfield/strata/internal/walker"
)

// RegisterPolicyPlugins discovers YAML and Go policy definitions under the
// project's plugin directory and registers them. Returns the definitions so
// callers can inspect tier targeting.
func RegisterPolicyPlugins(reg *walker.Registry, cfg *config.Config) ([]DefinitionFile, error) {
	if reg == nil || cfg == nil || !cfg.PluginsEnabled() {
		return nil, nil
	}
	defs, err := loadAllDefinitionFiles(cfg.PluginsDir())
	if err != nil {
		return nil, err
	}
	if len(defs) == 0 {
		return nil, nil
	}
	seen := make(map[string]string)
	for _, file := range defs {
		def := file.Definition
		if existing, ok := seen[def.ID]; ok {
			return nil, fmt.Errorf("plugin: duplicate policy id %s (%s and %s)", def.ID, existing, file.Path)
		}
		seen[def.ID] = file.Path
		defCopy := def
		if err := reg.Register(defCopy.ID, func() (walker.Policy, error) {
			return NewPolicy(defCopy)
		}); err != nil {
			return nil, fmt.Errorf("plugin: register %s from %s: %w", def.ID, file.Path, err)
		}
	}
	return defs, nil
}

func loadAllDefinitionFiles(dir string) ([]DefinitionFile, error) {
	yamlDefs, err := LoadDefinitionDir(dir)
	if err != nil {
		return nil, err
	}
	goDefs, err := LoadGoDefinitionDir(dir)
	if err != nil {
		return nil, err
	}
	return append(yamlDefs, goDefs...), nil
}
