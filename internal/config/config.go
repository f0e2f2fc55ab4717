// internal/config/config.go
//
// This package handles configuration and the .strata directory structure.
// Every project that uses strata gets a .strata/ folder created in its root.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/reedfield/strata/internal/spec"
)

const (
	// StrataDir is the name of the directory we create in each project
	StrataDir = ".strata"

	defaultPolicyID       = "default"
	defaultPortfolioWidth = 3
)

const defaultProjectConfigYAML = `# strata project configuration
version: 1

engine:
  # Ladder tier a goal enters at when the goal file does not say.
  default_level: mission
  # Candidate strategies explored per portfolio execution.
  portfolio_width: 3

# Strategy/validation policy per ladder tier. Unlisted tiers use "default".
policies:
  mission: mission-templates
  capability: capability-templates

plugins:
  # Load policy definitions from .strata/plugins/*.go at startup.
  enabled: true
`

// EngineConfig captures delegation engine preferences.
type EngineConfig struct {
	DefaultLevel   string `yaml:"default_level"`
	PortfolioWidth int    `yaml:"portfolio_width"`
}

// PluginConfig controls policy plugin loading.
type PluginConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir,omitempty"`
}

// ProjectConfig models .strata/config.yaml.
type ProjectConfig struct {
	Version  int               `yaml:"version"`
	Engine   EngineConfig      `yaml:"engine"`
	Policies map[string]string `yaml:"policies"`
	Plugins  PluginConfig      `yaml:"plugins"`
}

// Config holds the runtime configuration for strata.
type Config struct {
	// ProjectDir is the directory where the user ran `strata` from
	ProjectDir string

	// StrataProjectDir is ProjectDir/.strata
	StrataProjectDir string

	Project ProjectConfig
}

// InitStrataDir creates the .strata directory structure in the given
// project directory.
//
// Structure created:
// .strata/
// ├── logs/      <- Engine log output
// ├── state/     <- Persisted session state between runs
// ├── journal/   <- Delegation event journal
// ├── plugins/   <- Policy definition plugins (*.go)
// └── goals/     <- Goal record files (*.yaml)
func InitStrataDir(projectDir string) error {
	strataDir := filepath.Join(projectDir, StrataDir)

	dirs := []string{
		filepath.Join(strataDir, "logs"),
		filepath.Join(strataDir, "state"),
		filepath.Join(strataDir, "journal"),
		filepath.Join(strataDir, "plugins"),
		filepath.Join(strataDir, "goals"),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	return ensureProjectConfig(filepath.Join(strataDir, "config.yaml"))
}

// NewConfig creates a new Config instance populated with project settings.
func NewConfig(projectDir string) (*Config, error) {
	cfg := &Config{
		ProjectDir:       projectDir,
		StrataProjectDir: filepath.Join(projectDir, StrataDir),
		Project:          defaultProjectConfig(),
	}

	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.StrataProjectDir, "logs")
}

// StateDir returns the path to the state directory
func (c *Config) StateDir() string {
	return filepath.Join(c.StrataProjectDir, "state")
}

// JournalDir returns the directory holding the delegation event journal
func (c *Config) JournalDir() string {
	return filepath.Join(c.StrataProjectDir, "journal")
}

// PluginsDir returns the directory scanned for policy definition plugins.
// A dir set in config.yaml overrides the default location.
func (c *Config) PluginsDir() string {
	if c.Project.Plugins.Dir != "" {
		return c.Project.Plugins.Dir
	}
	return filepath.Join(c.StrataProjectDir, "plugins")
}

// GoalsDir returns the directory holding goal record files
func (c *Config) GoalsDir() string {
	return filepath.Join(c.StrataProjectDir, "goals")
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.StrataProjectDir, "config.yaml")
}

// DefaultLevel returns the ladder tier goals enter at by default.
func (c *Config) DefaultLevel() spec.Level {
	level, err := spec.ParseLevel(c.Project.Engine.DefaultLevel)
	if err != nil {
		return spec.LevelMission
	}
	return level
}

// PortfolioWidth returns the configured candidate count for portfolio
// execution.
func (c *Config) PortfolioWidth() int {
	if c.Project.Engine.PortfolioWidth < 1 {
		return defaultPortfolioWidth
	}
	return c.Project.Engine.PortfolioWidth
}

// PolicyFor returns the policy identifier configured for a ladder tier.
func (c *Config) PolicyFor(level spec.Level) string {
	if id, ok := c.Project.Policies[level.Name()]; ok && strings.TrimSpace(id) != "" {
		return strings.TrimSpace(id)
	}
	return defaultPolicyID
}

// PluginsEnabled reports whether policy plugins should be loaded.
func (c *Config) PluginsEnabled() bool {
	return c.Project.Plugins.Enabled
}

// SetPolicy assigns a policy identifier to a ladder tier and persists the
// value back to .strata/config.yaml.
func (c *Config) SetPolicy(level spec.Level, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("config: policy id is required")
	}
	if !level.Valid() {
		return fmt.Errorf("config: invalid level %d", int(level))
	}
	if c.Project.Policies == nil {
		c.Project.Policies = map[string]string{}
	}
	c.Project.Policies[level.Name()] = id
	return c.saveProjectConfig()
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed ProjectConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize(c.ProjectDir)
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version: 1,
		Engine: EngineConfig{
			DefaultLevel:   spec.LevelMission.Name(),
			PortfolioWidth: defaultPortfolioWidth,
		},
		Policies: map[string]string{},
		Plugins:  PluginConfig{Enabled: true},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if pc.Policies == nil {
		pc.Policies = map[string]string{}
	}
	if pc.Engine.DefaultLevel == "" {
		pc.Engine.DefaultLevel = spec.LevelMission.Name()
	}
	if pc.Engine.PortfolioWidth == 0 {
		pc.Engine.PortfolioWidth = defaultPortfolioWidth
	}
}

func (pc *ProjectConfig) normalize(base string) {
	pc.Engine.DefaultLevel = strings.ToLower(strings.TrimSpace(pc.Engine.DefaultLevel))
	policies := make(map[string]string, len(pc.Policies))
	for tier, id := range pc.Policies {
		policies[strings.ToLower(strings.TrimSpace(tier))] = strings.TrimSpace(id)
	}
	pc.Policies = policies
	pc.Plugins.Dir = resolvePath(base, pc.Plugins.Dir)
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if _, err := spec.ParseLevel(pc.Engine.DefaultLevel); err != nil {
		return fmt.Errorf("engine.default_level: %w", err)
	}
	if pc.Engine.PortfolioWidth < 1 {
		return fmt.Errorf("engine.portfolio_width must be >= 1")
	}
	for tier, id := range pc.Policies {
		if _, err := spec.ParseLevel(tier); err != nil {
			return fmt.Errorf("policies[%s]: %w", tier, err)
		}
		if id == "" {
			return fmt.Errorf("policies[%s]: policy id is required", tier)
		}
	}
	return nil
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0644)
}

func (c *Config) saveProjectConfig() error {
	if c == nil {
		return fmt.Errorf("config: nil receiver")
	}
	c.Project.applyDefaults()
	c.Project.normalize(c.ProjectDir)
	if err := c.Project.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.MkdirAll(c.StrataProjectDir, 0o755); err != nil {
		return fmt.Errorf("config: ensure strata dir: %w", err)
	}
	data, err := yaml.Marshal(c.Project)
	if err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := os.WriteFile(c.ProjectConfigPath(), data, 0644); err != nil {
		return fmt.Errorf("config: write project config: %w", err)
	}
	return nil
}
