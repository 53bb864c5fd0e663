package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/pida/internal/stage"
)

// LogConfig controls diagnostic logging. The event log is separate.
type LogConfig struct {
	Level string `yaml:"level" env:"PIDA_LOG_LEVEL"`
	File  string `yaml:"file" env:"PIDA_LOG_FILE"`
}

// Config holds all agent settings.
type Config struct {
	Stage   int       `yaml:"stage" env:"PIDA_STAGE"`
	RunsDir string    `yaml:"runs_dir" env:"PIDA_RUNS_DIR"`
	Log     LogConfig `yaml:"log"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		Stage:   int(stage.Max),
		RunsDir: filepath.Join("data", "runs"),
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns ~/.pida/config.yaml, or "" if there is no home directory.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".pida", "config.yaml")
}

// Load reads the YAML config at path, then applies environment overrides.
// Empty path falls back to DefaultPath. A missing file yields defaults;
// invalid YAML is an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// StageValue returns the configured stage clamped into range.
func (c *Config) StageValue() stage.Stage {
	return stage.Clamp(c.Stage)
}

// DefaultConfigYAML renders the defaults as a commented YAML document.
func DefaultConfigYAML() string {
	return `# pida agent configuration
stage: 3              # 0 existence, 1 causal memory, 2 preference, 3 consistency
runs_dir: data/runs   # one directory per run, holding life_log.jsonl
log:
  level: info         # debug|info|warn|error
  file: ""            # optional rotated JSON diagnostics file
`
}
