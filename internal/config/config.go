// Package config loads the application config file, merging file content
// over built-in defaults.
package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	toml "github.com/pelletier/go-toml/v2"
)

type Config struct {
	Tracking TrackingConfig `toml:"tracking"`
	Display  DisplayConfig  `toml:"display"`
	Rules    RulesConfig    `toml:"rules"`
	Tee      TeeConfig      `toml:"tee"`
}

type TrackingConfig struct {
	Enabled bool   `toml:"enabled"`
	DBPath  string `toml:"db_path"`
}

type DisplayConfig struct {
	Color bool `toml:"color"`
}

type RulesConfig struct {
	// ExtraDirs are searched for rule files after the project-local and
	// user directories.
	ExtraDirs []string `toml:"extra_dirs"`
}

type TeeConfig struct {
	Enabled     bool   `toml:"enabled"`
	Mode        string `toml:"mode"` // "failures", "always", "never"
	MaxFiles    int    `toml:"max_files"`
	MaxFileSize int64  `toml:"max_file_size"`
	Dir         string `toml:"dir"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Tracking: TrackingConfig{
			Enabled: true,
			DBPath:  filepath.Join(xdg.DataHome, "pare", "tracking.db"),
		},
		Display: DisplayConfig{
			Color: true,
		},
		Tee: TeeConfig{
			Enabled:     true,
			Mode:        "failures",
			MaxFiles:    20,
			MaxFileSize: 1 << 20, // 1MB
			Dir:         filepath.Join(xdg.DataHome, "pare", "tee"),
		},
	}
}

// Load reads config from file, merging with defaults. Returns defaults if file missing.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	path := Path()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Path returns the config file location. PARE_CONFIG overrides the default
// under the XDG config directory.
func Path() string {
	if p := os.Getenv("PARE_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(xdg.ConfigHome, "pare", "config.toml")
}
