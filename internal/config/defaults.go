// Package config holds the tool configuration: ambient defaults loaded
// from the config file and environment, and the per-run trace
// configuration assembled from command line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Defaults are the ambient settings a config file or environment can
// override; flags still win over both.
type Defaults struct {
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`
	MaxWidth    int    `mapstructure:"max_width"`
	NullMarker  string `mapstructure:"null_marker"`
	MetricsAddr string `mapstructure:"metrics_addr"`
	BufferPages int    `mapstructure:"buffer_pages"`
}

// Default returns the built-in defaults, used when no config file can
// be loaded.
func Default() *Defaults {
	return &Defaults{
		LogLevel:    "info",
		LogFormat:   "text",
		MaxWidth:    120,
		NullMarker:  "null",
		BufferPages: 8,
	}
}

// Load reads defaults from path, or when path is empty from
// $ETRACE_CONFIG_DIR/config.yaml (falling back to
// ~/.etrace/config.yaml), with ETRACE_* environment overrides. A
// missing config file is fine.
func Load(path string) (*Defaults, error) {
	v := viper.New()

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("max_width", 120)
	v.SetDefault("null_marker", "null")
	v.SetDefault("metrics_addr", "")
	v.SetDefault("buffer_pages", 8)

	if path == "" {
		configDir := os.Getenv("ETRACE_CONFIG_DIR")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("determine home directory: %w", err)
			}
			configDir = filepath.Join(home, ".etrace")
		}
		path = filepath.Join(configDir, "config.yaml")
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("ETRACE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	_ = v.ReadInConfig() // file may not exist yet

	cfg := &Defaults{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}
