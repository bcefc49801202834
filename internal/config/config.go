// Package config loads the ambient settings for pbench's optional
// dashboard, run-history store, and logging — never the core benchmark
// surface (-s/-r/-p/-n/-t/-l/-4/-6), which stays plain flag parsing in
// cmd/pbench per SPEC_FULL.md §4.K.
//
// Layering, highest priority last: hardcoded defaults, an optional YAML
// file, PBENCH_* environment variables. CLI overrides are applied by the
// caller after Load returns.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the ambient settings.
type Config struct {
	Logging   LoggingConfig
	Dashboard DashboardConfig
	Store     StoreConfig
}

// LoggingConfig controls the internal/logging handler.
type LoggingConfig struct {
	Level            string `mapstructure:"level"`
	Structured       bool   `mapstructure:"structured"`
	StructuredFormat string `mapstructure:"structured_format"`
	IncludePID       bool   `mapstructure:"include_pid"`
}

// DashboardConfig controls the optional monitoring HTTP surface.
type DashboardConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// StoreConfig controls the optional SQLite run-history store.
type StoreConfig struct {
	Path string `mapstructure:"path"` // empty disables persistence
}

// Load reads defaults, an optional YAML file at configPath (ignored if
// empty), and PBENCH_* environment variables, in that order.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("PBENCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: failed to read %s: %w", configPath, err)
		}
	}

	// Unmarshal resolves every leaf key through Get, so PBENCH_* values
	// override nested defaults and file values key by key.
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "INFO")
	v.SetDefault("logging.structured", false)
	v.SetDefault("logging.structured_format", "json")
	v.SetDefault("logging.include_pid", false)

	v.SetDefault("dashboard.enabled", false)
	v.SetDefault("dashboard.addr", "127.0.0.1:8080")

	v.SetDefault("store.path", "")
}
