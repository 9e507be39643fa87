// Package config loads packmule's configuration: the store layout, the
// asset pipeline tuning, and the asset source the pipeline fetches from.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (PACKMULE_*)
//  2. Configuration file (YAML)
//  3. Default values
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the complete packmule configuration.
type Config struct {
	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging"`

	// Store configures the local data store.
	Store StoreConfig `mapstructure:"store"`

	// Pipeline configures the asset download pipeline.
	Pipeline PipelineConfig `mapstructure:"pipeline"`

	// Source specifies the asset source type and type-specific options.
	Source SourceConfig `mapstructure:"source"`

	// Metrics toggles Prometheus metrics collection.
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output.
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`
}

// StoreConfig configures the local store directories and lock.
type StoreConfig struct {
	// BasePath is the root of the entity tree. May be supplied on the
	// command line instead of in the file; callers that need it set check
	// for it themselves.
	BasePath string `mapstructure:"base_path"`

	// AssetsPath is the asset cache root. Defaults to <base_path>/Assets.
	AssetsPath string `mapstructure:"assets_path"`

	// LockTimeout bounds the wait for the store lock during Prepare.
	LockTimeout time.Duration `mapstructure:"lock_timeout" validate:"min=0"`
}

// PipelineConfig tunes the asset download pipeline.
type PipelineConfig struct {
	// Parallelism is the worker count bounding concurrent downloads.
	Parallelism int `mapstructure:"parallelism" validate:"min=1"`

	// CarefulDisk serializes verification reads of existing files, for
	// spinning media that suffers under concurrent random access.
	CarefulDisk bool `mapstructure:"careful_disk"`
}

// SourceConfig selects and configures the asset source. Only the section
// matching Type is used.
type SourceConfig struct {
	// Type is the asset source type: "s3" or "none".
	Type string `mapstructure:"type" validate:"required,oneof=s3 none"`

	// S3 holds options for the S3 source (see factories.go).
	S3 map[string]any `mapstructure:"s3"`
}

// MetricsConfig toggles metrics collection.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Load reads configuration from configPath (or the default location when
// empty), applies environment overrides and defaults, and validates the
// result.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use the PACKMULE_ prefix with underscores,
	// e.g. PACKMULE_PIPELINE_PARALLELISM=8.
	v.SetEnvPrefix("PACKMULE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(defaultConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		// A missing config file is acceptable - defaults apply.
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

func defaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "packmule")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "packmule")
}
