package config

import (
	"path/filepath"
	"strings"
	"time"
)

// Defaults for unspecified configuration fields. Zero values are replaced;
// explicit values are preserved.
const (
	// DefaultParallelism is the asset pipeline worker count.
	DefaultParallelism = 4

	// DefaultLockTimeout bounds the wait for the store lock.
	DefaultLockTimeout = 5 * time.Second
)

// ApplyDefaults sets default values for any unspecified configuration
// fields. Called after loading from file and environment.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyStoreDefaults(&cfg.Store)
	applyPipelineDefaults(&cfg.Pipeline)
	applySourceDefaults(&cfg.Source)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize to uppercase for consistent internal representation.
	cfg.Level = strings.ToUpper(cfg.Level)
}

func applyStoreDefaults(cfg *StoreConfig) {
	if cfg.AssetsPath == "" && cfg.BasePath != "" {
		cfg.AssetsPath = filepath.Join(cfg.BasePath, "Assets")
	}
	if cfg.LockTimeout == 0 {
		cfg.LockTimeout = DefaultLockTimeout
	}
}

func applyPipelineDefaults(cfg *PipelineConfig) {
	if cfg.Parallelism == 0 {
		cfg.Parallelism = DefaultParallelism
	}
}

func applySourceDefaults(cfg *SourceConfig) {
	if cfg.Type == "" {
		cfg.Type = "none"
	}
}
