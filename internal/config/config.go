// Package config provides configuration loading for jurimetrics.
//
// Precedence (highest to lowest): environment variables with the
// JURIMETRICS_ prefix, the YAML config file, built-in defaults.
package config

import (
	"fmt"
	"time"

	"github.com/fallaxis/jurimetrics/internal/logging"
)

// Config is the full process configuration.
type Config struct {
	Logging   logging.Config  `koanf:"logging"`
	Storage   StorageConfig   `koanf:"storage"`
	Catalog   CatalogConfig   `koanf:"catalog"`
	Analysis  AnalysisConfig  `koanf:"analysis"`
	Pipeline  PipelineConfig  `koanf:"pipeline"`
	Models    ModelsConfig    `koanf:"models"`
	Server    ServerConfig    `koanf:"server"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

// StorageConfig selects and configures the record store.
type StorageConfig struct {
	// Driver is "memory" or "postgres".
	Driver string `koanf:"driver"`
	// DSN is the PostgreSQL connection string; required for the
	// postgres driver.
	DSN string `koanf:"dsn"`
}

// CatalogConfig locates the factor catalog.
type CatalogConfig struct {
	// Path points to a YAML catalog; empty uses the built-in catalog.
	Path string `koanf:"path"`
	// Watch enables hot reload of the catalog file under serve.
	Watch bool `koanf:"watch"`
}

// AnalysisConfig carries the statistical thresholds.
type AnalysisConfig struct {
	MinDecisionsProfile int     `koanf:"min_decisions_profile"`
	MinDecisionsLine    int     `koanf:"min_decisions_line"`
	MinDecisionsModel   int     `koanf:"min_decisions_model"`
	SplitRatio          float64 `koanf:"split_ratio"`
	DistanceThreshold   float64 `koanf:"distance_threshold"`
	SaturationK         int     `koanf:"saturation_k"`
	MinWords            int     `koanf:"min_words"`
	Seed                int64   `koanf:"seed"`
}

// PipelineConfig bounds batch execution.
type PipelineConfig struct {
	Workers       int           `koanf:"workers"`
	RetryAttempts int           `koanf:"retry_attempts"`
	RetryBackoff  time.Duration `koanf:"retry_backoff"`
}

// ModelsConfig locates the model registry.
type ModelsConfig struct {
	Dir string `koanf:"dir"`
}

// ServerConfig configures the observability listener.
type ServerConfig struct {
	Addr string `koanf:"addr"`
}

// TelemetryConfig configures trace export.
type TelemetryConfig struct {
	Enabled     bool   `koanf:"enabled"`
	Endpoint    string `koanf:"endpoint"`
	Insecure    bool   `koanf:"insecure"`
	ServiceName string `koanf:"service_name"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Logging: logging.NewDefaultConfig(),
		Storage: StorageConfig{Driver: "memory"},
		Analysis: AnalysisConfig{
			MinDecisionsProfile: 3,
			MinDecisionsLine:    3,
			MinDecisionsModel:   5,
			SplitRatio:          0.8,
			DistanceThreshold:   0.35,
			SaturationK:         10,
			MinWords:            120,
			Seed:                42,
		},
		Pipeline: PipelineConfig{
			Workers:       4,
			RetryAttempts: 3,
			RetryBackoff:  50 * time.Millisecond,
		},
		Models:    ModelsConfig{Dir: "models"},
		Server:    ServerConfig{Addr: ":9090"},
		Telemetry: TelemetryConfig{Endpoint: "localhost:4317", ServiceName: "jurimetrics"},
	}
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "memory":
	case "postgres":
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if c.Analysis.SplitRatio <= 0 || c.Analysis.SplitRatio >= 1 {
		return fmt.Errorf("analysis.split_ratio must be in (0, 1), got %v", c.Analysis.SplitRatio)
	}
	if c.Analysis.DistanceThreshold < 0 {
		return fmt.Errorf("analysis.distance_threshold must not be negative, got %v", c.Analysis.DistanceThreshold)
	}
	if c.Analysis.SaturationK <= 0 {
		return fmt.Errorf("analysis.saturation_k must be positive, got %d", c.Analysis.SaturationK)
	}
	if c.Pipeline.Workers <= 0 {
		return fmt.Errorf("pipeline.workers must be positive, got %d", c.Pipeline.Workers)
	}
	if c.Models.Dir == "" {
		return fmt.Errorf("models.dir is required")
	}
	return nil
}
