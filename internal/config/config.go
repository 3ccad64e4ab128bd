package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"sprawlstats/internal/errors"
)

// Config represents the complete engine configuration
type Config struct {
	Cache    CacheConfig    `yaml:"cache"`
	Workers  WorkerConfig   `yaml:"workers"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Server   ServerConfig   `yaml:"server"`
	LogLevel string         `yaml:"logLevel" validate:"omitempty,oneof=ERROR WARN INFO DEBUG TRACE"`
}

// CacheConfig holds result cache settings
type CacheConfig struct {
	TTL             time.Duration `yaml:"ttl" validate:"gt=0"`
	JanitorInterval time.Duration `yaml:"janitorInterval" validate:"gte=0"`
}

// WorkerConfig holds background worker pool settings
type WorkerConfig struct {
	Enabled   bool `yaml:"enabled"`
	Count     int  `yaml:"count" validate:"gte=1,lte=256"`
	QueueSize int  `yaml:"queueSize" validate:"gte=1"`
	Threshold int  `yaml:"threshold" validate:"gte=0"`
}

// AnalysisConfig holds kernel defaults
type AnalysisConfig struct {
	MaxSamples   int     `yaml:"maxSamples" validate:"gt=0"`
	RegionSize   float64 `yaml:"regionSize" validate:"gt=0"`
	SectorRadius float64 `yaml:"sectorRadius" validate:"gt=0"`
}

// ServerConfig holds HTTP API settings
type ServerConfig struct {
	Port string `yaml:"port" validate:"required"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Cache: CacheConfig{
			TTL:             10 * time.Minute,
			JanitorInterval: time.Minute,
		},
		Workers: WorkerConfig{
			Enabled:   true,
			Count:     detectWorkerCount(),
			QueueSize: 64,
			Threshold: 5000,
		},
		Analysis: AnalysisConfig{
			MaxSamples:   10000,
			RegionSize:   100,
			SectorRadius: 50,
		},
		Server: ServerConfig{
			Port: "8080",
		},
		LogLevel: "INFO",
	}
}

// Load builds the configuration from defaults, an optional YAML file named by
// SPRAWL_CONFIG, and environment overrides, then validates it
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("SPRAWL_CONFIG"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, errors.Wrap(err, "failed to load configuration file")
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return cfg, nil
}

// LoadFile builds the configuration from defaults and a YAML file only
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.mergeFile(path); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, fmt.Errorf("parse %s: %w", path, err))
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Cache.TTL = getEnvDurationOrDefault("CACHE_TTL", c.Cache.TTL)
	c.Cache.JanitorInterval = getEnvDurationOrDefault("CACHE_JANITOR_INTERVAL", c.Cache.JanitorInterval)
	c.Workers.Enabled = getEnvBoolOrDefault("WORKERS_ENABLED", c.Workers.Enabled)
	c.Workers.Count = getEnvIntOrDefault("WORKER_COUNT", c.Workers.Count)
	c.Workers.QueueSize = getEnvIntOrDefault("WORKER_QUEUE_SIZE", c.Workers.QueueSize)
	c.Workers.Threshold = getEnvIntOrDefault("WORKER_THRESHOLD", c.Workers.Threshold)
	c.Analysis.MaxSamples = getEnvIntOrDefault("MAX_SAMPLES", c.Analysis.MaxSamples)
	c.Analysis.RegionSize = getEnvFloatOrDefault("REGION_SIZE", c.Analysis.RegionSize)
	c.Analysis.SectorRadius = getEnvFloatOrDefault("SECTOR_RADIUS", c.Analysis.SectorRadius)
	c.Server.Port = getEnvOrDefault("PORT", c.Server.Port)
	c.LogLevel = getEnvOrDefault("LOG_LEVEL", c.LogLevel)
}

// Validate checks every section
func (c *Config) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	return nil
}

var configValidate = validator.New()

// detectWorkerCount sizes the pool to hardware concurrency, defaulting to 4
func detectWorkerCount() int {
	if n := runtime.NumCPU(); n > 0 {
		return n
	}
	return 4
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
