package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/platinummonkey/palletdiff/pkg/observability"
	"github.com/platinummonkey/palletdiff/pkg/registry"
	"github.com/platinummonkey/palletdiff/pkg/report"
	"github.com/platinummonkey/palletdiff/pkg/storage"
)

// EnvPrefix prefixes every environment override, e.g. PALLETDIFF_LOG_LEVEL.
const EnvPrefix = "PALLETDIFF"

// Config holds all application configuration
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Output  OutputConfig  `mapstructure:"output"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Storage StorageConfig `mapstructure:"storage"`
	Hasher  HasherConfig  `mapstructure:"hasher"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// LogConfig selects the log level and handler.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// OutputConfig controls report rendering.
type OutputConfig struct {
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}

// CacheConfig sizes the reduced runtime cache. Size 0 disables it.
type CacheConfig struct {
	Size int           `mapstructure:"size"`
	TTL  time.Duration `mapstructure:"ttl"`
}

// StorageConfig holds metadata source settings
type StorageConfig struct {
	Root     string `mapstructure:"root"`
	MaxBytes int64  `mapstructure:"max_bytes"`
}

// HasherConfig tunes structural hashing.
type HasherConfig struct {
	VolatileTypes []string `mapstructure:"volatile_types"`
}

// MetricsConfig holds metrics export settings
type MetricsConfig struct {
	// File receives the metrics in textfile format after each run.
	File string `mapstructure:"file"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	sc := storage.DefaultConfig()
	return &Config{
		Log:     LogConfig{Level: "info", Format: string(observability.FormatText)},
		Output:  OutputConfig{Format: string(report.FormatText), Color: true},
		Cache:   CacheConfig{Size: sc.CacheSize, TTL: sc.CacheTTL},
		Storage: StorageConfig{MaxBytes: sc.MaxBytes},
		Hasher:  HasherConfig{VolatileTypes: append([]string(nil), registry.DefaultVolatileTypes...)},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("output.color", d.Output.Color)
	v.SetDefault("cache.size", d.Cache.Size)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("storage.root", d.Storage.Root)
	v.SetDefault("storage.max_bytes", d.Storage.MaxBytes)
	v.SetDefault("hasher.volatile_types", d.Hasher.VolatileTypes)
	v.SetDefault("metrics.file", d.Metrics.File)
}

// Load reads configuration from the YAML file at path, if any, then applies
// PALLETDIFF_* environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if _, err := observability.ParseLogLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.LogFormat() {
	case observability.FormatJSON, observability.FormatText:
	default:
		errs = append(errs, fmt.Errorf("invalid log format: %s (must be json or text)", c.Log.Format))
	}
	if _, err := report.ParseFormat(c.Output.Format); err != nil {
		errs = append(errs, err)
	}
	if c.Cache.Size < 0 {
		errs = append(errs, fmt.Errorf("cache size must not be negative, got %d", c.Cache.Size))
	}
	if c.Cache.TTL < 0 {
		errs = append(errs, fmt.Errorf("cache ttl must not be negative, got %s", c.Cache.TTL))
	}
	if c.Storage.MaxBytes < 0 {
		errs = append(errs, fmt.Errorf("storage max_bytes must not be negative, got %d", c.Storage.MaxBytes))
	}

	return errors.Join(errs...)
}

// LogLevel returns the parsed log level. Call Validate first.
func (c *Config) LogLevel() observability.LogLevel {
	level, err := observability.ParseLogLevel(c.Log.Level)
	if err != nil {
		return observability.InfoLevel
	}
	return level
}

// LogFormat returns the log format, case-folded. Call Validate first.
func (c *Config) LogFormat() observability.LogFormat {
	return observability.LogFormat(strings.ToLower(strings.TrimSpace(c.Log.Format)))
}

// StorageConfig converts to the storage package configuration.
func (c *Config) StorageConfig() storage.Config {
	return storage.Config{
		Root:      c.Storage.Root,
		MaxBytes:  c.Storage.MaxBytes,
		CacheSize: c.Cache.Size,
		CacheTTL:  c.Cache.TTL,
	}
}
