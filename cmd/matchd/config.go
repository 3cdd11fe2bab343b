package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the process configuration. Every key can be overridden with a
// MATCHD_ prefixed environment variable, e.g. MATCHD_METRICS_ADDR.
type Config struct {
	Symbol          string        `mapstructure:"symbol"`
	Input           string        `mapstructure:"input"` // "-" reads stdin
	LogLevel        string        `mapstructure:"log_level"`
	LogFormat       string        `mapstructure:"log_format"` // json or text
	MetricsAddr     string        `mapstructure:"metrics_addr"`
	RingBufferSize  int64         `mapstructure:"ring_buffer_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

var errInvalidConfig = errors.New("invalid config")

func setDefaults(v *viper.Viper) {
	v.SetDefault("symbol", "STOCK")
	v.SetDefault("input", "-")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("metrics_addr", "")
	v.SetDefault("ring_buffer_size", 4096)
	v.SetDefault("shutdown_timeout", 5*time.Second)
}

// LoadConfig reads the YAML file at path (optional) and the environment.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("MATCHD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (cfg *Config) validate() error {
	if cfg.Symbol == "" {
		return fmt.Errorf("symbol is empty: %w", errInvalidConfig)
	}
	if cfg.RingBufferSize <= 0 || cfg.RingBufferSize&(cfg.RingBufferSize-1) != 0 {
		return fmt.Errorf("ring_buffer_size %d is not a power of 2: %w", cfg.RingBufferSize, errInvalidConfig)
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return fmt.Errorf("log_format %q: %w", cfg.LogFormat, errInvalidConfig)
	}
	if _, err := cfg.level(); err != nil {
		return err
	}
	return nil
}

func (cfg *Config) level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return level, fmt.Errorf("log_level %q: %w", cfg.LogLevel, errInvalidConfig)
	}
	return level, nil
}
