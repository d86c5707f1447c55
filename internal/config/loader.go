package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Load loads configuration from various sources with priority order:
// 1. Environment variables
// 2. Configuration file (config.yaml)
// 3. Default values
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/crashlens/")
	v.AddConfigPath("./configs/")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("CRASHLENS")

	setDefaults(v)

	// Config file is optional; env vars and defaults are enough to run.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")

	v.SetDefault("streams.addr", "localhost:6379")
	v.SetDefault("streams.db", 0)
	v.SetDefault("streams.block_ms", 5000)
	v.SetDefault("streams.batch_size", 10)
	v.SetDefault("streams.retry_backoff_ms", 5000)

	v.SetDefault("pattern.window_seconds", 60)
	v.SetDefault("pattern.threshold", 5)
	v.SetDefault("pattern.check_interval_seconds", 10)

	v.SetDefault("judge.provider", "openai")
	v.SetDefault("judge.model", "gpt-4o-mini")
	v.SetDefault("judge.max_tokens", 800)
	v.SetDefault("judge.temperature", 0.3)
	v.SetDefault("judge.timeout_seconds", 30)

	v.SetDefault("weaviate.scheme", "http")
	v.SetDefault("weaviate.host", "localhost:8084")

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Content-Type", "Authorization"})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.max_age", 3600)
}

func validate(cfg *Config) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Port)
	}
	if cfg.Streams.Addr == "" {
		return fmt.Errorf("streams.addr is required")
	}
	if cfg.Pattern.WindowSeconds <= 0 {
		return fmt.Errorf("pattern.window_seconds must be positive")
	}
	if cfg.Pattern.Threshold < 2 {
		return fmt.Errorf("pattern.threshold must be at least 2")
	}
	if cfg.Pattern.CheckIntervalSeconds <= 0 {
		return fmt.Errorf("pattern.check_interval_seconds must be positive")
	}
	switch cfg.Judge.Provider {
	case "openai", "rules":
	default:
		return fmt.Errorf("unknown judge provider: %q", cfg.Judge.Provider)
	}
	return nil
}
