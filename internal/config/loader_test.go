package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)

	assert.Equal(t, "localhost:6379", cfg.Streams.Addr)
	assert.Equal(t, 5000, cfg.Streams.BlockMs)
	assert.Equal(t, 10, cfg.Streams.BatchSize)
	assert.Equal(t, 5000, cfg.Streams.RetryBackoffMs)

	assert.Equal(t, 60, cfg.Pattern.WindowSeconds)
	assert.Equal(t, 5, cfg.Pattern.Threshold)
	assert.Equal(t, 10, cfg.Pattern.CheckIntervalSeconds)

	assert.Equal(t, "openai", cfg.Judge.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.Judge.Model)
	assert.Equal(t, 30, cfg.Judge.TimeoutSeconds)

	assert.Equal(t, "http", cfg.Weaviate.Scheme)
	assert.Equal(t, "localhost:8084", cfg.Weaviate.Host)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CRASHLENS_PORT", "9090")
	t.Setenv("CRASHLENS_STREAMS_ADDR", "redis:6379")
	t.Setenv("CRASHLENS_JUDGE_PROVIDER", "rules")
	t.Setenv("CRASHLENS_PATTERN_THRESHOLD", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "redis:6379", cfg.Streams.Addr)
	assert.Equal(t, "rules", cfg.Judge.Provider)
	assert.Equal(t, 3, cfg.Pattern.Threshold)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		v := viper.New()
		setDefaults(v)
		var cfg Config
		require.NoError(t, v.Unmarshal(&cfg))
		return &cfg
	}

	cfg := base()
	require.NoError(t, validate(cfg))

	cfg = base()
	cfg.Port = 0
	assert.Error(t, validate(cfg))

	cfg = base()
	cfg.Streams.Addr = ""
	assert.Error(t, validate(cfg))

	cfg = base()
	cfg.Pattern.WindowSeconds = 0
	assert.Error(t, validate(cfg))

	cfg = base()
	cfg.Pattern.Threshold = 1
	assert.Error(t, validate(cfg))

	cfg = base()
	cfg.Judge.Provider = "oracle"
	assert.Error(t, validate(cfg))
}
