package config

type Config struct {
	Environment string `mapstructure:"environment" yaml:"environment"`
	Port        int    `mapstructure:"port" yaml:"port"`
	LogLevel    string `mapstructure:"log_level" yaml:"log_level"`

	Streams  StreamsConfig  `mapstructure:"streams" yaml:"streams"`
	Pattern  PatternConfig  `mapstructure:"pattern" yaml:"pattern"`
	Judge    JudgeConfig    `mapstructure:"judge" yaml:"judge"`
	Weaviate WeaviateConfig `mapstructure:"weaviate" yaml:"weaviate"`
	CORS     CORSConfig     `mapstructure:"cors" yaml:"cors"`
}

// StreamsConfig handles the Redis Streams transport.
type StreamsConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	Password string `mapstructure:"password" yaml:"password"`
	DB       int    `mapstructure:"db" yaml:"db"`
	// BlockMs bounds each consumer-group read; RetryBackoffMs is slept after
	// a failed read before retrying the loop.
	BlockMs        int `mapstructure:"block_ms" yaml:"block_ms"`
	BatchSize      int `mapstructure:"batch_size" yaml:"batch_size"`
	RetryBackoffMs int `mapstructure:"retry_backoff_ms" yaml:"retry_backoff_ms"`
}

// PatternConfig tunes the sliding-window pattern detection engine.
type PatternConfig struct {
	WindowSeconds        int `mapstructure:"window_seconds" yaml:"window_seconds"`
	Threshold            int `mapstructure:"threshold" yaml:"threshold"`
	CheckIntervalSeconds int `mapstructure:"check_interval_seconds" yaml:"check_interval_seconds"`
}

// JudgeConfig selects and tunes the judgment provider.
type JudgeConfig struct {
	// Provider is "openai" or "rules"; "rules" skips the hosted model and
	// always uses the deterministic fallback.
	Provider       string  `mapstructure:"provider" yaml:"provider"`
	APIKey         string  `mapstructure:"api_key" yaml:"api_key"`
	Model          string  `mapstructure:"model" yaml:"model"`
	MaxTokens      int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature    float32 `mapstructure:"temperature" yaml:"temperature"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// WeaviateConfig points at the document store.
type WeaviateConfig struct {
	Scheme string `mapstructure:"scheme" yaml:"scheme"`
	Host   string `mapstructure:"host" yaml:"host"`
	APIKey string `mapstructure:"api_key" yaml:"api_key"`
}

// CORSConfig handles Cross-Origin Resource Sharing for the dashboard.
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods" yaml:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers" yaml:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials" yaml:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age" yaml:"max_age"`
}
