package types

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config drives the behavior of the backend. Everything is read from the
// environment (optionally seeded from a .env file by the entry point).
// The cache knobs are configuration rather than constants so deployments can
// tune them; the error TTL MUST stay below the success TTL so transient
// upstream failures are retried sooner than good results expire.
type Config struct {
	Port           int      `env:"PORT" envDefault:"8000"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://127.0.0.1:3000"`

	GeminiAPIKey   string `env:"GEMINI_API_KEY"`
	GeminiModel    string `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
	GeminiTTSModel string `env:"GEMINI_TTS_MODEL" envDefault:"gemini-2.5-flash-preview-tts"`
	GeminiEndpoint string `env:"GEMINI_ENDPOINT" envDefault:"https://generativelanguage.googleapis.com"`

	TriviaEndpoint           string `env:"TRIVIA_ENDPOINT" envDefault:"https://opentdb.com/api.php"`
	TriviaMinIntervalSeconds int    `env:"TRIVIA_MIN_INTERVAL_SECONDS" envDefault:"5"`

	SuccessTTLSeconds      int `env:"CACHE_SUCCESS_TTL_SECONDS" envDefault:"300"`
	ErrorTTLSeconds        int `env:"CACHE_ERROR_TTL_SECONDS" envDefault:"30"`
	SweepIntervalSeconds   int `env:"CACHE_SWEEP_INTERVAL_SECONDS" envDefault:"300"`
	WorkerPoolSize         int `env:"WORKER_POOL_SIZE" envDefault:"4"`
	UpstreamTimeoutSeconds int `env:"UPSTREAM_TIMEOUT_SECONDS" envDefault:"30"`
}

// LoadConfig parses the environment into a Config and validates it.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be in (0, 65535]")
	}
	if c.SuccessTTLSeconds <= 0 {
		return fmt.Errorf("cache_success_ttl_seconds must be positive")
	}
	if c.ErrorTTLSeconds <= 0 {
		return fmt.Errorf("cache_error_ttl_seconds must be positive")
	}
	if c.ErrorTTLSeconds >= c.SuccessTTLSeconds {
		return fmt.Errorf("cache_error_ttl_seconds must be less than cache_success_ttl_seconds")
	}
	if c.SweepIntervalSeconds <= 0 {
		return fmt.Errorf("cache_sweep_interval_seconds must be positive")
	}
	if c.WorkerPoolSize <= 0 {
		return fmt.Errorf("worker_pool_size must be positive")
	}
	if c.UpstreamTimeoutSeconds <= 0 {
		return fmt.Errorf("upstream_timeout_seconds must be positive")
	}
	return nil
}

func (c Config) SuccessTTL() time.Duration {
	return time.Duration(c.SuccessTTLSeconds) * time.Second
}

func (c Config) ErrorTTL() time.Duration {
	return time.Duration(c.ErrorTTLSeconds) * time.Second
}

func (c Config) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSeconds) * time.Second
}

func (c Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.UpstreamTimeoutSeconds) * time.Second
}

func (c Config) TriviaMinInterval() time.Duration {
	return time.Duration(c.TriviaMinIntervalSeconds) * time.Second
}
