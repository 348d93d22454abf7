// Package config defines configuration parsing and helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/cenkalti/backoff/v4"

	"github.com/fairyhunter13/ai-provider-router/internal/domain"
)

// Config holds all application configuration parsed from environment variables.
type Config struct {
	AppEnv string `env:"APP_ENV" envDefault:"dev"`
	Port   int    `env:"PORT" envDefault:"8080"`
	// RoutingConfigPath points at the YAML provider catalog; empty uses built-in defaults.
	RoutingConfigPath string `env:"ROUTING_CONFIG_PATH"`
	// ProviderTimeout bounds every provider call. It is process-wide; callers cannot change it.
	ProviderTimeout time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"25s"`

	GroqBaseURL   string `env:"GROQ_BASE_URL" envDefault:"https://api.groq.com/openai/v1"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	GeminiBaseURL string `env:"GEMINI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com/v1beta"`
	ClaudeBaseURL string `env:"CLAUDE_BASE_URL" envDefault:"https://api.anthropic.com/v1"`
	// Deployment-wide fallback keys, merged at the edge into requests that lack one.
	GroqAPIKey   string `env:"GROQ_API_KEY"`
	OpenAIAPIKey string `env:"OPENAI_API_KEY"`
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	ClaudeAPIKey string `env:"CLAUDE_API_KEY"`

	// Usage sinks. Empty values disable the sink.
	DBURL        string   `env:"DB_URL"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	UsageTopic   string   `env:"USAGE_TOPIC" envDefault:"ai-usage-events"`
	// UsageRecordTimeout bounds each best-effort usage notification.
	UsageRecordTimeout time.Duration `env:"USAGE_RECORD_TIMEOUT" envDefault:"5s"`

	RedisURL     string        `env:"REDIS_URL"`
	KeyStatusTTL time.Duration `env:"KEY_STATUS_TTL" envDefault:"10m"`
	// KeyFingerprintSalt keys the hash used to derive cache keys from secrets.
	KeyFingerprintSalt string `env:"KEY_FINGERPRINT_SALT"`

	OTLPEndpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	OTELServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"ai-provider-router"`

	CORSAllowOrigins      string        `env:"CORS_ALLOW_ORIGINS" envDefault:"*"`
	RateLimitPerMin       int           `env:"RATE_LIMIT_PER_MIN" envDefault:"60"`
	MaxRequestBytes       int64         `env:"MAX_REQUEST_BYTES" envDefault:"1048576"`
	ServerShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	HTTPReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	// HTTPWriteTimeout must exceed the worst-case sequential fallback latency.
	HTTPWriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"120s"`
	HTTPIdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`

	// Startup connect backoff for Postgres and Redpanda.
	ConnectBackoffMaxElapsedTime  time.Duration `env:"CONNECT_BACKOFF_MAX_ELAPSED_TIME" envDefault:"60s"`
	ConnectBackoffInitialInterval time.Duration `env:"CONNECT_BACKOFF_INITIAL_INTERVAL" envDefault:"500ms"`
	ConnectBackoffMaxInterval     time.Duration `env:"CONNECT_BACKOFF_MAX_INTERVAL" envDefault:"10s"`
}

// Load parses environment variables into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("op=config.Load: %w", err)
	}
	if cfg.ProviderTimeout <= 0 {
		return Config{}, fmt.Errorf("op=config.Load: %w: PROVIDER_TIMEOUT must be positive", domain.ErrInvalidArgument)
	}
	return cfg, nil
}

// IsDev reports whether the app is running in development mode.
func (c Config) IsDev() bool { return strings.ToLower(c.AppEnv) == "dev" }

// IsProd reports whether the app is running in production mode.
func (c Config) IsProd() bool { return strings.ToLower(c.AppEnv) == "prod" }

// IsTest reports whether the app is running in test mode.
func (c Config) IsTest() bool { return strings.ToLower(c.AppEnv) == "test" }

// FallbackCredentials returns the deployment-wide keys. Only the edge may merge
// these into a request; the router never reads them.
func (c Config) FallbackCredentials() domain.CredentialSet {
	return domain.CredentialSet{
		domain.ProviderGroq:   c.GroqAPIKey,
		domain.ProviderOpenAI: c.OpenAIAPIKey,
		domain.ProviderGemini: c.GeminiAPIKey,
		domain.ProviderClaude: c.ClaudeAPIKey,
	}
}

// BaseURL returns the configured endpoint root for p.
func (c Config) BaseURL(p domain.ProviderID) string {
	switch p {
	case domain.ProviderGroq:
		return c.GroqBaseURL
	case domain.ProviderOpenAI:
		return c.OpenAIBaseURL
	case domain.ProviderGemini:
		return c.GeminiBaseURL
	case domain.ProviderClaude:
		return c.ClaudeBaseURL
	}
	return ""
}

// GetConnectBackoffConfig returns startup connect backoff settings. In test
// environments it is much shorter for fast test execution.
func (c Config) GetConnectBackoffConfig() (maxElapsedTime, initialInterval, maxInterval time.Duration) {
	if c.IsTest() {
		return 2 * time.Second, 50 * time.Millisecond, 500 * time.Millisecond
	}
	return c.ConnectBackoffMaxElapsedTime, c.ConnectBackoffInitialInterval, c.ConnectBackoffMaxInterval
}

// ConnectBackOff builds a fresh exponential policy from GetConnectBackoffConfig.
func (c Config) ConnectBackOff() *backoff.ExponentialBackOff {
	maxElapsed, initial, maxInterval := c.GetConnectBackoffConfig()
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = initial
	expo.MaxInterval = maxInterval
	expo.MaxElapsedTime = maxElapsed
	return expo
}
