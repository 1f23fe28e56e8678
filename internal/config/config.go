package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ulule/limiter/v3"
)

// Config holds application configuration
type Config struct {
	ServerPort      string
	FrontendURL     string
	RequestTimeout  time.Duration
	MaxRequestBytes int64
	EnableHSTS      bool
	ServerDebugMode bool

	AIProvider string
	AIAPIKey   string
	AIModel    string
	AIBaseURL  string
	AITimeout  time.Duration

	RateLimit   string
	RedisURL    string
	RabbitMQURL string
	EventBuffer int

	DatabaseURL      string
	ReportHistoryMax int

	SeedFile string
	SeedDemo bool

	AuthIssuer   string
	AuthJWKSURL  string
	AuthAudience string

	OTELEnabled  bool
	OTELEndpoint string

	OpenAPIPath string
}

// AuthEnabled reports whether bearer tokens are required on API routes
func (c *Config) AuthEnabled() bool {
	return c.AuthIssuer != ""
}

// AIEnabled reports whether the advisor may reach the network
func (c *Config) AIEnabled() bool {
	return c.AIAPIKey != ""
}

// CORSOrigins splits FRONTEND_URL into allowed origins
func (c *Config) CORSOrigins() []string {
	origins := make([]string, 0)
	for _, o := range strings.Split(c.FrontendURL, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	return load(os.Getenv)
}

func load(lookup func(string) string) (*Config, error) {
	env := envReader{lookup: lookup}
	cfg := &Config{
		ServerPort:      env.get("SERVER_PORT", "8080"),
		FrontendURL:     env.get("FRONTEND_URL", "http://localhost:3000"),
		RequestTimeout:  env.duration("REQUEST_TIMEOUT", 45*time.Second),
		MaxRequestBytes: int64(env.int("MAX_REQUEST_BYTES", 1<<20)),
		EnableHSTS:      env.bool("ENABLE_HSTS", false),
		ServerDebugMode: env.bool("SERVER_DEBUG_MODE", false),

		AIProvider: env.get("AI_PROVIDER", "openai"),
		AIAPIKey:   env.first("AI_API_KEY", "GEMINI_API_KEY", "API_KEY"),
		AIModel:    env.get("AI_MODEL", "gemini-2.5-flash"),
		AIBaseURL:  env.get("AI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai/"),
		AITimeout:  env.duration("AI_TIMEOUT", 30*time.Second),

		RateLimit:   env.get("RATE_LIMIT", "20-S"),
		RedisURL:    env.get("REDIS_URL", ""),
		RabbitMQURL: env.get("RABBITMQ_URL", ""),
		EventBuffer: env.int("EVENT_BUFFER_SIZE", 256),

		DatabaseURL:      env.get("DATABASE_URL", ""),
		ReportHistoryMax: env.int("REPORT_HISTORY_MAX", 100),

		SeedFile: env.get("SEED_FILE", ""),
		SeedDemo: env.bool("SEED_DEMO", true),

		AuthIssuer:   env.get("AUTH_ISSUER", ""),
		AuthJWKSURL:  env.get("AUTH_JWKS_URL", ""),
		AuthAudience: env.get("AUTH_AUDIENCE", ""),

		OTELEnabled:  env.bool("OTEL_ENABLED", false),
		OTELEndpoint: env.get("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		OpenAPIPath: env.get("OPENAPI_PATH", "api/openapi/openapi.yaml"),
	}

	if len(env.errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(env.errs, "; "))
	}

	if _, err := limiter.NewRateFromFormatted(cfg.RateLimit); err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT %q: %w", cfg.RateLimit, err)
	}

	if cfg.AuthJWKSURL != "" && cfg.AuthIssuer == "" {
		return nil, fmt.Errorf("AUTH_JWKS_URL requires AUTH_ISSUER")
	}

	if cfg.AITimeout <= 0 || cfg.RequestTimeout <= 0 {
		return nil, fmt.Errorf("AI_TIMEOUT and REQUEST_TIMEOUT must be positive")
	}

	return cfg, nil
}

type envReader struct {
	lookup func(string) string
	errs   []string
}

func (e *envReader) get(key, defaultValue string) string {
	if value := e.lookup(key); value != "" {
		return value
	}
	return defaultValue
}

// first returns the value of the first key that is set
func (e *envReader) first(keys ...string) string {
	for _, key := range keys {
		if value := e.lookup(key); value != "" {
			return value
		}
	}
	return ""
}

func (e *envReader) bool(key string, defaultValue bool) bool {
	if value := e.lookup(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func (e *envReader) int(key string, defaultValue int) int {
	if value := e.lookup(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		e.errs = append(e.errs, fmt.Sprintf("%s must be an integer", key))
	}
	return defaultValue
}

func (e *envReader) duration(key string, defaultValue time.Duration) time.Duration {
	if value := e.lookup(key); value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
		e.errs = append(e.errs, fmt.Sprintf("%s must be a duration like 30s", key))
	}
	return defaultValue
}
