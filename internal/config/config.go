// Package config loads process configuration from the environment.
//
// Values resolve in priority order: OS environment, then a .env file in the
// working directory, then the defaults declared on the struct tags.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
)

// EnvProduction is the APP_ENV value that requires a real provider key.
const EnvProduction = "prod"

// DemoAPIKey is used outside production when no provider key is configured.
// The provider rejects it, so every request is served from fallback data.
const DemoAPIKey = "demo"

// Cache backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// ErrMissingAPIKey is returned in production when OPENWEATHER_API_KEY is unset.
var ErrMissingAPIKey = errors.New("OPENWEATHER_API_KEY is required in production")

// Config is the process configuration.
type Config struct {
	Environment string `envconfig:"APP_ENV" default:"development" validate:"required,oneof=development test staging prod"`
	Port        string `envconfig:"APP_PORT" default:"8080" validate:"required,numeric"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=trace debug info warn error"`

	// RequireTLS rejects plain-HTTP requests that were not forwarded over HTTPS.
	RequireTLS bool `envconfig:"REQUIRE_TLS" default:"false"`

	Weather   WeatherConfig
	Cache     CacheConfig
	Telemetry TelemetryConfig

	// DemoKey is set when DemoAPIKey was substituted for a missing key.
	DemoKey bool `ignored:"true"`
}

// WeatherConfig configures the upstream weather provider.
type WeatherConfig struct {
	APIKey          string        `envconfig:"OPENWEATHER_API_KEY"`
	BaseURL         string        `envconfig:"OPENWEATHER_BASE_URL" default:"https://api.openweathermap.org/data/2.5" validate:"url"`
	OneCallURL      string        `envconfig:"OPENWEATHER_ONECALL_URL" default:"https://api.openweathermap.org/data/3.0/onecall" validate:"url"`
	UpstreamTimeout time.Duration `envconfig:"UPSTREAM_TIMEOUT" default:"10s" validate:"gt=0"`
}

// CacheConfig configures the response cache.
type CacheConfig struct {
	Backend string        `envconfig:"CACHE_BACKEND" default:"memory" validate:"oneof=memory redis"`
	TTL     time.Duration `envconfig:"CACHE_TTL" default:"10m" validate:"gt=0"`

	// FallbackTTL is how long fallback data is cached; zero disables it.
	FallbackTTL time.Duration `envconfig:"FALLBACK_CACHE_TTL" default:"30s" validate:"gte=0"`

	RedisAddr     string `envconfig:"REDIS_ADDR" validate:"required_if=Backend redis"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0" validate:"gte=0"`
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	Enabled      bool   `envconfig:"OTEL_ENABLED" default:"false"`
	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:"localhost:4317"`

	SampleRatio    float64       `envconfig:"OTEL_TRACES_SAMPLE_RATIO" default:"1" validate:"gt=0,lte=1"`
	MetricInterval time.Duration `envconfig:"OTEL_METRIC_INTERVAL" default:"15s" validate:"gt=0"`
}

// Load reads, defaults and validates the configuration.
func Load() (*Config, error) {
	// A missing .env file is not an error; it never overrides the environment.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate configuration: %w", err)
	}

	if cfg.Weather.APIKey == "" {
		if cfg.Environment == EnvProduction {
			return nil, ErrMissingAPIKey
		}
		cfg.Weather.APIKey = DemoAPIKey
		cfg.DemoKey = true
	}

	return &cfg, nil
}

// Level returns the zerolog level for LogLevel.
func (c *Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

// EngineFallbackTTL maps FallbackTTL onto the engine's convention, where zero
// selects the default and a negative value disables caching.
func (c *Config) EngineFallbackTTL() time.Duration {
	if c.Cache.FallbackTTL == 0 {
		return -1
	}
	return c.Cache.FallbackTTL
}

// UseRedis reports whether the Redis cache backend is selected.
func (c *Config) UseRedis() bool {
	return c.Cache.Backend == BackendRedis
}
