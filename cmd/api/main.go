// Package main provides the entrypoint for the Pavecast API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/pavecast/pavecast/internal/api"
	"github.com/pavecast/pavecast/internal/api/middleware"
	"github.com/pavecast/pavecast/internal/cache"
	"github.com/pavecast/pavecast/internal/config"
	"github.com/pavecast/pavecast/internal/engine"
	"github.com/pavecast/pavecast/internal/provider/resilience"
	"github.com/pavecast/pavecast/internal/telemetry"
	"github.com/pavecast/pavecast/internal/weather/openweathermap"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const (
	serviceName  = "pavecast-api"
	providerName = "openweathermap"
)

func main() {
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	log = log.Level(cfg.Level())

	log.Info().
		Str("build_time", BuildTime).
		Str("environment", cfg.Environment).
		Msg("starting Pavecast API")

	if cfg.DemoKey {
		log.Warn().Msg("OPENWEATHER_API_KEY not set - serving synthetic weather only")
	}

	ctx := context.Background()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Enabled:        cfg.Telemetry.Enabled,
		SampleRatio:    cfg.Telemetry.SampleRatio,
		MetricInterval: cfg.Telemetry.MetricInterval,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if cfg.Telemetry.Enabled {
		log.Info().
			Str("otlp_endpoint", cfg.Telemetry.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	httpMetrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize HTTP metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}
	engineMetrics, err := telemetry.NewEngineMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize engine metrics")
		os.Exit(1)
	}

	// Upstream provider behind a circuit breaker
	registry := resilience.NewRegistry()
	clientCfg := resilience.DefaultClientConfig(providerName)
	clientCfg.Timeout = cfg.Weather.UpstreamTimeout
	clientCfg.Registry = registry
	clientCfg.Logger = log
	httpClient := resilience.NewClient(clientCfg)

	provider := openweathermap.NewClient(openweathermap.ClientConfig{
		APIKey:     cfg.Weather.APIKey,
		BaseURL:    cfg.Weather.BaseURL,
		OneCallURL: cfg.Weather.OneCallURL,
		HTTPClient: httpClient,
		Logger:     log,
	})

	var store cache.Store[engine.Payload]
	if cfg.UseRedis() {
		redisCfg := cache.RedisConfig{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
			Logger:   log,
		}
		client := cache.NewRedisClient(redisCfg)
		defer func() {
			if closeErr := client.Close(); closeErr != nil {
				log.Error().Err(closeErr).Msg("failed to close redis client")
			}
		}()

		redisStore := cache.NewRedis[engine.Payload](client, redisCfg)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if pingErr := redisStore.Ping(pingCtx); pingErr != nil {
			log.Warn().Err(pingErr).Msg("redis not reachable yet - readiness will fail until it is")
		}
		cancel()

		store = redisStore
		log.Info().Str("addr", cfg.Cache.RedisAddr).Msg("redis cache configured")
	} else {
		store = cache.NewMemory[engine.Payload]()
	}

	service, err := engine.NewService(engine.ServiceConfig{
		Provider:         provider,
		Cache:            store,
		CacheTTL:         cfg.Cache.TTL,
		FallbackCacheTTL: cfg.EngineFallbackTTL(),
		UpstreamTimeout:  cfg.Weather.UpstreamTimeout,
		Registry:         registry,
		Metrics:          engineMetrics,
		Logger:           log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create weather engine")
	}

	router := api.NewRouter(api.RouterConfig{
		Version:      Version,
		BuildTime:    BuildTime,
		Logger:       log,
		ServiceName:  serviceName,
		Metrics:      httpMetrics,
		RequireTLS:   cfg.RequireTLS,
		CacheBackend: cfg.Cache.Backend,
		Service:      service,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Site reports wait on up to three upstream calls.
		WriteTimeout: cfg.Weather.UpstreamTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
