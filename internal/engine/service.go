// Package engine orchestrates validation, caching, upstream calls, fallback
// synthesis and workability scoring behind the public weather operations.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/pavecast/pavecast/internal/cache"
	"github.com/pavecast/pavecast/internal/provider/resilience"
	"github.com/pavecast/pavecast/internal/telemetry"
	"github.com/pavecast/pavecast/internal/weather"
	"github.com/pavecast/pavecast/internal/weather/synthetic"
	"github.com/pavecast/pavecast/internal/workability"
)

const tracerName = "github.com/pavecast/pavecast/internal/engine"

const (
	// DefaultDays is the forecast length when the caller does not ask for one.
	DefaultDays = 7

	// MaxDays is the longest forecast the provider supplies.
	MaxDays = 8

	// DefaultUpstreamTimeout bounds each upstream call.
	DefaultUpstreamTimeout = 10 * time.Second

	// DefaultFallbackCacheTTL is how long synthetic data is served before the
	// provider is tried again.
	DefaultFallbackCacheTTL = 30 * time.Second
)

// ServiceConfig holds the collaborators and settings of the engine.
type ServiceConfig struct {
	// Provider is the upstream weather provider (required).
	Provider weather.Provider

	// Fallback synthesizes data when Provider fails. It must not fail.
	// Default: synthetic.NewProvider with defaults.
	Fallback weather.Provider

	// Cache stores upstream payloads. Default: an in-memory store.
	Cache cache.Store[Payload]

	// CacheTTL is how long upstream payloads stay fresh.
	// Default: 10 minutes
	CacheTTL time.Duration

	// FallbackCacheTTL is how long fallback payloads are cached.
	// Negative disables caching them. Default: 30 seconds
	FallbackCacheTTL time.Duration

	// UpstreamTimeout bounds each upstream call. Default: 10 seconds
	UpstreamTimeout time.Duration

	// Registry exposes upstream provider health (optional).
	Registry *resilience.Registry

	// Metrics records upstream, cache and fallback activity (optional).
	Metrics *telemetry.EngineMetrics

	// Now is the clock. Default: time.Now
	Now func() time.Time

	// Logger for engine operations.
	Logger zerolog.Logger
}

// Service implements the public weather and workability operations.
type Service struct {
	provider         weather.Provider
	fallback         weather.Provider
	cache            cache.Store[Payload]
	cacheTTL         time.Duration
	fallbackCacheTTL time.Duration
	upstreamTimeout  time.Duration
	registry         *resilience.Registry
	metrics          *telemetry.EngineMetrics
	now              func() time.Time
	logger           zerolog.Logger
	tracer           trace.Tracer
	group            singleflight.Group
}

// NewService creates the engine.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Provider == nil {
		return nil, errors.New("engine: provider is required")
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	fallback := cfg.Fallback
	if fallback == nil {
		fallback = synthetic.NewProvider(synthetic.Config{Now: now})
	}

	store := cfg.Cache
	if store == nil {
		store = cache.NewMemory[Payload](cache.WithClock(now))
	}

	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = cache.DefaultTTL
	}

	fallbackTTL := cfg.FallbackCacheTTL
	if fallbackTTL == 0 {
		fallbackTTL = DefaultFallbackCacheTTL
	}

	timeout := cfg.UpstreamTimeout
	if timeout == 0 {
		timeout = DefaultUpstreamTimeout
	}

	return &Service{
		provider:         cfg.Provider,
		fallback:         fallback,
		cache:            store,
		cacheTTL:         cacheTTL,
		fallbackCacheTTL: fallbackTTL,
		upstreamTimeout:  timeout,
		registry:         cfg.Registry,
		metrics:          cfg.Metrics,
		now:              now,
		logger:           cfg.Logger.With().Str("component", "engine").Logger(),
		tracer:           telemetry.Tracer(tracerName),
	}, nil
}

// ClampDays normalizes a requested forecast length to [1, MaxDays]; zero or
// negative selects DefaultDays.
func ClampDays(days int) int {
	switch {
	case days <= 0:
		return DefaultDays
	case days > MaxDays:
		return MaxDays
	default:
		return days
	}
}

func (s *Service) startSpan(ctx context.Context, name string, lat, lng float64) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.Float64("location.lat", lat),
		attribute.Float64("location.lng", lng),
	))
}

// GetCurrentConditions returns current conditions and their workability index.
// The only error is weather.ErrInvalidCoordinates; upstream failures are served
// from fallback data.
func (s *Service) GetCurrentConditions(ctx context.Context, lat, lng float64) (*WeatherData, error) {
	if err := weather.ValidateCoordinates(lat, lng); err != nil {
		return nil, err
	}

	ctx, span := s.startSpan(ctx, "engine.GetCurrentConditions", lat, lng)
	defer span.End()

	payload, err := s.load(ctx, cache.KindCurrent, lat, lng, 0, fetchCurrent)
	if err != nil {
		return nil, err
	}

	current := *payload.Current
	return &WeatherData{
		Location:    weather.Coordinate{Lat: lat, Lng: lng},
		Current:     current,
		Workability: workability.Score(current, nil),
		Source:      payload.Source,
		Synthetic:   payload.Synthetic,
		FetchedAt:   payload.FetchedAt,
	}, nil
}

// GetWeatherForecast returns a scored forecast with exactly ClampDays(days)
// daily entries.
func (s *Service) GetWeatherForecast(ctx context.Context, lat, lng float64, days int) (*WeatherForecast, error) {
	if err := weather.ValidateCoordinates(lat, lng); err != nil {
		return nil, err
	}
	days = ClampDays(days)

	ctx, span := s.startSpan(ctx, "engine.GetWeatherForecast", lat, lng)
	span.SetAttributes(attribute.Int("forecast.days", days))
	defer span.End()

	payload, err := s.load(ctx, cache.KindForecast, lat, lng, days, fetchForecast)
	if err != nil {
		return nil, err
	}

	forecast := payload.Forecast
	daily := fitDays(forecast.Daily, days)
	hourly := workability.ScoreHourly(withinDays(forecast.Hourly, daily), nil)

	return &WeatherForecast{
		Location:  weather.Coordinate{Lat: lat, Lng: lng},
		Days:      days,
		Hourly:    hourly,
		Daily:     workability.SummarizeDays(daily, hourly, nil),
		Alerts:    workability.ClassifyAlerts(forecast.Alerts, s.now()),
		Source:    payload.Source,
		Synthetic: payload.Synthetic,
		FetchedAt: payload.FetchedAt,
	}, nil
}

// GetWeatherAlerts returns classified alerts for a location.
func (s *Service) GetWeatherAlerts(ctx context.Context, lat, lng float64) ([]weather.WeatherAlert, error) {
	if err := weather.ValidateCoordinates(lat, lng); err != nil {
		return nil, err
	}

	ctx, span := s.startSpan(ctx, "engine.GetWeatherAlerts", lat, lng)
	defer span.End()

	payload, err := s.load(ctx, cache.KindAlerts, lat, lng, 0, fetchAlerts)
	if err != nil {
		return nil, err
	}
	return workability.ClassifyAlerts(payload.Alerts, s.now()), nil
}

// GetWorkabilityIndex scores conditions. It performs no I/O; a nil cfg
// selects the default thresholds.
func (s *Service) GetWorkabilityIndex(current weather.CurrentConditions, cfg *workability.Configuration) workability.Index {
	return workability.Score(current, cfg)
}

// GetSiteReport fetches current conditions, the forecast and alerts concurrently
// and joins them.
func (s *Service) GetSiteReport(ctx context.Context, lat, lng float64, days int) (*SiteReport, error) {
	if err := weather.ValidateCoordinates(lat, lng); err != nil {
		return nil, err
	}

	ctx, span := s.startSpan(ctx, "engine.GetSiteReport", lat, lng)
	defer span.End()

	var (
		current  *WeatherData
		forecast *WeatherForecast
		alerts   []weather.WeatherAlert
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		current, err = s.GetCurrentConditions(gctx, lat, lng)
		return err
	})
	g.Go(func() error {
		var err error
		forecast, err = s.GetWeatherForecast(gctx, lat, lng, days)
		return err
	})
	g.Go(func() error {
		var err error
		alerts, err = s.GetWeatherAlerts(gctx, lat, lng)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("building site report: %w", err)
	}

	report := &SiteReport{
		Location:    weather.Coordinate{Lat: lat, Lng: lng},
		Current:     current,
		Forecast:    forecast,
		Alerts:      alerts,
		BestDay:     bestDay(forecast.Daily),
		StopWork:    stopWork(alerts),
		Synthetic:   current.Synthetic || forecast.Synthetic,
		GeneratedAt: s.now(),
	}
	return report, nil
}

// InvalidateCache drops every cached payload.
func (s *Service) InvalidateCache(ctx context.Context) {
	s.cache.Clear(ctx)
	s.logger.Info().Msg("weather cache invalidated")
}

// ProviderHealth returns the health of registered upstream providers.
func (s *Service) ProviderHealth() []*resilience.ProviderHealth {
	if s.registry == nil {
		return []*resilience.ProviderHealth{}
	}
	return s.registry.GetAllHealth()
}

// CacheSize returns the number of cached payloads.
func (s *Service) CacheSize(ctx context.Context) int {
	return s.cache.Len(ctx)
}

// pinger is implemented by cache backends with a remote dependency.
type pinger interface {
	Ping(ctx context.Context) error
}

// Ready reports whether the cache backend is reachable. The upstream provider is
// not checked; its failures are served from fallback data.
func (s *Service) Ready(ctx context.Context) error {
	if p, ok := s.cache.(pinger); ok {
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("cache backend: %w", err)
		}
	}
	return nil
}

func bestDay(daily []weather.DailyForecastSummary) *weather.DailyForecastSummary {
	var best *weather.DailyForecastSummary
	for i := range daily {
		d := &daily[i]
		if d.WorkableHours == 0 {
			continue
		}
		if best == nil || d.WorkableHours > best.WorkableHours ||
			(d.WorkableHours == best.WorkableHours && d.WorkabilityScore > best.WorkabilityScore) {
			best = d
		}
	}
	if best == nil {
		return nil
	}
	day := *best
	return &day
}

func stopWork(alerts []weather.WeatherAlert) bool {
	for _, a := range alerts {
		if a.Urgency == weather.UrgencyPast {
			continue
		}
		switch a.WorkImpact.Recommendation {
		case weather.WorkPostpone, weather.WorkEvacuate:
			return true
		}
	}
	return false
}

// recordSpanError marks a span as failed.
func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
