package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/pavecast/pavecast/internal/cache"
	"github.com/pavecast/pavecast/internal/provider/resilience"
	"github.com/pavecast/pavecast/internal/weather"
)

// errEmptyPayload is reported when a provider returns no data without an error.
var errEmptyPayload = errors.New("provider returned no data")

// fetchFunc retrieves one kind of payload from a provider.
type fetchFunc func(ctx context.Context, p weather.Provider, lat, lng float64) (Payload, error)

func fetchCurrent(ctx context.Context, p weather.Provider, lat, lng float64) (Payload, error) {
	current, err := p.FetchCurrent(ctx, lat, lng)
	if err != nil {
		return Payload{}, err
	}
	if current == nil {
		return Payload{}, malformed(p.Name(), "current", errEmptyPayload)
	}
	return Payload{Current: current}, nil
}

func fetchForecast(ctx context.Context, p weather.Provider, lat, lng float64) (Payload, error) {
	forecast, err := p.FetchForecast(ctx, lat, lng)
	if err != nil {
		return Payload{}, err
	}
	if forecast == nil || len(forecast.Daily) == 0 {
		return Payload{}, malformed(p.Name(), "forecast", errEmptyPayload)
	}
	return Payload{Forecast: forecast}, nil
}

func fetchAlerts(ctx context.Context, p weather.Provider, lat, lng float64) (Payload, error) {
	alerts, err := p.FetchAlerts(ctx, lat, lng)
	if err != nil {
		return Payload{}, err
	}
	if alerts == nil {
		alerts = []weather.WeatherAlert{}
	}
	return Payload{Alerts: alerts}, nil
}

func malformed(provider, op string, err error) error {
	return &weather.UpstreamError{
		Provider:  provider,
		Operation: op,
		Kind:      weather.KindMalformed,
		Message:   err.Error(),
		Err:       err,
	}
}

// load returns the payload for key from the cache or, on a miss, from the
// provider. Concurrent misses for the same key share one upstream call.
func (s *Service) load(ctx context.Context, kind cache.Kind, lat, lng float64, days int, fetch fetchFunc) (Payload, error) {
	key := cache.Key(kind, lat, lng, days)
	op := string(kind)
	span := trace.SpanFromContext(ctx)

	if payload, ok := s.cache.Get(ctx, key); ok {
		s.metrics.RecordCacheHit(ctx, s.provider.Name(), op)
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return payload, nil
	}
	s.metrics.RecordCacheMiss(ctx, s.provider.Name(), op)
	span.SetAttributes(attribute.Bool("cache.hit", false))

	v, err, shared := s.group.Do(key, func() (any, error) {
		return s.fetch(ctx, key, op, lat, lng, fetch)
	})
	if err != nil {
		recordSpanError(span, err)
		return Payload{}, err
	}
	span.SetAttributes(attribute.Bool("singleflight.shared", shared))
	return v.(Payload), nil
}

// fetch calls the provider under the upstream timeout and falls back to the
// synthesizer on any failure. Caller cancellation does not abort the call; the
// timeout bounds it.
func (s *Service) fetch(ctx context.Context, key, op string, lat, lng float64, fetch fetchFunc) (Payload, error) {
	bg := context.WithoutCancel(ctx)

	// A flight that finished between our miss and this call may have filled it.
	if payload, ok := s.cache.Get(bg, key); ok {
		return payload, nil
	}

	// Expired entries are swept on misses.
	if n := s.cache.EvictExpired(bg); n > 0 {
		s.logger.Debug().Int("evicted", n).Msg("expired cache entries evicted")
	}

	upstreamCtx, cancel := context.WithTimeout(bg, s.upstreamTimeout)
	defer cancel()

	start := time.Now()
	payload, err := fetch(upstreamCtx, s.provider, lat, lng)
	s.metrics.RecordRequest(bg, s.provider.Name(), op, time.Since(start), err)

	if err == nil {
		payload.Source = s.provider.Name()
		payload.FetchedAt = s.now()
		s.cache.Put(bg, key, payload, s.cacheTTL)
		return payload, nil
	}

	reason := failureReason(err)
	s.logger.Warn().
		Err(err).
		Str("operation", op).
		Str("reason", reason).
		Float64("lat", lat).
		Float64("lng", lng).
		Msg("upstream weather call failed, serving fallback data")
	s.metrics.RecordFallback(bg, op, reason)

	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.AddEvent("fallback", trace.WithAttributes(attribute.String("fallback.reason", reason)))

	payload, err = fetch(bg, s.fallback, lat, lng)
	if err != nil {
		return Payload{}, fmt.Errorf("fallback %s: %w", op, err)
	}
	payload.Source = s.fallback.Name()
	payload.Synthetic = true
	payload.FetchedAt = s.now()
	s.cache.Put(bg, key, payload, s.fallbackCacheTTL)
	return payload, nil
}

// failureReason names an upstream failure for logs and metrics.
func failureReason(err error) string {
	var upstream *weather.UpstreamError
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &upstream):
		if upstream.StatusCode == 429 {
			return "rate_limited"
		}
		return string(upstream.Kind)
	default:
		return "unknown"
	}
}

// fitDays returns exactly days entries. Missing trailing days repeat the last
// known day.
func fitDays(daily []weather.DailyForecastSummary, days int) []weather.DailyForecastSummary {
	out := make([]weather.DailyForecastSummary, 0, days)
	out = append(out, daily[:min(len(daily), days)]...)
	for len(out) < days {
		next := out[len(out)-1]
		next.Date = next.Date.AddDate(0, 0, 1)
		out = append(out, next)
	}
	return out
}

// withinDays drops hourly points after the last day.
func withinDays(hourly []weather.HourlyForecastPoint, daily []weather.DailyForecastSummary) []weather.HourlyForecastPoint {
	if len(daily) == 0 {
		return hourly
	}
	end := daily[len(daily)-1].Date.AddDate(0, 0, 1)
	out := make([]weather.HourlyForecastPoint, 0, len(hourly))
	for _, h := range hourly {
		if h.Time.Before(end) {
			out = append(out, h)
		}
	}
	return out
}
