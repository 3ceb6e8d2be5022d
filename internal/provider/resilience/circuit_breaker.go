// Package resilience guards upstream weather provider calls with circuit
// breakers, timeouts and an optional retry policy, and tracks provider health.
package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Breaker defaults for a weather provider.
const (
	// DefaultOpenTimeout is how long the breaker stays open before probing.
	DefaultOpenTimeout = 60 * time.Second

	// DefaultConsecutiveFailures trips the breaker regardless of volume.
	DefaultConsecutiveFailures = 3

	// DefaultMinRequests is the volume needed before the failure ratio counts.
	DefaultMinRequests = 5

	// DefaultFailureRatio trips the breaker once DefaultMinRequests is reached.
	DefaultFailureRatio = 0.5
)

// CircuitBreakerConfig holds configuration for the circuit breaker.
type CircuitBreakerConfig struct {
	// Name identifies the provider in logs and health reports.
	Name string

	// MaxRequests is the number of probe requests allowed while half-open.
	// Default: 1
	MaxRequests uint32

	// Interval clears the closed-state counts periodically. Zero never clears.
	Interval time.Duration

	// Timeout is how long the breaker stays open; while open every call fails
	// fast and the engine serves fallback data.
	// Default: DefaultOpenTimeout
	Timeout time.Duration

	// ReadyToTrip decides when to open the breaker.
	// Default: DefaultReadyToTrip
	ReadyToTrip func(counts gobreaker.Counts) bool

	// IsSuccessful decides whether an error counts against the provider.
	// Default: ProviderFault negated
	IsSuccessful func(err error) bool

	// OnStateChange is called on every state transition.
	OnStateChange func(name string, from gobreaker.State, to gobreaker.State)
}

// DefaultCircuitBreakerConfig returns the breaker used for weather providers.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:        name,
		MaxRequests: 1,
		Timeout:     DefaultOpenTimeout,
		ReadyToTrip: DefaultReadyToTrip,
	}
}

// DefaultReadyToTrip opens the breaker after DefaultConsecutiveFailures failures
// in a row, or when at least DefaultMinRequests calls have been made and
// DefaultFailureRatio of them failed.
func DefaultReadyToTrip(counts gobreaker.Counts) bool {
	if counts.ConsecutiveFailures >= DefaultConsecutiveFailures {
		return true
	}
	if counts.Requests < DefaultMinRequests {
		return false
	}
	return float64(counts.TotalFailures)/float64(counts.Requests) >= DefaultFailureRatio
}

// ProviderFault reports whether err reflects on the provider. A caller that
// gave up on its own request says nothing about upstream health.
func ProviderFault(err error) bool {
	return err != nil && !errors.Is(err, context.Canceled)
}

// NewCircuitBreaker creates a circuit breaker from cfg, filling in defaults.
func NewCircuitBreaker[T any](cfg CircuitBreakerConfig) *gobreaker.CircuitBreaker[T] {
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = 1
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultOpenTimeout
	}
	if cfg.ReadyToTrip == nil {
		cfg.ReadyToTrip = DefaultReadyToTrip
	}
	if cfg.IsSuccessful == nil {
		cfg.IsSuccessful = func(err error) bool { return !ProviderFault(err) }
	}

	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:          cfg.Name,
		MaxRequests:   cfg.MaxRequests,
		Interval:      cfg.Interval,
		Timeout:       cfg.Timeout,
		ReadyToTrip:   cfg.ReadyToTrip,
		IsSuccessful:  cfg.IsSuccessful,
		OnStateChange: cfg.OnStateChange,
	})
}
