package weather

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidCoordinates is returned for latitude outside [-90,90] or longitude
// outside [-180,180]. It is the only error the engine surfaces to callers.
var ErrInvalidCoordinates = errors.New("invalid coordinates")

// Upstream failure classes. An *UpstreamError matches exactly one of them with errors.Is.
var (
	ErrUpstreamTransport = errors.New("upstream transport error")
	ErrUpstreamHTTP      = errors.New("upstream http error")
	ErrMalformedResponse = errors.New("malformed upstream response")
)

// UpstreamErrorKind classifies an upstream failure.
type UpstreamErrorKind string

const (
	KindTransport UpstreamErrorKind = "transport"
	KindHTTP      UpstreamErrorKind = "http"
	KindMalformed UpstreamErrorKind = "malformed"
)

// UpstreamError describes a failed call to a weather provider.
type UpstreamError struct {
	Provider   string
	Operation  string
	Kind       UpstreamErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d: %s", e.Provider, e.Operation, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s: %s", e.Provider, e.Operation, e.Message)
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *UpstreamError) Unwrap() []error {
	errs := []error{e.sentinel()}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func (e *UpstreamError) sentinel() error {
	switch e.Kind {
	case KindHTTP:
		return ErrUpstreamHTTP
	case KindMalformed:
		return ErrMalformedResponse
	default:
		return ErrUpstreamTransport
	}
}

// ValidateCoordinates checks that lat and lng are within WGS84 bounds.
func ValidateCoordinates(lat, lng float64) error {
	if math.IsNaN(lat) || math.IsNaN(lng) ||
		lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return fmt.Errorf("%w: lat=%v lng=%v", ErrInvalidCoordinates, lat, lng)
	}
	return nil
}
