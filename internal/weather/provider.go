package weather

import "context"

// Provider is a source of weather data for a coordinate.
type Provider interface {
	// FetchCurrent returns the current observation.
	FetchCurrent(ctx context.Context, lat, lng float64) (*CurrentConditions, error)

	// FetchForecast returns hourly and daily projections plus active alerts.
	FetchForecast(ctx context.Context, lat, lng float64) (*Forecast, error)

	// FetchAlerts returns active alerts without classification applied.
	FetchAlerts(ctx context.Context, lat, lng float64) ([]WeatherAlert, error)

	// Name identifies the provider in logs and results.
	Name() string
}
