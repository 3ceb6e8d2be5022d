package models

import (
	"github.com/pavecast/pavecast/internal/weather"
	"github.com/pavecast/pavecast/internal/workability"
)

// LocationQuery holds the lat and lng query parameters. Values are validated
// as strings before they are parsed.
type LocationQuery struct {
	Lat string `query:"lat" validate:"required,latitude"`
	Lng string `query:"lng" validate:"required,longitude"`
}

// ForecastQuery adds the optional forecast length. Out-of-range lengths are
// clamped by the engine rather than rejected.
type ForecastQuery struct {
	LocationQuery
	Days string `query:"days" validate:"omitempty,numeric"`
}

// ScoreRequest is the body of POST /v1/workability:score. Config is decoded
// over the default configuration, so partial overrides are allowed.
type ScoreRequest struct {
	Current *weather.CurrentConditions `json:"current" validate:"required"`
	Config  *workability.Configuration `json:"config,omitempty"`
}

// AlertsResponse is the body of GET /v1/weather/alerts.
type AlertsResponse struct {
	Location weather.Coordinate     `json:"location"`
	Alerts   []weather.WeatherAlert `json:"alerts"`
}
