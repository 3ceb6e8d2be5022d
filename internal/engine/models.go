package engine

import (
	"time"

	"github.com/pavecast/pavecast/internal/weather"
	"github.com/pavecast/pavecast/internal/workability"
)

// WeatherData is current conditions with their workability index.
type WeatherData struct {
	Location    weather.Coordinate        `json:"location"`
	Current     weather.CurrentConditions `json:"current"`
	Workability workability.Index         `json:"workability"`
	Source      string                    `json:"source"`
	Synthetic   bool                      `json:"synthetic"`
	FetchedAt   time.Time                 `json:"fetchedAt"`
}

// WeatherForecast is a scored multi-day forecast.
type WeatherForecast struct {
	Location  weather.Coordinate             `json:"location"`
	Days      int                            `json:"days"`
	Hourly    []weather.HourlyForecastPoint  `json:"hourly"`
	Daily     []weather.DailyForecastSummary `json:"daily"`
	Alerts    []weather.WeatherAlert         `json:"alerts"`
	Source    string                         `json:"source"`
	Synthetic bool                           `json:"synthetic"`
	FetchedAt time.Time                      `json:"fetchedAt"`
}

// SiteReport joins current conditions, the forecast and alerts for one site.
type SiteReport struct {
	Location weather.Coordinate     `json:"location"`
	Current  *WeatherData           `json:"current"`
	Forecast *WeatherForecast       `json:"forecast"`
	Alerts   []weather.WeatherAlert `json:"alerts"`

	// BestDay is the forecast day with the most workable hours, if any.
	BestDay *weather.DailyForecastSummary `json:"bestDay,omitempty"`

	// StopWork is set when any active alert recommends postponing or evacuating.
	StopWork bool `json:"stopWork"`

	// Synthetic is set when any part of the report came from fallback data.
	Synthetic   bool      `json:"synthetic"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// Payload is the unit the engine caches for one upstream call.
type Payload struct {
	Current   *weather.CurrentConditions `json:"current,omitempty"`
	Forecast  *weather.Forecast          `json:"forecast,omitempty"`
	Alerts    []weather.WeatherAlert     `json:"alerts,omitempty"`
	Source    string                     `json:"source"`
	Synthetic bool                       `json:"synthetic"`
	FetchedAt time.Time                  `json:"fetchedAt"`
}
