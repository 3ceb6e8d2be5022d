// Package synthetic produces plausible stand-in weather when the upstream
// provider cannot be reached. Output is deterministic for a given location and
// time, dry, and moderately breezy.
package synthetic

import (
	"context"
	"math"
	"time"

	"github.com/pavecast/pavecast/internal/weather"
)

// ProviderName identifies synthetic data in responses.
const ProviderName = "synthetic"

const (
	hourlyPoints = 48
	dailyPoints  = 8

	// diurnalAmplitude is half the daily temperature swing, °F.
	diurnalAmplitude = 10.0
)

// Config holds the values the synthesizer emits. Zero values select defaults.
type Config struct {
	// WindSpeed in mph (default 8).
	WindSpeed float64

	// Humidity in percent (default 50).
	Humidity float64

	// Visibility in miles (default 10).
	Visibility float64

	// Now is the clock (default time.Now).
	Now func() time.Time
}

// Provider synthesizes weather. It never returns an error.
type Provider struct {
	windSpeed  float64
	humidity   float64
	visibility float64
	now        func() time.Time
}

// NewProvider creates a synthesizer.
func NewProvider(cfg Config) *Provider {
	p := &Provider{
		windSpeed:  cfg.WindSpeed,
		humidity:   cfg.Humidity,
		visibility: cfg.Visibility,
		now:        cfg.Now,
	}
	if p.windSpeed == 0 {
		p.windSpeed = 8
	}
	if p.humidity == 0 {
		p.humidity = 50
	}
	if p.visibility == 0 {
		p.visibility = 10
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return ProviderName
}

// zone approximates local time from longitude, one hour per 15 degrees.
func zone(lng float64) *time.Location {
	offset := int(math.Round(lng/15)) * 3600
	return time.FixedZone("", offset)
}

// baseTemperature is the mean daily temperature for a latitude, °F.
func baseTemperature(lat float64) float64 {
	return 75 - 0.5*math.Abs(lat)
}

// temperatureAt follows a diurnal curve with the low at 05:00 and the high at 15:00.
func temperatureAt(lat float64, t time.Time) float64 {
	hour := float64(t.Hour()) + float64(t.Minute())/60
	if hour < 5 {
		hour += 24
	}
	var curve float64 // -1 at the low, +1 at the high
	if hour <= 15 {
		curve = -math.Cos(math.Pi * (hour - 5) / 10)
	} else {
		curve = math.Cos(math.Pi * (hour - 15) / 14)
	}
	return math.Round((baseTemperature(lat)+diurnalAmplitude*curve)*10) / 10
}

func uvIndex(t time.Time) float64 {
	h := t.Hour()
	if h < 7 || h >= 19 {
		return 0
	}
	return math.Round(6*math.Sin(math.Pi*float64(h-7)/12)*10) / 10
}

// FetchCurrent returns synthetic current conditions.
func (p *Provider) FetchCurrent(_ context.Context, lat, lng float64) (*weather.CurrentConditions, error) {
	now := p.now().In(zone(lng))
	temp := temperatureAt(lat, now)

	return &weather.CurrentConditions{
		Temperature:   temp,
		FeelsLike:     temp,
		Humidity:      p.humidity,
		Pressure:      1013,
		WindSpeed:     p.windSpeed,
		WindDirection: 180,
		WindGust:      p.windSpeed,
		Visibility:    p.visibility,
		CloudCover:    20,
		UVIndex:       uvIndex(now),
		Condition:     weather.ConditionClear,
		Description:   "estimated conditions",
		Precipitation: weather.NoPrecipitation(),
		ObservedAt:    now,
	}, nil
}

// FetchForecast returns 48 hourly points from the current hour and 8 days from today.
func (p *Provider) FetchForecast(_ context.Context, lat, lng float64) (*weather.Forecast, error) {
	loc := zone(lng)
	now := p.now().In(loc)
	start := now.Truncate(time.Hour)

	forecast := &weather.Forecast{
		Location:  weather.Coordinate{Lat: lat, Lng: lng},
		Hourly:    make([]weather.HourlyForecastPoint, 0, hourlyPoints),
		Daily:     make([]weather.DailyForecastSummary, 0, dailyPoints),
		Alerts:    []weather.WeatherAlert{},
		FetchedAt: p.now(),
	}

	for i := 0; i < hourlyPoints; i++ {
		t := start.Add(time.Duration(i) * time.Hour)
		temp := temperatureAt(lat, t)
		forecast.Hourly = append(forecast.Hourly, weather.HourlyForecastPoint{
			Time:          t,
			Temperature:   temp,
			FeelsLike:     temp,
			Humidity:      p.humidity,
			WindSpeed:     p.windSpeed,
			WindDirection: 180,
			WindGust:      p.windSpeed,
			CloudCover:    20,
			Condition:     weather.ConditionClear,
			Description:   "estimated conditions",
			Precipitation: weather.NoPrecipitation(),
		})
	}

	y, m, d := now.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, loc)
	base := baseTemperature(lat)
	for i := 0; i < dailyPoints; i++ {
		forecast.Daily = append(forecast.Daily, weather.DailyForecastSummary{
			Date:          midnight.AddDate(0, 0, i),
			TempMin:       base - diurnalAmplitude,
			TempMax:       base + diurnalAmplitude,
			Humidity:      p.humidity,
			WindSpeed:     p.windSpeed,
			WindGust:      p.windSpeed,
			CloudCover:    20,
			UVIndex:       6,
			Condition:     weather.ConditionClear,
			Description:   "estimated conditions",
			Precipitation: weather.NoPrecipitation(),
		})
	}

	return forecast, nil
}

// FetchAlerts returns no alerts; the synthesizer has no alert source.
func (p *Provider) FetchAlerts(context.Context, float64, float64) ([]weather.WeatherAlert, error) {
	return []weather.WeatherAlert{}, nil
}
