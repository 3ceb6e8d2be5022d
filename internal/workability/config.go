// Package workability scores weather conditions for outdoor surface
// construction and derives constraints, schedules and alert impacts.
package workability

import "github.com/pavecast/pavecast/internal/weather"

// TemperatureRange is the acceptable temperature band with an inner optimal band, °F.
type TemperatureRange struct {
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	OptimalMin float64 `json:"optimalMin"`
	OptimalMax float64 `json:"optimalMax"`
}

// PrecipitationLimits bounds acceptable precipitation, inches.
type PrecipitationLimits struct {
	MaxHourly     float64                     `json:"maxHourly"`
	MaxDaily      float64                     `json:"maxDaily"`
	AcceptedTypes []weather.PrecipitationType `json:"acceptedTypes"`
}

// WindLimits bounds acceptable wind, mph.
type WindLimits struct {
	MaxSustained       float64 `json:"maxSustained"`
	MaxGust            float64 `json:"maxGust"`
	CriticalOperations float64 `json:"criticalOperations"`
}

// HumidityRange is the acceptable relative humidity band, percent.
type HumidityRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Weights are the contribution of a factor to the overall score by impact tier.
type Weights struct {
	Critical float64 `json:"critical"`
	High     float64 `json:"high"`
	Medium   float64 `json:"medium"`
	Low      float64 `json:"low"`
}

// For returns the weight of an impact tier.
func (w Weights) For(impact Impact) float64 {
	switch impact {
	case ImpactCritical:
		return w.Critical
	case ImpactHigh:
		return w.High
	case ImpactMedium:
		return w.Medium
	default:
		return w.Low
	}
}

// Configuration holds the thresholds the scorer compares observations against.
// The defaults are tuned for asphalt paving; none of them is physical law.
type Configuration struct {
	Temperature   TemperatureRange    `json:"temperature"`
	Precipitation PrecipitationLimits `json:"precipitation"`
	Wind          WindLimits          `json:"wind"`
	Humidity      HumidityRange       `json:"humidity"`

	// VisibilityMin is the minimum safe visibility in miles.
	VisibilityMin float64 `json:"visibilityMin"`

	AllowLightRain   bool `json:"allowLightRain"`
	AllowNightWork   bool `json:"allowNightWork"`
	AllowWeekendWork bool `json:"allowWeekendWork"`

	// WorkDayStart and WorkDayEnd bound daytime operations (hours, end exclusive).
	WorkDayStart int `json:"workDayStart"`
	WorkDayEnd   int `json:"workDayEnd"`

	Weights Weights `json:"weights"`
}

// DefaultWeights returns the default tier weights.
func DefaultWeights() Weights {
	return Weights{Critical: 0.30, High: 0.25, Medium: 0.15, Low: 0.10}
}

// DefaultConfiguration returns the default paving thresholds.
func DefaultConfiguration() Configuration {
	return Configuration{
		Temperature: TemperatureRange{
			Min:        50,
			Max:        85,
			OptimalMin: 60,
			OptimalMax: 80,
		},
		Precipitation: PrecipitationLimits{
			MaxHourly:     0.10,
			MaxDaily:      0.50,
			AcceptedTypes: []weather.PrecipitationType{weather.PrecipNone},
		},
		Wind: WindLimits{
			MaxSustained:       25,
			MaxGust:            35,
			CriticalOperations: 12,
		},
		Humidity:         HumidityRange{Min: 35, Max: 75},
		VisibilityMin:    1,
		AllowLightRain:   false,
		AllowNightWork:   false,
		AllowWeekendWork: true,
		WorkDayStart:     7,
		WorkDayEnd:       19,
		Weights:          DefaultWeights(),
	}
}

// withDefaults fills zero-valued sections from the defaults so partial
// overrides supplied by callers remain usable.
func (c Configuration) withDefaults() Configuration {
	d := DefaultConfiguration()
	if c.Temperature == (TemperatureRange{}) {
		c.Temperature = d.Temperature
	}
	if c.Precipitation.MaxHourly == 0 && c.Precipitation.MaxDaily == 0 && len(c.Precipitation.AcceptedTypes) == 0 {
		c.Precipitation = d.Precipitation
	}
	if c.Wind == (WindLimits{}) {
		c.Wind = d.Wind
	}
	if c.Humidity == (HumidityRange{}) {
		c.Humidity = d.Humidity
	}
	if c.VisibilityMin == 0 {
		c.VisibilityMin = d.VisibilityMin
	}
	if c.WorkDayStart == 0 && c.WorkDayEnd == 0 {
		c.WorkDayStart, c.WorkDayEnd = d.WorkDayStart, d.WorkDayEnd
	}
	if c.Weights == (Weights{}) {
		c.Weights = d.Weights
	}
	return c
}

// Resolve returns cfg with defaults applied, or the default configuration when cfg is nil.
func Resolve(cfg *Configuration) Configuration {
	if cfg == nil {
		return DefaultConfiguration()
	}
	return cfg.withDefaults()
}
