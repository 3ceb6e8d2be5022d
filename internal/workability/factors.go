package workability

import (
	"fmt"
	"math"

	"github.com/pavecast/pavecast/internal/weather"
)

// FactorName identifies a scored weather factor.
type FactorName string

const (
	FactorTemperature   FactorName = "temperature"
	FactorPrecipitation FactorName = "precipitation"
	FactorWind          FactorName = "wind"
	FactorHumidity      FactorName = "humidity"
	FactorVisibility    FactorName = "visibility"
)

// Impact is how strongly a factor's deviation affects the work.
type Impact string

const (
	ImpactCritical Impact = "critical"
	ImpactHigh     Impact = "high"
	ImpactMedium   Impact = "medium"
	ImpactLow      Impact = "low"
)

// Threshold is the acceptable range a factor was compared against.
type Threshold struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Unit string  `json:"unit"`
}

// Factor is the score of a single weather factor.
type Factor struct {
	Name         FactorName `json:"name"`
	Score        int        `json:"score"`
	Impact       Impact     `json:"impact"`
	Description  string     `json:"description"`
	Threshold    Threshold  `json:"threshold"`
	CurrentValue float64    `json:"currentValue"`
}

// impactForScore is the tier ladder used by factors without fixed tiers.
func impactForScore(score float64) Impact {
	switch {
	case score < 50:
		return ImpactCritical
	case score < 70:
		return ImpactHigh
	case score < 85:
		return ImpactMedium
	default:
		return ImpactLow
	}
}

func clampScore(score float64) int {
	return int(math.Round(math.Max(0, math.Min(100, score))))
}

func temperatureFactor(temp float64, cfg TemperatureRange) Factor {
	score := 100.0
	desc := "temperature within optimal range"

	switch {
	case temp < cfg.Min:
		score = math.Max(0, 100-(cfg.Min-temp)*5)
		desc = fmt.Sprintf("temperature %.0f°F below minimum %.0f°F", temp, cfg.Min)
	case temp > cfg.Max:
		score = math.Max(0, 100-(temp-cfg.Max)*3)
		desc = fmt.Sprintf("temperature %.0f°F above maximum %.0f°F", temp, cfg.Max)
	case temp < cfg.OptimalMin || temp > cfg.OptimalMax:
		score = 80
		desc = "temperature acceptable but outside optimal range"
	}

	return Factor{
		Name:         FactorTemperature,
		Score:        clampScore(score),
		Impact:       impactForScore(score),
		Description:  desc,
		Threshold:    Threshold{Min: cfg.Min, Max: cfg.Max, Unit: "°F"},
		CurrentValue: temp,
	}
}

func precipitationFactor(p weather.PrecipitationState, cfg Configuration) Factor {
	// Intensity is always taken from the amount, whatever the caller supplied.
	if p.Present() {
		p.Intensity = weather.IntensityForAmount(p.Amount)
	}
	f := Factor{
		Name:         FactorPrecipitation,
		Threshold:    Threshold{Min: 0, Max: cfg.Precipitation.MaxHourly, Unit: "in/h"},
		CurrentValue: p.Amount,
	}

	switch {
	case !p.Present():
		f.Score, f.Impact = 100, ImpactLow
		f.Description = "no precipitation"
	case p.Amount > cfg.Precipitation.MaxHourly:
		f.Score, f.Impact = 0, ImpactCritical
		f.Description = fmt.Sprintf("%s %s at %.2f in/h exceeds limit", p.Intensity, p.Type, p.Amount)
	case p.Type == weather.PrecipRain && p.Intensity == weather.IntensityLight && cfg.AllowLightRain,
		acceptsType(cfg.Precipitation.AcceptedTypes, p.Type):
		f.Score, f.Impact = 40, ImpactMedium
		f.Description = fmt.Sprintf("%s %s, permitted by configuration", p.Intensity, p.Type)
	default:
		f.Score, f.Impact = 20, ImpactHigh
		f.Description = fmt.Sprintf("%s %s present", p.Intensity, p.Type)
	}
	return f
}

func windFactor(speed, gust float64, cfg WindLimits) Factor {
	effective := math.Max(speed, gust)
	f := Factor{
		Name:         FactorWind,
		Threshold:    Threshold{Min: 0, Max: cfg.MaxSustained, Unit: "mph"},
		CurrentValue: effective,
	}

	switch {
	case effective > cfg.MaxGust:
		f.Score, f.Impact = 0, ImpactCritical
		f.Description = fmt.Sprintf("wind %.0f mph exceeds gust limit %.0f mph", effective, cfg.MaxGust)
	case effective > cfg.MaxSustained:
		f.Score, f.Impact = 30, ImpactHigh
		f.Description = fmt.Sprintf("wind %.0f mph exceeds sustained limit %.0f mph", effective, cfg.MaxSustained)
	case effective > cfg.CriticalOperations:
		f.Score, f.Impact = 70, ImpactMedium
		f.Description = "wind may affect spraying and lifting operations"
	default:
		f.Score, f.Impact = 100, ImpactLow
		f.Description = "wind within limits"
	}
	return f
}

func humidityFactor(humidity float64, cfg HumidityRange) Factor {
	f := Factor{
		Name:         FactorHumidity,
		Threshold:    Threshold{Min: cfg.Min, Max: cfg.Max, Unit: "%"},
		CurrentValue: humidity,
	}

	switch {
	case humidity < cfg.Min:
		f.Score, f.Impact = 70, ImpactMedium
		f.Description = "low humidity, risk of rapid curing"
	case humidity > cfg.Max:
		f.Score, f.Impact = 60, ImpactMedium
		f.Description = "high humidity, material performance may suffer"
	default:
		f.Score, f.Impact = 100, ImpactLow
		f.Description = "humidity within range"
	}
	return f
}

func visibilityFactor(visibility, minimum float64) Factor {
	var score float64
	var desc string

	switch {
	case visibility > minimum*2:
		score, desc = 100, "clear visibility"
	case visibility >= minimum:
		score, desc = 80, "reduced visibility"
	default:
		ratio := 0.0
		if minimum > 0 {
			ratio = math.Max(0, visibility/minimum)
		}
		score = math.Min(79, 80*ratio)
		desc = fmt.Sprintf("visibility %.1f mi below minimum %.1f mi", visibility, minimum)
	}

	return Factor{
		Name:         FactorVisibility,
		Score:        clampScore(score),
		Impact:       impactForScore(score),
		Description:  desc,
		Threshold:    Threshold{Min: minimum, Max: 0, Unit: "mi"},
		CurrentValue: visibility,
	}
}

func acceptsType(accepted []weather.PrecipitationType, kind weather.PrecipitationType) bool {
	for _, a := range accepted {
		if a == kind {
			return true
		}
	}
	return false
}
