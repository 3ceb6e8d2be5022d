package workability

import (
	"math"

	"github.com/pavecast/pavecast/internal/weather"
)

// Recommendation is the discrete verdict for an overall score.
type Recommendation string

const (
	RecommendationExcellent      Recommendation = "excellent"
	RecommendationGood           Recommendation = "good"
	RecommendationFair           Recommendation = "fair"
	RecommendationPoor           Recommendation = "poor"
	RecommendationNotRecommended Recommendation = "not_recommended"
)

// RecommendationFor maps an overall score to a recommendation.
func RecommendationFor(overall int) Recommendation {
	switch {
	case overall >= 90:
		return RecommendationExcellent
	case overall >= 75:
		return RecommendationGood
	case overall >= 60:
		return RecommendationFair
	case overall >= 40:
		return RecommendationPoor
	default:
		return RecommendationNotRecommended
	}
}

// Index is the workability verdict for a set of conditions.
type Index struct {
	Overall        int            `json:"overall"`
	Recommendation Recommendation `json:"recommendation"`
	Factors        []Factor       `json:"factors"`
	Constraints    []Constraint   `json:"constraints"`
	Schedule       Schedule       `json:"schedule"`
}

// Factor returns the named factor and whether it was scored.
func (i Index) Factor(name FactorName) (Factor, bool) {
	for _, f := range i.Factors {
		if f.Name == name {
			return f, true
		}
	}
	return Factor{}, false
}

// Factors scores each weather factor independently.
func Factors(current weather.CurrentConditions, cfg Configuration) []Factor {
	return []Factor{
		temperatureFactor(current.Temperature, cfg.Temperature),
		precipitationFactor(current.Precipitation, cfg),
		windFactor(current.WindSpeed, current.WindGust, cfg.Wind),
		humidityFactor(current.Humidity, cfg.Humidity),
		visibilityFactor(current.Visibility, cfg.VisibilityMin),
	}
}

// Overall combines factor scores into a 0-100 index weighted by impact tier.
func Overall(factors []Factor, weights Weights) int {
	var sum, total float64
	for _, f := range factors {
		w := weights.For(f.Impact)
		sum += float64(f.Score) * w
		total += w
	}
	if total == 0 {
		return 0
	}
	return clampScore(math.Round(sum / total))
}

// Score computes the full workability index for current conditions. It performs
// no I/O; the observation time anchors today's schedule. A nil cfg selects the defaults.
func Score(current weather.CurrentConditions, cfg *Configuration) Index {
	resolved := Resolve(cfg)
	factors := Factors(current, resolved)
	constraints := Constraints(factors)
	overall := Overall(factors, resolved.Weights)

	return Index{
		Overall:        overall,
		Recommendation: RecommendationFor(overall),
		Factors:        factors,
		Constraints:    constraints,
		Schedule: Schedule{
			Today: Today(factors, constraints, current.ObservedAt, resolved),
		},
	}
}
