package workability_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavecast/pavecast/internal/weather"
	"github.com/pavecast/pavecast/internal/workability"
)

// wednesday is a mid-week morning used to anchor same-day schedules.
var wednesday = time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)

func conditions(temp, humidity, wind float64, precip weather.PrecipitationState) weather.CurrentConditions {
	return weather.CurrentConditions{
		Temperature:   temp,
		FeelsLike:     temp,
		Humidity:      humidity,
		WindSpeed:     wind,
		WindGust:      wind,
		Visibility:    10,
		Condition:     weather.ConditionClear,
		Precipitation: precip,
		ObservedAt:    wednesday,
	}
}

func TestScore_Fixtures(t *testing.T) {
	tests := []struct {
		name           string
		current        weather.CurrentConditions
		expected       int
		recommendation workability.Recommendation
	}{
		{
			name:           "mild and dry",
			current:        conditions(70, 40, 5, weather.NoPrecipitation()),
			expected:       100,
			recommendation: workability.RecommendationExcellent,
		},
		{
			name:           "hot and dry",
			current:        conditions(95, 30, 3, weather.NoPrecipitation()),
			expected:       85,
			recommendation: workability.RecommendationGood,
		},
		{
			name:           "cold",
			current:        conditions(35, 50, 8, weather.NoPrecipitation()),
			expected:       68,
			recommendation: workability.RecommendationFair,
		},
		{
			name:           "humid, windy and raining",
			current:        conditions(65, 80, 15, weather.NewPrecipitation(weather.PrecipRain, 0.12, 0.9)),
			expected:       49,
			recommendation: workability.RecommendationPoor,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			index := workability.Score(tt.current, nil)
			assert.Equal(t, tt.expected, index.Overall)
			assert.Equal(t, tt.recommendation, index.Recommendation)
			assert.Len(t, index.Factors, 5)
		})
	}
}

func TestScore_OverallAlwaysInRange(t *testing.T) {
	precips := []weather.PrecipitationState{
		weather.NoPrecipitation(),
		weather.NewPrecipitation(weather.PrecipRain, 0.02, 0.5),
		weather.NewPrecipitation(weather.PrecipSnow, 0.4, 1),
	}

	for temp := -40.0; temp <= 140; temp += 15 {
		for humidity := 0.0; humidity <= 100; humidity += 25 {
			for wind := 0.0; wind <= 80; wind += 10 {
				for _, p := range precips {
					c := conditions(temp, humidity, wind, p)
					c.Visibility = 0
					index := workability.Score(c, nil)
					assert.GreaterOrEqual(t, index.Overall, 0)
					assert.LessOrEqual(t, index.Overall, 100)
					for _, f := range index.Factors {
						assert.GreaterOrEqual(t, f.Score, 0)
						assert.LessOrEqual(t, f.Score, 100)
					}
				}
			}
		}
	}
}

func TestScore_PrecipitationMonotonic(t *testing.T) {
	for _, allowLight := range []bool{false, true} {
		cfg := workability.DefaultConfiguration()
		cfg.AllowLightRain = allowLight

		previous := 101
		for amount := 0.0; amount <= 0.5; amount += 0.01 {
			c := conditions(70, 50, 5, weather.NewPrecipitation(weather.PrecipRain, amount, 1))
			f, ok := workability.Score(c, &cfg).Factor(workability.FactorPrecipitation)
			require.True(t, ok)
			assert.LessOrEqual(t, f.Score, previous, "amount %.2f", amount)
			previous = f.Score
		}
	}
}

func TestScore_WindMonotonic(t *testing.T) {
	previous := 101
	for wind := 0.0; wind <= 60; wind++ {
		f, ok := workability.Score(conditions(70, 50, wind, weather.NoPrecipitation()), nil).Factor(workability.FactorWind)
		require.True(t, ok)
		assert.LessOrEqual(t, f.Score, previous, "wind %.0f", wind)
		previous = f.Score
	}
}

func TestScore_WindUsesGust(t *testing.T) {
	c := conditions(70, 50, 10, weather.NoPrecipitation())
	c.WindGust = 40

	f, ok := workability.Score(c, nil).Factor(workability.FactorWind)
	require.True(t, ok)
	assert.Equal(t, 0, f.Score)
	assert.Equal(t, workability.ImpactCritical, f.Impact)
	assert.Equal(t, 40.0, f.CurrentValue)
}

func TestScore_Temperature(t *testing.T) {
	tests := []struct {
		temp   float64
		score  int
		impact workability.Impact
	}{
		{temp: 70, score: 100, impact: workability.ImpactLow},
		{temp: 55, score: 80, impact: workability.ImpactMedium},
		{temp: 82, score: 80, impact: workability.ImpactMedium},
		{temp: 45, score: 75, impact: workability.ImpactMedium},
		{temp: 40, score: 50, impact: workability.ImpactHigh},
		{temp: 20, score: 0, impact: workability.ImpactCritical},
		{temp: 100, score: 55, impact: workability.ImpactHigh},
		{temp: 130, score: 0, impact: workability.ImpactCritical},
	}

	for _, tt := range tests {
		f, ok := workability.Score(conditions(tt.temp, 50, 5, weather.NoPrecipitation()), nil).Factor(workability.FactorTemperature)
		require.True(t, ok)
		assert.Equal(t, tt.score, f.Score, "temp %.0f", tt.temp)
		assert.Equal(t, tt.impact, f.Impact, "temp %.0f", tt.temp)
	}
}

func TestScore_Precipitation(t *testing.T) {
	light := weather.NewPrecipitation(weather.PrecipRain, 0.03, 0.6)

	f, _ := workability.Score(conditions(70, 50, 5, light), nil).Factor(workability.FactorPrecipitation)
	assert.Equal(t, 20, f.Score)
	assert.Equal(t, workability.ImpactHigh, f.Impact)

	cfg := workability.DefaultConfiguration()
	cfg.AllowLightRain = true
	f, _ = workability.Score(conditions(70, 50, 5, light), &cfg).Factor(workability.FactorPrecipitation)
	assert.Equal(t, 40, f.Score)
	assert.Equal(t, workability.ImpactMedium, f.Impact)

	cfg = workability.DefaultConfiguration()
	cfg.Precipitation.AcceptedTypes = []weather.PrecipitationType{weather.PrecipSnow}
	snow := weather.NewPrecipitation(weather.PrecipSnow, 0.02, 0.6)
	f, _ = workability.Score(conditions(30, 50, 5, snow), &cfg).Factor(workability.FactorPrecipitation)
	assert.Equal(t, 40, f.Score)
}

func TestScore_PrecipitationIntensityFromAmount(t *testing.T) {
	cfg := workability.DefaultConfiguration()
	cfg.AllowLightRain = true

	tests := []struct {
		name   string
		precip weather.PrecipitationState
		score  int
	}{
		{
			name:   "missing intensity",
			precip: weather.PrecipitationState{Type: weather.PrecipRain, Amount: 0.02},
			score:  40,
		},
		{
			name:   "understated intensity",
			precip: weather.PrecipitationState{Type: weather.PrecipRain, Intensity: weather.IntensityLight, Amount: 0.08},
			score:  20,
		},
		{
			name:   "overstated intensity",
			precip: weather.PrecipitationState{Type: weather.PrecipRain, Intensity: weather.IntensityHeavy, Amount: 0.03},
			score:  40,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, ok := workability.Score(conditions(65, 80, 15, tt.precip), &cfg).Factor(workability.FactorPrecipitation)
			require.True(t, ok)
			assert.Equal(t, tt.score, f.Score)
		})
	}
}

func TestScore_HumidityAndVisibility(t *testing.T) {
	low, _ := workability.Score(conditions(70, 20, 5, weather.NoPrecipitation()), nil).Factor(workability.FactorHumidity)
	high, _ := workability.Score(conditions(70, 90, 5, weather.NoPrecipitation()), nil).Factor(workability.FactorHumidity)
	assert.Equal(t, 70, low.Score)
	assert.Equal(t, 60, high.Score)

	visibility := func(v float64) int {
		c := conditions(70, 50, 5, weather.NoPrecipitation())
		c.Visibility = v
		f, _ := workability.Score(c, nil).Factor(workability.FactorVisibility)
		return f.Score
	}
	assert.Equal(t, 100, visibility(5))
	assert.Equal(t, 80, visibility(1.5))
	assert.Equal(t, 40, visibility(0.5))
	assert.Equal(t, 0, visibility(0))
}

func TestScore_WeightsOverridable(t *testing.T) {
	cfg := workability.DefaultConfiguration()
	cfg.Weights = workability.Weights{Critical: 1, High: 0, Medium: 0, Low: 0}

	index := workability.Score(conditions(35, 50, 8, weather.NoPrecipitation()), &cfg)
	assert.Equal(t, 25, index.Overall)
	assert.Equal(t, workability.RecommendationNotRecommended, index.Recommendation)
}

func TestResolve(t *testing.T) {
	assert.Equal(t, workability.DefaultConfiguration(), workability.Resolve(nil))

	partial := &workability.Configuration{Wind: workability.WindLimits{MaxSustained: 15, MaxGust: 20, CriticalOperations: 10}}
	resolved := workability.Resolve(partial)
	assert.Equal(t, 15.0, resolved.Wind.MaxSustained)
	assert.Equal(t, workability.DefaultConfiguration().Temperature, resolved.Temperature)
	assert.Equal(t, workability.DefaultWeights(), resolved.Weights)
}

func TestRecommendationFor(t *testing.T) {
	assert.Equal(t, workability.RecommendationExcellent, workability.RecommendationFor(90))
	assert.Equal(t, workability.RecommendationGood, workability.RecommendationFor(89))
	assert.Equal(t, workability.RecommendationGood, workability.RecommendationFor(75))
	assert.Equal(t, workability.RecommendationFair, workability.RecommendationFor(60))
	assert.Equal(t, workability.RecommendationPoor, workability.RecommendationFor(40))
	assert.Equal(t, workability.RecommendationNotRecommended, workability.RecommendationFor(39))
}

func TestConstraints(t *testing.T) {
	index := workability.Score(conditions(65, 80, 15, weather.NewPrecipitation(weather.PrecipRain, 0.12, 0.9)), nil)

	require.Len(t, index.Constraints, 1)
	c := index.Constraints[0]
	assert.Equal(t, workability.FactorPrecipitation, c.Factor)
	assert.Equal(t, workability.SeverityBlocking, c.Severity)
	assert.Equal(t, 4, c.EstimatedDelayHours)
	assert.NotEmpty(t, c.RecommendedAction)

	cold := workability.Score(conditions(35, 50, 8, weather.NoPrecipitation()), nil)
	require.Len(t, cold.Constraints, 1)
	assert.Equal(t, "wait for temperature to rise above minimum threshold", cold.Constraints[0].RecommendedAction)

	dry := workability.Score(conditions(70, 50, 5, weather.NoPrecipitation()), nil)
	assert.NotNil(t, dry.Constraints)
	assert.Empty(t, dry.Constraints)
}

func TestConstraints_Severity(t *testing.T) {
	constraints := workability.Constraints([]workability.Factor{
		{Name: workability.FactorWind, Score: 30, Impact: workability.ImpactHigh},
		{Name: workability.FactorVisibility, Score: 45, Impact: workability.ImpactMedium},
		{Name: workability.FactorHumidity, Score: 60, Impact: workability.ImpactMedium},
	})

	require.Len(t, constraints, 2)
	assert.Equal(t, workability.SeverityLimiting, constraints[0].Severity)
	assert.Equal(t, 2, constraints[0].EstimatedDelayHours)
	assert.Equal(t, workability.SeverityAdvisory, constraints[1].Severity)
	assert.Equal(t, 0, constraints[1].EstimatedDelayHours)
}
