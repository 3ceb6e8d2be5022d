package weather_test

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavecast/pavecast/internal/weather"
)

func TestIntensityForAmount(t *testing.T) {
	tests := []struct {
		name     string
		amount   float64
		expected weather.Intensity
	}{
		{"zero", 0, weather.IntensityLight},
		{"light max", 0.05, weather.IntensityLight},
		{"moderate boundary", 0.051, weather.IntensityModerate},
		{"moderate max", 0.15, weather.IntensityModerate},
		{"heavy boundary", 0.151, weather.IntensityHeavy},
		{"heavy max", 0.3, weather.IntensityHeavy},
		{"extreme", 0.31, weather.IntensityExtreme},
		{"extreme high", 2.0, weather.IntensityExtreme},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, weather.IntensityForAmount(tt.amount))
		})
	}
}

func TestNewPrecipitation(t *testing.T) {
	p := weather.NewPrecipitation(weather.PrecipRain, 0.2, 0.9)
	assert.True(t, p.Present())
	assert.Equal(t, weather.PrecipRain, p.Type)
	assert.Equal(t, weather.IntensityHeavy, p.Intensity)
	assert.Equal(t, 0.9, p.Probability)

	dry := weather.NewPrecipitation(weather.PrecipRain, 0, 0.3)
	assert.False(t, dry.Present())
	assert.Equal(t, weather.PrecipNone, dry.Type)
	assert.Equal(t, 0.3, dry.Probability)

	assert.False(t, weather.NoPrecipitation().Present())
}

func TestValidateCoordinates(t *testing.T) {
	tests := []struct {
		name  string
		lat   float64
		lng   float64
		valid bool
	}{
		{"origin", 0, 0, true},
		{"bounds", 90, -180, true},
		{"negative bounds", -90, 180, true},
		{"lat too high", 91, 0, false},
		{"lat too low", -90.0001, 0, false},
		{"lng too high", 0, 181, false},
		{"lng too low", 0, -180.5, false},
		{"both out", 91, 181, false},
		{"nan", math.NaN(), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := weather.ValidateCoordinates(tt.lat, tt.lng)
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, weather.ErrInvalidCoordinates)
		})
	}
}

func TestUpstreamError_Is(t *testing.T) {
	cause := errors.New("connection refused")

	tests := []struct {
		kind     weather.UpstreamErrorKind
		sentinel error
	}{
		{weather.KindTransport, weather.ErrUpstreamTransport},
		{weather.KindHTTP, weather.ErrUpstreamHTTP},
		{weather.KindMalformed, weather.ErrMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			err := fmt.Errorf("fetch: %w", &weather.UpstreamError{
				Provider:  "test",
				Operation: "current",
				Kind:      tt.kind,
				Message:   "boom",
				Err:       cause,
			})
			assert.ErrorIs(t, err, tt.sentinel)
			assert.ErrorIs(t, err, cause)
			assert.NotErrorIs(t, err, weather.ErrInvalidCoordinates)

			var upstream *weather.UpstreamError
			require.ErrorAs(t, err, &upstream)
			assert.Equal(t, tt.kind, upstream.Kind)
		})
	}
}

func TestUpstreamError_Message(t *testing.T) {
	err := &weather.UpstreamError{
		Provider:   "openweathermap",
		Operation:  "current",
		Kind:       weather.KindHTTP,
		StatusCode: 429,
		Message:    "rate limited",
	}
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "rate limited")
}
