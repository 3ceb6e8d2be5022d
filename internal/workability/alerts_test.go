package workability_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavecast/pavecast/internal/weather"
	"github.com/pavecast/pavecast/internal/workability"
)

func TestClassifyAlert(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		event          string
		alertType      weather.AlertType
		severity       weather.AlertSeverity
		recommendation weather.WorkRecommendation
		safety         int
		productivity   int
	}{
		{"Tornado Warning", weather.AlertWarning, weather.SeverityExtreme, weather.WorkEvacuate, 10, 100},
		{"Hurricane Watch", weather.AlertWatch, weather.SeverityExtreme, weather.WorkEvacuate, 10, 100},
		{"Heavy Rain Warning", weather.AlertWarning, weather.SeveritySevere, weather.WorkPostpone, 30, 75},
		{"Flood Watch", weather.AlertWatch, weather.SeverityModerate, weather.WorkMonitor, 60, 40},
		{"Wind Advisory", weather.AlertAdvisory, weather.SeverityMinor, weather.WorkContinue, 85, 10},
		{"Civil Emergency Message", weather.AlertEmergency, weather.SeverityExtreme, weather.WorkEvacuate, 10, 100},
	}

	for _, tt := range tests {
		t.Run(tt.event, func(t *testing.T) {
			alert := workability.ClassifyAlert(weather.WeatherAlert{
				Event: tt.event,
				Start: now.Add(-time.Hour),
				End:   now.Add(time.Hour),
			}, now)

			assert.Equal(t, tt.alertType, alert.Type)
			assert.Equal(t, tt.severity, alert.Severity)
			assert.Equal(t, weather.UrgencyImmediate, alert.Urgency)
			assert.Equal(t, tt.recommendation, alert.WorkImpact.Recommendation)
			assert.Equal(t, tt.safety, alert.WorkImpact.SafetyLevel)
			assert.Equal(t, tt.productivity, alert.WorkImpact.ProductivityImpact)
		})
	}
}

func TestClassifyAlert_HighSeverityStopsWork(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

	for _, event := range []string{"Flash Flood Warning", "Extreme Wind Warning", "Tornado Warning"} {
		alert := workability.ClassifyAlert(weather.WeatherAlert{Event: event, Start: now}, now)
		assert.Contains(t, []weather.WorkRecommendation{weather.WorkPostpone, weather.WorkEvacuate}, alert.WorkImpact.Recommendation, event)
		assert.Less(t, alert.WorkImpact.SafetyLevel, 60, event)
	}
}

func TestClassifyAlert_KeepsProviderSeverity(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

	alert := workability.ClassifyAlert(weather.WeatherAlert{
		Event:    "Special Weather Statement",
		Severity: weather.SeveritySevere,
		Start:    now,
	}, now)

	assert.Equal(t, weather.SeveritySevere, alert.Severity)
	assert.Equal(t, weather.WorkPostpone, alert.WorkImpact.Recommendation)
}

func TestAlertUrgency(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, weather.UrgencyImmediate, workability.AlertUrgency(now.Add(-time.Hour), now.Add(time.Hour), now))
	assert.Equal(t, weather.UrgencyExpected, workability.AlertUrgency(now.Add(6*time.Hour), now.Add(12*time.Hour), now))
	assert.Equal(t, weather.UrgencyFuture, workability.AlertUrgency(now.Add(48*time.Hour), now.Add(60*time.Hour), now))
	assert.Equal(t, weather.UrgencyPast, workability.AlertUrgency(now.Add(-3*time.Hour), now.Add(-time.Hour), now))
	assert.Equal(t, weather.UrgencyImmediate, workability.AlertUrgency(now.Add(-time.Hour), time.Time{}, now))
}

func TestClassifyAlerts(t *testing.T) {
	now := time.Now()

	assert.NotNil(t, workability.ClassifyAlerts(nil, now))

	alerts := workability.ClassifyAlerts([]weather.WeatherAlert{{Event: "Frost Advisory"}, {Event: "Winter Storm Warning"}}, now)
	require.Len(t, alerts, 2)
	assert.Equal(t, weather.WorkContinue, alerts[0].WorkImpact.Recommendation)
	assert.Equal(t, weather.WorkPostpone, alerts[1].WorkImpact.Recommendation)
}
