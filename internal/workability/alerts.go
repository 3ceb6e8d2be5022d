package workability

import (
	"strings"
	"time"

	"github.com/pavecast/pavecast/internal/weather"
)

// expectedHorizon is how far ahead an alert still counts as expected rather than future.
const expectedHorizon = 24 * time.Hour

var impactBySeverity = map[weather.AlertSeverity]weather.WorkImpact{
	weather.SeverityExtreme:  {Recommendation: weather.WorkEvacuate, SafetyLevel: 10, ProductivityImpact: 100},
	weather.SeveritySevere:   {Recommendation: weather.WorkPostpone, SafetyLevel: 30, ProductivityImpact: 75},
	weather.SeverityModerate: {Recommendation: weather.WorkMonitor, SafetyLevel: 60, ProductivityImpact: 40},
	weather.SeverityMinor:    {Recommendation: weather.WorkContinue, SafetyLevel: 85, ProductivityImpact: 10},
}

var extremeEvents = []string{"tornado", "hurricane", "extreme", "emergency"}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// AlertType classifies an alert from its event text.
func AlertType(event string) weather.AlertType {
	e := strings.ToLower(event)
	switch {
	case strings.Contains(e, "emergency"):
		return weather.AlertEmergency
	case strings.Contains(e, "warning"):
		return weather.AlertWarning
	case strings.Contains(e, "watch"):
		return weather.AlertWatch
	default:
		return weather.AlertAdvisory
	}
}

// AlertSeverity classifies an alert from its event text.
func AlertSeverity(event string) weather.AlertSeverity {
	e := strings.ToLower(event)
	switch {
	case containsAny(e, extremeEvents...):
		return weather.SeverityExtreme
	case strings.Contains(e, "warning"):
		return weather.SeveritySevere
	case strings.Contains(e, "watch"):
		return weather.SeverityModerate
	default:
		return weather.SeverityMinor
	}
}

// AlertUrgency places an alert relative to now.
func AlertUrgency(start, end, now time.Time) weather.AlertUrgency {
	switch {
	case !end.IsZero() && !now.Before(end):
		return weather.UrgencyPast
	case !now.Before(start):
		return weather.UrgencyImmediate
	case start.Sub(now) <= expectedHorizon:
		return weather.UrgencyExpected
	default:
		return weather.UrgencyFuture
	}
}

// ImpactFor returns the work impact for a severity. Tornadoes and hurricanes
// always stop all work.
func ImpactFor(severity weather.AlertSeverity, event string) weather.WorkImpact {
	impact, ok := impactBySeverity[severity]
	if !ok {
		impact = impactBySeverity[weather.SeverityMinor]
	}
	if containsAny(strings.ToLower(event), "tornado", "hurricane") {
		impact.ProductivityImpact = 100
	}
	return impact
}

// ClassifyAlert fills in the type, severity, urgency and work impact of a
// provider alert. Fields the provider already set are kept.
func ClassifyAlert(alert weather.WeatherAlert, now time.Time) weather.WeatherAlert {
	if alert.Type == "" {
		alert.Type = AlertType(alert.Event)
	}
	if alert.Severity == "" {
		alert.Severity = AlertSeverity(alert.Event)
	}
	if alert.Urgency == "" {
		alert.Urgency = AlertUrgency(alert.Start, alert.End, now)
	}
	alert.WorkImpact = ImpactFor(alert.Severity, alert.Event)
	return alert
}

// ClassifyAlerts classifies every alert, returning a new slice.
func ClassifyAlerts(alerts []weather.WeatherAlert, now time.Time) []weather.WeatherAlert {
	out := make([]weather.WeatherAlert, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, ClassifyAlert(a, now))
	}
	return out
}
