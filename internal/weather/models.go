// Package weather defines the normalized meteorological model shared by the
// upstream providers, the fallback synthesizer and the workability scorer.
//
// Units are imperial throughout: temperatures in °F, wind in mph, visibility in
// miles and precipitation in inches (per hour for rates).
package weather

import (
	"time"
)

// Coordinate is a WGS84 latitude/longitude pair.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// PrecipitationType is the kind of falling precipitation.
type PrecipitationType string

const (
	PrecipNone  PrecipitationType = "none"
	PrecipRain  PrecipitationType = "rain"
	PrecipSnow  PrecipitationType = "snow"
	PrecipSleet PrecipitationType = "sleet"
	PrecipHail  PrecipitationType = "hail"
)

// Intensity classifies a precipitation rate.
type Intensity string

const (
	IntensityLight    Intensity = "light"
	IntensityModerate Intensity = "moderate"
	IntensityHeavy    Intensity = "heavy"
	IntensityExtreme  Intensity = "extreme"
)

// IntensityForAmount maps an hourly amount in inches to an intensity.
func IntensityForAmount(amount float64) Intensity {
	switch {
	case amount > 0.3:
		return IntensityExtreme
	case amount > 0.15:
		return IntensityHeavy
	case amount > 0.05:
		return IntensityModerate
	default:
		return IntensityLight
	}
}

// PrecipitationState describes precipitation at a point in time.
type PrecipitationState struct {
	Type        PrecipitationType `json:"type"`
	Intensity   Intensity         `json:"intensity"`
	Amount      float64           `json:"amount"`      // inches per hour
	Probability float64           `json:"probability"` // 0-1
}

// Present reports whether any measurable precipitation is falling.
func (p PrecipitationState) Present() bool {
	return p.Type != "" && p.Type != PrecipNone && p.Amount > 0
}

// NoPrecipitation returns the dry precipitation state.
func NoPrecipitation() PrecipitationState {
	return PrecipitationState{Type: PrecipNone, Intensity: IntensityLight}
}

// NewPrecipitation builds a precipitation state, deriving intensity from amount.
func NewPrecipitation(kind PrecipitationType, amount, probability float64) PrecipitationState {
	if amount <= 0 || kind == "" || kind == PrecipNone {
		p := NoPrecipitation()
		p.Probability = probability
		return p
	}
	return PrecipitationState{
		Type:        kind,
		Intensity:   IntensityForAmount(amount),
		Amount:      amount,
		Probability: probability,
	}
}

// Condition is the general textual weather condition.
type Condition string

const (
	ConditionClear        Condition = "CLEAR"
	ConditionClouds       Condition = "CLOUDS"
	ConditionRain         Condition = "RAIN"
	ConditionDrizzle      Condition = "DRIZZLE"
	ConditionThunderstorm Condition = "THUNDERSTORM"
	ConditionSnow         Condition = "SNOW"
	ConditionMist         Condition = "MIST"
	ConditionFog          Condition = "FOG"
	ConditionHaze         Condition = "HAZE"
	ConditionUnknown      Condition = "UNKNOWN"
)

// CurrentConditions is an observation at a single point and time.
type CurrentConditions struct {
	Temperature   float64            `json:"temperature"`
	FeelsLike     float64            `json:"feelsLike"`
	Humidity      float64            `json:"humidity"`
	Pressure      float64            `json:"pressure"`
	WindSpeed     float64            `json:"windSpeed"`
	WindDirection float64            `json:"windDirection"`
	WindGust      float64            `json:"windGust"`
	Visibility    float64            `json:"visibility"`
	CloudCover    float64            `json:"cloudCover"`
	UVIndex       float64            `json:"uvIndex"`
	Condition     Condition          `json:"condition"`
	Description   string             `json:"description"`
	Precipitation PrecipitationState `json:"precipitation"`
	ObservedAt    time.Time          `json:"observedAt"`
}

// HourlyForecastPoint is a projection for one hour.
type HourlyForecastPoint struct {
	Time          time.Time          `json:"time"`
	Temperature   float64            `json:"temperature"`
	FeelsLike     float64            `json:"feelsLike"`
	Humidity      float64            `json:"humidity"`
	WindSpeed     float64            `json:"windSpeed"`
	WindDirection float64            `json:"windDirection"`
	WindGust      float64            `json:"windGust"`
	CloudCover    float64            `json:"cloudCover"`
	Condition     Condition          `json:"condition"`
	Description   string             `json:"description"`
	Precipitation PrecipitationState `json:"precipitation"`

	// Set by the schedule generator.
	WorkabilityScore int  `json:"workabilityScore"`
	Workable         bool `json:"workable"`
}

// WorkWindow is a contiguous span of workable hours within a day.
// When Available is false there are no workable hours and Start equals End.
type WorkWindow struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Hours     int       `json:"hours"`
	Available bool      `json:"available"`
}

// DailyForecastSummary is a projection for one calendar day.
type DailyForecastSummary struct {
	Date          time.Time          `json:"date"`
	TempMin       float64            `json:"tempMin"`
	TempMax       float64            `json:"tempMax"`
	Humidity      float64            `json:"humidity"`
	WindSpeed     float64            `json:"windSpeed"`
	WindGust      float64            `json:"windGust"`
	CloudCover    float64            `json:"cloudCover"`
	UVIndex       float64            `json:"uvIndex"`
	Condition     Condition          `json:"condition"`
	Description   string             `json:"description"`
	Precipitation PrecipitationState `json:"precipitation"`
	DailyPrecip   float64            `json:"dailyPrecipitation"` // inches over the day

	// Set by the schedule generator.
	WorkabilityScore int        `json:"workabilityScore"`
	WorkableHours    int        `json:"workableHours"`
	BestWorkWindow   WorkWindow `json:"bestWorkWindow"`
}

// AlertType is the class of a provider-issued alert.
type AlertType string

const (
	AlertWatch     AlertType = "watch"
	AlertWarning   AlertType = "warning"
	AlertAdvisory  AlertType = "advisory"
	AlertEmergency AlertType = "emergency"
)

// AlertSeverity is the severity of an alert.
type AlertSeverity string

const (
	SeverityMinor    AlertSeverity = "minor"
	SeverityModerate AlertSeverity = "moderate"
	SeveritySevere   AlertSeverity = "severe"
	SeverityExtreme  AlertSeverity = "extreme"
)

// AlertUrgency is how soon an alert applies.
type AlertUrgency string

const (
	UrgencyImmediate AlertUrgency = "immediate"
	UrgencyExpected  AlertUrgency = "expected"
	UrgencyFuture    AlertUrgency = "future"
	UrgencyPast      AlertUrgency = "past"
)

// WorkRecommendation is the action an alert implies for crews on site.
type WorkRecommendation string

const (
	WorkContinue WorkRecommendation = "continue"
	WorkMonitor  WorkRecommendation = "monitor"
	WorkPostpone WorkRecommendation = "postpone"
	WorkEvacuate WorkRecommendation = "evacuate"
)

// WorkImpact summarizes how an alert affects outdoor work.
type WorkImpact struct {
	Recommendation     WorkRecommendation `json:"recommendation"`
	SafetyLevel        int                `json:"safetyLevel"`        // 0-100, higher is safer
	ProductivityImpact int                `json:"productivityImpact"` // percent of output lost
}

// WeatherAlert is a provider-issued watch, warning, advisory or emergency.
type WeatherAlert struct {
	ID          string        `json:"id"`
	Sender      string        `json:"sender"`
	Event       string        `json:"event"`
	Type        AlertType     `json:"type"`
	Severity    AlertSeverity `json:"severity"`
	Urgency     AlertUrgency  `json:"urgency"`
	Start       time.Time     `json:"start"`
	End         time.Time     `json:"end"`
	Description string        `json:"description"`
	Tags        []string      `json:"tags,omitempty"`
	WorkImpact  WorkImpact    `json:"workImpact"`
}

// Forecast is the normalized multi-day forecast returned by a provider.
type Forecast struct {
	Location  Coordinate             `json:"location"`
	Hourly    []HourlyForecastPoint  `json:"hourly"`
	Daily     []DailyForecastSummary `json:"daily"`
	Alerts    []WeatherAlert         `json:"alerts"`
	FetchedAt time.Time              `json:"fetchedAt"`
}
