package workability

import (
	"math"
	"sort"
	"time"

	"github.com/pavecast/pavecast/internal/weather"
)

const (
	// todayWorkableFloor is the minimum score every factor needs for today to be workable.
	todayWorkableFloor = 40

	// WorkableThreshold is the overall score an hour needs to count as workable.
	WorkableThreshold = 60

	// Hourly projections carry no visibility, cloud or UV values.
	forecastVisibility = 10.0
)

// TodayRecommendation is the same-day work plan.
type TodayRecommendation struct {
	Workable   bool     `json:"workable"`
	BestHours  []int    `json:"bestHours"`
	AvoidHours []int    `json:"avoidHours"`
	Reasons    []string `json:"reasons"`
}

// Schedule is the optimized work schedule attached to an index.
type Schedule struct {
	Today TodayRecommendation `json:"today"`
}

func workHours(cfg Configuration) (int, int) {
	if cfg.AllowNightWork {
		return 0, 24
	}
	start, end := cfg.WorkDayStart, cfg.WorkDayEnd
	if start < 0 || end > 24 || start >= end {
		d := DefaultConfiguration()
		return d.WorkDayStart, d.WorkDayEnd
	}
	return start, end
}

func isWeekend(t time.Time) bool {
	return t.Weekday() == time.Saturday || t.Weekday() == time.Sunday
}

// Today derives the same-day recommendation. now anchors the best hours; a zero
// now starts them at the beginning of the work day. Once now is past the end
// of the work day, the rest of today is not workable.
func Today(factors []Factor, constraints []Constraint, now time.Time, cfg Configuration) TodayRecommendation {
	start, end := workHours(cfg)

	rec := TodayRecommendation{
		Workable:   true,
		BestHours:  []int{},
		AvoidHours: []int{},
		Reasons:    []string{},
	}

	for _, f := range factors {
		if f.Score < todayWorkableFloor {
			rec.Workable = false
		}
	}
	for _, c := range constraints {
		rec.Reasons = append(rec.Reasons, c.Description)
	}
	if !now.IsZero() && isWeekend(now) && !cfg.AllowWeekendWork {
		rec.Workable = false
		rec.Reasons = append(rec.Reasons, "weekend work not permitted")
	}

	if !rec.Workable {
		for h := start; h < end; h++ {
			rec.AvoidHours = append(rec.AvoidHours, h)
		}
		return rec
	}

	from := start
	if !now.IsZero() && now.Hour() > from {
		from = now.Hour()
	}
	if from >= end {
		rec.Workable = false
		rec.Reasons = append(rec.Reasons, "work day over")
		return rec
	}
	for h := from; h < end; h++ {
		rec.BestHours = append(rec.BestHours, h)
	}
	return rec
}

// hourConditions turns a forecast hour into scoreable conditions.
func hourConditions(h weather.HourlyForecastPoint) weather.CurrentConditions {
	return weather.CurrentConditions{
		Temperature:   h.Temperature,
		FeelsLike:     h.FeelsLike,
		Humidity:      h.Humidity,
		WindSpeed:     h.WindSpeed,
		WindDirection: h.WindDirection,
		WindGust:      h.WindGust,
		Visibility:    forecastVisibility,
		CloudCover:    h.CloudCover,
		Condition:     h.Condition,
		Description:   h.Description,
		Precipitation: h.Precipitation,
		ObservedAt:    h.Time,
	}
}

// ScoreHourly returns a copy of points with workability score and flag set.
func ScoreHourly(points []weather.HourlyForecastPoint, cfg *Configuration) []weather.HourlyForecastPoint {
	resolved := Resolve(cfg)
	scored := make([]weather.HourlyForecastPoint, len(points))
	for i, p := range points {
		overall := Overall(Factors(hourConditions(p), resolved), resolved.Weights)
		p.WorkabilityScore = overall
		p.Workable = overall >= WorkableThreshold
		scored[i] = p
	}
	return scored
}

// ProjectHourly expands a daily summary into 24 hourly points using a diurnal
// temperature curve (minimum at 05:00, maximum at 15:00). It is used for days the
// provider does not cover hourly.
func ProjectHourly(day weather.DailyForecastSummary) []weather.HourlyForecastPoint {
	midnight := startOfDay(day.Date)
	precip := weather.NoPrecipitation()
	precip.Probability = day.Precipitation.Probability
	if day.DailyPrecip > 0 && day.Precipitation.Probability >= 0.5 {
		kind := day.Precipitation.Type
		if kind == "" || kind == weather.PrecipNone {
			kind = weather.PrecipRain
		}
		precip = weather.NewPrecipitation(kind, day.DailyPrecip/24, day.Precipitation.Probability)
	}

	points := make([]weather.HourlyForecastPoint, 0, 24)
	for h := 0; h < 24; h++ {
		temp := diurnalTemperature(day.TempMin, day.TempMax, h)
		points = append(points, weather.HourlyForecastPoint{
			Time:          midnight.Add(time.Duration(h) * time.Hour),
			Temperature:   temp,
			FeelsLike:     temp,
			Humidity:      day.Humidity,
			WindSpeed:     day.WindSpeed,
			WindGust:      day.WindGust,
			CloudCover:    day.CloudCover,
			Condition:     day.Condition,
			Description:   day.Description,
			Precipitation: precip,
		})
	}
	return points
}

func diurnalTemperature(low, high float64, hour int) float64 {
	h := float64(hour)
	if hour < 5 {
		h += 24
	}
	if h <= 15 {
		return low + (high-low)*(1-math.Cos(math.Pi*(h-5)/10))/2
	}
	return high - (high-low)*(1-math.Cos(math.Pi*(h-15)/14))/2
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// SummarizeDays returns a copy of daily with workability, workable hours and the
// best work window filled in from hourly. Days without hourly coverage are
// projected with ProjectHourly. hourly must already be scored.
func SummarizeDays(daily []weather.DailyForecastSummary, hourly []weather.HourlyForecastPoint, cfg *Configuration) []weather.DailyForecastSummary {
	resolved := Resolve(cfg)
	out := make([]weather.DailyForecastSummary, len(daily))

	for i, day := range daily {
		var hours []weather.HourlyForecastPoint
		for _, h := range hourly {
			if sameDay(h.Time, day.Date) {
				hours = append(hours, h)
			}
		}
		if len(hours) == 0 {
			hours = ScoreHourly(ProjectHourly(day), &resolved)
		}
		sort.Slice(hours, func(a, b int) bool { return hours[a].Time.Before(hours[b].Time) })

		day.WorkabilityScore = dailyScore(day, resolved)
		day.WorkableHours = 0
		for _, h := range hours {
			if h.Workable {
				day.WorkableHours++
			}
		}
		if day.WorkableHours > 24 {
			day.WorkableHours = 24
		}
		day.BestWorkWindow = BestWindow(hours, startOfDay(day.Date))
		out[i] = day
	}
	return out
}

// dailyScore scores a day from its peak-hour values. A day whose total
// precipitation exceeds the daily limit scores its precipitation as over the limit.
func dailyScore(day weather.DailyForecastSummary, cfg Configuration) int {
	precip := day.Precipitation
	if day.DailyPrecip > cfg.Precipitation.MaxDaily {
		kind := precip.Type
		if kind == "" || kind == weather.PrecipNone {
			kind = weather.PrecipRain
		}
		precip = weather.NewPrecipitation(kind, math.Max(day.DailyPrecip, cfg.Precipitation.MaxHourly*2), precip.Probability)
	}
	current := weather.CurrentConditions{
		Temperature:   day.TempMax,
		Humidity:      day.Humidity,
		WindSpeed:     day.WindSpeed,
		WindGust:      day.WindGust,
		Visibility:    forecastVisibility,
		CloudCover:    day.CloudCover,
		UVIndex:       day.UVIndex,
		Precipitation: precip,
	}
	return Overall(Factors(current, cfg), cfg.Weights)
}

// BestWindow returns the longest run of consecutive workable hours, earliest
// first on ties. With no workable hours the window is unavailable and collapses
// to dayStart.
func BestWindow(hours []weather.HourlyForecastPoint, dayStart time.Time) weather.WorkWindow {
	best := weather.WorkWindow{Start: dayStart, End: dayStart}
	runStart, runLen := -1, 0

	for i, h := range hours {
		contiguous := i > 0 && runStart >= 0 && h.Time.Sub(hours[i-1].Time) == time.Hour
		switch {
		case !h.Workable:
			runStart, runLen = -1, 0
			continue
		case contiguous:
			runLen++
		default:
			runStart, runLen = i, 1
		}
		if runLen > best.Hours {
			best = weather.WorkWindow{
				Start:     hours[runStart].Time,
				End:       h.Time.Add(time.Hour),
				Hours:     runLen,
				Available: true,
			}
		}
	}
	return best
}
