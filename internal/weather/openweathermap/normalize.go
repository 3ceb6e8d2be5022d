package openweathermap

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pavecast/pavecast/internal/weather"
)

const (
	metersPerMile = 1609.344
	mmPerInch     = 25.4

	// defaultVisibilityMiles is used when the provider omits visibility.
	defaultVisibilityMiles = 10.0
)

// alertNamespace derives stable alert IDs from sender, event and start.
var alertNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://api.openweathermap.org/alerts"))

// OpenWeatherMap response structures. Optional fields are pointers so a missing
// value can be told apart from zero.

type conditionEntry struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
}

type volume struct {
	OneHour   *float64 `json:"1h"`
	ThreeHour *float64 `json:"3h"`
}

type currentResponse struct {
	Coord struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coord"`
	Weather []conditionEntry `json:"weather"`
	Main    *struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Pressure  float64 `json:"pressure"`
		Humidity  float64 `json:"humidity"`
	} `json:"main"`
	Visibility *float64 `json:"visibility"`
	Wind       struct {
		Speed float64  `json:"speed"`
		Deg   float64  `json:"deg"`
		Gust  *float64 `json:"gust"`
	} `json:"wind"`
	Clouds struct {
		All float64 `json:"all"`
	} `json:"clouds"`
	Rain     *volume `json:"rain"`
	Snow     *volume `json:"snow"`
	Dt       int64   `json:"dt"`
	Timezone int     `json:"timezone"`
}

type hourlyEntry struct {
	Dt         int64            `json:"dt"`
	Temp       float64          `json:"temp"`
	FeelsLike  float64          `json:"feels_like"`
	Humidity   float64          `json:"humidity"`
	Clouds     float64          `json:"clouds"`
	Visibility *float64         `json:"visibility"`
	WindSpeed  float64          `json:"wind_speed"`
	WindDeg    float64          `json:"wind_deg"`
	WindGust   *float64         `json:"wind_gust"`
	Pop        float64          `json:"pop"`
	Rain       *volume          `json:"rain"`
	Snow       *volume          `json:"snow"`
	Weather    []conditionEntry `json:"weather"`
}

type dailyEntry struct {
	Dt   int64 `json:"dt"`
	Temp struct {
		Min float64 `json:"min"`
		Max float64 `json:"max"`
	} `json:"temp"`
	Humidity  float64          `json:"humidity"`
	WindSpeed float64          `json:"wind_speed"`
	WindGust  *float64         `json:"wind_gust"`
	Clouds    float64          `json:"clouds"`
	UVI       float64          `json:"uvi"`
	Pop       float64          `json:"pop"`
	Rain      float64          `json:"rain"` // mm over the day
	Snow      float64          `json:"snow"` // mm over the day
	Weather   []conditionEntry `json:"weather"`
}

type alertEntry struct {
	SenderName  string   `json:"sender_name"`
	Event       string   `json:"event"`
	Start       int64    `json:"start"`
	End         int64    `json:"end"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

type oneCallResponse struct {
	Lat            float64       `json:"lat"`
	Lon            float64       `json:"lon"`
	Timezone       string        `json:"timezone"`
	TimezoneOffset int           `json:"timezone_offset"`
	Hourly         []hourlyEntry `json:"hourly"`
	Daily          []dailyEntry  `json:"daily"`
	Alerts         []alertEntry  `json:"alerts"`
}

func metersToMiles(m float64) float64 { return m / metersPerMile }

func mmToInches(mm float64) float64 { return mm / mmPerInch }

func visibilityMiles(meters *float64) float64 {
	if meters == nil {
		return defaultVisibilityMiles
	}
	return metersToMiles(*meters)
}

func gustOrSpeed(gust *float64, speed float64) float64 {
	if gust == nil || *gust < speed {
		return speed
	}
	return *gust
}

// hourlyInches returns the hourly rate of a volume, in inches. A 3h total is
// spread evenly when no 1h value is present.
func (v *volume) hourlyInches() float64 {
	switch {
	case v == nil:
		return 0
	case v.OneHour != nil:
		return mmToInches(*v.OneHour)
	case v.ThreeHour != nil:
		return mmToInches(*v.ThreeHour / 3)
	default:
		return 0
	}
}

// precipitationKind picks the type from rain and snow amounts; both together is sleet.
func precipitationKind(rain, snow float64) weather.PrecipitationType {
	switch {
	case rain > 0 && snow > 0:
		return weather.PrecipSleet
	case snow > 0:
		return weather.PrecipSnow
	case rain > 0:
		return weather.PrecipRain
	default:
		return weather.PrecipNone
	}
}

func precipitation(rain, snow *volume, probability float64) weather.PrecipitationState {
	r, s := rain.hourlyInches(), snow.hourlyInches()
	return weather.NewPrecipitation(precipitationKind(r, s), r+s, probability)
}

func condition(entries []conditionEntry) (weather.Condition, string) {
	if len(entries) == 0 {
		return weather.ConditionUnknown, ""
	}
	return mapCondition(entries[0].Main), entries[0].Description
}

// mapCondition maps an OpenWeatherMap condition group to a domain condition.
func mapCondition(owmCondition string) weather.Condition {
	switch owmCondition {
	case "Clear":
		return weather.ConditionClear
	case "Clouds":
		return weather.ConditionClouds
	case "Rain":
		return weather.ConditionRain
	case "Drizzle":
		return weather.ConditionDrizzle
	case "Thunderstorm":
		return weather.ConditionThunderstorm
	case "Snow":
		return weather.ConditionSnow
	case "Mist":
		return weather.ConditionMist
	case "Fog":
		return weather.ConditionFog
	case "Haze", "Smoke", "Dust", "Sand", "Ash", "Squall", "Tornado":
		return weather.ConditionHaze
	default:
		return weather.ConditionUnknown
	}
}

func normalizeCurrent(resp *currentResponse, now time.Time) weather.CurrentConditions {
	cond, desc := condition(resp.Weather)

	observedAt := now
	if resp.Dt > 0 {
		observedAt = time.Unix(resp.Dt, 0).In(time.FixedZone("", resp.Timezone))
	}

	// Observations carry no probability; falling precipitation is certain.
	precip := precipitation(resp.Rain, resp.Snow, 0)
	if precip.Present() {
		precip.Probability = 1
	}

	return weather.CurrentConditions{
		Temperature:   resp.Main.Temp,
		FeelsLike:     resp.Main.FeelsLike,
		Humidity:      resp.Main.Humidity,
		Pressure:      resp.Main.Pressure,
		WindSpeed:     resp.Wind.Speed,
		WindDirection: resp.Wind.Deg,
		WindGust:      gustOrSpeed(resp.Wind.Gust, resp.Wind.Speed),
		Visibility:    visibilityMiles(resp.Visibility),
		CloudCover:    resp.Clouds.All,
		Condition:     cond,
		Description:   desc,
		Precipitation: precip,
		ObservedAt:    observedAt,
	}
}

func normalizeForecast(resp *oneCallResponse, lat, lng float64, now time.Time) *weather.Forecast {
	zone := time.FixedZone(resp.Timezone, resp.TimezoneOffset)

	forecast := &weather.Forecast{
		Location:  weather.Coordinate{Lat: lat, Lng: lng},
		Hourly:    make([]weather.HourlyForecastPoint, 0, len(resp.Hourly)),
		Daily:     make([]weather.DailyForecastSummary, 0, len(resp.Daily)),
		Alerts:    normalizeAlerts(resp.Alerts),
		FetchedAt: now,
	}

	for _, h := range resp.Hourly {
		cond, desc := condition(h.Weather)
		forecast.Hourly = append(forecast.Hourly, weather.HourlyForecastPoint{
			Time:          time.Unix(h.Dt, 0).In(zone),
			Temperature:   h.Temp,
			FeelsLike:     h.FeelsLike,
			Humidity:      h.Humidity,
			WindSpeed:     h.WindSpeed,
			WindDirection: h.WindDeg,
			WindGust:      gustOrSpeed(h.WindGust, h.WindSpeed),
			CloudCover:    h.Clouds,
			Condition:     cond,
			Description:   desc,
			Precipitation: precipitation(h.Rain, h.Snow, h.Pop),
		})
	}

	for _, d := range resp.Daily {
		forecast.Daily = append(forecast.Daily, normalizeDay(d, zone))
	}

	return forecast
}

// normalizeDay converts a daily entry. The day's precipitation state carries the
// mean hourly rate; DailyPrecip carries the total.
func normalizeDay(d dailyEntry, zone *time.Location) weather.DailyForecastSummary {
	cond, desc := condition(d.Weather)

	rain, snow := mmToInches(d.Rain), mmToInches(d.Snow)
	total := rain + snow

	local := time.Unix(d.Dt, 0).In(zone)
	y, m, day := local.Date()

	return weather.DailyForecastSummary{
		Date:          time.Date(y, m, day, 0, 0, 0, 0, zone),
		TempMin:       d.Temp.Min,
		TempMax:       d.Temp.Max,
		Humidity:      d.Humidity,
		WindSpeed:     d.WindSpeed,
		WindGust:      gustOrSpeed(d.WindGust, d.WindSpeed),
		CloudCover:    d.Clouds,
		UVIndex:       d.UVI,
		Condition:     cond,
		Description:   desc,
		Precipitation: weather.NewPrecipitation(precipitationKind(rain, snow), total/24, d.Pop),
		DailyPrecip:   total,
	}
}

// normalizeAlerts converts provider alerts. Classification is left to the caller.
func normalizeAlerts(entries []alertEntry) []weather.WeatherAlert {
	alerts := make([]weather.WeatherAlert, 0, len(entries))
	for _, a := range entries {
		start := time.Unix(a.Start, 0).UTC()
		var end time.Time
		if a.End > 0 {
			end = time.Unix(a.End, 0).UTC()
		}

		alerts = append(alerts, weather.WeatherAlert{
			ID:          uuid.NewSHA1(alertNamespace, []byte(a.SenderName+"|"+a.Event+"|"+start.Format(time.RFC3339))).String(),
			Sender:      a.SenderName,
			Event:       strings.TrimSpace(a.Event),
			Start:       start,
			End:         end,
			Description: strings.TrimSpace(a.Description),
			Tags:        a.Tags,
		})
	}
	return alerts
}
