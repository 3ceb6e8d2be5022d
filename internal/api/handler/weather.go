package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/pavecast/pavecast/internal/api/models"
	"github.com/pavecast/pavecast/internal/api/response"
	"github.com/pavecast/pavecast/internal/engine"
	"github.com/pavecast/pavecast/internal/weather"
	"github.com/pavecast/pavecast/internal/workability"
)

// maxScoreBody bounds POST /v1/workability:score bodies.
const maxScoreBody = 64 << 10

// WeatherService is the engine surface used by WeatherHandler.
type WeatherService interface {
	GetCurrentConditions(ctx context.Context, lat, lng float64) (*engine.WeatherData, error)
	GetWeatherForecast(ctx context.Context, lat, lng float64, days int) (*engine.WeatherForecast, error)
	GetWeatherAlerts(ctx context.Context, lat, lng float64) ([]weather.WeatherAlert, error)
	GetWorkabilityIndex(current weather.CurrentConditions, cfg *workability.Configuration) workability.Index
	GetSiteReport(ctx context.Context, lat, lng float64, days int) (*engine.SiteReport, error)
}

// WeatherHandler handles weather, scoring and site report endpoints.
type WeatherHandler struct {
	service WeatherService
}

// NewWeatherHandler creates a new WeatherHandler.
func NewWeatherHandler(service WeatherService) *WeatherHandler {
	return &WeatherHandler{service: service}
}

func locationQuery(r *http.Request) models.LocationQuery {
	q := r.URL.Query()
	return models.LocationQuery{Lat: q.Get("lat"), Lng: q.Get("lng")}
}

// forecastParams parses lat, lng and days, writing a 400 on failure.
func forecastParams(w http.ResponseWriter, r *http.Request) (lat, lng float64, days int, ok bool) {
	query := models.ForecastQuery{
		LocationQuery: locationQuery(r),
		Days:          r.URL.Query().Get("days"),
	}
	if errs := validateStruct(query); errs != nil {
		response.BadRequest(w, r, "invalid query parameters", errs)
		return 0, 0, 0, false
	}

	days, errs := parseDays(query.Days)
	if errs != nil {
		response.BadRequest(w, r, "invalid query parameters", errs)
		return 0, 0, 0, false
	}
	lat, lng = coordinates(query.LocationQuery)
	return lat, lng, days, true
}

// GetCurrent handles GET /v1/weather/current - current conditions and workability.
func (h *WeatherHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	lat, lng, errs := parseLocation(locationQuery(r))
	if errs != nil {
		response.BadRequest(w, r, "invalid query parameters", errs)
		return
	}

	data, err := h.service.GetCurrentConditions(r.Context(), lat, lng)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, data)
}

// GetForecast handles GET /v1/weather/forecast - scored multi-day forecast.
func (h *WeatherHandler) GetForecast(w http.ResponseWriter, r *http.Request) {
	lat, lng, days, ok := forecastParams(w, r)
	if !ok {
		return
	}

	forecast, err := h.service.GetWeatherForecast(r.Context(), lat, lng, days)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, forecast)
}

// GetAlerts handles GET /v1/weather/alerts - classified weather alerts.
func (h *WeatherHandler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	lat, lng, errs := parseLocation(locationQuery(r))
	if errs != nil {
		response.BadRequest(w, r, "invalid query parameters", errs)
		return
	}

	alerts, err := h.service.GetWeatherAlerts(r.Context(), lat, lng)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, models.AlertsResponse{
		Location: weather.Coordinate{Lat: lat, Lng: lng},
		Alerts:   alerts,
	})
}

// ScoreWorkability handles POST /v1/workability:score - score caller-supplied
// conditions without contacting any provider.
func (h *WeatherHandler) ScoreWorkability(w http.ResponseWriter, r *http.Request) {
	cfg := workability.DefaultConfiguration()
	input := models.ScoreRequest{Config: &cfg}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxScoreBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if errs := validateStruct(input); errs != nil {
		response.BadRequest(w, r, "invalid request body", errs)
		return
	}

	response.JSON(w, r, http.StatusOK, h.service.GetWorkabilityIndex(*input.Current, input.Config))
}

// GetSiteReport handles GET /v1/sites/report - current conditions, forecast and
// alerts for one site.
func (h *WeatherHandler) GetSiteReport(w http.ResponseWriter, r *http.Request) {
	lat, lng, days, ok := forecastParams(w, r)
	if !ok {
		return
	}

	report, err := h.service.GetSiteReport(r.Context(), lat, lng, days)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, report)
}

// writeServiceError maps engine errors onto problem responses. Upstream
// failures only escape the engine when the fallback also failed.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, weather.ErrInvalidCoordinates) {
		response.InvalidCoordinates(w, r, err.Error())
		return
	}

	log := zerolog.Ctx(r.Context())
	if unavailable(err) {
		log.Warn().Err(err).Str("path", r.URL.Path).Msg("weather data unavailable")
		response.ServiceUnavailable(w, r, "weather data is temporarily unavailable")
		return
	}

	log.Error().Err(err).Str("path", r.URL.Path).Msg("weather request failed")
	response.InternalError(w, r, "an unexpected error occurred")
}

func unavailable(err error) bool {
	return errors.Is(err, weather.ErrUpstreamTransport) ||
		errors.Is(err, weather.ErrUpstreamHTTP) ||
		errors.Is(err, weather.ErrMalformedResponse) ||
		errors.Is(err, context.DeadlineExceeded)
}
