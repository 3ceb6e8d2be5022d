package api_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavecast/pavecast/internal/api"
	"github.com/pavecast/pavecast/internal/api/models"
	"github.com/pavecast/pavecast/internal/engine"
	"github.com/pavecast/pavecast/internal/provider/resilience"
	"github.com/pavecast/pavecast/internal/weather/synthetic"
	"github.com/pavecast/pavecast/internal/workability"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	now := func() time.Time { return time.Date(2026, 10, 14, 15, 0, 0, 0, time.UTC) }
	registry := resilience.NewRegistry()
	clientCfg := resilience.DefaultClientConfig("openweathermap")
	registry.Register("openweathermap", resilience.NewClient(clientCfg))

	svc, err := engine.NewService(engine.ServiceConfig{
		Provider: synthetic.NewProvider(synthetic.Config{Now: now}),
		Registry: registry,
		Now:      now,
		Logger:   zerolog.Nop(),
	})
	require.NoError(t, err)

	return api.NewRouter(api.RouterConfig{
		Version:      "test",
		BuildTime:    "2026-01-01T00:00:00Z",
		Logger:       zerolog.New(io.Discard),
		CacheBackend: "memory",
		Service:      svc,
	})
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRouter_HealthCheck(t *testing.T) {
	router := newTestRouter(t)

	w := serve(router, httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	var health models.Health
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, models.HealthStatusOK, health.Status)
	assert.Equal(t, "test", health.Details["version"])
}

func TestRouter_ReadinessCheck(t *testing.T) {
	router := newTestRouter(t)

	w := serve(router, httptest.NewRequest(http.MethodGet, "/v1/ops/ready", http.NoBody))

	assert.Equal(t, http.StatusOK, w.Code)
	var health models.Health
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, models.HealthStatusOK, health.Status)
}

func TestRouter_SystemStatus(t *testing.T) {
	router := newTestRouter(t)

	w := serve(router, httptest.NewRequest(http.MethodGet, "/v1/ops/status", http.NoBody))

	assert.Equal(t, http.StatusOK, w.Code)
	var status models.SystemStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))

	assert.Equal(t, models.HealthStatusOK, status.Status)
	assert.Equal(t, "memory", status.Cache.Backend)
	require.Len(t, status.Providers, 1)
	assert.Equal(t, "openweathermap", status.Providers[0].Provider)
	assert.Equal(t, "closed", status.Providers[0].CircuitState)
}

func TestRouter_CurrentConditions(t *testing.T) {
	router := newTestRouter(t)

	w := serve(router, httptest.NewRequest(http.MethodGet, "/v1/weather/current?lat=40.7&lng=-74.0", http.NoBody))

	require.Equal(t, http.StatusOK, w.Code)
	var data engine.WeatherData
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &data))
	assert.InDelta(t, 40.7, data.Location.Lat, 1e-9)
	assert.GreaterOrEqual(t, data.Workability.Overall, 0)
	assert.LessOrEqual(t, data.Workability.Overall, 100)
}

func TestRouter_Forecast(t *testing.T) {
	router := newTestRouter(t)

	w := serve(router, httptest.NewRequest(http.MethodGet, "/v1/weather/forecast?lat=40.7&lng=-74.0&days=3", http.NoBody))

	require.Equal(t, http.StatusOK, w.Code)
	var forecast engine.WeatherForecast
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &forecast))
	assert.Equal(t, 3, forecast.Days)
	assert.Len(t, forecast.Daily, 3)
}

func TestRouter_ForecastValidationError(t *testing.T) {
	router := newTestRouter(t)

	w := serve(router, httptest.NewRequest(http.MethodGet, "/v1/weather/forecast?lat=100&lng=0", http.NoBody))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))

	var problem models.Problem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
	assert.Equal(t, models.ProblemTypeValidation, problem.Type)
	assert.NotEmpty(t, problem.TraceID)
}

func TestRouter_Alerts(t *testing.T) {
	router := newTestRouter(t)

	w := serve(router, httptest.NewRequest(http.MethodGet, "/v1/weather/alerts?lat=40.7&lng=-74.0", http.NoBody))

	require.Equal(t, http.StatusOK, w.Code)
	var body models.AlertsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Empty(t, body.Alerts)
}

func TestRouter_SiteReport(t *testing.T) {
	router := newTestRouter(t)

	w := serve(router, httptest.NewRequest(http.MethodGet, "/v1/sites/report?lat=40.7&lng=-74.0&days=2", http.NoBody))

	require.Equal(t, http.StatusOK, w.Code)
	var report engine.SiteReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	require.NotNil(t, report.Current)
	require.NotNil(t, report.Forecast)
	assert.Len(t, report.Forecast.Daily, 2)
	assert.False(t, report.StopWork)
}

func TestRouter_ScoreWorkability(t *testing.T) {
	router := newTestRouter(t)

	body := `{"current":{"temperature":40,"humidity":50,"windSpeed":5,"visibility":10}}`
	req := httptest.NewRequest(http.MethodPost, "/v1/workability:score", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := serve(router, req)

	require.Equal(t, http.StatusOK, w.Code)
	var idx workability.Index
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &idx))
	assert.Less(t, idx.Overall, 100)
	assert.NotEmpty(t, idx.Factors)
}

func TestRouter_ScoreWorkability_WrongContentType(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/workability:score", strings.NewReader("temperature=40"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := serve(router, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestRouter_CacheInvalidate(t *testing.T) {
	router := newTestRouter(t)

	w := serve(router, httptest.NewRequest(http.MethodGet, "/v1/weather/current?lat=40.7&lng=-74.0", http.NoBody))
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(router, httptest.NewRequest(http.MethodPost, "/v1/ops/cache:invalidate", http.NoBody))
	require.Equal(t, http.StatusOK, w.Code)

	var result models.CacheInvalidation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 1, result.Removed)

	w = serve(router, httptest.NewRequest(http.MethodGet, "/v1/ops/status", http.NoBody))
	var status models.SystemStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, 0, status.Cache.Entries)
}

func TestRouter_NotFound(t *testing.T) {
	router := newTestRouter(t)

	w := serve(router, httptest.NewRequest(http.MethodGet, "/v1/nope", http.NoBody))

	assert.Equal(t, http.StatusNotFound, w.Code)
	var problem models.Problem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
	assert.Equal(t, models.ProblemTypeNotFound, problem.Type)
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	router := newTestRouter(t)

	w := serve(router, httptest.NewRequest(http.MethodDelete, "/v1/weather/current", http.NoBody))

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	var problem models.Problem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
	assert.Equal(t, models.ProblemTypeMethodNotAllowed, problem.Type)
}
