package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/pavecast/pavecast/internal/api/models"
	"github.com/pavecast/pavecast/internal/api/response"
	"github.com/pavecast/pavecast/internal/provider/resilience"
)

// readyTimeout bounds dependency checks made by the readiness probe.
const readyTimeout = 2 * time.Second

// OpsService is the engine surface used by OpsHandler.
type OpsService interface {
	Ready(ctx context.Context) error
	ProviderHealth() []*resilience.ProviderHealth
	CacheSize(ctx context.Context) int
	InvalidateCache(ctx context.Context)
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	service      OpsService
	version      string
	buildTime    string
	cacheBackend string
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(service OpsService, version, buildTime, cacheBackend string) *OpsHandler {
	return &OpsHandler{
		service:      service,
		version:      version,
		buildTime:    buildTime,
		cacheBackend: cacheBackend,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]any{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := h.service.Ready(ctx); err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("readiness check failed")
		response.JSON(w, r, http.StatusServiceUnavailable, models.Health{
			Status:  models.HealthStatusFail,
			Time:    models.Timestamp(time.Now()),
			Details: map[string]any{"error": err.Error()},
		})
		return
	}

	response.JSON(w, r, http.StatusOK, models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
	})
}

// SystemStatus handles GET /v1/ops/status - cache and provider status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	cacheStatus := models.CacheStatus{
		Backend: h.cacheBackend,
		Status:  models.HealthStatusOK,
	}
	if err := h.service.Ready(ctx); err != nil {
		detail := err.Error()
		cacheStatus.Status = models.HealthStatusFail
		cacheStatus.Detail = &detail
	} else {
		cacheStatus.Entries = h.service.CacheSize(ctx)
	}

	overall := models.HealthStatusOK
	if cacheStatus.Status != models.HealthStatusOK {
		overall = models.HealthStatusDegraded
	}

	health := h.service.ProviderHealth()
	providers := make([]models.ProviderStatus, 0, len(health))
	for _, ph := range health {
		ps := providerStatus(ph)
		if ps.Status != models.HealthStatusOK {
			overall = models.HealthStatusDegraded
		}
		providers = append(providers, ps)
	}

	response.JSON(w, r, http.StatusOK, models.SystemStatus{
		Status:    overall,
		Time:      models.Timestamp(time.Now()),
		Cache:     cacheStatus,
		Providers: providers,
	})
}

// InvalidateCache handles POST /v1/ops/cache:invalidate.
func (h *OpsHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	removed := h.service.CacheSize(r.Context())
	h.service.InvalidateCache(r.Context())

	zerolog.Ctx(r.Context()).Info().Int("removed", removed).Msg("cache invalidated via ops endpoint")
	response.JSON(w, r, http.StatusOK, models.CacheInvalidation{
		Removed: removed,
		Time:    models.Timestamp(time.Now()),
	})
}

func providerStatus(ph *resilience.ProviderHealth) models.ProviderStatus {
	ps := models.ProviderStatus{
		Provider:            ph.Name,
		CircuitState:        ph.CircuitState.String(),
		ConsecutiveFailures: ph.ConsecutiveFailures,
		LastSuccessAt:       models.TimestampPtr(ph.LastSuccessAt),
		LastFailureAt:       models.TimestampPtr(ph.LastFailureAt),
	}

	switch ph.Status() {
	case resilience.StatusUnhealthy:
		ps.Status = models.HealthStatusFail
	case resilience.StatusDegraded:
		ps.Status = models.HealthStatusDegraded
	default:
		ps.Status = models.HealthStatusOK
	}
	if ph.LastError != "" {
		msg := ph.LastError
		ps.Message = &msg
	}
	return ps
}
