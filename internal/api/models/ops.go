package models

// Health represents the liveness or readiness of the service.
type Health struct {
	Status  HealthStatus   `json:"status"`
	Time    Timestamp      `json:"time"`
	Details map[string]any `json:"details,omitempty"`
}

// SystemStatus represents cache and upstream provider status.
type SystemStatus struct {
	Status    HealthStatus     `json:"status"`
	Time      Timestamp        `json:"time"`
	Cache     CacheStatus      `json:"cache"`
	Providers []ProviderStatus `json:"providers"`
}

// CacheStatus describes the response cache.
type CacheStatus struct {
	Backend string       `json:"backend"`
	Entries int          `json:"entries"`
	Status  HealthStatus `json:"status"`
	Detail  *string      `json:"detail,omitempty"`
}

// ProviderStatus represents the status of an upstream weather provider.
type ProviderStatus struct {
	Provider            string       `json:"provider"`
	Status              HealthStatus `json:"status"`
	CircuitState        string       `json:"circuitState"`
	ConsecutiveFailures int          `json:"consecutiveFailures"`
	LastSuccessAt       *Timestamp   `json:"lastSuccessAt,omitempty"`
	LastFailureAt       *Timestamp   `json:"lastFailureAt,omitempty"`
	Message             *string      `json:"message,omitempty"`
}

// CacheInvalidation is returned after the cache is cleared.
type CacheInvalidation struct {
	Removed int       `json:"removed"`
	Time    Timestamp `json:"time"`
}
