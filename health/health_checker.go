// Package health provides health checking functionality for the pediatric dosing API.
package health

import (
	"math"
	"net/http"
	"time"

	"github.com/giygas/pediatric-dosing-api/interfaces"
)

// Compile-time check to ensure HealthCheckerImpl implements HealthChecker
var _ interfaces.HealthChecker = (*HealthCheckerImpl)(nil)

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	catalog        interfaces.CatalogStore
	reloadInterval time.Duration
}

// NewHealthChecker creates a new health checker with injected dependencies.
// Staleness thresholds are multiples of the catalog reload interval.
func NewHealthChecker(catalog interfaces.CatalogStore, reloadInterval time.Duration) interfaces.HealthChecker {
	return &HealthCheckerImpl{
		catalog:        catalog,
		reloadInterval: reloadInterval,
	}
}

// HealthCheck returns HTTP-specific health data
// Used by /health HTTP endpoint
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	medications := h.catalog.GetMedications()
	lastUpdate := h.catalog.GetLastUpdated()
	isUpdating := h.catalog.IsUpdating()

	catalogAge := time.Since(lastUpdate)

	enabled := 0
	for _, med := range medications {
		if med.Enabled {
			enabled++
		}
	}

	switch {
	case len(medications) == 0 || lastUpdate.IsZero():
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case h.reloadInterval > 0 && catalogAge > 6*h.reloadInterval:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	// Reloads failing, the previous catalog is still being served
	case h.reloadInterval > 0 && catalogAge > 3*h.reloadInterval:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	default:
		status = "healthy"
		httpStatus = http.StatusOK
	}

	data = map[string]any{
		"last_update":         lastUpdate.Format(time.RFC3339),
		"catalog_age_minutes": math.Round(catalogAge.Minutes()*10) / 10,
		"medications":         len(medications),
		"enabled_medications": enabled,
		"is_updating":         isUpdating,
	}

	if report := h.catalog.GetReport(); report != nil {
		data["rejected_medications"] = report.RejectedMedications
	}

	return status, data, httpStatus
}
