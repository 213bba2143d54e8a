package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/upb/llm-content-gateway/utils"
	"go.uber.org/zap"
)

// DatabaseChecker reports database reachability
type DatabaseChecker interface {
	HealthCheck(ctx context.Context) error
}

// ProviderLister returns the names of providers holding a credential
type ProviderLister interface {
	AvailableProviders() []string
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
	Providers []string          `json:"providers,omitempty"`
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	db        DatabaseChecker
	providers ProviderLister
	logger    *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. db is nil when persistence is disabled.
func NewHealthHandler(db DatabaseChecker, providers ProviderLister, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:        db,
		providers: providers,
		logger:    logger,
	}
}

// HandleHealth handles GET /healthz
// Liveness only: 200 whenever the process can serve.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteOK(w, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleReadiness handles GET /readyz
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	ready := true

	switch {
	case h.db == nil:
		checks["database"] = "disabled"
	default:
		if err := h.db.HealthCheck(ctx); err != nil {
			h.logger.Warn("database health check failed", zap.Error(err))
			checks["database"] = "unhealthy"
			ready = false
		} else {
			checks["database"] = "healthy"
		}
	}

	available := h.providers.AvailableProviders()
	if len(available) == 0 {
		checks["providers"] = "none_configured"
		ready = false
	} else {
		checks["providers"] = "configured"
	}

	status, code := "ready", http.StatusOK
	if !ready {
		status, code = "not_ready", http.StatusServiceUnavailable
	}

	if err := utils.WriteJSON(w, code, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Providers: available,
	}); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}
