package handlers

import (
	"context"
	"net/http"

	"github.com/upb/llm-content-gateway/services/content"
	"github.com/upb/llm-content-gateway/utils"
	"go.uber.org/zap"
)

// ProviderStatusService reports provider configuration to operators
type ProviderStatusService interface {
	CheckProviderStatus(ctx context.Context) *content.ProviderStatus
	RecommendedAPIKeys() []content.APIKeyInfo
}

// StatusResponse is the body of GET /api/v1/status
type StatusResponse struct {
	Service     string   `json:"service"`
	Version     string   `json:"version"`
	Environment string   `json:"environment"`
	Providers   []string `json:"providers"`
}

// StatusHandler serves the public status endpoints
type StatusHandler struct {
	version     string
	environment string
	lister      ProviderLister
	service     ProviderStatusService
	logger      *zap.Logger
}

// NewStatusHandler creates a new StatusHandler
func NewStatusHandler(version, environment string, lister ProviderLister, service ProviderStatusService, logger *zap.Logger) *StatusHandler {
	return &StatusHandler{
		version:     version,
		environment: environment,
		lister:      lister,
		service:     service,
		logger:      logger,
	}
}

// HandleStatus handles GET /api/v1/status
func (h *StatusHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	available := h.lister.AvailableProviders()
	if available == nil {
		available = []string{}
	}
	_ = utils.WriteOK(w, StatusResponse{
		Service:     "content-api",
		Version:     h.version,
		Environment: h.environment,
		Providers:   available,
	})
}

// HandleProviderStatus handles GET /api/v1/providers/status.
// Every provider is probed, so this is slower than /api/v1/status.
func (h *StatusHandler) HandleProviderStatus(w http.ResponseWriter, r *http.Request) {
	status := h.service.CheckProviderStatus(r.Context())
	if err := utils.WriteOK(w, status); err != nil {
		h.logger.Error("failed to write provider status", zap.Error(err))
	}
}

// HandleAPIKeys handles GET /api/v1/providers/keys
func (h *StatusHandler) HandleAPIKeys(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteOK(w, map[string]interface{}{"providers": h.service.RecommendedAPIKeys()})
}
