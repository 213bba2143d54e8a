package handlers

import (
	"net/http"

	"github.com/upb/llm-content-gateway/utils"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

// MetricsHandler serves a JSON snapshot of the collected metrics
type MetricsHandler struct {
	reader sdkmetric.Reader
	logger *zap.Logger
}

// NewMetricsHandler creates a new MetricsHandler
func NewMetricsHandler(reader sdkmetric.Reader, logger *zap.Logger) *MetricsHandler {
	return &MetricsHandler{reader: reader, logger: logger}
}

// HandleMetrics handles GET /metrics
func (h *MetricsHandler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	var rm metricdata.ResourceMetrics
	if err := h.reader.Collect(r.Context(), &rm); err != nil {
		h.logger.Error("failed to collect metrics", zap.Error(err))
		_ = utils.WriteInternalServerError(w, "failed to collect metrics")
		return
	}
	_ = utils.WriteOK(w, rm.ScopeMetrics)
}
