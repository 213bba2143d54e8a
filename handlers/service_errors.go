package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/upb/llm-content-gateway/services"
	"github.com/upb/llm-content-gateway/services/content"
	"github.com/upb/llm-content-gateway/services/routing"
	"github.com/upb/llm-content-gateway/utils"
	"go.uber.org/zap"
)

// HandleServiceError maps domain errors to HTTP responses
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	message := publicMessage(err)
	details := services.GetErrorDetails(err)

	var status int
	switch {
	case utils.IsValidationError(err):
		HandleValidationError(w, err, logger)
		return
	case services.IsValidationError(err):
		status = http.StatusBadRequest
	case services.IsNotFoundError(err):
		status = http.StatusNotFound
	case services.IsUnauthorizedError(err):
		status = http.StatusUnauthorized
	case services.IsForbiddenError(err):
		status = http.StatusForbidden
	case services.IsConflictError(err):
		status = http.StatusConflict
	case services.IsExternalError(err):
		status = http.StatusBadGateway
		logger.Warn("upstream failure", zap.Error(err))
	case services.IsNotConfiguredError(err):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
		message = "Request timed out"
	case services.IsInternalError(err):
		logger.Error("internal server error", zap.Error(err))
		status = http.StatusInternalServerError
		message = "An internal error occurred"
	default:
		logger.Error("unhandled error type", zap.Error(err))
		status = http.StatusInternalServerError
		message = "An unexpected error occurred"
	}

	if err := utils.WriteError(w, status, message, details); err != nil {
		logger.Error("failed to write error response", zap.Int("status", status), zap.Error(err))
	}
}

// HandleValidationError handles validation errors from request parsing
func HandleValidationError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if utils.IsValidationError(err) {
		if err := utils.WriteBadRequest(w, "Validation failed", utils.FieldDetails(err)); err != nil {
			logger.Error("failed to write validation error response", zap.Error(err))
		}
		return
	}

	if err := utils.WriteBadRequest(w, err.Error(), nil); err != nil {
		logger.Error("failed to write validation error response", zap.Error(err))
	}
}

// generationError translates failover and facade errors into domain errors
// carrying the short user-facing sentence.
func generationError(err error) error {
	var allFailed *routing.AllProvidersFailedError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, content.ErrEmptyPrompt):
		return services.ErrEmptyPrompt
	case errors.Is(err, content.ErrUnknownAnalysisType):
		return services.ErrInvalidInput.WithDetail("type", "must be one of sentiment readability seo engagement")
	case errors.Is(err, routing.ErrNoProvidersConfigured):
		return services.NewDomainError(services.ErrorTypeNotConfigured, content.UserMessage(err), err)
	case errors.As(err, &allFailed):
		return services.NewDomainError(services.ErrorTypeExternal, content.UserMessage(err), err).
			WithDetail("providers_tried", len(allFailed.Attempts))
	default:
		return services.NewDomainError(services.ErrorTypeExternal, content.UserMessage(err), err)
	}
}

// publicMessage is the text a client may see: the domain message without
// the wrapped cause.
func publicMessage(err error) string {
	var domainErr *services.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return err.Error()
}
