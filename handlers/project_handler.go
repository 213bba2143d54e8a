package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/upb/llm-content-gateway/middleware"
	"github.com/upb/llm-content-gateway/models"
	"github.com/upb/llm-content-gateway/services"
	"github.com/upb/llm-content-gateway/services/history"
	"github.com/upb/llm-content-gateway/utils"
	"go.uber.org/zap"
)

// HistoryService defines project and result history operations
type HistoryService interface {
	CreateProject(ctx context.Context, userID, name string) (*models.Project, error)
	ListProjects(ctx context.Context, userID string, limit, offset int) ([]*models.Project, error)
	ListResults(ctx context.Context, userID string, projectID uuid.UUID, limit, offset int) (*history.Page, error)
}

// CreateProjectRequest is the body of POST /api/v1/projects
type CreateProjectRequest struct {
	Name string `json:"name" validate:"notblank,max=200"`
}

// ProjectHandler serves project and history endpoints
type ProjectHandler struct {
	service HistoryService
	logger  *zap.Logger
}

// NewProjectHandler creates a new ProjectHandler. A nil service answers 503.
func NewProjectHandler(service HistoryService, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{
		service: service,
		logger:  logger,
	}
}

// HandleCreate handles POST /api/v1/projects
func (h *ProjectHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if !h.enabled(w) {
		return
	}

	var req CreateProjectRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", map[string]interface{}{"body": err.Error()})
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	project, err := h.service.CreateProject(r.Context(), middleware.GetUserIDFromContext(r.Context()), req.Name)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteCreated(w, project)
}

// HandleList handles GET /api/v1/projects
func (h *ProjectHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if !h.enabled(w) {
		return
	}

	limit, offset, err := pagination(r)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	projects, err := h.service.ListProjects(r.Context(), middleware.GetUserIDFromContext(r.Context()), limit, offset)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, map[string]interface{}{"projects": projects})
}

// HandleListResults handles GET /api/v1/projects/{id}/results
func (h *ProjectHandler) HandleListResults(w http.ResponseWriter, r *http.Request) {
	if !h.enabled(w) {
		return
	}

	projectID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		HandleServiceError(w, services.ErrInvalidInput.WithDetail("id", "must be a valid UUID"), h.logger)
		return
	}
	limit, offset, err := pagination(r)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	page, err := h.service.ListResults(r.Context(), middleware.GetUserIDFromContext(r.Context()), projectID, limit, offset)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, page)
}

func (h *ProjectHandler) enabled(w http.ResponseWriter) bool {
	if h.service == nil {
		HandleServiceError(w, services.ErrPersistenceDisabled, h.logger)
		return false
	}
	return true
}

// pagination reads limit and offset; absent values are zero and the service
// applies its defaults.
func pagination(r *http.Request) (int, int, error) {
	q := r.URL.Query()
	var limit, offset int
	var err error
	if v := q.Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil {
			return 0, 0, services.ErrInvalidInput.WithDetail("limit", "must be an integer")
		}
	}
	if v := q.Get("offset"); v != "" {
		if offset, err = strconv.Atoi(v); err != nil {
			return 0, 0, services.ErrInvalidInput.WithDetail("offset", "must be an integer")
		}
	}
	return limit, offset, nil
}
