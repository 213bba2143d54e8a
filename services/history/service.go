// Package history stores generated content per project so users can revisit it.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/upb/llm-content-gateway/models"
	"github.com/upb/llm-content-gateway/repositories"
	"github.com/upb/llm-content-gateway/services"
	"go.uber.org/zap"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// SaveRequest describes a result to persist
type SaveRequest struct {
	ProjectID uuid.UUID
	AgentID   string
	UserID    string
	Content   string
	Provider  string
	Inputs    any
}

// Page is a slice of results plus the project total
type Page struct {
	Results []*models.GeneratedResult `json:"results"`
	Total   int64                     `json:"total"`
	Limit   int                       `json:"limit"`
	Offset  int                       `json:"offset"`
}

// Service saves and lists generated results
type Service struct {
	projects repositories.ProjectRepository
	results  repositories.GeneratedResultRepository
	txMgr    repositories.TransactionManager
	logger   *zap.Logger
}

// NewService creates a new history service
func NewService(repos *repositories.Repositories, txMgr repositories.TransactionManager, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		projects: repos.Projects,
		results:  repos.GeneratedResults,
		txMgr:    txMgr,
		logger:   logger,
	}
}

// CreateProject creates a project owned by userID
func (s *Service) CreateProject(ctx context.Context, userID, name string) (*models.Project, error) {
	if userID == "" {
		return nil, services.ErrUnauthorized
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, services.ErrInvalidInput.WithDetail("name", "name is required")
	}

	project := models.NewProject(userID, name)
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, services.WrapInternal("failed to create project", err)
	}

	s.logger.Info("project created",
		zap.String("project_id", project.ID.String()),
		zap.String("user_id", userID))
	return project, nil
}

// ListProjects returns the caller's projects, newest first
func (s *Service) ListProjects(ctx context.Context, userID string, limit, offset int) ([]*models.Project, error) {
	if userID == "" {
		return nil, services.ErrUnauthorized
	}
	limit, offset = normalizePage(limit, offset)

	projects, err := s.projects.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, services.WrapInternal("failed to list projects", err)
	}
	return projects, nil
}

// SaveResult verifies the caller owns the project and inserts the result in
// one transaction.
func (s *Service) SaveResult(ctx context.Context, req SaveRequest) (*models.GeneratedResult, error) {
	if req.UserID == "" {
		return nil, services.ErrUnauthorized
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, services.ErrInvalidInput.WithDetail("content", "content is required")
	}

	var inputs json.RawMessage
	if req.Inputs != nil {
		raw, err := json.Marshal(req.Inputs)
		if err != nil {
			return nil, services.WrapError(services.ErrorTypeValidation, "inputs are not serializable", err)
		}
		inputs = raw
	}

	result := models.NewGeneratedResult(req.ProjectID, req.AgentID, req.UserID, req.Content, req.Provider, inputs)

	err := services.WithTransaction(ctx, s.txMgr, func(ctx context.Context, _ repositories.Transaction) error {
		if _, err := s.ownedProject(ctx, req.ProjectID, req.UserID); err != nil {
			return err
		}
		if err := s.results.Create(ctx, result); err != nil {
			return services.WrapInternal("failed to save generated result", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("generated result saved",
		zap.String("result_id", result.ID.String()),
		zap.String("project_id", req.ProjectID.String()),
		zap.String("provider", req.Provider))
	return result, nil
}

// ListResults pages through a project's results, newest first
func (s *Service) ListResults(ctx context.Context, userID string, projectID uuid.UUID, limit, offset int) (*Page, error) {
	if userID == "" {
		return nil, services.ErrUnauthorized
	}
	limit, offset = normalizePage(limit, offset)

	if _, err := s.ownedProject(ctx, projectID, userID); err != nil {
		return nil, err
	}

	results, err := s.results.ListByProject(ctx, projectID, limit, offset)
	if err != nil {
		return nil, services.WrapInternal("failed to list generated results", err)
	}
	total, err := s.results.CountByProject(ctx, projectID)
	if err != nil {
		return nil, services.WrapInternal("failed to count generated results", err)
	}

	return &Page{Results: results, Total: total, Limit: limit, Offset: offset}, nil
}

func (s *Service) ownedProject(ctx context.Context, projectID uuid.UUID, userID string) (*models.Project, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrProjectNotFound.WithDetail("project_id", projectID.String())
		}
		return nil, services.WrapInternal("failed to load project", err)
	}
	if !project.OwnedBy(userID) {
		s.logger.Warn("project access denied",
			zap.String("project_id", projectID.String()),
			zap.String("user_id", userID))
		return nil, services.ErrProjectAccessDenied
	}
	return project, nil
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
