package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/upb/llm-content-gateway/models"
)

// ErrNotFound is returned when a lookup matches no row
var ErrNotFound = errors.New("record not found")

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes fn within a transaction. Repositories called with
	// the ctx passed to fn join the transaction.
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	Commit() error
	Rollback() error

	// Context returns the context carrying the transaction
	Context() context.Context
}

// ProjectRepository handles project data operations
type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error

	// GetByID returns ErrNotFound when no project has the given ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error)

	// ListByUser returns the user's projects, newest first
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*models.Project, error)
}

// GeneratedResultRepository handles generated content records
type GeneratedResultRepository interface {
	Create(ctx context.Context, result *models.GeneratedResult) error

	// ListByProject returns results ordered by created_at DESC
	ListByProject(ctx context.Context, projectID uuid.UUID, limit, offset int) ([]*models.GeneratedResult, error)

	CountByProject(ctx context.Context, projectID uuid.UUID) (int64, error)
}

// Repositories holds all repository instances
type Repositories struct {
	Projects         ProjectRepository
	GeneratedResults GeneratedResultRepository
}
