package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/upb/llm-content-gateway/models"
	"github.com/upb/llm-content-gateway/repositories"
	"go.uber.org/zap"
)

// GeneratedResultRepository implements repositories.GeneratedResultRepository
type GeneratedResultRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewGeneratedResultRepository creates a new generated result repository
func NewGeneratedResultRepository(db *DB, logger *zap.Logger) repositories.GeneratedResultRepository {
	return &GeneratedResultRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a generated result
func (r *GeneratedResultRepository) Create(ctx context.Context, result *models.GeneratedResult) error {
	query := `
		INSERT INTO generated_results (id, project_id, agent_id, user_id, content, provider, inputs, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	// A nil RawMessage must reach the driver as NULL, not as an empty byte slice.
	var inputs interface{}
	if len(result.Inputs) > 0 {
		inputs = []byte(result.Inputs)
	}

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		result.ID,
		result.ProjectID,
		result.AgentID,
		result.UserID,
		result.Content,
		result.Provider,
		inputs,
		result.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create generated result: %w", err)
	}

	r.logger.Debug("generated result saved",
		zap.String("id", result.ID.String()),
		zap.String("project_id", result.ProjectID.String()),
		zap.String("provider", result.Provider))
	return nil
}

// ListByProject retrieves a project's results, newest first
func (r *GeneratedResultRepository) ListByProject(ctx context.Context, projectID uuid.UUID, limit, offset int) ([]*models.GeneratedResult, error) {
	query := `
		SELECT id, project_id, COALESCE(agent_id, ''), user_id, content, provider, inputs, created_at
		FROM generated_results
		WHERE project_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, projectID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list generated results: %w", err)
	}
	defer rows.Close()

	results := make([]*models.GeneratedResult, 0)
	for rows.Next() {
		result := &models.GeneratedResult{}
		var inputs []byte
		err := rows.Scan(
			&result.ID,
			&result.ProjectID,
			&result.AgentID,
			&result.UserID,
			&result.Content,
			&result.Provider,
			&inputs,
			&result.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan generated result: %w", err)
		}
		if len(inputs) > 0 {
			result.Inputs = inputs
		}
		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating generated results: %w", err)
	}

	return results, nil
}

// CountByProject counts a project's results
func (r *GeneratedResultRepository) CountByProject(ctx context.Context, projectID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM generated_results WHERE project_id = $1`

	var count int64
	executor := GetExecutor(ctx, r.db)
	if err := executor.QueryRowContext(ctx, query, projectID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count generated results: %w", err)
	}
	return count, nil
}
