package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// GeneratedResult is a piece of content produced by a provider and saved to a project
type GeneratedResult struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	ProjectID uuid.UUID       `json:"project_id" db:"project_id"`
	AgentID   string          `json:"agent_id,omitempty" db:"agent_id"`
	UserID    string          `json:"user_id" db:"user_id"`
	Content   string          `json:"content" db:"content"`
	Provider  string          `json:"provider" db:"provider"`
	Inputs    json.RawMessage `json:"inputs,omitempty" db:"inputs"` // JSONB: the request that produced the content
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the GeneratedResult model
func (GeneratedResult) TableName() string {
	return "generated_results"
}

// NewGeneratedResult creates a new GeneratedResult
func NewGeneratedResult(projectID uuid.UUID, agentID, userID, content, provider string, inputs json.RawMessage) *GeneratedResult {
	return &GeneratedResult{
		ID:        uuid.New(),
		ProjectID: projectID,
		AgentID:   agentID,
		UserID:    userID,
		Content:   content,
		Provider:  provider,
		Inputs:    inputs,
		CreatedAt: time.Now().UTC(),
	}
}
