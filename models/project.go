package models

import (
	"time"

	"github.com/google/uuid"
)

// Project groups generated results for one user
type Project struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the Project model
func (Project) TableName() string {
	return "projects"
}

// NewProject creates a new Project owned by userID
func NewProject(userID, name string) *Project {
	return &Project{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
}

// OwnedBy reports whether userID owns the project
func (p *Project) OwnedBy(userID string) bool {
	return userID != "" && p.UserID == userID
}
