package projects

import (
	"time"

	"github.com/google/uuid"

	pkgerrors "notelink-backend/pkg/errors"
)

// Project is a named grouping of blocks owned by a user. Blocks may
// optionally belong to one project; the core treats membership as a search
// filter.
type Project struct {
	ID          string
	OwnerID     string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewProject creates a project with validated fields
func NewProject(ownerID, name, description string) (*Project, error) {
	if ownerID == "" {
		return nil, pkgerrors.NewValidationError("ownerID cannot be empty")
	}
	if name == "" {
		return nil, pkgerrors.NewValidationError("name cannot be empty")
	}

	now := time.Now().UTC()
	return &Project{
		ID:          uuid.New().String(),
		OwnerID:     ownerID,
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}
