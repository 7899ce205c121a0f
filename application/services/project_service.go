package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"notelink-backend/application/ports"
	"notelink-backend/domain/projects"
	pkgerrors "notelink-backend/pkg/errors"
)

// ProjectService implements project CRUD. Projects are lightweight
// groupings; deleting one detaches member blocks instead of cascading.
type ProjectService struct {
	projectRepo ports.ProjectRepository
	logger      *zap.Logger
}

// NewProjectService creates a project service.
func NewProjectService(projectRepo ports.ProjectRepository, logger *zap.Logger) *ProjectService {
	return &ProjectService{projectRepo: projectRepo, logger: logger}
}

// Create persists a new project for the owner.
func (s *ProjectService) Create(ctx context.Context, ownerID, name, description string) (*projects.Project, error) {
	project, err := projects.NewProject(ownerID, name, description)
	if err != nil {
		return nil, err
	}
	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// Get retrieves a project scoped to its owner.
func (s *ProjectService) Get(ctx context.Context, ownerID, projectID string) (*projects.Project, error) {
	return s.projectRepo.GetByID(ctx, ownerID, projectID)
}

// List returns the owner's projects.
func (s *ProjectService) List(ctx context.Context, ownerID string) ([]*projects.Project, error) {
	return s.projectRepo.List(ctx, ownerID)
}

// Update renames or redescribes a project. Nil means "leave unchanged".
func (s *ProjectService) Update(ctx context.Context, ownerID, projectID string, name, description *string) (*projects.Project, error) {
	project, err := s.projectRepo.GetByID(ctx, ownerID, projectID)
	if err != nil {
		return nil, err
	}

	if name != nil {
		if *name == "" {
			return nil, pkgerrors.NewValidationError("name cannot be empty")
		}
		project.Name = *name
	}
	if description != nil {
		project.Description = *description
	}
	project.UpdatedAt = time.Now().UTC()

	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// Delete removes a project. Member blocks survive with their membership
// detached.
func (s *ProjectService) Delete(ctx context.Context, ownerID, projectID string) error {
	return s.projectRepo.Delete(ctx, ownerID, projectID)
}
