package neo4j

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"notelink-backend/application/ports"
	"notelink-backend/domain/projects"
	pkgerrors "notelink-backend/pkg/errors"
)

// ProjectRepository persists projects in the graph store.
type ProjectRepository struct {
	graph  *Graph
	logger *zap.Logger
}

// NewProjectRepository creates a project repository.
func NewProjectRepository(graph *Graph, logger *zap.Logger) *ProjectRepository {
	return &ProjectRepository{graph: graph, logger: logger}
}

var _ ports.ProjectRepository = (*ProjectRepository)(nil)

// Create persists a project and its ownership edge.
func (r *ProjectRepository) Create(ctx context.Context, project *projects.Project) error {
	query := `
		MERGE (u:User {id: $ownerId})
		MERGE (p:Project {id: $id, ownerId: $ownerId})
		SET p.name = $name, p.description = $description,
			p.createdAt = $createdAt, p.updatedAt = $updatedAt
		MERGE (u)-[:OWNS]->(p)`

	_, err := r.graph.ExecuteWrite(ctx, "create project", func(ctx context.Context, tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, query, map[string]any{
			"id":          project.ID,
			"ownerId":     project.OwnerID,
			"name":        project.Name,
			"description": project.Description,
			"createdAt":   timestampParam(project.CreatedAt),
			"updatedAt":   timestampParam(project.UpdatedAt),
		})
		return nil, err
	})
	return err
}

// GetByID retrieves a project scoped to its owner.
func (r *ProjectRepository) GetByID(ctx context.Context, ownerID, projectID string) (*projects.Project, error) {
	query := `
		MATCH (:User {id: $ownerId})-[:OWNS]->(p:Project {id: $projectId})
		RETURN p{.*} AS project`

	result, err := r.graph.ExecuteRead(ctx, "get project", func(ctx context.Context, tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]any{"ownerId": ownerID, "projectId": projectID})
		if err != nil {
			return nil, err
		}
		if !res.Next(ctx) {
			return nil, pkgerrors.NewNotFoundError("project")
		}
		props, _ := res.Record().Get("project")
		m, ok := props.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("unexpected project projection %T", props)
		}
		return projectFromProps(m), nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*projects.Project), nil
}

// List returns the owner's projects, newest first.
func (r *ProjectRepository) List(ctx context.Context, ownerID string) ([]*projects.Project, error) {
	query := `
		MATCH (:User {id: $ownerId})-[:OWNS]->(p:Project)
		RETURN p{.*} AS project
		ORDER BY p.createdAt DESC`

	result, err := r.graph.ExecuteRead(ctx, "list projects", func(ctx context.Context, tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]any{"ownerId": ownerID})
		if err != nil {
			return nil, err
		}

		var out []*projects.Project
		for res.Next(ctx) {
			props, _ := res.Record().Get("project")
			if m, ok := props.(map[string]any); ok {
				out = append(out, projectFromProps(m))
			}
		}
		return out, res.Err()
	})
	if err != nil {
		return nil, err
	}
	return result.([]*projects.Project), nil
}

// Update overwrites a project's name and description.
func (r *ProjectRepository) Update(ctx context.Context, project *projects.Project) error {
	query := `
		MATCH (:User {id: $ownerId})-[:OWNS]->(p:Project {id: $id})
		SET p.name = $name, p.description = $description, p.updatedAt = $updatedAt
		RETURN p.id AS id`

	_, err := r.graph.ExecuteWrite(ctx, "update project", func(ctx context.Context, tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]any{
			"id":          project.ID,
			"ownerId":     project.OwnerID,
			"name":        project.Name,
			"description": project.Description,
			"updatedAt":   timestampParam(project.UpdatedAt),
		})
		if err != nil {
			return nil, err
		}
		if !res.Next(ctx) {
			return nil, pkgerrors.NewNotFoundError("project")
		}
		return nil, res.Err()
	})
	return err
}

// Delete removes a project. Member blocks survive: their BELONGS_TO edges
// go with the project node, and their projectId property is cleared.
func (r *ProjectRepository) Delete(ctx context.Context, ownerID, projectID string) error {
	query := `
		MATCH (:User {id: $ownerId})-[:OWNS]->(p:Project {id: $projectId})
		OPTIONAL MATCH (member:Block)-[:BELONGS_TO]->(p)
		SET member.projectId = ''
		DETACH DELETE p
		RETURN 1 AS deleted`

	_, err := r.graph.ExecuteWrite(ctx, "delete project", func(ctx context.Context, tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]any{"ownerId": ownerID, "projectId": projectID})
		if err != nil {
			return nil, err
		}
		if !res.Next(ctx) {
			return nil, pkgerrors.NewNotFoundError("project")
		}
		return nil, res.Err()
	})
	return err
}
