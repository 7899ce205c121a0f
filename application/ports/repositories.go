package ports

import (
	"context"
	"time"

	"notelink-backend/domain/blocks"
	"notelink-backend/domain/projects"
)

// ListOptions controls what a block listing returns
type ListOptions struct {
	// IncludeEmbeddings keeps the embedding vectors on returned blocks.
	// Withheld by default as a bandwidth optimization, not a security control.
	IncludeEmbeddings bool

	// ProjectID restricts the listing to blocks belonging to one project.
	ProjectID string
}

// BlockRepository defines the interface for block persistence against the
// graph store. Implementations map query records to domain types at the
// adapter boundary; raw driver shapes never leak past it.
type BlockRepository interface {
	// Create persists a new block and its ownership edge in one write
	Create(ctx context.Context, block *blocks.Block) error

	// CreateMany persists a batch of blocks in a single write
	CreateMany(ctx context.Context, batch []*blocks.Block) error

	// GetByID retrieves a block scoped to its owner, embeddings included
	GetByID(ctx context.Context, ownerID, blockID string) (*blocks.Block, error)

	// List retrieves all blocks owned by a user, updatedAt descending
	List(ctx context.Context, ownerID string, opts ListOptions) ([]*blocks.Block, error)

	// Update overwrites a block's mutable fields
	Update(ctx context.Context, block *blocks.Block) error

	// Delete removes a block, its similarity edges, and attached telemetry
	Delete(ctx context.Context, ownerID, blockID string) error

	// UpsertSimilarityEdge merges the directed tiered edge from→to,
	// replacing any previous tier and score for that ordered pair
	UpsertSimilarityEdge(ctx context.Context, ownerID, fromID, toID string, tier blocks.Tier, similarity float64, checkedAt time.Time) error

	// RelatedBlocks returns tiered neighbors of a block in either
	// direction, similarity descending, capped at limit
	RelatedBlocks(ctx context.Context, ownerID, blockID string, limit int) ([]blocks.RecommendedBlock, error)
}

// TraceRepository persists best-effort telemetry nodes attached to blocks.
// Callers treat every write as fire-and-forget.
type TraceRepository interface {
	SaveTimeTrace(ctx context.Context, ownerID string, trace blocks.TimeTrace) error
	SaveContextTrace(ctx context.Context, ownerID string, trace blocks.ContextTrace) error

	// SaveActivityTrace appends the trace and bumps the block's running
	// edit counter
	SaveActivityTrace(ctx context.Context, ownerID string, trace blocks.ActivityTrace) error

	SaveFeedbackTrace(ctx context.Context, ownerID string, trace blocks.FeedbackTrace) error

	// LinkPreviousBlock records navigation order between two blocks
	LinkPreviousBlock(ctx context.Context, ownerID, blockID, previousBlockID string) error
}

// ProjectRepository defines the interface for project persistence
type ProjectRepository interface {
	Create(ctx context.Context, project *projects.Project) error
	GetByID(ctx context.Context, ownerID, projectID string) (*projects.Project, error)
	List(ctx context.Context, ownerID string) ([]*projects.Project, error)
	Update(ctx context.Context, project *projects.Project) error

	// Delete removes the project; member blocks survive with membership
	// detached
	Delete(ctx context.Context, ownerID, projectID string) error
}
