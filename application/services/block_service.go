package services

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"notelink-backend/application/ports"
	"notelink-backend/domain/blocks"
	pkgerrors "notelink-backend/pkg/errors"
	"notelink-backend/pkg/ratelimit"
)

// importBatchSize is how many blocks a bulk import writes per graph
// transaction.
const importBatchSize = 25

// Interaction carries request-scoped context that feeds telemetry. Both
// fields are optional.
type Interaction struct {
	Device   string
	Location string
}

// CreateBlockInput is the validated payload for creating a block.
type CreateBlockInput struct {
	Title     string
	Content   string
	Type      blocks.BlockType
	ProjectID string
}

// UpdateBlockInput carries the fields of a partial block update. Nil means
// "leave unchanged".
type UpdateBlockInput struct {
	Title     *string
	Content   *string
	Type      *blocks.BlockType
	ProjectID *string
}

// BlockService implements the block lifecycle: embed-before-write creation,
// merged-field updates with re-embedding, and bulk import. Every successful
// write schedules background linking and telemetry through the task runner;
// those never delay or fail the caller.
type BlockService struct {
	blockRepo         ports.BlockRepository
	embedder          ports.Embedder
	links             *LinkService
	tasks             ports.TaskRunner
	embedLimiter      *ratelimit.Limiter
	importConcurrency int
	logger            *zap.Logger
}

// NewBlockService creates a block service. embedLimiter paces calls to the
// embedding provider during bulk import; importConcurrency bounds the
// worker pool.
func NewBlockService(
	blockRepo ports.BlockRepository,
	embedder ports.Embedder,
	links *LinkService,
	tasks ports.TaskRunner,
	embedLimiter *ratelimit.Limiter,
	importConcurrency int,
	logger *zap.Logger,
) *BlockService {
	if importConcurrency <= 0 {
		importConcurrency = 4
	}
	return &BlockService{
		blockRepo:         blockRepo,
		embedder:          embedder,
		links:             links,
		tasks:             tasks,
		embedLimiter:      embedLimiter,
		importConcurrency: importConcurrency,
		logger:            logger,
	}
}

// refreshDerived regenerates the block's plain text and embedding vector
// from its current title and content. The two always change together.
func (s *BlockService) refreshDerived(ctx context.Context, block *blocks.Block) error {
	plain, err := blocks.PlainText(block.Content)
	if err != nil {
		// Unparseable content still gets stored; the title alone feeds
		// search and embedding.
		s.logger.Warn("block content is not parseable rich text",
			zap.String("blockId", block.ID),
			zap.Error(err),
		)
		plain = ""
	}
	block.PlainText = block.Title + " " + plain

	vector, err := s.embedder.Embed(ctx, block.PlainText)
	if err != nil {
		return err
	}
	block.Embeddings = vector
	return nil
}

// afterWrite schedules the background work a successful write fans out to.
func (s *BlockService) afterWrite(ownerID, blockID string, action blocks.TimeAction, interaction Interaction) {
	s.tasks.Go("trace-block-links", func(ctx context.Context) error {
		return s.links.TraceBlockLinks(ctx, ownerID, blockID)
	})
	s.tasks.Go("trace-time", func(ctx context.Context) error {
		return s.links.TraceTime(ctx, ownerID, blockID, action, interaction.Device)
	})
	if interaction.Device != "" || interaction.Location != "" {
		s.tasks.Go("trace-context", func(ctx context.Context) error {
			return s.links.TraceContext(ctx, ownerID, blockID, interaction.Device, interaction.Location)
		})
	}
}

// Create embeds and persists a new block. The embedding is computed before
// the write so a stored block always carries a vector matching its text; an
// embedding failure means nothing is persisted.
func (s *BlockService) Create(ctx context.Context, ownerID string, input CreateBlockInput, interaction Interaction) (*blocks.Block, error) {
	block, err := blocks.NewBlock(ownerID, input.Title, input.Content, input.Type)
	if err != nil {
		return nil, err
	}
	block.ProjectID = input.ProjectID

	if err := s.refreshDerived(ctx, block); err != nil {
		return nil, err
	}

	if err := s.blockRepo.Create(ctx, block); err != nil {
		return nil, err
	}

	s.afterWrite(ownerID, block.ID, blocks.ActionCreate, interaction)
	return block, nil
}

// Get retrieves a block and records the view in the background.
func (s *BlockService) Get(ctx context.Context, ownerID, blockID string, interaction Interaction) (*blocks.Block, error) {
	block, err := s.blockRepo.GetByID(ctx, ownerID, blockID)
	if err != nil {
		return nil, err
	}

	s.tasks.Go("trace-time", func(ctx context.Context) error {
		return s.links.TraceTime(ctx, ownerID, blockID, blocks.ActionView, interaction.Device)
	})
	if interaction.Device != "" || interaction.Location != "" {
		s.tasks.Go("trace-context", func(ctx context.Context) error {
			return s.links.TraceContext(ctx, ownerID, blockID, interaction.Device, interaction.Location)
		})
	}
	return block, nil
}

// List returns the owner's blocks, updatedAt descending.
func (s *BlockService) List(ctx context.Context, ownerID string, opts ports.ListOptions) ([]*blocks.Block, error) {
	return s.blockRepo.List(ctx, ownerID, opts)
}

// Update merges the provided fields into the stored block, regenerates its
// plain text and embedding, and persists the result. The re-embed happens
// even when only the title changed: derived state always reflects the
// merged fields.
func (s *BlockService) Update(ctx context.Context, ownerID, blockID string, input UpdateBlockInput, interaction Interaction) (*blocks.Block, error) {
	block, err := s.blockRepo.GetByID(ctx, ownerID, blockID)
	if err != nil {
		return nil, err
	}
	oldLength := len(block.PlainText)

	if input.Title != nil {
		block.Title = *input.Title
	}
	if input.Content != nil {
		if *input.Content == "" {
			return nil, pkgerrors.NewValidationError("content cannot be empty")
		}
		block.Content = *input.Content
	}
	if input.Type != nil {
		block.Type = *input.Type
	}
	if input.ProjectID != nil {
		block.ProjectID = *input.ProjectID
	}

	if err := s.refreshDerived(ctx, block); err != nil {
		return nil, err
	}
	block.UpdatedAt = time.Now().UTC()

	if err := s.blockRepo.Update(ctx, block); err != nil {
		return nil, err
	}

	s.afterWrite(ownerID, block.ID, blocks.ActionUpdate, interaction)
	newLength := len(block.PlainText)
	s.tasks.Go("trace-activity", func(ctx context.Context) error {
		return s.links.TraceActivity(ctx, ownerID, blockID, oldLength, newLength)
	})
	return block, nil
}

// Delete removes a block along with its edges and telemetry. Other blocks
// keep their remaining edges untouched.
func (s *BlockService) Delete(ctx context.Context, ownerID, blockID string) error {
	return s.blockRepo.Delete(ctx, ownerID, blockID)
}

// CreateMany imports a batch of blocks. Embeddings are computed by a
// bounded worker pool paced by the provider rate budget, then blocks are
// written in batches. Any embedding or write failure aborts the import.
// Linking passes for the imported blocks are staggered in the background so
// a large import does not stampede the graph store.
func (s *BlockService) CreateMany(ctx context.Context, ownerID string, inputs []CreateBlockInput) ([]*blocks.Block, error) {
	if len(inputs) == 0 {
		return nil, pkgerrors.NewValidationError("import requires at least one block")
	}

	imported := make([]*blocks.Block, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.importConcurrency)

	for i, input := range inputs {
		i, input := i, input
		g.Go(func() error {
			block, err := blocks.NewBlock(ownerID, input.Title, input.Content, input.Type)
			if err != nil {
				return err
			}
			block.ProjectID = input.ProjectID

			if s.embedLimiter != nil {
				if err := s.embedLimiter.Wait(gctx); err != nil {
					return err
				}
			}
			if err := s.refreshDerived(gctx, block); err != nil {
				return err
			}
			imported[i] = block
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for start := 0; start < len(imported); start += importBatchSize {
		end := min(start+importBatchSize, len(imported))
		if err := s.blockRepo.CreateMany(ctx, imported[start:end]); err != nil {
			return nil, err
		}
	}

	for i, block := range imported {
		blockID := block.ID
		stagger := time.Duration(i) * s.links.pairDelay
		s.tasks.Go("trace-block-links", func(ctx context.Context) error {
			if stagger > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(stagger):
				}
			}
			return s.links.TraceBlockLinks(ctx, ownerID, blockID)
		})
		s.tasks.Go("trace-time", func(ctx context.Context) error {
			return s.links.TraceTime(ctx, ownerID, blockID, blocks.ActionCreate, "")
		})
	}

	s.logger.Info("bulk import completed",
		zap.String("ownerId", ownerID),
		zap.Int("blocks", len(imported)),
	)
	return imported, nil
}
