package neo4j

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"notelink-backend/application/ports"
	"notelink-backend/domain/blocks"
	pkgerrors "notelink-backend/pkg/errors"
)

// tierRelationships enumerates the similarity edge types. Relationship
// types cannot be parameterized in Cypher, so tiers are validated against
// this set before interpolation.
var tierRelationships = map[blocks.Tier]struct{}{
	blocks.TierLinked:          {},
	blocks.TierSimilar:         {},
	blocks.TierMaybeSimilar:    {},
	blocks.TierPossiblySimilar: {},
}

// tierUnion is the LINKED|SIMILAR|... pattern fragment matching any tier.
var tierUnion = func() string {
	names := make([]string, len(blocks.Tiers))
	for i, t := range blocks.Tiers {
		names[i] = string(t)
	}
	return strings.Join(names, "|")
}()

// BlockRepository persists blocks in the graph store. Every query is scoped
// through the owner's OWNS edge so a user can never reach another user's
// blocks.
type BlockRepository struct {
	graph  *Graph
	logger *zap.Logger
}

// NewBlockRepository creates a block repository.
func NewBlockRepository(graph *Graph, logger *zap.Logger) *BlockRepository {
	return &BlockRepository{graph: graph, logger: logger}
}

var _ ports.BlockRepository = (*BlockRepository)(nil)

func blockParams(b *blocks.Block) map[string]any {
	return map[string]any{
		"id":         b.ID,
		"ownerId":    b.OwnerID,
		"projectId":  b.ProjectID,
		"title":      b.Title,
		"content":    b.Content,
		"plainText":  b.PlainText,
		"type":       string(b.Type),
		"embeddings": vectorParam(b.Embeddings),
		"createdAt":  timestampParam(b.CreatedAt),
		"updatedAt":  timestampParam(b.UpdatedAt),
	}
}

// Create persists a block, its ownership edge, and its optional project
// membership in one write.
func (r *BlockRepository) Create(ctx context.Context, block *blocks.Block) error {
	query := `
		MERGE (u:User {id: $ownerId})
		CREATE (b:Block {
			id: $id, ownerId: $ownerId, projectId: $projectId,
			title: $title, content: $content, plainText: $plainText,
			type: $type, embeddings: $embeddings,
			createdAt: $createdAt, updatedAt: $updatedAt
		})
		MERGE (u)-[:OWNS]->(b)
		FOREACH (_ IN CASE WHEN $projectId <> '' THEN [1] ELSE [] END |
			MERGE (p:Project {id: $projectId, ownerId: $ownerId})
			MERGE (b)-[:BELONGS_TO]->(p)
		)`

	_, err := r.graph.ExecuteWrite(ctx, "create block", func(ctx context.Context, tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, query, blockParams(block))
		return nil, err
	})
	return err
}

// CreateMany persists a batch of blocks in a single write.
func (r *BlockRepository) CreateMany(ctx context.Context, batch []*blocks.Block) error {
	if len(batch) == 0 {
		return nil
	}

	rows := make([]map[string]any, len(batch))
	for i, b := range batch {
		rows[i] = blockParams(b)
	}

	query := `
		UNWIND $rows AS row
		MERGE (u:User {id: row.ownerId})
		CREATE (b:Block {
			id: row.id, ownerId: row.ownerId, projectId: row.projectId,
			title: row.title, content: row.content, plainText: row.plainText,
			type: row.type, embeddings: row.embeddings,
			createdAt: row.createdAt, updatedAt: row.updatedAt
		})
		MERGE (u)-[:OWNS]->(b)
		FOREACH (_ IN CASE WHEN row.projectId <> '' THEN [1] ELSE [] END |
			MERGE (p:Project {id: row.projectId, ownerId: row.ownerId})
			MERGE (b)-[:BELONGS_TO]->(p)
		)`

	_, err := r.graph.ExecuteWrite(ctx, "create blocks", func(ctx context.Context, tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, query, map[string]any{"rows": rows})
		return nil, err
	})
	return err
}

// GetByID retrieves a block scoped to its owner, embeddings included.
func (r *BlockRepository) GetByID(ctx context.Context, ownerID, blockID string) (*blocks.Block, error) {
	query := `
		MATCH (:User {id: $ownerId})-[:OWNS]->(b:Block {id: $blockId})
		RETURN b{.*} AS block`

	result, err := r.graph.ExecuteRead(ctx, "get block", func(ctx context.Context, tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]any{"ownerId": ownerID, "blockId": blockID})
		if err != nil {
			return nil, err
		}
		if !res.Next(ctx) {
			return nil, pkgerrors.NewNotFoundError("block")
		}
		props, _ := res.Record().Get("block")
		m, ok := props.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("unexpected block projection %T", props)
		}
		return blockFromProps(m), nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*blocks.Block), nil
}

// List retrieves the owner's blocks, updatedAt descending. Embeddings are
// stripped unless requested.
func (r *BlockRepository) List(ctx context.Context, ownerID string, opts ports.ListOptions) ([]*blocks.Block, error) {
	query := `
		MATCH (:User {id: $ownerId})-[:OWNS]->(b:Block)
		WHERE $projectId = '' OR b.projectId = $projectId
		RETURN b{.*} AS block
		ORDER BY b.updatedAt DESC`

	result, err := r.graph.ExecuteRead(ctx, "list blocks", func(ctx context.Context, tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]any{"ownerId": ownerID, "projectId": opts.ProjectID})
		if err != nil {
			return nil, err
		}

		var out []*blocks.Block
		for res.Next(ctx) {
			props, _ := res.Record().Get("block")
			m, ok := props.(map[string]any)
			if !ok {
				continue
			}
			block := blockFromProps(m)
			if !opts.IncludeEmbeddings {
				block = block.WithoutEmbeddings()
			}
			out = append(out, block)
		}
		return out, res.Err()
	})
	if err != nil {
		return nil, err
	}
	return result.([]*blocks.Block), nil
}

// Update overwrites a block's mutable fields and re-points its project
// membership.
func (r *BlockRepository) Update(ctx context.Context, block *blocks.Block) error {
	query := `
		MATCH (:User {id: $ownerId})-[:OWNS]->(b:Block {id: $id})
		SET b.title = $title, b.content = $content, b.plainText = $plainText,
			b.type = $type, b.embeddings = $embeddings,
			b.projectId = $projectId, b.updatedAt = $updatedAt
		WITH b
		OPTIONAL MATCH (b)-[old:BELONGS_TO]->(:Project)
		DELETE old
		WITH DISTINCT b
		FOREACH (_ IN CASE WHEN $projectId <> '' THEN [1] ELSE [] END |
			MERGE (p:Project {id: $projectId, ownerId: $ownerId})
			MERGE (b)-[:BELONGS_TO]->(p)
		)
		RETURN b.id AS id`

	_, err := r.graph.ExecuteWrite(ctx, "update block", func(ctx context.Context, tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, blockParams(block))
		if err != nil {
			return nil, err
		}
		if !res.Next(ctx) {
			return nil, pkgerrors.NewNotFoundError("block")
		}
		return nil, res.Err()
	})
	return err
}

// Delete removes a block, its similarity edges, and its attached telemetry
// nodes. Other blocks keep their remaining edges.
func (r *BlockRepository) Delete(ctx context.Context, ownerID, blockID string) error {
	query := `
		MATCH (:User {id: $ownerId})-[:OWNS]->(b:Block {id: $blockId})
		OPTIONAL MATCH (b)-[:HAS_TIME|HAS_CONTEXT|HAS_ACTIVITY|HAS_FEEDBACK]->(t)
		WITH b, collect(t) AS traces
		FOREACH (trace IN traces | DETACH DELETE trace)
		DETACH DELETE b
		RETURN 1 AS deleted`

	_, err := r.graph.ExecuteWrite(ctx, "delete block", func(ctx context.Context, tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]any{"ownerId": ownerID, "blockId": blockID})
		if err != nil {
			return nil, err
		}
		if !res.Next(ctx) {
			return nil, pkgerrors.NewNotFoundError("block")
		}
		return nil, res.Err()
	})
	return err
}

// UpsertSimilarityEdge merges the directed tiered edge from→to. Any
// previous tier for the ordered pair is removed first so exactly one tier
// edge exists per direction.
func (r *BlockRepository) UpsertSimilarityEdge(ctx context.Context, ownerID, fromID, toID string, tier blocks.Tier, similarity float64, checkedAt time.Time) error {
	if _, ok := tierRelationships[tier]; !ok {
		return pkgerrors.NewValidationError("unknown similarity tier: " + string(tier))
	}

	query := fmt.Sprintf(`
		MATCH (u:User {id: $ownerId})-[:OWNS]->(from:Block {id: $fromId})
		MATCH (u)-[:OWNS]->(to:Block {id: $toId})
		OPTIONAL MATCH (from)-[old:%s]->(to)
		DELETE old
		WITH DISTINCT from, to
		MERGE (from)-[r:%s]->(to)
		SET r.similarity = $similarity, r.checkedAt = $checkedAt`,
		tierUnion, string(tier))

	_, err := r.graph.ExecuteWrite(ctx, "upsert similarity edge", func(ctx context.Context, tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, query, map[string]any{
			"ownerId":    ownerID,
			"fromId":     fromID,
			"toId":       toID,
			"similarity": similarity,
			"checkedAt":  timestampParam(checkedAt),
		})
		return nil, err
	})
	return err
}

// RelatedBlocks returns tiered neighbors of a block in either direction,
// strongest stored score per neighbor, similarity descending.
func (r *BlockRepository) RelatedBlocks(ctx context.Context, ownerID, blockID string, limit int) ([]blocks.RecommendedBlock, error) {
	query := fmt.Sprintf(`
		MATCH (u:User {id: $ownerId})-[:OWNS]->(b:Block {id: $blockId})
		MATCH (b)-[r:%s]-(peer:Block)<-[:OWNS]-(u)
		WITH peer, max(r.similarity) AS similarity
		ORDER BY similarity DESC
		LIMIT $limit
		RETURN peer{.*} AS block, similarity`, tierUnion)

	result, err := r.graph.ExecuteRead(ctx, "related blocks", func(ctx context.Context, tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]any{
			"ownerId": ownerID,
			"blockId": blockID,
			"limit":   limit,
		})
		if err != nil {
			return nil, err
		}

		var out []blocks.RecommendedBlock
		for res.Next(ctx) {
			record := res.Record()
			props, _ := record.Get("block")
			m, ok := props.(map[string]any)
			if !ok {
				continue
			}
			similarity, _ := record.Get("similarity")
			score, _ := similarity.(float64)
			out = append(out, blocks.RecommendedBlock{
				Block:      blockFromProps(m).WithoutEmbeddings(),
				Similarity: score,
			})
		}
		return out, res.Err()
	})
	if err != nil {
		return nil, err
	}
	return result.([]blocks.RecommendedBlock), nil
}
