package neo4j

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"notelink-backend/application/ports"
	"notelink-backend/domain/blocks"
)

// TraceRepository persists telemetry nodes hanging off blocks. Trace nodes
// are append-only; nothing in the serving path reads them back.
type TraceRepository struct {
	graph  *Graph
	logger *zap.Logger
}

// NewTraceRepository creates a trace repository.
func NewTraceRepository(graph *Graph, logger *zap.Logger) *TraceRepository {
	return &TraceRepository{graph: graph, logger: logger}
}

var _ ports.TraceRepository = (*TraceRepository)(nil)

func (r *TraceRepository) run(ctx context.Context, operation, query string, params map[string]any) error {
	_, err := r.graph.ExecuteWrite(ctx, operation, func(ctx context.Context, tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, query, params)
		return nil, err
	})
	return err
}

// SaveTimeTrace appends a timestamped interaction node to the block.
func (r *TraceRepository) SaveTimeTrace(ctx context.Context, ownerID string, trace blocks.TimeTrace) error {
	query := `
		MATCH (:User {id: $ownerId})-[:OWNS]->(b:Block {id: $blockId})
		CREATE (t:TimeInteraction {action: $action, device: $device, timestamp: $timestamp})
		MERGE (b)-[:HAS_TIME]->(t)`

	return r.run(ctx, "save time trace", query, map[string]any{
		"ownerId":   ownerID,
		"blockId":   trace.BlockID,
		"action":    string(trace.Action),
		"device":    trace.Device,
		"timestamp": timestampParam(trace.Timestamp),
	})
}

// SaveContextTrace appends a device/location context node to the block.
func (r *TraceRepository) SaveContextTrace(ctx context.Context, ownerID string, trace blocks.ContextTrace) error {
	query := `
		MATCH (:User {id: $ownerId})-[:OWNS]->(b:Block {id: $blockId})
		CREATE (t:Context {device: $device, location: $location, timestamp: $timestamp})
		MERGE (b)-[:HAS_CONTEXT]->(t)`

	return r.run(ctx, "save context trace", query, map[string]any{
		"ownerId":   ownerID,
		"blockId":   trace.BlockID,
		"device":    trace.Device,
		"location":  trace.Location,
		"timestamp": timestampParam(trace.Timestamp),
	})
}

// SaveActivityTrace appends a classified edit node and bumps the block's
// running edit counter.
func (r *TraceRepository) SaveActivityTrace(ctx context.Context, ownerID string, trace blocks.ActivityTrace) error {
	query := `
		MATCH (:User {id: $ownerId})-[:OWNS]->(b:Block {id: $blockId})
		SET b.editCount = coalesce(b.editCount, 0) + 1
		CREATE (t:Activity {classification: $classification, delta: $delta, timestamp: $timestamp})
		MERGE (b)-[:HAS_ACTIVITY]->(t)`

	return r.run(ctx, "save activity trace", query, map[string]any{
		"ownerId":        ownerID,
		"blockId":        trace.BlockID,
		"classification": string(trace.Classification),
		"delta":          trace.Delta,
		"timestamp":      timestampParam(trace.Timestamp),
	})
}

// SaveFeedbackTrace appends a recommendation feedback node to the block.
func (r *TraceRepository) SaveFeedbackTrace(ctx context.Context, ownerID string, trace blocks.FeedbackTrace) error {
	query := `
		MATCH (:User {id: $ownerId})-[:OWNS]->(b:Block {id: $blockId})
		CREATE (t:Feedback {rating: $rating, comment: $comment, timestamp: $timestamp})
		MERGE (b)-[:HAS_FEEDBACK]->(t)`

	return r.run(ctx, "save feedback trace", query, map[string]any{
		"ownerId":   ownerID,
		"blockId":   trace.BlockID,
		"rating":    trace.Rating,
		"comment":   trace.Comment,
		"timestamp": timestampParam(trace.Timestamp),
	})
}

// LinkPreviousBlock records navigation order between two owned blocks.
func (r *TraceRepository) LinkPreviousBlock(ctx context.Context, ownerID, blockID, previousBlockID string) error {
	query := `
		MATCH (u:User {id: $ownerId})-[:OWNS]->(b:Block {id: $blockId})
		MATCH (u)-[:OWNS]->(prev:Block {id: $previousBlockId})
		MERGE (prev)-[r:PREVIOUS_OF]->(b)
		SET r.timestamp = $timestamp`

	return r.run(ctx, "link previous block", query, map[string]any{
		"ownerId":         ownerID,
		"blockId":         blockID,
		"previousBlockId": previousBlockID,
		"timestamp":       timestampParam(time.Now()),
	})
}
