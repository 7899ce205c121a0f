package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"notelink-backend/domain/blocks"
	pkgerrors "notelink-backend/pkg/errors"
)

const testOwner = "owner-1"

func seedBlock(t *testing.T, repo *fakeBlockRepo, id string, embeddings []float32) *blocks.Block {
	t.Helper()
	b := &blocks.Block{
		ID:         id,
		OwnerID:    testOwner,
		Title:      "Block " + id,
		Content:    `{"type":"doc"}`,
		PlainText:  "Block " + id,
		Type:       blocks.BlockTypeText,
		Embeddings: embeddings,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
	require.NoError(t, repo.Create(context.Background(), b))
	return b
}

func newLinkService(repo *fakeBlockRepo, traces *fakeTraceRepo) *LinkService {
	return NewLinkService(repo, traces, 0, zap.NewNop())
}

func TestTraceBlockLinks(t *testing.T) {
	ctx := context.Background()

	t.Run("creates tiered edges for similar peers", func(t *testing.T) {
		repo := newFakeBlockRepo()
		seedBlock(t, repo, "target", []float32{1, 0})
		seedBlock(t, repo, "twin", []float32{2, 0})     // cosine 1.0
		seedBlock(t, repo, "askew", []float32{0.7, 0.7}) // cosine ~0.707
		seedBlock(t, repo, "orthogonal", []float32{0, 1}) // cosine 0

		svc := newLinkService(repo, newFakeTraceRepo())
		require.NoError(t, svc.TraceBlockLinks(ctx, testOwner, "target"))

		edge, ok := repo.edgeFor("target", "twin")
		require.True(t, ok)
		assert.Equal(t, blocks.TierLinked, edge.tier)
		assert.InDelta(t, 1.0, edge.similarity, 1e-9)

		edge, ok = repo.edgeFor("target", "askew")
		require.True(t, ok)
		assert.Equal(t, blocks.TierSimilar, edge.tier)

		_, ok = repo.edgeFor("target", "orthogonal")
		assert.False(t, ok, "below-threshold pair must not get an edge")

		_, ok = repo.edgeFor("target", "target")
		assert.False(t, ok, "no self edge")
	})

	t.Run("idempotent across passes", func(t *testing.T) {
		repo := newFakeBlockRepo()
		seedBlock(t, repo, "target", []float32{1, 0})
		seedBlock(t, repo, "twin", []float32{1, 0})

		svc := newLinkService(repo, newFakeTraceRepo())
		require.NoError(t, svc.TraceBlockLinks(ctx, testOwner, "target"))
		first := repo.edgeCount()
		require.NoError(t, svc.TraceBlockLinks(ctx, testOwner, "target"))

		assert.Equal(t, first, repo.edgeCount())
	})

	t.Run("recompute replaces the tier for the pair", func(t *testing.T) {
		repo := newFakeBlockRepo()
		seedBlock(t, repo, "target", []float32{1, 0})
		peer := seedBlock(t, repo, "peer", []float32{1, 1})

		svc := newLinkService(repo, newFakeTraceRepo())
		require.NoError(t, svc.TraceBlockLinks(ctx, testOwner, "target"))
		edge, ok := repo.edgeFor("target", "peer")
		require.True(t, ok)
		assert.Equal(t, blocks.TierSimilar, edge.tier)

		// Peer drifts closer; the pair moves up a tier on recompute.
		peer.Embeddings = []float32{1, 0.1}
		require.NoError(t, repo.Update(ctx, peer))
		require.NoError(t, svc.TraceBlockLinks(ctx, testOwner, "target"))

		edge, ok = repo.edgeFor("target", "peer")
		require.True(t, ok)
		assert.Equal(t, blocks.TierLinked, edge.tier)
	})

	t.Run("stale edges survive when similarity drops below all tiers", func(t *testing.T) {
		repo := newFakeBlockRepo()
		seedBlock(t, repo, "target", []float32{1, 0})
		peer := seedBlock(t, repo, "peer", []float32{1, 0})

		svc := newLinkService(repo, newFakeTraceRepo())
		require.NoError(t, svc.TraceBlockLinks(ctx, testOwner, "target"))
		_, ok := repo.edgeFor("target", "peer")
		require.True(t, ok)

		peer.Embeddings = []float32{0, 1}
		require.NoError(t, repo.Update(ctx, peer))
		require.NoError(t, svc.TraceBlockLinks(ctx, testOwner, "target"))

		edge, ok := repo.edgeFor("target", "peer")
		assert.True(t, ok, "stale edge must not be deleted")
		assert.Equal(t, blocks.TierLinked, edge.tier)
	})

	t.Run("no-op without target embeddings", func(t *testing.T) {
		repo := newFakeBlockRepo()
		seedBlock(t, repo, "target", nil)
		seedBlock(t, repo, "peer", []float32{1, 0})

		svc := newLinkService(repo, newFakeTraceRepo())
		require.NoError(t, svc.TraceBlockLinks(ctx, testOwner, "target"))
		assert.Zero(t, repo.edgeCount())
	})

	t.Run("missing block is not found", func(t *testing.T) {
		svc := newLinkService(newFakeBlockRepo(), newFakeTraceRepo())
		err := svc.TraceBlockLinks(ctx, testOwner, "ghost")
		assert.True(t, pkgerrors.IsNotFound(err))
	})

	t.Run("bad peer vector reports error but links the rest", func(t *testing.T) {
		repo := newFakeBlockRepo()
		seedBlock(t, repo, "target", []float32{1, 0})
		seedBlock(t, repo, "zeroed", []float32{0, 0})
		seedBlock(t, repo, "twin", []float32{1, 0})

		svc := newLinkService(repo, newFakeTraceRepo())
		err := svc.TraceBlockLinks(ctx, testOwner, "target")
		assert.Error(t, err)

		_, ok := repo.edgeFor("target", "twin")
		assert.True(t, ok)
	})
}

func TestRelatedBlocks(t *testing.T) {
	ctx := context.Background()

	t.Run("orders by similarity and caps results", func(t *testing.T) {
		repo := newFakeBlockRepo()
		seedBlock(t, repo, "target", []float32{1, 0})
		for _, peer := range []struct {
			id  string
			sim float64
		}{
			{"a", 0.95}, {"b", 0.85}, {"c", 0.75}, {"d", 0.65}, {"e", 0.55}, {"f", 0.45},
		} {
			seedBlock(t, repo, peer.id, []float32{1, 0})
			tier, _ := blocks.TierFor(peer.sim)
			require.NoError(t, repo.UpsertSimilarityEdge(ctx, testOwner, "target", peer.id, tier, peer.sim, time.Now()))
		}

		svc := newLinkService(repo, newFakeTraceRepo())
		related, err := svc.RelatedBlocks(ctx, testOwner, "target")
		require.NoError(t, err)

		require.Len(t, related, 5, "recommendations are capped")
		for i := 1; i < len(related); i++ {
			assert.GreaterOrEqual(t, related[i-1].Similarity, related[i].Similarity)
		}
		assert.Equal(t, "a", related[0].Block.ID)
	})

	t.Run("includes incoming edges", func(t *testing.T) {
		repo := newFakeBlockRepo()
		seedBlock(t, repo, "target", []float32{1, 0})
		seedBlock(t, repo, "pointer", []float32{1, 0})
		require.NoError(t, repo.UpsertSimilarityEdge(ctx, testOwner, "pointer", "target", blocks.TierLinked, 0.9, time.Now()))

		svc := newLinkService(repo, newFakeTraceRepo())
		related, err := svc.RelatedBlocks(ctx, testOwner, "target")
		require.NoError(t, err)
		require.Len(t, related, 1)
		assert.Equal(t, "pointer", related[0].Block.ID)
	})

	t.Run("never recommends another user's blocks", func(t *testing.T) {
		repo := newFakeBlockRepo()
		seedBlock(t, repo, "target", []float32{1, 0})
		seedBlock(t, repo, "mine", []float32{1, 0})
		foreign := &blocks.Block{
			ID:        "foreign",
			OwnerID:   "owner-2",
			Title:     "Foreign",
			Content:   `{"type":"doc"}`,
			Type:      blocks.BlockTypeText,
			CreatedAt: time.Now().UTC(),
			UpdatedAt: time.Now().UTC(),
		}
		require.NoError(t, repo.Create(ctx, foreign))
		require.NoError(t, repo.UpsertSimilarityEdge(ctx, testOwner, "target", "mine", blocks.TierSimilar, 0.7, time.Now()))
		require.NoError(t, repo.UpsertSimilarityEdge(ctx, testOwner, "target", "foreign", blocks.TierLinked, 0.95, time.Now()))

		svc := newLinkService(repo, newFakeTraceRepo())
		related, err := svc.RelatedBlocks(ctx, testOwner, "target")
		require.NoError(t, err)
		require.Len(t, related, 1)
		assert.Equal(t, "mine", related[0].Block.ID)
	})

	t.Run("missing block is not found", func(t *testing.T) {
		svc := newLinkService(newFakeBlockRepo(), newFakeTraceRepo())
		_, err := svc.RelatedBlocks(ctx, testOwner, "ghost")
		assert.True(t, pkgerrors.IsNotFound(err))
	})

	t.Run("deleted block no longer recommends", func(t *testing.T) {
		repo := newFakeBlockRepo()
		seedBlock(t, repo, "target", []float32{1, 0})
		seedBlock(t, repo, "peer", []float32{1, 0})
		require.NoError(t, repo.UpsertSimilarityEdge(ctx, testOwner, "target", "peer", blocks.TierLinked, 0.9, time.Now()))
		require.NoError(t, repo.Delete(ctx, testOwner, "target"))

		svc := newLinkService(repo, newFakeTraceRepo())
		_, err := svc.RelatedBlocks(ctx, testOwner, "target")
		assert.True(t, pkgerrors.IsNotFound(err))
	})
}

func TestTraceActivityClassification(t *testing.T) {
	traces := newFakeTraceRepo()
	repo := newFakeBlockRepo()
	svc := newLinkService(repo, traces)

	require.NoError(t, svc.TraceActivity(context.Background(), testOwner, "b1", 100, 350))
	require.NoError(t, svc.TraceActivity(context.Background(), testOwner, "b1", 350, 340))

	require.Len(t, traces.activities, 2)
	assert.Equal(t, blocks.EditMajorExpansion, traces.activities[0].Classification)
	assert.Equal(t, 250, traces.activities[0].Delta)
	assert.Equal(t, blocks.EditMinor, traces.activities[1].Classification)
}
