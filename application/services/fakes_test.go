package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"notelink-backend/application/ports"
	"notelink-backend/domain/blocks"
	pkgerrors "notelink-backend/pkg/errors"
)

// fakeEdge mirrors a stored similarity edge for one ordered pair.
type fakeEdge struct {
	tier       blocks.Tier
	similarity float64
	checkedAt  time.Time
}

type fakeBlockRepo struct {
	mu      sync.Mutex
	blocks  map[string]*blocks.Block
	edges   map[string]fakeEdge
	batches []int

	failCreate error
	failUpdate error
}

func newFakeBlockRepo() *fakeBlockRepo {
	return &fakeBlockRepo{
		blocks: make(map[string]*blocks.Block),
		edges:  make(map[string]fakeEdge),
	}
}

func pairKey(fromID, toID string) string {
	return fromID + "->" + toID
}

func (r *fakeBlockRepo) Create(ctx context.Context, block *blocks.Block) error {
	if r.failCreate != nil {
		return r.failCreate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *block
	r.blocks[block.ID] = &copied
	return nil
}

func (r *fakeBlockRepo) CreateMany(ctx context.Context, batch []*blocks.Block) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, len(batch))
	for _, b := range batch {
		copied := *b
		r.blocks[b.ID] = &copied
	}
	return nil
}

func (r *fakeBlockRepo) GetByID(ctx context.Context, ownerID, blockID string) (*blocks.Block, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.blocks[blockID]
	if !ok || b.OwnerID != ownerID {
		return nil, pkgerrors.NewNotFoundError("block")
	}
	copied := *b
	return &copied, nil
}

func (r *fakeBlockRepo) List(ctx context.Context, ownerID string, opts ports.ListOptions) ([]*blocks.Block, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*blocks.Block
	for _, b := range r.blocks {
		if b.OwnerID != ownerID {
			continue
		}
		if opts.ProjectID != "" && b.ProjectID != opts.ProjectID {
			continue
		}
		copied := *b
		if !opts.IncludeEmbeddings {
			copied.Embeddings = nil
		}
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (r *fakeBlockRepo) Update(ctx context.Context, block *blocks.Block) error {
	if r.failUpdate != nil {
		return r.failUpdate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.blocks[block.ID]
	if !ok || existing.OwnerID != block.OwnerID {
		return pkgerrors.NewNotFoundError("block")
	}
	copied := *block
	r.blocks[block.ID] = &copied
	return nil
}

func (r *fakeBlockRepo) Delete(ctx context.Context, ownerID, blockID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.blocks[blockID]
	if !ok || b.OwnerID != ownerID {
		return pkgerrors.NewNotFoundError("block")
	}
	delete(r.blocks, blockID)
	for key := range r.edges {
		if keyTouches(key, blockID) {
			delete(r.edges, key)
		}
	}
	return nil
}

func keyTouches(key, blockID string) bool {
	from, to, ok := splitPair(key)
	return ok && (from == blockID || to == blockID)
}

func (r *fakeBlockRepo) UpsertSimilarityEdge(ctx context.Context, ownerID, fromID, toID string, tier blocks.Tier, similarity float64, checkedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.edges[pairKey(fromID, toID)] = fakeEdge{tier: tier, similarity: similarity, checkedAt: checkedAt}
	return nil
}

func (r *fakeBlockRepo) RelatedBlocks(ctx context.Context, ownerID, blockID string, limit int) ([]blocks.RecommendedBlock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	best := make(map[string]float64)
	for key, edge := range r.edges {
		from, to, ok := splitPair(key)
		if !ok {
			continue
		}
		var peer string
		switch blockID {
		case from:
			peer = to
		case to:
			peer = from
		default:
			continue
		}
		if edge.similarity > best[peer] {
			best[peer] = edge.similarity
		}
	}

	var out []blocks.RecommendedBlock
	for peerID, similarity := range best {
		peer, ok := r.blocks[peerID]
		if !ok || peer.OwnerID != ownerID {
			continue
		}
		copied := *peer
		copied.Embeddings = nil
		out = append(out, blocks.RecommendedBlock{Block: &copied, Similarity: similarity})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func splitPair(key string) (string, string, bool) {
	for i := 0; i+1 < len(key); i++ {
		if key[i] == '-' && key[i+1] == '>' {
			return key[:i], key[i+2:], true
		}
	}
	return "", "", false
}

func (r *fakeBlockRepo) edgeFor(fromID, toID string) (fakeEdge, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	edge, ok := r.edges[pairKey(fromID, toID)]
	return edge, ok
}

func (r *fakeBlockRepo) edgeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.edges)
}

type fakeTraceRepo struct {
	mu         sync.Mutex
	timeTraces []blocks.TimeTrace
	contexts   []blocks.ContextTrace
	activities []blocks.ActivityTrace
	feedbacks  []blocks.FeedbackTrace
	previous   [][2]string
}

func newFakeTraceRepo() *fakeTraceRepo {
	return &fakeTraceRepo{}
}

func (r *fakeTraceRepo) SaveTimeTrace(ctx context.Context, ownerID string, trace blocks.TimeTrace) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timeTraces = append(r.timeTraces, trace)
	return nil
}

func (r *fakeTraceRepo) SaveContextTrace(ctx context.Context, ownerID string, trace blocks.ContextTrace) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contexts = append(r.contexts, trace)
	return nil
}

func (r *fakeTraceRepo) SaveActivityTrace(ctx context.Context, ownerID string, trace blocks.ActivityTrace) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activities = append(r.activities, trace)
	return nil
}

func (r *fakeTraceRepo) SaveFeedbackTrace(ctx context.Context, ownerID string, trace blocks.FeedbackTrace) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.feedbacks = append(r.feedbacks, trace)
	return nil
}

func (r *fakeTraceRepo) LinkPreviousBlock(ctx context.Context, ownerID, blockID, previousBlockID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.previous = append(r.previous, [2]string{previousBlockID, blockID})
	return nil
}

// fakeEmbedder returns canned vectors per input text, falling back to a
// default vector.
type fakeEmbedder struct {
	mu       sync.Mutex
	vectors  map[string][]float32
	fallback []float32
	err      error
	calls    []string
}

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{
		vectors:  make(map[string][]float32),
		fallback: []float32{1, 0},
	}
}

func (e *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, text)
	if e.err != nil {
		return nil, e.err
	}
	if v, ok := e.vectors[text]; ok {
		return v, nil
	}
	return e.fallback, nil
}

type fakeAnswerModel struct {
	mu       sync.Mutex
	answer   string
	err      error
	messages []ports.ChatMessage
}

func (m *fakeAnswerModel) Chat(ctx context.Context, messages []ports.ChatMessage) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append([]ports.ChatMessage(nil), messages...)
	if m.err != nil {
		return "", m.err
	}
	return m.answer, nil
}

// syncRunner executes tasks inline so tests observe background effects
// deterministically.
type syncRunner struct{}

func (syncRunner) Go(name string, fn func(ctx context.Context) error) {
	_ = fn(context.Background())
}
