package ports

import "context"

// Embedder converts text into a fixed-length embedding vector. The model
// name is implementation configuration, never a call-site concern.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ChatMessage is one turn of a chat exchange with the answer model
type ChatMessage struct {
	Role    string
	Content string
}

// AnswerModel generates natural-language completions for answer synthesis
type AnswerModel interface {
	Chat(ctx context.Context, messages []ChatMessage) (string, error)
}

// TaskRunner executes background work detached from the calling request.
// Implementations recover panics and swallow errors after logging; the
// "never blocks, never propagates failure" contract is what keeps linking
// and telemetry off the primary path.
type TaskRunner interface {
	Go(name string, fn func(ctx context.Context) error)
}
