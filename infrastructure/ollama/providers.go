package ollama

import (
	"context"

	"notelink-backend/application/ports"
	pkgerrors "notelink-backend/pkg/errors"
)

// EmbeddingProvider adapts the Ollama client to the Embedder port,
// translating failures into the application error taxonomy.
type EmbeddingProvider struct {
	client *Client
	model  string
}

// NewEmbeddingProvider creates an embedding provider bound to one model.
func NewEmbeddingProvider(client *Client, model string) *EmbeddingProvider {
	return &EmbeddingProvider{client: client, model: model}
}

var _ ports.Embedder = (*EmbeddingProvider)(nil)

// Embed converts text into an embedding vector.
func (p *EmbeddingProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	vector, err := p.client.Embed(ctx, p.model, text)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, pkgerrors.NewTimeoutError("embed")
		}
		return nil, pkgerrors.NewEmbeddingError("embedding provider call failed", err)
	}
	if len(vector) == 0 {
		return nil, pkgerrors.NewEmbeddingError("embedding provider returned an empty vector", nil)
	}
	return vector, nil
}

// AnswerProvider adapts the Ollama client to the AnswerModel port.
type AnswerProvider struct {
	client *Client
	model  string
}

// NewAnswerProvider creates an answer provider bound to one model.
func NewAnswerProvider(client *Client, model string) *AnswerProvider {
	return &AnswerProvider{client: client, model: model}
}

var _ ports.AnswerModel = (*AnswerProvider)(nil)

// Chat generates a completion for the given messages.
func (p *AnswerProvider) Chat(ctx context.Context, messages []ports.ChatMessage) (string, error) {
	converted := make([]Message, len(messages))
	for i, m := range messages {
		converted[i] = Message{Role: m.Role, Content: m.Content}
	}

	answer, err := p.client.Chat(ctx, p.model, converted)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", pkgerrors.NewTimeoutError("answer generation")
		}
		return "", pkgerrors.NewAnswerGenerationError("answer model call failed", err)
	}
	return answer, nil
}
