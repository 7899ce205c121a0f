package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"notelink-backend/application/ports"
	"notelink-backend/domain/blocks"
	pkgerrors "notelink-backend/pkg/errors"
)

// vectorMatchLimit caps the similarity bucket of a search response.
const vectorMatchLimit = 10

// QueryKind is the routing decision for an incoming query.
type QueryKind string

const (
	QueryKindQuestion QueryKind = "question"
	QueryKindSearch   QueryKind = "search"
)

// ClassifyQuery routes a query to answer synthesis or plain search. The
// heuristic is deliberately simple and deterministic: a query is a question
// exactly when it ends with '?' after trimming whitespace.
func ClassifyQuery(query string) QueryKind {
	if strings.HasSuffix(strings.TrimSpace(query), "?") {
		return QueryKindQuestion
	}
	return QueryKindSearch
}

// AnswerSource identifies a block the answer drew from.
type AnswerSource struct {
	BlockID string
	Title   string
}

// Answer is a synthesized natural-language answer with its source blocks.
type Answer struct {
	Text    string
	Sources []AnswerSource
}

// answerSystemPrompt constrains the model to the supplied notes and the
// [Title] citation convention.
const answerSystemPrompt = "You are a helpful assistant answering questions from the user's personal notes. " +
	"Use only the information in the notes below. " +
	"After every fact you state, cite the note it came from by its title in square brackets, like [Note Title]. " +
	"Answer directly; never refer to \"the context\", \"the notes\", or \"the provided information\". " +
	"If the notes do not contain the answer, reply with exactly: I couldn't find that in your notes."

// SearchService implements hybrid search over a user's blocks and answer
// synthesis for question-shaped queries.
type SearchService struct {
	blockRepo ports.BlockRepository
	embedder  ports.Embedder
	answers   ports.AnswerModel
	logger    *zap.Logger
}

// NewSearchService creates a search service.
func NewSearchService(
	blockRepo ports.BlockRepository,
	embedder ports.Embedder,
	answers ports.AnswerModel,
	logger *zap.Logger,
) *SearchService {
	return &SearchService{
		blockRepo: blockRepo,
		embedder:  embedder,
		answers:   answers,
		logger:    logger,
	}
}

// SearchBlocks runs the three search passes over the owner's blocks and
// returns mutually exclusive buckets: case-insensitive exact matches on
// title, then on plain text, then an embedding pass over everything the
// exact passes did not already capture. Exact matches score 1.0; vector
// matches must strictly exceed threshold and are capped at the strongest
// ten.
func (s *SearchService) SearchBlocks(ctx context.Context, ownerID, query string, threshold float64, projectID string) (*blocks.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, pkgerrors.NewValidationError("query cannot be empty")
	}

	candidates, err := s.blockRepo.List(ctx, ownerID, ports.ListOptions{
		IncludeEmbeddings: true,
		ProjectID:         projectID,
	})
	if err != nil {
		return nil, err
	}

	result := &blocks.SearchResult{}
	needle := strings.ToLower(strings.TrimSpace(query))
	exact := make(map[string]struct{})

	for _, b := range candidates {
		switch {
		case strings.Contains(strings.ToLower(b.Title), needle):
			result.TitleMatches = append(result.TitleMatches, blocks.SearchMatch{Block: b.WithoutEmbeddings(), Similarity: 1.0})
			exact[b.ID] = struct{}{}
		case strings.Contains(strings.ToLower(b.PlainText), needle):
			result.ContentMatches = append(result.ContentMatches, blocks.SearchMatch{Block: b.WithoutEmbeddings(), Similarity: 1.0})
			exact[b.ID] = struct{}{}
		}
	}

	queryVector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	for _, b := range candidates {
		if _, ok := exact[b.ID]; ok {
			continue
		}
		if len(b.Embeddings) == 0 {
			continue
		}

		similarity, err := blocks.Cosine(queryVector, b.Embeddings)
		if err != nil {
			s.logger.Warn("skipping block with bad embedding vector",
				zap.String("blockId", b.ID),
				zap.Error(err),
			)
			continue
		}
		if similarity > threshold {
			result.SimilarityMatches = append(result.SimilarityMatches, blocks.SearchMatch{Block: b.WithoutEmbeddings(), Similarity: similarity})
		}
	}

	sort.SliceStable(result.SimilarityMatches, func(i, j int) bool {
		return result.SimilarityMatches[i].Similarity > result.SimilarityMatches[j].Similarity
	})
	if len(result.SimilarityMatches) > vectorMatchLimit {
		result.SimilarityMatches = result.SimilarityMatches[:vectorMatchLimit]
	}

	return result, nil
}

// GenerateAnswer synthesizes an answer to a question from the given blocks.
// Sources are deduplicated in order of first appearance. An empty
// completion is treated as a generation failure, never returned as an
// answer.
func (s *SearchService) GenerateAnswer(ctx context.Context, question string, candidates []*blocks.Block) (*Answer, error) {
	if len(candidates) == 0 {
		return nil, pkgerrors.NewValidationError("answer generation requires at least one source block")
	}

	seen := make(map[string]struct{}, len(candidates))
	sources := make([]AnswerSource, 0, len(candidates))
	var sb strings.Builder
	for _, b := range candidates {
		if _, ok := seen[b.ID]; ok {
			continue
		}
		seen[b.ID] = struct{}{}
		sources = append(sources, AnswerSource{BlockID: b.ID, Title: b.Title})
		fmt.Fprintf(&sb, "Title: %s\nContent: %s\n\n", b.Title, b.PlainText)
	}

	messages := []ports.ChatMessage{
		{Role: "system", Content: answerSystemPrompt},
		{Role: "user", Content: "Notes:\n\n" + sb.String() + "Question: " + question},
	}

	text, err := s.answers.Chat(ctx, messages)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, pkgerrors.NewAnswerGenerationError("model returned an empty answer", nil)
	}

	return &Answer{Text: text, Sources: sources}, nil
}

// MatchedBlocks flattens a search result into the candidate list for answer
// synthesis, exact matches first.
func MatchedBlocks(result *blocks.SearchResult) []*blocks.Block {
	var out []*blocks.Block
	for _, m := range result.TitleMatches {
		out = append(out, m.Block)
	}
	for _, m := range result.ContentMatches {
		out = append(out, m.Block)
	}
	for _, m := range result.SimilarityMatches {
		out = append(out, m.Block)
	}
	return out
}
