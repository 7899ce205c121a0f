package blocks

import (
	"time"

	"github.com/google/uuid"

	pkgerrors "notelink-backend/pkg/errors"
)

// BlockType identifies the kind of content a block holds
type BlockType string

const (
	BlockTypeText  BlockType = "text"
	BlockTypeImage BlockType = "image"
	BlockTypeCode  BlockType = "code"
	BlockTypeMath  BlockType = "math"
)

// ParseBlockType validates and normalizes a block type string
func ParseBlockType(s string) (BlockType, error) {
	switch BlockType(s) {
	case BlockTypeText, BlockTypeImage, BlockTypeCode, BlockTypeMath:
		return BlockType(s), nil
	case "":
		return BlockTypeText, nil
	default:
		return "", pkgerrors.NewValidationError("unknown block type: " + s)
	}
}

// Block is the primary content entity: a rich-text note owned by a user.
// Content is the serialized editor document and is opaque to the core;
// PlainText is the flattened form used for search and embedding. PlainText
// and Embeddings are always regenerated together from the current
// title+content — a block must never carry embeddings computed from an
// older revision of its text.
type Block struct {
	ID         string
	OwnerID    string
	ProjectID  string
	Title      string
	Content    string
	PlainText  string
	Type       BlockType
	Embeddings []float32
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewBlock creates a block with validated fields and fresh timestamps.
// PlainText and Embeddings are filled in by the service layer before the
// block is persisted.
func NewBlock(ownerID, title, content string, blockType BlockType) (*Block, error) {
	if ownerID == "" {
		return nil, pkgerrors.NewValidationError("ownerID cannot be empty")
	}
	if content == "" {
		return nil, pkgerrors.NewValidationError("content cannot be empty")
	}

	now := time.Now().UTC()
	return &Block{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Title:     title,
		Content:   content,
		Type:      blockType,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// WithoutEmbeddings returns a shallow copy with the embedding vector
// stripped. List responses withhold vectors unless explicitly requested.
func (b *Block) WithoutEmbeddings() *Block {
	copied := *b
	copied.Embeddings = nil
	return &copied
}

// RecommendedBlock is a neighbor in the similarity graph annotated with the
// stored edge score.
type RecommendedBlock struct {
	Block      *Block
	Similarity float64
}

// SearchMatch is a block matched by a search pass with its score. Exact
// matches always carry a score of 1.0.
type SearchMatch struct {
	Block      *Block
	Similarity float64
}

// SearchResult holds the three search buckets. Buckets are mutually
// exclusive: a title match never reappears as a content match, and blocks
// captured by the exact passes are excluded from the similarity pass.
type SearchResult struct {
	TitleMatches      []SearchMatch
	ContentMatches    []SearchMatch
	SimilarityMatches []SearchMatch
}
