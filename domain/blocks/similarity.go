package blocks

import (
	"fmt"
	"math"
)

// Tier is the named strength of a similarity relationship between two
// blocks, stored as the edge type in the graph.
type Tier string

const (
	TierLinked          Tier = "LINKED"
	TierSimilar         Tier = "SIMILAR"
	TierMaybeSimilar    Tier = "MAYBE_SIMILAR"
	TierPossiblySimilar Tier = "POSSIBLY_SIMILAR"
)

// Tiers lists all relationship tiers in descending strength order.
var Tiers = []Tier{TierLinked, TierSimilar, TierMaybeSimilar, TierPossiblySimilar}

// Tier thresholds. Strictly greater-than: a similarity of exactly 0.8 maps
// to SIMILAR, not LINKED.
const (
	thresholdLinked          = 0.8
	thresholdSimilar         = 0.6
	thresholdMaybeSimilar    = 0.4
	thresholdPossiblySimilar = 0.2
)

// TierFor maps a similarity score to a relationship tier. The second return
// is false when the score does not clear the lowest threshold and no edge
// should exist.
func TierFor(similarity float64) (Tier, bool) {
	switch {
	case similarity > thresholdLinked:
		return TierLinked, true
	case similarity > thresholdSimilar:
		return TierSimilar, true
	case similarity > thresholdMaybeSimilar:
		return TierMaybeSimilar, true
	case similarity > thresholdPossiblySimilar:
		return TierPossiblySimilar, true
	default:
		return "", false
	}
}

// Cosine computes cosine similarity between two embedding vectors. A
// zero-magnitude or mismatched vector is a data bug upstream and is
// reported as an error rather than silently treated as zero similarity.
func Cosine(a, b []float32) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, fmt.Errorf("cosine: empty vector")
	}
	if len(a) != len(b) {
		return 0, fmt.Errorf("cosine: dimension mismatch %d != %d", len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, fmt.Errorf("cosine: zero-magnitude vector")
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
