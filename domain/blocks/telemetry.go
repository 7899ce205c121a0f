package blocks

import "time"

// TimeAction labels a time-trace interaction with a block
type TimeAction string

const (
	ActionCreate TimeAction = "CREATE"
	ActionUpdate TimeAction = "UPDATE"
	ActionView   TimeAction = "VIEW"
)

// EditClassification labels the size of a content edit
type EditClassification string

const (
	EditMinor          EditClassification = "MINOR_EDIT"
	EditMajorExpansion EditClassification = "MAJOR_EXPANSION"
	EditMajorReduction EditClassification = "MAJOR_REDUCTION"
)

// editDeltaThreshold is the character delta beyond which an edit counts as
// a major expansion or reduction.
const editDeltaThreshold = 100

// ClassifyEdit maps a character-count delta to an edit classification.
func ClassifyEdit(delta int) EditClassification {
	switch {
	case delta > editDeltaThreshold:
		return EditMajorExpansion
	case delta < -editDeltaThreshold:
		return EditMajorReduction
	default:
		return EditMinor
	}
}

// TimeTrace records when and from which device a block was touched.
// Telemetry nodes are append-only and best-effort: writers never fail the
// primary operation.
type TimeTrace struct {
	BlockID   string
	Action    TimeAction
	Device    string
	Timestamp time.Time
}

// ContextTrace records coarse interaction context for a block.
type ContextTrace struct {
	BlockID   string
	Device    string
	Location  string
	Timestamp time.Time
}

// ActivityTrace records a classified content edit for a block.
type ActivityTrace struct {
	BlockID        string
	Classification EditClassification
	Delta          int
	Timestamp      time.Time
}

// FeedbackTrace records explicit user feedback on a recommendation.
type FeedbackTrace struct {
	BlockID   string
	Rating    int
	Comment   string
	Timestamp time.Time
}
