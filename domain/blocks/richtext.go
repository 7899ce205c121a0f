package blocks

import (
	"encoding/json"
	"fmt"
	"strings"
)

// richNode is one node of the serialized editor document tree: a root doc
// node, nested block nodes, or inline leaves carrying text.
type richNode struct {
	Type    string     `json:"type"`
	Text    string     `json:"text"`
	Content []richNode `json:"content"`
}

// PlainText flattens a serialized rich-text document into plain text by
// concatenating all leaf text depth-first, with no separators beyond what
// child concatenation naturally produces. The function is pure and never
// panics: malformed input yields "" and an error so callers can log a
// warning and continue.
func PlainText(serialized string) (string, error) {
	if strings.TrimSpace(serialized) == "" {
		return "", fmt.Errorf("empty document")
	}

	var root richNode
	if err := json.Unmarshal([]byte(serialized), &root); err == nil {
		var sb strings.Builder
		flattenInto(&sb, root)
		return sb.String(), nil
	}

	// Some editors serialize the top level as a bare array of block nodes.
	var nodes []richNode
	if err := json.Unmarshal([]byte(serialized), &nodes); err != nil {
		return "", fmt.Errorf("unparseable document: %w", err)
	}

	var sb strings.Builder
	for _, n := range nodes {
		flattenInto(&sb, n)
	}
	return sb.String(), nil
}

func flattenInto(sb *strings.Builder, n richNode) {
	if n.Text != "" {
		sb.WriteString(n.Text)
	}
	for _, child := range n.Content {
		flattenInto(sb, child)
	}
}
