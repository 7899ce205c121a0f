package neo4j

import (
	"time"

	"notelink-backend/domain/blocks"
	"notelink-backend/domain/projects"
	"notelink-backend/pkg/utils"
)

// timestampLayout is RFC3339 with a fixed-width fractional second. Cypher
// ORDER BY compares string properties lexically, so stored timestamps must
// all have the same length for lexical order to equal chronological order.
// RFC3339Nano would trim trailing zeros and break that.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// timestampParam formats a timestamp for storage as a graph property.
func timestampParam(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// Property maps come back from Cypher `RETURN n{.*}` projections as
// map[string]any. These helpers keep the repositories free of type
// assertion noise; a missing or mistyped property maps to the zero value.

func stringProp(props map[string]any, key string) string {
	if v, ok := props[key].(string); ok {
		return v
	}
	return ""
}

func intProp(props map[string]any, key string) int {
	switch v := props[key].(type) {
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}

func floatProp(props map[string]any, key string) float64 {
	switch v := props[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	}
	return 0
}

func timeProp(props map[string]any, key string) (time.Time, bool) {
	raw := stringProp(props, key)
	if raw == "" {
		return time.Time{}, false
	}
	parsed, err := utils.ParseRFC3339(raw)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

// vectorProp decodes a stored embedding. Bolt carries floats as float64;
// vectors are narrowed back to float32 on read.
func vectorProp(props map[string]any, key string) []float32 {
	raw, ok := props[key].([]any)
	if !ok || len(raw) == 0 {
		return nil
	}
	out := make([]float32, 0, len(raw))
	for _, v := range raw {
		f, ok := v.(float64)
		if !ok {
			return nil
		}
		out = append(out, float32(f))
	}
	return out
}

// vectorParam widens an embedding for a query parameter.
func vectorParam(vector []float32) []float64 {
	out := make([]float64, len(vector))
	for i, v := range vector {
		out[i] = float64(v)
	}
	return out
}

func blockFromProps(props map[string]any) *blocks.Block {
	b := &blocks.Block{
		ID:         stringProp(props, "id"),
		OwnerID:    stringProp(props, "ownerId"),
		ProjectID:  stringProp(props, "projectId"),
		Title:      stringProp(props, "title"),
		Content:    stringProp(props, "content"),
		PlainText:  stringProp(props, "plainText"),
		Type:       blocks.BlockType(stringProp(props, "type")),
		Embeddings: vectorProp(props, "embeddings"),
	}
	if t, ok := timeProp(props, "createdAt"); ok {
		b.CreatedAt = t
	}
	if t, ok := timeProp(props, "updatedAt"); ok {
		b.UpdatedAt = t
	}
	return b
}

func projectFromProps(props map[string]any) *projects.Project {
	p := &projects.Project{
		ID:          stringProp(props, "id"),
		OwnerID:     stringProp(props, "ownerId"),
		Name:        stringProp(props, "name"),
		Description: stringProp(props, "description"),
	}
	if t, ok := timeProp(props, "createdAt"); ok {
		p.CreatedAt = t
	}
	if t, ok := timeProp(props, "updatedAt"); ok {
		p.UpdatedAt = t
	}
	return p
}
