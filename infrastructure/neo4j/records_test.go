package neo4j

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notelink-backend/domain/blocks"
)

func TestTimestampParamFixedWidth(t *testing.T) {
	base := time.Date(2026, 8, 31, 12, 0, 5, 0, time.UTC)

	cases := []struct {
		name string
		t    time.Time
		want string
	}{
		{"zero fraction keeps full width", base, "2026-08-31T12:00:05.000000000Z"},
		{"trailing zeros kept", base.Add(100 * time.Millisecond), "2026-08-31T12:00:05.100000000Z"},
		{"nanosecond precision", base.Add(150*time.Millisecond + 7), "2026-08-31T12:00:05.150000007Z"},
		{"non-UTC input normalized", base.In(time.FixedZone("CEST", 2*3600)), "2026-08-31T12:00:05.000000000Z"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, timestampParam(tc.t))
		})
	}
}

// Stored timestamps are compared lexically by ORDER BY, so their string
// order must track their chronological order even when the fractional
// seconds would print at different lengths.
func TestTimestampParamLexicalOrderIsChronological(t *testing.T) {
	earlier := time.Date(2026, 8, 31, 12, 0, 5, 100_000_000, time.UTC)
	steps := []time.Duration{
		50 * time.Millisecond,
		850 * time.Millisecond,
		time.Nanosecond,
		time.Second,
		time.Hour,
	}

	prev := timestampParam(earlier)
	at := earlier
	for _, step := range steps {
		at = at.Add(step)
		next := timestampParam(at)
		assert.Greater(t, next, prev, "step %v", step)
		prev = next
	}
}

func TestBlockParamsTimestampOrdering(t *testing.T) {
	earlier := time.Date(2026, 8, 31, 12, 0, 5, 100_000_000, time.UTC)
	later := earlier.Add(50 * time.Millisecond)

	first := blockParams(&blocks.Block{ID: "first", CreatedAt: earlier, UpdatedAt: earlier})
	second := blockParams(&blocks.Block{ID: "second", CreatedAt: later, UpdatedAt: later})

	assert.Greater(t, second["updatedAt"].(string), first["updatedAt"].(string))
	assert.Greater(t, second["createdAt"].(string), first["createdAt"].(string))
}

func TestTimestampRoundTrip(t *testing.T) {
	at := time.Date(2026, 8, 31, 12, 0, 5, 150_000_007, time.UTC)
	props := map[string]any{"createdAt": timestampParam(at)}

	parsed, ok := timeProp(props, "createdAt")
	require.True(t, ok)
	assert.True(t, parsed.Equal(at))
}
