package blocks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTierFor(t *testing.T) {
	cases := []struct {
		name       string
		similarity float64
		tier       Tier
		ok         bool
	}{
		{"above linked", 0.81, TierLinked, true},
		{"exactly linked boundary", 0.8, TierSimilar, true},
		{"above similar", 0.61, TierSimilar, true},
		{"exactly similar boundary", 0.6, TierMaybeSimilar, true},
		{"above maybe", 0.41, TierMaybeSimilar, true},
		{"exactly maybe boundary", 0.4, TierPossiblySimilar, true},
		{"above possibly", 0.21, TierPossiblySimilar, true},
		{"exactly possibly boundary", 0.2, "", false},
		{"below all", 0.1, "", false},
		{"zero", 0, "", false},
		{"negative", -0.5, "", false},
		{"perfect match", 1.0, TierLinked, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tier, ok := TierFor(tc.similarity)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.tier, tier)
		})
	}
}

func TestCosine(t *testing.T) {
	t.Run("identical vectors", func(t *testing.T) {
		v := []float32{0.5, 0.3, 0.2}
		got, err := Cosine(v, v)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, got, 1e-9)
	})

	t.Run("orthogonal vectors", func(t *testing.T) {
		got, err := Cosine([]float32{1, 0}, []float32{0, 1})
		require.NoError(t, err)
		assert.InDelta(t, 0.0, got, 1e-9)
	})

	t.Run("opposite vectors", func(t *testing.T) {
		got, err := Cosine([]float32{1, 2}, []float32{-1, -2})
		require.NoError(t, err)
		assert.InDelta(t, -1.0, got, 1e-9)
	})

	t.Run("symmetric", func(t *testing.T) {
		a := []float32{0.1, 0.9, 0.4}
		b := []float32{0.7, 0.2, 0.5}
		ab, err := Cosine(a, b)
		require.NoError(t, err)
		ba, err := Cosine(b, a)
		require.NoError(t, err)
		assert.Equal(t, ab, ba)
	})

	t.Run("zero-magnitude vector is an error", func(t *testing.T) {
		_, err := Cosine([]float32{0, 0, 0}, []float32{1, 2, 3})
		assert.Error(t, err)

		_, err = Cosine([]float32{1, 2, 3}, []float32{0, 0, 0})
		assert.Error(t, err)
	})

	t.Run("empty vector is an error", func(t *testing.T) {
		_, err := Cosine(nil, []float32{1})
		assert.Error(t, err)
	})

	t.Run("dimension mismatch is an error", func(t *testing.T) {
		_, err := Cosine([]float32{1, 2}, []float32{1, 2, 3})
		assert.Error(t, err)
	})
}
