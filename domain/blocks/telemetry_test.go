package blocks

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyEdit(t *testing.T) {
	cases := []struct {
		name  string
		delta int
		want  EditClassification
	}{
		{"no change", 0, EditMinor},
		{"small addition", 50, EditMinor},
		{"exactly +100", 100, EditMinor},
		{"just over +100", 101, EditMajorExpansion},
		{"large addition", 5000, EditMajorExpansion},
		{"small removal", -50, EditMinor},
		{"exactly -100", -100, EditMinor},
		{"just under -100", -101, EditMajorReduction},
		{"large removal", -5000, EditMajorReduction},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifyEdit(tc.delta))
		})
	}
}
