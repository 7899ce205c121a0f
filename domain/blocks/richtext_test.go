package blocks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlainText(t *testing.T) {
	t.Run("flattens nested document", func(t *testing.T) {
		doc := `{
			"type": "doc",
			"content": [
				{"type": "paragraph", "content": [
					{"type": "text", "text": "Hello "},
					{"type": "text", "text": "world"}
				]},
				{"type": "paragraph", "content": [
					{"type": "text", "text": "second"}
				]}
			]
		}`

		got, err := PlainText(doc)
		require.NoError(t, err)
		assert.Equal(t, "Hello worldsecond", got)
	})

	t.Run("depth-first order", func(t *testing.T) {
		doc := `{"type":"doc","content":[
			{"type":"list","content":[
				{"type":"item","content":[{"type":"text","text":"a"}]},
				{"type":"item","content":[{"type":"text","text":"b"}]}
			]},
			{"type":"text","text":"c"}
		]}`

		got, err := PlainText(doc)
		require.NoError(t, err)
		assert.Equal(t, "abc", got)
	})

	t.Run("bare array top level", func(t *testing.T) {
		got, err := PlainText(`[{"type":"text","text":"x"},{"type":"text","text":"y"}]`)
		require.NoError(t, err)
		assert.Equal(t, "xy", got)
	})

	t.Run("malformed input yields empty string and error", func(t *testing.T) {
		for _, input := range []string{"{not json", "123,", `{"content": "not-an-array"`} {
			got, err := PlainText(input)
			assert.Error(t, err, "input %q", input)
			assert.Empty(t, got)
		}
	})

	t.Run("empty input is an error", func(t *testing.T) {
		for _, input := range []string{"", "   ", "\n\t"} {
			got, err := PlainText(input)
			assert.Error(t, err)
			assert.Empty(t, got)
		}
	})

	t.Run("document without text leaves", func(t *testing.T) {
		got, err := PlainText(`{"type":"doc","content":[{"type":"image"}]}`)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
