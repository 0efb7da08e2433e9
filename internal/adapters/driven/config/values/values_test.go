package values

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScalars(t *testing.T) {
	assert.Equal(t, "x", String("x"))
	assert.Equal(t, "", String(3))

	assert.Equal(t, 3, Int(3))
	assert.Equal(t, 4, Int(int64(4)))
	assert.Equal(t, 5, Int(5.9))
	assert.Equal(t, 0, Int("5"))

	assert.True(t, Bool(true))
	assert.False(t, Bool("true"))
}

func TestStrings(t *testing.T) {
	in := []string{"a", "b"}
	out := Strings(in)
	out[0] = "z"
	assert.Equal(t, []string{"a", "b"}, in, "result is a copy")

	assert.Equal(t, []string{"a", "c"}, Strings([]any{"a", 1, "c"}))
	assert.Nil(t, Strings("a"))
	assert.Nil(t, Strings(nil))
}

func TestSection(t *testing.T) {
	flat := map[string]any{
		"pipeline.chunker.size": 10,
		"pipeline.chunker.x":    true,
		"pipeline.chunkers":     "no",
		"pipeline.chunker":      "scalar",
	}
	assert.Equal(t, map[string]any{"size": 10, "x": true}, Section(flat, "pipeline.chunker"))
	assert.Empty(t, Section(flat, "missing"))
}
