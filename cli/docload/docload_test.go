package docload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBytesDecodesYAMLMappingsToValue(t *testing.T) {
	src := []byte(`
StartAt: Go
States:
  Go:
    Type: Pass
    End: true
`)
	v, err := Bytes(src, ".yaml")
	require.NoError(t, err)

	startAt, ok := v.Get("StartAt")
	require.True(t, ok)
	assert.Equal(t, "Go", startAt.Str())

	states, ok := v.Get("States")
	require.True(t, ok)
	goState, ok := states.Get("Go")
	require.True(t, ok)
	typ, ok := goState.Get("Type")
	require.True(t, ok)
	assert.Equal(t, "Pass", typ.Str())
}

func TestBytesDecodesJSONTooSinceItsAYAMLSuperset(t *testing.T) {
	v, err := Bytes([]byte(`{"a": 1, "b": [1, 2, 3]}`), ".json")
	require.NoError(t, err)
	a, _ := v.Get("a")
	assert.Equal(t, float64(1), a.Number())
	b, _ := v.Get("b")
	assert.Equal(t, 3, b.Len())
}
