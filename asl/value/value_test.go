package value

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONRoundTrip(t *testing.T) {
	src := `{"b":2,"a":1,"list":[1,2,3],"nested":{"z":true,"y":null}}`
	v, err := FromJSON([]byte(src))
	require.NoError(t, err)

	out, err := ToJSON(v)
	require.NoError(t, err)

	// Key order must be preserved exactly as written.
	assert.Equal(t, `{"b":2,"a":1,"list":[1,2,3],"nested":{"z":true,"y":null}}`, string(out))
}

func TestEqualAndSubset(t *testing.T) {
	a := MustFromGo(map[string]any{"x": 1.0, "y": map[string]any{"z": "ok"}})
	b := MustFromGo(map[string]any{"x": 1.0, "y": map[string]any{"z": "ok"}, "extra": true})

	assert.False(t, Equal(a, b))
	assert.True(t, Subset(a, b))
	assert.False(t, Subset(b, a))
}

func TestSetDottedCreatesIntermediateObjects(t *testing.T) {
	root := MustFromGo(map[string]any{"existing": 1.0})
	merged := SetDotted(root, "result.value", String("hi"))

	nested, ok := merged.Get("result")
	require.True(t, ok)
	inner, ok := nested.Get("value")
	require.True(t, ok)
	assert.Equal(t, "hi", inner.Str())

	// original input fields survive the merge.
	existing, ok := merged.Get("existing")
	require.True(t, ok)
	assert.Equal(t, float64(1), existing.Number())
}

func TestMarshalJSONWorksInsideAStruct(t *testing.T) {
	type wrapper struct {
		Output Value `json:"output"`
	}
	w := wrapper{Output: MustFromGo(map[string]any{"ok": true})}

	data, err := json.Marshal(w)
	require.NoError(t, err)
	assert.JSONEq(t, `{"output":{"ok":true}}`, string(data))

	var decoded wrapper
	require.NoError(t, json.Unmarshal(data, &decoded))
	ok, found := decoded.Output.Get("ok")
	require.True(t, found)
	assert.True(t, ok.Bool())
}

func TestCloneIsIndependent(t *testing.T) {
	orig := MustFromGo(map[string]any{"a": []any{1.0, 2.0}})
	clone := orig.Clone()
	clone = clone.Set("a", Array(String("mutated")))

	origA, _ := orig.Get("a")
	assert.True(t, origA.IsArray())
	assert.Equal(t, float64(1), origA.Index(0).Number())
}
