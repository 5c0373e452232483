package jsonata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stepbench/aslengine/asl/value"
)

func TestDetectAndUnwrap(t *testing.T) {
	assert.True(t, Detect("{% $states.input.x %}"))
	assert.False(t, Detect("$.x"))
	assert.True(t, IsFullyWrapped("  {% $x > 1 %}  "))
	assert.False(t, IsFullyWrapped("prefix {% $x %}"))
	assert.Equal(t, "$x > 1", Unwrap("{% $x > 1 %}"))
}

func TestEvalBasicExpression(t *testing.T) {
	data, err := value.FromJSON([]byte(`{"a": 2, "b": 3}`))
	require.NoError(t, err)

	result, err := Eval("a + b", data, nil)
	require.NoError(t, err)
	assert.Equal(t, float64(5), result.Number())
}

func TestEvalWithVariableBindings(t *testing.T) {
	data, err := value.FromJSON([]byte(`{}`))
	require.NoError(t, err)

	result, err := Eval("$count * 2", data, map[string]value.Value{"count": value.Int(4)})
	require.NoError(t, err)
	assert.Equal(t, float64(8), result.Number())
}

func TestRangeCollapsesSingleResult(t *testing.T) {
	data, _ := value.FromJSON([]byte(`{}`))
	result, err := Eval("$range(5, 5)", data, nil)
	require.NoError(t, err)
	assert.Equal(t, float64(5), result.Number())

	result, err = Eval("$range(1, 3)", data, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Len())
}
