package jsonpath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stepbench/aslengine/asl/value"
)

func parseData(t *testing.T, doc string) value.Value {
	t.Helper()
	v, err := value.FromJSON([]byte(doc))
	require.NoError(t, err)
	return v
}

func TestEvalSimplePaths(t *testing.T) {
	data := parseData(t, `{"a": {"b": [1,2,3]}, "c": "hi"}`)

	v, found, err := Eval("$.a.b[1]", data)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, float64(2), v.Number())

	_, found, err = Eval("$.missing", data)
	require.NoError(t, err)
	assert.False(t, found)

	v, found, err = Eval("$", data)
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, v.IsObject())
}

func TestIntrinsicArrayAndFormat(t *testing.T) {
	data := parseData(t, `{"name": "Ada"}`)
	v, err := evalIntrinsicCall(`States.Format('Hello {}!', $.name)`, data, value.Null(), nil)
	require.NoError(t, err)
	assert.Equal(t, "Hello Ada!", v.Str())

	v, err = evalIntrinsicCall(`States.Array(1, 2, 'three')`, data, value.Null(), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, v.Len())
}

func TestArrayRangeCapsAt1000(t *testing.T) {
	_, err := evalIntrinsicCall(`States.ArrayRange(0, 5000, 1)`, value.Null(), value.Null(), nil)
	require.Error(t, err)
}

func TestArrayGetItemOutOfRange(t *testing.T) {
	data := parseData(t, `{"xs": [1,2]}`)
	_, err := evalIntrinsicCall(`States.ArrayGetItem($.xs, 5)`, data, value.Null(), nil)
	require.Error(t, err)
}

func TestJSONMergeRejectsDeepTrue(t *testing.T) {
	data := parseData(t, `{"a": {"x": 1}, "b": {"y": 2}}`)
	_, err := evalIntrinsicCall(`States.JsonMerge($.a, $.b, true)`, data, value.Null(), nil)
	require.Error(t, err)

	v, err := evalIntrinsicCall(`States.JsonMerge($.a, $.b, false)`, data, value.Null(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, v.Len())
}

func TestStringToJsonAndBack(t *testing.T) {
	v, err := evalIntrinsicCall(`States.StringToJson('{"a":1}')`, value.Null(), value.Null(), nil)
	require.NoError(t, err)
	require.True(t, v.IsObject())

	s, err := evalIntrinsicCall(`States.JsonToString($.a)`, v, value.Null(), nil)
	require.NoError(t, err)
	assert.Equal(t, "1", s.Str())
}

func TestMathRandomIsDeterministicForSameSeed(t *testing.T) {
	v1, err := evalIntrinsicCall(`States.MathRandom(0, 100, 42)`, value.Null(), value.Null(), nil)
	require.NoError(t, err)
	v2, err := evalIntrinsicCall(`States.MathRandom(0, 100, 42)`, value.Null(), value.Null(), nil)
	require.NoError(t, err)
	assert.Equal(t, v1.Number(), v2.Number())
}

func TestEvalFieldDispatchOrder(t *testing.T) {
	data := parseData(t, `{"x": 1}`)
	ctx := parseData(t, `{"Execution": {"Name": "run1"}}`)
	vars := map[string]value.Value{"count": value.Int(7)}

	v, err := EvalField("$$.Execution.Name", data, ctx, vars)
	require.NoError(t, err)
	assert.Equal(t, "run1", v.Str())

	v, err = EvalField("$count", data, ctx, vars)
	require.NoError(t, err)
	assert.Equal(t, float64(7), v.Number())

	v, err = EvalField("$.x", data, ctx, vars)
	require.NoError(t, err)
	assert.Equal(t, float64(1), v.Number())
}
