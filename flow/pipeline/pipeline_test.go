package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stepbench/aslengine/asl/statespec"
	"github.com/stepbench/aslengine/asl/value"
)

func parse(t *testing.T, doc string) value.Value {
	t.Helper()
	v, err := value.FromJSON([]byte(doc))
	require.NoError(t, err)
	return v
}

func strPtr(s string) *string { return &s }

func TestJSONPathPreprocessInputPathAndParameters(t *testing.T) {
	st := &statespec.State{
		QueryLanguage: statespec.JSONPath,
		InputPath:     strPtr("$.payload"),
		Parameters:    parse(t, `{"name.$": "$.user", "literal": "x"}`),
	}
	raw := parse(t, `{"payload": {"user": "ada"}}`)

	out, err := For(st).Preprocess(st, raw, value.Null(), nil)
	require.NoError(t, err)
	name, _ := out.Get("name")
	assert.Equal(t, "ada", name.Str())
	lit, _ := out.Get("literal")
	assert.Equal(t, "x", lit.Str())
}

func TestJSONPathPostprocessResultPathAndOutputPath(t *testing.T) {
	st := &statespec.State{
		QueryLanguage: statespec.JSONPath,
		ResultPath:    strPtr("$.taskResult"),
		OutputPath:    strPtr("$.taskResult"),
	}
	raw := parse(t, `{"a": 1}`)
	result := parse(t, `{"ok": true}`)

	out, assigned, err := For(st).Postprocess(st, raw, result, value.Null(), nil)
	require.NoError(t, err)
	assert.True(t, assigned.IsNull())
	ok, _ := out.Get("ok")
	assert.True(t, ok.Bool())
}

func TestJSONPathPreprocessExplicitNullInputPathDiscardsInput(t *testing.T) {
	st := &statespec.State{QueryLanguage: statespec.JSONPath, InputPath: strPtr("")}
	raw := parse(t, `{"payload": {"user": "ada"}}`)

	out, err := For(st).Preprocess(st, raw, value.Null(), nil)
	require.NoError(t, err)
	assert.True(t, out.IsNull())
}

func TestJSONPathPostprocessLiteralDollarResultPathReplacesInput(t *testing.T) {
	st := &statespec.State{QueryLanguage: statespec.JSONPath, ResultPath: strPtr("$")}
	raw := parse(t, `{"a": 1}`)
	result := parse(t, `{"ok": true}`)

	out, _, err := For(st).Postprocess(st, raw, result, value.Null(), nil)
	require.NoError(t, err)
	_, hasA := out.Get("a")
	assert.False(t, hasA)
	ok, _ := out.Get("ok")
	assert.True(t, ok.Bool())
}

func TestJSONPathPostprocessExplicitNullResultPathKeepsOriginalInput(t *testing.T) {
	st := &statespec.State{QueryLanguage: statespec.JSONPath, ResultPath: strPtr("")}
	raw := parse(t, `{"a": 1}`)
	result := parse(t, `{"ok": true}`)

	out, _, err := For(st).Postprocess(st, raw, result, value.Null(), nil)
	require.NoError(t, err)
	a, _ := out.Get("a")
	assert.Equal(t, float64(1), a.Number())
	_, hasOk := out.Get("ok")
	assert.False(t, hasOk)
}

func TestJSONPathPostprocessExplicitNullOutputPathDiscardsOutput(t *testing.T) {
	st := &statespec.State{QueryLanguage: statespec.JSONPath, OutputPath: strPtr("")}
	raw := parse(t, `{"a": 1}`)
	result := parse(t, `{"ok": true}`)

	out, _, err := For(st).Postprocess(st, raw, result, value.Null(), nil)
	require.NoError(t, err)
	assert.True(t, out.IsNull())
}

func TestJSONataPreprocessArguments(t *testing.T) {
	st := &statespec.State{
		QueryLanguage: statespec.JSONata,
		Arguments:     parse(t, `{"doubled": "{% $states.input.n * 2 %}"}`),
	}
	raw := parse(t, `{"n": 5}`)

	out, err := For(st).Preprocess(st, raw, value.Null(), nil)
	require.NoError(t, err)
	d, _ := out.Get("doubled")
	assert.Equal(t, float64(10), d.Number())
}

func TestJSONataPostprocessOutputAndAssign(t *testing.T) {
	st := &statespec.State{
		QueryLanguage: statespec.JSONata,
		Output:        parse(t, `"{% $states.result.status %}"`),
		Assign:        parse(t, `{"lastStatus": "{% $states.result.status %}"}`),
	}
	raw := parse(t, `{}`)
	result := parse(t, `{"status": "done"}`)

	out, assigned, err := For(st).Postprocess(st, raw, result, value.Null(), nil)
	require.NoError(t, err)
	assert.Equal(t, "done", out.Str())
	lastStatus, _ := assigned.Get("lastStatus")
	assert.Equal(t, "done", lastStatus.Str())
}
