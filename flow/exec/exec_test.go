package exec

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stepbench/aslengine/asl/statespec"
	"github.com/stepbench/aslengine/asl/value"
	aslerrors "github.com/stepbench/aslengine/errors"
)

func TestEvaluateComparatorStringEquals(t *testing.T) {
	input := value.MustFromGo(map[string]any{"status": "OK"})
	c := &statespec.ChoiceComparator{Variable: "$.status", Op: "StringEquals", Literal: value.String("OK")}
	ok, err := evaluateComparator(c, input)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvaluateComparatorIsPresentMissing(t *testing.T) {
	input := value.MustFromGo(map[string]any{})
	c := &statespec.ChoiceComparator{Variable: "$.missing", Op: "IsPresent", Literal: value.Bool(false)}
	ok, err := evaluateComparator(c, input)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMatchGlob(t *testing.T) {
	assert.True(t, matchGlob("error*", "error: boom"))
	assert.False(t, matchGlob("error*", "warning: boom"))
	assert.True(t, matchGlob("*.log", "app.log"))
}

func TestExecuteChoiceDefaultFallback(t *testing.T) {
	st := &statespec.State{
		Name:          "C",
		QueryLanguage: statespec.JSONPath,
		Choice: &statespec.ChoiceState{
			Choices: []statespec.ChoiceRule{
				{Next: "A", Comparator: &statespec.ChoiceComparator{Variable: "$.x", Op: "NumericEquals", Literal: value.Int(1)}},
			},
			Default: "Fallback",
		},
	}
	res, err := ExecuteChoice(st, value.MustFromGo(map[string]any{"x": 2}), value.Null())
	require.NoError(t, err)
	assert.Equal(t, "Fallback", res.Next)
	assert.True(t, res.IsDefault)
}

func TestEvaluateComparatorNonIsPresentOnMissingPathRaisesPathError(t *testing.T) {
	input := value.MustFromGo(map[string]any{})
	c := &statespec.ChoiceComparator{Variable: "$.missing", Op: "StringEquals", Literal: value.String("x")}
	_, err := evaluateComparator(c, input)
	require.Error(t, err)
	pe, ok := err.(*aslerrors.PathError)
	require.True(t, ok)
	assert.Equal(t, "$.missing", pe.Path)
}

func TestExecuteChoiceJSONataUsesJSTruthySemantics(t *testing.T) {
	truthyCases := []struct {
		name  string
		input value.Value
	}{
		{"non-empty string", value.String("hi")},
		{"non-zero number", value.Int(1)},
		{"non-empty array", value.ArraySlice([]value.Value{value.Int(1)})},
		{"true", value.Bool(true)},
	}
	for _, tc := range truthyCases {
		ok, err := evaluateRule(statespec.JSONata,
			statespec.ChoiceRule{Condition: "{% $states %}"},
			value.Null(), tc.input)
		require.NoError(t, err, tc.name)
		assert.True(t, ok, tc.name)
	}

	falsyCases := []struct {
		name  string
		input value.Value
	}{
		{"null", value.Null()},
		{"false", value.Bool(false)},
		{"zero", value.Int(0)},
		{"empty string", value.String("")},
		{"empty array", value.ArraySlice(nil)},
	}
	for _, tc := range falsyCases {
		ok, err := evaluateRule(statespec.JSONata,
			statespec.ChoiceRule{Condition: "{% $states %}"},
			value.Null(), tc.input)
		require.NoError(t, err, tc.name)
		assert.False(t, ok, tc.name)
	}
}

func TestExecuteChoiceNoMatchNoDefaultFails(t *testing.T) {
	st := &statespec.State{
		Name:          "C",
		QueryLanguage: statespec.JSONPath,
		Choice: &statespec.ChoiceState{
			Choices: []statespec.ChoiceRule{
				{Next: "A", Comparator: &statespec.ChoiceComparator{Variable: "$.x", Op: "NumericEquals", Literal: value.Int(1)}},
			},
		},
	}
	_, err := ExecuteChoice(st, value.MustFromGo(map[string]any{"x": 2}), value.Null())
	require.Error(t, err)
}

type fakeMock struct {
	out value.Value
	err error
	delay time.Duration
}

func (f *fakeMock) Invoke(string, value.Value) (value.Value, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.out, f.err
}

func TestExecuteTaskReturnsMockResult(t *testing.T) {
	st := &statespec.State{Name: "T", Task: &statespec.TaskState{Resource: "x"}}
	m := &fakeMock{out: value.String("ok")}
	v, err := ExecuteTask(context.Background(), st, value.Null(), m)
	require.NoError(t, err)
	assert.Equal(t, "ok", v.Str())
}

func TestExecuteTaskTimeoutSurfacesTimeoutError(t *testing.T) {
	st := &statespec.State{Name: "T", Task: &statespec.TaskState{Resource: "x", TimeoutSeconds: 1}}
	m := &fakeMock{out: value.Null(), delay: 2 * time.Second}
	_, err := ExecuteTask(context.Background(), st, value.Null(), m)
	require.Error(t, err)
	ee, ok := err.(*aslerrors.ExecError)
	require.True(t, ok)
	assert.Equal(t, aslerrors.TypeTimeout, ee.Type())
}

func TestExecuteFailResolvesErrorPath(t *testing.T) {
	st := &statespec.State{Name: "F", Fail: &statespec.FailState{ErrorPath: "$.err", Cause: "boom"}}
	input := value.MustFromGo(map[string]any{"err": "Custom.Error"})
	ee, err := ExecuteFail(st, input)
	require.NoError(t, err)
	assert.Equal(t, "Custom.Error", ee.ErrType)
	assert.Equal(t, "boom", ee.Cause)
}

func TestComputeWaitDurationSeconds(t *testing.T) {
	secs := 5.0
	st := &statespec.State{Name: "W", Wait: &statespec.WaitState{Seconds: &secs}}
	d, err := ComputeWaitDuration(st, value.Null())
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, d)
}

func TestExecuteParallelAggregatesBranchOutputs(t *testing.T) {
	st := &statespec.State{
		Name: "P",
		Parallel: &statespec.ParallelState{
			Branches: []*statespec.StateMachine{{}, {}},
		},
	}
	run := func(_ context.Context, _ *statespec.StateMachine, input value.Value) (value.Value, error) {
		return input, nil
	}
	out, err := ExecuteParallel(context.Background(), st, value.Int(7), run)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Len())
}

func TestToleratedFailureWithin(t *testing.T) {
	count := 2
	assert.True(t, ToleratedFailureWithin(2, 10, &count, nil))
	assert.False(t, ToleratedFailureWithin(3, 10, &count, nil))
	pct := 50.0
	assert.True(t, ToleratedFailureWithin(5, 10, nil, &pct))
	assert.False(t, ToleratedFailureWithin(6, 10, nil, &pct))
}
