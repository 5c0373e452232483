package runtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stepbench/aslengine/asl/statespec"
	"github.com/stepbench/aslengine/asl/value"
	"github.com/stepbench/aslengine/mock"
)

func buildMachine(t *testing.T, raw map[string]any) *statespec.StateMachine {
	t.Helper()
	m, err := statespec.Build(value.MustFromGo(raw))
	require.NoError(t, err)
	return m
}

func TestRunTaskThenChoiceThenSucceed(t *testing.T) {
	raw := map[string]any{
		"StartAt": "Fetch",
		"States": map[string]any{
			"Fetch": map[string]any{
				"Type": "Task", "Resource": "x",
				"ResultPath": "$.status", "Next": "Branch",
			},
			"Branch": map[string]any{
				"Type": "Choice",
				"Choices": []any{
					map[string]any{
						"Variable": "$.status", "StringEquals": "OK",
						"Next": "Done",
					},
				},
				"Default": "Bad",
			},
			"Done": map[string]any{"Type": "Succeed"},
			"Bad":  map[string]any{"Type": "Fail", "Error": "Nope"},
		},
	}
	m := buildMachine(t, raw)

	ok, err := mock.NewMockedResponse(map[string]mock.Outcome{"0": {Return: value.String("OK")}})
	require.NoError(t, err)
	mockEngine := mock.NewEngine(mock.Config{
		StateToResponse: map[string]string{"Fetch": "ok"},
		Responses:       map[string]*mock.MockedResponse{"ok": ok},
	})

	eng := NewEngine(m, mockEngine, 4, "exec-1")
	result := eng.Run(context.Background(), value.MustFromGo(map[string]any{"id": 1}), "2026-01-01T00:00:00Z")

	assert.Equal(t, "SUCCEEDED", result.Status)
	assert.Equal(t, float64(1), result.Output.MustGet("id").Number())
	assert.Equal(t, "OK", result.Output.MustGet("status").Str())
	assert.Len(t, result.Trace, 3)
	assert.True(t, eng.Coverage.Percentage() > 0)
}

func TestRunRetryThenSucceed(t *testing.T) {
	raw := map[string]any{
		"StartAt": "Flaky",
		"States": map[string]any{
			"Flaky": map[string]any{
				"Type": "Task", "Resource": "x", "End": true,
				"Retry": []any{
					map[string]any{"ErrorEquals": []any{"States.ALL"}, "MaxAttempts": float64(3), "IntervalSeconds": float64(0)},
				},
			},
		},
	}
	m := buildMachine(t, raw)

	r, err := mock.NewMockedResponse(map[string]mock.Outcome{
		"0": {Throw: &mock.ThrowSpec{Error: "States.TaskFailed", Cause: "boom"}},
		"1": {Return: value.String("ok")},
	})
	require.NoError(t, err)
	mockEngine := mock.NewEngine(mock.Config{
		StateToResponse: map[string]string{"Flaky": "r"},
		Responses:       map[string]*mock.MockedResponse{"r": r},
	})

	eng := NewEngine(m, mockEngine, 1, "exec-2")
	result := eng.Run(context.Background(), value.Null(), "2026-01-01T00:00:00Z")

	require.Equal(t, "SUCCEEDED", result.Status)
	assert.Equal(t, "ok", result.Output.Str())
	require.Len(t, result.Trace, 2)
	assert.Equal(t, 1, result.Trace[0].Attempts)
	assert.Equal(t, 2, result.Trace[1].Attempts)
}

func TestRunCatchRoutesToRecoveryState(t *testing.T) {
	raw := map[string]any{
		"StartAt": "Risky",
		"States": map[string]any{
			"Risky": map[string]any{
				"Type": "Task", "Resource": "x",
				"ResultPath": "$.out",
				"Catch": []any{
					map[string]any{"ErrorEquals": []any{"States.ALL"}, "Next": "Recover", "ResultPath": "$.err"},
				},
				"Next": "NeverReached",
			},
			"Recover": map[string]any{"Type": "Succeed"},
			"NeverReached": map[string]any{"Type": "Succeed"},
		},
	}
	m := buildMachine(t, raw)

	r, err := mock.NewMockedResponse(map[string]mock.Outcome{
		"0": {Throw: &mock.ThrowSpec{Error: "States.TaskFailed", Cause: "down"}},
	})
	require.NoError(t, err)
	mockEngine := mock.NewEngine(mock.Config{
		StateToResponse: map[string]string{"Risky": "r"},
		Responses:       map[string]*mock.MockedResponse{"r": r},
	})

	eng := NewEngine(m, mockEngine, 3, "exec-3")
	result := eng.Run(context.Background(), value.MustFromGo(map[string]any{"id": 7}), "2026-01-01T00:00:00Z")

	require.Equal(t, "SUCCEEDED", result.Status)
	assert.Equal(t, "States.TaskFailed", result.Output.MustGet("err").MustGet("Error").Str())
	assert.Equal(t, float64(7), result.Output.MustGet("id").Number())
}

func TestRunParallelAggregatesBranches(t *testing.T) {
	raw := map[string]any{
		"StartAt": "Fan",
		"States": map[string]any{
			"Fan": map[string]any{
				"Type": "Parallel", "End": true,
				"Branches": []any{
					map[string]any{
						"StartAt": "A",
						"States":  map[string]any{"A": map[string]any{"Type": "Pass", "End": true}},
					},
					map[string]any{
						"StartAt": "B",
						"States":  map[string]any{"B": map[string]any{"Type": "Pass", "End": true}},
					},
				},
			},
		},
	}
	m := buildMachine(t, raw)
	mockEngine := mock.NewEngine(mock.Config{})
	eng := NewEngine(m, mockEngine, 3, "exec-4")

	result := eng.Run(context.Background(), value.Int(5), "2026-01-01T00:00:00Z")
	require.Equal(t, "SUCCEEDED", result.Status)
	assert.Equal(t, 2, result.Output.Len())
}

func TestRunMapRunsOneIterationPerItem(t *testing.T) {
	raw := map[string]any{
		"StartAt": "Each",
		"States": map[string]any{
			"Each": map[string]any{
				"Type": "Map", "End": true,
				"ItemsPath": "$.items",
				"ItemProcessor": map[string]any{
					"StartAt": "Double",
					"States": map[string]any{
						"Double": map[string]any{"Type": "Pass", "End": true},
					},
				},
			},
		},
	}
	m := buildMachine(t, raw)
	mockEngine := mock.NewEngine(mock.Config{})
	eng := NewEngine(m, mockEngine, 2, "exec-5")

	result := eng.Run(context.Background(), value.MustFromGo(map[string]any{"items": []any{1, 2, 3}}), "2026-01-01T00:00:00Z")
	require.Equal(t, "SUCCEEDED", result.Status)
	assert.Equal(t, 3, result.Output.Len())
	assert.Equal(t, 3, eng.Coverage.Snapshot().MapIterationRuns["Each"])
}
