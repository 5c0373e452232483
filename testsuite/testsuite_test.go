package testsuite

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

func TestRunPassesWhenAssertionsHold(t *testing.T) {
	raw := map[string]any{
		"StartAt": "Double",
		"States": map[string]any{
			"Double": map[string]any{"Type": "Pass", "ResultPath": "$.out", "End": true},
		},
	}
	m := buildMachine(t, raw)

	tc := TestCase{
		Name:           "pass-through",
		ExecutionName:  "exec-1",
		Input:          value.MustFromGo(map[string]any{"id": 1}),
		StartTime:      "2026-01-01T00:00:00Z",
		MockConfig:     mock.Config{},
		ExpectedStatus: "SUCCEEDED",
		CheckOutput:    true,
		ExpectedOutput: value.MustFromGo(map[string]any{"id": float64(1), "out": map[string]any{"id": float64(1)}}),
		States: []StateAssertion{
			{Path: "Double", Expected: value.MustFromGo(map[string]any{"id": float64(1)})},
		},
	}

	tr := Run(context.Background(), tc, m, 1)
	assert.True(t, tr.Passed, "unexpected failures: %+v", tr.Failures)
	assert.Empty(t, tr.Failures)
}

func TestRunReportsMismatchedOutput(t *testing.T) {
	raw := map[string]any{
		"StartAt": "Pass1",
		"States": map[string]any{
			"Pass1": map[string]any{"Type": "Pass", "End": true},
		},
	}
	m := buildMachine(t, raw)

	tc := TestCase{
		Name:           "mismatch",
		ExecutionName:  "exec-2",
		Input:          value.Int(1),
		StartTime:      "2026-01-01T00:00:00Z",
		MockConfig:     mock.Config{},
		ExpectedStatus: "SUCCEEDED",
		CheckOutput:    true,
		ExpectedOutput: value.Int(2),
	}

	tr := Run(context.Background(), tc, m, 1)
	require.False(t, tr.Passed)
	require.Len(t, tr.Failures, 1)
	assert.Equal(t, "output", tr.Failures[0].Assertion)
}

func TestRunChecksMapIterationCount(t *testing.T) {
	raw := map[string]any{
		"StartAt": "Each",
		"States": map[string]any{
			"Each": map[string]any{
				"Type": "Map", "End": true,
				"ItemsPath": "$.items",
				"ItemProcessor": map[string]any{
					"StartAt": "Noop",
					"States":  map[string]any{"Noop": map[string]any{"Type": "Pass", "End": true}},
				},
			},
		},
	}
	m := buildMachine(t, raw)

	tc := TestCase{
		Name:          "map-count",
		ExecutionName: "exec-3",
		Input:         value.MustFromGo(map[string]any{"items": []any{1, 2}}),
		StartTime:     "2026-01-01T00:00:00Z",
		MockConfig:    mock.Config{},
		Maps:          []MapAssertion{{Path: "Each", ExpectedIterations: 2}},
	}

	tr := Run(context.Background(), tc, m, 2)
	assert.True(t, tr.Passed, "unexpected failures: %+v", tr.Failures)
}
