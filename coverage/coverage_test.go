package coverage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stepbench/aslengine/asl/statespec"
	"github.com/stepbench/aslengine/asl/value"
)

func TestPercentageNeverExceeds100(t *testing.T) {
	tr := NewTracker(2)
	tr.VisitState("A")
	tr.VisitState("B")
	tr.VisitState("A") // re-visit must not inflate percentage past 100
	tr.VisitState("C") // a state outside totalStates must not inflate it either
	assert.Equal(t, float64(100), tr.Percentage())
}

func TestPercentageZeroTotalIsZero(t *testing.T) {
	tr := NewTracker(0)
	assert.Equal(t, float64(0), tr.Percentage())
}

func TestSnapshotReportsChoiceBranchesAndMapIterations(t *testing.T) {
	tr := NewTracker(3)
	tr.VisitState("C")
	tr.VisitChoiceBranch("C", "A")
	tr.VisitMapIteration("M")
	tr.VisitMapIteration("M")
	tr.VisitParallelBranch("P", 0)
	tr.VisitParallelBranch("P", 1)

	snap := tr.Snapshot()
	assert.Equal(t, 2, snap.MapIterationRuns["M"])
	assert.ElementsMatch(t, []string{"A"}, snap.ChoiceBranches["C"])
	assert.ElementsMatch(t, []int{0, 1}, snap.ParallelRuns["P"])
}

func TestCountStatesIncludesNestedMapAndParallelMachines(t *testing.T) {
	raw := map[string]any{
		"StartAt": "Fan",
		"States": map[string]any{
			"Fan": map[string]any{
				"Type": "Parallel", "Next": "Each",
				"Branches": []any{
					map[string]any{
						"StartAt": "A",
						"States":  map[string]any{"A": map[string]any{"Type": "Pass", "End": true}},
					},
				},
			},
			"Each": map[string]any{
				"Type": "Map", "End": true,
				"ItemsPath": "$.items",
				"ItemProcessor": map[string]any{
					"StartAt": "B",
					"States": map[string]any{
						"B": map[string]any{"Type": "Pass", "Next": "C"},
						"C": map[string]any{"Type": "Pass", "End": true},
					},
				},
			},
		},
	}
	m, err := statespec.Build(value.MustFromGo(raw))
	require.NoError(t, err)

	// 2 top-level (Fan, Each) + 1 in the Parallel branch + 2 in the Map's
	// ItemProcessor = 5, counted once regardless of how many times the
	// Map iterates or the Parallel branch runs.
	assert.Equal(t, 5, CountStates(m))
}
