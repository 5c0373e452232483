package statespec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stepbench/aslengine/asl/value"
)

func mustParse(t *testing.T, doc string) value.Value {
	t.Helper()
	v, err := value.FromJSON([]byte(doc))
	require.NoError(t, err)
	return v
}

func TestBuildSimpleTaskMachine(t *testing.T) {
	raw := mustParse(t, `{
		"StartAt": "Step1",
		"States": {
			"Step1": {"Type": "Task", "Resource": "arn:aws:lambda:::fn", "End": true}
		}
	}`)

	sm, err := Build(raw)
	require.NoError(t, err)
	assert.Equal(t, "Step1", sm.StartAt)
	assert.Equal(t, JSONPath, sm.QueryLanguage)
	st := sm.States["Step1"]
	require.NotNil(t, st)
	assert.Equal(t, KindTask, st.Kind)
	assert.True(t, st.End)
}

func TestPtrFieldDistinguishesAbsentFromExplicitNull(t *testing.T) {
	raw := mustParse(t, `{
		"StartAt": "Step1",
		"States": {
			"Step1": {"Type": "Task", "Resource": "arn:aws:lambda:::fn", "ResultPath": null, "End": true}
		}
	}`)

	sm, err := Build(raw)
	require.NoError(t, err)
	st := sm.States["Step1"]
	require.NotNil(t, st.ResultPath)
	assert.Equal(t, "", *st.ResultPath)

	raw2 := mustParse(t, `{
		"StartAt": "Step1",
		"States": {
			"Step1": {"Type": "Task", "Resource": "arn:aws:lambda:::fn", "End": true}
		}
	}`)
	sm2, err := Build(raw2)
	require.NoError(t, err)
	assert.Nil(t, sm2.States["Step1"].ResultPath)
}

func TestJSONataParametersForbidden(t *testing.T) {
	raw := mustParse(t, `{
		"QueryLanguage": "JSONata",
		"StartAt": "Step1",
		"States": {
			"Step1": {"Type": "Task", "Resource": "x", "Parameters": {"a": 1}, "End": true}
		}
	}`)
	_, err := Build(raw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Parameters field is not supported in JSONata mode. Use Arguments field instead")
}

func TestWaitRequiresExactlyOneDurationField(t *testing.T) {
	raw := mustParse(t, `{
		"StartAt": "W",
		"States": {
			"W": {"Type": "Wait", "Seconds": 5, "Timestamp": "2020-01-01T00:00:00Z", "End": true}
		}
	}`)
	_, err := Build(raw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Wait state must have exactly one wait duration field")
}

func TestFailCannotHaveBothCauseAndCausePath(t *testing.T) {
	raw := mustParse(t, `{
		"StartAt": "F",
		"States": {
			"F": {"Type": "Fail", "Cause": "boom", "CausePath": "$.x"}
		}
	}`)
	_, err := Build(raw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Fail state cannot have both Cause and CausePath fields")
}

func TestChoiceRequiresNonEmptyChoices(t *testing.T) {
	raw := mustParse(t, `{
		"StartAt": "C",
		"States": {
			"C": {"Type": "Choice", "Choices": [], "Default": "End"},
			"End": {"Type": "Succeed"}
		}
	}`)
	_, err := Build(raw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Choice state requires non-empty Choices array")
}

func TestMapQueryLanguageOverridesPropagateToItemProcessorNotParallelBranches(t *testing.T) {
	raw := mustParse(t, `{
		"StartAt": "M",
		"States": {
			"M": {
				"Type": "Map",
				"QueryLanguage": "JSONata",
				"Items": "{% $states.input.items %}",
				"ItemProcessor": {
					"StartAt": "Inner",
					"States": { "Inner": {"Type": "Pass", "End": true} }
				},
				"End": true
			}
		}
	}`)
	sm, err := Build(raw)
	require.NoError(t, err)
	inner := sm.States["M"].Map.ItemProcessor
	assert.Equal(t, JSONata, inner.QueryLanguage)

	rawParallel := mustParse(t, `{
		"StartAt": "P",
		"States": {
			"P": {
				"Type": "Parallel",
				"QueryLanguage": "JSONata",
				"Branches": [
					{"StartAt": "B1", "States": {"B1": {"Type": "Pass", "End": true}}}
				],
				"End": true
			}
		}
	}`)
	sm2, err := Build(rawParallel)
	require.NoError(t, err)
	branch := sm2.States["P"].Parallel.Branches[0]
	assert.Equal(t, JSONPath, branch.QueryLanguage, "branches inherit the machine's language, not the Parallel state's override")
}

func TestMultipleViolationsEnumeratedInOneMessage(t *testing.T) {
	raw := mustParse(t, `{
		"QueryLanguage": "JSONata",
		"StartAt": "S",
		"States": {
			"S": {"Type": "Task", "Resource": "x", "Parameters": {}, "InputPath": "$.a", "End": true}
		}
	}`)
	_, err := Build(raw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Parameters field is not supported")
	assert.Contains(t, err.Error(), "InputPath field is not supported")
}
