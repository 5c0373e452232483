package retry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stepbench/aslengine/asl/statespec"
	aslerrors "github.com/stepbench/aslengine/errors"
)

func TestRetryExhaustsThenFallsToCatch(t *testing.T) {
	retries := []statespec.RetryRule{
		{ErrorEquals: []string{aslerrors.TypeTaskFailed}, MaxAttempts: 2, IntervalSeconds: 1, BackoffRate: 2},
	}
	catches := []statespec.CatchRule{
		{ErrorEquals: []string{aslerrors.TypeAll}, Next: "Fallback"},
	}
	tr := NewTracker(len(retries))

	action, _, _ := tr.Resolve(retries, catches, aslerrors.TypeTaskFailed)
	assert.Equal(t, ActionRetry, action)

	action, _, _ = tr.Resolve(retries, catches, aslerrors.TypeTaskFailed)
	assert.Equal(t, ActionRetry, action)

	action, _, catch := tr.Resolve(retries, catches, aslerrors.TypeTaskFailed)
	assert.Equal(t, ActionCatch, action)
	assert.Equal(t, "Fallback", catch.Next)
}

func TestNoMatchingRuleFails(t *testing.T) {
	tr := NewTracker(0)
	action, _, _ := tr.Resolve(nil, nil, aslerrors.TypeTaskFailed)
	assert.Equal(t, ActionFail, action)
}

func TestStatesAllCatchesEverything(t *testing.T) {
	catches := []statespec.CatchRule{{ErrorEquals: []string{aslerrors.TypeAll}, Next: "X"}}
	tr := NewTracker(0)
	action, _, catch := tr.Resolve(nil, catches, "SomeCustomError")
	assert.Equal(t, ActionCatch, action)
	assert.Equal(t, "X", catch.Next)
}
