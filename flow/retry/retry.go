// Copyright 2022 Drone.IO Inc. All rights reserved.
// Use of this source code is governed by the Polyform License
// that can be found in the LICENSE file.

// Package retry implements the Retry/Catch error-recovery pipeline of
// spec §4.6 on top of cenkalti/backoff/v4's ExponentialBackOff.
package retry

import (
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/stepbench/aslengine/asl/statespec"
	aslerrors "github.com/stepbench/aslengine/errors"
)

// Action is the outcome of resolving a failed state against its Retry
// and Catch rules.
type Action int

const (
	// ActionFail means no Retry rule matches (or all are exhausted) and
	// no Catch rule matches: the error propagates out of the state.
	ActionFail Action = iota
	// ActionRetry means the matching Retry rule still has attempts left;
	// the caller should wait Delay and re-invoke the state.
	ActionRetry
	// ActionCatch means a Catch rule matched; execution should transition
	// to its Next state.
	ActionCatch
)

// Tracker holds the per-rule attempt counters and backoff generators
// for one state-invocation instance (one Task execution within one Map
// iteration, one Parallel branch, etc.). A Tracker must not be shared
// across concurrent invocations of the same state.
type Tracker struct {
	rules []ruleState
}

type ruleState struct {
	attempts int
	backoff  *backoff.ExponentialBackOff
}

// NewTracker allocates a Tracker sized to a state's Retry array.
func NewTracker(retryRuleCount int) *Tracker {
	return &Tracker{rules: make([]ruleState, retryRuleCount)}
}

// Resolve evaluates one failure against retries then catches, in the
// AWS-documented order: the first Retry rule whose ErrorEquals matches
// governs (others are never considered, matched or not); once that
// rule's MaxAttempts is exhausted, resolution falls through to Catch
// rather than trying a later Retry rule.
func (t *Tracker) Resolve(retries []statespec.RetryRule, catches []statespec.CatchRule, errType string) (Action, time.Duration, *statespec.CatchRule) {
	for i, r := range retries {
		if !aslerrors.MatchesErrorEquals(errType, r.ErrorEquals) {
			continue
		}
		rs := &t.rules[i]
		maxAttempts := r.MaxAttempts
		if maxAttempts == 0 {
			maxAttempts = 3
		}
		if rs.attempts >= maxAttempts {
			break
		}
		if rs.backoff == nil {
			rs.backoff = newBackoff(r)
		}
		delay := rs.backoff.NextBackOff()
		rs.attempts++
		return ActionRetry, delay, nil
	}

	for i := range catches {
		c := &catches[i]
		if aslerrors.MatchesErrorEquals(errType, c.ErrorEquals) {
			return ActionCatch, 0, c
		}
	}
	return ActionFail, 0, nil
}

func newBackoff(r statespec.RetryRule) *backoff.ExponentialBackOff {
	exp := backoff.NewExponentialBackOff()
	interval := r.IntervalSeconds
	if interval <= 0 {
		interval = 1
	}
	rate := r.BackoffRate
	if rate <= 0 {
		rate = 2.0
	}
	exp.InitialInterval = time.Duration(interval * float64(time.Second))
	exp.Multiplier = rate
	if r.MaxDelaySeconds > 0 {
		exp.MaxInterval = time.Duration(r.MaxDelaySeconds * float64(time.Second))
	} else {
		exp.MaxInterval = backoff.DefaultMaxInterval
	}
	exp.MaxElapsedTime = 0 // MaxAttempts governs termination, not elapsed wall time
	if r.JitterStrategy == "FULL" {
		exp.RandomizationFactor = 1.0
	} else {
		exp.RandomizationFactor = 0
	}
	exp.Reset()
	return exp
}
