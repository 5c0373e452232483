// Copyright 2022 Drone.IO Inc. All rights reserved.
// Use of this source code is governed by the Polyform License
// that can be found in the LICENSE file.

// Package runtime drives the top-level state-transition loop (spec
// §4.6): it wires the data-flow strategies, state executors, Retry/Catch
// resolution, the mock engine and the coverage tracker into one
// execution of a compiled state machine.
package runtime

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/stepbench/aslengine/asl/statespec"
	"github.com/stepbench/aslengine/asl/value"
	"github.com/stepbench/aslengine/coverage"
	aslerrors "github.com/stepbench/aslengine/errors"
	"github.com/stepbench/aslengine/flow/pipeline"
	"github.com/stepbench/aslengine/flow/retry"
	"github.com/stepbench/aslengine/mock"
)

// Engine executes one compiled StateMachine against a mock configuration,
// recording a full trace and coverage report as it goes.
type Engine struct {
	Machine       *statespec.StateMachine
	Mock          *mock.Engine
	Coverage      *coverage.Tracker
	ExecutionName string
}

// NewEngine wires a compiled machine to a mock configuration. totalStates
// should count every state across the root machine and any nested
// ItemProcessor/branch machines, for coverage.Tracker's denominator.
func NewEngine(machine *statespec.StateMachine, mockEngine *mock.Engine, totalStates int, executionName string) *Engine {
	return &Engine{
		Machine:       machine,
		Mock:          mockEngine,
		Coverage:      coverage.NewTracker(totalStates),
		ExecutionName: executionName,
	}
}

// Run executes the machine from its StartAt state to a terminal state
// (or an unrecovered failure) and returns the full result.
func (e *Engine) Run(ctx context.Context, input value.Value, startTime string) *ExecutionResult {
	ctxObj := NewContextObject(e.ExecutionName, input, startTime)
	var trace []StateExecution

	output, err := e.runMachine(ctx, e.Machine, input, map[string]value.Value{}, ctxObj, "", &trace)

	result := &ExecutionResult{
		Status:   "SUCCEEDED",
		Output:   output,
		Trace:    trace,
		Coverage: e.Coverage.Snapshot(),
	}
	if err != nil {
		result.Status = "FAILED"
		result.Error = err.Error()
		result.ErrorType = errorType(err)
	}
	return result
}

// runMachine runs machine to a terminal state and returns its output. It
// doubles as a stateexec.MachineRunner: Map/Parallel executors call back
// into it for their nested ItemProcessor/branch machines, so every
// nesting level shares the same dispatch, Retry/Catch and coverage logic.
func (e *Engine) runMachine(ctx context.Context, machine *statespec.StateMachine, input value.Value, vars map[string]value.Value, ctxObj value.Value, pathPrefix string, trace *[]StateExecution) (value.Value, error) {
	current := machine.StartAt
	data := input

	// Map/Parallel branches each get their own copy of the variable
	// scope: Assign updates never leak back into a sibling iteration or
	// the state that launched them (spec §3 Ownership).
	vars = cloneVars(vars)

	for {
		st, ok := machine.States[current]
		if !ok {
			return value.Value{}, fmt.Errorf("runtime: state %q not found", current)
		}
		path := current
		if pathPrefix != "" {
			path = pathPrefix + "." + current
		}
		e.Coverage.VisitState(path)
		stateCtx := WithState(ctxObj, current)

		strategy := pipeline.For(st)
		effInput, err := strategy.Preprocess(st, data, stateCtx, vars)
		if err != nil {
			return value.Value{}, aslerrors.RuntimeError(fmt.Sprintf("%s: %v", path, err))
		}

		result, chosenNext, execErr := e.dispatchWithRetry(ctx, st, effInput, vars, stateCtx, path, trace)
		if execErr != nil {
			cs, isCatch := execErr.(*catchSentinel)
			if !isCatch {
				return value.Value{}, execErr
			}
			data = buildCatchData(st, cs.rule, cs.err, data, stateCtx)
			current = cs.rule.Next
			continue
		}

		if st.Kind == statespec.KindChoice {
			current = chosenNext
			continue
		}

		output, assigned, err := strategy.Postprocess(st, data, result, stateCtx, vars)
		if err != nil {
			return value.Value{}, aslerrors.RuntimeError(fmt.Sprintf("%s: %v", path, err))
		}
		if !assigned.IsNull() {
			vars = mergeVars(vars, assigned)
		}
		data = output

		if st.Kind == statespec.KindSucceed || st.End {
			return data, nil
		}
		current = st.Next
	}
}

// dispatchWithRetry runs one state's executor, applying its Retry rules
// (not real-time: the retry.Tracker computes a delay, but it is
// neither slept nor recorded in the trace, since this is a local
// deterministic harness, not a real scheduler).
// On exhaustion it resolves Catch and returns the matching rule via the
// chosenNext/execErr contract consumed by runMachine.
func (e *Engine) dispatchWithRetry(ctx context.Context, st *statespec.State, effInput value.Value, vars map[string]value.Value, stateCtx value.Value, path string, trace *[]StateExecution) (value.Value, string, error) {
	tracker := retry.NewTracker(len(st.Retry))
	attempts := 0
	for {
		attempts++
		result, next, waited, err := e.dispatch(ctx, st, effInput, vars, stateCtx, path, trace)
		entry := StateExecution{Path: path, Name: st.Name, Input: effInput, Attempts: attempts, Waited: waited}
		if err != nil {
			entry.Error = err.Error()
			entry.ErrorType = errorType(err)
			*trace = append(*trace, entry)

			if st.Kind == statespec.KindFail {
				return value.Value{}, "", err
			}

			action, _, catch := tracker.Resolve(st.Retry, st.Catch, errorType(err))
			switch action {
			case retry.ActionRetry:
				logrus.WithField("state", st.Name).WithField("attempt", attempts).
					WithField("error", err).Debugln("retrying state after mocked failure")
				continue
			case retry.ActionCatch:
				return value.Value{}, "", asCatchError(catch, err)
			default:
				return value.Value{}, "", err
			}
		}
		entry.Output = result
		*trace = append(*trace, entry)
		return result, next, nil
	}
}

// catchSentinel carries the matched CatchRule alongside the original
// error so runMachine's Retry/Catch boundary (which only sees errors,
// per dispatchWithRetry's signature) can recover the rule without a
// second resolution pass.
type catchSentinel struct {
	rule *statespec.CatchRule
	err  error
}

func (c *catchSentinel) Error() string { return c.err.Error() }
func (c *catchSentinel) Unwrap() error { return c.err }

func asCatchError(rule *statespec.CatchRule, err error) error {
	return &catchSentinel{rule: rule, err: err}
}

func errorType(err error) string {
	if cs, ok := err.(*catchSentinel); ok {
		return errorType(cs.err)
	}
	type typed interface{ Type() string }
	if t, ok := err.(typed); ok {
		return t.Type()
	}
	return aslerrors.TypeRuntime
}

func cloneVars(vars map[string]value.Value) map[string]value.Value {
	out := make(map[string]value.Value, len(vars))
	for k, v := range vars {
		out[k] = v.Clone()
	}
	return out
}

func mergeVars(vars map[string]value.Value, assigned value.Value) map[string]value.Value {
	if !assigned.IsObject() {
		return vars
	}
	out := cloneVars(vars)
	for _, k := range assigned.Keys() {
		out[k] = assigned.MustGet(k)
	}
	return out
}
