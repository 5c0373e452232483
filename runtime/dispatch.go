// Copyright 2022 Drone.IO Inc. All rights reserved.
// Use of this source code is governed by the Polyform License
// that can be found in the LICENSE file.

package runtime

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/stepbench/aslengine/asl/statespec"
	"github.com/stepbench/aslengine/asl/value"
	aslerrors "github.com/stepbench/aslengine/errors"
	"github.com/stepbench/aslengine/expr/jsonata"
	"github.com/stepbench/aslengine/expr/jsonpath"
	"github.com/stepbench/aslengine/flow/batch"
	stateexec "github.com/stepbench/aslengine/flow/exec"
	"github.com/stepbench/aslengine/flow/pipeline"
	"github.com/stepbench/aslengine/mock/itemreader"
	"github.com/stepbench/aslengine/mock/resultwriter"
)

// dispatch runs a single state's executor (spec §4.5), routing on Kind
// to the flow/exec functions. The returned string is the chosen Next
// for a Choice state and is ignored for every other kind; waited
// reports a Wait state's computed (never slept) delay.
func (e *Engine) dispatch(ctx context.Context, st *statespec.State, effInput value.Value, vars map[string]value.Value, stateCtx value.Value, path string, trace *[]StateExecution) (value.Value, string, time.Duration, error) {
	switch st.Kind {
	case statespec.KindTask:
		v, err := stateexec.ExecuteTask(ctx, st, effInput, e.Mock)
		return v, "", 0, err

	case statespec.KindPass:
		return stateexec.ExecutePass(st, effInput), "", 0, nil

	case statespec.KindChoice:
		binding := value.Object().Set("input", effInput).Set("context", stateCtx)
		res, err := stateexec.ExecuteChoice(st, effInput, binding)
		if err != nil {
			return value.Value{}, "", 0, err
		}
		e.Coverage.VisitChoiceBranch(path, res.Next)
		return effInput, res.Next, 0, nil

	case statespec.KindWait:
		d, err := stateexec.ComputeWaitDuration(st, effInput)
		if err != nil {
			return value.Value{}, "", 0, err
		}
		return effInput, "", d, nil

	case statespec.KindSucceed:
		return effInput, "", 0, nil

	case statespec.KindFail:
		ee, err := stateexec.ExecuteFail(st, effInput)
		if err != nil {
			return value.Value{}, "", 0, err
		}
		return value.Value{}, "", 0, ee

	case statespec.KindInlineMap, statespec.KindDistributedMap:
		v, err := e.dispatchMap(ctx, st, effInput, vars, stateCtx, path, trace)
		return v, "", 0, err

	case statespec.KindParallel:
		v, err := e.dispatchParallel(ctx, st, effInput, vars, stateCtx, path, trace)
		return v, "", 0, err
	}
	return value.Value{}, "", 0, fmt.Errorf("runtime: unsupported state kind %v", st.Kind)
}

// dispatchParallel fans a Parallel state's branches out through
// flow/exec.ExecuteParallel, giving every branch its own coverage path
// (spec §4.5.9/§8) so sibling branches never collide on state names.
func (e *Engine) dispatchParallel(ctx context.Context, st *statespec.State, effInput value.Value, vars map[string]value.Value, stateCtx value.Value, path string, trace *[]StateExecution) (value.Value, error) {
	var counter int32
	run := func(ctx context.Context, machine *statespec.StateMachine, input value.Value) (value.Value, error) {
		idx := int(atomic.AddInt32(&counter, 1)) - 1
		e.Coverage.VisitParallelBranch(path, idx)
		branchPath := fmt.Sprintf("%s[%d]", path, idx)
		return e.runMachine(ctx, machine, input, vars, stateCtx, branchPath, trace)
	}
	return stateexec.ExecuteParallel(ctx, st, effInput, run)
}

// dispatchMap resolves a Map state's item list, applies ItemSelector
// per item, runs flow/exec.ExecuteMap bounded by MaxConcurrency, then
// checks the result against ToleratedFailureCount/Percentage (spec
// §4.5.7/§4.5.8). InlineMap and DistributedMap share this path;
// DistributedMap additionally resolves its dataset through an
// ItemReader, groups items into batches through an ItemBatcher, and
// archives the collected results through a ResultWriter when
// configured.
func (e *Engine) dispatchMap(ctx context.Context, st *statespec.State, effInput value.Value, vars map[string]value.Value, stateCtx value.Value, path string, trace *[]StateExecution) (value.Value, error) {
	var items []value.Value
	var err error
	if st.Kind == statespec.KindDistributedMap && st.Map.ItemReader != nil {
		items, err = itemreader.Resolve(st.Map.ItemReader, e.Mock.ItemReaderBuckets())
	} else {
		items, err = resolveMapItems(st, effInput, stateCtx, vars)
	}
	if err != nil {
		return value.Value{}, err
	}

	if st.Kind == statespec.KindDistributedMap {
		items, err = batch.Batch(items, st.Map.ItemBatcher)
		if err != nil {
			return value.Value{}, err
		}
	}

	maxConcurrency := st.Map.MaxConcurrency
	if st.Map.MaxConcurrencyPath != "" {
		if v, found, perr := jsonpath.Eval(st.Map.MaxConcurrencyPath, effInput); perr == nil && found && v.IsNumber() {
			maxConcurrency = int(v.Number())
		}
	}

	iterInputs := make([]value.Value, len(items))
	itemCtx := WithState(stateCtx, st.Name)
	for i, it := range items {
		in, err := applyItemSelector(st, it, i, itemCtx, vars)
		if err != nil {
			return value.Value{}, err
		}
		iterInputs[i] = in
	}

	// DistributedMap's ItemProcessor does not inherit the outer variable
	// scope at all, not even a copy: each iteration starts from an empty
	// store. InlineMap, by contrast, passes the launching state's scope
	// on, and runMachine gives each iteration its own copy of it, the
	// same way it does for a Parallel branch.
	iterVars := vars
	if st.Kind == statespec.KindDistributedMap {
		iterVars = map[string]value.Value{}
	}

	var counter int32
	run := func(ctx context.Context, machine *statespec.StateMachine, input value.Value) (value.Value, error) {
		e.Coverage.VisitMapIteration(path)
		idx := int(atomic.AddInt32(&counter, 1)) - 1
		iterPath := fmt.Sprintf("%s[%d]", path, idx)
		return e.runMachine(ctx, machine, input, iterVars, stateCtx, iterPath, trace)
	}

	results, errs := stateexec.ExecuteMap(ctx, st.Map.ItemProcessor, iterInputs, maxConcurrency, run)

	failed := 0
	var firstErr error
	for _, err := range errs {
		if err != nil {
			failed++
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if !stateexec.ToleratedFailureWithin(failed, len(items), st.Map.ToleratedFailureCount, st.Map.ToleratedFailurePercentage) {
		if firstErr == nil {
			firstErr = aslerrors.RuntimeError(fmt.Sprintf("Map state %q failed", st.Name))
		}
		return value.Value{}, firstErr
	}

	if st.Kind == statespec.KindDistributedMap && st.Map.ResultWriter != nil && e.Mock.ResultWriterRoot() != "" {
		coll := resultwriter.New(len(results))
		for i, r := range results {
			coll.Set(i, r)
		}
		if _, err := coll.Flush(st.Map.ResultWriter, e.Mock.ResultWriterRoot()); err != nil {
			return value.Value{}, err
		}
	}
	return value.ArraySlice(results), nil
}

// resolveMapItems evaluates a Map state's item source: ItemsPath
// against the effective input in JSONPath mode (defaulting to "$", the
// whole input), or the Items template/expression in JSONata mode.
func resolveMapItems(st *statespec.State, effInput, stateCtx value.Value, vars map[string]value.Value) ([]value.Value, error) {
	if st.QueryLanguage == statespec.JSONata {
		items := st.Map.Items
		if items.IsString() && jsonata.Detect(items.Str()) {
			bindings := pipeline.JSONataBindings(vars, pipeline.BuildStatesBinding(effInput, value.Null(), stateCtx, false))
			result, err := jsonata.Eval(jsonata.Unwrap(items.Str()), value.Null(), bindings)
			if err != nil {
				return nil, err
			}
			items = result
		}
		if !items.IsArray() {
			return nil, aslerrors.RuntimeError(fmt.Sprintf("Map state %q Items did not resolve to an array", st.Name))
		}
		return items.Items(), nil
	}

	itemsPath := st.Map.ItemsPath
	if itemsPath == "" {
		itemsPath = "$"
	}
	v, found, err := jsonpath.Eval(itemsPath, effInput)
	if err != nil {
		return nil, err
	}
	if !found || !v.IsArray() {
		return nil, aslerrors.RuntimeError(fmt.Sprintf("Map state %q ItemsPath did not resolve to an array", st.Name))
	}
	return v.Items(), nil
}

// applyItemSelector expands a Map state's per-item ItemSelector
// template, passing the item itself through unchanged when no
// ItemSelector is configured.
func applyItemSelector(st *statespec.State, item value.Value, index int, itemCtx value.Value, vars map[string]value.Value) (value.Value, error) {
	if st.Map.ItemSelector.IsNull() {
		return item, nil
	}
	if st.QueryLanguage == statespec.JSONata {
		bindings := pipeline.JSONataBindings(vars, pipeline.BuildStatesBinding(item, value.Null(), itemCtx, false))
		return pipeline.ExpandJSONataTemplate(st.Map.ItemSelector, bindings)
	}
	return pipeline.ExpandJSONPathTemplate(st.Map.ItemSelector, item, itemCtx, vars)
}
