// Copyright 2022 Drone.IO Inc. All rights reserved.
// Use of this source code is governed by the Polyform License
// that can be found in the LICENSE file.

// Package pipeline implements the two data-flow strategies of spec
// §4.3: the JSONPath pipeline (InputPath -> Parameters -> task ->
// ResultSelector -> ResultPath -> OutputPath -> Assign) and the
// JSONata pipeline (Arguments -> task -> Output -> Assign, each bound
// to the $states context object). A state's effective QueryLanguage
// selects which one runs.
package pipeline

import (
	"github.com/stepbench/aslengine/asl/statespec"
	"github.com/stepbench/aslengine/asl/value"
	"github.com/stepbench/aslengine/expr/jsonpath"
)

// Strategy transforms a state's raw input into the value handed to its
// executor, and later folds a produced result back into the state's
// output and any variable assignments.
type Strategy interface {
	// Preprocess computes the value the state's executor receives.
	Preprocess(st *statespec.State, rawInput, ctx value.Value, vars map[string]value.Value) (value.Value, error)

	// Postprocess computes the state's output (handed to Next) and any
	// variable updates (merged into the running Assign scope) from the
	// executor's result.
	Postprocess(st *statespec.State, rawInput, result, ctx value.Value, vars map[string]value.Value) (output, assigned value.Value, err error)
}

// For selects the strategy matching a state's effective query language.
func For(st *statespec.State) Strategy {
	if st.QueryLanguage == statespec.JSONata {
		return JSONataStrategy{}
	}
	return JSONPathStrategy{}
}

// JSONPathStrategy implements the legacy InputPath/Parameters/...
// pipeline.
type JSONPathStrategy struct{}

func (JSONPathStrategy) Preprocess(st *statespec.State, rawInput, ctx value.Value, vars map[string]value.Value) (value.Value, error) {
	in := rawInput
	if st.InputPath != nil {
		switch *st.InputPath {
		case "": // explicit null: discard input
			in = value.Null()
		case "$": // explicit identity
			in = rawInput
		default:
			v, found, err := jsonpath.Eval(*st.InputPath, rawInput)
			if err != nil {
				return value.Value{}, err
			}
			if !found {
				in = value.Null()
			} else {
				in = v
			}
		}
	}
	if st.Parameters.IsNull() {
		return in, nil
	}
	return expandJSONPathTemplate(st.Parameters, in, ctx, vars)
}

func (JSONPathStrategy) Postprocess(st *statespec.State, rawInput, result, ctx value.Value, vars map[string]value.Value) (value.Value, value.Value, error) {
	selected := result
	if !st.ResultSelector.IsNull() {
		var err error
		selected, err = expandJSONPathTemplate(st.ResultSelector, result, ctx, vars)
		if err != nil {
			return value.Value{}, value.Value{}, err
		}
	}

	merged := selected
	if st.ResultPath != nil {
		switch *st.ResultPath {
		case "": // explicit null: discard the result, keep the original input
			merged = rawInput
		case "$": // explicit full replace, same as absent
			merged = selected
		default:
			merged = value.SetDotted(rawInput, *st.ResultPath, selected)
		}
	}

	output := merged
	if st.OutputPath != nil {
		switch *st.OutputPath {
		case "": // explicit null: discard
			output = value.Null()
		case "$": // explicit identity
			output = merged
		default:
			v, found, err := jsonpath.Eval(*st.OutputPath, merged)
			if err != nil {
				return value.Value{}, value.Value{}, err
			}
			if !found {
				output = value.Null()
			} else {
				output = v
			}
		}
	}

	assigned := value.Null()
	if !st.Assign.IsNull() {
		var err error
		assigned, err = expandJSONPathTemplate(st.Assign, merged, ctx, vars)
		if err != nil {
			return value.Value{}, value.Value{}, err
		}
	}

	return output, assigned, nil
}

// JSONataStrategy implements the Arguments/Output/Assign pipeline,
// where every field may embed a `{% ... %}` JSONata expression bound
// to $states.input/$states.result/$states.context.
type JSONataStrategy struct{}

func (JSONataStrategy) Preprocess(st *statespec.State, rawInput, ctx value.Value, vars map[string]value.Value) (value.Value, error) {
	if st.Arguments.IsNull() {
		return rawInput, nil
	}
	bindings := jsonataBindings(vars, buildStatesBinding(rawInput, value.Null(), ctx, false))
	return expandJSONataTemplate(st.Arguments, bindings)
}

func (JSONataStrategy) Postprocess(st *statespec.State, rawInput, result, ctx value.Value, vars map[string]value.Value) (value.Value, value.Value, error) {
	bindings := jsonataBindings(vars, buildStatesBinding(rawInput, result, ctx, true))

	output := result
	if !st.Output.IsNull() {
		var err error
		output, err = expandJSONataTemplate(st.Output, bindings)
		if err != nil {
			return value.Value{}, value.Value{}, err
		}
	}

	assigned := value.Null()
	if !st.Assign.IsNull() {
		var err error
		assigned, err = expandJSONataTemplate(st.Assign, bindings)
		if err != nil {
			return value.Value{}, value.Value{}, err
		}
	}

	return output, assigned, nil
}
