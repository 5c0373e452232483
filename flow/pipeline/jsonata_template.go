// Copyright 2022 Drone.IO Inc. All rights reserved.
// Use of this source code is governed by the Polyform License
// that can be found in the LICENSE file.

package pipeline

import (
	"github.com/stepbench/aslengine/asl/value"
	"github.com/stepbench/aslengine/expr/jsonata"
)

// buildStatesBinding constructs the `$states` object JSONata fields are
// evaluated against (spec §4.2/§4.3): `input` is always the state's raw
// input, `result` is populated once a task has produced a value, and
// `context` is the execution context object.
func buildStatesBinding(input, result, ctx value.Value, hasResult bool) value.Value {
	v := value.Object().Set("input", input).Set("context", ctx)
	if hasResult {
		v = v.Set("result", result)
	}
	return v
}

func jsonataBindings(vars map[string]value.Value, states value.Value) map[string]value.Value {
	out := make(map[string]value.Value, len(vars)+1)
	for k, v := range vars {
		out[k] = v
	}
	out["states"] = states
	return out
}

// ExpandJSONataTemplate is the exported entry point other packages
// (the Map state's ItemSelector, when QueryLanguage is JSONata) use to
// run the same template expansion Arguments/Output/Assign get.
func ExpandJSONataTemplate(tmpl value.Value, bindings map[string]value.Value) (value.Value, error) {
	return expandJSONataTemplate(tmpl, bindings)
}

// BuildStatesBinding is the exported entry point for constructing a
// `$states` binding object outside the strategy pipeline (the Map
// state's ItemSelector).
func BuildStatesBinding(input, result, ctx value.Value, hasResult bool) value.Value {
	return buildStatesBinding(input, result, ctx, hasResult)
}

// JSONataBindings is the exported entry point pairing a variable scope
// with a `$states` binding, outside the strategy pipeline.
func JSONataBindings(vars map[string]value.Value, states value.Value) map[string]value.Value {
	return jsonataBindings(vars, states)
}

// expandJSONataTemplate walks a JSONata-mode payload template (spec
// §4.3): any string value that is a `{% ... %}` escape is evaluated and
// replaces the whole node; object/array nodes are recursed into so a
// template may mix literal structure with embedded expressions; every
// other value is a literal.
func expandJSONataTemplate(tmpl value.Value, bindings map[string]value.Value) (value.Value, error) {
	switch tmpl.Kind() {
	case value.KindString:
		if !jsonata.Detect(tmpl.Str()) {
			return tmpl, nil
		}
		return jsonata.Eval(jsonata.Unwrap(tmpl.Str()), value.Null(), bindings)
	case value.KindObject:
		out := value.Object()
		for _, k := range tmpl.Keys() {
			expanded, err := expandJSONataTemplate(tmpl.MustGet(k), bindings)
			if err != nil {
				return value.Value{}, err
			}
			out = out.Set(k, expanded)
		}
		return out, nil
	case value.KindArray:
		items := tmpl.Items()
		out := make([]value.Value, len(items))
		for i, it := range items {
			expanded, err := expandJSONataTemplate(it, bindings)
			if err != nil {
				return value.Value{}, err
			}
			out[i] = expanded
		}
		return value.ArraySlice(out), nil
	default:
		return tmpl, nil
	}
}
