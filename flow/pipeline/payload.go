// Copyright 2022 Drone.IO Inc. All rights reserved.
// Use of this source code is governed by the Polyform License
// that can be found in the LICENSE file.

package pipeline

import (
	"fmt"
	"strings"

	"github.com/stepbench/aslengine/asl/value"
	"github.com/stepbench/aslengine/expr/jsonpath"
)

// ExpandJSONPathTemplate is the exported entry point other packages
// (the Map state's ItemSelector) use to run the same payload-template
// expansion a state's Parameters/ResultSelector/Assign fields get.
func ExpandJSONPathTemplate(tmpl, data, ctx value.Value, vars map[string]value.Value) (value.Value, error) {
	return expandJSONPathTemplate(tmpl, data, ctx, vars)
}

// expandJSONPathTemplate walks a JSONPath-mode payload template (spec
// §4.3): any object key ending in ".$" has its string value evaluated
// (intrinsic call, context reference, bound variable, or plain path)
// and is re-keyed without the suffix; every other value is either
// recursed into (object/array) or passed through as a literal.
func expandJSONPathTemplate(tmpl, data, ctx value.Value, vars map[string]value.Value) (value.Value, error) {
	switch tmpl.Kind() {
	case value.KindObject:
		out := value.Object()
		for _, k := range tmpl.Keys() {
			v := tmpl.MustGet(k)
			if strings.HasSuffix(k, ".$") {
				if !v.IsString() {
					return value.Value{}, fmt.Errorf("payload template field %q must be a string expression", k)
				}
				resolved, err := jsonpath.EvalField(v.Str(), data, ctx, vars)
				if err != nil {
					return value.Value{}, fmt.Errorf("field %q: %w", k, err)
				}
				out = out.Set(strings.TrimSuffix(k, ".$"), resolved)
				continue
			}
			expanded, err := expandJSONPathTemplate(v, data, ctx, vars)
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
			expanded, err := expandJSONPathTemplate(it, data, ctx, vars)
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
