// Copyright 2022 Drone.IO Inc. All rights reserved.
// Use of this source code is governed by the Polyform License
// that can be found in the LICENSE file.

package runtime

import (
	"github.com/stepbench/aslengine/asl/statespec"
	"github.com/stepbench/aslengine/asl/value"
	aslerrors "github.com/stepbench/aslengine/errors"
	"github.com/stepbench/aslengine/flow/pipeline"
)

// buildCatchData builds the data a matched Catch rule hands to its
// Next state (spec §4.6): a JSONPath Catch merges an {Error, Cause}
// object at ResultPath -- absent or the literal "$" replace the whole
// input with the error object, an explicit null keeps the original
// input and discards the error object, anything else sets the dotted
// path into a clone of the original input; a JSONata Catch binds the
// same object as $states.errorOutput and evaluates its Output
// template, defaulting to the error object when Output is unset.
func buildCatchData(st *statespec.State, rule *statespec.CatchRule, err error, data, stateCtx value.Value) value.Value {
	errType, cause := errorDetail(err)
	errObj := value.Object().Set("Error", value.String(errType)).Set("Cause", value.String(cause))

	if st.QueryLanguage == statespec.JSONata {
		states := pipeline.BuildStatesBinding(data, value.Null(), stateCtx, false).Set("errorOutput", errObj)
		bindings := pipeline.JSONataBindings(nil, states)
		if !rule.Output.IsNull() {
			if out, oerr := pipeline.ExpandJSONataTemplate(rule.Output, bindings); oerr == nil {
				return out
			}
		}
		return errObj
	}

	if rule.ResultPath == nil {
		return errObj
	}
	switch *rule.ResultPath {
	case "": // explicit null: discard the error object, keep original input
		return data
	case "$": // explicit full replace, same as absent
		return errObj
	default:
		return value.SetDotted(data, *rule.ResultPath, errObj)
	}
}

// errorDetail extracts the canonical ASL error type and human cause
// from an error flowing out of dispatch: a typed *aslerrors.ExecError
// carries both directly, anything else falls back to errorType's
// generic classification and its Error() string.
func errorDetail(err error) (string, string) {
	if ee, ok := err.(*aslerrors.ExecError); ok {
		return ee.ErrType, ee.Cause
	}
	return errorType(err), err.Error()
}
