// Copyright 2022 Drone.IO Inc. All rights reserved.
// Use of this source code is governed by the Polyform License
// that can be found in the LICENSE file.

package runtime

import "github.com/stepbench/aslengine/asl/value"

// NewContextObject builds the `$$` context object (spec §4.2) an
// execution carries throughout its lifetime: Execution metadata plus a
// StateMachine identity. WithState returns a shallow copy scoped to the
// currently-entered state, as AWS's own context object does.
func NewContextObject(executionName string, input value.Value, startTime string) value.Value {
	execution := value.Object().
		Set("Id", value.String(executionName)).
		Set("Name", value.String(executionName)).
		Set("StartTime", value.String(startTime)).
		Set("Input", input)

	return value.Object().
		Set("Execution", execution).
		Set("StateMachine", value.Object().Set("Name", value.String(executionName)))
}

// WithState returns ctxObj with its State field set to name, leaving
// Execution/StateMachine untouched.
func WithState(ctxObj value.Value, name string) value.Value {
	out := value.Object()
	for _, k := range ctxObj.Keys() {
		out = out.Set(k, ctxObj.MustGet(k))
	}
	return out.Set("State", value.Object().Set("Name", value.String(name)))
}
