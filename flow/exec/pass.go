package exec

import (
	"github.com/stepbench/aslengine/asl/statespec"
	"github.com/stepbench/aslengine/asl/value"
)

// ExecutePass returns a Pass state's Result if one was declared,
// otherwise its input unchanged (spec §3 Pass).
func ExecutePass(st *statespec.State, input value.Value) value.Value {
	if st.Pass.HasResult {
		return st.Pass.Result
	}
	return input
}
