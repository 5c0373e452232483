package exec

import (
	"github.com/stepbench/aslengine/asl/statespec"
	"github.com/stepbench/aslengine/asl/value"
	aslerrors "github.com/stepbench/aslengine/errors"
	"github.com/stepbench/aslengine/expr/jsonpath"
)

// ExecuteFail resolves a Fail state's Error/Cause (literal or *Path)
// against its input and returns the ExecError the machine terminates
// with (spec §3 Fail).
func ExecuteFail(st *statespec.State, input value.Value) (*aslerrors.ExecError, error) {
	f := st.Fail
	errType := f.Error
	if f.ErrorPath != "" {
		v, found, err := jsonpath.Eval(f.ErrorPath, input)
		if err != nil {
			return nil, err
		}
		if found {
			errType = v.Describe()
		}
	}
	cause := f.Cause
	if f.CausePath != "" {
		v, found, err := jsonpath.Eval(f.CausePath, input)
		if err != nil {
			return nil, err
		}
		if found {
			cause = v.Describe()
		}
	}
	if errType == "" {
		errType = aslerrors.TypeRuntime
	}
	return aslerrors.NewExecError(errType, cause), nil
}
