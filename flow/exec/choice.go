// Copyright 2022 Drone.IO Inc. All rights reserved.
// Use of this source code is governed by the Polyform License
// that can be found in the LICENSE file.

package exec

import (
	"github.com/stepbench/aslengine/asl/statespec"
	"github.com/stepbench/aslengine/asl/value"
	"github.com/stepbench/aslengine/expr/jsonata"
	aslerrors "github.com/stepbench/aslengine/errors"
)

// ChoiceResult reports which branch a Choice state selected, and
// whether it was the Default.
type ChoiceResult struct {
	Next      string
	IsDefault bool
}

// ExecuteChoice evaluates a Choice state's rules in declaration order
// and returns the first match's Next, falling back to Default, or
// failing with ChoiceNoMatchError (spec §4.4/§7).
func ExecuteChoice(st *statespec.State, input, statesBinding value.Value) (ChoiceResult, error) {
	for _, rule := range st.Choice.Choices {
		matched, err := evaluateRule(st.QueryLanguage, rule, input, statesBinding)
		if err != nil {
			return ChoiceResult{}, err
		}
		if matched {
			return ChoiceResult{Next: rule.Next}, nil
		}
	}
	if st.Choice.Default != "" {
		return ChoiceResult{Next: st.Choice.Default, IsDefault: true}, nil
	}
	return ChoiceResult{}, aslerrors.ChoiceNoMatchError(st.Name)
}

func evaluateRule(ql statespec.QueryLanguage, rule statespec.ChoiceRule, input, statesBinding value.Value) (bool, error) {
	if ql == statespec.JSONata {
		result, err := jsonata.Eval(jsonata.Unwrap(rule.Condition), value.Null(), map[string]value.Value{"states": statesBinding})
		if err != nil {
			return false, err
		}
		return isTruthy(result), nil
	}

	switch {
	case rule.Comparator != nil:
		return evaluateComparator(rule.Comparator, input)
	case len(rule.And) > 0:
		for _, sub := range rule.And {
			ok, err := evaluateRule(ql, sub, input, statesBinding)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case len(rule.Or) > 0:
		for _, sub := range rule.Or {
			ok, err := evaluateRule(ql, sub, input, statesBinding)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case rule.Not != nil:
		ok, err := evaluateRule(ql, *rule.Not, input, statesBinding)
		return !ok, err
	}
	return false, nil
}

// isTruthy implements JavaScript's Boolean(value) coercion for a
// JSONata Choice Condition's result (spec §4.5.3/§9): null, false, 0,
// "", and an empty array are falsy; everything else -- including a
// non-empty array or an object -- is truthy. This is a deliberate
// divergence from AWS's own strict-boolean Choice semantics, which
// only accept a literal true/false.
func isTruthy(v value.Value) bool {
	switch {
	case v.IsNull():
		return false
	case v.IsBool():
		return v.Bool()
	case v.IsNumber():
		return v.Number() != 0
	case v.IsString():
		return v.Str() != ""
	case v.IsArray():
		return v.Len() > 0
	default:
		return true
	}
}
