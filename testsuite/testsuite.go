// Copyright 2022 Drone.IO Inc. All rights reserved.
// Use of this source code is governed by the Polyform License
// that can be found in the LICENSE file.

// Package testsuite runs a TestCase against runtime.Engine and diffs
// the actual outcome against the assertions the case declares (spec
// §2.9): final status/output, the error type on an expected failure,
// individual state outputs along the trace, and coverage assertions
// for Map iterations and Parallel branches. TestCases arrive already
// parsed (the cli package's YAML/JSON decoding is out of scope here).
package testsuite

import (
	"context"
	"fmt"

	"github.com/stepbench/aslengine/asl/statespec"
	"github.com/stepbench/aslengine/asl/value"
	"github.com/stepbench/aslengine/mock"
	"github.com/stepbench/aslengine/runtime"
)

// StateAssertion checks one state's (or nested path's) output against
// an expected value.
type StateAssertion struct {
	Path     string // e.g. "ValidateOrder" or "ProcessItems[0].Ship"
	Expected value.Value
}

// MapAssertion checks how many iterations a Map state ran.
type MapAssertion struct {
	Path              string
	ExpectedIterations int
}

// ParallelAssertion checks which branch indices a Parallel state ran.
type ParallelAssertion struct {
	Path             string
	ExpectedBranches []int
}

// TestCase is one named run of a state machine against a mock
// configuration, plus the assertions its expected outcome declares.
type TestCase struct {
	Name          string
	ExecutionName string
	Input         value.Value
	StartTime     string
	MockConfig    mock.Config

	ExpectedStatus    string // "SUCCEEDED" | "FAILED"; empty skips the check
	ExpectedOutput    value.Value
	CheckOutput       bool
	ExpectedErrorType string

	States    []StateAssertion
	Maps      []MapAssertion
	Parallels []ParallelAssertion

	MinCoveragePercentage float64
}

// Failure is one assertion that did not hold.
type Failure struct {
	Assertion string
	Expected  string
	Actual    string
}

// TestResult is the outcome of running one TestCase.
type TestResult struct {
	Name     string
	Passed   bool
	Failures []Failure
	Result   *runtime.ExecutionResult
}

// Run executes a TestCase against a compiled machine and diffs the
// result against its assertions. totalStates is passed straight
// through to runtime.NewEngine's coverage denominator.
func Run(ctx context.Context, tc TestCase, machine *statespec.StateMachine, totalStates int) *TestResult {
	mockEngine := mock.NewEngine(tc.MockConfig)
	eng := runtime.NewEngine(machine, mockEngine, totalStates, tc.ExecutionName)
	result := eng.Run(ctx, tc.Input, tc.StartTime)

	tr := &TestResult{Name: tc.Name, Passed: true, Result: result}

	check := func(ok bool, assertion, expected, actual string) {
		if ok {
			return
		}
		tr.Passed = false
		tr.Failures = append(tr.Failures, Failure{Assertion: assertion, Expected: expected, Actual: actual})
	}

	if tc.ExpectedStatus != "" {
		check(result.Status == tc.ExpectedStatus, "status", tc.ExpectedStatus, result.Status)
	}
	if tc.CheckOutput {
		check(value.Equal(tc.ExpectedOutput, result.Output), "output",
			describe(tc.ExpectedOutput), describe(result.Output))
	}
	if tc.ExpectedErrorType != "" {
		check(result.ErrorType == tc.ExpectedErrorType, "errorType", tc.ExpectedErrorType, result.ErrorType)
	}

	byPath := make(map[string]runtime.StateExecution, len(result.Trace))
	for _, se := range result.Trace {
		byPath[se.Path] = se
	}
	for _, sa := range tc.States {
		se, ok := byPath[sa.Path]
		if !ok {
			check(false, fmt.Sprintf("state %s output", sa.Path), describe(sa.Expected), "(state not visited)")
			continue
		}
		check(value.Equal(sa.Expected, se.Output), fmt.Sprintf("state %s output", sa.Path),
			describe(sa.Expected), describe(se.Output))
	}

	for _, ma := range tc.Maps {
		actual := result.Coverage.MapIterationRuns[ma.Path]
		check(actual == ma.ExpectedIterations, fmt.Sprintf("map %s iterations", ma.Path),
			fmt.Sprintf("%d", ma.ExpectedIterations), fmt.Sprintf("%d", actual))
	}

	for _, pa := range tc.Parallels {
		actual := result.Coverage.ParallelRuns[pa.Path]
		check(sameIntSet(pa.ExpectedBranches, actual), fmt.Sprintf("parallel %s branches", pa.Path),
			fmt.Sprintf("%v", pa.ExpectedBranches), fmt.Sprintf("%v", actual))
	}

	if tc.MinCoveragePercentage > 0 {
		check(result.Coverage.Percentage >= tc.MinCoveragePercentage, "coverage percentage",
			fmt.Sprintf(">= %.1f", tc.MinCoveragePercentage), fmt.Sprintf("%.1f", result.Coverage.Percentage))
	}

	return tr
}

func describe(v value.Value) string {
	data, err := value.ToJSON(v)
	if err != nil {
		return v.Describe()
	}
	return string(data)
}

func sameIntSet(want, got []int) bool {
	if len(want) != len(got) {
		return false
	}
	seen := make(map[int]bool, len(got))
	for _, g := range got {
		seen[g] = true
	}
	for _, w := range want {
		if !seen[w] {
			return false
		}
	}
	return true
}
