// Copyright 2022 Drone.IO Inc. All rights reserved.
// Use of this source code is governed by the Polyform License
// that can be found in the LICENSE file.

package runtime

import (
	"time"

	"github.com/stepbench/aslengine/asl/value"
	"github.com/stepbench/aslengine/coverage"
)

// StateExecution is one entry of an execution's trace (spec §6): the
// state entered, the input/output it produced, and any error.
type StateExecution struct {
	Path      string        `json:"path"`
	Name      string        `json:"name"`
	Input     value.Value   `json:"input"`
	Output    value.Value   `json:"output,omitempty"`
	Error     string        `json:"error,omitempty"`
	ErrorType string        `json:"errorType,omitempty"`
	Attempts  int           `json:"attempts,omitempty"`
	Waited    time.Duration `json:"waited,omitempty"`
}

// ExecutionResult is the external, serializable outcome of a single Run
// (spec §6): final status, output, full trace, and the coverage the run
// produced.
type ExecutionResult struct {
	Status    string           `json:"status"` // SUCCEEDED | FAILED
	Output    value.Value      `json:"output,omitempty"`
	Error     string           `json:"error,omitempty"`
	ErrorType string           `json:"errorType,omitempty"`
	Trace     []StateExecution `json:"trace"`
	Coverage  coverage.Report  `json:"coverage"`
}
