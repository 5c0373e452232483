// Copyright 2022 Drone.IO Inc. All rights reserved.
// Use of this source code is governed by the Polyform License
// that can be found in the LICENSE file.

// Package exec implements the per-state execution logic that runs
// between a state's pre- and post-processing steps (spec §4.5): Task
// invokes the mock engine, Pass/Wait pass their input through (Wait
// additionally computing, but never actually sleeping on, its delay),
// Choice selects a branch, Succeed/Fail terminate the machine.
package exec

import (
	"context"
	"fmt"
	"time"

	"github.com/stepbench/aslengine/asl/statespec"
	"github.com/stepbench/aslengine/asl/value"
	aslerrors "github.com/stepbench/aslengine/errors"
)

// MockInvoker is the subset of mock.Engine that the Task executor
// needs; kept as an interface here so flow/exec does not import mock
// (mock instead depends on the shared value/errors packages).
type MockInvoker interface {
	Invoke(stateName string, input value.Value) (value.Value, error)
}

// ExecuteTask resolves a Task state's effective input against the mock
// engine. TimeoutSeconds is enforced locally via context even though no
// real network call happens, so a test can still exercise a States.Timeout
// Catch/Retry path by configuring a slow mock.
func ExecuteTask(ctx context.Context, st *statespec.State, input value.Value, engine MockInvoker) (value.Value, error) {
	if st.Task.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(st.Task.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	type result struct {
		v   value.Value
		err error
	}
	out := make(chan result, 1)
	go func() {
		v, err := engine.Invoke(st.Name, input)
		out <- result{v, err}
	}()

	select {
	case <-ctx.Done():
		return value.Value{}, aslerrors.TimeoutError(fmt.Sprintf("state %q exceeded TimeoutSeconds", st.Name))
	case r := <-out:
		return r.v, r.err
	}
}
