package exec

import (
	"context"
	"fmt"
	"sync"

	"github.com/stepbench/aslengine/asl/statespec"
	"github.com/stepbench/aslengine/asl/value"
	"github.com/stepbench/aslengine/internal/safego"
)

// MachineRunner executes a nested state machine (a Parallel branch or a
// Map ItemProcessor) to completion and returns its final output. It is
// supplied by the runtime package, which owns the top-level execution
// loop; exec never imports runtime, avoiding an import cycle.
type MachineRunner func(ctx context.Context, machine *statespec.StateMachine, input value.Value) (value.Value, error)

// ExecuteParallel runs every branch of a Parallel state concurrently
// (spec §4.5.9). The first branch to fail cancels the shared context so
// siblings still running their own Task mocks observe it promptly; all
// branches are still waited on before ExecuteParallel returns.
func ExecuteParallel(ctx context.Context, st *statespec.State, input value.Value, run MachineRunner) (value.Value, error) {
	branches := st.Parallel.Branches
	results := make([]value.Value, len(branches))
	errs := make([]error, len(branches))

	childCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	var cancelOnce sync.Once

	var wg sync.WaitGroup
	for i, b := range branches {
		i, b := i, b
		safego.SafeGoWithWaitGroup(fmt.Sprintf("parallel-branch-%d", i), &wg, func() {
			r, err := run(childCtx, b, input)
			results[i] = r
			errs[i] = err
			if err != nil {
				cancelOnce.Do(cancel)
			}
		})
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return value.Value{}, err
		}
	}
	return value.ArraySlice(results), nil
}
