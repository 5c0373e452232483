package exec

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/stepbench/aslengine/asl/statespec"
	"github.com/stepbench/aslengine/asl/value"
	"github.com/stepbench/aslengine/internal/safego"
)

// ExecuteMap runs one ItemProcessor instance per prepared input,
// bounding concurrency to maxConcurrency (0 means unbounded) with
// golang.org/x/sync/semaphore, matching both InlineMap and
// DistributedMap's shared iteration machinery (spec §4.5.7/§4.5.8).
// Results and per-iteration errors are returned index-aligned with
// inputs so the caller can apply ToleratedFailureCount/Percentage
// before deciding whether the overall Map state fails.
func ExecuteMap(ctx context.Context, processor *statespec.StateMachine, inputs []value.Value, maxConcurrency int, run MachineRunner) ([]value.Value, []error) {
	results := make([]value.Value, len(inputs))
	errs := make([]error, len(inputs))

	var sem *semaphore.Weighted
	if maxConcurrency > 0 {
		sem = semaphore.NewWeighted(int64(maxConcurrency))
	}

	var wg sync.WaitGroup
	for i, in := range inputs {
		i, in := i, in
		if sem != nil {
			if err := sem.Acquire(ctx, 1); err != nil {
				errs[i] = err
				continue
			}
		}
		safego.SafeGoWithWaitGroup(fmt.Sprintf("map-iteration-%d", i), &wg, func() {
			if sem != nil {
				defer sem.Release(1)
			}
			r, err := run(ctx, processor, in)
			results[i] = r
			errs[i] = err
		})
	}
	wg.Wait()
	return results, errs
}

// ToleratedFailureCount/Percentage resolution (spec §4.5.7): Within
// returns true when the number of failed iterations stays within the
// configured tolerance, so the overall Map state should still succeed
// despite some iteration failures.
func ToleratedFailureWithin(failed, total int, count *int, pct *float64) bool {
	if count == nil && pct == nil {
		return failed == 0
	}
	if count != nil && failed > *count {
		return false
	}
	if pct != nil && total > 0 {
		actualPct := float64(failed) / float64(total) * 100
		if actualPct > *pct {
			return false
		}
	}
	return true
}
