package exec

import (
	"fmt"
	"time"

	"github.com/stepbench/aslengine/asl/statespec"
	"github.com/stepbench/aslengine/asl/value"
	"github.com/stepbench/aslengine/expr/jsonpath"
)

// ComputeWaitDuration resolves a Wait state's configured delay without
// sleeping: this is a local test harness, not a real scheduler, so the
// computed duration is reported to the caller (and the coverage/test
// report) rather than blocking execution (spec's real-network/timing
// Non-goal).
func ComputeWaitDuration(st *statespec.State, input value.Value) (time.Duration, error) {
	w := st.Wait
	switch {
	case w.Seconds != nil:
		return time.Duration(*w.Seconds * float64(time.Second)), nil
	case w.SecondsPath != nil:
		v, found, err := jsonpath.Eval(*w.SecondsPath, input)
		if err != nil {
			return 0, err
		}
		if !found || !v.IsNumber() {
			return 0, fmt.Errorf("wait state %q: SecondsPath did not resolve to a number", st.Name)
		}
		return time.Duration(v.Number() * float64(time.Second)), nil
	case w.Timestamp != nil:
		return durationUntil(*w.Timestamp)
	case w.TimestampPath != nil:
		v, found, err := jsonpath.Eval(*w.TimestampPath, input)
		if err != nil {
			return 0, err
		}
		if !found || !v.IsString() {
			return 0, fmt.Errorf("wait state %q: TimestampPath did not resolve to a string", st.Name)
		}
		return durationUntil(v.Str())
	}
	return 0, fmt.Errorf("wait state %q: no duration field resolved", st.Name)
}

func durationUntil(ts string) (time.Duration, error) {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp %q: %w", ts, err)
	}
	d := time.Until(t)
	if d < 0 {
		return 0, nil
	}
	return d, nil
}
