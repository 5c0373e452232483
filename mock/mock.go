// Copyright 2022 Drone.IO Inc. All rights reserved.
// Use of this source code is governed by the Polyform License
// that can be found in the LICENSE file.

// Package mock implements the local Task-state mock engine (spec §5):
// a state's Resource is never actually invoked; instead each call is
// resolved against a configured MockedResponse, one of five variants:
// fixed (a literal outcome), conditional (an ordered when/default
// structural match against the task input), stateful (a call-count-
// range-keyed sequence, the same shape AWS's own Step Functions Local
// mock-config file uses), error (always throws), and itemReader
// (resolved separately by mock/itemreader against a DistributedMap
// state's ItemReaderSpec, never through Engine.Invoke).
package mock

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/stepbench/aslengine/asl/value"
	aslerrors "github.com/stepbench/aslengine/errors"
)

// Outcome is one possible mocked result for a single invocation.
// Exactly one of Return/Throw is populated.
type Outcome struct {
	Return value.Value
	Throw  *ThrowSpec
}

// ThrowSpec is a mocked failure: the ASL error/cause a Task would have
// surfaced had it actually run.
type ThrowSpec struct {
	Error string
	Cause string
}

// Variant selects a MockedResponse's matching strategy (spec §4.4).
type Variant string

const (
	VariantFixed       Variant = "fixed"
	VariantConditional Variant = "conditional"
	VariantStateful    Variant = "stateful"
	VariantError       Variant = "error"
)

// Condition is one ordered rule in a conditional MockedResponse: When
// is matched as a deep structural subset of the task input (spec
// §4.4's "all keys present at each level with matching values"); a
// terminal catch-all sets Default instead of When.
type Condition struct {
	When    value.Value
	Default bool
	Outcome Outcome
}

// responseEntry pairs a call-count range (e.g. "0", "1-3", "2-") with
// the Outcome it selects; used by the stateful variant.
type responseEntry struct {
	lo, hi  int
	openEnd bool
	outcome Outcome
}

// MockedResponse is a named, reusable mocked outcome selector.
// Exactly one of its variant-specific fields is populated, selected by
// Variant.
type MockedResponse struct {
	Variant Variant

	entries    []responseEntry // stateful
	conditions []Condition     // conditional
	fixed      Outcome         // fixed / error
}

// NewFixedResponse builds a MockedResponse that always returns outcome
// regardless of call count or input.
func NewFixedResponse(outcome Outcome) *MockedResponse {
	return &MockedResponse{Variant: VariantFixed, fixed: outcome}
}

// NewErrorResponse builds a MockedResponse that always throws.
func NewErrorResponse(throw ThrowSpec) *MockedResponse {
	return &MockedResponse{Variant: VariantError, fixed: Outcome{Throw: &throw}}
}

// NewConditionalResponse builds a MockedResponse that matches
// conditions in order against the task input; the first condition
// whose When is a structural subset of the input wins, or whose
// Default is set. No match and no Default raises MockNotFound (spec
// §4.4: "No match and no default raises MockNotFound").
func NewConditionalResponse(conditions []Condition) *MockedResponse {
	return &MockedResponse{Variant: VariantConditional, conditions: conditions}
}

// NewMockedResponse builds the stateful variant from a call-count-key
// map, e.g. {"0": retryOutcome, "1-2": failOutcome, "3-": successOutcome} --
// the same shape AWS Step Functions Local's own mock-config file uses.
func NewMockedResponse(byCallCount map[string]Outcome) (*MockedResponse, error) {
	mr := &MockedResponse{Variant: VariantStateful}
	for key, outcome := range byCallCount {
		lo, hi, openEnd, err := parseCallRange(key)
		if err != nil {
			return nil, err
		}
		mr.entries = append(mr.entries, responseEntry{lo: lo, hi: hi, openEnd: openEnd, outcome: outcome})
	}
	return mr, nil
}

func parseCallRange(key string) (lo, hi int, openEnd bool, err error) {
	key = strings.TrimSpace(key)
	if !strings.Contains(key, "-") {
		n, err := strconv.Atoi(key)
		if err != nil {
			return 0, 0, false, fmt.Errorf("mock: invalid call-count key %q", key)
		}
		return n, n, false, nil
	}
	parts := strings.SplitN(key, "-", 2)
	loN, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false, fmt.Errorf("mock: invalid call-count key %q", key)
	}
	if parts[1] == "" {
		return loN, 0, true, nil
	}
	hiN, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false, fmt.Errorf("mock: invalid call-count key %q", key)
	}
	return loN, hiN, false, nil
}

func (mr *MockedResponse) findByCallCount(callCount int) (Outcome, bool) {
	for _, e := range mr.entries {
		if callCount < e.lo {
			continue
		}
		if e.openEnd || callCount <= e.hi {
			return e.outcome, true
		}
	}
	return Outcome{}, false
}

// resolve selects this MockedResponse's outcome for the given call
// count and task input, per its Variant.
func (mr *MockedResponse) resolve(callCount int, input value.Value) (Outcome, bool) {
	switch mr.Variant {
	case VariantFixed, VariantError:
		return mr.fixed, true
	case VariantConditional:
		for _, c := range mr.conditions {
			if c.Default || value.Subset(c.When, input) {
				return c.Outcome, true
			}
		}
		return Outcome{}, false
	case VariantStateful:
		return mr.findByCallCount(callCount)
	default:
		return Outcome{}, false
	}
}

// Config is the full mock configuration for one test run: which named
// MockedResponse each state resolves to.
type Config struct {
	Responses       map[string]*MockedResponse // mocked-response-name -> responses
	StateToResponse map[string]string          // state name -> mocked-response-name

	// ItemReaderBuckets maps an ItemReaderSpec's Bucket to the local
	// directory standing in for it (DistributedMap dataset ingress).
	ItemReaderBuckets map[string]string

	// ResultWriterRoot is the local directory DistributedMap's
	// ResultWriter archives results under (standing in for S3). Empty
	// disables archiving even when a state configures a ResultWriter.
	ResultWriterRoot string
}

// Engine resolves Task invocations against a Config, tracking a
// per-state call count across the lifetime of one test run.
type Engine struct {
	mu         sync.Mutex
	cfg        Config
	callCounts map[string]int
}

// NewEngine constructs an Engine from a resolved Config.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg, callCounts: make(map[string]int)}
}

// Invoke resolves the next mocked outcome for stateName against input,
// advancing its call counter. Returns aslerrors.MockNotFoundError when
// no rule configured for this state (or call count, or input, for the
// conditional variant) provides an outcome.
func (e *Engine) Invoke(stateName string, input value.Value) (value.Value, error) {
	e.mu.Lock()
	count := e.callCounts[stateName]
	e.callCounts[stateName] = count + 1
	e.mu.Unlock()

	respName, ok := e.cfg.StateToResponse[stateName]
	if !ok {
		return value.Value{}, aslerrors.MockNotFoundError(stateName)
	}
	mr, ok := e.cfg.Responses[respName]
	if !ok {
		return value.Value{}, aslerrors.MockNotFoundError(stateName)
	}
	outcome, ok := mr.resolve(count, input)
	if !ok {
		return value.Value{}, aslerrors.MockNotFoundError(stateName)
	}
	if outcome.Throw != nil {
		return value.Value{}, aslerrors.NewExecError(outcome.Throw.Error, outcome.Throw.Cause)
	}
	return outcome.Return, nil
}

// ItemReaderBuckets exposes the DistributedMap dataset-ingress roots
// configured for this run.
func (e *Engine) ItemReaderBuckets() map[string]string {
	return e.cfg.ItemReaderBuckets
}

// ResultWriterRoot exposes the DistributedMap result-egress root
// configured for this run.
func (e *Engine) ResultWriterRoot() string {
	return e.cfg.ResultWriterRoot
}

// CallCount reports how many times stateName has been invoked so far.
func (e *Engine) CallCount(stateName string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.callCounts[stateName]
}
