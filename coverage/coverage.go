// Copyright 2022 Drone.IO Inc. All rights reserved.
// Use of this source code is governed by the Polyform License
// that can be found in the LICENSE file.

// Package coverage tracks which parts of a state machine a test run
// actually exercised (spec §8): top-level states, Choice branches taken,
// Map iteration counts, and Parallel branches entered. Percentages are
// always clamped to [0, 100]; a previous version of this tracker (since
// fixed) could report over 100% when a nested machine's states were
// double-counted against the parent's total.
package coverage

import (
	"sync"

	"github.com/stepbench/aslengine/asl/statespec"
)

// Tracker is safe for concurrent use: Map iterations and Parallel
// branches record their visits from multiple goroutines.
type Tracker struct {
	mu sync.Mutex

	totalStates int
	visited     map[string]bool

	choiceBranches map[string]map[string]bool // choice path -> set of Next targets taken
	mapIterations  map[string]int             // map path -> iterations run
	parallelRuns   map[string]map[int]bool    // parallel path -> set of branch indices run
}

// NewTracker allocates a Tracker; totalStates is the denominator for
// Percentage and should count every state across the root machine and
// every nested ItemProcessor/branch machine.
func NewTracker(totalStates int) *Tracker {
	return &Tracker{
		totalStates:    totalStates,
		visited:        make(map[string]bool),
		choiceBranches: make(map[string]map[string]bool),
		mapIterations:  make(map[string]int),
		parallelRuns:   make(map[string]map[int]bool),
	}
}

// VisitState records that path (e.g. "ValidateOrder" or
// "ProcessItems[0].Ship") was entered.
func (t *Tracker) VisitState(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.visited[path] = true
}

// VisitChoiceBranch records that a Choice state at path selected target
// (a Next value, or "Default").
func (t *Tracker) VisitChoiceBranch(path, target string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.choiceBranches[path] == nil {
		t.choiceBranches[path] = make(map[string]bool)
	}
	t.choiceBranches[path][target] = true
}

// VisitMapIteration increments the iteration count recorded for the Map
// state at path.
func (t *Tracker) VisitMapIteration(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mapIterations[path]++
}

// VisitParallelBranch records that the Parallel state at path ran
// branch index idx.
func (t *Tracker) VisitParallelBranch(path string, idx int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.parallelRuns[path] == nil {
		t.parallelRuns[path] = make(map[int]bool)
	}
	t.parallelRuns[path][idx] = true
}

// Percentage returns the fraction of declared states visited, as a
// value in [0, 100].
func (t *Tracker) Percentage() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.totalStates <= 0 {
		return 0
	}
	pct := float64(len(t.visited)) / float64(t.totalStates) * 100
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}
	return pct
}

// Report is the external, serializable snapshot of a Tracker (spec §6).
type Report struct {
	TotalStates      int                       `json:"totalStates"`
	VisitedStates    []string                  `json:"visitedStates"`
	Percentage       float64                   `json:"percentage"`
	ChoiceBranches   map[string][]string       `json:"choiceBranches"`
	MapIterationRuns map[string]int            `json:"mapIterationRuns"`
	ParallelRuns     map[string][]int          `json:"parallelRuns"`
}

// Snapshot renders the Tracker's current state as a Report.
func (t *Tracker) Snapshot() Report {
	t.mu.Lock()
	defer t.mu.Unlock()

	visited := make([]string, 0, len(t.visited))
	for k := range t.visited {
		visited = append(visited, k)
	}

	choiceBranches := make(map[string][]string, len(t.choiceBranches))
	for path, targets := range t.choiceBranches {
		for target := range targets {
			choiceBranches[path] = append(choiceBranches[path], target)
		}
	}

	parallelRuns := make(map[string][]int, len(t.parallelRuns))
	for path, idxs := range t.parallelRuns {
		for idx := range idxs {
			parallelRuns[path] = append(parallelRuns[path], idx)
		}
	}

	mapIterations := make(map[string]int, len(t.mapIterations))
	for k, v := range t.mapIterations {
		mapIterations[k] = v
	}

	pct := float64(0)
	if t.totalStates > 0 {
		pct = float64(len(t.visited)) / float64(t.totalStates) * 100
		if pct > 100 {
			pct = 100
		}
	}

	return Report{
		TotalStates:      t.totalStates,
		VisitedStates:    visited,
		Percentage:       pct,
		ChoiceBranches:   choiceBranches,
		MapIterationRuns: mapIterations,
		ParallelRuns:     parallelRuns,
	}
}

// CountStates counts every state in machine plus every state in any
// nested Map ItemProcessor and Parallel branch, the correct denominator
// for NewTracker's Percentage (a nested machine's states are counted
// once here, at the level they're declared, never again per-iteration
// or per-branch-run -- that double count is the historical 166% bug
// this package's tests guard against).
func CountStates(machine *statespec.StateMachine) int {
	if machine == nil {
		return 0
	}
	total := len(machine.States)
	for _, st := range machine.States {
		switch st.Kind {
		case statespec.KindInlineMap, statespec.KindDistributedMap:
			if st.Map != nil {
				total += CountStates(st.Map.ItemProcessor)
			}
		case statespec.KindParallel:
			if st.Parallel != nil {
				for _, branch := range st.Parallel.Branches {
					total += CountStates(branch)
				}
			}
		}
	}
	return total
}
