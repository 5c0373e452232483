// Copyright 2022 Drone.IO Inc. All rights reserved.
// Use of this source code is governed by the Polyform License
// that can be found in the LICENSE file.

package statespec

// Kind enumerates the state variants of spec §3. Flattening the
// JSONPath/JSONata x state-type class hierarchy into one enum plus a
// QueryLanguage field (design note §9) means the validator and
// executors switch over a single tag instead of juggling eighteen
// classes.
type Kind int

const (
	KindUnknown Kind = iota
	KindTask
	KindPass
	KindChoice
	KindWait
	KindSucceed
	KindFail
	KindInlineMap
	KindDistributedMap
	KindParallel
)

func (k Kind) String() string {
	return kindNames[k]
}

var kindNames = map[Kind]string{
	KindUnknown:        "Unknown",
	KindTask:           "Task",
	KindPass:           "Pass",
	KindChoice:         "Choice",
	KindWait:           "Wait",
	KindSucceed:        "Succeed",
	KindFail:           "Fail",
	KindInlineMap:      "Map",
	KindDistributedMap: "Map",
	KindParallel:       "Parallel",
}

// IsTerminal reports whether the variant can never have Next/End
// (Succeed/Fail, spec §3).
func (k Kind) IsTerminal() bool {
	return k == KindSucceed || k == KindFail
}

// IsMap reports whether the variant is either Map flavor.
func (k Kind) IsMap() bool {
	return k == KindInlineMap || k == KindDistributedMap
}
