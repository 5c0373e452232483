// Copyright 2022 Drone.IO Inc. All rights reserved.
// Use of this source code is governed by the Polyform License
// that can be found in the LICENSE file.

package statespec

import "github.com/stepbench/aslengine/asl/value"

// StateMachine is the root of a compiled, immutable workflow. Once
// returned by Build it is read-only and safe to share across
// concurrent test runs (spec §3 Ownership).
type StateMachine struct {
	StartAt       string
	States        map[string]*State
	Order         []string // declaration order, for deterministic coverage reports
	QueryLanguage QueryLanguage
	TimeoutSeconds int
	Comment       string
}

// State is a tagged union over the nine variants of spec §3. Exactly
// one of the variant pointer fields is populated, selected by Kind.
type State struct {
	Name          string
	Kind          Kind
	QueryLanguage QueryLanguage // effective, after inheritance resolution

	Next string
	End  bool

	Comment string

	// Shared I/O fields; legality per Kind/QueryLanguage is enforced by
	// the factory (spec §4.1), not by the type system.
	//
	// InputPath/OutputPath/ResultPath are nil when absent (identity/
	// replace default), point at "" when the field was explicit JSON
	// null (discard), and point at the literal path string otherwise --
	// see ptrField.
	InputPath      *string
	Parameters     value.Value // payload template; IsNull() if unset
	OutputPath     *string
	ResultPath     *string
	ResultSelector value.Value
	Arguments      value.Value
	Output         value.Value
	Assign         value.Value

	Retry []RetryRule
	Catch []CatchRule

	Task     *TaskState
	Pass     *PassState
	Choice   *ChoiceState
	Wait     *WaitState
	Succeed  *SucceedState
	Fail     *FailState
	Map      *MapState
	Parallel *ParallelState
}

// RetryRule is one entry of a state's Retry array (spec §4.6).
type RetryRule struct {
	ErrorEquals     []string
	IntervalSeconds float64
	MaxAttempts     int
	BackoffRate     float64
	MaxDelaySeconds float64
	JitterStrategy  string // "" or "FULL"
}

// CatchRule is one entry of a state's Catch array (spec §4.6).
type CatchRule struct {
	ErrorEquals []string
	Next        string
	ResultPath  *string     // JSONPath mode
	Output      value.Value // JSONata mode
}

// TaskState models spec §3 Task.
type TaskState struct {
	Resource       string
	TimeoutSeconds int
}

// PassState models spec §3 Pass.
type PassState struct {
	Result value.Value // IsNull() if unset: input flows through unchanged
	HasResult bool
}

// ChoiceState models spec §3 Choice.
type ChoiceState struct {
	Choices []ChoiceRule
	Default string
}

// ChoiceRule is one branch of a Choice state. JSONPath mode populates
// Variable/comparator fields and the boolean combinators; JSONata mode
// populates only Condition.
type ChoiceRule struct {
	Next string

	// JSONata mode
	Condition string // must be a {% ... %} expression

	// JSONPath mode
	Comparator *ChoiceComparator
	And        []ChoiceRule
	Or         []ChoiceRule
	Not        *ChoiceRule
}

// ChoiceComparator is a single leaf comparator in a JSONPath Choice
// rule: `Variable` paired with one of the ASL comparison operators.
type ChoiceComparator struct {
	Variable string // JSONPath against input
	Op       string // e.g. "StringEquals", "NumericGreaterThan", "IsPresent", ...
	// Exactly one of Literal/Path is populated, matching the ASL
	// `<Op>` vs `<Op>Path` field naming.
	Literal    value.Value
	PathValue  string
	UsesPath   bool
}

// WaitState models spec §3 Wait; exactly one duration field is set.
type WaitState struct {
	Seconds        *float64
	SecondsPath    *string
	Timestamp      *string
	TimestampPath  *string
}

// SucceedState models spec §3 Succeed (no extra fields beyond the
// shared I/O fields on State).
type SucceedState struct{}

// FailState models spec §3 Fail.
type FailState struct {
	Error     string
	ErrorPath string
	Cause     string
	CausePath string
}

// MapState models both InlineMap and DistributedMap (spec §3); Kind on
// the owning State distinguishes which.
type MapState struct {
	ItemProcessor *StateMachine

	ItemsPath string      // JSONPath mode, default "$"
	Items     value.Value // JSONata mode (template/expression)

	ItemSelector value.Value // payload template, per-item

	MaxConcurrency     int
	MaxConcurrencyPath string

	ToleratedFailureCount      *int
	ToleratedFailureCountPath  string
	ToleratedFailurePercentage *float64
	ToleratedFailurePercentagePath string

	// Distributed-only; nil for InlineMap.
	ItemReader   *ItemReaderSpec
	ItemBatcher  *ItemBatcherSpec
	ResultWriter *ResultWriterSpec
}

// ItemReaderSpec configures DistributedMap's dataset ingress.
type ItemReaderSpec struct {
	Resource  string // e.g. "arn:aws:states:::s3:listObjectsV2" / "getObject"
	Bucket    string
	Key       string
	Prefix    string
	InputType string // CSV | JSONL | MANIFEST | AVRO
	CSVHeaders []string
	MaxItems  int
}

// ItemBatcherSpec configures DistributedMap batching (spec §4.5.8).
type ItemBatcherSpec struct {
	MaxItemsPerBatch    int
	MaxInputBytesPerBatch int
	BatchInput          value.Value
}

// ResultWriterSpec configures DistributedMap's result egress hook.
type ResultWriterSpec struct {
	Resource string
	Bucket   string
	Prefix   string
}

// ParallelState models spec §3 Parallel.
type ParallelState struct {
	Branches []*StateMachine
}
