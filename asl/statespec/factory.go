// Copyright 2022 Drone.IO Inc. All rights reserved.
// Use of this source code is governed by the Polyform License
// that can be found in the LICENSE file.

// Package statespec implements the typed ASL state model and the pure
// validating factory described in spec §3/§4.1. The factory never
// mutates global state and never partially constructs a machine: it
// either returns a fully-typed, immutable *StateMachine or an error
// enumerating every violation found.
package statespec

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	aslerrors "github.com/stepbench/aslengine/errors"
	"github.com/stepbench/aslengine/asl/value"
)

// Build validates a raw, already-decoded state machine definition and
// returns a normalized, typed tree. `raw` is produced by a peripheral
// JSON/YAML loader (out of core scope, spec §6) and is otherwise an
// ordinary value.Value object.
func Build(raw value.Value) (*StateMachine, error) {
	return buildMachine(raw, QueryLanguageUnset)
}

// buildMachine builds one state machine level (top-level, ItemProcessor,
// or Parallel branch), inheriting the effective query language from its
// enclosing scope per spec §3's inheritance rules.
func buildMachine(raw value.Value, inherited QueryLanguage) (*StateMachine, error) {
	if !raw.IsObject() {
		return nil, &aslerrors.ValidationError{Msg: "state machine definition must be an object"}
	}

	ql := inherited
	if langRaw, ok := raw.Get("QueryLanguage"); ok && langRaw.IsString() {
		if parsed, ok := ParseQueryLanguage(langRaw.Str()); ok {
			ql = parsed
		}
	}
	if ql == QueryLanguageUnset {
		ql = JSONPath
	}

	startAt := ""
	if s, ok := raw.Get("StartAt"); ok && s.IsString() {
		startAt = s.Str()
	}

	statesRaw, ok := raw.Get("States")
	if !ok || !statesRaw.IsObject() {
		return nil, &aslerrors.ValidationError{Msg: "state machine requires a States object"}
	}

	machine := &StateMachine{
		StartAt:       startAt,
		States:        make(map[string]*State, len(statesRaw.Keys())),
		QueryLanguage: ql,
	}
	if c, ok := raw.Get("Comment"); ok && c.IsString() {
		machine.Comment = c.Str()
	}
	if t, ok := raw.Get("TimeoutSeconds"); ok && t.IsNumber() {
		machine.TimeoutSeconds = int(t.Number())
	}

	var errs *multierror.Error
	for _, name := range statesRaw.Keys() {
		sRaw := statesRaw.MustGet(name)
		st, err := buildState(name, sRaw, ql)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		machine.States[name] = st
		machine.Order = append(machine.Order, name)
	}

	if machine.StartAt == "" {
		errs = multierror.Append(errs, &aslerrors.ValidationError{Msg: "StartAt field is required"})
	} else if _, ok := machine.States[machine.StartAt]; !ok {
		errs = multierror.Append(errs, &aslerrors.ValidationError{
			Msg: fmt.Sprintf("StartAt state %q is not defined in States", machine.StartAt),
		})
	}

	if errs.ErrorOrNil() != nil {
		return nil, flatten(errs)
	}
	return machine, nil
}

// flatten collapses a multierror into a single *ValidationError whose
// message enumerates every violation, per spec §4.1's requirement that
// more than one rejected field surface in a single message.
func flatten(errs *multierror.Error) error {
	if errs == nil || len(errs.Errors) == 0 {
		return nil
	}
	if len(errs.Errors) == 1 {
		return errs.Errors[0]
	}
	msgs := make([]string, len(errs.Errors))
	for i, e := range errs.Errors {
		msgs[i] = e.Error()
	}
	return &aslerrors.ValidationError{Msg: strings.Join(msgs, "; ")}
}

func buildState(name string, raw value.Value, inherited QueryLanguage) (*State, error) {
	if !raw.IsObject() {
		return nil, &aslerrors.ValidationError{Msg: fmt.Sprintf("state %q must be an object", name)}
	}

	ql := inherited
	if langRaw, ok := raw.Get("QueryLanguage"); ok && langRaw.IsString() {
		if parsed, ok := ParseQueryLanguage(langRaw.Str()); ok {
			ql = parsed
		}
	}

	kind, err := detectKind(name, raw)
	if err != nil {
		return nil, err
	}

	st := &State{
		Name:          name,
		Kind:          kind,
		QueryLanguage: ql,
	}

	var violations []string

	getStr := func(field string) (*string, bool) {
		v, ok := raw.Get(field)
		if !ok || !v.IsString() {
			return nil, ok
		}
		s := v.Str()
		return &s, true
	}

	if n, ok := getStr("Next"); ok {
		st.Next = *n
	}
	if e, ok := raw.Get("End"); ok && e.IsBool() {
		st.End = e.Bool()
	}
	if c, ok := getStr("Comment"); ok {
		st.Comment = *c
	}

	if st.Next != "" && st.End {
		violations = append(violations, fmt.Sprintf("state %q cannot have both Next and End", name))
	}
	if kind.IsTerminal() {
		for _, forbidden := range []string{"Next", "End", "Retry", "Catch"} {
			if _, present := raw.Get(forbidden); present {
				violations = append(violations, fmt.Sprintf("Terminal state %s cannot have a %s field", name, forbidden))
			}
		}
	} else if kind != KindChoice && st.Next == "" && !st.End {
		violations = append(violations, fmt.Sprintf("state %q must have Next or End", name))
	}

	st.InputPath = ptrField(raw, "InputPath")
	st.OutputPath = ptrField(raw, "OutputPath")
	st.ResultPath = ptrField(raw, "ResultPath")
	st.Parameters = raw.MustGet("Parameters")
	st.ResultSelector = raw.MustGet("ResultSelector")
	st.Arguments = raw.MustGet("Arguments")
	st.Output = raw.MustGet("Output")
	st.Assign = raw.MustGet("Assign")

	violations = append(violations, validateIOFields(name, kind, ql, raw)...)

	st.Retry = buildRetry(raw)
	st.Catch, err = buildCatch(raw)
	if err != nil {
		violations = append(violations, err.Error())
	}

	switch kind {
	case KindTask:
		st.Task, violations = buildTask(name, raw, ql, violations)
	case KindPass:
		st.Pass = buildPass(raw)
	case KindChoice:
		st.Choice, violations = buildChoice(name, raw, ql, violations)
	case KindWait:
		st.Wait, violations = buildWait(name, raw, ql, violations)
	case KindSucceed:
		st.Succeed = &SucceedState{}
	case KindFail:
		st.Fail, violations = buildFail(name, raw, violations)
	case KindInlineMap, KindDistributedMap:
		st.Map, violations = buildMap(name, raw, ql, kind == KindDistributedMap, violations)
	case KindParallel:
		// Branches inherit the enclosing state machine's query language,
		// never the Parallel state's own override (spec §3).
		st.Parallel, violations = buildParallel(name, raw, inherited, violations)
	}

	if len(violations) > 0 {
		return nil, &aslerrors.ValidationError{Msg: strings.Join(violations, "; ")}
	}
	return st, nil
}

// ptrField reads a string-or-null path field (InputPath/OutputPath/
// ResultPath), distinguishing an absent field from an explicit JSON
// null: both are legal and mean different things (spec §4.3) --
// absent keeps the field's identity/replace default, explicit null
// discards. nil means absent; a pointer to "" means explicit null (an
// ASL path is never the empty string, so "" is an unambiguous sentinel
// for it); any other pointed-to value is the literal path string.
func ptrField(raw value.Value, field string) *string {
	v, ok := raw.Get(field)
	if !ok {
		return nil
	}
	if v.IsNull() {
		null := ""
		return &null
	}
	if !v.IsString() {
		return nil
	}
	s := v.Str()
	return &s
}

// detectKind classifies a raw state object. A Map is a DistributedMap
// only when its top-level `Mode` is "DISTRIBUTED" (an `ItemReader`
// alone does not make it one); everything else is named directly by a
// `Type` field.
func detectKind(name string, raw value.Value) (Kind, error) {
	typeRaw, ok := raw.Get("Type")
	if !ok || !typeRaw.IsString() {
		return KindUnknown, &aslerrors.ValidationError{Msg: fmt.Sprintf("state %q is missing Type field", name)}
	}
	switch typeRaw.Str() {
	case "Task":
		return KindTask, nil
	case "Pass":
		return KindPass, nil
	case "Choice":
		return KindChoice, nil
	case "Wait":
		return KindWait, nil
	case "Succeed":
		return KindSucceed, nil
	case "Fail":
		return KindFail, nil
	case "Parallel":
		return KindParallel, nil
	case "Map":
		if mode, ok := raw.Get("Mode"); ok && mode.IsString() && mode.Str() == "DISTRIBUTED" {
			return KindDistributedMap, nil
		}
		return KindInlineMap, nil
	default:
		return KindUnknown, &aslerrors.ValidationError{
			Msg: fmt.Sprintf("state %q has unknown Type %q", name, typeRaw.Str()),
		}
	}
}

// validateIOFields applies the forbidden-field table of spec §4.1,
// producing the exact literal messages the factory must emit.
func validateIOFields(name string, kind Kind, ql QueryLanguage, raw value.Value) []string {
	var v []string
	has := func(field string) bool {
		_, ok := raw.Get(field)
		return ok
	}

	if ql == JSONata {
		if has("Parameters") {
			v = append(v, "Parameters field is not supported in JSONata mode. Use Arguments field instead")
		}
		if has("InputPath") {
			v = append(v, "InputPath field is not supported in JSONata mode. Use Assign field instead")
		}
		if has("OutputPath") {
			v = append(v, "OutputPath field is not supported in JSONata mode. Use Output field instead")
		}
		if has("ResultPath") {
			v = append(v, "ResultPath field is not supported in JSONata mode. Use Output field instead")
		}
		if kind.IsMap() {
			if has("ItemsPath") {
				v = append(v, "ItemsPath field is not supported in JSONata mode. Use Items field instead")
			}
		}
		if kind == KindWait {
			if has("SecondsPath") {
				v = append(v, "SecondsPath field is not supported in JSONata mode. Use Seconds field instead")
			}
			if has("TimestampPath") {
				v = append(v, "TimestampPath field is not supported in JSONata mode. Use Timestamp field instead")
			}
		}
	}

	switch kind {
	case KindTask:
		if ql == JSONPath {
			if has("Arguments") {
				v = append(v, fmt.Sprintf("%s: Arguments field is not supported in JSONPath mode", name))
			}
			if has("Output") {
				v = append(v, fmt.Sprintf("%s: Output field is not supported in JSONPath mode", name))
			}
		}
	case KindPass:
		if has("Arguments") {
			v = append(v, "Pass state does not support Arguments field")
		}
		if ql == JSONPath && has("Output") {
			v = append(v, fmt.Sprintf("%s: Output field is not supported in JSONPath mode", name))
		}
	case KindChoice:
		ioFields := []string{"InputPath", "Parameters", "OutputPath", "ResultPath", "ResultSelector", "Arguments", "Output"}
		for _, f := range ioFields {
			if has(f) {
				v = append(v, fmt.Sprintf("%s: Choice state does not support %s field", name, f))
			}
		}
	case KindWait:
		if ql == JSONPath {
			if has("Arguments") {
				v = append(v, fmt.Sprintf("%s: Arguments field is not supported in JSONPath mode", name))
			}
			if has("Output") {
				v = append(v, fmt.Sprintf("%s: Output field is not supported in JSONPath mode", name))
			}
		}
	case KindSucceed, KindFail:
		for _, f := range []string{"Parameters", "ResultPath", "ResultSelector", "Arguments"} {
			if has(f) {
				v = append(v, fmt.Sprintf("%s state %s does not support %s field", kind, name, f))
			}
		}
	}

	return v
}

func buildRetry(raw value.Value) []RetryRule {
	rulesRaw, ok := raw.Get("Retry")
	if !ok || !rulesRaw.IsArray() {
		return nil
	}
	var rules []RetryRule
	for _, r := range rulesRaw.Items() {
		rule := RetryRule{MaxAttempts: 3, BackoffRate: 2.0}
		if ee, ok := r.Get("ErrorEquals"); ok && ee.IsArray() {
			for _, e := range ee.Items() {
				if e.IsString() {
					rule.ErrorEquals = append(rule.ErrorEquals, e.Str())
				}
			}
		}
		if iv, ok := r.Get("IntervalSeconds"); ok && iv.IsNumber() {
			rule.IntervalSeconds = iv.Number()
		} else {
			rule.IntervalSeconds = 1
		}
		if ma, ok := r.Get("MaxAttempts"); ok && ma.IsNumber() {
			rule.MaxAttempts = int(ma.Number())
		}
		if br, ok := r.Get("BackoffRate"); ok && br.IsNumber() {
			rule.BackoffRate = br.Number()
		}
		if md, ok := r.Get("MaxDelaySeconds"); ok && md.IsNumber() {
			rule.MaxDelaySeconds = md.Number()
		}
		if js, ok := r.Get("JitterStrategy"); ok && js.IsString() {
			rule.JitterStrategy = js.Str()
		}
		rules = append(rules, rule)
	}
	return rules
}

func buildCatch(raw value.Value) ([]CatchRule, error) {
	rulesRaw, ok := raw.Get("Catch")
	if !ok || !rulesRaw.IsArray() {
		return nil, nil
	}
	var rules []CatchRule
	for _, r := range rulesRaw.Items() {
		rule := CatchRule{}
		if ee, ok := r.Get("ErrorEquals"); ok && ee.IsArray() {
			for _, e := range ee.Items() {
				if e.IsString() {
					rule.ErrorEquals = append(rule.ErrorEquals, e.Str())
				}
			}
		}
		if n, ok := r.Get("Next"); ok && n.IsString() {
			rule.Next = n.Str()
		}
		rule.ResultPath = ptrField(r, "ResultPath")
		rule.Output = r.MustGet("Output")
		rules = append(rules, rule)
	}
	return rules, nil
}

func buildTask(name string, raw value.Value, ql QueryLanguage, violations []string) (*TaskState, []string) {
	ts := &TaskState{}
	if res, ok := raw.Get("Resource"); ok && res.IsString() {
		ts.Resource = res.Str()
	} else {
		violations = append(violations, fmt.Sprintf("%s: Resource field is required for Task state", name))
	}
	if to, ok := raw.Get("TimeoutSeconds"); ok && to.IsNumber() {
		ts.TimeoutSeconds = int(to.Number())
	}
	if ql == JSONata && strings.Contains(ts.Resource, ":::") {
		if _, hasArgs := raw.Get("Arguments"); !hasArgs {
			violations = append(violations, fmt.Sprintf("Arguments field is required for resource ARN: %s", ts.Resource))
		}
	}
	return ts, violations
}

func buildPass(raw value.Value) *PassState {
	ps := &PassState{}
	if r, ok := raw.Get("Result"); ok {
		ps.Result = r
		ps.HasResult = true
	}
	return ps
}

func buildChoice(name string, raw value.Value, ql QueryLanguage, violations []string) (*ChoiceState, []string) {
	cs := &ChoiceState{}
	if d, ok := raw.Get("Default"); ok && d.IsString() {
		cs.Default = d.Str()
	}
	choicesRaw, ok := raw.Get("Choices")
	if !ok || !choicesRaw.IsArray() || len(choicesRaw.Items()) == 0 {
		violations = append(violations, fmt.Sprintf("%s: Choice state requires non-empty Choices array", name))
		return cs, violations
	}
	for _, c := range choicesRaw.Items() {
		rule, err := buildChoiceRule(c, ql)
		if err != nil {
			violations = append(violations, err.Error())
			continue
		}
		cs.Choices = append(cs.Choices, rule)
	}
	return cs, violations
}

func buildChoiceRule(raw value.Value, ql QueryLanguage) (ChoiceRule, error) {
	rule := ChoiceRule{}
	if n, ok := raw.Get("Next"); ok && n.IsString() {
		rule.Next = n.Str()
	}

	if ql == JSONata {
		cond, ok := raw.Get("Condition")
		if !ok || !cond.IsString() {
			return rule, &aslerrors.ValidationError{Msg: "JSONata Choice rule requires a Condition field"}
		}
		if !isFullyWrapped(cond.Str()) {
			return rule, &aslerrors.ValidationError{Msg: "Choice Condition must be fully wrapped in {% ... %}"}
		}
		for _, f := range []string{"Variable", "And", "Or", "Not"} {
			if _, present := raw.Get(f); present {
				return rule, &aslerrors.ValidationError{
					Msg: "JSONPath choice rule fields (Variable, And, Or, Not) are not supported in JSONata mode. Use 'Condition' field instead",
				}
			}
		}
		rule.Condition = cond.Str()
		return rule, nil
	}

	return buildJSONPathChoiceRule(raw)
}

func buildJSONPathChoiceRule(raw value.Value) (ChoiceRule, error) {
	rule := ChoiceRule{}
	if n, ok := raw.Get("Next"); ok && n.IsString() {
		rule.Next = n.Str()
	}
	if andRaw, ok := raw.Get("And"); ok && andRaw.IsArray() {
		for _, sub := range andRaw.Items() {
			sr, err := buildJSONPathChoiceRule(sub)
			if err != nil {
				return rule, err
			}
			rule.And = append(rule.And, sr)
		}
		return rule, nil
	}
	if orRaw, ok := raw.Get("Or"); ok && orRaw.IsArray() {
		for _, sub := range orRaw.Items() {
			sr, err := buildJSONPathChoiceRule(sub)
			if err != nil {
				return rule, err
			}
			rule.Or = append(rule.Or, sr)
		}
		return rule, nil
	}
	if notRaw, ok := raw.Get("Not"); ok {
		sr, err := buildJSONPathChoiceRule(notRaw)
		if err != nil {
			return rule, err
		}
		rule.Not = &sr
		return rule, nil
	}

	variable, ok := raw.Get("Variable")
	if !ok || !variable.IsString() {
		return rule, &aslerrors.ValidationError{Msg: "choice rule requires a Variable field"}
	}
	comp := &ChoiceComparator{Variable: variable.Str()}
	for _, key := range raw.Keys() {
		if key == "Variable" || key == "Next" {
			continue
		}
		val := raw.MustGet(key)
		comp.Op = key
		if strings.HasSuffix(key, "Path") && val.IsString() {
			comp.UsesPath = true
			comp.PathValue = val.Str()
		} else {
			comp.Literal = val
		}
		break
	}
	if comp.Op == "" {
		return rule, &aslerrors.ValidationError{Msg: "choice rule requires a comparison operator"}
	}
	rule.Comparator = comp
	return rule, nil
}

func isFullyWrapped(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "{%") && strings.HasSuffix(s, "%}")
}

func buildWait(name string, raw value.Value, ql QueryLanguage, violations []string) (*WaitState, []string) {
	ws := &WaitState{}
	count := 0
	if s, ok := raw.Get("Seconds"); ok && s.IsNumber() {
		v := s.Number()
		ws.Seconds = &v
		count++
	}
	if sp, ok := raw.Get("SecondsPath"); ok && sp.IsString() {
		v := sp.Str()
		ws.SecondsPath = &v
		count++
	}
	if ts, ok := raw.Get("Timestamp"); ok && ts.IsString() {
		v := ts.Str()
		ws.Timestamp = &v
		count++
	}
	if tp, ok := raw.Get("TimestampPath"); ok && tp.IsString() {
		v := tp.Str()
		ws.TimestampPath = &v
		count++
	}
	if count != 1 {
		violations = append(violations, fmt.Sprintf("%s: Wait state must have exactly one wait duration field", name))
	}
	_ = ql
	return ws, violations
}

func buildFail(name string, raw value.Value, violations []string) (*FailState, []string) {
	fs := &FailState{}
	_, hasErr := raw.Get("Error")
	_, hasErrPath := raw.Get("ErrorPath")
	_, hasCause := raw.Get("Cause")
	_, hasCausePath := raw.Get("CausePath")

	if hasErr && hasErrPath {
		violations = append(violations, fmt.Sprintf("%s: Fail state cannot have both Error and ErrorPath fields", name))
	}
	if hasCause && hasCausePath {
		violations = append(violations, fmt.Sprintf("%s: Fail state cannot have both Cause and CausePath fields", name))
	}
	if e, ok := raw.Get("Error"); ok && e.IsString() {
		fs.Error = e.Str()
	}
	if e, ok := raw.Get("ErrorPath"); ok && e.IsString() {
		fs.ErrorPath = e.Str()
	}
	if c, ok := raw.Get("Cause"); ok && c.IsString() {
		fs.Cause = c.Str()
	}
	if c, ok := raw.Get("CausePath"); ok && c.IsString() {
		fs.CausePath = c.Str()
	}
	return fs, violations
}

func buildMap(name string, raw value.Value, ql QueryLanguage, distributed bool, violations []string) (*MapState, []string) {
	ms := &MapState{MaxConcurrency: 0}
	if distributed {
		ms.MaxConcurrency = 1000
	}

	procRaw, ok := raw.Get("ItemProcessor")
	if !ok {
		procRaw, ok = raw.Get("Iterator") // legacy synonym, spec §4.1
	}
	if !ok || !procRaw.IsObject() {
		violations = append(violations, fmt.Sprintf("%s: Map state requires ItemProcessor or Iterator field", name))
		return ms, violations
	}
	if _, ok := procRaw.Get("StartAt"); !ok {
		violations = append(violations, fmt.Sprintf("%s: ItemProcessor/Iterator requires StartAt field", name))
		return ms, violations
	}

	sub, err := buildMachine(procRaw, ql)
	if err != nil {
		violations = append(violations, err.Error())
	} else {
		ms.ItemProcessor = sub
	}

	if ql == JSONPath {
		ms.ItemsPath = "$"
		if ip, ok := raw.Get("ItemsPath"); ok && ip.IsString() {
			ms.ItemsPath = ip.Str()
		}
	} else if items, ok := raw.Get("Items"); ok {
		ms.Items = items
	}

	if sel, ok := raw.Get("ItemSelector"); ok {
		ms.ItemSelector = sel
	} else if sel, ok := raw.Get("Parameters"); ok && ql == JSONPath {
		ms.ItemSelector = sel
	}

	if mc, ok := raw.Get("MaxConcurrency"); ok && mc.IsNumber() {
		ms.MaxConcurrency = int(mc.Number())
	}
	if mcp, ok := raw.Get("MaxConcurrencyPath"); ok && mcp.IsString() {
		ms.MaxConcurrencyPath = mcp.Str()
	}
	if tc, ok := raw.Get("ToleratedFailureCount"); ok && tc.IsNumber() {
		v := int(tc.Number())
		ms.ToleratedFailureCount = &v
	}
	if tp, ok := raw.Get("ToleratedFailurePercentage"); ok && tp.IsNumber() {
		v := tp.Number()
		ms.ToleratedFailurePercentage = &v
	}

	if distributed {
		if ir, ok := raw.Get("ItemReader"); ok {
			ms.ItemReader = buildItemReader(ir)
		}
		if ib, ok := raw.Get("ItemBatcher"); ok {
			ms.ItemBatcher = buildItemBatcher(ib)
		}
		if rw, ok := raw.Get("ResultWriter"); ok {
			ms.ResultWriter = buildResultWriter(rw)
		}
	}

	return ms, violations
}

func buildItemReader(raw value.Value) *ItemReaderSpec {
	ir := &ItemReaderSpec{}
	if r, ok := raw.Get("Resource"); ok && r.IsString() {
		ir.Resource = r.Str()
	}
	if args, ok := raw.Get("Parameters"); ok {
		if b, ok := args.Get("Bucket"); ok && b.IsString() {
			ir.Bucket = b.Str()
		}
		if k, ok := args.Get("Key"); ok && k.IsString() {
			ir.Key = k.Str()
		}
		if p, ok := args.Get("Prefix"); ok && p.IsString() {
			ir.Prefix = p.Str()
		}
	}
	if it, ok := raw.Get("ReaderConfig"); ok {
		if t, ok := it.Get("InputType"); ok && t.IsString() {
			ir.InputType = t.Str()
		}
		if h, ok := it.Get("CSVHeaders"); ok && h.IsArray() {
			for _, v := range h.Items() {
				if v.IsString() {
					ir.CSVHeaders = append(ir.CSVHeaders, v.Str())
				}
			}
		}
		if mi, ok := it.Get("MaxItems"); ok && mi.IsNumber() {
			ir.MaxItems = int(mi.Number())
		}
	}
	return ir
}

func buildItemBatcher(raw value.Value) *ItemBatcherSpec {
	ib := &ItemBatcherSpec{}
	if m, ok := raw.Get("MaxItemsPerBatch"); ok && m.IsNumber() {
		ib.MaxItemsPerBatch = int(m.Number())
	}
	if m, ok := raw.Get("MaxInputBytesPerBatch"); ok && m.IsNumber() {
		ib.MaxInputBytesPerBatch = int(m.Number())
	}
	if b, ok := raw.Get("BatchInput"); ok {
		ib.BatchInput = b
	}
	return ib
}

func buildResultWriter(raw value.Value) *ResultWriterSpec {
	rw := &ResultWriterSpec{}
	if r, ok := raw.Get("Resource"); ok && r.IsString() {
		rw.Resource = r.Str()
	}
	if p, ok := raw.Get("Parameters"); ok {
		if b, ok := p.Get("Bucket"); ok && b.IsString() {
			rw.Bucket = b.Str()
		}
		if pr, ok := p.Get("Prefix"); ok && pr.IsString() {
			rw.Prefix = pr.Str()
		}
	}
	return rw
}

func buildParallel(name string, raw value.Value, ql QueryLanguage, violations []string) (*ParallelState, []string) {
	ps := &ParallelState{}
	branchesRaw, ok := raw.Get("Branches")
	if !ok || !branchesRaw.IsArray() || len(branchesRaw.Items()) == 0 {
		violations = append(violations, fmt.Sprintf("%s: Parallel state requires non-empty Branches array", name))
		return ps, violations
	}
	for _, b := range branchesRaw.Items() {
		if _, ok := b.Get("StartAt"); !ok {
			violations = append(violations, fmt.Sprintf("%s: Parallel branch requires StartAt field", name))
			continue
		}
		// Branches do NOT inherit their Parallel state's QueryLanguage
		// override, only the enclosing state machine's (spec §3).
		sub, err := buildMachine(b, ql)
		if err != nil {
			violations = append(violations, err.Error())
			continue
		}
		ps.Branches = append(ps.Branches, sub)
	}
	return ps, violations
}
