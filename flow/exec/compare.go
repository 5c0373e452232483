// Copyright 2022 Drone.IO Inc. All rights reserved.
// Use of this source code is governed by the Polyform License
// that can be found in the LICENSE file.

package exec

import (
	"strings"
	"time"

	"github.com/stepbench/aslengine/asl/statespec"
	"github.com/stepbench/aslengine/asl/value"
	aslerrors "github.com/stepbench/aslengine/errors"
	"github.com/stepbench/aslengine/expr/jsonpath"
)

// evaluateComparator implements the JSONPath Choice operator family
// (spec §4.4): exactly one of a literal or a `<Op>Path` value is
// compared against the value at Variable.
func evaluateComparator(c *statespec.ChoiceComparator, input value.Value) (bool, error) {
	v, found, err := jsonpath.Eval(c.Variable, input)
	if err != nil {
		return false, err
	}

	base := c.Op
	if c.UsesPath {
		base = strings.TrimSuffix(base, "Path")
	}

	if base == "IsPresent" {
		return found == c.Literal.Bool(), nil
	}
	if !found {
		return false, &aslerrors.PathError{Path: c.Variable}
	}

	if strings.HasPrefix(base, "Is") {
		return evaluateTypeCheck(base, v), nil
	}

	var cv value.Value
	if c.UsesPath {
		pv, pfound, err := jsonpath.Eval(c.PathValue, input)
		if err != nil {
			return false, err
		}
		if !pfound {
			return false, nil
		}
		cv = pv
	} else {
		cv = c.Literal
	}

	switch {
	case strings.HasPrefix(base, "String"):
		return evaluateStringOp(base, v, cv)
	case strings.HasPrefix(base, "Numeric"):
		return evaluateNumericOp(base, v, cv)
	case strings.HasPrefix(base, "Boolean"):
		return v.IsBool() && cv.IsBool() && v.Bool() == cv.Bool(), nil
	case strings.HasPrefix(base, "Timestamp"):
		return evaluateTimestampOp(base, v, cv)
	}
	return false, nil
}

func evaluateTypeCheck(base string, v value.Value) bool {
	switch base {
	case "IsNull":
		return v.IsNull()
	case "IsString":
		return v.IsString()
	case "IsNumeric":
		return v.IsNumber()
	case "IsBoolean":
		return v.IsBool()
	case "IsArray":
		return v.IsArray()
	case "IsObject":
		return v.IsObject()
	case "IsTimestamp":
		return v.IsString() && isTimestamp(v.Str())
	}
	return false
}

func isTimestamp(s string) bool {
	_, err := time.Parse(time.RFC3339, s)
	return err == nil
}

func evaluateStringOp(base string, v, cv value.Value) (bool, error) {
	if !v.IsString() || !cv.IsString() {
		return false, nil
	}
	if base == "StringMatches" {
		return matchGlob(cv.Str(), v.Str()), nil
	}
	return compareOrdered(base, "String", strings.Compare(v.Str(), cv.Str())), nil
}

func evaluateNumericOp(base string, v, cv value.Value) (bool, error) {
	if !v.IsNumber() || !cv.IsNumber() {
		return false, nil
	}
	var cmp int
	switch {
	case v.Number() < cv.Number():
		cmp = -1
	case v.Number() > cv.Number():
		cmp = 1
	}
	return compareOrdered(base, "Numeric", cmp), nil
}

func evaluateTimestampOp(base string, v, cv value.Value) (bool, error) {
	if !v.IsString() || !cv.IsString() {
		return false, nil
	}
	vt, err := time.Parse(time.RFC3339, v.Str())
	if err != nil {
		return false, nil
	}
	ct, err := time.Parse(time.RFC3339, cv.Str())
	if err != nil {
		return false, nil
	}
	var cmp int
	switch {
	case vt.Before(ct):
		cmp = -1
	case vt.After(ct):
		cmp = 1
	}
	return compareOrdered(base, "Timestamp", cmp), nil
}

// compareOrdered maps a three-way comparison result to the Equals/
// LessThan/GreaterThan/LessThanEquals/GreaterThanEquals suffix of base.
func compareOrdered(base, family string, cmp int) bool {
	switch strings.TrimPrefix(base, family) {
	case "Equals":
		return cmp == 0
	case "LessThan":
		return cmp < 0
	case "GreaterThan":
		return cmp > 0
	case "LessThanEquals":
		return cmp <= 0
	case "GreaterThanEquals":
		return cmp >= 0
	}
	return false
}

// matchGlob implements ASL's restricted StringMatches pattern: literal
// characters plus `*` wildcards (escaped as `\*`), anchored at both
// ends.
func matchGlob(pattern, s string) bool {
	segs := splitGlob(pattern)
	return matchSegs(segs, s)
}

func splitGlob(pattern string) []string {
	var segs []string
	var cur strings.Builder
	for i := 0; i < len(pattern); i++ {
		if pattern[i] == '\\' && i+1 < len(pattern) && pattern[i+1] == '*' {
			cur.WriteByte('*')
			i++
			continue
		}
		if pattern[i] == '*' {
			segs = append(segs, cur.String())
			cur.Reset()
			segs = append(segs, "*")
			continue
		}
		cur.WriteByte(pattern[i])
	}
	segs = append(segs, cur.String())
	return segs
}

func matchSegs(segs []string, s string) bool {
	if len(segs) == 0 {
		return s == ""
	}
	if segs[0] != "*" {
		if !strings.HasPrefix(s, segs[0]) {
			return false
		}
		return matchSegs(segs[1:], s[len(segs[0]):])
	}
	// segs[0] == "*": try every split point.
	rest := segs[1:]
	for i := 0; i <= len(s); i++ {
		if matchSegs(rest, s[i:]) {
			return true
		}
	}
	return false
}
