// Copyright 2022 Drone.IO Inc. All rights reserved.
// Use of this source code is governed by the Polyform License
// that can be found in the LICENSE file.

// Package jsonpath implements the constrained JSONPath dialect used by
// the Amazon States Language: `$`, `$.field`, `$[index]`, chained
// combinations thereof, and the `States.*` intrinsic function family
// (spec §4.2). It is a bespoke, hand-written evaluator: no pack
// dependency implements this specific AWS dialect (see DESIGN.md).
package jsonpath

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/stepbench/aslengine/asl/value"
)

type segment struct {
	field string
	index int
	isIdx bool
}

// parsePath tokenizes a `$...` path into a sequence of field/index
// segments. `$` alone yields no segments (identity).
func parsePath(path string) ([]segment, error) {
	if !strings.HasPrefix(path, "$") {
		return nil, fmt.Errorf("path must start with '$': %q", path)
	}
	rest := path[1:]
	var segs []segment
	i := 0
	for i < len(rest) {
		switch rest[i] {
		case '.':
			i++
			start := i
			for i < len(rest) && rest[i] != '.' && rest[i] != '[' {
				i++
			}
			field := rest[start:i]
			if field == "" {
				return nil, fmt.Errorf("empty field segment in path %q", path)
			}
			segs = append(segs, segment{field: field})
		case '[':
			end := strings.IndexByte(rest[i:], ']')
			if end < 0 {
				return nil, fmt.Errorf("unterminated '[' in path %q", path)
			}
			raw := rest[i+1 : i+end]
			raw = strings.Trim(raw, `'"`)
			idx, err := strconv.Atoi(raw)
			if err != nil {
				return nil, fmt.Errorf("non-integer index %q in path %q", raw, path)
			}
			segs = append(segs, segment{index: idx, isIdx: true})
			i += end + 1
		default:
			return nil, fmt.Errorf("unexpected character %q at position %d in path %q", rest[i], i, path)
		}
	}
	return segs, nil
}

// Eval resolves a `$`-rooted path against data. found is false when the
// path does not resolve (absent object key or out-of-range index),
// matching spec §4.5.3's IsPresent semantics.
func Eval(path string, data value.Value) (result value.Value, found bool, err error) {
	if path == "" || path == "$" {
		return data, true, nil
	}
	segs, err := parsePath(path)
	if err != nil {
		return value.Value{}, false, err
	}
	cur := data
	for _, s := range segs {
		if s.isIdx {
			if !cur.IsArray() || s.index < 0 || s.index >= cur.Len() {
				return value.Value{}, false, nil
			}
			cur = cur.Index(s.index)
			continue
		}
		if !cur.IsObject() {
			return value.Value{}, false, nil
		}
		v, ok := cur.Get(s.field)
		if !ok {
			return value.Value{}, false, nil
		}
		cur = v
	}
	return cur, true, nil
}

// MustEval panics on parse/traversal errors; intended for use on paths
// already validated by the factory.
func MustEval(path string, data value.Value) value.Value {
	v, _, err := Eval(path, data)
	if err != nil {
		panic(err)
	}
	return v
}
