// Copyright 2022 Drone.IO Inc. All rights reserved.
// Use of this source code is governed by the Polyform License
// that can be found in the LICENSE file.

// Package jsonata wraps github.com/blues/jsonata-go with the small set
// of Step Functions-specific extension functions that AWS layers on top
// of stock JSONata (spec §4.2): $partition, $range, $hash, $random,
// $uuid and $parse. Each distinct source string is compiled once, with
// the extensions registered at compile time, and the compiled Expr is
// cached and reused by every later evaluation of the same source.
package jsonata

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/json"
	"fmt"
	"hash"
	"math"
	"strings"
	"sync"

	"github.com/blues/jsonata-go"
	"github.com/gofrs/uuid"

	"github.com/stepbench/aslengine/asl/value"
)

// Detect reports whether s contains a `{% ... %}` JSONata escape,
// matching the rule shared by the Choice Condition validator and the
// payload-template walker (spec §3/§4.3).
func Detect(s string) bool {
	return strings.Contains(s, "{%") && strings.Contains(s, "%}")
}

// IsFullyWrapped reports whether s, once trimmed, is entirely a single
// `{% ... %}` expression, as the ASL grammar requires for a Choice
// Condition or a state's top-level Output/Arguments/Assign field.
func IsFullyWrapped(s string) bool {
	t := strings.TrimSpace(s)
	return strings.HasPrefix(t, "{%") && strings.HasSuffix(t, "%}") && len(t) >= 4
}

// Unwrap strips the `{% %}` delimiters and surrounding whitespace,
// returning the bare JSONata source.
func Unwrap(s string) string {
	t := strings.TrimSpace(s)
	t = strings.TrimPrefix(t, "{%")
	t = strings.TrimSuffix(t, "%}")
	return strings.TrimSpace(t)
}

var exprCache sync.Map // string -> *jsonata.Expr

func compile(src string) (*jsonata.Expr, error) {
	if cached, ok := exprCache.Load(src); ok {
		return cached.(*jsonata.Expr), nil
	}
	e, err := jsonata.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("jsonata: compile error: %w", err)
	}
	registerExtensions(e)
	exprCache.Store(src, e)
	return e, nil
}

func registerExtensions(e *jsonata.Expr) {
	e.RegisterExtFunc("partition", extPartition)
	e.RegisterExtFunc("range", extRange)
	e.RegisterExtFunc("hash", extHash)
	e.RegisterExtFunc("random", extRandom)
	e.RegisterExtFunc("uuid", extUUID)
	e.RegisterExtFunc("parse", extParse)
}

// Eval compiles (or reuses) the expression, binds data as the root
// context and bindings as named variables ($varName), and converts the
// result back into the interpreter's Value model.
func Eval(exprSrc string, data value.Value, bindings map[string]value.Value) (value.Value, error) {
	e, err := compile(exprSrc)
	if err != nil {
		return value.Value{}, err
	}
	if len(bindings) > 0 {
		vars := make(map[string]interface{}, len(bindings))
		for k, v := range bindings {
			vars[k] = toGo(v)
		}
		e.RegisterVars(vars)
	}
	result, err := e.Eval(toGo(data))
	if err != nil {
		return value.Value{}, fmt.Errorf("jsonata: evaluation error: %w", err)
	}
	return fromGo(result)
}

func toGo(v value.Value) interface{} {
	switch v.Kind() {
	case value.KindNull:
		return nil
	case value.KindBool:
		return v.Bool()
	case value.KindNumber:
		return v.Number()
	case value.KindString:
		return v.Str()
	case value.KindArray:
		items := v.Items()
		out := make([]interface{}, len(items))
		for i, it := range items {
			out[i] = toGo(it)
		}
		return out
	case value.KindObject:
		out := make(map[string]interface{}, v.Len())
		for _, k := range v.Keys() {
			out[k] = toGo(v.MustGet(k))
		}
		return out
	default:
		return nil
	}
}

func fromGo(v interface{}) (value.Value, error) {
	switch t := v.(type) {
	case nil:
		return value.Null(), nil
	case []interface{}:
		return value.FromGo(t)
	case map[string]interface{}:
		return value.FromGo(t)
	default:
		return value.FromGo(t)
	}
}

func extPartition(arr []interface{}, size int) ([][]interface{}, error) {
	if size <= 0 {
		return nil, fmt.Errorf("$partition: size must be positive")
	}
	var out [][]interface{}
	for i := 0; i < len(arr); i += size {
		end := i + size
		if end > len(arr) {
			end = len(arr)
		}
		out = append(out, append([]interface{}(nil), arr[i:end]...))
	}
	return out, nil
}

// extRange implements Step Functions' inclusive-end $range, collapsing
// a single-element result to a bare scalar rather than a one-item
// array.
func extRange(start, end float64, step ...float64) (interface{}, error) {
	s := 1.0
	if len(step) > 0 {
		s = step[0]
	}
	if s == 0 {
		return nil, fmt.Errorf("$range: step must not be zero")
	}
	var out []interface{}
	if s > 0 {
		for v := start; v <= end; v += s {
			out = append(out, v)
		}
	} else {
		for v := start; v >= end; v += s {
			out = append(out, v)
		}
	}
	if len(out) == 1 {
		return out[0], nil
	}
	return out, nil
}

func extHash(data interface{}, algo string) (string, error) {
	var h hash.Hash
	switch algo {
	case "SHA-256", "":
		h = sha256.New()
	case "SHA-384":
		h = sha512.New384()
	case "SHA-512":
		h = sha512.New()
	default:
		return "", fmt.Errorf("$hash: unsupported algorithm %q", algo)
	}
	var raw []byte
	if s, ok := data.(string); ok {
		raw = []byte(s)
	} else {
		b, err := json.Marshal(data)
		if err != nil {
			return "", err
		}
		raw = b
	}
	h.Write(raw)
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// extRandom mirrors the deterministic local substitute used by the
// JSONPath intrinsic family (spec §9): seeded via sin(seed) instead of
// a real RNG so that test runs reproduce.
func extRandom(seed ...float64) float64 {
	s := 0.0
	if len(seed) > 0 {
		s = seed[0]
	}
	frac := math.Mod(math.Sin(s)*10000, 1)
	if frac < 0 {
		frac += 1
	}
	return frac
}

func extUUID() (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func extParse(s string) (interface{}, error) {
	var v interface{}
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, fmt.Errorf("$parse: %w", err)
	}
	return v, nil
}
