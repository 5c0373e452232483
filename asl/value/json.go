// Copyright 2022 Drone.IO Inc. All rights reserved.
// Use of this source code is governed by the Polyform License
// that can be found in the LICENSE file.

package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// FromJSON decodes a JSON document into a Value, preserving object key
// order. encoding/json's generic map[string]any decode does not
// preserve order, so this walks the token stream directly; no pack
// dependency offers an order-preserving generic JSON value (see
// DESIGN.md).
func FromJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return Value{}, err
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	return decodeToken(dec, tok)
}

func decodeToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := Object()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("value: expected object key, got %v", keyTok)
				}
				val, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				obj = obj.Set(key, val)
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return Value{}, err
			}
			return obj, nil
		case '[':
			var items []Value
			for dec.More() {
				val, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				items = append(items, val)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return Value{}, err
			}
			return ArraySlice(items), nil
		default:
			return Value{}, fmt.Errorf("value: unexpected delimiter %v", t)
		}
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Value{}, err
		}
		return Number(f), nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case nil:
		return Null(), nil
	default:
		return Value{}, fmt.Errorf("value: unsupported token %T", tok)
	}
}

// MustFromGo converts common Go literals (used heavily in tests) into a
// Value tree: nil, bool, float64/int, string, []any, map[string]any (in
// map iteration order is NOT guaranteed -- prefer FromJSON or Object()
// builders for anything order-sensitive).
func MustFromGo(v any) Value {
	val, err := FromGo(v)
	if err != nil {
		panic(err)
	}
	return val
}

// FromGo converts a Go literal into a Value tree.
func FromGo(v any) (Value, error) {
	switch t := v.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case bool:
		return Bool(t), nil
	case float64:
		return Number(t), nil
	case int:
		return Number(float64(t)), nil
	case int64:
		return Number(float64(t)), nil
	case string:
		return String(t), nil
	case []any:
		items := make([]Value, len(t))
		for i, e := range t {
			cv, err := FromGo(e)
			if err != nil {
				return Value{}, err
			}
			items[i] = cv
		}
		return ArraySlice(items), nil
	case map[string]any:
		obj := Object()
		for k, e := range t {
			cv, err := FromGo(e)
			if err != nil {
				return Value{}, err
			}
			obj = obj.Set(k, cv)
		}
		return obj, nil
	default:
		return Value{}, fmt.Errorf("value: cannot convert %T to Value", v)
	}
}

// ToJSON serializes a Value back to JSON, preserving object key order.
func ToJSON(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalJSON makes Value a first-class encoding/json citizen, so a
// struct embedding Value fields (runtime.ExecutionResult, a TestResult)
// serializes with ordinary json.Marshal instead of needing callers to
// special-case every Value field through ToJSON.
func (v Value) MarshalJSON() ([]byte, error) {
	return ToJSON(v)
}

// UnmarshalJSON decodes into v via the same order-preserving path
// FromJSON uses.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := FromJSON(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func writeJSON(w io.Writer, v Value) error {
	switch v.kind {
	case KindNull:
		_, err := io.WriteString(w, "null")
		return err
	case KindBool:
		_, err := io.WriteString(w, strconv.FormatBool(v.b))
		return err
	case KindNumber:
		_, err := io.WriteString(w, strconv.FormatFloat(v.n, 'g', -1, 64))
		return err
	case KindString:
		b, err := json.Marshal(v.s)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	case KindArray:
		if _, err := io.WriteString(w, "["); err != nil {
			return err
		}
		for i, e := range v.arr {
			if i > 0 {
				if _, err := io.WriteString(w, ","); err != nil {
					return err
				}
			}
			if err := writeJSON(w, e); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "]")
		return err
	case KindObject:
		if _, err := io.WriteString(w, "{"); err != nil {
			return err
		}
		for i, k := range v.obj.keys {
			if i > 0 {
				if _, err := io.WriteString(w, ","); err != nil {
					return err
				}
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return err
			}
			if _, err := w.Write(kb); err != nil {
				return err
			}
			if _, err := io.WriteString(w, ":"); err != nil {
				return err
			}
			val, _ := v.obj.get(k)
			if err := writeJSON(w, val); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "}")
		return err
	}
	return fmt.Errorf("value: unknown kind %v", v.kind)
}
