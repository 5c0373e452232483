package jsonpath

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"hash"
	"math"
	"regexp"
	"strings"

	"github.com/gofrs/uuid"

	"github.com/stepbench/aslengine/asl/value"
	aslerrors "github.com/stepbench/aslengine/errors"
)

// evalIntrinsicCall evaluates one `States.Fn(args)` expression, including
// any nested `States.*` calls or `$`-rooted paths among its arguments.
func evalIntrinsicCall(expr string, data, ctx value.Value, vars map[string]value.Value) (value.Value, error) {
	name, argStr, err := splitCall(expr)
	if err != nil {
		return value.Value{}, &aslerrors.IntrinsicError{Msg: err.Error()}
	}
	args, err := evalArgs(argStr, data, ctx, vars)
	if err != nil {
		return value.Value{}, &aslerrors.IntrinsicError{Msg: fmt.Sprintf("%s: %v", name, err)}
	}
	fn, ok := intrinsics[name]
	if !ok {
		return value.Value{}, &aslerrors.IntrinsicError{Msg: fmt.Sprintf("unknown intrinsic function %q", name)}
	}
	v, err := fn(args)
	if err != nil {
		return value.Value{}, &aslerrors.IntrinsicError{Msg: fmt.Sprintf("%s: %v", name, err)}
	}
	return v, nil
}

type intrinsicFn func(args []value.Value) (value.Value, error)

var intrinsics = map[string]intrinsicFn{
	"States.Array":         fnArray,
	"States.ArrayPartition": fnArrayPartition,
	"States.ArrayContains": fnArrayContains,
	"States.ArrayRange":    fnArrayRange,
	"States.ArrayGetItem":  fnArrayGetItem,
	"States.ArrayLength":   fnArrayLength,
	"States.ArrayUnique":   fnArrayUnique,
	"States.Base64Encode":  fnBase64Encode,
	"States.Base64Decode":  fnBase64Decode,
	"States.Hash":          fnHash,
	"States.JsonMerge":     fnJSONMerge,
	"States.StringToJson":  fnStringToJSON,
	"States.JsonToString":  fnJSONToString,
	"States.MathRandom":    fnMathRandom,
	"States.MathAdd":       fnMathAdd,
	"States.StringSplit":   fnStringSplit,
	"States.Format":        fnFormat,
	"States.UUID":          fnUUID,
}

func fnArray(args []value.Value) (value.Value, error) {
	return value.ArraySlice(args), nil
}

func fnArrayPartition(args []value.Value) (value.Value, error) {
	if len(args) != 2 || !args[0].IsArray() || !args[1].IsNumber() {
		return value.Value{}, fmt.Errorf("expects (array, size)")
	}
	size := int(args[1].Number())
	if size <= 0 {
		return value.Value{}, fmt.Errorf("partition size must be positive")
	}
	items := args[0].Items()
	var out []value.Value
	for i := 0; i < len(items); i += size {
		end := i + size
		if end > len(items) {
			end = len(items)
		}
		chunk := append([]value.Value(nil), items[i:end]...)
		out = append(out, value.ArraySlice(chunk))
	}
	return value.ArraySlice(out), nil
}

func fnArrayContains(args []value.Value) (value.Value, error) {
	if len(args) != 2 || !args[0].IsArray() {
		return value.Value{}, fmt.Errorf("expects (array, target)")
	}
	for _, it := range args[0].Items() {
		if value.Equal(it, args[1]) {
			return value.Bool(true), nil
		}
	}
	return value.Bool(false), nil
}

// arrayRangeMax bounds States.ArrayRange output to AWS's documented 1000
// element ceiling.
const arrayRangeMax = 1000

func fnArrayRange(args []value.Value) (value.Value, error) {
	if len(args) != 3 {
		return value.Value{}, fmt.Errorf("expects (start, end, step)")
	}
	start, end, step := args[0].Number(), args[1].Number(), args[2].Number()
	if step == 0 {
		return value.Value{}, fmt.Errorf("step must not be zero")
	}
	var out []value.Value
	if step > 0 {
		for v := start; v <= end; v += step {
			out = append(out, value.Number(v))
			if len(out) > arrayRangeMax {
				return value.Value{}, fmt.Errorf("result exceeds maximum of %d elements", arrayRangeMax)
			}
		}
	} else {
		for v := start; v >= end; v += step {
			out = append(out, value.Number(v))
			if len(out) > arrayRangeMax {
				return value.Value{}, fmt.Errorf("result exceeds maximum of %d elements", arrayRangeMax)
			}
		}
	}
	return value.ArraySlice(out), nil
}

func fnArrayGetItem(args []value.Value) (value.Value, error) {
	if len(args) != 2 || !args[0].IsArray() || !args[1].IsNumber() {
		return value.Value{}, fmt.Errorf("expects (array, index)")
	}
	idx := int(math.Round(args[1].Number()))
	items := args[0].Items()
	if idx < 0 || idx >= len(items) {
		return value.Value{}, fmt.Errorf("index %d out of range for array of length %d", idx, len(items))
	}
	return items[idx], nil
}

func fnArrayLength(args []value.Value) (value.Value, error) {
	if len(args) != 1 || !args[0].IsArray() {
		return value.Value{}, fmt.Errorf("expects (array)")
	}
	return value.Int(len(args[0].Items())), nil
}

func fnArrayUnique(args []value.Value) (value.Value, error) {
	if len(args) != 1 || !args[0].IsArray() {
		return value.Value{}, fmt.Errorf("expects (array)")
	}
	var out []value.Value
	for _, it := range args[0].Items() {
		dup := false
		for _, seen := range out {
			if value.Equal(seen, it) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, it)
		}
	}
	return value.ArraySlice(out), nil
}

func fnBase64Encode(args []value.Value) (value.Value, error) {
	if len(args) != 1 || !args[0].IsString() {
		return value.Value{}, fmt.Errorf("expects (string)")
	}
	return value.String(base64.StdEncoding.EncodeToString([]byte(args[0].Str()))), nil
}

func fnBase64Decode(args []value.Value) (value.Value, error) {
	if len(args) != 1 || !args[0].IsString() {
		return value.Value{}, fmt.Errorf("expects (string)")
	}
	b, err := base64.StdEncoding.DecodeString(args[0].Str())
	if err != nil {
		return value.Value{}, fmt.Errorf("invalid base64 input: %w", err)
	}
	return value.String(string(b)), nil
}

func fnHash(args []value.Value) (value.Value, error) {
	if len(args) != 2 || !args[1].IsString() {
		return value.Value{}, fmt.Errorf("expects (data, algorithm)")
	}
	algo := args[1].Str()
	var h hash.Hash
	switch algo {
	case "SHA-1":
		h = sha1.New()
	case "SHA-256", "":
		h = sha256.New()
	case "SHA-384":
		h = sha512.New384()
	case "SHA-512":
		h = sha512.New()
	case "MD5":
		return value.Value{}, fmt.Errorf("MD5 is not a supported Hash algorithm")
	default:
		return value.Value{}, fmt.Errorf("unsupported hash algorithm %q", algo)
	}
	raw, err := serializeForHash(args[0])
	if err != nil {
		return value.Value{}, err
	}
	h.Write(raw)
	return value.String(fmt.Sprintf("%x", h.Sum(nil))), nil
}

func serializeForHash(v value.Value) ([]byte, error) {
	if v.IsString() {
		return []byte(v.Str()), nil
	}
	return value.ToJSON(v)
}

func fnJSONMerge(args []value.Value) (value.Value, error) {
	if len(args) != 3 || !args[0].IsObject() || !args[1].IsObject() {
		return value.Value{}, fmt.Errorf("expects (object, object, deepMerge)")
	}
	if !args[2].IsBool() || args[2].Bool() {
		return value.Value{}, fmt.Errorf("deepMerge must be the literal false; deep merge is not supported")
	}
	out := value.Object()
	for _, k := range args[0].Keys() {
		out = out.Set(k, args[0].MustGet(k))
	}
	for _, k := range args[1].Keys() {
		out = out.Set(k, args[1].MustGet(k))
	}
	return out, nil
}

func fnStringToJSON(args []value.Value) (value.Value, error) {
	if len(args) != 1 || !args[0].IsString() {
		return value.Value{}, fmt.Errorf("expects (string)")
	}
	return value.FromJSON([]byte(args[0].Str()))
}

func fnJSONToString(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, fmt.Errorf("expects (value)")
	}
	b, err := value.ToJSON(args[0])
	if err != nil {
		return value.Value{}, err
	}
	return value.String(string(b)), nil
}

// fnMathRandom implements the spec's deterministic local substitute for
// AWS's MathRandom (§9): seeded via sin(seed) rather than a real RNG, so
// that repeated test runs with the same seed are reproducible.
func fnMathRandom(args []value.Value) (value.Value, error) {
	if len(args) < 2 || len(args) > 3 {
		return value.Value{}, fmt.Errorf("expects (start, end[, seed])")
	}
	start, end := args[0].Number(), args[1].Number()
	seed := float64(0)
	if len(args) == 3 {
		seed = args[2].Number()
	}
	frac := math.Mod(math.Sin(seed)*10000, 1)
	if frac < 0 {
		frac += 1
	}
	return value.Int(int(start + frac*(end-start))), nil
}

// fnMathAdd returns an error, rather than a value, when the sum falls
// outside the int32 range AWS documents for States.MathAdd.
func fnMathAdd(args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return value.Value{}, fmt.Errorf("expects (num1, num2)")
	}
	sum := args[0].Number() + args[1].Number()
	if sum > math.MaxInt32 || sum < math.MinInt32 {
		return value.Value{}, fmt.Errorf("result %v overflows a 32-bit integer", sum)
	}
	return value.Int(int(sum)), nil
}

func fnStringSplit(args []value.Value) (value.Value, error) {
	if len(args) != 2 || !args[0].IsString() || !args[1].IsString() {
		return value.Value{}, fmt.Errorf("expects (string, delimiters)")
	}
	delims := args[1].Str()
	var parts []string
	if len(delims) == 1 {
		parts = strings.Split(args[0].Str(), delims)
	} else {
		parts = strings.FieldsFunc(args[0].Str(), func(r rune) bool {
			return strings.ContainsRune(delims, r)
		})
	}
	out := make([]value.Value, len(parts))
	for i, p := range parts {
		out[i] = value.String(p)
	}
	return value.ArraySlice(out), nil
}

var formatPlaceholder = regexp.MustCompile(`\{\}`)

func fnFormat(args []value.Value) (value.Value, error) {
	if len(args) < 1 || !args[0].IsString() {
		return value.Value{}, fmt.Errorf("expects (template, ...args)")
	}
	tmpl := args[0].Str()
	rest := args[1:]
	i := 0
	out := formatPlaceholder.ReplaceAllStringFunc(tmpl, func(string) string {
		if i >= len(rest) {
			return "{}"
		}
		s := rest[i].Describe()
		i++
		return s
	})
	if i != len(rest) {
		return value.Value{}, fmt.Errorf("argument count does not match placeholder count")
	}
	return value.String(out), nil
}

func fnUUID(args []value.Value) (value.Value, error) {
	if len(args) != 0 {
		return value.Value{}, fmt.Errorf("expects no arguments")
	}
	id, err := uuid.NewV4()
	if err != nil {
		return value.Value{}, err
	}
	return value.String(id.String()), nil
}
