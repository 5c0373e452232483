package jsonpath

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/stepbench/aslengine/asl/value"
)

// varRefPattern matches a bare `$name` variable reference (Assign/JSONata
// variables), as distinct from a `$.path` JSONPath or `$$.path` context
// reference.
var varRefPattern = regexp.MustCompile(`^\$[A-Za-z_][A-Za-z0-9_]*$`)

// EvalField implements the payload-template leaf evaluation order (spec
// §4.3): an intrinsic call, a context-object reference, a bound
// variable reference, then plain JSONPath, in that order.
func EvalField(expr string, data, ctx value.Value, vars map[string]value.Value) (value.Value, error) {
	expr = strings.TrimSpace(expr)
	switch {
	case strings.HasPrefix(expr, "States."):
		return evalIntrinsicCall(expr, data, ctx, vars)
	case strings.HasPrefix(expr, "$$"):
		v, _, err := Eval("$"+expr[2:], ctx)
		return v, err
	case varRefPattern.MatchString(expr):
		if v, ok := vars[expr[1:]]; ok {
			return v, nil
		}
		return value.Value{}, fmt.Errorf("undefined variable %q", expr)
	default:
		v, found, err := Eval(expr, data)
		if err != nil {
			return value.Value{}, err
		}
		if !found {
			return value.Value{}, fmt.Errorf("path %q does not resolve against input", expr)
		}
		return v, nil
	}
}

// splitTopLevelArgs splits an intrinsic argument list on commas, but not
// commas nested inside (), [], or '...' string literals.
func splitTopLevelArgs(s string) []string {
	var out []string
	depth := 0
	inQuote := false
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inQuote:
			if c == '\\' && i+1 < len(s) {
				i++
			} else if c == '\'' {
				inQuote = false
			}
		case c == '\'':
			inQuote = true
		case c == '(' || c == '[':
			depth++
		case c == ')' || c == ']':
			depth--
		case c == ',' && depth == 0:
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	if strings.TrimSpace(s[start:]) != "" || len(out) > 0 {
		out = append(out, s[start:])
	}
	for i := range out {
		out[i] = strings.TrimSpace(out[i])
	}
	return out
}

// splitCall separates a `Name(args)` call into its name and raw argument
// string, respecting nested parens so an argument that is itself a
// States.* call is not truncated early.
func splitCall(expr string) (name, argStr string, err error) {
	open := strings.IndexByte(expr, '(')
	if open < 0 || !strings.HasSuffix(expr, ")") {
		return "", "", fmt.Errorf("malformed intrinsic call: %q", expr)
	}
	return expr[:open], expr[open+1 : len(expr)-1], nil
}

// evalArgs evaluates each top-level argument of an intrinsic call using
// the same dispatch order as EvalField.
func evalArgs(argStr string, data, ctx value.Value, vars map[string]value.Value) ([]value.Value, error) {
	parts := splitTopLevelArgs(argStr)
	out := make([]value.Value, 0, len(parts))
	for _, p := range parts {
		v, err := evalOneArg(p, data, ctx, vars)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// evalOneArg evaluates a single intrinsic argument: a nested States.*
// call, a `$`/`$$`-rooted path, or a literal (single-quoted string or
// bare JSON scalar/array/object).
func evalOneArg(arg string, data, ctx value.Value, vars map[string]value.Value) (value.Value, error) {
	arg = strings.TrimSpace(arg)
	switch {
	case strings.HasPrefix(arg, "States."):
		return evalIntrinsicCall(arg, data, ctx, vars)
	case strings.HasPrefix(arg, "$$"):
		v, _, err := Eval("$"+arg[2:], ctx)
		return v, err
	case strings.HasPrefix(arg, "$"):
		v, found, err := Eval(arg, data)
		if err != nil {
			return value.Value{}, err
		}
		if !found {
			return value.Value{}, &pathNotFoundError{arg}
		}
		return v, nil
	case strings.HasPrefix(arg, "'") && strings.HasSuffix(arg, "'") && len(arg) >= 2:
		return value.String(unescapeSingleQuoted(arg[1 : len(arg)-1])), nil
	default:
		v, err := value.FromJSON([]byte(arg))
		if err != nil {
			return value.Value{}, fmt.Errorf("invalid intrinsic argument %q: %w", arg, err)
		}
		return v, nil
	}
}

func unescapeSingleQuoted(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && (s[i+1] == '\'' || s[i+1] == '\\') {
			b.WriteByte(s[i+1])
			i++
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

type pathNotFoundError struct{ path string }

func (e *pathNotFoundError) Error() string {
	return fmt.Sprintf("path %q does not resolve against input", e.path)
}
