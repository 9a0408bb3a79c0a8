package action

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/google/cel-go/cel"
)

// Expression is a compiled CEL predicate over actions. The expression sees
// four variables:
//
//	type     string              the action type
//	payload  dyn                 the payload, as its JSON form
//	error    bool                the action's Error flag
//	meta     map(string, dyn)    the action's metadata
//
// For example:
//
//	type == "search/next" && size(payload.results) > 0
//	type.startsWith("counter/") && !error
type Expression struct {
	source string
	prog   cel.Program
}

// Compile parses and type-checks expr. An empty expression matches
// everything.
func Compile(expr string) (*Expression, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return &Expression{}, nil
	}

	env, err := cel.NewEnv(
		cel.Variable("type", cel.StringType),
		cel.Variable("payload", cel.DynType),
		cel.Variable("error", cel.BoolType),
		cel.Variable("meta", cel.MapType(cel.StringType, cel.DynType)),
		cel.CrossTypeNumericComparisons(true),
	)
	if err != nil {
		return nil, fmt.Errorf("action: create CEL environment: %w", err)
	}
	ast, iss := env.Parse(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("action: parse %q: %w", expr, iss.Err())
	}
	checked, iss := env.Check(ast)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("action: check %q: %w", expr, iss.Err())
	}
	if out := checked.OutputType(); !reflect.DeepEqual(out, cel.BoolType) && !reflect.DeepEqual(out, cel.DynType) {
		return nil, fmt.Errorf("action: %q evaluates to %s, not bool", expr, checked.OutputType())
	}
	prog, err := env.Program(checked)
	if err != nil {
		return nil, fmt.Errorf("action: program %q: %w", expr, err)
	}
	return &Expression{source: expr, prog: prog}, nil
}

// MustCompile is Compile that panics on error.
func MustCompile(expr string) *Expression {
	e, err := Compile(expr)
	if err != nil {
		panic(err)
	}
	return e
}

// String returns the source expression.
func (e *Expression) String() string { return e.source }

// Match evaluates the expression against a. Evaluation errors, such as a
// missing payload field, count as no match.
func (e *Expression) Match(a Action) bool {
	if e.prog == nil {
		return true
	}
	meta := a.Meta
	if meta == nil {
		meta = map[string]any{}
	}
	out, _, err := e.prog.Eval(map[string]any{
		"type":    a.Type,
		"payload": celValue(a.Payload),
		"error":   a.Error,
		"meta":    meta,
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}

// celValue converts a payload to values the CEL runtime understands.
func celValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case error:
		return x.Error()
	case string, bool, int, int64, float64, map[string]any, []any:
		return x
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Sprint(v)
	}
	return out
}
