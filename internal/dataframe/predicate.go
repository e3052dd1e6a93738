package dataframe

import (
	"errors"
	"fmt"
	"math"
	"reflect"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
)

// ErrInvalidExpression is returned when a filter expression does not compile.
var ErrInvalidExpression = errors.New("invalid filter expression")

// Predicate is a row condition. It is bound to a frame's schema by Where,
// so references to missing columns fail before any row is evaluated.
type Predicate interface {
	compile(f *Frame) (func(r *Row) (bool, error), error)
}

type eqPredicate struct {
	column string
	value  any
}

// Eq matches rows whose column equals value. Integer, unsigned and float
// values compare numerically regardless of their Go type.
func Eq(column string, value any) Predicate {
	return eqPredicate{column: column, value: value}
}

func (p eqPredicate) compile(f *Frame) (func(r *Row) (bool, error), error) {
	c, ok := f.lookup(p.column)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, p.column)
	}
	return func(r *Row) (bool, error) {
		return equal(c.get(r), p.value), nil
	}, nil
}

func equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if x, ok := toFloat(a); ok {
		y, ok := toFloat(b)
		return ok && x == y
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		if math.IsNaN(n) {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

type exprPredicate struct {
	source string
}

// Expr matches rows for which a CEL boolean expression holds. Every column
// of the frame is declared as a variable, so an expression such as
//
//	remote_port == 27017 && conn_open > 0
//
// fails to compile against a frame that lacks either column.
func Expr(source string) Predicate {
	return exprPredicate{source: source}
}

func (p exprPredicate) compile(f *Frame) (func(r *Row) (bool, error), error) {
	opts := make([]cel.EnvOption, 0, len(f.cols))
	for _, c := range f.cols {
		opts = append(opts, cel.Variable(c.name, cel.DynType))
	}

	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExpression, err)
	}

	ast, iss := env.Compile(p.source)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExpression, iss.Err())
	}
	if out := ast.OutputType(); !out.IsExactType(types.BoolType) && !out.IsExactType(types.DynType) {
		return nil, fmt.Errorf("%w: expression yields %s, want bool", ErrInvalidExpression, out)
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExpression, err)
	}

	cols := f.cols
	return func(r *Row) (bool, error) {
		vars := make(map[string]any, len(cols))
		for _, c := range cols {
			vars[c.name] = c.get(r)
		}

		out, _, err := prg.Eval(vars)
		if err != nil {
			return false, err
		}
		b, ok := out.(types.Bool)
		if !ok {
			return false, fmt.Errorf("expression yielded %s, want bool", out.Type())
		}
		return bool(b), nil
	}, nil
}
