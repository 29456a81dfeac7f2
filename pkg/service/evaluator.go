package service

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/constant"
	"go/parser"
	"go/token"
	"math"
	"strconv"
	"strings"
)

// Evaluator runs submitted code and returns its printable result.
type Evaluator interface {
	Evaluate(ctx context.Context, code string) (string, error)
}

// EvaluatorFunc adapts a function to the Evaluator interface.
type EvaluatorFunc func(ctx context.Context, code string) (string, error)

// Evaluate calls f(ctx, code).
func (f EvaluatorFunc) Evaluate(ctx context.Context, code string) (string, error) {
	return f(ctx, code)
}

var (
	// ErrUnsupported is returned for code the arithmetic evaluator cannot run.
	ErrUnsupported = errors.New("unsupported expression")
	// ErrOutOfRange is returned when a literal or an intermediate value
	// exceeds the evaluator's limits.
	ErrOutOfRange = errors.New("value out of range")
)

// Limits on folded values. Exact integer and rational arithmetic is
// unbounded, so every literal and intermediate result is checked.
const (
	maxLiteralLen = 640
	maxBits       = 2048
)

var maxMagnitude = constant.MakeFloat64(math.MaxFloat64)

// Arithmetic evaluates integer and decimal arithmetic expressions such as
// "6 + 8" or "(1 + 2) * 3 / 4". Integer operands stay exact; division
// of integers yields a decimal when it does not divide evenly.
type Arithmetic struct{}

// Evaluate parses code as a single expression and folds it to a constant.
func (Arithmetic) Evaluate(ctx context.Context, code string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	code = strings.TrimSpace(code)
	if code == "" {
		return "", fmt.Errorf("%w: empty code", ErrUnsupported)
	}

	expr, err := parser.ParseExpr(code)
	if err != nil {
		return "", fmt.Errorf("syntax error: %w", err)
	}

	v, err := fold(expr)
	if err != nil {
		return "", err
	}
	return format(v), nil
}

func fold(e ast.Expr) (constant.Value, error) {
	switch n := e.(type) {
	case *ast.BasicLit:
		if n.Kind != token.INT && n.Kind != token.FLOAT {
			return nil, fmt.Errorf("%w: literal %s", ErrUnsupported, n.Value)
		}
		if len(n.Value) > maxLiteralLen {
			return nil, fmt.Errorf("%w: literal of %d characters", ErrOutOfRange, len(n.Value))
		}
		v := constant.MakeFromLiteral(n.Value, n.Kind, 0)
		if v.Kind() == constant.Unknown {
			return nil, fmt.Errorf("%w: literal %s", ErrUnsupported, n.Value)
		}
		return bounded(v)

	case *ast.ParenExpr:
		return fold(n.X)

	case *ast.UnaryExpr:
		if n.Op != token.ADD && n.Op != token.SUB {
			return nil, fmt.Errorf("%w: operator %s", ErrUnsupported, n.Op)
		}
		x, err := fold(n.X)
		if err != nil {
			return nil, err
		}
		return bounded(constant.UnaryOp(n.Op, x, 0))

	case *ast.BinaryExpr:
		x, err := fold(n.X)
		if err != nil {
			return nil, err
		}
		y, err := fold(n.Y)
		if err != nil {
			return nil, err
		}
		v, err := binary(n.Op, x, y)
		if err != nil {
			return nil, err
		}
		return bounded(v)
	}

	return nil, fmt.Errorf("%w: %T", ErrUnsupported, e)
}

func binary(op token.Token, x, y constant.Value) (constant.Value, error) {
	switch op {
	case token.ADD, token.SUB, token.MUL:
		return constant.BinaryOp(x, op, y), nil
	case token.QUO:
		if constant.Sign(y) == 0 {
			return nil, errors.New("division by zero")
		}
		return constant.BinaryOp(x, op, y), nil
	case token.REM:
		if x.Kind() != constant.Int || y.Kind() != constant.Int {
			return nil, fmt.Errorf("%w: %% on non-integer operands", ErrUnsupported)
		}
		if constant.Sign(y) == 0 {
			return nil, errors.New("division by zero")
		}
		return constant.BinaryOp(x, op, y), nil
	}
	return nil, fmt.Errorf("%w: operator %s", ErrUnsupported, op)
}

// bounded rejects values above the float64 range and exact values whose
// numerator or denominator needs more than maxBits bits.
func bounded(v constant.Value) (constant.Value, error) {
	abs := v
	if constant.Sign(v) < 0 {
		abs = constant.UnaryOp(token.SUB, v, 0)
	}
	if constant.Compare(abs, token.GTR, maxMagnitude) {
		return nil, ErrOutOfRange
	}
	// Num and Denom are unknown for floats too large for an exact form.
	for _, part := range []constant.Value{constant.Num(v), constant.Denom(v)} {
		if part.Kind() == constant.Int && constant.BitLen(part) > maxBits {
			return nil, ErrOutOfRange
		}
	}
	return v, nil
}

// format renders whole numbers without a fractional part.
func format(v constant.Value) string {
	if i := constant.ToInt(v); i.Kind() == constant.Int {
		return i.ExactString()
	}
	f, _ := constant.Float64Val(v)
	return strconv.FormatFloat(f, 'f', -1, 64)
}
