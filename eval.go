package calc

import (
	"errors"
	"math"
	"strconv"
)

// Sentinel errors for each kind of evaluation failure. Every error returned
// from Eval wraps exactly one of these.
var (
	ErrDivisionByZero  = errors.New("division by zero")
	ErrOverflow        = errors.New("numerical result out of range")
	ErrDomain          = errors.New("math domain error")
	ErrUnknownOperator = errors.New("unknown operator")
)

// EvalOption is an option used when evaluating an expression.
type EvalOption interface {
	evalOption()
}

type degopt bool

func (degopt) evalOption() {}

// Degrees makes sin, cos, tg, and ctg take their arguments in degrees.
func Degrees() EvalOption {
	return degopt(true)
}

// Radians makes sin, cos, tg, and ctg take their arguments in radians. This
// is the default.
func Radians() EvalOption {
	return degopt(false)
}

// evalctx holds the settings for one evaluation.
type evalctx struct {
	degrees bool
}

// Eval evaluates an expression tree. The options are applied in order, so the
// last of Degrees and Radians wins. Eval does not modify n, so evaluating the
// same tree again gives the same result.
func Eval(n Node, opts ...EvalOption) (float64, error) {
	var ctx evalctx
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		switch opt := opt.(type) {
		case degopt:
			ctx.degrees = bool(opt)
		default:
			panic("calc: unknown option type")
		}
	}
	return ctx.eval(n)
}

// EvalString is a shortcut to parse and evaluate a string expression.
func EvalString(src string, opts ...EvalOption) (float64, error) {
	n, err := ParseString(src)
	if err != nil {
		return 0, err
	}
	return Eval(n, opts...)
}

func (ctx *evalctx) eval(n Node) (float64, error) {
	switch n := n.(type) {
	case *Number:
		if n == nil {
			return 0, &UnknownOperatorError{}
		}
		return n.Value, nil
	case *BinaryOp:
		if n == nil || n.Left == nil || n.Right == nil {
			return 0, &UnknownOperatorError{}
		}
		if binop(string(rune(n.Op))).op == 0 {
			return 0, &UnknownOperatorError{Op: n.Op.String()}
		}
		x, err := ctx.eval(n.Left)
		if err != nil {
			return 0, err
		}
		y, err := ctx.eval(n.Right)
		if err != nil {
			return 0, err
		}
		return apply(n.Op, x, y)
	case *UnaryOp:
		if n == nil || n.X == nil {
			return 0, &UnknownOperatorError{Unary: true}
		}
		m, ok := globalfuncs[n.Func]
		if !ok && n.Func != Neg {
			return 0, &UnknownOperatorError{Op: string(n.Func), Unary: true}
		}
		x, err := ctx.eval(n.X)
		if err != nil {
			return 0, err
		}
		if n.Func == Neg {
			return -x, nil
		}
		return m.call(n.Func, x, ctx.degrees)
	default:
		// Only nil reaches here, since Node is closed.
		return 0, &UnknownOperatorError{}
	}
}

// apply computes x op y for a known binary operator.
func apply(op Op, x, y float64) (float64, error) {
	var r float64
	switch op {
	case Add:
		r = x + y
	case Sub:
		r = x - y
	case Mul:
		r = x * y
	case Div:
		if y == 0 {
			return 0, &DivisionError{Op: op.String(), X: x, Y: y}
		}
		r = x / y
	case Pow:
		if x == 0 && y < 0 {
			// 0^-y = 1/0^y
			return 0, &DivisionError{Op: op.String(), X: x, Y: y}
		}
		r = math.Pow(x, y)
	default:
		panic("calc: apply on unknown operator " + strconv.Quote(op.String()))
	}
	return finite(op.String(), r, x, y)
}

// finite checks that r, the result of op on x and y, is finite whenever x and
// y are. Results on non-finite operands follow IEEE 754.
func finite(op string, r, x, y float64) (float64, error) {
	if !isfinite(x) || !isfinite(y) {
		return r, nil
	}
	switch {
	case math.IsNaN(r):
		return 0, &DomainError{Op: op, X: x, Y: y}
	case math.IsInf(r, 0):
		return 0, &OverflowError{Op: op, X: x, Y: y}
	}
	return r, nil
}

func isfinite(x float64) bool {
	return !math.IsInf(x, 0) && !math.IsNaN(x)
}

// DivisionError is an error returned when an operation divides by zero. It
// unwraps to ErrDivisionByZero.
type DivisionError struct {
	// Op is the binary operator or function name.
	Op string
	// X and Y are the operands. Y is zero for functions.
	X, Y float64
}

func (err *DivisionError) Error() string {
	return "division by zero in " + operation(err.Op, err.X, err.Y)
}

func (err *DivisionError) Unwrap() error {
	return ErrDivisionByZero
}

// OverflowError is an error returned when an operation on finite operands has
// a result too large in magnitude to represent. It unwraps to ErrOverflow.
type OverflowError struct {
	// Op is the binary operator or function name.
	Op string
	// X and Y are the operands. Y is zero for functions.
	X, Y float64
}

func (err *OverflowError) Error() string {
	return "result of " + operation(err.Op, err.X, err.Y) + " is out of range"
}

func (err *OverflowError) Unwrap() error {
	return ErrOverflow
}

// DomainError is an error returned when a function is called on an argument
// outside its domain, or when an operation on finite operands has no real
// result. It unwraps to ErrDomain.
type DomainError struct {
	// Op is the binary operator or function name.
	Op string
	// X and Y are the operands. Y is zero for functions.
	X, Y float64
}

func (err *DomainError) Error() string {
	return operation(err.Op, err.X, err.Y) + " outside domain"
}

func (err *DomainError) Unwrap() error {
	return ErrDomain
}

// UnknownOperatorError is an error returned when an expression tree contains
// an operator or function that Eval does not implement, or a missing node. It
// unwraps to ErrUnknownOperator.
type UnknownOperatorError struct {
	// Op is the operator symbol or function name. It is empty when the tree
	// has a nil node.
	Op string
	// Unary is whether the operator was found in a UnaryOp.
	Unary bool
}

func (err *UnknownOperatorError) Error() string {
	switch {
	case err.Op == "":
		return "malformed expression tree: missing node"
	case err.Unary:
		return "unknown function " + strconv.Quote(err.Op)
	default:
		return "unknown binary operator " + strconv.Quote(err.Op)
	}
}

func (err *UnknownOperatorError) Unwrap() error {
	return ErrUnknownOperator
}

// operation formats an operation for an error message.
func operation(op string, x, y float64) string {
	if _, ok := globalfuncs[Func(op)]; ok {
		return op + "(" + fmtfloat(x) + ")"
	}
	return fmtfloat(x) + " " + op + " " + fmtfloat(y)
}

func fmtfloat(x float64) string {
	return strconv.FormatFloat(x, 'g', -1, 64)
}
