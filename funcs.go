package calc

import "math"

// constants are the names resolved to numbers during parsing.
var constants = map[string]float64{
	"pi": math.Pi,
	"e":  math.E,
}

// funcs are the names parsed as functions when followed by a bracket.
var funcs = map[string]Func{
	"sin":  Sin,
	"cos":  Cos,
	"tg":   Tg,
	"ctg":  Ctg,
	"ln":   Ln,
	"exp":  Exp,
	"sqrt": Sqrt,
}

// monadic is a function of one real variable. f returns ErrDivisionByZero or
// ErrDomain, unwrapped, when its argument is outside its domain; the caller
// attaches the details.
type monadic struct {
	f func(x float64) (float64, error)
	// trig is whether the function's argument is an angle.
	trig bool
}

var globalfuncs = map[Func]monadic{
	Sin:  {f: total(math.Sin), trig: true},
	Cos:  {f: total(math.Cos), trig: true},
	Tg:   {f: tg, trig: true},
	Ctg:  {f: ctg, trig: true},
	Ln:   {f: ln},
	Exp:  {f: total(math.Exp)},
	Sqrt: {f: sqrt},
}

// total wraps a function defined on all finite inputs.
func total(f func(float64) float64) func(float64) (float64, error) {
	return func(x float64) (float64, error) {
		return f(x), nil
	}
}

func tg(x float64) (float64, error) {
	s, c := math.Sincos(x)
	if c == 0 {
		return 0, ErrDivisionByZero
	}
	return s / c, nil
}

func ctg(x float64) (float64, error) {
	s, c := math.Sincos(x)
	if s == 0 {
		return 0, ErrDivisionByZero
	}
	return c / s, nil
}

func ln(x float64) (float64, error) {
	if x <= 0 {
		return 0, ErrDomain
	}
	return math.Log(x), nil
}

func sqrt(x float64) (float64, error) {
	if x < 0 {
		return 0, ErrDomain
	}
	return math.Sqrt(x), nil
}

// radians converts an angle in degrees to radians.
func radians(deg float64) float64 {
	return deg * (math.Pi / 180)
}

// call applies the function named fn to x.
func (m monadic) call(fn Func, x float64, degrees bool) (float64, error) {
	in := x
	if degrees && m.trig {
		in = radians(x)
	}
	r, err := m.f(in)
	switch err {
	case nil:
		return finite(string(fn), r, x, 0)
	case ErrDivisionByZero:
		return 0, &DivisionError{Op: string(fn), X: x}
	case ErrDomain:
		return 0, &DomainError{Op: string(fn), X: x}
	default:
		panic("calc: unexpected error from " + string(fn) + ": " + err.Error())
	}
}
