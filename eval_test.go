package calc_test

import (
	"errors"
	"math"
	"math/big"
	"regexp"
	"sync"
	"testing"

	"github.com/zephyrtronium/bigfloat"

	"github.com/zephyrtronium/calc"
)

func TestEval(t *testing.T) {
	cases := []struct {
		name string
		src  string
		r    float64
	}{
		{"num", "1", 1},
		{"add", "1 + 1", 2},
		{"mul", "2 * 3", 6},
		{"sub", "4-5-6", -7},
		{"div", "10/4", 2.5},
		{"pow", "2^3", 8},
		{"sci", "1.25e2", 125},
		{"precedence", "2 + 3 * 4", 14},
		{"parens", "(2 + 3) * 4", 20},
		{"pow-right", "2^3^2", 512},
		{"pow-neg", "4^-2", 0.0625},
		{"pow-frac", "4^0.5", 2},
		{"neg-pow", "-2^2", 4},
		{"pow-negpow", "2^-3^2", 512},
		{"negneg", "--3", 3},
		{"neg-zero", "-0", math.Copysign(0, -1)},
		{"underflow", "1e-400", 0},
		{"sqrt", "sqrt(4)", 2},
		{"exp", "exp(0)", 1},
		{"ln", "ln(1)", 0},
		{"cos", "cos(0)", 1},
		{"sin", "sin(0)", 0},
		{"tg", "tg(0)", 0},
		{"pi", "pi", math.Pi},
		{"e", "e", math.E},
		{"zero-pow-zero", "0^0", 1},
		{"zero-pow", "0^2", 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			n, err := calc.ParseString(c.src)
			if err != nil {
				t.Fatal(c.src, "failed to parse:", err)
			}
			r, err := calc.Eval(n)
			if err != nil {
				t.Fatal("evaluation error:", err)
			}
			if r != c.r || math.Signbit(r) != math.Signbit(c.r) {
				t.Errorf("wrong result: want %g, got %g", c.r, r)
			}
		})
	}
}

func TestEvalApprox(t *testing.T) {
	cases := []struct {
		name string
		src  string
		r    float64
		tol  float64
	}{
		{"parens", "1 + 2 / (3 + 4)", 1.2857142857142856, 1e-10},
		{"sum", "0.1 + 0.2", 0.3, 1e-9},
		{"pi", "pi", 3.14159265358979, 1e-6},
		{"e", "e", 2.71828182845905, 1e-6},
		{"sin", "sin(pi / 2)", 1, 1e-12},
		{"cos", "cos(0)", 1, 1e-12},
		{"tg", "tg(pi / 4)", 1, 1e-12},
		{"ctg", "ctg(pi / 4)", 1, 1e-12},
		{"ln", "ln(e)", 1, 1e-12},
		{"exp", "exp(1)", 2.718281828459045, 1e-12},
		{"sqrt", "sqrt(4)", 2, 1e-12},
		{"sqrt-ln", "sqrt(ln(e))", 1, 1e-12},
		{"tg-neg", "tg(-pi / 4)", -1, 1e-12},
		{"cube-root", "8^(1/3)", 2, 1e-12},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r, err := calc.EvalString(c.src)
			if err != nil {
				t.Fatalf("evaluating %q: %v", c.src, err)
			}
			if math.Abs(r-c.r) > c.tol {
				t.Errorf("%q: want %g ± %g, got %g", c.src, c.r, c.tol, r)
			}
		})
	}
}

func TestEvalLargeQuotient(t *testing.T) {
	r, err := calc.EvalString("1 / 1e-300")
	if err != nil {
		t.Fatal(err)
	}
	if r <= 1e299 {
		t.Errorf("want > 1e299, got %g", r)
	}
}

func TestEvalDegrees(t *testing.T) {
	cases := []struct {
		name string
		src  string
		opts []calc.EvalOption
		r    float64
	}{
		{"sin-deg", "sin(90)", []calc.EvalOption{calc.Degrees()}, 1},
		{"sin-rad", "sin(90)", nil, math.Sin(90)},
		{"sin-rad-explicit", "sin(90)", []calc.EvalOption{calc.Radians()}, math.Sin(90)},
		{"cos-deg", "cos(180)", []calc.EvalOption{calc.Degrees()}, -1},
		{"cos-deg-60", "cos(60)", []calc.EvalOption{calc.Degrees()}, 0.5},
		{"tg-deg", "tg(45)", []calc.EvalOption{calc.Degrees()}, 1},
		{"ctg-deg", "ctg(45)", []calc.EvalOption{calc.Degrees()}, 1},
		{"sin-deg-neg", "sin(-30)", []calc.EvalOption{calc.Degrees()}, -0.5},
		{"ln-deg", "ln(e)", []calc.EvalOption{calc.Degrees()}, 1},
		{"exp-deg", "exp(1)", []calc.EvalOption{calc.Degrees()}, math.E},
		{"sqrt-deg", "sqrt(9)", []calc.EvalOption{calc.Degrees()}, 3},
		{"pi-deg", "pi", []calc.EvalOption{calc.Degrees()}, math.Pi},
		{"last-wins", "sin(90)", []calc.EvalOption{calc.Degrees(), calc.Radians()}, math.Sin(90)},
		{"last-wins-deg", "sin(90)", []calc.EvalOption{calc.Radians(), calc.Degrees()}, 1},
		{"nil-opt", "sin(90)", []calc.EvalOption{calc.Degrees(), nil}, 1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r, err := calc.EvalString(c.src, c.opts...)
			if err != nil {
				t.Fatalf("evaluating %q: %v", c.src, err)
			}
			if math.Abs(r-c.r) > 1e-12 {
				t.Errorf("%q: want %g, got %g", c.src, c.r, r)
			}
		})
	}
}

func TestEvalTrees(t *testing.T) {
	vals := []float64{0, 1, -1, 0.5, -2.25, 3, 1e10, -1e-10, math.MaxFloat64 / 4, math.SmallestNonzeroFloat64}
	for _, a := range vals {
		for _, b := range vals {
			cases := []struct {
				op calc.Op
				r  float64
			}{
				{calc.Add, a + b},
				{calc.Sub, a - b},
				{calc.Mul, a * b},
				{calc.Div, a / b},
			}
			for _, c := range cases {
				r, err := calc.Eval(calc.Binary(calc.Num(a), c.op, calc.Num(b)))
				switch {
				case c.op == calc.Div && b == 0:
					if !errors.Is(err, calc.ErrDivisionByZero) {
						t.Errorf("%g / %g: want division by zero, got %g, %v", a, b, r, err)
					}
				case math.IsInf(c.r, 0):
					if !errors.Is(err, calc.ErrOverflow) {
						t.Errorf("%g %v %g: want overflow, got %g, %v", a, c.op, b, r, err)
					}
				case err != nil:
					t.Errorf("%g %v %g: %v", a, c.op, b, err)
				case r != c.r:
					t.Errorf("%g %v %g: want %g, got %g", a, c.op, b, c.r, r)
				}
			}
		}
	}
}

func TestEvalCommutes(t *testing.T) {
	vals := []float64{0.1, 0.2, 0.3, -7, 1e-5, 12345.678}
	for _, a := range vals {
		for _, b := range vals {
			for _, op := range []calc.Op{calc.Add, calc.Mul} {
				l, err := calc.Eval(calc.Binary(calc.Num(a), op, calc.Num(b)))
				if err != nil {
					t.Fatal(err)
				}
				r, err := calc.Eval(calc.Binary(calc.Num(b), op, calc.Num(a)))
				if err != nil {
					t.Fatal(err)
				}
				if l != r {
					t.Errorf("%g %v %g = %g but reversed is %g", a, op, b, l, r)
				}
			}
		}
	}
}

func TestEvalPow(t *testing.T) {
	cases := [][2]float64{
		{2, 10},
		{4, -2},
		{9, 0.5},
		{-2, 3},
		{-2, -3},
		{10, -0.25},
		{1.5, 2.5},
		{0, 0},
		{-1, 1e10},
	}
	for _, c := range cases {
		r, err := calc.Eval(calc.Binary(calc.Num(c[0]), calc.Pow, calc.Num(c[1])))
		if err != nil {
			t.Errorf("%g ^ %g: %v", c[0], c[1], err)
			continue
		}
		if want := math.Pow(c[0], c[1]); r != want {
			t.Errorf("%g ^ %g: want %g, got %g", c[0], c[1], want, r)
		}
	}
}

func TestEvalErrors(t *testing.T) {
	cases := []struct {
		name string
		n    calc.Node
		kind error
		msg  string
	}{
		{"div-zero", tree(t, "1/0"), calc.ErrDivisionByZero, `(?i)\bdivision by zero\b`},
		{"div-zero-expr", tree(t, "1/(1-1)"), calc.ErrDivisionByZero, `/`},
		{"div-negzero", tree(t, "1/-0"), calc.ErrDivisionByZero, ``},
		{"div-zero-zero", tree(t, "0/0"), calc.ErrDivisionByZero, ``},
		{"ctg-zero", tree(t, "ctg(0)"), calc.ErrDivisionByZero, `\bctg\(0\)`},
		{"ctg-zero-deg", tree(t, "ctg(0 * 45)"), calc.ErrDivisionByZero, `\bctg\b`},
		{"pow-zero-neg", tree(t, "0^-1"), calc.ErrDivisionByZero, `\^`},
		{"div-overflow", tree(t, "1e300 / 1e-300"), calc.ErrOverflow, `(?i)\brange\b`},
		{"mul-overflow", tree(t, "1e308 * 10"), calc.ErrOverflow, `\*`},
		{"add-overflow", tree(t, "1e308 + 1e308"), calc.ErrOverflow, `\+`},
		{"sub-overflow", tree(t, "-1e308 - 1e308"), calc.ErrOverflow, `-`},
		{"pow-overflow", tree(t, "10^400"), calc.ErrOverflow, `\^`},
		{"exp-overflow", tree(t, "exp(1000)"), calc.ErrOverflow, `\bexp\(1000\)`},
		{"nested-overflow", tree(t, "sqrt(10^400)"), calc.ErrOverflow, ``},
		{"ln-zero", tree(t, "ln(0)"), calc.ErrDomain, `(?i)\bdomain\b`},
		{"ln-neg", tree(t, "ln(-1)"), calc.ErrDomain, `\bln\(-1\)`},
		{"sqrt-neg", tree(t, "sqrt(-1)"), calc.ErrDomain, `\bsqrt\b`},
		{"pow-neg-frac", tree(t, "(-8)^(1/3)"), calc.ErrDomain, `\^`},
		{"unknown-binary", calc.Binary(calc.Num(1), calc.Op('%'), calc.Num(2)), calc.ErrUnknownOperator, `"%"`},
		{"unknown-zero", calc.Binary(calc.Num(1), 0, calc.Num(2)), calc.ErrUnknownOperator, `(?i)\bunknown\b`},
		{"unknown-func", calc.Unary("tan", calc.Num(1)), calc.ErrUnknownOperator, `"tan"`},
		{"unknown-nested", calc.Binary(calc.Num(1), calc.Add, calc.Unary("foo", calc.Num(2))), calc.ErrUnknownOperator, `"foo"`},
		{"unknown-before-error", calc.Binary(tree(t, "1/0"), calc.Op('%'), calc.Num(2)), calc.ErrUnknownOperator, ``},
		{"nil", nil, calc.ErrUnknownOperator, `(?i)\bmissing\b`},
		{"nil-right", &calc.BinaryOp{Left: calc.Num(1), Op: calc.Add}, calc.ErrUnknownOperator, ``},
		{"nil-operand", &calc.UnaryOp{Func: calc.Neg}, calc.ErrUnknownOperator, ``},
		{"nil-number", calc.Unary(calc.Neg, (*calc.Number)(nil)), calc.ErrUnknownOperator, ``},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r, err := calc.Eval(c.n)
			if err == nil {
				t.Fatalf("evaluating %v gave no error and result %g", c.n, r)
			}
			if r != 0 {
				t.Errorf("evaluating %v gave non-zero result %g with error", c.n, r)
			}
			if !errors.Is(err, c.kind) {
				t.Errorf("%#v is not %v", err, c.kind)
			}
			for _, other := range []error{calc.ErrDivisionByZero, calc.ErrOverflow, calc.ErrDomain, calc.ErrUnknownOperator, calc.ErrSyntax} {
				if other != c.kind && errors.Is(err, other) {
					t.Errorf("%#v is also %v", err, other)
				}
			}
			if !regexp.MustCompile(c.msg).MatchString(err.Error()) {
				t.Errorf("error message %q does not match %s", err.Error(), c.msg)
			}
		})
	}
}

func TestEvalErrorTypes(t *testing.T) {
	_, err := calc.EvalString("1/0")
	var de *calc.DivisionError
	if !errors.As(err, &de) {
		t.Fatalf("%#v is not *calc.DivisionError", err)
	}
	if de.Op != "/" || de.X != 1 || de.Y != 0 {
		t.Errorf("wrong details: %+v", de)
	}

	_, err = calc.EvalString("ctg(0)", calc.Degrees())
	if !errors.As(err, &de) {
		t.Fatalf("%#v is not *calc.DivisionError", err)
	}
	if de.Op != "ctg" {
		t.Errorf("wrong details: %+v", de)
	}

	_, err = calc.EvalString("1e300 / 1e-300")
	var oe *calc.OverflowError
	if !errors.As(err, &oe) {
		t.Fatalf("%#v is not *calc.OverflowError", err)
	}
	if oe.Op != "/" || oe.X != 1e300 || oe.Y != 1e-300 {
		t.Errorf("wrong details: %+v", oe)
	}

	_, err = calc.EvalString("sqrt(-4)")
	var me *calc.DomainError
	if !errors.As(err, &me) {
		t.Fatalf("%#v is not *calc.DomainError", err)
	}
	if me.Op != "sqrt" || me.X != -4 {
		t.Errorf("wrong details: %+v", me)
	}

	_, err = calc.Eval(calc.Binary(calc.Num(1), calc.Op('%'), calc.Num(2)))
	var ue *calc.UnknownOperatorError
	if !errors.As(err, &ue) {
		t.Fatalf("%#v is not *calc.UnknownOperatorError", err)
	}
	if ue.Op != "%" || ue.Unary {
		t.Errorf("wrong details: %+v", ue)
	}
}

func TestEvalStringSyntax(t *testing.T) {
	for _, src := range []string{"", "(", "1 +", "1 2", "foo(1)"} {
		r, err := calc.EvalString(src)
		if !errors.Is(err, calc.ErrSyntax) {
			t.Errorf("%q: want syntax error, got %g, %v", src, r, err)
		}
	}
}

func TestEvalNonFiniteLeaves(t *testing.T) {
	inf := math.Inf(1)
	r, err := calc.Eval(calc.Binary(calc.Num(inf), calc.Add, calc.Num(1)))
	if err != nil || !math.IsInf(r, 1) {
		t.Errorf("inf + 1: want +Inf, got %g, %v", r, err)
	}
	r, err = calc.Eval(calc.Binary(calc.Num(inf), calc.Sub, calc.Num(inf)))
	if err != nil || !math.IsNaN(r) {
		t.Errorf("inf - inf: want NaN, got %g, %v", r, err)
	}
	r, err = calc.Eval(calc.Unary(calc.Exp, calc.Num(inf)))
	if err != nil || !math.IsInf(r, 1) {
		t.Errorf("exp(inf): want +Inf, got %g, %v", r, err)
	}
}

func TestEvalIdempotent(t *testing.T) {
	n, err := calc.ParseString("sin(pi/3)^2 + cos(pi/3)^2 + 2^-0.5 * ln(10)")
	if err != nil {
		t.Fatal(err)
	}
	s := n.String()
	first, err := calc.Eval(n)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		r, err := calc.Eval(n)
		if err != nil {
			t.Fatal(err)
		}
		if r != first {
			t.Errorf("evaluation %d gave %g, first gave %g", i, r, first)
		}
	}
	if n.String() != s {
		t.Errorf("tree changed during evaluation: was %s, now %s", s, n)
	}
}

func TestEvalConcurrent(t *testing.T) {
	n, err := calc.ParseString("exp(ln(2) * 10) - 2^10")
	if err != nil {
		t.Fatal(err)
	}
	want, err := calc.Eval(n)
	if err != nil {
		t.Fatal(err)
	}
	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(deg bool) {
			defer wg.Done()
			opt := calc.Radians()
			if deg {
				opt = calc.Degrees()
			}
			r, err := calc.Eval(n, opt)
			if err != nil {
				errs <- err
				return
			}
			if r != want {
				errs <- errors.New("different result from concurrent evaluation")
			}
		}(i%2 == 0)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

// TestEvalReference checks float64 results against 256-bit computations.
func TestEvalReference(t *testing.T) {
	const prec = 256
	ref1 := func(f func(z, x *big.Float) *big.Float, x float64) float64 {
		in := new(big.Float).SetPrec(prec).SetFloat64(x)
		out := new(big.Float).SetPrec(prec)
		f(out, in)
		r, _ := out.Float64()
		return r
	}
	near := func(got, want float64) bool {
		return math.Abs(got-want) <= 1e-14*math.Max(1, math.Abs(want))
	}

	for _, x := range []float64{-3, -0.5, 0.1, 1, 2.5, 10, 100} {
		got, err := calc.Eval(calc.Unary(calc.Exp, calc.Num(x)))
		if err != nil {
			t.Errorf("exp(%g): %v", x, err)
			continue
		}
		if want := ref1(bigfloat.Exp, x); !near(got, want) {
			t.Errorf("exp(%g): want %g, got %g", x, want, got)
		}
	}
	for _, x := range []float64{0.001, 0.5, 1, 2, 10, 1e10} {
		got, err := calc.Eval(calc.Unary(calc.Ln, calc.Num(x)))
		if err != nil {
			t.Errorf("ln(%g): %v", x, err)
			continue
		}
		if want := ref1(bigfloat.Log, x); !near(got, want) {
			t.Errorf("ln(%g): want %g, got %g", x, want, got)
		}
	}
	for _, c := range [][2]float64{{2, 0.5}, {4, -2}, {10, 3.3}, {1.5, 20}, {7, 0.125}} {
		got, err := calc.Eval(calc.Binary(calc.Num(c[0]), calc.Pow, calc.Num(c[1])))
		if err != nil {
			t.Errorf("%g ^ %g: %v", c[0], c[1], err)
			continue
		}
		x := new(big.Float).SetPrec(prec).SetFloat64(c[0])
		y := new(big.Float).SetPrec(prec).SetFloat64(c[1])
		z := new(big.Float).SetPrec(prec)
		bigfloat.Pow(z, x, y)
		want, _ := z.Float64()
		if !near(got, want) {
			t.Errorf("%g ^ %g: want %g, got %g", c[0], c[1], want, got)
		}
	}

	z := new(big.Float).SetPrec(prec)
	bigfloat.Pi(z)
	pi, _ := z.Float64()
	one := new(big.Float).SetPrec(prec).SetFloat64(1)
	bigfloat.Exp(z, one)
	e, _ := z.Float64()
	for _, c := range []struct {
		src  string
		want float64
	}{{"pi", pi}, {"e", e}} {
		got, err := calc.EvalString(c.src)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(got-c.want) > 1e-6 {
			t.Errorf("%s: want %g, got %g", c.src, c.want, got)
		}
	}
}

// tree parses src or fails the test.
func tree(t *testing.T, src string) calc.Node {
	t.Helper()
	n, err := calc.ParseString(src)
	if err != nil {
		t.Fatalf("%q failed to parse: %v", src, err)
	}
	return n
}

func BenchmarkEval(b *testing.B) {
	b.Run("nums", func(b *testing.B) {
		b.ReportAllocs()
		n, err := calc.ParseString("2+3+4")
		if err != nil {
			b.Fatal(err)
		}
		for i := 0; i < b.N; i++ {
			calc.Eval(n)
		}
	})
	b.Run("funcs", func(b *testing.B) {
		b.ReportAllocs()
		n, err := calc.ParseString("sin(pi/2) + ln(e) * sqrt(exp(2))")
		if err != nil {
			b.Fatal(err)
		}
		for i := 0; i < b.N; i++ {
			calc.Eval(n, calc.Degrees())
		}
	})
}
