package symbolic_test

import (
	"errors"
	"math"
	"math/cmplx"
	"strings"
	"testing"

	"github.com/wildstyl3r/sfi/internal/symbolic"
)

var (
	x = symbolic.S("x")
	y = symbolic.S("y")
	a = symbolic.S("a")
)

func near(got, want complex128, tol float64) bool {
	return cmplx.Abs(got-want) <= tol
}

func eval(t *testing.T, e symbolic.Expr, order []string, args ...complex128) complex128 {
	t.Helper()
	call, err := symbolic.Compile(e, order, symbolic.ComplexQuadrature{Points: 32})
	if err != nil {
		t.Fatalf("compile %s: %v", e, err)
	}
	v, err := call(args...)
	if err != nil {
		t.Fatalf("eval %s: %v", e, err)
	}
	return v
}

// ============================================================
// construction
// ============================================================

func TestNum_String(t *testing.T) {
	cases := map[string]symbolic.Expr{
		"2":             symbolic.N(2),
		"0.5":           symbolic.R(0.5),
		"(-2)":          symbolic.N(-2),
		"complex(1, 2)": symbolic.C(1 + 2i),
		"0":             symbolic.R(math.Copysign(0, -1)),
	}
	for want, e := range cases {
		if e.String() != want {
			t.Errorf("want %s, got %s", want, e.String())
		}
	}
}

func TestAddOf_FoldsConstants(t *testing.T) {
	if got := symbolic.AddOf(x, symbolic.N(2), symbolic.N(3)).String(); got != "x + 5" {
		t.Errorf("want x + 5, got %s", got)
	}
	if got := symbolic.AddOf(symbolic.N(0), x); !got.Equal(x) {
		t.Errorf("want x, got %s", got)
	}
	if got := symbolic.AddOf(); got.String() != "0" {
		t.Errorf("empty sum should be 0, got %s", got)
	}
}

func TestMulOf_Simplifies(t *testing.T) {
	if got := symbolic.MulOf(symbolic.N(2), x, symbolic.N(3)).String(); got != "6*x" {
		t.Errorf("want 6*x, got %s", got)
	}
	if got := symbolic.MulOf(symbolic.N(0), x).String(); got != "0" {
		t.Errorf("want 0, got %s", got)
	}
	if got := symbolic.MulOf(symbolic.N(1), x); !got.Equal(x) {
		t.Errorf("want x, got %s", got)
	}
}

func TestPowOf_Simplifies(t *testing.T) {
	cases := []struct {
		e    symbolic.Expr
		want string
	}{
		{symbolic.PowOf(x, symbolic.N(0)), "1"},
		{symbolic.PowOf(x, symbolic.N(1)), "x"},
		{symbolic.PowOf(symbolic.N(2), symbolic.N(3)), "8"},
		{symbolic.PowOf(symbolic.PowOf(x, symbolic.N(2)), symbolic.N(3)), "x^6"},
		{symbolic.PowOf(x, symbolic.N(-1)), "x^(-1)"},
	}
	for _, c := range cases {
		if c.e.String() != c.want {
			t.Errorf("want %s, got %s", c.want, c.e.String())
		}
	}
}

// ============================================================
// substitution and differentiation
// ============================================================

func TestSubs_Simultaneous(t *testing.T) {
	e := symbolic.AddOf(x, symbolic.MulOf(symbolic.N(2), y))
	got := e.Subs(map[string]symbolic.Expr{"x": y, "y": x})
	if got.String() != "y + 2*x" {
		t.Errorf("want y + 2*x, got %s", got)
	}
}

func TestDiff_Power(t *testing.T) {
	got := symbolic.PowOf(x, symbolic.N(3)).Diff("x")
	if got.String() != "3*x^2" {
		t.Errorf("want 3*x^2, got %s", got)
	}
}

func TestDiff_ChainRule(t *testing.T) {
	got := symbolic.SinOf(symbolic.MulOf(symbolic.N(2), x)).Diff("x")
	if got.String() != "2*cos(2*x)" {
		t.Errorf("want 2*cos(2*x), got %s", got)
	}
}

func TestDiff_SymbolicExponent(t *testing.T) {
	// d/dx 2^x = ln(2) 2^x
	e := symbolic.PowOf(symbolic.N(2), x)
	got := eval(t, e.Diff("x"), []string{"x"}, 3)
	if !near(got, complex(8*math.Ln2, 0), 1e-12) {
		t.Errorf("want %v, got %v", 8*math.Ln2, got)
	}
}

// ============================================================
// integrals
// ============================================================

func TestIntegralOf_ClosedForm(t *testing.T) {
	e := symbolic.IntegralOf(symbolic.PowOf(x, symbolic.N(2)), "x", symbolic.N(0), symbolic.N(3))
	if _, open := e.(*symbolic.Integral); open {
		t.Fatalf("polynomial should integrate in closed form, got %s", e)
	}
	if got := eval(t, e, nil); !near(got, 9, 1e-12) {
		t.Errorf("want 9, got %v", got)
	}

	// integral of cos(2x) from 0 to a is sin(2a)/2
	e = symbolic.IntegralOf(symbolic.CosOf(symbolic.MulOf(symbolic.N(2), x)), "x", symbolic.N(0), a)
	if got := eval(t, e, []string{"a"}, 1); !near(got, complex(math.Sin(2)/2, 0), 1e-12) {
		t.Errorf("want %v, got %v", math.Sin(2)/2, got)
	}
}

func TestIntegralOf_Constant(t *testing.T) {
	e := symbolic.IntegralOf(y, "x", symbolic.N(1), a)
	if e.String() != "y*(a + (-1))" {
		t.Errorf("want y*(a + (-1)), got %s", e)
	}
	if got := eval(t, e, []string{"a", "y"}, 4, 2); !near(got, 6, 1e-12) {
		t.Errorf("want 6, got %v", got)
	}
}

func TestIntegralOf_Quadrature(t *testing.T) {
	e := symbolic.IntegralOf(symbolic.ExpOf(symbolic.PowOf(x, symbolic.N(2))), "x", symbolic.N(0), symbolic.N(1))
	if _, open := e.(*symbolic.Integral); !open {
		t.Fatalf("exp(x^2) has no elementary antiderivative, got %s", e)
	}
	if got := eval(t, e, nil); !near(got, 1.4626517459071816, 1e-10) {
		t.Errorf("want 1.4626517459071816, got %v", got)
	}
}

func TestIntegral_ComplexLimits(t *testing.T) {
	e := symbolic.IntegralOf(symbolic.ExpOf(symbolic.PowOf(x, symbolic.N(2))), "x", symbolic.N(0), a)
	call, err := symbolic.Compile(e, []string{"a"}, symbolic.ComplexQuadrature{})
	if err != nil {
		t.Fatal(err)
	}
	_, err = call(1i)
	if !errors.Is(err, symbolic.ErrComplexLimits) {
		t.Fatalf("want ErrComplexLimits, got %v", err)
	}
	if !symbolic.IsDomainError(err) {
		t.Errorf("complex limits should be a domain error")
	}
}

func TestIntegral_SubsAvoidsCapture(t *testing.T) {
	s := symbolic.S("s")
	body := symbolic.ExpOf(symbolic.MulOf(symbolic.S("k"), symbolic.PowOf(s, symbolic.N(2))))
	in := symbolic.IntegralOf(body, "s", symbolic.N(0), symbolic.N(1))
	got := symbolic.Sub(in, "k", s)
	if !strings.Contains(got.String(), "s_b") {
		t.Fatalf("bound variable should be renamed, got %s", got)
	}
	want := symbolic.IntegralOf(symbolic.ExpOf(symbolic.MulOf(symbolic.R(0.5), symbolic.PowOf(x, symbolic.N(2)))), "x", symbolic.N(0), symbolic.N(1))
	if g, w := eval(t, got, []string{"s"}, 0.5), eval(t, want, nil); !near(g, w, 1e-12) {
		t.Errorf("want %v, got %v", w, g)
	}
}

func TestIntegral_SubsBoundVariableUntouched(t *testing.T) {
	body := symbolic.ExpOf(symbolic.PowOf(x, symbolic.N(2)))
	in := symbolic.IntegralOf(body, "x", symbolic.N(0), x)
	got := symbolic.Sub(in, "x", symbolic.N(1))
	want := "Integral(exp(x^2), x, 0, 1)"
	if got.String() != want {
		t.Errorf("want %s, got %s", want, got)
	}
}

func TestIntegral_Leibniz(t *testing.T) {
	body := symbolic.ExpOf(symbolic.PowOf(x, symbolic.N(2)))
	in := symbolic.IntegralOf(body, "x", symbolic.N(0), a)
	got := in.Diff("a")
	if got.String() != "exp(a^2)" {
		t.Errorf("want exp(a^2), got %s", got)
	}
}

func TestIntegral_LeibnizWithParameter(t *testing.T) {
	// d/da of integral_0^a exp(a*x^2) dx = exp(a^3) + integral_0^a x^2 exp(a*x^2) dx
	body := symbolic.ExpOf(symbolic.MulOf(a, symbolic.PowOf(x, symbolic.N(2))))
	in := symbolic.IntegralOf(body, "x", symbolic.N(0), a)
	d := in.Diff("a")

	h := 1e-5
	f := func(v complex128) complex128 { return eval(t, in, []string{"a"}, v) }
	want := (f(0.7+complex(h, 0)) - f(0.7-complex(h, 0))) / complex(2*h, 0)
	if got := eval(t, d, []string{"a"}, 0.7); !near(got, want, 1e-6) {
		t.Errorf("want %v, got %v", want, got)
	}
}

// ============================================================
// compilation
// ============================================================

func TestCompile_Errors(t *testing.T) {
	if _, err := symbolic.Compile(symbolic.AddOf(x, y), []string{"x"}, nil); !errors.Is(err, symbolic.ErrUnboundSymbol) {
		t.Errorf("want ErrUnboundSymbol, got %v", err)
	}

	inv, err := symbolic.Compile(symbolic.PowOf(x, symbolic.N(-1)), []string{"x"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := inv(0); !errors.Is(err, symbolic.ErrDivisionByZero) {
		t.Errorf("want ErrDivisionByZero, got %v", err)
	}

	ln, err := symbolic.Compile(symbolic.LnOf(x), []string{"x"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ln(0); !symbolic.IsDomainError(err) {
		t.Errorf("ln(0) should be a domain error, got %v", err)
	}

	if _, err := inv(1, 2); err == nil {
		t.Errorf("wrong argument count should fail")
	}
}

func TestCompile_Sqrt(t *testing.T) {
	got := eval(t, symbolic.SqrtOf(x), []string{"x"}, -4)
	if !near(got, 2i, 1e-12) {
		t.Errorf("want 2i, got %v", got)
	}
}

type countingQuadrature struct {
	inner symbolic.Quadrature
	calls *int
}

func (q countingQuadrature) Integrate(f func(float64) (complex128, error), a, b float64) (complex128, error) {
	*q.calls++
	return q.inner.Integrate(f, a, b)
}

func TestCompile_MemoizesInvariantIntegrals(t *testing.T) {
	in := symbolic.IntegralOf(symbolic.ExpOf(symbolic.PowOf(y, symbolic.N(2))), "y", symbolic.N(0), a)
	e := symbolic.AddOf(symbolic.MulOf(in, in), in)

	calls := 0
	call, err := symbolic.Compile(e, []string{"a"}, countingQuadrature{symbolic.ComplexQuadrature{Points: 16}, &calls})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := call(1); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("want 1 quadrature per call, got %d", calls)
	}
}

func TestCompile_NestedIntegral(t *testing.T) {
	inner := symbolic.IntegralOf(symbolic.ExpOf(symbolic.PowOf(y, symbolic.N(2))), "y", symbolic.N(0), x)
	outer := symbolic.IntegralOf(inner, "x", symbolic.N(0), symbolic.N(1))

	calls := 0
	call, err := symbolic.Compile(outer, nil, countingQuadrature{symbolic.ComplexQuadrature{Points: 8}, &calls})
	if err != nil {
		t.Fatal(err)
	}
	got, err := call()
	if err != nil {
		t.Fatal(err)
	}
	if calls != 9 {
		t.Errorf("inner integral depends on x and must be recomputed per node: want 9 quadratures, got %d", calls)
	}
	want := 1.4626517459071816 - (math.E-1)/2
	if !near(got, complex(want, 0), 1e-6) {
		t.Errorf("want %v, got %v", want, got)
	}
}

// ============================================================
// quadrature
// ============================================================

func TestQuadrature_RealAndComplex(t *testing.T) {
	f := func(s float64) (complex128, error) { return cmplx.Exp(complex(0, s)), nil }

	got, err := symbolic.ComplexQuadrature{}.Integrate(f, 0, math.Pi)
	if err != nil || !near(got, 2i, 1e-10) {
		t.Errorf("want 2i, got %v (%v)", got, err)
	}
	got, err = symbolic.RealQuadrature{}.Integrate(f, 0, math.Pi)
	if err != nil || !near(got, 0, 1e-10) {
		t.Errorf("want 0, got %v (%v)", got, err)
	}
	got, err = symbolic.ComplexQuadrature{}.Integrate(f, math.Pi, 0)
	if err != nil || !near(got, -2i, 1e-10) {
		t.Errorf("reversed bounds: want -2i, got %v (%v)", got, err)
	}
}

func TestQuadrature_PropagatesIntegrandError(t *testing.T) {
	boom := errors.New("boom")
	f := func(float64) (complex128, error) { return 0, boom }
	if _, err := (symbolic.RealQuadrature{}).Integrate(f, 0, 1); !errors.Is(err, boom) {
		t.Errorf("want boom, got %v", err)
	}
	if _, err := (symbolic.ComplexQuadrature{}).Integrate(f, 0, 1); !errors.Is(err, boom) {
		t.Errorf("want boom, got %v", err)
	}
}

// ============================================================
// helpers
// ============================================================

func TestDerivativeAndDefiniteIntegral(t *testing.T) {
	cube := func(e symbolic.Expr) symbolic.Expr { return symbolic.PowOf(e, symbolic.N(3)) }
	d, err := symbolic.Derivative(cube)
	if err != nil {
		t.Fatal(err)
	}
	if got, err := d(2); err != nil || !near(got, 12, 1e-12) {
		t.Errorf("want 12, got %v (%v)", got, err)
	}

	square := func(e symbolic.Expr) symbolic.Expr { return symbolic.PowOf(e, symbolic.N(2)) }
	in, err := symbolic.DefiniteIntegral(square, symbolic.ComplexQuadrature{})
	if err != nil {
		t.Fatal(err)
	}
	if got, err := in(0, 3); err != nil || !near(got, 9, 1e-12) {
		t.Errorf("want 9, got %v (%v)", got, err)
	}
}

func TestVector_SizeMismatchPanics(t *testing.T) {
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, symbolic.ErrSizeMismatch) {
			t.Errorf("want ErrSizeMismatch panic, got %v", r)
		}
	}()
	symbolic.Dot(symbolic.Vector{x, y}, symbolic.Vector{x})
}

func TestVector_SubstitutePairSwaps(t *testing.T) {
	t1, t2 := symbolic.S("t1"), symbolic.S("t2")
	u := symbolic.Vector{symbolic.SubOf(t1, t2), t1}
	got := u.SubstitutePair([2]string{"t1", "t2"}, [2]symbolic.Expr{t2, t1})
	if got.String() != "[t2 + (-1)*t1, t2]" {
		t.Errorf("want [t2 + (-1)*t1, t2], got %s", got)
	}
	xy := symbolic.Vector{x, y}
	if sq := xy.Square().String(); sq != "x^2 + y^2" && sq != "x*x + y*y" {
		t.Errorf("want x*x + y*y, got %s", sq)
	}
}
