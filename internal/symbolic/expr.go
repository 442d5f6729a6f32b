// Package symbolic is a small expression kernel over complex numbers.
//
// Expressions are immutable trees. Constructors (AddOf, MulOf, PowOf, ...)
// simplify on build, so every tree reachable through the public API is in
// the same light canonical form: nested sums and products are flattened,
// numeric constants are folded and neutral elements are dropped.
//
// Besides substitution and differentiation the kernel knows one binding
// construct, the definite Integral. Integrals without a closed form stay
// unevaluated and are handed to a Quadrature when the expression is compiled.
package symbolic

import (
	"errors"
	"math"
	"math/cmplx"
	"strconv"
	"strings"
)

var (
	ErrSizeMismatch   = errors.New("symbolic: arguments have different sizes")
	ErrUnboundSymbol  = errors.New("symbolic: unbound symbol")
	ErrComplexLimits  = errors.New("symbolic: cannot integrate with essentially complex limits")
	ErrDivisionByZero = errors.New("symbolic: division by zero")
	ErrDomain         = errors.New("symbolic: math domain error")
	ErrParse          = errors.New("symbolic: parse error")
)

// IsDomainError reports whether err is one of the numeric evaluation failures
// that callers recover from locally: complex integration limits, division by
// zero and domain errors.
func IsDomainError(err error) bool {
	return errors.Is(err, ErrDomain) || errors.Is(err, ErrDivisionByZero) || errors.Is(err, ErrComplexLimits)
}

type Expr interface {
	// String returns the canonical text form, readable back by Parse.
	String() string
	// Subs replaces free symbols simultaneously.
	Subs(m map[string]Expr) Expr
	Diff(name string) Expr
	Equal(other Expr) bool
	collectFree(bound map[string]int, out map[string]struct{})
}

// ============================================================
// Num
// ============================================================

type Num struct{ val complex128 }

func C(v complex128) *Num { return &Num{val: v} }
func R(v float64) *Num    { return &Num{val: complex(v, 0)} }
func N(n int64) *Num      { return &Num{val: complex(float64(n), 0)} }

func (n *Num) Value() complex128                        { return n.val }
func (n *Num) IsZero() bool                             { return n.val == 0 }
func (n *Num) IsOne() bool                              { return n.val == 1 }
func (n *Num) IsReal() bool                             { return imag(n.val) == 0 }
func (n *Num) Subs(map[string]Expr) Expr                { return n }
func (n *Num) Diff(string) Expr                         { return N(0) }
func (n *Num) collectFree(map[string]int, map[string]struct{}) {}

func (n *Num) Equal(other Expr) bool {
	o, ok := other.(*Num)
	return ok && n.val == o.val
}

// isInteger reports whether n is a real integer of moderate size.
func (n *Num) isInteger() (int, bool) {
	if imag(n.val) != 0 {
		return 0, false
	}
	r := real(n.val)
	if r != math.Trunc(r) || math.Abs(r) > 64 {
		return 0, false
	}
	return int(r), true
}

func (n *Num) String() string {
	if imag(n.val) == 0 {
		return formatReal(real(n.val))
	}
	return "complex(" + formatReal(real(n.val)) + ", " + formatReal(imag(n.val)) + ")"
}

func formatReal(r float64) string {
	if r == 0 {
		r = 0 // drop the sign of negative zero
	}
	s := strconv.FormatFloat(r, 'g', -1, 64)
	if r < 0 {
		return "(" + s + ")"
	}
	return s
}

// ============================================================
// Sym
// ============================================================

type Sym struct{ name string }

func S(name string) *Sym { return &Sym{name: name} }

func (s *Sym) Name() string   { return s.name }
func (s *Sym) String() string { return s.name }

func (s *Sym) Subs(m map[string]Expr) Expr {
	if v, ok := m[s.name]; ok {
		return v
	}
	return s
}

func (s *Sym) Diff(name string) Expr {
	if s.name == name {
		return N(1)
	}
	return N(0)
}

func (s *Sym) Equal(other Expr) bool {
	o, ok := other.(*Sym)
	return ok && s.name == o.name
}

func (s *Sym) collectFree(bound map[string]int, out map[string]struct{}) {
	if bound[s.name] == 0 {
		out[s.name] = struct{}{}
	}
}

// ============================================================
// Add
// ============================================================

type Add struct{ terms []Expr }

func AddOf(terms ...Expr) Expr {
	flat := make([]Expr, 0, len(terms))
	constant := complex128(0)
	for _, t := range terms {
		switch v := t.(type) {
		case *Add:
			for _, inner := range v.terms {
				if num, ok := inner.(*Num); ok {
					constant += num.val
				} else {
					flat = append(flat, inner)
				}
			}
		case *Num:
			constant += v.val
		default:
			flat = append(flat, t)
		}
	}

	// collect like terms: 2*x + 3*x -> 5*x
	coeffs := make([]complex128, 0, len(flat))
	rests := make([]Expr, 0, len(flat))
	for _, t := range flat {
		c, rest := splitCoeff(t)
		merged := false
		for i := range rests {
			if rests[i].Equal(rest) {
				coeffs[i] += c
				merged = true
				break
			}
		}
		if !merged {
			coeffs = append(coeffs, c)
			rests = append(rests, rest)
		}
	}
	out := make([]Expr, 0, len(rests)+1)
	reflatten := false
	for i, rest := range rests {
		switch {
		case coeffs[i] == 0:
			continue
		case coeffs[i] == 1:
			out = append(out, rest)
			_, nested := rest.(*Add)
			reflatten = reflatten || nested
		default:
			out = append(out, MulOf(C(coeffs[i]), rest))
		}
	}
	if constant != 0 {
		out = append(out, C(constant))
	}
	if reflatten {
		return AddOf(out...)
	}
	switch len(out) {
	case 0:
		return N(0)
	case 1:
		return out[0]
	}
	return &Add{terms: out}
}

// splitCoeff separates the numeric coefficient of a product.
func splitCoeff(e Expr) (complex128, Expr) {
	m, ok := e.(*Mul)
	if !ok {
		return 1, e
	}
	c, isNum := m.factors[0].(*Num)
	if !isNum {
		return 1, e
	}
	if len(m.factors) == 2 {
		return c.val, m.factors[1]
	}
	return c.val, &Mul{factors: m.factors[1:]}
}

func (a *Add) Terms() []Expr { return a.terms }

func (a *Add) String() string {
	parts := make([]string, len(a.terms))
	for i, t := range a.terms {
		parts[i] = t.String()
	}
	return strings.Join(parts, " + ")
}

func (a *Add) Subs(m map[string]Expr) Expr {
	terms := make([]Expr, len(a.terms))
	for i, t := range a.terms {
		terms[i] = t.Subs(m)
	}
	return AddOf(terms...)
}

func (a *Add) Diff(name string) Expr {
	terms := make([]Expr, len(a.terms))
	for i, t := range a.terms {
		terms[i] = t.Diff(name)
	}
	return AddOf(terms...)
}

func (a *Add) Equal(other Expr) bool {
	o, ok := other.(*Add)
	return ok && equalAll(a.terms, o.terms)
}

func (a *Add) collectFree(bound map[string]int, out map[string]struct{}) {
	for _, t := range a.terms {
		t.collectFree(bound, out)
	}
}

// ============================================================
// Mul
// ============================================================

type Mul struct{ factors []Expr }

func MulOf(factors ...Expr) Expr {
	flat := make([]Expr, 0, len(factors))
	coeff := complex128(1)
	for _, f := range factors {
		switch v := f.(type) {
		case *Mul:
			for _, inner := range v.factors {
				if num, ok := inner.(*Num); ok {
					coeff *= num.val
				} else {
					flat = append(flat, inner)
				}
			}
		case *Num:
			coeff *= v.val
		default:
			flat = append(flat, f)
		}
	}
	if coeff == 0 {
		return N(0)
	}

	// collect numeric powers of equal bases: x*x^2 -> x^3
	bases := make([]Expr, 0, len(flat))
	exps := make([]Expr, 0, len(flat))
	for _, f := range flat {
		b, e := splitPower(f)
		merged := false
		if _, numeric := e.(*Num); numeric {
			for i := range bases {
				if _, ok := exps[i].(*Num); ok && bases[i].Equal(b) {
					exps[i] = AddOf(exps[i], e)
					merged = true
					break
				}
			}
		}
		if !merged {
			bases = append(bases, b)
			exps = append(exps, e)
		}
	}
	out := make([]Expr, 0, len(bases))
	reflatten := false
	for i := range bases {
		f := PowOf(bases[i], exps[i])
		switch f.(type) {
		case *Mul, *Num:
			reflatten = true
		}
		out = append(out, f)
	}
	if reflatten {
		return MulOf(append([]Expr{C(coeff)}, out...)...)
	}

	if len(out) == 0 {
		return C(coeff)
	}
	if sum, ok := out[0].(*Add); ok && len(out) == 1 && coeff != 1 {
		terms := make([]Expr, len(sum.terms))
		for i, t := range sum.terms {
			terms[i] = MulOf(C(coeff), t)
		}
		return AddOf(terms...)
	}
	if coeff == 1 {
		if len(out) == 1 {
			return out[0]
		}
		return &Mul{factors: out}
	}
	return &Mul{factors: append([]Expr{C(coeff)}, out...)}
}

func splitPower(e Expr) (Expr, Expr) {
	if p, ok := e.(*Pow); ok {
		return p.base, p.exp
	}
	return e, N(1)
}

func (m *Mul) Factors() []Expr { return m.factors }

func (m *Mul) String() string {
	parts := make([]string, len(m.factors))
	for i, f := range m.factors {
		if _, isAdd := f.(*Add); isAdd {
			parts[i] = "(" + f.String() + ")"
		} else {
			parts[i] = f.String()
		}
	}
	return strings.Join(parts, "*")
}

func (m *Mul) Subs(s map[string]Expr) Expr {
	factors := make([]Expr, len(m.factors))
	for i, f := range m.factors {
		factors[i] = f.Subs(s)
	}
	return MulOf(factors...)
}

func (m *Mul) Diff(name string) Expr {
	terms := make([]Expr, 0, len(m.factors))
	for i, fi := range m.factors {
		dfi := fi.Diff(name)
		if isZero(dfi) {
			continue
		}
		others := make([]Expr, 0, len(m.factors))
		others = append(others, dfi)
		for j, fj := range m.factors {
			if j != i {
				others = append(others, fj)
			}
		}
		terms = append(terms, MulOf(others...))
	}
	return AddOf(terms...)
}

func (m *Mul) Equal(other Expr) bool {
	o, ok := other.(*Mul)
	return ok && equalAll(m.factors, o.factors)
}

func (m *Mul) collectFree(bound map[string]int, out map[string]struct{}) {
	for _, f := range m.factors {
		f.collectFree(bound, out)
	}
}

// ============================================================
// Pow
// ============================================================

type Pow struct{ base, exp Expr }

func PowOf(base, exp Expr) Expr {
	if e, ok := exp.(*Num); ok {
		if e.IsZero() {
			return N(1)
		}
		if e.IsOne() {
			return base
		}
	}
	if b, ok := base.(*Num); ok {
		if b.IsOne() {
			return N(1)
		}
		if e, ok := exp.(*Num); ok {
			if v, ok := foldPow(b.val, e); ok {
				return C(v)
			}
		}
	}
	if inner, ok := base.(*Pow); ok {
		if e, ok := exp.(*Num); ok {
			if _, integer := e.isInteger(); integer {
				return PowOf(inner.base, MulOf(inner.exp, e))
			}
		}
	}
	return &Pow{base: base, exp: exp}
}

func foldPow(b complex128, e *Num) (complex128, bool) {
	if n, ok := e.isInteger(); ok {
		if b == 0 && n < 0 {
			return 0, false
		}
		return powInt(b, n), true
	}
	if b == 0 {
		return 0, false
	}
	return cmplx.Pow(b, e.val), true
}

func powInt(b complex128, n int) complex128 {
	if n < 0 {
		return 1 / powInt(b, -n)
	}
	r := complex128(1)
	for ; n > 0; n >>= 1 {
		if n&1 == 1 {
			r *= b
		}
		b *= b
	}
	return r
}

func (p *Pow) Base() Expr     { return p.base }
func (p *Pow) Exponent() Expr { return p.exp }

func (p *Pow) String() string {
	return atomString(p.base) + "^" + atomString(p.exp)
}

func (p *Pow) Subs(m map[string]Expr) Expr {
	return PowOf(p.base.Subs(m), p.exp.Subs(m))
}

func (p *Pow) Diff(name string) Expr {
	db := p.base.Diff(name)
	if !DependsOn(p.exp, name) {
		if isZero(db) {
			return N(0)
		}
		return MulOf(p.exp, PowOf(p.base, AddOf(p.exp, N(-1))), db)
	}
	return MulOf(p, AddOf(
		MulOf(p.exp.Diff(name), LnOf(p.base)),
		MulOf(p.exp, db, PowOf(p.base, N(-1))),
	))
}

func (p *Pow) Equal(other Expr) bool {
	o, ok := other.(*Pow)
	return ok && p.base.Equal(o.base) && p.exp.Equal(o.exp)
}

func (p *Pow) collectFree(bound map[string]int, out map[string]struct{}) {
	p.base.collectFree(bound, out)
	p.exp.collectFree(bound, out)
}

// ============================================================
// Func
// ============================================================

type Func struct {
	name string
	arg  Expr
}

var funcTable = map[string]func(complex128) (complex128, error){
	"sin": func(z complex128) (complex128, error) { return cmplx.Sin(z), nil },
	"cos": func(z complex128) (complex128, error) { return cmplx.Cos(z), nil },
	"exp": func(z complex128) (complex128, error) { return cmplx.Exp(z), nil },
	"ln": func(z complex128) (complex128, error) {
		if z == 0 {
			return 0, ErrDomain
		}
		return cmplx.Log(z), nil
	},
	"re": func(z complex128) (complex128, error) { return complex(real(z), 0), nil },
	"im": func(z complex128) (complex128, error) { return complex(imag(z), 0), nil },
}

func funcOf(name string, arg Expr) Expr {
	if n, ok := arg.(*Num); ok {
		if v, err := funcTable[name](n.val); err == nil {
			return C(v)
		}
	}
	return &Func{name: name, arg: arg}
}

func SinOf(arg Expr) Expr  { return funcOf("sin", arg) }
func CosOf(arg Expr) Expr  { return funcOf("cos", arg) }
func ExpOf(arg Expr) Expr  { return funcOf("exp", arg) }
func LnOf(arg Expr) Expr   { return funcOf("ln", arg) }
func ReOf(arg Expr) Expr   { return funcOf("re", arg) }
func ImOf(arg Expr) Expr   { return funcOf("im", arg) }
func SqrtOf(arg Expr) Expr { return PowOf(arg, R(0.5)) }

func (f *Func) Name() string   { return f.name }
func (f *Func) Arg() Expr      { return f.arg }
func (f *Func) String() string { return f.name + "(" + f.arg.String() + ")" }

func (f *Func) Subs(m map[string]Expr) Expr {
	return funcOf(f.name, f.arg.Subs(m))
}

func (f *Func) Diff(name string) Expr {
	da := f.arg.Diff(name)
	if isZero(da) {
		return N(0)
	}
	switch f.name {
	case "sin":
		return MulOf(CosOf(f.arg), da)
	case "cos":
		return MulOf(N(-1), SinOf(f.arg), da)
	case "exp":
		return MulOf(f, da)
	case "ln":
		return MulOf(da, PowOf(f.arg, N(-1)))
	case "re":
		return ReOf(da)
	case "im":
		return ImOf(da)
	}
	panic("symbolic: unknown function " + f.name)
}

func (f *Func) Equal(other Expr) bool {
	o, ok := other.(*Func)
	return ok && f.name == o.name && f.arg.Equal(o.arg)
}

func (f *Func) collectFree(bound map[string]int, out map[string]struct{}) {
	f.arg.collectFree(bound, out)
}

// ============================================================
// helpers
// ============================================================

func Neg(e Expr) Expr       { return MulOf(N(-1), e) }
func SubOf(a, b Expr) Expr  { return AddOf(a, Neg(b)) }
func DivOf(a, b Expr) Expr  { return MulOf(a, PowOf(b, N(-1))) }
func Square(e Expr) Expr    { return PowOf(e, N(2)) }
func Sub(e Expr, name string, value Expr) Expr {
	return e.Subs(map[string]Expr{name: value})
}

// FreeSymbols returns the names of the symbols that are not bound by an
// enclosing Integral.
func FreeSymbols(e Expr) map[string]struct{} {
	out := map[string]struct{}{}
	e.collectFree(map[string]int{}, out)
	return out
}

func DependsOn(e Expr, name string) bool {
	_, ok := FreeSymbols(e)[name]
	return ok
}

func isZero(e Expr) bool {
	n, ok := e.(*Num)
	return ok && n.IsZero()
}

func equalAll(a, b []Expr) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func atomString(e Expr) string {
	switch e.(type) {
	case *Num, *Sym, *Func, *Integral:
		return e.String()
	}
	return "(" + e.String() + ")"
}
