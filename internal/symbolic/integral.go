package symbolic

// Integral is an unevaluated definite integral of body over v from lo to hi.
// v is bound inside body and free nowhere else.
type Integral struct {
	body   Expr
	v      string
	lo, hi Expr
}

// IntegralOf integrates body over v from lo to hi. Constants, powers of v,
// exp/sin/cos of arguments linear in v and sums of those are integrated in
// closed form, anything else stays as an Integral node.
func IntegralOf(body Expr, v string, lo, hi Expr) Expr {
	if isZero(body) {
		return N(0)
	}
	if !DependsOn(body, v) {
		return MulOf(body, SubOf(hi, lo))
	}
	if f, ok := antiderivative(body, v); ok {
		return SubOf(Sub(f, v, hi), Sub(f, v, lo))
	}
	return &Integral{body: body, v: v, lo: lo, hi: hi}
}

func antiderivative(e Expr, v string) (Expr, bool) {
	if !DependsOn(e, v) {
		return MulOf(e, S(v)), true
	}
	switch x := e.(type) {
	case *Sym:
		return MulOf(R(0.5), PowOf(x, N(2))), true
	case *Add:
		terms := make([]Expr, len(x.terms))
		for i, t := range x.terms {
			f, ok := antiderivative(t, v)
			if !ok {
				return nil, false
			}
			terms[i] = f
		}
		return AddOf(terms...), true
	case *Mul:
		var constant, dependent []Expr
		for _, f := range x.factors {
			if DependsOn(f, v) {
				dependent = append(dependent, f)
			} else {
				constant = append(constant, f)
			}
		}
		if len(dependent) != 1 {
			return nil, false
		}
		f, ok := antiderivative(dependent[0], v)
		if !ok {
			return nil, false
		}
		return MulOf(append(constant, f)...), true
	case *Pow:
		s, ok := x.base.(*Sym)
		if !ok || s.name != v || DependsOn(x.exp, v) {
			return nil, false
		}
		if n, ok := x.exp.(*Num); ok && n.val == -1 {
			return nil, false
		}
		next := AddOf(x.exp, N(1))
		return DivOf(PowOf(x.base, next), next), true
	case *Func:
		slope := x.arg.Diff(v)
		if DependsOn(slope, v) {
			return nil, false
		}
		switch x.name {
		case "exp":
			return DivOf(x, slope), true
		case "sin":
			return DivOf(Neg(CosOf(x.arg)), slope), true
		case "cos":
			return DivOf(SinOf(x.arg), slope), true
		}
	}
	return nil, false
}

func (i *Integral) Body() Expr     { return i.body }
func (i *Integral) Var() string    { return i.v }
func (i *Integral) Bounds() (Expr, Expr) { return i.lo, i.hi }

func (i *Integral) String() string {
	return "Integral(" + i.body.String() + ", " + i.v + ", " + i.lo.String() + ", " + i.hi.String() + ")"
}

// Subs substitutes into the bounds and, except for the bound variable, into
// the body. The bound variable is renamed when one of the substituted values
// would otherwise be captured by it.
func (i *Integral) Subs(m map[string]Expr) Expr {
	lo, hi := i.lo.Subs(m), i.hi.Subs(m)
	inner := make(map[string]Expr, len(m))
	free := FreeSymbols(i.body)
	for name, value := range m {
		if _, used := free[name]; used && name != i.v {
			inner[name] = value
		}
	}
	if len(inner) == 0 {
		return IntegralOf(i.body, i.v, lo, hi)
	}
	body, v := i.body, i.v
	for _, value := range inner {
		if DependsOn(value, v) {
			v = freshName(v, body, inner)
			body = Sub(body, i.v, S(v))
			break
		}
	}
	return IntegralOf(body.Subs(inner), v, lo, hi)
}

func freshName(v string, body Expr, m map[string]Expr) string {
	taken := FreeSymbols(body)
	for name, value := range m {
		taken[name] = struct{}{}
		for s := range FreeSymbols(value) {
			taken[s] = struct{}{}
		}
	}
	for {
		v += "_b"
		if _, ok := taken[v]; !ok {
			return v
		}
	}
}

// Diff applies the Leibniz rule.
func (i *Integral) Diff(name string) Expr {
	terms := []Expr{
		MulOf(Sub(i.body, i.v, i.hi), i.hi.Diff(name)),
		Neg(MulOf(Sub(i.body, i.v, i.lo), i.lo.Diff(name))),
	}
	if name != i.v {
		terms = append(terms, IntegralOf(i.body.Diff(name), i.v, i.lo, i.hi))
	}
	return AddOf(terms...)
}

func (i *Integral) Equal(other Expr) bool {
	o, ok := other.(*Integral)
	return ok && i.v == o.v && i.body.Equal(o.body) && i.lo.Equal(o.lo) && i.hi.Equal(o.hi)
}

func (i *Integral) collectFree(bound map[string]int, out map[string]struct{}) {
	i.lo.collectFree(bound, out)
	i.hi.collectFree(bound, out)
	bound[i.v]++
	i.body.collectFree(bound, out)
	bound[i.v]--
}
