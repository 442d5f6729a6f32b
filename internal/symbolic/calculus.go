package symbolic

const helperVar = "x"

// Derivative returns the numeric derivative of a function built from
// expressions. f is applied to a symbol, differentiated exactly and compiled.
func Derivative(f func(x Expr) Expr) (func(x complex128) (complex128, error), error) {
	d := f(S(helperVar)).Diff(helperVar)
	call, err := Compile(d, []string{helperVar}, nil)
	if err != nil {
		return nil, err
	}
	return func(x complex128) (complex128, error) { return call(x) }, nil
}

// DefiniteIntegral returns a numeric function of the bounds that integrates
// f, in closed form when possible and with q otherwise.
func DefiniteIntegral(f func(x Expr) Expr, q Quadrature) (func(a, b complex128) (complex128, error), error) {
	in := IntegralOf(f(S(helperVar)), helperVar, S("a"), S("b"))
	call, err := Compile(in, []string{"a", "b"}, q)
	if err != nil {
		return nil, err
	}
	return func(a, b complex128) (complex128, error) { return call(a, b) }, nil
}
