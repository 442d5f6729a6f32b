package symbolic

import "fmt"

// Vector is a fixed-length list of expressions, usually the two polarization
// components of a field quantity.
type Vector []Expr

func checkSizes(op string, u, v Vector) {
	if len(u) != len(v) {
		panic(fmt.Errorf("%w: %s of %d and %d components", ErrSizeMismatch, op, len(u), len(v)))
	}
}

func VectorSum(u, v Vector) Vector {
	checkSizes("sum", u, v)
	out := make(Vector, len(u))
	for i := range u {
		out[i] = AddOf(u[i], v[i])
	}
	return out
}

// Dot is the bilinear product sum(u_i*v_i), without conjugation.
func Dot(u, v Vector) Expr {
	checkSizes("dot", u, v)
	terms := make([]Expr, len(u))
	for i := range u {
		terms[i] = MulOf(u[i], v[i])
	}
	return AddOf(terms...)
}

func (u Vector) Square() Expr { return Dot(u, u) }

func Scale(c Expr, u Vector) Vector {
	out := make(Vector, len(u))
	for i := range u {
		out[i] = MulOf(c, u[i])
	}
	return out
}

func (u Vector) Neg() Vector { return Scale(N(-1), u) }

func (u Vector) Subs(m map[string]Expr) Vector {
	out := make(Vector, len(u))
	for i := range u {
		out[i] = u[i].Subs(m)
	}
	return out
}

// SubstituteOne replaces a single symbol in every component.
func (u Vector) SubstituteOne(name string, value Expr) Vector {
	return u.Subs(map[string]Expr{name: value})
}

// SubstitutePair replaces two symbols simultaneously, so that swapping
// (t1, t2) -> (t2, t1) works.
func (u Vector) SubstitutePair(names [2]string, values [2]Expr) Vector {
	return u.Subs(map[string]Expr{names[0]: values[0], names[1]: values[1]})
}

func (u Vector) DiffEach(name string) Vector {
	out := make(Vector, len(u))
	for i := range u {
		out[i] = u[i].Diff(name)
	}
	return out
}

func (u Vector) IntegrateEach(v string, lo, hi Expr) Vector {
	out := make(Vector, len(u))
	for i := range u {
		out[i] = IntegralOf(u[i], v, lo, hi)
	}
	return out
}

func (u Vector) String() string {
	s := "["
	for i, e := range u {
		if i > 0 {
			s += ", "
		}
		s += e.String()
	}
	return s + "]"
}
