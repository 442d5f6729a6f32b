package symbolic

import (
	"gonum.org/v1/gonum/integrate/quad"
)

const DefaultQuadraturePoints = 64

// Quadrature evaluates a definite integral of a real-argument integrand.
// The integrand may fail; the first error aborts the integration.
type Quadrature interface {
	Integrate(f func(float64) (complex128, error), a, b float64) (complex128, error)
}

// RealQuadrature integrates the real part of the integrand only.
type RealQuadrature struct {
	Points int
}

func (q RealQuadrature) Integrate(f func(float64) (complex128, error), a, b float64) (complex128, error) {
	if a == b {
		return 0, nil
	}
	sign := 1.0
	if a > b {
		a, b, sign = b, a, -1
	}
	var failed error
	v := quad.Fixed(func(t float64) float64 {
		if failed != nil {
			return 0
		}
		y, err := f(t)
		if err != nil {
			failed = err
			return 0
		}
		return real(y)
	}, a, b, points(q.Points), nil, 1)
	if failed != nil {
		return 0, failed
	}
	return complex(sign*v, 0), nil
}

// ComplexQuadrature integrates real and imaginary parts on the same
// Gauss-Legendre nodes, calling the integrand once per node.
type ComplexQuadrature struct {
	Points int
}

func (q ComplexQuadrature) Integrate(f func(float64) (complex128, error), a, b float64) (complex128, error) {
	if a == b {
		return 0, nil
	}
	sign := 1.0
	if a > b {
		a, b, sign = b, a, -1
	}
	n := points(q.Points)
	x := make([]float64, n)
	w := make([]float64, n)
	quad.Legendre{}.FixedLocations(x, w, a, b)
	var sum complex128
	for i := range x {
		y, err := f(x[i])
		if err != nil {
			return 0, err
		}
		sum += complex(w[i], 0) * y
	}
	return complex(sign, 0) * sum, nil
}

func points(n int) int {
	if n <= 0 {
		return DefaultQuadraturePoints
	}
	return n
}
