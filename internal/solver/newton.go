package solver

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"slices"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrNoConvergence = errors.New("solver did not converge")
	ErrSingular      = errors.New("jacobian is singular")
)

const (
	DefaultTolerance     = 1e-10
	DefaultMaxIterations = 50
	minStep              = 1e-10
)

// Problem is a system of len(x) equations in len(x) complex unknowns.
type Problem func(x []complex128) ([]complex128, error)

// Nonlinear finds a root of f starting from start.
type Nonlinear interface {
	Solve(f Problem, start []complex128) ([]complex128, error)
}

// Newton is a damped Newton method with a forward-difference jacobian.
// The jacobian is taken along the real axis, which is exact for
// holomorphic systems.
type Newton struct {
	Tolerance     float64
	MaxIterations int
}

func (n Newton) tolerance() float64 {
	if n.Tolerance <= 0 {
		return DefaultTolerance
	}
	return n.Tolerance
}

func (n Newton) maxIterations() int {
	if n.MaxIterations <= 0 {
		return DefaultMaxIterations
	}
	return n.MaxIterations
}

func residual(fx []complex128) float64 {
	var sum float64
	for _, v := range fx {
		a := cmplx.Abs(v)
		sum += a * a
	}
	return math.Sqrt(sum)
}

func (n Newton) Solve(f Problem, start []complex128) ([]complex128, error) {
	x := slices.Clone(start)
	fx, err := f(x)
	if err != nil {
		return nil, err
	}
	if len(fx) != len(x) {
		return nil, fmt.Errorf("problem returned %d residuals for %d unknowns", len(fx), len(x))
	}
	norm := residual(fx)
	tol := n.tolerance()

	for iter := 0; iter < n.maxIterations(); iter++ {
		if norm < tol {
			return x, nil
		}
		jac, err := jacobian(f, x, fx)
		if err != nil {
			return nil, err
		}
		step, err := solveComplex(jac, fx)
		if err != nil {
			return nil, err
		}

		accepted := false
		for lambda := 1.0; lambda >= minStep; lambda /= 2 {
			trial := make([]complex128, len(x))
			for i := range x {
				trial[i] = x[i] + complex(lambda, 0)*step[i]
			}
			ft, err := f(trial)
			if err != nil {
				continue
			}
			if r := residual(ft); r < norm {
				x, fx, norm = trial, ft, r
				accepted = true
				break
			}
		}
		if !accepted {
			return nil, fmt.Errorf("%w: no descent from %v (residual %g)", ErrNoConvergence, x, norm)
		}
	}
	if norm < tol {
		return x, nil
	}
	return nil, fmt.Errorf("%w after %d iterations (residual %g)", ErrNoConvergence, n.maxIterations(), norm)
}

// jacobian returns J[i][j] = d f_i / d x_j.
func jacobian(f Problem, x, fx []complex128) ([][]complex128, error) {
	n := len(x)
	jac := make([][]complex128, n)
	for i := range jac {
		jac[i] = make([]complex128, n)
	}
	shifted := slices.Clone(x)
	for j := range x {
		h := 1e-7 * (1 + cmplx.Abs(x[j]))
		shifted[j] = x[j] + complex(h, 0)
		fp, err := f(shifted)
		if err != nil {
			return nil, err
		}
		for i := range fp {
			jac[i][j] = (fp[i] - fx[i]) / complex(h, 0)
		}
		shifted[j] = x[j]
	}
	return jac, nil
}

// solveComplex solves jac*step = -fx through the real embedding
// [[Re J, -Im J], [Im J, Re J]].
func solveComplex(jac [][]complex128, fx []complex128) ([]complex128, error) {
	n := len(fx)
	a := mat.NewDense(2*n, 2*n, nil)
	b := mat.NewVecDense(2*n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			re, im := real(jac[i][j]), imag(jac[i][j])
			a.Set(i, j, re)
			a.Set(i, j+n, -im)
			a.Set(i+n, j, im)
			a.Set(i+n, j+n, re)
		}
		b.SetVec(i, -real(fx[i]))
		b.SetVec(i+n, -imag(fx[i]))
	}

	var sol mat.VecDense
	if err := sol.SolveVec(a, b); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 0) || float64(cond) > mat.ConditionTolerance {
			return nil, fmt.Errorf("%w: %v", ErrSingular, err)
		}
	}
	step := make([]complex128, n)
	for i := range step {
		re, im := sol.AtVec(i), sol.AtVec(i+n)
		if math.IsNaN(re) || math.IsNaN(im) || math.IsInf(re, 0) || math.IsInf(im, 0) {
			return nil, ErrSingular
		}
		step[i] = complex(re, im)
	}
	return step, nil
}
