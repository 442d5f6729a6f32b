package stage

import (
	"fmt"
	"log/slog"

	"github.com/wildstyl3r/sfi/internal/constants"
	"github.com/wildstyl3r/sfi/internal/formulas"
	"github.com/wildstyl3r/sfi/internal/solver"
	"github.com/wildstyl3r/sfi/internal/symbolic"
)

const (
	IonStageName    = "ion_stage"
	PropelStageName = "propel_stage"
	Equation1Name   = "equation_1"
	Equation2Name   = "equation_2"
)

// Builder derives stages and equations from one formula chain and keeps
// their canonical text in a cache.
type Builder struct {
	Chain      *formulas.Chain
	Cache      *EquationCache
	Quadrature int // nodes per unevaluated integral
	Logger     *slog.Logger
}

func coordinates() (symbolic.Expr, symbolic.Expr) {
	return symbolic.S(x), symbolic.S(y)
}

// IonEquation is the tunnel ionization rate
// f0 exp(-Kappa^3/(3 F_tmp)) / sqrt(4 pi Kappa F_tmp).
func (b *Builder) IonEquation() (symbolic.Expr, error) {
	return b.Cache.GetOrBuild(IonStageName, func() symbolic.Expr {
		t1, t2 := coordinates()
		kappa, field := b.Chain.Kappa(t1, t2), b.Chain.FTmp(t1, t2)
		numerator := symbolic.MulOf(formulas.F0, symbolic.ExpOf(symbolic.DivOf(
			symbolic.Neg(symbolic.PowOf(kappa, symbolic.N(3))),
			symbolic.MulOf(symbolic.N(3), field),
		)))
		denominator := symbolic.SqrtOf(symbolic.MulOf(symbolic.R(constants.FourPi), kappa, field))
		return symbolic.DivOf(numerator, denominator)
	})
}

// PropelEquation is the propagation amplitude from t2 to t1
// W exp(i (|K|^2/2 + I_p)(t1 - t2)) / sqrt(|P(t1)|^2 + 2 I_p).
func (b *Builder) PropelEquation() (symbolic.Expr, error) {
	return b.Cache.GetOrBuild(PropelStageName, func() symbolic.Expr {
		t1, t2 := coordinates()
		energy := symbolic.AddOf(symbolic.MulOf(symbolic.R(0.5), b.Chain.K2(t1, t2).Square()), formulas.Ip)
		phase := symbolic.ExpOf(symbolic.MulOf(symbolic.C(1i), energy, symbolic.SubOf(t1, t2)))
		norm := symbolic.SqrtOf(symbolic.AddOf(b.Chain.P(t1).Square(), symbolic.MulOf(symbolic.N(2), formulas.Ip)))
		return symbolic.DivOf(symbolic.MulOf(b.Chain.W(t1, t2), phase), norm)
	})
}

// SaddleEquations are the two equations whose common roots (t1, t2) are the
// saddle points: K.K'' = 0 with derivatives in t2, and
// (|P(t1)|^2 - |K|^2)/2 + (|K|^2/2 + I_p) W = 0.
func (b *Builder) SaddleEquations() (symbolic.Expr, symbolic.Expr, error) {
	first, err := b.Cache.GetOrBuild(Equation1Name, func() symbolic.Expr {
		t1, t2 := coordinates()
		k := b.Chain.K2(t1, t2)
		return symbolic.Dot(k, k.DiffEach(y).DiffEach(y))
	})
	if err != nil {
		return nil, nil, err
	}
	second, err := b.Cache.GetOrBuild(Equation2Name, func() symbolic.Expr {
		t1, t2 := coordinates()
		k1, k2 := b.Chain.K1(t1, t2), b.Chain.K2(t1, t2)
		kinetic := symbolic.MulOf(symbolic.R(0.5), symbolic.SubOf(b.Chain.P(t1).Square(), k1.Square()))
		energy := symbolic.AddOf(symbolic.MulOf(symbolic.R(0.5), k2.Square()), formulas.Ip)
		return symbolic.AddOf(kinetic, symbolic.MulOf(energy, b.Chain.W(t1, t2)))
	})
	if err != nil {
		return nil, nil, err
	}
	return first, second, nil
}

func (b *Builder) stage(name string, e symbolic.Expr, err error) (*Compiled, error) {
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	eq, err := Compile(name, e, symbolic.ComplexQuadrature{Points: b.Quadrature})
	if err != nil {
		return nil, err
	}
	return NewCompiled(eq, b.Logger), nil
}

func (b *Builder) IonStage() (*Compiled, error) {
	e, err := b.IonEquation()
	return b.stage(IonStageName, e, err)
}

func (b *Builder) PropelStage() (*Compiled, error) {
	e, err := b.PropelEquation()
	return b.stage(PropelStageName, e, err)
}

// StageByName builds one of the named stages.
func (b *Builder) StageByName(name string) (*Compiled, error) {
	switch name {
	case "ion", IonStageName:
		return b.IonStage()
	case "propel", PropelStageName:
		return b.PropelStage()
	}
	return nil, fmt.Errorf("unknown stage %q", name)
}

// IonizationProblem compiles the saddle equations with real quadrature and
// returns a builder of root-search problems for a model parameter.
func (b *Builder) IonizationProblem() (func(formulas.Parameter) (solver.Problem, error), error) {
	first, second, err := b.SaddleEquations()
	if err != nil {
		return nil, err
	}
	q := symbolic.RealQuadrature{Points: b.Quadrature}
	eq1, err := Compile(Equation1Name, first, q)
	if err != nil {
		return nil, err
	}
	eq2, err := Compile(Equation2Name, second, q)
	if err != nil {
		return nil, err
	}
	return func(p formulas.Parameter) (solver.Problem, error) {
		values := p.Values()
		return func(z []complex128) ([]complex128, error) {
			if len(z) != 2 {
				return nil, fmt.Errorf("saddle equations take 2 unknowns, got %d", len(z))
			}
			r1, err := eq1.Eval(z[0], z[1], values)
			if err != nil {
				return nil, err
			}
			r2, err := eq2.Eval(z[0], z[1], values)
			if err != nil {
				return nil, err
			}
			return []complex128{r1, r2}, nil
		}, nil
	}, nil
}
