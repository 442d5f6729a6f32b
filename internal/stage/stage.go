// Package stage turns formula chain quantities into numeric evaluators:
// the per-solution stages combined by a consumer and the equations whose
// roots are the solutions.
package stage

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/wildstyl3r/sfi/internal/formulas"
	"github.com/wildstyl3r/sfi/internal/solver"
	"github.com/wildstyl3r/sfi/internal/symbolic"
	"github.com/wildstyl3r/sfi/internal/utils"
)

var ErrStageFailed = errors.New("stage evaluation failed")

// Stage evaluates one physical effect on a solution.
type Stage[P any] interface {
	Name() string
	SetParameter(p P)
	Result(s solver.Solution) (complex128, error)
}

const (
	x = "x"
	y = "y"
)

// Arguments is the order compiled equations take their arguments in:
// the two solution coordinates followed by formulas.ParameterOrder.
func Arguments() []string {
	return append([]string{x, y}, formulas.ParameterOrder...)
}

// Equation is a compiled equation of the solution coordinates and the
// model parameter.
type Equation struct {
	name string
	call symbolic.Callable
}

func Compile(name string, e symbolic.Expr, q symbolic.Quadrature) (*Equation, error) {
	call, err := symbolic.Compile(e, Arguments(), q)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", name, err)
	}
	return &Equation{name: name, call: call}, nil
}

func (eq *Equation) Eval(t1, t2 complex128, parameter []complex128) (complex128, error) {
	args := make([]complex128, 0, 2+len(parameter))
	args = append(args, t1, t2)
	args = append(args, parameter...)
	return eq.call(args...)
}

// Compiled is a Stage backed by a compiled equation.
type Compiled struct {
	eq        *Equation
	parameter []complex128
	logger    *slog.Logger
}

func NewCompiled(eq *Equation, logger *slog.Logger) *Compiled {
	return &Compiled{eq: eq, logger: utils.Discard(logger)}
}

func (s *Compiled) Name() string { return s.eq.name }

func (s *Compiled) SetParameter(p formulas.Parameter) {
	s.parameter = p.Values()
}

// Result evaluates the stage at (t1, t2). Numeric failures are logged and
// reported as ErrStageFailed for this solution only.
func (s *Compiled) Result(sol solver.Solution) (complex128, error) {
	if len(sol) != 2 {
		return 0, fmt.Errorf("%w: %s expects 2 coordinates, got %d", ErrStageFailed, s.Name(), len(sol))
	}
	if s.parameter == nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrStageFailed, s.Name(), solver.ErrNoParameter)
	}
	v, err := s.eq.Eval(sol[0], sol[1], s.parameter)
	if err != nil {
		s.logger.Error("stage evaluation failed", "stage", s.Name(), "solution", sol.String(), "err", err)
		return 0, fmt.Errorf("%w: %s at %v: %w", ErrStageFailed, s.Name(), sol, err)
	}
	s.logger.Debug("stage evaluated", "stage", s.Name(), "solution", sol.String(), "value", v)
	return v, nil
}

// FuncStage adapts a plain function to Stage.
type FuncStage[P any] struct {
	name      string
	fn        func(p P, s solver.Solution) (complex128, error)
	parameter P
}

func NewFuncStage[P any](name string, fn func(p P, s solver.Solution) (complex128, error)) *FuncStage[P] {
	return &FuncStage[P]{name: name, fn: fn}
}

func (s *FuncStage[P]) Name() string       { return s.name }
func (s *FuncStage[P]) SetParameter(p P)   { s.parameter = p }

func (s *FuncStage[P]) Result(sol solver.Solution) (complex128, error) {
	v, err := s.fn(s.parameter, sol)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrStageFailed, s.name, err)
	}
	return v, nil
}
