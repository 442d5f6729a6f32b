package consumer

import (
	"context"
	"errors"
	"math/cmplx"
	"testing"

	"github.com/wildstyl3r/sfi/internal/solver"
	"github.com/wildstyl3r/sfi/internal/stage"
)

// shifted parabolas: x^2 = p + 1 and (y - 1)^2 = p + 1
func parabolas(p complex128) (solver.Problem, error) {
	return solver.Decoupled(
		func(z complex128) (complex128, error) { return z*z - (p + 1), nil },
		func(z complex128) (complex128, error) { return (z-1)*(z-1) - (p + 1), nil },
	), nil
}

func gridSolver(t *testing.T, build func(complex128) (solver.Problem, error)) *solver.GridSolver[complex128] {
	t.Helper()
	g, err := solver.NewGridSolver(solver.GridOptions{Left: -10, Right: 10, Frequency: 10, Dimension: 2, Precision: 0.1}, solver.Newton{}, build, nil)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func firstTimesParameter() stage.Stage[complex128] {
	return stage.NewFuncStage("first", func(p complex128, s solver.Solution) (complex128, error) {
		return p * s[0], nil
	})
}

func build(t *testing.T, stages ...stage.Stage[complex128]) *Consumer[complex128] {
	t.Helper()
	b := NewBuilder[complex128](nil)
	for _, s := range stages {
		b.AddStage(s)
	}
	c, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestConsumer_ZeroParameter(t *testing.T) {
	c := build(t, firstTimesParameter())
	c.SetParameter(0)
	got, err := c.ConsumeBySolver(context.Background(), gridSolver(t, parabolas))
	if err != nil {
		t.Fatal(err)
	}
	if got != 0 {
		t.Errorf("want 0, got %v", got)
	}
	if len(c.Processed()) != 4 {
		t.Errorf("want 4 roots, got %d", len(c.Processed()))
	}
}

func TestConsumer_ParameterSweep(t *testing.T) {
	c := build(t, firstTimesParameter())
	g := gridSolver(t, parabolas)
	for p, want := range map[complex128]complex128{3: 12, 8: 48} {
		c.SetParameter(p)
		got, err := c.ConsumeBySolver(context.Background(), g)
		if err != nil {
			t.Fatal(err)
		}
		c.Clean()
		if cmplx.Abs(got-want) > 1e-6 {
			t.Errorf("p=%v: want %v, got %v", p, want, got)
		}
	}
}

func TestConsumer_NoSolutionsIsZero(t *testing.T) {
	c := build(t, firstTimesParameter())
	c.SetParameter(3)
	impossible := func(complex128) (solver.Problem, error) {
		return solver.Decoupled(
			func(z complex128) (complex128, error) { return z*z + 1, nil },
			func(z complex128) (complex128, error) { return z*z + 1, nil },
		), nil
	}
	got, err := c.ConsumeBySolver(context.Background(), gridSolver(t, impossible))
	if err != nil || got != 0 {
		t.Errorf("want 0 without error, got %v (%v)", got, err)
	}
}

func constant(name string, v complex128) stage.Stage[complex128] {
	return stage.NewFuncStage(name, func(complex128, solver.Solution) (complex128, error) { return v, nil })
}

type fixed struct {
	outcome solver.Outcome
	err     error
	bound   []complex128
}

func (f *fixed) SetParameter(p complex128) error {
	f.bound = append(f.bound, p)
	return nil
}

func (f *fixed) Solve(context.Context) (solver.Outcome, error) { return f.outcome, f.err }

func TestConsumer_FoldsEveryStage(t *testing.T) {
	one := &fixed{outcome: solver.Found([]solver.Solution{{1, 1}})}
	for _, tc := range []struct {
		combiner Combiner
		want     complex128
	}{
		{Multiply{}, 30},
		{Add{}, 10},
		{CombinerFunc(func(a, b complex128) complex128 { return a - b }), -6},
	} {
		b := NewBuilder[complex128](nil).AddStage(constant("a", 2)).AddStage(constant("b", 3)).AddStage(constant("c", 5))
		b.SetCombiner(tc.combiner)
		b.SetReducer(Sum{})
		c, err := b.Build()
		if err != nil {
			t.Fatal(err)
		}
		c.SetParameter(1)
		if got, _ := c.ConsumeBySolver(context.Background(), one); got != tc.want {
			t.Errorf("want %v, got %v", tc.want, got)
		}
	}
}

func TestConsumer_FailedStageSkipsSolution(t *testing.T) {
	positive := stage.NewFuncStage("positive", func(_ complex128, s solver.Solution) (complex128, error) {
		if real(s[0]) < 0 {
			return 0, errors.New("negative coordinate")
		}
		return s[0], nil
	})
	c := build(t, positive)
	c.SetParameter(1)
	s := &fixed{outcome: solver.Found([]solver.Solution{{3, 0}, {-1, 0}, {4, 0}})}
	got, err := c.ConsumeBySolver(context.Background(), s)
	if err != nil {
		t.Fatal(err)
	}
	if got != 5 {
		t.Errorf("want 5, got %v", got)
	}
	if len(c.Processed()) != 2 {
		t.Errorf("want 2 processed, got %v", c.Processed())
	}
}

func TestConsumer_StateAndErrors(t *testing.T) {
	c := build(t, constant("a", 1))
	s := &fixed{outcome: solver.Found([]solver.Solution{{0, 0}})}
	if _, err := c.ConsumeBySolver(context.Background(), s); !errors.Is(err, solver.ErrNoParameter) {
		t.Errorf("want ErrNoParameter, got %v", err)
	}

	c.SetParameter(7)
	c.ConsumeBySolver(context.Background(), s)
	c.ConsumeBySolver(context.Background(), s)
	if len(c.Processed()) != 2 {
		t.Errorf("processed values should accumulate until Clean, got %v", c.Processed())
	}
	if len(s.bound) != 2 || s.bound[0] != 7 {
		t.Errorf("parameter should be bound to the solver, got %v", s.bound)
	}
	c.Clean()
	if len(c.Processed()) != 0 {
		t.Errorf("Clean should drop processed values")
	}

	c.SetParameter(1)
	boom := errors.New("boom")
	if _, err := c.ConsumeBySolver(context.Background(), &fixed{err: boom}); !errors.Is(err, boom) {
		t.Errorf("solver error should propagate, got %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.ConsumeBySolver(ctx, gridSolver(t, parabolas)); !errors.Is(err, context.Canceled) {
		t.Errorf("want context.Canceled, got %v", err)
	}
}

func TestBuilder(t *testing.T) {
	b := NewBuilder[complex128](nil)
	if _, err := b.Build(); !errors.Is(err, ErrNoStages) {
		t.Errorf("want ErrNoStages, got %v", err)
	}
	if err := b.SetCombiner(Add{}); err != nil {
		t.Fatal(err)
	}
	if err := b.SetCombiner(Multiply{}); !errors.Is(err, ErrCombinerAssigned) {
		t.Errorf("want ErrCombinerAssigned, got %v", err)
	}
	if _, err := CombinerByName("divide"); err == nil {
		t.Error("unknown combiner should fail")
	}
	if r, err := ReducerByName("euclid"); err != nil || r.Reduce([]complex128{3, 4}) != 5 {
		t.Errorf("euclid of (3, 4) should be 5")
	}
	if v := (Euclid{}).Reduce(nil); v != 0 {
		t.Errorf("empty reduction should be 0, got %v", v)
	}
}
