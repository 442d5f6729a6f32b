// Package consumer evaluates every stage on every solution of a root
// search and reduces the results to one complex observable.
package consumer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wildstyl3r/sfi/internal/solver"
	"github.com/wildstyl3r/sfi/internal/stage"
)

// Solver is the root search a consumer drives.
type Solver[P any] interface {
	SetParameter(p P) error
	Solve(ctx context.Context) (solver.Outcome, error)
}

// Consumer is not safe for concurrent use. Processed values accumulate
// until Clean, so a sweep must clean between parameter values.
type Consumer[P any] struct {
	stages   []stage.Stage[P]
	combiner Combiner
	reducer  Reducer
	logger   *slog.Logger

	parameter    P
	hasParameter bool
	processed    []complex128
}

// SetParameter binds p to the consumer and to every stage.
func (c *Consumer[P]) SetParameter(p P) {
	c.parameter = p
	c.hasParameter = true
	for _, s := range c.stages {
		s.SetParameter(p)
	}
}

// ConsumeBySolver binds the parameter to s, solves and reduces the stage
// results over the solutions found. No solutions means a zero observable.
// A solution on which some stage fails is left out of the reduction.
func (c *Consumer[P]) ConsumeBySolver(ctx context.Context, s Solver[P]) (complex128, error) {
	if !c.hasParameter {
		return 0, solver.ErrNoParameter
	}
	if err := s.SetParameter(c.parameter); err != nil {
		return 0, fmt.Errorf("bind parameter: %w", err)
	}
	outcome, err := s.Solve(ctx)
	if err != nil {
		return 0, err
	}
	if outcome.IsEmpty() {
		c.logger.Info("no solutions, observable is zero")
		return 0, nil
	}

	for _, sol := range outcome.Solutions() {
		v, err := c.fold(sol)
		if err != nil {
			c.logger.Error("solution skipped", "solution", sol.String(), "err", err)
			continue
		}
		c.processed = append(c.processed, v)
	}
	result := c.reducer.Reduce(c.processed)
	c.logger.Info("observable", "solutions", len(outcome.Solutions()), "processed", len(c.processed), "value", result)
	return result, nil
}

// fold combines the results of all stages left to right.
func (c *Consumer[P]) fold(sol solver.Solution) (complex128, error) {
	var acc complex128
	for i, s := range c.stages {
		v, err := s.Result(sol)
		if err != nil {
			return 0, err
		}
		if i == 0 {
			acc = v
			continue
		}
		acc = c.combiner.Combine(acc, v)
	}
	return acc, nil
}

// Clean forgets the parameter and the processed values.
func (c *Consumer[P]) Clean() {
	var zero P
	c.parameter = zero
	c.hasParameter = false
	c.processed = nil
}

// Processed returns the per-solution values accumulated since the last Clean.
func (c *Consumer[P]) Processed() []complex128 {
	return append([]complex128(nil), c.processed...)
}
