package solver

import (
	"context"
	"errors"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/wildstyl3r/sfi/internal/utils"
)

var ErrNoParameter = errors.New("solver parameter is not set")

// GridSolver searches roots of a parametrized problem from every point of a
// seed grid and keeps the distinct ones.
type GridSolver[P any] struct {
	grid      [][]float64
	precision float64
	workers   int
	method    Nonlinear
	build     func(P) (Problem, error)
	problem   Problem
	logger    *slog.Logger
}

type GridOptions struct {
	Left, Right float64
	Frequency   int // seeds per axis
	Dimension   int
	Precision   float64
	Workers     int
}

func NewGridSolver[P any](opts GridOptions, method Nonlinear, build func(P) (Problem, error), logger *slog.Logger) (*GridSolver[P], error) {
	grid, err := LinearGrid(opts.Left, opts.Right, opts.Frequency, opts.Dimension)
	if err != nil {
		return nil, err
	}
	if method == nil {
		method = Newton{}
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &GridSolver[P]{
		grid:      grid,
		precision: opts.Precision,
		workers:   workers,
		method:    method,
		build:     build,
		logger:    utils.Discard(logger),
	}, nil
}

func (g *GridSolver[P]) GridSize() int { return len(g.grid) }

func (g *GridSolver[P]) SetParameter(p P) error {
	problem, err := g.build(p)
	if err != nil {
		return err
	}
	g.problem = problem
	return nil
}

// Solve runs the seeds in parallel. A seed that fails to converge is logged
// and dropped; only cancellation of ctx fails the whole search. Surviving
// roots are deduplicated in seed order, so the outcome does not depend on
// scheduling.
func (g *GridSolver[P]) Solve(ctx context.Context) (Outcome, error) {
	if g.problem == nil {
		return Empty, ErrNoParameter
	}
	problem := g.problem
	roots := make([]Solution, len(g.grid))

	eg, seedCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.workers)
	for i, seed := range g.grid {
		if seedCtx.Err() != nil {
			break
		}
		eg.Go(func() error {
			if err := seedCtx.Err(); err != nil {
				return err
			}
			start := make([]complex128, len(seed))
			for j, x := range seed {
				start[j] = complex(x, 0)
			}
			root, err := g.method.Solve(problem, start)
			if err != nil {
				g.logger.Warn("seed discarded", "seed", seed, "err", err)
				return nil
			}
			if len(root) == 0 {
				g.logger.Warn("seed discarded", "seed", seed, "err", "empty root")
				return nil
			}
			roots[i] = root
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return Empty, err
	}
	if err := ctx.Err(); err != nil {
		return Empty, err
	}

	set := SolutionSet{Precision: g.precision}
	for _, root := range roots {
		if root != nil {
			set.Add(root)
		}
	}
	g.logger.Info("grid search finished", "seeds", len(g.grid), "solutions", set.Len())
	return Found(set.Solutions()), nil
}

// Decoupled builds a problem whose i-th equation involves only the i-th
// unknown.
func Decoupled(eqs ...func(z complex128) (complex128, error)) Problem {
	return func(x []complex128) ([]complex128, error) {
		out := make([]complex128, len(eqs))
		for i, eq := range eqs {
			v, err := eq(x[i])
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}
}
