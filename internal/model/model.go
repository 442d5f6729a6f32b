package model

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/wildstyl3r/sfi/internal/config"
	"github.com/wildstyl3r/sfi/internal/consumer"
	"github.com/wildstyl3r/sfi/internal/formulas"
	"github.com/wildstyl3r/sfi/internal/plot"
	"github.com/wildstyl3r/sfi/internal/solver"
	"github.com/wildstyl3r/sfi/internal/stage"
	"github.com/wildstyl3r/sfi/internal/utils"
)

// Model is one configured ionization model: a formula chain, the saddle
// point search and the consumer reducing stage results to the observable.
type Model struct {
	Name       string
	Parameters config.ModelParameters

	Cache    *stage.EquationCache
	search   *recorder
	consumer *consumer.Consumer[formulas.Parameter]
	logger   *slog.Logger
}

// recorder keeps the last outcome of the search it wraps.
type recorder struct {
	*solver.GridSolver[formulas.Parameter]
	last solver.Outcome
}

func (r *recorder) Solve(ctx context.Context) (solver.Outcome, error) {
	outcome, err := r.GridSolver.Solve(ctx)
	r.last = outcome
	return outcome, err
}

// Point is the observable at one delay with the saddle points behind it.
type Point struct {
	Delay     float64
	Value     complex128
	Solutions []solver.Solution
}

// NewModel derives (or loads from formulaDir) the equations of the model.
// Equations are cached per envelope, since they differ between envelopes.
func NewModel(name string, parameters config.ModelParameters, formulaDir string, logger *slog.Logger) (*Model, error) {
	logger = utils.Discard(logger).With("model", name)
	envelope, err := formulas.EnvelopeByName(parameters.Envelope)
	if err != nil {
		return nil, err
	}
	m := &Model{
		Name:       name,
		Parameters: parameters,
		Cache:      stage.NewEquationCache(filepath.Join(formulaDir, envelopeDir(parameters.Envelope)), logger),
		logger:     logger,
	}
	builder := &stage.Builder{
		Chain:      formulas.NewChain(envelope, logger),
		Cache:      m.Cache,
		Quadrature: parameters.QuadraturePoints,
		Logger:     logger,
	}

	problem, err := builder.IonizationProblem()
	if err != nil {
		return nil, fmt.Errorf("saddle equations: %w", err)
	}
	grid, err := solver.NewGridSolver(solver.GridOptions{
		Left:      parameters.LeftBorder,
		Right:     parameters.RightBorder,
		Frequency: parameters.Frequency,
		Dimension: 2,
		Precision: parameters.Precision,
		Workers:   parameters.Workers,
	}, solver.Newton{Tolerance: parameters.Tolerance, MaxIterations: parameters.MaxIterations}, problem, logger)
	if err != nil {
		return nil, err
	}
	m.search = &recorder{GridSolver: grid}

	cb := consumer.NewBuilder[formulas.Parameter](logger)
	for _, stageName := range parameters.Stages {
		s, err := builder.StageByName(stageName)
		if err != nil {
			return nil, err
		}
		cb.AddStage(s)
	}
	combiner, err := consumer.CombinerByName(parameters.Combiner)
	if err != nil {
		return nil, err
	}
	if err := cb.SetCombiner(combiner); err != nil {
		return nil, err
	}
	reducer, err := consumer.ReducerByName(parameters.Reducer)
	if err != nil {
		return nil, err
	}
	cb.SetReducer(reducer)
	if m.consumer, err = cb.Build(); err != nil {
		return nil, err
	}
	return m, nil
}

func envelopeDir(name string) string {
	if name == "" {
		return "fading"
	}
	return name
}

func (m *Model) GridSize() int { return m.search.GridSize() }

// At computes the observable at delay td. The consumer is cleaned after
// every point so that points of a sweep stay independent.
func (m *Model) At(ctx context.Context, td float64) (Point, error) {
	defer m.consumer.Clean()
	m.consumer.SetParameter(m.Parameters.Parameter(td))
	m.search.last = solver.Empty
	v, err := m.consumer.ConsumeBySolver(ctx, m.search)
	if err != nil {
		return Point{}, err
	}
	return Point{Delay: td, Value: v, Solutions: m.search.last.Solutions()}, nil
}

// Sweep computes the observable over the configured delays. progress, if
// not nil, is called after every point.
func (m *Model) Sweep(ctx context.Context, progress func(done, total int)) ([]Point, error) {
	delays := m.Parameters.Delays()
	points := make([]Point, 0, len(delays))
	printer := &plot.Printer{Name: m.Name, XLabel: "T_d", Logger: m.logger}
	_, err := printer.Evaluate(ctx, delays, func(ctx context.Context, td float64) (complex128, error) {
		p, err := m.At(ctx, td)
		if err != nil {
			return 0, err
		}
		points = append(points, p)
		if progress != nil {
			progress(len(points), len(delays))
		}
		return p.Value, nil
	})
	return points, err
}
