package consumer

import (
	"errors"
	"log/slog"

	"github.com/wildstyl3r/sfi/internal/stage"
	"github.com/wildstyl3r/sfi/internal/utils"
)

var (
	ErrCombinerAssigned = errors.New("combiner is already assigned")
	ErrNoStages         = errors.New("consumer has no stages")
)

// Builder assembles a Consumer. Without an explicit choice the combiner is
// Multiply and the reducer is Euclid.
type Builder[P any] struct {
	stages   []stage.Stage[P]
	combiner Combiner
	reducer  Reducer
	logger   *slog.Logger
}

func NewBuilder[P any](logger *slog.Logger) *Builder[P] {
	return &Builder[P]{logger: utils.Discard(logger)}
}

// AddStage appends s; stages are folded in the order they were added.
func (b *Builder[P]) AddStage(s stage.Stage[P]) *Builder[P] {
	b.stages = append(b.stages, s)
	return b
}

func (b *Builder[P]) SetCombiner(c Combiner) error {
	if b.combiner != nil {
		return ErrCombinerAssigned
	}
	b.combiner = c
	return nil
}

func (b *Builder[P]) SetReducer(r Reducer) {
	b.reducer = r
}

func (b *Builder[P]) Build() (*Consumer[P], error) {
	if len(b.stages) == 0 {
		return nil, ErrNoStages
	}
	c := &Consumer[P]{
		stages:   append([]stage.Stage[P](nil), b.stages...),
		combiner: b.combiner,
		reducer:  b.reducer,
		logger:   b.logger,
	}
	if c.combiner == nil {
		c.combiner = Multiply{}
	}
	if c.reducer == nil {
		c.reducer = Euclid{}
	}
	return c, nil
}
