package consumer

import (
	"fmt"
	"math/cmplx"

	"github.com/wildstyl3r/sfi/internal/utils"
)

// Combiner merges the results of two stages evaluated on the same solution.
type Combiner interface {
	Combine(a, b complex128) complex128
}

type CombinerFunc func(a, b complex128) complex128

func (f CombinerFunc) Combine(a, b complex128) complex128 { return f(a, b) }

type Multiply struct{}

func (Multiply) Combine(a, b complex128) complex128 { return a * b }

type Add struct{}

func (Add) Combine(a, b complex128) complex128 { return a + b }

// Reducer turns the per-solution values into the observable.
type Reducer interface {
	Reduce(values []complex128) complex128
}

// Euclid treats the values as components of a vector and returns
// sqrt(sum v^2). Components are not conjugated.
type Euclid struct{}

func (Euclid) Reduce(values []complex128) complex128 {
	return cmplx.Sqrt(utils.Square(values))
}

type Sum struct{}

func (Sum) Reduce(values []complex128) complex128 {
	return utils.SumSlice(values)
}

func CombinerByName(name string) (Combiner, error) {
	switch name {
	case "", "multiply":
		return Multiply{}, nil
	case "add":
		return Add{}, nil
	}
	return nil, fmt.Errorf("unknown combiner %q", name)
}

func ReducerByName(name string) (Reducer, error) {
	switch name {
	case "", "euclid":
		return Euclid{}, nil
	case "sum":
		return Sum{}, nil
	}
	return nil, fmt.Errorf("unknown reducer %q", name)
}
