package utils

import (
	"errors"
	"fmt"

	"golang.org/x/exp/constraints"
)

var ErrSizeMismatch = errors.New("vectors have different sizes")

type Scalar interface {
	constraints.Integer | constraints.Float | constraints.Complex
}

func sameSize[T Scalar](u, v []T) error {
	if len(u) != len(v) {
		return fmt.Errorf("%w: %d and %d", ErrSizeMismatch, len(u), len(v))
	}
	return nil
}

func VectorSum[T Scalar](u, v []T) ([]T, error) {
	if err := sameSize(u, v); err != nil {
		return nil, err
	}
	out := make([]T, len(u))
	for i := range u {
		out[i] = u[i] + v[i]
	}
	return out, nil
}

// Dot is sum(u_i*v_i); complex components are not conjugated.
func Dot[T Scalar](u, v []T) (r T, err error) {
	if err = sameSize(u, v); err != nil {
		return
	}
	for i := range u {
		r += u[i] * v[i]
	}
	return
}

func Multiply[T Scalar](u, v []T) (T, error) { return Dot(u, v) }

func Square[T Scalar](u []T) (r T) {
	for i := range u {
		r += u[i] * u[i]
	}
	return
}

func Scale[T Scalar](c T, u []T) []T {
	out := make([]T, len(u))
	for i := range u {
		out[i] = c * u[i]
	}
	return out
}

func Increase[T Scalar](c T, u []T) []T { return Scale(c, u) }
