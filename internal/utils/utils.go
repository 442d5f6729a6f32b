package utils

import (
	"slices"

	"golang.org/x/exp/constraints"

	"github.com/wildstyl3r/sfi/internal/constants"
)

func SumSlice[T Scalar](arr []T) (r T) {
	for i := range arr {
		r += arr[i]
	}
	return
}

// Linspace returns n evenly spaced points from `from` to `to`, both included.
func Linspace[T constraints.Float](from, to T, n int) []T {
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []T{from}
	}
	out := make([]T, n)
	step := (to - from) / T(n-1)
	for i := range out {
		out[i] = from + T(i)*step
	}
	out[n-1] = to
	return out
}

func IntAbs(a int) int {
	if a < 0 {
		return -a
	} else {
		return a
	}
}

func Intersect(a, b []string) *string {
	for i := range a {
		if slices.Contains(b, a[i]) {
			return &a[i]
		}
	}
	return nil
}

func EV2Ha(val float64) float64 {
	return val / constants.HartreeEnergy
}
