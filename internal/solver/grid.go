package solver

import (
	"fmt"

	"github.com/wildstyl3r/sfi/internal/utils"
)

// BuildGrid returns the cartesian product of dimension copies of base in
// lexicographic order: the first coordinate varies slowest.
func BuildGrid(base []float64, dimension int) ([][]float64, error) {
	if dimension < 1 {
		return nil, fmt.Errorf("grid dimension must be positive, got %d", dimension)
	}
	grid := make([][]float64, len(base))
	for i, x := range base {
		grid[i] = []float64{x}
	}
	for axis := 1; axis < dimension; axis++ {
		next := make([][]float64, 0, len(grid)*len(base))
		for _, point := range grid {
			for _, x := range base {
				extended := make([]float64, len(point)+1)
				copy(extended, point)
				extended[len(point)] = x
				next = append(next, extended)
			}
		}
		grid = next
	}
	return grid, nil
}

// LinearGrid seeds frequency points per axis evenly over [left, right].
func LinearGrid(left, right float64, frequency, dimension int) ([][]float64, error) {
	if frequency < 1 {
		return nil, fmt.Errorf("grid frequency must be positive, got %d", frequency)
	}
	return BuildGrid(utils.Linspace(left, right, frequency), dimension)
}
