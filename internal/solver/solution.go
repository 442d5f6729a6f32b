package solver

import (
	"fmt"
	"math"
	"math/cmplx"
	"strings"
)

// Solution is one root of the equation system, typically (t1, t2).
type Solution []complex128

// Distance is the euclidean distance between two solutions of equal size.
func Distance(a, b Solution) float64 {
	var sum float64
	for i := range a {
		d := cmplx.Abs(a[i] - b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

func (s Solution) String() string {
	parts := make([]string, len(s))
	for i, z := range s {
		parts[i] = fmt.Sprintf("%.6g", z)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// SolutionSet keeps solutions that are at least Precision apart from each other.
type SolutionSet struct {
	Precision float64
	items     []Solution
}

// Add stores s unless a stored solution is closer than Precision.
// It reports whether s was stored.
func (set *SolutionSet) Add(s Solution) bool {
	for _, kept := range set.items {
		if len(kept) == len(s) && Distance(kept, s) < set.Precision {
			return false
		}
	}
	set.items = append(set.items, s)
	return true
}

func (set *SolutionSet) Len() int { return len(set.items) }

func (set *SolutionSet) Solutions() []Solution { return set.items }

// Outcome of a root search: either some solutions were found or none.
type Outcome struct {
	solutions []Solution
}

var Empty = Outcome{}

func Found(solutions []Solution) Outcome {
	if len(solutions) == 0 {
		return Empty
	}
	return Outcome{solutions: solutions}
}

func (o Outcome) IsEmpty() bool { return len(o.solutions) == 0 }

func (o Outcome) Solutions() []Solution { return o.solutions }
