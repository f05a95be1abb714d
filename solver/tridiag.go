package solver

import (
	"errors"
	"math"
)

// ErrSingularSystem reports a vanishing pivot during the forward sweep.
var ErrSingularSystem = errors.New("solver: singular tridiagonal system")

const pivotEps = 1e-30

// solveTridiagonal solves a[p]*x[p-1] + b[p]*x[p] + c[p]*x[p+1] = d[p]
// for p = 0..n-1 with the Thomas algorithm. a[0] and c[n-1] are unused;
// c and d are used as scratch.
func solveTridiagonal(a, b, c, d, x []float64, n int) error {
	if math.Abs(b[0]) < pivotEps {
		return ErrSingularSystem
	}
	c[0] /= b[0]
	d[0] /= b[0]

	for p := 1; p < n; p++ {
		den := b[p] - a[p]*c[p-1]
		if math.Abs(den) < pivotEps {
			return ErrSingularSystem
		}
		if p < n-1 {
			c[p] /= den
		}
		d[p] = (d[p] - a[p]*d[p-1]) / den
	}

	x[n-1] = d[n-1]
	for p := n - 2; p >= 0; p-- {
		x[p] = d[p] - c[p]*x[p+1]
	}
	return nil
}
