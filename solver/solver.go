// Package solver implements the alternating-direction implicit time
// integrator for the coupled momentum/heat system, sweeping per-segment
// tridiagonal solves over the tagged grid.
package solver

import (
	"ns3d/grid"
	"ns3d/layer"
)

// MissingValue is the sentinel written for OUT cells in exported frames.
const MissingValue = -1e10

// base carries the state shared by any solver kind: the grid reference
// and the two rotating time levels.
type base struct {
	grid      *grid.Grid
	cur, next *layer.TimeLayer
}

// UpdateBoundaries pulls the prescribed BOUND and VALVE node values into
// both time levels. Called by the driver after every grid prepare.
func (s *base) UpdateBoundaries() {
	s.cur.CopyFromGrid(s.grid, grid.NodeBound)
	s.cur.CopyFromGrid(s.grid, grid.NodeValve)
	s.cur.CopyLayerTo(s.grid, s.next, grid.NodeBound)
	s.cur.CopyLayerTo(s.grid, s.next, grid.NodeValve)
}

// SetGridBoundaries writes the current velocities back onto the grid
// nodes, so a moving surface rebuilt by the next prepare interpolates
// from the simulated flow.
func (s *base) SetGridBoundaries() {
	s.cur.CopyToGrid(s.grid)
}

// clearOuterCells resets OUT cells of the freshly computed layer; the
// shape may have moved and uncovered them.
func (s *base) clearOuterCells() {
	s.next.Clear(s.grid, grid.NodeOut, 0, 0, 0, s.grid.BaseT)
}

// Cur exposes the current time level read-only (driver-side export and
// diagnostics).
func (s *base) Cur() *layer.TimeLayer {
	return s.cur
}

// ExportLayer resamples the current level onto a regular output lattice
// by nearest neighbour, writing MissingValue for OUT cells. Buffers must
// hold outx*outy*outz values each.
func (s *base) ExportLayer(u, v, w, t []float64, outx, outy, outz int) {
	s.cur.FilterToArrays(u, v, w, t, outx, outy, outz)
	for oi := 0; oi < outx; oi++ {
		for oj := 0; oj < outy; oj++ {
			for ok := 0; ok < outz; ok++ {
				i := oi * s.cur.Dimx / outx
				j := oj * s.cur.Dimy / outy
				k := ok * s.cur.Dimz / outz
				if s.grid.Type(i, j, k) != grid.NodeOut {
					continue
				}
				dst := oi*outy*outz + oj*outz + ok
				u[dst] = MissingValue
				v[dst] = MissingValue
				w[dst] = MissingValue
				t[dst] = MissingValue
			}
		}
	}
}
