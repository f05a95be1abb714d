package solver

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/exascience/pargo/parallel"
	log "github.com/sirupsen/logrus"

	"ns3d/fluid"
	"ns3d/grid"
	"ns3d/layer"
)

// DefaultErrThreshold is the divergence-error level above which the
// solver starts warning; ten times it is fatal.
const DefaultErrThreshold = 0.1

// ErrDivergenceBlowup reports an incompressibility residual past the
// fatal threshold; the timestep is not committed.
var ErrDivergenceBlowup = errors.New("solver: divergence error blow-up")

// ErrCrossPartition reports a segment spanning slab boundaries, which
// needs a parallel tridiagonal algorithm this solver does not carry.
var ErrCrossPartition = errors.New("solver: segment crosses partition boundary")

// Options tune the ADI solver.
type Options struct {
	// Transpose keeps Z-layout twins of the working layers and runs the
	// Z sweep as a stride-friendly Y sweep. Purely an optimization; the
	// results are identical.
	Transpose bool

	// ErrThreshold is the divergence warning level; zero selects
	// DefaultErrThreshold.
	ErrThreshold float64

	// Partition restricts the solver to one X slab of a decomposed
	// domain. Nil means the whole domain.
	Partition *Partition
}

var solveOrder = [4]layer.Var{layer.VarU, layer.VarV, layer.VarW, layer.VarT}

// AdiSolver advances the state by operator splitting: each timestep runs
// numGlobal Picard iterations of three implicit sweeps (Z, Y, X), every
// sweep solving independent per-segment tridiagonal systems.
type AdiSolver struct {
	base

	params fluid.Params
	opts   Options
	thr    float64

	temp, half *layer.TimeLayer

	// transposed twins, allocated only with Options.Transpose
	curT, tempT, nextT *layer.TimeLayer

	segs [3][]Segment

	// per-segment scratch rows, maxN values each
	a, b, c, d, x []float64
	maxN          int
}

// NewAdi allocates the solver and its working layers for the grid's
// extents.
func NewAdi(g *grid.Grid, params fluid.Params, opts Options) *AdiSolver {
	s := &AdiSolver{params: params, opts: opts, thr: opts.ErrThreshold}
	if s.thr <= 0 {
		s.thr = DefaultErrThreshold
	}
	s.grid = g
	s.cur = layer.New(g.Dimx, g.Dimy, g.Dimz, g.Dx, g.Dy, g.Dz)
	s.next = layer.New(g.Dimx, g.Dimy, g.Dimz, g.Dx, g.Dy, g.Dz)
	s.temp = layer.New(g.Dimx, g.Dimy, g.Dimz, g.Dx, g.Dy, g.Dz)
	s.half = layer.New(g.Dimx, g.Dimy, g.Dimz, g.Dx, g.Dy, g.Dz)
	if opts.Transpose {
		s.curT = layer.NewTransposed(s.cur)
		s.tempT = layer.NewTransposed(s.cur)
		s.nextT = layer.NewTransposed(s.cur)
	}
	s.maxN = g.Dimx
	if g.Dimy > s.maxN {
		s.maxN = g.Dimy
	}
	if g.Dimz > s.maxN {
		s.maxN = g.Dimz
	}

	// seed both time levels from the node data so quiescent cells start
	// at the grid's base temperature, not at zero
	for _, t := range []grid.NodeType{grid.NodeIn, grid.NodeOut, grid.NodeBound, grid.NodeValve} {
		s.cur.CopyFromGrid(g, t)
	}
	s.cur.CopyTo(s.next)
	return s
}

// TimeStep advances the state by dt and returns the divergence error of
// the committed level. The layers rotate only on success.
func (s *AdiSolver) TimeStep(dt float64, numGlobal, numLocal int) (float64, error) {
	if dt <= 0 {
		return 0, fmt.Errorf("solver: non-positive dt %g", dt)
	}
	s.createSegments()

	// freeze the non-linear coefficients
	s.cur.CopyTo(s.temp)
	if s.opts.Transpose {
		s.cur.Transpose(s.curT)
	}

	for it := 0; it < numGlobal; it++ {
		if err := s.solveDirection(layer.AxisZ, dt, numLocal, s.cur, s.temp, s.next); err != nil {
			return 0, err
		}
		if err := s.solveDirection(layer.AxisY, dt, numLocal, s.next, s.temp, s.half); err != nil {
			return 0, err
		}
		if err := s.solveDirection(layer.AxisX, dt, numLocal, s.half, s.temp, s.next); err != nil {
			return 0, err
		}
		s.next.MergeLayerTo(s.grid, s.temp, grid.NodeIn, false)
	}

	divErr := s.next.EvalDivError(s.grid)
	switch {
	case divErr > 10*s.thr:
		return divErr, fmt.Errorf("%w: err=%g", ErrDivergenceBlowup, divErr)
	case divErr > s.thr:
		log.WithField("err", divErr).Warn("divergence error above threshold")
	}

	s.clearOuterCells()
	s.cur, s.next = s.next, s.cur
	return divErr, nil
}

func (s *AdiSolver) createSegments() {
	for _, axis := range []layer.Axis{layer.AxisX, layer.AxisY, layer.AxisZ} {
		segs := buildSegments(s.grid, axis)
		if s.opts.Partition != nil {
			segs = splitSegments(segs, axis, *s.opts.Partition)
		}
		s.segs[axis] = segs
	}

	maxSegs := 0
	for _, segs := range s.segs {
		if len(segs) > maxSegs {
			maxSegs = len(segs)
		}
	}
	if need := maxSegs * s.maxN; len(s.a) < need {
		s.a = make([]float64, need)
		s.b = make([]float64, need)
		s.c = make([]float64, need)
		s.d = make([]float64, need)
		s.x = make([]float64, need)
	}
}

// solveDirection runs the implicit sweep along one geometric direction:
// numLocal rounds of parallel per-segment solves, each followed by a
// half-average into the non-linear freeze. With the transpose option the
// Z sweep runs on the twins as a Y-layout sweep and the results are
// transposed back once at the end.
func (s *AdiSolver) solveDirection(dir layer.Axis, dt float64, numLocal int, cur, temp, next *layer.TimeLayer) error {
	axis := dir
	segs := s.segs[dir]
	transposed := false

	if s.opts.Transpose && dir == layer.AxisZ {
		// both working twins must mirror their layers before the sweep;
		// the final transpose back covers the whole layer, not just the
		// segment cells
		temp.Transpose(s.tempT)
		next.Transpose(s.nextT)
		axis = layer.AxisY
		cur, temp, next = s.curT, s.tempT, s.nextT
		segs = transposeSegments(segs)
		transposed = true
	}

	for it := 0; it < numLocal; it++ {
		if err := s.runSegments(segs, dt, dir, axis, transposed, cur, temp, next); err != nil {
			return err
		}

		if transposed {
			s.nextT.MergeLayerTo(s.grid, s.tempT, grid.NodeIn, true)
		} else {
			next.MergeLayerTo(s.grid, temp, grid.NodeIn, false)
		}
	}

	if transposed {
		s.nextT.Transpose(s.next)
		s.tempT.Transpose(s.temp)
	}
	return nil
}

// runSegments dispatches the per-segment solves across the worker
// pool. pargo's Range propagates worker panics to the caller, so
// segment errors travel out as panics and the recover turns the
// left-most one back into an ordinary error.
func (s *AdiSolver) runSegments(segs []Segment, dt float64, dir, axis layer.Axis, transposed bool, cur, temp, next *layer.TimeLayer) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if _, fatal := r.(runtime.Error); fatal {
			panic(r)
		}
		e, ok := r.(error)
		if !ok {
			panic(r)
		}
		err = e
	}()
	parallel.Range(0, len(segs), 0, func(low, high int) {
		for si := low; si < high; si++ {
			seg := segs[si]
			if seg.Skip {
				continue
			}
			if seg.Loc != FullyLocal {
				panic(fmt.Errorf("%w: segment %d along %s", ErrCrossPartition, si, dir))
			}
			for _, v := range solveOrder {
				if err := s.solveSegment(dt, si, seg, v, dir, axis, transposed, cur, temp, next); err != nil {
					panic(err)
				}
			}
		}
	})
	return nil
}

// solveSegment assembles and solves the tridiagonal system of one
// variable along one segment, writing the solution into next.
func (s *AdiSolver) solveSegment(dt float64, id int, seg Segment, v layer.Var, dir, axis layer.Axis, transposed bool, cur, temp, next *layer.TimeLayer) error {
	n := seg.Size
	a := s.a[id*s.maxN : id*s.maxN+n]
	b := s.b[id*s.maxN : id*s.maxN+n]
	c := s.c[id*s.maxN : id*s.maxN+n]
	d := s.d[id*s.maxN : id*s.maxN+n]
	x := s.x[id*s.maxN : id*s.maxN+n]

	i0, j0, k0 := gridCoords(seg.PosX, seg.PosY, seg.PosZ, transposed)
	i1, j1, k1 := gridCoords(seg.EndX, seg.EndY, seg.EndZ, transposed)
	a[0] = 0
	s.applyBC0(i0, j0, k0, v, &b[0], &c[0], &d[0])
	c[n-1] = 0
	s.applyBC1(i1, j1, k1, v, &a[n-1], &b[n-1], &d[n-1])

	s.buildMatrix(dt, seg, v, dir, axis, a, b, c, d, n, cur, temp)

	if err := solveTridiagonal(a, b, c, d, x, n); err != nil {
		return fmt.Errorf("%s segment at (%d,%d,%d) along %s: %w", v, i0, j0, k0, dir, err)
	}

	updateSegment(next, seg, axis, v, x)
	return nil
}

// gridCoords maps layer coordinates back to grid coordinates; the
// transposed layout stores axis Z as axis Y.
func gridCoords(i, j, k int, transposed bool) (int, int, int) {
	if transposed {
		return i, k, j
	}
	return i, j, k
}

// buildMatrix fills the interior rows p = 1..n-2. dir selects the
// physics of the sweep (advecting component, buoyancy, dissipation);
// axis selects the memory layout the segment is walked in. They differ
// only when the Z sweep runs on the transposed twins.
func (s *AdiSolver) buildMatrix(dt float64, seg Segment, v layer.Var, dir, axis layer.Axis, a, b, c, d []float64, n int, cur, temp *layer.TimeLayer) {
	var h float64
	switch axis {
	case layer.AxisX:
		h = temp.Dx
	case layer.AxisY:
		h = temp.Dy
	case layer.AxisZ:
		h = temp.Dz
	}

	vis := s.params.VVis
	if v == layer.VarT {
		vis = s.params.TVis
	}
	beta := vis / (h * h)

	// the velocity component aligned with the sweep direction advects
	// every unknown and feels the buoyancy source
	var axisVel layer.Var
	switch dir {
	case layer.AxisX:
		axisVel = layer.VarU
	case layer.AxisY:
		axisVel = layer.VarV
	case layer.AxisZ:
		axisVel = layer.VarW
	}

	i, j, k := seg.PosX, seg.PosY, seg.PosZ
	for p := 1; p < n-1; p++ {
		switch axis {
		case layer.AxisX:
			i = seg.PosX + p
		case layer.AxisY:
			j = seg.PosY + p
		case layer.AxisZ:
			k = seg.PosZ + p
		}

		adv := temp.Elem(axisVel, i, j, k)
		a[p] = -adv/(2*h) - beta
		b[p] = 3/dt + 2*beta
		c[p] = adv/(2*h) - beta

		d[p] = cur.Elem(v, i, j, k) * 3 / dt
		switch v {
		case axisVel:
			d[p] -= s.params.VT * temp.Diff(axis, layer.VarT, i, j, k)
		case layer.VarT:
			d[p] += s.params.TPhi * temp.DissFunc(axis, axisVel, i, j, k)
		}
	}
}

// applyBC0 fills the first row from the boundary node at the segment
// start.
func (s *AdiSolver) applyBC0(i, j, k int, v layer.Var, b0, c0, d0 *float64) {
	if s.freeBC(i, j, k, v) {
		// open end: extrapolation row 2 f(0) = f(1)
		*b0 = 2
		*c0 = -1
		*d0 = 0
		return
	}
	*b0 = 1
	*c0 = 0
	*d0 = s.prescribed(i, j, k, v)
}

// applyBC1 fills the last row from the boundary node at the segment end.
func (s *AdiSolver) applyBC1(i, j, k int, v layer.Var, a1, b1, d1 *float64) {
	if s.freeBC(i, j, k, v) {
		*a1 = -1
		*b1 = 2
		*d1 = 0
		return
	}
	*a1 = 0
	*b1 = 1
	*d1 = s.prescribed(i, j, k, v)
}

func (s *AdiSolver) freeBC(i, j, k int, v layer.Var) bool {
	if v == layer.VarT {
		return s.grid.BCTemp(i, j, k) == grid.BCFree
	}
	return s.grid.BCVel(i, j, k) == grid.BCFree
}

func (s *AdiSolver) prescribed(i, j, k int, v layer.Var) float64 {
	switch v {
	case layer.VarU:
		return s.grid.Vel(i, j, k).X
	case layer.VarV:
		return s.grid.Vel(i, j, k).Y
	case layer.VarW:
		return s.grid.Vel(i, j, k).Z
	}
	return s.grid.T(i, j, k)
}

// updateSegment writes the solved values back along the segment. A
// shared end cap is written only by the segment starting there, so the
// parallel solves stay write-disjoint.
func updateSegment(next *layer.TimeLayer, seg Segment, axis layer.Axis, v layer.Var, x []float64) {
	n := len(x)
	if seg.SharedEnd {
		n--
	}
	i, j, k := seg.PosX, seg.PosY, seg.PosZ
	for p := 0; p < n; p++ {
		next.SetElem(v, i, j, k, x[p])
		switch axis {
		case layer.AxisX:
			i++
		case layer.AxisY:
			j++
		case layer.AxisZ:
			k++
		}
	}
}
