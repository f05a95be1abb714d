// Package layer holds the four scalar transport fields (U, V, W, T) of
// one time level, together with the finite-difference operators the
// sweeps are built from.
package layer

import (
	"github.com/exascience/pargo/parallel"

	"ns3d/geom"
	"ns3d/grid"
)

// Var selects one of the four transported fields.
type Var int

const (
	VarU Var = iota
	VarV
	VarW
	VarT
)

func (v Var) String() string {
	switch v {
	case VarU:
		return "U"
	case VarV:
		return "V"
	case VarW:
		return "W"
	case VarT:
		return "T"
	}
	return "?"
}

// Axis names a layout axis of the layer.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "X"
	case AxisY:
		return "Y"
	case AxisZ:
		return "Z"
	}
	return "?"
}

// TimeLayer is one time level of the state. A transposed twin stores
// axis Z laid out as axis Y; its Dimy/Dimz and Dy/Dz are swapped
// relative to the master layout.
type TimeLayer struct {
	Dimx, Dimy, Dimz int
	Dx, Dy, Dz       float64

	U, V, W, T []float64
}

// New allocates a zeroed layer of the grid's extents.
func New(dimx, dimy, dimz int, dx, dy, dz float64) *TimeLayer {
	n := dimx * dimy * dimz
	return &TimeLayer{
		Dimx: dimx, Dimy: dimy, Dimz: dimz,
		Dx: dx, Dy: dy, Dz: dz,
		U: make([]float64, n),
		V: make([]float64, n),
		W: make([]float64, n),
		T: make([]float64, n),
	}
}

// NewTransposed allocates the transposed twin of l.
func NewTransposed(l *TimeLayer) *TimeLayer {
	return New(l.Dimx, l.Dimz, l.Dimy, l.Dx, l.Dz, l.Dy)
}

func (l *TimeLayer) idx(i, j, k int) int {
	return i*l.Dimy*l.Dimz + j*l.Dimz + k
}

// Field returns the backing array of one variable.
func (l *TimeLayer) Field(v Var) []float64 {
	switch v {
	case VarU:
		return l.U
	case VarV:
		return l.V
	case VarW:
		return l.W
	}
	return l.T
}

func (l *TimeLayer) Elem(v Var, i, j, k int) float64 {
	return l.Field(v)[l.idx(i, j, k)]
}

func (l *TimeLayer) SetElem(v Var, i, j, k int, val float64) {
	l.Field(v)[l.idx(i, j, k)] = val
}

// Centered first differences. Callers stay one cell away from the array
// border; the bracketing non-IN cells hold the Dirichlet data.

func (l *TimeLayer) DiffX(v Var, i, j, k int) float64 {
	f := l.Field(v)
	return (f[l.idx(i+1, j, k)] - f[l.idx(i-1, j, k)]) / (2 * l.Dx)
}

func (l *TimeLayer) DiffY(v Var, i, j, k int) float64 {
	f := l.Field(v)
	return (f[l.idx(i, j+1, k)] - f[l.idx(i, j-1, k)]) / (2 * l.Dy)
}

func (l *TimeLayer) DiffZ(v Var, i, j, k int) float64 {
	f := l.Field(v)
	return (f[l.idx(i, j, k+1)] - f[l.idx(i, j, k-1)]) / (2 * l.Dz)
}

// Centered second differences.

func (l *TimeLayer) Diff2X(v Var, i, j, k int) float64 {
	f := l.Field(v)
	return (f[l.idx(i+1, j, k)] - 2*f[l.idx(i, j, k)] + f[l.idx(i-1, j, k)]) / (l.Dx * l.Dx)
}

func (l *TimeLayer) Diff2Y(v Var, i, j, k int) float64 {
	f := l.Field(v)
	return (f[l.idx(i, j+1, k)] - 2*f[l.idx(i, j, k)] + f[l.idx(i, j-1, k)]) / (l.Dy * l.Dy)
}

func (l *TimeLayer) Diff2Z(v Var, i, j, k int) float64 {
	f := l.Field(v)
	return (f[l.idx(i, j, k+1)] - 2*f[l.idx(i, j, k)] + f[l.idx(i, j, k-1)]) / (l.Dz * l.Dz)
}

// Diff is the centered first difference along a layout axis.
func (l *TimeLayer) Diff(a Axis, v Var, i, j, k int) float64 {
	switch a {
	case AxisX:
		return l.DiffX(v, i, j, k)
	case AxisY:
		return l.DiffY(v, i, j, k)
	}
	return l.DiffZ(v, i, j, k)
}

// DissFunc is the squared strain along one layout axis with the main
// velocity component weighted twice. On a transposed twin the main
// component stays W while the layout axis is Y.
func (l *TimeLayer) DissFunc(a Axis, main Var, i, j, k int) float64 {
	du := l.Diff(a, VarU, i, j, k)
	dv := l.Diff(a, VarV, i, j, k)
	dw := l.Diff(a, VarW, i, j, k)
	s := du*du + dv*dv + dw*dw
	switch main {
	case VarU:
		s += du * du
	case VarV:
		s += dv * dv
	case VarW:
		s += dw * dw
	}
	return s
}

func (l *TimeLayer) DissFuncX(i, j, k int) float64 {
	return l.DissFunc(AxisX, VarU, i, j, k)
}

func (l *TimeLayer) DissFuncY(i, j, k int) float64 {
	return l.DissFunc(AxisY, VarV, i, j, k)
}

func (l *TimeLayer) DissFuncZ(i, j, k int) float64 {
	return l.DissFunc(AxisZ, VarW, i, j, k)
}

// gridType maps a layer cell to its grid node, honouring the swapped
// layout of a transposed twin.
func (l *TimeLayer) gridType(g *grid.Grid, i, j, k int, transposed bool) grid.NodeType {
	if transposed {
		return g.Type(i, k, j)
	}
	return g.Type(i, j, k)
}

// CopyFromGrid pulls the prescribed node data of one cell type into the
// layer.
func (l *TimeLayer) CopyFromGrid(g *grid.Grid, mask grid.NodeType) {
	for i := 0; i < l.Dimx; i++ {
		for j := 0; j < l.Dimy; j++ {
			for k := 0; k < l.Dimz; k++ {
				if g.Type(i, j, k) != mask {
					continue
				}
				id := l.idx(i, j, k)
				v := g.Vel(i, j, k)
				l.U[id] = v.X
				l.V[id] = v.Y
				l.W[id] = v.Z
				l.T[id] = g.T(i, j, k)
			}
		}
	}
}

// CopyToGrid writes the layer velocities back onto the grid nodes.
func (l *TimeLayer) CopyToGrid(g *grid.Grid) {
	for i := 0; i < l.Dimx; i++ {
		for j := 0; j < l.Dimy; j++ {
			for k := 0; k < l.Dimz; k++ {
				id := l.idx(i, j, k)
				g.SetNodeVel(i, j, k, geom.Vec3D{X: l.U[id], Y: l.V[id], Z: l.W[id]})
			}
		}
	}
}

// CopyTo copies all four fields to dst unconditionally.
func (l *TimeLayer) CopyTo(dst *TimeLayer) {
	copy(dst.U, l.U)
	copy(dst.V, l.V)
	copy(dst.W, l.W)
	copy(dst.T, l.T)
}

// CopyLayerTo copies all four fields to dst on cells of one type.
func (l *TimeLayer) CopyLayerTo(g *grid.Grid, dst *TimeLayer, mask grid.NodeType) {
	for i := 0; i < l.Dimx; i++ {
		for j := 0; j < l.Dimy; j++ {
			for k := 0; k < l.Dimz; k++ {
				if g.Type(i, j, k) != mask {
					continue
				}
				id := l.idx(i, j, k)
				dst.U[id] = l.U[id]
				dst.V[id] = l.V[id]
				dst.W[id] = l.W[id]
				dst.T[id] = l.T[id]
			}
		}
	}
}

// MergeLayerTo half-averages this layer into dst on cells of one type:
// dst := (dst + l) / 2. transposed flags that both layers use the
// swapped layout.
func (l *TimeLayer) MergeLayerTo(g *grid.Grid, dst *TimeLayer, mask grid.NodeType, transposed bool) {
	for i := 0; i < l.Dimx; i++ {
		for j := 0; j < l.Dimy; j++ {
			for k := 0; k < l.Dimz; k++ {
				if l.gridType(g, i, j, k, transposed) != mask {
					continue
				}
				id := l.idx(i, j, k)
				dst.U[id] = (dst.U[id] + l.U[id]) / 2
				dst.V[id] = (dst.V[id] + l.V[id]) / 2
				dst.W[id] = (dst.W[id] + l.W[id]) / 2
				dst.T[id] = (dst.T[id] + l.T[id]) / 2
			}
		}
	}
}

// Clear resets the fields to constants on cells of one type.
func (l *TimeLayer) Clear(g *grid.Grid, mask grid.NodeType, u, v, w, t float64) {
	for i := 0; i < l.Dimx; i++ {
		for j := 0; j < l.Dimy; j++ {
			for k := 0; k < l.Dimz; k++ {
				if g.Type(i, j, k) != mask {
					continue
				}
				id := l.idx(i, j, k)
				l.U[id] = u
				l.V[id] = v
				l.W[id] = w
				l.T[id] = t
			}
		}
	}
}

// Transpose writes this layer into its twin with axes 1 and 2 swapped:
// dst.elem(i,k,j) = l.elem(i,j,k).
func (l *TimeLayer) Transpose(dst *TimeLayer) {
	for i := 0; i < l.Dimx; i++ {
		for j := 0; j < l.Dimy; j++ {
			for k := 0; k < l.Dimz; k++ {
				src := l.idx(i, j, k)
				d := dst.idx(i, k, j)
				dst.U[d] = l.U[src]
				dst.V[d] = l.V[src]
				dst.W[d] = l.W[src]
				dst.T[d] = l.T[src]
			}
		}
	}
}

// EvalDivError is the incompressibility residual: the L1 norm of the
// velocity divergence over IN cells. The per-slab partial sums are
// tree-reduced, which keeps the result deterministic for a fixed
// GOMAXPROCS.
func (l *TimeLayer) EvalDivError(g *grid.Grid) float64 {
	if l.Dimx < 3 || l.Dimy < 3 || l.Dimz < 3 {
		return 0
	}
	return parallel.RangeReduceFloat64(1, l.Dimx-1, 0,
		func(low, high int) float64 {
			s := 0.0
			for i := low; i < high; i++ {
				for j := 1; j < l.Dimy-1; j++ {
					for k := 1; k < l.Dimz-1; k++ {
						if g.Type(i, j, k) != grid.NodeIn {
							continue
						}
						div := l.DiffX(VarU, i, j, k) +
							l.DiffY(VarV, i, j, k) +
							l.DiffZ(VarW, i, j, k)
						if div < 0 {
							div = -div
						}
						s += div
					}
				}
			}
			return s
		},
		func(x, y float64) float64 { return x + y })
}

// FilterToArrays resamples the layer onto a regular output lattice by
// nearest-neighbour lookup. Buffers must hold outx*outy*outz values.
func (l *TimeLayer) FilterToArrays(u, v, w, t []float64, outx, outy, outz int) {
	for oi := 0; oi < outx; oi++ {
		for oj := 0; oj < outy; oj++ {
			for ok := 0; ok < outz; ok++ {
				i := oi * l.Dimx / outx
				j := oj * l.Dimy / outy
				k := ok * l.Dimz / outz
				src := l.idx(i, j, k)
				dst := oi*outy*outz + oj*outz + ok
				u[dst] = l.U[src]
				v[dst] = l.V[src]
				w[dst] = l.W[src]
				t[dst] = l.T[src]
			}
		}
	}
}
