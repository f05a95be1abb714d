package solver

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ns3d/grid"
	"ns3d/layer"
)

// randomGrid builds a grid with random IN/BOUND interiors and a non-IN
// border, so every IN run closes inside the domain.
func randomGrid(t *testing.T, rng *rand.Rand, nx, ny, nz int) *grid.Grid {
	t.Helper()
	g := grid.NewEmpty(nx, ny, nz, 0.1, 0.1, 0.1, 300)
	for i := 1; i < nx-1; i++ {
		for j := 1; j < ny-1; j++ {
			for k := 1; k < nz-1; k++ {
				switch rng.Intn(3) {
				case 0:
					g.SetType(i, j, k, grid.NodeIn)
				case 1:
					g.SetType(i, j, k, grid.NodeBound)
				default:
					g.SetType(i, j, k, grid.NodeOut)
				}
			}
		}
	}
	return g
}

func step(axis layer.Axis) (int, int, int) {
	switch axis {
	case layer.AxisX:
		return 1, 0, 0
	case layer.AxisY:
		return 0, 1, 0
	}
	return 0, 0, 1
}

func TestBuildSegmentsInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	g := randomGrid(t, rng, 14, 11, 9)

	for _, axis := range []layer.Axis{layer.AxisX, layer.AxisY, layer.AxisZ} {
		segs := buildSegments(g, axis)
		di, dj, dk := step(axis)

		covered := map[[3]int]bool{}
		for _, s := range segs {
			require.GreaterOrEqual(t, s.Size, 3, "axis %s", axis)

			i, j, k := s.PosX, s.PosY, s.PosZ
			assert.NotEqual(t, grid.NodeIn, g.Type(i, j, k), "start endpoint must not be IN")
			assert.NotEqual(t, grid.NodeIn, g.Type(s.EndX, s.EndY, s.EndZ), "end endpoint must not be IN")

			for p := 1; p < s.Size-1; p++ {
				ci, cj, ck := i+p*di, j+p*dj, k+p*dk
				assert.Equal(t, grid.NodeIn, g.Type(ci, cj, ck), "interior cell must be IN")
				key := [3]int{ci, cj, ck}
				assert.False(t, covered[key], "same-axis segments must be disjoint")
				covered[key] = true
			}
		}

		// with a non-IN border, the interiors cover every IN cell
		for i := 0; i < g.Dimx; i++ {
			for j := 0; j < g.Dimy; j++ {
				for k := 0; k < g.Dimz; k++ {
					if g.Type(i, j, k) == grid.NodeIn {
						assert.True(t, covered[[3]int{i, j, k}],
							"IN cell (%d,%d,%d) uncovered along %s", i, j, k, axis)
					}
				}
			}
		}
	}
}

func TestSegmentSharedCapOwnership(t *testing.T) {
	// two X runs separated by a single boundary cell share that cell:
	// end cap of the first run, start cap of the second
	g := grid.NewEmpty(10, 3, 3, 1, 1, 1, 300)
	for _, i := range []int{1, 2, 3, 5, 6, 7} {
		g.SetType(i, 1, 1, grid.NodeIn)
	}
	for _, i := range []int{0, 4, 8} {
		g.SetType(i, 1, 1, grid.NodeBound)
	}

	segs := buildSegments(g, layer.AxisX)
	require.Len(t, segs, 2)
	assert.True(t, segs[0].SharedEnd, "first run hands the shared cap to the second")
	assert.False(t, segs[1].SharedEnd)

	// the write-back honors the ownership regardless of solve order
	l := layer.New(10, 3, 3, 1, 1, 1)
	updateSegment(l, segs[1], layer.AxisX, layer.VarT, []float64{9, 8, 7, 6, 5})
	updateSegment(l, segs[0], layer.AxisX, layer.VarT, []float64{1, 2, 3, 4, 5})
	assert.Equal(t, 9.0, l.Elem(layer.VarT, 4, 1, 1), "start-cap owner keeps its value")
	assert.Equal(t, 4.0, l.Elem(layer.VarT, 3, 1, 1))
	assert.Equal(t, 5.0, l.Elem(layer.VarT, 8, 1, 1), "unshared end cap is still written")
}

func TestSplitSegmentsLocality(t *testing.T) {
	segs := []Segment{
		{PosX: 1, EndX: 5, Size: 5, Axis: layer.AxisX},   // fully inside
		{PosX: 1, EndX: 12, Size: 12, Axis: layer.AxisX}, // starts inside
		{PosX: 0, EndX: 20, Size: 21, Axis: layer.AxisX}, // spans the slab
		{PosX: 15, EndX: 19, Size: 5, Axis: layer.AxisX}, // outside
	}
	part := Partition{Offset: 0, Length: 10}
	out := splitSegments(segs, layer.AxisX, part)
	require.Len(t, out, 4)

	assert.Equal(t, FullyLocal, out[0].Loc)
	assert.False(t, out[0].Skip)

	assert.Equal(t, StartsLocal, out[1].Loc)
	assert.Equal(t, 9, out[1].EndX, "clamped to the slab edge")

	assert.Equal(t, StartsLocal, out[2].Loc, "segment starting at the slab origin leaves it")

	assert.True(t, out[3].Skip, "X segment outside the slab is kept but skipped")
}

func TestSplitSegmentsCrosses(t *testing.T) {
	segs := []Segment{{PosX: 0, EndX: 20, Size: 21, Axis: layer.AxisX}}
	out := splitSegments(segs, layer.AxisX, Partition{Offset: 5, Length: 10})
	require.Len(t, out, 1)
	assert.Equal(t, Crosses, out[0].Loc)
	assert.Equal(t, 0, out[0].PosX)
	assert.Equal(t, 9, out[0].EndX)
}

func TestTransposeSegmentsSwapsYZ(t *testing.T) {
	segs := []Segment{{PosX: 2, PosY: 3, PosZ: 4, EndX: 2, EndY: 3, EndZ: 9, Size: 6, Axis: layer.AxisZ}}
	out := transposeSegments(segs)
	assert.Equal(t, 4, out[0].PosY)
	assert.Equal(t, 3, out[0].PosZ)
	assert.Equal(t, 9, out[0].EndY)
	assert.Equal(t, 3, out[0].EndZ)
}
