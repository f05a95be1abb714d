package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ns3d/geom"
)

// seaGrid fabricates a loaded bathymetry: an 8x8 map with a 4 m deep sea
// basin spanning i,j >= 2 and land elsewhere, sampled onto an 8x8x6 grid.
func seaGrid() *Grid {
	g := NewGridNetCDF(1, 1, 1, 300, geom.Vec3D{X: 0.1})
	g.Dimx, g.Dimy, g.Dimz = 8, 8, 6

	depth := make([]float64, 8*8)
	for i := 0; i < 8; i++ {
		for j := 0; j < 8; j++ {
			if i >= 2 && j >= 2 {
				depth[i*8+j] = -4
			} else {
				depth[i*8+j] = 1
			}
		}
	}
	g.depth = &depthInfo{nx: 8, ny: 8, depth: depth}

	b := geom.NewBBox3D()
	b.AddPoint(geom.Vec3D{X: 0, Y: 0, Z: -4})
	b.AddPoint(geom.Vec3D{X: 8, Y: 8, Z: 0})
	g.bbox = b

	g.alloc()
	return g
}

func TestPrepareNetCDFTypes(t *testing.T) {
	g := seaGrid()
	require.NoError(t, g.Prepare(0))

	// land columns stay OUT
	for k := 0; k < g.Dimz; k++ {
		assert.Equal(t, NodeOut, g.Type(0, 0, k))
	}

	// basin interior is fluid
	assert.Equal(t, NodeIn, g.Type(4, 4, 3))

	// sea surface cap is OUT, the cell under it is a wall
	assert.Equal(t, NodeOut, g.Type(4, 4, 0))
	assert.Equal(t, NodeBound, g.Type(4, 4, 1))
	assert.Equal(t, BCNoSlip, g.BCVel(4, 4, 1))
	assert.Equal(t, BCNoSlip, g.BCTemp(4, 4, 1))

	// basin side wall plus the thickened shell outside it
	assert.Equal(t, NodeBound, g.Type(2, 4, 2))
	assert.Equal(t, NodeBound, g.Type(1, 4, 2))
}

func TestPrepareNetCDFValves(t *testing.T) {
	g := seaGrid()
	require.NoError(t, g.Prepare(0))

	// far-Y face: water column k = 1..5, pivot at (1+5)/2 = 3
	assert.Equal(t, NodeValve, g.Type(4, 7, 1))
	assert.InDelta(t, 0.1, g.Vel(4, 7, 1).X, 1e-12, "upper half flows in")
	assert.Equal(t, NodeValve, g.Type(4, 7, 2))
	assert.InDelta(t, 0.1, g.Vel(4, 7, 2).X, 1e-12)
	assert.Equal(t, NodeValve, g.Type(4, 7, 3))
	assert.InDelta(t, -0.1, g.Vel(4, 7, 3).X, 1e-12, "pivot belongs to the outflow half")
	assert.Equal(t, NodeValve, g.Type(4, 7, 5))
	assert.InDelta(t, -0.1, g.Vel(4, 7, 5).X, 1e-12)

	// far-X face gets the same treatment
	assert.Equal(t, NodeValve, g.Type(7, 4, 2))
	assert.InDelta(t, 0.1, g.Vel(7, 4, 2).X, 1e-12)
	assert.Equal(t, BCNoSlip, g.BCVel(7, 4, 2))
}

func TestPrepareNetCDFWithoutDepth(t *testing.T) {
	g := NewGridNetCDF(1, 1, 1, 300, geom.Vec3D{})
	g.Dimx, g.Dimy, g.Dimz = 4, 4, 4
	g.alloc()
	assert.Error(t, g.Prepare(0))
}

func TestDepthInfoAt(t *testing.T) {
	d := &depthInfo{nx: 2, ny: 3, depth: []float64{0, 1, 2, 3, 4, 5}}
	assert.Equal(t, 0.0, d.at(0, 0))
	assert.Equal(t, 5.0, d.at(1, 2))
	assert.Equal(t, 3.0, d.at(1, 0))
}
