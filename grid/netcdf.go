package grid

import (
	"fmt"

	"github.com/fhs/go-netcdf/netcdf"

	"ns3d/geom"
)

// Bathymetry grids are static; the driver treats them as a single frame
// of this duration.
const netcdfFrameTime = 1.0

// depthInfo holds the raw bathymetry samples, row-major by latitude.
type depthInfo struct {
	nx, ny int
	depth  []float64
}

func (d *depthInfo) at(i, j int) float64 {
	return d.depth[i*d.ny+j]
}

// loadNetCDF reads a bathymetry dataset: coordinate variables
// _lat_subset/_lon_subset plus the depth variable z (negative below sea
// level).
func (g *Grid) loadNetCDF(path string, align bool) error {
	ds, err := netcdf.OpenFile(path, netcdf.NOWRITE)
	if err != nil {
		return fmt.Errorf("grid: opening %s: %w", path, err)
	}
	defer ds.Close()

	latDim, err := ds.Dim("_lat_subset")
	if err != nil {
		return fmt.Errorf("grid: lat dimension: %w", err)
	}
	lonDim, err := ds.Dim("_lon_subset")
	if err != nil {
		return fmt.Errorf("grid: lon dimension: %w", err)
	}
	nxu, err := latDim.Len()
	if err != nil {
		return fmt.Errorf("grid: lat length: %w", err)
	}
	nyu, err := lonDim.Len()
	if err != nil {
		return fmt.Errorf("grid: lon length: %w", err)
	}
	nx, ny := int(nxu), int(nyu)
	if nx < 2 || ny < 2 {
		return fmt.Errorf("grid: degenerate bathymetry %dx%d", nx, ny)
	}

	lats := make([]float64, nx)
	lons := make([]float64, ny)
	latVar, err := ds.Var("_lat_subset")
	if err != nil {
		return fmt.Errorf("grid: lat variable: %w", err)
	}
	if err := latVar.ReadFloat64s(lats); err != nil {
		return fmt.Errorf("grid: reading lats: %w", err)
	}
	lonVar, err := ds.Var("_lon_subset")
	if err != nil {
		return fmt.Errorf("grid: lon variable: %w", err)
	}
	if err := lonVar.ReadFloat64s(lons); err != nil {
		return fmt.Errorf("grid: reading lons: %w", err)
	}

	zVar, err := ds.Var("z")
	if err != nil {
		return fmt.Errorf("grid: depth variable: %w", err)
	}
	g.depth = &depthInfo{nx: nx, ny: ny, depth: make([]float64, nx*ny)}
	if err := zVar.ReadFloat64s(g.depth.depth); err != nil {
		return fmt.Errorf("grid: reading depths: %w", err)
	}

	g.bbox = geom.NewBBox3D()
	g.bbox.AddPoint(geom.Vec3D{X: lats[0], Y: lons[0]})
	g.bbox.AddPoint(geom.Vec3D{X: lats[nx-1], Y: lons[ny-1]})
	for _, z := range g.depth.depth {
		if z < g.bbox.Min.Z {
			g.bbox.Min.Z = z
		}
	}
	g.bbox.Min.Z -= g.Dz

	g.init(align)
	return nil
}

// prepareNetCDF builds the static sea domain: columns with negative
// depth become IN up to the sampled sea floor, the shell around them
// becomes NOSLIP walls, and the far faces turn into in/outflow valves.
func (g *Grid) prepareNetCDF() error {
	if g.depth == nil {
		return fmt.Errorf("grid: no bathymetry loaded")
	}

	for i := range g.nodes {
		g.nodes[i] = Node{Type: NodeOut, T: g.BaseT}
	}

	// sea cells, depth below sea level
	for i := 0; i < g.Dimx; i++ {
		for j := 0; j < g.Dimy; j++ {
			di := i * g.depth.nx / g.Dimx
			dj := j * g.depth.ny / g.Dimy
			z := g.depth.at(di, dj)
			if z >= 0 {
				continue
			}
			boundK := int(float64(g.Dimz) * z / g.bbox.Min.Z)
			for k := 1; k < boundK; k++ {
				g.SetType(i, j, k, NodeIn)
			}
		}
	}

	// first shell: IN cells touching OUT become walls
	for i := 1; i < g.Dimx-1; i++ {
		for j := 1; j < g.Dimy-1; j++ {
			for k := 1; k < g.Dimz-1; k++ {
				if g.Type(i, j, k) != NodeIn {
					continue
				}
				if g.Type(i-1, j, k) == NodeOut || g.Type(i+1, j, k) == NodeOut ||
					g.Type(i, j-1, k) == NodeOut || g.Type(i, j+1, k) == NodeOut ||
					g.Type(i, j, k-1) == NodeOut || g.Type(i, j, k+1) == NodeOut {
					g.nodes[g.idx(i, j, k)].SetBound(BCNoSlip, BCNoSlip, geom.Vec3D{}, g.BaseT)
				}
			}
		}
	}

	// second shell: OUT cells touching walls thicken the boundary
	var shell []int
	for i := 1; i < g.Dimx-1; i++ {
		for j := 1; j < g.Dimy-1; j++ {
			for k := 1; k < g.Dimz-1; k++ {
				if g.Type(i, j, k) != NodeOut {
					continue
				}
				if g.Type(i-1, j, k) == NodeBound || g.Type(i+1, j, k) == NodeBound ||
					g.Type(i, j-1, k) == NodeBound || g.Type(i, j+1, k) == NodeBound ||
					g.Type(i, j, k-1) == NodeBound || g.Type(i, j, k+1) == NodeBound {
					shell = append(shell, g.idx(i, j, k))
				}
			}
		}
	}
	for _, ind := range shell {
		g.nodes[ind].SetBound(BCNoSlip, BCNoSlip, geom.Vec3D{}, g.BaseT)
	}

	// valves on the far faces: upper half of each water column flows in,
	// lower half flows out
	for i := 0; i < g.Dimx; i++ {
		g.valveColumn(func(k int) (int, int, int) { return i, g.Dimy - 1, k })
	}
	for j := 0; j < g.Dimy; j++ {
		g.valveColumn(func(k int) (int, int, int) { return g.Dimx - 1, j, k })
	}
	return nil
}

func (g *Grid) valveColumn(cell func(k int) (int, int, int)) {
	start, end := -1, -1
	for k := 0; k < g.Dimz; k++ {
		i, j, kk := cell(k)
		if g.Type(i, j, kk) == NodeIn {
			if start < 0 {
				start = k
			}
			end = k
		}
	}
	if start < 0 {
		return
	}
	for k := 0; k < g.Dimz; k++ {
		i, j, kk := cell(k)
		if g.Type(i, j, kk) != NodeIn {
			continue
		}
		v := g.initVel
		if k >= (start+end)/2 {
			v = v.Neg()
		}
		g.SetType(i, j, kk, NodeValve)
		g.SetData(i, j, kk, BCNoSlip, BCNoSlip, v, g.BaseT)
	}
}
