// Package grid maintains the tagged node map of the computational domain:
// a dense 3D array of IN/OUT/BOUND/VALVE cells rebuilt from a moving
// triangulated surface (or a bathymetry map, or an extruded 2D contour)
// at every prepare call.
package grid

import (
	"fmt"
	"io"
	"math"

	"ns3d/geom"
)

// geometry source kinds
type sourceKind int

const (
	sourceShape3D sourceKind = iota
	sourceShape2D
	sourceNetCDF
	sourceManual
)

type Grid struct {
	Dimx, Dimy, Dimz int
	Dx, Dy, Dz       float64

	BaseT float64

	nodes []Node
	bbox  geom.BBox3D

	source sourceKind

	// 3D shape animation
	frames []Frame

	// netcdf bathymetry
	depth   *depthInfo
	initVel geom.Vec3D

	// extruded 2D contour
	grid2D     *grid2D
	depthZ     float64
	activeDimz int
}

// NewGrid3D builds a grid fed by an animated triangle mesh.
func NewGrid3D(dx, dy, dz, baseT float64) *Grid {
	return &Grid{Dx: dx, Dy: dy, Dz: dz, BaseT: baseT, source: sourceShape3D}
}

// NewGrid2D builds a grid fed by an animated 2D contour extruded to depth.
func NewGrid2D(dx, dy, dz, depth, baseT float64) *Grid {
	return &Grid{
		Dx: dx, Dy: dy, Dz: dz, BaseT: baseT,
		source: sourceShape2D,
		depthZ: depth,
		grid2D: newGrid2D(dx, dy, baseT),
	}
}

// NewGridNetCDF builds a grid fed by a bathymetry depth map. initVel is
// the prescribed valve in/outflow velocity.
func NewGridNetCDF(dx, dy, dz, baseT float64, initVel geom.Vec3D) *Grid {
	return &Grid{Dx: dx, Dy: dy, Dz: dz, BaseT: baseT, source: sourceNetCDF, initVel: initVel}
}

// NewEmpty allocates a grid of fixed extents with every cell OUT. Used by
// the synthetic test domains and internally by the loaders.
func NewEmpty(dimx, dimy, dimz int, dx, dy, dz, baseT float64) *Grid {
	g := &Grid{
		Dimx: dimx, Dimy: dimy, Dimz: dimz,
		Dx: dx, Dy: dy, Dz: dz,
		BaseT:  baseT,
		source: sourceManual,
	}
	g.alloc()
	return g
}

func (g *Grid) alloc() {
	g.nodes = make([]Node, g.Dimx*g.Dimy*g.Dimz)
	for i := range g.nodes {
		g.nodes[i].Type = NodeOut
		g.nodes[i].T = g.BaseT
	}
}

// init sizes the grid from the bounding box. align pads every dimension
// up to a multiple of 32 (the layout the decomposed backends expect).
func (g *Grid) init(align bool) {
	sz := g.bbox.Size()
	g.Dimx = int(math.Ceil(sz.X/g.Dx)) + 1
	g.Dimy = int(math.Ceil(sz.Y/g.Dy)) + 1
	g.Dimz = int(math.Ceil(sz.Z/g.Dz)) + 1
	if align {
		g.Dimx = alignBy32(g.Dimx)
		g.Dimy = alignBy32(g.Dimy)
		g.Dimz = alignBy32(g.Dimz)
	}
	g.alloc()
}

func alignBy32(n int) int {
	return (n + 31) &^ 31
}

func (g *Grid) idx(i, j, k int) int {
	return i*g.Dimy*g.Dimz + j*g.Dimz + k
}

func (g *Grid) Type(i, j, k int) NodeType {
	return g.nodes[g.idx(i, j, k)].Type
}

func (g *Grid) BCVel(i, j, k int) BCType {
	return g.nodes[g.idx(i, j, k)].BCVel
}

func (g *Grid) BCTemp(i, j, k int) BCType {
	return g.nodes[g.idx(i, j, k)].BCTemp
}

func (g *Grid) Vel(i, j, k int) geom.Vec3D {
	return g.nodes[g.idx(i, j, k)].Vel
}

func (g *Grid) T(i, j, k int) float64 {
	return g.nodes[g.idx(i, j, k)].T
}

func (g *Grid) SetType(i, j, k int, t NodeType) {
	g.nodes[g.idx(i, j, k)].Type = t
}

func (g *Grid) SetData(i, j, k int, bcVel, bcTemp BCType, vel geom.Vec3D, t float64) {
	n := &g.nodes[g.idx(i, j, k)]
	n.BCVel = bcVel
	n.BCTemp = bcTemp
	n.Vel = vel
	n.T = t
}

func (g *Grid) SetNodeVel(i, j, k int, v geom.Vec3D) {
	g.nodes[g.idx(i, j, k)].Vel = v
}

func (g *Grid) BBox() geom.BBox3D {
	return g.bbox
}

func (g *Grid) FramesNum() int {
	switch g.source {
	case sourceShape2D:
		return g.grid2D.framesNum()
	case sourceNetCDF, sourceManual:
		return 1
	}
	return len(g.frames)
}

// CycleLength is the duration of one full animation cycle in seconds.
func (g *Grid) CycleLength() float64 {
	switch g.source {
	case sourceShape2D:
		return g.grid2D.cycleLength()
	case sourceNetCDF, sourceManual:
		return netcdfFrameTime
	}
	total := 0.0
	for i := range g.frames {
		total += g.frames[i].Duration
	}
	return total
}

// LayerTime is the remaining duration of the frame active at time t.
func (g *Grid) LayerTime(t float64) float64 {
	switch g.source {
	case sourceShape2D:
		return g.grid2D.layerTime(t)
	case sourceShape3D:
		f, sub := frameAt(g.frames, t)
		return g.frames[f].Duration * (1 - sub)
	}
	return netcdfFrameTime
}

// Prepare rebuilds the node map for time t. Every cell ends up with
// exactly one of the four types.
func (g *Grid) Prepare(t float64) error {
	switch g.source {
	case sourceShape3D:
		return g.prepareShape3D(t)
	case sourceShape2D:
		return g.prepareShape2D(t)
	case sourceNetCDF:
		return g.prepareNetCDF()
	case sourceManual:
		return nil
	}
	return fmt.Errorf("grid: unknown geometry source %d", g.source)
}

func (g *Grid) prepareShape3D(t float64) error {
	if len(g.frames) == 0 {
		return fmt.Errorf("grid: no frames loaded")
	}
	f, sub := frameAt(g.frames, t)
	next := (f + 1) % len(g.frames)
	shapes := blendShapes(&g.frames[f], &g.frames[next], sub)
	g.build(shapes)
	return nil
}

// build carves the node map out of an interpolated shape set: mark all
// cells IN, rasterize the surface into BOUND, flood-fill OUT from the
// grid corner, then seed default data on the non-boundary cells.
func (g *Grid) build(shapes []Shape) {
	for i := range g.nodes {
		g.nodes[i].Type = NodeIn
	}

	for s := range shapes {
		sh := &shapes[s]
		if sh.Active {
			continue
		}
		for _, tri := range sh.Tris {
			p1, p2, p3 := sh.Vertices[tri[0]], sh.Vertices[tri[1]], sh.Vertices[tri[2]]
			v1, v2, v3 := sh.Velocities[tri[0]], sh.Velocities[tri[1]], sh.Velocities[tri[2]]
			g.rasterTriangle(p1, p2, p3, v1, v2, v3)

			// the plane scan misses slivers; edges close the holes
			g.rasterLine(p1, p2, v1, v2)
			g.rasterLine(p1, p3, v1, v3)
			g.rasterLine(p3, p2, v3, v2)
		}
	}

	g.floodFill(0, 0, 0, NodeOut)

	for i := 0; i < g.Dimx; i++ {
		for j := 0; j < g.Dimy; j++ {
			for k := 0; k < g.Dimz; k++ {
				switch g.Type(i, j, k) {
				case NodeIn, NodeOut:
					g.SetData(i, j, k, BCNoSlip, BCNoSlip, geom.Vec3D{}, g.BaseT)
				}
			}
		}
	}
}

// setBoundCell records the Dirichlet data the surface carries at a cell.
func (g *Grid) setBoundCell(i, j, k int, vel geom.Vec3D) {
	if i < 0 || i >= g.Dimx || j < 0 || j >= g.Dimy || k < 0 || k >= g.Dimz {
		return
	}
	g.nodes[g.idx(i, j, k)].SetBound(BCNoSlip, BCFree, vel, g.BaseT)
}

const compEps = 1e-9

// rasterTriangle scan-converts one triangle. The triangle is projected
// along its dominant normal axis, the 2D projection is scanline-filled
// with a mid split, and every covered planar cell is projected back onto
// the plane to find the third coordinate.
func (g *Grid) rasterTriangle(p1, p2, p3, v1, v2, v3 geom.Vec3D) {
	n := p2.Sub(p1).Cross(p3.Sub(p1))
	if n.Length() < compEps {
		// zero-area triangle, skip silently
		return
	}
	n = n.Normalize()
	d := -p1.Dot(n)

	// dominant axis of the normal
	dir := 0
	maxv := math.Abs(n.X)
	if math.Abs(n.Y) > maxv {
		dir, maxv = 1, math.Abs(n.Y)
	}
	if math.Abs(n.Z) > maxv {
		dir = 2
	}

	var pp1, pp2, pp3 geom.Vec2D
	switch dir {
	case 0:
		pp1 = geom.Vec2D{X: p1.Y, Y: p1.Z}
		pp2 = geom.Vec2D{X: p2.Y, Y: p2.Z}
		pp3 = geom.Vec2D{X: p3.Y, Y: p3.Z}
	case 1:
		pp1 = geom.Vec2D{X: p1.X, Y: p1.Z}
		pp2 = geom.Vec2D{X: p2.X, Y: p2.Z}
		pp3 = geom.Vec2D{X: p3.X, Y: p3.Z}
	case 2:
		pp1 = geom.Vec2D{X: p1.X, Y: p1.Y}
		pp2 = geom.Vec2D{X: p2.X, Y: p2.Y}
		pp3 = geom.Vec2D{X: p3.X, Y: p3.Y}
	}
	tv1, tv2, tv3 := v1, v2, v3

	// sort by scanline coordinate
	if pp3.Y < pp2.Y {
		pp2, pp3 = pp3, pp2
		tv2, tv3 = tv3, tv2
	}
	if pp1.Y > pp2.Y {
		pp1, pp2 = pp2, pp1
		tv1, tv2 = tv2, tv1
	}
	if pp3.Y < pp2.Y {
		pp2, pp3 = pp3, pp2
		tv2, tv3 = tv3, tv2
	}

	// split at the long-edge intersection with the mid scanline
	mid := intersectHorizon(pp1, pp3, pp2)

	dir1 := geom.Vec2D{X: mid.X - pp1.X, Y: mid.Y - pp1.Y}
	dir2 := geom.Vec2D{X: pp3.X - mid.X, Y: pp3.Y - mid.Y}
	steps1 := int(math.Max(math.Abs(dir1.X), math.Abs(dir1.Y))) + 1
	steps2 := int(math.Max(math.Abs(dir2.X), math.Abs(dir2.Y))) + 1
	dp1 := geom.Vec2D{X: dir1.X / float64(steps1), Y: dir1.Y / float64(steps1)}
	dp2 := geom.Vec2D{X: dir2.X / float64(steps2), Y: dir2.Y / float64(steps2)}

	fill := func(p geom.Vec2D, e1, e2 geom.Vec2D) {
		i0 := int(p.X)
		last := int(intersectHorizon(e1, e2, p).X)
		di := 1
		if last < i0 {
			di = -1
		}
		for i := i0; i != last+di; i += di {
			tp := geom.Vec2D{X: float64(i), Y: p.Y}
			vel := baryVelocity(pp1, pp2, pp3, tv1, tv2, tv3, tp)
			g.projectPoint(dir, i, int(p.Y), tp, n, d, vel)
		}
	}

	p := pp1
	for ; p.Y < mid.Y; p.X, p.Y = p.X+dp1.X, p.Y+dp1.Y {
		fill(p, pp1, pp2)
	}
	for ; p.Y < pp3.Y; p.X, p.Y = p.X+dp2.X, p.Y+dp2.Y {
		fill(p, pp2, pp3)
	}
}

// intersectHorizon intersects segment p1-p2 with the horizontal line
// through p.
func intersectHorizon(p1, p2, p geom.Vec2D) geom.Vec2D {
	res := geom.Vec2D{Y: p.Y}
	if math.Abs(p1.Y-p2.Y) < compEps {
		res.X = p.X
	} else {
		res.X = p1.X + (p2.X-p1.X)*(res.Y-p1.Y)/(p2.Y-p1.Y)
	}
	return res
}

// baryVelocity interpolates the vertex velocities at planar point p using
// barycentric weights of the projected triangle.
func baryVelocity(a, b, c geom.Vec2D, va, vb, vc geom.Vec3D, p geom.Vec2D) geom.Vec3D {
	det := (b.Y-c.Y)*(a.X-c.X) + (c.X-b.X)*(a.Y-c.Y)
	if math.Abs(det) < compEps {
		return va
	}
	w1 := ((b.Y-c.Y)*(p.X-c.X) + (c.X-b.X)*(p.Y-c.Y)) / det
	w2 := ((c.Y-a.Y)*(p.X-c.X) + (a.X-c.X)*(p.Y-c.Y)) / det
	if w1 < 0 {
		w1 = 0
	}
	if w2 < 0 {
		w2 = 0
	}
	if s := w1 + w2; s > 1 {
		w1 /= s
		w2 /= s
	}
	w3 := 1 - w1 - w2
	return va.Scale(w1).Add(vb.Scale(w2)).Add(vc.Scale(w3))
}

// projectPoint back-projects a planar cell onto the triangle plane; the
// solution along the dominant axis is unique.
func (g *Grid) projectPoint(dir, i, j int, p geom.Vec2D, n geom.Vec3D, d float64, vel geom.Vec3D) {
	switch dir {
	case 0:
		k := int(math.Round((-d - p.Dot(geom.Vec2D{X: n.Y, Y: n.Z})) / n.X))
		if k >= 0 && k < g.Dimx && j >= 0 && j < g.Dimz && i >= 0 && i < g.Dimy {
			g.setBoundCell(k, i, j, vel)
		}
	case 1:
		k := int(math.Round((-d - p.Dot(geom.Vec2D{X: n.X, Y: n.Z})) / n.Y))
		if k >= 0 && k < g.Dimy && i >= 0 && i < g.Dimx && j >= 0 && j < g.Dimz {
			g.setBoundCell(i, k, j, vel)
		}
	case 2:
		k := int(math.Round((-d - p.Dot(geom.Vec2D{X: n.X, Y: n.Y})) / n.Z))
		if k >= 0 && k < g.Dimz && i >= 0 && i < g.Dimx && j >= 0 && j < g.Dimy {
			g.setBoundCell(i, j, k, vel)
		}
	}
}

// rasterLine walks a 3D segment cell by cell, stamping BOUND cells with
// linearly interpolated velocity.
func (g *Grid) rasterLine(p1, p2, v1, v2 geom.Vec3D) {
	dir := p2.Sub(p1)
	steps := int(math.Max(math.Abs(dir.X), math.Max(math.Abs(dir.Y), math.Abs(dir.Z)))) + 1
	dp := dir.Scale(1 / float64(steps))
	dv := v2.Sub(v1).Scale(1 / float64(steps))

	p, v := p1, v1
	for s := 0; s <= steps; s++ {
		i, j, k := int(p.X), int(p.Y), int(p.Z)
		if i >= 0 && i < g.Dimx && j >= 0 && j < g.Dimy && k >= 0 && k < g.Dimz {
			g.setBoundCell(i, j, k, v)
		}
		p = p.Add(dp)
		v = v.Add(dv)
	}
}

// floodFill recolors the 6-connected region of IN cells containing the
// start cell.
func (g *Grid) floodFill(si, sj, sk int, color NodeType) {
	type cell struct{ i, j, k int }
	queue := make([]cell, 0, g.Dimx*g.Dimy)
	queue = append(queue, cell{si, sj, sk})
	g.SetType(si, sj, sk, color)

	neighbors := [6][3]int{
		{-1, 0, 0}, {1, 0, 0},
		{0, -1, 0}, {0, 1, 0},
		{0, 0, -1}, {0, 0, 1},
	}

	for cur := 0; cur < len(queue); cur++ {
		c := queue[cur]
		for _, nb := range neighbors {
			ni, nj, nk := c.i+nb[0], c.j+nb[1], c.k+nb[2]
			if ni < 0 || ni >= g.Dimx || nj < 0 || nj >= g.Dimy || nk < 0 || nk >= g.Dimz {
				continue
			}
			if g.Type(ni, nj, nk) == NodeIn {
				g.SetType(ni, nj, nk, color)
				queue = append(queue, cell{ni, nj, nk})
			}
		}
	}
}

// Dump writes an ASCII view of the node map, one z-slice per block.
func (g *Grid) Dump(w io.Writer) {
	fmt.Fprintf(w, "grid (z-slices):\n%d %d %d\n", g.Dimx, g.Dimy, g.Dimz)
	for k := 0; k < g.Dimz; k++ {
		fmt.Fprintf(w, "%d\n", k)
		for i := 0; i < g.Dimx; i++ {
			for j := 0; j < g.Dimy; j++ {
				switch g.Type(i, j, k) {
				case NodeIn:
					fmt.Fprint(w, " ")
				case NodeOut:
					fmt.Fprint(w, ".")
				case NodeBound:
					fmt.Fprint(w, "#")
				case NodeValve:
					fmt.Fprint(w, "+")
				}
			}
			fmt.Fprintln(w)
		}
	}
}
