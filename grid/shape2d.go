package grid

import (
	"bufio"
	"fmt"
	"io"
	"math"

	"ns3d/geom"
)

// grid2D is the helper grid of the extruded-contour variant: an animated
// 2D polyline is rasterized per frame and the resulting cell map is
// extruded along Z between two horizontal walls.

type condData2D struct {
	cell NodeType
	vel  geom.Vec2D
	t    float64
}

type shape2D struct {
	points     []geom.Vec2D
	velocities []geom.Vec2D
	active     bool
}

type frame2D struct {
	shapes   []shape2D
	duration float64
}

type grid2D struct {
	dimx, dimy int
	dx, dy     float64
	startT     float64

	cells  []condData2D
	frames []frame2D

	minX, minY, maxX, maxY float64
}

func newGrid2D(dx, dy, startT float64) *grid2D {
	return &grid2D{dx: dx, dy: dy, startT: startT}
}

func (g *grid2D) idx(i, j int) int {
	return i*g.dimy + j
}

func (g *grid2D) typ(i, j int) NodeType {
	return g.cells[g.idx(i, j)].cell
}

func (g *grid2D) setType(i, j int, t NodeType) {
	g.cells[g.idx(i, j)].cell = t
}

func (g *grid2D) data(i, j int) condData2D {
	return g.cells[g.idx(i, j)]
}

// load reads the animated-contour format: frame count, then per frame
// {duration, shapeCount, {pointCount, x y pairs, velocity tag}}.
// Coordinates come in millimetres and are scaled to metres.
func (g *grid2D) load(r io.Reader, align bool) error {
	br := bufio.NewReader(r)

	var numFrames int
	if _, err := fmt.Fscan(br, &numFrames); err != nil {
		return fmt.Errorf("grid: reading frame count: %w", err)
	}
	if numFrames <= 0 {
		return fmt.Errorf("grid: bad frame count %d", numFrames)
	}

	g.frames = make([]frame2D, numFrames)
	for f := 0; f < numFrames; f++ {
		fr := &g.frames[f]
		var shapeCount int
		if _, err := fmt.Fscan(br, &fr.duration, &shapeCount); err != nil {
			return fmt.Errorf("grid: frame %d header: %w", f, err)
		}
		fr.shapes = make([]shape2D, shapeCount)
		for s := 0; s < shapeCount; s++ {
			sh := &fr.shapes[s]
			var pointCount int
			if _, err := fmt.Fscan(br, &pointCount); err != nil {
				return fmt.Errorf("grid: frame %d shape %d: %w", f, s, err)
			}
			sh.points = make([]geom.Vec2D, pointCount)
			sh.velocities = make([]geom.Vec2D, pointCount)
			for p := 0; p < pointCount; p++ {
				var x, y float64
				if _, err := fmt.Fscan(br, &x, &y); err != nil {
					return fmt.Errorf("grid: frame %d shape %d point %d: %w", f, s, p, err)
				}
				sh.points[p] = geom.Vec2D{X: x / 1000, Y: y / 1000}
			}
			var tag string
			if _, err := fmt.Fscan(br, &tag); err != nil {
				return fmt.Errorf("grid: frame %d shape %d tag: %w", f, s, err)
			}
			var v geom.Vec2D
			if len(tag) > 0 && tag[0] == 'M' {
				sh.active = true
				if _, err := fmt.Fscan(br, &v.X, &v.Y); err != nil {
					return fmt.Errorf("grid: frame %d shape %d velocity: %w", f, s, err)
				}
				v.X /= 1000
				v.Y /= 1000
			}
			for p := range sh.velocities {
				sh.velocities[p] = v
			}
		}
	}

	for f := range g.frames {
		g.computeBorderVelocities(f)
	}
	g.initGrid(align)
	return nil
}

// computeBorderVelocities derives per-point boundary velocities of the
// next frame from the point displacement over this frame's duration.
func (g *grid2D) computeBorderVelocities(frame int) {
	next := (frame + 1) % len(g.frames)
	m := 1 / g.frames[frame].duration
	for i := range g.frames[frame].shapes {
		cur, nxt := &g.frames[frame].shapes[i], &g.frames[next].shapes[i]
		for k := range cur.points {
			dx := (nxt.points[k].X - cur.points[k].X) * m
			dy := (nxt.points[k].Y - cur.points[k].Y) * m
			if cur.active {
				nxt.velocities[k].X += -dx
				nxt.velocities[k].Y += -dy
			} else {
				nxt.velocities[k].X = dx
				nxt.velocities[k].Y = dy
			}
		}
	}
}

func (g *grid2D) initGrid(align bool) {
	g.minX, g.minY = math.Inf(1), math.Inf(1)
	g.maxX, g.maxY = math.Inf(-1), math.Inf(-1)
	for f := range g.frames {
		for s := range g.frames[f].shapes {
			for _, p := range g.frames[f].shapes[s].points {
				g.minX = math.Min(g.minX, p.X)
				g.minY = math.Min(g.minY, p.Y)
				g.maxX = math.Max(g.maxX, p.X)
				g.maxY = math.Max(g.maxY, p.Y)
			}
		}
	}

	g.dimx = int(math.Ceil((g.maxX-g.minX)/g.dx)) + 1
	g.dimy = int(math.Ceil((g.maxY-g.minY)/g.dy)) + 1
	if align {
		g.dimx = alignBy32(g.dimx)
		g.dimy = alignBy32(g.dimy)
	}
	g.cells = make([]condData2D, g.dimx*g.dimy)

	// physical to grid coordinates
	for f := range g.frames {
		for s := range g.frames[f].shapes {
			pts := g.frames[f].shapes[s].points
			for k := range pts {
				pts[k].X = (pts[k].X - g.minX) / g.dx
				pts[k].Y = (pts[k].Y - g.minY) / g.dy
			}
		}
	}
}

func (g *grid2D) framesNum() int {
	return len(g.frames)
}

func (g *grid2D) cycleLength() float64 {
	total := 0.0
	for i := range g.frames {
		total += g.frames[i].duration
	}
	return total
}

func frameAt2D(frames []frame2D, t float64) (int, float64) {
	acc := make([]float64, len(frames)+1)
	for i := range frames {
		acc[i+1] = acc[i] + frames[i].duration
	}
	cycle := acc[len(frames)]
	if cycle <= 0 {
		return 0, 0
	}
	r := math.Mod(t, cycle)
	f := 0
	for i := 1; i < len(frames); i++ {
		if acc[i] < r {
			f = i
		}
	}
	return f, (r - acc[f]) / (acc[f+1] - acc[f])
}

func (g *grid2D) layerTime(t float64) float64 {
	f, sub := frameAt2D(g.frames, t)
	return g.frames[f].duration * (1 - sub)
}

// prepare rebuilds the 2D cell map at time t.
func (g *grid2D) prepare(t float64) {
	f, sub := frameAt2D(g.frames, t)
	next := (f + 1) % len(g.frames)
	g.build(g.blend(f, next, sub))
}

func (g *grid2D) blend(f, next int, s float64) []shape2D {
	res := make([]shape2D, len(g.frames[f].shapes))
	for i := range res {
		a, b := &g.frames[f].shapes[i], &g.frames[next].shapes[i]
		out := shape2D{
			points:     make([]geom.Vec2D, len(a.points)),
			velocities: make([]geom.Vec2D, len(a.points)),
			active:     a.active,
		}
		for k := range a.points {
			out.points[k] = geom.Vec2D{
				X: a.points[k].X*(1-s) + b.points[k].X*s,
				Y: a.points[k].Y*(1-s) + b.points[k].Y*s,
			}
			out.velocities[k] = geom.Vec2D{
				X: a.velocities[k].X*(1-s) + b.velocities[k].X*s,
				Y: a.velocities[k].Y*(1-s) + b.velocities[k].Y*s,
			}
		}
		res[i] = out
	}
	return res
}

func (g *grid2D) build(shapes []shape2D) {
	for i := range g.cells {
		g.cells[i].cell = NodeIn
	}
	for s := range shapes {
		sh := &shapes[s]
		color := NodeBound
		if sh.active {
			color = NodeValve
		}
		for i := 0; i+1 < len(sh.points); i++ {
			g.rasterLine2D(sh.points[i], sh.points[i+1], sh.velocities[i], sh.velocities[i+1], color)
		}
	}
	g.floodFill2D(NodeOut)

	for i := 0; i < g.dimx; i++ {
		for j := 0; j < g.dimy; j++ {
			switch g.typ(i, j) {
			case NodeIn, NodeOut:
				c := &g.cells[g.idx(i, j)]
				c.vel = geom.Vec2D{}
				c.t = g.startT
			}
		}
	}
}

func (g *grid2D) rasterLine2D(p1, p2, v1, v2 geom.Vec2D, color NodeType) {
	ox, oy := p2.X-p1.X, p2.Y-p1.Y
	steps := int(math.Max(math.Abs(ox), math.Abs(oy))) + 1
	dpx, dpy := ox/float64(steps), oy/float64(steps)
	dvx, dvy := (v2.X-v1.X)/float64(steps), (v2.Y-v1.Y)/float64(steps)

	p, v := p1, v1
	for s := 0; s <= steps; s++ {
		x, y := int(p.X), int(p.Y)
		if x >= 0 && x < g.dimx && y >= 0 && y < g.dimy {
			g.cells[g.idx(x, y)] = condData2D{cell: color, vel: v, t: g.startT}
		}
		p.X += dpx
		p.Y += dpy
		v.X += dvx
		v.Y += dvy
	}
}

func (g *grid2D) floodFill2D(color NodeType) {
	type cell struct{ i, j int }
	queue := make([]cell, 0, g.dimx+g.dimy)
	queue = append(queue, cell{0, 0})
	g.setType(0, 0, color)

	neighbors := [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}
	for cur := 0; cur < len(queue); cur++ {
		c := queue[cur]
		for _, nb := range neighbors {
			ni, nj := c.i+nb[0], c.j+nb[1]
			if ni < 0 || ni >= g.dimx || nj < 0 || nj >= g.dimy {
				continue
			}
			if g.typ(ni, nj) == NodeIn {
				g.setType(ni, nj, color)
				queue = append(queue, cell{ni, nj})
			}
		}
	}
}

// prepareShape2D extrudes the 2D cell map between an OUT floor/ceiling
// and NOSLIP/FREE walls one cell in.
func (g *Grid) prepareShape2D(t float64) error {
	if g.grid2D == nil || len(g.grid2D.frames) == 0 {
		return fmt.Errorf("grid: no 2D frames loaded")
	}
	g.grid2D.prepare(t)

	for i := 0; i < g.Dimx; i++ {
		for j := 0; j < g.Dimy; j++ {
			if g.grid2D.typ(i, j) == NodeOut {
				for k := 0; k < g.Dimz; k++ {
					g.nodes[g.idx(i, j, k)] = Node{Type: NodeOut, T: g.BaseT}
				}
				continue
			}

			g.SetType(i, j, 0, NodeOut)
			for k := g.activeDimz - 1; k < g.Dimz; k++ {
				g.SetType(i, j, k, NodeOut)
			}
			g.nodes[g.idx(i, j, 1)].SetBound(BCNoSlip, BCFree, geom.Vec3D{}, g.BaseT)
			g.nodes[g.idx(i, j, g.activeDimz-2)].SetBound(BCNoSlip, BCFree, geom.Vec3D{}, g.BaseT)

			d := g.grid2D.data(i, j)
			vel := geom.Vec3D{X: d.vel.X, Y: d.vel.Y}
			for k := 2; k < g.activeDimz-2; k++ {
				n := &g.nodes[g.idx(i, j, k)]
				switch g.grid2D.typ(i, j) {
				case NodeBound:
					n.SetBound(BCNoSlip, BCFree, vel, d.t)
				case NodeValve:
					if d.vel.X == 0 && d.vel.Y == 0 {
						n.SetBound(BCFree, BCFree, vel, d.t)
					} else {
						n.SetBound(BCNoSlip, BCNoSlip, vel, d.t)
					}
					n.Type = NodeValve
				case NodeIn:
					n.Type = NodeIn
					n.T = g.BaseT
				}
			}
		}
	}
	return nil
}
