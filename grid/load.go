package grid

import (
	"bufio"
	"fmt"
	"math"
	"os"

	"ns3d/geom"
)

// gridScale converts model coordinates (millimetres) to metres.
const gridScale = 0.001

// shapeFPS is the implicit frame rate of triangle-mesh animations.
const shapeFPS = 75.0

// Load reads the geometry source from path and sizes the grid. align
// pads the dimensions to multiples of 32.
func (g *Grid) Load(path string, align bool) error {
	switch g.source {
	case sourceShape3D:
		return g.loadShape3D(path, align)
	case sourceShape2D:
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("grid: %w", err)
		}
		defer f.Close()
		if err := g.grid2D.load(f, align); err != nil {
			return err
		}
		g.Dimx = g.grid2D.dimx
		g.Dimy = g.grid2D.dimy
		g.activeDimz = int(math.Ceil(g.depthZ/g.Dz)) + 1
		g.Dimz = g.activeDimz
		if align {
			g.Dimz = alignBy32(g.activeDimz)
		}
		g.alloc()
		return nil
	case sourceNetCDF:
		return g.loadNetCDF(path, align)
	}
	return fmt.Errorf("grid: geometry source %d is not loadable", g.source)
}

// loadShape3D reads an animated triangle mesh: frame count, then per
// frame the vertex count, interleaved position/velocity pairs, the
// triangle count and the index triples. Positions come in millimetres.
func (g *Grid) loadShape3D(path string, align bool) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("grid: %w", err)
	}
	defer f.Close()
	br := bufio.NewReader(f)

	var numFrames int
	if _, err := fmt.Fscan(br, &numFrames); err != nil {
		return fmt.Errorf("grid: reading frame count: %w", err)
	}
	if numFrames <= 0 {
		return fmt.Errorf("grid: bad frame count %d", numFrames)
	}

	g.frames = make([]Frame, numFrames)
	for j := 0; j < numFrames; j++ {
		fr := &g.frames[j]
		fr.Duration = 1.0 / shapeFPS
		fr.Shapes = make([]Shape, 1)
		sh := &fr.Shapes[0]

		var numVerts int
		if _, err := fmt.Fscan(br, &numVerts); err != nil {
			return fmt.Errorf("grid: frame %d vertex count: %w", j, err)
		}
		sh.Vertices = make([]geom.Vec3D, numVerts)
		sh.Velocities = make([]geom.Vec3D, numVerts)
		for k := 0; k < numVerts; k++ {
			var p, v geom.Vec3D
			if _, err := fmt.Fscan(br, &p.X, &p.Y, &p.Z); err != nil {
				return fmt.Errorf("grid: frame %d vertex %d: %w", j, k, err)
			}
			if _, err := fmt.Fscan(br, &v.X, &v.Y, &v.Z); err != nil {
				return fmt.Errorf("grid: frame %d velocity %d: %w", j, k, err)
			}
			sh.Vertices[k] = p.Scale(gridScale)
			sh.Velocities[k] = v
		}

		var numTris int
		if _, err := fmt.Fscan(br, &numTris); err != nil {
			return fmt.Errorf("grid: frame %d triangle count: %w", j, err)
		}
		sh.Tris = make([][3]int, numTris)
		for k := 0; k < numTris; k++ {
			if _, err := fmt.Fscan(br, &sh.Tris[k][0], &sh.Tris[k][1], &sh.Tris[k][2]); err != nil {
				return fmt.Errorf("grid: frame %d triangle %d: %w", j, k, err)
			}
		}
	}

	g.bbox = geom.NewBBox3D()
	for j := range g.frames {
		for s := range g.frames[j].Shapes {
			for _, p := range g.frames[j].Shapes[s].Vertices {
				g.bbox.AddPoint(p)
			}
		}
	}

	g.init(align)

	// physical to grid coordinates
	for j := range g.frames {
		for s := range g.frames[j].Shapes {
			verts := g.frames[j].Shapes[s].Vertices
			for k := range verts {
				verts[k] = geom.Vec3D{
					X: (verts[k].X - g.bbox.Min.X) / g.Dx,
					Y: (verts[k].Y - g.bbox.Min.Y) / g.Dy,
					Z: (verts[k].Z - g.bbox.Min.Z) / g.Dz,
				}
			}
		}
	}
	return nil
}
