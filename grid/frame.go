package grid

import "ns3d/geom"

// Shape is one triangulated moving surface of an animation frame. Vertex
// positions are stored in grid coordinates after loading.
type Shape struct {
	Vertices   []geom.Vec3D
	Velocities []geom.Vec3D
	Tris       [][3]int
	Active     bool
}

// Frame is one animation frame: shapes plus the frame duration in seconds.
type Frame struct {
	Shapes   []Shape
	Duration float64
}

// blendShapes interpolates the shapes of two consecutive frames at
// substep s in [0,1). Triangle topology is taken from the first frame.
func blendShapes(a, b *Frame, s float64) []Shape {
	res := make([]Shape, len(a.Shapes))
	for i := range a.Shapes {
		sa, sb := &a.Shapes[i], &b.Shapes[i]
		out := Shape{
			Vertices:   make([]geom.Vec3D, len(sa.Vertices)),
			Velocities: make([]geom.Vec3D, len(sa.Velocities)),
			Tris:       sa.Tris,
			Active:     sa.Active,
		}
		for k := range sa.Vertices {
			out.Vertices[k] = sa.Vertices[k].Lerp(sb.Vertices[k], s)
			out.Velocities[k] = sa.Velocities[k].Lerp(sb.Velocities[k], s)
		}
		res[i] = out
	}
	return res
}

// frameAt locates the frame index and substep for an absolute time,
// wrapping around the total cycle length.
func frameAt(frames []Frame, t float64) (int, float64) {
	acc := make([]float64, len(frames)+1)
	for i := range frames {
		acc[i+1] = acc[i] + frames[i].Duration
	}
	cycle := acc[len(frames)]
	if cycle <= 0 {
		return 0, 0
	}
	r := t - float64(int(t/cycle))*cycle
	f := 0
	for i := 1; i < len(frames); i++ {
		if acc[i] < r {
			f = i
		}
	}
	sub := (r - acc[f]) / (acc[f+1] - acc[f])
	return f, sub
}
