package solver

import (
	"ns3d/grid"
	"ns3d/layer"
)

// Locality classifies a segment against the X-slab partition.
type Locality int

const (
	// FullyLocal segments lie entirely inside the slab.
	FullyLocal Locality = iota
	// StartsLocal segments begin inside the slab and leave it.
	StartsLocal
	// EndsLocal segments end inside the slab.
	EndsLocal
	// Crosses segments span the whole slab with both ends outside.
	Crosses
)

// Segment is one maximal run of IN cells along an axis, widened by the
// bracketing non-IN endpoint on each side. Interior cells are IN, the
// two endpoints are not, and Size >= 3 always holds.
type Segment struct {
	PosX, PosY, PosZ int
	EndX, EndY, EndZ int
	Size             int
	Axis             layer.Axis
	Loc              Locality

	// Skip marks an X segment outside the local slab; it is retained so
	// segment ids line up across slabs.
	Skip bool

	// SharedEnd marks an end cap that is also the start cap of the next
	// run on the same line. The run starting there owns the write-back,
	// so concurrent segment solves never touch the same cell.
	SharedEnd bool
}

// Partition is an X-slab of the domain: cells with Offset <= i <
// Offset+Length are local.
type Partition struct {
	Offset, Length int
}

// buildSegments walks every line of the grid along one axis and records
// the IN runs. Runs touching the grid border without a closing non-IN
// cell are dropped.
func buildSegments(g *grid.Grid, axis layer.Axis) []Segment {
	var dim2, dim3 int
	var inc [3]int
	switch axis {
	case layer.AxisX:
		dim2, dim3 = g.Dimy, g.Dimz
		inc = [3]int{1, 0, 0}
	case layer.AxisY:
		dim2, dim3 = g.Dimx, g.Dimz
		inc = [3]int{0, 1, 0}
	case layer.AxisZ:
		dim2, dim3 = g.Dimx, g.Dimy
		inc = [3]int{0, 0, 1}
	}

	var segs []Segment
	for i := 0; i < dim2; i++ {
		for j := 0; j < dim3; j++ {
			var pos [3]int
			switch axis {
			case layer.AxisX:
				pos = [3]int{0, i, j}
			case layer.AxisY:
				pos = [3]int{i, 0, j}
			case layer.AxisZ:
				pos = [3]int{i, j, 0}
			}

			inRun := false
			prev := -1
			var seg Segment
			for pos[0]+inc[0] < g.Dimx && pos[1]+inc[1] < g.Dimy && pos[2]+inc[2] < g.Dimz {
				if g.Type(pos[0]+inc[0], pos[1]+inc[1], pos[2]+inc[2]) == grid.NodeIn {
					if !inRun {
						seg = Segment{
							PosX: pos[0], PosY: pos[1], PosZ: pos[2],
							Axis: axis,
						}
						if prev >= 0 && segs[prev].EndX == seg.PosX &&
							segs[prev].EndY == seg.PosY && segs[prev].EndZ == seg.PosZ {
							segs[prev].SharedEnd = true
						}
						inRun = true
					}
				} else if inRun {
					seg.EndX = pos[0] + inc[0]
					seg.EndY = pos[1] + inc[1]
					seg.EndZ = pos[2] + inc[2]
					seg.Size = (seg.EndX - seg.PosX) + (seg.EndY - seg.PosY) + (seg.EndZ - seg.PosZ) + 1
					segs = append(segs, seg)
					prev = len(segs) - 1
					inRun = false
				}
				pos[0] += inc[0]
				pos[1] += inc[1]
				pos[2] += inc[2]
			}
		}
	}
	return segs
}

// splitSegments localizes a segment list to one X slab: clamp every
// overlapping segment to the slab, tag its locality, and shift its X
// coordinates to slab-relative positions. X segments outside the slab
// are kept with Skip set so ids stay aligned across slabs.
func splitSegments(segs []Segment, axis layer.Axis, part Partition) []Segment {
	res := make([]Segment, 0, len(segs))
	for _, s := range segs {
		overlaps := s.PosX < part.Offset+part.Length && s.EndX >= part.Offset
		if !overlaps {
			if axis == layer.AxisX {
				s.Skip = true
				res = append(res, s)
			}
			continue
		}

		switch {
		case s.PosX < part.Offset && s.EndX >= part.Offset+part.Length:
			s.Loc = Crosses
		case s.PosX < part.Offset:
			s.Loc = EndsLocal
		case s.EndX >= part.Offset+part.Length:
			s.Loc = StartsLocal
		default:
			s.Loc = FullyLocal
		}

		s.PosX -= part.Offset
		if s.PosX < 0 {
			s.PosX = 0
		}
		s.EndX -= part.Offset
		if s.EndX > part.Length-1 {
			s.EndX = part.Length - 1
		}
		s.Size = (s.EndX - s.PosX) + (s.EndY - s.PosY) + (s.EndZ - s.PosZ) + 1
		res = append(res, s)
	}
	return res
}

// transposeSegments maps Z segments onto the transposed layout, where
// axis Z is stored as axis Y. Grid queries must swap the coordinates
// back.
func transposeSegments(segs []Segment) []Segment {
	res := make([]Segment, len(segs))
	for i, s := range segs {
		s.PosY, s.PosZ = s.PosZ, s.PosY
		s.EndY, s.EndZ = s.EndZ, s.EndY
		res[i] = s
	}
	return res
}
