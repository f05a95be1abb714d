package grid

import "ns3d/geom"

// NodeType classifies a grid cell.
type NodeType byte

const (
	NodeIn NodeType = iota
	NodeOut
	NodeBound
	NodeValve
)

func (t NodeType) String() string {
	switch t {
	case NodeIn:
		return "IN"
	case NodeOut:
		return "OUT"
	case NodeBound:
		return "BOUND"
	case NodeValve:
		return "VALVE"
	}
	return "?"
}

// BCType selects the boundary-condition kind on a BOUND/VALVE cell:
// Dirichlet fixed value (NoSlip) or homogeneous Neumann (Free).
type BCType byte

const (
	BCNoSlip BCType = iota
	BCFree
)

// Node is one grid cell. BCVel/BCTemp, Vel and T are only meaningful on
// BOUND and VALVE cells.
type Node struct {
	Type   NodeType
	BCVel  BCType
	BCTemp BCType
	Vel    geom.Vec3D
	T      float64
}

// SetBound turns the node into a boundary cell carrying the given data.
func (n *Node) SetBound(bcVel, bcTemp BCType, v geom.Vec3D, t float64) {
	n.Type = NodeBound
	n.BCVel = bcVel
	n.BCTemp = bcTemp
	n.Vel = v
	n.T = t
}
