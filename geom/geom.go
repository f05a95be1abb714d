// Package geom holds the small value types shared by the grid and the
// solver: 2D/3D vectors and an axis-aligned bounding box.
package geom

import "math"

const inf = 1e10

type Vec2D struct {
	X, Y float64
}

func (v Vec2D) Dot(o Vec2D) float64 {
	return v.X*o.X + v.Y*o.Y
}

type Vec3D struct {
	X, Y, Z float64
}

func (v Vec3D) Add(o Vec3D) Vec3D {
	return Vec3D{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vec3D) Sub(o Vec3D) Vec3D {
	return Vec3D{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

func (v Vec3D) Scale(s float64) Vec3D {
	return Vec3D{v.X * s, v.Y * s, v.Z * s}
}

func (v Vec3D) Neg() Vec3D {
	return Vec3D{-v.X, -v.Y, -v.Z}
}

func (v Vec3D) Dot(o Vec3D) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

func (v Vec3D) Cross(o Vec3D) Vec3D {
	return Vec3D{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

func (v Vec3D) Length() float64 {
	return math.Sqrt(v.Dot(v))
}

func (v Vec3D) Normalize() Vec3D {
	l := v.Length()
	if l == 0 {
		return v
	}
	return v.Scale(1 / l)
}

// Lerp blends two vectors: (1-s)*v + s*o.
func (v Vec3D) Lerp(o Vec3D, s float64) Vec3D {
	return v.Scale(1 - s).Add(o.Scale(s))
}

type BBox3D struct {
	Min, Max Vec3D
}

func NewBBox3D() BBox3D {
	return BBox3D{
		Min: Vec3D{inf, inf, inf},
		Max: Vec3D{-inf, -inf, -inf},
	}
}

func (b *BBox3D) AddPoint(p Vec3D) {
	b.Min.X = math.Min(b.Min.X, p.X)
	b.Min.Y = math.Min(b.Min.Y, p.Y)
	b.Min.Z = math.Min(b.Min.Z, p.Z)
	b.Max.X = math.Max(b.Max.X, p.X)
	b.Max.Y = math.Max(b.Max.Y, p.Y)
	b.Max.Z = math.Max(b.Max.Z, p.Z)
}

func (b BBox3D) Size() Vec3D {
	return b.Max.Sub(b.Min)
}
