package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVec3DOps(t *testing.T) {
	a := Vec3D{1, 2, 3}
	b := Vec3D{4, -5, 6}

	assert.Equal(t, Vec3D{5, -3, 9}, a.Add(b))
	assert.Equal(t, Vec3D{-3, 7, -3}, a.Sub(b))
	assert.Equal(t, Vec3D{2, 4, 6}, a.Scale(2))
	assert.Equal(t, Vec3D{-1, -2, -3}, a.Neg())
	assert.InDelta(t, 12, a.Dot(b), 1e-12)

	// cross product is orthogonal to both operands
	c := a.Cross(b)
	assert.InDelta(t, 0, c.Dot(a), 1e-12)
	assert.InDelta(t, 0, c.Dot(b), 1e-12)

	assert.InDelta(t, 1, Vec3D{3, 4, 0}.Normalize().Length(), 1e-12)
	assert.Equal(t, Vec3D{}, Vec3D{}.Normalize())
}

func TestLerp(t *testing.T) {
	a := Vec3D{0, 0, 0}
	b := Vec3D{2, 4, 8}
	assert.Equal(t, a, a.Lerp(b, 0))
	assert.Equal(t, b, a.Lerp(b, 1))
	assert.Equal(t, Vec3D{1, 2, 4}, a.Lerp(b, 0.5))
}

func TestBBox(t *testing.T) {
	b := NewBBox3D()
	b.AddPoint(Vec3D{1, -2, 3})
	b.AddPoint(Vec3D{-1, 5, 0})

	assert.Equal(t, Vec3D{-1, -2, 0}, b.Min)
	assert.Equal(t, Vec3D{1, 5, 3}, b.Max)
	assert.Equal(t, Vec3D{2, 7, 3}, b.Size())
}
