package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ns3d/geom"
)

func testBBox() geom.BBox3D {
	b := geom.NewBBox3D()
	b.AddPoint(geom.Vec3D{X: 0, Y: 0, Z: 0})
	b.AddPoint(geom.Vec3D{X: 0.5, Y: 1, Z: 2})
	return b
}

func TestNewWriterHeader(t *testing.T) {
	var buf bytes.Buffer
	_, err := NewWriter(&buf, testBBox(), 5, 10, 20)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "0.00 0.00 0.00 500.00 1000.00 2000.00", lines[0])
	// spacing in millimetres per output cell, then the lattice extents
	assert.Equal(t, "100.00 100.00 100.00 5 10 20", lines[1])
}

func TestWriteFrame(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, testBBox(), 1, 1, 2)
	require.NoError(t, err)
	buf.Reset()

	u := []float64{1, 2}
	v := []float64{0.5, -0.5}
	ww := []float64{0, 0}
	tt := []float64{300, 301.25}
	require.NoError(t, w.WriteFrame(0.125, u, v, ww, tt))

	got := buf.String()
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "0.12500", lines[0])
	assert.Equal(t, "1.0000 0.5000 0.0000 300.0000 2.0000 -0.5000 0.0000 301.2500 ", lines[1])
}

func TestWriteFrameLengthMismatch(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, testBBox(), 2, 2, 2)
	require.NoError(t, err)

	short := make([]float64, 7)
	ok := make([]float64, 8)
	err = w.WriteFrame(0, short, ok, ok, ok)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "length")
}
