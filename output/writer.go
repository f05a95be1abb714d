// Package output writes result frames: a text header describing the
// physical lattice followed by one record per exported subframe.
package output

import (
	"bufio"
	"fmt"
	"io"

	"ns3d/geom"
)

// Writer streams sampled frames. The header states the bounding box and
// lattice spacing in millimetres, then each frame carries its time stamp
// and the four fields cell by cell.
type Writer struct {
	w    *bufio.Writer
	outx int
	outy int
	outz int
}

// NewWriter writes the header and returns a frame writer for the given
// output lattice.
func NewWriter(w io.Writer, bbox geom.BBox3D, outx, outy, outz int) (*Writer, error) {
	bw := bufio.NewWriter(w)

	_, err := fmt.Fprintf(bw, "%.2f %.2f %.2f %.2f %.2f %.2f\n",
		bbox.Min.X*1000, bbox.Min.Y*1000, bbox.Min.Z*1000,
		bbox.Max.X*1000, bbox.Max.Y*1000, bbox.Max.Z*1000)
	if err != nil {
		return nil, fmt.Errorf("output: writing header: %w", err)
	}

	sz := bbox.Size()
	ddx := sz.X / float64(outx)
	ddy := sz.Y / float64(outy)
	ddz := sz.Z / float64(outz)
	_, err = fmt.Fprintf(bw, "%.2f %.2f %.2f %d %d %d\n",
		ddx*1000, ddy*1000, ddz*1000, outx, outy, outz)
	if err != nil {
		return nil, fmt.Errorf("output: writing header: %w", err)
	}

	if err := bw.Flush(); err != nil {
		return nil, fmt.Errorf("output: writing header: %w", err)
	}
	return &Writer{w: bw, outx: outx, outy: outy, outz: outz}, nil
}

// WriteFrame appends one sampled frame. Buffers are outx*outy*outz
// values in x-major order; OUT cells carry the sentinel untouched.
func (o *Writer) WriteFrame(timeValue float64, u, v, w, t []float64) error {
	n := o.outx * o.outy * o.outz
	if len(u) != n || len(v) != n || len(w) != n || len(t) != n {
		return fmt.Errorf("output: frame buffer length %d, want %d", len(u), n)
	}

	if _, err := fmt.Fprintf(o.w, "%.5f\n", timeValue); err != nil {
		return fmt.Errorf("output: writing frame: %w", err)
	}
	for i := 0; i < o.outx; i++ {
		for j := 0; j < o.outy; j++ {
			for k := 0; k < o.outz; k++ {
				id := i*o.outy*o.outz + j*o.outz + k
				_, err := fmt.Fprintf(o.w, "%.4f %.4f %.4f %.4f ", u[id], v[id], w[id], t[id])
				if err != nil {
					return fmt.Errorf("output: writing frame: %w", err)
				}
			}
			if _, err := fmt.Fprintln(o.w); err != nil {
				return fmt.Errorf("output: writing frame: %w", err)
			}
		}
	}
	return o.w.Flush()
}
