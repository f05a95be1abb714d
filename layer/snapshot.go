package layer

import (
	"encoding/gob"
	"fmt"
	"io"
)

// snapshot is the on-disk form of a layer. Kept separate from TimeLayer
// so the wire format does not pin the in-memory representation.
type snapshot struct {
	Dimx, Dimy, Dimz int
	Dx, Dy, Dz       float64
	U, V, W, T       []float64
}

// Save writes the layer to w. The encoding is bit-exact: a Load of the
// written bytes reproduces every field value.
func (l *TimeLayer) Save(w io.Writer) error {
	s := snapshot{
		Dimx: l.Dimx, Dimy: l.Dimy, Dimz: l.Dimz,
		Dx: l.Dx, Dy: l.Dy, Dz: l.Dz,
		U: l.U, V: l.V, W: l.W, T: l.T,
	}
	if err := gob.NewEncoder(w).Encode(&s); err != nil {
		return fmt.Errorf("layer: encoding snapshot: %w", err)
	}
	return nil
}

// Load reads a layer previously written by Save.
func Load(r io.Reader) (*TimeLayer, error) {
	var s snapshot
	if err := gob.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("layer: decoding snapshot: %w", err)
	}
	n := s.Dimx * s.Dimy * s.Dimz
	if len(s.U) != n || len(s.V) != n || len(s.W) != n || len(s.T) != n {
		return nil, fmt.Errorf("layer: snapshot field length mismatch")
	}
	return &TimeLayer{
		Dimx: s.Dimx, Dimy: s.Dimy, Dimz: s.Dimz,
		Dx: s.Dx, Dy: s.Dy, Dz: s.Dz,
		U: s.U, V: s.V, W: s.W, T: s.T,
	}, nil
}
