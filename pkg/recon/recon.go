// Package recon derives images and statistics from a decoded 4Splat video.
//
// Every function is pure: it reads a *format.Video and returns fresh values.
// Videos are never modified, so calls may run concurrently on the same video.
//
// Caller mistakes (frame or depth outside the video, palette ids at or above the
// palette size, masks of the wrong length) fail with ErrOutOfBounds rather than
// being clamped, so corrupt index data is not mistaken for a rendering glitch.
package recon

import (
	"errors"
	"fmt"

	"github.com/eunmann/splat4d/pkg/format"
)

// ErrOutOfBounds indicates a coordinate or palette id outside the video.
var ErrOutOfBounds = errors.New("out of bounds")

// Plane is the (height, width) grid of palette ids at one (frame, depth).
// It is a view into the video's index tensor.
type Plane struct {
	t      *format.IndexTensor
	base   uint64
	Frame  uint32
	Depth  uint32
	Width  uint32
	Height uint32
}

// Slice returns the plane at (frame, depth).
func Slice(v *format.Video, frame, depth uint32) (Plane, error) {
	h := v.Header()
	if frame >= h.Frames {
		return Plane{}, fmt.Errorf("frame %d of %d: %w", frame, h.Frames, ErrOutOfBounds)
	}
	if depth >= h.Depth {
		return Plane{}, fmt.Errorf("depth %d of %d: %w", depth, h.Depth, ErrOutOfBounds)
	}

	t := v.Indices()
	return Plane{
		t:      t,
		base:   t.Offset(frame, depth, 0, 0),
		Frame:  frame,
		Depth:  depth,
		Width:  h.Width,
		Height: h.Height,
	}, nil
}

// At returns the palette id at row y, column x. Both must be in range.
func (p Plane) At(y, x uint32) uint64 {
	return p.t.Flat(p.base + uint64(y)*uint64(p.Width) + uint64(x))
}

// Len returns Width*Height.
func (p Plane) Len() uint64 {
	return uint64(p.Width) * uint64(p.Height)
}

// IDs copies the plane into a row-major slice.
func (p Plane) IDs() []uint64 {
	ids := make([]uint64, p.Len())
	for i := range ids {
		ids[i] = p.t.Flat(p.base + uint64(i))
	}
	return ids
}
