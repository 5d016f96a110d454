package format

import "encoding/binary"

// IndexTensor is a read-only 4-D view of palette ids with axes
// (frame, depth, height, width), width varying fastest.
//
// It does not copy the source bytes: a tensor decoded from a memory-mapped file
// is valid only until that file is closed. Every read widens to uint64.
//
// Thread Safety: IndexTensor has no mutable state and is safe for concurrent use.
type IndexTensor struct {
	data  []byte
	width IndexWidth
	shape Shape
	n     uint64
}

// DecodeIndices interprets total_voxels ids of the given width starting at off
// and reshapes them to shape. It returns the tensor and bytes consumed.
func DecodeIndices(buf []byte, off int, shape Shape, width IndexWidth) (IndexTensor, int, error) {
	c := newCursor(buf, off)
	n, ok := shape.Voxels()
	size := n * uint64(width)
	if !ok || (n != 0 && size/n != uint64(width)) {
		return IndexTensor{}, 0, newDecodeError(KindTruncatedIndices, uint64(off),
			"voxel count * width to fit in 64 bits", "overflow")
	}
	if c.remaining() < size {
		return IndexTensor{}, 0, truncated(KindTruncatedIndices, uint64(off), size, c.remaining())
	}

	return IndexTensor{
		data:  c.bytes(int(size)),
		width: width,
		shape: shape,
		n:     n,
	}, int(size), nil
}

// Shape returns the tensor extents.
func (t *IndexTensor) Shape() Shape { return t.shape }

// Width returns the stored index width.
func (t *IndexTensor) Width() IndexWidth { return t.width }

// Len returns the number of voxels.
func (t *IndexTensor) Len() uint64 { return t.n }

// Bytes returns the raw index bytes. Callers must not modify them.
func (t *IndexTensor) Bytes() []byte { return t.data }

// Flat returns the id of the i-th voxel in storage order. i must be < Len().
func (t *IndexTensor) Flat(i uint64) uint64 {
	switch t.width {
	case IndexWidth8:
		return uint64(t.data[i])
	case IndexWidth16:
		return uint64(binary.LittleEndian.Uint16(t.data[i*2:]))
	case IndexWidth32:
		return uint64(binary.LittleEndian.Uint32(t.data[i*4:]))
	default:
		return binary.LittleEndian.Uint64(t.data[i*8:])
	}
}

// Offset returns the flat position of (frame, depth, y, x). Coordinates are not
// checked; use InBounds first when they come from a caller.
func (t *IndexTensor) Offset(frame, depth, y, x uint32) uint64 {
	s := t.shape
	return ((uint64(frame)*uint64(s.Depth)+uint64(depth))*uint64(s.Height)+uint64(y))*uint64(s.Width) + uint64(x)
}

// InBounds reports whether (frame, depth, y, x) addresses a voxel.
func (t *IndexTensor) InBounds(frame, depth, y, x uint32) bool {
	s := t.shape
	return frame < s.Frames && depth < s.Depth && y < s.Height && x < s.Width
}

// At returns the id at (frame, depth, y, x). Coordinates must be in bounds.
func (t *IndexTensor) At(frame, depth, y, x uint32) uint64 {
	return t.Flat(t.Offset(frame, depth, y, x))
}

// Max returns the largest stored id and false for an empty tensor.
func (t *IndexTensor) Max() (uint64, bool) {
	if t.n == 0 {
		return 0, false
	}
	var m uint64
	for i := uint64(0); i < t.n; i++ {
		if v := t.Flat(i); v > m {
			m = v
		}
	}
	return m, true
}
