// Package format decodes 4Splat (.4spl) containers.
//
// A container is four sections concatenated without padding, all little-endian:
//
//	header   32 bytes               magic "4SPL", version, extents, palette size, flags
//	palette  palette_size * 48      12 float32 per entry
//	indices  total_voxels * width   palette ids, row-major (frame, depth, height, width)
//	footer   16 bytes               idxoffset u64, checksum u32, terminator "LPS4"
//
// Decode is all-or-nothing: it returns either a complete *Video or one of the
// sentinel errors in errors.go carried by a *DecodeError.
package format

import (
	"fmt"
	"strconv"
)

const (
	// Magic opens every container.
	Magic = "4SPL"
	// Terminator closes every container.
	Terminator = "LPS4"
	// VersionMajor is the only supported major version.
	VersionMajor = 1

	// HeaderSize is the size of the header in bytes.
	HeaderSize = 4 + 4 + 6*4 // 32 bytes
	// PaletteEntrySize is the size of one palette record in bytes.
	PaletteEntrySize = 12 * 4 // 48 bytes
	// FooterSize is the size of the footer in bytes.
	FooterSize = 8 + 4 + 4 // 16 bytes
)

// Version is major.minor.patch.build. Only Major is validated.
type Version [4]uint8

func (v Version) Major() uint8 { return v[0] }

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d-%d", v[0], v[1], v[2], v[3])
}

// IndexWidth is the byte width of a stored palette id: 1, 2, 4 or 8.
type IndexWidth uint8

const (
	IndexWidth8  IndexWidth = 1
	IndexWidth16 IndexWidth = 2
	IndexWidth32 IndexWidth = 4
	IndexWidth64 IndexWidth = 8
)

// indexWidthByCode maps the 2-bit flags code to a byte width.
var indexWidthByCode = [4]IndexWidth{IndexWidth8, IndexWidth16, IndexWidth32, IndexWidth64}

// IndexWidthFromCode returns the width for an index width code.
func IndexWidthFromCode(code uint32) (IndexWidth, error) {
	if code >= uint32(len(indexWidthByCode)) {
		return 0, newDecodeError(KindUnsupportedIndexWidth, 28, "code 0..3", strconv.FormatUint(uint64(code), 10))
	}
	return indexWidthByCode[code], nil
}

// Bytes returns the width in bytes.
func (w IndexWidth) Bytes() int { return int(w) }

// Code returns the 2-bit flags code for w.
func (w IndexWidth) Code() uint32 {
	switch w {
	case IndexWidth16:
		return 1
	case IndexWidth32:
		return 2
	case IndexWidth64:
		return 3
	default:
		return 0
	}
}

// Shape holds the tensor extents in storage order.
type Shape struct {
	Frames, Depth, Height, Width uint32
}

// Voxels returns frames*depth*height*width. ok is false when the product
// overflows uint64.
func (s Shape) Voxels() (n uint64, ok bool) {
	n = 1
	for _, d := range [4]uint32{s.Frames, s.Depth, s.Height, s.Width} {
		if d == 0 {
			return 0, true
		}
		if n > ^uint64(0)/uint64(d) {
			return 0, false
		}
		n *= uint64(d)
	}
	return n, true
}

// Header is the decoded 32-byte preamble.
type Header struct {
	Version     Version
	Width       uint32
	Height      uint32
	Depth       uint32
	Frames      uint32
	PaletteSize uint32
	Flags       Flags
}

// Shape returns the tensor extents.
func (h Header) Shape() Shape {
	return Shape{Frames: h.Frames, Depth: h.Depth, Height: h.Height, Width: h.Width}
}

// TotalVoxels returns width*height*depth*frames. It saturates at the maximum
// uint64 when the product overflows.
func (h Header) TotalVoxels() uint64 {
	n, ok := h.Shape().Voxels()
	if !ok {
		return ^uint64(0)
	}
	return n
}

// IndexWidth returns the validated index width. DecodeHeader guarantees the
// code is valid, so this never fails for a decoded header.
func (h Header) IndexWidth() IndexWidth {
	return indexWidthByCode[h.Flags.IndexWidthCode()]
}

// DecodeHeader reads and validates the header at the start of buf.
// It returns the header and the number of bytes consumed.
func DecodeHeader(buf []byte) (Header, int, error) {
	c := newCursor(buf, 0)
	if c.remaining() < HeaderSize {
		return Header{}, 0, truncated(KindTruncatedInput, 0, HeaderSize, c.remaining())
	}

	magic := c.bytes(4)
	if string(magic) != Magic {
		return Header{}, 0, newDecodeError(KindBadMagic, 0, strconv.Quote(Magic), strconv.Quote(string(magic)))
	}

	var h Header
	for i := range h.Version {
		h.Version[i] = c.u8()
	}
	if h.Version.Major() != VersionMajor {
		return Header{}, 0, newDecodeError(KindUnsupportedVersion, 4,
			strconv.Itoa(VersionMajor), strconv.Itoa(int(h.Version.Major())))
	}

	h.Width = c.u32()
	h.Height = c.u32()
	h.Depth = c.u32()
	h.Frames = c.u32()
	h.PaletteSize = c.u32()
	h.Flags = Flags(c.u32())

	if _, err := IndexWidthFromCode(h.Flags.IndexWidthCode()); err != nil {
		return Header{}, 0, err
	}

	return h, HeaderSize, nil
}
