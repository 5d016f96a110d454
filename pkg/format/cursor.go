package format

import (
	"encoding/binary"
	"math"
)

// cursor reads little-endian values sequentially from an in-memory buffer.
// Callers check remaining() before reading; the read methods do not bounds
// check beyond what slicing does.
type cursor struct {
	buf []byte
	off int
}

func newCursor(buf []byte, off int) *cursor {
	return &cursor{buf: buf, off: off}
}

// remaining returns the number of unread bytes, 0 if off is past the end.
func (c *cursor) remaining() uint64 {
	if c.off >= len(c.buf) {
		return 0
	}
	return uint64(len(c.buf) - c.off)
}

func (c *cursor) bytes(n int) []byte {
	b := c.buf[c.off : c.off+n : c.off+n]
	c.off += n
	return b
}

func (c *cursor) u8() uint8 {
	v := c.buf[c.off]
	c.off++
	return v
}

func (c *cursor) u32() uint32 {
	v := binary.LittleEndian.Uint32(c.buf[c.off:])
	c.off += 4
	return v
}

func (c *cursor) u64() uint64 {
	v := binary.LittleEndian.Uint64(c.buf[c.off:])
	c.off += 8
	return v
}

func (c *cursor) f32() float32 {
	return math.Float32frombits(c.u32())
}
