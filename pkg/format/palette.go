package format

// PaletteEntry is one Gaussian appearance cluster. Its id is its position in
// the palette table.
//
// R, G, B and Alpha are stored either normalized to [0,1] or as 0-255
// magnitudes; the file does not say which. See recon.ColorScale.
type PaletteEntry struct {
	MuX, MuY, MuZ          float32
	SigmaX, SigmaY, SigmaZ float32
	MuT, SigmaT            float32
	R, G, B                float32
	Alpha                  float32
}

// Floats returns the 12 fields in wire order.
func (e PaletteEntry) Floats() [12]float32 {
	return [12]float32{
		e.MuX, e.MuY, e.MuZ,
		e.SigmaX, e.SigmaY, e.SigmaZ,
		e.MuT, e.SigmaT,
		e.R, e.G, e.B,
		e.Alpha,
	}
}

// DecodePalette reads n palette records starting at off. It returns the
// entries in table order and the number of bytes consumed.
func DecodePalette(buf []byte, off int, n uint32) ([]PaletteEntry, int, error) {
	c := newCursor(buf, off)
	size := uint64(n) * PaletteEntrySize
	if c.remaining() < size {
		return nil, 0, truncated(KindTruncatedPalette, uint64(off), size, c.remaining())
	}

	entries := make([]PaletteEntry, n)
	for i := range entries {
		e := &entries[i]
		e.MuX, e.MuY, e.MuZ = c.f32(), c.f32(), c.f32()
		e.SigmaX, e.SigmaY, e.SigmaZ = c.f32(), c.f32(), c.f32()
		e.MuT, e.SigmaT = c.f32(), c.f32()
		e.R, e.G, e.B = c.f32(), c.f32(), c.f32()
		e.Alpha = c.f32()
	}
	return entries, int(size), nil
}
