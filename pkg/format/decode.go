package format

import "strconv"

// Video is a decoded container. It is never modified after Decode returns and
// is safe to share across goroutines.
type Video struct {
	header  Header
	palette []PaletteEntry
	indices IndexTensor
	footer  Footer
}

// Decode parses a complete container from buf.
//
// The returned Video's index tensor references buf directly; buf must stay
// unmodified (and mapped, for mmap-backed buffers) while the Video is in use.
// On failure the error is the sub-decoder's *DecodeError, unchanged.
func Decode(buf []byte) (*Video, error) {
	if len(buf) < HeaderSize+FooterSize {
		return nil, newDecodeError(KindFileTooSmall, 0,
			"at least "+strconv.Itoa(HeaderSize+FooterSize)+" bytes", strconv.Itoa(len(buf))+" bytes")
	}

	header, off, err := DecodeHeader(buf)
	if err != nil {
		return nil, err
	}

	palette, n, err := DecodePalette(buf, off, header.PaletteSize)
	if err != nil {
		return nil, err
	}
	off += n

	indices, n, err := DecodeIndices(buf, off, header.Shape(), header.IndexWidth())
	if err != nil {
		return nil, err
	}
	off += n

	footer, err := DecodeFooter(buf, off)
	if err != nil {
		return nil, err
	}

	return &Video{
		header:  header,
		palette: palette,
		indices: indices,
		footer:  footer,
	}, nil
}

// Header returns the decoded header.
func (v *Video) Header() Header { return v.header }

// Palette returns the palette table in id order. The slice is shared; callers
// must not modify it.
func (v *Video) Palette() []PaletteEntry { return v.palette }

// PaletteSize returns the number of palette entries.
func (v *Video) PaletteSize() int { return len(v.palette) }

// Entry returns the palette entry with the given id.
func (v *Video) Entry(id uint64) (PaletteEntry, bool) {
	if id >= uint64(len(v.palette)) {
		return PaletteEntry{}, false
	}
	return v.palette[id], true
}

// Indices returns the index tensor.
func (v *Video) Indices() *IndexTensor { return &v.indices }

// Footer returns the decoded footer.
func (v *Video) Footer() Footer { return v.footer }

// IdxOffset returns the footer's idxoffset field as stored.
func (v *Video) IdxOffset() uint64 { return v.footer.IdxOffset }

// Checksum returns the footer's checksum field as stored.
func (v *Video) Checksum() uint32 { return v.footer.Checksum }

// PaletteOffset returns the byte offset of the palette table.
func (v *Video) PaletteOffset() uint64 { return HeaderSize }

// IndexOffset returns the byte offset where the index tensor actually starts.
func (v *Video) IndexOffset() uint64 {
	return HeaderSize + uint64(len(v.palette))*PaletteEntrySize
}

// FooterOffset returns the byte offset of the footer.
func (v *Video) FooterOffset() uint64 {
	return v.IndexOffset() + uint64(len(v.indices.data))
}

// EncodedSize re-derives the container size from the header:
// 32 + palette_size*48 + total_voxels*index_bytes + 16.
func (v *Video) EncodedSize() uint64 {
	return v.FooterOffset() + FooterSize
}
