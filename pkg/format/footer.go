package format

import "strconv"

// Footer is the decoded 16-byte trailer. Neither field is cross-checked during
// decode; see VerifyChecksum and CheckIdxOffset.
type Footer struct {
	IdxOffset uint64
	Checksum  uint32
}

// DecodeFooter reads the footer at off.
func DecodeFooter(buf []byte, off int) (Footer, error) {
	c := newCursor(buf, off)
	if c.remaining() < FooterSize {
		return Footer{}, truncated(KindTruncatedFooter, uint64(off), FooterSize, c.remaining())
	}

	f := Footer{
		IdxOffset: c.u64(),
		Checksum:  c.u32(),
	}
	if end := c.bytes(4); string(end) != Terminator {
		return Footer{}, newDecodeError(KindBadFooterTerminator, uint64(off+12),
			strconv.Quote(Terminator), strconv.Quote(string(end)))
	}
	return f, nil
}
