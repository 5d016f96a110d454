package format

import (
	"fmt"
	"hash/crc32"
)

// Integrity compares the footer's stored fields with values recomputed from
// the container. Decode never computes it.
type Integrity struct {
	StoredChecksum    uint32
	ComputedChecksum  uint32
	StoredIdxOffset   uint64
	ExpectedIdxOffset uint64
}

// ChecksumOK reports whether the stored checksum matches.
func (i Integrity) ChecksumOK() bool { return i.StoredChecksum == i.ComputedChecksum }

// IdxOffsetOK reports whether idxoffset points at the index tensor.
func (i Integrity) IdxOffsetOK() bool { return i.StoredIdxOffset == i.ExpectedIdxOffset }

// Checksum returns the CRC-32 (IEEE) of every byte preceding the footer:
// header, palette and index tensor as stored.
func Checksum(buf []byte, v *Video) (uint32, error) {
	end := v.FooterOffset()
	if end > uint64(len(buf)) {
		return 0, fmt.Errorf("checksum range %d exceeds buffer of %d bytes", end, len(buf))
	}
	return crc32.ChecksumIEEE(buf[:end]), nil
}

// CheckIntegrity recomputes the checksum and expected idxoffset for v, which
// must have been decoded from buf.
func CheckIntegrity(buf []byte, v *Video) (Integrity, error) {
	sum, err := Checksum(buf, v)
	if err != nil {
		return Integrity{}, err
	}
	return Integrity{
		StoredChecksum:    v.Checksum(),
		ComputedChecksum:  sum,
		StoredIdxOffset:   v.IdxOffset(),
		ExpectedIdxOffset: v.IndexOffset(),
	}, nil
}

// VerifyChecksum returns ErrChecksumMismatch when the stored checksum differs
// from the recomputed one.
func VerifyChecksum(buf []byte, v *Video) error {
	in, err := CheckIntegrity(buf, v)
	if err != nil {
		return err
	}
	if !in.ChecksumOK() {
		return fmt.Errorf("%w: stored 0x%08X, computed 0x%08X", ErrChecksumMismatch, in.StoredChecksum, in.ComputedChecksum)
	}
	return nil
}
