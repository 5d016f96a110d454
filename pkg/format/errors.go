package format

import (
	"errors"
	"fmt"
)

var (
	// ErrFileTooSmall indicates the buffer cannot hold a header and a footer.
	ErrFileTooSmall = errors.New("file too small")
	// ErrTruncatedInput indicates the header itself is cut short.
	ErrTruncatedInput = errors.New("truncated input")
	// ErrBadMagic indicates the header magic is not "4SPL".
	ErrBadMagic = errors.New("magic mismatch")
	// ErrUnsupportedVersion indicates a major version other than 1.
	ErrUnsupportedVersion = errors.New("unsupported format version")
	// ErrUnsupportedIndexWidth indicates an index width code outside 0..3.
	ErrUnsupportedIndexWidth = errors.New("unsupported index width")
	// ErrTruncatedPalette indicates the palette table runs past the buffer.
	ErrTruncatedPalette = errors.New("truncated palette")
	// ErrTruncatedIndices indicates the index tensor runs past the buffer.
	ErrTruncatedIndices = errors.New("truncated indices")
	// ErrTruncatedFooter indicates fewer than 16 bytes remain for the footer.
	ErrTruncatedFooter = errors.New("truncated footer")
	// ErrBadFooterTerminator indicates the footer does not end with "LPS4".
	ErrBadFooterTerminator = errors.New("bad footer terminator")
	// ErrChecksumMismatch is returned by VerifyChecksum. Decode never returns it.
	ErrChecksumMismatch = errors.New("checksum mismatch")
)

// Kind identifies which structural rule a decode failure violated.
type Kind uint8

const (
	KindFileTooSmall Kind = iota + 1
	KindTruncatedInput
	KindBadMagic
	KindUnsupportedVersion
	KindUnsupportedIndexWidth
	KindTruncatedPalette
	KindTruncatedIndices
	KindTruncatedFooter
	KindBadFooterTerminator
)

var kindSentinels = map[Kind]error{
	KindFileTooSmall:          ErrFileTooSmall,
	KindTruncatedInput:        ErrTruncatedInput,
	KindBadMagic:              ErrBadMagic,
	KindUnsupportedVersion:    ErrUnsupportedVersion,
	KindUnsupportedIndexWidth: ErrUnsupportedIndexWidth,
	KindTruncatedPalette:      ErrTruncatedPalette,
	KindTruncatedIndices:      ErrTruncatedIndices,
	KindTruncatedFooter:       ErrTruncatedFooter,
	KindBadFooterTerminator:   ErrBadFooterTerminator,
}

// String returns the sentinel message for the kind.
func (k Kind) String() string {
	if err, ok := kindSentinels[k]; ok {
		return err.Error()
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// DecodeError describes a structural violation found while decoding.
//
// Offset is the byte offset of the section (or field) that failed. Want and Got
// carry the expected and found values as display strings: byte counts for
// truncation kinds, literals for magic and terminator, numbers otherwise.
type DecodeError struct {
	Kind   Kind
	Offset uint64
	Want   string
	Got    string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("4spl: %s at offset %d: want %s, got %s", e.Kind, e.Offset, e.Want, e.Got)
}

// Is reports whether target is the sentinel for this error's kind, so callers
// can write errors.Is(err, format.ErrBadMagic).
func (e *DecodeError) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

func newDecodeError(kind Kind, offset uint64, want, got string) *DecodeError {
	return &DecodeError{Kind: kind, Offset: offset, Want: want, Got: got}
}

// truncated builds a DecodeError for a range [offset, offset+want) that does
// not fit in a buffer with only have bytes left.
func truncated(kind Kind, offset, want, have uint64) *DecodeError {
	return newDecodeError(kind, offset, fmt.Sprintf("%d bytes", want), fmt.Sprintf("%d bytes", have))
}
