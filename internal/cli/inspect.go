package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/eunmann/splat4d/pkg/export"
	"github.com/eunmann/splat4d/pkg/format"
	"github.com/eunmann/splat4d/pkg/humanfmt"
	"github.com/eunmann/splat4d/pkg/recon"
	"github.com/eunmann/splat4d/pkg/source"
)

// errIntegrity is returned by inspect --verify when the footer does not match.
var errIntegrity = errors.New("integrity check failed")

type inspectReport struct {
	URI           string                `json:"uri"`
	Kind          string                `json:"kind"`
	Size          int64                 `json:"size"`
	Header        export.HeaderInfo     `json:"header"`
	PaletteOffset uint64                `json:"palette_offset"`
	IndexOffset   uint64                `json:"index_offset"`
	FooterOffset  uint64                `json:"footer_offset"`
	IdxOffset     uint64                `json:"idxoffset"`
	Checksum      uint32                `json:"checksum"`
	Integrity     *export.IntegrityInfo `json:"integrity,omitempty"`
	MaxID         *uint64               `json:"max_id,omitempty"`
}

func runInspect(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	var c common
	c.register(fs)
	verify := fs.Bool("verify", false, "recompute CRC-32 and idxoffset")
	strict := fs.Bool("strict", false, "fail if any palette id is out of range")
	asJSON := fs.Bool("json", false, "print the report as JSON")

	uri, err := c.parse(fs, args)
	if err != nil {
		return err
	}
	src, done, err := c.open(ctx, uri)
	if err != nil {
		return err
	}
	defer done()

	v := src.Video()
	report := newInspectReport(src)

	var verifyErr error
	if *verify {
		integrity, err := format.CheckIntegrity(src.Data(), v)
		if err != nil {
			return fmt.Errorf("check integrity: %w", err)
		}
		info := export.NewIntegrityInfo(integrity)
		report.Integrity = &info
		if !info.ChecksumOK || !info.IdxOffsetOK {
			verifyErr = errIntegrity
		}
	}

	var strictErr error
	if *strict {
		if m, ok := v.Indices().Max(); ok {
			report.MaxID = &m
			if m >= uint64(v.PaletteSize()) {
				strictErr = fmt.Errorf("palette id %d (palette size %d): %w", m, v.PaletteSize(), recon.ErrOutOfBounds)
			}
		}
	}

	if *asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
	} else {
		printInspect(out, report)
	}
	return errors.Join(verifyErr, strictErr)
}

func newInspectReport(src *source.Video) inspectReport {
	v := src.Video()
	return inspectReport{
		URI:           src.URI(),
		Kind:          string(src.Kind()),
		Size:          int64(len(src.Data())),
		Header:        export.NewHeaderInfo(v.Header()),
		PaletteOffset: v.PaletteOffset(),
		IndexOffset:   v.IndexOffset(),
		FooterOffset:  v.FooterOffset(),
		IdxOffset:     v.IdxOffset(),
		Checksum:      v.Checksum(),
	}
}

func printInspect(out io.Writer, r inspectReport) {
	h := r.Header
	fmt.Fprintf(out, "source:       %s (%s, %s)\n", r.URI, r.Kind, humanfmt.Bytes(r.Size))
	fmt.Fprintf(out, "version:      %s\n", h.Version)
	fmt.Fprintf(out, "dimensions:   %s\n", humanfmt.Dims(h.Width, h.Height, h.Depth, h.Frames))
	fmt.Fprintf(out, "voxels:       %s\n", humanfmt.CountUint64(h.TotalVoxels))
	fmt.Fprintf(out, "palette:      %d entries at offset %d\n", h.PaletteSize, r.PaletteOffset)
	fmt.Fprintf(out, "indices:      %d-byte ids at offset %d\n", h.IndexBytes, r.IndexOffset)
	fmt.Fprintf(out, "flags:        %s\n", h.Flags)
	fmt.Fprintf(out, "  sorted=%t precision=%s compression=%s shape=%s color=%s interp=%s\n",
		h.Sorted, h.Precision, h.Compression, h.Shape, h.ColorSpace, h.Interp)
	fmt.Fprintf(out, "footer:       offset %d, idxoffset %d, checksum %08x\n", r.FooterOffset, r.IdxOffset, r.Checksum)

	if i := r.Integrity; i != nil {
		fmt.Fprintf(out, "checksum:     %s (stored %08x, computed %08x)\n", okString(i.ChecksumOK), i.StoredChecksum, i.ComputedChecksum)
		fmt.Fprintf(out, "idxoffset:    %s (stored %d, expected %d)\n", okString(i.IdxOffsetOK), i.StoredIdxOffset, i.ExpectedIdxOffset)
	}
	if r.MaxID != nil {
		fmt.Fprintf(out, "max id:       %d\n", *r.MaxID)
	}
}

func okString(ok bool) string {
	if ok {
		return "ok"
	}
	return "MISMATCH"
}
