package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/eunmann/splat4d/pkg/fileutil"
	"github.com/eunmann/splat4d/pkg/format"
	"github.com/eunmann/splat4d/pkg/recon"
)

// SummaryVersion is the current summary.json format version.
const SummaryVersion = 1

// SummaryFile is the summary file name inside an export directory.
const SummaryFile = "summary.json"

// Summary describes an export directory: the source video, its header and
// integrity, the most used palette entries and every file written.
type Summary struct {
	Version    int                 `json:"version"`
	CreatedAt  time.Time           `json:"created_at"`
	Source     SourceInfo          `json:"source"`
	Header     HeaderInfo          `json:"header"`
	Integrity  IntegrityInfo       `json:"integrity"`
	ColorScale ScaleInfo           `json:"color_scale"`
	TopPalette []UsageInfo         `json:"top_palette"`
	Files      map[string]FileInfo `json:"files"`
}

// SourceInfo identifies the exported video.
type SourceInfo struct {
	URI    string `json:"uri"`
	Size   int64  `json:"size"`
	SHA256 string `json:"sha256"`
}

// HeaderInfo is the decoded header with flag fields spelled out.
type HeaderInfo struct {
	Version     string `json:"version"`
	Width       uint32 `json:"width"`
	Height      uint32 `json:"height"`
	Depth       uint32 `json:"depth"`
	Frames      uint32 `json:"frames"`
	PaletteSize uint32 `json:"palette_size"`
	IndexBytes  int    `json:"index_bytes"`
	TotalVoxels uint64 `json:"total_voxels"`
	Flags       string `json:"flags"`
	Sorted      bool   `json:"sorted"`
	Precision   string `json:"precision"`
	Compression string `json:"compression"`
	Shape       string `json:"shape"`
	ColorSpace  string `json:"color_space"`
	Interp      string `json:"interpolation"`
}

// IntegrityInfo compares the stored footer with recomputed values.
type IntegrityInfo struct {
	StoredChecksum    uint32 `json:"stored_checksum"`
	ComputedChecksum  uint32 `json:"computed_checksum"`
	ChecksumOK        bool   `json:"checksum_ok"`
	StoredIdxOffset   uint64 `json:"stored_idxoffset"`
	ExpectedIdxOffset uint64 `json:"expected_idxoffset"`
	IdxOffsetOK       bool   `json:"idxoffset_ok"`
}

// ScaleInfo is the detected color normalization.
type ScaleInfo struct {
	RGB   float32 `json:"rgb"`
	Alpha float32 `json:"alpha"`
}

// UsageInfo is one ranked palette entry.
type UsageInfo struct {
	ID    uint64  `json:"id"`
	Count uint64  `json:"count"`
	Share float64 `json:"share"`
}

// FileInfo describes a single exported file.
type FileInfo struct {
	Size     int64  `json:"size"`
	Checksum string `json:"checksum"` // SHA-256 hex
}

// NewHeaderInfo flattens a header for JSON.
func NewHeaderInfo(h format.Header) HeaderInfo {
	f := h.Flags
	return HeaderInfo{
		Version:     h.Version.String(),
		Width:       h.Width,
		Height:      h.Height,
		Depth:       h.Depth,
		Frames:      h.Frames,
		PaletteSize: h.PaletteSize,
		IndexBytes:  h.IndexWidth().Bytes(),
		TotalVoxels: h.TotalVoxels(),
		Flags:       f.String(),
		Sorted:      f.Sorted(),
		Precision:   f.Precision().String(),
		Compression: f.Compression().String(),
		Shape:       f.Shape().String(),
		ColorSpace:  f.ColorSpace().String(),
		Interp:      f.Interpolation().String(),
	}
}

// NewIntegrityInfo flattens an integrity report for JSON.
func NewIntegrityInfo(i format.Integrity) IntegrityInfo {
	return IntegrityInfo{
		StoredChecksum:    i.StoredChecksum,
		ComputedChecksum:  i.ComputedChecksum,
		ChecksumOK:        i.ChecksumOK(),
		StoredIdxOffset:   i.StoredIdxOffset,
		ExpectedIdxOffset: i.ExpectedIdxOffset,
		IdxOffsetOK:       i.IdxOffsetOK(),
	}
}

// BuildSummary describes v without any files. data is the raw container.
func BuildSummary(uri string, data []byte, v *format.Video, counts []uint64, top int) (*Summary, error) {
	integrity, err := format.CheckIntegrity(data, v)
	if err != nil {
		return nil, fmt.Errorf("check integrity: %w", err)
	}

	ranked := recon.Rank(counts)
	ranked = ranked[:min(max(top, 0), len(ranked))]
	usage := make([]UsageInfo, len(ranked))
	for i, u := range ranked {
		usage[i] = UsageInfo{ID: u.ID, Count: u.Count, Share: u.Share}
	}

	scale := recon.ColorScale(v)
	return &Summary{
		Version:   SummaryVersion,
		CreatedAt: time.Now().UTC(),
		Source: SourceInfo{
			URI:    uri,
			Size:   int64(len(data)),
			SHA256: fileutil.SHA256Hex(data),
		},
		Header:     NewHeaderInfo(v.Header()),
		Integrity:  NewIntegrityInfo(integrity),
		ColorScale: ScaleInfo{RGB: scale.RGB, Alpha: scale.Alpha},
		TopPalette: usage,
		Files:      make(map[string]FileInfo),
	}, nil
}

// WriteSummary records size and checksum of each named file in dir, then
// writes summary.json.
func WriteSummary(dir string, s *Summary, files []string) error {
	for _, name := range files {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("stat %s: %w", name, err)
		}
		checksum, err := fileutil.SHA256File(path)
		if err != nil {
			return fmt.Errorf("checksum %s: %w", name, err)
		}
		s.Files[name] = FileInfo{Size: info.Size(), Checksum: checksum}
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	return fileutil.WriteTmpThenMove(dir, filepath.Join(dir, SummaryFile), func(tmpPath string) error {
		return os.WriteFile(tmpPath, data, 0o644)
	})
}

// ReadSummary reads summary.json from dir.
func ReadSummary(dir string) (*Summary, error) {
	data, err := os.ReadFile(filepath.Join(dir, SummaryFile))
	if err != nil {
		return nil, fmt.Errorf("read summary: %w", err)
	}
	var s Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal summary: %w", err)
	}
	return &s, nil
}

// VerifySummary checks that every recorded file still matches.
func VerifySummary(dir string, s *Summary) error {
	for name, info := range s.Files {
		path := filepath.Join(dir, name)
		stat, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("file %s: %w", name, err)
		}
		if stat.Size() != info.Size {
			return fmt.Errorf("file %s: size mismatch (got %d, want %d)", name, stat.Size(), info.Size)
		}
		checksum, err := fileutil.SHA256File(path)
		if err != nil {
			return fmt.Errorf("checksum %s: %w", name, err)
		}
		if checksum != info.Checksum {
			return fmt.Errorf("file %s: checksum mismatch", name)
		}
	}
	return nil
}
