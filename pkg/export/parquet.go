package export

import (
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"

	"github.com/eunmann/splat4d/pkg/fileutil"
	"github.com/eunmann/splat4d/pkg/format"
	"github.com/eunmann/splat4d/pkg/recon"
)

// PaletteRow is one palette entry with its usage and temporal relevance.
type PaletteRow struct {
	ID        uint64  `parquet:"id"`
	Rank      uint64  `parquet:"rank"`
	Count     uint64  `parquet:"count"`
	Share     float64 `parquet:"share"`
	Relevance float64 `parquet:"relevance"`
	MuX       float32 `parquet:"mu_x"`
	MuY       float32 `parquet:"mu_y"`
	MuZ       float32 `parquet:"mu_z"`
	SigmaX    float32 `parquet:"sigma_x"`
	SigmaY    float32 `parquet:"sigma_y"`
	SigmaZ    float32 `parquet:"sigma_z"`
	MuT       float32 `parquet:"mu_t"`
	SigmaT    float32 `parquet:"sigma_t"`
	R         float32 `parquet:"r"`
	G         float32 `parquet:"g"`
	B         float32 `parquet:"b"`
	Alpha     float32 `parquet:"alpha"`
}

// PaletteRows joins counts (from recon.Histogram) with the palette and the
// temporal relevance at frame t. Rows come out in rank order.
func PaletteRows(v *format.Video, counts []uint64, t float64) ([]PaletteRow, error) {
	palette := v.Palette()
	if len(counts) != len(palette) {
		return nil, fmt.Errorf("%d counts for palette of %d: %w", len(counts), len(palette), recon.ErrOutOfBounds)
	}

	weights := recon.TemporalRelevance(v, t)
	ranked := recon.Rank(counts)
	rows := make([]PaletteRow, len(ranked))
	for i, u := range ranked {
		e := palette[u.ID]
		rows[i] = PaletteRow{
			ID:        u.ID,
			Rank:      uint64(i),
			Count:     u.Count,
			Share:     u.Share,
			Relevance: weights[u.ID],
			MuX:       e.MuX,
			MuY:       e.MuY,
			MuZ:       e.MuZ,
			SigmaX:    e.SigmaX,
			SigmaY:    e.SigmaY,
			SigmaZ:    e.SigmaZ,
			MuT:       e.MuT,
			SigmaT:    e.SigmaT,
			R:         e.R,
			G:         e.G,
			B:         e.B,
			Alpha:     e.Alpha,
		}
	}
	return rows, nil
}

// WritePaletteParquet writes rows as a single-row-group Parquet file.
func WritePaletteParquet(path string, rows []PaletteRow) error {
	return fileutil.WriteFile(path, func(w io.Writer) error {
		pw := parquet.NewGenericWriter[PaletteRow](w)
		if _, err := pw.Write(rows); err != nil {
			pw.Close()
			return fmt.Errorf("write palette rows: %w", err)
		}
		if err := pw.Close(); err != nil {
			return fmt.Errorf("close parquet writer: %w", err)
		}
		return nil
	})
}

// ReadPaletteParquet reads a file written by WritePaletteParquet.
func ReadPaletteParquet(path string) ([]PaletteRow, error) {
	rows, err := parquet.ReadFile[PaletteRow](path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}
