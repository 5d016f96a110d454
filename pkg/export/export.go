// Package export writes a decoded video to disk: one PNG per (frame, depth)
// plane, palette statistics as Parquet, and a summary.json manifest.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/eunmann/splat4d/internal/logctx"
	"github.com/eunmann/splat4d/pkg/fileutil"
	"github.com/eunmann/splat4d/pkg/format"
	"github.com/eunmann/splat4d/pkg/logging"
	"github.com/eunmann/splat4d/pkg/recon"
)

// PaletteFile is the Parquet file name inside an export directory.
const PaletteFile = "palette.parquet"

// Config configures Run.
type Config struct {
	Dir string
	// Active restricts rendering to these palette ids; nil renders all.
	Active []uint64
	// SummaryTop is the number of ranked entries listed in summary.json.
	SummaryTop int
	// RelevanceFrame is the frame t used for the relevance column.
	RelevanceFrame float64
	Concurrency    int
	Resume         bool
}

// Result lists what Run wrote.
type Result struct {
	Dir     string
	Frames  FramesResult
	Summary *Summary
}

// Run exports v. data must be the bytes v was decoded from.
func Run(ctx context.Context, uri string, data []byte, v *format.Video, cfg Config) (*Result, error) {
	start := time.Now()
	log := logctx.FromContext(ctx)

	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}
	if err := fileutil.CleanupTmpFiles(cfg.Dir); err != nil {
		return nil, fmt.Errorf("clean export dir: %w", err)
	}

	counts, err := recon.Histogram(v)
	if err != nil {
		return nil, fmt.Errorf("histogram: %w", err)
	}

	var mask []bool
	if cfg.Active != nil {
		if mask, err = recon.MaskFromIDs(v.PaletteSize(), cfg.Active); err != nil {
			return nil, fmt.Errorf("active set: %w", err)
		}
	}

	frames, err := Frames(ctx, v, FramesOptions{
		Dir:         cfg.Dir,
		Mask:        mask,
		Concurrency: cfg.Concurrency,
		Resume:      cfg.Resume,
	})
	if err != nil {
		return nil, fmt.Errorf("export planes: %w", err)
	}

	rows, err := PaletteRows(v, counts, cfg.RelevanceFrame)
	if err != nil {
		return nil, err
	}
	if err := WritePaletteParquet(filepath.Join(cfg.Dir, PaletteFile), rows); err != nil {
		return nil, fmt.Errorf("write palette stats: %w", err)
	}

	summary, err := BuildSummary(uri, data, v, counts, cfg.SummaryTop)
	if err != nil {
		return nil, err
	}
	files := append([]string{PaletteFile}, frames.Files...)
	if err := WriteSummary(cfg.Dir, summary, files); err != nil {
		return nil, fmt.Errorf("write summary: %w", err)
	}

	logging.PhaseComplete(log, "export", time.Since(start)).
		Str("dir", cfg.Dir).
		Int("files", len(files)+1).
		Log("export complete")

	return &Result{Dir: cfg.Dir, Frames: frames, Summary: summary}, nil
}
