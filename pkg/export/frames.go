package export

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/eunmann/splat4d/internal/logctx"
	"github.com/eunmann/splat4d/pkg/fileutil"
	"github.com/eunmann/splat4d/pkg/format"
	"github.com/eunmann/splat4d/pkg/logging"
	"github.com/eunmann/splat4d/pkg/recon"
)

// FramesOptions configures Frames.
type FramesOptions struct {
	Dir string
	// Mask selects active palette entries; nil means all.
	Mask []bool
	// Concurrency bounds planes in flight. <= 0 means GOMAXPROCS.
	Concurrency int
	// Resume skips planes whose PNG already exists and is non-empty.
	Resume bool
}

// FramesResult lists the plane files in (frame, depth) order.
type FramesResult struct {
	Files   []string
	Written int64
	Skipped int64
}

// Frames writes every (frame, depth) plane of v as a PNG under opts.Dir.
func Frames(ctx context.Context, v *format.Video, opts FramesOptions) (FramesResult, error) {
	h := v.Header()
	total := uint64(h.Frames) * uint64(h.Depth)
	if total > uint64(maxPlanes) {
		return FramesResult{}, fmt.Errorf("export %d planes: more than %d", total, maxPlanes)
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}

	log := logctx.FromContext(ctx)
	tracker := logging.NewProgressTracker("planes", int64(total), log)
	files := make([]string, total)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for f := range h.Frames {
		for d := range h.Depth {
			i := uint64(f)*uint64(h.Depth) + uint64(d)
			name := PlaneName(f, d)
			files[i] = name

			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				path := filepath.Join(opts.Dir, name)
				if opts.Resume && fileutil.IsNonEmpty(path) {
					tracker.RecordSkip()
					return nil
				}

				start := time.Now()
				if err := writePlane(v, f, d, opts.Mask, path); err != nil {
					return err
				}
				tracker.RecordCompletion(time.Since(start))

				planeLog := logctx.FromContext(logctx.WithPlane(gctx, f, d))
				planeLog.Debug().Str("file", name).Msg("plane written")
				tracker.MaybeLog("exporting planes")
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return FramesResult{}, err
	}

	completed, skipped, _ := tracker.Progress()
	logging.PhaseComplete(log, "planes", tracker.Elapsed()).
		Count("planes_written", completed).
		Count("planes_skipped", skipped).
		Log("planes exported")

	return FramesResult{Files: files, Written: completed, Skipped: skipped}, nil
}

// maxPlanes keeps the file list addressable on 32-bit platforms.
const maxPlanes = 1 << 30

func writePlane(v *format.Video, frame, depth uint32, mask []bool, path string) error {
	p, err := recon.Slice(v, frame, depth)
	if err != nil {
		return err
	}
	img, err := recon.Reconstruct(v, p, mask)
	if err != nil {
		return err
	}
	if err := WritePNG(path, img); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
