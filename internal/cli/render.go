package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/eunmann/splat4d/internal/logctx"
	"github.com/eunmann/splat4d/pkg/export"
	"github.com/eunmann/splat4d/pkg/format"
	"github.com/eunmann/splat4d/pkg/logging"
	"github.com/eunmann/splat4d/pkg/recon"
)

// maskFlags selects the active palette entries for render and export.
type maskFlags struct {
	top    int
	active string
	hide   string
}

func (m *maskFlags) register(fs *flag.FlagSet) {
	fs.IntVar(&m.top, "top", 0, "only render the K most used palette entries")
	fs.StringVar(&m.active, "active", "", "only render these palette ids, e.g. 1,2,3")
	fs.StringVar(&m.hide, "hide", "", "hide these palette ids")
}

// build returns nil when every entry is active.
func (m *maskFlags) build(v *format.Video) ([]bool, error) {
	if m.top > 0 && m.active != "" {
		return nil, errors.New("--top and --active are mutually exclusive")
	}
	n := v.PaletteSize()

	var mask []bool
	switch {
	case m.active != "":
		ids, err := parseIDs(m.active)
		if err != nil {
			return nil, fmt.Errorf("--active: %w", err)
		}
		if mask, err = recon.MaskFromIDs(n, ids); err != nil {
			return nil, fmt.Errorf("--active: %w", err)
		}
	case m.top > 0:
		counts, err := recon.Histogram(v)
		if err != nil {
			return nil, fmt.Errorf("histogram: %w", err)
		}
		mask, _ = recon.MaskFromIDs(n, recon.TopK(counts, m.top))
	}

	hidden, err := parseIDs(m.hide)
	if err != nil {
		return nil, fmt.Errorf("--hide: %w", err)
	}
	if len(hidden) == 0 {
		return mask, nil
	}
	if mask == nil {
		mask, err = recon.MaskWithout(n, hidden)
		if err != nil {
			return nil, fmt.Errorf("--hide: %w", err)
		}
		return mask, nil
	}
	for _, id := range hidden {
		if id >= uint64(n) {
			return nil, fmt.Errorf("--hide: palette id %d (palette size %d): %w", id, n, recon.ErrOutOfBounds)
		}
		mask[id] = false
	}
	return mask, nil
}

func runRender(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	var c common
	c.register(fs)
	var m maskFlags
	m.register(fs)
	frame := fs.Uint("frame", 0, "frame index")
	depth := fs.Uint("depth", 0, "depth slice")
	outPath := fs.String("out", "", "output PNG file")

	uri, err := c.parse(fs, args)
	if err != nil {
		return err
	}
	if *outPath == "" {
		return errors.New("--out is required")
	}
	src, done, err := c.open(ctx, uri)
	if err != nil {
		return err
	}
	defer done()

	c.phase("render")
	start := time.Now()
	v := src.Video()
	mask, err := m.build(v)
	if err != nil {
		return err
	}

	p, err := recon.Slice(v, uint32(*frame), uint32(*depth))
	if err != nil {
		return err
	}
	img, err := recon.Reconstruct(v, p, mask)
	if err != nil {
		return fmt.Errorf("reconstruct: %w", err)
	}
	if err := export.WritePNG(*outPath, img); err != nil {
		return fmt.Errorf("write %s: %w", *outPath, err)
	}

	log := logctx.FromContext(logctx.WithPlane(ctx, uint32(*frame), uint32(*depth)))
	logging.FileCreated(log, "render", time.Since(start)).
		Str("path", *outPath).
		LogDebug("plane rendered")
	fmt.Fprintf(out, "wrote %s (%dx%d)\n", *outPath, img.Width, img.Height)
	return nil
}

func runExport(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	var c common
	c.register(fs)
	var m maskFlags
	m.register(fs)
	outDir := fs.String("out", "", "output directory")
	concurrency := fs.Int("concurrency", 0, "planes encoded in parallel (0 = GOMAXPROCS)")
	resume := fs.Bool("resume", false, "skip planes already written")
	relevanceFrame := fs.Float64("relevance-frame", 0, "frame time t for the relevance column of palette.parquet")

	uri, err := c.parse(fs, args)
	if err != nil {
		return err
	}
	if *outDir == "" {
		return errors.New("--out is required")
	}
	ctx = logctx.WithSource(ctx, uri)
	src, done, err := c.open(ctx, uri)
	if err != nil {
		return err
	}
	defer done()

	c.phase("export")
	v := src.Video()
	mask, err := m.build(v)
	if err != nil {
		return err
	}

	res, err := export.Run(ctx, uri, src.Data(), v, export.Config{
		Dir:            *outDir,
		Active:         activeIDs(mask),
		SummaryTop:     defaultTop,
		RelevanceFrame: *relevanceFrame,
		Concurrency:    *concurrency,
		Resume:         *resume,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "exported %d planes (%d skipped) to %s\n", res.Frames.Written, res.Frames.Skipped, res.Dir)
	return nil
}

// activeIDs converts a mask back to the id list export.Config expects.
func activeIDs(mask []bool) []uint64 {
	if mask == nil {
		return nil
	}
	ids := make([]uint64, 0, len(mask))
	for id, on := range mask {
		if on {
			ids = append(ids, uint64(id))
		}
	}
	return ids
}
