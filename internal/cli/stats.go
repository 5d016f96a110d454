package cli

import (
	"cmp"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"slices"
	"text/tabwriter"

	"github.com/eunmann/splat4d/pkg/humanfmt"
	"github.com/eunmann/splat4d/pkg/recon"
)

func runHistogram(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("histogram", flag.ContinueOnError)
	var c common
	c.register(fs)
	top := fs.Int("top", defaultTop, "number of entries to list, 0 for all")

	uri, err := c.parse(fs, args)
	if err != nil {
		return err
	}
	src, done, err := c.open(ctx, uri)
	if err != nil {
		return err
	}
	defer done()

	c.phase("histogram")
	counts, err := recon.Histogram(src.Video())
	if err != nil {
		return fmt.Errorf("histogram: %w", err)
	}
	ranked := recon.Rank(counts)
	if *top > 0 {
		ranked = ranked[:min(*top, len(ranked))]
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "rank\tid\tcount\tshare\t")
	for i, u := range ranked {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%s\t\n", i+1, u.ID, u.Count, humanfmt.Percent(u.Share))
	}
	return tw.Flush()
}

type relevanceRow struct {
	id     uint64
	weight float64
}

func runRelevance(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("relevance", flag.ContinueOnError)
	var c common
	c.register(fs)
	frame := fs.Float64("frame", 0, "frame time t (required)")
	top := fs.Int("top", defaultTop, "number of entries to list, 0 for all")

	uri, err := c.parse(fs, args)
	if err != nil {
		return err
	}
	if !flagSet(fs, "frame") {
		return errors.New("--frame is required")
	}
	src, done, err := c.open(ctx, uri)
	if err != nil {
		return err
	}
	defer done()

	v := src.Video()
	weights := recon.TemporalRelevance(v, *frame)
	rows := make([]relevanceRow, len(weights))
	for id, w := range weights {
		rows[id] = relevanceRow{id: uint64(id), weight: w}
	}
	slices.SortFunc(rows, func(a, b relevanceRow) int {
		if d := cmp.Compare(b.weight, a.weight); d != 0 {
			return d
		}
		return cmp.Compare(a.id, b.id)
	})
	if *top > 0 {
		rows = rows[:min(*top, len(rows))]
	}

	palette := v.Palette()
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "id\tmu_t\tsigma_t\trelevance\t")
	for _, r := range rows {
		e := palette[r.id]
		fmt.Fprintf(tw, "%d\t%g\t%g\t%.6f\t\n", r.id, e.MuT, e.SigmaT, r.weight)
	}
	return tw.Flush()
}
