package recon

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/eunmann/splat4d/pkg/format"
)

// ReconstructFrame reconstructs every depth plane of a frame concurrently.
// The result is indexed by depth.
func ReconstructFrame(ctx context.Context, v *format.Video, frame uint32, mask []bool) ([]*Image, error) {
	h := v.Header()
	if frame >= h.Frames {
		return nil, fmt.Errorf("frame %d of %d: %w", frame, h.Frames, ErrOutOfBounds)
	}

	images := make([]*Image, h.Depth)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for d := range h.Depth {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p, err := Slice(v, frame, d)
			if err != nil {
				return err
			}
			img, err := Reconstruct(v, p, mask)
			if err != nil {
				return fmt.Errorf("reconstruct depth %d: %w", d, err)
			}
			// Each goroutine owns its own index.
			images[d] = img
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return images, nil
}
