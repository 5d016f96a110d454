package export

import (
	"fmt"
	"image/png"
	"io"

	"github.com/eunmann/splat4d/pkg/fileutil"
	"github.com/eunmann/splat4d/pkg/recon"
)

var pngEncoder = png.Encoder{CompressionLevel: png.BestSpeed}

// PlaneName returns the file name of the PNG for (frame, depth).
func PlaneName(frame, depth uint32) string {
	return fmt.Sprintf("f%05d_d%03d.png", frame, depth)
}

// WritePNG encodes img as an 8-bit opaque PNG at path.
func WritePNG(path string, img *recon.Image) error {
	return fileutil.WriteFile(path, func(w io.Writer) error {
		if err := pngEncoder.Encode(w, img.NRGBA()); err != nil {
			return fmt.Errorf("encode png: %w", err)
		}
		return nil
	})
}
