package recon

import (
	"math"

	"github.com/eunmann/splat4d/pkg/format"
)

// SigmaFloor replaces temporal spreads below it.
const SigmaFloor = 1e-6

// TemporalRelevance weights every palette entry by how close its temporal mean
// is to frame t: exp(-0.5 * ((t - mu_t) / max(sigma_t, SigmaFloor))^2).
// Non-finite weights become 0. The result is indexed by palette id and does not
// depend on which voxels reference the entry.
func TemporalRelevance(v *format.Video, t float64) []float64 {
	palette := v.Palette()
	weights := make([]float64, len(palette))
	for id, e := range palette {
		weights[id] = Relevance(t, float64(e.MuT), float64(e.SigmaT))
	}
	return weights
}

// Relevance is the Gaussian kernel for one entry.
func Relevance(t, mu, sigma float64) float64 {
	if sigma < SigmaFloor {
		sigma = SigmaFloor
	}
	z := (t - mu) / sigma
	w := math.Exp(-0.5 * z * z)
	if math.IsNaN(w) || math.IsInf(w, 0) {
		return 0
	}
	return w
}
