package recon

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/eunmann/splat4d/pkg/format"
)

// Histogram counts how many voxels reference each palette id across every
// frame and depth. counts[id] is zero for unused entries.
func Histogram(v *format.Video) ([]uint64, error) {
	n := uint64(v.PaletteSize())
	counts := make([]uint64, n)

	t := v.Indices()
	for i := uint64(0); i < t.Len(); i++ {
		id := t.Flat(i)
		if id >= n {
			return nil, fmt.Errorf("palette id %d at voxel %d (palette size %d): %w", id, i, n, ErrOutOfBounds)
		}
		counts[id]++
	}
	return counts, nil
}

// Usage is one palette entry's share of the index tensor.
type Usage struct {
	ID    uint64
	Count uint64
	Share float64
}

// Rank orders palette ids by count, highest first, ties by ascending id.
func Rank(counts []uint64) []Usage {
	var total uint64
	for _, c := range counts {
		total += c
	}

	ranked := make([]Usage, len(counts))
	for id, c := range counts {
		ranked[id] = Usage{ID: uint64(id), Count: c}
		if total > 0 {
			ranked[id].Share = float64(c) / float64(total)
		}
	}

	slices.SortFunc(ranked, func(a, b Usage) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return ranked
}

// TopK returns the ids of the k most used entries in Rank order.
func TopK(counts []uint64, k int) []uint64 {
	ranked := Rank(counts)
	k = min(max(k, 0), len(ranked))

	ids := make([]uint64, k)
	for i := range ids {
		ids[i] = ranked[i].ID
	}
	return ids
}

// MaskFromIDs returns a mask of size n with only ids active.
func MaskFromIDs(n int, ids []uint64) ([]bool, error) {
	mask := make([]bool, n)
	for _, id := range ids {
		if id >= uint64(n) {
			return nil, fmt.Errorf("palette id %d (palette size %d): %w", id, n, ErrOutOfBounds)
		}
		mask[id] = true
	}
	return mask, nil
}

// MaskWithout returns a mask of size n with every entry active except ids.
func MaskWithout(n int, ids []uint64) ([]bool, error) {
	mask := make([]bool, n)
	for i := range mask {
		mask[i] = true
	}
	for _, id := range ids {
		if id >= uint64(n) {
			return nil, fmt.Errorf("palette id %d (palette size %d): %w", id, n, ErrOutOfBounds)
		}
		mask[id] = false
	}
	return mask, nil
}
