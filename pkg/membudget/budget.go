// Package membudget caps the memory spent on videos that cannot be mapped
// from disk.
//
// Mapped files cost page cache, not heap. Decompressed .zst videos live on the
// heap in full, so loaders reserve their decoded size here first and release it
// when the video is closed.
package membudget

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/eunmann/splat4d/pkg/sysmem"
)

// DefaultBudgetBytes is used when system RAM cannot be detected.
const DefaultBudgetBytes uint64 = 2 * 1024 * 1024 * 1024

// ErrExceedsBudget is returned for reservations larger than the whole budget.
var ErrExceedsBudget = errors.New("exceeds memory budget")

// BudgetSource indicates how the memory budget was determined.
type BudgetSource string

const (
	// BudgetSourceAuto50Pct is half of detected RAM.
	BudgetSourceAuto50Pct BudgetSource = "auto-50pct"
	// BudgetSourceDefault is DefaultBudgetBytes.
	BudgetSourceDefault BudgetSource = "default"
	// BudgetSourceCLI is the --mem-budget flag.
	BudgetSourceCLI BudgetSource = "cli"
	// BudgetSourceEnv is the SPLAT4D_MEM_BUDGET environment variable.
	BudgetSourceEnv BudgetSource = "env"
)

// Budget tracks reserved bytes against a fixed total.
//
// Budget is safe for concurrent use.
type Budget struct {
	total  uint64
	source BudgetSource

	mu    sync.Mutex
	cond  *sync.Cond
	inUse uint64
}

// Config holds configuration for creating a Budget.
type Config struct {
	TotalBytes uint64
	Source     BudgetSource
}

// New creates a Budget.
func New(cfg Config) *Budget {
	b := &Budget{
		total:  cfg.TotalBytes,
		source: cfg.Source,
	}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// NewFromSystemRAM creates a Budget of half the system RAM, or
// DefaultBudgetBytes when RAM cannot be detected.
func NewFromSystemRAM() *Budget {
	result := sysmem.Total()
	if !result.Reliable {
		return New(Config{TotalBytes: DefaultBudgetBytes, Source: BudgetSourceDefault})
	}
	return New(Config{TotalBytes: result.TotalBytes / 2, Source: BudgetSourceAuto50Pct})
}

// Total returns the total budget in bytes.
func (b *Budget) Total() uint64 {
	return b.total
}

// Source returns how the budget was determined.
func (b *Budget) Source() BudgetSource {
	return b.source
}

// InUse returns the currently reserved bytes.
func (b *Budget) InUse() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.inUse
}

// Available returns total minus reserved bytes.
func (b *Budget) Available() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.total - b.inUse
}

// TryReserve reserves n bytes if they fit right now.
func (b *Budget) TryReserve(n uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tryReserveLocked(n)
}

// Reserve blocks until n bytes can be reserved. Requests larger than the
// total fail with ErrExceedsBudget instead of waiting forever.
func (b *Budget) Reserve(n uint64) error {
	if n > b.total {
		return fmt.Errorf("reserve %d of %d bytes: %w", n, b.total, ErrExceedsBudget)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for !b.tryReserveLocked(n) {
		b.cond.Wait()
	}
	return nil
}

func (b *Budget) tryReserveLocked(n uint64) bool {
	if n > b.total-b.inUse {
		return false
	}
	b.inUse += n
	return true
}

// Release returns n bytes. Releasing more than is reserved clamps to zero.
func (b *Budget) Release(n uint64) {
	b.mu.Lock()
	b.inUse -= min(n, b.inUse)
	b.mu.Unlock()
	b.cond.Broadcast()
}

// Stats is a snapshot of a Budget.
type Stats struct {
	TotalBytes     uint64
	InUseBytes     uint64
	AvailableBytes uint64
	Source         BudgetSource
	UsagePercent   float64
}

// Stats returns current budget statistics.
func (b *Budget) Stats() Stats {
	b.mu.Lock()
	inUse := b.inUse
	b.mu.Unlock()

	var pct float64
	if b.total > 0 {
		pct = float64(inUse) / float64(b.total) * 100
	}
	return Stats{
		TotalBytes:     b.total,
		InUseBytes:     inUse,
		AvailableBytes: b.total - inUse,
		Source:         b.source,
		UsagePercent:   pct,
	}
}

var sizeSuffixes = map[string]float64{
	"":    1,
	"B":   1,
	"KB":  1e3,
	"K":   1 << 10,
	"KiB": 1 << 10,
	"MB":  1e6,
	"M":   1 << 20,
	"MiB": 1 << 20,
	"GB":  1e9,
	"G":   1 << 30,
	"GiB": 1 << 30,
	"TB":  1e12,
	"T":   1 << 40,
	"TiB": 1 << 40,
}

// ParseHumanSize parses sizes like "512MiB", "4G" or "1.5GB".
// Supported suffixes: B, KB, KiB, MB, MiB, GB, GiB, TB, TiB and the
// single letters K, M, G, T as binary units.
func ParseHumanSize(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty size string")
	}

	numEnd := strings.IndexFunc(s, func(c rune) bool {
		return (c < '0' || c > '9') && c != '.'
	})
	if numEnd < 0 {
		numEnd = len(s)
	}

	num, err := strconv.ParseFloat(s[:numEnd], 64)
	if err != nil || num < 0 {
		return 0, fmt.Errorf("invalid number: %q", s[:numEnd])
	}
	mult, ok := sizeSuffixes[strings.TrimSpace(s[numEnd:])]
	if !ok {
		return 0, fmt.Errorf("unknown size suffix: %q", s[numEnd:])
	}
	return uint64(num * mult), nil
}
