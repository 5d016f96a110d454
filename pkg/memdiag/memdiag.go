// Package memdiag logs Go heap usage next to the memory budget.
//
// Enable periodic debug logging with SPLAT4D_MEM_DEBUG=1.
// Enable the pprof server with SPLAT4D_MEM_PPROF=1 (listens on :6060).
package memdiag

import (
	"net/http"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	// Registers pprof handlers on DefaultServeMux for the pprof HTTP server.
	_ "net/http/pprof"

	"github.com/eunmann/splat4d/pkg/humanfmt"
	"github.com/eunmann/splat4d/pkg/logging"
	"github.com/eunmann/splat4d/pkg/membudget"
)

const (
	// DebugEnv enables the tracker.
	DebugEnv = "SPLAT4D_MEM_DEBUG"
	// PprofEnv starts the pprof server alongside the tracker.
	PprofEnv = "SPLAT4D_MEM_PPROF"

	pprofAddr = ":6060"
)

// Config holds configuration for memory diagnostics.
type Config struct {
	Enabled      bool
	PprofEnabled bool
	LogInterval  time.Duration
}

// DefaultConfig reads the configuration from the environment.
func DefaultConfig() Config {
	return Config{
		Enabled:      os.Getenv(DebugEnv) == "1",
		PprofEnabled: os.Getenv(PprofEnv) == "1",
		LogInterval:  5 * time.Second,
	}
}

// Stats is the subset of runtime.MemStats worth logging.
type Stats struct {
	HeapAlloc  uint64
	HeapSys    uint64
	HeapInuse  uint64
	StackInuse uint64
	Sys        uint64
	NumGC      uint32
}

// Read reads current memory statistics.
func Read() Stats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return Stats{
		HeapAlloc:  m.HeapAlloc,
		HeapSys:    m.HeapSys,
		HeapInuse:  m.HeapInuse,
		StackInuse: m.StackInuse,
		Sys:        m.Sys,
		NumGC:      m.NumGC,
	}
}

// Tracker logs heap usage per phase and remembers the peak.
// A disabled tracker records nothing.
type Tracker struct {
	config  Config
	budget  *membudget.Budget
	stopCh  chan struct{}
	doneCh  chan struct{}
	started atomic.Bool

	mu       sync.Mutex
	phase    string
	peakHeap uint64
}

// NewTracker creates a tracker. budget may be nil.
func NewTracker(config Config, budget *membudget.Budget) *Tracker {
	return &Tracker{
		config: config,
		budget: budget,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
		phase:  "init",
	}
}

// Start begins periodic logging if enabled.
func (t *Tracker) Start() {
	if !t.config.Enabled || !t.started.CompareAndSwap(false, true) {
		return
	}

	log := logging.L()
	log.Info().Msg("memory diagnostics enabled")

	if t.config.PprofEnabled {
		go func() {
			log.Info().Str("addr", pprofAddr).Msg("starting pprof server")
			if err := http.ListenAndServe(pprofAddr, nil); err != nil {
				log.Error().Err(err).Msg("pprof server failed")
			}
		}()
	}

	go t.logLoop()
}

// Stop stops periodic logging and logs a final sample.
func (t *Tracker) Stop() {
	if !t.started.Load() {
		return
	}
	close(t.stopCh)
	<-t.doneCh
}

// SetPhase names the current phase and logs a sample.
func (t *Tracker) SetPhase(phase string) {
	t.mu.Lock()
	t.phase = phase
	t.mu.Unlock()
	t.LogNow("phase_change")
}

// PeakHeap returns the largest heap allocation sampled.
func (t *Tracker) PeakHeap() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.peakHeap
}

// LogNow samples and logs memory stats immediately.
func (t *Tracker) LogNow(reason string) {
	if !t.config.Enabled {
		return
	}

	stats := Read()
	t.mu.Lock()
	phase := t.phase
	t.peakHeap = max(t.peakHeap, stats.HeapAlloc)
	peakHeap := t.peakHeap
	t.mu.Unlock()

	e := logging.L().Debug().
		Str("reason", reason).
		Str("phase", phase).
		Str("heap_alloc", humanfmt.BytesUint64(stats.HeapAlloc)).
		Str("heap_inuse", humanfmt.BytesUint64(stats.HeapInuse)).
		Str("stack_inuse", humanfmt.BytesUint64(stats.StackInuse)).
		Str("sys_total", humanfmt.BytesUint64(stats.Sys)).
		Str("peak_heap", humanfmt.BytesUint64(peakHeap)).
		Uint32("num_gc", stats.NumGC)
	if t.budget != nil {
		e = e.Str("budget_inuse", humanfmt.BytesUint64(t.budget.InUse())).
			Str("budget_total", humanfmt.BytesUint64(t.budget.Total()))
	}
	e.Msg("memory stats")
}

func (t *Tracker) logLoop() {
	defer close(t.doneCh)

	ticker := time.NewTicker(t.config.LogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stopCh:
			t.LogNow("shutdown")
			return
		case <-ticker.C:
			t.LogNow("periodic")
		}
	}
}
