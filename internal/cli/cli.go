// Package cli implements the command-line interface for splat4d.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/eunmann/splat4d/internal/logctx"
	"github.com/eunmann/splat4d/pkg/logging"
	"github.com/eunmann/splat4d/pkg/memdiag"
	"github.com/eunmann/splat4d/pkg/membudget"
	"github.com/eunmann/splat4d/pkg/source"
)

// MemBudgetEnv overrides the automatic memory budget.
const MemBudgetEnv = "SPLAT4D_MEM_BUDGET"

// defaultTop is the number of entries listed when --top is not given.
const defaultTop = 10

const usage = `usage: splat4d <command> [options] <path|path.zst|s3://bucket/key>
commands: inspect, histogram, relevance, render, export`

// Run executes the CLI with the given arguments.
func Run(args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return run(ctx, args, os.Stdout)
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New(usage)
	}

	switch args[0] {
	case "inspect":
		return runInspect(ctx, args[1:], out)
	case "histogram":
		return runHistogram(ctx, args[1:], out)
	case "relevance":
		return runRelevance(ctx, args[1:], out)
	case "render":
		return runRender(ctx, args[1:], out)
	case "export":
		return runExport(ctx, args[1:], out)
	case "help", "-h", "--help":
		fmt.Fprintln(out, usage)
		return nil
	default:
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

// common holds the flags every subcommand accepts.
type common struct {
	debug     bool
	human     bool
	memBudget string

	tracker *memdiag.Tracker
}

func (c *common) register(fs *flag.FlagSet) {
	fs.BoolVar(&c.debug, "debug", false, "enable debug logging")
	fs.BoolVar(&c.human, "human", false, "human-readable console logs")
	fs.StringVar(&c.memBudget, "mem-budget", "", "memory budget for in-memory videos, e.g. 4GiB (env "+MemBudgetEnv+")")
}

// parse parses args, sets up logging and returns the single positional URI.
func (c *common) parse(fs *flag.FlagSet, args []string) (string, error) {
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	logging.Init(c.debug, c.human)
	if fs.NArg() != 1 {
		return "", fmt.Errorf("%s: exactly one video path or s3:// URI is required", fs.Name())
	}
	return fs.Arg(0), nil
}

// open loads uri under the configured memory budget and starts memory
// diagnostics. The returned func closes the video and stops diagnostics.
func (c *common) open(ctx context.Context, uri string) (*source.Video, func(), error) {
	budget, err := determineMemoryBudget(c.memBudget)
	if err != nil {
		return nil, nil, err
	}
	log := logctx.FromContext(ctx)
	log.Debug().
		Uint64("budget_bytes", budget.Total()).
		Str("budget_source", string(budget.Source())).
		Msg("memory budget")

	c.tracker = memdiag.NewTracker(memdiag.DefaultConfig(), budget)
	c.tracker.Start()
	c.tracker.SetPhase("open")

	v, err := source.Open(ctx, uri, source.Options{Budget: budget})
	if err != nil {
		c.tracker.Stop()
		return nil, nil, fmt.Errorf("open %s: %w", uri, err)
	}
	return v, func() {
		v.Close()
		c.tracker.Stop()
	}, nil
}

// phase marks the start of a processing phase for memory diagnostics.
func (c *common) phase(name string) {
	if c.tracker != nil {
		c.tracker.SetPhase(name)
	}
}

// determineMemoryBudget picks the budget from the --mem-budget flag, then
// the SPLAT4D_MEM_BUDGET environment variable, then half of system RAM.
func determineMemoryBudget(cliValue string) (*membudget.Budget, error) {
	if cliValue != "" {
		n, err := membudget.ParseHumanSize(cliValue)
		if err != nil {
			return nil, fmt.Errorf("invalid --mem-budget: %w", err)
		}
		return membudget.New(membudget.Config{TotalBytes: n, Source: membudget.BudgetSourceCLI}), nil
	}
	if env := os.Getenv(MemBudgetEnv); env != "" {
		n, err := membudget.ParseHumanSize(env)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", MemBudgetEnv, err)
		}
		return membudget.New(membudget.Config{TotalBytes: n, Source: membudget.BudgetSourceEnv}), nil
	}
	return membudget.NewFromSystemRAM(), nil
}

// parseIDs parses a comma-separated list of palette ids.
func parseIDs(s string) ([]uint64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	ids := make([]uint64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseUint(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid palette id %q: %w", p, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// flagSet reports whether name was given on the command line.
func flagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}
