package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/eunmann/splat4d/pkg/export"
	"github.com/eunmann/splat4d/pkg/format"
	"github.com/eunmann/splat4d/pkg/membudget"
	"github.com/eunmann/splat4d/pkg/recon"
	"github.com/eunmann/splat4d/pkg/splatgen"
)

func writeFixture(t *testing.T, c *splatgen.Container) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scene.4spl")
	if err := c.WriteFile(path); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return path
}

func generatedFixture(t *testing.T) string {
	t.Helper()
	cfg := splatgen.DefaultConfig()
	cfg.Frames = 2
	return writeFixture(t, splatgen.NewGenerator(cfg).Generate())
}

func runOut(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(MemBudgetEnv, "")
	var buf bytes.Buffer
	err := run(context.Background(), args, &buf)
	return buf.String(), err
}

func TestRunNoArgs(t *testing.T) {
	err := Run(nil)
	if err == nil {
		t.Fatal("expected error with no args")
	}
	if !strings.Contains(err.Error(), "usage") {
		t.Errorf("expected usage message, got: %v", err)
	}
}

func TestRunUnknownCommand(t *testing.T) {
	err := Run([]string{"unknown"})
	if err == nil {
		t.Fatal("expected error with unknown command")
	}
	if !strings.Contains(err.Error(), "unknown command") {
		t.Errorf("expected 'unknown command' error, got: %v", err)
	}
}

func TestMissingURI(t *testing.T) {
	for _, cmd := range []string{"inspect", "histogram", "render", "export"} {
		if _, err := runOut(t, cmd); err == nil || !strings.Contains(err.Error(), "exactly one") {
			t.Errorf("%s without uri: got %v", cmd, err)
		}
	}
}

func TestInspect(t *testing.T) {
	path := generatedFixture(t)

	out, err := runOut(t, "inspect", "--verify", "--strict", path)
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	for _, want := range []string{"16x12x2 x 2 frames", "2-byte ids", "checksum:     ok", "idxoffset:    ok", "max id:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestInspectJSON(t *testing.T) {
	path := generatedFixture(t)

	out, err := runOut(t, "inspect", "--json", path)
	if err != nil {
		t.Fatalf("inspect --json failed: %v", err)
	}
	var r inspectReport
	if err := json.Unmarshal([]byte(out), &r); err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, out)
	}
	if r.Header.Width != 16 || r.Header.Frames != 2 || r.Kind != "mmap" {
		t.Errorf("report = %+v", r)
	}
	if r.Integrity != nil {
		t.Error("integrity reported without --verify")
	}
}

func TestInspectVerifyMismatch(t *testing.T) {
	c := splatgen.Minimal()
	bad := uint32(0xdeadbeef)
	c.Checksum = &bad
	path := writeFixture(t, c)

	// Decoding ignores the checksum.
	if _, err := runOut(t, "inspect", path); err != nil {
		t.Fatalf("inspect failed: %v", err)
	}

	out, err := runOut(t, "inspect", "--verify", path)
	if !errors.Is(err, errIntegrity) {
		t.Fatalf("inspect --verify = %v, want errIntegrity", err)
	}
	if !strings.Contains(out, "MISMATCH") {
		t.Errorf("output missing MISMATCH:\n%s", out)
	}
}

func TestInspectStrict(t *testing.T) {
	c := splatgen.Minimal()
	c.Indices = []uint64{3}
	path := writeFixture(t, c)

	if _, err := runOut(t, "inspect", path); err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	if _, err := runOut(t, "inspect", "--strict", path); !errors.Is(err, recon.ErrOutOfBounds) {
		t.Errorf("inspect --strict = %v, want ErrOutOfBounds", err)
	}
}

func TestInspectBadMagic(t *testing.T) {
	c := splatgen.Minimal()
	c.Magic = "NOPE"
	path := writeFixture(t, c)

	_, err := runOut(t, "inspect", path)
	if err == nil || !strings.Contains(err.Error(), "magic") {
		t.Errorf("inspect = %v, want bad magic error", err)
	}
}

func TestHistogram(t *testing.T) {
	cfg := splatgen.DefaultConfig()
	c := splatgen.NewGenerator(cfg).Generate()
	for i := range c.Indices {
		c.Indices[i] = 3
	}
	path := writeFixture(t, c)

	out, err := runOut(t, "histogram", "--top", "2", path)
	if err != nil {
		t.Fatalf("histogram failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header + 2:\n%s", len(lines), out)
	}
	if f := strings.Fields(lines[1]); len(f) != 4 || f[1] != "3" || f[3] != "100.00%" {
		t.Errorf("first row = %q", lines[1])
	}
}

func TestRelevance(t *testing.T) {
	c := splatgen.Minimal()
	c.PaletteSize = 3
	c.Palette = []format.PaletteEntry{
		{MuT: 0, SigmaT: 1},
		{MuT: 5, SigmaT: 1},
		{MuT: 4, SigmaT: 0},
	}
	path := writeFixture(t, c)

	if _, err := runOut(t, "relevance", path); err == nil || !strings.Contains(err.Error(), "--frame") {
		t.Errorf("relevance without --frame = %v", err)
	}

	out, err := runOut(t, "relevance", "--frame", "5", path)
	if err != nil {
		t.Fatalf("relevance failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines:\n%s", len(lines), out)
	}
	if f := strings.Fields(lines[1]); f[0] != "1" || f[3] != "1.000000" {
		t.Errorf("top row = %q, want id 1 at relevance 1", lines[1])
	}
}

func TestRender(t *testing.T) {
	path := generatedFixture(t)
	outPath := filepath.Join(t.TempDir(), "plane.png")

	if _, err := runOut(t, "render", "--frame", "1", "--depth", "1", path); err == nil || !strings.Contains(err.Error(), "--out") {
		t.Errorf("render without --out = %v", err)
	}
	if _, err := runOut(t, "render", "--out", outPath, "--top", "2", "--active", "1", path); err == nil {
		t.Error("render accepted --top with --active")
	}
	if _, err := runOut(t, "render", "--out", outPath, "--frame", "9", path); !errors.Is(err, recon.ErrOutOfBounds) {
		t.Errorf("render out of range frame = %v, want ErrOutOfBounds", err)
	}

	if _, err := runOut(t, "render", "--frame", "1", "--depth", "1", "--top", "3", "--hide", "0", "--out", outPath, path); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	f, err := os.Open(outPath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 16 || b.Dy() != 12 {
		t.Errorf("bounds = %v, want 16x12", b)
	}
}

func TestExport(t *testing.T) {
	path := generatedFixture(t)
	dir := filepath.Join(t.TempDir(), "out")

	out, err := runOut(t, "export", "--out", dir, "--concurrency", "2", path)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if !strings.Contains(out, "exported 4 planes") {
		t.Errorf("output = %q", out)
	}
	s, err := export.ReadSummary(dir)
	if err != nil {
		t.Fatalf("ReadSummary: %v", err)
	}
	if err := export.VerifySummary(dir, s); err != nil {
		t.Errorf("VerifySummary: %v", err)
	}

	out, err = runOut(t, "export", "--out", dir, "--resume", path)
	if err != nil {
		t.Fatalf("export --resume failed: %v", err)
	}
	if !strings.Contains(out, "exported 0 planes (4 skipped)") {
		t.Errorf("resume output = %q", out)
	}
}

func TestMaskFlags(t *testing.T) {
	c := splatgen.Minimal()
	c.PaletteSize = 4
	c.Palette = make([]format.PaletteEntry, 4)
	c.Indices = []uint64{2}
	v := decodeFixture(t, c)

	tests := []struct {
		name    string
		flags   maskFlags
		want    []bool
		wantErr bool
	}{
		{"none", maskFlags{}, nil, false},
		{"active", maskFlags{active: "1,3"}, []bool{false, true, false, true}, false},
		{"hide", maskFlags{hide: "0"}, []bool{false, true, true, true}, false},
		{"top", maskFlags{top: 1}, []bool{false, false, true, false}, false},
		{"active and hide", maskFlags{active: "1, 2", hide: "2"}, []bool{false, true, false, false}, false},
		{"top and active", maskFlags{top: 1, active: "1"}, nil, true},
		{"active out of range", maskFlags{active: "4"}, nil, true},
		{"hide out of range", maskFlags{active: "1", hide: "9"}, nil, true},
		{"bad id", maskFlags{hide: "x"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.flags.build(v)
			if (err != nil) != tt.wantErr {
				t.Fatalf("build() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(got) != len(tt.want) || (got == nil) != (tt.want == nil) {
				t.Fatalf("build() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("build() = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}

	if ids := activeIDs([]bool{true, false, true}); len(ids) != 2 || ids[0] != 0 || ids[1] != 2 {
		t.Errorf("activeIDs = %v", ids)
	}
}

func TestDetermineMemoryBudgetCLI(t *testing.T) {
	budget, err := determineMemoryBudget("4GiB")
	if err != nil {
		t.Fatalf("determineMemoryBudget error: %v", err)
	}
	if budget.Total() != 4*1024*1024*1024 {
		t.Errorf("Total() = %d, want %d", budget.Total(), 4*1024*1024*1024)
	}
	if budget.Source() != membudget.BudgetSourceCLI {
		t.Errorf("Source() = %s, want %s", budget.Source(), membudget.BudgetSourceCLI)
	}
}

func TestDetermineMemoryBudgetEnv(t *testing.T) {
	t.Setenv(MemBudgetEnv, "2GiB")

	budget, err := determineMemoryBudget("")
	if err != nil {
		t.Fatalf("determineMemoryBudget error: %v", err)
	}
	if budget.Total() != 2*1024*1024*1024 {
		t.Errorf("Total() = %d, want %d", budget.Total(), 2*1024*1024*1024)
	}
	if budget.Source() != membudget.BudgetSourceEnv {
		t.Errorf("Source() = %s, want %s", budget.Source(), membudget.BudgetSourceEnv)
	}
}

func TestDetermineMemoryBudgetCLIOverridesEnv(t *testing.T) {
	t.Setenv(MemBudgetEnv, "2GiB")

	budget, err := determineMemoryBudget("8GiB")
	if err != nil {
		t.Fatalf("determineMemoryBudget error: %v", err)
	}
	if budget.Total() != 8*1024*1024*1024 {
		t.Errorf("Total() = %d, want %d", budget.Total(), 8*1024*1024*1024)
	}
	if budget.Source() != membudget.BudgetSourceCLI {
		t.Errorf("Source() = %s, want %s", budget.Source(), membudget.BudgetSourceCLI)
	}
}

func TestDetermineMemoryBudgetDefault(t *testing.T) {
	t.Setenv(MemBudgetEnv, "")

	budget, err := determineMemoryBudget("")
	if err != nil {
		t.Fatalf("determineMemoryBudget error: %v", err)
	}
	if budget.Source() != membudget.BudgetSourceAuto50Pct && budget.Source() != membudget.BudgetSourceDefault {
		t.Errorf("Source() = %s, want auto-50pct or default", budget.Source())
	}
}

func TestDetermineMemoryBudgetInvalid(t *testing.T) {
	if _, err := determineMemoryBudget("invalid"); err == nil || !strings.Contains(err.Error(), "--mem-budget") {
		t.Errorf("invalid CLI budget: got %v", err)
	}

	t.Setenv(MemBudgetEnv, "badvalue")
	if _, err := determineMemoryBudget(""); err == nil || !strings.Contains(err.Error(), MemBudgetEnv) {
		t.Errorf("invalid env budget: got %v", err)
	}
}

func TestParseIDs(t *testing.T) {
	ids, err := parseIDs(" 4, 0,17 ")
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 3 || ids[0] != 4 || ids[1] != 0 || ids[2] != 17 {
		t.Errorf("parseIDs = %v", ids)
	}
	if ids, err := parseIDs(""); err != nil || ids != nil {
		t.Errorf("parseIDs(\"\") = %v, %v", ids, err)
	}
	if _, err := parseIDs("1,,2"); err == nil {
		t.Error("parseIDs accepted an empty element")
	}
}

func decodeFixture(t *testing.T, c *splatgen.Container) *format.Video {
	t.Helper()
	v, err := format.Decode(c.Bytes())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	return v
}
