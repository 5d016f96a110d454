package format_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/eunmann/splat4d/pkg/format"
	"github.com/eunmann/splat4d/pkg/splatgen"
)

func TestOpenFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "video.4spl")

	c := splatgen.NewGenerator(splatgen.DefaultConfig()).Generate()
	if err := c.WriteFile(path); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	f, err := format.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	defer f.Close()

	v := f.Video()
	if v.PaletteSize() != len(c.Palette) {
		t.Errorf("PaletteSize = %d, want %d", v.PaletteSize(), len(c.Palette))
	}
	if v.Indices().Len() != uint64(len(c.Indices)) {
		t.Fatalf("Len = %d, want %d", v.Indices().Len(), len(c.Indices))
	}
	for i, want := range c.Indices {
		if got := v.Indices().Flat(uint64(i)); got != want {
			t.Fatalf("Flat(%d) = %d, want %d", i, got, want)
		}
	}
	if f.Size() != int64(v.EncodedSize()) {
		t.Errorf("Size = %d, want %d", f.Size(), v.EncodedSize())
	}
	if err := format.VerifyChecksum(f.Data(), v); err != nil {
		t.Errorf("VerifyChecksum: %v", err)
	}
}

func TestOpenFileInvalid(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.4spl")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := format.OpenFile(empty); !errors.Is(err, format.ErrFileTooSmall) {
		t.Errorf("OpenFile(empty) = %v, want ErrFileTooSmall", err)
	}

	bad := splatgen.Minimal()
	bad.Magic = "NOPE"
	badPath := filepath.Join(dir, "bad.4spl")
	if err := bad.WriteFile(badPath); err != nil {
		t.Fatal(err)
	}
	if _, err := format.OpenFile(badPath); !errors.Is(err, format.ErrBadMagic) {
		t.Errorf("OpenFile(bad) = %v, want ErrBadMagic", err)
	}

	if _, err := format.OpenFile(filepath.Join(dir, "missing.4spl")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestMmapCloseTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "min.4spl")
	if err := splatgen.Minimal().WriteFile(path); err != nil {
		t.Fatal(err)
	}
	m, err := format.OpenMmap(path)
	if err != nil {
		t.Fatalf("OpenMmap failed: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}
