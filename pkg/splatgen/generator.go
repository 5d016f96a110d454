// Package splatgen builds synthetic 4Splat containers for tests and benchmarks.
package splatgen

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"math"
	"math/rand"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/eunmann/splat4d/pkg/format"
)

// DefaultSeed is used when Config.Seed is zero.
const DefaultSeed = 42

// Container is the raw content of a .4spl file before serialization. Fields
// are written verbatim, so tests can build deliberately broken files.
type Container struct {
	Magic       string
	Version     format.Version
	Width       uint32
	Height      uint32
	Depth       uint32
	Frames      uint32
	PaletteSize uint32
	Flags       format.Flags
	Palette     []format.PaletteEntry
	Indices     []uint64
	Terminator  string

	// IdxOffset and Checksum are computed by Bytes unless set.
	IdxOffset *uint64
	Checksum  *uint32
}

// Minimal returns a valid 1x1x1x1 container with one palette entry and 1-byte
// indices.
func Minimal() *Container {
	return &Container{
		Magic:       format.Magic,
		Version:     format.Version{1, 0, 0, 0},
		Width:       1,
		Height:      1,
		Depth:       1,
		Frames:      1,
		PaletteSize: 1,
		Palette: []format.PaletteEntry{{
			SigmaX: 1, SigmaY: 1, SigmaZ: 1, SigmaT: 1,
			R: 1, G: 0.5, B: 0.25, Alpha: 1,
		}},
		Indices:    []uint64{0},
		Terminator: format.Terminator,
	}
}

// IndexBytes returns the byte width selected by the flags.
func (c *Container) IndexBytes() int {
	w, err := format.IndexWidthFromCode(c.Flags.IndexWidthCode())
	if err != nil {
		return 1
	}
	return w.Bytes()
}

// Bytes serializes the container.
func (c *Container) Bytes() []byte {
	width := c.IndexBytes()
	size := format.HeaderSize + len(c.Palette)*format.PaletteEntrySize + len(c.Indices)*width + format.FooterSize
	buf := make([]byte, 0, size)

	buf = append(buf, padMarker(c.Magic)...)
	buf = append(buf, c.Version[:]...)
	for _, v := range []uint32{c.Width, c.Height, c.Depth, c.Frames, c.PaletteSize, uint32(c.Flags)} {
		buf = binary.LittleEndian.AppendUint32(buf, v)
	}

	for _, e := range c.Palette {
		for _, f := range e.Floats() {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
		}
	}

	idxOffset := uint64(len(buf))
	for _, id := range c.Indices {
		switch width {
		case 1:
			buf = append(buf, byte(id))
		case 2:
			buf = binary.LittleEndian.AppendUint16(buf, uint16(id))
		case 4:
			buf = binary.LittleEndian.AppendUint32(buf, uint32(id))
		default:
			buf = binary.LittleEndian.AppendUint64(buf, id)
		}
	}

	checksum := crc32.ChecksumIEEE(buf)
	if c.Checksum != nil {
		checksum = *c.Checksum
	}
	if c.IdxOffset != nil {
		idxOffset = *c.IdxOffset
	}

	buf = binary.LittleEndian.AppendUint64(buf, idxOffset)
	buf = binary.LittleEndian.AppendUint32(buf, checksum)
	buf = append(buf, padMarker(c.Terminator)...)
	return buf
}

// WriteFile serializes the container to path.
func (c *Container) WriteFile(path string) error {
	if err := os.WriteFile(path, c.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write container: %w", err)
	}
	return nil
}

// WriteZstdFile serializes the container zstd-compressed to path. The frame
// header records the decompressed size.
func (c *Container) WriteZstdFile(path string) error {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
	if err != nil {
		return fmt.Errorf("create zstd encoder: %w", err)
	}
	defer enc.Close()

	if err := os.WriteFile(path, enc.EncodeAll(c.Bytes(), nil), 0o644); err != nil {
		return fmt.Errorf("write compressed container: %w", err)
	}
	return nil
}

// padMarker truncates or zero-pads a marker to 4 bytes.
func padMarker(s string) []byte {
	b := make([]byte, 4)
	copy(b, s)
	return b
}

// Config configures synthetic container generation.
type Config struct {
	Width, Height, Depth, Frames uint32
	PaletteSize                  uint32
	// IndexWidthCode selects 1, 2, 4 or 8 byte indices (codes 0..3).
	IndexWidthCode uint32
	// Byte255 stores colors and alpha as 0-255 magnitudes instead of [0,1].
	Byte255 bool
	// Seed for reproducible generation. 0 = DefaultSeed.
	Seed int64
}

// DefaultConfig returns a small video with a 16-entry palette.
func DefaultConfig() Config {
	return Config{
		Width:          16,
		Height:         12,
		Depth:          2,
		Frames:         8,
		PaletteSize:    16,
		IndexWidthCode: 1,
		Seed:           DefaultSeed,
	}
}

// Generator generates synthetic containers.
type Generator struct {
	cfg Config
	rng *rand.Rand
}

// NewGenerator creates a new generator.
func NewGenerator(cfg Config) *Generator {
	seed := cfg.Seed
	if seed == 0 {
		seed = DefaultSeed
	}
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Generate returns a valid container: every palette entry is a random
// Gaussian and every voxel holds an id below PaletteSize.
func (g *Generator) Generate() *Container {
	cfg := g.cfg
	c := &Container{
		Magic:       format.Magic,
		Version:     format.Version{1, 0, 0, 0},
		Width:       cfg.Width,
		Height:      cfg.Height,
		Depth:       cfg.Depth,
		Frames:      cfg.Frames,
		PaletteSize: cfg.PaletteSize,
		Flags:       format.Flags(0).WithIndexWidthCode(cfg.IndexWidthCode),
		Terminator:  format.Terminator,
	}

	scale := float32(1)
	if cfg.Byte255 {
		scale = 255
	}
	c.Palette = make([]format.PaletteEntry, cfg.PaletteSize)
	for i := range c.Palette {
		c.Palette[i] = format.PaletteEntry{
			MuX:    g.rng.Float32() * float32(cfg.Width),
			MuY:    g.rng.Float32() * float32(cfg.Height),
			MuZ:    g.rng.Float32() * float32(cfg.Depth),
			SigmaX: 0.5 + g.rng.Float32()*2,
			SigmaY: 0.5 + g.rng.Float32()*2,
			SigmaZ: 0.5 + g.rng.Float32(),
			MuT:    g.rng.Float32() * float32(cfg.Frames),
			SigmaT: 0.5 + g.rng.Float32()*3,
			R:      g.rng.Float32() * scale,
			G:      g.rng.Float32() * scale,
			B:      g.rng.Float32() * scale,
			Alpha:  (0.5 + g.rng.Float32()/2) * scale,
		}
	}

	n := uint64(cfg.Width) * uint64(cfg.Height) * uint64(cfg.Depth) * uint64(cfg.Frames)
	c.Indices = make([]uint64, n)
	if cfg.PaletteSize > 0 {
		for i := range c.Indices {
			c.Indices[i] = uint64(g.rng.Intn(int(cfg.PaletteSize)))
		}
	}
	return c
}
