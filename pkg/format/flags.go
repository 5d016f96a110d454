package format

import "fmt"

// Flags is the header bit-field.
//
//	bit  0      endian         (0 little, 1 big)
//	bit  1      sorted
//	bits 2-3    precision
//	bits 4-7    compression
//	bits 8-9    index width    (the only field the decoder acts on)
//	bits 10-11  splat shape
//	bits 12-15  color space
//	bits 16-19  interpolation
//	bits 20-23  encryption
//	bits 24-31  metadata
//
// Everything except the index width is informational.
type Flags uint32

func (f Flags) field(shift, bits uint) uint32 {
	return (uint32(f) >> shift) & (1<<bits - 1)
}

func (f Flags) BigEndian() bool          { return f.field(0, 1) == 1 }
func (f Flags) Sorted() bool             { return f.field(1, 1) == 1 }
func (f Flags) Precision() Precision     { return Precision(f.field(2, 2)) }
func (f Flags) Compression() Compression { return Compression(f.field(4, 4)) }
func (f Flags) IndexWidthCode() uint32   { return f.field(8, 2) }
func (f Flags) Shape() SplatShape        { return SplatShape(f.field(10, 2)) }
func (f Flags) ColorSpace() ColorSpace   { return ColorSpace(f.field(12, 4)) }
func (f Flags) Interpolation() Interp    { return Interp(f.field(16, 4)) }
func (f Flags) Encryption() uint8        { return uint8(f.field(20, 4)) }
func (f Flags) Metadata() uint8          { return uint8(f.field(24, 8)) }

// WithIndexWidthCode returns f with bits 8-9 replaced by code.
func (f Flags) WithIndexWidthCode(code uint32) Flags {
	return Flags(uint32(f)&^(0x3<<8) | (code&0x3)<<8)
}

func (f Flags) String() string {
	return fmt.Sprintf("0x%08X", uint32(f))
}

// Precision is the declared float precision of palette records.
type Precision uint8

var precisionNames = [...]string{"Float16", "Float32", "Float64", "Float128"}

func (p Precision) String() string { return lookupName(precisionNames[:], uint32(p)) }

// Compression is the declared compression scheme.
type Compression uint8

var compressionNames = [...]string{
	"None", "Run Length Encoding", "DEFLATE", "RAR", "LZO", "Zlib", "bzip2", "LZMA",
	"ZPAQ", "XZ", "LZ4", "Snappy", "LZHAM", "Brotli", "LZFSE", "Zstd",
}

func (c Compression) String() string { return lookupName(compressionNames[:], uint32(c)) }

// SplatShape is the declared covariance model of palette entries.
type SplatShape uint8

var splatShapeNames = [...]string{"Isotropic", "Axis-Aligned", "Full Covariance", "Reserved"}

func (s SplatShape) String() string { return lookupName(splatShapeNames[:], uint32(s)) }

// ColorSpace is the declared color space of palette colors.
type ColorSpace uint8

var colorSpaceNames = [...]string{
	"sRGB", "Linear sRGB", "OKLab", "Display P3", "Rec.709", "Rec.2020", "DCI-P3", "ACES-AP0",
	"ProPhoto RGB", "Rec.2100", "CIE Lab", "CIE XYZ D65", "ACEScg-AP1", "Rec.601", "XYZ D50", "XYZ D65",
}

func (c ColorSpace) String() string { return lookupName(colorSpaceNames[:], uint32(c)) }

// Interp is the declared interpolation scheme between samples.
type Interp uint8

var interpNames = [...]string{
	"None", "Nearest Neighbor", "Axis-Aligned", "Smooth", "Lanczos", "Gaussian", "Catmull-Rom", "NURBS",
	"Radial Basis Fn", "Optical Flow", "Neural", "Akima Splines", "Inverse Distance", "Fourier",
	"Moving Least Sq", "Cubic Hermite",
}

func (i Interp) String() string { return lookupName(interpNames[:], uint32(i)) }

func lookupName(names []string, v uint32) string {
	if v < uint32(len(names)) {
		return names[v]
	}
	return "Reserved"
}
