// Package humanfmt formats sizes, counts, shares and durations for CLI output.
package humanfmt

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Binary (IEC) units for bytes.
const (
	KiB = 1024
	MiB = 1024 * KiB
	GiB = 1024 * MiB
	TiB = 1024 * GiB
)

type unit struct {
	size float64
	name string
}

var byteUnits = []unit{{TiB, "TiB"}, {GiB, "GiB"}, {MiB, "MiB"}, {KiB, "KiB"}}

var countUnits = []unit{{1e9, "B"}, {1e6, "M"}, {1e3, "K"}}

func scaled(v float64, units []unit, sep, suffix string) (string, bool) {
	for _, u := range units {
		if v >= u.size {
			return fmt.Sprintf("%.2f%s%s%s", v/u.size, sep, u.name, suffix), true
		}
	}
	return "", false
}

// Bytes formats a byte count with IEC units, e.g. "1.23 GiB".
func Bytes(b int64) string {
	if s, ok := scaled(float64(b), byteUnits, " ", ""); ok {
		return s
	}
	return fmt.Sprintf("%d B", b)
}

// BytesUint64 is like Bytes but for uint64.
func BytesUint64(b uint64) string {
	if b > math.MaxInt64 {
		b = math.MaxInt64
	}
	return Bytes(int64(b))
}

// Duration formats d compactly.
// Examples: "1.23s", "45.6ms", "789.0µs", "1m30s", "2h15m".
func Duration(d time.Duration) string {
	switch {
	case d < 0:
		return d.String()
	case d >= time.Hour:
		return wholeUnits(d/time.Hour, "h", (d%time.Hour)/time.Minute, "m")
	case d >= time.Minute:
		return wholeUnits(d/time.Minute, "m", (d%time.Minute)/time.Second, "s")
	case d >= time.Second:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%.1fms", float64(d)/float64(time.Millisecond))
	case d >= time.Microsecond:
		return fmt.Sprintf("%.1fµs", float64(d)/float64(time.Microsecond))
	default:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	}
}

func wholeUnits(major time.Duration, majorName string, minor time.Duration, minorName string) string {
	if minor == 0 {
		return fmt.Sprintf("%d%s", major, majorName)
	}
	return fmt.Sprintf("%d%s%d%s", major, majorName, minor, minorName)
}

// Throughput formats bytes per duration, e.g. "123.40 MiB/s".
func Throughput(bytes int64, d time.Duration) string {
	if d <= 0 {
		return "∞"
	}
	rate := float64(bytes) / d.Seconds()
	if s, ok := scaled(rate, byteUnits, " ", "/s"); ok {
		return s
	}
	return fmt.Sprintf("%.0f B/s", rate)
}

// Count formats n with K, M, B suffixes.
// Examples: "1.23M", "456.00K", "789".
func Count(n int64) string {
	if s, ok := scaled(float64(n), countUnits, "", ""); ok {
		return s
	}
	return strconv.FormatInt(n, 10)
}

// CountUint64 is like Count but for uint64.
func CountUint64(n uint64) string {
	if n > math.MaxInt64 {
		n = math.MaxInt64
	}
	return Count(int64(n))
}

// Percent formats a share in [0,1] as a percentage, e.g. "12.50%".
// Shares below 0.01% that are not zero print as "<0.01%".
func Percent(share float64) string {
	if share > 0 && share < 0.0001 {
		return "<0.01%"
	}
	return fmt.Sprintf("%.2f%%", share*100)
}

// Dims formats a width x height x depth x frames shape.
func Dims(width, height, depth, frames uint32) string {
	return fmt.Sprintf("%dx%dx%d x %d frames", width, height, depth, frames)
}
