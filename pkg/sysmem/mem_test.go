package sysmem

import (
	"runtime"
	"testing"
)

func TestTotal(t *testing.T) {
	result := Total()

	if result.TotalBytes == 0 {
		t.Fatal("Total() returned 0 bytes")
	}

	switch runtime.GOOS {
	case "linux", "darwin", "freebsd", "openbsd", "netbsd", "dragonfly":
		if !result.Reliable {
			t.Logf("memory detection not reliable on %s", runtime.GOOS)
		}
	default:
		if result.Reliable {
			t.Errorf("Reliable = true on %s, want false", runtime.GOOS)
		}
		if result.TotalBytes != DefaultMemoryBytes {
			t.Errorf("TotalBytes = %d on %s, want fallback %d", result.TotalBytes, runtime.GOOS, DefaultMemoryBytes)
		}
	}

	if got := TotalBytes(); got != result.TotalBytes {
		t.Errorf("TotalBytes() = %d, Total().TotalBytes = %d", got, result.TotalBytes)
	}
}

func TestAvailable(t *testing.T) {
	avail, ok := Available()
	if runtime.GOOS != "linux" {
		if ok {
			t.Errorf("Available ok = true on %s, want false", runtime.GOOS)
		}
		return
	}
	if !ok {
		t.Skip("sysinfo unavailable")
	}
	if total := Total(); total.Reliable && avail > total.TotalBytes {
		t.Errorf("Available = %d exceeds total %d", avail, total.TotalBytes)
	}
}
