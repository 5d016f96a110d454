//go:build linux

package sysmem

import "golang.org/x/sys/unix"

func sysinfo() (unix.Sysinfo_t, bool) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return info, false
	}
	return info, true
}

func totalSystemMemory() (uint64, bool) {
	info, ok := sysinfo()
	if !ok {
		return 0, false
	}
	return uint64(info.Totalram) * uint64(info.Unit), true
}

// Free plus buffer memory; page cache is not reported by sysinfo.
func availableSystemMemory() (uint64, bool) {
	info, ok := sysinfo()
	if !ok {
		return 0, false
	}
	return (uint64(info.Freeram) + uint64(info.Bufferram)) * uint64(info.Unit), true
}
