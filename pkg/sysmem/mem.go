// Package sysmem reports physical memory so in-memory video loads can be
// sized against the machine.
package sysmem

// DefaultMemoryBytes (4 GiB) stands in when detection fails.
const DefaultMemoryBytes uint64 = 4 * 1024 * 1024 * 1024

// Result is a detected memory figure.
type Result struct {
	TotalBytes uint64
	// Reliable is false when TotalBytes is DefaultMemoryBytes.
	Reliable bool
}

// Total returns physical RAM, or DefaultMemoryBytes with Reliable=false.
func Total() Result {
	bytes, ok := totalSystemMemory()
	if !ok || bytes == 0 {
		return Result{TotalBytes: DefaultMemoryBytes}
	}
	return Result{TotalBytes: bytes, Reliable: true}
}

// TotalBytes returns Total().TotalBytes.
func TotalBytes() uint64 {
	return Total().TotalBytes
}

// Available returns the RAM the kernel reports as free for new allocations.
// ok is false where the platform offers no cheap answer.
func Available() (bytes uint64, ok bool) {
	return availableSystemMemory()
}
