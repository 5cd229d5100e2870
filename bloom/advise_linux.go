//go:build linux

package bloom

import "golang.org/x/sys/unix"

// adviseRandom tells the kernel that probes touch the mapping at random, so
// readahead only wastes page cache.
// Best-effort: errors are silently ignored.
func adviseRandom(data []byte) {
	if len(data) == 0 {
		return
	}
	_ = unix.Madvise(data, unix.MADV_RANDOM)
}
