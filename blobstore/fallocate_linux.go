//go:build linux

package blobstore

import (
	"os"

	"golang.org/x/sys/unix"
)

// fallocateFile reserves size bytes for a blob before it is written, so a
// full disk surfaces as an error from Put rather than a short file.
func fallocateFile(file *os.File, size int64) error {
	if size == 0 {
		return nil
	}
	if err := unix.Fallocate(int(file.Fd()), 0, 0, size); err != nil {
		// EOPNOTSUPP on tmpfs before 3.5, NFS and friends.
		return unix.Ftruncate(int(file.Fd()), size)
	}
	return nil
}
