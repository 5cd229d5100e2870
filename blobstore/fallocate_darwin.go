//go:build darwin

package blobstore

import (
	"os"

	"golang.org/x/sys/unix"
)

// fallocateFile reserves size bytes for a blob before it is written.
// F_PREALLOCATE only reserves space, so the size is set with ftruncate.
func fallocateFile(file *os.File, size int64) error {
	if size == 0 {
		return nil
	}
	fst := unix.Fstore_t{
		Flags:   unix.F_ALLOCATEALL,
		Posmode: unix.F_PEOFPOSMODE,
		Length:  size,
	}
	_ = unix.FcntlFstore(file.Fd(), unix.F_PREALLOCATE, &fst) // ftruncate below still sizes the file
	return unix.Ftruncate(int(file.Fd()), size)
}
