//go:build !linux && !darwin

package blobstore

import "os"

// fallocateFile sizes the file. Blocks may not be reserved on every
// filesystem.
func fallocateFile(file *os.File, size int64) error {
	return file.Truncate(size)
}
