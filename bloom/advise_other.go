//go:build !linux

package bloom

// adviseRandom is a no-op on non-Linux platforms.
func adviseRandom(data []byte) {}
