//go:build linux

package store

import (
	"os"

	"golang.org/x/sys/unix"
)

// adviseRandom tells the kernel record reads are scattered, disabling
// readahead on the data file.
func adviseRandom(f *os.File) error {
	return unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_RANDOM)
}
