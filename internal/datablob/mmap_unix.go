//go:build !windows

package datablob

import (
	"os"

	"golang.org/x/sys/unix"
)

func granularity() int {
	return os.Getpagesize()
}

func mmapRegion(f *os.File, offset int64, length int) ([]byte, error) {
	return unix.Mmap(int(f.Fd()), offset, length, unix.PROT_READ, unix.MAP_SHARED)
}

func munmapRegion(b []byte) error {
	return unix.Munmap(b)
}
