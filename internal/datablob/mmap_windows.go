//go:build windows

package datablob

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/windows"
)

func granularity() int {
	var si windows.SystemInfo
	windows.GetSystemInfo(&si)
	return int(si.DwAllocationGranularity)
}

func mmapRegion(f *os.File, offset int64, length int) ([]byte, error) {
	h, err := windows.CreateFileMapping(windows.Handle(f.Fd()), nil, windows.PAGE_READONLY, 0, 0, nil)
	if err != nil {
		return nil, fmt.Errorf("CreateFileMapping: %w", err)
	}
	defer windows.CloseHandle(h)

	addr, err := windows.MapViewOfFile(h, windows.FILE_MAP_READ, uint32(offset>>32), uint32(offset&0xFFFFFFFF), uintptr(length))
	if err != nil {
		return nil, fmt.Errorf("MapViewOfFile: %w", err)
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), length), nil
}

func munmapRegion(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	return windows.UnmapViewOfFile(uintptr(unsafe.Pointer(&b[0])))
}
