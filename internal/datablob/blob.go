// Package datablob opens CASC's fixed-name "data.NNN" blob files and serves
// byte ranges out of them via memory mapping aligned to OS page/allocation
// granularity.
package datablob

import (
	"fmt"
	"os"
	"path/filepath"
)

// BlobOpenError wraps a failure to open a data blob by index.
type BlobOpenError struct {
	Index int
	Err   error
}

func (e *BlobOpenError) Error() string {
	return fmt.Sprintf("datablob: open blob %d: %v", e.Index, e.Err)
}

func (e *BlobOpenError) Unwrap() error { return e.Err }

// BlobMapError wraps a failure to map a byte range of a data blob.
type BlobMapError struct {
	Index  int
	Offset uint64
	Size   uint64
	Err    error
}

func (e *BlobMapError) Error() string {
	return fmt.Sprintf("datablob: map blob %d at offset %d size %d: %v", e.Index, e.Offset, e.Size, e.Err)
}

func (e *BlobMapError) Unwrap() error { return e.Err }

// Blob is an opened data-blob file with memory-mapping capability. The zero
// value is not usable; construct with Open.
type Blob struct {
	index int
	file  *os.File

	offsetMask uint64 // granularity - 1
	allocMask  uint64 // ^offsetMask
}

// Path returns the conventional path of blob index n under root, e.g.
// "{root}/data/data/data.005".
func Path(root string, index int) string {
	return filepath.Join(root, "data", "data", fmt.Sprintf("data.%03d", index))
}

// Open opens the data blob with the given index under root.
func Open(root string, index int) (*Blob, error) {
	f, err := os.Open(Path(root, index))
	if err != nil {
		return nil, &BlobOpenError{Index: index, Err: err}
	}
	g := uint64(granularity())
	return &Blob{
		index:      index,
		file:       f,
		offsetMask: g - 1,
		allocMask:  ^(g - 1),
	}, nil
}

// Close releases the blob's file handle.
func (b *Blob) Close() error {
	return b.file.Close()
}

// Index returns the blob's on-disk index.
func (b *Blob) Index() int { return b.index }

// Read returns an owned copy of size bytes starting at offset. It maps
// exactly the page-aligned region that covers the requested range, copies
// the requested bytes out, and unmaps before returning — no mapping
// outlives the call.
func (b *Blob) Read(offset, size uint64) ([]byte, error) {
	if size == 0 {
		return nil, nil
	}
	alignedOffset := offset & b.allocMask
	inPage := offset & b.offsetMask
	mapLen := size + inPage

	region, err := mmapRegion(b.file, int64(alignedOffset), int(mapLen))
	if err != nil {
		return nil, &BlobMapError{Index: b.index, Offset: offset, Size: size, Err: err}
	}
	defer munmapRegion(region)

	out := make([]byte, size)
	copy(out, region[inPage:inPage+size])
	return out, nil
}
