// Package mpq reads the classic Blizzard MPQ archive format: the hash-table
// and block-table layout used before CASC, still shipped alongside it for
// legacy client data. Only reading is supported; writing, signing, and
// patch-chain archives are out of scope.
package mpq

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrInvalidArchive is returned when the input does not begin with a
// recognizable MPQ user-data or header block.
var ErrInvalidArchive = errors.New("mpq: invalid archive")

// ErrNotFound is returned by ReadFile when no hash table entry matches the
// requested name.
var ErrNotFound = errors.New("mpq: file not found")

const (
	blockFlagFile            = 0x80000000
	blockFlagSingleUnit      = 0x01000000
	blockFlagSectorCRC       = 0x04000000
	blockFlagCompressedMask  = 0x0000FF00
	blockFlagCompressedPK    = 0x00000100
	blockFlagCompressedMulti = 0x00000200
	blockFlagEncrypted       = 0x00010000
)

var userDataMagic = [4]byte{'M', 'P', 'Q', 0x1B}
var headerMagic = [4]byte{'M', 'P', 'Q', 0x1A}

type header struct {
	size              uint32
	archiveSize       uint32
	formatVersion     uint16
	sectorShift       uint16
	hashTableOffset   uint32
	blockTableOffset  uint32
	hashTableEntries  uint32
	blockTableEntries uint32
}

type hashEntry struct {
	nameA      uint32
	nameB      uint32
	locale     uint16
	platform   uint16
	blockIndex uint32
}

const hashEntryEmptyAlways = 0xFFFFFFFF
const hashEntryEmptyDeleted = 0xFFFFFFFE

type blockEntry struct {
	offset     uint32
	packedSize uint32
	fileSize   uint32
	flags      uint32
}

// Archive is an opened MPQ archive. The zero value is not usable; construct
// with Open or OpenReader.
type Archive struct {
	file *os.File
	src  io.ReadSeeker

	headerOffset int64
	header       header
	sectorSize   uint32

	hashTable  []hashEntry
	blockTable []blockEntry
}

// Open opens the MPQ archive at path. The returned Archive owns the
// underlying file and must be closed with Close.
func Open(path string) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	a, err := OpenReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	a.file = f
	return a, nil
}

// OpenReader parses an MPQ archive from an already-open reader. Unlike
// Open, the caller retains ownership of src; Close is then a no-op.
func OpenReader(src io.ReadSeeker) (*Archive, error) {
	a := &Archive{src: src}
	if err := a.parseHeader(); err != nil {
		return nil, err
	}
	if err := a.parseTables(); err != nil {
		return nil, err
	}
	return a, nil
}

// Close releases the archive's file handle, if Open opened one.
func (a *Archive) Close() error {
	if a.file != nil {
		return a.file.Close()
	}
	return nil
}

func (a *Archive) parseHeader() error {
	var magic [4]byte
	if _, err := io.ReadFull(a.src, magic[:]); err != nil {
		return fmt.Errorf("mpq: read magic: %w", err)
	}

	if magic == userDataMagic {
		var size, headerOffset uint32
		if err := binary.Read(a.src, binary.LittleEndian, &size); err != nil {
			return ErrInvalidArchive
		}
		if err := binary.Read(a.src, binary.LittleEndian, &headerOffset); err != nil {
			return ErrInvalidArchive
		}
		if _, err := a.src.Seek(int64(headerOffset), io.SeekStart); err != nil {
			return ErrInvalidArchive
		}
		a.headerOffset = int64(headerOffset)
		if _, err := io.ReadFull(a.src, magic[:]); err != nil {
			return ErrInvalidArchive
		}
	}

	if magic != headerMagic {
		return ErrInvalidArchive
	}

	h := header{}
	fields := []interface{}{
		&h.size, &h.archiveSize, &h.formatVersion, &h.sectorShift,
		&h.hashTableOffset, &h.blockTableOffset, &h.hashTableEntries, &h.blockTableEntries,
	}
	for _, f := range fields {
		if err := binary.Read(a.src, binary.LittleEndian, f); err != nil {
			return ErrInvalidArchive
		}
	}
	// Burning Crusade extensions (large-archive support) are not consumed;
	// this reader targets archives small enough not to need them.
	a.header = h
	a.sectorSize = 512 << h.sectorShift
	return nil
}

func (a *Archive) parseTables() error {
	h := a.header

	if _, err := a.src.Seek(a.headerOffset+int64(h.hashTableOffset), io.SeekStart); err != nil {
		return ErrInvalidArchive
	}
	hashBuf := make([]byte, int(h.hashTableEntries)*16)
	if _, err := io.ReadFull(a.src, hashBuf); err != nil {
		return ErrInvalidArchive
	}
	decrypt(hashBuf, tableKey("(hash table)"))

	a.hashTable = make([]hashEntry, h.hashTableEntries)
	r := bytes.NewReader(hashBuf)
	for i := range a.hashTable {
		e := &a.hashTable[i]
		binary.Read(r, binary.LittleEndian, &e.nameA)
		binary.Read(r, binary.LittleEndian, &e.nameB)
		binary.Read(r, binary.LittleEndian, &e.locale)
		binary.Read(r, binary.LittleEndian, &e.platform)
		binary.Read(r, binary.LittleEndian, &e.blockIndex)
	}

	if _, err := a.src.Seek(a.headerOffset+int64(h.blockTableOffset), io.SeekStart); err != nil {
		return ErrInvalidArchive
	}
	blockBuf := make([]byte, int(h.blockTableEntries)*16)
	if _, err := io.ReadFull(a.src, blockBuf); err != nil {
		return ErrInvalidArchive
	}
	decrypt(blockBuf, tableKey("(block table)"))

	a.blockTable = make([]blockEntry, h.blockTableEntries)
	r = bytes.NewReader(blockBuf)
	for i := range a.blockTable {
		e := &a.blockTable[i]
		binary.Read(r, binary.LittleEndian, &e.offset)
		binary.Read(r, binary.LittleEndian, &e.packedSize)
		binary.Read(r, binary.LittleEndian, &e.fileSize)
		binary.Read(r, binary.LittleEndian, &e.flags)
	}
	return nil
}

// findBlock locates the hash table entry for name and returns its block
// table entry, if any.
func (a *Archive) findBlock(name string) (*blockEntry, bool) {
	if len(a.hashTable) == 0 {
		return nil, false
	}
	mask := uint32(len(a.hashTable)) - 1
	start, wantA, wantB := nameHash(name)
	for i := start & mask; ; i = (i + 1) & mask {
		e := a.hashTable[i]
		if e.blockIndex == hashEntryEmptyAlways {
			return nil, false
		}
		if e.blockIndex != hashEntryEmptyDeleted && e.nameA == wantA && e.nameB == wantB {
			if int(e.blockIndex) >= len(a.blockTable) {
				return nil, false
			}
			return &a.blockTable[e.blockIndex], true
		}
	}
}

// Exists reports whether name has a live entry in the hash and block
// tables, without reading or decompressing its content.
func (a *Archive) Exists(name string) bool {
	b, ok := a.findBlock(name)
	return ok && b.flags&blockFlagFile != 0
}

// ReadFile returns the decompressed content of the named file.
func (a *Archive) ReadFile(name string) ([]byte, error) {
	b, ok := a.findBlock(name)
	if !ok || b.flags&blockFlagFile == 0 {
		return nil, ErrNotFound
	}
	if b.flags&blockFlagEncrypted != 0 {
		return nil, fmt.Errorf("mpq: %s: encrypted files are not supported", name)
	}

	base := a.headerOffset + int64(b.offset)
	if b.flags&blockFlagSingleUnit != 0 {
		return a.readUnit(base, b)
	}
	return a.readSectored(base, b)
}

func (a *Archive) readUnit(base int64, b *blockEntry) ([]byte, error) {
	packed := make([]byte, b.packedSize)
	if _, err := a.src.Seek(base, io.SeekStart); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(a.src, packed); err != nil {
		return nil, err
	}
	if b.flags&blockFlagCompressedMask == 0 {
		return packed, nil
	}
	out := make([]byte, b.fileSize)
	if err := decompressMulti(out, packed); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *Archive) readSectored(base int64, b *blockEntry) ([]byte, error) {
	sectorCount := (b.fileSize + a.sectorSize - 1) / a.sectorSize
	offsetsLen := sectorCount + 1
	if b.flags&blockFlagSectorCRC != 0 {
		offsetsLen++
	}

	offsets := make([]uint32, offsetsLen)
	compressed := b.flags&blockFlagCompressedMask != 0
	if compressed {
		if _, err := a.src.Seek(base, io.SeekStart); err != nil {
			return nil, err
		}
		for i := range offsets {
			if err := binary.Read(a.src, binary.LittleEndian, &offsets[i]); err != nil {
				return nil, err
			}
		}
	} else {
		for i := uint32(0); i < sectorCount; i++ {
			offsets[i] = i * a.sectorSize
		}
		offsets[sectorCount] = b.packedSize
	}

	out := make([]byte, b.fileSize)
	var written uint32
	for i := uint32(0); i < sectorCount; i++ {
		unpackedSize := a.sectorSize
		if i == sectorCount-1 {
			unpackedSize = b.fileSize - a.sectorSize*i
		}

		sectorLen := int(offsets[i+1] - offsets[i])
		if _, err := a.src.Seek(base+int64(offsets[i]), io.SeekStart); err != nil {
			return nil, err
		}
		raw := make([]byte, sectorLen)
		if _, err := io.ReadFull(a.src, raw); err != nil {
			return nil, err
		}

		dst := out[written : written+unpackedSize]
		if compressed && uint32(sectorLen) != unpackedSize {
			if err := decompressMulti(dst, raw); err != nil {
				return nil, err
			}
		} else {
			copy(dst, raw)
		}
		written += unpackedSize
	}
	return out, nil
}
