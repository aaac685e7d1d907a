// Package idx parses CASC's ".idx" bucket files into a map from a 9-byte
// content-key prefix to the (blob, offset, size) triple that locates the
// encoded bytes for that key.
package idx

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wowdev/go-casc/internal/binreader"
)

// KeyPrefix is the first 9 bytes of a 16-byte content key, the unit indexed
// by .idx files.
type KeyPrefix [9]byte

// Truncate returns the 9-byte lookup prefix of a full 16-byte content key.
func Truncate(key [16]byte) KeyPrefix {
	var p KeyPrefix
	copy(p[:], key[:9])
	return p
}

// Entry locates a byte range inside one data blob.
type Entry struct {
	BlobIndex int
	Offset    uint32
	Size      uint32
}

// Map is the parsed union of every bucket's .idx file: KeyPrefix -> Entry.
// Keys are unique; when the same prefix appears more than once (across
// files or within one), the first occurrence wins and later ones are
// dropped — this is a stability property, not an error.
type Map struct {
	entries     map[KeyPrefix]Entry
	blobIndices map[int]struct{}
}

// NewMap returns an empty Map.
func NewMap() *Map {
	return &Map{entries: make(map[KeyPrefix]Entry), blobIndices: make(map[int]struct{})}
}

// Lookup returns the entry for a 9-byte key prefix.
func (m *Map) Lookup(p KeyPrefix) (Entry, bool) {
	e, ok := m.entries[p]
	return e, ok
}

// Len returns the number of distinct key prefixes indexed.
func (m *Map) Len() int { return len(m.entries) }

// BlobIndices returns the set of blob indices referenced by any entry, in
// ascending order.
func (m *Map) BlobIndices() []int {
	out := make([]int, 0, len(m.blobIndices))
	for i := range m.blobIndices {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

func (m *Map) insert(p KeyPrefix, e Entry) {
	if _, exists := m.entries[p]; exists {
		return
	}
	m.entries[p] = e
	m.blobIndices[e.BlobIndex] = struct{}{}
}

// LoadDir scans {root}/data/data for the 16 two-hex-digit bucket prefixes
// "00".."0F", selects the lexicographically greatest ".idx" filename for
// each prefix present, and parses every selected file into a single Map.
func LoadDir(root string) (*Map, error) {
	dir := filepath.Join(root, "data", "data")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("idx: read %s: %w", dir, err)
	}

	best := make(map[string]string) // bucket prefix -> chosen filename
	for _, de := range entries {
		if de.IsDir() {
			continue
		}
		name := de.Name()
		if len(name) < 2 || !strings.EqualFold(filepath.Ext(name), ".idx") {
			continue
		}
		prefix := strings.ToLower(name[:2])
		if !isHexByte(prefix) || prefix[0] != '0' {
			continue
		}
		if cur, ok := best[prefix]; !ok || name > cur {
			best[prefix] = name
		}
	}

	m := NewMap()
	prefixes := make([]string, 0, len(best))
	for p := range best {
		prefixes = append(prefixes, p)
	}
	sort.Strings(prefixes)
	for _, p := range prefixes {
		if err := parseFile(filepath.Join(dir, best[p]), m); err != nil {
			return nil, fmt.Errorf("idx: %s: %w", best[p], err)
		}
	}
	return m, nil
}

func isHexByte(s string) bool {
	if len(s) != 2 {
		return false
	}
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}
	return true
}

func parseFile(path string, into *Map) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	r := binreader.New(data)

	length, err := r.ReadU32()
	if err != nil {
		return err
	}
	blockStart := (8 + int(length) + 0x0F) &^ 0x0F
	if err := r.Seek(blockStart); err != nil {
		return fmt.Errorf("seek to block start %d: %w", blockStart, err)
	}

	dataLen, err := r.ReadU32()
	if err != nil {
		return err
	}
	if err := r.SeekRel(4); err != nil { // skip 4 unused bytes
		return err
	}

	numBlocks := int(dataLen / 18)
	for i := 0; i < numBlocks; i++ {
		keyBytes, err := r.ReadBytes(9)
		if err != nil {
			return err
		}
		indexHi, err := r.ReadU8()
		if err != nil {
			return err
		}
		indexLoWord, err := r.ReadU32BE()
		if err != nil {
			return err
		}
		size, err := r.ReadU32()
		if err != nil {
			return err
		}

		var key KeyPrefix
		copy(key[:], keyBytes)

		blobIndex := int(uint32(indexHi)<<2 | (indexLoWord&0xC0000000)>>30)
		offset := indexLoWord & 0x3FFFFFFF

		into.insert(key, Entry{BlobIndex: blobIndex, Offset: offset, Size: size})
	}
	return nil
}
