// Package root parses the decompressed CASC root file into two ordered
// multimaps keyed by normalized-path hash and by file-data id, filtered by
// a locale mask.
package root

import (
	"fmt"

	"github.com/wowdev/go-casc/internal/binreader"
	"github.com/wowdev/go-casc/internal/encoding"
)

// recordSize is the size in bytes of one root record: a 16-byte content
// hash followed by an 8-byte little-endian name hash.
const recordSize = 24

// Table holds the two multimaps produced by parsing a root file. Multiple
// content-hash candidates per key express locale variants of the same
// asset; candidates are stored in the order the root blocks presented them,
// because the public "first complete chain wins" lookup contract depends on
// that order.
type Table struct {
	byName map[uint64][]encoding.Hash
	byID   map[uint32][]encoding.Hash
}

// ByName returns the ordered candidate content hashes for a Jenkins96 path
// hash.
func (t *Table) ByName(nameHash uint64) []encoding.Hash {
	return t.byName[nameHash]
}

// ByID returns the ordered candidate content hashes for a file-data id.
func (t *Table) ByID(id uint32) []encoding.Hash {
	return t.byID[id]
}

// IDs returns every file-data id present in the table, in no particular
// order. Unlike path names, file-data ids are not one-way hashed, so this
// is the only key space the table can enumerate without an external
// listfile.
func (t *Table) IDs() []uint32 {
	ids := make([]uint32, 0, len(t.byID))
	for id := range t.byID {
		ids = append(ids, id)
	}
	return ids
}

// Parse decodes an already BLTE-decompressed root file, keeping only blocks
// whose locale bits intersect mask.
func Parse(data []byte, mask uint32) (*Table, error) {
	r := binreader.New(data)
	t := &Table{
		byName: make(map[uint64][]encoding.Hash),
		byID:   make(map[uint32][]encoding.Hash),
	}

	for r.HasAvailable(1) {
		count, err := r.ReadU32()
		if err != nil {
			return nil, fmt.Errorf("root: read block count: %w", err)
		}
		if err := r.SeekRel(4); err != nil { // content flags, unused
			return nil, fmt.Errorf("root: skip content flags: %w", err)
		}
		locales, err := r.ReadU32()
		if err != nil {
			return nil, fmt.Errorf("root: read locale mask: %w", err)
		}

		if locales&mask == 0 {
			if err := r.SeekRel(int(count) * 28); err != nil {
				return nil, fmt.Errorf("root: skip block: %w", err)
			}
			continue
		}

		ids := make([]uint32, count)
		var prev uint32
		for i := uint32(0); i < count; i++ {
			delta, err := r.ReadU32()
			if err != nil {
				return nil, fmt.Errorf("root: read id delta %d: %w", i, err)
			}
			if i == 0 {
				ids[i] = delta
			} else {
				ids[i] = prev + 1 + delta
			}
			prev = ids[i]
		}

		for i := uint32(0); i < count; i++ {
			rec, err := r.ReadBytes(recordSize)
			if err != nil {
				return nil, fmt.Errorf("root: read record %d: %w", i, err)
			}
			var hash encoding.Hash
			copy(hash[:], rec[0:16])
			nameHash := leU64(rec[16:24])

			if hash.IsZero() {
				continue
			}
			t.byName[nameHash] = append(t.byName[nameHash], hash)
			t.byID[ids[i]] = append(t.byID[ids[i]], hash)
		}
	}
	return t, nil
}

func leU64(b []byte) uint64 {
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}
