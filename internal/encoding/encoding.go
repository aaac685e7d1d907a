// Package encoding parses the decompressed CASC "encoding" file into a map
// from content hash (MD5 of a file's logical content) to the encoding entry
// describing its physical content key and decoded size.
package encoding

import (
	"fmt"

	"github.com/wowdev/go-casc/internal/binreader"
)

// Hash is the 16-byte MD5 identifying a logical file's content. The zero
// value is reserved to mean "absent" and is never inserted into a Map.
type Hash [16]byte

// IsZero reports whether h is the reserved "absent" sentinel.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// Key is the 16-byte content key addressing a physical BLTE-encoded blob.
type Key [16]byte

// Entry pairs a file's decoded size with the content key of its encoded
// bytes.
type Entry struct {
	DecodedSize uint32
	Key         Key
}

// Map is ContentHash -> Entry, keys unique (first occurrence wins, matching
// the on-disk table which does not repeat hashes within one build).
type Map struct {
	entries map[Hash]Entry
}

// Lookup returns the encoding entry for a content hash.
func (m *Map) Lookup(h Hash) (Entry, bool) {
	e, ok := m.entries[h]
	return e, ok
}

// Len returns the number of distinct content hashes indexed.
func (m *Map) Len() int { return len(m.entries) }

// Parse decodes an already BLTE-decompressed encoding file.
func Parse(data []byte) (*Map, error) {
	r := binreader.New(data)

	if err := r.Seek(9); err != nil {
		return nil, fmt.Errorf("encoding: seek past prolog: %w", err)
	}
	numChunksA, err := r.ReadU32BE()
	if err != nil {
		return nil, fmt.Errorf("encoding: read num_chunks_a: %w", err)
	}
	if err := r.SeekRel(5); err != nil {
		return nil, fmt.Errorf("encoding: skip unparsed bytes: %w", err)
	}
	stringBlock, err := r.ReadU32BE()
	if err != nil {
		return nil, fmt.Errorf("encoding: read string_block: %w", err)
	}
	if err := r.SeekRel(int(stringBlock) + int(numChunksA)*32); err != nil {
		return nil, fmt.Errorf("encoding: skip string table and A-chunk index: %w", err)
	}

	chunkBase := r.Tell()
	m := &Map{entries: make(map[Hash]Entry)}

	for chunk := uint32(0); chunk < numChunksA; chunk++ {
		if err := r.Seek(chunkBase); err != nil {
			return nil, fmt.Errorf("encoding: seek to chunk %d: %w", chunk, err)
		}
		if err := parseChunk(r, m); err != nil {
			return nil, fmt.Errorf("encoding: chunk %d: %w", chunk, err)
		}
		chunkBase += 0x1000
	}
	return m, nil
}

func parseChunk(r *binreader.Reader, m *Map) error {
	for {
		keyCount, err := r.ReadU16()
		if err != nil {
			return err
		}
		if keyCount == 0 {
			return nil
		}
		fileSize, err := r.ReadU32BE()
		if err != nil {
			return err
		}
		hashBytes, err := r.ReadBytes(16)
		if err != nil {
			return err
		}
		var hash Hash
		copy(hash[:], hashBytes)

		keyBytes, err := r.ReadBytes(16)
		if err != nil {
			return err
		}
		var key Key
		copy(key[:], keyBytes)

		if !hash.IsZero() {
			if _, exists := m.entries[hash]; !exists {
				m.entries[hash] = Entry{DecodedSize: fileSize, Key: key}
			}
		}

		// Alternate keys beyond the first are recorded but ignored.
		if err := r.SeekRel(int(keyCount-1) * 16); err != nil {
			return err
		}
	}
}
