package mpq

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

// buildArchive assembles the smallest legal MPQ image containing one
// uncompressed, single-unit file at headerSize=32 (format version 0).
func buildArchive(t *testing.T, name string, content []byte) []byte {
	t.Helper()

	const headerSize = 32
	const fileOffset = headerSize
	hashTableOffset := uint32(fileOffset + len(content))
	blockTableOffset := hashTableOffset + 16 // one hash entry

	var buf bytes.Buffer
	buf.Write(headerMagic[:])
	le32 := func(v uint32) { binary.Write(&buf, binary.LittleEndian, v) }
	le16 := func(v uint16) { binary.Write(&buf, binary.LittleEndian, v) }

	le32(headerSize)             // size
	le32(hashTableOffset + 16*1) // archiveSize (approximate, unused by reader)
	le16(0)                      // formatVersion
	le16(0)                      // sectorSizeShift
	le32(hashTableOffset)        // hashTableOffset
	le32(blockTableOffset)       // blockTableOffset
	le32(1)                      // hashTableEntries (power of two)
	le32(1)                      // blockTableEntries

	buf.Write(content)

	_, a, b := nameHash(name)
	hashEntryBuf := make([]byte, 16)
	binary.LittleEndian.PutUint32(hashEntryBuf[0:4], a)
	binary.LittleEndian.PutUint32(hashEntryBuf[4:8], b)
	binary.LittleEndian.PutUint16(hashEntryBuf[8:10], 0)
	binary.LittleEndian.PutUint16(hashEntryBuf[10:12], 0)
	binary.LittleEndian.PutUint32(hashEntryBuf[12:16], 0) // block index 0
	encryptInPlace(hashEntryBuf, tableKey("(hash table)"))
	buf.Write(hashEntryBuf)

	blockEntryBuf := make([]byte, 16)
	binary.LittleEndian.PutUint32(blockEntryBuf[0:4], fileOffset)
	binary.LittleEndian.PutUint32(blockEntryBuf[4:8], uint32(len(content)))
	binary.LittleEndian.PutUint32(blockEntryBuf[8:12], uint32(len(content)))
	binary.LittleEndian.PutUint32(blockEntryBuf[12:16], blockFlagFile|blockFlagSingleUnit)
	encryptInPlace(blockEntryBuf, tableKey("(block table)"))
	buf.Write(blockEntryBuf)

	return buf.Bytes()
}

// encryptInPlace is decrypt's inverse: it feeds the plaintext word (not the
// ciphertext word decrypt would see) into the running seed so that a later
// decrypt with the same key reconstructs these bytes exactly.
func encryptInPlace(data []byte, key uint32) {
	seed2 := uint32(0xEEEEEEEE)
	for i := 0; i+4 <= len(data); i += 4 {
		seed2 += cryptTable[0x400+(key&0xFF)]
		plain := binary.LittleEndian.Uint32(data[i : i+4])
		cipher := plain ^ (key + seed2)
		key = (^key << 21) + 0x11111111 | (key >> 11)
		seed2 = plain + seed2 + (seed2 << 5) + 3
		binary.LittleEndian.PutUint32(data[i:i+4], cipher)
	}
}

func TestArchiveReadFileRoundTrip(t *testing.T) {
	content := []byte("hello from a classic archive")
	data := buildArchive(t, "README.TXT", content)

	a, err := OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer a.Close()

	require.True(t, a.Exists("README.TXT"))
	require.True(t, a.Exists("readme.txt"), "lookups are case-insensitive")
	require.False(t, a.Exists("missing.txt"))

	got, err := a.ReadFile("readme.txt")
	require.NoError(t, err)
	require.Equal(t, content, got)
}

func TestHashStringIsDeterministic(t *testing.T) {
	require.Equal(t, hashString("(hash table)", hashTypeFileKey), hashString("(hash table)", hashTypeFileKey))
	require.NotEqual(t, hashString("(hash table)", hashTypeFileKey), hashString("(block table)", hashTypeFileKey))
}
