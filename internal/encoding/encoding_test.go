package encoding

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func buildEncodingFile(t *testing.T, numChunks uint32, stringBlock uint32, chunks [][]byte) []byte {
	t.Helper()
	var buf []byte
	buf = append(buf, make([]byte, 9)...) // unparsed prolog

	be32 := func(v uint32) []byte {
		b := make([]byte, 4)
		binary.BigEndian.PutUint32(b, v)
		return b
	}
	buf = append(buf, be32(numChunks)...)
	buf = append(buf, make([]byte, 5)...)
	buf = append(buf, be32(stringBlock)...)
	buf = append(buf, make([]byte, int(stringBlock)+int(numChunks)*32)...)

	chunkBase := len(buf)
	full := make([]byte, chunkBase)
	copy(full, buf)
	for _, c := range chunks {
		padded := make([]byte, 0x1000)
		copy(padded, c)
		full = append(full, padded...)
	}
	return full
}

func le16(v uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return b
}

func be32(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

func TestParseEncodingFile(t *testing.T) {
	var hash Hash
	for i := range hash {
		hash[i] = byte(i + 1)
	}
	var key Key
	for i := range key {
		key[i] = byte(0xA0 + i)
	}

	var chunk []byte
	chunk = append(chunk, le16(1)...)
	chunk = append(chunk, be32(8)...)
	chunk = append(chunk, hash[:]...)
	chunk = append(chunk, key[:]...)
	chunk = append(chunk, le16(0)...) // terminator

	data := buildEncodingFile(t, 1, 0, [][]byte{chunk})
	m, err := Parse(data)
	require.NoError(t, err)
	require.Equal(t, 1, m.Len())

	e, ok := m.Lookup(hash)
	require.True(t, ok)
	require.EqualValues(t, 8, e.DecodedSize)
	require.Equal(t, key, e.Key)
}

func TestParseEncodingFileSkipsAlternateKeys(t *testing.T) {
	var hash Hash
	hash[0] = 0xFF
	var key, altKey Key
	key[0] = 1
	altKey[0] = 2

	var chunk []byte
	chunk = append(chunk, le16(2)...) // one primary + one alternate key
	chunk = append(chunk, be32(16)...)
	chunk = append(chunk, hash[:]...)
	chunk = append(chunk, key[:]...)
	chunk = append(chunk, altKey[:]...)
	chunk = append(chunk, le16(0)...)

	data := buildEncodingFile(t, 1, 0, [][]byte{chunk})
	m, err := Parse(data)
	require.NoError(t, err)
	e, ok := m.Lookup(hash)
	require.True(t, ok)
	require.Equal(t, key, e.Key, "primary key is stored, alternate key is skipped")
}

func TestParseEncodingFileIgnoresZeroHash(t *testing.T) {
	var zero Hash
	var key Key
	key[0] = 9

	var chunk []byte
	chunk = append(chunk, le16(1)...)
	chunk = append(chunk, be32(4)...)
	chunk = append(chunk, zero[:]...)
	chunk = append(chunk, key[:]...)
	chunk = append(chunk, le16(0)...)

	data := buildEncodingFile(t, 1, 0, [][]byte{chunk})
	m, err := Parse(data)
	require.NoError(t, err)
	require.Equal(t, 0, m.Len())
}
