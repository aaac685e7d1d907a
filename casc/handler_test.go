package casc

import (
	"bytes"
	"compress/zlib"
	"crypto/md5"
	"encoding/binary"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wowdev/go-casc/internal/jenkins"
)

// blteRaw wraps payload in the smallest legal headerless BLTE container (a
// zero-size BLTE header means "single raw frame, no descriptors").
func blteRaw(payload []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString("BLTE")
	binary.Write(&buf, binary.BigEndian, uint32(0))
	buf.WriteByte('N')
	buf.Write(payload)
	return buf.Bytes()
}

func zlibCompress(t *testing.T, payload []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	_, err := w.Write(payload)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

// blteZlib wraps payload in a single-block framed BLTE container using a
// zlib-compressed frame, matching the real-world encoding used by game data.
func blteZlib(t *testing.T, payload []byte) []byte {
	t.Helper()
	compressed := zlibCompress(t, payload)
	frame := append([]byte{'Z'}, compressed...)

	var descriptor bytes.Buffer
	binary.Write(&descriptor, binary.BigEndian, uint32(len(frame)))
	binary.Write(&descriptor, binary.BigEndian, uint32(len(payload)))
	sum := md5.Sum(frame)
	descriptor.Write(sum[:])

	headerSize := uint32(4 + 4 + 1 + 3 + descriptor.Len())

	var buf bytes.Buffer
	buf.WriteString("BLTE")
	binary.Write(&buf, binary.BigEndian, headerSize)
	buf.WriteByte(0x0F)
	buf.WriteByte(0x00)
	buf.WriteByte(0x00)
	buf.WriteByte(0x01)
	buf.Write(descriptor.Bytes())
	buf.Write(frame)
	return buf.Bytes()
}

// idxRecord packs one 18-byte .idx table entry per the documented bit
// layout: a 9-byte key prefix, blob index split across a high byte and the
// top two bits of a big-endian offset word, and a little-endian size.
func idxRecord(keyPrefix [9]byte, blobIndex int, offset, size uint32) []byte {
	var rec [18]byte
	copy(rec[0:9], keyPrefix[:])
	rec[9] = byte(blobIndex >> 2)
	loWord := (uint32(blobIndex&0x3)<<30 | (offset & 0x3FFFFFFF))
	binary.BigEndian.PutUint32(rec[10:14], loWord)
	binary.LittleEndian.PutUint32(rec[14:18], size)
	return rec[:]
}

func buildIdxFile(records [][]byte) []byte {
	var entries bytes.Buffer
	for _, r := range records {
		entries.Write(r)
	}

	var header bytes.Buffer
	binary.Write(&header, binary.LittleEndian, uint32(0)) // prolog length field; the parser derives the block start from it
	prologLen := 0
	header.Write(make([]byte, prologLen))

	var out bytes.Buffer
	out.Write(header.Bytes())
	blockStart := (8 + prologLen + 0x0F) &^ 0x0F
	for out.Len() < blockStart {
		out.WriteByte(0)
	}
	binary.Write(&out, binary.LittleEndian, uint32(entries.Len()))
	out.Write(make([]byte, 4))
	out.Write(entries.Bytes())
	return out.Bytes()
}

func buildRootBlock(count uint32, locale uint32, ids []uint32, hashes [][16]byte, nameHashes []uint64) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, count)
	buf.Write(make([]byte, 4)) // content flags
	binary.Write(&buf, binary.LittleEndian, locale)
	var prev uint32
	for i, id := range ids {
		if i == 0 {
			binary.Write(&buf, binary.LittleEndian, id)
		} else {
			binary.Write(&buf, binary.LittleEndian, id-prev-1)
		}
		prev = id
	}
	for i := range hashes {
		buf.Write(hashes[i][:])
		binary.Write(&buf, binary.LittleEndian, nameHashes[i])
	}
	return buf.Bytes()
}

func buildEncodingFile(chunks [][]byte) []byte {
	var buf bytes.Buffer
	buf.Write(make([]byte, 9))
	binary.Write(&buf, binary.BigEndian, uint32(len(chunks)))
	buf.Write(make([]byte, 5))
	binary.Write(&buf, binary.BigEndian, uint32(0)) // string block size
	base := buf.Len() + len(chunks)*32
	buf.Write(make([]byte, base-buf.Len()))
	for _, c := range chunks {
		padded := make([]byte, 0x1000)
		copy(padded, c)
		buf.Write(padded)
	}
	return buf.Bytes()
}

// encodingEntry packs one encoding-table record: a 1-key count, the decoded
// size, the content hash, and its content key. Callers append a final
// uint16(0) terminator after the last entry in a chunk, not after each one.
func encodingEntry(hash, key [16]byte, size uint32) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.BigEndian, size)
	buf.Write(hash[:])
	buf.Write(key[:])
	return buf.Bytes()
}

// writeBlobEntry appends a 30-byte header (content key followed by padding,
// never inspected by the reader) plus the BLTE payload, and returns the
// offset the entry starts at within blob 0.
func writeBlobEntry(blobFile *os.File, key [16]byte, blte []byte) (offset uint32, size uint32) {
	off, _ := blobFile.Seek(0, io.SeekEnd)
	header := make([]byte, 30)
	copy(header, key[:])
	blobFile.Write(header)
	blobFile.Write(blte)
	return uint32(off), uint32(30 + len(blte))
}

func hashFromByte(b byte) [16]byte {
	var h [16]byte
	h[0] = b
	return h
}

func TestHandlerEndToEnd(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "data", "data"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "data", "config", "ab", "cd"), 0o755))

	content := []byte("-- test\n")
	contentHash := md5.Sum(content) // stands in for the logical content hash
	contentKey := hashFromByte(0x11)
	fileBlte := blteRaw(content)

	blobFile, err := os.Create(filepath.Join(dir, "data", "data", "data.000"))
	require.NoError(t, err)
	fileOffset, fileSize := writeBlobEntry(blobFile, contentKey, fileBlte)

	encodingKey := hashFromByte(0x22)
	rootKey := hashFromByte(0x33)
	rootContentHash := hashFromByte(0x44)

	chunk := encodingEntry(contentHash, contentKey, uint32(len(content)))
	chunk = append(chunk, encodingEntry(rootContentHash, rootKey, 0)...)
	chunk = append(chunk, []byte{0, 0}...) // terminator
	encodingBlob := buildEncodingFile([][]byte{chunk})
	encodingBlte := blteZlib(t, encodingBlob)
	encodingOffset, encodingSize := writeBlobEntry(blobFile, encodingKey, encodingBlte)

	nameHash := jenkins.Hash64("interface/framexml/localization.lua")
	rootBlock := buildRootBlock(1, uint32(LocaleAll), []uint32{7}, [][16]byte{contentHash}, []uint64{nameHash})
	rootBlte := blteRaw(rootBlock)
	rootOffset, rootSize := writeBlobEntry(blobFile, rootKey, rootBlte)

	require.NoError(t, blobFile.Close())

	idxData := buildIdxFile([][]byte{
		idxRecord(prefix9(contentKey), 0, fileOffset, fileSize),
		idxRecord(prefix9(encodingKey), 0, encodingOffset, encodingSize),
		idxRecord(prefix9(rootKey), 0, rootOffset, rootSize),
	})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data", "data", "00000000.idx"), idxData, 0o644))

	buildConfig := "encoding = " + hex.EncodeToString([]byte{0}) + " " + hexKey(encodingKey) + "\n" +
		"root = " + hexKey(rootContentHash) + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data", "config", "ab", "cd", "abcd1234"), []byte(buildConfig), 0o644))

	buildInfo := "Branch!STRING:0|Active!DEC:1|Build Key!HEX:16|Version!String:0\n" +
		"wow|1|abcd1234|1.2.3.4\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".build.info"), []byte(buildInfo), 0o644))

	h, err := OpenHandler(dir)
	require.NoError(t, err)
	defer h.Close()

	require.True(t, h.Exists("interface/framexml/localization.lua"))
	require.False(t, h.Exists("missing"))

	got, err := h.Open("Interface/FrameXML/Localization.lua")
	require.NoError(t, err)
	require.Equal(t, content, got)
}

func prefix9(key [16]byte) [9]byte {
	var p [9]byte
	copy(p[:], key[:9])
	return p
}

func hexKey(key [16]byte) string {
	return hex.EncodeToString(key[:])
}
