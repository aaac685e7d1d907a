// Package blte decodes the BLTE (Block Table Encoded) container format CASC
// uses to frame compressed blobs.
package blte

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

var (
	// ErrBadMagic is returned when the blob does not start with "BLTE".
	ErrBadMagic = errors.New("blte: bad magic")
	// ErrBadHeader is returned when the frame-table header fails its
	// internal consistency checks.
	ErrBadHeader = errors.New("blte: malformed header")
	// ErrTruncated is returned when the blob ends before a declared frame
	// or header field has been fully read.
	ErrTruncated = errors.New("blte: truncated")
	// ErrEncryptedFrame is returned for a frame of type 'E'; encrypted
	// BLTE frames are not supported.
	ErrEncryptedFrame = errors.New("blte: encrypted frames are not supported")
	// ErrRecursiveFrame is returned for a frame of type 'F'; nested BLTE
	// frames are not supported.
	ErrRecursiveFrame = errors.New("blte: recursive frames are not supported")
)

// UnknownFrameTypeError is returned when a frame's type indicator byte is
// not one of 'N', 'Z', 'E', 'F'.
type UnknownFrameTypeError byte

func (e UnknownFrameTypeError) Error() string {
	return fmt.Sprintf("blte: unknown frame type %#02x", byte(e))
}

const magic = 0x45544C42 // "BLTE" little-endian

type blockDescriptor struct {
	compressedSize   uint32
	decompressedSize uint32
}

// Decode reads a BLTE blob from data and returns its concatenated
// decompressed payload.
func Decode(data []byte) ([]byte, error) {
	if len(data) < 8 {
		return nil, ErrTruncated
	}
	if binary.LittleEndian.Uint32(data[0:4]) != magic {
		return nil, ErrBadMagic
	}
	headerSize := binary.BigEndian.Uint32(data[4:8])

	if headerSize == 0 {
		return decodeHeaderless(data)
	}
	return decodeFramed(data, headerSize)
}

func decodeHeaderless(data []byte) ([]byte, error) {
	// Single implicit frame: everything after the 8-byte prelude. The
	// first byte of that remainder is the frame-type indicator and is not
	// counted in decompressedSize.
	body := data[8:]
	if len(body) < 1 {
		return nil, ErrTruncated
	}
	return decodeFrameStreaming(body[0], body[1:], len(body)-1)
}

func decodeFramed(data []byte, headerSize uint32) ([]byte, error) {
	if len(data) < int(8+headerSize) {
		return nil, ErrTruncated
	}
	rest := data[8:]
	if len(rest) < 4 {
		return nil, ErrTruncated
	}
	if rest[0] != 0x0F {
		return nil, fmt.Errorf("%w: missing 0x0F sentinel", ErrBadHeader)
	}
	blockCount := uint32(rest[1])<<16 | uint32(rest[2])<<8 | uint32(rest[3])
	if blockCount == 0 {
		return nil, fmt.Errorf("%w: zero block count", ErrBadHeader)
	}
	if headerSize != 24*blockCount+12 {
		return nil, fmt.Errorf("%w: header_size %d does not match block_count %d", ErrBadHeader, headerSize, blockCount)
	}

	descTable := rest[4:]
	blocks := make([]blockDescriptor, blockCount)
	off := 0
	for i := range blocks {
		if len(descTable) < off+24 {
			return nil, ErrTruncated
		}
		blocks[i].compressedSize = binary.BigEndian.Uint32(descTable[off : off+4])
		blocks[i].decompressedSize = binary.BigEndian.Uint32(descTable[off+4 : off+8])
		// checksum (16 bytes) is stored but never verified.
		off += 24
	}

	var total uint32
	for _, b := range blocks {
		total += b.decompressedSize
	}
	out := make([]byte, 0, total)

	// headerSize counts the magic and size fields too, so frames begin
	// headerSize bytes into the blob.
	body := data[headerSize:]
	pos := 0
	for _, b := range blocks {
		if len(body) < pos+int(b.compressedSize) {
			return nil, ErrTruncated
		}
		frame := body[pos : pos+int(b.compressedSize)]
		pos += int(b.compressedSize)
		if len(frame) < 1 {
			return nil, ErrTruncated
		}
		decoded, err := decodeFrame(frame[0], frame[1:], int(b.decompressedSize))
		if err != nil {
			return nil, err
		}
		out = append(out, decoded...)
	}
	return out, nil
}

// decodeFrame decodes a single frame whose decompressed length is known in
// advance (the framed-header case).
func decodeFrame(frameType byte, payload []byte, decompressedSize int) ([]byte, error) {
	switch frameType {
	case 'N':
		if len(payload) != decompressedSize {
			return nil, fmt.Errorf("%w: raw frame length %d != declared %d", ErrBadSizes, len(payload), decompressedSize)
		}
		return payload, nil
	case 'Z':
		out := make([]byte, decompressedSize)
		if err := inflateInto(payload, out); err != nil {
			return nil, err
		}
		return out, nil
	case 'E':
		return nil, ErrEncryptedFrame
	case 'F':
		return nil, ErrRecursiveFrame
	default:
		return nil, UnknownFrameTypeError(frameType)
	}
}

// ErrBadSizes is returned when a frame's declared and actual sizes disagree.
var ErrBadSizes = errors.New("blte: size mismatch")

// decodeFrameStreaming decodes the single implicit frame of a headerless
// blob, where the decompressed size is not known up front for 'Z' frames
// and must be inflated in growable chunks.
func decodeFrameStreaming(frameType byte, payload []byte, compressedSize int) ([]byte, error) {
	switch frameType {
	case 'N':
		return payload, nil
	case 'Z':
		return inflateStreaming(payload, compressedSize)
	case 'E':
		return nil, ErrEncryptedFrame
	case 'F':
		return nil, ErrRecursiveFrame
	default:
		return nil, UnknownFrameTypeError(frameType)
	}
}

// inflateInto decompresses payload into a preallocated exact-size
// destination. Callers pass the frame body with its single leading 'Z'
// type-indicator byte already stripped, so payload begins directly with the
// zlib stream header.
func inflateInto(payload []byte, dst []byte) error {
	zr, err := zlib.NewReader(bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("blte: zlib: %w", err)
	}
	defer zr.Close()
	if _, err := io.ReadFull(zr, dst); err != nil {
		return fmt.Errorf("blte: zlib: %w", err)
	}
	return nil
}

func inflateStreaming(payload []byte, compressedSize int) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("blte: zlib: %w", err)
	}
	defer zr.Close()

	var out bytes.Buffer
	chunk := make([]byte, compressedSize)
	for {
		n, err := zr.Read(chunk)
		if n > 0 {
			out.Write(chunk[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("blte: zlib: %w", err)
		}
	}
	return out.Bytes(), nil
}
