// Package binreader provides a positioned reader over an in-memory byte
// buffer, used by go-casc's idx, encoding, root and blp parsers.
package binreader

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrEndOfStream is returned when a read would advance past the end of the
// underlying buffer. Reads never return a short result: either the full
// request succeeds or it fails with this error and the cursor is left
// unmoved.
var ErrEndOfStream = errors.New("binreader: end of stream")

// ErrNegativeSeek is returned by SeekRel when the relative offset would move
// the cursor before the start of the buffer.
var ErrNegativeSeek = errors.New("binreader: relative seek underflows")

// Reader wraps an immutable byte slice with a read cursor. It is not safe
// for concurrent use; callers needing concurrent access should construct one
// Reader per goroutine over the same backing slice.
type Reader struct {
	buf []byte
	pos int
}

// New returns a Reader positioned at the start of buf. buf is not copied;
// callers must not mutate it while the Reader is in use.
func New(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Len returns the total length of the underlying buffer.
func (r *Reader) Len() int {
	return len(r.buf)
}

// Tell returns the current absolute cursor position.
func (r *Reader) Tell() int {
	return r.pos
}

// HasAvailable reports whether at least n more bytes remain to be read.
func (r *Reader) HasAvailable(n int) bool {
	return r.pos+n <= len(r.buf)
}

// Seek moves the cursor to an absolute position. It fails if abs falls
// outside [0, len(buf)].
func (r *Reader) Seek(abs int) error {
	if abs < 0 || abs > len(r.buf) {
		return fmt.Errorf("binreader: seek to %d out of bounds [0, %d]: %w", abs, len(r.buf), ErrEndOfStream)
	}
	r.pos = abs
	return nil
}

// SeekRel moves the cursor by a signed delta relative to its current
// position. A delta that would make the resulting position negative is
// rejected with ErrNegativeSeek rather than wrapping or clamping.
func (r *Reader) SeekRel(delta int) error {
	next := r.pos + delta
	if next < 0 {
		return ErrNegativeSeek
	}
	if next > len(r.buf) {
		return ErrEndOfStream
	}
	r.pos = next
	return nil
}

// ReadBytes returns the next n bytes as a sub-slice of the underlying
// buffer (not a copy) and advances the cursor past them.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 || !r.HasAvailable(n) {
		return nil, ErrEndOfStream
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// ReadBytesCopy is like ReadBytes but returns an owned copy.
func (r *Reader) ReadBytesCopy(n int) ([]byte, error) {
	b, err := r.ReadBytes(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// ReadU8 reads a single byte.
func (r *Reader) ReadU8() (uint8, error) {
	b, err := r.ReadBytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadU16 reads a little-endian uint16.
func (r *Reader) ReadU16() (uint16, error) {
	b, err := r.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadU32 reads a little-endian uint32.
func (r *Reader) ReadU32() (uint32, error) {
	b, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadU64 reads a little-endian uint64.
func (r *Reader) ReadU64() (uint64, error) {
	b, err := r.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadU32BE reads a big-endian uint32.
func (r *Reader) ReadU32BE() (uint32, error) {
	b, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// ReadU24BE reads a big-endian 24-bit unsigned integer into a uint32.
func (r *Reader) ReadU24BE() (uint32, error) {
	b, err := r.ReadBytes(3)
	if err != nil {
		return 0, err
	}
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2]), nil
}
