package mpq

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// Compression method bits found in the leading byte of a "multi" compressed
// sector. Classic archives combine several of these; this reader only
// speaks the deflate method, which is what every modern Blizzard archive
// actually uses for non-audio data.
const (
	compressionZlib = 0x02
)

// decompressMulti inflates a single compressed sector into dst, which must
// already be sized to the expected unpacked length. The leading byte of src
// names the compression method(s) applied; anything other than plain zlib
// is rejected rather than silently mishandled.
func decompressMulti(dst, src []byte) error {
	if len(src) == 0 {
		return fmt.Errorf("mpq: empty compressed sector")
	}
	method := src[0]
	if method != compressionZlib {
		return fmt.Errorf("mpq: unsupported sector compression method %#02x", method)
	}

	zr, err := zlib.NewReader(bytes.NewReader(src[1:]))
	if err != nil {
		return fmt.Errorf("mpq: zlib: %w", err)
	}
	defer zr.Close()

	if _, err := io.ReadFull(zr, dst); err != nil {
		return fmt.Errorf("mpq: zlib: %w", err)
	}
	return nil
}
