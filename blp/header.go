// Package blp decodes BLP textures, the block-compressed image format
// CASC-hosted game clients store alongside their other assets, into the
// standard library's image.Image.
package blp

import (
	"fmt"

	"github.com/wowdev/go-casc/internal/binreader"
)

// pixelFormat is the decoded representation a mip level's raw bytes are
// stored in, derived from the header's compression and alphaCompression
// fields.
type pixelFormat int

const (
	formatUnknown pixelFormat = iota
	formatPalette             // indexed color, separate alpha plane
	formatBGRA                // uncompressed 32-bit-per-pixel
	formatBC1                 // DXT1: 4x4 blocks, no alpha or 1-bit alpha
	formatBC2                 // DXT3-style: 4x4 blocks, explicit 4-bit alpha
	formatBC3                 // DXT5-style: 4x4 blocks, interpolated alpha
)

const mipLevels = 16
const paletteEntries = 256

// header is BLP2's fixed-size preamble: four-byte magic, a format byte
// quad, dimensions, per-mip offset/size tables, and (always present,
// whether or not the image is palettized) a 256-entry BGRA palette.
type header struct {
	magic            [4]byte
	contentType      uint32
	compression      uint8
	alphaDepth       uint8
	alphaCompression uint8
	hasMips          uint8
	width            uint32
	height           uint32
	mipOffsets       [mipLevels]uint32
	mipSizes         [mipLevels]uint32
	palette          [paletteEntries]uint32
}

func parseHeader(r *binreader.Reader) (*header, error) {
	magicBytes, err := r.ReadBytes(4)
	if err != nil {
		return nil, fmt.Errorf("blp: read magic: %w", err)
	}
	h := &header{}
	copy(h.magic[:], magicBytes)
	if h.magic != [4]byte{'B', 'L', 'P', '2'} {
		return nil, fmt.Errorf("blp: unsupported magic %q, only BLP2 is implemented", h.magic)
	}

	h.contentType, err = r.ReadU32()
	if err != nil {
		return nil, fmt.Errorf("blp: read content type: %w", err)
	}
	h.compression, err = r.ReadU8()
	if err != nil {
		return nil, err
	}
	h.alphaDepth, err = r.ReadU8()
	if err != nil {
		return nil, err
	}
	h.alphaCompression, err = r.ReadU8()
	if err != nil {
		return nil, err
	}
	h.hasMips, err = r.ReadU8()
	if err != nil {
		return nil, err
	}
	h.width, err = r.ReadU32()
	if err != nil {
		return nil, fmt.Errorf("blp: read width: %w", err)
	}
	h.height, err = r.ReadU32()
	if err != nil {
		return nil, fmt.Errorf("blp: read height: %w", err)
	}
	for i := range h.mipOffsets {
		h.mipOffsets[i], err = r.ReadU32()
		if err != nil {
			return nil, fmt.Errorf("blp: read mip offset %d: %w", i, err)
		}
	}
	for i := range h.mipSizes {
		h.mipSizes[i], err = r.ReadU32()
		if err != nil {
			return nil, fmt.Errorf("blp: read mip size %d: %w", i, err)
		}
	}
	for i := range h.palette {
		h.palette[i], err = r.ReadU32()
		if err != nil {
			return nil, fmt.Errorf("blp: read palette entry %d: %w", i, err)
		}
	}
	return h, nil
}

// format resolves the header's compression fields to the concrete pixel
// layout mip 0's bytes are encoded in.
func (h *header) format() (pixelFormat, error) {
	switch h.compression {
	case 1:
		return formatPalette, nil
	case 2:
		switch h.alphaCompression {
		case 0:
			return formatBC1, nil
		case 1:
			return formatBC2, nil
		case 7:
			return formatBC3, nil
		default:
			return formatUnknown, fmt.Errorf("blp: unrecognized alpha compression %d", h.alphaCompression)
		}
	case 3:
		return formatBGRA, nil
	default:
		return formatUnknown, fmt.Errorf("blp: unrecognized compression type %d", h.compression)
	}
}
