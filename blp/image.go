package blp

import (
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/wowdev/go-casc/internal/binreader"
)

// Image is a decoded BLP texture's top mip level. It implements
// image.Image so it can be handed directly to anything in the standard
// library's image ecosystem (png.Encode, draw.Draw, and so on).
type Image struct {
	width, height int
	pix           []byte // RGBA, stride width*4
}

var _ image.Image = (*Image)(nil)

func (im *Image) ColorModel() color.Model { return color.RGBAModel }

func (im *Image) Bounds() image.Rectangle { return image.Rect(0, 0, im.width, im.height) }

func (im *Image) At(x, y int) color.Color {
	if x < 0 || y < 0 || x >= im.width || y >= im.height {
		return color.RGBA{}
	}
	o := (y*im.width + x) * 4
	return color.RGBA{R: im.pix[o], G: im.pix[o+1], B: im.pix[o+2], A: im.pix[o+3]}
}

// RGBA returns the decoded pixel buffer backing the image, as
// interleaved R, G, B, A bytes in row-major order.
func (im *Image) RGBA() *image.RGBA {
	return &image.RGBA{
		Pix:    im.pix,
		Stride: im.width * 4,
		Rect:   im.Bounds(),
	}
}

// Decode reads a complete BLP2 texture and returns its top mip level.
func Decode(r io.Reader) (*Image, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("blp: read: %w", err)
	}

	br := binreader.New(buf)
	h, err := parseHeader(br)
	if err != nil {
		return nil, err
	}
	format, err := h.format()
	if err != nil {
		return nil, err
	}

	width, height := int(h.width), int(h.height)
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("blp: invalid dimensions %dx%d", width, height)
	}

	offset, size := int(h.mipOffsets[0]), int(h.mipSizes[0])
	if offset < 0 || size < 0 || offset+size > len(buf) {
		return nil, fmt.Errorf("blp: mip 0 range [%d,%d) out of bounds", offset, offset+size)
	}
	mip := buf[offset : offset+size]

	var pix []byte
	switch format {
	case formatPalette:
		pix, err = decodePalette(h, mip, width, height)
	case formatBGRA:
		pix, err = decodeBGRA(mip, width, height)
	case formatBC1, formatBC2, formatBC3:
		pix, err = decodeDXT(format, mip, width, height)
	default:
		err = fmt.Errorf("blp: unsupported pixel format")
	}
	if err != nil {
		return nil, err
	}

	return &Image{width: width, height: height, pix: pix}, nil
}
