package blp

import "encoding/binary"

type rgba struct {
	r, g, b, a byte
}

// unpack565 expands a 16-bit 5:6:5 color into 8-bit channels.
func unpack565(v uint16) (r, g, b byte) {
	r5 := byte(v & 0x1F)
	g6 := byte((v >> 5) & 0x3F)
	b5 := byte((v >> 11) & 0x1F)
	r = (r5 << 3) | (r5 >> 2)
	g = (g6 << 2) | (g6 >> 4)
	b = (b5 << 3) | (b5 >> 2)
	return
}

// colorPalette builds the 4-entry interpolated color ramp shared by BC1,
// BC2, and BC3 blocks. use4Colors forces the always-four-opaque-color
// ramp BC2/BC3 use; BC1 instead branches on the numeric order of its two
// endpoints to decide whether its fourth entry is an interpolated color or
// transparent black.
func colorPalette(color0, color1 uint16, use4Colors bool) [4]rgba {
	r0, g0, b0 := unpack565(color0)
	r1, g1, b1 := unpack565(color1)

	var pal [4]rgba
	pal[0] = rgba{r0, g0, b0, 0xFF}
	pal[1] = rgba{r1, g1, b1, 0xFF}

	if use4Colors || color0 > color1 {
		pal[2] = rgba{
			byte((2*int(r0) + int(r1)) / 3),
			byte((2*int(g0) + int(g1)) / 3),
			byte((2*int(b0) + int(b1)) / 3),
			0xFF,
		}
		pal[3] = rgba{
			byte((int(r0) + 2*int(r1)) / 3),
			byte((int(g0) + 2*int(g1)) / 3),
			byte((int(b0) + 2*int(b1)) / 3),
			0xFF,
		}
	} else {
		pal[2] = rgba{
			byte((int(r0) + int(r1)) / 2),
			byte((int(g0) + int(g1)) / 2),
			byte((int(b0) + int(b1)) / 2),
			0xFF,
		}
		pal[3] = rgba{0, 0, 0, 0}
	}
	return pal
}

// decodeDXT reassembles a mip level stored as 4x4 block-compressed texels.
// blockSize is 8 for BC1 and 16 for BC2/BC3.
func decodeDXT(format pixelFormat, data []byte, width, height int) ([]byte, error) {
	blockSize := 8
	if format != formatBC1 {
		blockSize = 16
	}

	blocksW := (width + 3) / 4
	blocksH := (height + 3) / 4
	need := blocksW * blocksH * blockSize
	if len(data) < need {
		return nil, errShortMip("DXT blocks", need, len(data))
	}

	out := make([]byte, width*height*4)
	pos := 0
	for by := 0; by < blocksH; by++ {
		for bx := 0; bx < blocksW; bx++ {
			block := data[pos : pos+blockSize]
			pos += blockSize

			var texels [16]rgba
			switch format {
			case formatBC1:
				decodeBC1Block(block, &texels)
			case formatBC2:
				decodeBC2Block(block, &texels)
			case formatBC3:
				decodeBC3Block(block, &texels)
			}

			for ty := 0; ty < 4; ty++ {
				y := by*4 + ty
				if y >= height {
					continue
				}
				for tx := 0; tx < 4; tx++ {
					x := bx*4 + tx
					if x >= width {
						continue
					}
					px := texels[ty*4+tx]
					o := (y*width + x) * 4
					out[o+0] = px.r
					out[o+1] = px.g
					out[o+2] = px.b
					out[o+3] = px.a
				}
			}
		}
	}
	return out, nil
}

func decodeBC1Block(block []byte, texels *[16]rgba) {
	color0 := binary.LittleEndian.Uint16(block[0:2])
	color1 := binary.LittleEndian.Uint16(block[2:4])
	indices := binary.LittleEndian.Uint32(block[4:8])
	pal := colorPalette(color0, color1, false)

	for i := 0; i < 16; i++ {
		idx := (indices >> uint(i*2)) & 0x3
		texels[i] = pal[idx]
	}
}

// decodeBC2Block decodes a DXT3-style block: 8 bytes of explicit 4-bit
// per-texel alpha followed by a standard always-opaque 4-color block.
func decodeBC2Block(block []byte, texels *[16]rgba) {
	alphaBits := binary.LittleEndian.Uint64(block[0:8])
	color0 := binary.LittleEndian.Uint16(block[8:10])
	color1 := binary.LittleEndian.Uint16(block[10:12])
	indices := binary.LittleEndian.Uint32(block[12:16])
	pal := colorPalette(color0, color1, true)

	for i := 0; i < 16; i++ {
		idx := (indices >> uint(i*2)) & 0x3
		nibble := byte((alphaBits >> uint(i*4)) & 0xF)
		c := pal[idx]
		c.a = nibble * 17
		texels[i] = c
	}
}

// decodeBC3Block decodes a DXT5-style block: two alpha endpoints and a
// 3-bit-per-texel interpolated alpha index, followed by a standard
// always-opaque 4-color block.
func decodeBC3Block(block []byte, texels *[16]rgba) {
	alpha0 := block[0]
	alpha1 := block[1]
	alphaIdx := uint64(block[2]) | uint64(block[3])<<8 | uint64(block[4])<<16 |
		uint64(block[5])<<24 | uint64(block[6])<<32 | uint64(block[7])<<40

	var alphaRamp [8]byte
	alphaRamp[0] = alpha0
	alphaRamp[1] = alpha1
	if alpha0 > alpha1 {
		for i := 1; i <= 6; i++ {
			alphaRamp[1+i] = byte((int(7-i)*int(alpha0) + i*int(alpha1)) / 7)
		}
	} else {
		for i := 1; i <= 4; i++ {
			alphaRamp[1+i] = byte((int(5-i)*int(alpha0) + i*int(alpha1)) / 5)
		}
		alphaRamp[6] = 0
		alphaRamp[7] = 0xFF
	}

	color0 := binary.LittleEndian.Uint16(block[8:10])
	color1 := binary.LittleEndian.Uint16(block[10:12])
	indices := binary.LittleEndian.Uint32(block[12:16])
	pal := colorPalette(color0, color1, true)

	for i := 0; i < 16; i++ {
		idx := (indices >> uint(i*2)) & 0x3
		aIdx := (alphaIdx >> uint(i*3)) & 0x7
		c := pal[idx]
		c.a = alphaRamp[aIdx]
		texels[i] = c
	}
}
