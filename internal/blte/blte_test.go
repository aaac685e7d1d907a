package blte

import (
	"bytes"
	"compress/zlib"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeHeaderlessRaw(t *testing.T) {
	// "BLTE" + header_size=0 (BE) + 'N' + payload.
	input := []byte{0x42, 0x4C, 0x54, 0x45, 0x00, 0x00, 0x00, 0x00, 0x4E, 0x01, 0x02, 0x03}
	out, err := Decode(input)
	require.NoError(t, err)
	require.Equal(t, []byte{0x01, 0x02, 0x03}, out)
}

func TestDecodeFramedRaw(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0x42, 0x4C, 0x54, 0x45}) // magic
	buf.Write([]byte{0x00, 0x00, 0x00, 0x24})  // header_size = 36 = 24*1+12
	buf.WriteByte(0x0F)
	buf.Write([]byte{0x00, 0x00, 0x01}) // block_count = 1
	// descriptor: comp=5, decomp=4, md5 zeroed
	buf.Write([]byte{0x00, 0x00, 0x00, 0x05})
	buf.Write([]byte{0x00, 0x00, 0x00, 0x04})
	buf.Write(make([]byte, 16))
	// frame: 'N' + 4 bytes payload
	buf.Write([]byte{0x4E, 0x0A, 0x0B, 0x0C, 0x0D})

	out, err := Decode(buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, []byte{0x0A, 0x0B, 0x0C, 0x0D}, out)
}

func TestDecodeEncryptedFrameRejected(t *testing.T) {
	input := []byte{0x42, 0x4C, 0x54, 0x45, 0x00, 0x00, 0x00, 0x00, 0x45}
	_, err := Decode(input)
	require.ErrorIs(t, err, ErrEncryptedFrame)
}

func TestDecodeRecursiveFrameRejected(t *testing.T) {
	input := []byte{0x42, 0x4C, 0x54, 0x45, 0x00, 0x00, 0x00, 0x00, 0x46}
	_, err := Decode(input)
	require.ErrorIs(t, err, ErrRecursiveFrame)
}

func TestDecodeUnknownFrameType(t *testing.T) {
	input := []byte{0x42, 0x4C, 0x54, 0x45, 0x00, 0x00, 0x00, 0x00, 0x58}
	_, err := Decode(input)
	var unk UnknownFrameTypeError
	require.ErrorAs(t, err, &unk)
}

func TestDecodeBadMagic(t *testing.T) {
	_, err := Decode([]byte{0, 0, 0, 0, 0, 0, 0, 0})
	require.ErrorIs(t, err, ErrBadMagic)
}

func TestDecodeZlibFrameRoundTrip(t *testing.T) {
	payload := []byte("-- test\n")
	var zbuf bytes.Buffer
	zw := zlib.NewWriter(&zbuf)
	_, err := zw.Write(payload)
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	var buf bytes.Buffer
	buf.Write([]byte{0x42, 0x4C, 0x54, 0x45})
	buf.Write([]byte{0x00, 0x00, 0x00, 0x24})
	buf.WriteByte(0x0F)
	buf.Write([]byte{0x00, 0x00, 0x01})
	frame := append([]byte{'Z'}, zbuf.Bytes()...)
	compSize := uint32(len(frame))
	buf.Write([]byte{byte(compSize >> 24), byte(compSize >> 16), byte(compSize >> 8), byte(compSize)})
	decSize := uint32(len(payload))
	buf.Write([]byte{byte(decSize >> 24), byte(decSize >> 16), byte(decSize >> 8), byte(decSize)})
	buf.Write(make([]byte, 16))
	buf.Write(frame)

	out, err := Decode(buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, payload, out)
}

func TestDecodeMultipleRawBlocksConcatenateInOrder(t *testing.T) {
	parts := [][]byte{{1, 2, 3}, {4, 5}, {6}}
	var buf bytes.Buffer
	buf.Write([]byte{0x42, 0x4C, 0x54, 0x45})
	headerSize := uint32(24*len(parts) + 12)
	buf.Write([]byte{byte(headerSize >> 24), byte(headerSize >> 16), byte(headerSize >> 8), byte(headerSize)})
	buf.WriteByte(0x0F)
	bc := uint32(len(parts))
	buf.Write([]byte{byte(bc >> 16), byte(bc >> 8), byte(bc)})
	for _, p := range parts {
		comp := uint32(len(p) + 1)
		dec := uint32(len(p))
		buf.Write([]byte{byte(comp >> 24), byte(comp >> 16), byte(comp >> 8), byte(comp)})
		buf.Write([]byte{byte(dec >> 24), byte(dec >> 16), byte(dec >> 8), byte(dec)})
		buf.Write(make([]byte, 16))
	}
	var want []byte
	for _, p := range parts {
		buf.WriteByte('N')
		buf.Write(p)
		want = append(want, p...)
	}

	out, err := Decode(buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, want, out)
}
