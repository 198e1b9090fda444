package bc7

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// DDS container support for BC7 payloads. Blocks are stored with the DX10
// extended header; the legacy FourCC slot carries "DX10" and the real format
// lives in the extension.

var ddsMagic = [4]byte{'D', 'D', 'S', ' '}

const (
	// DDSHeaderSize covers the magic, the legacy header and the DX10
	// extension.
	DDSHeaderSize = 4 + 124 + 20

	dxgiFormatBC7UNorm       = 98
	resourceDimensionTexture = 3

	ddsdCaps        = 0x1
	ddsdHeight      = 0x2
	ddsdWidth       = 0x4
	ddsdPixelFormat = 0x1000
	ddsdLinearSize  = 0x80000

	ddpfFourCC = 0x4

	ddsCapsTexture = 0x1000
)

// DDSHeader describes a single-surface BC7 texture.
type DDSHeader struct {
	Width  uint32
	Height uint32
}

func (h DDSHeader) String() string {
	return fmt.Sprintf("DDS BC7 %dx%d texels", h.Width, h.Height)
}

func (h DDSHeader) validate() error {
	if h.Width == 0 || h.Height == 0 {
		return errors.New("dds: invalid header: zero image dimension")
	}
	return nil
}

// BlockCount returns the compressed block grid for this surface.
func (h DDSHeader) BlockCount() (blocksX, blocksY, total int, err error) {
	if err := h.validate(); err != nil {
		return 0, 0, 0, err
	}

	blocksX = int((h.Width + BlockWidth - 1) / BlockWidth)
	blocksY = int((h.Height + BlockWidth - 1) / BlockWidth)

	total = blocksX * blocksY
	if total/blocksX != blocksY { // overflow check
		return 0, 0, 0, errors.New("dds: invalid header: block count overflow")
	}
	return blocksX, blocksY, total, nil
}

// MarshalDDSHeader returns the header bytes for h: magic, legacy DDS_HEADER
// and the DX10 extension naming DXGI_FORMAT_BC7_UNORM.
func MarshalDDSHeader(h DDSHeader) ([DDSHeaderSize]byte, error) {
	var out [DDSHeaderSize]byte
	if err := h.validate(); err != nil {
		return out, err
	}

	blocksX, _, _, err := h.BlockCount()
	if err != nil {
		return out, err
	}

	le := binary.LittleEndian

	copy(out[0:4], ddsMagic[:])
	le.PutUint32(out[4:], 124) // dwSize
	le.PutUint32(out[8:], ddsdCaps|ddsdHeight|ddsdWidth|ddsdPixelFormat|ddsdLinearSize)
	le.PutUint32(out[12:], h.Height)
	le.PutUint32(out[16:], h.Width)
	le.PutUint32(out[20:], uint32(blocksX*BlockBytes)) // dwPitchOrLinearSize, one block row
	le.PutUint32(out[28:], 1)                          // dwMipMapCount

	// DDS_PIXELFORMAT at offset 76
	le.PutUint32(out[76:], 32) // dwSize
	le.PutUint32(out[80:], ddpfFourCC)
	copy(out[84:88], "DX10")

	le.PutUint32(out[108:], ddsCapsTexture)

	// DX10 extension at offset 128
	le.PutUint32(out[128:], dxgiFormatBC7UNorm)
	le.PutUint32(out[132:], resourceDimensionTexture)
	le.PutUint32(out[140:], 1) // arraySize

	return out, nil
}

// ParseDDS parses a DX10 BC7 .dds file and returns the header and the block
// payload. The payload slice aliases data.
func ParseDDS(data []byte) (DDSHeader, []byte, error) {
	if len(data) < DDSHeaderSize {
		return DDSHeader{}, nil, ddsErrUnexpectedEOF("dds header", DDSHeaderSize, len(data))
	}
	if data[0] != ddsMagic[0] || data[1] != ddsMagic[1] || data[2] != ddsMagic[2] || data[3] != ddsMagic[3] {
		return DDSHeader{}, nil, errors.New("dds: invalid magic")
	}

	le := binary.LittleEndian

	if le.Uint32(data[4:]) != 124 {
		return DDSHeader{}, nil, errors.New("dds: invalid header size")
	}
	if le.Uint32(data[80:])&ddpfFourCC == 0 || string(data[84:88]) != "DX10" {
		return DDSHeader{}, nil, errors.New("dds: not a DX10 texture")
	}
	if format := le.Uint32(data[128:]); format != dxgiFormatBC7UNorm {
		return DDSHeader{}, nil, fmt.Errorf("dds: DXGI format %d, want BC7_UNORM (%d)", format, dxgiFormatBC7UNorm)
	}
	if dim := le.Uint32(data[132:]); dim != resourceDimensionTexture {
		return DDSHeader{}, nil, fmt.Errorf("dds: resource dimension %d, want texture2d (%d)", dim, resourceDimensionTexture)
	}

	h := DDSHeader{
		Width:  le.Uint32(data[16:]),
		Height: le.Uint32(data[12:]),
	}
	if err := h.validate(); err != nil {
		return DDSHeader{}, nil, err
	}

	_, _, total, err := h.BlockCount()
	if err != nil {
		return DDSHeader{}, nil, err
	}

	need := DDSHeaderSize + total*BlockBytes
	if len(data) < need {
		return DDSHeader{}, nil, ddsErrUnexpectedEOF("dds file", need, len(data))
	}

	return h, data[DDSHeaderSize:need], nil
}

// MarshalDDS writes a complete .dds file for blocks, which must hold exactly
// the compressed payload for the header's dimensions.
func MarshalDDS(h DDSHeader, blocks []byte) ([]byte, error) {
	hdr, err := MarshalDDSHeader(h)
	if err != nil {
		return nil, err
	}

	_, _, total, err := h.BlockCount()
	if err != nil {
		return nil, err
	}
	if len(blocks) != total*BlockBytes {
		return nil, fmt.Errorf("dds: payload is %d bytes, want %d", len(blocks), total*BlockBytes)
	}

	out := make([]byte, 0, DDSHeaderSize+len(blocks))
	out = append(out, hdr[:]...)
	out = append(out, blocks...)
	return out, nil
}

func ddsErrUnexpectedEOF(what string, want, got int) error {
	return fmt.Errorf("dds: %s: unexpected EOF: want %d bytes, got %d", what, want, got)
}
