package delta

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// Sequence file layout: a fixed header, the base frame stored verbatim, then
// one zstd-compressed delta record per remaining frame. All integers are
// little-endian.

var sequenceMagic = [4]byte{'B', 'C', '7', 'D'}

const sequenceVersion = 1

// sequence header: magic(4) version(4) width(4) height(4) frameCount(4) frameSize(4)
const sequenceHeaderSize = 24

// maxDimension matches the D3D11 texture size limit; headers claiming more
// are corrupt.
const maxDimension = 16384

// rgbaFrameSize returns the byte size of one width x height RGBA frame.
func rgbaFrameSize(width, height int) (int, error) {
	if width <= 0 || height <= 0 || width > maxDimension || height > maxDimension {
		return 0, fmt.Errorf("delta: invalid dimensions %dx%d", width, height)
	}
	return width * height * 4, nil
}

// Sequence is a delta-encoded run of equally sized frames. Frame zero is the
// base; every later frame is a signed difference against its predecessor.
type Sequence struct {
	Width  int
	Height int

	// Base is the first frame, stored whole.
	Base []byte

	// Deltas holds one signed difference plane per subsequent frame.
	Deltas [][]int8
}

// NewSequence delta-encodes interleaved RGBA frames of the given dimensions.
func NewSequence(width, height int, frames [][]byte) (*Sequence, error) {
	if len(frames) == 0 {
		return nil, errors.New("delta: no frames")
	}

	frameSize, err := rgbaFrameSize(width, height)
	if err != nil {
		return nil, err
	}
	if len(frames[0]) != frameSize {
		return nil, fmt.Errorf("delta: frame 0 is %d bytes, want %d for %dx%d RGBA", len(frames[0]), frameSize, width, height)
	}
	s := &Sequence{
		Width:  width,
		Height: height,
		Base:   append([]byte(nil), frames[0]...),
	}

	for i := 1; i < len(frames); i++ {
		if len(frames[i]) != frameSize {
			return nil, fmt.Errorf("delta: frame %d is %d bytes, want %d", i, len(frames[i]), frameSize)
		}
		d := make([]int8, frameSize)
		if err := Diff(d, frames[i-1], frames[i]); err != nil {
			return nil, err
		}
		s.Deltas = append(s.Deltas, d)
	}
	return s, nil
}

// FrameCount returns the number of frames the sequence reconstructs.
func (s *Sequence) FrameCount() int {
	return 1 + len(s.Deltas)
}

// Frames reconstructs every frame. The base and the cumulative clamping make
// the result identical to what a player applying deltas one by one shows.
func (s *Sequence) Frames() ([][]byte, error) {
	out := make([][]byte, 0, s.FrameCount())
	out = append(out, append([]byte(nil), s.Base...))

	curr := append([]byte(nil), s.Base...)
	for _, d := range s.Deltas {
		if err := Apply(curr, d); err != nil {
			return nil, err
		}
		out = append(out, append([]byte(nil), curr...))
	}
	return out, nil
}

// WriteTo writes the sequence with each delta record zstd-compressed.
func (s *Sequence) WriteTo(w io.Writer) (int64, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return 0, err
	}
	defer enc.Close()

	frameSize := len(s.Base)

	var hdr [sequenceHeaderSize]byte
	copy(hdr[0:4], sequenceMagic[:])
	binary.LittleEndian.PutUint32(hdr[4:], sequenceVersion)
	binary.LittleEndian.PutUint32(hdr[8:], uint32(s.Width))
	binary.LittleEndian.PutUint32(hdr[12:], uint32(s.Height))
	binary.LittleEndian.PutUint32(hdr[16:], uint32(s.FrameCount()))
	binary.LittleEndian.PutUint32(hdr[20:], uint32(frameSize))

	var written int64
	n, err := w.Write(hdr[:])
	written += int64(n)
	if err != nil {
		return written, err
	}

	n, err = w.Write(s.Base)
	written += int64(n)
	if err != nil {
		return written, err
	}

	raw := make([]byte, frameSize)
	for _, d := range s.Deltas {
		for i, v := range d {
			raw[i] = byte(v)
		}
		compressed := enc.EncodeAll(raw, nil)

		var size [4]byte
		binary.LittleEndian.PutUint32(size[:], uint32(len(compressed)))
		n, err = w.Write(size[:])
		written += int64(n)
		if err != nil {
			return written, err
		}
		n, err = w.Write(compressed)
		written += int64(n)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// ReadSequence parses a sequence written by WriteTo.
func ReadSequence(r io.Reader) (*Sequence, error) {
	var hdr [sequenceHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("delta: reading header: %w", err)
	}
	if [4]byte(hdr[0:4]) != sequenceMagic {
		return nil, errors.New("delta: invalid magic")
	}
	if v := binary.LittleEndian.Uint32(hdr[4:]); v != sequenceVersion {
		return nil, fmt.Errorf("delta: unsupported version %d", v)
	}

	width := int(binary.LittleEndian.Uint32(hdr[8:]))
	height := int(binary.LittleEndian.Uint32(hdr[12:]))
	frameCount := int(binary.LittleEndian.Uint32(hdr[16:]))
	frameSize := int(binary.LittleEndian.Uint32(hdr[20:]))
	if frameCount == 0 {
		return nil, errors.New("delta: empty sequence")
	}

	// The header's sizes must be mutually consistent before anything is
	// allocated from them.
	wantSize, err := rgbaFrameSize(width, height)
	if err != nil {
		return nil, err
	}
	if frameSize != wantSize {
		return nil, fmt.Errorf("delta: frame size %d does not match %dx%d RGBA (%d bytes)", frameSize, width, height, wantSize)
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	s := &Sequence{
		Width:  width,
		Height: height,
		Base:   make([]byte, frameSize),
	}
	if _, err := io.ReadFull(r, s.Base); err != nil {
		return nil, fmt.Errorf("delta: reading base frame: %w", err)
	}

	for i := 1; i < frameCount; i++ {
		var size [4]byte
		if _, err := io.ReadFull(r, size[:]); err != nil {
			return nil, fmt.Errorf("delta: reading record %d: %w", i, err)
		}
		recordSize := int(binary.LittleEndian.Uint32(size[:]))
		if recordSize > frameSize+frameSize>>8+64 {
			// Past the zstd worst-case bound for one frame.
			return nil, fmt.Errorf("delta: record %d claims %d bytes for a %d byte frame", i, recordSize, frameSize)
		}
		compressed := make([]byte, recordSize)
		if _, err := io.ReadFull(r, compressed); err != nil {
			return nil, fmt.Errorf("delta: reading record %d: %w", i, err)
		}

		raw, err := dec.DecodeAll(compressed, nil)
		if err != nil {
			return nil, fmt.Errorf("delta: decompressing record %d: %w", i, err)
		}
		if len(raw) != frameSize {
			return nil, fmt.Errorf("delta: record %d is %d bytes, want %d", i, len(raw), frameSize)
		}

		d := make([]int8, frameSize)
		for j, b := range raw {
			d[j] = int8(b)
		}
		s.Deltas = append(s.Deltas, d)
	}
	return s, nil
}
