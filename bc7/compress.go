package bc7

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Encoder compresses RGBA images to BC7 blocks with a fixed quality
// configuration. It is safe for concurrent use: all per-block state lives on
// the stack of the calling goroutine.
type Encoder struct {
	settings Settings
}

// NewEncoder validates the settings and returns an encoder bound to them.
func NewEncoder(settings Settings) (*Encoder, error) {
	if err := settings.validate(); err != nil {
		return nil, err
	}
	return &Encoder{settings: settings}, nil
}

// Settings returns a copy of the encoder's configuration.
func (e *Encoder) Settings() Settings {
	return e.settings
}

// EncodeBlock compresses a single 4x4 tile. src holds 16 interleaved RGBA
// texels (64 bytes, row-major) and dst receives the 16-byte block.
func (e *Encoder) EncodeBlock(dst []byte, src []byte) error {
	if len(src) < BlockTexels*4 {
		return newError(ErrBadParam, fmt.Sprintf("source tile is %d bytes, need %d", len(src), BlockTexels*4))
	}
	if len(dst) < BlockBytes {
		return newError(ErrBadParam, fmt.Sprintf("destination is %d bytes, need %d", len(dst), BlockBytes))
	}

	c := newBlockCompressor(&e.settings)
	LoadBlockInterleavedRGBA(&c.block, src, 0, 0, BlockWidth*4, 0)
	c.computeOpaqueErr()
	c.compressBlock()
	c.storeData(dst, 1, 0, 0)
	return nil
}

// Encode compresses the full image. src holds interleaved RGBA rows of
// stride bytes each; width and height must be multiples of 4. dst must hold
// at least BlocksByteSize(width, height) bytes.
func (e *Encoder) Encode(dst []byte, src []byte, width, height, stride int) error {
	return e.EncodeSubImage(dst, src, width, height, stride, 0)
}

// EncodeSubImage compresses a horizontal band of a taller source buffer.
// rowOffset is the pixel row of the band's first row within src; the band's
// blocks are written to dst starting at block 0, so several logical images
// stacked in one buffer encode to independent block buffers. rowOffset and
// height must be multiples of 4.
func (e *Encoder) EncodeSubImage(dst []byte, src []byte, width, height, stride, rowOffset int) error {
	if err := checkImageArgs(dst, src, width, height, stride, rowOffset); err != nil {
		return err
	}

	blockWidth := width / BlockWidth
	blockHeight := height / BlockWidth

	for by := 0; by < blockHeight; by++ {
		for bx := 0; bx < blockWidth; bx++ {
			c := newBlockCompressor(&e.settings)
			LoadBlockInterleavedRGBA(&c.block, src, bx, by, stride, rowOffset)
			c.computeOpaqueErr()
			c.compressBlock()
			c.storeData(dst, blockWidth, bx, by)
		}
	}
	return nil
}

// EncodeParallel compresses the image across workers goroutines. Blocks are
// handed out through a shared atomic counter so fast workers take up slack
// from slow ones. The output is byte-identical to Encode.
func (e *Encoder) EncodeParallel(ctx context.Context, dst []byte, src []byte, width, height, stride, workers int) error {
	if err := checkImageArgs(dst, src, width, height, stride, 0); err != nil {
		return err
	}
	if workers < 1 {
		return newError(ErrBadParam, fmt.Sprintf("worker count %d, need at least 1", workers))
	}

	blockWidth := width / BlockWidth
	blockHeight := height / BlockWidth
	totalBlocks := blockWidth * blockHeight

	var nextBlock atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for {
				n := nextBlock.Add(1) - 1
				if n >= int64(totalBlocks) {
					return nil
				}
				if err := ctx.Err(); err != nil {
					return err
				}

				bx := int(n) % blockWidth
				by := int(n) / blockWidth

				c := newBlockCompressor(&e.settings)
				LoadBlockInterleavedRGBA(&c.block, src, bx, by, stride, 0)
				c.computeOpaqueErr()
				c.compressBlock()
				c.storeData(dst, blockWidth, bx, by)
			}
		})
	}
	return g.Wait()
}

func checkImageArgs(dst []byte, src []byte, width, height, stride, rowOffset int) error {
	if width <= 0 || height <= 0 {
		return newError(ErrBadImage, fmt.Sprintf("image size %dx%d", width, height))
	}
	if width%BlockWidth != 0 || height%BlockWidth != 0 {
		return newError(ErrBadImage, fmt.Sprintf("image size %dx%d is not a multiple of %d", width, height, BlockWidth))
	}
	if rowOffset%BlockWidth != 0 || rowOffset < 0 {
		return newError(ErrBadParam, fmt.Sprintf("row offset %d is not a non-negative multiple of %d", rowOffset, BlockWidth))
	}
	if stride < width*4 {
		return newError(ErrBadParam, fmt.Sprintf("stride %d too small for width %d", stride, width))
	}
	if len(src) < (rowOffset+height-1)*stride+width*4 {
		return newError(ErrBadParam, fmt.Sprintf("source is %d bytes, need %d", len(src), (rowOffset+height-1)*stride+width*4))
	}

	need := BlocksByteSize(width, height)
	if len(dst) < need {
		return newError(ErrOutOfMem, fmt.Sprintf("destination is %d bytes, need %d", len(dst), need))
	}
	return nil
}
