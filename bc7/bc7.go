// Package bc7 implements a BC7 (BPTC) block texture encoder.
//
// BC7 stores each 4x4 texel tile as a fixed 128-bit block combining one of
// eight encoding modes, up to three color subsets selected by a partition
// table, per-subset endpoint pairs and per-texel interpolation indices. The
// search strategy follows the BC7 kernel of Intel's ISPC Texture Compressor:
// PCA endpoint estimation, bounded partition search and iterated
// least-squares refinement. Only encoding is provided; the emitted blocks
// decode bit-exactly on any conformant hardware decoder.
package bc7

// Block footprint and output sizes. BC7 is defined for 4x4 tiles only.
const (
	// BlockWidth is the texel width and height of one compressed block.
	BlockWidth = 4

	// BlockTexels is the number of texels covered by one block.
	BlockTexels = BlockWidth * BlockWidth

	// BlockBytes is the size in bytes of one compressed block.
	BlockBytes = 16
)

// Block holds one 4x4 tile as four channel planes of 16 texels each, in
// R, G, B, A order, values scaled to [0,255]. Index texel k of channel p as
// b[p*16+k], with k in row-major tile order.
type Block [64]float32

// LoadBlockInterleavedRGBA fills a Block from interleaved 8-bit RGBA pixel
// data. The tile's top-left texel is at pixel coordinates (4*bx, 4*by+rowOffset)
// and rows are stride bytes apart.
func LoadBlockInterleavedRGBA(dst *Block, src []byte, bx, by, stride, rowOffset int) {
	for y := 0; y < BlockWidth; y++ {
		for x := 0; x < BlockWidth; x++ {
			px := bx*BlockWidth + x
			py := by*BlockWidth + y + rowOffset

			off := py*stride + px*4

			dst[y*4+x] = float32(src[off])
			dst[16+y*4+x] = float32(src[off+1])
			dst[32+y*4+x] = float32(src[off+2])
			dst[48+y*4+x] = float32(src[off+3])
		}
	}
}

// BytesPerRow returns the compressed size in bytes of one block row for an
// image of the given pixel width. The width is rounded up to a multiple of 4.
func BytesPerRow(width int) int {
	return ((width + 3) / 4) * BlockBytes
}

// BlocksByteSize returns the compressed size in bytes for an image of the
// given pixel dimensions. Dimensions are rounded up to multiples of 4.
func BlocksByteSize(width, height int) int {
	blocksX := (width + 3) / 4
	blocksY := (height + 3) / 4
	return blocksX * blocksY * BlockBytes
}

func sq(x float32) float32 {
	return x * x
}
