package bc7

// Bit packing for the 128-bit block. Fields are written with a running bit
// cursor into five 32-bit words: the unary mode tag, partition id, endpoint
// components, P-bits, then the packed indices. The fifth word exists only as
// overflow room for the index stream before anchor compaction squeezes the
// payload back down to 128 bits; it is never stored.

func putBits(data *[5]uint32, pos *uint32, bits uint32, v uint32) {
	data[*pos/32] |= v << (*pos % 32)
	if *pos%32+bits > 32 {
		data[*pos/32+1] |= v >> (32 - *pos%32)
	}
	*pos += bits
}

// shiftLeft1From removes one bit from the packed stream by shifting every
// bit at position >= fromBits down one place. Only positions in the upper
// half of the stream occur in practice (all multi-subset index segments
// start past bit 64); partial-word boundaries are handled per 32-bit word.
func shiftLeft1From(data *[5]uint32, fromBits int) {
	if fromBits < 96 {
		shifted := (data[2] >> 1) | (data[3] << 31)
		mask := (uint32(1)<<(fromBits-64) - 1) >> 1
		data[2] = (mask & data[2]) | (^mask & shifted)
		data[3] = (data[3] >> 1) | (data[4] << 31)
		data[4] >>= 1
	} else if fromBits < 128 {
		shifted := (data[3] >> 1) | (data[4] << 31)
		mask := (uint32(1)<<(fromBits-96) - 1) >> 1
		data[3] = (mask & data[3]) | (^mask & shifted)
		data[4] >>= 1
	}
}

// codeQblock writes the 16 packed indices. The first texel is always subset
// 0's anchor, so its leading bit is omitted at write time; the other
// subsets' anchors are compacted afterwards by codeAdjustSkip.
func codeQblock(data *[5]uint32, qpos *uint32, qblock [2]uint32, bits uint32, flips uint32) {
	levels := uint32(1) << bits
	flipsShifted := flips

	for k1 := 0; k1 < 2; k1++ {
		qbitsShifted := qblock[k1]
		for k2 := 0; k2 < 8; k2++ {
			q := qbitsShifted & 15
			if flipsShifted&1 > 0 {
				q = (levels - 1) - q
			}

			if k1 == 0 && k2 == 0 {
				putBits(data, qpos, bits-1, q)
			} else {
				putBits(data, qpos, bits, q)
			}
			qbitsShifted >>= 4
			flipsShifted >>= 1
		}
	}
}

// codeAdjustSkip compacts the redundant leading index bit at the anchor
// texel of each subset beyond the first, for the multi-subset modes. Anchors
// are processed highest bit position first so earlier shifts do not move the
// later anchors' positions.
func codeAdjustSkip(data *[5]uint32, mode int, partID int32) {
	pairs := 2
	if mode == 0 || mode == 2 {
		pairs = 3
	}
	bits := 2
	if mode == 0 || mode == 1 {
		bits = 3
	}

	skips := getSkips(partID)

	if pairs > 2 && skips[1] < skips[2] {
		skips[1], skips[2] = skips[2], skips[1]
	}

	for _, k := range skips[1:pairs] {
		shiftLeft1From(data, 128+(pairs-1)-(15-int(k))*bits)
	}
}

// codeApplySwapMode01237 guarantees that every subset's anchor index has a
// zero top bit: subsets whose anchor index lands in the upper half get their
// endpoint pair swapped and all their indices complemented. Returns the
// per-texel complement mask.
func codeApplySwapMode01237(qep []int32, qblock [2]uint32, mode int, partID int32) uint32 {
	bits := 2
	if mode == 0 || mode == 1 {
		bits = 3
	}
	pairs := 2
	if mode == 0 || mode == 2 {
		pairs = 3
	}

	flips := uint32(0)
	levels := uint32(1) << bits

	skips := getSkips(partID)

	for j := 0; j < pairs; j++ {
		k0 := int(skips[j])
		// Extract texel k0's 4-bit index from the packed qblock.
		q := (qblock[k0>>3] << (28 - (k0&7)*4)) >> 28

		if q >= levels/2 {
			for p := 0; p < 4; p++ {
				qep[8*j+p], qep[8*j+4+p] = qep[8*j+4+p], qep[8*j+p]
			}

			pmask := getPatternMask(partID, uint32(j))
			flips |= pmask
		}
	}

	return flips
}

// codeApplySwapMode456 is the single-subset variant used by modes 4, 5 and
// 6: texel 0 is the sole anchor, and a swap complements the indices in their
// packed form.
func codeApplySwapMode456(qep []int32, channels int, qblock *[2]uint32, bits uint32) {
	levels := uint32(1) << bits

	if qblock[0]&15 >= levels/2 {
		for p := 0; p < channels; p++ {
			qep[p], qep[channels+p] = qep[channels+p], qep[p]
		}

		for i := range qblock {
			qblock[i] = 0x11111111*(levels-1) - qblock[i]
		}
	}
}
