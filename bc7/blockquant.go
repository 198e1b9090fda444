package bc7

// Index assignment: given dequantized endpoints, pick each texel's
// interpolation index. Candidate indices come from projecting the texel onto
// the endpoint line; the projection is clamped away from the extremes and the
// two neighboring weights are compared by exact integer-weighted
// reconstruction, `round(((64-w)*lo + w*hi + 32)/64)`, the same arithmetic a
// hardware decoder performs.

// blockQuant assigns indices for all 16 texels, reading each texel's subset
// from the packed pattern, and packs them 4 bits apiece into qblock. Returns
// the summed squared error over the active channels.
func blockQuant(qblock *[2]uint32, block *Block, bits uint32, ep []float32, pattern uint32, channels int) float32 {
	totalErr := float32(0)
	levels := int32(1) << bits

	qblock[0] = 0
	qblock[1] = 0

	patternShifted := pattern
	for k := 0; k < 16; k++ {
		j := int(patternShifted & 3)
		patternShifted >>= 2

		proj := float32(0)
		div := float32(0)
		for p := 0; p < channels; p++ {
			epA := ep[8*j+p]
			epB := ep[8*j+4+p]
			proj += (block[k+p*16] - epA) * (epB - epA)
			div += sq(epB - epA)
		}

		// A quantized endpoint pair can still collapse; keep the division
		// finite, the neighbor comparison below corrects the index.
		proj /= div + 0.001

		q1 := int32(proj*float32(levels) + 0.5)
		q1Clamped := clampi(q1, 1, levels-1)

		err0 := float32(0)
		err1 := float32(0)
		w0 := getUnquantValue(bits, q1Clamped-1)
		w1 := getUnquantValue(bits, q1Clamped)

		for p := 0; p < channels; p++ {
			epA := int32(ep[8*j+p])
			epB := int32(ep[8*j+4+p])
			decV0 := float32(((64-w0)*epA + w0*epB + 32) / 64)
			decV1 := float32(((64-w1)*epA + w1*epB + 32) / 64)
			err0 += sq(decV0 - block[k+p*16])
			err1 += sq(decV1 - block[k+p*16])
		}

		bestErr := err1
		bestQ := q1Clamped
		if err0 < err1 {
			bestErr = err0
			bestQ = q1Clamped - 1
		}

		qblock[k/8] |= uint32(bestQ) << (4 * (k % 8))
		totalErr += bestErr
	}

	return totalErr
}

// channelOptQuant is the single-channel analogue of blockQuant, used for the
// rotated-out alpha channel in modes 4 and 5.
func channelOptQuant(qblock *[2]uint32, channelBlock *[16]float32, bits uint32, ep *[2]float32) float32 {
	levels := int32(1) << bits

	qblock[0] = 0
	qblock[1] = 0

	totalErr := float32(0)

	for k := 0; k < 16; k++ {
		proj := (channelBlock[k] - ep[0]) / (ep[1] - ep[0] + 0.001)

		q1 := int32(proj*float32(levels) + 0.5)
		q1Clamped := clampi(q1, 1, levels-1)

		w0 := getUnquantValue(bits, q1Clamped-1)
		w1 := getUnquantValue(bits, q1Clamped)

		decV0 := float32(((64-w0)*int32(ep[0]) + w0*int32(ep[1]) + 32) / 64)
		decV1 := float32(((64-w1)*int32(ep[0]) + w1*int32(ep[1]) + 32) / 64)
		err0 := sq(decV0 - channelBlock[k])
		err1 := sq(decV1 - channelBlock[k])

		bestErr := err1
		bestQ := q1Clamped
		if err0 < err1 {
			bestErr = err0
			bestQ = q1Clamped - 1
		}

		qblock[k/8] |= uint32(bestQ) << (4 * (k % 8))
		totalErr += bestErr
	}

	return totalErr
}
