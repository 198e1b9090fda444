package bc7

import "math"

// Least-squares endpoint refinement. With the indices held fixed, the
// optimal endpoints minimize a weighted regression against the index weights;
// the 2x2 normal-equation system below has a closed-form solution. When the
// system is near singular (all active texels share one index) the endpoints
// collapse to the subset mean instead.

// optEndpoints solves for the masked subset's endpoint pair given the packed
// indices in qblock, writing the low endpoint to ep[0..4] and the high one to
// ep[4..8].
func optEndpoints(ep []float32, block *Block, bits uint32, qblock [2]uint32, mask uint32, channels int) {
	levels := int32(1) << bits

	var atb1 [4]float32
	sumQ := float32(0)
	sumQQ := float32(0)
	var sum [5]float32

	maskShifted := mask << 1
	for k1 := 0; k1 < 2; k1++ {
		qbitsShifted := qblock[k1]
		for k2 := 0; k2 < 8; k2++ {
			k := k1*8 + k2
			q := float32(qbitsShifted & 15)
			qbitsShifted >>= 4

			maskShifted >>= 1
			if maskShifted&1 == 0 {
				continue
			}

			x := float32(levels-1) - q

			sumQ += q
			sumQQ += q * q

			sum[4]++
			for p := 0; p < channels; p++ {
				sum[p] += block[k+p*16]
				atb1[p] += x * block[k+p*16]
			}
		}
	}

	var atb2 [4]float32
	for p := 0; p < channels; p++ {
		atb2[p] = float32(levels-1)*sum[p] - atb1[p]
	}

	cxx := sum[4]*sq(float32(levels-1)) - 2*float32(levels-1)*sumQ + sumQQ
	cyy := sumQQ
	cxy := float32(levels-1)*sumQ - sumQQ
	scale := float32(levels-1) / (cxx*cyy - cxy*cxy)

	for p := 0; p < channels; p++ {
		ep[p] = (atb1[p]*cyy - atb2[p]*cxy) * scale
		ep[4+p] = (atb2[p]*cxx - atb1[p]*cxy) * scale
	}

	if float32(math.Abs(float64(cxx*cyy-cxy*cxy))) < 0.001 {
		// Degenerate assignment, flatten to the subset mean.
		for p := 0; p < channels; p++ {
			ep[p] = sum[p] / sum[4]
			ep[4+p] = ep[p]
		}
	}
}

// channelOptEndpoints is the scalar analogue of optEndpoints for the
// mode 4/5 alpha channel; it always covers all 16 texels.
func channelOptEndpoints(ep *[2]float32, channelBlock *[16]float32, bits uint32, qblock [2]uint32) {
	levels := int32(1) << bits

	atb1 := float32(0)
	sumQ := float32(0)
	sumQQ := float32(0)
	sum := float32(0)

	for k1 := 0; k1 < 2; k1++ {
		qbitsShifted := qblock[k1]
		for k2 := 0; k2 < 8; k2++ {
			k := k1*8 + k2
			q := float32(qbitsShifted & 15)
			qbitsShifted >>= 4

			x := float32(levels-1) - q

			sumQ += q
			sumQQ += q * q

			sum += channelBlock[k]
			atb1 += x * channelBlock[k]
		}
	}

	atb2 := float32(levels-1)*sum - atb1

	cxx := 16*sq(float32(levels-1)) - 2*float32(levels-1)*sumQ + sumQQ
	cyy := sumQQ
	cxy := float32(levels-1)*sumQ - sumQQ
	scale := float32(levels-1) / (cxx*cyy - cxy*cxy)

	ep[0] = (atb1*cyy - atb2*cxy) * scale
	ep[1] = (atb2*cxx - atb1*cxy) * scale

	ep[0] = clampf(ep[0], 0, 255)
	ep[1] = clampf(ep[1], 0, 255)

	if float32(math.Abs(float64(cxx*cyy-cxy*cxy))) < 0.001 {
		ep[0] = sum / 16
		ep[1] = ep[0]
	}
}

// partialSortList moves the partialCount smallest entries of list to the
// front in ascending order; the tail is left unsorted.
func partialSortList(list []int32, length int, partialCount uint32) {
	for k := 0; k < int(partialCount); k++ {
		bestIdx := k
		bestValue := list[k]

		for i := k + 1; i < length; i++ {
			if bestValue > list[i] {
				bestValue = list[i]
				bestIdx = i
			}
		}

		list[k], list[bestIdx] = list[bestIdx], list[k]
	}
}
