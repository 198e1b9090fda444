package bc7

import "math"

// Masked block statistics and principal-axis endpoint estimation.
//
// Statistics are accumulated into a 15-element vector: indices 0..9 hold the
// upper triangle of the second-order moment matrix in row-major order
// (RR RG RB RA GG GB GA BB BA AA), 10..13 the channel sums and 14 the active
// texel count. The covariance layout below uses the same triangle indexing.

func computeStatsMasked(stats *[15]float32, block *Block, mask uint32, channels int) {
	maskShifted := mask << 1
	for k := 0; k < 16; k++ {
		maskShifted >>= 1
		flag := float32(maskShifted & 1)

		var rgba [4]float32
		for p := 0; p < channels; p++ {
			rgba[p] = block[k+p*16] * flag
		}
		stats[14] += flag

		stats[10] += rgba[0]
		stats[11] += rgba[1]
		stats[12] += rgba[2]

		stats[0] += rgba[0] * rgba[0]
		stats[1] += rgba[0] * rgba[1]
		stats[2] += rgba[0] * rgba[2]

		stats[4] += rgba[1] * rgba[1]
		stats[5] += rgba[1] * rgba[2]

		stats[7] += rgba[2] * rgba[2]

		if channels == 4 {
			stats[13] += rgba[3]
			stats[3] += rgba[0] * rgba[3]
			stats[6] += rgba[1] * rgba[3]
			stats[8] += rgba[2] * rgba[3]
			stats[9] += rgba[3] * rgba[3]
		}
	}
}

func covarFromStats(covar *[10]float32, stats *[15]float32, channels int) {
	covar[0] = stats[0] - stats[10]*stats[10]/stats[14]
	covar[1] = stats[1] - stats[10]*stats[11]/stats[14]
	covar[2] = stats[2] - stats[10]*stats[12]/stats[14]

	covar[4] = stats[4] - stats[11]*stats[11]/stats[14]
	covar[5] = stats[5] - stats[11]*stats[12]/stats[14]

	covar[7] = stats[7] - stats[12]*stats[12]/stats[14]

	if channels == 4 {
		covar[3] = stats[3] - stats[10]*stats[13]/stats[14]
		covar[6] = stats[6] - stats[11]*stats[13]/stats[14]
		covar[8] = stats[8] - stats[12]*stats[13]/stats[14]
		covar[9] = stats[9] - stats[13]*stats[13]/stats[14]
	}
}

func computeCovarDCMasked(covar *[10]float32, dc *[4]float32, block *Block, mask uint32, channels int) {
	var stats [15]float32
	computeStatsMasked(&stats, block, mask, channels)

	for p := 0; p < channels; p++ {
		dc[p] = stats[10+p] / stats[14]
	}

	covarFromStats(covar, &stats, channels)
}

// ssymv3 computes a = covar * b for the 3-channel symmetric triangle layout.
func ssymv3(a *[4]float32, covar *[10]float32, b *[4]float32) {
	a[0] = covar[0]*b[0] + covar[1]*b[1] + covar[2]*b[2]
	a[1] = covar[1]*b[0] + covar[4]*b[1] + covar[5]*b[2]
	a[2] = covar[2]*b[0] + covar[5]*b[1] + covar[7]*b[2]
}

// ssymv4 computes a = covar * b for the 4-channel symmetric triangle layout.
func ssymv4(a *[4]float32, covar *[10]float32, b *[4]float32) {
	a[0] = covar[0]*b[0] + covar[1]*b[1] + covar[2]*b[2] + covar[3]*b[3]
	a[1] = covar[1]*b[0] + covar[4]*b[1] + covar[5]*b[2] + covar[6]*b[3]
	a[2] = covar[2]*b[0] + covar[5]*b[1] + covar[7]*b[2] + covar[8]*b[3]
	a[3] = covar[3]*b[0] + covar[6]*b[1] + covar[8]*b[2] + covar[9]*b[3]
}

// computeAxis estimates the dominant eigenvector of covar by power
// iteration, renormalizing every second step to keep the magnitude in range.
func computeAxis(axis *[4]float32, covar *[10]float32, powerIterations int, channels int) {
	aVec := [4]float32{1, 1, 1, 1}

	for i := 0; i < powerIterations; i++ {
		if channels == 3 {
			ssymv3(axis, covar, &aVec)
		} else if channels == 4 {
			ssymv4(axis, covar, &aVec)
		}

		copy(aVec[:channels], axis[:channels])

		if i%2 == 1 {
			normSq := float32(0)
			for p := 0; p < channels; p++ {
				normSq += sq(axis[p])
			}

			rnorm := 1 / float32(math.Sqrt(float64(normSq)))
			for p := 0; p < channels; p++ {
				aVec[p] *= rnorm
			}
		}
	}

	copy(axis[:channels], aVec[:channels])
}

// blockPCAAxis computes the dominant color axis and mean of the masked
// texels. The covariance is scaled down and regularized with a small diagonal
// epsilon so flat or near-flat subsets stay numerically stable.
func blockPCAAxis(axis *[4]float32, dc *[4]float32, block *Block, mask uint32, channels int) {
	const powerIterations = 8 // 4 is not enough for high quality

	var covar [10]float32
	computeCovarDCMasked(&covar, dc, block, mask, channels)

	const invVar = 1.0 / (256.0 * 256.0)
	for i := range covar {
		covar[i] *= invVar
	}

	const eps = float32(0.001 * 0.001)
	covar[0] += eps
	covar[4] += eps
	covar[7] += eps
	covar[9] += eps

	computeAxis(axis, &covar, powerIterations, channels)
}

// blockSegmentCore projects the masked texels onto the principal axis and
// maps the extent back through the mean to produce an initial endpoint pair.
// A collapsed extent is widened so the endpoints never coincide.
func blockSegmentCore(ep []float32, block *Block, mask uint32, channels int) {
	var axis [4]float32
	var dc [4]float32
	blockPCAAxis(&axis, &dc, block, mask, channels)

	ext := [2]float32{float32(math.Inf(1)), float32(math.Inf(-1))}

	maskShifted := mask << 1
	for k := 0; k < 16; k++ {
		maskShifted >>= 1
		if maskShifted&1 == 0 {
			continue
		}

		dot := float32(0)
		for p := 0; p < channels; p++ {
			dot += axis[p] * (block[16*p+k] - dc[p])
		}

		if dot < ext[0] {
			ext[0] = dot
		}
		if dot > ext[1] {
			ext[1] = dot
		}
	}

	if ext[1]-ext[0] < 1 {
		ext[0] -= 0.5
		ext[1] += 0.5
	}

	for i := 0; i < 2; i++ {
		for p := 0; p < channels; p++ {
			ep[4*i+p] = ext[i]*axis[p] + dc[p]
		}
	}
}

// blockSegment is blockSegmentCore with the endpoints clamped to the
// representable [0,255] range.
func blockSegment(ep []float32, block *Block, mask uint32, channels int) {
	blockSegmentCore(ep, block, mask, channels)

	for i := 0; i < 2; i++ {
		for p := 0; p < channels; p++ {
			ep[4*i+p] = clampf(ep[4*i+p], 0, 255)
		}
	}
}

// getPCABound returns an analytic lower bound on a subset's squared
// reconstruction error: the covariance trace minus an estimate of the leading
// eigenvalue. Only four power iterations are run since the value is used for
// ranking, not fitting.
func getPCABound(covar *[10]float32, channels int) float32 {
	const powerIterations = 4

	covarScaled := *covar
	const invVar = 1.0 / (256.0 * 256.0)
	for i := range covarScaled {
		covarScaled[i] *= invVar
	}

	const eps = float32(0.001 * 0.001)
	covarScaled[0] += eps
	covarScaled[4] += eps
	covarScaled[7] += eps

	var axis [4]float32
	computeAxis(&axis, &covarScaled, powerIterations, channels)

	var aVec [4]float32
	if channels == 3 {
		ssymv3(&aVec, &covarScaled, &axis)
	} else if channels == 4 {
		ssymv4(&aVec, &covarScaled, &axis)
	}

	sqSum := float32(0)
	for p := 0; p < channels; p++ {
		sqSum += sq(aVec[p])
	}
	lambda := float32(math.Sqrt(float64(sqSum)))

	bound := covarScaled[0] + covarScaled[4] + covarScaled[7]
	if channels == 4 {
		bound += covarScaled[9]
	}
	bound -= lambda

	if bound < 0 {
		return 0
	}
	return bound
}

// blockPCABoundSplit bounds the total error of splitting the block into the
// masked subset and its complement, given precomputed full-block statistics.
func blockPCABoundSplit(block *Block, mask uint32, fullStats *[15]float32, channels int) float32 {
	var stats [15]float32
	computeStatsMasked(&stats, block, mask, channels)

	var covar1 [10]float32
	covarFromStats(&covar1, &stats, channels)

	for i := range stats {
		stats[i] = fullStats[i] - stats[i]
	}

	var covar2 [10]float32
	covarFromStats(&covar2, &stats, channels)

	bound := getPCABound(&covar1, channels) + getPCABound(&covar2, channels)

	return float32(math.Sqrt(float64(bound))) * 256
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
