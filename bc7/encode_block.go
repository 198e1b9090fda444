package bc7

import "math"

// blockCompressor carries one block's encoding pass: the input planes, the
// working best 128-bit output and the best error seen so far. Error only ever
// decreases; a candidate worse than the running best is never written.
type blockCompressor struct {
	block     Block
	data      [5]uint32
	bestErr   float32
	opaqueErr float32
	settings  *Settings
}

type mode45Parameters struct {
	qep      [8]int32
	qblock   [2]uint32
	aqep     [2]int32
	aqblock  [2]uint32
	rotation uint32
	swap     uint32
}

func newBlockCompressor(settings *Settings) blockCompressor {
	return blockCompressor{
		bestErr:  float32(math.Inf(1)),
		settings: settings,
	}
}

// computeOpaqueErr precomputes the squared error of forcing alpha to 255,
// added to every mode that cannot encode alpha explicitly.
func (c *blockCompressor) computeOpaqueErr() {
	if c.settings.Channels == 3 {
		c.opaqueErr = 0
		return
	}
	err := float32(0)
	for k := 0; k < 16; k++ {
		err += sq(c.block[48+k] - 255)
	}
	c.opaqueErr = err
}

// compressBlock runs every enabled mode family and leaves the best encoding
// in c.data.
func (c *blockCompressor) compressBlock() {
	if c.settings.ModeSelection[0] {
		c.encMode02()
	}
	if c.settings.ModeSelection[1] {
		c.encMode13()
		c.encMode7()
	}
	if c.settings.ModeSelection[2] {
		c.encMode45()
	}
	if c.settings.ModeSelection[3] {
		c.encMode6()
	}
}

// storeData writes the final 128-bit encoding little-endian into dst at the
// row-major block position (bx, by).
func (c *blockCompressor) storeData(dst []byte, blockWidth, bx, by int) {
	offset := (by*blockWidth + bx) * BlockBytes

	for i, v := range c.data[:4] {
		byteOffset := offset + i*4
		dst[byteOffset] = byte(v)
		dst[byteOffset+1] = byte(v >> 8)
		dst[byteOffset+2] = byte(v >> 16)
		dst[byteOffset+3] = byte(v >> 24)
	}
}

// encMode01237PartFast runs one partition candidate through segmentation,
// quantization and index assignment without refinement.
func (c *blockCompressor) encMode01237PartFast(qep *[24]int32, qblock *[2]uint32, partID int32, mode int) float32 {
	pattern := getPattern(partID)
	bits := uint32(2)
	if mode == 0 || mode == 1 {
		bits = 3
	}
	pairs := 2
	if mode == 0 || mode == 2 {
		pairs = 3
	}
	channels := 3
	if mode == 7 {
		channels = 4
	}

	var ep [24]float32
	for j := 0; j < pairs; j++ {
		mask := getPatternMask(partID, uint32(j))
		blockSegment(ep[j*8:], &c.block, mask, channels)
	}

	epQuantDequant(qep[:], ep[:], mode, channels)

	return blockQuant(qblock, &c.block, bits, ep[:], pattern, channels)
}

// encMode01237 evaluates the given partition candidates for one of the
// multi-subset modes, refines the winner and commits it if it beats the
// running best.
func (c *blockCompressor) encMode01237(mode int, partList []int32, partCount int) {
	if partCount == 0 {
		return
	}

	bits := uint32(2)
	if mode == 0 || mode == 1 {
		bits = 3
	}
	pairs := 2
	if mode == 0 || mode == 2 {
		pairs = 3
	}
	channels := 3
	if mode == 7 {
		channels = 4
	}

	var bestQep [24]int32
	var bestQblock [2]uint32
	bestPartID := int32(-1)
	bestErr := float32(math.Inf(1))

	for _, part := range partList[:partCount] {
		partID := part & 63
		if pairs == 3 {
			partID += 64
		}

		var qep [24]int32
		var qblock [2]uint32
		err := c.encMode01237PartFast(&qep, &qblock, partID, mode)

		if err < bestErr {
			copy(bestQep[:8*pairs], qep[:8*pairs])
			bestQblock = qblock

			bestPartID = partID
			bestErr = err
		}
	}

	// Refinement alternates least-squares endpoints with fresh index
	// assignment; a candidate is only accepted after re-quantization.
	refineIterations := c.settings.RefineIterations[mode]
	for i := uint32(0); i < refineIterations; i++ {
		var ep [24]float32
		for j := 0; j < pairs; j++ {
			mask := getPatternMask(bestPartID, uint32(j))
			optEndpoints(ep[j*8:], &c.block, bits, bestQblock, mask, channels)
		}

		var qep [24]int32
		var qblock [2]uint32

		epQuantDequant(qep[:], ep[:], mode, channels)

		pattern := getPattern(bestPartID)
		err := blockQuant(&qblock, &c.block, bits, ep[:], pattern, channels)

		if err < bestErr {
			copy(bestQep[:8*pairs], qep[:8*pairs])
			bestQblock = qblock

			bestErr = err
		}
	}

	if mode != 7 {
		bestErr += c.opaqueErr
	}

	if bestErr < c.bestErr {
		c.bestErr = bestErr
		c.codeMode01237(&bestQep, bestQblock, bestPartID, mode)
	}
}

func (c *blockCompressor) encMode02() {
	var partList [64]int32
	for part := int32(0); part < 64; part++ {
		partList[part] = part
	}

	c.encMode01237(0, partList[:], 16)

	if !c.settings.SkipMode2 {
		c.encMode01237(2, partList[:], 64)
	}
}

func (c *blockCompressor) encMode13() {
	if c.settings.FastSkipThresholdMode1 == 0 && c.settings.FastSkipThresholdMode3 == 0 {
		return
	}

	var fullStats [15]float32
	computeStatsMasked(&fullStats, &c.block, 0xFFFFFFFF, 3)

	var partList [64]int32
	for part := int32(0); part < 64; part++ {
		mask := getPatternMask(part, 0)
		bound12 := blockPCABoundSplit(&c.block, mask, &fullStats, 3)
		bound := int32(bound12)
		partList[part] = part + bound*64
	}

	partialCount := c.settings.FastSkipThresholdMode1
	if c.settings.FastSkipThresholdMode3 > partialCount {
		partialCount = c.settings.FastSkipThresholdMode3
	}
	partialSortList(partList[:], 64, partialCount)
	c.encMode01237(1, partList[:], int(c.settings.FastSkipThresholdMode1))
	c.encMode01237(3, partList[:], int(c.settings.FastSkipThresholdMode3))
}

// encMode45Candidate fits one (mode, rotation, swap) combination: a vector
// fit of the three un-rotated channels plus an independent scalar fit of the
// rotated-out channel.
func (c *blockCompressor) encMode45Candidate(best *mode45Parameters, bestErr *float32, mode int, rotation, swap uint32) {
	bits := uint32(2)
	abits := uint32(2)
	aepbits := uint32(8)

	if mode == 4 {
		abits = 3
		aepbits = 6
	}

	// Mode 4's index selection bit trades the index widths.
	if swap == 1 {
		bits = 3
		abits = 2
	}

	var candidateBlock Block

	for k := 0; k < 16; k++ {
		for p := 0; p < 3; p++ {
			candidateBlock[k+p*16] = c.block[k+p*16]
		}

		if rotation < 3 {
			if c.settings.Channels == 4 {
				candidateBlock[k+int(rotation)*16] = c.block[k+3*16]
			}
			if c.settings.Channels == 3 {
				candidateBlock[k+int(rotation)*16] = 255
			}
		}
	}

	var ep [8]float32
	blockSegment(ep[:], &candidateBlock, 0xFFFFFFFF, 3)

	var qep [8]int32
	epQuantDequant(qep[:], ep[:], mode, 3)

	var qblock [2]uint32
	err := blockQuant(&qblock, &candidateBlock, bits, ep[:], 0, 3)

	refineIterations := c.settings.RefineIterations[mode]
	for i := uint32(0); i < refineIterations; i++ {
		optEndpoints(ep[:], &candidateBlock, bits, qblock, 0xFFFFFFFF, 3)
		epQuantDequant(qep[:], ep[:], mode, 3)
		err = blockQuant(&qblock, &candidateBlock, bits, ep[:], 0, 3)
	}

	var channelData [16]float32
	for k := 0; k < 16; k++ {
		channelData[k] = c.block[k+int(rotation)*16]
	}

	var aqep [2]int32
	var aqblock [2]uint32

	err += c.optChannel(&aqblock, &aqep, &channelData, abits, aepbits)

	if err < *bestErr {
		best.qep = qep
		best.qblock = qblock
		best.aqblock = aqblock
		best.aqep = aqep
		best.rotation = rotation
		best.swap = swap
		*bestErr = err
	}
}

func (c *blockCompressor) encMode45() {
	var best mode45Parameters
	bestErr := c.bestErr

	channel0 := c.settings.Mode45Channel0
	for p := channel0; p < c.settings.Channels; p++ {
		c.encMode45Candidate(&best, &bestErr, 4, p, 0)
		c.encMode45Candidate(&best, &bestErr, 4, p, 1)
	}

	if bestErr < c.bestErr {
		c.bestErr = bestErr
		c.codeMode45(&best, 4)
	}

	for p := channel0; p < c.settings.Channels; p++ {
		c.encMode45Candidate(&best, &bestErr, 5, p, 0)
	}

	if bestErr < c.bestErr {
		c.bestErr = bestErr
		c.codeMode45(&best, 5)
	}
}

func (c *blockCompressor) encMode6() {
	const mode = 6
	const bits = 4

	channels := int(c.settings.Channels)

	var ep [8]float32
	blockSegment(ep[:], &c.block, 0xFFFFFFFF, channels)

	if c.settings.Channels == 3 {
		ep[3] = 255
		ep[7] = 255
	}

	var qep [8]int32
	epQuantDequant(qep[:], ep[:], mode, channels)

	var qblock [2]uint32
	err := blockQuant(&qblock, &c.block, bits, ep[:], 0, channels)

	refineIterations := c.settings.RefineIterations[mode]
	for i := uint32(0); i < refineIterations; i++ {
		optEndpoints(ep[:], &c.block, bits, qblock, 0xFFFFFFFF, channels)
		epQuantDequant(qep[:], ep[:], mode, channels)
		err = blockQuant(&qblock, &c.block, bits, ep[:], 0, channels)
	}

	if err < c.bestErr {
		c.bestErr = err
		c.codeMode6(qep[:], &qblock)
	}
}

func (c *blockCompressor) encMode7() {
	if c.settings.FastSkipThresholdMode7 == 0 {
		return
	}

	channels := int(c.settings.Channels)

	var fullStats [15]float32
	computeStatsMasked(&fullStats, &c.block, 0xFFFFFFFF, channels)

	var partList [64]int32
	for part := int32(0); part < 64; part++ {
		mask := getPatternMask(part, 0)
		bound12 := blockPCABoundSplit(&c.block, mask, &fullStats, channels)
		bound := int32(bound12)
		partList[part] = part + bound*64
	}

	partialSortList(partList[:], 64, c.settings.FastSkipThresholdMode7)
	c.encMode01237(7, partList[:], int(c.settings.FastSkipThresholdMode7))
}

// optChannel fits the scalar channel with a min/max seed followed by
// least-squares refinement, mirroring the vector pipeline.
func (c *blockCompressor) optChannel(qblock *[2]uint32, qep *[2]int32, channelBlock *[16]float32, bits, epbits uint32) float32 {
	ep := [2]float32{255, 0}

	for k := 0; k < 16; k++ {
		if channelBlock[k] < ep[0] {
			ep[0] = channelBlock[k]
		}
		if channelBlock[k] > ep[1] {
			ep[1] = channelBlock[k]
		}
	}

	channelQuantDequant(qep, &ep, epbits)
	err := channelOptQuant(qblock, channelBlock, bits, &ep)

	refineIterations := c.settings.RefineIterationsChannel
	for i := uint32(0); i < refineIterations; i++ {
		channelOptEndpoints(&ep, channelBlock, bits, *qblock)
		channelQuantDequant(qep, &ep, epbits)
		err = channelOptQuant(qblock, channelBlock, bits, &ep)
	}

	return err
}

// codeMode01237 packs a multi-subset encoding: unary mode tag, partition id,
// endpoints, P-bits and indices, followed by anchor compaction.
func (c *blockCompressor) codeMode01237(qep *[24]int32, qblock [2]uint32, partID int32, mode int) {
	bits := uint32(2)
	if mode == 0 || mode == 1 {
		bits = 3
	}
	pairs := 2
	if mode == 0 || mode == 2 {
		pairs = 3
	}
	channels := 3
	if mode == 7 {
		channels = 4
	}

	flips := codeApplySwapMode01237(qep[:], qblock, mode, partID)

	c.data = [5]uint32{}
	pos := uint32(0)

	// Mode tag
	putBits(&c.data, &pos, uint32(mode+1), 1<<mode)

	// Partition id
	if mode == 0 {
		putBits(&c.data, &pos, 4, uint32(partID&15))
	} else {
		putBits(&c.data, &pos, 6, uint32(partID&63))
	}

	// Endpoints
	for p := 0; p < channels; p++ {
		for j := 0; j < pairs*2; j++ {
			switch mode {
			case 0:
				putBits(&c.data, &pos, 4, uint32(qep[j*4+p])>>1)
			case 1:
				putBits(&c.data, &pos, 6, uint32(qep[j*4+p])>>1)
			case 2:
				putBits(&c.data, &pos, 5, uint32(qep[j*4+p]))
			case 3:
				putBits(&c.data, &pos, 7, uint32(qep[j*4+p])>>1)
			case 7:
				putBits(&c.data, &pos, 5, uint32(qep[j*4+p])>>1)
			}
		}
	}

	// P-bits
	if mode == 1 {
		for j := 0; j < 2; j++ {
			putBits(&c.data, &pos, 1, uint32(qep[j*8])&1)
		}
	}

	if mode == 0 || mode == 3 || mode == 7 {
		for j := 0; j < pairs*2; j++ {
			putBits(&c.data, &pos, 1, uint32(qep[j*4])&1)
		}
	}

	// Indices
	codeQblock(&c.data, &pos, qblock, bits, flips)
	codeAdjustSkip(&c.data, mode, partID)
}

// codeMode45 packs a rotation mode: tag, rotation, the mode 4 index
// selection bit, vector and scalar endpoints, then both index streams.
func (c *blockCompressor) codeMode45(params *mode45Parameters, mode int) {
	qep := params.qep
	qblock := params.qblock
	aqep := params.aqep
	aqblock := params.aqblock
	rotation := params.rotation
	swap := params.swap

	bits := uint32(2)
	abits := uint32(2)
	epbits := uint32(7)
	aepbits := uint32(8)
	if mode == 4 {
		abits = 3
		epbits = 5
		aepbits = 6
	}

	if swap == 0 {
		codeApplySwapMode456(qep[:], 4, &qblock, bits)
		codeApplySwapMode456(aqep[:], 1, &aqblock, abits)
	} else {
		qblock, aqblock = aqblock, qblock

		codeApplySwapMode456(aqep[:], 1, &qblock, bits)
		codeApplySwapMode456(qep[:], 4, &aqblock, abits)
	}

	c.data = [5]uint32{}
	pos := uint32(0)

	// Mode tag
	putBits(&c.data, &pos, uint32(mode+1), 1<<mode)

	// Rotation
	putBits(&c.data, &pos, 2, (rotation+1)&3)

	if mode == 4 {
		putBits(&c.data, &pos, 1, swap)
	}

	// Endpoints
	for p := 0; p < 3; p++ {
		putBits(&c.data, &pos, epbits, uint32(qep[p]))
		putBits(&c.data, &pos, epbits, uint32(qep[4+p]))
	}

	// Alpha endpoints
	putBits(&c.data, &pos, aepbits, uint32(aqep[0]))
	putBits(&c.data, &pos, aepbits, uint32(aqep[1]))

	// Indices
	codeQblock(&c.data, &pos, qblock, bits, 0)
	codeQblock(&c.data, &pos, aqblock, abits, 0)
}

func (c *blockCompressor) codeMode6(qep []int32, qblock *[2]uint32) {
	codeApplySwapMode456(qep, 4, qblock, 4)

	c.data = [5]uint32{}
	pos := uint32(0)

	// Mode tag
	putBits(&c.data, &pos, 7, 64)

	// Endpoints
	for p := 0; p < 4; p++ {
		putBits(&c.data, &pos, 7, uint32(qep[p])>>1)
		putBits(&c.data, &pos, 7, uint32(qep[4+p])>>1)
	}

	// P-bits
	putBits(&c.data, &pos, 1, uint32(qep[0])&1)
	putBits(&c.data, &pos, 1, uint32(qep[4])&1)

	// Indices
	codeQblock(&c.data, &pos, *qblock, 4, 0)
}
