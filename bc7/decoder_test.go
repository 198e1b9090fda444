package bc7

// Reference BC7 block decoder used to verify encoder output. It follows the
// BPTC decode procedure directly and shares no tables or helpers with the
// encoder, so a bug on one side cannot hide a bug on the other.

var decodeActualBitsCount = [2][8]uint32{
	{4, 6, 5, 7, 5, 7, 7, 5}, // RGB
	{0, 0, 0, 0, 6, 8, 7, 5}, // alpha
}

// Partition shapes per subset count, 4x4 texels row-major. Anchor texels
// carry 0x80; the low two bits are the subset.
var decodePartitionSets = [2][64][16]uint8{
	{
		{128, 0, 1, 1, 0, 0, 1, 1, 0, 0, 1, 1, 0, 0, 1, 129},
		{128, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 129},
		{128, 1, 1, 1, 0, 1, 1, 1, 0, 1, 1, 1, 0, 1, 1, 129},
		{128, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 1, 0, 1, 1, 129},
		{128, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 1, 129},
		{128, 0, 1, 1, 0, 1, 1, 1, 0, 1, 1, 1, 1, 1, 1, 129},
		{128, 0, 0, 1, 0, 0, 1, 1, 0, 1, 1, 1, 1, 1, 1, 129},
		{128, 0, 0, 0, 0, 0, 0, 1, 0, 0, 1, 1, 0, 1, 1, 129},
		{128, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 1, 129},
		{128, 0, 1, 1, 0, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 129},
		{128, 0, 0, 0, 0, 0, 0, 1, 0, 1, 1, 1, 1, 1, 1, 129},
		{128, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1, 0, 1, 1, 129},
		{128, 0, 0, 1, 0, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 129},
		{128, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 1, 1, 1, 129},
		{128, 0, 0, 0, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 129},
		{128, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 129},
		{128, 0, 0, 0, 1, 0, 0, 0, 1, 1, 1, 0, 1, 1, 1, 129},
		{128, 1, 129, 1, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0, 0},
		{128, 0, 0, 0, 0, 0, 0, 0, 129, 0, 0, 0, 1, 1, 1, 0},
		{128, 1, 129, 1, 0, 0, 1, 1, 0, 0, 0, 1, 0, 0, 0, 0},
		{128, 0, 129, 1, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0, 0},
		{128, 0, 0, 0, 1, 0, 0, 0, 129, 1, 0, 0, 1, 1, 1, 0},
		{128, 0, 0, 0, 0, 0, 0, 0, 129, 0, 0, 0, 1, 1, 0, 0},
		{128, 1, 1, 1, 0, 0, 1, 1, 0, 0, 1, 1, 0, 0, 0, 129},
		{128, 0, 129, 1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 0},
		{128, 0, 0, 0, 1, 0, 0, 0, 129, 0, 0, 0, 1, 1, 0, 0},
		{128, 1, 129, 0, 0, 1, 1, 0, 0, 1, 1, 0, 0, 1, 1, 0},
		{128, 0, 129, 1, 0, 1, 1, 0, 0, 1, 1, 0, 1, 1, 0, 0},
		{128, 0, 0, 1, 0, 1, 1, 1, 129, 1, 1, 0, 1, 0, 0, 0},
		{128, 0, 0, 0, 1, 1, 1, 1, 129, 1, 1, 1, 0, 0, 0, 0},
		{128, 1, 129, 1, 0, 0, 0, 1, 1, 0, 0, 0, 1, 1, 1, 0},
		{128, 0, 129, 1, 1, 0, 0, 1, 1, 0, 0, 1, 1, 1, 0, 0},
		{128, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 129},
		{128, 0, 0, 0, 1, 1, 1, 1, 0, 0, 0, 0, 1, 1, 1, 129},
		{128, 1, 0, 1, 1, 0, 129, 0, 0, 1, 0, 1, 1, 0, 1, 0},
		{128, 0, 1, 1, 0, 0, 1, 1, 129, 1, 0, 0, 1, 1, 0, 0},
		{128, 0, 129, 1, 1, 1, 0, 0, 0, 0, 1, 1, 1, 1, 0, 0},
		{128, 1, 0, 1, 0, 1, 0, 1, 129, 0, 1, 0, 1, 0, 1, 0},
		{128, 1, 1, 0, 1, 0, 0, 1, 0, 1, 1, 0, 1, 0, 0, 129},
		{128, 1, 0, 1, 1, 0, 1, 0, 1, 0, 1, 0, 0, 1, 0, 129},
		{128, 1, 129, 1, 0, 0, 1, 1, 1, 1, 0, 0, 1, 1, 1, 0},
		{128, 0, 0, 1, 0, 0, 1, 1, 129, 1, 0, 0, 1, 0, 0, 0},
		{128, 0, 129, 1, 0, 0, 1, 0, 0, 1, 0, 0, 1, 1, 0, 0},
		{128, 0, 129, 1, 1, 0, 1, 1, 1, 1, 0, 1, 1, 1, 0, 0},
		{128, 1, 129, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0, 1, 1, 0},
		{128, 0, 1, 1, 1, 1, 0, 0, 1, 1, 0, 0, 0, 0, 1, 129},
		{128, 1, 1, 0, 0, 1, 1, 0, 1, 0, 0, 1, 1, 0, 0, 129},
		{128, 0, 0, 0, 0, 1, 129, 0, 0, 1, 1, 0, 0, 0, 0, 0},
		{128, 1, 0, 0, 1, 1, 129, 0, 0, 1, 0, 0, 0, 0, 0, 0},
		{128, 0, 129, 0, 0, 1, 1, 1, 0, 0, 1, 0, 0, 0, 0, 0},
		{128, 0, 0, 0, 0, 0, 129, 0, 0, 1, 1, 1, 0, 0, 1, 0},
		{128, 0, 0, 0, 0, 1, 0, 0, 129, 1, 1, 0, 0, 1, 0, 0},
		{128, 1, 1, 0, 1, 1, 0, 0, 1, 0, 0, 1, 0, 0, 1, 129},
		{128, 0, 1, 1, 0, 1, 1, 0, 1, 1, 0, 0, 1, 0, 0, 129},
		{128, 1, 129, 0, 0, 0, 1, 1, 1, 0, 0, 1, 1, 1, 0, 0},
		{128, 0, 129, 1, 1, 0, 0, 1, 1, 1, 0, 0, 0, 1, 1, 0},
		{128, 1, 1, 0, 1, 1, 0, 0, 1, 1, 0, 0, 1, 0, 0, 129},
		{128, 1, 1, 0, 0, 0, 1, 1, 0, 0, 1, 1, 1, 0, 0, 129},
		{128, 1, 1, 1, 1, 1, 1, 0, 1, 0, 0, 0, 0, 0, 0, 129},
		{128, 0, 0, 1, 1, 0, 0, 0, 1, 1, 1, 0, 0, 1, 1, 129},
		{128, 0, 0, 0, 1, 1, 1, 1, 0, 0, 1, 1, 0, 0, 1, 129},
		{128, 0, 129, 1, 0, 0, 1, 1, 1, 1, 1, 1, 0, 0, 0, 0},
		{128, 0, 129, 0, 0, 0, 1, 0, 1, 1, 1, 0, 1, 1, 1, 0},
		{128, 1, 0, 0, 0, 1, 0, 0, 0, 1, 1, 1, 0, 1, 1, 129},
	},
	{
		{128, 0, 1, 129, 0, 0, 1, 1, 0, 2, 2, 1, 2, 2, 2, 130},
		{128, 0, 0, 129, 0, 0, 1, 1, 130, 2, 1, 1, 2, 2, 2, 1},
		{128, 0, 0, 0, 2, 0, 0, 1, 130, 2, 1, 1, 2, 2, 1, 129},
		{128, 2, 2, 130, 0, 0, 2, 2, 0, 0, 1, 1, 0, 1, 1, 129},
		{128, 0, 0, 0, 0, 0, 0, 0, 129, 1, 2, 2, 1, 1, 2, 130},
		{128, 0, 1, 129, 0, 0, 1, 1, 0, 0, 2, 2, 0, 0, 2, 130},
		{128, 0, 2, 130, 0, 0, 2, 2, 1, 1, 1, 1, 1, 1, 1, 129},
		{128, 0, 1, 1, 0, 0, 1, 1, 130, 2, 1, 1, 2, 2, 1, 129},
		{128, 0, 0, 0, 0, 0, 0, 0, 129, 1, 1, 1, 2, 2, 2, 130},
		{128, 0, 0, 0, 1, 1, 1, 1, 129, 1, 1, 1, 2, 2, 2, 130},
		{128, 0, 0, 0, 1, 1, 129, 1, 2, 2, 2, 2, 2, 2, 2, 130},
		{128, 0, 1, 2, 0, 0, 129, 2, 0, 0, 1, 2, 0, 0, 1, 130},
		{128, 1, 1, 2, 0, 1, 129, 2, 0, 1, 1, 2, 0, 1, 1, 130},
		{128, 1, 2, 2, 0, 129, 2, 2, 0, 1, 2, 2, 0, 1, 2, 130},
		{128, 0, 1, 129, 0, 1, 1, 2, 1, 1, 2, 2, 1, 2, 2, 130},
		{128, 0, 1, 129, 2, 0, 0, 1, 130, 2, 0, 0, 2, 2, 2, 0},
		{128, 0, 0, 129, 0, 0, 1, 1, 0, 1, 1, 2, 1, 1, 2, 130},
		{128, 1, 1, 129, 0, 0, 1, 1, 130, 0, 0, 1, 2, 2, 0, 0},
		{128, 0, 0, 0, 1, 1, 2, 2, 129, 1, 2, 2, 1, 1, 2, 130},
		{128, 0, 2, 130, 0, 0, 2, 2, 0, 0, 2, 2, 1, 1, 1, 129},
		{128, 1, 1, 129, 0, 1, 1, 1, 0, 2, 2, 2, 0, 2, 2, 130},
		{128, 0, 0, 129, 0, 0, 0, 1, 130, 2, 2, 1, 2, 2, 2, 1},
		{128, 0, 0, 0, 0, 0, 129, 1, 0, 1, 2, 2, 0, 1, 2, 130},
		{128, 0, 0, 0, 1, 1, 0, 0, 130, 2, 129, 0, 2, 2, 1, 0},
		{128, 1, 2, 130, 0, 129, 2, 2, 0, 0, 1, 1, 0, 0, 0, 0},
		{128, 0, 1, 2, 0, 0, 1, 2, 129, 1, 2, 2, 2, 2, 2, 130},
		{128, 1, 1, 0, 1, 2, 130, 1, 129, 2, 2, 1, 0, 1, 1, 0},
		{128, 0, 0, 0, 0, 1, 129, 0, 1, 2, 130, 1, 1, 2, 2, 1},
		{128, 0, 2, 2, 1, 1, 0, 2, 129, 1, 0, 2, 0, 0, 2, 130},
		{128, 1, 1, 0, 0, 129, 1, 0, 2, 0, 0, 2, 2, 2, 2, 130},
		{128, 0, 1, 1, 0, 1, 2, 2, 0, 1, 130, 2, 0, 0, 1, 129},
		{128, 0, 0, 0, 2, 0, 0, 0, 130, 2, 1, 1, 2, 2, 2, 129},
		{128, 0, 0, 0, 0, 0, 0, 2, 129, 1, 2, 2, 1, 2, 2, 130},
		{128, 2, 2, 130, 0, 0, 2, 2, 0, 0, 1, 2, 0, 0, 1, 129},
		{128, 0, 1, 129, 0, 0, 1, 2, 0, 0, 2, 2, 0, 2, 2, 130},
		{128, 1, 2, 0, 0, 129, 2, 0, 0, 1, 130, 0, 0, 1, 2, 0},
		{128, 0, 0, 0, 1, 1, 129, 1, 2, 2, 130, 2, 0, 0, 0, 0},
		{128, 1, 2, 0, 1, 2, 0, 1, 130, 0, 129, 2, 0, 1, 2, 0},
		{128, 1, 2, 0, 2, 0, 1, 2, 129, 130, 0, 1, 0, 1, 2, 0},
		{128, 0, 1, 1, 2, 2, 0, 0, 1, 1, 130, 2, 0, 0, 1, 129},
		{128, 0, 1, 1, 1, 1, 130, 2, 2, 2, 0, 0, 0, 0, 1, 129},
		{128, 1, 0, 129, 0, 1, 0, 1, 2, 2, 2, 2, 2, 2, 2, 130},
		{128, 0, 0, 0, 0, 0, 0, 0, 130, 1, 2, 1, 2, 1, 2, 129},
		{128, 0, 2, 2, 1, 129, 2, 2, 0, 0, 2, 2, 1, 1, 2, 130},
		{128, 0, 2, 130, 0, 0, 1, 1, 0, 0, 2, 2, 0, 0, 1, 129},
		{128, 2, 2, 0, 1, 2, 130, 1, 0, 2, 2, 0, 1, 2, 2, 129},
		{128, 1, 0, 1, 2, 2, 130, 2, 2, 2, 2, 2, 0, 1, 0, 129},
		{128, 0, 0, 0, 2, 1, 2, 1, 130, 1, 2, 1, 2, 1, 2, 129},
		{128, 1, 0, 129, 0, 1, 0, 1, 0, 1, 0, 1, 2, 2, 2, 130},
		{128, 2, 2, 130, 0, 1, 1, 1, 0, 2, 2, 2, 0, 1, 1, 129},
		{128, 0, 0, 2, 1, 129, 1, 2, 0, 0, 0, 2, 1, 1, 1, 130},
		{128, 0, 0, 0, 2, 129, 1, 2, 2, 1, 1, 2, 2, 1, 1, 130},
		{128, 2, 2, 2, 0, 129, 1, 1, 0, 1, 1, 1, 0, 2, 2, 130},
		{128, 0, 0, 2, 1, 1, 1, 2, 129, 1, 1, 2, 0, 0, 0, 130},
		{128, 1, 1, 0, 0, 129, 1, 0, 0, 1, 1, 0, 2, 2, 2, 130},
		{128, 0, 0, 0, 0, 0, 0, 0, 2, 1, 129, 2, 2, 1, 1, 130},
		{128, 1, 1, 0, 0, 129, 1, 0, 2, 2, 2, 2, 2, 2, 2, 130},
		{128, 0, 2, 2, 0, 0, 1, 1, 0, 0, 129, 1, 0, 0, 2, 130},
		{128, 0, 2, 2, 1, 1, 2, 2, 129, 1, 2, 2, 0, 0, 2, 130},
		{128, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 2, 129, 1, 130},
		{128, 0, 0, 130, 0, 0, 0, 1, 0, 0, 0, 2, 0, 0, 0, 129},
		{128, 2, 2, 2, 1, 2, 2, 2, 0, 2, 2, 2, 129, 2, 2, 130},
		{128, 1, 0, 129, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 130},
		{128, 1, 1, 129, 2, 0, 1, 1, 130, 2, 0, 1, 2, 2, 2, 0},
	},
}

var (
	decodeWeight2 = [4]int32{0, 21, 43, 64}
	decodeWeight3 = [8]int32{0, 9, 18, 27, 37, 46, 55, 64}
	decodeWeight4 = [16]int32{0, 4, 9, 13, 17, 21, 26, 30, 34, 38, 43, 47, 51, 55, 60, 64}
)

const decodeModeHasPBits = 0b11001011

type bitStream struct {
	low  uint64
	high uint64
}

func newBitStream(data []byte) bitStream {
	var s bitStream
	for i := 0; i < 8; i++ {
		s.low |= uint64(data[i]) << (8 * i)
		s.high |= uint64(data[8+i]) << (8 * i)
	}
	return s
}

func (s *bitStream) readBits(n uint32) uint32 {
	mask := uint64(1)<<n - 1
	bits := uint32(s.low & mask)
	s.low >>= n
	s.low |= (s.high & mask) << (64 - n)
	s.high >>= n
	return bits
}

func (s *bitStream) readBit() uint32 {
	return s.readBits(1)
}

func decodeInterpolate(a, b int32, weights []int32, index int32) int32 {
	w := weights[index]
	return (a*(64-w) + b*w + 32) >> 6
}

// decodeBlockBC7 decompresses one 128-bit block into interleaved RGBA rows
// of pitch bytes each.
func decodeBlockBC7(compressed []byte, dst []byte, pitch int) {
	bs := newBitStream(compressed)

	mode := 0
	for mode < 8 && bs.readBit() == 0 {
		mode++
	}

	// Reserved mode decodes as transparent black.
	if mode >= 8 {
		for i := 0; i < 4; i++ {
			for j := 0; j < 4; j++ {
				off := i*pitch + j*4
				dst[off], dst[off+1], dst[off+2], dst[off+3] = 0, 0, 0, 0
			}
		}
		return
	}

	partition := 0
	numPartitions := 1
	rotation := uint32(0)
	indexSelection := uint32(0)

	switch mode {
	case 0, 1, 2, 3, 7:
		numPartitions = 2
		if mode == 0 || mode == 2 {
			numPartitions = 3
		}
		if mode == 0 {
			partition = int(bs.readBits(4))
		} else {
			partition = int(bs.readBits(6))
		}
	}

	numEndpoints := numPartitions * 2

	if mode == 4 || mode == 5 {
		rotation = bs.readBits(2)
		if mode == 4 {
			indexSelection = bs.readBit()
		}
	}

	var endpoints [6][4]int32

	for i := 0; i < 3; i++ {
		for j := 0; j < numEndpoints; j++ {
			endpoints[j][i] = int32(bs.readBits(decodeActualBitsCount[0][mode]))
		}
	}

	if decodeActualBitsCount[1][mode] > 0 {
		for j := 0; j < numEndpoints; j++ {
			endpoints[j][3] = int32(bs.readBits(decodeActualBitsCount[1][mode]))
		}
	}

	if mode == 0 || mode == 1 || mode == 3 || mode == 6 || mode == 7 {
		for j := 0; j < numEndpoints; j++ {
			for k := 0; k < 4; k++ {
				endpoints[j][k] <<= 1
			}
		}

		if mode == 1 {
			// One P-bit per endpoint pair.
			p0 := int32(bs.readBit())
			p1 := int32(bs.readBit())
			for k := 0; k < 3; k++ {
				endpoints[0][k] |= p0
				endpoints[1][k] |= p0
				endpoints[2][k] |= p1
				endpoints[3][k] |= p1
			}
		} else if decodeModeHasPBits&(1<<mode) != 0 {
			for j := 0; j < numEndpoints; j++ {
				p := int32(bs.readBit())
				for k := 0; k < 4; k++ {
					endpoints[j][k] |= p
				}
			}
		}
	}

	for i := 0; i < numEndpoints; i++ {
		rgbBits := decodeActualBitsCount[0][mode] + (decodeModeHasPBits >> mode & 1)
		for k := 0; k < 3; k++ {
			endpoints[i][k] <<= 8 - rgbBits
			endpoints[i][k] |= endpoints[i][k] >> rgbBits
		}

		alphaBits := decodeActualBitsCount[1][mode] + (decodeModeHasPBits >> mode & 1)
		endpoints[i][3] <<= 8 - alphaBits
		endpoints[i][3] |= endpoints[i][3] >> alphaBits
	}

	if decodeActualBitsCount[1][mode] == 0 {
		for j := 0; j < numEndpoints; j++ {
			endpoints[j][3] = 0xFF
		}
	}

	indexBits := uint32(2)
	switch mode {
	case 0, 1:
		indexBits = 3
	case 6:
		indexBits = 4
	}

	indexBits2 := uint32(0)
	switch mode {
	case 4:
		indexBits2 = 3
	case 5:
		indexBits2 = 2
	}

	var weights []int32
	switch indexBits {
	case 2:
		weights = decodeWeight2[:]
	case 3:
		weights = decodeWeight3[:]
	default:
		weights = decodeWeight4[:]
	}

	weights2 := decodeWeight3[:]
	if indexBits2 == 2 {
		weights2 = decodeWeight2[:]
	}

	partitionAt := func(i, j int) uint8 {
		if numPartitions == 1 {
			if i|j == 0 {
				return 128
			}
			return 0
		}
		return decodePartitionSets[numPartitions-2][partition][i*4+j]
	}

	var indices [4][4]int32
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			idxBits := indexBits
			if partitionAt(i, j)&0x80 != 0 {
				idxBits--
			}
			indices[i][j] = int32(bs.readBits(idxBits))
		}
	}

	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			subset := int(partitionAt(i, j) & 3)
			index := indices[i][j]

			lo := &endpoints[subset*2]
			hi := &endpoints[subset*2+1]

			var r, g, b, a int32
			if indexBits2 == 0 {
				r = decodeInterpolate(lo[0], hi[0], weights, index)
				g = decodeInterpolate(lo[1], hi[1], weights, index)
				b = decodeInterpolate(lo[2], hi[2], weights, index)
				a = decodeInterpolate(lo[3], hi[3], weights, index)
			} else {
				idxBits2 := indexBits2
				if i|j == 0 {
					idxBits2--
				}
				index2 := int32(bs.readBits(idxBits2))

				if indexSelection == 0 {
					r = decodeInterpolate(lo[0], hi[0], weights, index)
					g = decodeInterpolate(lo[1], hi[1], weights, index)
					b = decodeInterpolate(lo[2], hi[2], weights, index)
					a = decodeInterpolate(lo[3], hi[3], weights2, index2)
				} else {
					r = decodeInterpolate(lo[0], hi[0], weights2, index2)
					g = decodeInterpolate(lo[1], hi[1], weights2, index2)
					b = decodeInterpolate(lo[2], hi[2], weights2, index2)
					a = decodeInterpolate(lo[3], hi[3], weights, index)
				}
			}

			switch rotation {
			case 1:
				a, r = r, a
			case 2:
				a, g = g, a
			case 3:
				a, b = b, a
			}

			off := i*pitch + j*4
			dst[off] = byte(r)
			dst[off+1] = byte(g)
			dst[off+2] = byte(b)
			dst[off+3] = byte(a)
		}
	}
}
