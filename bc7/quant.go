package bc7

// Endpoint quantization. Modes 0, 1, 3, 6 and 7 carry a shared low-order
// P-bit per endpoint (mode 1: per endpoint pair); both settings of the bit
// are trialed and the one reconstructing closer to the float endpoint wins.
// Modes 2, 4 and 5 quantize uniformly. Dequantization replicates the
// quantized value's high bits into the vacated low bits, matching the
// hardware decoder exactly.

// pairsTable is the endpoint pair count per mode.
var pairsTable = [8]int{3, 2, 3, 2, 1, 1, 1, 2}

// unpackToByte expands a value quantized to the given bit count to 8 bits by
// bit replication.
func unpackToByte(v int32, bits uint32) int32 {
	vv := v << (8 - bits)
	return vv + (vv >> bits)
}

// epQuant0367 quantizes one endpoint pair for the P-bit modes 0, 3, 6 and 7.
// The two P-bit candidates are compared by reconstruction error over the
// active channels.
func epQuant0367(qep []int32, ep []float32, mode int, channels int) {
	bits := uint32(7)
	if mode == 0 {
		bits = 4
	} else if mode == 7 {
		bits = 5
	}
	levels := int32(1) << bits
	levels2 := levels*2 - 1

	for i := 0; i < 2; i++ {
		var qepB [8]int32

		for b := int32(0); b < 2; b++ {
			for p := 0; p < 4; p++ {
				v := int32((ep[i*4+p]/255*float32(levels2)-float32(b))/2+0.5)*2 + b
				qepB[b*4+int32(p)] = clampi(v, b, levels2-1+b)
			}
		}

		var epB [8]float32
		for j := 0; j < 8; j++ {
			epB[j] = float32(qepB[j])
		}

		if mode == 0 {
			for j := 0; j < 8; j++ {
				epB[j] = float32(unpackToByte(qepB[j], 5))
			}
		}

		err0 := float32(0)
		err1 := float32(0)
		for p := 0; p < channels; p++ {
			err0 += sq(ep[i*4+p] - epB[p])
			err1 += sq(ep[i*4+p] - epB[4+p])
		}

		for p := 0; p < 4; p++ {
			if err0 < err1 {
				qep[i*4+p] = qepB[p]
			} else {
				qep[i*4+p] = qepB[4+p]
			}
		}
	}
}

// epQuant1 quantizes one endpoint pair for mode 1, whose P-bit is shared by
// both endpoints of the pair.
func epQuant1(qep []int32, ep []float32) {
	var qepB [16]int32

	for b := int32(0); b < 2; b++ {
		for i := 0; i < 8; i++ {
			v := int32((ep[i]/255*127-float32(b))/2+0.5)*2 + b
			qepB[b*8+int32(i)] = clampi(v, b, 126+b)
		}
	}

	var epB [16]float32
	for k := 0; k < 16; k++ {
		epB[k] = float32(unpackToByte(qepB[k], 7))
	}

	err0 := float32(0)
	err1 := float32(0)
	for j := 0; j < 2; j++ {
		for p := 0; p < 3; p++ {
			err0 += sq(ep[j*4+p] - epB[j*4+p])
			err1 += sq(ep[j*4+p] - epB[8+j*4+p])
		}
	}

	for i := 0; i < 8; i++ {
		if err0 < err1 {
			qep[i] = qepB[i]
		} else {
			qep[i] = qepB[8+i]
		}
	}
}

// epQuant245 quantizes one endpoint pair uniformly for modes 2, 4 and 5.
func epQuant245(qep []int32, ep []float32, mode int) {
	bits := uint32(5)
	if mode == 5 {
		bits = 7
	}
	levels := int32(1) << bits

	for i := 0; i < 8; i++ {
		v := int32(ep[i]/255*float32(levels-1) + 0.5)
		qep[i] = clampi(v, 0, levels-1)
	}
}

func epQuant(qep []int32, ep []float32, mode int, channels int) {
	pairs := pairsTable[mode]

	switch mode {
	case 0, 3, 6, 7:
		for i := 0; i < pairs; i++ {
			epQuant0367(qep[i*8:], ep[i*8:], mode, channels)
		}
	case 1:
		for i := 0; i < pairs; i++ {
			epQuant1(qep[i*8:], ep[i*8:])
		}
	case 2, 4, 5:
		for i := 0; i < pairs; i++ {
			epQuant245(qep[i*8:], ep[i*8:], mode)
		}
	}
}

func epDequant(ep []float32, qep []int32, mode int) {
	pairs := pairsTable[mode]

	// Modes 3 and 6 quantize to a full 8 bits including the P-bit.
	switch mode {
	case 3, 6:
		for i := 0; i < 8*pairs; i++ {
			ep[i] = float32(qep[i])
		}
	case 1, 5:
		for i := 0; i < 8*pairs; i++ {
			ep[i] = float32(unpackToByte(qep[i], 7))
		}
	case 0, 2, 4:
		for i := 0; i < 8*pairs; i++ {
			ep[i] = float32(unpackToByte(qep[i], 5))
		}
	case 7:
		for i := 0; i < 8*pairs; i++ {
			ep[i] = float32(unpackToByte(qep[i], 6))
		}
	}
}

func epQuantDequant(qep []int32, ep []float32, mode int, channels int) {
	epQuant(qep, ep, mode, channels)
	epDequant(ep, qep, mode)
}

// channelQuantDequant quantizes a scalar endpoint pair to epbits and
// replaces it with its dequantized value.
func channelQuantDequant(qep *[2]int32, ep *[2]float32, epbits uint32) {
	elevels := int32(1) << epbits

	for i := 0; i < 2; i++ {
		v := int32(ep[i]/255*float32(elevels-1) + 0.5)
		qep[i] = clampi(v, 0, elevels-1)
		ep[i] = float32(unpackToByte(qep[i], epbits))
	}
}

func clampi(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
