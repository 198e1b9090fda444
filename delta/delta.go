// Package delta stores animation frames as per-byte differences against the
// previous frame. Frames of a looping animation change little between steps,
// so the difference planes are mostly zero and compress far better than the
// frames themselves.
package delta

import "fmt"

// Diff writes curr minus prev into dst as signed byte deltas. A true
// difference of +128 or -128 cannot be represented and is clamped; Apply's
// output clamp keeps the reconstruction within one step of the original.
func Diff(dst []int8, prev, curr []byte) error {
	if len(prev) != len(curr) {
		return fmt.Errorf("delta: frame sizes differ: %d vs %d", len(prev), len(curr))
	}
	if len(dst) < len(curr) {
		return fmt.Errorf("delta: destination is %d bytes, need %d", len(dst), len(curr))
	}

	for i := range curr {
		d := int(curr[i]) - int(prev[i])
		if d > 127 {
			d = 127
		}
		if d < -127 {
			d = -127
		}
		dst[i] = int8(d)
	}
	return nil
}

// Apply reconstructs the next frame in place: frame[i] += diff[i], clamped
// to the byte range.
func Apply(frame []byte, diff []int8) error {
	if len(diff) != len(frame) {
		return fmt.Errorf("delta: diff is %d bytes, frame is %d", len(diff), len(frame))
	}

	for i := range frame {
		v := int(frame[i]) + int(diff[i])
		if v < 0 {
			v = 0
		}
		if v > 255 {
			v = 255
		}
		frame[i] = byte(v)
	}
	return nil
}
