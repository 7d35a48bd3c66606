package synth

import "encoding/binary"

// EncodePCM converts samples to 16-bit big-endian signed mono PCM. Samples
// are clipped to [-1, 1] before scaling, so the stream length is always
// exactly two bytes per sample.
func EncodePCM(samples []float64) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		binary.BigEndian.PutUint16(out[i*2:], uint16(int16(s*32767)))
	}
	return out
}

// DecodePCM is the inverse of EncodePCM, recovering float samples from a
// big-endian 16-bit stream. Odd trailing bytes are ignored.
func DecodePCM(data []byte) []float64 {
	out := make([]float64, len(data)/2)
	for i := range out {
		out[i] = float64(int16(binary.BigEndian.Uint16(data[i*2:]))) / 32767.0
	}
	return out
}
