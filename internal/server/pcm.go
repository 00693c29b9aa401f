package server

import "encoding/binary"

// pcmBytesToFloat32 converts 16-bit little-endian PCM into the [-1, 1)
// float samples the engine consumes. A trailing odd byte is dropped.
func pcmBytesToFloat32(buf []byte) []float32 {
	n := len(buf) / 2
	if n == 0 {
		return nil
	}
	samples := make([]float32, n)
	for i := 0; i < n; i++ {
		u := binary.LittleEndian.Uint16(buf[2*i:])
		samples[i] = float32(int16(u)) / 32768.0
	}
	return samples
}
