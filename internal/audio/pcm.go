package audio

import (
	"encoding/binary"
	"fmt"
	"math"
)

// BytesPerSample is the width of one PCM sample on the wire.
const BytesPerSample = 2

// EncodeFrame serializes samples as little-endian signed 16-bit PCM. The
// result is the raw wire payload: no header, framing is implicit in the fixed
// frame size agreed with the peer.
func EncodeFrame(samples []int16) []byte {
	out := make([]byte, len(samples)*BytesPerSample)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*BytesPerSample:], uint16(s))
	}
	return out
}

// DecodeFrame parses a little-endian signed 16-bit PCM payload back into
// samples.
func DecodeFrame(data []byte) ([]int16, error) {
	if len(data)%BytesPerSample != 0 {
		return nil, fmt.Errorf("pcm payload length must be even (got %d bytes)", len(data))
	}

	samples := make([]int16, len(data)/BytesPerSample)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*BytesPerSample:]))
	}
	return samples, nil
}

// Levels computes the peak amplitude and RMS level of a block of samples,
// used for capture monitoring.
func Levels(samples []int16) (peak int32, rms float64) {
	if len(samples) == 0 {
		return 0, 0
	}

	var sumSquares float64
	for _, s := range samples {
		v := int32(s)
		if v < 0 {
			v = -v
		}
		if v > peak {
			peak = v
		}
		sumSquares += float64(s) * float64(s)
	}

	return peak, math.Sqrt(sumSquares / float64(len(samples)))
}
