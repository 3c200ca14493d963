package audio

import (
	"encoding/binary"
	"fmt"
	"math"
)

// BytesToSamples decodes PCM16 little-endian bytes into samples
func BytesToSamples(pcmData []byte) ([]int16, error) {
	if len(pcmData)%BytesPerSample != 0 {
		return nil, fmt.Errorf("PCM data length must be even (16-bit samples)")
	}

	samples := make([]int16, len(pcmData)/BytesPerSample)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(pcmData[i*2:]))
	}
	return samples, nil
}

// CalculateRMS calculates the root mean square (RMS) of audio samples
// Useful for detecting audio levels and silence
func CalculateRMS(samples []int16) float64 {
	if len(samples) == 0 {
		return 0.0
	}

	sum := 0.0
	for _, sample := range samples {
		sum += float64(sample) * float64(sample)
	}

	return math.Sqrt(sum / float64(len(samples)))
}

// CalculateRMSBytes calculates the RMS of a PCM16 little-endian buffer. A
// trailing odd byte is ignored.
func CalculateRMSBytes(pcmData []byte) float64 {
	samples, _ := BytesToSamples(pcmData[:len(pcmData)&^1])
	return CalculateRMS(samples)
}

// DetectSilence detects if a PCM16 buffer is below an RMS threshold
func DetectSilence(pcmData []byte, threshold float64) bool {
	return CalculateRMSBytes(pcmData) < threshold
}
