package redact

import (
	"encoding/binary"
	"math"
)

// Tone is the masking signal. Its phase is a function of the absolute sample
// index, so chunks synthesised independently splice without a discontinuity.
type Tone struct {
	FreqHz    float64
	Amplitude float64 // fraction of full scale
}

// DefaultTone is a 1 kHz tone at 20% of full scale
var DefaultTone = Tone{FreqHz: 1000, Amplitude: 0.2}

// Sample returns the tone value at absolute sample index abs
func (t Tone) Sample(abs int64, sampleRate int) int16 {
	v := t.Amplitude * math.Sin(2*math.Pi*t.FreqHz*float64(abs)/float64(sampleRate))
	return int16(v * math.MaxInt16)
}

// Apply overwrites each region of a PCM16 chunk with the tone. chunkStart is
// the absolute index of the chunk's first sample. Regions map to samples
// [floor(t0*rate), ceil(t1*rate)) clamped to the chunk. With no regions pcm is
// returned as is; otherwise a modified copy is returned.
func Apply(pcm []byte, chunkStart int64, sampleRate int, regions []Region, tone Tone) []byte {
	if len(regions) == 0 {
		return pcm
	}

	out := make([]byte, len(pcm))
	copy(out, pcm)
	n := int64(len(pcm) / 2)

	for _, r := range regions {
		s := sampleFloor(r.T0, sampleRate)
		e := sampleCeil(r.T1, sampleRate)
		if s < 0 {
			s = 0
		}
		if e > n {
			e = n
		}
		for i := s; i < e; i++ {
			binary.LittleEndian.PutUint16(out[i*2:], uint16(tone.Sample(chunkStart+i, sampleRate)))
		}
	}
	return out
}

// CoveredSeconds returns the total duration of regions
func CoveredSeconds(regions []Region) float64 {
	total := 0.0
	for _, r := range regions {
		if d := r.Duration(); d > 0 {
			total += d
		}
	}
	return total
}
