package redact

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rate = 16000

func constantPCM(samples int, value int16) []byte {
	pcm := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(value))
	}
	return pcm
}

func sampleAt(pcm []byte, i int) int16 {
	return int16(binary.LittleEndian.Uint16(pcm[i*2:]))
}

func TestApply_PassThrough(t *testing.T) {
	pcm := constantPCM(1600, 12345)

	out := Apply(pcm, 0, rate, nil, DefaultTone)

	assert.True(t, bytes.Equal(pcm, out))
}

func TestApply_ReplacesRegionOnly(t *testing.T) {
	pcm := constantPCM(16000, 12345)
	original := append([]byte(nil), pcm...)

	out := Apply(pcm, 48000, rate, []Region{{T0: 0.25, T1: 0.5}}, DefaultTone)

	require.Len(t, out, len(pcm))
	assert.Equal(t, original, pcm, "input must not be modified")
	for i := 0; i < 16000; i++ {
		inside := i >= 4000 && i < 8000
		if inside {
			require.NotEqual(t, int16(12345), sampleAt(out, i), "sample %d not masked", i)
			require.Equal(t, DefaultTone.Sample(48000+int64(i), rate), sampleAt(out, i))
		} else {
			require.Equal(t, int16(12345), sampleAt(out, i), "sample %d changed", i)
		}
	}
}

func TestApply_ClampsToChunk(t *testing.T) {
	pcm := constantPCM(16000, 12345)

	out := Apply(pcm, 0, rate, []Region{{T0: -0.1, T1: 5.0}}, DefaultTone)

	for i := 0; i < 16000; i++ {
		require.NotEqual(t, int16(12345), sampleAt(out, i))
	}
}

func TestApply_PhaseContinuity(t *testing.T) {
	chunk := 16000
	a := Apply(constantPCM(chunk, 12345), 0, rate, []Region{{T0: 0, T1: 1}}, DefaultTone)
	b := Apply(constantPCM(chunk, -12345), int64(chunk), rate, []Region{{T0: 0, T1: 1}}, DefaultTone)

	lastA := sampleAt(a, chunk-1)
	firstB := sampleAt(b, 0)

	assert.Equal(t, DefaultTone.Sample(int64(chunk-1), rate), lastA)
	assert.Equal(t, DefaultTone.Sample(int64(chunk), rate), firstB)

	// Bounded by the largest per-sample change of the tone, plus rounding
	maxDelta := DefaultTone.Amplitude*math.MaxInt16*2*math.Pi*DefaultTone.FreqHz/rate + 1
	assert.LessOrEqual(t, math.Abs(float64(firstB)-float64(lastA)), maxDelta)
}

func TestTone_Sample(t *testing.T) {
	tone := Tone{FreqHz: 1000, Amplitude: 0.2}

	assert.Equal(t, int16(0), tone.Sample(0, rate))
	// Quarter period at 1 kHz and 16 kHz is 4 samples
	assert.Equal(t, int16(6553), tone.Sample(4, rate))
	assert.Equal(t, tone.Sample(4, rate), tone.Sample(20, rate))
}

func TestCoveredSeconds(t *testing.T) {
	assert.InDelta(t, 0.5, CoveredSeconds([]Region{{T0: 0, T1: 0.2}, {T0: 0.5, T1: 0.8}}), 1e-9)
	assert.Zero(t, CoveredSeconds(nil))
}
