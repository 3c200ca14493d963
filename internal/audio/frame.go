package audio

import (
	"errors"
	"fmt"
	"time"
)

// BytesPerSample is the width of one PCM16 mono sample
const BytesPerSample = 2

// ErrInvalidFrame is returned for payloads that are not whole PCM16 samples
var ErrInvalidFrame = errors.New("invalid PCM16 frame")

// Frame is one transport-sized slice of PCM16 little-endian mono audio.
// Frames are treated as immutable once constructed.
type Frame struct {
	PCM      []byte
	Duration time.Duration
}

// NewFrame wraps a PCM16 payload, deriving its duration from the sample count
func NewFrame(pcm []byte, sampleRate int) (Frame, error) {
	if sampleRate <= 0 {
		return Frame{}, fmt.Errorf("%w: sample rate must be positive, got %d", ErrInvalidFrame, sampleRate)
	}
	if len(pcm) == 0 {
		return Frame{}, fmt.Errorf("%w: empty payload", ErrInvalidFrame)
	}
	if len(pcm)%BytesPerSample != 0 {
		return Frame{}, fmt.Errorf("%w: payload length %d is not a multiple of %d", ErrInvalidFrame, len(pcm), BytesPerSample)
	}

	return Frame{
		PCM:      pcm,
		Duration: SamplesToDuration(len(pcm)/BytesPerSample, sampleRate),
	}, nil
}

// Samples returns the number of samples in the frame
func (f Frame) Samples() int {
	return len(f.PCM) / BytesPerSample
}

// SamplesToDuration converts a sample count to wall-clock duration
func SamplesToDuration(samples, sampleRate int) time.Duration {
	return time.Duration(int64(samples) * int64(time.Second) / int64(sampleRate))
}

// DurationToSamples converts a duration to a whole number of samples (truncating)
func DurationToSamples(d time.Duration, sampleRate int) int64 {
	return int64(d) * int64(sampleRate) / int64(time.Second)
}
