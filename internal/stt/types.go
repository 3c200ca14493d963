package stt

import (
	"context"
	"errors"
)

// ErrCircuitOpen is returned when the transcription backend has failed too
// often and calls are being rejected without reaching it
var ErrCircuitOpen = errors.New("transcription circuit breaker is open")

// Word is a single recognised word with timestamps in seconds, relative to
// the start of the audio buffer that was transcribed
type Word struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Result represents a transcription of one context window
type Result struct {
	// Text is the whole-window transcript as returned by the backend
	Text string

	// Words is ordered by start time
	Words []Word

	// Language is the detected or configured language, if known
	Language string
}

// Transcriber is the interface for speech-to-text backends. Implementations
// receive PCM16 little-endian mono audio and must be safe for concurrent use.
type Transcriber interface {
	// Transcribe returns the transcript and word timings for pcm
	Transcribe(ctx context.Context, pcm []byte, sampleRate int) (*Result, error)

	// HealthCheck reports whether the backend is reachable
	HealthCheck(ctx context.Context) (bool, error)

	// Name identifies the backend in logs and metrics
	Name() string
}
