package session

import (
	"fmt"
	"time"

	"github.com/lexiqai/redaction-gateway/internal/config"
	"github.com/lexiqai/redaction-gateway/internal/redact"
)

// Config holds the per-session pipeline parameters
type Config struct {
	SampleRate int
	Chunk      time.Duration // Emission unit
	Holdback   time.Duration // Fixed output delay
	Window     time.Duration // Transcription context window
	MergeGap   time.Duration
	Hysteresis time.Duration // Masking tail past the last detection

	Tone           redact.Tone
	SafeTextMarker string

	// SilenceRMSThreshold > 0 skips transcription of windows quieter than it
	SilenceRMSThreshold float64
}

// DefaultConfig returns the pipeline defaults for 16 kHz audio
func DefaultConfig() Config {
	return Config{
		SampleRate:     16000,
		Chunk:          time.Second,
		Holdback:       2 * time.Second,
		Window:         4 * time.Second,
		MergeGap:       250 * time.Millisecond,
		Hysteresis:     200 * time.Millisecond,
		Tone:           redact.DefaultTone,
		SafeTextMarker: "[REDACTED]",
	}
}

// ConfigFrom builds the session parameters from the service configuration
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		SampleRate:          cfg.SampleRate,
		Chunk:               cfg.ChunkDuration(),
		Holdback:            cfg.HoldbackDuration(),
		Window:              cfg.WindowDuration(),
		MergeGap:            time.Duration(cfg.MergeGapMS) * time.Millisecond,
		Hysteresis:          time.Duration(cfg.HysteresisMS) * time.Millisecond,
		Tone:                redact.Tone{FreqHz: cfg.ToneFreqHz, Amplitude: cfg.ToneAmplitude},
		SafeTextMarker:      cfg.SafeTextMarker,
		SilenceRMSThreshold: cfg.SilenceRMSThreshold,
	}
}

func (c Config) validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", c.SampleRate)
	}
	if c.Chunk <= 0 || c.Holdback <= 0 || c.Window <= 0 {
		return fmt.Errorf("chunk, holdback and window must be positive, got %s, %s, %s", c.Chunk, c.Holdback, c.Window)
	}
	if c.MergeGap < 0 || c.Hysteresis < 0 {
		return fmt.Errorf("merge gap and hysteresis must not be negative")
	}
	return nil
}
