package stt

import (
	"fmt"
	"strings"
	"time"

	"github.com/lexiqai/redaction-gateway/internal/config"
	"github.com/lexiqai/redaction-gateway/internal/resilience"
)

// NewFromConfig builds the configured backend wrapped in a Pool
func NewFromConfig(cfg *config.Config) (*Pool, error) {
	var (
		backend Transcriber
		err     error
	)

	switch strings.ToLower(cfg.STTProvider) {
	case config.ProviderDeepgram:
		backend, err = NewDeepgramTranscriber(cfg)
	case config.ProviderOpenAI:
		backend, err = NewOpenAITranscriber(cfg)
	case config.ProviderGRPC:
		backend, err = NewGRPCTranscriber(cfg)
	default:
		return nil, fmt.Errorf("unknown STT provider %q", cfg.STTProvider)
	}
	if err != nil {
		return nil, err
	}

	breaker := resilience.NewCircuitBreaker(
		backend.Name(),
		cfg.CircuitBreakerMaxFailures,
		time.Duration(cfg.CircuitBreakerResetTimeout)*time.Second,
	)

	return NewPool(
		backend,
		cfg.TranscribeWorkers,
		time.Duration(cfg.TranscribeTimeout)*time.Second,
		breaker,
	), nil
}
