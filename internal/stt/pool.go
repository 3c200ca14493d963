package stt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lexiqai/redaction-gateway/internal/observability"
	"github.com/lexiqai/redaction-gateway/internal/resilience"
)

// Pool bounds concurrent transcription calls across all sessions and applies a
// per-call timeout and a circuit breaker. Calls run on their own goroutine so a
// backend that ignores cancellation cannot stall the calling session past the
// timeout; its worker slot stays taken until it returns.
type Pool struct {
	backend Transcriber
	slots   chan struct{}
	timeout time.Duration
	breaker *resilience.CircuitBreaker
}

type outcome struct {
	result *Result
	err    error
}

// NewPool wraps backend with workers concurrent slots
func NewPool(backend Transcriber, workers int, timeout time.Duration, breaker *resilience.CircuitBreaker) *Pool {
	if workers < 1 {
		workers = 1
	}
	if breaker == nil {
		breaker = resilience.NewCircuitBreaker(backend.Name(), 5, 30*time.Second)
	}
	return &Pool{
		backend: backend,
		slots:   make(chan struct{}, workers),
		timeout: timeout,
		breaker: breaker,
	}
}

// Name identifies the wrapped backend
func (p *Pool) Name() string {
	return p.backend.Name()
}

// Transcribe runs the backend on a worker slot and waits for its result
func (p *Pool) Transcribe(ctx context.Context, pcm []byte, sampleRate int) (*Result, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := time.Now()
	var result *Result

	err := p.breaker.Call(func() error {
		select {
		case p.slots <- struct{}{}:
		case <-ctx.Done():
			return fmt.Errorf("waiting for transcription worker: %w", ctx.Err())
		}

		done := make(chan outcome, 1)
		go func() {
			defer func() { <-p.slots }()
			r, err := p.backend.Transcribe(ctx, pcm, sampleRate)
			done <- outcome{result: r, err: err}
		}()

		select {
		case o := <-done:
			if o.err != nil {
				return o.err
			}
			if o.result == nil {
				return fmt.Errorf("backend %s returned no result", p.backend.Name())
			}
			result = o.result
			return nil
		case <-ctx.Done():
			return fmt.Errorf("transcription abandoned: %w", ctx.Err())
		}
	})

	name := p.backend.Name()
	observability.UpdateCircuitBreakerState(p.breaker.Name(), int(p.breaker.GetState()))

	if errors.Is(err, resilience.ErrOpen) {
		return nil, fmt.Errorf("%w: %s", ErrCircuitOpen, p.breaker.Name())
	}
	observability.RecordTranscription(name, time.Since(start), err == nil)
	if err != nil {
		observability.IncrementCircuitBreakerFailures(p.breaker.Name())
		return nil, fmt.Errorf("%s transcription failed: %w", name, err)
	}

	return result, nil
}

// HealthCheck fails fast while the breaker is open, otherwise delegates to the backend
func (p *Pool) HealthCheck(ctx context.Context) (bool, error) {
	if state := p.breaker.GetState(); state == resilience.StateOpen {
		return false, fmt.Errorf("%w: %s is %s", ErrCircuitOpen, p.breaker.Name(), state)
	}
	return p.backend.HealthCheck(ctx)
}
