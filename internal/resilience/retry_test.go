package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastConfig(attempts int) *RetryConfig {
	return &RetryConfig{
		MaxAttempts:       attempts,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        10 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
}

func TestRetry(t *testing.T) {
	errTransient := errors.New("transient")
	errFatal := errors.New("fatal")
	onlyTransient := func(err error) bool { return errors.Is(err, errTransient) }

	tests := []struct {
		name         string
		config       *RetryConfig
		failures     []error // errors returned by successive calls, then nil
		wantErr      error
		wantAttempts int
	}{
		{"first call succeeds", fastConfig(3), nil, nil, 1},
		{"succeeds after transient failures", fastConfig(3), []error{errTransient, errTransient}, nil, 3},
		{"gives up after max attempts", fastConfig(2), []error{errTransient, errTransient, errTransient}, errTransient, 2},
		{"stops on non-retryable error", fastConfig(3), []error{errFatal}, errFatal, 1},
		{"nil config runs once", nil, []error{errTransient}, errTransient, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := 0
			err := Retry(context.Background(), func() error {
				attempts++
				if attempts <= len(tt.failures) {
					return tt.failures[attempts-1]
				}
				return nil
			}, tt.config, onlyTransient)

			if !errors.Is(err, tt.wantErr) || (tt.wantErr == nil && err != nil) {
				t.Errorf("Expected error %v, got %v", tt.wantErr, err)
			}
			if attempts != tt.wantAttempts {
				t.Errorf("Expected %d attempts, got %d", tt.wantAttempts, attempts)
			}
		})
	}
}

func TestRetry_ContextCancelled(t *testing.T) {
	config := &RetryConfig{
		MaxAttempts:       5,
		InitialBackoff:    time.Second,
		MaxBackoff:        time.Second,
		BackoffMultiplier: 1.0,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	attempts := 0
	start := time.Now()
	err := Retry(ctx, func() error {
		attempts++
		return errors.New("worker unavailable")
	}, config, nil)

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected context deadline error, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt before cancellation, got %d", attempts)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("Expected Retry to stop sleeping when the context ended")
	}
}
