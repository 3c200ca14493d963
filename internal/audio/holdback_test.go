package audio

import (
	"errors"
	"testing"
	"time"
)

func TestHoldbackDepth(t *testing.T) {
	tests := []struct {
		name     string
		holdback time.Duration
		chunk    time.Duration
		want     int
	}{
		{"exact multiple", 2000 * time.Millisecond, 1000 * time.Millisecond, 2},
		{"rounds up", 2500 * time.Millisecond, 1000 * time.Millisecond, 3},
		{"holdback shorter than chunk", 300 * time.Millisecond, 1000 * time.Millisecond, 1},
		{"zero holdback", 0, 1000 * time.Millisecond, 1},
		{"zero chunk", time.Second, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HoldbackDepth(tt.holdback, tt.chunk); got != tt.want {
				t.Errorf("HoldbackDepth(%v, %v) = %d, want %d", tt.holdback, tt.chunk, got, tt.want)
			}
		})
	}
}

func TestHoldbackQueue_ReleaseAfterDepth(t *testing.T) {
	q := NewHoldbackQueue(2)

	for i := 0; i < 2; i++ {
		if err := q.Push(chunkOf(time.Second, byte(i))); err != nil {
			t.Fatalf("Push failed: %v", err)
		}
		if q.Ready() {
			t.Errorf("Expected queue not ready with %d chunks", q.Len())
		}
	}

	if err := q.Push(chunkOf(time.Second, 2)); err != nil {
		t.Fatalf("Push failed: %v", err)
	}
	if !q.Ready() {
		t.Fatal("Expected queue ready with K+1 chunks")
	}

	head, ok := q.Peek()
	if !ok || head.PCM[0] != 0 {
		t.Error("Expected Peek to return the oldest chunk")
	}

	chunk, ok := q.Pop()
	if !ok {
		t.Fatal("Expected Pop to return a chunk")
	}
	if chunk.PCM[0] != 0 {
		t.Errorf("Expected oldest chunk, got chunk starting with %d", chunk.PCM[0])
	}
	if q.Len() != 2 {
		t.Errorf("Expected length K after pop, got %d", q.Len())
	}
}

func TestHoldbackQueue_SteadyState(t *testing.T) {
	q := NewHoldbackQueue(3)
	released := 0

	for i := 0; i < 20; i++ {
		if err := q.Push(chunkOf(100*time.Millisecond, byte(i))); err != nil {
			t.Fatalf("Push %d failed: %v", i, err)
		}
		if q.Ready() {
			chunk, _ := q.Pop()
			if chunk.PCM[0] != byte(released) {
				t.Errorf("Expected chunk %d released in order, got %d", released, chunk.PCM[0])
			}
			released++
		}
		if i >= 3 && q.Len() != 3 {
			t.Errorf("Expected length K after warm-up, got %d", q.Len())
		}
	}

	if released != 17 {
		t.Errorf("Expected 17 releases, got %d", released)
	}
}

func TestHoldbackQueue_Overflow(t *testing.T) {
	q := NewHoldbackQueue(1)

	_ = q.Push(chunkOf(time.Second, 0))
	_ = q.Push(chunkOf(time.Second, 1))

	err := q.Push(chunkOf(time.Second, 2))
	if !errors.Is(err, ErrHoldbackOverflow) {
		t.Errorf("Expected ErrHoldbackOverflow, got %v", err)
	}
}

func TestHoldbackQueue_Empty(t *testing.T) {
	q := NewHoldbackQueue(0)

	if q.Depth() != 1 {
		t.Errorf("Expected depth clamped to 1, got %d", q.Depth())
	}
	if _, ok := q.Pop(); ok {
		t.Error("Expected Pop on empty queue to fail")
	}
	if _, ok := q.Peek(); ok {
		t.Error("Expected Peek on empty queue to fail")
	}
}
