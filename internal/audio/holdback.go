package audio

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrHoldbackOverflow means a chunk was pushed while a released chunk was still pending
var ErrHoldbackOverflow = errors.New("holdback queue overflow")

// HoldbackDepth returns K, the number of newer chunks that must arrive behind a
// chunk before it may be released. Non-multiples round up; K is at least 1.
func HoldbackDepth(holdback, chunk time.Duration) int {
	if chunk <= 0 {
		return 1
	}
	k := int(math.Ceil(float64(holdback) / float64(chunk)))
	if k < 1 {
		return 1
	}
	return k
}

// HoldbackQueue is the FIFO of chunks awaiting release. With one push and at
// most one pop per produced chunk its length stays at K or K+1 once warmed up,
// so pushes beyond K+1 are rejected.
type HoldbackQueue struct {
	items []Chunk
	depth int
}

// NewHoldbackQueue creates a queue that releases after depth newer chunks
func NewHoldbackQueue(depth int) *HoldbackQueue {
	if depth < 1 {
		depth = 1
	}
	return &HoldbackQueue{
		items: make([]Chunk, 0, depth+1),
		depth: depth,
	}
}

// Push appends a chunk to the back of the queue
func (q *HoldbackQueue) Push(chunk Chunk) error {
	if len(q.items) > q.depth {
		return fmt.Errorf("%w: %d chunks pending with depth %d", ErrHoldbackOverflow, len(q.items), q.depth)
	}
	q.items = append(q.items, chunk)
	return nil
}

// Ready reports whether the oldest chunk has K newer chunks behind it
func (q *HoldbackQueue) Ready() bool {
	return len(q.items) > q.depth
}

// Peek returns the oldest chunk without removing it
func (q *HoldbackQueue) Peek() (Chunk, bool) {
	if len(q.items) == 0 {
		return Chunk{}, false
	}
	return q.items[0], true
}

// Pop removes and returns the oldest chunk
func (q *HoldbackQueue) Pop() (Chunk, bool) {
	if len(q.items) == 0 {
		return Chunk{}, false
	}
	item := q.items[0]
	n := copy(q.items, q.items[1:])
	q.items[n] = Chunk{}
	q.items = q.items[:n]
	return item, true
}

// Len returns the number of chunks awaiting release
func (q *HoldbackQueue) Len() int {
	return len(q.items)
}

// Depth returns K
func (q *HoldbackQueue) Depth() int {
	return q.depth
}
