package audio

import (
	"time"
)

// RingBuffer is the bounded transcription context: the most recent chunks whose
// durations sum to at most maxDuration. Slots are index-addressed; the backing
// array grows only when every slot is occupied.
// A RingBuffer is owned by a single session and is not safe for concurrent use.
type RingBuffer struct {
	slots       []Chunk
	read        int
	count       int
	total       time.Duration
	maxDuration time.Duration
}

// NewRingBuffer creates a ring buffer bounded by total duration
func NewRingBuffer(maxDuration time.Duration) *RingBuffer {
	return &RingBuffer{
		slots:       make([]Chunk, 8),
		maxDuration: maxDuration,
	}
}

// Push appends a chunk and evicts the oldest chunks until the held duration is
// within the bound again
func (rb *RingBuffer) Push(chunk Chunk) {
	if rb.count == len(rb.slots) {
		rb.grow()
	}

	write := (rb.read + rb.count) % len(rb.slots)
	rb.slots[write] = chunk
	rb.count++
	rb.total += chunk.Duration

	for rb.total > rb.maxDuration && rb.count > 0 {
		rb.total -= rb.slots[rb.read].Duration
		rb.slots[rb.read] = Chunk{}
		rb.read = (rb.read + 1) % len(rb.slots)
		rb.count--
	}
}

// grow doubles the slot array, unrolling the ring so read starts at zero
func (rb *RingBuffer) grow() {
	slots := make([]Chunk, len(rb.slots)*2)
	for i := 0; i < rb.count; i++ {
		slots[i] = rb.slots[(rb.read+i)%len(rb.slots)]
	}
	rb.slots = slots
	rb.read = 0
}

// Dump returns the concatenated PCM of all held chunks, oldest first
func (rb *RingBuffer) Dump() []byte {
	size := 0
	for i := 0; i < rb.count; i++ {
		size += len(rb.slots[(rb.read+i)%len(rb.slots)].PCM)
	}

	out := make([]byte, 0, size)
	for i := 0; i < rb.count; i++ {
		out = append(out, rb.slots[(rb.read+i)%len(rb.slots)].PCM...)
	}
	return out
}

// Duration returns the total duration currently held
func (rb *RingBuffer) Duration() time.Duration {
	return rb.total
}

// Len returns the number of chunks currently held
func (rb *RingBuffer) Len() int {
	return rb.count
}
