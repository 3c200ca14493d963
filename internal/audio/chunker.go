package audio

import (
	"time"
)

// Chunk is a run of whole frames whose durations reach the configured chunk
// duration. Duration is the exact drained duration and may exceed the nominal
// chunk duration by less than one frame.
type Chunk struct {
	PCM      []byte
	Duration time.Duration
}

// Samples returns the number of samples in the chunk
func (c Chunk) Samples() int {
	return len(c.PCM) / BytesPerSample
}

// Chunker accumulates frames and yields fixed-duration chunks.
// Frames are never split; leftover duration carries into the next chunk.
type Chunker struct {
	target      time.Duration
	frames      []Frame
	accumulated time.Duration
}

// NewChunker creates a chunker for the given nominal chunk duration
func NewChunker(chunkDuration time.Duration) *Chunker {
	return &Chunker{
		target: chunkDuration,
	}
}

// Push appends a frame and accumulates its duration
func (c *Chunker) Push(frame Frame) {
	c.frames = append(c.frames, frame)
	c.accumulated += frame.Duration
}

// PopChunkIfReady drains whole frames from the front once at least one chunk
// duration has accumulated. It returns false when not enough audio is buffered.
func (c *Chunker) PopChunkIfReady() (Chunk, bool) {
	if c.accumulated < c.target {
		return Chunk{}, false
	}

	var drained time.Duration
	size := 0
	n := 0
	for n < len(c.frames) && drained < c.target {
		drained += c.frames[n].Duration
		size += len(c.frames[n].PCM)
		n++
	}

	pcm := make([]byte, 0, size)
	for _, f := range c.frames[:n] {
		pcm = append(pcm, f.PCM...)
	}

	// Drop references to drained frames so their buffers can be collected
	remaining := copy(c.frames, c.frames[n:])
	for i := remaining; i < len(c.frames); i++ {
		c.frames[i] = Frame{}
	}
	c.frames = c.frames[:remaining]
	c.accumulated -= drained

	return Chunk{PCM: pcm, Duration: drained}, true
}

// Buffered returns the duration of audio not yet emitted as a chunk
func (c *Chunker) Buffered() time.Duration {
	return c.accumulated
}
