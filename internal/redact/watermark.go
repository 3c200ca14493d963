package redact

import (
	"math"
	"time"
)

// sampleEpsilon absorbs float error when converting seconds to sample indices
const sampleEpsilon = 1e-6

// Tracker holds the per-session redact-until watermark: the absolute sample
// index up to which audio must stay masked. The watermark never decreases.
type Tracker struct {
	sampleRate  int
	mergeGap    float64
	tail        int64
	redactUntil int64
}

// NewTracker creates a watermark tracker. mergeGap is the tolerance for
// merging regions; tail is how long masking continues past the last detection.
func NewTracker(sampleRate int, mergeGap, tail time.Duration) *Tracker {
	return &Tracker{
		sampleRate: sampleRate,
		mergeGap:   mergeGap.Seconds(),
		tail:       int64(math.Round(tail.Seconds() * float64(sampleRate))),
	}
}

// Regions returns the regions to mask in the chunk starting at absolute sample
// chunkStart, given the chunk-local regions detected in it. It raises the
// watermark past any detection, adds the carry-in from earlier chunks and
// collapses the result to at most one region.
func (t *Tracker) Regions(chunkStart int64, chunkSamples int, detected []Region) []Region {
	merged := Merge(detected, t.mergeGap)

	if len(merged) > 0 {
		maxEnd := merged[0].T1
		for _, r := range merged[1:] {
			maxEnd = math.Max(maxEnd, r.T1)
		}
		end := chunkStart + sampleCeil(maxEnd, t.sampleRate) + t.tail
		if end > t.redactUntil {
			t.redactUntil = end
		}
	}

	if carry, ok := t.CarryIn(chunkStart, chunkSamples); ok {
		merged = append(merged, carry)
	}

	return Collapse(Merge(merged, t.mergeGap))
}

// CarryIn returns the region at the head of the chunk still covered by the
// watermark, if any
func (t *Tracker) CarryIn(chunkStart int64, chunkSamples int) (Region, bool) {
	if t.redactUntil <= chunkStart {
		return Region{}, false
	}
	covered := t.redactUntil - chunkStart
	if covered > int64(chunkSamples) {
		covered = int64(chunkSamples)
	}
	return Region{T0: 0, T1: float64(covered) / float64(t.sampleRate)}, true
}

// RedactUntil returns the current watermark in absolute samples
func (t *Tracker) RedactUntil() int64 {
	return t.redactUntil
}

func sampleFloor(seconds float64, sampleRate int) int64 {
	return int64(math.Floor(seconds*float64(sampleRate) + sampleEpsilon))
}

func sampleCeil(seconds float64, sampleRate int) int64 {
	return int64(math.Ceil(seconds*float64(sampleRate) - sampleEpsilon))
}
