// Package redact computes which part of a released chunk to mask and
// synthesises the masking tone.
package redact

import (
	"math"
	"sort"
)

// Region is a half-open [T0, T1) interval in seconds
type Region struct {
	T0 float64 `json:"t0"`
	T1 float64 `json:"t1"`
}

// Duration returns the length of the region in seconds
func (r Region) Duration() float64 {
	return r.T1 - r.T0
}

// Localize intersects window-relative regions with the release slot
// [slotStart, slotEnd) and translates the positive-length intersections into
// slot-local seconds
func Localize(regions []Region, slotStart, slotEnd float64) []Region {
	var out []Region
	for _, r := range regions {
		t0 := math.Max(r.T0, slotStart)
		t1 := math.Min(r.T1, slotEnd)
		if t1 > t0 {
			out = append(out, Region{T0: t0 - slotStart, T1: t1 - slotStart})
		}
	}
	return out
}

// Merge sorts regions by start and combines any region that begins no later
// than gap seconds after the previous one ends. The input is not modified.
func Merge(regions []Region, gap float64) []Region {
	if len(regions) == 0 {
		return nil
	}

	sorted := make([]Region, len(regions))
	copy(sorted, regions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].T0 < sorted[j].T0
	})

	out := []Region{sorted[0]}
	for _, r := range sorted[1:] {
		last := &out[len(out)-1]
		if r.T0 <= last.T1+gap {
			if r.T1 > last.T1 {
				last.T1 = r.T1
			}
			continue
		}
		out = append(out, r)
	}
	return out
}

// Collapse reduces regions to the single span from the earliest start to the
// latest end, so a chunk is masked by at most one contiguous tone
func Collapse(regions []Region) []Region {
	if len(regions) == 0 {
		return nil
	}
	span := regions[0]
	for _, r := range regions[1:] {
		span.T0 = math.Min(span.T0, r.T0)
		span.T1 = math.Max(span.T1, r.T1)
	}
	return []Region{span}
}
