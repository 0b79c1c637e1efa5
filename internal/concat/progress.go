// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConcat - 无损媒体拼接工具

package concat

import (
	"math"
	"strconv"
	"time"
)

// Snapshot is one value-progress report
type Snapshot struct {
	// Overall fraction of the merge, in [0,1]
	Overall float64
	// Segment fraction of the current segment, in [0,1]
	Segment float64
	Index   int
	Name    string
	Percent string
}

// tracker turns merge timestamps into progress. The last segment spans
// whatever remains of the total so rounding drift between probed durations
// and the merged timeline ends up there.
type tracker struct {
	segments []Segment
	total    time.Duration

	current int
	// elapsed is the cumulative duration of segments 0..current
	elapsed time.Duration
	overall float64
}

func newTracker(segments []Segment, total time.Duration) *tracker {
	t := &tracker{segments: segments, total: total}
	if len(segments) > 0 {
		t.elapsed = segments[0].Duration
	}
	return t
}

// observe moves the tracker to timestamp at. It returns the indexes of the
// segments entered on the way, in order.
func (t *tracker) observe(at time.Duration) ([]int, Snapshot) {
	var advanced []int
	last := len(t.segments) - 1
	for at > t.elapsed && t.current < last {
		t.current++
		t.elapsed += t.segments[t.current].Duration
		advanced = append(advanced, t.current)
	}

	overall := 0.0
	if t.total > 0 {
		overall = clamp(float64(at) / float64(t.total))
	}
	if overall < t.overall {
		overall = t.overall
	}
	t.overall = overall

	before := t.elapsed - t.segments[t.current].Duration
	effective := t.segments[t.current].Duration
	if t.current == last {
		effective = t.total - before
	}

	segment := 1.0
	if effective > 0 {
		segment = clamp(float64(at-before) / float64(effective))
	}

	return advanced, Snapshot{
		Overall: overall,
		Segment: segment,
		Index:   t.current,
		Name:    t.segments[t.current].Name(),
		Percent: PercentText(segment),
	}
}

// final is the report of a finished merge
func (t *tracker) final() Snapshot {
	last := len(t.segments) - 1
	t.current = last
	t.overall = 1
	return Snapshot{
		Overall: 1,
		Segment: 1,
		Index:   last,
		Name:    t.segments[last].Name(),
		Percent: PercentText(1),
	}
}

// PercentText renders fraction as a percentage rounded to two decimals,
// e.g. "45.5 %" or "100 %".
func PercentText(fraction float64) string {
	v := math.Round(fraction*100*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " %"
}

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
