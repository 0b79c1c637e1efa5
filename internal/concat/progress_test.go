// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConcat - 无损媒体拼接工具

package concat

import (
	"math"
	"reflect"
	"testing"
	"time"
)

func segments(durations ...time.Duration) []Segment {
	out := make([]Segment, len(durations))
	for i, d := range durations {
		out[i] = Segment{Path: "/in/" + string(rune('a'+i)) + ".mkv", Index: i, Duration: d, Probed: true}
	}
	return out
}

func almost(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestTrackerObserve(t *testing.T) {
	s := time.Second
	// 61s total: the last segment absorbs the extra second
	tr := newTracker(segments(10*s, 20*s, 30*s), 61*s)

	advanced, snap := tr.observe(5 * s)
	if len(advanced) != 0 || snap.Index != 0 || !almost(snap.Segment, 0.5) || snap.Percent != "50 %" {
		t.Fatalf("at 5s: %v %+v", advanced, snap)
	}
	if !almost(snap.Overall, 5.0/61) {
		t.Fatalf("overall = %v", snap.Overall)
	}

	// exactly at the boundary stays in the segment
	if advanced, _ := tr.observe(10 * s); len(advanced) != 0 {
		t.Fatalf("advanced at boundary: %v", advanced)
	}

	advanced, snap = tr.observe(15 * s)
	if !reflect.DeepEqual(advanced, []int{1}) || snap.Name != "b.mkv" || snap.Percent != "25 %" {
		t.Fatalf("at 15s: %v %+v", advanced, snap)
	}

	advanced, snap = tr.observe(46 * s)
	if !reflect.DeepEqual(advanced, []int{2}) {
		t.Fatalf("at 46s: %v", advanced)
	}
	// (46-30)/(61-30)
	if !almost(snap.Segment, 16.0/31) {
		t.Fatalf("segment = %v", snap.Segment)
	}

	advanced, snap = tr.observe(70 * s)
	if len(advanced) != 0 || snap.Index != 2 || snap.Overall != 1 || snap.Segment != 1 {
		t.Fatalf("past the end: %v %+v", advanced, snap)
	}
}

func TestTrackerSkipsShortSegments(t *testing.T) {
	s := time.Second
	tr := newTracker(segments(10*s, 1*s, 1*s, 10*s), 22*s)

	advanced, snap := tr.observe(13 * s)
	if !reflect.DeepEqual(advanced, []int{1, 2, 3}) || snap.Index != 3 {
		t.Fatalf("advanced %v, index %d", advanced, snap.Index)
	}
}

func TestTrackerOverallNeverDecreases(t *testing.T) {
	s := time.Second
	tr := newTracker(segments(10*s, 10*s), 20*s)

	_, first := tr.observe(12 * s)
	_, second := tr.observe(8 * s)
	if second.Overall < first.Overall {
		t.Fatalf("overall went back from %v to %v", first.Overall, second.Overall)
	}

	final := tr.final()
	if final.Overall != 1 || final.Segment != 1 || final.Index != 1 || final.Percent != "100 %" {
		t.Fatalf("final = %+v", final)
	}
}

func TestPercentText(t *testing.T) {
	tests := map[float64]string{
		0:       "0 %",
		0.455:   "45.5 %",
		1.0 / 3: "33.33 %",
		1:       "100 %",
	}
	for in, want := range tests {
		if got := PercentText(in); got != want {
			t.Errorf("PercentText(%v) = %q, want %q", in, got, want)
		}
	}
}
