// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConcat - 无损媒体拼接工具

package concat

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// Segment is one input file of a job
type Segment struct {
	Path     string
	Index    int
	Duration time.Duration
	// Probed is false until a duration was discovered for the segment.
	Probed bool
}

// Name is the display name of the segment
func (s Segment) Name() string {
	return filepath.Base(s.Path)
}

// Job is the bookkeeping of one Concat call. Segments and Total are owned by
// the Concat goroutine; other goroutines read them through Probed.
type Job struct {
	Segments []Segment
	Total    time.Duration
	Output   string
	Manifest string

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	state  State
	paused bool
	// held is set once a write failure froze ffmpeg, only Cancel releases it
	held bool
	// resumed is closed when a pause ends
	resumed chan struct{}
}

func newJob(paths []string) *Job {
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	j := &Job{
		Segments: make([]Segment, len(sorted)),
		done:     make(chan struct{}),
		state:    StateIdle,
	}
	for i, p := range sorted {
		j.Segments[i] = Segment{Path: p, Index: i}
	}
	j.ctx, j.cancel = context.WithCancel(context.Background())
	return j
}

// Paths of the segments in concat order
func (j *Job) Paths() []string {
	out := make([]string, len(j.Segments))
	for i, s := range j.Segments {
		out[i] = s.Path
	}
	return out
}

// State of the job
func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// Paused reports the orthogonal pause flag.
func (j *Job) Paused() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.paused
}

// Held reports whether ffmpeg is frozen after a write failure.
func (j *Job) Held() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.held
}

func (j *Job) hold() {
	j.mu.Lock()
	j.held = true
	j.mu.Unlock()
}

// Probed returns a copy of the segments and the total duration. Durations
// are zero until probing finished.
func (j *Job) Probed() ([]Segment, time.Duration) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]Segment(nil), j.Segments...), j.Total
}

func (j *Job) transition(to State) (State, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	from := j.state
	if !from.CanTransition(to) {
		return from, transitionError(from, to)
	}
	j.state = to
	if !to.IsActive() && j.paused {
		j.paused = false
		close(j.resumed)
		j.resumed = nil
	}
	return from, nil
}

func (j *Job) setPaused(paused bool) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if paused && !j.state.IsActive() {
		return false
	}
	if paused == j.paused {
		return true
	}
	j.paused = paused
	if paused {
		j.resumed = make(chan struct{})
	} else if j.resumed != nil {
		close(j.resumed)
		j.resumed = nil
	}
	return true
}

// waitUnpaused blocks while the job is paused. It returns false if the job
// was cancelled meanwhile.
func (j *Job) waitUnpaused() bool {
	j.mu.Lock()
	resumed := j.resumed
	j.mu.Unlock()

	if resumed != nil {
		select {
		case <-resumed:
		case <-j.ctx.Done():
		}
	}
	return !j.cancelled()
}

func (j *Job) setArtifacts(output, manifest string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Output = output
	j.Manifest = manifest
}

func (j *Job) cancelled() bool {
	return j.ctx.Err() != nil
}

// setDurations attaches probed durations to segments in declaration order.
func (j *Job) setDurations(durations []time.Duration) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Total = 0
	for i := range j.Segments {
		if i >= len(durations) {
			break
		}
		j.Segments[i].Duration = durations[i]
		j.Segments[i].Probed = true
		j.Total += durations[i]
	}
}

// removeArtifacts deletes the output and manifest. Missing files are clean.
func (j *Job) removeArtifacts() error {
	j.mu.Lock()
	paths := []string{j.Output, j.Manifest}
	j.mu.Unlock()

	var errs []error
	for _, path := range paths {
		if err := removeIfExists(path); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func removeIfExists(path string) error {
	if path == "" {
		return nil
	}
	if err := os.RemoveAll(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
