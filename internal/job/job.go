// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConcat - 无损媒体拼接工具

package job

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ZSC714725/mediaconcat/internal/concat"
	"github.com/ZSC714725/mediaconcat/internal/ffmpeg/parse"
	"github.com/ZSC714725/mediaconcat/internal/history"
	"github.com/ZSC714725/mediaconcat/internal/logger"
	"github.com/ZSC714725/mediaconcat/internal/process"
)

// Progress is the last progress reported by a job
type Progress struct {
	Index   int     `json:"index"`
	Total   int     `json:"total"`
	Name    string  `json:"name"`
	Overall float64 `json:"overall"`
	Segment float64 `json:"segment"`
	Percent string  `json:"percent"`
	parse.Stats
}

// Snapshot is a consistent copy of a job's state
type Snapshot struct {
	ID        string
	Reference string
	Inputs    []string
	State     concat.State
	Paused    bool
	Order     Command
	Output    string
	Error     string
	ErrorKind string
	Progress  Progress
	Process   *process.Status
	CreatedAt int64
	UpdatedAt int64
}

// Job is a concat job
type Job struct {
	ID        string
	Reference string
	Config    *Config
	CreatedAt int64

	orch     *concat.Orchestrator
	log      *parse.Log
	events   *broadcaster
	recorder Recorder
	logger   logger.Logger
	done     chan struct{}
	// cancel ends the job even before the orchestrator took it
	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.RWMutex
	state     concat.State
	order     Command
	updatedAt int64
	progress  Progress
	output    string
	err       error
}

// Done is closed once the job finished
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the job finished and returns its output.
func (j *Job) Wait() (string, error) {
	<-j.done
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.output, j.err
}

// Snapshot returns the current state of the job
func (j *Job) Snapshot() Snapshot {
	j.mu.RLock()
	s := Snapshot{
		ID:        j.ID,
		Reference: j.Reference,
		Inputs:    append([]string(nil), j.Config.Inputs...),
		State:     j.state,
		Order:     j.order,
		Output:    j.output,
		Progress:  j.progress,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.updatedAt,
	}
	err := j.err
	j.mu.RUnlock()

	if err != nil {
		s.Error = errorMessage(err)
		s.ErrorKind = errorKind(err)
	}
	if cj := j.orch.Job(); cj != nil {
		s.Paused = cj.Paused()
	}
	if status, ok := j.orch.ProcessStatus(); ok && status.State != process.StateExited {
		s.Process = &status
	}
	return s
}

// Report returns the recent ffmpeg output of the job, oldest first.
func (j *Job) Report() []process.Line {
	return j.log.Lines()
}

// Subscribe returns a channel of the job's events and a function ending the
// subscription. The channel is closed when the job finished.
func (j *Job) Subscribe() (<-chan Event, func()) {
	return j.events.subscribe()
}

// IsRunning reports whether the job has not finished yet
func (j *Job) IsRunning() bool {
	select {
	case <-j.done:
		return false
	default:
		return true
	}
}

func (j *Job) command(c Command) error {
	var err error
	switch c {
	case CommandPause:
		err = j.orch.Pause()
	case CommandResume:
		err = j.orch.Resume()
	case CommandCancel:
		err = j.stop()
	default:
		return ErrUnknownCommand
	}
	if err != nil {
		return err
	}

	j.mu.Lock()
	j.order = c
	j.updatedAt = time.Now().Unix()
	j.mu.Unlock()
	j.logger.Info("%s", c)
	return nil
}

// stop cancels the job and waits until it finished.
func (j *Job) stop() error {
	j.cancel()
	err := j.orch.Cancel()
	<-j.done
	return err
}

func (j *Job) run() {
	defer close(j.done)
	defer j.events.close()
	defer j.cancel()

	started := time.Now()
	output, err := j.orch.Concat(j.ctx, j.Config.Inputs, &sink{job: j})

	j.mu.Lock()
	j.output = output
	j.err = err
	j.updatedAt = time.Now().Unix()
	// rejected before the orchestrator took the job
	if !j.state.IsFinal() {
		j.state = concat.StateFailed
	}
	state := j.state
	j.mu.Unlock()

	if err != nil {
		j.logger.Info("finished %s: %v", state, err)
	} else {
		j.logger.Info("finished %s: %s", state, output)
	}

	if j.recorder == nil {
		return
	}
	entry := history.Entry{
		ID:         j.ID,
		Inputs:     j.Config.Inputs,
		Output:     output,
		State:      string(state),
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	if err != nil {
		entry.Error = errorMessage(err)
	}
	if rerr := j.recorder.Record(context.Background(), entry); rerr != nil {
		j.logger.Error("record history: %v", rerr)
	}
}

func (j *Job) publish(e Event) {
	e.JobID = j.ID
	e.Time = time.Now()
	j.events.publish(e)
}

func errorMessage(err error) string {
	var cerr *concat.Error
	if errors.As(err, &cerr) {
		return cerr.Message
	}
	return err.Error()
}

func errorKind(err error) string {
	if kind := concat.KindOf(err); kind != 0 {
		return kind.String()
	}
	if errors.Is(err, concat.ErrCancelled) {
		return "cancelled"
	}
	return ""
}

// sink records the reports of the orchestrator and forwards them as events
type sink struct {
	job *Job
}

func (s *sink) OnFileProgress(index, total int, name string) {
	j := s.job
	j.mu.Lock()
	j.progress.Index = index
	j.progress.Total = total
	j.progress.Name = name
	p := j.progress
	j.mu.Unlock()

	j.publish(Event{Type: EventFile, Progress: &p})
}

func (s *sink) OnValueProgress(overall, segment float64, percent string) {
	j := s.job
	j.mu.Lock()
	j.progress.Overall = overall
	j.progress.Segment = segment
	j.progress.Percent = percent
	p := j.progress
	j.mu.Unlock()

	j.publish(Event{Type: EventValue, Progress: &p})
}

func (s *sink) OnOutput(path string) {
	j := s.job
	j.mu.Lock()
	j.output = path
	j.mu.Unlock()

	j.publish(Event{Type: EventOutput, Path: path})
}

func (s *sink) OnComplete(path string) {
	s.job.publish(Event{Type: EventComplete, Path: path})
}

func (s *sink) OnError(err *concat.Error) {
	s.job.publish(Event{Type: EventError, Kind: err.Kind.String(), Message: err.Message})
}

func (s *sink) OnState(from, to concat.State) {
	j := s.job
	j.mu.Lock()
	j.state = to
	j.updatedAt = time.Now().Unix()
	j.mu.Unlock()

	j.logger.Debug("state %s -> %s", from, to)
	j.publish(Event{Type: EventState, State: string(to)})
}

func (s *sink) OnDiagnostic(phase parse.Phase, line string) {
	j := s.job
	j.log.Append(line)
	if phase != parse.PhaseMerge {
		return
	}
	if stats, ok := parse.ParseStats(line); ok {
		j.mu.Lock()
		j.progress.Stats = stats
		j.mu.Unlock()
	}
}
