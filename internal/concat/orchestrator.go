// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConcat - 无损媒体拼接工具
//
// Package concat joins media files without re-encoding. A job first probes
// every input for its duration, then writes a concat manifest and stream
// copies the inputs into a single output while reporting progress.

package concat

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/ZSC714725/mediaconcat/internal/ffmpeg"
	"github.com/ZSC714725/mediaconcat/internal/ffmpeg/parse"
	"github.com/ZSC714725/mediaconcat/internal/logger"
	"github.com/ZSC714725/mediaconcat/internal/process"
)

// Config for an Orchestrator
type Config struct {
	// Binary is the ffmpeg executable.
	Binary string
	// Runner starts the ffmpeg processes. Defaults to a runner inheriting
	// the environment.
	Runner *process.Runner
	// LockDir holds the output lock files. Defaults to os.TempDir().
	LockDir string
	Logger  logger.Logger
}

// Orchestrator runs one concat job at a time.
type Orchestrator struct {
	binary  string
	runner  *process.Runner
	lockDir string
	logger  logger.Logger

	lock   sync.Mutex
	job    *Job
	handle *process.Handle
}

// New creates an orchestrator
func New(config Config) (*Orchestrator, error) {
	if len(config.Binary) == 0 {
		return nil, process.ErrNoBinary
	}

	o := &Orchestrator{
		binary:  config.Binary,
		runner:  config.Runner,
		lockDir: config.LockDir,
		logger:  config.Logger,
	}
	if o.logger == nil {
		o.logger = logger.Nop()
	}
	if o.runner == nil {
		o.runner = process.NewRunner(process.Config{Logger: o.logger})
	}
	if o.lockDir == "" {
		o.lockDir = os.TempDir()
	}
	return o, nil
}

// Job returns the running or most recent job, nil before the first Concat.
func (o *Orchestrator) Job() *Job {
	o.lock.Lock()
	defer o.lock.Unlock()
	return o.job
}

// ProcessStatus returns the status of the active ffmpeg process.
func (o *Orchestrator) ProcessStatus() (process.Status, bool) {
	o.lock.Lock()
	h := o.handle
	o.lock.Unlock()
	if h == nil {
		return process.Status{}, false
	}
	return h.Status(), true
}

// Concat merges paths, in lexical order, into one file next to the first of
// them and returns its path. Cancelling ctx is the same as calling Cancel.
func (o *Orchestrator) Concat(ctx context.Context, paths []string, sink ProgressSink) (string, error) {
	if len(paths) < 2 {
		return "", ErrTooFewSegments
	}
	if sink == nil {
		sink = SinkFuncs{}
	}

	job := newJob(paths)

	o.lock.Lock()
	if o.job != nil && !o.job.State().IsFinal() {
		o.lock.Unlock()
		return "", ErrBusy
	}
	o.job = job
	o.handle = nil
	o.lock.Unlock()

	defer close(job.done)
	stop := context.AfterFunc(ctx, func() {
		if err := o.cancelJob(job); err != nil {
			o.logger.Error("cancel: %v", err)
		}
	})
	defer stop()
	if ctx.Err() != nil {
		job.cancel()
	}

	o.logger.Info("concat %d files, first %s", len(job.Segments), job.Segments[0].Path)
	output, err := o.run(job, sink)

	o.lock.Lock()
	o.handle = nil
	o.lock.Unlock()

	return output, err
}

func (o *Orchestrator) run(job *Job, sink ProgressSink) (string, error) {
	o.setState(job, sink, StateProbing)

	durations, err := o.probe(job, sink)
	if err != nil {
		return "", o.abort(job, sink, err)
	}
	if job.cancelled() {
		return "", o.abort(job, sink, ErrCancelled)
	}
	if len(durations) < 2 {
		o.logger.Error("probe resolved %d of %d durations", len(durations), len(job.Segments))
		return "", o.abort(job, sink, o.report(sink, newError(KindProbeFailure, NoValidFilesMessage, nil)))
	}
	job.setDurations(durations)
	o.logger.Info("probed %d files, total duration %s", len(durations), job.Total)

	output, manifest := OutputPaths(job.Segments[0].Path)
	lock, err := acquireOutputLock(o.lockDir, output)
	if err != nil {
		return "", o.abort(job, sink, o.report(sink, newError(KindUnexpected, "Output file is in use: "+output, err)))
	}
	defer func() {
		if err := lock.release(); err != nil {
			o.logger.Error("release lock of %s: %v", output, err)
		}
	}()

	for _, path := range []string{output, manifest} {
		if err := removeIfExists(path); err != nil {
			return "", o.abort(job, sink, o.report(sink, newError(KindUnexpected, "Can't remove existing file "+path, err)))
		}
	}
	job.setArtifacts(output, manifest)
	o.logger.Info("output %s, manifest %s", output, manifest)
	sink.OnOutput(output)

	if err := writeManifest(manifest, job.Paths()); err != nil {
		return "", o.abort(job, sink, o.report(sink, newError(KindUnexpected, "Can't write the file list", err)))
	}

	// a pause between the phases holds the merge back
	if !job.waitUnpaused() {
		return "", o.abort(job, sink, ErrCancelled)
	}
	o.setState(job, sink, StateMerging)

	if err := o.merge(job, sink); err != nil {
		return "", o.abort(job, sink, err)
	}

	if err := removeIfExists(manifest); err != nil {
		o.logger.Error("remove manifest %s: %v", manifest, err)
	}
	o.setState(job, sink, StateCompleted)
	o.logger.Info("concat completed: %s", output)
	sink.OnComplete(output)
	return output, nil
}

func (o *Orchestrator) probe(job *Job, sink ProgressSink) ([]time.Duration, error) {
	h, err := o.start(job, ffmpeg.ProbeArgs(job.Paths()))
	if err != nil {
		return nil, err
	}

	var durations []time.Duration
	for line := range h.Lines() {
		if job.cancelled() {
			break
		}
		diagnose(sink, parse.PhaseProbe, line)
		if ev, ok := parse.Line(parse.PhaseProbe, line); ok && ev.Kind == parse.KindDuration {
			durations = append(durations, ev.Time)
		}
	}
	// ffmpeg exits non-zero without an output, the durations are all we need
	_ = h.Wait()

	if job.cancelled() {
		return nil, ErrCancelled
	}
	return durations, nil
}

func (o *Orchestrator) merge(job *Job, sink ProgressSink) error {
	h, err := o.start(job, ffmpeg.MergeArgs(job.Manifest, job.Output))
	if err != nil {
		return err
	}

	total := len(job.Segments)
	tr := newTracker(job.Segments, job.Total)
	sink.OnFileProgress(0, total, job.Segments[0].Name())
	sink.OnValueProgress(0, 0, PercentText(0))

	var failure *Error
	for line := range h.Lines() {
		if job.cancelled() {
			break
		}
		diagnose(sink, parse.PhaseMerge, line)

		ev, ok := parse.Line(parse.PhaseMerge, line)
		if !ok {
			continue
		}

		if ev.Kind.IsError() {
			if failure != nil {
				continue
			}
			failure = o.report(sink, newError(errorKind(ev.Kind), ev.Message, nil))
			switch ev.Kind {
			case parse.KindIncompatibleFiles:
				if err := h.Kill(); err != nil {
					o.logger.Error("kill: %v", err)
				}
			case parse.KindWriteFailure:
				// the output may become writable again, only Cancel ends the job
				job.hold()
				if err := h.Suspend(); err != nil {
					o.logger.Error("suspend: %v", err)
				}
			}
			continue
		}

		if ev.Kind != parse.KindFrameTime || failure != nil {
			continue
		}
		if !job.waitUnpaused() {
			break
		}
		advanced, snap := tr.observe(ev.Time)
		for _, index := range advanced {
			o.logger.Debug("segment %d/%d: %s", index+1, total, job.Segments[index].Name())
			sink.OnFileProgress(index, total, job.Segments[index].Name())
		}
		sink.OnValueProgress(snap.Overall, snap.Segment, snap.Percent)
	}
	exitErr := h.Wait()

	switch {
	case failure != nil:
		return failure
	case job.cancelled():
		return ErrCancelled
	case exitErr != nil:
		o.logger.Error("merge failed: %v", exitErr)
		return o.report(sink, newError(KindUnexpected, "Process failed.\nError message: "+h.LastLine(), exitErr))
	}

	snap := tr.final()
	sink.OnFileProgress(total, total, snap.Name)
	sink.OnValueProgress(snap.Overall, snap.Segment, snap.Percent)
	return nil
}

// start launches ffmpeg for job unless the job was cancelled already.
func (o *Orchestrator) start(job *Job, args []string) (*process.Handle, error) {
	o.lock.Lock()
	defer o.lock.Unlock()

	if job.cancelled() {
		return nil, ErrCancelled
	}

	h, err := o.runner.Start(o.binary, args)
	if err != nil {
		o.logger.Error("%v", err)
		return nil, newError(KindUnexpected, "Can't start ffmpeg", err)
	}
	o.handle = h

	// paused before the process existed
	if job.Paused() {
		if err := h.Suspend(); err != nil {
			o.logger.Error("suspend: %v", err)
		}
	}
	return h, nil
}

// abort ends job after err and removes what it created.
func (o *Orchestrator) abort(job *Job, sink ProgressSink, err error) error {
	if errors.Is(err, ErrCancelled) {
		o.setState(job, sink, StateCancelled)
		o.logger.Info("concat cancelled")
	} else {
		var cerr *Error
		if errors.As(err, &cerr) {
			o.report(sink, cerr)
		}
		o.setState(job, sink, StateFailed)
	}

	if rerr := job.removeArtifacts(); rerr != nil {
		o.logger.Error("cleanup: %v", rerr)
	}
	return err
}

// Pause freezes the active ffmpeg process. A pause before the merge process
// exists is applied when it starts. No-op without an active job.
func (o *Orchestrator) Pause() error {
	o.lock.Lock()
	defer o.lock.Unlock()

	job, h := o.job, o.handle
	if job == nil || job.Paused() || !job.setPaused(true) {
		return nil
	}
	if h != nil {
		if err := h.Suspend(); err != nil {
			job.setPaused(false)
			return err
		}
	}
	o.logger.Info("paused")
	return nil
}

// Resume continues a paused job. It never thaws a process frozen by a write
// failure. No-op unless paused.
func (o *Orchestrator) Resume() error {
	o.lock.Lock()
	defer o.lock.Unlock()

	job, h := o.job, o.handle
	if job == nil || !job.Paused() {
		return nil
	}
	if h != nil && !job.Held() {
		if err := h.Resume(); err != nil {
			return err
		}
	}
	job.setPaused(false)
	o.logger.Info("resumed")
	return nil
}

// Cancel stops the running job and removes its output and manifest. It
// returns once Concat returned. No-op if no job is running.
func (o *Orchestrator) Cancel() error {
	job := o.Job()
	if job == nil {
		return nil
	}
	return o.cancelJob(job)
}

func (o *Orchestrator) cancelJob(job *Job) error {
	if job.State().IsFinal() {
		return nil
	}
	job.cancel()

	o.lock.Lock()
	var h *process.Handle
	if o.job == job {
		h = o.handle
	}
	o.lock.Unlock()

	var errs []error
	if h != nil {
		if err := h.Kill(); err != nil {
			errs = append(errs, err)
		}
	}
	<-job.done

	if job.State() != StateCompleted {
		if err := job.removeArtifacts(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("cancel: %w", err)
	}
	return nil
}

func (o *Orchestrator) setState(job *Job, sink ProgressSink, to State) {
	from, err := job.transition(to)
	if err != nil {
		o.logger.Debug("%v", err)
		return
	}
	if obs, ok := sink.(StateObserver); ok {
		obs.OnState(from, to)
	}
}

// report hands err to the sink once
func (o *Orchestrator) report(sink ProgressSink, err *Error) *Error {
	if !err.reported {
		o.logger.Error("%s", err.Message)
		err.reported = true
		sink.OnError(err)
	}
	return err
}

func diagnose(sink ProgressSink, phase parse.Phase, line string) {
	if obs, ok := sink.(DiagnosticObserver); ok {
		obs.OnDiagnostic(phase, line)
	}
}

func errorKind(kind parse.Kind) ErrorKind {
	switch kind {
	case parse.KindPathTooLong:
		return KindPathTooLong
	case parse.KindIncompatibleFiles:
		return KindIncompatibleFiles
	case parse.KindWriteFailure:
		return KindWriteFailure
	}
	return KindUnexpected
}
