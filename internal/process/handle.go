// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConcat - 无损媒体拼接工具

package process

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"os/exec"
	"sync"
	"syscall"
	"time"
	"unicode/utf8"
)

// Line is a timestamped log line
type Line struct {
	Timestamp time.Time
	Data      string
}

// State of a process handle
type State string

const (
	StateRunning   State = "running"
	StateSuspended State = "suspended"
	StateExited    State = "exited"
)

// Status of a process handle
type Status struct {
	State    State
	Pid      int32
	Killed   bool
	ExitCode int
	Duration time.Duration
	Time     time.Time
	LastLine string
	Usage    Usage
}

// Handle is a live (or finished) process started by a Runner.
type Handle struct {
	cmd     *exec.Cmd
	pid     int32
	ctl     Controller
	sampler Sampler
	logger  Logger

	lines       chan string
	abandon     chan struct{}
	abandonOnce sync.Once
	readerDone  chan struct{}
	done        chan struct{}

	state struct {
		state    State
		time     time.Time
		killed   bool
		exitCode int
		exitErr  error
		lastLine string
		lock     sync.Mutex
	}
}

func newHandle(cmd *exec.Cmd, ctl Controller, sampler Sampler, logger Logger) *Handle {
	h := &Handle{
		cmd:        cmd,
		pid:        int32(cmd.Process.Pid),
		ctl:        ctl,
		sampler:    sampler,
		logger:     logger,
		lines:      make(chan string),
		abandon:    make(chan struct{}),
		readerDone: make(chan struct{}),
		done:       make(chan struct{}),
	}
	h.state.state = StateRunning
	h.state.time = time.Now()
	h.state.exitCode = -1
	if err := h.sampler.Start(h.pid); err != nil {
		logger.Debug("sampler for pid %d: %v", h.pid, err)
	}
	return h
}

// Pid of the process
func (h *Handle) Pid() int32 {
	return h.pid
}

// Lines returns the process output as a finite sequence. It ends when the
// process closed its output. The sequence can be consumed once; breaking out
// of the loop discards the remaining output.
func (h *Handle) Lines() iter.Seq[string] {
	return func(yield func(string) bool) {
		defer h.discard()
		for line := range h.lines {
			if !yield(line) {
				return
			}
		}
	}
}

// Done is closed once the process exited and its output was drained.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the process exited. Output not consumed through Lines by
// then is discarded. The returned error is the exit error, nil on success.
func (h *Handle) Wait() error {
	h.discard()
	<-h.done
	h.state.lock.Lock()
	defer h.state.lock.Unlock()
	return h.state.exitErr
}

// Kill terminates the process tree. No-op if the process already exited.
func (h *Handle) Kill() error {
	if h.Exited() {
		return nil
	}
	if err := h.ctl.Kill(h.pid); err != nil {
		if h.Exited() {
			return nil
		}
		return fmt.Errorf("kill pid %d: %w", h.pid, err)
	}
	h.state.lock.Lock()
	h.state.killed = true
	h.state.lock.Unlock()
	return nil
}

// Suspend freezes every thread of the process. No-op unless running.
func (h *Handle) Suspend() error {
	if h.getState() != StateRunning {
		return nil
	}
	if err := h.ctl.Suspend(h.pid); err != nil {
		if h.Exited() {
			return nil
		}
		return fmt.Errorf("suspend pid %d: %w", h.pid, err)
	}
	return h.setState(StateSuspended)
}

// Resume thaws every thread of the process until none is left suspended.
// No-op if the process exited.
func (h *Handle) Resume() error {
	if h.Exited() {
		return nil
	}
	if err := h.ctl.Resume(h.pid); err != nil {
		if h.Exited() {
			return nil
		}
		return fmt.Errorf("resume pid %d: %w", h.pid, err)
	}
	if h.getState() == StateSuspended {
		return h.setState(StateRunning)
	}
	return nil
}

// Exited reports whether the process terminated.
func (h *Handle) Exited() bool {
	return h.getState() == StateExited
}

// Suspended reports whether the process is frozen by Suspend.
func (h *Handle) Suspended() bool {
	return h.getState() == StateSuspended
}

// Status returns a snapshot of the handle
func (h *Handle) Status() Status {
	h.state.lock.Lock()
	s := Status{
		State:    h.state.state,
		Pid:      h.pid,
		Killed:   h.state.killed,
		ExitCode: h.state.exitCode,
		Duration: time.Since(h.state.time),
		Time:     h.state.time,
		LastLine: h.state.lastLine,
	}
	h.state.lock.Unlock()

	if s.State != StateExited {
		s.Usage = h.sampler.Current()
	}
	return s
}

// LastLine returns the most recent output line.
func (h *Handle) LastLine() string {
	h.state.lock.Lock()
	defer h.state.lock.Unlock()
	return h.state.lastLine
}

func (h *Handle) getState() State {
	h.state.lock.Lock()
	defer h.state.lock.Unlock()
	return h.state.state
}

func (h *Handle) setState(state State) error {
	h.state.lock.Lock()
	defer h.state.lock.Unlock()

	from := h.state.state
	failed := false

	switch from {
	case StateRunning:
		failed = state != StateSuspended && state != StateExited
	case StateSuspended:
		failed = state != StateRunning && state != StateExited
	case StateExited:
		// an exit races with suspend/resume, keep exited
		return nil
	default:
		return fmt.Errorf("unhandled state: %s", from)
	}

	if failed {
		return fmt.Errorf("can't change from %s to %s", from, state)
	}

	h.state.state = state
	h.state.time = time.Now()
	return nil
}

func (h *Handle) discard() {
	h.abandonOnce.Do(func() { close(h.abandon) })
}

func (h *Handle) reader(r io.ReadCloser) {
	defer close(h.readerDone)
	defer close(h.lines)
	defer r.Close()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	scanner.Split(scanLine)

	for scanner.Scan() {
		line := scanner.Text()

		h.state.lock.Lock()
		h.state.lastLine = line
		h.state.lock.Unlock()

		select {
		case h.lines <- line:
		case <-h.abandon:
		}
	}
}

func (h *Handle) waiter(r io.Closer) {
	err := h.cmd.Wait()

	select {
	case <-h.readerDone:
	case <-time.After(readerGrace):
		r.Close()
		<-h.readerDone
	}

	h.sampler.Stop()

	exitCode := -1
	if h.cmd.ProcessState != nil {
		exitCode = h.cmd.ProcessState.ExitCode()
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
			h.logger.Debug("pid %d terminated by signal %v", h.pid, status.Signal())
		}
	}

	h.state.lock.Lock()
	h.state.state = StateExited
	h.state.time = time.Now()
	h.state.exitCode = exitCode
	h.state.exitErr = err
	h.state.lock.Unlock()

	h.logger.Debug("pid %d exited with code %d", h.pid, exitCode)
	close(h.done)
}

// scanLine splits on both \n and \r: progress lines are terminated by \r
// only, so the terminal cursor returns to the start of the line.
func scanLine(data []byte, atEOF bool) (advance int, token []byte, err error) {
	start := 0
	for start < len(data) {
		r, w := utf8.DecodeRune(data[start:])
		if r != '\n' && r != '\r' {
			break
		}
		start += w
	}

	for i := start; i < len(data); {
		r, w := utf8.DecodeRune(data[i:])
		if r == '\n' || r == '\r' {
			return i + w, data[start:i], nil
		}
		i += w
	}

	if atEOF && len(data) > start {
		return len(data), data[start:], nil
	}
	return start, nil, nil
}
