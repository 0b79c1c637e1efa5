// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConcat - 无损媒体拼接工具
//
// Package process starts an external tool, streams its diagnostic output
// line by line and controls the live process (kill, suspend, resume).

package process

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"
)

// ErrNoBinary is returned by Start when no executable is given.
var ErrNoBinary = errors.New("no valid binary given")

// Controller is the OS level control capability over a live process.
// Suspend and Resume act on every thread the process owns.
type Controller interface {
	Kill(pid int32) error
	Suspend(pid int32) error
	Resume(pid int32) error
}

// Logger interface
type Logger interface {
	Info(format string, args ...interface{})
	Error(format string, args ...interface{})
	Debug(format string, args ...interface{})
}

// Config for a Runner
type Config struct {
	// Controller defaults to the platform backend (NewController).
	Controller Controller
	// Env of the started processes. Nil inherits the current environment.
	Env []string
	// Dir is the working directory of the started processes.
	Dir string
	// NewSampler creates the resource sampler attached to each process.
	NewSampler func() Sampler
	Logger     Logger
}

// Runner starts processes and tracks the most recently started one.
type Runner struct {
	ctl        Controller
	env        []string
	dir        string
	newSampler func() Sampler
	logger     Logger

	current *Handle
	lock    sync.Mutex
}

// NewRunner creates a runner
func NewRunner(config Config) *Runner {
	r := &Runner{
		ctl:        config.Controller,
		env:        config.Env,
		dir:        config.Dir,
		newSampler: config.NewSampler,
		logger:     config.Logger,
	}
	if r.ctl == nil {
		r.ctl = NewController()
	}
	if r.newSampler == nil {
		r.newSampler = NewSysSampler
	}
	if r.logger == nil {
		r.logger = &nopLogger{}
	}
	return r
}

// Start launches binary with args. Stdout and stderr are merged into a single
// line stream available through Handle.Lines. The new handle replaces the
// previously tracked one.
func (r *Runner) Start(binary string, args []string) (*Handle, error) {
	if len(binary) == 0 {
		return nil, ErrNoBinary
	}

	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("create output pipe: %w", err)
	}

	cmd := exec.Command(binary, args...)
	cmd.Env = r.env
	cmd.Dir = r.dir
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pr.Close()
		pw.Close()
		return nil, fmt.Errorf("start %s: %w", binary, err)
	}
	// the child holds its own copy of the write end
	pw.Close()

	h := newHandle(cmd, r.ctl, r.newSampler(), r.logger)
	r.logger.Debug("started %s (pid %d)", binary, h.pid)

	go h.reader(pr)
	go h.waiter(pr)

	r.lock.Lock()
	r.current = h
	r.lock.Unlock()

	return h, nil
}

// Current returns the most recently started handle, or nil.
func (r *Runner) Current() *Handle {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.current
}

// readerGrace bounds how long the waiter keeps the pipe open for a reader
// after the process exited. Grandchildren inheriting the pipe would block it.
const readerGrace = 2 * time.Second

type nopLogger struct{}

func (l *nopLogger) Info(format string, args ...interface{})  {}
func (l *nopLogger) Error(format string, args ...interface{}) {}
func (l *nopLogger) Debug(format string, args ...interface{}) {}
