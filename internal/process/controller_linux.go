// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConcat - 无损媒体拼接工具

//go:build linux

package process

import (
	"errors"
	"fmt"
	"time"

	gopsutilprocess "github.com/shirou/gopsutil/v3/process"
	"golang.org/x/sys/unix"
)

// threadController stops and continues each task of /proc/<pid>/task
// individually with tgkill.
type threadController struct{}

func newPlatformController() Controller {
	return threadController{}
}

func (threadController) Kill(pid int32) error {
	return killTree(pid)
}

func (threadController) Suspend(pid int32) error {
	return signalThreads(pid, unix.SIGSTOP)
}

func (threadController) Resume(pid int32) error {
	for attempt := 0; attempt < maxResumeAttempts; attempt++ {
		if err := signalThreads(pid, unix.SIGCONT); err != nil {
			return err
		}
		stopped, err := isStopped(pid)
		if err != nil || !stopped {
			return err
		}
		time.Sleep(time.Millisecond)
	}
	return ErrStillSuspended
}

func signalThreads(pid int32, sig unix.Signal) error {
	proc, err := gopsutilprocess.NewProcess(pid)
	if err != nil {
		return err
	}

	threads, err := proc.Threads()
	if err != nil || len(threads) == 0 {
		return unix.Kill(int(pid), sig)
	}

	for tid := range threads {
		if err := unix.Tgkill(int(pid), int(tid), sig); err != nil {
			if errors.Is(err, unix.ESRCH) {
				// thread exited meanwhile
				continue
			}
			return fmt.Errorf("signal thread %d: %w", tid, err)
		}
	}
	return nil
}

func isStopped(pid int32) (bool, error) {
	proc, err := gopsutilprocess.NewProcess(pid)
	if err != nil {
		if errors.Is(err, gopsutilprocess.ErrorProcessNotRunning) {
			return false, nil
		}
		return false, err
	}
	status, err := proc.Status()
	if err != nil {
		return false, nil
	}
	for _, s := range status {
		if s == gopsutilprocess.Stop {
			return true, nil
		}
	}
	return false, nil
}
