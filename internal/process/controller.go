// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConcat - 无损媒体拼接工具

package process

import (
	"errors"
	"fmt"

	gopsutilprocess "github.com/shirou/gopsutil/v3/process"
)

// ErrStillSuspended is returned when a process keeps a suspended thread after
// the resume attempts were exhausted.
var ErrStillSuspended = errors.New("process is still suspended")

// maxResumeAttempts bounds the resume loop of a single thread.
const maxResumeAttempts = 64

// NewController returns the control backend of the current platform.
func NewController() Controller {
	return newPlatformController()
}

// killTree kills pid and every descendant. A process that is already gone
// is not an error.
func killTree(pid int32) error {
	proc, err := gopsutilprocess.NewProcess(pid)
	if err != nil {
		if errors.Is(err, gopsutilprocess.ErrorProcessNotRunning) {
			return nil
		}
		return err
	}

	// collect before killing, orphans get reparented
	children, _ := proc.Children()

	var errs []error
	if err := proc.Kill(); err != nil {
		if running, rerr := proc.IsRunning(); rerr == nil && running {
			errs = append(errs, fmt.Errorf("kill %d: %w", pid, err))
		}
	}
	for _, child := range children {
		if err := killTree(child.Pid); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
