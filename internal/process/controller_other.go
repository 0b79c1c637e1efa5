// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConcat - 无损媒体拼接工具

//go:build !linux && !windows

package process

import (
	gopsutilprocess "github.com/shirou/gopsutil/v3/process"
)

// signalController has no per-thread primitive available and stops the
// process as a whole.
type signalController struct{}

func newPlatformController() Controller {
	return signalController{}
}

func (signalController) Kill(pid int32) error {
	return killTree(pid)
}

func (signalController) Suspend(pid int32) error {
	proc, err := gopsutilprocess.NewProcess(pid)
	if err != nil {
		return err
	}
	return proc.Suspend()
}

func (signalController) Resume(pid int32) error {
	proc, err := gopsutilprocess.NewProcess(pid)
	if err != nil {
		return err
	}
	return proc.Resume()
}
