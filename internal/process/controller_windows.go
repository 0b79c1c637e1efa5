// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConcat - 无损媒体拼接工具

//go:build windows

package process

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

const threadSuspendResume = 0x0002

// (DWORD)-1, the failure value of SuspendThread and ResumeThread
const threadCallFailed = 0xFFFFFFFF

var (
	modkernel32       = windows.NewLazySystemDLL("kernel32.dll")
	procSuspendThread = modkernel32.NewProc("SuspendThread")
	procResumeThread  = modkernel32.NewProc("ResumeThread")
)

// threadController walks a Toolhelp32 thread snapshot and suspends or resumes
// every thread owned by the process. ffmpeg has no pause primitive of its own.
type threadController struct{}

func newPlatformController() Controller {
	return threadController{}
}

func (threadController) Kill(pid int32) error {
	return killTree(pid)
}

func (threadController) Suspend(pid int32) error {
	return forEachThread(pid, func(thread windows.Handle) error {
		r, _, err := procSuspendThread.Call(uintptr(thread))
		if r == threadCallFailed {
			return fmt.Errorf("SuspendThread: %w", err)
		}
		return nil
	})
}

func (threadController) Resume(pid int32) error {
	return forEachThread(pid, func(thread windows.Handle) error {
		// ResumeThread returns the previous suspend count
		for attempt := 0; attempt < maxResumeAttempts; attempt++ {
			r, _, err := procResumeThread.Call(uintptr(thread))
			if r == threadCallFailed {
				return fmt.Errorf("ResumeThread: %w", err)
			}
			if r <= 1 {
				return nil
			}
		}
		return ErrStillSuspended
	})
}

func forEachThread(pid int32, fn func(windows.Handle) error) error {
	snapshot, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPTHREAD, 0)
	if err != nil {
		return fmt.Errorf("thread snapshot: %w", err)
	}
	defer windows.CloseHandle(snapshot)

	var entry windows.ThreadEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))

	for err = windows.Thread32First(snapshot, &entry); err == nil; err = windows.Thread32Next(snapshot, &entry) {
		if entry.OwnerProcessID != uint32(pid) {
			continue
		}
		thread, oerr := windows.OpenThread(threadSuspendResume, false, entry.ThreadID)
		if oerr != nil {
			continue
		}
		ferr := fn(thread)
		windows.CloseHandle(thread)
		if ferr != nil {
			return ferr
		}
	}
	if errors.Is(err, windows.ERROR_NO_MORE_FILES) {
		return nil
	}
	return err
}
