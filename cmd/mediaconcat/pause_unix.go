// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConcat - 无损媒体拼接工具

//go:build !windows

package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ZSC714725/mediaconcat/internal/concat"
)

// installPauseToggle pauses or resumes orch on every SIGUSR1.
func installPauseToggle(orch *concat.Orchestrator, w io.Writer) func() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGUSR1)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ch:
				toggle(orch, w)
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(ch)
		close(done)
	}
}

func toggle(orch *concat.Orchestrator, w io.Writer) {
	j := orch.Job()
	if j == nil || !j.State().IsActive() {
		return
	}
	if j.Paused() {
		if err := orch.Resume(); err != nil {
			fmt.Fprintf(w, "resume: %v\n", err)
			return
		}
		fmt.Fprintln(w, "resumed")
		return
	}
	if err := orch.Pause(); err != nil {
		fmt.Fprintf(w, "pause: %v\n", err)
		return
	}
	fmt.Fprintln(w, "paused, send SIGUSR1 again to resume")
}
