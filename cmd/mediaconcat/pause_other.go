// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConcat - 无损媒体拼接工具

//go:build windows

package main

import (
	"io"

	"github.com/ZSC714725/mediaconcat/internal/concat"
)

// installPauseToggle is unavailable without SIGUSR1.
func installPauseToggle(orch *concat.Orchestrator, w io.Writer) func() {
	return func() {}
}
