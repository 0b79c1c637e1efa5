// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConcat - 无损媒体拼接工具

package parse

import (
	"regexp"
	"strconv"
	"strings"
)

// Stats holds the counters of an ffmpeg progress line
type Stats struct {
	Frame uint64  `json:"frame"`
	Size  uint64  `json:"size_bytes"`
	Speed float64 `json:"speed"`
}

var (
	frameRe = regexp.MustCompile(`frame=\s*([0-9]+)`)
	sizeRe  = regexp.MustCompile(`size=\s*([0-9]+)(?:kB|KiB)`)
	speedRe = regexp.MustCompile(`speed=\s*([0-9\.]+)x`)
)

// ParseStats extracts frame, size and speed from a progress line.
func ParseStats(line string) (Stats, bool) {
	if !strings.HasPrefix(line, "frame") {
		return Stats{}, false
	}

	var s Stats
	if m := frameRe.FindStringSubmatch(line); m != nil {
		if x, err := strconv.ParseUint(m[1], 10, 64); err == nil {
			s.Frame = x
		}
	}
	if m := sizeRe.FindStringSubmatch(line); m != nil {
		if x, err := strconv.ParseUint(m[1], 10, 64); err == nil {
			s.Size = x * 1024
		}
	}
	if m := speedRe.FindStringSubmatch(line); m != nil {
		if x, err := strconv.ParseFloat(m[1], 64); err == nil {
			s.Speed = x
		}
	}
	return s, true
}
