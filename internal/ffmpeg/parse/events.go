// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConcat - 无损媒体拼接工具

package parse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Phase of a concat job the line was emitted in
type Phase int

const (
	// PhaseProbe is the input-only invocation reading segment durations
	PhaseProbe Phase = iota
	// PhaseMerge is the concat demuxer invocation writing the output
	PhaseMerge
)

func (p Phase) String() string {
	switch p {
	case PhaseProbe:
		return "probe"
	case PhaseMerge:
		return "merge"
	}
	return "unknown"
}

// Kind of a parsed event
type Kind int

const (
	KindDuration Kind = iota + 1
	KindFrameTime
	KindPathTooLong
	KindIncompatibleFiles
	KindWriteFailure
)

func (k Kind) String() string {
	switch k {
	case KindDuration:
		return "duration"
	case KindFrameTime:
		return "frame_time"
	case KindPathTooLong:
		return "path_too_long"
	case KindIncompatibleFiles:
		return "incompatible_files"
	case KindWriteFailure:
		return "write_failure"
	}
	return "unknown"
}

// IsError reports whether the event describes a failure.
func (k Kind) IsError() bool {
	return k == KindPathTooLong || k == KindIncompatibleFiles || k == KindWriteFailure
}

// Event is the typed meaning of one diagnostic line
type Event struct {
	Kind Kind
	// Time is the discovered duration or the reached timestamp.
	Time time.Duration
	// Message is the human readable text of error events.
	Message string
	// Line is the raw diagnostic line.
	Line string
}

// PathTooLongMessage precedes the destination prefix of a path error.
const PathTooLongMessage = "The source file name is too long. Shorten it to get the total number of characters in the destination directory lower than 256.\n\nDestination directory: "

// IncompatibleFilesMessage is reported when ffmpeg refuses to stream copy the inputs together.
const IncompatibleFilesMessage = "Process failed.\nThese files cannot be merged"

const (
	suffixNoSuchFile      = ": No such file or directory"
	suffixBitstreamFilter = "Bitstream filter not found"
	suffixOutOfOrder      = "out of order"
	suffixNoSpace         = "No space left on device"
	suffixIOError         = "I/O error"
)

var (
	durationRe = regexp.MustCompile(`Duration:\s*(\d{2,6}):(\d{2}):(\d{2})\.(\d{1,9})\b`)
	timeRe     = regexp.MustCompile(`time=\s*(\d{2,6}):(\d{2}):(\d{2})\.(\d{1,9})\b`)
)

// Line translates one diagnostic line into at most one event. Probe lines
// only yield durations. Merge lines are checked for errors first, then for a
// progress timestamp.
func Line(phase Phase, line string) (Event, bool) {
	line = strings.TrimRightFunc(line, unicode.IsSpace)
	if len(line) == 0 {
		return Event{}, false
	}

	if phase == PhaseProbe {
		if d, ok := matchClock(durationRe, line); ok {
			return Event{Kind: KindDuration, Time: d, Line: line}, true
		}
		return Event{}, false
	}

	switch {
	case strings.HasSuffix(line, suffixNoSuchFile):
		return Event{
			Kind:    KindPathTooLong,
			Message: PathTooLongMessage + strings.TrimSuffix(line, suffixNoSuchFile),
			Line:    line,
		}, true
	case strings.HasSuffix(line, suffixBitstreamFilter), strings.HasSuffix(line, suffixOutOfOrder):
		return Event{Kind: KindIncompatibleFiles, Message: IncompatibleFilesMessage, Line: line}, true
	case strings.HasSuffix(line, suffixNoSpace), strings.HasSuffix(line, suffixIOError):
		return Event{Kind: KindWriteFailure, Message: "Process failed.\nError message: " + line, Line: line}, true
	}

	if strings.HasPrefix(line, "frame") {
		if d, ok := matchClock(timeRe, line); ok {
			return Event{Kind: KindFrameTime, Time: d, Line: line}, true
		}
	}
	return Event{}, false
}

// matchClock parses HH:MM:SS.frac; .0 .00 .000 etc. are all accepted.
func matchClock(re *regexp.Regexp, line string) (time.Duration, bool) {
	m := re.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	h, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	s, _ := strconv.Atoi(m[3])
	if mm > 59 || s > 59 {
		return 0, false
	}

	d := time.Duration(h)*time.Hour + time.Duration(mm)*time.Minute + time.Duration(s)*time.Second
	if x, err := strconv.ParseUint(m[4], 10, 64); err == nil {
		div := uint64(1)
		for range m[4] {
			div *= 10
		}
		d += time.Duration(x) * time.Second / time.Duration(div)
	}
	return d, true
}
