// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConcat - 无损媒体拼接工具

package concat

import "github.com/ZSC714725/mediaconcat/internal/ffmpeg/parse"

// ProgressSink receives the reports of a job. Callbacks run on the goroutine
// calling Concat and must not call Cancel.
type ProgressSink interface {
	// OnFileProgress reports the segment being merged. index == total marks
	// the end of the merge.
	OnFileProgress(index, total int, name string)
	OnValueProgress(overall, segment float64, percent string)
	// OnOutput reports the output path once it is known, before the merge.
	OnOutput(path string)
	OnComplete(path string)
	OnError(err *Error)
}

// StateObserver is implemented by sinks interested in job state changes.
type StateObserver interface {
	OnState(from, to State)
}

// DiagnosticObserver is implemented by sinks that keep the raw tool output.
type DiagnosticObserver interface {
	OnDiagnostic(phase parse.Phase, line string)
}

// SinkFuncs adapts plain functions to a ProgressSink. Nil fields are skipped.
type SinkFuncs struct {
	FileProgress  func(index, total int, name string)
	ValueProgress func(overall, segment float64, percent string)
	Output        func(path string)
	Complete      func(path string)
	Error         func(err *Error)
	State         func(from, to State)
	Diagnostic    func(phase parse.Phase, line string)
}

func (s SinkFuncs) OnFileProgress(index, total int, name string) {
	if s.FileProgress != nil {
		s.FileProgress(index, total, name)
	}
}

func (s SinkFuncs) OnValueProgress(overall, segment float64, percent string) {
	if s.ValueProgress != nil {
		s.ValueProgress(overall, segment, percent)
	}
}

func (s SinkFuncs) OnOutput(path string) {
	if s.Output != nil {
		s.Output(path)
	}
}

func (s SinkFuncs) OnComplete(path string) {
	if s.Complete != nil {
		s.Complete(path)
	}
}

func (s SinkFuncs) OnError(err *Error) {
	if s.Error != nil {
		s.Error(err)
	}
}

func (s SinkFuncs) OnState(from, to State) {
	if s.State != nil {
		s.State(from, to)
	}
}

func (s SinkFuncs) OnDiagnostic(phase parse.Phase, line string) {
	if s.Diagnostic != nil {
		s.Diagnostic(phase, line)
	}
}
