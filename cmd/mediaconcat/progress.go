// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConcat - 无损媒体拼接工具

package main

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/ZSC714725/mediaconcat/internal/concat"
	"github.com/jedib0t/go-pretty/v6/progress"
	"github.com/mattn/go-isatty"
)

// progressSink renders a local job
type progressSink interface {
	concat.ProgressSink
	Close()
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

const barResolution = 1000

// barSink draws an overall and a per-segment bar
type barSink struct {
	pw      progress.Writer
	overall *progress.Tracker
	segment *progress.Tracker
}

func newBarSink(w io.Writer) *barSink {
	pw := progress.NewWriter()
	pw.SetOutputWriter(w)
	pw.SetAutoStop(false)
	pw.SetTrackerLength(40)
	pw.SetUpdateFrequency(100 * time.Millisecond)
	pw.SetStyle(progress.StyleDefault)
	pw.Style().Visibility.ETA = false
	pw.Style().Visibility.Value = false

	s := &barSink{
		pw:      pw,
		overall: &progress.Tracker{Message: "Overall", Total: barResolution},
		segment: &progress.Tracker{Message: "Probing", Total: barResolution},
	}
	pw.AppendTracker(s.overall)
	pw.AppendTracker(s.segment)
	go pw.Render()
	return s
}

func (s *barSink) OnFileProgress(index, total int, name string) {
	if index >= total {
		s.segment.UpdateMessage("Done")
		return
	}
	s.segment.UpdateMessage(fmt.Sprintf("[%d/%d] %s", index+1, total, name))
}

func (s *barSink) OnValueProgress(overall, segment float64, percent string) {
	s.overall.SetValue(int64(overall * barResolution))
	s.segment.SetValue(int64(segment * barResolution))
}

func (s *barSink) OnOutput(path string) {
	s.pw.Log("Output: %s", path)
}

func (s *barSink) OnComplete(path string) {
	s.overall.MarkAsDone()
	s.segment.MarkAsDone()
}

func (s *barSink) OnError(err *concat.Error) {
	s.pw.Log("Error: %s", err.Message)
	s.overall.MarkAsErrored()
	s.segment.MarkAsErrored()
}

func (s *barSink) Close() {
	s.pw.Stop()
	for s.pw.IsRenderInProgress() {
		time.Sleep(10 * time.Millisecond)
	}
}

// lineSink prints a line per segment and per tenth of the job
type lineSink struct {
	w    io.Writer
	mu   sync.Mutex
	step int
}

func newLineSink(w io.Writer) *lineSink {
	return &lineSink{w: w, step: -1}
}

func (s *lineSink) printf(format string, args ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, format+"\n", args...)
}

func (s *lineSink) OnFileProgress(index, total int, name string) {
	if index >= total {
		return
	}
	s.printf("[%d/%d] %s", index+1, total, name)
}

func (s *lineSink) OnValueProgress(overall, segment float64, percent string) {
	step := int(overall * 10)
	s.mu.Lock()
	if step <= s.step {
		s.mu.Unlock()
		return
	}
	s.step = step
	s.mu.Unlock()
	s.printf("%3d%% (segment %s)", step*10, percent)
}

func (s *lineSink) OnOutput(path string) {
	s.printf("output: %s", path)
}

func (s *lineSink) OnComplete(path string) {
	s.printf("completed: %s", path)
}

func (s *lineSink) OnError(err *concat.Error) {
	s.printf("error (%s): %s", err.Kind, err.Message)
}

func (s *lineSink) Close() {}
