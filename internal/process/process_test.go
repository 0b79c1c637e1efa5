// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConcat - 无损媒体拼接工具

package process

import (
	"bufio"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ZSC714725/mediaconcat/internal/testsupport"
)

func TestScanLine(t *testing.T) {
	input := "first\r\n\nframe=1 time=00:00:01.00\rframe=2 time=00:00:02.00\rlast"
	scanner := bufio.NewScanner(strings.NewReader(input))
	scanner.Split(scanLine)

	var got []string
	for scanner.Scan() {
		got = append(got, scanner.Text())
	}
	want := []string{"first", "frame=1 time=00:00:01.00", "frame=2 time=00:00:02.00", "last"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestStartRequiresBinary(t *testing.T) {
	r := NewRunner(Config{})
	if _, err := r.Start("", nil); !errors.Is(err, ErrNoBinary) {
		t.Fatalf("expected ErrNoBinary, got %v", err)
	}
	if _, err := r.Start(filepath.Join(t.TempDir(), "missing-ffmpeg"), nil); err == nil {
		t.Fatal("expected start error for a missing binary")
	}
	if r.Current() != nil {
		t.Fatal("failed starts must not be tracked")
	}
}

func TestLinesMergesOutputStreams(t *testing.T) {
	fake := testsupport.FakeFFmpeg(testsupport.ModeLines)
	r := NewRunner(Config{Env: fake.Env, NewSampler: NewNullSampler})

	h, err := r.Start(fake.Binary, nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if r.Current() != h {
		t.Fatal("runner should track the started handle")
	}

	var stderr, stdout int
	for line := range h.Lines() {
		switch {
		case strings.HasPrefix(line, "line "):
			stderr++
		case strings.HasPrefix(line, "out "):
			stdout++
		default:
			t.Fatalf("unexpected line %q", line)
		}
	}
	if err := h.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if stderr != 5 || stdout != 5 {
		t.Fatalf("got %d stderr and %d stdout lines", stderr, stdout)
	}

	// the sequence is not restartable
	for range h.Lines() {
		t.Fatal("second iteration must be empty")
	}

	st := h.Status()
	if st.State != StateExited || st.ExitCode != 0 || st.Killed {
		t.Fatalf("unexpected status %+v", st)
	}
	if err := h.Kill(); err != nil {
		t.Fatalf("Kill after exit: %v", err)
	}
	if err := h.Suspend(); err != nil {
		t.Fatalf("Suspend after exit: %v", err)
	}
	if err := h.Resume(); err != nil {
		t.Fatalf("Resume after exit: %v", err)
	}
}

func startSlowMerge(t *testing.T) *Handle {
	t.Helper()
	dir := t.TempDir()
	a := testsupport.WriteMedia(t, dir, "a.mkv", "00:00:10.00")
	b := testsupport.WriteMedia(t, dir, "b.mkv", "00:00:10.00")
	manifest := filepath.Join(dir, "list.txt")
	body := "file '" + a + "'\nfile '" + b + "'\n"
	if err := os.WriteFile(manifest, []byte(body), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	fake := testsupport.FakeFFmpeg(testsupport.ModeSlow)
	r := NewRunner(Config{Env: fake.Env})
	h, err := r.Start(fake.Binary, []string{"-f", "concat", "-safe", "0", "-i", manifest, "-c", "copy", filepath.Join(dir, "out.mkv")})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() {
		_ = h.Kill()
		_ = h.Wait()
	})
	return h
}

func countLines(h *Handle) *atomic.Int64 {
	var n atomic.Int64
	go func() {
		for line := range h.Lines() {
			if strings.HasPrefix(line, "frame=") {
				n.Add(1)
			}
		}
	}()
	return &n
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSuspendStopsOutputUntilResume(t *testing.T) {
	h := startSlowMerge(t)
	frames := countLines(h)
	waitFor(t, func() bool { return frames.Load() >= 3 })

	if err := h.Suspend(); err != nil {
		t.Fatalf("Suspend: %v", err)
	}
	if !h.Suspended() {
		t.Fatal("handle should report suspended")
	}
	// lines already in the pipe may still arrive
	time.Sleep(200 * time.Millisecond)
	paused := frames.Load()
	time.Sleep(400 * time.Millisecond)
	if got := frames.Load(); got != paused {
		t.Fatalf("output continued while suspended: %d -> %d", paused, got)
	}

	if err := h.Resume(); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if h.Suspended() {
		t.Fatal("handle should be running again")
	}
	if err := h.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if got := frames.Load(); got != 40 {
		t.Fatalf("expected all 40 progress lines, got %d", got)
	}
}

func TestKillSuspendedProcess(t *testing.T) {
	h := startSlowMerge(t)
	_ = countLines(h)

	if err := h.Suspend(); err != nil {
		t.Fatalf("Suspend: %v", err)
	}
	if err := h.Kill(); err != nil {
		t.Fatalf("Kill: %v", err)
	}

	select {
	case <-h.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("killed process did not exit")
	}
	if err := h.Wait(); err == nil {
		t.Fatal("expected an exit error for a killed process")
	}
	if st := h.Status(); !st.Killed || st.State != StateExited {
		t.Fatalf("unexpected status %+v", st)
	}
}
