// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConcat - 无损媒体拼接工具

package job

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ZSC714725/mediaconcat/internal/concat"
	"github.com/ZSC714725/mediaconcat/internal/ffmpeg"
	"github.com/ZSC714725/mediaconcat/internal/history"
	"github.com/ZSC714725/mediaconcat/internal/process"
	"github.com/ZSC714725/mediaconcat/internal/testsupport"
)

type memRecorder struct {
	mu      sync.Mutex
	entries []history.Entry
}

func (r *memRecorder) Record(ctx context.Context, e history.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

func (r *memRecorder) all() []history.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]history.Entry(nil), r.entries...)
}

func newStore(t *testing.T, mode string) (Store, *memRecorder) {
	t.Helper()
	fake := testsupport.FakeFFmpeg(mode)
	validator, err := ffmpeg.NewValidator([]string{".mkv", ".mp4"}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	ff, err := ffmpeg.New(ffmpeg.Config{Binary: fake.Binary, Env: fake.Env, ValidatorInput: validator})
	if err != nil {
		t.Fatalf("ffmpeg.New: %v", err)
	}

	rec := &memRecorder{}
	s := NewStore(StoreConfig{
		FFmpeg:     ff,
		LockDir:    t.TempDir(),
		LogLines:   20,
		Recorder:   rec,
		NewSampler: process.NewNullSampler,
	})
	t.Cleanup(s.Close)
	return s, rec
}

func clips(t *testing.T) (string, []string) {
	t.Helper()
	dir := t.TempDir()
	return dir, []string{
		testsupport.WriteMedia(t, dir, "cam_000.mkv", "00:00:04.00"),
		testsupport.WriteMedia(t, dir, "cam_001.mkv", "00:00:06.00"),
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timeout waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestAddValidates(t *testing.T) {
	s, _ := newStore(t, testsupport.ModeNormal)
	_, inputs := clips(t)

	if _, err := s.Add(&Config{Inputs: inputs[:1]}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	if _, err := s.Add(&Config{Inputs: []string{inputs[0], "/tmp/notes.txt"}}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	j, err := s.Add(&Config{ID: "fixed", Inputs: inputs})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := s.Add(&Config{ID: "fixed", Inputs: inputs}); !errors.Is(err, ErrJobExists) {
		t.Fatalf("expected ErrJobExists, got %v", err)
	}
	j.Wait()
}

func TestJobCompletes(t *testing.T) {
	s, rec := newStore(t, testsupport.ModeSlow)
	dir, inputs := clips(t)

	j, err := s.Add(&Config{Reference: "cam", Inputs: inputs})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if len(j.ID) == 0 {
		t.Fatal("id should be generated")
	}
	events, unsubscribe := j.Subscribe()
	defer unsubscribe()

	var complete *Event
	for e := range events {
		if e.JobID != j.ID {
			t.Fatalf("event of job %q", e.JobID)
		}
		if e.Type == EventComplete {
			e := e
			complete = &e
		}
	}
	if complete == nil || complete.Path != filepath.Join(dir, "cam.mkv") {
		t.Fatalf("complete event = %+v", complete)
	}

	output, err := j.Wait()
	if err != nil || output != complete.Path {
		t.Fatalf("Wait = %q, %v", output, err)
	}

	snap := j.Snapshot()
	if snap.State != concat.StateCompleted || snap.Progress.Percent != "100 %" || snap.Progress.Total != 2 {
		t.Fatalf("snapshot = %+v", snap)
	}
	if snap.Progress.Frame == 0 {
		t.Fatal("stats of the progress lines should be kept")
	}
	if snap.Process != nil {
		t.Fatal("no process should be reported after completion")
	}
	if len(j.Report()) == 0 || len(j.Report()) > 20 {
		t.Fatalf("report has %d lines", len(j.Report()))
	}

	entries := rec.all()
	if len(entries) != 1 || entries[0].State != "completed" || entries[0].Output != output {
		t.Fatalf("history = %+v", entries)
	}
	if got := s.List(nil, "cam"); len(got) != 1 || got[0] != j {
		t.Fatalf("List by reference = %v", got)
	}
	if got := s.List(nil, "other"); len(got) != 0 {
		t.Fatalf("List by other reference = %v", got)
	}
}

func TestJobCommands(t *testing.T) {
	s, rec := newStore(t, testsupport.ModeSlow)
	dir, inputs := clips(t)

	j, err := s.Add(&Config{Inputs: inputs})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	waitFor(t, "merge", func() bool { return j.Snapshot().State == concat.StateMerging })

	if err := s.Command(j.ID, CommandPause); err != nil {
		t.Fatalf("pause: %v", err)
	}
	snap := j.Snapshot()
	if !snap.Paused || snap.Order != CommandPause {
		t.Fatalf("snapshot after pause = %+v", snap)
	}
	if snap.Process == nil || snap.Process.State != process.StateSuspended {
		t.Fatalf("process = %+v", snap.Process)
	}

	if err := s.Command(j.ID, CommandResume); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if j.Snapshot().Paused {
		t.Fatal("job still paused")
	}

	if err := s.Command(j.ID, CommandCancel); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := j.Wait(); !errors.Is(err, concat.ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	snap = j.Snapshot()
	if snap.State != concat.StateCancelled || snap.ErrorKind != "cancelled" {
		t.Fatalf("snapshot = %+v", snap)
	}
	if _, err := os.Stat(filepath.Join(dir, "cam.mkv")); !os.IsNotExist(err) {
		t.Fatalf("output left behind: %v", err)
	}
	if entries := rec.all(); len(entries) != 1 || entries[0].State != "cancelled" {
		t.Fatalf("history = %+v", entries)
	}

	if err := s.Command("missing", CommandCancel); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCancelRightAfterAdd(t *testing.T) {
	s, rec := newStore(t, testsupport.ModeNormal)

	for i := 0; i < 20; i++ {
		dir, inputs := clips(t)
		j, err := s.Add(&Config{Inputs: inputs})
		if err != nil {
			t.Fatalf("Add: %v", err)
		}
		if err := s.Command(j.ID, CommandCancel); err != nil {
			t.Fatalf("cancel: %v", err)
		}
		if j.IsRunning() {
			t.Fatalf("iteration %d: cancel returned before the job finished", i)
		}
		output, err := j.Wait()
		if !errors.Is(err, concat.ErrCancelled) {
			t.Fatalf("iteration %d: expected ErrCancelled, got output %q err %v", i, output, err)
		}
		if entries, _ := os.ReadDir(dir); len(entries) != 2 {
			t.Fatalf("iteration %d: directory holds %d files", i, len(entries))
		}
	}
	for _, e := range rec.all() {
		if e.State != "cancelled" {
			t.Fatalf("history = %+v", e)
		}
	}
}

func TestDeleteRightAfterAdd(t *testing.T) {
	s, _ := newStore(t, testsupport.ModeSlow)
	dir, inputs := clips(t)

	j, err := s.Add(&Config{Inputs: inputs})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	start := time.Now()
	if err := s.Delete(j.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatal("Delete waited for the merge")
	}
	if _, err := j.Wait(); !errors.Is(err, concat.ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if entries, _ := os.ReadDir(dir); len(entries) != 2 {
		t.Fatalf("directory holds %d files", len(entries))
	}
}

func TestJobProbeFailure(t *testing.T) {
	s, rec := newStore(t, testsupport.ModeNormal)
	dir := t.TempDir()
	inputs := []string{
		testsupport.WriteMedia(t, dir, "a.mkv", "00:00:04.00"),
		testsupport.WriteMedia(t, dir, "b.mkv", "broken"),
	}

	j, err := s.Add(&Config{Inputs: inputs})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := j.Wait(); concat.KindOf(err) != concat.KindProbeFailure {
		t.Fatalf("expected probe failure, got %v", err)
	}
	snap := j.Snapshot()
	if snap.State != concat.StateFailed || snap.Error != concat.NoValidFilesMessage || snap.ErrorKind != "probe_failure" {
		t.Fatalf("snapshot = %+v", snap)
	}
	if entries := rec.all(); len(entries) != 1 || entries[0].Error != concat.NoValidFilesMessage {
		t.Fatalf("history = %+v", entries)
	}
}

func TestDelete(t *testing.T) {
	s, _ := newStore(t, testsupport.ModeSlow)
	dir, inputs := clips(t)

	j, err := s.Add(&Config{Inputs: inputs})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	waitFor(t, "merge", func() bool { return j.Snapshot().State == concat.StateMerging })

	if err := s.Delete(j.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if j.IsRunning() {
		t.Fatal("job still running")
	}
	if _, err := s.Get(j.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if entries, _ := os.ReadDir(dir); len(entries) != 2 {
		t.Fatalf("directory holds %d files", len(entries))
	}
	if err := s.Delete(j.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClose(t *testing.T) {
	s, _ := newStore(t, testsupport.ModeSlow)
	_, inputs := clips(t)

	j, err := s.Add(&Config{Inputs: inputs})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	s.Close()

	if j.IsRunning() {
		t.Fatal("Close should wait for the job")
	}
	if _, err := j.Wait(); !errors.Is(err, concat.ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if _, err := s.Add(&Config{Inputs: inputs}); !errors.Is(err, ErrStoreClosed) {
		t.Fatalf("expected ErrStoreClosed, got %v", err)
	}
}

func TestParseCommand(t *testing.T) {
	for _, name := range []string{"pause", "resume", "cancel"} {
		if c, err := ParseCommand(name); err != nil || string(c) != name {
			t.Fatalf("ParseCommand(%q) = %q, %v", name, c, err)
		}
	}
	if _, err := ParseCommand("restart"); !errors.Is(err, ErrUnknownCommand) {
		t.Fatalf("expected ErrUnknownCommand, got %v", err)
	}
}
