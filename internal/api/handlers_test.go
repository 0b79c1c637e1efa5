// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConcat - 无损媒体拼接工具

package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ZSC714725/mediaconcat/internal/ffmpeg"
	"github.com/ZSC714725/mediaconcat/internal/history"
	"github.com/ZSC714725/mediaconcat/internal/job"
	"github.com/ZSC714725/mediaconcat/internal/process"
	"github.com/ZSC714725/mediaconcat/internal/testsupport"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type fixture struct {
	store  job.Store
	router *gin.Engine
	dir    string
	inputs []string
}

func newFixture(t *testing.T, mode string) *fixture {
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

	hist, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() { hist.Close() })

	store := job.NewStore(job.StoreConfig{
		FFmpeg:     ff,
		LockDir:    t.TempDir(),
		LogLines:   50,
		Recorder:   hist,
		NewSampler: process.NewNullSampler,
	})
	t.Cleanup(store.Close)

	dir := t.TempDir()
	return &fixture{
		store:  store,
		router: NewRouter(NewHandler(store, ff, hist, nil)),
		dir:    dir,
		inputs: []string{
			testsupport.WriteMedia(t, dir, "take_001.mp4", "00:00:03.00"),
			testsupport.WriteMedia(t, dir, "take_002.mp4", "00:00:05.00"),
		},
	}
}

func (f *fixture) do(t *testing.T, method, path string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	if out != nil {
		if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, w.Body.String(), err)
		}
	}
	return w.Code
}

func (f *fixture) add(t *testing.T) Job {
	t.Helper()
	var j Job
	if code := f.do(t, http.MethodPost, "/api/v1/jobs", JobRequest{Inputs: f.inputs}, &j); code != http.StatusOK {
		t.Fatalf("add: status %d", code)
	}
	return j
}

func TestFFmpeg(t *testing.T) {
	f := newFixture(t, testsupport.ModeNormal)

	var resp FFmpegResponse
	if code := f.do(t, http.MethodGet, "/api/v1/ffmpeg", nil, &resp); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if !resp.Concat || resp.Binary == "" || len(resp.Demuxers) == 0 {
		t.Fatalf("response = %+v", resp)
	}
	if code := f.do(t, http.MethodPost, "/api/v1/ffmpeg/reload", nil, &resp); code != http.StatusOK || !resp.Concat {
		t.Fatalf("reload: status %d, %+v", code, resp)
	}
}

func TestAddJobErrors(t *testing.T) {
	f := newFixture(t, testsupport.ModeNormal)

	tests := []struct {
		name string
		body any
	}{
		{"invalid json", "{"},
		{"missing inputs", map[string]any{"reference": "x"}},
		{"single input", JobRequest{Inputs: f.inputs[:1]}},
		{"bad extension", JobRequest{Inputs: []string{f.inputs[0], "/tmp/readme.txt"}}},
	}
	for _, tt := range tests {
		var resp ErrorResponse
		if code := f.do(t, http.MethodPost, "/api/v1/jobs", tt.body, &resp); code != http.StatusBadRequest {
			t.Errorf("%s: status %d", tt.name, code)
		}
		if resp.Code != http.StatusBadRequest || resp.Message == "" {
			t.Errorf("%s: response %+v", tt.name, resp)
		}
	}
}

func TestJobLifecycle(t *testing.T) {
	f := newFixture(t, testsupport.ModeNormal)
	created := f.add(t)
	if created.ID == "" || created.Type != "concat" || len(created.Config.Inputs) != 2 {
		t.Fatalf("created = %+v", created)
	}

	j, err := f.store.Get(created.ID)
	if err != nil {
		t.Fatal(err)
	}
	output, err := j.Wait()
	if err != nil {
		t.Fatalf("job failed: %v", err)
	}
	if output != filepath.Join(f.dir, "take.mp4") {
		t.Fatalf("output = %q", output)
	}

	var state JobState
	if code := f.do(t, http.MethodGet, "/api/v1/jobs/"+created.ID+"/state", nil, &state); code != http.StatusOK {
		t.Fatalf("state: status %d", code)
	}
	if state.State != "completed" || state.Output != output || state.Progress.Percent != "100 %" {
		t.Fatalf("state = %+v", state)
	}

	var report JobReport
	if code := f.do(t, http.MethodGet, "/api/v1/jobs/"+created.ID+"/report", nil, &report); code != http.StatusOK || len(report.Log) == 0 {
		t.Fatalf("report: status %d, %d lines", code, len(report.Log))
	}

	var list []Job
	if code := f.do(t, http.MethodGet, "/api/v1/jobs?filter=state", nil, &list); code != http.StatusOK || len(list) != 1 {
		t.Fatalf("list: status %d, %d jobs", code, len(list))
	}
	if list[0].Config != nil || list[0].State == nil {
		t.Fatalf("filter not applied: %+v", list[0])
	}

	var entries []history.Entry
	if code := f.do(t, http.MethodGet, "/api/v1/history", nil, &entries); code != http.StatusOK {
		t.Fatalf("history: status %d", code)
	}
	if len(entries) != 1 || entries[0].ID != created.ID || entries[0].State != "completed" {
		t.Fatalf("history = %+v", entries)
	}
	if code := f.do(t, http.MethodGet, "/api/v1/history?limit=x", nil, nil); code != http.StatusBadRequest {
		t.Fatalf("bad limit: status %d", code)
	}
}

func TestCommandAndDelete(t *testing.T) {
	f := newFixture(t, testsupport.ModeSlow)
	created := f.add(t)
	path := "/api/v1/jobs/" + created.ID

	deadline := time.Now().Add(10 * time.Second)
	for {
		var state JobState
		f.do(t, http.MethodGet, path+"/state", nil, &state)
		if state.State == "merging" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job never merged: %+v", state)
		}
		time.Sleep(10 * time.Millisecond)
	}

	if code := f.do(t, http.MethodPut, path+"/command", CommandRequest{Command: "pause"}, nil); code != http.StatusOK {
		t.Fatalf("pause: status %d", code)
	}
	var state JobState
	f.do(t, http.MethodGet, path+"/state", nil, &state)
	if !state.Paused || state.Order != "pause" || state.Pid == 0 {
		t.Fatalf("state after pause = %+v", state)
	}

	if code := f.do(t, http.MethodPut, path+"/command", CommandRequest{Command: "restart"}, nil); code != http.StatusBadRequest {
		t.Fatalf("unknown command: status %d", code)
	}
	if code := f.do(t, http.MethodPut, "/api/v1/jobs/nope/command", CommandRequest{Command: "pause"}, nil); code != http.StatusNotFound {
		t.Fatalf("unknown job: status %d", code)
	}

	if code := f.do(t, http.MethodDelete, path, nil, nil); code != http.StatusOK {
		t.Fatalf("delete: status %d", code)
	}
	if code := f.do(t, http.MethodGet, path, nil, nil); code != http.StatusNotFound {
		t.Fatalf("get after delete: status %d", code)
	}
	if code := f.do(t, http.MethodDelete, path, nil, nil); code != http.StatusNotFound {
		t.Fatalf("second delete: status %d", code)
	}
}

func TestEvents(t *testing.T) {
	f := newFixture(t, testsupport.ModeSlow)
	srv := httptest.NewServer(f.router)
	defer srv.Close()

	created := f.add(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/jobs/" + created.ID + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(20 * time.Second))

	seen := map[job.EventType]int{}
	for i := 0; ; i++ {
		var e job.Event
		err := conn.ReadJSON(&e)
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				t.Fatalf("read: %v", err)
			}
			break
		}
		if i == 0 && e.Type != job.EventState {
			t.Fatalf("first event = %+v", e)
		}
		if e.JobID != created.ID {
			t.Fatalf("event of job %q", e.JobID)
		}
		seen[e.Type]++
	}

	if seen[job.EventComplete] != 1 || seen[job.EventValue] == 0 {
		t.Fatalf("events seen: %v", seen)
	}

	resp, err := http.Get(srv.URL + "/api/v1/jobs/nope/events")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown job: status %d", resp.StatusCode)
	}
}
