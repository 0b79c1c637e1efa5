// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConcat - 无损媒体拼接工具

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ZSC714725/mediaconcat/internal/ffmpeg"
	"github.com/ZSC714725/mediaconcat/internal/history"
	"github.com/ZSC714725/mediaconcat/internal/job"
	"github.com/ZSC714725/mediaconcat/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// HistoryLister reads the job journal
type HistoryLister interface {
	List(ctx context.Context, limit int) ([]history.Entry, error)
}

// Handler holds dependencies
type Handler struct {
	store    job.Store
	ffmpeg   ffmpeg.FFmpeg
	history  HistoryLister
	logger   logger.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates API handler. history may be nil.
func NewHandler(store job.Store, ff ffmpeg.FFmpeg, history HistoryLister, log logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{
		store:   store,
		ffmpeg:  ff,
		history: history,
		logger:  log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func errResp(c *gin.Context, code int, msg, detail string) {
	c.JSON(code, ErrorResponse{Code: code, Message: msg, Detail: detail})
}

// AddJob POST /api/v1/jobs
func (h *Handler) AddJob(c *gin.Context) {
	var req JobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errResp(c, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}

	j, err := h.store.Add(&job.Config{ID: req.ID, Reference: req.Reference, Inputs: req.Inputs})
	if err != nil {
		switch {
		case errors.Is(err, job.ErrJobExists):
			errResp(c, http.StatusBadRequest, "Job exists", err.Error())
		case errors.Is(err, job.ErrInvalidInput):
			errResp(c, http.StatusBadRequest, "Invalid input", err.Error())
		case errors.Is(err, job.ErrStoreClosed):
			errResp(c, http.StatusServiceUnavailable, "Shutting down", err.Error())
		default:
			errResp(c, http.StatusBadRequest, "Invalid config", err.Error())
		}
		return
	}

	c.JSON(http.StatusOK, jobToAPI(j, "config,state"))
}

// ListJobs GET /api/v1/jobs
func (h *Handler) ListJobs(c *gin.Context) {
	filter := c.DefaultQuery("filter", "")
	reference := c.DefaultQuery("reference", "")
	idStr := c.DefaultQuery("id", "")

	var ids []string
	if idStr != "" {
		ids = strings.FieldsFunc(idStr, func(r rune) bool { return r == ',' })
		for i := range ids {
			ids[i] = strings.TrimSpace(ids[i])
		}
	}

	jobs := h.store.List(ids, reference)
	out := make([]Job, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, jobToAPI(j, filter))
	}

	c.JSON(http.StatusOK, out)
}

// GetJob GET /api/v1/jobs/:id
func (h *Handler) GetJob(c *gin.Context) {
	j, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, jobToAPI(j, c.DefaultQuery("filter", "")))
}

// DeleteJob DELETE /api/v1/jobs/:id
func (h *Handler) DeleteJob(c *gin.Context) {
	if err := h.store.Delete(c.Param("id")); err != nil {
		if errors.Is(err, job.ErrNotFound) {
			errResp(c, http.StatusNotFound, "Unknown job ID", err.Error())
			return
		}
		errResp(c, http.StatusInternalServerError, "Delete failed", err.Error())
		return
	}

	c.JSON(http.StatusOK, "OK")
}

// GetState GET /api/v1/jobs/:id/state
func (h *Handler) GetState(c *gin.Context) {
	j, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, stateToAPI(j))
}

// GetReport GET /api/v1/jobs/:id/report
func (h *Handler) GetReport(c *gin.Context) {
	j, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, reportToAPI(j))
}

// Command PUT /api/v1/jobs/:id/command
func (h *Handler) Command(c *gin.Context) {
	id := c.Param("id")

	var req CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errResp(c, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}

	cmd, err := job.ParseCommand(req.Command)
	if err != nil {
		errResp(c, http.StatusBadRequest, "Unknown command", "Known: pause, resume, cancel")
		return
	}

	if err := h.store.Command(id, cmd); err != nil {
		if errors.Is(err, job.ErrNotFound) {
			errResp(c, http.StatusNotFound, "Unknown job ID", err.Error())
			return
		}
		errResp(c, http.StatusBadRequest, "Command failed", err.Error())
		return
	}

	c.JSON(http.StatusOK, "OK")
}

// History GET /api/v1/history
func (h *Handler) History(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusOK, []history.Entry{})
		return
	}

	limit := 50
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			errResp(c, http.StatusBadRequest, "Invalid limit", s)
			return
		}
		limit = n
	}

	entries, err := h.history.List(c.Request.Context(), limit)
	if err != nil {
		errResp(c, http.StatusInternalServerError, "History unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, entries)
}

// FFmpeg GET /api/v1/ffmpeg
func (h *Handler) FFmpeg(c *gin.Context) {
	c.JSON(http.StatusOK, skillsToAPI(h.ffmpeg.Binary(), h.ffmpeg.Skills()))
}

// ReloadFFmpeg POST /api/v1/ffmpeg/reload
func (h *Handler) ReloadFFmpeg(c *gin.Context) {
	if err := h.ffmpeg.ReloadSkills(); err != nil {
		errResp(c, http.StatusInternalServerError, "Reload failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, skillsToAPI(h.ffmpeg.Binary(), h.ffmpeg.Skills()))
}

func (h *Handler) lookup(c *gin.Context) (*job.Job, bool) {
	j, err := h.store.Get(c.Param("id"))
	if err != nil {
		errResp(c, http.StatusNotFound, "Unknown job ID", err.Error())
		return nil, false
	}
	return j, true
}

func jobToAPI(j *job.Job, filter string) Job {
	snap := j.Snapshot()
	out := Job{
		ID:        snap.ID,
		Type:      "concat",
		Reference: snap.Reference,
		CreatedAt: snap.CreatedAt,
		UpdatedAt: snap.UpdatedAt,
	}

	includeAll := filter == ""
	if includeAll || strings.Contains(filter, "config") {
		out.Config = &JobConfig{ID: snap.ID, Reference: snap.Reference, Inputs: snap.Inputs}
	}
	if includeAll || strings.Contains(filter, "state") {
		state := snapshotToState(snap)
		out.State = &state
	}
	if includeAll || strings.Contains(filter, "report") {
		report := reportToAPI(j)
		out.Report = &report
	}
	return out
}

func stateToAPI(j *job.Job) JobState {
	return snapshotToState(j.Snapshot())
}

func snapshotToState(snap job.Snapshot) JobState {
	state := JobState{
		Order:     string(snap.Order),
		State:     string(snap.State),
		Paused:    snap.Paused,
		Output:    snap.Output,
		Error:     snap.Error,
		ErrorKind: snap.ErrorKind,
		Progress: &Progress{
			Index:   snap.Progress.Index,
			Total:   snap.Progress.Total,
			Name:    snap.Progress.Name,
			Overall: snap.Progress.Overall,
			Segment: snap.Progress.Segment,
			Percent: snap.Progress.Percent,
			Frame:   snap.Progress.Frame,
			Size:    snap.Progress.Size,
			Speed:   snap.Progress.Speed,
		},
	}
	if state.Order == "" {
		state.Order = "start"
	}
	if p := snap.Process; p != nil {
		state.Pid = p.Pid
		state.Runtime = int64(p.Duration.Seconds())
		state.LastLog = p.LastLine
		state.Memory = p.Usage.Memory
		state.CPU = p.Usage.CPU
	}
	return state
}

func reportToAPI(j *job.Job) JobReport {
	snap := j.Snapshot()
	lines := j.Report()
	report := JobReport{CreatedAt: snap.CreatedAt, Log: make([][2]string, len(lines))}
	for i, line := range lines {
		report.Log[i] = [2]string{
			line.Timestamp.Format("2006-01-02 15:04:05.000"),
			line.Data,
		}
	}
	return report
}
