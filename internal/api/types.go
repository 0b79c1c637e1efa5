// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConcat - 无损媒体拼接工具

package api

// JobRequest for Add
type JobRequest struct {
	ID        string   `json:"id"`
	Reference string   `json:"reference"`
	Inputs    []string `json:"inputs" binding:"required"`
}

// Job represents a concat job in API responses
type Job struct {
	ID        string     `json:"id"`
	Type      string     `json:"type"`
	Reference string     `json:"reference"`
	CreatedAt int64      `json:"created_at"`
	UpdatedAt int64      `json:"updated_at"`
	Config    *JobConfig `json:"config,omitempty"`
	State     *JobState  `json:"state,omitempty"`
	Report    *JobReport `json:"report,omitempty"`
}

// JobConfig in API format
type JobConfig struct {
	ID        string   `json:"id"`
	Reference string   `json:"reference"`
	Inputs    []string `json:"inputs"`
}

// JobState for API
type JobState struct {
	Order     string    `json:"order"`
	State     string    `json:"exec"`
	Paused    bool      `json:"paused"`
	Output    string    `json:"output,omitempty"`
	Error     string    `json:"error,omitempty"`
	ErrorKind string    `json:"error_kind,omitempty"`
	Pid       int32     `json:"pid,omitempty"`
	Runtime   int64     `json:"runtime_seconds"`
	LastLog   string    `json:"last_logline"`
	Progress  *Progress `json:"progress"`
	Memory    uint64    `json:"memory_bytes"`
	CPU       float64   `json:"cpu_usage"`
}

// Progress of the merge
type Progress struct {
	Index   int     `json:"index"`
	Total   int     `json:"total"`
	Name    string  `json:"name"`
	Overall float64 `json:"overall"`
	Segment float64 `json:"segment"`
	Percent string  `json:"percent"`
	Frame   uint64  `json:"frame"`
	Size    uint64  `json:"size_bytes"`
	Speed   float64 `json:"speed"`
}

// JobReport for logs
type JobReport struct {
	CreatedAt int64       `json:"created_at"`
	Log       [][2]string `json:"log"`
}

// CommandRequest for pause/resume/cancel
type CommandRequest struct {
	Command string `json:"command" binding:"required"`
}

// ErrorResponse for API errors
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}
