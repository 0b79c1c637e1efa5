// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConcat - 无损媒体拼接工具

package api

import (
	"time"

	"github.com/ZSC714725/mediaconcat/internal/job"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const eventWriteTimeout = 5 * time.Second

// Events GET /api/v1/jobs/:id/events
//
// Streams the job's events as JSON messages, starting with its current
// state. The connection is closed once the job finished.
func (h *Handler) Events(c *gin.Context) {
	j, ok := h.lookup(c)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	events, unsubscribe := j.Subscribe()
	defer unsubscribe()

	snap := j.Snapshot()
	progress := snap.Progress
	if err := writeEvent(conn, job.Event{
		Type:     job.EventState,
		JobID:    snap.ID,
		Time:     time.Now(),
		State:    string(snap.State),
		Path:     snap.Output,
		Kind:     snap.ErrorKind,
		Message:  snap.Error,
		Progress: &progress,
	}); err != nil {
		return
	}

	// the client never talks, reading only notices a close
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case e, ok := <-events:
			if !ok {
				conn.SetWriteDeadline(time.Now().Add(eventWriteTimeout))
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "job finished"))
				return
			}
			if err := writeEvent(conn, e); err != nil {
				return
			}
		case <-gone:
			return
		}
	}
}

func writeEvent(conn *websocket.Conn, e job.Event) error {
	conn.SetWriteDeadline(time.Now().Add(eventWriteTimeout))
	return conn.WriteJSON(e)
}
