// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConcat - 无损媒体拼接工具

// Package api exposes concat jobs over HTTP.
package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter registers the handler's routes on a new gin engine.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), cors.Default())

	v1 := r.Group("/api/v1")
	{
		v1.GET("/ffmpeg", h.FFmpeg)
		v1.POST("/ffmpeg/reload", h.ReloadFFmpeg)

		v1.GET("/jobs", h.ListJobs)
		v1.POST("/jobs", h.AddJob)
		v1.GET("/jobs/:id", h.GetJob)
		v1.DELETE("/jobs/:id", h.DeleteJob)
		v1.GET("/jobs/:id/state", h.GetState)
		v1.GET("/jobs/:id/report", h.GetReport)
		v1.PUT("/jobs/:id/command", h.Command)
		v1.GET("/jobs/:id/events", h.Events)

		v1.GET("/history", h.History)
	}

	return r
}
