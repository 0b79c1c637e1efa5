// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConcat - 无损媒体拼接工具

package api

import (
	"github.com/ZSC714725/mediaconcat/internal/ffmpeg/skills"
)

// FFmpegResponse describes the ffmpeg binary in use
type FFmpegResponse struct {
	Binary        string          `json:"binary"`
	Version       string          `json:"version"`
	Compiler      string          `json:"compiler"`
	Configuration string          `json:"configuration"`
	Libraries     []FFmpegLibrary `json:"libraries"`
	Concat        bool            `json:"concat"`
	Demuxers      []FFmpegFormat  `json:"demuxers"`
}

type FFmpegLibrary struct {
	Name     string `json:"name"`
	Compiled string `json:"compiled"`
	Linked   string `json:"linked"`
}

type FFmpegFormat struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func skillsToAPI(binary string, s skills.Skills) FFmpegResponse {
	resp := FFmpegResponse{
		Binary:        binary,
		Version:       s.FFmpeg.Version,
		Compiler:      s.FFmpeg.Compiler,
		Configuration: s.FFmpeg.Configuration,
		Libraries:     make([]FFmpegLibrary, len(s.FFmpeg.Libraries)),
		Concat:        s.HasDemuxer("concat"),
		Demuxers:      make([]FFmpegFormat, len(s.Demuxers)),
	}
	for i, lib := range s.FFmpeg.Libraries {
		resp.Libraries[i] = FFmpegLibrary{lib.Name, lib.Compiled, lib.Linked}
	}
	for i, f := range s.Demuxers {
		resp.Demuxers[i] = FFmpegFormat{ID: f.Id, Name: f.Name}
	}
	return resp
}
