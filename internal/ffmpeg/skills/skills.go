// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConcat - 无损媒体拼接工具

package skills

import (
	"bufio"
	"bytes"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
)

// Format represents a supported format
type Format struct {
	Id   string
	Name string
}

// Library represents a linked av library
type Library struct {
	Name     string
	Compiled string
	Linked   string
}

type ffmpegInfo struct {
	Version       string
	Compiler      string
	Configuration string
	Libraries     []Library
}

// Skills are the detected capabilities of FFmpeg
type Skills struct {
	FFmpeg   ffmpegInfo
	Demuxers []Format
}

// HasDemuxer reports whether id is among the demuxers
func (s Skills) HasDemuxer(id string) bool {
	for _, f := range s.Demuxers {
		if f.Id == id {
			return true
		}
	}
	return false
}

// New returns the skills of the FFmpeg binary. env is passed to the probing
// commands; nil inherits the current environment.
func New(binary string, env []string) (Skills, error) {
	c := Skills{}

	ff, err := getVersion(binary, env)
	if ff.Version == "" || err != nil {
		if err != nil {
			return Skills{}, fmt.Errorf("can't parse ffmpeg version: %w", err)
		}
		return Skills{}, fmt.Errorf("can't parse ffmpeg version")
	}
	c.FFmpeg = ff
	c.Demuxers = getDemuxers(binary, env)

	return c, nil
}

func getVersion(binary string, env []string) (ffmpegInfo, error) {
	cmd := exec.Command(binary, "-version")
	cmd.Env = env
	out, err := cmd.CombinedOutput()
	if err != nil {
		return ffmpegInfo{}, err
	}
	return parseVersion(out), nil
}

var (
	reVersion       = regexp.MustCompile(`^ffmpeg version n?([0-9]+\.[0-9]+(\.[0-9]+)?)`)
	reCompiler      = regexp.MustCompile(`(?m)^\s*built with (.*)$`)
	reConfiguration = regexp.MustCompile(`(?m)^\s*configuration: (.*)$`)
	reLibrary       = regexp.MustCompile(`(?m)^\s*(lib(?:[a-z]+))\s+([0-9]+\.\s*[0-9]+\.\s*[0-9]+) /\s+([0-9]+\.\s*[0-9]+\.\s*[0-9]+)`)
	reFormat        = regexp.MustCompile(`^\s([D. ])([E. ])[d. ]?\s+([0-9A-Za-z_,]+)\s+(.*?)$`)
)

func parseVersion(data []byte) ffmpegInfo {
	f := ffmpegInfo{}

	if m := reVersion.FindSubmatch(data); m != nil {
		f.Version = string(m[1])
		if len(m[2]) == 0 {
			f.Version += ".0"
		}
	}
	if m := reCompiler.FindSubmatch(data); m != nil {
		f.Compiler = string(m[1])
	}
	if m := reConfiguration.FindSubmatch(data); m != nil {
		f.Configuration = string(m[1])
	}
	for _, m := range reLibrary.FindAllSubmatch(data, -1) {
		f.Libraries = append(f.Libraries, Library{
			Name:     string(m[1]),
			Compiled: string(m[2]),
			Linked:   string(m[3]),
		})
	}
	return f
}

func getDemuxers(binary string, env []string) []Format {
	cmd := exec.Command(binary, "-hide_banner", "-demuxers")
	cmd.Env = env
	stdout, _ := cmd.Output()
	return parseDemuxers(stdout)
}

func parseDemuxers(data []byte) []Format {
	var formats []Format
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		m := reFormat.FindStringSubmatch(scanner.Text())
		if m == nil || m[1] != "D" {
			continue
		}
		for _, id := range strings.Split(m[3], ",") {
			formats = append(formats, Format{Id: id, Name: strings.TrimSpace(m[4])})
		}
	}
	return formats
}
