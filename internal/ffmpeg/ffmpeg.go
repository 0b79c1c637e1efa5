// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConcat - 无损媒体拼接工具

package ffmpeg

import (
	"errors"
	"fmt"
	"os/exec"
	"sync"

	"github.com/ZSC714725/mediaconcat/internal/ffmpeg/skills"
)

// ErrNoConcatDemuxer is returned when the binary lacks the concat demuxer.
var ErrNoConcatDemuxer = errors.New("ffmpeg has no concat demuxer")

// FFmpeg manages the FFmpeg binary and its skills
type FFmpeg interface {
	Binary() string
	Env() []string
	ValidateInput(path string) bool
	Skills() skills.Skills
	ReloadSkills() error
}

// Config for FFmpeg
type Config struct {
	Binary string
	// Env of every ffmpeg invocation. Nil inherits the current environment.
	Env            []string
	ValidatorInput Validator
}

type ffmpeg struct {
	binary      string
	env         []string
	validatorIn Validator
	skills      skills.Skills
	skillsLock  sync.RWMutex
}

// New looks up the binary and probes its skills. A binary without the concat
// demuxer is rejected.
func New(config Config) (FFmpeg, error) {
	binary, err := exec.LookPath(config.Binary)
	if err != nil {
		return nil, fmt.Errorf("invalid ffmpeg binary: %w", err)
	}

	f := &ffmpeg{
		binary: binary,
		env:    config.Env,
	}

	if config.ValidatorInput != nil {
		f.validatorIn = config.ValidatorInput
	} else {
		f.validatorIn, _ = NewValidator(nil, nil, nil)
	}

	s, err := skills.New(f.binary, f.env)
	if err != nil {
		return nil, fmt.Errorf("invalid ffmpeg: %w", err)
	}
	if !s.HasDemuxer("concat") {
		return nil, ErrNoConcatDemuxer
	}
	f.skills = s

	return f, nil
}

func (f *ffmpeg) Binary() string {
	return f.binary
}

func (f *ffmpeg) Env() []string {
	return f.env
}

func (f *ffmpeg) ValidateInput(path string) bool {
	return f.validatorIn.IsValid(path)
}

func (f *ffmpeg) Skills() skills.Skills {
	f.skillsLock.RLock()
	defer f.skillsLock.RUnlock()
	return f.skills
}

func (f *ffmpeg) ReloadSkills() error {
	s, err := skills.New(f.binary, f.env)
	if err != nil {
		return fmt.Errorf("reload skills: %w", err)
	}
	f.skillsLock.Lock()
	f.skills = s
	f.skillsLock.Unlock()
	return nil
}
