// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConcat - 无损媒体拼接工具

// Package job runs concat jobs on behalf of the API and keeps their state.
package job

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ZSC714725/mediaconcat/internal/concat"
	"github.com/ZSC714725/mediaconcat/internal/ffmpeg"
	"github.com/ZSC714725/mediaconcat/internal/ffmpeg/parse"
	"github.com/ZSC714725/mediaconcat/internal/history"
	"github.com/ZSC714725/mediaconcat/internal/logger"
	"github.com/ZSC714725/mediaconcat/internal/process"

	"github.com/lithammer/shortuuid/v4"
)

// Recorder keeps finished jobs
type Recorder interface {
	Record(ctx context.Context, e history.Entry) error
}

// Store manages jobs in memory
type Store interface {
	Add(config *Config) (*Job, error)
	Get(id string) (*Job, error)
	List(ids []string, reference string) []*Job
	Command(id string, c Command) error
	Delete(id string) error
	// Close cancels every running job and waits for them.
	Close()
}

// StoreConfig for NewStore
type StoreConfig struct {
	FFmpeg ffmpeg.FFmpeg
	// LockDir holds the output locks of the orchestrators.
	LockDir string
	// LogLines is the size of each job's report.
	LogLines int
	// Recorder is optional.
	Recorder   Recorder
	NewSampler func() process.Sampler
	Logger     logger.Logger
}

type store struct {
	ffmpeg     ffmpeg.FFmpeg
	lockDir    string
	logLines   int
	recorder   Recorder
	newSampler func() process.Sampler
	logger     logger.Logger

	ctx    context.Context
	cancel context.CancelFunc

	jobs   map[string]*Job
	closed bool
	mu     sync.RWMutex
}

// NewStore creates a job store
func NewStore(config StoreConfig) Store {
	s := &store{
		ffmpeg:     config.FFmpeg,
		lockDir:    config.LockDir,
		logLines:   config.LogLines,
		recorder:   config.Recorder,
		newSampler: config.NewSampler,
		logger:     config.Logger,
		jobs:       make(map[string]*Job),
	}
	if s.logger == nil {
		s.logger = logger.Nop()
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	return s
}

// Add validates config and starts the job.
func (s *store) Add(config *Config) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStoreClosed
	}
	if len(config.ID) == 0 {
		config.ID = shortuuid.New()
	}
	if len(config.Inputs) < 2 {
		return nil, ErrInvalidConfig
	}
	for _, in := range config.Inputs {
		if !s.ffmpeg.ValidateInput(in) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidInput, in)
		}
	}
	if _, exists := s.jobs[config.ID]; exists {
		return nil, ErrJobExists
	}

	log := logger.WithPrefix(s.logger, "job "+config.ID+": ")
	orch, err := concat.New(concat.Config{
		Binary: s.ffmpeg.Binary(),
		Runner: process.NewRunner(process.Config{
			Env:        s.ffmpeg.Env(),
			NewSampler: s.newSampler,
			Logger:     log,
		}),
		LockDir: s.lockDir,
		Logger:  log,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	j := &Job{
		ID:        config.ID,
		Reference: config.Reference,
		Config:    config,
		CreatedAt: now,
		orch:      orch,
		log:       parse.NewLog(s.logLines),
		events:    newBroadcaster(),
		recorder:  s.recorder,
		logger:    log,
		done:      make(chan struct{}),
		state:     concat.StateIdle,
		updatedAt: now,
	}
	j.ctx, j.cancel = context.WithCancel(s.ctx)
	s.jobs[config.ID] = j

	log.Info("added with %d inputs", len(config.Inputs))
	go j.run()

	return j, nil
}

func (s *store) Get(id string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return j, nil
}

// List returns the jobs matching ids and reference, oldest first. Empty
// filters match everything.
func (s *store) List(ids []string, reference string) []*Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*Job{}
	for _, j := range s.jobs {
		if len(reference) > 0 && j.Reference != reference {
			continue
		}
		if len(ids) > 0 {
			found := false
			for _, id := range ids {
				if j.ID == id {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		out = append(out, j)
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].CreatedAt != out[b].CreatedAt {
			return out[a].CreatedAt < out[b].CreatedAt
		}
		return out[a].ID < out[b].ID
	})
	return out
}

func (s *store) Command(id string, c Command) error {
	j, err := s.Get(id)
	if err != nil {
		return err
	}
	return j.command(c)
}

// Delete cancels the job and forgets it.
func (s *store) Delete(id string) error {
	s.mu.Lock()
	j, ok := s.jobs[id]
	if ok {
		delete(s.jobs, id)
	}
	s.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	return j.stop()
}

func (s *store) Close() {
	s.mu.Lock()
	s.closed = true
	jobs := make([]*Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		jobs = append(jobs, j)
	}
	s.mu.Unlock()

	s.cancel()
	for _, j := range jobs {
		<-j.done
	}
}
