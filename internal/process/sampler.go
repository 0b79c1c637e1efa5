// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConcat - 无损媒体拼接工具

package process

import (
	"sync"

	gopsutilprocess "github.com/shirou/gopsutil/v3/process"
)

// Usage is the resource consumption of a process
type Usage struct {
	CPU    float64
	Memory uint64
}

// Sampler reports CPU/memory usage of a process. NullSampler does nothing.
type Sampler interface {
	Start(pid int32) error
	Stop()
	Current() Usage
}

type nullSampler struct{}

// NewNullSampler returns a no-op sampler
func NewNullSampler() Sampler {
	return &nullSampler{}
}

func (s *nullSampler) Start(pid int32) error { return nil }
func (s *nullSampler) Stop()                 {}
func (s *nullSampler) Current() Usage        { return Usage{} }

// sysSampler 使用 gopsutil 采集进程 CPU 和内存
type sysSampler struct {
	mu   sync.RWMutex
	proc *gopsutilprocess.Process
}

// NewSysSampler 创建基于系统调用的采样器
func NewSysSampler() Sampler {
	return &sysSampler{}
}

func (s *sysSampler) Start(pid int32) error {
	proc, err := gopsutilprocess.NewProcess(pid)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.proc = proc
	s.mu.Unlock()
	return nil
}

func (s *sysSampler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proc = nil
}

func (s *sysSampler) Current() Usage {
	s.mu.RLock()
	proc := s.proc
	s.mu.RUnlock()

	var u Usage
	if proc == nil {
		return u
	}
	if cpuPct, err := proc.CPUPercent(); err == nil {
		u.CPU = cpuPct
	}
	if memInfo, err := proc.MemoryInfo(); err == nil && memInfo != nil {
		u.Memory = memInfo.RSS
	}
	return u
}
