// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConcat - 无损媒体拼接工具

package parse

import (
	"container/ring"
	"sync"
	"time"

	"github.com/ZSC714725/mediaconcat/internal/process"
)

// Log keeps the most recent diagnostic lines
type Log struct {
	log      *ring.Ring
	logLines int
	lock     sync.RWMutex
}

// NewLog creates a Log holding up to lines entries (100 if lines <= 0).
func NewLog(lines int) *Log {
	if lines <= 0 {
		lines = 100
	}
	return &Log{log: ring.New(lines), logLines: lines}
}

// Append stores line with the current time
func (l *Log) Append(line string) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.log.Value = process.Line{Timestamp: time.Now(), Data: line}
	l.log = l.log.Next()
}

// Reset drops all lines
func (l *Log) Reset() {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.log = ring.New(l.logLines)
}

// Lines returns the stored lines, oldest first
func (l *Log) Lines() []process.Line {
	var out []process.Line
	l.lock.RLock()
	l.log.Do(func(v interface{}) {
		if v != nil {
			out = append(out, v.(process.Line))
		}
	})
	l.lock.RUnlock()
	return out
}
