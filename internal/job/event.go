// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConcat - 无损媒体拼接工具

package job

import (
	"sync"
	"time"
)

// EventType names a job event
type EventType string

const (
	EventFile     EventType = "file"
	EventValue    EventType = "value"
	EventOutput   EventType = "output"
	EventComplete EventType = "complete"
	EventError    EventType = "error"
	EventState    EventType = "state"
)

// Event is pushed to the subscribers of a job
type Event struct {
	Type     EventType `json:"type"`
	JobID    string    `json:"job_id"`
	Time     time.Time `json:"time"`
	Progress *Progress `json:"progress,omitempty"`
	State    string    `json:"state,omitempty"`
	Path     string    `json:"path,omitempty"`
	Kind     string    `json:"kind,omitempty"`
	Message  string    `json:"message,omitempty"`
}

const subscriberBuffer = 64

// broadcaster fans events out to subscribers. Slow subscribers lose events
// instead of stalling the job.
type broadcaster struct {
	mu     sync.Mutex
	subs   map[chan Event]struct{}
	closed bool
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[chan Event]struct{})}
}

func (b *broadcaster) subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	b.subs[ch] = struct{}{}

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
	}
}

func (b *broadcaster) publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// close ends every subscription
func (b *broadcaster) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for ch := range b.subs {
		close(ch)
	}
	b.subs = map[chan Event]struct{}{}
}
