// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConcat - 无损媒体拼接工具

package concat

import "fmt"

// State of a concat job
type State string

const (
	StateIdle      State = "idle"
	StateProbing   State = "probing"
	StateMerging   State = "merging"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

var transitions = map[State][]State{
	StateIdle:    {StateProbing},
	StateProbing: {StateMerging, StateFailed, StateCancelled},
	StateMerging: {StateCompleted, StateFailed, StateCancelled},
}

// CanTransition reports whether a job may move from s to next.
func (s State) CanTransition(next State) bool {
	for _, to := range transitions[s] {
		if to == next {
			return true
		}
	}
	return false
}

// IsActive reports whether a process may be running in this state.
func (s State) IsActive() bool {
	return s == StateProbing || s == StateMerging
}

// IsFinal reports whether the job concluded.
func (s State) IsFinal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

func transitionError(from, to State) error {
	return fmt.Errorf("can't change from %s to %s", from, to)
}
