// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConcat - 无损媒体拼接工具

package concat

import (
	"errors"
	"fmt"
)

var (
	ErrTooFewSegments = errors.New("at least two files are required to concat")
	ErrCancelled      = errors.New("concat cancelled")
	// ErrBusy is returned when the orchestrator already runs a job or the
	// output is locked by another one.
	ErrBusy = errors.New("concat busy")
)

// ErrorKind classifies concat failures
type ErrorKind int

const (
	KindProbeFailure ErrorKind = iota + 1
	KindPathTooLong
	KindIncompatibleFiles
	KindWriteFailure
	KindUnexpected
)

func (k ErrorKind) String() string {
	switch k {
	case KindProbeFailure:
		return "probe_failure"
	case KindPathTooLong:
		return "path_too_long"
	case KindIncompatibleFiles:
		return "incompatible_files"
	case KindWriteFailure:
		return "write_failure"
	case KindUnexpected:
		return "unexpected"
	}
	return "unknown"
}

// NoValidFilesMessage is reported when probing resolved fewer than two durations.
const NoValidFilesMessage = "No valid files found to merge."

// Error is a classified concat failure. Message is meant for humans.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error

	reported bool
}

func newError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a concat failure, 0 if err is not one.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
