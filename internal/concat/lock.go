// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConcat - 无损媒体拼接工具

package concat

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// outputLock guards an output path across jobs and processes
type outputLock struct {
	lock *flock.Flock
}

func lockPath(dir, output string) string {
	if abs, err := filepath.Abs(output); err == nil {
		output = abs
	}
	sum := sha1.Sum([]byte(output))
	return filepath.Join(dir, "mediaconcat-"+hex.EncodeToString(sum[:8])+".lock")
}

func acquireOutputLock(dir, output string) (*outputLock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}

	l := flock.New(lockPath(dir, output))
	locked, err := l.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", l.Path(), err)
	}
	if !locked {
		return nil, ErrBusy
	}
	return &outputLock{lock: l}, nil
}

// release unlocks. The lock file stays, another process may already wait
// on it.
func (l *outputLock) release() error {
	return l.lock.Unlock()
}
