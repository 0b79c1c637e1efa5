// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConcat - 无损媒体拼接工具

package job

import "errors"

var (
	ErrNotFound       = errors.New("job not found")
	ErrJobExists      = errors.New("job already exists")
	ErrInvalidConfig  = errors.New("invalid config: need at least two inputs")
	ErrInvalidInput   = errors.New("invalid input path")
	ErrUnknownCommand = errors.New("unknown command")
	ErrStoreClosed    = errors.New("job store closed")
)
