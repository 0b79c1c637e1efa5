// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConcat - 无损媒体拼接工具

package job

// Config for a concat job
type Config struct {
	ID        string   `json:"id"`
	Reference string   `json:"reference"`
	Inputs    []string `json:"inputs"`
}

// Command is a control order for a running job
type Command string

const (
	CommandPause  Command = "pause"
	CommandResume Command = "resume"
	CommandCancel Command = "cancel"
)

// ParseCommand validates a command name.
func ParseCommand(s string) (Command, error) {
	switch c := Command(s); c {
	case CommandPause, CommandResume, CommandCancel:
		return c, nil
	}
	return "", ErrUnknownCommand
}
