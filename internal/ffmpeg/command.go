// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConcat - 无损媒体拼接工具

package ffmpeg

// ProbeArgs declares every path as an input and nothing else. ffmpeg prints
// the container header of each input, including its duration, then exits
// complaining about the missing output.
func ProbeArgs(paths []string) []string {
	args := []string{"-hide_banner", "-nostdin"}
	for _, p := range paths {
		args = append(args, "-i", p)
	}
	return args
}

// MergeArgs stream copies every stream listed by the concat manifest into
// output. Streams ffmpeg can't identify are skipped instead of failing.
func MergeArgs(manifest, output string) []string {
	return []string{
		"-hide_banner", "-nostdin",
		"-f", "concat",
		"-safe", "0",
		"-i", manifest,
		"-map", "0",
		"-c", "copy",
		"-ignore_unknown",
		output,
	}
}
