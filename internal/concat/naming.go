// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConcat - 无损媒体拼接工具

package concat

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	mergedSuffix   = "_MERGED"
	manifestSuffix = "_Concat.txt"
	separators     = "_-. "
)

// sequence tokens of numbered recordings, in order of preference
var sequenceTokens = []string{"000", "001"}

// OutputPaths derives the merged output and the manifest path from the first
// input. A "000" or "001" sequence token is dropped from the name (clip_000.mp4
// becomes clip.mp4), otherwise _MERGED is appended (a.mkv becomes
// a_MERGED.mkv). Both files live next to the first input.
func OutputPaths(first string) (output, manifest string) {
	dir := filepath.Dir(first)
	ext := filepath.Ext(first)
	name := strings.TrimSuffix(filepath.Base(first), ext)

	base := ""
	for _, token := range sequenceTokens {
		i := strings.LastIndex(name, token)
		if i < 0 {
			continue
		}
		before, after := name[:i], name[i+len(token):]
		if after == "" {
			before = strings.TrimRight(before, separators)
		} else if before == "" {
			after = strings.TrimLeft(after, separators)
		}
		base = before + after
		break
	}
	if base == "" {
		base = name + mergedSuffix
	}

	output = filepath.Join(dir, base+ext)
	manifest = filepath.Join(dir, base+manifestSuffix)
	return output, manifest
}

// ManifestLine is the concat demuxer directive for path.
func ManifestLine(path string) string {
	return "file '" + strings.ReplaceAll(path, "'", `'\''`) + "'"
}

// writeManifest creates (or truncates) the manifest with one line per path.
func writeManifest(manifest string, paths []string) error {
	f, err := os.Create(manifest)
	if err != nil {
		return fmt.Errorf("create manifest: %w", err)
	}

	w := bufio.NewWriter(f)
	for _, p := range paths {
		if _, err := w.WriteString(ManifestLine(p) + "\n"); err != nil {
			f.Close()
			return fmt.Errorf("write manifest: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write manifest: %w", err)
	}
	return f.Close()
}
