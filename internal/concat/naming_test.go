// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConcat - 无损媒体拼接工具

package concat

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOutputPaths(t *testing.T) {
	dir := filepath.Join("media", "rec")
	tests := []struct {
		first    string
		output   string
		manifest string
	}{
		{"clip_000.mp4", "clip.mp4", "clip_Concat.txt"},
		{"clip_001.mp4", "clip.mp4", "clip_Concat.txt"},
		{"a.mkv", "a_MERGED.mkv", "a_MERGED_Concat.txt"},
		{"001_intro.mkv", "intro.mkv", "intro_Concat.txt"},
		{"rec001part.wav", "recpart.wav", "recpart_Concat.txt"},
		{"000.mp3", "000_MERGED.mp3", "000_MERGED_Concat.txt"},
		{"take-000.MP4", "take.MP4", "take_Concat.txt"},
	}

	for _, tt := range tests {
		output, manifest := OutputPaths(filepath.Join(dir, tt.first))
		if want := filepath.Join(dir, tt.output); output != want {
			t.Errorf("%s: output = %q, want %q", tt.first, output, want)
		}
		if want := filepath.Join(dir, tt.manifest); manifest != want {
			t.Errorf("%s: manifest = %q, want %q", tt.first, manifest, want)
		}
	}
}

func TestManifestLine(t *testing.T) {
	tests := map[string]string{
		"/data/clip_000.mp4":    "file '/data/clip_000.mp4'",
		"rel/a b.mkv":           "file 'rel/a b.mkv'",
		"/data/Kevin's cut.mkv": `file '/data/Kevin'\''s cut.mkv'`,
	}
	for path, want := range tests {
		if got := ManifestLine(path); got != want {
			t.Errorf("ManifestLine(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestWriteManifest(t *testing.T) {
	manifest := filepath.Join(t.TempDir(), "clip_Concat.txt")
	if err := os.WriteFile(manifest, []byte("stale content that is longer than the new one\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := writeManifest(manifest, []string{"/a/1.mkv", "/a/2.mkv"}); err != nil {
		t.Fatalf("writeManifest: %v", err)
	}
	data, err := os.ReadFile(manifest)
	if err != nil {
		t.Fatal(err)
	}
	if want := "file '/a/1.mkv'\nfile '/a/2.mkv'\n"; string(data) != want {
		t.Fatalf("manifest = %q, want %q", data, want)
	}
}
