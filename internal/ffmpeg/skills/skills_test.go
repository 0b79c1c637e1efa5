// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConcat - 无损媒体拼接工具

package skills

import "testing"

func TestParseVersion(t *testing.T) {
	out := []byte(`ffmpeg version 6.1 Copyright (c) 2000-2023 the FFmpeg developers
  built with gcc 13.2.1 (GCC) 20230801
  configuration: --prefix=/usr --enable-gpl
  libavutil      58. 29.100 / 58. 29.100
  libavformat    60. 16.100 / 60. 16.100
`)
	info := parseVersion(out)
	if info.Version != "6.1.0" {
		t.Fatalf("version = %q", info.Version)
	}
	if info.Compiler != "gcc 13.2.1 (GCC) 20230801" {
		t.Fatalf("compiler = %q", info.Compiler)
	}
	if info.Configuration != "--prefix=/usr --enable-gpl" {
		t.Fatalf("configuration = %q", info.Configuration)
	}
	if len(info.Libraries) != 2 || info.Libraries[1].Name != "libavformat" {
		t.Fatalf("libraries = %+v", info.Libraries)
	}
}

func TestParseDemuxers(t *testing.T) {
	out := []byte(`File formats:
 D. = Demuxing supported
 .E = Muxing supported
 --
 D  concat          Virtual concatenation script
 D  mov,mp4,m4a,3gp,3g2,mj2 QuickTime / MOV
  E mp4             MP4 (MPEG-4 Part 14)
`)
	s := Skills{Demuxers: parseDemuxers(out)}
	if !s.HasDemuxer("concat") {
		t.Fatal("concat demuxer not detected")
	}
	if !s.HasDemuxer("mp4") {
		t.Fatal("aliases of a demuxer should be listed")
	}
	for _, f := range s.Demuxers {
		if f.Id == "mp4" && f.Name != "QuickTime / MOV" {
			t.Fatalf("mp4 demuxer name = %q", f.Name)
		}
	}
	if len(s.Demuxers) != 7 {
		t.Fatalf("expected 7 demuxer ids, got %d: %+v", len(s.Demuxers), s.Demuxers)
	}
}
