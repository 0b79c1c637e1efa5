// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConcat - 无损媒体拼接工具

// Package testsupport lets tests drive a scripted stand-in for ffmpeg.
//
// The fake is the test binary itself: a package's TestMain calls
// MaybeRunFakeFFmpeg first, and tests start FakeFFmpeg().Binary with
// FakeFFmpeg().Env. Input "media" files are plain text holding their duration
// as HH:MM:SS.cc; anything else is reported as invalid data.
package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"
)

const (
	envFake = "MEDIACONCAT_FAKE_FFMPEG"
	envMode = "MEDIACONCAT_FAKE_MODE"
)

// Fake ffmpeg behaviours for the merge invocation.
const (
	ModeNormal       = "normal"
	ModeSlow         = "slow"
	ModeIncompatible = "incompatible"
	ModeNoSpace      = "nospace"
	ModePathTooLong  = "toolong"
	ModeCrash        = "crash"
	ModeSlowProbe    = "slowprobe"
	ModeLines        = "lines"
)

// Fake describes how to launch the fake transcoder.
type Fake struct {
	Binary string
	Env    []string
	Mode   string
}

// FakeFFmpeg returns the launch description for the given mode.
func FakeFFmpeg(mode string) Fake {
	env := append(os.Environ(), envFake+"=1", envMode+"="+mode)
	return Fake{Binary: os.Args[0], Env: env, Mode: mode}
}

// Setenv exports the fake's variables for the rest of the test, so code
// that launches ffmpeg with the inherited environment reaches the fake.
func (f Fake) Setenv(t testing.TB) {
	t.Helper()
	t.Setenv(envFake, "1")
	t.Setenv(envMode, f.Mode)
}

// MaybeRunFakeFFmpeg turns the current process into the fake transcoder when
// it was started through FakeFFmpeg. It never returns in that case.
func MaybeRunFakeFFmpeg() {
	if os.Getenv(envFake) != "1" {
		return
	}
	os.Exit(runFake(os.Args[1:], os.Getenv(envMode)))
}

// WriteMedia creates a fake media file holding the given duration text.
func WriteMedia(t testing.TB, dir, name, duration string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(duration+"\n"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

var (
	clockRe    = regexp.MustCompile(`^(\d{2}):(\d{2}):(\d{2})\.(\d{2})$`)
	manifestRe = regexp.MustCompile(`^file '(.*)'$`)
)

func runFake(args []string, mode string) int {
	switch {
	case hasArg(args, "-version"):
		fmt.Println("ffmpeg version 7.1-fake Copyright (c) 2000-2024 the FFmpeg developers")
		fmt.Println("built with gcc 14 (GCC)")
		return 0
	case hasArg(args, "-demuxers"):
		fmt.Println("File formats:")
		fmt.Println(" D. = Demuxing supported")
		fmt.Println(" .E = Muxing supported")
		fmt.Println(" --")
		fmt.Println(" D  concat          Virtual concatenation script")
		fmt.Println(" D  matroska,webm   Matroska / WebM")
		fmt.Println(" D  mov,mp4,m4a,3gp,3g2,mj2 QuickTime / MOV")
		return 0
	case mode == ModeLines:
		for i := 1; i <= 5; i++ {
			fmt.Fprintf(os.Stderr, "line %d\n", i)
			fmt.Fprintf(os.Stdout, "out %d\r", i)
		}
		return 0
	}

	inputs := argValues(args, "-i")
	if len(args) >= 2 && argValue(args, "-f") == "concat" && len(inputs) == 1 {
		return fakeMerge(inputs[0], args[len(args)-1], mode)
	}
	return fakeProbe(inputs, mode)
}

func fakeProbe(inputs []string, mode string) int {
	fmt.Fprintln(os.Stderr, "ffmpeg version 7.1-fake Copyright (c) 2000-2024 the FFmpeg developers")
	for i, in := range inputs {
		if mode == ModeSlowProbe {
			time.Sleep(200 * time.Millisecond)
		}
		data, err := os.ReadFile(in)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: No such file or directory\n", in)
			continue
		}
		clock := strings.TrimSpace(string(data))
		if !clockRe.MatchString(clock) {
			fmt.Fprintf(os.Stderr, "%s: Invalid data found when processing input\n", in)
			continue
		}
		fmt.Fprintf(os.Stderr, "Input #%d, matroska,webm, from '%s':\n", i, in)
		fmt.Fprintf(os.Stderr, "  Duration: %s, start: 0.000000, bitrate: 1200 kb/s\n", clock)
		fmt.Fprintf(os.Stderr, "  Stream #%d:0: Video: h264 (High), yuv420p, 1920x1080, 25 fps\n", i)
	}
	if mode == ModeSlowProbe {
		time.Sleep(30 * time.Second)
	}
	fmt.Fprintln(os.Stderr, "At least one output file must be specified")
	return 1
}

func fakeMerge(manifest, output, mode string) int {
	data, err := os.ReadFile(manifest)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: No such file or directory\n", manifest)
		return 1
	}

	var total time.Duration
	var contents []string
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		m := manifestRe.FindStringSubmatch(line)
		if m == nil {
			fmt.Fprintf(os.Stderr, "[concat @ 0x1] Line %q: unknown keyword\n", line)
			return 1
		}
		body, err := os.ReadFile(m[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "[concat @ 0x1] Impossible to open '%s'\n", m[1])
			return 1
		}
		clock := strings.TrimSpace(string(body))
		total += parseClock(clock)
		contents = append(contents, clock)
	}

	switch mode {
	case ModePathTooLong:
		fmt.Fprintf(os.Stderr, "%s: No such file or directory\n", output)
		return 1
	case ModeCrash:
		fmt.Fprintln(os.Stderr, "Conversion failed!")
		return 1
	}

	if err := os.WriteFile(output, []byte(strings.Join(contents, "\n")), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", output, err)
		return 1
	}
	fmt.Fprintf(os.Stderr, "Input #0, concat, from '%s':\n", manifest)
	fmt.Fprintf(os.Stderr, "  Duration: N/A, start: 0.000000, bitrate: N/A\n")

	switch mode {
	case ModeIncompatible:
		fmt.Fprintln(os.Stderr, "[mp4 @ 0x55d] Application provided invalid, non monotonically increasing dts to muxer in stream 0: 1024 >= 1000 out of order")
		time.Sleep(30 * time.Second)
		return 1
	case ModeNoSpace:
		fmt.Fprint(os.Stderr, progressLine(1, total/4))
		fmt.Fprintln(os.Stderr, "av_interleaved_write_frame(): No space left on device")
		time.Sleep(30 * time.Second)
		return 1
	}

	delay := 2 * time.Millisecond
	if mode == ModeSlow {
		delay = 40 * time.Millisecond
	}
	steps := 40
	for i := 1; i <= steps; i++ {
		at := total * time.Duration(i) / time.Duration(steps)
		fmt.Fprint(os.Stderr, progressLine(i*25, at))
		time.Sleep(delay)
	}
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "video:1024kB audio:128kB subtitle:0kB other streams:0kB global headers:0kB muxing overhead: 0.1%")
	return 0
}

func progressLine(frame int, at time.Duration) string {
	return fmt.Sprintf("frame=%5d fps=250 q=-1.0 size=%8dkB time=%s bitrate=1200.0kbits/s speed=10.0x\r",
		frame, frame*4, FormatClock(at))
}

// FormatClock renders d as ffmpeg does in its diagnostic output.
func FormatClock(d time.Duration) string {
	cs := int64(d / (10 * time.Millisecond))
	h := cs / 360000
	m := cs / 6000 % 60
	s := cs / 100 % 60
	return fmt.Sprintf("%02d:%02d:%02d.%02d", h, m, s, cs%100)
}

func parseClock(clock string) time.Duration {
	m := clockRe.FindStringSubmatch(clock)
	if m == nil {
		return 0
	}
	var parts [4]int64
	for i := range parts {
		parts[i], _ = strconv.ParseInt(m[i+1], 10, 64)
	}
	return time.Duration(parts[0])*time.Hour +
		time.Duration(parts[1])*time.Minute +
		time.Duration(parts[2])*time.Second +
		time.Duration(parts[3])*10*time.Millisecond
}

func hasArg(args []string, name string) bool {
	for _, a := range args {
		if a == name {
			return true
		}
	}
	return false
}

func argValue(args []string, name string) string {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == name {
			return args[i+1]
		}
	}
	return ""
}

func argValues(args []string, name string) []string {
	var out []string
	for i := 0; i+1 < len(args); i++ {
		if args[i] == name {
			out = append(out, args[i+1])
			i++
		}
	}
	return out
}
