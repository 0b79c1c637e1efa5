// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConcat - 无损媒体拼接工具

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ZSC714725/mediaconcat/internal/concat"
	"github.com/ZSC714725/mediaconcat/internal/history"
	"github.com/ZSC714725/mediaconcat/internal/logger"
	"github.com/ZSC714725/mediaconcat/internal/process"
	"github.com/lithammer/shortuuid/v4"
	"github.com/spf13/cobra"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var ffmpegBin string
	var plain bool

	cmd := &cobra.Command{
		Use:   "run <file> <file> [file...]",
		Short: "Concat files locally",
		Long: "Concat the files, in name order, into one file next to the first of them.\n" +
			"Ctrl-C cancels and removes partial output. On unix systems SIGUSR1 toggles pause.",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if ffmpegBin != "" {
				cfg.FFmpeg.Path = ffmpegBin
			}

			log, err := ctx.logger(cfg)
			if err != nil {
				return err
			}
			defer logger.Sync(log)

			ff, err := newFFmpeg(cfg)
			if err != nil {
				return fmt.Errorf("ffmpeg init: %w", err)
			}
			for _, in := range args {
				if !ff.ValidateInput(in) {
					return fmt.Errorf("unsupported input %s (allowed: %s)", in, strings.Join(cfg.FFmpeg.AllowedExtensions, " "))
				}
			}

			orch, err := concat.New(concat.Config{
				Binary:  ff.Binary(),
				Runner:  process.NewRunner(process.Config{Env: ff.Env(), Logger: log}),
				LockDir: cfg.Lock.Dir,
				Logger:  log,
			})
			if err != nil {
				return err
			}

			sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			stopToggle := installPauseToggle(orch, cmd.ErrOrStderr())
			defer stopToggle()

			var sink progressSink
			if !plain && isTerminal(out) {
				sink = newBarSink(out)
			} else {
				sink = newLineSink(out)
			}

			started := time.Now()
			output, err := orch.Concat(sigCtx, args, sink)
			sink.Close()

			if cfg.History.Path != "" {
				recordRun(cfg.History.Path, orch, args, output, err, started, log)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(out, output)
			return nil
		},
	}

	cmd.Flags().StringVar(&ffmpegBin, "ffmpeg", "", "FFmpeg binary path (overrides config)")
	cmd.Flags().BoolVar(&plain, "plain", false, "Print progress lines instead of bars")
	return cmd
}

func recordRun(path string, orch *concat.Orchestrator, inputs []string, output string, runErr error, started time.Time, log logger.Logger) {
	hist, err := history.Open(path)
	if err != nil {
		log.Error("history: %v", err)
		return
	}
	defer hist.Close()

	entry := history.Entry{
		ID:         shortuuid.New(),
		Inputs:     inputs,
		Output:     output,
		State:      string(concat.StateFailed),
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	if j := orch.Job(); j != nil {
		entry.State = string(j.State())
	}
	if runErr != nil {
		entry.Error = runErr.Error()
		var cerr *concat.Error
		if errors.As(runErr, &cerr) {
			entry.Error = cerr.Message
		}
	}
	if err := hist.Record(context.Background(), entry); err != nil {
		log.Error("history: %v", err)
	}
}
