// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConcat - 无损媒体拼接工具

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ZSC714725/mediaconcat/internal/api"
	"github.com/ZSC714725/mediaconcat/internal/history"
	"github.com/ZSC714725/mediaconcat/internal/job"
	"github.com/ZSC714725/mediaconcat/internal/logger"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string
	var ffmpegBin string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP job service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if bind != "" {
				cfg.Server.Bind = bind
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

			storeConfig := job.StoreConfig{
				FFmpeg:   ff,
				LockDir:  cfg.Lock.Dir,
				LogLines: cfg.FFmpeg.LogLines,
				Logger:   log,
			}
			var lister api.HistoryLister
			if cfg.History.Path != "" {
				hist, err := history.Open(cfg.History.Path)
				if err != nil {
					return err
				}
				defer hist.Close()
				storeConfig.Recorder = hist
				lister = hist
			}

			store := job.NewStore(storeConfig)
			handler := api.NewHandler(store, ff, lister, logger.WithPrefix(log, "api: "))
			srv := &http.Server{
				Addr:              cfg.Server.Bind,
				Handler:           api.NewRouter(handler),
				ReadHeaderTimeout: 10 * time.Second,
			}

			sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()
			log.Info("MediaConcat %s listening on %s (ffmpeg %s)", version, cfg.Server.Bind, ff.Binary())

			select {
			case err := <-errCh:
				store.Close()
				return err
			case <-sigCtx.Done():
			}

			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			err = srv.Shutdown(shutdownCtx)
			store.Close()
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Bind address (overrides config)")
	cmd.Flags().StringVar(&ffmpegBin, "ffmpeg", "", "FFmpeg binary path (overrides config)")
	return cmd
}
