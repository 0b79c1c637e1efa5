// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConcat - 无损媒体拼接工具

package main

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ZSC714725/mediaconcat/internal/config"
	"github.com/ZSC714725/mediaconcat/internal/ffmpeg"
	"github.com/ZSC714725/mediaconcat/internal/logger"
	"github.com/spf13/cobra"
)

var version = "dev"

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag, logLevelFlag: logLevelFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		path := "config.yaml"
		if c.configFlag != nil && strings.TrimSpace(*c.configFlag) != "" {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil && *c.logLevelFlag != "" {
			cfg.Log.Level = *c.logLevelFlag
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) logger(cfg *config.Config) (logger.Logger, error) {
	return logger.NewWithConfig("", logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
	})
}

// newFFmpeg checks the configured binary and its input rules.
func newFFmpeg(cfg *config.Config) (ffmpeg.FFmpeg, error) {
	validator, err := ffmpeg.NewValidator(cfg.FFmpeg.AllowedExtensions, nil, cfg.FFmpeg.Block)
	if err != nil {
		return nil, fmt.Errorf("input rules: %w", err)
	}
	return ffmpeg.New(ffmpeg.Config{
		Binary:         cfg.FFmpeg.Path,
		ValidatorInput: validator,
	})
}

func newRootCommand() *cobra.Command {
	var configFlag string
	var logLevelFlag string

	ctx := newCommandContext(&configFlag, &logLevelFlag)

	rootCmd := &cobra.Command{
		Use:           "mediaconcat",
		Short:         "Lossless media concatenation with ffmpeg",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path (YAML or TOML)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newRunCommand(ctx))
	rootCmd.AddCommand(newJobsCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "mediaconcat", version)
		},
	})

	return rootCmd
}
