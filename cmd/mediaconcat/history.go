// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConcat - 无损媒体拼接工具

package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/ZSC714725/mediaconcat/internal/history"
	"github.com/spf13/cobra"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show finished jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.History.Path == "" {
				return errors.New("history is disabled (set history.path in the config)")
			}

			hist, err := history.Open(cfg.History.Path)
			if err != nil {
				return err
			}
			defer hist.Close()

			entries, err := hist.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "History is empty")
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "State", "Finished", "Took", "Inputs", "Output", "Error"},
				historyRows(entries),
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show")
	return cmd
}

func historyRows(entries []history.Entry) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.ID,
			e.State,
			e.FinishedAt.Local().Format(time.DateTime),
			e.FinishedAt.Sub(e.StartedAt).Round(time.Second).String(),
			fmt.Sprint(len(e.Inputs)),
			e.Output,
			e.Error,
		})
	}
	return rows
}
