// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConcat - 无损媒体拼接工具

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/ZSC714725/mediaconcat/internal/api"
	"github.com/spf13/cobra"
)

const jobsTimeout = 5 * time.Second

func newJobsCommand(ctx *commandContext) *cobra.Command {
	var server string

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List the jobs of a running service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if server == "" {
				server = serverURL(cfg.Server.Bind)
			}

			jobs, err := fetchJobs(cmd.Context(), server)
			if err != nil {
				return err
			}
			if len(jobs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No jobs")
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Reference", "State", "Progress", "Inputs", "Output"},
				jobRows(jobs),
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "Service URL (defaults to the configured bind address)")
	return cmd
}

// serverURL turns a listen address into a URL a local client can dial.
func serverURL(bind string) string {
	host, port, err := net.SplitHostPort(bind)
	if err != nil {
		return "http://" + bind
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}

func fetchJobs(ctx context.Context, server string) ([]api.Job, error) {
	ctx, cancel := context.WithTimeout(ctx, jobsTimeout)
	defer cancel()

	url := strings.TrimRight(server, "/") + "/api/v1/jobs?filter=config,state"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("service not reachable at %s: %w", server, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr api.ErrorResponse
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("list jobs: %s", apiErr.Message)
		}
		return nil, fmt.Errorf("list jobs: %s", resp.Status)
	}

	var jobs []api.Job
	if err := json.NewDecoder(resp.Body).Decode(&jobs); err != nil {
		return nil, fmt.Errorf("decode jobs: %w", err)
	}
	return jobs, nil
}

func jobRows(jobs []api.Job) [][]string {
	rows := make([][]string, 0, len(jobs))
	for _, j := range jobs {
		row := []string{j.ID, j.Reference, "", "", "", ""}
		if j.State != nil {
			state := j.State.State
			if j.State.Paused {
				state += " (paused)"
			}
			row[2] = state
			if p := j.State.Progress; p != nil {
				row[3] = p.Percent
				if p.Total > 0 {
					row[3] = fmt.Sprintf("%.0f%%", p.Overall*100)
				}
			}
			row[5] = j.State.Output
		}
		if j.Config != nil {
			row[4] = fmt.Sprint(len(j.Config.Inputs))
		}
		rows = append(rows, row)
	}
	return rows
}
