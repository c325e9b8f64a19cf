// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dotbitHQ/did-contracts-sub003/errcode"
	"github.com/dotbitHQ/did-contracts-sub003/history"
	"github.com/spf13/cobra"
)

func historyCommand() *cobra.Command {
	var (
		limit    int
		failures bool
	)
	cmd := &cobra.Command{
		Use:   "history [fixture]",
		Short: "Show recorded verification runs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFromCommand(cmd)
			logger := commonRun()
			store, err := history.New(cfg.StorePath, logger)
			if err != nil {
				return err
			}
			defer store.Close()
			out := cmd.OutOrStdout()
			if failures {
				counts, err := store.FailureCounts(cmd.Context())
				if err != nil {
					return err
				}
				for code, count := range counts {
					fmt.Fprintf(out, "%s\t%d\n", errcode.Code(code), count)
				}
				return nil
			}
			fixture := ""
			if len(args) > 0 {
				fixture = args[0]
			}
			runs, err := store.List(cmd.Context(), fixture, limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tFIXTURE\tACTION\tRESULT")
			for _, run := range runs {
				result := "ok"
				if run.Failed() {
					result = fmt.Sprintf("%s: %s", errcode.Code(run.Code), run.Error)
				}
				fmt.Fprintf(
					tw,
					"%s\t%s\t%s\t%s\n",
					run.CreatedAt.Format(time.RFC3339),
					run.Fixture,
					run.Action,
					result,
				)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to show")
	cmd.Flags().
		BoolVar(&failures, "failures", false, "show failure counts per error code")
	return cmd
}
