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
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/dotbitHQ/did-contracts-sub003/action"
	"github.com/dotbitHQ/did-contracts-sub003/host"
	"github.com/dotbitHQ/did-contracts-sub003/internal/config"
	"github.com/dotbitHQ/did-contracts-sub003/witness"
	"github.com/spf13/cobra"
)

// inspectTransaction indexes every witness of tx and prints one row per
// witness with its decoded entity type or decode error
func inspectTransaction(
	w io.Writer,
	tx *host.Transaction,
	cfg *config.Config,
	logger *slog.Logger,
) error {
	parser := witness.NewParser(
		tx,
		witness.ParserConfig{
			Logger:       logger,
			ProbeSize:    cfg.ProbeSize,
			MaxWitnesses: cfg.MaxWitnesses,
		},
	)
	if err := parser.Scan(); err != nil {
		return fmt.Errorf("failed to index witnesses: %w", err)
	}
	if parsed, err := action.FromParser(parser); err != nil {
		fmt.Fprintf(w, "action: error: %s\n", err)
	} else {
		fmt.Fprintf(
			w,
			"action: %s (params %s)\n",
			parsed.Action,
			parsed.Params.Kind(),
		)
	}
	records, err := parser.Records()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tDATA TYPE\tVERSION\tSIZE\tHASH\tENTITY")
	for _, rec := range records {
		hash := parser.PayloadHash(rec)
		entityDesc := ""
		if v, err := parser.Entity(rec); err != nil {
			entityDesc = "error: " + err.Error()
		} else {
			entityDesc = fmt.Sprintf("%T", v)
		}
		fmt.Fprintf(
			tw,
			"%d\t%s\t%d\t%d\t%x\t%s\n",
			rec.Position,
			rec.Header.DataType,
			rec.Header.Version,
			len(rec.Payload),
			hash[:8],
			entityDesc,
		)
	}
	return tw.Flush()
}

func inspectCommand() *cobra.Command {
	var fromStore bool
	cmd := &cobra.Command{
		Use:   "inspect <fixture>",
		Short: "Index and decode every witness of a transaction",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cfg := configFromCommand(cmd)
			logger := commonRun()
			tx, err := loadInput(cfg, logger, args[0], fromStore)
			if err != nil {
				slog.Error(err.Error())
				os.Exit(1)
			}
			if err := inspectTransaction(cmd.OutOrStdout(), tx, cfg, logger); err != nil {
				slog.Error(err.Error())
				os.Exit(1)
			}
		},
	}
	cmd.Flags().
		BoolVar(&fromStore, "store", false, "read the named fixture from the fixture store")
	return cmd
}
