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

	"github.com/dotbitHQ/did-contracts-sub003/txstore"
	"github.com/spf13/cobra"
)

func storeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage the fixture store",
	}
	cmd.AddCommand(
		storePutCommand(),
		storeGetCommand(),
		storeListCommand(),
		storeDeleteCommand(),
	)
	return cmd
}

// withStore opens the configured fixture store around fn
func withStore(
	cmd *cobra.Command,
	fn func(*txstore.Store) error,
) error {
	cfg := configFromCommand(cmd)
	logger := commonRun()
	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func storePutCommand() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "put <fixture.yaml>",
		Short: "Load a YAML fixture into the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := txstore.LoadFixture(args[0])
			if err != nil {
				return err
			}
			if name != "" {
				f.Name = name
			}
			tx, err := f.Transaction()
			if err != nil {
				return err
			}
			return withStore(cmd, func(s *txstore.Store) error {
				return s.Put(f.Name, tx)
			})
		},
	}
	cmd.Flags().
		StringVar(&name, "name", "", "store under this name instead of the fixture name")
	return cmd
}

func storeGetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <name>",
		Short: "Print a stored fixture as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(s *txstore.Store) error {
				tx, err := s.Get(args[0])
				if err != nil {
					return err
				}
				return txstore.WriteFixture(
					cmd.OutOrStdout(),
					txstore.NewFixture(args[0], tx),
				)
			})
		},
	}
	return cmd
}

func storeListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored fixtures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(s *txstore.Store) error {
				names, err := s.List()
				if err != nil {
					return err
				}
				for _, name := range names {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			})
		},
	}
	return cmd
}

func storeDeleteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Remove a stored fixture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(s *txstore.Store) error {
				return s.Delete(args[0])
			})
		},
	}
	return cmd
}
