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
	"log/slog"

	das "github.com/dotbitHQ/did-contracts-sub003"
	"github.com/dotbitHQ/did-contracts-sub003/host"
	"github.com/dotbitHQ/did-contracts-sub003/internal/config"
	"github.com/dotbitHQ/did-contracts-sub003/txstore"
	"github.com/prometheus/client_golang/prometheus"
)

func openStore(
	cfg *config.Config,
	logger *slog.Logger,
) (*txstore.Store, error) {
	return txstore.New(
		txstore.WithDataDir(cfg.StorePath),
		txstore.WithLogger(logger),
	)
}

// loadInput resolves arg to a transaction. It is a YAML fixture path, or a
// fixture name in the store when fromStore is set
func loadInput(
	cfg *config.Config,
	logger *slog.Logger,
	arg string,
	fromStore bool,
) (*host.Transaction, error) {
	if !fromStore {
		f, err := txstore.LoadFixture(arg)
		if err != nil {
			return nil, err
		}
		return f.Transaction()
	}
	store, err := openStore(cfg, logger)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.Get(arg)
}

// dasOptions maps the program config onto invocation options
func dasOptions(
	cfg *config.Config,
	logger *slog.Logger,
	reg prometheus.Registerer,
) ([]das.ConfigOptionFunc, error) {
	typeID, err := cfg.ConfigCellTypeIDBytes()
	if err != nil {
		return nil, fmt.Errorf("config cell type ID is required: %w", err)
	}
	opts := []das.ConfigOptionFunc{
		das.WithLogger(logger),
		das.WithProbeSize(cfg.ProbeSize),
		das.WithMaxWitnesses(cfg.MaxWitnesses),
		das.WithConfigCellTypeID(typeID),
	}
	if reg != nil {
		opts = append(opts, das.WithPromRegistry(reg))
	}
	return opts, nil
}
