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

// Package das decodes, validates and queries the witnesses of one
// transaction on behalf of the account contracts.
package das

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/dotbitHQ/did-contracts-sub003/action"
	"github.com/dotbitHQ/did-contracts-sub003/entity"
	"github.com/dotbitHQ/did-contracts-sub003/errcode"
	"github.com/dotbitHQ/did-contracts-sub003/host"
	"github.com/dotbitHQ/did-contracts-sub003/registry"
	"github.com/dotbitHQ/did-contracts-sub003/verify"
	"github.com/dotbitHQ/did-contracts-sub003/witness"
)

const tracerName = "github.com/dotbitHQ/did-contracts-sub003"

// Invocation is the state of one contract execution: the witness index,
// the parsed action and the config registry. Nothing in it outlives the
// execution and it is not safe for concurrent use.
type Invocation struct {
	config   Config
	tracer   trace.Tracer
	parser   *witness.Parser
	registry *registry.Registry
	action   *action.Parsed
}

// New indexes the witnesses of the transaction exposed by h and parses its
// action
func New(ctx context.Context, h host.Host, cfg Config) (*Invocation, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	inv := &Invocation{
		config: cfg,
		tracer: noop.NewTracerProvider().Tracer(tracerName),
	}
	if cfg.tracing {
		provider := cfg.tracerProvider
		if provider == nil {
			provider = otel.GetTracerProvider()
		}
		inv.tracer = provider.Tracer(tracerName)
	}
	ctx, span := inv.tracer.Start(ctx, "das.New")
	defer span.End()
	if err := inv.load(ctx, h); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invocation setup failed")
		return nil, err
	}
	span.SetAttributes(attribute.String("action", inv.action.Action.String()))
	return inv, nil
}

func (i *Invocation) load(ctx context.Context, h host.Host) error {
	i.parser = witness.NewParser(
		h,
		witness.ParserConfig{
			Logger:       i.config.logger,
			Metrics:      i.config.metrics,
			ProbeSize:    i.config.probeSize,
			MaxWitnesses: i.config.maxWitnesses,
		},
	)
	if err := i.parser.Scan(); err != nil {
		return fmt.Errorf("failed to index witnesses: %w", err)
	}
	parsed, err := action.FromParser(i.parser)
	if err != nil {
		// Entity decode failures are already counted by the parser
		var decodeErr *witness.DecodeError
		if !errors.As(err, &decodeErr) {
			i.config.metrics.Failure(err)
		}
		return fmt.Errorf("failed to parse action: %w", err)
	}
	i.action = parsed
	i.registry = registry.New(
		ctx,
		i.parser,
		registry.Config{
			Logger:           i.config.logger,
			Tracer:           i.tracer,
			ConfigCellTypeID: i.config.configCellTypeID,
		},
	)
	i.config.logger.Debug(
		"invocation ready",
		"component", "das",
		"action", parsed.Action.String(),
		"params", parsed.Params.Kind().String(),
	)
	return nil
}

func (i *Invocation) Parser() *witness.Parser      { return i.parser }
func (i *Invocation) Registry() *registry.Registry { return i.registry }
func (i *Invocation) Action() *action.Parsed       { return i.action }
func (i *Invocation) Loader() *host.Loader         { return i.parser.Loader() }

// MainConfig returns the main config, checking that it names the config
// cell type ID the invocation was configured with
func (i *Invocation) MainConfig() (*entity.ConfigCellMain, error) {
	mainCfg, err := i.registry.Main()
	if err != nil {
		return nil, err
	}
	if got := mainCfg.TypeIDTable().ConfigCell(); got != i.config.configCellTypeID {
		return nil, errcode.New(
			errcode.ConfigCellTypeIDMismatch,
			"main config names config cell type ID %x, expected %x",
			got,
			i.config.configCellTypeID,
		)
	}
	return mainCfg, nil
}

// Summary describes the shape of the transaction
type Summary struct {
	Action       string           `yaml:"action"`
	Params       string           `yaml:"params"`
	DataTypes    []string         `yaml:"dataTypes"`
	AccountCells map[string][]int `yaml:"accountCells,omitempty"`
	Inputs       int              `yaml:"inputs"`
	Outputs      int              `yaml:"outputs"`
	CellDeps     int              `yaml:"cellDeps"`
}

// Summarize counts the cells of the transaction and, when the main config
// is present, locates its account cells
func (i *Invocation) Summarize() (*Summary, error) {
	ret := &Summary{
		Action: i.action.Action.String(),
		Params: i.action.Params.Kind().String(),
	}
	recs, err := i.parser.Records()
	if err != nil {
		return nil, err
	}
	for _, rec := range recs {
		ret.DataTypes = append(ret.DataTypes, rec.Header.DataType.String())
	}
	loader := i.Loader()
	counts := []struct {
		source host.Source
		dst    *int
	}{
		{host.SourceInput, &ret.Inputs},
		{host.SourceOutput, &ret.Outputs},
		{host.SourceCellDep, &ret.CellDeps},
	}
	for _, count := range counts {
		n, err := loader.CountCells(count.source)
		if err != nil {
			return nil, fmt.Errorf("count %s cells: %w", count.source, err)
		}
		*count.dst = n
	}
	mainCfg, err := i.MainConfig()
	if err != nil {
		if errors.Is(err, errcode.ConfigCellNotFound) {
			return ret, nil
		}
		return nil, err
	}
	accountTypeID := mainCfg.TypeIDTable().AccountCell()
	ret.AccountCells = make(map[string][]int)
	for _, source := range []host.Source{host.SourceInput, host.SourceOutput} {
		cells, err := verify.FindCellsByTypeID(loader, accountTypeID, source)
		if err != nil {
			return nil, err
		}
		for _, cell := range cells {
			ret.AccountCells[source.String()] = append(
				ret.AccountCells[source.String()],
				cell.Index,
			)
		}
	}
	return ret, nil
}
