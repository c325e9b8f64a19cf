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

// Package registry resolves the global configs of an invocation. Every
// config is read from its witness once, checked against the config cell
// committing to it and kept for the rest of the invocation.
package registry

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dotbitHQ/did-contracts-sub003/celldata"
	"github.com/dotbitHQ/did-contracts-sub003/entity"
	"github.com/dotbitHQ/did-contracts-sub003/errcode"
	"github.com/dotbitHQ/did-contracts-sub003/host"
	"github.com/dotbitHQ/did-contracts-sub003/witness"
)

const tracerName = "github.com/dotbitHQ/did-contracts-sub003/registry"

type Config struct {
	Logger *slog.Logger
	Tracer trace.Tracer
	// ConfigCellTypeID is the code hash of the type script of config cells
	ConfigCellTypeID [32]byte
}

// Entry is a resolved config
type Entry struct {
	// Entity is the decoded config: a schema entity or a witness.Blob
	Entity   any
	Cell     host.CellMeta
	DataType witness.DataType
	Hash     [witness.HashSize]byte
}

type Registry struct {
	ctx         context.Context
	config      Config
	parser      *witness.Parser
	entries     map[witness.DataType]*Entry
	blobs       map[witness.DataType]any
	configCells map[witness.DataType][]host.CellMeta
}

// New builds an empty registry over the parser's index. ctx parents the
// spans of config lookups.
func New(ctx context.Context, parser *witness.Parser, cfg Config) *Registry {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.Tracer == nil {
		cfg.Tracer = otel.Tracer(tracerName)
	}
	return &Registry{
		ctx:     ctx,
		config:  cfg,
		parser:  parser,
		entries: make(map[witness.DataType]*Entry),
		blobs:   make(map[witness.DataType]any),
	}
}

// Get returns the config of the given data type
func (r *Registry) Get(dt witness.DataType) (*Entry, error) {
	if entry, ok := r.entries[dt]; ok {
		r.parser.Metrics().CacheHit("config")
		return entry, nil
	}
	_, span := r.config.Tracer.Start(
		r.ctx,
		"registry.Get",
		trace.WithAttributes(attribute.String("data_type", dt.String())),
	)
	defer span.End()
	entry, err := r.resolve(dt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "config lookup failed")
		return nil, fmt.Errorf("load %s: %w", dt, err)
	}
	r.entries[dt] = entry
	r.config.Logger.Debug(
		"loaded config",
		"component", "registry",
		"data_type", dt.String(),
		"cell", entry.Cell.String(),
	)
	return entry, nil
}

// resolve finds the witness of dt and checks it against its config cell.
// Failures of the parser's own lookups are counted by the parser
func (r *Registry) resolve(dt witness.DataType) (*Entry, error) {
	if !dt.IsConfig() {
		err := errcode.New(
			errcode.UndefinedDataType,
			"%s is not a config",
			dt,
		)
		r.parser.Metrics().Failure(err)
		return nil, err
	}
	rec, err := r.parser.RecordByDataType(dt)
	if err != nil {
		return nil, err
	}
	cell, err := r.bind(dt, rec)
	if err != nil {
		r.parser.Metrics().Failure(err)
		return nil, err
	}
	v, err := r.parser.Entity(rec)
	if err != nil {
		return nil, err
	}
	return &Entry{
		DataType: dt,
		Entity:   v,
		Hash:     r.parser.PayloadHash(rec),
		Cell:     cell,
	}, nil
}

// bind returns the config cell of dt after checking that it commits to the
// hash of rec
func (r *Registry) bind(
	dt witness.DataType,
	rec *witness.Record,
) (host.CellMeta, error) {
	cell, err := r.configCell(dt)
	if err != nil {
		return cell, err
	}
	data, err := r.parser.Loader().CellData(cell)
	if err != nil {
		return cell, fmt.Errorf("load data of %s: %w", cell, err)
	}
	committed, err := celldata.ConfigCellHash(data)
	if err != nil {
		return cell, fmt.Errorf("%s: %w", cell, err)
	}
	if hash := r.parser.PayloadHash(rec); hash != committed {
		return cell, errcode.New(
			errcode.ConfigCellWitnessInvalid,
			"witness %d hashes to %x, %s commits to %x",
			rec.Position,
			hash,
			cell,
			committed,
		)
	}
	return cell, nil
}

func (r *Registry) configCell(dt witness.DataType) (host.CellMeta, error) {
	if r.configCells == nil {
		cells, err := r.scanConfigCells()
		if err != nil {
			return host.CellMeta{}, err
		}
		r.configCells = cells
	}
	cells := r.configCells[dt]
	switch len(cells) {
	case 0:
		return host.CellMeta{}, errcode.New(
			errcode.ConfigCellNotFound,
			"no config cell for %s in cell deps",
			dt,
		)
	case 1:
		return cells[0], nil
	default:
		return host.CellMeta{}, errcode.New(
			errcode.DuplicatedConfigCellFound,
			"config cells for %s at %s and %s",
			dt,
			cells[0],
			cells[1],
		)
	}
}

// scanConfigCells groups the config cells in cell deps by the data type
// their type script args name
func (r *Registry) scanConfigCells() (map[witness.DataType][]host.CellMeta, error) {
	ret := make(map[witness.DataType][]host.CellMeta)
	loader := r.parser.Loader()
	for i := 0; ; i++ {
		cell := host.NewCellMeta(i, host.SourceCellDep)
		typeScript, err := loader.TypeScript(cell)
		if err != nil {
			if errors.Is(err, errcode.IndexOutOfBound) {
				break
			}
			if errors.Is(err, errcode.ItemMissing) {
				continue
			}
			return nil, fmt.Errorf("load type of %s: %w", cell, err)
		}
		if typeScript.CodeHash() != r.config.ConfigCellTypeID {
			continue
		}
		args := typeScript.Args()
		if len(args) != 4 {
			return nil, errcode.New(
				errcode.InvalidCellData,
				"config cell %s has %d bytes of type args",
				cell,
				len(args),
			)
		}
		dt := witness.DataType(binary.LittleEndian.Uint32(args))
		ret[dt] = append(ret[dt], cell)
	}
	return ret, nil
}

func getAs[T any](r *Registry, dt witness.DataType) (T, error) {
	var zero T
	entry, err := r.Get(dt)
	if err != nil {
		return zero, err
	}
	ret, ok := entry.Entity.(T)
	if !ok {
		return zero, errcode.New(
			errcode.InvalidTransactionStructure,
			"%s holds %T",
			dt,
			entry.Entity,
		)
	}
	return ret, nil
}

// parsedBlob parses a blob config once
func parsedBlob[T any](
	r *Registry,
	dt witness.DataType,
	parse func(witness.Blob) (T, error),
) (T, error) {
	if v, ok := r.blobs[dt]; ok {
		return v.(T), nil
	}
	var zero T
	blob, err := getAs[witness.Blob](r, dt)
	if err != nil {
		return zero, err
	}
	ret, err := parse(blob)
	if err != nil {
		return zero, fmt.Errorf("parse %s: %w", dt, err)
	}
	r.blobs[dt] = ret
	return ret, nil
}

func (r *Registry) Main() (*entity.ConfigCellMain, error) {
	return getAs[*entity.ConfigCellMain](r, witness.DataTypeConfigCellMain)
}

func (r *Registry) Account() (*entity.ConfigCellAccount, error) {
	return getAs[*entity.ConfigCellAccount](r, witness.DataTypeConfigCellAccount)
}

func (r *Registry) Apply() (*entity.ConfigCellApply, error) {
	return getAs[*entity.ConfigCellApply](r, witness.DataTypeConfigCellApply)
}

func (r *Registry) Price() (*entity.ConfigCellPrice, error) {
	return getAs[*entity.ConfigCellPrice](r, witness.DataTypeConfigCellPrice)
}

func (r *Registry) SubAccount() (*entity.ConfigCellSubAccount, error) {
	return getAs[*entity.ConfigCellSubAccount](
		r,
		witness.DataTypeConfigCellSubAccount,
	)
}

func (r *Registry) RecordKeyNamespace() (*RecordKeyNamespace, error) {
	return parsedBlob(
		r,
		witness.DataTypeConfigCellRecordKeyNamespace,
		func(blob witness.Blob) (*RecordKeyNamespace, error) {
			return NewRecordKeyNamespace(blob)
		},
	)
}

func parseHashList(blob witness.Blob) (*HashList, error) {
	return NewHashList(blob)
}

// UnavailableAccounts returns the list of accounts that can not be
// registered
func (r *Registry) UnavailableAccounts() (*HashList, error) {
	return parsedBlob(
		r,
		witness.DataTypeConfigCellUnAvailableAccount,
		parseHashList,
	)
}

// PreservedAccounts returns the shard of the preserved account list that
// would hold hash
func (r *Registry) PreservedAccounts(
	hash [AccountHashSize]byte,
) (*HashList, error) {
	return parsedBlob(
		r,
		witness.PreservedAccountDataType(hash[0]),
		parseHashList,
	)
}

// IsPreserved reports whether the account name, without suffix, is
// preserved
func (r *Registry) IsPreserved(account []byte) (bool, error) {
	hash := AccountHash(account)
	list, err := r.PreservedAccounts(hash)
	if err != nil {
		return false, err
	}
	return list.Contains(hash), nil
}

// IsUnavailable reports whether the account name, without suffix, is
// unavailable
func (r *Registry) IsUnavailable(account []byte) (bool, error) {
	list, err := r.UnavailableAccounts()
	if err != nil {
		return false, err
	}
	return list.Contains(AccountHash(account)), nil
}

// CharSet returns the character list of a character set
func (r *Registry) CharSet(charSet entity.CharSetType) (*CharSet, error) {
	dt, err := witness.CharSetDataType(uint32(charSet))
	if err != nil {
		return nil, err
	}
	return parsedBlob(
		r,
		dt,
		func(blob witness.Blob) (*CharSet, error) {
			return NewCharSet(charSet, blob)
		},
	)
}
