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

package witness

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/crypto/blake2b"

	"github.com/dotbitHQ/did-contracts-sub003/entity"
	"github.com/dotbitHQ/did-contracts-sub003/errcode"
	"github.com/dotbitHQ/did-contracts-sub003/host"
)

// HashSize is the length of a blake2b-256 digest
const HashSize = blake2b.Size256

// State is the scanning state of a Parser
type State uint8

const (
	StateUninitialized State = iota
	StateScanning
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateScanning:
		return "scanning"
	case StateExhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

type ParserConfig struct {
	Logger  *slog.Logger
	Metrics *Metrics
	// ProbeSize is the size of the first read of every witness
	ProbeSize int
	// MaxWitnesses bounds the index, 0 means unbounded
	MaxWitnesses int
}

// Record is one indexed witness
type Record struct {
	Header   Header
	Payload  []byte
	Position int

	entity    any
	entityErr error
	decoded   bool
	hash      [HashSize]byte
	hashed    bool
}

// Parser owns the witness index of a single invocation. It is not safe for
// concurrent use.
type Parser struct {
	config  ParserConfig
	loader  *host.Loader
	state   State
	records []*Record
	byCell  map[host.CellMeta]int
	scanErr error
}

func NewParser(h host.Host, cfg ParserConfig) *Parser {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Parser{
		config: cfg,
		loader: host.NewLoader(h, cfg.ProbeSize),
		byCell: make(map[host.CellMeta]int),
	}
}

// Loader returns the probing reader the parser uses for host access
func (p *Parser) Loader() *host.Loader {
	return p.loader
}

// Metrics returns the metrics the parser records into, possibly nil
func (p *Parser) Metrics() *Metrics {
	return p.config.Metrics
}

func (p *Parser) State() State {
	return p.state
}

// Scan builds the index. It reads witnesses from position 0 until the host
// reports IndexOutOfBound. Calling Scan again returns the result of the
// first call.
func (p *Parser) Scan() error {
	if p.state == StateExhausted {
		return p.scanErr
	}
	if p.state == StateScanning {
		return errors.New("witness scan re-entered")
	}
	p.state = StateScanning
	err := p.scan()
	p.state = StateExhausted
	if err != nil {
		// A failed scan leaves no usable index
		p.records = nil
		p.scanErr = err
		p.config.Metrics.Failure(err)
		return err
	}
	p.config.Metrics.indexed(len(p.records))
	p.config.Logger.Debug(
		"witness index built",
		"component", "witness",
		"count", len(p.records),
	)
	return nil
}

func (p *Parser) scan() error {
	for i := 0; ; i++ {
		raw, err := p.loader.Witness(i)
		if err != nil {
			if errors.Is(err, errcode.IndexOutOfBound) {
				break
			}
			return fmt.Errorf("load witness %d: %w", i, err)
		}
		p.config.Metrics.scanned()
		if p.config.MaxWitnesses > 0 && i >= p.config.MaxWitnesses {
			return errcode.New(
				errcode.InvalidTransactionStructure,
				"transaction carries more than %d witnesses",
				p.config.MaxWitnesses,
			)
		}
		header, payload, err := ParseHeader(raw)
		if err != nil {
			return fmt.Errorf("witness %d: %w", i, err)
		}
		p.config.Logger.Debug(
			"indexed witness",
			"component", "witness",
			"position", i,
			"data_type", header.DataType.String(),
			"version", header.Version,
			"size", len(payload),
		)
		p.records = append(
			p.records,
			&Record{
				Position: i,
				Header:   header,
				Payload:  payload,
			},
		)
	}
	if len(p.records) == 0 {
		return errcode.New(
			errcode.InvalidTransactionStructure,
			"transaction has no witnesses",
		)
	}
	if first := p.records[0].Header.DataType; first != DataTypeActionData {
		return errcode.New(
			errcode.InvalidTransactionStructure,
			"witness 0 should be %s, found %s",
			DataTypeActionData,
			first,
		)
	}
	return nil
}

func (p *Parser) ensureScanned() error {
	if p.state == StateUninitialized {
		return p.Scan()
	}
	return p.scanErr
}

// Len returns the number of indexed witnesses
func (p *Parser) Len() (int, error) {
	if err := p.ensureScanned(); err != nil {
		return 0, err
	}
	return len(p.records), nil
}

// Records returns the index in position order. The slice must not be
// modified.
func (p *Parser) Records() ([]*Record, error) {
	if err := p.ensureScanned(); err != nil {
		return nil, err
	}
	return p.records, nil
}

// Entity decodes the record's payload, once
func (p *Parser) Entity(rec *Record) (any, error) {
	if rec.decoded {
		p.config.Metrics.CacheHit("entity")
		return rec.entity, rec.entityErr
	}
	rec.entity, rec.entityErr = decodeEntity(rec.Header, rec.Payload)
	rec.decoded = true
	if rec.entityErr != nil {
		rec.entityErr = fmt.Errorf("witness %d: %w", rec.Position, rec.entityErr)
		p.config.Metrics.Failure(rec.entityErr)
	} else {
		p.config.Metrics.decoded(rec.Header.DataType)
	}
	return rec.entity, rec.entityErr
}

// PayloadHash returns the blake2b-256 hash of the record's payload, once
func (p *Parser) PayloadHash(rec *Record) [HashSize]byte {
	if !rec.hashed {
		rec.hash = blake2b.Sum256(rec.Payload)
		rec.hashed = true
	}
	return rec.hash
}

// RecordByIndex returns the witness at position i
func (p *Parser) RecordByIndex(i int) (*Record, error) {
	if err := p.ensureScanned(); err != nil {
		return nil, err
	}
	if i < 0 || i >= len(p.records) {
		return nil, errcode.New(
			errcode.CanNotFindWitnessByIndex,
			"no witness at position %d, %d indexed",
			i,
			len(p.records),
		)
	}
	return p.records[i], nil
}

// GetByIndex decodes the witness at position i
func (p *Parser) GetByIndex(i int) (any, error) {
	rec, err := p.RecordByIndex(i)
	if err != nil {
		return nil, err
	}
	return p.Entity(rec)
}

// RecordByCellMeta finds the witness the cell's data commits to: the first
// 32 bytes of the cell data equal the blake2b-256 hash of the payload
func (p *Parser) RecordByCellMeta(cell host.CellMeta) (*Record, error) {
	if err := p.ensureScanned(); err != nil {
		return nil, err
	}
	if pos, ok := p.byCell[cell]; ok {
		p.config.Metrics.CacheHit("cell")
		return p.records[pos], nil
	}
	data, err := p.loader.CellData(cell)
	if err != nil {
		return nil, fmt.Errorf("load data of %s: %w", cell, err)
	}
	if len(data) < HashSize {
		return nil, errcode.New(
			errcode.InvalidCellData,
			"data of %s is %d bytes, too short for a witness hash",
			cell,
			len(data),
		)
	}
	var want [HashSize]byte
	copy(want[:], data[:HashSize])
	for _, rec := range p.records {
		if p.PayloadHash(rec) != want {
			continue
		}
		p.byCell[cell] = rec.Position
		p.config.Logger.Debug(
			"matched cell to witness",
			"component", "witness",
			"cell", cell.String(),
			"position", rec.Position,
		)
		return rec, nil
	}
	err = errcode.New(
		errcode.CanNotFindWitnessByCellMeta,
		"no witness matches %s, hash %x",
		cell,
		want,
	)
	p.config.Metrics.Failure(err)
	return nil, err
}

// GetByCellMeta decodes the witness bound to the cell
func (p *Parser) GetByCellMeta(cell host.CellMeta) (any, error) {
	rec, err := p.RecordByCellMeta(cell)
	if err != nil {
		return nil, err
	}
	return p.Entity(rec)
}

// FindAllByDataType returns every witness tagged dt in position order
func (p *Parser) FindAllByDataType(dt DataType) ([]*Record, error) {
	if err := p.ensureScanned(); err != nil {
		return nil, err
	}
	var ret []*Record
	for _, rec := range p.records {
		if rec.Header.DataType == dt {
			ret = append(ret, rec)
		}
	}
	return ret, nil
}

// RecordByDataType returns the unique witness tagged dt
func (p *Parser) RecordByDataType(dt DataType) (*Record, error) {
	recs, err := p.FindAllByDataType(dt)
	if err != nil {
		return nil, err
	}
	switch len(recs) {
	case 0:
		err = errcode.New(
			errcode.ConfigCellNotFound,
			"no witness of %s",
			dt,
		)
	case 1:
		return recs[0], nil
	default:
		err = errcode.New(
			errcode.DuplicatedConfigCellFound,
			"%s found at positions %d and %d",
			dt,
			recs[0].Position,
			recs[1].Position,
		)
	}
	p.config.Metrics.Failure(err)
	return nil, err
}

// GetByDataType decodes the unique witness tagged dt
func (p *Parser) GetByDataType(dt DataType) (any, error) {
	rec, err := p.RecordByDataType(dt)
	if err != nil {
		return nil, err
	}
	return p.Entity(rec)
}

// EntityAs asserts the result of a query to a concrete entity type
func EntityAs[T any](v any, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	ret, ok := v.(T)
	if !ok {
		return zero, errcode.New(
			errcode.InvalidTransactionStructure,
			"witness holds %T, expected %T",
			v,
			zero,
		)
	}
	return ret, nil
}

// AccountCell returns the account witness bound to the cell
func (p *Parser) AccountCell(cell host.CellMeta) (entity.AccountCellData, error) {
	return EntityAs[entity.AccountCellData](p.GetByCellMeta(cell))
}

// AccountSaleCell returns the sale witness bound to the cell
func (p *Parser) AccountSaleCell(
	cell host.CellMeta,
) (*entity.AccountSaleCellData, error) {
	return EntityAs[*entity.AccountSaleCellData](p.GetByCellMeta(cell))
}

// SubAccounts decodes every sub-account witness in position order
func (p *Parser) SubAccounts() ([]*SubAccountWitness, error) {
	recs, err := p.FindAllByDataType(DataTypeSubAccount)
	if err != nil {
		return nil, err
	}
	ret := make([]*SubAccountWitness, 0, len(recs))
	for _, rec := range recs {
		v, err := EntityAs[*SubAccountWitness](p.Entity(rec))
		if err != nil {
			return nil, err
		}
		ret = append(ret, v)
	}
	return ret, nil
}
