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

// Package celldata decodes the fixed byte layouts of cell data and lock
// args.
package celldata

import (
	"encoding/binary"
	"fmt"

	"github.com/dotbitHQ/did-contracts-sub003/entity"
	"github.com/dotbitHQ/did-contracts-sub003/errcode"
	"github.com/dotbitHQ/did-contracts-sub003/host"
)

// HashSize is the size of the witness hash most cell data starts with
const HashSize = 32

const (
	accountIDOffset   = HashSize
	accountNextOffset = accountIDOffset + entity.AccountIDLength
	expiredAtOffset   = accountNextOffset + entity.AccountIDLength
	accountOffset     = expiredAtOffset + 8

	// AccountCellMinSize is the size of account cell data with an empty
	// account name
	AccountCellMinSize = accountOffset
	ApplyRegisterSize  = HashSize + 8 + 8
	DPointSize         = 4 + 8
	ConfigCellSize     = HashSize
)

// dpointHeader is the value of the leading u32 of DPoint cell data
const dpointHeader = 8

func invalid(kind string, data []byte, format string, args ...any) error {
	return errcode.New(
		errcode.InvalidCellData,
		"%s cell data of %d bytes: %s",
		kind,
		len(data),
		fmt.Sprintf(format, args...),
	)
}

// AccountCell is the data of an account cell:
//
//	hash 32 | id 20 | next 20 | expired_at u64 | account
type AccountCell struct {
	data []byte
}

func AccountCellFromSlice(data []byte) (*AccountCell, error) {
	if len(data) < AccountCellMinSize {
		return nil, invalid(
			"account",
			data,
			"need at least %d bytes",
			AccountCellMinSize,
		)
	}
	return &AccountCell{data: data}, nil
}

func (c *AccountCell) Hash() [HashSize]byte {
	return [HashSize]byte(c.data[:HashSize])
}

func (c *AccountCell) ID() entity.AccountID {
	return entity.AccountID(c.data[accountIDOffset:accountNextOffset])
}

func (c *AccountCell) Next() entity.AccountID {
	return entity.AccountID(c.data[accountNextOffset:expiredAtOffset])
}

func (c *AccountCell) ExpiredAt() uint64 {
	return binary.LittleEndian.Uint64(c.data[expiredAtOffset:accountOffset])
}

// Account is the account name including its suffix
func (c *AccountCell) Account() []byte {
	return c.data[accountOffset:]
}

func (c *AccountCell) AsSlice() []byte { return c.data }

type AccountCellBuilder struct {
	Account   string
	ExpiredAt uint64
	Hash      [HashSize]byte
	ID        entity.AccountID
	Next      entity.AccountID
}

func (b AccountCellBuilder) Build() []byte {
	ret := make([]byte, 0, AccountCellMinSize+len(b.Account))
	ret = append(ret, b.Hash[:]...)
	ret = append(ret, b.ID[:]...)
	ret = append(ret, b.Next[:]...)
	ret = binary.LittleEndian.AppendUint64(ret, b.ExpiredAt)
	return append(ret, b.Account...)
}

// ApplyRegisterCell is the data of an apply-register cell:
//
//	hash 32 | height u64 | timestamp u64
type ApplyRegisterCell struct {
	data []byte
}

func ApplyRegisterCellFromSlice(data []byte) (*ApplyRegisterCell, error) {
	if len(data) != ApplyRegisterSize {
		return nil, invalid(
			"apply register",
			data,
			"expected %d bytes",
			ApplyRegisterSize,
		)
	}
	return &ApplyRegisterCell{data: data}, nil
}

func (c *ApplyRegisterCell) Hash() [HashSize]byte {
	return [HashSize]byte(c.data[:HashSize])
}

func (c *ApplyRegisterCell) Height() uint64 {
	return binary.LittleEndian.Uint64(c.data[HashSize : HashSize+8])
}

func (c *ApplyRegisterCell) Timestamp() uint64 {
	return binary.LittleEndian.Uint64(c.data[HashSize+8 : HashSize+16])
}

type ApplyRegisterCellBuilder struct {
	Height    uint64
	Timestamp uint64
	Hash      [HashSize]byte
}

func (b ApplyRegisterCellBuilder) Build() []byte {
	ret := make([]byte, 0, ApplyRegisterSize)
	ret = append(ret, b.Hash[:]...)
	ret = binary.LittleEndian.AppendUint64(ret, b.Height)
	return binary.LittleEndian.AppendUint64(ret, b.Timestamp)
}

// DPointValue decodes DPoint cell data: u32 header of 8, then a u64 value
func DPointValue(data []byte) (uint64, error) {
	if len(data) != DPointSize {
		return 0, invalid("dpoint", data, "expected %d bytes", DPointSize)
	}
	if header := binary.LittleEndian.Uint32(data[:4]); header != dpointHeader {
		return 0, invalid(
			"dpoint",
			data,
			"header is %d, expected %d",
			header,
			dpointHeader,
		)
	}
	return binary.LittleEndian.Uint64(data[4:]), nil
}

func PackDPoint(value uint64) []byte {
	ret := binary.LittleEndian.AppendUint32(nil, dpointHeader)
	return binary.LittleEndian.AppendUint64(ret, value)
}

// ConfigCellHash decodes the data of a config cell, the hash of the config
// witness payload
func ConfigCellHash(data []byte) ([HashSize]byte, error) {
	if len(data) != ConfigCellSize {
		return [HashSize]byte{}, invalid(
			"config",
			data,
			"expected %d bytes",
			ConfigCellSize,
		)
	}
	return [HashSize]byte(data), nil
}

// LoadAccountCell reads and decodes the data of an account cell
func LoadAccountCell(l *host.Loader, cell host.CellMeta) (*AccountCell, error) {
	data, err := l.CellData(cell)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", cell, err)
	}
	ret, err := AccountCellFromSlice(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cell, err)
	}
	return ret, nil
}

// LoadApplyRegisterCell reads and decodes the data of an apply-register cell
func LoadApplyRegisterCell(
	l *host.Loader,
	cell host.CellMeta,
) (*ApplyRegisterCell, error) {
	data, err := l.CellData(cell)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", cell, err)
	}
	ret, err := ApplyRegisterCellFromSlice(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cell, err)
	}
	return ret, nil
}

// LoadDPoint reads the value of a DPoint cell
func LoadDPoint(l *host.Loader, cell host.CellMeta) (uint64, error) {
	data, err := l.CellData(cell)
	if err != nil {
		return 0, fmt.Errorf("load %s: %w", cell, err)
	}
	ret, err := DPointValue(data)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", cell, err)
	}
	return ret, nil
}
