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

package host

import (
	"encoding/binary"

	"github.com/dotbitHQ/did-contracts-sub003/entity"
	"github.com/dotbitHQ/did-contracts-sub003/errcode"
	"golang.org/x/crypto/blake2b"
)

// ShannonsPerByte converts occupied bytes into capacity
const ShannonsPerByte = 100_000_000

// Cell is an in-memory cell
type Cell struct {
	Type     *entity.ScriptBuilder
	Data     []byte
	Lock     entity.ScriptBuilder
	Capacity uint64
}

// OccupiedBytes is the number of bytes the cell needs on chain: capacity,
// data, and each script's code hash, hash type and args
func (c Cell) OccupiedBytes() uint64 {
	size := uint64(8 + len(c.Data))
	size += uint64(32 + 1 + len(c.Lock.Args))
	if c.Type != nil {
		size += uint64(32 + 1 + len(c.Type.Args))
	}
	return size
}

// ScriptHash hashes the canonical encoding of a script
func ScriptHash(s entity.ScriptBuilder) [32]byte {
	return blake2b.Sum256(s.Build())
}

// Transaction is a Host backed by in-memory cells and witnesses. Group
// sources select cells of Inputs and Outputs by index.
type Transaction struct {
	Inputs       []Cell
	Outputs      []Cell
	CellDeps     []Cell
	HeaderDeps   [][32]byte
	Witnesses    [][]byte
	GroupInputs  []int
	GroupOutputs []int
}

var _ Host = (*Transaction)(nil)

func (t *Transaction) cell(index int, source Source) (*Cell, error) {
	var (
		cells []Cell
		group []int
	)
	switch source {
	case SourceInput:
		cells = t.Inputs
	case SourceOutput:
		cells = t.Outputs
	case SourceCellDep:
		cells = t.CellDeps
	case SourceGroupInput:
		cells = t.Inputs
		group = t.GroupInputs
	case SourceGroupOutput:
		cells = t.Outputs
		group = t.GroupOutputs
	case SourceHeaderDep:
		if index < 0 || index >= len(t.HeaderDeps) {
			return nil, errcode.IndexOutOfBound
		}
		return nil, errcode.ItemMissing
	default:
		return nil, errcode.New(errcode.UnknownSysError, "unknown source %d", source)
	}
	if source == SourceGroupInput || source == SourceGroupOutput {
		if index < 0 || index >= len(group) {
			return nil, errcode.IndexOutOfBound
		}
		index = group[index]
	}
	if index < 0 || index >= len(cells) {
		return nil, errcode.IndexOutOfBound
	}
	return &cells[index], nil
}

func (t *Transaction) LoadWitness(
	buf []byte,
	offset int,
	index int,
	source Source,
) (int, error) {
	if index < 0 || index >= len(t.Witnesses) {
		return 0, errcode.IndexOutOfBound
	}
	return CopyOut(buf, offset, t.Witnesses[index])
}

func (t *Transaction) LoadCellData(
	buf []byte,
	offset int,
	index int,
	source Source,
) (int, error) {
	c, err := t.cell(index, source)
	if err != nil {
		return 0, err
	}
	return CopyOut(buf, offset, c.Data)
}

func (t *Transaction) LoadCellByField(
	buf []byte,
	offset int,
	index int,
	source Source,
	field CellField,
) (int, error) {
	c, err := t.cell(index, source)
	if err != nil {
		return 0, err
	}
	var item []byte
	switch field {
	case CellFieldCapacity:
		item = binary.LittleEndian.AppendUint64(nil, c.Capacity)
	case CellFieldOccupiedCapacity:
		item = binary.LittleEndian.AppendUint64(
			nil,
			c.OccupiedBytes()*ShannonsPerByte,
		)
	case CellFieldDataHash:
		h := blake2b.Sum256(c.Data)
		item = h[:]
	case CellFieldLock:
		item = c.Lock.Build()
	case CellFieldLockHash:
		h := ScriptHash(c.Lock)
		item = h[:]
	case CellFieldType:
		if c.Type == nil {
			return 0, errcode.ItemMissing
		}
		item = c.Type.Build()
	case CellFieldTypeHash:
		if c.Type == nil {
			return 0, errcode.ItemMissing
		}
		h := ScriptHash(*c.Type)
		item = h[:]
	default:
		return 0, errcode.New(errcode.UnknownSysError, "unknown cell field %d", field)
	}
	return CopyOut(buf, offset, item)
}
