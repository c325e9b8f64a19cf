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

package txstore

import (
	"fmt"

	"github.com/blinklabs-io/gouroboros/cbor"
	"github.com/dotbitHQ/did-contracts-sub003/entity"
	"github.com/dotbitHQ/did-contracts-sub003/host"
)

// storedScript is the CBOR form of a lock or type script
type storedScript struct {
	cbor.StructAsArray
	CodeHash []byte
	HashType uint8
	Args     []byte
}

// storedCell is the CBOR form of a cell. A nil Type means the cell has no
// type script
type storedCell struct {
	cbor.StructAsArray
	Capacity uint64
	Lock     storedScript
	Type     *storedScript
	Data     []byte
}

// storedTransaction is the value kept under each fixture key
type storedTransaction struct {
	cbor.StructAsArray
	Inputs       []storedCell
	Outputs      []storedCell
	CellDeps     []storedCell
	HeaderDeps   [][]byte
	Witnesses    [][]byte
	GroupInputs  []uint32
	GroupOutputs []uint32
}

func scriptToStored(s entity.ScriptBuilder) storedScript {
	return storedScript{
		CodeHash: s.CodeHash[:],
		HashType: s.HashType,
		Args:     s.Args,
	}
}

func storedToScript(s storedScript) (entity.ScriptBuilder, error) {
	var ret entity.ScriptBuilder
	if len(s.CodeHash) != len(ret.CodeHash) {
		return ret, fmt.Errorf(
			"invalid code hash length %d",
			len(s.CodeHash),
		)
	}
	copy(ret.CodeHash[:], s.CodeHash)
	ret.HashType = s.HashType
	ret.Args = s.Args
	return ret, nil
}

func cellsToStored(cells []host.Cell) []storedCell {
	ret := make([]storedCell, 0, len(cells))
	for _, c := range cells {
		tmp := storedCell{
			Capacity: c.Capacity,
			Lock:     scriptToStored(c.Lock),
			Data:     c.Data,
		}
		if c.Type != nil {
			typeScript := scriptToStored(*c.Type)
			tmp.Type = &typeScript
		}
		ret = append(ret, tmp)
	}
	return ret
}

func storedToCells(cells []storedCell) ([]host.Cell, error) {
	ret := make([]host.Cell, 0, len(cells))
	for i, c := range cells {
		lock, err := storedToScript(c.Lock)
		if err != nil {
			return nil, fmt.Errorf("cell %d lock: %w", i, err)
		}
		tmp := host.Cell{
			Capacity: c.Capacity,
			Lock:     lock,
			Data:     c.Data,
		}
		if c.Type != nil {
			typeScript, err := storedToScript(*c.Type)
			if err != nil {
				return nil, fmt.Errorf("cell %d type: %w", i, err)
			}
			tmp.Type = &typeScript
		}
		ret = append(ret, tmp)
	}
	return ret, nil
}

func indexesToStored(idx []int) []uint32 {
	if idx == nil {
		return nil
	}
	ret := make([]uint32, len(idx))
	for i, v := range idx {
		ret[i] = uint32(v) // #nosec G115
	}
	return ret
}

func storedToIndexes(idx []uint32) []int {
	if idx == nil {
		return nil
	}
	ret := make([]int, len(idx))
	for i, v := range idx {
		ret[i] = int(v)
	}
	return ret
}

// encodeTransaction serializes an in-memory transaction to CBOR
func encodeTransaction(tx *host.Transaction) ([]byte, error) {
	stored := storedTransaction{
		Inputs:       cellsToStored(tx.Inputs),
		Outputs:      cellsToStored(tx.Outputs),
		CellDeps:     cellsToStored(tx.CellDeps),
		Witnesses:    tx.Witnesses,
		GroupInputs:  indexesToStored(tx.GroupInputs),
		GroupOutputs: indexesToStored(tx.GroupOutputs),
	}
	for _, h := range tx.HeaderDeps {
		stored.HeaderDeps = append(stored.HeaderDeps, h[:])
	}
	return cbor.Encode(&stored)
}

// decodeTransaction is the inverse of encodeTransaction
func decodeTransaction(data []byte) (*host.Transaction, error) {
	var stored storedTransaction
	if _, err := cbor.Decode(data, &stored); err != nil {
		return nil, err
	}
	var err error
	tx := &host.Transaction{
		Witnesses:    stored.Witnesses,
		GroupInputs:  storedToIndexes(stored.GroupInputs),
		GroupOutputs: storedToIndexes(stored.GroupOutputs),
	}
	if tx.Inputs, err = storedToCells(stored.Inputs); err != nil {
		return nil, fmt.Errorf("inputs: %w", err)
	}
	if tx.Outputs, err = storedToCells(stored.Outputs); err != nil {
		return nil, fmt.Errorf("outputs: %w", err)
	}
	if tx.CellDeps, err = storedToCells(stored.CellDeps); err != nil {
		return nil, fmt.Errorf("cell deps: %w", err)
	}
	for i, h := range stored.HeaderDeps {
		var tmp [32]byte
		if len(h) != len(tmp) {
			return nil, fmt.Errorf(
				"header dep %d: invalid hash length %d",
				i,
				len(h),
			)
		}
		copy(tmp[:], h)
		tx.HeaderDeps = append(tx.HeaderDeps, tmp)
	}
	return tx, nil
}
