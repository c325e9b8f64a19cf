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

// Package host describes the read primitives the execution host offers to
// a contract: positional loads of witnesses, cell data and cell fields.
package host

import (
	"fmt"

	"github.com/dotbitHQ/did-contracts-sub003/errcode"
)

// Source selects which list of the transaction a positional load reads
type Source uint8

const (
	SourceInput Source = iota + 1
	SourceOutput
	SourceCellDep
	SourceHeaderDep
	SourceGroupInput
	SourceGroupOutput
)

func (s Source) String() string {
	switch s {
	case SourceInput:
		return "input"
	case SourceOutput:
		return "output"
	case SourceCellDep:
		return "cell_dep"
	case SourceHeaderDep:
		return "header_dep"
	case SourceGroupInput:
		return "group_input"
	case SourceGroupOutput:
		return "group_output"
	default:
		return fmt.Sprintf("source(%d)", uint8(s))
	}
}

// CellField selects a field of a cell for LoadCellByField
type CellField uint8

const (
	CellFieldCapacity CellField = iota + 1
	CellFieldDataHash
	CellFieldLock
	CellFieldLockHash
	CellFieldType
	CellFieldTypeHash
	CellFieldOccupiedCapacity
)

func (f CellField) String() string {
	switch f {
	case CellFieldCapacity:
		return "capacity"
	case CellFieldDataHash:
		return "data_hash"
	case CellFieldLock:
		return "lock"
	case CellFieldLockHash:
		return "lock_hash"
	case CellFieldType:
		return "type"
	case CellFieldTypeHash:
		return "type_hash"
	case CellFieldOccupiedCapacity:
		return "occupied_capacity"
	default:
		return fmt.Sprintf("field(%d)", uint8(f))
	}
}

// CellMeta identifies a cell by its position in the transaction
type CellMeta struct {
	Index  int
	Source Source
}

func NewCellMeta(index int, source Source) CellMeta {
	return CellMeta{Index: index, Source: source}
}

func (c CellMeta) String() string {
	return fmt.Sprintf("%s[%d]", c.Source, c.Index)
}

// LengthNotEnoughError reports a short read. Actual is the number of bytes
// available from the requested offset, which sizes the follow-up read.
type LengthNotEnoughError struct {
	Actual int
}

func (e *LengthNotEnoughError) Error() string {
	return fmt.Sprintf(
		"%s: %d bytes available",
		errcode.LengthNotEnough.Error(),
		e.Actual,
	)
}

func (e *LengthNotEnoughError) Unwrap() error {
	return errcode.LengthNotEnough
}

// Host is the syscall surface of the execution environment. Every load
// copies the item starting at offset into buf and returns the number of
// bytes available from offset. A load into a buffer that is too small
// fills the buffer and returns *LengthNotEnoughError. A position past the
// end of the list fails with errcode.IndexOutOfBound, an absent optional
// field (such as the type script) with errcode.ItemMissing.
type Host interface {
	LoadWitness(buf []byte, offset int, index int, source Source) (int, error)
	LoadCellData(buf []byte, offset int, index int, source Source) (int, error)
	LoadCellByField(
		buf []byte,
		offset int,
		index int,
		source Source,
		field CellField,
	) (int, error)
}

// CopyOut implements the copy convention of the Host loads for hosts backed
// by in-memory items
func CopyOut(buf []byte, offset int, item []byte) (int, error) {
	if offset < 0 || offset > len(item) {
		return 0, errcode.New(
			errcode.Encoding,
			"offset %d outside item of %d bytes",
			offset,
			len(item),
		)
	}
	avail := item[offset:]
	copy(buf, avail)
	if len(avail) > len(buf) {
		return len(avail), &LengthNotEnoughError{Actual: len(avail)}
	}
	return len(avail), nil
}
