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
	"errors"

	"github.com/dotbitHQ/did-contracts-sub003/entity"
	"github.com/dotbitHQ/did-contracts-sub003/errcode"
)

// DefaultProbeSize is the buffer size of the first read of every item
const DefaultProbeSize = 1024

type loadFunc func(buf []byte, offset int) (int, error)

// Loader wraps a Host with whole-item reads. Each read first probes with a
// fixed size buffer and, when the host reports a short read, re-issues a
// read sized to the reported length.
type Loader struct {
	host      Host
	probeSize int
}

func NewLoader(h Host, probeSize int) *Loader {
	if probeSize <= 0 {
		probeSize = DefaultProbeSize
	}
	return &Loader{
		host:      h,
		probeSize: probeSize,
	}
}

// Host returns the wrapped host
func (l *Loader) Host() Host {
	return l.host
}

func (l *Loader) load(fn loadFunc) ([]byte, error) {
	buf := make([]byte, l.probeSize)
	n, err := fn(buf, 0)
	if err == nil {
		if n > len(buf) {
			return nil, errcode.New(
				errcode.Encoding,
				"host reported %d bytes for a %d byte buffer",
				n,
				len(buf),
			)
		}
		return buf[:n], nil
	}
	var short *LengthNotEnoughError
	if !errors.As(err, &short) {
		return nil, err
	}
	full := make([]byte, short.Actual)
	n, err = fn(full, 0)
	if err != nil {
		return nil, err
	}
	if n != len(full) {
		return nil, errcode.New(
			errcode.Encoding,
			"host returned %d bytes, expected %d",
			n,
			len(full),
		)
	}
	return full, nil
}

// Witness reads the whole witness at index
func (l *Loader) Witness(index int) ([]byte, error) {
	return l.load(func(buf []byte, offset int) (int, error) {
		return l.host.LoadWitness(buf, offset, index, SourceInput)
	})
}

// CellData reads the whole data of a cell
func (l *Loader) CellData(cell CellMeta) ([]byte, error) {
	return l.load(func(buf []byte, offset int) (int, error) {
		return l.host.LoadCellData(buf, offset, cell.Index, cell.Source)
	})
}

// CellField reads one field of a cell
func (l *Loader) CellField(cell CellMeta, field CellField) ([]byte, error) {
	return l.load(func(buf []byte, offset int) (int, error) {
		return l.host.LoadCellByField(
			buf,
			offset,
			cell.Index,
			cell.Source,
			field,
		)
	})
}

// Capacity reads the capacity of a cell in shannons
func (l *Loader) Capacity(cell CellMeta) (uint64, error) {
	return l.uint64Field(cell, CellFieldCapacity)
}

// OccupiedCapacity reads the minimum capacity the cell needs to exist
func (l *Loader) OccupiedCapacity(cell CellMeta) (uint64, error) {
	return l.uint64Field(cell, CellFieldOccupiedCapacity)
}

func (l *Loader) uint64Field(cell CellMeta, field CellField) (uint64, error) {
	raw, err := l.CellField(cell, field)
	if err != nil {
		return 0, err
	}
	if len(raw) != 8 {
		return 0, errcode.New(
			errcode.Encoding,
			"%s of %s should be 8 bytes, got %d",
			field,
			cell,
			len(raw),
		)
	}
	return binary.LittleEndian.Uint64(raw), nil
}

// LockHash reads the hash of the lock script of a cell
func (l *Loader) LockHash(cell CellMeta) ([32]byte, error) {
	return l.hashField(cell, CellFieldLockHash)
}

// TypeHash reads the hash of the type script of a cell. Cells without a
// type script fail with errcode.ItemMissing.
func (l *Loader) TypeHash(cell CellMeta) ([32]byte, error) {
	return l.hashField(cell, CellFieldTypeHash)
}

func (l *Loader) hashField(cell CellMeta, field CellField) ([32]byte, error) {
	var ret [32]byte
	raw, err := l.CellField(cell, field)
	if err != nil {
		return ret, err
	}
	if len(raw) != len(ret) {
		return ret, errcode.New(
			errcode.Encoding,
			"%s of %s should be 32 bytes, got %d",
			field,
			cell,
			len(raw),
		)
	}
	copy(ret[:], raw)
	return ret, nil
}

// LockScript reads and decodes the lock script of a cell
func (l *Loader) LockScript(cell CellMeta) (*entity.Script, error) {
	return l.script(cell, CellFieldLock)
}

// TypeScript reads and decodes the type script of a cell. Cells without a
// type script fail with errcode.ItemMissing.
func (l *Loader) TypeScript(cell CellMeta) (*entity.Script, error) {
	return l.script(cell, CellFieldType)
}

func (l *Loader) script(cell CellMeta, field CellField) (*entity.Script, error) {
	raw, err := l.CellField(cell, field)
	if err != nil {
		return nil, err
	}
	script, err := entity.ScriptFromSlice(raw)
	if err != nil {
		return nil, errcode.New(
			errcode.Encoding,
			"%s of %s is not a valid script: %v",
			field,
			cell,
			err,
		)
	}
	return script, nil
}

// CountCells returns the number of cells in source, relying on the host
// reporting errcode.IndexOutOfBound past the end of the list
func (l *Loader) CountCells(source Source) (int, error) {
	var probe [8]byte
	for i := 0; ; i++ {
		_, err := l.host.LoadCellByField(
			probe[:],
			0,
			i,
			source,
			CellFieldCapacity,
		)
		if err == nil {
			continue
		}
		if errors.Is(err, errcode.IndexOutOfBound) {
			return i, nil
		}
		return 0, err
	}
}
