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

// Package verify holds the cell topology and consistency checks rule sets
// build on. Every check returns nil or an errcode.Error naming the cells
// involved.
package verify

import (
	"errors"
	"fmt"
	"slices"

	"github.com/dotbitHQ/did-contracts-sub003/errcode"
	"github.com/dotbitHQ/did-contracts-sub003/host"
)

// CellNumber checks that exactly want cells were found
func CellNumber(name string, cells []host.CellMeta, want int) error {
	if len(cells) != want {
		return errcode.New(
			errcode.CellNumberMismatch,
			"expected %d %s cells, found %d %v",
			want,
			name,
			len(cells),
			cells,
		)
	}
	return nil
}

// CellNumberAndPosition checks that the cells sit exactly at the given
// indexes, in order
func CellNumberAndPosition(name string, cells []host.CellMeta, want []int) error {
	if err := CellNumber(name, cells, len(want)); err != nil {
		return err
	}
	for i, cell := range cells {
		if cell.Index != want[i] {
			return errcode.New(
				errcode.CellPositionMismatch,
				"%s cell %d should be at index %d, found %s",
				name,
				i,
				want[i],
				cell,
			)
		}
	}
	return nil
}

// FindCellsByTypeID lists the cells of source whose type script code hash
// is typeID
func FindCellsByTypeID(
	l *host.Loader,
	typeID [32]byte,
	source host.Source,
) ([]host.CellMeta, error) {
	var ret []host.CellMeta
	for i := 0; ; i++ {
		cell := host.NewCellMeta(i, source)
		script, err := l.TypeScript(cell)
		if err != nil {
			if errors.Is(err, errcode.IndexOutOfBound) {
				return ret, nil
			}
			if errors.Is(err, errcode.ItemMissing) {
				continue
			}
			return nil, fmt.Errorf("load type of %s: %w", cell, err)
		}
		if script.CodeHash() == typeID {
			ret = append(ret, cell)
		}
	}
}

// CapacityWithBasic checks that a cell holds at least basic capacity
func CapacityWithBasic(l *host.Loader, cell host.CellMeta, basic uint64) error {
	capacity, err := l.Capacity(cell)
	if err != nil {
		return fmt.Errorf("load capacity of %s: %w", cell, err)
	}
	if capacity < basic {
		return errcode.New(
			errcode.CellCapacityNotEnough,
			"%s holds %d shannons, at least %d required",
			cell,
			capacity,
			basic,
		)
	}
	return nil
}

// CapacityChange checks that output keeps the capacity of input, less at
// most maxFee, and never drops under basic
func CapacityChange(
	l *host.Loader,
	input host.CellMeta,
	output host.CellMeta,
	maxFee uint64,
	basic uint64,
) error {
	inputCapacity, err := l.Capacity(input)
	if err != nil {
		return fmt.Errorf("load capacity of %s: %w", input, err)
	}
	outputCapacity, err := l.Capacity(output)
	if err != nil {
		return fmt.Errorf("load capacity of %s: %w", output, err)
	}
	if outputCapacity < inputCapacity && inputCapacity-outputCapacity > maxFee {
		return errcode.New(
			errcode.CellCapacityChangeInvalid,
			"%s pays %d shannons from %s, at most %d allowed",
			output,
			inputCapacity-outputCapacity,
			input,
			maxFee,
		)
	}
	if outputCapacity < basic {
		return errcode.New(
			errcode.CellCapacityNotEnough,
			"%s holds %d shannons, at least %d required",
			output,
			outputCapacity,
			basic,
		)
	}
	return nil
}

// CellsConsistent checks that output keeps the lock, type and data of
// input, except for the fields listed in allowed. Fields are compared by
// hash: host.CellFieldLockHash, host.CellFieldTypeHash and
// host.CellFieldDataHash.
func CellsConsistent(
	l *host.Loader,
	input host.CellMeta,
	output host.CellMeta,
	allowed ...host.CellField,
) error {
	checks := []struct {
		field host.CellField
		code  errcode.Code
	}{
		{host.CellFieldLockHash, errcode.CellLockCanNotBeModified},
		{host.CellFieldTypeHash, errcode.CellTypeCanNotBeModified},
		{host.CellFieldDataHash, errcode.CellDataCanNotBeModified},
	}
	for _, check := range checks {
		if slices.Contains(allowed, check.field) {
			continue
		}
		before, err := optionalField(l, input, check.field)
		if err != nil {
			return err
		}
		after, err := optionalField(l, output, check.field)
		if err != nil {
			return err
		}
		if string(before) != string(after) {
			return errcode.New(
				check.code,
				"%s of %s differs from %s",
				check.field,
				output,
				input,
			)
		}
	}
	return nil
}

// optionalField loads a field, treating a missing type script as empty
func optionalField(
	l *host.Loader,
	cell host.CellMeta,
	field host.CellField,
) ([]byte, error) {
	ret, err := l.CellField(cell, field)
	if err != nil {
		if errors.Is(err, errcode.ItemMissing) {
			return nil, nil
		}
		return nil, fmt.Errorf("load %s of %s: %w", field, cell, err)
	}
	return ret, nil
}
