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

package verify

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/dotbitHQ/did-contracts-sub003/celldata"
	"github.com/dotbitHQ/did-contracts-sub003/errcode"
	"github.com/dotbitHQ/did-contracts-sub003/host"
	"github.com/dotbitHQ/did-contracts-sub003/witness"
)

// AccountField names a field of account cell data
type AccountField uint8

const (
	AccountFieldID AccountField = iota + 1
	AccountFieldNext
	AccountFieldExpiredAt
	AccountFieldAccount
)

func (f AccountField) String() string {
	switch f {
	case AccountFieldID:
		return "id"
	case AccountFieldNext:
		return "next"
	case AccountFieldExpiredAt:
		return "expired_at"
	case AccountFieldAccount:
		return "account"
	default:
		return fmt.Sprintf("AccountField(%d)", uint8(f))
	}
}

// AccountCellConsistent checks that output keeps the account cell data
// fields of input, except for those listed in allowed. The leading witness
// hash is not compared.
func AccountCellConsistent(
	input *celldata.AccountCell,
	output *celldata.AccountCell,
	allowed ...AccountField,
) error {
	checks := []struct {
		field AccountField
		equal bool
	}{
		{AccountFieldID, input.ID() == output.ID()},
		{AccountFieldNext, input.Next() == output.Next()},
		{AccountFieldExpiredAt, input.ExpiredAt() == output.ExpiredAt()},
		{AccountFieldAccount, bytes.Equal(input.Account(), output.Account())},
	}
	for _, check := range checks {
		if check.equal || slices.Contains(allowed, check.field) {
			continue
		}
		return errcode.New(
			errcode.AccountCellFieldModified,
			"account cell field %s can not be modified",
			check.field,
		)
	}
	return nil
}

// LoadAccountCellsConsistent loads both account cells and runs
// AccountCellConsistent
func LoadAccountCellsConsistent(
	l *host.Loader,
	input host.CellMeta,
	output host.CellMeta,
	allowed ...AccountField,
) error {
	before, err := celldata.LoadAccountCell(l, input)
	if err != nil {
		return err
	}
	after, err := celldata.LoadAccountCell(l, output)
	if err != nil {
		return err
	}
	if err := AccountCellConsistent(before, after, allowed...); err != nil {
		return fmt.Errorf("%s to %s: %w", input, output, err)
	}
	return nil
}

// WitnessMatchesCell checks that the data of cell starts with the hash of
// the witness payload
func WitnessMatchesCell(
	p *witness.Parser,
	rec *witness.Record,
	cell host.CellMeta,
) error {
	data, err := p.Loader().CellData(cell)
	if err != nil {
		return fmt.Errorf("load data of %s: %w", cell, err)
	}
	if len(data) < witness.HashSize {
		return errcode.New(
			errcode.InvalidCellData,
			"data of %s is %d bytes, too short for a witness hash",
			cell,
			len(data),
		)
	}
	hash := p.PayloadHash(rec)
	if !bytes.Equal(data[:witness.HashSize], hash[:]) {
		return errcode.New(
			errcode.WitnessHashMismatch,
			"%s commits to %x, witness %d hashes to %x",
			cell,
			data[:witness.HashSize],
			rec.Position,
			hash,
		)
	}
	return nil
}
