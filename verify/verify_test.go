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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"

	"github.com/dotbitHQ/did-contracts-sub003/celldata"
	"github.com/dotbitHQ/did-contracts-sub003/entity"
	"github.com/dotbitHQ/did-contracts-sub003/errcode"
	"github.com/dotbitHQ/did-contracts-sub003/host"
	"github.com/dotbitHQ/did-contracts-sub003/witness"
)

var (
	accountTypeID = [32]byte{0xac}
	ownerLock     = entity.ScriptBuilder{CodeHash: [32]byte{0x10}, Args: []byte{1}}
)

func outputs(indexes ...int) []host.CellMeta {
	ret := make([]host.CellMeta, 0, len(indexes))
	for _, i := range indexes {
		ret = append(ret, host.NewCellMeta(i, host.SourceOutput))
	}
	return ret
}

func TestCellNumber(t *testing.T) {
	require.NoError(t, CellNumber("account", outputs(0), 1))
	err := CellNumber("account", outputs(0, 1), 1)
	require.ErrorIs(t, err, errcode.CellNumberMismatch)
	assert.Contains(t, err.Error(), "expected 1 account cells, found 2")
}

func TestCellNumberAndPosition(t *testing.T) {
	testCases := []struct {
		name     string
		cells    []host.CellMeta
		want     []int
		wantCode errcode.Code
	}{
		{name: "match", cells: outputs(0, 2), want: []int{0, 2}},
		{name: "none expected", cells: nil, want: nil},
		{
			name:     "count",
			cells:    outputs(0),
			want:     []int{0, 1},
			wantCode: errcode.CellNumberMismatch,
		},
		{
			name:     "position",
			cells:    outputs(0, 1),
			want:     []int{0, 2},
			wantCode: errcode.CellPositionMismatch,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := CellNumberAndPosition("account", tc.cells, tc.want)
			if tc.wantCode == 0 {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tc.wantCode)
		})
	}
}

func testTransaction() *host.Transaction {
	accountType := &entity.ScriptBuilder{CodeHash: accountTypeID, HashType: 1}
	account := celldata.AccountCellBuilder{
		ID:        entity.AccountID{0x01},
		ExpiredAt: 100,
		Account:   "das.bit",
	}
	renewed := account
	renewed.ExpiredAt = 200
	return &host.Transaction{
		Inputs: []host.Cell{
			{
				Capacity: 1000,
				Lock:     ownerLock,
				Type:     accountType,
				Data:     account.Build(),
			},
			{Capacity: 500, Lock: ownerLock},
		},
		Outputs: []host.Cell{
			{
				Capacity: 990,
				Lock:     ownerLock,
				Type:     accountType,
				Data:     renewed.Build(),
			},
			{Capacity: 500, Lock: entity.ScriptBuilder{CodeHash: [32]byte{0x20}}},
			{
				Capacity: 1000,
				Lock:     ownerLock,
				Type:     accountType,
				Data:     account.Build(),
			},
		},
	}
}

func TestFindCellsByTypeID(t *testing.T) {
	l := host.NewLoader(testTransaction(), 0)
	cells, err := FindCellsByTypeID(l, accountTypeID, host.SourceOutput)
	require.NoError(t, err)
	assert.Equal(t, outputs(0, 2), cells)
	require.NoError(t, CellNumberAndPosition("account", cells, []int{0, 2}))

	cells, err = FindCellsByTypeID(l, [32]byte{0xff}, host.SourceInput)
	require.NoError(t, err)
	assert.Empty(t, cells)
}

func TestCapacity(t *testing.T) {
	l := host.NewLoader(testTransaction(), 0)
	input := host.NewCellMeta(0, host.SourceInput)
	output := host.NewCellMeta(0, host.SourceOutput)

	require.NoError(t, CapacityWithBasic(l, output, 990))
	require.ErrorIs(
		t,
		CapacityWithBasic(l, output, 991),
		errcode.CellCapacityNotEnough,
	)

	require.NoError(t, CapacityChange(l, input, output, 10, 900))
	require.ErrorIs(
		t,
		CapacityChange(l, input, output, 9, 900),
		errcode.CellCapacityChangeInvalid,
	)
	require.ErrorIs(
		t,
		CapacityChange(l, input, output, 10, 995),
		errcode.CellCapacityNotEnough,
	)
	// Capacity may grow
	require.NoError(t, CapacityChange(l, output, input, 0, 0))
	require.ErrorIs(
		t,
		CapacityChange(l, input, host.NewCellMeta(9, host.SourceOutput), 0, 0),
		errcode.IndexOutOfBound,
	)
}

func TestCellsConsistent(t *testing.T) {
	l := host.NewLoader(testTransaction(), 0)
	input := host.NewCellMeta(0, host.SourceInput)

	err := CellsConsistent(l, input, host.NewCellMeta(0, host.SourceOutput))
	require.ErrorIs(t, err, errcode.CellDataCanNotBeModified)
	require.NoError(
		t,
		CellsConsistent(
			l,
			input,
			host.NewCellMeta(0, host.SourceOutput),
			host.CellFieldDataHash,
		),
	)
	require.NoError(
		t,
		CellsConsistent(l, input, host.NewCellMeta(2, host.SourceOutput)),
	)

	plain := host.NewCellMeta(1, host.SourceInput)
	err = CellsConsistent(l, plain, host.NewCellMeta(1, host.SourceOutput))
	require.ErrorIs(t, err, errcode.CellLockCanNotBeModified)
	err = CellsConsistent(l, plain, input, host.CellFieldLockHash)
	require.ErrorIs(t, err, errcode.CellTypeCanNotBeModified)
}

func TestAccountCellConsistent(t *testing.T) {
	l := host.NewLoader(testTransaction(), 0)
	input := host.NewCellMeta(0, host.SourceInput)
	output := host.NewCellMeta(0, host.SourceOutput)

	err := LoadAccountCellsConsistent(l, input, output)
	require.ErrorIs(t, err, errcode.AccountCellFieldModified)
	assert.Contains(t, err.Error(), "expired_at")
	require.NoError(
		t,
		LoadAccountCellsConsistent(l, input, output, AccountFieldExpiredAt),
	)

	before, err := celldata.AccountCellFromSlice(
		celldata.AccountCellBuilder{Account: "a.bit"}.Build(),
	)
	require.NoError(t, err)
	after, err := celldata.AccountCellFromSlice(
		celldata.AccountCellBuilder{Account: "b.bit", Hash: [32]byte{1}}.Build(),
	)
	require.NoError(t, err)
	require.ErrorIs(
		t,
		AccountCellConsistent(before, after, AccountFieldExpiredAt),
		errcode.AccountCellFieldModified,
	)
	require.NoError(t, AccountCellConsistent(before, after, AccountFieldAccount))

	err = LoadAccountCellsConsistent(l, input, host.NewCellMeta(1, host.SourceOutput))
	require.ErrorIs(t, err, errcode.InvalidCellData)
}

func TestWitnessMatchesCell(t *testing.T) {
	payload := entity.AccountCellDataBuilder{Version: entity.AccountCellDataV3}.Build()
	hash := blake2b.Sum256(payload)
	tx := &host.Transaction{
		Outputs: []host.Cell{
			{Capacity: 1, Data: celldata.AccountCellBuilder{Hash: hash}.Build()},
			{Capacity: 1, Data: celldata.AccountCellBuilder{}.Build()},
			{Capacity: 1, Data: []byte{1}},
		},
		Witnesses: [][]byte{
			witness.Encode(
				witness.DataTypeActionData,
				0,
				entity.ActionDataBuilder{Action: []byte("renew_account")}.Build(),
			),
			witness.Encode(witness.DataTypeAccountCellData, 3, payload),
		},
	}
	p := witness.NewParser(tx, witness.ParserConfig{})
	rec, err := p.RecordByIndex(1)
	require.NoError(t, err)

	require.NoError(t, WitnessMatchesCell(p, rec, host.NewCellMeta(0, host.SourceOutput)))
	require.ErrorIs(
		t,
		WitnessMatchesCell(p, rec, host.NewCellMeta(1, host.SourceOutput)),
		errcode.WitnessHashMismatch,
	)
	require.ErrorIs(
		t,
		WitnessMatchesCell(p, rec, host.NewCellMeta(2, host.SourceOutput)),
		errcode.InvalidCellData,
	)
}
