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

package celldata

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotbitHQ/did-contracts-sub003/entity"
	"github.com/dotbitHQ/did-contracts-sub003/errcode"
	"github.com/dotbitHQ/did-contracts-sub003/host"
)

func TestAccountCell(t *testing.T) {
	builder := AccountCellBuilder{
		Hash:      [HashSize]byte{0x11},
		ID:        entity.AccountID{0x01},
		Next:      entity.AccountID{0x02},
		ExpiredAt: 1_700_000_000,
		Account:   "das.bit",
	}
	data := builder.Build()
	require.Len(t, data, AccountCellMinSize+len("das.bit"))

	cell, err := AccountCellFromSlice(data)
	require.NoError(t, err)
	assert.Equal(t, builder.Hash, cell.Hash())
	assert.Equal(t, builder.ID, cell.ID())
	assert.Equal(t, builder.Next, cell.Next())
	assert.Equal(t, builder.ExpiredAt, cell.ExpiredAt())
	assert.Equal(t, []byte("das.bit"), cell.Account())
	assert.Equal(t, data, cell.AsSlice())

	// Layout offsets are fixed
	assert.Equal(t, byte(0x01), data[32])
	assert.Equal(t, byte(0x02), data[52])

	_, err = AccountCellFromSlice(data[:AccountCellMinSize-1])
	require.ErrorIs(t, err, errcode.InvalidCellData)
	empty, err := AccountCellFromSlice(data[:AccountCellMinSize])
	require.NoError(t, err)
	assert.Empty(t, empty.Account())
}

func TestApplyRegisterCell(t *testing.T) {
	data := make([]byte, ApplyRegisterSize)
	data[32] = 100
	data[40] = 200
	cell, err := ApplyRegisterCellFromSlice(data)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), cell.Height())
	assert.Equal(t, uint64(200), cell.Timestamp())

	built := ApplyRegisterCellBuilder{Height: 100, Timestamp: 200}.Build()
	assert.Equal(t, data, built)

	for _, size := range []int{0, ApplyRegisterSize - 1, ApplyRegisterSize + 1} {
		_, err := ApplyRegisterCellFromSlice(make([]byte, size))
		require.ErrorIs(t, err, errcode.InvalidCellData, "size %d", size)
	}
}

func TestDPoint(t *testing.T) {
	value, err := DPointValue(PackDPoint(12345))
	require.NoError(t, err)
	assert.Equal(t, uint64(12345), value)

	testCases := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "short", data: PackDPoint(1)[:DPointSize-1]},
		{name: "long", data: append(PackDPoint(1), 0)},
		{name: "bad header", data: append([]byte{9, 0, 0, 0}, make([]byte, 8)...)},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DPointValue(tc.data)
			require.ErrorIs(t, err, errcode.InvalidCellData)
		})
	}
}

func TestConfigCellHash(t *testing.T) {
	hash, err := ConfigCellHash(bytes.Repeat([]byte{0x7f}, ConfigCellSize))
	require.NoError(t, err)
	assert.Equal(t, byte(0x7f), hash[31])
	_, err = ConfigCellHash(make([]byte, ConfigCellSize+1))
	require.ErrorIs(t, err, errcode.InvalidCellData)
}

func TestDasLockArgsDistinctRoles(t *testing.T) {
	builder := DasLockArgsBuilder{
		OwnerAlgorithm:   LockAlgorithmETH,
		Owner:            [LockPayloadSize]byte{0xaa},
		ManagerAlgorithm: LockAlgorithmTRON,
		Manager:          [LockPayloadSize]byte{0xbb},
	}
	args, err := DasLockArgsFromSlice(builder.Build())
	require.NoError(t, err)
	algorithm, owner := args.OwnerLock()
	assert.Equal(t, LockAlgorithmETH, algorithm)
	assert.Equal(t, builder.Owner[:], owner)
	algorithm, manager := args.ManagerLock()
	assert.Equal(t, LockAlgorithmTRON, algorithm)
	assert.Equal(t, builder.Manager[:], manager)
	assert.Equal(t, "tron", algorithm.String())
	assert.Equal(t, "LockAlgorithm(99)", LockAlgorithm(99).String())

	_, err = DasLockArgsFromSlice(make([]byte, DasLockArgsSize-1))
	require.ErrorIs(t, err, errcode.InvalidCellData)
}

func TestLoaders(t *testing.T) {
	lockArgs := DasLockArgsBuilder{
		OwnerAlgorithm:   LockAlgorithmCKB,
		ManagerAlgorithm: LockAlgorithmED25519,
	}.Build()
	tx := &host.Transaction{
		Inputs: []host.Cell{
			{
				Capacity: 1,
				Lock:     entity.ScriptBuilder{Args: lockArgs},
				Data:     AccountCellBuilder{Account: "a.bit"}.Build(),
			},
			{
				Capacity: 1,
				Data:     ApplyRegisterCellBuilder{Height: 7, Timestamp: 8}.Build(),
			},
			{Capacity: 1, Data: PackDPoint(99)},
		},
	}
	l := host.NewLoader(tx, 8)

	account, err := LoadAccountCell(l, host.NewCellMeta(0, host.SourceInput))
	require.NoError(t, err)
	assert.Equal(t, []byte("a.bit"), account.Account())

	args, err := LoadDasLockArgs(l, host.NewCellMeta(0, host.SourceInput))
	require.NoError(t, err)
	assert.Equal(t, LockAlgorithmCKB, args.OwnerAlgorithm())
	assert.Equal(t, LockAlgorithmED25519, args.ManagerAlgorithm())

	apply, err := LoadApplyRegisterCell(l, host.NewCellMeta(1, host.SourceInput))
	require.NoError(t, err)
	assert.Equal(t, uint64(7), apply.Height())

	value, err := LoadDPoint(l, host.NewCellMeta(2, host.SourceInput))
	require.NoError(t, err)
	assert.Equal(t, uint64(99), value)

	_, err = LoadDPoint(l, host.NewCellMeta(3, host.SourceInput))
	require.ErrorIs(t, err, errcode.IndexOutOfBound)
	_, err = LoadAccountCell(l, host.NewCellMeta(1, host.SourceInput))
	require.ErrorIs(t, err, errcode.InvalidCellData)
}
