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

package registry

import (
	"context"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"golang.org/x/crypto/blake2b"

	"github.com/dotbitHQ/did-contracts-sub003/entity"
	"github.com/dotbitHQ/did-contracts-sub003/errcode"
	"github.com/dotbitHQ/did-contracts-sub003/host"
	"github.com/dotbitHQ/did-contracts-sub003/witness"
)

var testConfigTypeID = [32]byte{0xc0, 0xf1, 0x90}

type testConfig struct {
	dt      witness.DataType
	payload []byte
}

func configCell(dt witness.DataType, payload []byte) host.Cell {
	hash := blake2b.Sum256(payload)
	return host.Cell{
		Capacity: 1,
		Type: &entity.ScriptBuilder{
			CodeHash: testConfigTypeID,
			HashType: 1,
			Args:     binary.LittleEndian.AppendUint32(nil, uint32(dt)),
		},
		Data: hash[:],
	}
}

// configTransaction carries one witness and one config cell per config
func configTransaction(configs ...testConfig) *host.Transaction {
	tx := &host.Transaction{
		Witnesses: [][]byte{
			witness.Encode(
				witness.DataTypeActionData,
				0,
				entity.ActionDataBuilder{Action: []byte("config")}.Build(),
			),
		},
		CellDeps: []host.Cell{
			// Unrelated dep without a type script
			{Capacity: 1, Data: []byte("code")},
		},
	}
	for _, cfg := range configs {
		tx.Witnesses = append(
			tx.Witnesses,
			witness.Encode(cfg.dt, 1, cfg.payload),
		)
		tx.CellDeps = append(tx.CellDeps, configCell(cfg.dt, cfg.payload))
	}
	return tx
}

func newTestRegistry(
	t *testing.T,
	tx *host.Transaction,
	metrics *witness.Metrics,
) *Registry {
	t.Helper()
	parser := witness.NewParser(tx, witness.ParserConfig{Metrics: metrics})
	return New(
		context.Background(),
		parser,
		Config{ConfigCellTypeID: testConfigTypeID},
	)
}

func mainPayload() []byte {
	return entity.ConfigCellMainBuilder{
		Status: 1,
		TypeIDTable: entity.TypeIDTableBuilder{
			AccountCell: [32]byte{0x0a},
			ConfigCell:  testConfigTypeID,
		},
	}.Build()
}

func TestGetCachesEntry(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := witness.NewMetrics(reg)
	tx := configTransaction(
		testConfig{witness.DataTypeConfigCellMain, mainPayload()},
	)
	r := newTestRegistry(t, tx, metrics)

	first, err := r.Get(witness.DataTypeConfigCellMain)
	require.NoError(t, err)
	assert.Equal(t, host.NewCellMeta(1, host.SourceCellDep), first.Cell)
	assert.Equal(t, blake2b.Sum256(mainPayload()), first.Hash)

	// Mutating the transaction after the first lookup has no effect
	tx.CellDeps[1].Data = make([]byte, 32)
	second, err := r.Get(witness.DataTypeConfigCellMain)
	require.NoError(t, err)
	assert.Same(t, first, second)

	mainCfg, err := r.Main()
	require.NoError(t, err)
	assert.Equal(t, [32]byte{0x0a}, mainCfg.TypeIDTable().AccountCell())
	assert.Equal(t, testConfigTypeID, mainCfg.TypeIDTable().ConfigCell())
	expected := `
# HELP das_cache_hits_total total number of lookups served from a per-invocation cache
# TYPE das_cache_hits_total counter
das_cache_hits_total{cache="config"} 2
`
	require.NoError(
		t,
		testutil.GatherAndCompare(
			reg,
			strings.NewReader(expected),
			"das_cache_hits_total",
		),
	)
}

func TestGetFailures(t *testing.T) {
	mainWitness := witness.Encode(witness.DataTypeConfigCellMain, 1, mainPayload())
	testCases := []struct {
		name     string
		mutate   func(tx *host.Transaction)
		wantCode errcode.Code
	}{
		{
			name: "witness missing",
			mutate: func(tx *host.Transaction) {
				tx.Witnesses = tx.Witnesses[:1]
			},
			wantCode: errcode.ConfigCellNotFound,
		},
		{
			name: "witness duplicated",
			mutate: func(tx *host.Transaction) {
				tx.Witnesses = append(tx.Witnesses, mainWitness)
			},
			wantCode: errcode.DuplicatedConfigCellFound,
		},
		{
			name: "config cell missing",
			mutate: func(tx *host.Transaction) {
				tx.CellDeps = tx.CellDeps[:1]
			},
			wantCode: errcode.ConfigCellNotFound,
		},
		{
			name: "config cell duplicated",
			mutate: func(tx *host.Transaction) {
				tx.CellDeps = append(tx.CellDeps, tx.CellDeps[1])
			},
			wantCode: errcode.DuplicatedConfigCellFound,
		},
		{
			name: "config cell of another type id",
			mutate: func(tx *host.Transaction) {
				other := *tx.CellDeps[1].Type
				other.CodeHash = [32]byte{0xff}
				tx.CellDeps[1].Type = &other
			},
			wantCode: errcode.ConfigCellNotFound,
		},
		{
			name: "witness does not match cell",
			mutate: func(tx *host.Transaction) {
				tx.CellDeps[1].Data = make([]byte, 32)
			},
			wantCode: errcode.ConfigCellWitnessInvalid,
		},
		{
			name: "cell data is not a hash",
			mutate: func(tx *host.Transaction) {
				tx.CellDeps[1].Data = tx.CellDeps[1].Data[:31]
			},
			wantCode: errcode.InvalidCellData,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tx := configTransaction(
				testConfig{witness.DataTypeConfigCellMain, mainPayload()},
			)
			tc.mutate(tx)
			_, err := newTestRegistry(t, tx, nil).Main()
			require.ErrorIs(t, err, tc.wantCode)
		})
	}
}

func TestGetRejectsNonConfig(t *testing.T) {
	r := newTestRegistry(t, configTransaction(), nil)
	_, err := r.Get(witness.DataTypeAccountCellData)
	require.ErrorIs(t, err, errcode.UndefinedDataType)
}

func TestTypedConfigs(t *testing.T) {
	tx := configTransaction(
		testConfig{
			witness.DataTypeConfigCellAccount,
			entity.ConfigCellAccountBuilder{MaxLength: 42}.Build(),
		},
		testConfig{
			witness.DataTypeConfigCellApply,
			entity.ConfigCellApplyBuilder{
				MinWaitingBlockNumber: 1,
				MaxWaitingBlockNumber: 5760,
			}.Build(),
		},
		testConfig{
			witness.DataTypeConfigCellPrice,
			entity.ConfigCellPriceBuilder{
				InvitedDiscount: 500,
				Prices: []entity.PriceConfigValue{
					{Length: 4, New: 160, Renew: 160},
					{Length: 5, New: 5, Renew: 5},
				},
			}.Build(),
		},
		testConfig{
			witness.DataTypeConfigCellSubAccount,
			entity.ConfigCellSubAccountBuilder{CommonFee: 1000}.Build(),
		},
	)
	r := newTestRegistry(t, tx, nil)

	account, err := r.Account()
	require.NoError(t, err)
	assert.Equal(t, uint32(42), account.MaxLength())
	apply, err := r.Apply()
	require.NoError(t, err)
	assert.Equal(t, uint32(5760), apply.MaxWaitingBlockNumber())
	price, err := r.Price()
	require.NoError(t, err)
	p, ok := price.PriceOf(9)
	require.True(t, ok)
	assert.Equal(t, uint64(5), p.New())
	subAccount, err := r.SubAccount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), subAccount.CommonFee())
	_, err = r.Main()
	require.ErrorIs(t, err, errcode.ConfigCellNotFound)
}

func TestBlobConfigs(t *testing.T) {
	preserved := AccountHash([]byte("google"))
	unavailable := AccountHash([]byte("xn--"))
	tx := configTransaction(
		testConfig{
			witness.PreservedAccountDataType(preserved[0]),
			PackHashList([][AccountHashSize]byte{preserved, {0x00}, {0xff}}),
		},
		testConfig{
			witness.DataTypeConfigCellUnAvailableAccount,
			PackHashList([][AccountHashSize]byte{unavailable}),
		},
		testConfig{
			witness.DataTypeConfigCellRecordKeyNamespace,
			PackRecordKeyNamespace([]string{"address.eth", "profile.twitter"}),
		},
		testConfig{
			witness.DataTypeConfigCellCharSetDigit,
			PackCharSet(true, []string{"0", "1", "2"}),
		},
	)
	r := newTestRegistry(t, tx, nil)

	ok, err := r.IsPreserved([]byte("google"))
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = r.IsUnavailable([]byte("xn--"))
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = r.IsUnavailable([]byte("das"))
	require.NoError(t, err)
	assert.False(t, ok)

	namespace, err := r.RecordKeyNamespace()
	require.NoError(t, err)
	assert.True(t, namespace.Contains("profile.twitter"))
	assert.False(t, namespace.Contains("profile.myspace"))
	again, err := r.RecordKeyNamespace()
	require.NoError(t, err)
	assert.Same(t, namespace, again)

	digits, err := r.CharSet(entity.CharSetDigit)
	require.NoError(t, err)
	assert.True(t, digits.Global)
	assert.True(t, digits.Contains("2"))
	assert.False(t, digits.Contains("3"))

	_, err = r.CharSet(entity.CharSetType(11))
	require.ErrorIs(t, err, errcode.UndefinedCharSet)
	_, err = r.CharSet(entity.CharSetEn)
	require.ErrorIs(t, err, errcode.ConfigCellNotFound)
}

func TestHashList(t *testing.T) {
	a := [AccountHashSize]byte{0x01}
	b := [AccountHashSize]byte{0x02}
	c := [AccountHashSize]byte{0x03}
	list, err := NewHashList(PackHashList([][AccountHashSize]byte{c, a, a}))
	require.NoError(t, err)
	assert.Equal(t, 2, list.Len())
	assert.True(t, list.Contains(a))
	assert.True(t, list.Contains(c))
	assert.False(t, list.Contains(b))

	empty, err := NewHashList(nil)
	require.NoError(t, err)
	assert.False(t, empty.Contains(a))

	_, err = NewHashList(make([]byte, AccountHashSize+1))
	require.ErrorIs(t, err, errcode.StructureError)
	_, err = NewHashList(append(c[:], a[:]...))
	require.ErrorIs(t, err, errcode.StructureError)
}

func TestCharSetParsing(t *testing.T) {
	testCases := []struct {
		name  string
		data  []byte
		chars int
		fail  bool
	}{
		{name: "empty", data: nil, fail: true},
		{name: "flag only", data: []byte{0}, chars: 0},
		{name: "global", data: PackCharSet(true, []string{"a"}), chars: 1},
		{name: "unknown flag", data: []byte{7, 'a', 0}, fail: true},
		{name: "multi byte chars", data: PackCharSet(false, []string{"あ", "い"}), chars: 2},
		{name: "unterminated", data: []byte{0, 'a'}, fail: true},
		{name: "empty char", data: []byte{0, 0}, fail: true},
		{name: "invalid utf-8", data: []byte{0, 0xff, 0}, fail: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			set, err := NewCharSet(entity.CharSetJa, tc.data)
			if tc.fail {
				require.ErrorIs(t, err, errcode.StructureError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.chars, set.Len())
		})
	}

	set, err := NewCharSet(entity.CharSetEn, PackCharSet(false, []string{"d", "a", "s"}))
	require.NoError(t, err)
	account, err := entity.AccountCellDataFromSlice(
		entity.AccountCellDataV1,
		entity.AccountCellDataBuilder{
			Version: entity.AccountCellDataV1,
			Account: []entity.AccountCharValue{
				{CharSetName: entity.CharSetEn, Bytes: []byte("d")},
				{CharSetName: entity.CharSetEn, Bytes: []byte("x")},
			},
		}.Build(),
	)
	require.NoError(t, err)
	index, ok := set.ContainsAll(account.Account())
	assert.False(t, ok)
	assert.Equal(t, 1, index)
}

func TestLookupSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(recorder),
	)
	tx := configTransaction(
		testConfig{witness.DataTypeConfigCellMain, mainPayload()},
	)
	r := New(
		context.Background(),
		witness.NewParser(tx, witness.ParserConfig{}),
		Config{
			ConfigCellTypeID: testConfigTypeID,
			Tracer:           provider.Tracer("test"),
		},
	)
	_, err := r.Main()
	require.NoError(t, err)
	_, err = r.Main()
	require.NoError(t, err)
	_, err = r.Apply()
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "registry.Get", spans[0].Name())
	assert.Equal(t, 1, len(spans[1].Events()))
}
