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

package txstore_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dotbitHQ/did-contracts-sub003/entity"
	"github.com/dotbitHQ/did-contracts-sub003/host"
	"github.com/dotbitHQ/did-contracts-sub003/txstore"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// opencensus starts its stats worker from an init function
var leakOpts = []goleak.Option{
	goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"),
}

func testTransaction() *host.Transaction {
	typeScript := entity.ScriptBuilder{
		CodeHash: [32]byte{0xaa},
		HashType: 1,
		Args:     []byte{0x01, 0x00, 0x00, 0x00},
	}
	return &host.Transaction{
		Inputs: []host.Cell{
			{
				Capacity: 20_000_000_000,
				Lock:     entity.ScriptBuilder{CodeHash: [32]byte{0x01}},
				Type:     &typeScript,
				Data:     bytes.Repeat([]byte{0x11}, 32),
			},
		},
		Outputs: []host.Cell{
			{
				Capacity: 19_999_000_000,
				Lock: entity.ScriptBuilder{
					CodeHash: [32]byte{0x02},
					Args:     []byte{0xde, 0xad},
				},
				Data: []byte{0x22},
			},
		},
		CellDeps: []host.Cell{
			{
				Capacity: 1,
				Lock:     entity.ScriptBuilder{CodeHash: [32]byte{0x03}},
				Data:     []byte{0x33, 0x33},
			},
		},
		HeaderDeps:   [][32]byte{{0x44}},
		Witnesses:    [][]byte{[]byte("das\x00\x00\x00\x00"), {0x55}},
		GroupInputs:  []int{0},
		GroupOutputs: []int{0},
	}
}

func TestStoreRoundTrip(t *testing.T) {
	defer goleak.VerifyNone(t, leakOpts...)
	reg := prometheus.NewRegistry()
	store, err := txstore.New(txstore.WithPromRegistry(reg))
	require.NoError(t, err)
	defer store.Close()

	tx := testTransaction()
	require.NoError(t, store.Put("transfer", tx))
	got, err := store.Get("transfer")
	require.NoError(t, err)
	assert.Equal(t, tx, got)

	require.NoError(t, store.Put("apply", &host.Transaction{
		Witnesses: [][]byte{{0x01}},
	}))
	names, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"apply", "transfer"}, names)

	require.NoError(t, store.Delete("apply"))
	_, err = store.Get("apply")
	require.ErrorIs(t, err, txstore.ErrNotFound)
	require.ErrorIs(t, store.Delete("apply"), txstore.ErrNotFound)

	names, err = store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"transfer"}, names)

	expected := `
# HELP das_txstore_operations_total total number of fixture store operations
# TYPE das_txstore_operations_total counter
das_txstore_operations_total{op="delete"} 1
das_txstore_operations_total{op="get"} 1
das_txstore_operations_total{op="list"} 2
das_txstore_operations_total{op="put"} 2
`
	require.NoError(t, testutil.GatherAndCompare(
		reg,
		strings.NewReader(expected),
		"das_txstore_operations_total",
	))
}

func TestStoreInvalidName(t *testing.T) {
	store, err := txstore.New()
	require.NoError(t, err)
	defer store.Close()
	require.ErrorIs(t, store.Put("", testTransaction()), txstore.ErrInvalidName)
	_, err = store.Get("")
	require.ErrorIs(t, err, txstore.ErrInvalidName)
}

func TestStoreOnDisk(t *testing.T) {
	defer goleak.VerifyNone(t, leakOpts...)
	dir := filepath.Join(t.TempDir(), "data")

	store, err := txstore.New(txstore.WithDataDir(dir))
	require.NoError(t, err)
	require.NoError(t, store.Put("transfer", testTransaction()))
	require.NoError(t, store.Close())

	// Reopen and make sure the fixture survived
	store, err = txstore.New(
		txstore.WithDataDir(dir),
		txstore.WithGc(false),
	)
	require.NoError(t, err)
	defer store.Close()
	got, err := store.Get("transfer")
	require.NoError(t, err)
	assert.Equal(t, testTransaction(), got)
}

func TestFixtureYAML(t *testing.T) {
	tx := testTransaction()
	var buf bytes.Buffer
	require.NoError(t, txstore.WriteFixture(&buf, txstore.NewFixture("transfer", tx)))
	assert.Contains(t, buf.String(), "name: transfer")
	assert.Contains(t, buf.String(), `- "0x55"`)

	f, err := txstore.ReadFixture(&buf)
	require.NoError(t, err)
	assert.Equal(t, "transfer", f.Name)
	got, err := f.Transaction()
	require.NoError(t, err)
	assert.Equal(t, tx, got)
}

func TestLoadFixture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "edit-records.yaml")
	doc := `witnesses:
  - 0x646173
inputs:
  - capacity: 100
    lock:
      codeHash: 0x0101010101010101010101010101010101010101010101010101010101010101
      hashType: 1
      args: 0x
    data: 0xABCD
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	f, err := txstore.LoadFixture(path)
	require.NoError(t, err)
	assert.Equal(t, "edit-records", f.Name)

	tx, err := f.Transaction()
	require.NoError(t, err)
	require.Len(t, tx.Inputs, 1)
	assert.Equal(t, []byte("das"), tx.Witnesses[0])
	assert.Equal(t, []byte{0xab, 0xcd}, tx.Inputs[0].Data)
	assert.Equal(t, byte(1), tx.Inputs[0].Lock.HashType)
	assert.Nil(t, tx.Inputs[0].Type)
}

func TestFixtureErrors(t *testing.T) {
	testDefs := []struct {
		name string
		doc  string
		msg  string
	}{
		{
			name: "bad hex",
			doc:  "witnesses:\n  - 0xzz\n",
			msg:  "invalid hex",
		},
		{
			name: "unknown field",
			doc:  "witnesses: []\nsignatures: []\n",
			msg:  "signatures",
		},
	}
	for _, test := range testDefs {
		t.Run(test.name, func(t *testing.T) {
			_, err := txstore.ReadFixture(strings.NewReader(test.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), test.msg)
		})
	}

	f := &txstore.Fixture{
		Inputs: []txstore.FixtureCell{
			{Lock: txstore.FixtureScript{CodeHash: []byte{0x01}}},
		},
	}
	_, err := f.Transaction()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inputs[0].lock")
}
