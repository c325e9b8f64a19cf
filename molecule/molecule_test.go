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

package molecule

import (
	"testing"

	"github.com/dotbitHQ/did-contracts-sub003/errcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackTableLayout(t *testing.T) {
	data := PackTable(
		PackUint32(7),
		PackBytes([]byte("ab")),
	)
	expected := []byte{
		22, 0, 0, 0, // total size
		12, 0, 0, 0, // offset of field 0
		16, 0, 0, 0, // offset of field 1
		7, 0, 0, 0,
		2, 0, 0, 0, 'a', 'b',
	}
	assert.Equal(t, expected, data)

	table, err := VerifyTable(
		"Pair",
		data,
		false,
		Uint32Verifier,
		BytesVerifier,
	)
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())
	assert.Equal(t, uint32(7), table.Uint32(0))
	assert.Equal(t, []byte("ab"), table.Bytes(1))
	assert.Nil(t, table.Field(2))
}

func TestVerifyTableRejectsMalformed(t *testing.T) {
	valid := PackTable(PackUint32(1), PackUint64(2))
	testCases := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: []byte{}},
		{name: "short header", data: []byte{8, 0, 0}},
		{name: "truncated", data: valid[:len(valid)-1]},
		{name: "residue", data: append(append([]byte{}, valid...), 0)},
		{
			name: "unaligned first offset",
			data: []byte{13, 0, 0, 0, 9, 0, 0, 0, 0, 0, 0, 0, 0},
		},
		{
			name: "offsets out of order",
			data: func() []byte {
				d := append([]byte{}, valid...)
				d[8] = 30
				return d
			}(),
		},
		{
			name: "too few fields",
			data: PackTable(PackUint32(1)),
		},
		{
			name: "too many fields",
			data: PackTable(PackUint32(1), PackUint64(2), PackUint32(3)),
		},
		{
			name: "wrong field size",
			data: PackTable(PackUint32(1), PackUint32(2)),
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := VerifyTable(
				"Test",
				tc.data,
				false,
				Uint32Verifier,
				Uint64Verifier,
			)
			require.Error(t, err)
			assert.ErrorIs(t, err, errcode.EntityDecodingError)
			var verr *VerificationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestVerifyTableCompatible(t *testing.T) {
	data := PackTable(PackUint32(1), PackUint64(2), PackUint32(3))
	table, err := VerifyTable(
		"Test",
		data,
		true,
		Uint32Verifier,
		Uint64Verifier,
	)
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())
	assert.Equal(t, uint64(2), table.Uint64(1))
}

func TestDynVec(t *testing.T) {
	empty := PackDynVec()
	assert.Equal(t, []byte{4, 0, 0, 0}, empty)
	v, err := VerifyDynVec("Empty", empty, BytesVerifier)
	require.NoError(t, err)
	assert.Equal(t, 0, v.Len())

	data := PackDynVec(
		PackBytes([]byte("one")),
		PackBytes(nil),
		PackBytes([]byte("three")),
	)
	v, err = VerifyDynVec("BytesVec", data, BytesVerifier)
	require.NoError(t, err)
	require.Equal(t, 3, v.Len())
	assert.Equal(t, []byte("one"), v.Bytes(0))
	assert.Empty(t, v.Bytes(1))
	assert.Equal(t, []byte("three"), v.Bytes(2))

	bad := PackDynVec(PackBytes([]byte("one")), []byte{9, 9})
	_, err = VerifyDynVec("BytesVec", bad, BytesVerifier)
	assert.ErrorIs(t, err, errcode.EntityDecodingError)
}

func TestFixVec(t *testing.T) {
	raw := []byte{
		1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1,
		2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2,
	}
	data := PackFixVec(20, raw)
	v, err := VerifyFixVec("AccountIdList", data, 20)
	require.NoError(t, err)
	assert.Equal(t, 2, v.Len())
	assert.Equal(t, raw[20:], v.Get(1))
	assert.Nil(t, v.Get(2))
	assert.Equal(t, raw, v.RawData())

	_, err = VerifyFixVec("AccountIdList", data[:len(data)-1], 20)
	assert.ErrorIs(t, err, errcode.EntityDecodingError)
	_, err = VerifyFixVec("AccountIdList", []byte{1, 0}, 20)
	assert.ErrorIs(t, err, errcode.EntityDecodingError)
}

func TestOptionOf(t *testing.T) {
	verify := OptionOf(Uint32Verifier)
	assert.NoError(t, verify(nil))
	assert.NoError(t, verify(PackUint32(5)))
	assert.Error(t, verify([]byte{1}))
}

func TestNestedTable(t *testing.T) {
	inner := TableOf("Inner", Uint8Verifier, BytesVerifier)
	data := PackTable(
		PackTable([]byte{1}, PackBytes([]byte("x"))),
		PackUint64(9),
	)
	_, err := VerifyTable("Outer", data, false, inner, Uint64Verifier)
	require.NoError(t, err)

	bad := PackTable(
		PackTable([]byte{1, 2}, PackBytes([]byte("x"))),
		PackUint64(9),
	)
	_, err = VerifyTable("Outer", bad, false, inner, Uint64Verifier)
	assert.ErrorIs(t, err, errcode.EntityDecodingError)
}

func FuzzVerifyTable(f *testing.F) {
	f.Add(PackTable(PackUint32(1), PackBytes([]byte("abc"))))
	f.Add([]byte{4, 0, 0, 0})
	f.Add([]byte{12, 0, 0, 0, 12, 0, 0, 0, 12, 0, 0, 0})
	f.Fuzz(func(t *testing.T, data []byte) {
		table, err := VerifyTable(
			"Fuzz",
			data,
			true,
			Uint32Verifier,
			BytesVerifier,
		)
		if err != nil {
			return
		}
		for i := range table.Len() {
			_ = table.Field(i)
		}
		assert.Equal(t, data, table.AsSlice())
	})
}
