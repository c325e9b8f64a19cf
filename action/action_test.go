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

package action

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotbitHQ/did-contracts-sub003/entity"
	"github.com/dotbitHQ/did-contracts-sub003/errcode"
	"github.com/dotbitHQ/did-contracts-sub003/host"
	"github.com/dotbitHQ/did-contracts-sub003/witness"
)

func actionPayload(action string, params []byte) []byte {
	return entity.ActionDataBuilder{
		Action: []byte(action),
		Params: params,
	}.Build()
}

func TestActionNames(t *testing.T) {
	require.Len(t, actionNames, int(ForceRecoverAccountStatus))
	for action, name := range actionNames {
		got, err := FromBytes([]byte(name))
		require.NoError(t, err)
		assert.Equal(t, action, got)
		assert.Equal(t, name, action.String())
	}
	assert.Equal(t, "Action(200)", Action(200).String())
}

func TestParse(t *testing.T) {
	inviter := entity.ScriptBuilder{CodeHash: [32]byte{0x01}, Args: []byte{0xaa}}
	channel := entity.ScriptBuilder{CodeHash: [32]byte{0x02}, HashType: 1}
	buyParams := PackBuyAccountParams(inviter, channel, RoleOwner)
	testCases := []struct {
		name     string
		action   string
		params   []byte
		want     Action
		kind     ParamsKind
		role     Role
		wantCode errcode.Code
		index    int
	}{
		{
			name:   "apply register without params",
			action: "apply_register",
			want:   ApplyRegister,
			kind:   ParamsKindNone,
		},
		{
			name:   "edit records by manager",
			action: "edit_records",
			params: []byte{1},
			want:   EditRecords,
			kind:   ParamsKindRole,
			role:   RoleManager,
		},
		{
			name:   "buy account",
			action: "buy_account",
			params: buyParams,
			want:   BuyAccount,
			kind:   ParamsKindBuyAccount,
			role:   RoleOwner,
		},
		{
			name:     "unknown action",
			action:   "steal_account",
			wantCode: errcode.DecodingActionDataFailed,
		},
		{
			name:     "non utf-8 action",
			action:   "\xff\xfe",
			wantCode: errcode.DecodingActionDataFailed,
		},
		{
			name:     "unexpected params",
			action:   "apply_register",
			params:   []byte{0},
			wantCode: errcode.DecodingActionParamsFailed,
		},
		{
			name:     "missing role",
			action:   "transfer_account",
			wantCode: errcode.DecodingActionParamsFailed,
		},
		{
			name:     "invalid role",
			action:   "transfer_account",
			params:   []byte{2},
			wantCode: errcode.DecodingActionParamsFailed,
		},
		{
			name:     "role with residue",
			action:   "edit_manager",
			params:   []byte{0, 0},
			wantCode: errcode.DecodingActionParamsFailed,
		},
		{
			name:     "buy account truncated channel lock",
			action:   "buy_account",
			params:   buyParams[:len(buyParams)-10],
			wantCode: errcode.DecodingActionParamsFailed,
			index:    1,
		},
		{
			name:     "buy account without role",
			action:   "buy_account",
			params:   buyParams[:len(buyParams)-1],
			wantCode: errcode.DecodingActionParamsFailed,
			index:    2,
		},
		{
			name:     "buy account with residue",
			action:   "buy_account",
			params:   append(append([]byte{}, buyParams...), 0),
			wantCode: errcode.DecodingActionParamsFailed,
			index:    2,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			parsed, err := Parse(actionPayload(tc.action, tc.params))
			if tc.wantCode != 0 {
				require.ErrorIs(t, err, tc.wantCode)
				var paramsErr *ParamsError
				if errors.As(err, &paramsErr) {
					assert.Equal(t, tc.index, paramsErr.Index)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, parsed.Action)
			assert.Equal(t, tc.kind, parsed.Params.Kind())
			role, ok := parsed.Role()
			assert.Equal(t, tc.kind != ParamsKindNone, ok)
			assert.Equal(t, tc.role, role)
		})
	}
}

func TestParseBuyAccountScripts(t *testing.T) {
	inviter := entity.ScriptBuilder{CodeHash: [32]byte{0x01}, Args: []byte{0xaa}}
	channel := entity.ScriptBuilder{CodeHash: [32]byte{0x02}, HashType: 1}
	parsed, err := Parse(
		actionPayload("buy_account", PackBuyAccountParams(inviter, channel, RoleManager)),
	)
	require.NoError(t, err)
	params, ok := parsed.Params.(BuyAccountParams)
	require.True(t, ok)
	assert.Equal(t, inviter.Build(), params.InviterLock.AsSlice())
	assert.Equal(t, channel.CodeHash, params.ChannelLock.CodeHash())
	assert.Equal(t, RoleManager, params.Role)
}

func TestParseMalformedActionData(t *testing.T) {
	_, err := Parse([]byte{1, 2, 3})
	require.ErrorIs(t, err, errcode.DecodingActionDataFailed)
	require.ErrorIs(t, err, errcode.EntityDecodingError)
}

func TestFromParser(t *testing.T) {
	tx := &host.Transaction{
		Witnesses: [][]byte{
			witness.Encode(
				witness.DataTypeActionData,
				0,
				actionPayload("apply_register", nil),
			),
		},
	}
	parsed, err := FromParser(witness.NewParser(tx, witness.ParserConfig{}))
	require.NoError(t, err)
	assert.Equal(t, ApplyRegister, parsed.Action)
	assert.Equal(t, NoneParams{}, parsed.Params)
}

func TestFromParserMalformedActionData(t *testing.T) {
	tx := &host.Transaction{
		Witnesses: [][]byte{
			witness.Encode(witness.DataTypeActionData, 0, []byte{1, 2, 3}),
		},
	}
	_, err := FromParser(witness.NewParser(tx, witness.ParserConfig{}))
	require.ErrorIs(t, err, errcode.DecodingActionDataFailed)
	require.ErrorIs(t, err, errcode.EntityDecodingError)
	code, ok := errcode.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, errcode.DecodingActionDataFailed, code)

	// Parse reports the same code for the same payload
	_, err = Parse([]byte{1, 2, 3})
	code, ok = errcode.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, errcode.DecodingActionDataFailed, code)
}

func TestSignerRole(t *testing.T) {
	role, ok := EditRecords.SignerRole()
	require.True(t, ok)
	assert.Equal(t, RoleManager, role)
	role, ok = TransferAccount.SignerRole()
	require.True(t, ok)
	assert.Equal(t, RoleOwner, role)
	_, ok = Config.SignerRole()
	assert.False(t, ok)
}
