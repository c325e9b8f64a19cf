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
	"fmt"

	"github.com/dotbitHQ/did-contracts-sub003/entity"
	"github.com/dotbitHQ/did-contracts-sub003/errcode"
	"github.com/dotbitHQ/did-contracts-sub003/lv"
	"github.com/dotbitHQ/did-contracts-sub003/witness"
)

// Role is the das-lock role that signs a transaction
type Role uint8

const (
	RoleOwner   Role = 0
	RoleManager Role = 1
)

func (r Role) String() string {
	switch r {
	case RoleOwner:
		return "owner"
	case RoleManager:
		return "manager"
	default:
		return fmt.Sprintf("Role(%d)", uint8(r))
	}
}

// Params is the decoded params of an action: NoneParams, RoleParams or
// BuyAccountParams
type Params interface {
	Kind() ParamsKind
}

type NoneParams struct{}

type RoleParams struct {
	Role Role
}

type BuyAccountParams struct {
	InviterLock *entity.Script
	ChannelLock *entity.Script
	Role        Role
}

func (NoneParams) Kind() ParamsKind       { return ParamsKindNone }
func (RoleParams) Kind() ParamsKind       { return ParamsKindRole }
func (BuyAccountParams) Kind() ParamsKind { return ParamsKindBuyAccount }

// ParamsError reports malformed params. Index is the position of the
// offending param.
type ParamsError struct {
	Err    error
	Action Action
	Index  int
}

func (e *ParamsError) Error() string {
	return fmt.Sprintf(
		"%s: %s param %d: %v",
		errcode.DecodingActionParamsFailed.Error(),
		e.Action,
		e.Index,
		e.Err,
	)
}

func (e *ParamsError) Unwrap() []error {
	return []error{errcode.DecodingActionParamsFailed, e.Err}
}

// Parsed is the decoded action witness
type Parsed struct {
	Data   *entity.ActionData
	Params Params
	Action Action
}

// Role returns the signing role carried in the params, if any
func (p *Parsed) Role() (Role, bool) {
	switch params := p.Params.(type) {
	case RoleParams:
		return params.Role, true
	case BuyAccountParams:
		return params.Role, true
	default:
		return 0, false
	}
}

// Parse decodes an ActionData payload, the witness without its header
func Parse(payload []byte) (*Parsed, error) {
	data, err := entity.ActionDataFromSlice(payload)
	if err != nil {
		return nil, fmt.Errorf(
			"%w: %w",
			errcode.DecodingActionDataFailed,
			err,
		)
	}
	return FromActionData(data)
}

// FromParser parses the action witness at position 0 of the index
func FromParser(p *witness.Parser) (*Parsed, error) {
	data, err := witness.EntityAs[*entity.ActionData](p.GetByIndex(0))
	if err != nil {
		var decodeErr *witness.DecodeError
		if errors.As(err, &decodeErr) {
			return nil, fmt.Errorf(
				"%w: %w",
				errcode.DecodingActionDataFailed,
				err,
			)
		}
		return nil, fmt.Errorf("action witness: %w", err)
	}
	return FromActionData(data)
}

func FromActionData(data *entity.ActionData) (*Parsed, error) {
	action, err := FromBytes(data.Action())
	if err != nil {
		return nil, err
	}
	params, err := parseParams(action, data.Params())
	if err != nil {
		return nil, err
	}
	return &Parsed{
		Data:   data,
		Action: action,
		Params: params,
	}, nil
}

func parseParams(action Action, raw []byte) (Params, error) {
	switch action.ParamsKind() {
	case ParamsKindNone:
		if len(raw) != 0 {
			return nil, &ParamsError{
				Action: action,
				Index:  0,
				Err:    fmt.Errorf("expected no params, got %d bytes", len(raw)),
			}
		}
		return NoneParams{}, nil
	case ParamsKindRole:
		if len(raw) != 1 {
			return nil, &ParamsError{
				Action: action,
				Index:  0,
				Err:    fmt.Errorf("expected a role byte, got %d bytes", len(raw)),
			}
		}
		role, err := roleFromByte(raw[0])
		if err != nil {
			return nil, &ParamsError{Action: action, Index: 0, Err: err}
		}
		return RoleParams{Role: role}, nil
	case ParamsKindBuyAccount:
		return parseBuyAccount(action, raw)
	default:
		return nil, &ParamsError{
			Action: action,
			Err:    fmt.Errorf("no params decoder for %s", action),
		}
	}
}

func parseBuyAccount(action Action, raw []byte) (Params, error) {
	r := lv.NewReader(raw)
	var ret BuyAccountParams
	for i, dst := range []**entity.Script{&ret.InviterLock, &ret.ChannelLock} {
		field, err := r.Next()
		if err != nil {
			return nil, &ParamsError{Action: action, Index: i, Err: err}
		}
		script, err := entity.ScriptFromSlice(field)
		if err != nil {
			return nil, &ParamsError{Action: action, Index: i, Err: err}
		}
		*dst = script
	}
	if r.Remaining() != 1 {
		return nil, &ParamsError{
			Action: action,
			Index:  2,
			Err:    fmt.Errorf("expected a role byte, got %d bytes", r.Remaining()),
		}
	}
	role, err := roleFromByte(raw[r.Offset()])
	if err != nil {
		return nil, &ParamsError{Action: action, Index: 2, Err: err}
	}
	ret.Role = role
	return ret, nil
}

func roleFromByte(b byte) (Role, error) {
	role := Role(b)
	if role != RoleOwner && role != RoleManager {
		return 0, fmt.Errorf("invalid role %d", b)
	}
	return role, nil
}

// PackBuyAccountParams encodes BuyAccount params
func PackBuyAccountParams(
	inviterLock entity.ScriptBuilder,
	channelLock entity.ScriptBuilder,
	role Role,
) []byte {
	ret := lv.Encode(inviterLock.Build(), channelLock.Build())
	return append(ret, byte(role))
}
