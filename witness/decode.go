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

package witness

import (
	"encoding/binary"
	"fmt"

	"github.com/dotbitHQ/did-contracts-sub003/entity"
	"github.com/dotbitHQ/did-contracts-sub003/errcode"
	"github.com/dotbitHQ/did-contracts-sub003/lv"
)

// DecodeError reports a payload that does not decode as the entity its
// header declares. It matches its Code, errcode.EntityDecodingError unless
// set, as well as any code carried by the underlying failure.
type DecodeError struct {
	Err      error
	DataType DataType
	Version  uint32
	Code     errcode.Code
}

func (e *DecodeError) code() errcode.Code {
	if e.Code == 0 {
		return errcode.EntityDecodingError
	}
	return e.Code
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf(
		"%s: %s version %d: %v",
		e.code().Error(),
		e.DataType,
		e.Version,
		e.Err,
	)
}

func (e *DecodeError) Unwrap() []error {
	return []error{e.code(), e.Err}
}

// Blob is the payload of a config that is not schema encoded
type Blob []byte

// decodeEntity selects the decode path for the header's data type
func decodeEntity(header Header, payload []byte) (any, error) {
	desc, ok := header.DataType.Descriptor()
	if !ok {
		return nil, errcode.New(
			errcode.UndefinedDataType,
			"data type %d is undefined",
			uint32(header.DataType),
		)
	}
	if !desc.SupportsVersion(header.Version) {
		return nil, &DecodeError{
			DataType: header.DataType,
			Version:  header.Version,
			Code:     errcode.WitnessVersionMismatch,
			Err:      fmt.Errorf("unsupported version %d", header.Version),
		}
	}
	var (
		ret any
		err error
	)
	switch desc.Encoding {
	case EncodingSchema:
		ret, err = decodeSchema(header, payload)
	case EncodingLVChain:
		ret, err = decodeLVChain(header, payload)
	case EncodingBlob:
		ret = Blob(payload)
	default:
		err = fmt.Errorf("unknown encoding %s", desc.Encoding)
	}
	if err != nil {
		return nil, &DecodeError{
			DataType: header.DataType,
			Version:  header.Version,
			Err:      err,
		}
	}
	return ret, nil
}

func decodeSchema(header Header, payload []byte) (any, error) {
	switch header.DataType {
	case DataTypeActionData:
		return entity.ActionDataFromSlice(payload)
	case DataTypeAccountCellData:
		return entity.AccountCellDataFromSlice(header.Version, payload)
	case DataTypeAccountSaleCellData:
		return entity.AccountSaleCellDataFromSlice(header.Version, payload)
	case DataTypeSubAccountPriceRule, DataTypeSubAccountPreservedRule:
		return entity.SubAccountRulesFromSlice(payload)
	case DataTypeConfigCellAccount:
		return entity.ConfigCellAccountFromSlice(payload)
	case DataTypeConfigCellApply:
		return entity.ConfigCellApplyFromSlice(payload)
	case DataTypeConfigCellMain:
		return entity.ConfigCellMainFromSlice(payload)
	case DataTypeConfigCellPrice:
		return entity.ConfigCellPriceFromSlice(payload)
	case DataTypeConfigCellSubAccount:
		return entity.ConfigCellSubAccountFromSlice(payload)
	default:
		return nil, fmt.Errorf("no schema decoder for %s", header.DataType)
	}
}

func decodeLVChain(header Header, payload []byte) (any, error) {
	switch header.DataType {
	case DataTypeSubAccount:
		return SubAccountWitnessFromSlice(payload)
	default:
		return nil, fmt.Errorf("no lv decoder for %s", header.DataType)
	}
}

// Sign roles of a sub-account witness
const (
	SignRoleOwner   byte = 0
	SignRoleManager byte = 1
)

// Edit keys of a sub-account witness
const (
	EditKeyNone      = ""
	EditKeyExpiredAt = "expired_at"
	EditKeyOwner     = "owner"
	EditKeyManager   = "manager"
	EditKeyRecords   = "records"
)

// SubAccountWitness is one sub-account change. Unlike the other entities
// it is a plain length-value chain:
//
//	signature | sign_role | sign_expired_at | new_root | proof |
//	sub_account | edit_key | edit_value
type SubAccountWitness struct {
	SubAccount    *entity.SubAccount
	Signature     []byte
	SignRole      []byte
	Proof         []byte
	EditKey       []byte
	EditValue     []byte
	SignExpiredAt uint64
	NewRoot       [32]byte
}

func SubAccountWitnessFromSlice(payload []byte) (*SubAccountWitness, error) {
	r := lv.NewReader(payload)
	ret := &SubAccountWitness{}
	var err error
	if ret.Signature, err = r.Next(); err != nil {
		return nil, fmt.Errorf("signature: %w", err)
	}
	if ret.SignRole, err = r.Next(); err != nil {
		return nil, fmt.Errorf("sign_role: %w", err)
	}
	if len(ret.SignRole) > 1 ||
		(len(ret.SignRole) == 1 && ret.SignRole[0] != SignRoleOwner && ret.SignRole[0] != SignRoleManager) {
		return nil, errcode.New(
			errcode.StructureError,
			"invalid sign_role %x",
			ret.SignRole,
		)
	}
	if ret.SignExpiredAt, err = r.NextUint64(); err != nil {
		return nil, fmt.Errorf("sign_expired_at: %w", err)
	}
	newRoot, err := r.Next()
	if err != nil {
		return nil, fmt.Errorf("new_root: %w", err)
	}
	if len(newRoot) != len(ret.NewRoot) {
		return nil, errcode.New(
			errcode.StructureError,
			"new_root should be 32 bytes, got %d",
			len(newRoot),
		)
	}
	copy(ret.NewRoot[:], newRoot)
	if ret.Proof, err = r.Next(); err != nil {
		return nil, fmt.Errorf("proof: %w", err)
	}
	subAccount, err := r.Next()
	if err != nil {
		return nil, fmt.Errorf("sub_account: %w", err)
	}
	if ret.SubAccount, err = entity.SubAccountFromSlice(subAccount); err != nil {
		return nil, fmt.Errorf("sub_account: %w", err)
	}
	if ret.EditKey, err = r.Next(); err != nil {
		return nil, fmt.Errorf("edit_key: %w", err)
	}
	if ret.EditValue, err = r.Next(); err != nil {
		return nil, fmt.Errorf("edit_value: %w", err)
	}
	if !r.Done() {
		return nil, errcode.New(
			errcode.StructureError,
			"%d bytes of residue after sub-account witness",
			r.Remaining(),
		)
	}
	return ret, nil
}

// SubAccountWitnessBuilder produces the length-value chain of a
// sub-account witness
type SubAccountWitnessBuilder struct {
	Signature     []byte
	SignRole      []byte
	Proof         []byte
	EditKey       string
	EditValue     []byte
	SubAccount    entity.SubAccountBuilder
	SignExpiredAt uint64
	NewRoot       [32]byte
}

func (b SubAccountWitnessBuilder) Build() []byte {
	return lv.Encode(
		b.Signature,
		b.SignRole,
		binary.LittleEndian.AppendUint64(nil, b.SignExpiredAt),
		b.NewRoot[:],
		b.Proof,
		b.SubAccount.Build(),
		[]byte(b.EditKey),
		b.EditValue,
	)
}
