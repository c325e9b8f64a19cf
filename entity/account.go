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

package entity

import (
	"fmt"

	"github.com/dotbitHQ/did-contracts-sub003/errcode"
	"github.com/dotbitHQ/did-contracts-sub003/molecule"
)

// AccountStatus is the lifecycle status of an account cell
type AccountStatus uint8

const (
	AccountStatusNormal              AccountStatus = 0
	AccountStatusSelling             AccountStatus = 1
	AccountStatusAuction             AccountStatus = 2
	AccountStatusLockedForCrossChain AccountStatus = 3
)

func (s AccountStatus) String() string {
	switch s {
	case AccountStatusNormal:
		return "normal"
	case AccountStatusSelling:
		return "selling"
	case AccountStatusAuction:
		return "auction"
	case AccountStatusLockedForCrossChain:
		return "locked_for_cross_chain"
	default:
		return fmt.Sprintf("undefined(%d)", uint8(s))
	}
}

func verifyAccountStatus(data []byte) error {
	if err := molecule.Uint8Verifier(data); err != nil {
		return err
	}
	if data[0] > uint8(AccountStatusLockedForCrossChain) {
		return errcode.New(
			errcode.UndefinedAccountStatus,
			"account status %d is undefined",
			data[0],
		)
	}
	return nil
}

// Supported AccountCellData versions
const (
	AccountCellDataV1 uint32 = 1
	AccountCellDataV2 uint32 = 2
	AccountCellDataV3 uint32 = 3

	LatestAccountCellDataVersion = AccountCellDataV3
)

// AccountCellData is implemented by every version of the account cell
// witness entity. Fields added in later versions are reached through
// TryLatest.
type AccountCellData interface {
	Version() uint32
	ID() AccountID
	Account() AccountChars
	RegisteredAt() uint64
	Status() AccountStatus
	Records() Records
	AsSlice() []byte
	TryLatest() (*AccountCellDataLatest, bool)
}

// field positions per version
type accountLayout struct {
	id              int
	account         int
	registeredAt    int
	lastTransfer    int
	lastEditManager int
	lastEditRecords int
	status          int
	records         int
	enableSub       int
	renewSubPrice   int
}

var accountLayouts = map[uint32]accountLayout{
	AccountCellDataV1: {
		id: 0, account: 1, registeredAt: 2, status: 3, records: 4,
		lastTransfer: -1, lastEditManager: -1, lastEditRecords: -1,
		enableSub: -1, renewSubPrice: -1,
	},
	AccountCellDataV2: {
		id: 0, account: 1, registeredAt: 2,
		lastTransfer: 3, lastEditManager: 4, lastEditRecords: 5,
		status: 6, records: 7,
		enableSub: -1, renewSubPrice: -1,
	},
	AccountCellDataV3: {
		id: 0, account: 1, registeredAt: 2,
		lastTransfer: 3, lastEditManager: 4, lastEditRecords: 5,
		status: 6, records: 7,
		enableSub: 8, renewSubPrice: 9,
	},
}

var accountFieldsV1 = []molecule.FieldVerifier{
	accountIDVerifier,
	verifyAccountChars,
	molecule.Uint64Verifier,
	verifyAccountStatus,
	verifyRecords,
}

var accountFieldsV2 = []molecule.FieldVerifier{
	accountIDVerifier,
	verifyAccountChars,
	molecule.Uint64Verifier,
	molecule.Uint64Verifier,
	molecule.Uint64Verifier,
	molecule.Uint64Verifier,
	verifyAccountStatus,
	verifyRecords,
}

var accountFieldsV3 = append(
	append([]molecule.FieldVerifier{}, accountFieldsV2...),
	molecule.Uint8Verifier,
	molecule.Uint64Verifier,
)

type accountCellData struct {
	table   molecule.Table
	layout  accountLayout
	version uint32
}

func (a *accountCellData) Version() uint32 { return a.version }

func (a *accountCellData) ID() AccountID {
	var id AccountID
	copy(id[:], a.table.Field(a.layout.id))
	return id
}

func (a *accountCellData) Account() AccountChars {
	return newAccountChars(a.table.Field(a.layout.account))
}

func (a *accountCellData) RegisteredAt() uint64 {
	return a.table.Uint64(a.layout.registeredAt)
}

func (a *accountCellData) Status() AccountStatus {
	return AccountStatus(a.table.Uint8(a.layout.status))
}

func (a *accountCellData) Records() Records {
	return newRecords(a.table.Field(a.layout.records))
}

func (a *accountCellData) AsSlice() []byte { return a.table.AsSlice() }

func (a *accountCellData) TryLatest() (*AccountCellDataLatest, bool) {
	if a.version != LatestAccountCellDataVersion {
		return nil, false
	}
	return &AccountCellDataLatest{accountCellData: a}, true
}

// AccountCellDataLatest exposes the fields only present in the latest
// version
type AccountCellDataLatest struct {
	*accountCellData
}

func (a *AccountCellDataLatest) LastTransferAccountAt() uint64 {
	return a.table.Uint64(a.layout.lastTransfer)
}

func (a *AccountCellDataLatest) LastEditManagerAt() uint64 {
	return a.table.Uint64(a.layout.lastEditManager)
}

func (a *AccountCellDataLatest) LastEditRecordsAt() uint64 {
	return a.table.Uint64(a.layout.lastEditRecords)
}

func (a *AccountCellDataLatest) EnableSubAccount() uint8 {
	return a.table.Uint8(a.layout.enableSub)
}

func (a *AccountCellDataLatest) RenewSubAccountPrice() uint64 {
	return a.table.Uint64(a.layout.renewSubPrice)
}

// AccountCellDataFromSlice decodes the given version of the entity
func AccountCellDataFromSlice(
	version uint32,
	data []byte,
) (AccountCellData, error) {
	var fields []molecule.FieldVerifier
	switch version {
	case AccountCellDataV1:
		fields = accountFieldsV1
	case AccountCellDataV2:
		fields = accountFieldsV2
	case AccountCellDataV3:
		fields = accountFieldsV3
	default:
		return nil, fmt.Errorf(
			"AccountCellData version %d: %w",
			version,
			errcode.EntityDecodingError,
		)
	}
	t, err := molecule.VerifyTable("AccountCellData", data, false, fields...)
	if err != nil {
		return nil, err
	}
	return &accountCellData{
		table:   t,
		layout:  accountLayouts[version],
		version: version,
	}, nil
}

// AccountCellDataBuilder produces the canonical encoding of any version
type AccountCellDataBuilder struct {
	Account               []AccountCharValue
	Records               []RecordValue
	RegisteredAt          uint64
	LastTransferAccountAt uint64
	LastEditManagerAt     uint64
	LastEditRecordsAt     uint64
	RenewSubAccountPrice  uint64
	Version               uint32
	ID                    AccountID
	Status                AccountStatus
	EnableSubAccount      uint8
}

func (b AccountCellDataBuilder) Build() []byte {
	common := [][]byte{
		b.ID[:],
		PackAccountChars(b.Account),
		molecule.PackUint64(b.RegisteredAt),
	}
	status := []byte{byte(b.Status)}
	records := PackRecords(b.Records)
	switch b.Version {
	case AccountCellDataV1:
		return molecule.PackTable(append(common, status, records)...)
	case AccountCellDataV2:
		return molecule.PackTable(append(
			common,
			molecule.PackUint64(b.LastTransferAccountAt),
			molecule.PackUint64(b.LastEditManagerAt),
			molecule.PackUint64(b.LastEditRecordsAt),
			status,
			records,
		)...)
	default:
		return molecule.PackTable(append(
			common,
			molecule.PackUint64(b.LastTransferAccountAt),
			molecule.PackUint64(b.LastEditManagerAt),
			molecule.PackUint64(b.LastEditRecordsAt),
			status,
			records,
			[]byte{b.EnableSubAccount},
			molecule.PackUint64(b.RenewSubAccountPrice),
		)...)
	}
}

// AccountSaleCellData versions
const (
	AccountSaleCellDataV1 uint32 = 1
	AccountSaleCellDataV2 uint32 = 2
)

// AccountSaleCellData describes an account listed for a fixed price sale
type AccountSaleCellData struct {
	table   molecule.Table
	version uint32
}

var accountSaleFieldsV1 = []molecule.FieldVerifier{
	accountIDVerifier,
	molecule.BytesVerifier,
	molecule.Uint64Verifier,
	molecule.BytesVerifier,
	molecule.Uint64Verifier,
}

var accountSaleFieldsV2 = append(
	append([]molecule.FieldVerifier{}, accountSaleFieldsV1...),
	molecule.Uint32Verifier,
)

func AccountSaleCellDataFromSlice(
	version uint32,
	data []byte,
) (*AccountSaleCellData, error) {
	var fields []molecule.FieldVerifier
	switch version {
	case AccountSaleCellDataV1:
		fields = accountSaleFieldsV1
	case AccountSaleCellDataV2:
		fields = accountSaleFieldsV2
	default:
		return nil, fmt.Errorf(
			"AccountSaleCellData version %d: %w",
			version,
			errcode.EntityDecodingError,
		)
	}
	t, err := molecule.VerifyTable(
		"AccountSaleCellData",
		data,
		false,
		fields...,
	)
	if err != nil {
		return nil, err
	}
	return &AccountSaleCellData{table: t, version: version}, nil
}

func (a *AccountSaleCellData) Version() uint32 { return a.version }

func (a *AccountSaleCellData) AccountID() AccountID {
	var id AccountID
	copy(id[:], a.table.Field(0))
	return id
}

func (a *AccountSaleCellData) Account() string     { return string(a.table.Bytes(1)) }
func (a *AccountSaleCellData) Price() uint64       { return a.table.Uint64(2) }
func (a *AccountSaleCellData) Description() string { return string(a.table.Bytes(3)) }
func (a *AccountSaleCellData) StartedAt() uint64   { return a.table.Uint64(4) }
func (a *AccountSaleCellData) AsSlice() []byte     { return a.table.AsSlice() }

// BuyerInviterProfitRate is zero for version 1 entities
func (a *AccountSaleCellData) BuyerInviterProfitRate() uint32 {
	if a.version < AccountSaleCellDataV2 {
		return 0
	}
	return a.table.Uint32(5)
}

type AccountSaleCellDataBuilder struct {
	Account                string
	Description            string
	Price                  uint64
	StartedAt              uint64
	Version                uint32
	BuyerInviterProfitRate uint32
	AccountID              AccountID
}

func (b AccountSaleCellDataBuilder) Build() []byte {
	fields := [][]byte{
		b.AccountID[:],
		molecule.PackBytes([]byte(b.Account)),
		molecule.PackUint64(b.Price),
		molecule.PackBytes([]byte(b.Description)),
		molecule.PackUint64(b.StartedAt),
	}
	if b.Version >= AccountSaleCellDataV2 {
		fields = append(fields, molecule.PackUint32(b.BuyerInviterProfitRate))
	}
	return molecule.PackTable(fields...)
}
