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
	"github.com/dotbitHQ/did-contracts-sub003/molecule"
)

// TypeIDTable lists the type ids of the cells the contracts recognize
type TypeIDTable struct {
	table molecule.Table
}

const typeIDTableFieldCount = 10

var typeIDTableFields = func() []molecule.FieldVerifier {
	ret := make([]molecule.FieldVerifier, typeIDTableFieldCount)
	for i := range ret {
		ret[i] = molecule.Byte32Verifier
	}
	return ret
}()

func (t TypeIDTable) AccountCell() [32]byte       { return t.table.Byte32(0) }
func (t TypeIDTable) ApplyRegisterCell() [32]byte { return t.table.Byte32(1) }
func (t TypeIDTable) AccountSaleCell() [32]byte   { return t.table.Byte32(2) }
func (t TypeIDTable) BalanceCell() [32]byte       { return t.table.Byte32(3) }
func (t TypeIDTable) ConfigCell() [32]byte        { return t.table.Byte32(4) }
func (t TypeIDTable) IncomeCell() [32]byte        { return t.table.Byte32(5) }
func (t TypeIDTable) PreAccountCell() [32]byte    { return t.table.Byte32(6) }
func (t TypeIDTable) ProposalCell() [32]byte      { return t.table.Byte32(7) }
func (t TypeIDTable) SubAccountCell() [32]byte    { return t.table.Byte32(8) }
func (t TypeIDTable) DPointCell() [32]byte        { return t.table.Byte32(9) }

type TypeIDTableBuilder struct {
	AccountCell       [32]byte
	ApplyRegisterCell [32]byte
	AccountSaleCell   [32]byte
	BalanceCell       [32]byte
	ConfigCell        [32]byte
	IncomeCell        [32]byte
	PreAccountCell    [32]byte
	ProposalCell      [32]byte
	SubAccountCell    [32]byte
	DPointCell        [32]byte
}

func (b TypeIDTableBuilder) Build() []byte {
	return molecule.PackTable(
		b.AccountCell[:],
		b.ApplyRegisterCell[:],
		b.AccountSaleCell[:],
		b.BalanceCell[:],
		b.ConfigCell[:],
		b.IncomeCell[:],
		b.PreAccountCell[:],
		b.ProposalCell[:],
		b.SubAccountCell[:],
		b.DPointCell[:],
	)
}

// ConfigCellMain holds the global switches and the type id table
type ConfigCellMain struct {
	table molecule.Table
}

func ConfigCellMainFromSlice(data []byte) (*ConfigCellMain, error) {
	t, err := molecule.VerifyTable(
		"ConfigCellMain",
		data,
		false,
		molecule.Uint8Verifier,
		molecule.TableOf("TypeIdTable", typeIDTableFields...),
	)
	if err != nil {
		return nil, err
	}
	return &ConfigCellMain{table: t}, nil
}

// Status is 1 when the contracts are enabled
func (c *ConfigCellMain) Status() uint8 { return c.table.Uint8(0) }

func (c *ConfigCellMain) TypeIDTable() TypeIDTable {
	t, _ := molecule.VerifyTable(
		"TypeIdTable",
		c.table.Field(1),
		false,
		make([]molecule.FieldVerifier, typeIDTableFieldCount)...,
	)
	return TypeIDTable{table: t}
}

func (c *ConfigCellMain) AsSlice() []byte { return c.table.AsSlice() }

type ConfigCellMainBuilder struct {
	TypeIDTable TypeIDTableBuilder
	Status      uint8
}

func (b ConfigCellMainBuilder) Build() []byte {
	return molecule.PackTable(
		[]byte{b.Status},
		b.TypeIDTable.Build(),
	)
}

// ConfigCellAccount holds account limits, fees and throttles
type ConfigCellAccount struct {
	table molecule.Table
}

var configCellAccountFields = []molecule.FieldVerifier{
	molecule.Uint32Verifier, // max_length
	molecule.Uint64Verifier, // basic_capacity
	molecule.Uint64Verifier, // prepared_fee_capacity
	molecule.Uint32Verifier, // expiration_grace_period
	molecule.Uint32Verifier, // record_min_ttl
	molecule.Uint32Verifier, // record_size_limit
	molecule.Uint64Verifier, // transfer_account_fee
	molecule.Uint64Verifier, // edit_manager_fee
	molecule.Uint64Verifier, // edit_records_fee
	molecule.Uint64Verifier, // common_fee
	molecule.Uint32Verifier, // transfer_account_throttle
	molecule.Uint32Verifier, // edit_manager_throttle
	molecule.Uint32Verifier, // edit_records_throttle
	molecule.Uint32Verifier, // common_throttle
}

func ConfigCellAccountFromSlice(data []byte) (*ConfigCellAccount, error) {
	t, err := molecule.VerifyTable(
		"ConfigCellAccount",
		data,
		false,
		configCellAccountFields...,
	)
	if err != nil {
		return nil, err
	}
	return &ConfigCellAccount{table: t}, nil
}

func (c *ConfigCellAccount) MaxLength() uint32               { return c.table.Uint32(0) }
func (c *ConfigCellAccount) BasicCapacity() uint64           { return c.table.Uint64(1) }
func (c *ConfigCellAccount) PreparedFeeCapacity() uint64     { return c.table.Uint64(2) }
func (c *ConfigCellAccount) ExpirationGracePeriod() uint32   { return c.table.Uint32(3) }
func (c *ConfigCellAccount) RecordMinTTL() uint32            { return c.table.Uint32(4) }
func (c *ConfigCellAccount) RecordSizeLimit() uint32         { return c.table.Uint32(5) }
func (c *ConfigCellAccount) TransferAccountFee() uint64      { return c.table.Uint64(6) }
func (c *ConfigCellAccount) EditManagerFee() uint64          { return c.table.Uint64(7) }
func (c *ConfigCellAccount) EditRecordsFee() uint64          { return c.table.Uint64(8) }
func (c *ConfigCellAccount) CommonFee() uint64               { return c.table.Uint64(9) }
func (c *ConfigCellAccount) TransferAccountThrottle() uint32 { return c.table.Uint32(10) }
func (c *ConfigCellAccount) EditManagerThrottle() uint32     { return c.table.Uint32(11) }
func (c *ConfigCellAccount) EditRecordsThrottle() uint32     { return c.table.Uint32(12) }
func (c *ConfigCellAccount) CommonThrottle() uint32          { return c.table.Uint32(13) }
func (c *ConfigCellAccount) AsSlice() []byte                 { return c.table.AsSlice() }

type ConfigCellAccountBuilder struct {
	BasicCapacity           uint64
	PreparedFeeCapacity     uint64
	TransferAccountFee      uint64
	EditManagerFee          uint64
	EditRecordsFee          uint64
	CommonFee               uint64
	MaxLength               uint32
	ExpirationGracePeriod   uint32
	RecordMinTTL            uint32
	RecordSizeLimit         uint32
	TransferAccountThrottle uint32
	EditManagerThrottle     uint32
	EditRecordsThrottle     uint32
	CommonThrottle          uint32
}

func (b ConfigCellAccountBuilder) Build() []byte {
	return molecule.PackTable(
		molecule.PackUint32(b.MaxLength),
		molecule.PackUint64(b.BasicCapacity),
		molecule.PackUint64(b.PreparedFeeCapacity),
		molecule.PackUint32(b.ExpirationGracePeriod),
		molecule.PackUint32(b.RecordMinTTL),
		molecule.PackUint32(b.RecordSizeLimit),
		molecule.PackUint64(b.TransferAccountFee),
		molecule.PackUint64(b.EditManagerFee),
		molecule.PackUint64(b.EditRecordsFee),
		molecule.PackUint64(b.CommonFee),
		molecule.PackUint32(b.TransferAccountThrottle),
		molecule.PackUint32(b.EditManagerThrottle),
		molecule.PackUint32(b.EditRecordsThrottle),
		molecule.PackUint32(b.CommonThrottle),
	)
}

// ConfigCellApply bounds how long an apply-register cell must wait
type ConfigCellApply struct {
	table molecule.Table
}

func ConfigCellApplyFromSlice(data []byte) (*ConfigCellApply, error) {
	t, err := molecule.VerifyTable(
		"ConfigCellApply",
		data,
		false,
		molecule.Uint32Verifier,
		molecule.Uint32Verifier,
	)
	if err != nil {
		return nil, err
	}
	return &ConfigCellApply{table: t}, nil
}

func (c *ConfigCellApply) MinWaitingBlockNumber() uint32 { return c.table.Uint32(0) }
func (c *ConfigCellApply) MaxWaitingBlockNumber() uint32 { return c.table.Uint32(1) }
func (c *ConfigCellApply) AsSlice() []byte               { return c.table.AsSlice() }

type ConfigCellApplyBuilder struct {
	MinWaitingBlockNumber uint32
	MaxWaitingBlockNumber uint32
}

func (b ConfigCellApplyBuilder) Build() []byte {
	return molecule.PackTable(
		molecule.PackUint32(b.MinWaitingBlockNumber),
		molecule.PackUint32(b.MaxWaitingBlockNumber),
	)
}

// PriceConfig is the registration and renewal price for one name length
type PriceConfig struct {
	table molecule.Table
}

func (p PriceConfig) Length() uint8 { return p.table.Uint8(0) }
func (p PriceConfig) New() uint64   { return p.table.Uint64(1) }
func (p PriceConfig) Renew() uint64 { return p.table.Uint64(2) }

var verifyPriceConfig = molecule.TableOf(
	"PriceConfig",
	molecule.Uint8Verifier,
	molecule.Uint64Verifier,
	molecule.Uint64Verifier,
)

// ConfigCellPrice holds the invitation discount and the price list
type ConfigCellPrice struct {
	table molecule.Table
}

func ConfigCellPriceFromSlice(data []byte) (*ConfigCellPrice, error) {
	t, err := molecule.VerifyTable(
		"ConfigCellPrice",
		data,
		false,
		molecule.TableOf("DiscountConfig", molecule.Uint32Verifier),
		molecule.DynVecOf("PriceConfigList", verifyPriceConfig),
	)
	if err != nil {
		return nil, err
	}
	return &ConfigCellPrice{table: t}, nil
}

// InvitedDiscount is expressed in basis points of 10000
func (c *ConfigCellPrice) InvitedDiscount() uint32 {
	t, _ := molecule.VerifyTable("DiscountConfig", c.table.Field(0), false, nil)
	return t.Uint32(0)
}

func (c *ConfigCellPrice) prices() molecule.Table {
	vec, _ := molecule.VerifyDynVec("PriceConfigList", c.table.Field(1), nil)
	return vec
}

func (c *ConfigCellPrice) PriceCount() int { return c.prices().Len() }

func (c *ConfigCellPrice) Price(i int) PriceConfig {
	t, _ := molecule.VerifyTable(
		"PriceConfig",
		c.prices().Field(i),
		false,
		nil, nil, nil,
	)
	return PriceConfig{table: t}
}

// PriceOf returns the price for names of the given length. Names longer
// than every configured length use the entry with the greatest length.
func (c *ConfigCellPrice) PriceOf(length int) (PriceConfig, bool) {
	var (
		longest PriceConfig
		found   bool
	)
	for i := range c.PriceCount() {
		p := c.Price(i)
		if int(p.Length()) == length {
			return p, true
		}
		if !found || p.Length() > longest.Length() {
			longest = p
			found = true
		}
	}
	if found && length > int(longest.Length()) {
		return longest, true
	}
	return PriceConfig{}, false
}

func (c *ConfigCellPrice) AsSlice() []byte { return c.table.AsSlice() }

type PriceConfigValue struct {
	New    uint64
	Renew  uint64
	Length uint8
}

type ConfigCellPriceBuilder struct {
	Prices          []PriceConfigValue
	InvitedDiscount uint32
}

func (b ConfigCellPriceBuilder) Build() []byte {
	items := make([][]byte, 0, len(b.Prices))
	for _, p := range b.Prices {
		items = append(
			items,
			molecule.PackTable(
				[]byte{p.Length},
				molecule.PackUint64(p.New),
				molecule.PackUint64(p.Renew),
			),
		)
	}
	return molecule.PackTable(
		molecule.PackTable(molecule.PackUint32(b.InvitedDiscount)),
		molecule.PackDynVec(items...),
	)
}

// ConfigCellSubAccount holds sub-account capacities and prices
type ConfigCellSubAccount struct {
	table molecule.Table
}

func ConfigCellSubAccountFromSlice(data []byte) (*ConfigCellSubAccount, error) {
	t, err := molecule.VerifyTable(
		"ConfigCellSubAccount",
		data,
		false,
		molecule.Uint64Verifier,
		molecule.Uint64Verifier,
		molecule.Uint64Verifier,
		molecule.Uint64Verifier,
		molecule.Uint64Verifier,
	)
	if err != nil {
		return nil, err
	}
	return &ConfigCellSubAccount{table: t}, nil
}

func (c *ConfigCellSubAccount) BasicCapacity() uint64        { return c.table.Uint64(0) }
func (c *ConfigCellSubAccount) PreparedFeeCapacity() uint64  { return c.table.Uint64(1) }
func (c *ConfigCellSubAccount) NewSubAccountPrice() uint64   { return c.table.Uint64(2) }
func (c *ConfigCellSubAccount) RenewSubAccountPrice() uint64 { return c.table.Uint64(3) }
func (c *ConfigCellSubAccount) CommonFee() uint64            { return c.table.Uint64(4) }
func (c *ConfigCellSubAccount) AsSlice() []byte              { return c.table.AsSlice() }

type ConfigCellSubAccountBuilder struct {
	BasicCapacity        uint64
	PreparedFeeCapacity  uint64
	NewSubAccountPrice   uint64
	RenewSubAccountPrice uint64
	CommonFee            uint64
}

func (b ConfigCellSubAccountBuilder) Build() []byte {
	return molecule.PackTable(
		molecule.PackUint64(b.BasicCapacity),
		molecule.PackUint64(b.PreparedFeeCapacity),
		molecule.PackUint64(b.NewSubAccountPrice),
		molecule.PackUint64(b.RenewSubAccountPrice),
		molecule.PackUint64(b.CommonFee),
	)
}
