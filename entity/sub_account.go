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

// SubAccount is the entity embedded in every sub-account witness
type SubAccount struct {
	table molecule.Table
}

var subAccountFields = []molecule.FieldVerifier{
	verifyScript,
	accountIDVerifier,
	verifyAccountChars,
	molecule.BytesVerifier,
	molecule.Uint64Verifier,
	molecule.Uint64Verifier,
	verifyAccountStatus,
	verifyRecords,
	molecule.Uint64Verifier,
	molecule.Uint8Verifier,
	molecule.Uint64Verifier,
}

func SubAccountFromSlice(data []byte) (*SubAccount, error) {
	t, err := molecule.VerifyTable("SubAccount", data, false, subAccountFields...)
	if err != nil {
		return nil, err
	}
	return &SubAccount{table: t}, nil
}

func (s *SubAccount) Lock() *Script {
	t, _ := molecule.VerifyTable("Script", s.table.Field(0), false, nil, nil, nil)
	return &Script{table: t}
}

func (s *SubAccount) ID() AccountID {
	var id AccountID
	copy(id[:], s.table.Field(1))
	return id
}

func (s *SubAccount) Account() AccountChars {
	return newAccountChars(s.table.Field(2))
}

func (s *SubAccount) Suffix() []byte          { return s.table.Bytes(3) }
func (s *SubAccount) RegisteredAt() uint64    { return s.table.Uint64(4) }
func (s *SubAccount) ExpiredAt() uint64       { return s.table.Uint64(5) }
func (s *SubAccount) Status() AccountStatus   { return AccountStatus(s.table.Uint8(6)) }
func (s *SubAccount) Records() Records        { return newRecords(s.table.Field(7)) }
func (s *SubAccount) Nonce() uint64           { return s.table.Uint64(8) }
func (s *SubAccount) EnableSubAccount() uint8 { return s.table.Uint8(9) }
func (s *SubAccount) RenewSubAccountPrice() uint64 {
	return s.table.Uint64(10)
}

func (s *SubAccount) AsSlice() []byte { return s.table.AsSlice() }

// FullName returns the account characters followed by the suffix
func (s *SubAccount) FullName() string {
	return s.Account().String() + string(s.Suffix())
}

type SubAccountBuilder struct {
	Account              []AccountCharValue
	Suffix               string
	Records              []RecordValue
	Lock                 ScriptBuilder
	RegisteredAt         uint64
	ExpiredAt            uint64
	Nonce                uint64
	RenewSubAccountPrice uint64
	ID                   AccountID
	Status               AccountStatus
	EnableSubAccount     uint8
}

func (b SubAccountBuilder) Build() []byte {
	return molecule.PackTable(
		b.Lock.Build(),
		b.ID[:],
		PackAccountChars(b.Account),
		molecule.PackBytes([]byte(b.Suffix)),
		molecule.PackUint64(b.RegisteredAt),
		molecule.PackUint64(b.ExpiredAt),
		[]byte{byte(b.Status)},
		PackRecords(b.Records),
		molecule.PackUint64(b.Nonce),
		[]byte{b.EnableSubAccount},
		molecule.PackUint64(b.RenewSubAccountPrice),
	)
}

// RuleStatus switches a sub-account price or preserved rule on and off
type RuleStatus uint8

const (
	RuleStatusOff RuleStatus = 0
	RuleStatusOn  RuleStatus = 1
)

func (s RuleStatus) String() string {
	switch s {
	case RuleStatusOff:
		return "off"
	case RuleStatusOn:
		return "on"
	default:
		return fmt.Sprintf("undefined(%d)", uint8(s))
	}
}

func verifyRuleStatus(data []byte) error {
	if err := molecule.Uint8Verifier(data); err != nil {
		return err
	}
	if RuleStatus(data[0]) != RuleStatusOff && RuleStatus(data[0]) != RuleStatusOn {
		return errcode.New(
			errcode.UndefinedRuleStatus,
			"rule status %d is undefined",
			data[0],
		)
	}
	return nil
}

var subAccountRuleFields = []molecule.FieldVerifier{
	molecule.Uint32Verifier,
	molecule.BytesVerifier,
	molecule.BytesVerifier,
	molecule.Uint64Verifier,
	verifyRuleStatus,
	molecule.BytesVerifier,
}

// SubAccountRule prices or preserves sub-account names matching an
// expression
type SubAccountRule struct {
	table molecule.Table
}

func (r SubAccountRule) Index() uint32      { return r.table.Uint32(0) }
func (r SubAccountRule) Name() string       { return string(r.table.Bytes(1)) }
func (r SubAccountRule) Note() string       { return string(r.table.Bytes(2)) }
func (r SubAccountRule) Price() uint64      { return r.table.Uint64(3) }
func (r SubAccountRule) Status() RuleStatus { return RuleStatus(r.table.Uint8(4)) }
func (r SubAccountRule) AST() []byte        { return r.table.Bytes(5) }

// SubAccountRules is the rule list carried by a price or preserved rule
// witness
type SubAccountRules struct {
	vec molecule.Table
}

func SubAccountRulesFromSlice(data []byte) (*SubAccountRules, error) {
	vec, err := molecule.VerifyDynVec(
		"SubAccountRules",
		data,
		molecule.TableOf("SubAccountRule", subAccountRuleFields...),
	)
	if err != nil {
		return nil, err
	}
	return &SubAccountRules{vec: vec}, nil
}

func (r *SubAccountRules) Len() int { return r.vec.Len() }

func (r *SubAccountRules) Get(i int) SubAccountRule {
	t, _ := molecule.VerifyTable(
		"SubAccountRule",
		r.vec.Field(i),
		false,
		nil, nil, nil, nil, nil, nil,
	)
	return SubAccountRule{table: t}
}

func (r *SubAccountRules) AsSlice() []byte { return r.vec.AsSlice() }

type SubAccountRuleValue struct {
	Name   string
	Note   string
	AST    []byte
	Price  uint64
	Index  uint32
	Status RuleStatus
}

func PackSubAccountRules(rules []SubAccountRuleValue) []byte {
	items := make([][]byte, 0, len(rules))
	for _, r := range rules {
		items = append(
			items,
			molecule.PackTable(
				molecule.PackUint32(r.Index),
				molecule.PackBytes([]byte(r.Name)),
				molecule.PackBytes([]byte(r.Note)),
				molecule.PackUint64(r.Price),
				[]byte{byte(r.Status)},
				molecule.PackBytes(r.AST),
			),
		)
	}
	return molecule.PackDynVec(items...)
}
