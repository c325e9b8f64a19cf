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

// Package entity declares the typed views over witness payloads. Every
// view is built by a FromSlice function that verifies the whole encoding
// up front, so accessors never fail; nested values are materialized only
// when an accessor is called.
package entity

import (
	"encoding/binary"
	"encoding/hex"
	"strings"

	"github.com/dotbitHQ/did-contracts-sub003/errcode"
	"github.com/dotbitHQ/did-contracts-sub003/molecule"
)

// AccountIDLength is the size of an account id: the first 20 bytes of the
// hash of the full account name
const AccountIDLength = 20

// AccountID identifies an account independently of its name
type AccountID [AccountIDLength]byte

func (id AccountID) String() string {
	return hex.EncodeToString(id[:])
}

// AccountIDFromBytes copies b into an AccountID, failing on a wrong length
func AccountIDFromBytes(b []byte) (AccountID, error) {
	var id AccountID
	if len(b) != AccountIDLength {
		return id, errcode.New(
			errcode.InvalidCellData,
			"account id must be %d bytes, got %d",
			AccountIDLength,
			len(b),
		)
	}
	copy(id[:], b)
	return id, nil
}

var accountIDVerifier = molecule.Fixed("AccountId", AccountIDLength)

// CharSetType names the character set an account character belongs to
type CharSetType uint32

const (
	CharSetEmoji  CharSetType = 0
	CharSetDigit  CharSetType = 1
	CharSetEn     CharSetType = 2
	CharSetZhHans CharSetType = 3
	CharSetZhHant CharSetType = 4
	CharSetJa     CharSetType = 5
	CharSetKo     CharSetType = 6
	CharSetRu     CharSetType = 7
	CharSetTr     CharSetType = 8
	CharSetTh     CharSetType = 9
	CharSetVi     CharSetType = 10
)

var charSetNames = map[CharSetType]string{
	CharSetEmoji:  "emoji",
	CharSetDigit:  "digit",
	CharSetEn:     "en",
	CharSetZhHans: "zh-hans",
	CharSetZhHant: "zh-hant",
	CharSetJa:     "ja",
	CharSetKo:     "ko",
	CharSetRu:     "ru",
	CharSetTr:     "tr",
	CharSetTh:     "th",
	CharSetVi:     "vi",
}

// CharSetTypeFromUint32 rejects values outside the known character sets
func CharSetTypeFromUint32(v uint32) (CharSetType, error) {
	cs := CharSetType(v)
	if _, ok := charSetNames[cs]; !ok {
		return 0, errcode.New(
			errcode.UndefinedCharSet,
			"char set %d is undefined",
			v,
		)
	}
	return cs, nil
}

func (c CharSetType) String() string {
	if name, ok := charSetNames[c]; ok {
		return name
	}
	return "undefined"
}

// Script is a lock or type script: {code_hash, hash_type, args}
type Script struct {
	table molecule.Table
}

var scriptFields = []molecule.FieldVerifier{
	molecule.Byte32Verifier,
	molecule.Fixed("ScriptHashType", 1),
	molecule.BytesVerifier,
}

var verifyScript = molecule.TableOf("Script", scriptFields...)

func ScriptFromSlice(data []byte) (*Script, error) {
	t, err := molecule.VerifyTable("Script", data, false, scriptFields...)
	if err != nil {
		return nil, err
	}
	return &Script{table: t}, nil
}

func (s *Script) CodeHash() [32]byte { return s.table.Byte32(0) }
func (s *Script) HashType() byte     { return s.table.Uint8(1) }
func (s *Script) Args() []byte       { return s.table.Bytes(2) }
func (s *Script) AsSlice() []byte    { return s.table.AsSlice() }

// ScriptBuilder produces the canonical encoding of a Script
type ScriptBuilder struct {
	Args     []byte
	CodeHash [32]byte
	HashType byte
}

func (b ScriptBuilder) Build() []byte {
	return molecule.PackTable(
		b.CodeHash[:],
		[]byte{b.HashType},
		molecule.PackBytes(b.Args),
	)
}

// ActionData is the record carried by witness 0: {action, params}
type ActionData struct {
	table molecule.Table
}

func ActionDataFromSlice(data []byte) (*ActionData, error) {
	t, err := molecule.VerifyTable(
		"ActionData",
		data,
		false,
		molecule.BytesVerifier,
		molecule.BytesVerifier,
	)
	if err != nil {
		return nil, err
	}
	return &ActionData{table: t}, nil
}

func (a *ActionData) Action() []byte  { return a.table.Bytes(0) }
func (a *ActionData) Params() []byte  { return a.table.Bytes(1) }
func (a *ActionData) AsSlice() []byte { return a.table.AsSlice() }

type ActionDataBuilder struct {
	Action []byte
	Params []byte
}

func (b ActionDataBuilder) Build() []byte {
	return molecule.PackTable(
		molecule.PackBytes(b.Action),
		molecule.PackBytes(b.Params),
	)
}

// AccountChar is one character of an account name and its character set
type AccountChar struct {
	table molecule.Table
}

func (c AccountChar) CharSetName() CharSetType { return CharSetType(c.table.Uint32(0)) }
func (c AccountChar) Bytes() []byte            { return c.table.Bytes(1) }

func verifyCharSetName(data []byte) error {
	if err := molecule.Uint32Verifier(data); err != nil {
		return err
	}
	_, err := CharSetTypeFromUint32(binary.LittleEndian.Uint32(data))
	return err
}

var verifyAccountChar = molecule.TableOf(
	"AccountChar",
	verifyCharSetName,
	molecule.BytesVerifier,
)

var verifyAccountChars = molecule.DynVecOf("AccountChars", verifyAccountChar)

// AccountChars is the character list of an account name, without suffix
type AccountChars struct {
	vec molecule.Table
}

func newAccountChars(data []byte) AccountChars {
	// callers pass data that already passed verifyAccountChars
	vec, _ := molecule.VerifyDynVec("AccountChars", data, nil)
	return AccountChars{vec: vec}
}

func (c AccountChars) Len() int { return c.vec.Len() }

func (c AccountChars) Get(i int) AccountChar {
	t, _ := molecule.VerifyTable("AccountChar", c.vec.Field(i), false, nil, nil)
	return AccountChar{table: t}
}

// String concatenates the characters into the account name
func (c AccountChars) String() string {
	var sb strings.Builder
	for i := range c.Len() {
		sb.Write(c.Get(i).Bytes())
	}
	return sb.String()
}

func (c AccountChars) AsSlice() []byte { return c.vec.AsSlice() }

// AccountCharValue is the builder form of AccountChar
type AccountCharValue struct {
	Bytes       []byte
	CharSetName CharSetType
}

// PackAccountChars encodes an account name character by character
func PackAccountChars(chars []AccountCharValue) []byte {
	items := make([][]byte, 0, len(chars))
	for _, c := range chars {
		items = append(
			items,
			molecule.PackTable(
				molecule.PackUint32(uint32(c.CharSetName)),
				molecule.PackBytes(c.Bytes),
			),
		)
	}
	return molecule.PackDynVec(items...)
}

// Record is one resolution record of an account
type Record struct {
	table molecule.Table
}

func (r Record) Type() []byte  { return r.table.Bytes(0) }
func (r Record) Key() []byte   { return r.table.Bytes(1) }
func (r Record) Label() []byte { return r.table.Bytes(2) }
func (r Record) Value() []byte { return r.table.Bytes(3) }
func (r Record) TTL() uint32   { return r.table.Uint32(4) }

var recordFields = []molecule.FieldVerifier{
	molecule.BytesVerifier,
	molecule.BytesVerifier,
	molecule.BytesVerifier,
	molecule.BytesVerifier,
	molecule.Uint32Verifier,
}

var verifyRecords = molecule.DynVecOf(
	"Records",
	molecule.TableOf("Record", recordFields...),
)

// Records is the list of resolution records of an account
type Records struct {
	vec molecule.Table
}

func newRecords(data []byte) Records {
	vec, _ := molecule.VerifyDynVec("Records", data, nil)
	return Records{vec: vec}
}

func (r Records) Len() int { return r.vec.Len() }

func (r Records) Get(i int) Record {
	t, _ := molecule.VerifyTable(
		"Record",
		r.vec.Field(i),
		false,
		nil, nil, nil, nil, nil,
	)
	return Record{table: t}
}

func (r Records) AsSlice() []byte { return r.vec.AsSlice() }

// RecordValue is the builder form of Record
type RecordValue struct {
	Type  string
	Key   string
	Label string
	Value string
	TTL   uint32
}

func PackRecords(records []RecordValue) []byte {
	items := make([][]byte, 0, len(records))
	for _, r := range records {
		items = append(
			items,
			molecule.PackTable(
				molecule.PackBytes([]byte(r.Type)),
				molecule.PackBytes([]byte(r.Key)),
				molecule.PackBytes([]byte(r.Label)),
				molecule.PackBytes([]byte(r.Value)),
				molecule.PackUint32(r.TTL),
			),
		)
	}
	return molecule.PackDynVec(items...)
}
