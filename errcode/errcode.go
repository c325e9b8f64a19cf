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

// Package errcode defines the stable numeric error codes surfaced by the
// witness engine. Every failure carries exactly one Code; callers match on
// it with errors.Is and test harnesses assert on the number.
package errcode

import (
	"fmt"
)

// Code is a stable numeric failure reason. Values never change between
// releases.
type Code uint16

// Category groups codes by the kind of failure they describe.
type Category uint8

const (
	CategoryUnknown Category = iota
	CategoryHost
	CategoryStructural
	CategoryUndefined
	CategoryLookup
	CategoryConsistency
)

func (c Category) String() string {
	switch c {
	case CategoryHost:
		return "host"
	case CategoryStructural:
		return "structural"
	case CategoryUndefined:
		return "undefined"
	case CategoryLookup:
		return "lookup"
	case CategoryConsistency:
		return "consistency"
	default:
		return "unknown"
	}
}

// Host errors (1-9)
const (
	IndexOutOfBound Code = 1
	ItemMissing     Code = 2
	LengthNotEnough Code = 3
	Encoding        Code = 4
	UnknownSysError Code = 5
)

// Structural errors (20-39)
const (
	StructureError              Code = 20
	BasicStructureError         Code = 21
	EntityDecodingError         Code = 22
	InvalidTransactionStructure Code = 23
	InvalidCellData             Code = 24
	WitnessVersionMismatch      Code = 25
)

// Undefined errors (40-59)
const (
	UndefinedDataType          Code = 40
	DecodingActionDataFailed   Code = 41
	DecodingActionParamsFailed Code = 42
	UndefinedCharSet           Code = 43
	UndefinedRuleStatus        Code = 44
	UndefinedAccountStatus     Code = 45
)

// Lookup errors (60-79)
const (
	CanNotFindWitnessByIndex    Code = 60
	CanNotFindWitnessByCellMeta Code = 61
	ConfigCellNotFound          Code = 62
	DuplicatedConfigCellFound   Code = 63
)

// Consistency errors (80-99)
const (
	ConfigCellWitnessInvalid  Code = 80
	CellNumberMismatch        Code = 81
	CellPositionMismatch      Code = 82
	CellCapacityNotEnough     Code = 83
	CellCapacityChangeInvalid Code = 84
	CellLockCanNotBeModified  Code = 85
	CellTypeCanNotBeModified  Code = 86
	CellDataCanNotBeModified  Code = 87
	AccountCellFieldModified  Code = 88
	WitnessHashMismatch       Code = 89
	ConfigCellTypeIDMismatch  Code = 90
)

var codeNames = map[Code]string{
	IndexOutOfBound:             "IndexOutOfBound",
	ItemMissing:                 "ItemMissing",
	LengthNotEnough:             "LengthNotEnough",
	Encoding:                    "Encoding",
	UnknownSysError:             "UnknownSysError",
	StructureError:              "StructureError",
	BasicStructureError:         "BasicStructureError",
	EntityDecodingError:         "EntityDecodingError",
	InvalidTransactionStructure: "InvalidTransactionStructure",
	InvalidCellData:             "InvalidCellData",
	WitnessVersionMismatch:      "WitnessVersionMismatch",
	UndefinedDataType:           "UndefinedDataType",
	DecodingActionDataFailed:    "DecodingActionDataFailed",
	DecodingActionParamsFailed:  "DecodingActionParamsFailed",
	UndefinedCharSet:            "UndefinedCharSet",
	UndefinedRuleStatus:         "UndefinedRuleStatus",
	UndefinedAccountStatus:      "UndefinedAccountStatus",
	CanNotFindWitnessByIndex:    "CanNotFindWitnessByIndex",
	CanNotFindWitnessByCellMeta: "CanNotFindWitnessByCellMeta",
	ConfigCellNotFound:          "ConfigCellNotFound",
	DuplicatedConfigCellFound:   "DuplicatedConfigCellFound",
	ConfigCellWitnessInvalid:    "ConfigCellWitnessInvalid",
	CellNumberMismatch:          "CellNumberMismatch",
	CellPositionMismatch:        "CellPositionMismatch",
	CellCapacityNotEnough:       "CellCapacityNotEnough",
	CellCapacityChangeInvalid:   "CellCapacityChangeInvalid",
	CellLockCanNotBeModified:    "CellLockCanNotBeModified",
	CellTypeCanNotBeModified:    "CellTypeCanNotBeModified",
	CellDataCanNotBeModified:    "CellDataCanNotBeModified",
	AccountCellFieldModified:    "AccountCellFieldModified",
	WitnessHashMismatch:         "WitnessHashMismatch",
	ConfigCellTypeIDMismatch:    "ConfigCellTypeIDMismatch",
}

// String returns the symbolic name of the code
func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Code(%d)", uint16(c))
}

// Error allows a bare Code to be used as a sentinel with errors.Is
func (c Code) Error() string {
	return fmt.Sprintf("%s(%d)", c.String(), uint16(c))
}

// Category returns the failure category implied by the numeric range
func (c Code) Category() Category {
	switch {
	case c >= 1 && c <= 9:
		return CategoryHost
	case c >= 20 && c <= 39:
		return CategoryStructural
	case c >= 40 && c <= 59:
		return CategoryUndefined
	case c >= 60 && c <= 79:
		return CategoryLookup
	case c >= 80 && c <= 99:
		return CategoryConsistency
	default:
		return CategoryUnknown
	}
}

// Error is a coded failure with an optional diagnostic for host-side
// logging.
type Error struct {
	Message string
	Code    Code
}

// New returns an *Error with a formatted diagnostic
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code.Error()
	}
	return fmt.Sprintf("%s: %s", e.Code.Error(), e.Message)
}

func (e *Error) Unwrap() error {
	return e.Code
}

// CodeOf extracts the code carried by err, if any. The tree is walked in
// the same order as errors.Is, so the outermost code wins
func CodeOf(err error) (Code, bool) {
	switch e := err.(type) {
	case nil:
		return 0, false
	case *Error:
		return e.Code, true
	case Code:
		return e, true
	case interface{ Unwrap() error }:
		return CodeOf(e.Unwrap())
	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			if code, ok := CodeOf(inner); ok {
				return code, true
			}
		}
	}
	return 0, false
}
