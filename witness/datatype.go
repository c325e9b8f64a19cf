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
	"fmt"

	"github.com/dotbitHQ/did-contracts-sub003/errcode"
)

// DataType tags the logical entity a witness encodes. The set is closed:
// a tag without a descriptor is rejected.
type DataType uint32

const (
	DataTypeActionData              DataType = 0
	DataTypeAccountCellData         DataType = 1
	DataTypeAccountSaleCellData     DataType = 2
	DataTypeSubAccount              DataType = 8
	DataTypeSubAccountPriceRule     DataType = 11
	DataTypeSubAccountPreservedRule DataType = 12

	DataTypeConfigCellAccount            DataType = 100
	DataTypeConfigCellApply              DataType = 101
	DataTypeConfigCellMain               DataType = 104
	DataTypeConfigCellPrice              DataType = 105
	DataTypeConfigCellRecordKeyNamespace DataType = 108
	DataTypeConfigCellUnAvailableAccount DataType = 110
	DataTypeConfigCellSubAccount         DataType = 113

	DataTypeConfigCellPreservedAccount00 DataType = 10000

	DataTypeConfigCellCharSetEmoji  DataType = 100000
	DataTypeConfigCellCharSetDigit  DataType = 100001
	DataTypeConfigCellCharSetEn     DataType = 100002
	DataTypeConfigCellCharSetZhHans DataType = 100003
	DataTypeConfigCellCharSetZhHant DataType = 100004
	DataTypeConfigCellCharSetJa     DataType = 100005
	DataTypeConfigCellCharSetKo     DataType = 100006
	DataTypeConfigCellCharSetRu     DataType = 100007
	DataTypeConfigCellCharSetTr     DataType = 100008
	DataTypeConfigCellCharSetTh     DataType = 100009
	DataTypeConfigCellCharSetVi     DataType = 100010
)

// PreservedAccountShards is the number of preserved account configs. The
// list is sharded by the first byte of the account id.
const PreservedAccountShards = 20

// Encoding selects the decode path of a payload
type Encoding uint8

const (
	// EncodingSchema payloads are schema encoded entities
	EncodingSchema Encoding = iota + 1
	// EncodingLVChain payloads are plain length-value chains
	EncodingLVChain
	// EncodingBlob payloads are opaque byte lists parsed by their consumer
	EncodingBlob
)

func (e Encoding) String() string {
	switch e {
	case EncodingSchema:
		return "schema"
	case EncodingLVChain:
		return "lv_chain"
	case EncodingBlob:
		return "blob"
	default:
		return fmt.Sprintf("encoding(%d)", uint8(e))
	}
}

// Descriptor is the static description of a DataType
type Descriptor struct {
	Name      string
	Versions  []uint32
	Encoding  Encoding
	Config    bool
	Versioned bool
}

// SupportsVersion reports whether payloads of the given version decode
func (d Descriptor) SupportsVersion(version uint32) bool {
	if !d.Versioned {
		return version == 0
	}
	for _, v := range d.Versions {
		if v == version {
			return true
		}
	}
	return false
}

var v1 = []uint32{1}

var descriptors = func() map[DataType]Descriptor {
	ret := map[DataType]Descriptor{
		DataTypeActionData: {
			Name:     "ActionData",
			Encoding: EncodingSchema,
		},
		DataTypeAccountCellData: {
			Name:      "AccountCellData",
			Encoding:  EncodingSchema,
			Versioned: true,
			Versions:  []uint32{1, 2, 3},
		},
		DataTypeAccountSaleCellData: {
			Name:      "AccountSaleCellData",
			Encoding:  EncodingSchema,
			Versioned: true,
			Versions:  []uint32{1, 2},
		},
		DataTypeSubAccount: {
			Name:      "SubAccount",
			Encoding:  EncodingLVChain,
			Versioned: true,
			Versions:  v1,
		},
		DataTypeSubAccountPriceRule: {
			Name:      "SubAccountPriceRule",
			Encoding:  EncodingSchema,
			Versioned: true,
			Versions:  v1,
		},
		DataTypeSubAccountPreservedRule: {
			Name:      "SubAccountPreservedRule",
			Encoding:  EncodingSchema,
			Versioned: true,
			Versions:  v1,
		},
		DataTypeConfigCellAccount:            schemaConfig("ConfigCellAccount"),
		DataTypeConfigCellApply:              schemaConfig("ConfigCellApply"),
		DataTypeConfigCellMain:               schemaConfig("ConfigCellMain"),
		DataTypeConfigCellPrice:              schemaConfig("ConfigCellPrice"),
		DataTypeConfigCellSubAccount:         schemaConfig("ConfigCellSubAccount"),
		DataTypeConfigCellRecordKeyNamespace: blobConfig("ConfigCellRecordKeyNamespace"),
		DataTypeConfigCellUnAvailableAccount: blobConfig("ConfigCellUnAvailableAccount"),
	}
	for i := range PreservedAccountShards {
		ret[DataTypeConfigCellPreservedAccount00+DataType(i)] = blobConfig(
			fmt.Sprintf("ConfigCellPreservedAccount%02d", i),
		)
	}
	charSets := []string{
		"Emoji", "Digit", "En", "ZhHans", "ZhHant", "Ja", "Ko", "Ru", "Tr", "Th", "Vi",
	}
	for i, name := range charSets {
		ret[DataTypeConfigCellCharSetEmoji+DataType(i)] = blobConfig(
			"ConfigCellCharSet" + name,
		)
	}
	return ret
}()

func schemaConfig(name string) Descriptor {
	return Descriptor{
		Name:      name,
		Encoding:  EncodingSchema,
		Config:    true,
		Versioned: true,
		Versions:  v1,
	}
}

func blobConfig(name string) Descriptor {
	return Descriptor{
		Name:      name,
		Encoding:  EncodingBlob,
		Config:    true,
		Versioned: true,
		Versions:  v1,
	}
}

// DataTypeFromUint32 rejects tags outside the known set
func DataTypeFromUint32(v uint32) (DataType, error) {
	dt := DataType(v)
	if _, ok := descriptors[dt]; !ok {
		return 0, errcode.New(
			errcode.UndefinedDataType,
			"data type %d is undefined",
			v,
		)
	}
	return dt, nil
}

// Descriptor returns the static description of the data type
func (d DataType) Descriptor() (Descriptor, bool) {
	desc, ok := descriptors[d]
	return desc, ok
}

func (d DataType) String() string {
	if desc, ok := descriptors[d]; ok {
		return desc.Name
	}
	return fmt.Sprintf("DataType(%d)", uint32(d))
}

// IsConfig reports whether the data type describes a global config
func (d DataType) IsConfig() bool {
	desc, ok := descriptors[d]
	return ok && desc.Config
}

// PreservedAccountDataType returns the shard holding the given account id
// hash prefix
func PreservedAccountDataType(firstByte byte) DataType {
	return DataTypeConfigCellPreservedAccount00 +
		DataType(int(firstByte)%PreservedAccountShards)
}

// CharSetDataType returns the config holding the given character set
func CharSetDataType(charSet uint32) (DataType, error) {
	dt := DataTypeConfigCellCharSetEmoji + DataType(charSet)
	if charSet > uint32(DataTypeConfigCellCharSetVi-DataTypeConfigCellCharSetEmoji) {
		return 0, errcode.New(
			errcode.UndefinedCharSet,
			"char set %d has no config",
			charSet,
		)
	}
	return dt, nil
}
