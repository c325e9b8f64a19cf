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

// Package witness parses the witnesses of a transaction into an index,
// decodes typed entities from them on demand and correlates them with
// cells.
package witness

import (
	"bytes"
	"encoding/binary"

	"github.com/dotbitHQ/did-contracts-sub003/errcode"
)

// Magic prefixes every witness produced for the contracts
var Magic = [3]byte{'d', 'a', 's'}

const (
	MagicSize = 3
	// TagHeaderSize covers the magic and the data type
	TagHeaderSize = MagicSize + 4
	// VersionedHeaderSize adds the entity version
	VersionedHeaderSize = TagHeaderSize + 4
)

// Header is the fixed prefix of a witness
type Header struct {
	DataType DataType
	Version  uint32
}

// Size returns the number of bytes the header occupies on the wire
func (h Header) Size() int {
	if desc, ok := h.DataType.Descriptor(); ok && desc.Versioned {
		return VersionedHeaderSize
	}
	return TagHeaderSize
}

// ParseHeader splits a raw witness into its header and payload. A witness
// without the magic prefix is rejected outright.
func ParseHeader(raw []byte) (Header, []byte, error) {
	if len(raw) < MagicSize || !bytes.Equal(raw[:MagicSize], Magic[:]) {
		return Header{}, nil, errcode.New(
			errcode.BasicStructureError,
			"witness does not start with the magic bytes",
		)
	}
	if len(raw) < TagHeaderSize {
		return Header{}, nil, errcode.New(
			errcode.BasicStructureError,
			"witness of %d bytes has no data type",
			len(raw),
		)
	}
	dt, err := DataTypeFromUint32(
		binary.LittleEndian.Uint32(raw[MagicSize:TagHeaderSize]),
	)
	if err != nil {
		return Header{}, nil, err
	}
	header := Header{DataType: dt}
	desc, _ := dt.Descriptor()
	if !desc.Versioned {
		return header, raw[TagHeaderSize:], nil
	}
	if len(raw) < VersionedHeaderSize {
		return Header{}, nil, errcode.New(
			errcode.BasicStructureError,
			"%s witness of %d bytes has no version",
			dt,
			len(raw),
		)
	}
	header.Version = binary.LittleEndian.Uint32(
		raw[TagHeaderSize:VersionedHeaderSize],
	)
	return header, raw[VersionedHeaderSize:], nil
}

// Encode builds a raw witness. The version is omitted for data types that
// do not carry one.
func Encode(dt DataType, version uint32, payload []byte) []byte {
	buf := make([]byte, 0, VersionedHeaderSize+len(payload))
	buf = append(buf, Magic[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(dt))
	if desc, ok := dt.Descriptor(); !ok || desc.Versioned {
		buf = binary.LittleEndian.AppendUint32(buf, version)
	}
	return append(buf, payload...)
}
