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

// Package molecule implements verification and packing of the
// schema-driven binary serialization used by witness entities.
//
// Layouts, all numbers little endian:
//
//	struct/array  fixed size, fields concatenated
//	fixvec        item_count(u32) | items
//	dynvec/table  total_size(u32) | offset(u32) * n | items
//	option        empty or the inner value
package molecule

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/dotbitHQ/did-contracts-sub003/errcode"
)

// NumberSize is the size of every length, count and offset word
const NumberSize = 4

// VerificationError describes why a slice is not a valid encoding of the
// named type
type VerificationError struct {
	Type   string
	Reason string
}

func newVerificationError(
	typeName string,
	format string,
	args ...any,
) *VerificationError {
	return &VerificationError{
		Type:   typeName,
		Reason: fmt.Sprintf(format, args...),
	}
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("molecule: invalid %s: %s", e.Type, e.Reason)
}

func (e *VerificationError) Unwrap() error {
	return errcode.EntityDecodingError
}

func unpackNumber(data []byte) int {
	return int(binary.LittleEndian.Uint32(data[:NumberSize]))
}

// FieldVerifier checks that a field slice is well formed
type FieldVerifier func(data []byte) error

// Fixed verifies a struct/array of exactly size bytes
func Fixed(typeName string, size int) FieldVerifier {
	return func(data []byte) error {
		return VerifyFixedSize(typeName, data, size)
	}
}

// VerifyFixedSize checks the exact length of a fixed size value
func VerifyFixedSize(typeName string, data []byte, size int) error {
	if len(data) != size {
		return newVerificationError(
			typeName,
			"expected %d bytes, got %d",
			size,
			len(data),
		)
	}
	return nil
}

var (
	Uint8Verifier  = Fixed("Uint8", 1)
	Uint32Verifier = Fixed("Uint32", 4)
	Uint64Verifier = Fixed("Uint64", 8)
	Byte32Verifier = Fixed("Byte32", 32)
	BytesVerifier  = func(data []byte) error {
		_, err := VerifyFixVec("Bytes", data, 1)
		return err
	}
)

// FixVec is a verified vector of fixed size items
type FixVec struct {
	data     []byte
	itemSize int
}

// VerifyFixVec validates a fixvec whose items are itemSize bytes each
func VerifyFixVec(typeName string, data []byte, itemSize int) (FixVec, error) {
	if itemSize <= 0 {
		return FixVec{}, newVerificationError(
			typeName,
			"invalid item size %d",
			itemSize,
		)
	}
	if len(data) < NumberSize {
		return FixVec{}, newVerificationError(
			typeName,
			"header needs %d bytes, got %d",
			NumberSize,
			len(data),
		)
	}
	count := uint64(binary.LittleEndian.Uint32(data))
	expected := uint64(NumberSize) + count*uint64(itemSize)
	if expected != uint64(len(data)) {
		return FixVec{}, newVerificationError(
			typeName,
			"%d items of %d bytes need %d bytes, got %d",
			count,
			itemSize,
			expected,
			len(data),
		)
	}
	return FixVec{data: data, itemSize: itemSize}, nil
}

// FixVecOf returns a verifier for a fixvec of fixed size items
func FixVecOf(typeName string, itemSize int) FieldVerifier {
	return func(data []byte) error {
		_, err := VerifyFixVec(typeName, data, itemSize)
		return err
	}
}

func (v FixVec) Len() int {
	if len(v.data) < NumberSize {
		return 0
	}
	return unpackNumber(v.data)
}

// Get returns item i or nil when out of range
func (v FixVec) Get(i int) []byte {
	if i < 0 || i >= v.Len() {
		return nil
	}
	start := NumberSize + i*v.itemSize
	end := start + v.itemSize
	return v.data[start:end:end]
}

// RawData returns the items without the count header
func (v FixVec) RawData() []byte {
	if len(v.data) < NumberSize {
		return nil
	}
	return v.data[NumberSize:]
}

func (v FixVec) AsSlice() []byte {
	return v.data
}

// Table is a verified table or dynvec: a header of offsets followed by the
// item payloads
type Table struct {
	data    []byte
	offsets []int
}

// parseOffsets validates the shared dynvec/table header and returns the
// item boundaries, including the final total size
func parseOffsets(typeName string, data []byte) ([]int, error) {
	if len(data) < NumberSize {
		return nil, newVerificationError(
			typeName,
			"header needs %d bytes, got %d",
			NumberSize,
			len(data),
		)
	}
	totalSize := uint64(binary.LittleEndian.Uint32(data))
	if totalSize != uint64(len(data)) {
		return nil, newVerificationError(
			typeName,
			"total size %d does not match slice length %d",
			totalSize,
			len(data),
		)
	}
	if len(data) == NumberSize {
		return []int{NumberSize}, nil
	}
	if len(data) < NumberSize*2 {
		return nil, newVerificationError(
			typeName,
			"header needs %d bytes, got %d",
			NumberSize*2,
			len(data),
		)
	}
	firstOffset := unpackNumber(data[NumberSize:])
	if firstOffset%NumberSize != 0 || firstOffset < NumberSize*2 {
		return nil, newVerificationError(
			typeName,
			"invalid first offset %d",
			firstOffset,
		)
	}
	if firstOffset > len(data) {
		return nil, newVerificationError(
			typeName,
			"header size %d exceeds slice length %d",
			firstOffset,
			len(data),
		)
	}
	count := firstOffset/NumberSize - 1
	offsets := make([]int, 0, count+1)
	prev := firstOffset
	for i := range count {
		pos := NumberSize * (i + 1)
		offset := unpackNumber(data[pos:])
		if offset < prev || offset > len(data) {
			return nil, newVerificationError(
				typeName,
				"offset %d of item %d out of order or bounds",
				offset,
				i,
			)
		}
		offsets = append(offsets, offset)
		prev = offset
	}
	offsets = append(offsets, len(data))
	return offsets, nil
}

// VerifyTable validates a table with the given field verifiers. When
// compatible is set, trailing fields unknown to this schema are accepted.
func VerifyTable(
	typeName string,
	data []byte,
	compatible bool,
	fields ...FieldVerifier,
) (Table, error) {
	offsets, err := parseOffsets(typeName, data)
	if err != nil {
		return Table{}, err
	}
	count := len(offsets) - 1
	if count < len(fields) {
		return Table{}, newVerificationError(
			typeName,
			"expected %d fields, got %d",
			len(fields),
			count,
		)
	}
	if count > len(fields) && !compatible {
		return Table{}, newVerificationError(
			typeName,
			"expected %d fields, got %d",
			len(fields),
			count,
		)
	}
	t := Table{data: data, offsets: offsets}
	for i, verify := range fields {
		if verify == nil {
			continue
		}
		if err := verify(t.Field(i)); err != nil {
			return Table{}, fmt.Errorf("%s field %d: %w", typeName, i, err)
		}
	}
	return t, nil
}

// TableOf returns a verifier for a nested table
func TableOf(typeName string, fields ...FieldVerifier) FieldVerifier {
	return func(data []byte) error {
		_, err := VerifyTable(typeName, data, false, fields...)
		return err
	}
}

// VerifyDynVec validates a dynvec, checking every item with item
func VerifyDynVec(
	typeName string,
	data []byte,
	item FieldVerifier,
) (Table, error) {
	offsets, err := parseOffsets(typeName, data)
	if err != nil {
		return Table{}, err
	}
	v := Table{data: data, offsets: offsets}
	if item == nil {
		return v, nil
	}
	for i := range v.Len() {
		if err := item(v.Field(i)); err != nil {
			return Table{}, fmt.Errorf("%s item %d: %w", typeName, i, err)
		}
	}
	return v, nil
}

// DynVecOf returns a verifier for a dynvec of the given items
func DynVecOf(typeName string, item FieldVerifier) FieldVerifier {
	return func(data []byte) error {
		_, err := VerifyDynVec(typeName, data, item)
		return err
	}
}

// OptionOf returns a verifier for an option: empty, or a valid inner value
func OptionOf(inner FieldVerifier) FieldVerifier {
	return func(data []byte) error {
		if len(data) == 0 {
			return nil
		}
		return inner(data)
	}
}

// Len returns the number of fields or items
func (t Table) Len() int {
	if len(t.offsets) == 0 {
		return 0
	}
	return len(t.offsets) - 1
}

// Field returns field i or nil when out of range
func (t Table) Field(i int) []byte {
	if i < 0 || i >= t.Len() {
		return nil
	}
	start, end := t.offsets[i], t.offsets[i+1]
	return t.data[start:end:end]
}

func (t Table) AsSlice() []byte {
	return t.data
}

// Uint8 reads a one byte field
func (t Table) Uint8(i int) uint8 {
	field := t.Field(i)
	if len(field) < 1 {
		return 0
	}
	return field[0]
}

// Uint32 reads a little-endian uint32 field
func (t Table) Uint32(i int) uint32 {
	field := t.Field(i)
	if len(field) < 4 {
		return 0
	}
	return binary.LittleEndian.Uint32(field)
}

// Uint64 reads a little-endian uint64 field
func (t Table) Uint64(i int) uint64 {
	field := t.Field(i)
	if len(field) < 8 {
		return 0
	}
	return binary.LittleEndian.Uint64(field)
}

// Byte32 reads a 32 byte field
func (t Table) Byte32(i int) [32]byte {
	var ret [32]byte
	copy(ret[:], t.Field(i))
	return ret
}

// Bytes returns the raw content of a Bytes field
func (t Table) Bytes(i int) []byte {
	field := t.Field(i)
	if len(field) < NumberSize {
		return nil
	}
	return field[NumberSize:]
}

// PackUint32 encodes v little endian
func PackUint32(v uint32) []byte {
	return binary.LittleEndian.AppendUint32(nil, v)
}

// PackUint64 encodes v little endian
func PackUint64(v uint64) []byte {
	return binary.LittleEndian.AppendUint64(nil, v)
}

// PackBytes encodes b as a fixvec of bytes
func PackBytes(b []byte) []byte {
	return PackFixVec(1, b)
}

// PackFixVec encodes items that are each itemSize bytes. raw holds the
// concatenated items.
func PackFixVec(itemSize int, raw []byte) []byte {
	if itemSize <= 0 || len(raw)%itemSize != 0 {
		panic("molecule: fixvec payload is not a multiple of the item size")
	}
	buf := make([]byte, 0, NumberSize+len(raw))
	buf = binary.LittleEndian.AppendUint32(buf, packedLen(len(raw)/itemSize))
	return append(buf, raw...)
}

// PackTable encodes fields as a table
func PackTable(fields ...[]byte) []byte {
	return PackDynVec(fields...)
}

// PackDynVec encodes items as a dynvec
func PackDynVec(items ...[]byte) []byte {
	headerSize := NumberSize * (len(items) + 1)
	total := headerSize
	for _, item := range items {
		total += len(item)
	}
	buf := make([]byte, 0, total)
	buf = binary.LittleEndian.AppendUint32(buf, packedLen(total))
	offset := headerSize
	for _, item := range items {
		buf = binary.LittleEndian.AppendUint32(buf, packedLen(offset))
		offset += len(item)
	}
	for _, item := range items {
		buf = append(buf, item...)
	}
	return buf
}

func packedLen(n int) uint32 {
	if n < 0 || uint64(n) > math.MaxUint32 {
		panic("molecule: length exceeds uint32")
	}
	return uint32(n)
}
