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

// Package lv reads and writes length-value chains: a sequence of fields,
// each prefixed by its length as a little-endian uint32.
package lv

import (
	"encoding/binary"
	"math"

	"github.com/dotbitHQ/did-contracts-sub003/errcode"
)

// HeaderSize is the size of the length prefix of every field
const HeaderSize = 4

// ReadField decodes the field starting at offset and returns the offset of
// the next field along with the field bytes. The returned slice aliases buf.
func ReadField(buf []byte, offset int) (int, []byte, error) {
	if offset < 0 || offset > len(buf) {
		return 0, nil, errcode.New(
			errcode.StructureError,
			"field offset %d outside buffer of %d bytes",
			offset,
			len(buf),
		)
	}
	remaining := len(buf) - offset
	if remaining < HeaderSize {
		return 0, nil, errcode.New(
			errcode.StructureError,
			"field header at offset %d needs %d bytes, %d remain",
			offset,
			HeaderSize,
			remaining,
		)
	}
	length := binary.LittleEndian.Uint32(buf[offset : offset+HeaderSize])
	start := offset + HeaderSize
	if uint64(length) > uint64(len(buf)-start) {
		return 0, nil, errcode.New(
			errcode.StructureError,
			"field at offset %d declares %d bytes, %d remain",
			offset,
			length,
			len(buf)-start,
		)
	}
	end := start + int(length)
	return end, buf[start:end:end], nil
}

// AppendField appends field to dst with its length prefix
func AppendField(dst []byte, field []byte) []byte {
	if uint64(len(field)) > math.MaxUint32 {
		panic("lv: field exceeds maximum length")
	}
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(field)))
	return append(dst, field...)
}

// Encode builds a chain from the given fields
func Encode(fields ...[]byte) []byte {
	size := 0
	for _, field := range fields {
		size += HeaderSize + len(field)
	}
	buf := make([]byte, 0, size)
	for _, field := range fields {
		buf = AppendField(buf, field)
	}
	return buf
}

// Reader walks a chain field by field
type Reader struct {
	buf    []byte
	offset int
	count  int
}

func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Next returns the next field in the chain
func (r *Reader) Next() ([]byte, error) {
	next, field, err := ReadField(r.buf, r.offset)
	if err != nil {
		return nil, err
	}
	r.offset = next
	r.count++
	return field, nil
}

// NextUint32 reads a field which must hold exactly one little-endian uint32
func (r *Reader) NextUint32() (uint32, error) {
	field, err := r.nextFixed(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(field), nil
}

// NextUint64 reads a field which must hold exactly one little-endian uint64
func (r *Reader) NextUint64() (uint64, error) {
	field, err := r.nextFixed(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(field), nil
}

// nextFixed reads the next field only if it has the given size, leaving
// the cursor untouched otherwise
func (r *Reader) nextFixed(size int) ([]byte, error) {
	next, field, err := ReadField(r.buf, r.offset)
	if err != nil {
		return nil, err
	}
	if len(field) != size {
		return nil, errcode.New(
			errcode.StructureError,
			"field %d should be %d bytes, got %d",
			r.count,
			size,
			len(field),
		)
	}
	r.offset = next
	r.count++
	return field, nil
}

// Offset returns the position of the next unread field
func (r *Reader) Offset() int {
	return r.offset
}

// Count returns the number of fields read so far
func (r *Reader) Count() int {
	return r.count
}

// Remaining returns the number of unread bytes
func (r *Reader) Remaining() int {
	return len(r.buf) - r.offset
}

// Done reports whether the whole chain has been consumed
func (r *Reader) Done() bool {
	return r.offset == len(r.buf)
}

// Split decodes a whole chain, failing on any residue
func Split(buf []byte) ([][]byte, error) {
	var fields [][]byte
	r := NewReader(buf)
	for !r.Done() {
		field, err := r.Next()
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
	}
	return fields, nil
}
