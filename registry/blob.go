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

package registry

import (
	"bytes"
	"fmt"
	"slices"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/blake2b"

	"github.com/dotbitHQ/did-contracts-sub003/entity"
	"github.com/dotbitHQ/did-contracts-sub003/errcode"
)

// AccountHashSize is the size of the account hashes kept in account lists
const AccountHashSize = 20

// AccountHash is the truncated blake2b-256 hash of an account name without
// its suffix, the key of the preserved and unavailable account lists
func AccountHash(account []byte) [AccountHashSize]byte {
	sum := blake2b.Sum256(account)
	return [AccountHashSize]byte(sum[:AccountHashSize])
}

// HashList is a sorted list of account hashes
type HashList struct {
	data []byte
}

// NewHashList checks that data is a strictly ascending run of 20 byte
// hashes
func NewHashList(data []byte) (*HashList, error) {
	if len(data)%AccountHashSize != 0 {
		return nil, errcode.New(
			errcode.StructureError,
			"account list of %d bytes is not a multiple of %d",
			len(data),
			AccountHashSize,
		)
	}
	ret := &HashList{data: data}
	for i := 1; i < ret.Len(); i++ {
		if bytes.Compare(ret.item(i-1), ret.item(i)) >= 0 {
			return nil, errcode.New(
				errcode.StructureError,
				"account list is not sorted at item %d",
				i,
			)
		}
	}
	return ret, nil
}

func (l *HashList) Len() int { return len(l.data) / AccountHashSize }

func (l *HashList) item(i int) []byte {
	return l.data[i*AccountHashSize : (i+1)*AccountHashSize]
}

// Contains reports whether hash is in the list
func (l *HashList) Contains(hash [AccountHashSize]byte) bool {
	i := sort.Search(l.Len(), func(i int) bool {
		return bytes.Compare(l.item(i), hash[:]) >= 0
	})
	return i < l.Len() && bytes.Equal(l.item(i), hash[:])
}

// PackHashList sorts and concatenates hashes
func PackHashList(hashes [][AccountHashSize]byte) []byte {
	sorted := slices.Clone(hashes)
	slices.SortFunc(sorted, func(a, b [AccountHashSize]byte) int {
		return bytes.Compare(a[:], b[:])
	})
	sorted = slices.Compact(sorted)
	ret := make([]byte, 0, len(sorted)*AccountHashSize)
	for _, hash := range sorted {
		ret = append(ret, hash[:]...)
	}
	return ret
}

// RecordKeyNamespace is the set of record keys accounts may use
type RecordKeyNamespace struct {
	keys []string
}

// NewRecordKeyNamespace parses a NUL separated key list
func NewRecordKeyNamespace(data []byte) (*RecordKeyNamespace, error) {
	ret := &RecordKeyNamespace{}
	for i, key := range bytes.Split(data, []byte{0}) {
		if len(key) == 0 {
			continue
		}
		if !utf8.Valid(key) {
			return nil, errcode.New(
				errcode.StructureError,
				"record key %d is not valid UTF-8",
				i,
			)
		}
		ret.keys = append(ret.keys, string(key))
	}
	slices.Sort(ret.keys)
	return ret, nil
}

func (n *RecordKeyNamespace) Len() int       { return len(n.keys) }
func (n *RecordKeyNamespace) Keys() []string { return slices.Clone(n.keys) }

// Contains reports whether a record key, as "type.key", is allowed
func (n *RecordKeyNamespace) Contains(key string) bool {
	_, ok := slices.BinarySearch(n.keys, key)
	return ok
}

// PackRecordKeyNamespace joins keys with NUL terminators
func PackRecordKeyNamespace(keys []string) []byte {
	var sb strings.Builder
	for _, key := range keys {
		sb.WriteString(key)
		sb.WriteByte(0)
	}
	return []byte(sb.String())
}

// CharSet is the list of characters of one character set
type CharSet struct {
	chars  map[string]struct{}
	Type   entity.CharSetType
	Global bool
}

// NewCharSet parses a char set config: a global flag byte, then NUL
// terminated characters
func NewCharSet(charSetType entity.CharSetType, data []byte) (*CharSet, error) {
	if len(data) == 0 {
		return nil, errcode.New(
			errcode.StructureError,
			"char set %s is empty",
			charSetType,
		)
	}
	if data[0] > 1 {
		return nil, errcode.New(
			errcode.StructureError,
			"char set %s has unknown global flag %d",
			charSetType,
			data[0],
		)
	}
	ret := &CharSet{
		Type:   charSetType,
		Global: data[0] == 1,
		chars:  make(map[string]struct{}),
	}
	rest := data[1:]
	for len(rest) > 0 {
		end := bytes.IndexByte(rest, 0)
		if end < 0 {
			return nil, errcode.New(
				errcode.StructureError,
				"char set %s: unterminated character %x",
				charSetType,
				rest,
			)
		}
		char := rest[:end]
		if len(char) == 0 || !utf8.Valid(char) {
			return nil, errcode.New(
				errcode.StructureError,
				"char set %s: invalid character %x",
				charSetType,
				char,
			)
		}
		ret.chars[string(char)] = struct{}{}
		rest = rest[end+1:]
	}
	return ret, nil
}

func (c *CharSet) Len() int { return len(c.chars) }

func (c *CharSet) Contains(char string) bool {
	_, ok := c.chars[char]
	return ok
}

// ContainsAll reports whether every character of account is in the set.
// Otherwise it returns the index of the first one that is not.
func (c *CharSet) ContainsAll(account entity.AccountChars) (int, bool) {
	for i := range account.Len() {
		char := account.Get(i)
		if char.CharSetName() != c.Type || !c.Contains(string(char.Bytes())) {
			return i, false
		}
	}
	return 0, true
}

// PackCharSet produces a char set config
func PackCharSet(global bool, chars []string) []byte {
	ret := []byte{0}
	if global {
		ret[0] = 1
	}
	for _, char := range chars {
		ret = append(ret, char...)
		ret = append(ret, 0)
	}
	return ret
}

func (c *CharSet) String() string {
	return fmt.Sprintf("%s(%d chars)", c.Type, len(c.chars))
}
