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

package celldata

import (
	"fmt"

	"github.com/dotbitHQ/did-contracts-sub003/entity"
	"github.com/dotbitHQ/did-contracts-sub003/host"
)

// LockAlgorithm identifies the signature algorithm of one das-lock role
type LockAlgorithm uint8

const (
	LockAlgorithmUndefined LockAlgorithm = 0
	LockAlgorithmCKBMulti  LockAlgorithm = 1
	LockAlgorithmCKB       LockAlgorithm = 2
	LockAlgorithmETH       LockAlgorithm = 3
	LockAlgorithmTRON      LockAlgorithm = 4
	LockAlgorithmETHTyped  LockAlgorithm = 5
	LockAlgorithmED25519   LockAlgorithm = 6
	LockAlgorithmDOGE      LockAlgorithm = 7
	LockAlgorithmWebAuthn  LockAlgorithm = 8
)

var lockAlgorithmNames = map[LockAlgorithm]string{
	LockAlgorithmCKBMulti: "ckb_multisig",
	LockAlgorithmCKB:      "ckb",
	LockAlgorithmETH:      "eth",
	LockAlgorithmTRON:     "tron",
	LockAlgorithmETHTyped: "eth712",
	LockAlgorithmED25519:  "ed25519",
	LockAlgorithmDOGE:     "doge",
	LockAlgorithmWebAuthn: "webauthn",
}

func (a LockAlgorithm) String() string {
	if name, ok := lockAlgorithmNames[a]; ok {
		return name
	}
	return fmt.Sprintf("LockAlgorithm(%d)", uint8(a))
}

// LockPayloadSize is the size of the public key hash of each role
const LockPayloadSize = 20

// DasLockArgsSize is the size of das-lock args:
//
//	owner algorithm u8 | owner 20 | manager algorithm u8 | manager 20
const DasLockArgsSize = 2 * (1 + LockPayloadSize)

const managerOffset = 1 + LockPayloadSize

// DasLockArgs is a view over the args of a das-lock script
type DasLockArgs struct {
	data []byte
}

func DasLockArgsFromSlice(data []byte) (*DasLockArgs, error) {
	if len(data) != DasLockArgsSize {
		return nil, invalid(
			"das-lock args",
			data,
			"expected %d bytes",
			DasLockArgsSize,
		)
	}
	return &DasLockArgs{data: data}, nil
}

func (a *DasLockArgs) OwnerAlgorithm() LockAlgorithm {
	return LockAlgorithm(a.data[0])
}

func (a *DasLockArgs) Owner() []byte {
	return a.data[1:managerOffset]
}

func (a *DasLockArgs) ManagerAlgorithm() LockAlgorithm {
	return LockAlgorithm(a.data[managerOffset])
}

func (a *DasLockArgs) Manager() []byte {
	return a.data[managerOffset+1:]
}

// OwnerLock returns the algorithm and payload of the owner role
func (a *DasLockArgs) OwnerLock() (LockAlgorithm, []byte) {
	return a.OwnerAlgorithm(), a.Owner()
}

// ManagerLock returns the algorithm and payload of the manager role
func (a *DasLockArgs) ManagerLock() (LockAlgorithm, []byte) {
	return a.ManagerAlgorithm(), a.Manager()
}

func (a *DasLockArgs) AsSlice() []byte { return a.data }

type DasLockArgsBuilder struct {
	Owner            [LockPayloadSize]byte
	Manager          [LockPayloadSize]byte
	OwnerAlgorithm   LockAlgorithm
	ManagerAlgorithm LockAlgorithm
}

func (b DasLockArgsBuilder) Build() []byte {
	ret := make([]byte, 0, DasLockArgsSize)
	ret = append(ret, byte(b.OwnerAlgorithm))
	ret = append(ret, b.Owner[:]...)
	ret = append(ret, byte(b.ManagerAlgorithm))
	return append(ret, b.Manager[:]...)
}

// LoadDasLockArgs reads the lock script of a cell and decodes its args
func LoadDasLockArgs(l *host.Loader, cell host.CellMeta) (*DasLockArgs, error) {
	lock, err := l.LockScript(cell)
	if err != nil {
		return nil, fmt.Errorf("load lock of %s: %w", cell, err)
	}
	return LockArgs(lock)
}

// LockArgs decodes the args of a das-lock script
func LockArgs(lock *entity.Script) (*DasLockArgs, error) {
	return DasLockArgsFromSlice(lock.Args())
}
