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

// Package action parses the action witness every transaction starts with.
package action

import (
	"fmt"
	"unicode/utf8"

	"github.com/dotbitHQ/did-contracts-sub003/errcode"
)

// Action is the operation a transaction performs
type Action uint8

const (
	Config Action = iota + 1
	InitAccountChain
	ApplyRegister
	RefundApply
	PreRegister
	Propose
	ExtendProposal
	ConfirmProposal
	RecycleProposal
	RenewAccount
	TransferAccount
	EditManager
	EditRecords
	StartAccountSale
	EditAccountSale
	CancelAccountSale
	BuyAccount
	Transfer
	WithdrawFromWallet
	LockAccountForCrossChain
	UnlockAccountForCrossChain
	EnableSubAccount
	CreateSubAccount
	UpdateSubAccount
	ConfigSubAccount
	RecycleExpiredAccount
	ForceRecoverAccountStatus
)

var actionNames = map[Action]string{
	Config:                     "config",
	InitAccountChain:           "init_account_chain",
	ApplyRegister:              "apply_register",
	RefundApply:                "refund_apply",
	PreRegister:                "pre_register",
	Propose:                    "propose",
	ExtendProposal:             "extend_proposal",
	ConfirmProposal:            "confirm_proposal",
	RecycleProposal:            "recycle_proposal",
	RenewAccount:               "renew_account",
	TransferAccount:            "transfer_account",
	EditManager:                "edit_manager",
	EditRecords:                "edit_records",
	StartAccountSale:           "start_account_sale",
	EditAccountSale:            "edit_account_sale",
	CancelAccountSale:          "cancel_account_sale",
	BuyAccount:                 "buy_account",
	Transfer:                   "transfer",
	WithdrawFromWallet:         "withdraw_from_wallet",
	LockAccountForCrossChain:   "lock_account_for_cross_chain",
	UnlockAccountForCrossChain: "unlock_account_for_cross_chain",
	EnableSubAccount:           "enable_sub_account",
	CreateSubAccount:           "create_sub_account",
	UpdateSubAccount:           "update_sub_account",
	ConfigSubAccount:           "config_sub_account",
	RecycleExpiredAccount:      "recycle_expired_account",
	ForceRecoverAccountStatus:  "force_recover_account_status",
}

var actionsByName = func() map[string]Action {
	ret := make(map[string]Action, len(actionNames))
	for action, name := range actionNames {
		ret[name] = action
	}
	return ret
}()

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("Action(%d)", uint8(a))
}

// FromBytes maps the raw action name to an Action
func FromBytes(name []byte) (Action, error) {
	if !utf8.Valid(name) {
		return 0, errcode.New(
			errcode.DecodingActionDataFailed,
			"action name %x is not valid UTF-8",
			name,
		)
	}
	action, ok := actionsByName[string(name)]
	if !ok {
		return 0, errcode.New(
			errcode.DecodingActionDataFailed,
			"unknown action %q",
			name,
		)
	}
	return action, nil
}

// ParamsKind is the shape of the params an action carries
type ParamsKind uint8

const (
	ParamsKindNone ParamsKind = iota
	ParamsKindRole
	ParamsKindBuyAccount
)

func (k ParamsKind) String() string {
	switch k {
	case ParamsKindNone:
		return "none"
	case ParamsKindRole:
		return "role"
	case ParamsKindBuyAccount:
		return "buy_account"
	default:
		return fmt.Sprintf("ParamsKind(%d)", uint8(k))
	}
}

// ParamsKind returns the params shape of the action
func (a Action) ParamsKind() ParamsKind {
	switch a {
	case TransferAccount,
		EditManager,
		EditRecords,
		StartAccountSale,
		EditAccountSale,
		CancelAccountSale,
		LockAccountForCrossChain,
		EnableSubAccount,
		ConfigSubAccount:
		return ParamsKindRole
	case BuyAccount:
		return ParamsKindBuyAccount
	default:
		return ParamsKindNone
	}
}

// SignerRole returns the role that has to sign the action, when the action
// is signed by an account holder at all
func (a Action) SignerRole() (Role, bool) {
	switch {
	case a.ParamsKind() == ParamsKindNone:
		return 0, false
	case a == EditRecords:
		return RoleManager, true
	default:
		return RoleOwner, true
	}
}
