// Copyright (c) 2020-2021 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package michelson

import (
	"fmt"

	"blockwatch.cc/tzmorley/tezos"
)

// OperationKind tags the four shapes of operation a contract may emit
// (§3: "operation carries one of ...").
type OperationKind byte

const (
	OpTransferTokens OperationKind = iota
	OpSetDelegate
	OpCreateAccount
	OpCreateContract
)

func (k OperationKind) String() string {
	switch k {
	case OpTransferTokens:
		return "transfer_tokens"
	case OpSetDelegate:
		return "set_delegate"
	case OpCreateAccount:
		return "create_account"
	case OpCreateContract:
		return "create_contract"
	default:
		return "unknown_operation"
	}
}

// Operation is the closed sum of operations a contract may emit or the
// scenario driver may enqueue directly. Exactly the field matching Kind
// is populated; this mirrors how GState's AccountState (gstate package)
// and Value's container types are modelled -- a tagged struct rather
// than an interface hierarchy, which keeps Clone/Equal trivial.
type Operation struct {
	Kind OperationKind

	Transfer       *TransferTokens
	SetDelegate    *SetDelegateOp
	CreateAccount  *CreateAccountOp
	CreateContract *CreateContractOp
}

type TransferTokens struct {
	Parameter Value
	Amount    VMutez
	Dest      VContract
}

type SetDelegateOp struct {
	Delegate *tezos.KeyHash // nil == None
}

type CreateAccountOp struct {
	Manager   tezos.KeyHash
	Delegate  *tezos.KeyHash
	Spendable bool
	Balance   VMutez
	// Address is the address already pushed alongside this operation at
	// check/push time; the interpreter reuses it verbatim when the
	// operation is actually executed rather than recomputing it.
	Address tezos.Address
}

type CreateContractOp struct {
	Manager        tezos.KeyHash
	Delegate       *tezos.KeyHash
	Spendable      bool
	Delegatable    bool
	Balance        VMutez
	InitialStorage Value
	Code           Instr // input [pair(cp,st)], output [pair(list(operation),st)]
	ParamType      T
	StorageType    T
	Address        tezos.Address
}

func (o Operation) Clone() Operation {
	c := Operation{Kind: o.Kind}
	switch o.Kind {
	case OpTransferTokens:
		t := *o.Transfer
		t.Parameter = t.Parameter.Clone()
		c.Transfer = &t
	case OpSetDelegate:
		d := *o.SetDelegate
		if d.Delegate != nil {
			kh := *d.Delegate
			d.Delegate = &kh
		}
		c.SetDelegate = &d
	case OpCreateAccount:
		a := *o.CreateAccount
		c.CreateAccount = &a
	case OpCreateContract:
		cc := *o.CreateContract
		cc.InitialStorage = cc.InitialStorage.Clone()
		c.CreateContract = &cc
	}
	return c
}

func (o Operation) String() string {
	switch o.Kind {
	case OpTransferTokens:
		return fmt.Sprintf("TransferTokens{%s -> %s, %s}", o.Transfer.Parameter, o.Transfer.Dest.Addr, o.Transfer.Amount)
	case OpSetDelegate:
		return fmt.Sprintf("SetDelegate{%v}", o.SetDelegate.Delegate)
	case OpCreateAccount:
		return fmt.Sprintf("CreateAccount{%s}", o.CreateAccount.Balance)
	case OpCreateContract:
		return fmt.Sprintf("CreateContract{storage=%s}", o.CreateContract.InitialStorage)
	default:
		return "Operation(?)"
	}
}
