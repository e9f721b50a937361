// Copyright (c) 2020-2021 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

// Package interp implements the pure Michelson interpreter (C6): it takes
// a GState snapshot and a batch of origination/transfer operations and
// returns a new snapshot plus the canonical update journal, never
// mutating its input.
package interp

import (
	"blockwatch.cc/tzmorley/gstate"
	"blockwatch.cc/tzmorley/michelson"
	"blockwatch.cc/tzmorley/tezos"
)

// OriginateOp originates a new contract at a precomputed address (the
// scenario driver computes the address deterministically before queuing
// the op, per §4.8's "returns the address without executing yet").
type OriginateOp struct {
	Address        tezos.Address
	Sender         tezos.Address
	Code           michelson.Instr
	ParamType      michelson.T
	StorageType    michelson.T
	InitialStorage michelson.Value
	Balance        int64
	Delegate       *tezos.KeyHash
}

// TransferOp credits Amount to Dest, optionally invoking Dest's code with
// Param if Dest is a contract. Sender must exist in the GState; its
// balance is not debited.
type TransferOp struct {
	Sender tezos.Address
	Source tezos.Address // top-level originator of the batch; SOURCE inside contract code
	Dest   tezos.Address
	Amount int64
	Param  michelson.Value
}

// SetDelegateOp changes or clears Addr's delegate; emitted by a
// contract's SET_DELEGATE or queued directly by the scenario driver.
type SetDelegateOp struct {
	Addr     tezos.Address
	Delegate *tezos.KeyHash // nil clears the delegate
}

// OpKind distinguishes the operation shapes the pending queue can hold;
// Op is their tagged union.
type OpKind byte

const (
	OpOriginate OpKind = iota
	OpTransfer
	OpDelegate
)

type Op struct {
	Kind        OpKind
	Originate   *OriginateOp
	Transfer    *TransferOp
	SetDelegate *SetDelegateOp
}

func Originate(op OriginateOp) Op     { return Op{Kind: OpOriginate, Originate: &op} }
func Transfer(op TransferOp) Op       { return Op{Kind: OpTransfer, Transfer: &op} }
func SetDelegate(op SetDelegateOp) Op { return Op{Kind: OpDelegate, SetDelegate: &op} }

// InterpreterRes is the successful result of Interpret (§4.6): the new
// snapshot plus the ordered update journal that produced it.
type InterpreterRes struct {
	GState  gstate.GState
	Updates []gstate.Update
}
