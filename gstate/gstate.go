// Copyright (c) 2020-2021 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

// Package gstate implements the persistent global-state model (C7) the
// interpreter runs against: a map from Address to AccountState, plus the
// update log that folds into a new snapshot.
package gstate

import (
	"blockwatch.cc/tzmorley/michelson"
	"blockwatch.cc/tzmorley/tezos"
)

// AccountKind distinguishes a plain tz1/tz2/tz3 account from an
// originated KT1 contract.
type AccountKind byte

const (
	Simple AccountKind = iota
	Contract
)

// AccountState is one GState entry (§4.7 "An Address maps to either
// ASSimple{balance} or ASContract{balance, storage, code, ...}").
type AccountState struct {
	Kind    AccountKind
	Balance int64 // mutez

	// Contract-only fields.
	Storage       michelson.Value
	Code          michelson.Instr
	ParamType     michelson.T
	StorageType   michelson.T
	Delegate      *tezos.KeyHash
}

func NewSimple(balance int64) AccountState {
	return AccountState{Kind: Simple, Balance: balance}
}

func NewContract(balance int64, storage michelson.Value, code michelson.Instr, paramT, storageT michelson.T) AccountState {
	return AccountState{
		Kind: Contract, Balance: balance, Storage: storage, Code: code,
		ParamType: paramT, StorageType: storageT,
	}
}

func (a AccountState) Clone() AccountState {
	out := a
	if a.Storage != nil {
		out.Storage = a.Storage.Clone()
	}
	if a.Delegate != nil {
		d := *a.Delegate
		out.Delegate = &d
	}
	return out
}

// GState is an immutable snapshot: every mutating operation returns a new
// value, sharing unmodified account entries with the original (§4.7,
// Design Notes §9 "large substructures ... shared via persistent data
// structures").
type GState struct {
	accounts map[tezos.Address]AccountState
}

func New() GState {
	return GState{accounts: map[tezos.Address]AccountState{}}
}

func (g GState) Get(addr tezos.Address) (AccountState, bool) {
	a, ok := g.accounts[addr]
	return a, ok
}

// with returns a new GState sharing every entry but addr, which is set to
// state.
func (g GState) with(addr tezos.Address, state AccountState) GState {
	out := make(map[tezos.Address]AccountState, len(g.accounts)+1)
	for k, v := range g.accounts {
		out[k] = v
	}
	out[addr] = state
	return GState{accounts: out}
}

// ApplyUpdates folds updates in order, producing a new snapshot. Per
// §4.7, BalanceUpdated sets (not adds) and StorageValueSet overwrites;
// neither is idempotent in the additive sense, only in the "applying the
// same log twice yields the same result" sense the round-trip property
// requires.
func (g GState) ApplyUpdates(updates []Update) GState {
	cur := g
	for _, u := range updates {
		cur = u.apply(cur)
	}
	return cur
}
