// Copyright (c) 2020-2021 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package gstate

import (
	"blockwatch.cc/tzmorley/michelson"
	"blockwatch.cc/tzmorley/tezos"
)

// Update is one entry of the interpreter's canonical journal (§4.7): a
// sum of the five ways an interpreted transaction can change GState.
// apply is unexported -- updates are only ever folded through
// GState.ApplyUpdates, never applied piecemeal by a caller.
type Update interface {
	apply(GState) GState
	Address() tezos.Address
}

type BalanceUpdated struct {
	Addr tezos.Address
	New  int64
}

func (u BalanceUpdated) Address() tezos.Address { return u.Addr }

func (u BalanceUpdated) apply(g GState) GState {
	acc, ok := g.Get(u.Addr)
	if !ok {
		acc = NewSimple(0)
	}
	acc = acc.Clone()
	acc.Balance = u.New
	return g.with(u.Addr, acc)
}

type StorageValueSet struct {
	Addr  tezos.Address
	Value michelson.Value
}

func (u StorageValueSet) Address() tezos.Address { return u.Addr }

func (u StorageValueSet) apply(g GState) GState {
	acc, ok := g.Get(u.Addr)
	if !ok {
		return g
	}
	acc = acc.Clone()
	acc.Storage = u.Value
	return g.with(u.Addr, acc)
}

type ContractCreated struct {
	Addr    tezos.Address
	Account AccountState
}

func (u ContractCreated) Address() tezos.Address { return u.Addr }

func (u ContractCreated) apply(g GState) GState {
	return g.with(u.Addr, u.Account.Clone())
}

type SimpleAccountCreated struct {
	Addr    tezos.Address
	Balance int64
}

func (u SimpleAccountCreated) Address() tezos.Address { return u.Addr }

func (u SimpleAccountCreated) apply(g GState) GState {
	return g.with(u.Addr, NewSimple(u.Balance))
}

type DelegateSet struct {
	Addr     tezos.Address
	Delegate *tezos.KeyHash
}

func (u DelegateSet) Address() tezos.Address { return u.Addr }

func (u DelegateSet) apply(g GState) GState {
	acc, ok := g.Get(u.Addr)
	if !ok {
		acc = NewSimple(0)
	}
	acc = acc.Clone()
	acc.Delegate = u.Delegate
	return g.with(u.Addr, acc)
}
