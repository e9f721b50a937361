// Copyright (c) 2020-2021 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package scenario

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blockwatch.cc/tzmorley/michelson"
	"blockwatch.cc/tzmorley/tezos"
)

func implicitAddr(b byte) tezos.Address {
	hash := make([]byte, 20)
	hash[0] = b
	return tezos.NewAddress(tezos.AddressTypeEd25519, hash)
}

// setStorageContract builds { DROP; PUSH int 42; NIL operation; PAIR }.
func setStorageContract() michelson.Instr {
	return michelson.Instr{Op: "SEQ", Seq: []michelson.Instr{
		{Op: michelson.DROP, N: 1},
		{Op: michelson.PUSH, PushType: michelson.Tc(michelson.CTInt), PushVal: michelson.NewInt(42)},
		{Op: michelson.NIL, Type1: michelson.TOperation},
		{Op: michelson.PAIR},
	}}
}

// failingContract builds { PUSH string "nope"; FAILWITH }.
func failingContract() michelson.Instr {
	return michelson.Instr{Op: "SEQ", Seq: []michelson.Instr{
		{Op: michelson.PUSH, PushType: michelson.Tc(michelson.CTString), PushVal: michelson.VString{X: "nope"}},
		{Op: michelson.FAILWITH},
	}}
}

// loopForeverContract builds a LOOP whose body always pushes bool True
// back, so the loop condition never goes false; the trailing NIL/PUSH/
// PAIR makes the whole body type-check as pair(list(operation), bool)
// even though it is never actually reached at runtime -- the tiny step
// budget exhausts gas inside the loop well before that.
func loopForeverContract() michelson.Instr {
	body := michelson.Instr{Op: "SEQ", Seq: []michelson.Instr{
		{Op: michelson.PUSH, PushType: michelson.Tc(michelson.CTBool), PushVal: michelson.VBool{X: true}},
	}}
	return michelson.Instr{Op: "SEQ", Seq: []michelson.Instr{
		{Op: michelson.DROP, N: 1},
		{Op: michelson.PUSH, PushType: michelson.Tc(michelson.CTBool), PushVal: michelson.VBool{X: true}},
		{Op: michelson.LOOP, Body: &body},
		{Op: michelson.PUSH, PushType: michelson.Tc(michelson.CTBool), PushVal: michelson.VBool{X: false}},
		{Op: michelson.NIL, Type1: michelson.TOperation},
		{Op: michelson.PAIR},
	}}
}

func TestScenarioOriginateAndSetStorage(t *testing.T) {
	s := New(0, 1000)
	addr := s.Originate(setStorageContract(), michelson.TUnit, michelson.Tc(michelson.CTInt), michelson.NewInt(0), 100)
	require.True(t, addr.IsValid())

	sender := implicitAddr(1)
	s.SeedAccount(sender, 1000000)
	s.Transfer(TxData{Sender: sender, Amount: 0, Param: michelson.VUnit{}}, addr)

	s.Validate(Compose(ExpectStorageConst(addr, michelson.NewInt(42)), ExpectBalance(addr, 100)))
	require.Nil(t, s.Err())
}

func TestScenarioFailwithPropagation(t *testing.T) {
	s := New(0, 1000)
	addr := s.Originate(failingContract(), michelson.TUnit, michelson.TUnit, michelson.VUnit{}, 0)

	sender := implicitAddr(2)
	s.SeedAccount(sender, 1000000)
	s.Transfer(TxData{Sender: sender, Amount: 0, Param: michelson.VUnit{}}, addr)

	s.Validate(ExpectMichelsonFailed(addr, func(v michelson.Value) bool {
		str, ok := v.(michelson.VString)
		return ok && str.X == "nope"
	}))
	require.Nil(t, s.Err())
}

func TestScenarioGasExhaustion(t *testing.T) {
	s := New(0, 3)
	addr := s.Originate(loopForeverContract(), michelson.TUnit, michelson.Tc(michelson.CTBool), michelson.VBool{X: false}, 0)

	sender := implicitAddr(3)
	s.SeedAccount(sender, 1000000)
	s.Transfer(TxData{Sender: sender, Amount: 0, Param: michelson.VUnit{}}, addr)

	s.Validate(ExpectGasExhaustion())
	require.Nil(t, s.Err())
}

func TestScenarioFailedValidateIsSticky(t *testing.T) {
	s := New(0, 1000)
	addr := s.Originate(setStorageContract(), michelson.TUnit, michelson.Tc(michelson.CTInt), michelson.NewInt(0), 0)
	sender := implicitAddr(4)
	s.SeedAccount(sender, 1000000)
	s.Transfer(TxData{Sender: sender, Amount: 0, Param: michelson.VUnit{}}, addr)

	s.Validate(ExpectStorageConst(addr, michelson.NewInt(0)))
	require.NotNil(t, s.Err())
	assert.Equal(t, VEIncorrectUpdates, s.Err().Kind)

	s.Transfer(TxData{Sender: sender, Amount: 0, Param: michelson.VUnit{}}, addr)
	require.NotNil(t, s.Err())
}

func TestExpectAnySuccessIsIdentity(t *testing.T) {
	s1 := New(0, 1000)
	addr1 := s1.Originate(setStorageContract(), michelson.TUnit, michelson.Tc(michelson.CTInt), michelson.NewInt(0), 0)
	sender1 := implicitAddr(5)
	s1.SeedAccount(sender1, 1000000)
	s1.Transfer(TxData{Sender: sender1, Amount: 0, Param: michelson.VUnit{}}, addr1)
	s1.Validate(ExpectStorageConst(addr1, michelson.NewInt(42)))
	require.Nil(t, s1.Err())

	s2 := New(0, 1000)
	addr2 := s2.Originate(setStorageContract(), michelson.TUnit, michelson.Tc(michelson.CTInt), michelson.NewInt(0), 0)
	sender2 := implicitAddr(5)
	s2.SeedAccount(sender2, 1000000)
	s2.Transfer(TxData{Sender: sender2, Amount: 0, Param: michelson.VUnit{}}, addr2)
	s2.Validate(Compose(ExpectStorageConst(addr2, michelson.NewInt(42)), ExpectAnySuccess()))
	require.Nil(t, s2.Err())
}
