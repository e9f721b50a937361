// Copyright (c) 2020-2021 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package check

import "blockwatch.cc/tzmorley/michelson"

func checkAddress(u Untyped, hst HST) (SomeInstr, error) {
	rest, top, err := pop(u.Op, hst, 1)
	if err != nil {
		return SomeInstr{}, err
	}
	if top[0].Type.Kind != michelson.KindContract {
		return SomeInstr{}, failedOnInstr(u.Op, hst, "ADDRESS expects a contract, got %s", top[0].Type)
	}
	item := Item{Type: michelson.Tc(michelson.CTAddress)}
	return SomeInstr{Instr: michelson.Instr{Op: u.Op}, Input: hst, Output: rest.Push(item)}, nil
}

func checkContract(u Untyped, hst HST) (SomeInstr, error) {
	rest, top, err := pop(u.Op, hst, 1)
	if err != nil {
		return SomeInstr{}, err
	}
	if !top[0].Type.Equal(michelson.Tc(michelson.CTAddress)) {
		return SomeInstr{}, failedOnInstr(u.Op, hst, "CONTRACT expects an address, got %s", top[0].Type)
	}
	item := Item{Type: michelson.TOption(michelson.TContract(u.Type1))}
	return SomeInstr{Instr: michelson.Instr{Op: u.Op, Type1: u.Type1}, Input: hst, Output: rest.Push(item)}, nil
}

func checkImplicitAccount(u Untyped, hst HST) (SomeInstr, error) {
	rest, top, err := pop(u.Op, hst, 1)
	if err != nil {
		return SomeInstr{}, err
	}
	if !top[0].Type.Equal(michelson.Tc(michelson.CTKeyHash)) {
		return SomeInstr{}, failedOnInstr(u.Op, hst, "IMPLICIT_ACCOUNT expects a key_hash, got %s", top[0].Type)
	}
	item := Item{Type: michelson.TContract(michelson.TUnit)}
	return SomeInstr{Instr: michelson.Instr{Op: u.Op}, Input: hst, Output: rest.Push(item)}, nil
}

func checkTransferTokens(u Untyped, hst HST) (SomeInstr, error) {
	rest, top, err := pop(u.Op, hst, 3)
	if err != nil {
		return SomeInstr{}, err
	}
	param, amount, dest := top[0], top[1], top[2]
	if dest.Type.Kind != michelson.KindContract {
		return SomeInstr{}, failedOnInstr(u.Op, hst, "TRANSFER_TOKENS expects a contract, got %s", dest.Type)
	}
	if !param.Type.Equal(dest.Type.Elem()) {
		return SomeInstr{}, failedOnInstr(u.Op, hst, "TRANSFER_TOKENS parameter type %s does not match contract's %s", param.Type, dest.Type.Elem())
	}
	if !amount.Type.Equal(michelson.Tc(michelson.CTMutez)) {
		return SomeInstr{}, failedOnInstr(u.Op, hst, "TRANSFER_TOKENS amount must be mutez, got %s", amount.Type)
	}
	item := Item{Type: michelson.TOperation}
	return SomeInstr{Instr: michelson.Instr{Op: u.Op}, Input: hst, Output: rest.Push(item)}, nil
}

func checkSetDelegate(u Untyped, hst HST) (SomeInstr, error) {
	rest, top, err := pop(u.Op, hst, 1)
	if err != nil {
		return SomeInstr{}, err
	}
	if !top[0].Type.Equal(michelson.TOption(michelson.Tc(michelson.CTKeyHash))) {
		return SomeInstr{}, failedOnInstr(u.Op, hst, "SET_DELEGATE expects option(key_hash), got %s", top[0].Type)
	}
	item := Item{Type: michelson.TOperation}
	return SomeInstr{Instr: michelson.Instr{Op: u.Op}, Input: hst, Output: rest.Push(item)}, nil
}

// checkCreateContract type-checks the nested contract literal's own code
// against [pair(param,storage)] the same way TypecheckContract does for
// the top level, then pushes (operation, address) per §4.4's origination
// shape.
func checkCreateContract(u Untyped, hst HST) (SomeInstr, error) {
	rest, top, err := pop(u.Op, hst, 3)
	if err != nil {
		return SomeInstr{}, err
	}
	delegate, amount, storage := top[0], top[1], top[2]
	if !delegate.Type.Equal(michelson.TOption(michelson.Tc(michelson.CTKeyHash))) {
		return SomeInstr{}, failedOnInstr(u.Op, hst, "CREATE_CONTRACT expects option(key_hash) delegate, got %s", delegate.Type)
	}
	if !amount.Type.Equal(michelson.Tc(michelson.CTMutez)) {
		return SomeInstr{}, failedOnInstr(u.Op, hst, "CREATE_CONTRACT expects mutez amount, got %s", amount.Type)
	}
	if u.Body == nil {
		return SomeInstr{}, failedOnInstr(u.Op, hst, "CREATE_CONTRACT requires an embedded contract body")
	}
	contractS, err := TypecheckContract(body(u.Body), u.Type1, u.Type2)
	if err != nil {
		return SomeInstr{}, err
	}
	if !storage.Type.Equal(u.Type2) {
		return SomeInstr{}, failedOnInstr(u.Op, hst, "CREATE_CONTRACT initial storage type %s does not match declared storage type %s", storage.Type, u.Type2)
	}
	out := rest.PushN(
		Item{Type: michelson.TOperation},
		Item{Type: michelson.Tc(michelson.CTAddress)},
	)
	instr := michelson.Instr{Op: u.Op, Type1: u.Type1, Type2: u.Type2, Body: &contractS.Instr}
	return SomeInstr{Instr: instr, Input: hst, Output: out}, nil
}

func checkCreateAccount(u Untyped, hst HST) (SomeInstr, error) {
	rest, top, err := pop(u.Op, hst, 4)
	if err != nil {
		return SomeInstr{}, err
	}
	spendable, delegatable, balance, manager := top[0], top[1], top[2], top[3]
	if !spendable.Type.Equal(michelson.Tc(michelson.CTBool)) || !delegatable.Type.Equal(michelson.Tc(michelson.CTBool)) {
		return SomeInstr{}, failedOnInstr(u.Op, hst, "CREATE_ACCOUNT expects (bool, bool) for spendable/delegatable")
	}
	if !balance.Type.Equal(michelson.Tc(michelson.CTMutez)) {
		return SomeInstr{}, failedOnInstr(u.Op, hst, "CREATE_ACCOUNT expects mutez balance, got %s", balance.Type)
	}
	if !manager.Type.Equal(michelson.Tc(michelson.CTKeyHash)) {
		return SomeInstr{}, failedOnInstr(u.Op, hst, "CREATE_ACCOUNT expects key_hash manager, got %s", manager.Type)
	}
	out := rest.PushN(
		Item{Type: michelson.TOperation},
		Item{Type: michelson.Tc(michelson.CTAddress)},
	)
	return SomeInstr{Instr: michelson.Instr{Op: u.Op}, Input: hst, Output: out}, nil
}
