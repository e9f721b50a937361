// Copyright (c) 2020-2021 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package check

import (
	"blockwatch.cc/tzmorley/michelson"
)

type ctx struct {
	self      michelson.T
	selfValid bool
}

// Typecheck is the top-level entry point (§4.4, §6 "typecheck(untyped,
// input_HST)"): it type-checks a sequence of untyped instructions against
// a supplied hypothetical stack type and returns an existential pairing
// the typed instruction with its derived output HST.
//
// SELF is only valid inside a contract's own code, so bare Typecheck
// rejects it; use TypecheckContract for top-level contract bodies.
func Typecheck(prog []Untyped, input HST) (SomeInstr, error) {
	return typecheckSeq(ctx{}, prog, input)
}

// TypecheckContract type-checks a contract's top-level code against the
// conventional [pair(parameter, storage)] entry stack, with SELF bound to
// contract(parameter).
func TypecheckContract(prog []Untyped, paramT, storageT michelson.T) (SomeInstr, error) {
	log.Tracef("typechecking contract: param=%s storage=%s", paramT, storageT)
	input := HST{{Type: michelson.TPair(paramT, storageT), Notes: michelson.NoNotes}}
	c := ctx{self: michelson.TContract(paramT), selfValid: true}
	some, err := typecheckSeq(c, prog, input)
	if err != nil {
		return SomeInstr{}, err
	}
	want := michelson.TPair(michelson.TList(michelson.TOperation), storageT)
	if !some.Diverges && (len(some.Output) != 1 || !some.Output[0].Type.Equal(want)) {
		return SomeInstr{}, failedOnInstr("", some.Output, "contract must end with exactly [pair(list(operation), storage)], got %v", some.Output)
	}
	return some, nil
}

func typecheckSeq(c ctx, prog []Untyped, input HST) (SomeInstr, error) {
	hst := input
	instrs := make([]michelson.Instr, 0, len(prog))
	diverges := false
	for _, u := range prog {
		some, err := typecheckOne(c, u, hst)
		if err != nil {
			return SomeInstr{}, err
		}
		instrs = append(instrs, some.Instr)
		hst = some.Output
		diverges = some.Diverges
	}
	return SomeInstr{
		Instr:    michelson.Instr{Op: "SEQ", Seq: instrs},
		Input:    input,
		Output:   hst,
		Diverges: diverges,
	}, nil
}

// typecheckBody type-checks a nested block (DIP/LOOP/ITER/MAP/LAMBDA
// bodies, IF branches, ...) against hst, returning a single Instr whose
// Seq holds the block (or the lone instruction, for single-instruction
// bodies written without braces).
func typecheckBody(c ctx, body []Untyped, hst HST) (SomeInstr, error) {
	return typecheckSeq(c, body, hst)
}

func pop(op michelson.OpCode, hst HST, n int) (HST, []Item, error) {
	if len(hst) < n {
		return nil, nil, failedOnInstr(op, hst, "expected at least %d stack item(s), got %d", n, len(hst))
	}
	return hst[n:], hst[:n], nil
}

func typecheckOne(c ctx, u Untyped, hst HST) (SomeInstr, error) {
	switch u.Op {
	case "SEQ":
		return typecheckSeq(c, u.Seq, hst)

	case michelson.DROP:
		n := u.N
		if n == 0 {
			n = 1
		}
		rest, _, err := pop(u.Op, hst, n)
		if err != nil {
			return SomeInstr{}, err
		}
		return SomeInstr{Instr: michelson.Instr{Op: u.Op, N: n}, Input: hst, Output: rest}, nil

	case michelson.DUP:
		n := u.N
		if n == 0 {
			n = 1
		}
		if len(hst) < n {
			return SomeInstr{}, failedOnInstr(u.Op, hst, "DUP %d: stack too short", n)
		}
		item := hst[n-1]
		item.Var = u.Anno.Var
		return SomeInstr{Instr: michelson.Instr{Op: u.Op, N: n}, Input: hst, Output: hst.Push(item)}, nil

	case michelson.SWAP:
		rest, top2, err := pop(u.Op, hst, 2)
		if err != nil {
			return SomeInstr{}, err
		}
		out := rest.PushN(top2[1], top2[0])
		return SomeInstr{Instr: michelson.Instr{Op: u.Op}, Input: hst, Output: out}, nil

	case michelson.PUSH:
		if u.PushVal == nil {
			return SomeInstr{}, failedOnInstr(u.Op, hst, "PUSH requires a literal")
		}
		val, err := TypecheckValue(*u.PushVal, u.PushType)
		if err != nil {
			return SomeInstr{}, err
		}
		item := Item{Type: u.PushType, Notes: michelson.NoNotes, Var: u.Anno.Var}
		instr := michelson.Instr{Op: u.Op, PushType: u.PushType, PushVal: val}
		return SomeInstr{Instr: instr, Input: hst, Output: hst.Push(item)}, nil

	case michelson.UNIT:
		item := Item{Type: michelson.TUnit, Var: u.Anno.Var}
		return SomeInstr{Instr: michelson.Instr{Op: u.Op}, Input: hst, Output: hst.Push(item)}, nil

	case michelson.PAIR:
		return checkPair(u, hst)
	case michelson.UNPAIR:
		return checkUnpair(u, hst)
	case michelson.CAR:
		return checkCarCdr(u, hst, true)
	case michelson.CDR:
		return checkCarCdr(u, hst, false)

	case michelson.SOME:
		return checkSome(u, hst)
	case michelson.NONE:
		return checkNone(u, hst)
	case michelson.LEFT:
		return checkLeftRight(u, hst, true)
	case michelson.RIGHT:
		return checkLeftRight(u, hst, false)

	case michelson.NIL:
		item := Item{Type: michelson.TList(u.Type1), Var: u.Anno.Var}
		return SomeInstr{Instr: michelson.Instr{Op: u.Op, Type1: u.Type1}, Input: hst, Output: hst.Push(item)}, nil
	case michelson.CONS:
		return checkCons(u, hst)
	case michelson.EMPTY_SET:
		item := Item{Type: michelson.TSet(u.Type1.CT), Var: u.Anno.Var}
		return SomeInstr{Instr: michelson.Instr{Op: u.Op, Type1: u.Type1}, Input: hst, Output: hst.Push(item)}, nil
	case michelson.EMPTY_MAP:
		item := Item{Type: michelson.TMap(u.Type1.CT, u.Type2), Var: u.Anno.Var}
		return SomeInstr{Instr: michelson.Instr{Op: u.Op, Type1: u.Type1, Type2: u.Type2}, Input: hst, Output: hst.Push(item)}, nil
	case michelson.EMPTY_BIG_MAP:
		item := Item{Type: michelson.TBigMap(u.Type1.CT, u.Type2), Var: u.Anno.Var}
		return SomeInstr{Instr: michelson.Instr{Op: u.Op, Type1: u.Type1, Type2: u.Type2}, Input: hst, Output: hst.Push(item)}, nil

	case michelson.IF:
		return checkIf(c, u, hst)
	case michelson.IF_LEFT:
		return checkIfLeft(c, u, hst)
	case michelson.IF_NONE:
		return checkIfNone(c, u, hst)
	case michelson.IF_CONS:
		return checkIfCons(c, u, hst)
	case michelson.LOOP:
		return checkLoop(c, u, hst)
	case michelson.LOOP_LEFT:
		return checkLoopLeft(c, u, hst)
	case michelson.ITER:
		return checkIter(c, u, hst)
	case michelson.MAP:
		return checkMap(c, u, hst)
	case michelson.DIP:
		return checkDip(c, u, hst)
	case michelson.LAMBDA:
		return checkLambda(c, u, hst)
	case michelson.EXEC:
		return checkExec(u, hst)
	case michelson.FAILWITH:
		_, _, err := pop(u.Op, hst, 1)
		if err != nil {
			return SomeInstr{}, err
		}
		// FAILWITH never returns: it has no real output type, so it
		// unifies with whatever stack shape its context requires instead
		// of reporting a fabricated one.
		return SomeInstr{Instr: michelson.Instr{Op: u.Op}, Input: hst, Diverges: true}, nil

	case michelson.MEM, michelson.GET, michelson.UPDATE, michelson.SIZE, michelson.SLICE, michelson.CONCAT,
		michelson.ADD, michelson.SUB, michelson.MUL, michelson.EDIV, michelson.COMPARE:
		return checkPoly(u, hst)

	case michelson.NEG, michelson.ABS, michelson.NOT, michelson.EQ, michelson.NEQ,
		michelson.LT, michelson.GT, michelson.LE, michelson.GE:
		return checkUnaryArith(u, hst)

	case michelson.AND, michelson.OR, michelson.XOR:
		return checkBoolBinop(u, hst)

	case michelson.AMOUNT:
		return pushNullary(u, hst, michelson.Tc(michelson.CTMutez))
	case michelson.BALANCE:
		return pushNullary(u, hst, michelson.Tc(michelson.CTMutez))
	case michelson.NOW:
		return pushNullary(u, hst, michelson.Tc(michelson.CTTimestamp))
	case michelson.SENDER, michelson.SOURCE:
		return pushNullary(u, hst, michelson.Tc(michelson.CTAddress))
	case michelson.SELF:
		if !c.selfValid {
			return SomeInstr{}, failedOnInstr(u.Op, hst, "SELF is only valid in a contract's own code")
		}
		return pushNullary(u, hst, c.self)
	case michelson.ADDRESS:
		return checkAddress(u, hst)
	case michelson.CONTRACT:
		return checkContract(u, hst)
	case michelson.IMPLICIT_ACCOUNT:
		return checkImplicitAccount(u, hst)

	case michelson.TRANSFER_TOKENS:
		return checkTransferTokens(u, hst)
	case michelson.SET_DELEGATE:
		return checkSetDelegate(u, hst)
	case michelson.CREATE_CONTRACT:
		return checkCreateContract(u, hst)
	case michelson.CREATE_ACCOUNT:
		return checkCreateAccount(u, hst)

	case michelson.RENAME:
		if len(hst) == 0 {
			return SomeInstr{}, failedOnInstr(u.Op, hst, "RENAME on empty stack")
		}
		out := hst.Clone()
		out[0].Var = u.Anno.Var
		return SomeInstr{Instr: michelson.Instr{Op: u.Op}, Input: hst, Output: out}, nil

	case michelson.STACKTYPE, michelson.FN, michelson.PRINT, michelson.TEST_ASSERT:
		return checkExt(c, u, hst)

	default:
		return SomeInstr{}, failedOnInstr(u.Op, hst, "unknown or unsupported instruction")
	}
}

func pushNullary(u Untyped, hst HST, t michelson.T) (SomeInstr, error) {
	item := Item{Type: t, Var: u.Anno.Var}
	return SomeInstr{Instr: michelson.Instr{Op: u.Op}, Input: hst, Output: hst.Push(item)}, nil
}
