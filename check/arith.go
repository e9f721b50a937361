// Copyright (c) 2020-2021 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package check

import "blockwatch.cc/tzmorley/michelson"

// checkUnaryArith implements NEG/ABS/NOT/EQ/NEQ/LT/GT/LE/GE: NEG/ABS/NOT
// operate directly on the popped value, EQ/NEQ/LT/GT/LE/GE operate on the
// `int` COMPARE already pushed beneath them in well-formed Michelson
// (§4.4's "compare-then-test" idiom).
func checkUnaryArith(u Untyped, hst HST) (SomeInstr, error) {
	rest, top, err := pop(u.Op, hst, 1)
	if err != nil {
		return SomeInstr{}, err
	}
	x := top[0]
	var resultT michelson.T
	switch u.Op {
	case michelson.NEG:
		if x.Type.Kind != michelson.KindComparable || (x.Type.CT != michelson.CTInt && x.Type.CT != michelson.CTNat) {
			return SomeInstr{}, failedOnInstr(u.Op, hst, "NEG expects int or nat, got %s", x.Type)
		}
		resultT = michelson.Tc(michelson.CTInt)
	case michelson.ABS:
		if !x.Type.Equal(michelson.Tc(michelson.CTInt)) {
			return SomeInstr{}, failedOnInstr(u.Op, hst, "ABS expects int, got %s", x.Type)
		}
		resultT = michelson.Tc(michelson.CTNat)
	case michelson.NOT:
		switch {
		case x.Type.Equal(michelson.Tc(michelson.CTBool)):
			resultT = michelson.Tc(michelson.CTBool)
		case x.Type.Equal(michelson.Tc(michelson.CTInt)), x.Type.Equal(michelson.Tc(michelson.CTNat)):
			resultT = michelson.Tc(michelson.CTInt)
		default:
			return SomeInstr{}, failedOnInstr(u.Op, hst, "NOT expects bool, int or nat, got %s", x.Type)
		}
	case michelson.EQ, michelson.NEQ, michelson.LT, michelson.GT, michelson.LE, michelson.GE:
		if !x.Type.Equal(michelson.Tc(michelson.CTInt)) {
			return SomeInstr{}, failedOnInstr(u.Op, hst, "%s expects an int (the result of COMPARE), got %s", u.Op, x.Type)
		}
		resultT = michelson.Tc(michelson.CTBool)
	default:
		return SomeInstr{}, failedOnInstr(u.Op, hst, "unreachable: not a unary arith/logic op")
	}
	item := Item{Type: resultT}
	return SomeInstr{Instr: michelson.Instr{Op: u.Op}, Input: hst, Output: rest.Push(item)}, nil
}

// checkBoolBinop implements AND/OR/XOR, which overload onto (bool,bool),
// (nat,nat)->nat and, for AND only, (int,nat)->nat (int on top) as the
// "bit mask" idiom.
func checkBoolBinop(u Untyped, hst HST) (SomeInstr, error) {
	rest, top, err := pop(u.Op, hst, 2)
	if err != nil {
		return SomeInstr{}, err
	}
	a, b := top[0], top[1]
	boolT := michelson.Tc(michelson.CTBool)
	if a.Type.Equal(boolT) && b.Type.Equal(boolT) {
		item := Item{Type: boolT}
		return SomeInstr{Instr: michelson.Instr{Op: u.Op}, Input: hst, Output: rest.Push(item)}, nil
	}
	if u.Op == michelson.AND && a.Type.Equal(michelson.Tc(michelson.CTInt)) && b.Type.Equal(michelson.Tc(michelson.CTNat)) {
		item := Item{Type: michelson.Tc(michelson.CTNat)}
		return SomeInstr{Instr: michelson.Instr{Op: u.Op}, Input: hst, Output: rest.Push(item)}, nil
	}
	if (u.Op == michelson.AND || u.Op == michelson.OR || u.Op == michelson.XOR) &&
		a.Type.Equal(michelson.Tc(michelson.CTNat)) && b.Type.Equal(michelson.Tc(michelson.CTNat)) {
		item := Item{Type: michelson.Tc(michelson.CTNat)}
		return SomeInstr{Instr: michelson.Instr{Op: u.Op}, Input: hst, Output: rest.Push(item)}, nil
	}
	return SomeInstr{}, failedOnInstr(u.Op, hst, "%s does not apply to (%s, %s)", u.Op, a.Type, b.Type)
}
