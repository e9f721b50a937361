// Copyright (c) 2020-2021 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package check

import "blockwatch.cc/tzmorley/michelson"

// convergeHST requires a and b to carry the same type list (§4.4 "IF*/
// LOOP* require both branch outputs to be the same type list"), converges
// their annotations element-wise and keeps a variable annotation only
// where both branches agree.
func convergeHST(op michelson.OpCode, a, b HST) (HST, error) {
	if len(a) != len(b) {
		return nil, extWrap(extErr(ExtStkRestMismatch, "branch output stacks differ in length"))
	}
	out := make(HST, len(a))
	for i := range a {
		if !a[i].Type.Equal(b[i].Type) {
			return nil, extWrap(typeMismatch(i, "branch output type mismatch"))
		}
		notes, err := michelson.Converge(a[i].Notes, b[i].Notes)
		if err != nil {
			return nil, extWrap(err)
		}
		v := a[i].Var
		if a[i].Var != b[i].Var {
			v = ""
		}
		out[i] = Item{Type: a[i].Type, Notes: notes, Var: v}
	}
	return out, nil
}

// mergeBranchOutputs combines the two output HSTs of an IF*/LOOP* branch
// pair. A branch that unconditionally FAILWITHs carries no real output
// type (SomeInstr.Diverges), so it unifies with whatever the other branch
// produces rather than being compared structurally against it. If both
// branches diverge, the instruction itself diverges and carries no output.
func mergeBranchOutputs(op michelson.OpCode, a, b SomeInstr) (HST, bool, error) {
	switch {
	case a.Diverges && b.Diverges:
		return nil, true, nil
	case a.Diverges:
		return b.Output, false, nil
	case b.Diverges:
		return a.Output, false, nil
	default:
		out, err := convergeHST(op, a.Output, b.Output)
		return out, false, err
	}
}

func body(u *Untyped) []Untyped {
	if u == nil {
		return nil
	}
	if u.Op == "SEQ" {
		return u.Seq
	}
	return []Untyped{*u}
}

func checkIf(c ctx, u Untyped, hst HST) (SomeInstr, error) {
	rest, top, err := pop(u.Op, hst, 1)
	if err != nil {
		return SomeInstr{}, err
	}
	if !top[0].Type.Equal(michelson.Tc(michelson.CTBool)) {
		return SomeInstr{}, failedOnInstr(u.Op, hst, "IF expects bool on top of stack")
	}
	trueS, err := typecheckBody(c, body(u.BranchTrue), rest)
	if err != nil {
		return SomeInstr{}, err
	}
	falseS, err := typecheckBody(c, body(u.BranchFalse), rest)
	if err != nil {
		return SomeInstr{}, err
	}
	out, diverges, err := mergeBranchOutputs(u.Op, trueS, falseS)
	if err != nil {
		return SomeInstr{}, err
	}
	instr := michelson.Instr{Op: u.Op, BranchTrue: &trueS.Instr, BranchFalse: &falseS.Instr}
	return SomeInstr{Instr: instr, Input: hst, Output: out, Diverges: diverges}, nil
}

func checkIfLeft(c ctx, u Untyped, hst HST) (SomeInstr, error) {
	rest, top, err := pop(u.Op, hst, 1)
	if err != nil {
		return SomeInstr{}, err
	}
	orT := top[0].Type
	if orT.Kind != michelson.KindOr {
		return SomeInstr{}, failedOnInstr(u.Op, hst, "IF_LEFT expects `or`, got %s", orT)
	}
	leftN, rightN, leftVar, rightVar := michelson.DeriveOrSub(top[0].Notes, top[0].Var)
	leftIn := rest.Push(Item{Type: orT.Left(), Notes: leftN, Var: leftVar})
	rightIn := rest.Push(Item{Type: orT.Right(), Notes: rightN, Var: rightVar})

	leftS, err := typecheckBody(c, body(u.BranchTrue), leftIn)
	if err != nil {
		return SomeInstr{}, err
	}
	rightS, err := typecheckBody(c, body(u.BranchFalse), rightIn)
	if err != nil {
		return SomeInstr{}, err
	}
	out, diverges, err := mergeBranchOutputs(u.Op, leftS, rightS)
	if err != nil {
		return SomeInstr{}, err
	}
	instr := michelson.Instr{Op: u.Op, BranchTrue: &leftS.Instr, BranchFalse: &rightS.Instr}
	return SomeInstr{Instr: instr, Input: hst, Output: out, Diverges: diverges}, nil
}

func checkIfNone(c ctx, u Untyped, hst HST) (SomeInstr, error) {
	rest, top, err := pop(u.Op, hst, 1)
	if err != nil {
		return SomeInstr{}, err
	}
	optT := top[0].Type
	if optT.Kind != michelson.KindOption {
		return SomeInstr{}, failedOnInstr(u.Op, hst, "IF_NONE expects option, got %s", optT)
	}
	innerN, innerVar := michelson.DeriveOptionSub(top[0].Notes, top[0].Var)
	someIn := rest.Push(Item{Type: optT.Elem(), Notes: innerN, Var: innerVar})

	noneS, err := typecheckBody(c, body(u.BranchTrue), rest)
	if err != nil {
		return SomeInstr{}, err
	}
	someS, err := typecheckBody(c, body(u.BranchFalse), someIn)
	if err != nil {
		return SomeInstr{}, err
	}
	out, diverges, err := mergeBranchOutputs(u.Op, noneS, someS)
	if err != nil {
		return SomeInstr{}, err
	}
	instr := michelson.Instr{Op: u.Op, BranchTrue: &noneS.Instr, BranchFalse: &someS.Instr}
	return SomeInstr{Instr: instr, Input: hst, Output: out, Diverges: diverges}, nil
}

func checkIfCons(c ctx, u Untyped, hst HST) (SomeInstr, error) {
	rest, top, err := pop(u.Op, hst, 1)
	if err != nil {
		return SomeInstr{}, err
	}
	listT := top[0].Type
	if listT.Kind != michelson.KindList {
		return SomeInstr{}, failedOnInstr(u.Op, hst, "IF_CONS expects list, got %s", listT)
	}
	consIn := rest.PushN(
		Item{Type: listT.Elem(), Var: michelson.DeriveVar("hd", top[0].Var)},
		Item{Type: listT, Var: michelson.DeriveVar("tl", top[0].Var)},
	)
	consS, err := typecheckBody(c, body(u.BranchTrue), consIn)
	if err != nil {
		return SomeInstr{}, err
	}
	nilS, err := typecheckBody(c, body(u.BranchFalse), rest)
	if err != nil {
		return SomeInstr{}, err
	}
	out, diverges, err := mergeBranchOutputs(u.Op, consS, nilS)
	if err != nil {
		return SomeInstr{}, err
	}
	instr := michelson.Instr{Op: u.Op, BranchTrue: &consS.Instr, BranchFalse: &nilS.Instr}
	return SomeInstr{Instr: instr, Input: hst, Output: out, Diverges: diverges}, nil
}

func checkLoop(c ctx, u Untyped, hst HST) (SomeInstr, error) {
	rest, top, err := pop(u.Op, hst, 1)
	if err != nil {
		return SomeInstr{}, err
	}
	if !top[0].Type.Equal(michelson.Tc(michelson.CTBool)) {
		return SomeInstr{}, failedOnInstr(u.Op, hst, "LOOP expects bool on top of stack")
	}
	bodyS, err := typecheckBody(c, body(u.Body), rest)
	if err != nil {
		return SomeInstr{}, err
	}
	if !bodyS.Diverges {
		if _, err := convergeHST(u.Op, hst, bodyS.Output); err != nil {
			return SomeInstr{}, err
		}
	}
	instr := michelson.Instr{Op: u.Op, Body: &bodyS.Instr}
	return SomeInstr{Instr: instr, Input: hst, Output: rest}, nil
}

func checkLoopLeft(c ctx, u Untyped, hst HST) (SomeInstr, error) {
	rest, top, err := pop(u.Op, hst, 1)
	if err != nil {
		return SomeInstr{}, err
	}
	orT := top[0].Type
	if orT.Kind != michelson.KindOr {
		return SomeInstr{}, failedOnInstr(u.Op, hst, "LOOP_LEFT expects `or`, got %s", orT)
	}
	leftN, rightN, leftVar, rightVar := michelson.DeriveOrSub(top[0].Notes, top[0].Var)
	bodyIn := rest.Push(Item{Type: orT.Left(), Notes: leftN, Var: leftVar})
	bodyS, err := typecheckBody(c, body(u.Body), bodyIn)
	if err != nil {
		return SomeInstr{}, err
	}
	if !bodyS.Diverges {
		if _, err := convergeHST(u.Op, hst, bodyS.Output); err != nil {
			return SomeInstr{}, err
		}
	}
	out := rest.Push(Item{Type: orT.Right(), Notes: rightN, Var: rightVar})
	instr := michelson.Instr{Op: u.Op, Body: &bodyS.Instr}
	return SomeInstr{Instr: instr, Input: hst, Output: out}, nil
}

func checkIter(c ctx, u Untyped, hst HST) (SomeInstr, error) {
	rest, top, err := pop(u.Op, hst, 1)
	if err != nil {
		return SomeInstr{}, err
	}
	var elemT michelson.T
	switch top[0].Type.Kind {
	case michelson.KindList, michelson.KindSet:
		elemT = top[0].Type.Elem()
	case michelson.KindMap, michelson.KindBigMap:
		elemT = michelson.TPair(michelson.Tc(top[0].Type.KeyType()), top[0].Type.ValueType())
	default:
		return SomeInstr{}, failedOnInstr(u.Op, hst, "ITER expects list/set/map, got %s", top[0].Type)
	}
	bodyIn := rest.Push(Item{Type: elemT, Var: michelson.DeriveVar("elt", top[0].Var)})
	bodyS, err := typecheckBody(c, body(u.Body), bodyIn)
	if err != nil {
		return SomeInstr{}, err
	}
	if !bodyS.Diverges {
		if _, err := convergeHST(u.Op, rest, bodyS.Output); err != nil {
			return SomeInstr{}, err
		}
	}
	instr := michelson.Instr{Op: u.Op, Body: &bodyS.Instr}
	return SomeInstr{Instr: instr, Input: hst, Output: rest}, nil
}

func checkMap(c ctx, u Untyped, hst HST) (SomeInstr, error) {
	rest, top, err := pop(u.Op, hst, 1)
	if err != nil {
		return SomeInstr{}, err
	}
	var elemT michelson.T
	switch top[0].Type.Kind {
	case michelson.KindList:
		elemT = top[0].Type.Elem()
	case michelson.KindMap, michelson.KindBigMap:
		elemT = michelson.TPair(michelson.Tc(top[0].Type.KeyType()), top[0].Type.ValueType())
	default:
		return SomeInstr{}, failedOnInstr(u.Op, hst, "MAP expects list/map, got %s", top[0].Type)
	}
	bodyIn := rest.Push(Item{Type: elemT, Var: michelson.DeriveVar("elt", top[0].Var)})
	bodyS, err := typecheckBody(c, body(u.Body), bodyIn)
	if err != nil {
		return SomeInstr{}, err
	}
	if len(bodyS.Output) != len(rest)+1 {
		return SomeInstr{}, failedOnInstr(u.Op, hst, "MAP body must push exactly one result value")
	}
	resultT := bodyS.Output[0].Type
	var outT michelson.T
	switch top[0].Type.Kind {
	case michelson.KindList:
		outT = michelson.TList(resultT)
	default:
		outT = michelson.TMap(top[0].Type.KeyType(), resultT)
	}
	instr := michelson.Instr{Op: u.Op, Body: &bodyS.Instr}
	return SomeInstr{Instr: instr, Input: hst, Output: rest.Push(Item{Type: outT})}, nil
}

func checkDip(c ctx, u Untyped, hst HST) (SomeInstr, error) {
	n := u.N
	if n == 0 {
		n = 1
	}
	rest, protected, err := pop(u.Op, hst, n)
	if err != nil {
		return SomeInstr{}, err
	}
	bodyS, err := typecheckBody(c, body(u.Body), rest)
	if err != nil {
		return SomeInstr{}, err
	}
	out := make(HST, 0, len(protected)+len(bodyS.Output))
	out = append(out, protected...)
	out = append(out, bodyS.Output...)
	instr := michelson.Instr{Op: u.Op, N: n, Body: &bodyS.Instr}
	return SomeInstr{Instr: instr, Input: hst, Output: out, Diverges: bodyS.Diverges}, nil
}

func checkLambda(c ctx, u Untyped, hst HST) (SomeInstr, error) {
	in := HST{{Type: u.Type1, Notes: michelson.NoNotes}}
	bodyC := ctx{} // SELF is not valid inside a lambda literal
	bodyS, err := typecheckBody(bodyC, body(u.Body), in)
	if err != nil {
		return SomeInstr{}, err
	}
	if len(bodyS.Output) != 1 || !bodyS.Output[0].Type.Equal(u.Type2) {
		return SomeInstr{}, failedOnInstr(u.Op, hst, "LAMBDA body output does not match declared return type %s", u.Type2)
	}
	item := Item{Type: michelson.TLambda(u.Type1, u.Type2), Var: u.Anno.Var}
	instr := michelson.Instr{Op: u.Op, Type1: u.Type1, Type2: u.Type2, Body: &bodyS.Instr}
	return SomeInstr{Instr: instr, Input: hst, Output: hst.Push(item)}, nil
}

func checkExec(u Untyped, hst HST) (SomeInstr, error) {
	rest, top, err := pop(u.Op, hst, 2)
	if err != nil {
		return SomeInstr{}, err
	}
	lamT := top[1].Type
	if lamT.Kind != michelson.KindLambda {
		return SomeInstr{}, failedOnInstr(u.Op, hst, "EXEC expects a lambda, got %s", lamT)
	}
	if !top[0].Type.Equal(lamT.Left()) {
		return SomeInstr{}, failedOnInstr(u.Op, hst, "EXEC argument type %s does not match lambda input %s", top[0].Type, lamT.Left())
	}
	item := Item{Type: lamT.Right()}
	return SomeInstr{Instr: michelson.Instr{Op: u.Op}, Input: hst, Output: rest.Push(item)}, nil
}
