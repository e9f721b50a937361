// Copyright (c) 2020-2021 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package check

import "blockwatch.cc/tzmorley/michelson"

// checkPair implements PAIR %@ %@ (§4.4 "PAIR/CAR/CDR/LEFT/RIGHT/SOME/
// NONE must invoke the derivation rules of §4.2 and preserve field names
// through the projection").
func checkPair(u Untyped, hst HST) (SomeInstr, error) {
	rest, top, err := pop(u.Op, hst, 2)
	if err != nil {
		return SomeInstr{}, err
	}
	p, q := top[0], top[1]
	resultVar, pField, qField := michelson.DerivePairAnnotations(p.Notes.Field, q.Notes.Field, p.Var, q.Var)
	if u.Anno.Var != "" {
		resultVar = u.Anno.Var
	}
	if !michelson.IsDefault(u.Anno.Field) {
		// a user-supplied field annotation on the pair itself is stored
		// in the result notes; it does not override the components.
	}
	pNotes := p.Notes
	pNotes.Field = firstNonEmpty(pField, p.Notes.Field)
	qNotes := q.Notes
	qNotes.Field = firstNonEmpty(qField, q.Notes.Field)
	resultNotes := michelson.Concrete(u.Anno.Field, u.Anno.Type, "", pNotes, qNotes)

	item := Item{Type: michelson.TPair(p.Type, q.Type), Notes: resultNotes, Var: resultVar}
	instr := michelson.Instr{Op: u.Op, ResultNotes: resultNotes}
	return SomeInstr{Instr: instr, Input: hst, Output: rest.Push(item)}, nil
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// checkUnpair is PAIR's inverse: pop a pair, push its two components back
// with their stored field annotations restored as variable annotations.
func checkUnpair(u Untyped, hst HST) (SomeInstr, error) {
	rest, top, err := pop(u.Op, hst, 1)
	if err != nil {
		return SomeInstr{}, err
	}
	pairT := top[0].Type
	if pairT.Kind != michelson.KindPair {
		return SomeInstr{}, failedOnInstr(u.Op, hst, "UNPAIR expects a pair, got %s", pairT)
	}
	carNotes, cdrNotes := childNotes(top[0].Notes, 0), childNotes(top[0].Notes, 1)
	carVar := michelson.DeriveCarCdrVar("%", carNotes.Field, top[0].Var)
	cdrVar := michelson.DeriveCarCdrVar("%", cdrNotes.Field, top[0].Var)
	out := rest.PushN(
		Item{Type: pairT.Left(), Notes: carNotes, Var: carVar},
		Item{Type: pairT.Right(), Notes: cdrNotes, Var: cdrVar},
	)
	return SomeInstr{Instr: michelson.Instr{Op: u.Op}, Input: hst, Output: out}, nil
}

func childNotes(n michelson.Notes, i int) michelson.Notes {
	if n.Wildcard || i >= len(n.Args) {
		return michelson.NoNotes
	}
	return n.Args[i]
}

func checkCarCdr(u Untyped, hst HST, isCar bool) (SomeInstr, error) {
	rest, top, err := pop(u.Op, hst, 1)
	if err != nil {
		return SomeInstr{}, err
	}
	pairT := top[0].Type
	if pairT.Kind != michelson.KindPair {
		return SomeInstr{}, failedOnInstr(u.Op, hst, "%s expects a pair, got %s", u.Op, pairT)
	}
	idx := 1
	var childT michelson.T
	if isCar {
		idx, childT = 0, pairT.Left()
	} else {
		childT = pairT.Right()
	}
	cn := childNotes(top[0].Notes, idx)
	userVar := u.Anno.Var
	if userVar == "" {
		userVar = "%"
	}
	resultVar := michelson.DeriveCarCdrVar(userVar, cn.Field, top[0].Var)
	item := Item{Type: childT, Notes: cn, Var: resultVar}
	return SomeInstr{Instr: michelson.Instr{Op: u.Op}, Input: hst, Output: rest.Push(item)}, nil
}

func checkSome(u Untyped, hst HST) (SomeInstr, error) {
	rest, top, err := pop(u.Op, hst, 1)
	if err != nil {
		return SomeInstr{}, err
	}
	innerVar := michelson.DeriveVar("some", top[0].Var)
	outerVar := u.Anno.Var
	if outerVar == "" {
		outerVar = innerVar
	}
	notes := michelson.Concrete(u.Anno.Field, u.Anno.Type, "", top[0].Notes)
	item := Item{Type: michelson.TOption(top[0].Type), Notes: notes, Var: outerVar}
	return SomeInstr{Instr: michelson.Instr{Op: u.Op, ResultNotes: notes}, Input: hst, Output: rest.Push(item)}, nil
}

func checkNone(u Untyped, hst HST) (SomeInstr, error) {
	notes := michelson.Concrete(u.Anno.Field, u.Anno.Type, "", michelson.NoNotes)
	item := Item{Type: michelson.TOption(u.Type1), Notes: notes, Var: u.Anno.Var}
	return SomeInstr{Instr: michelson.Instr{Op: u.Op, Type1: u.Type1, ResultNotes: notes}, Input: hst, Output: hst.Push(item)}, nil
}

func checkLeftRight(u Untyped, hst HST, isLeft bool) (SomeInstr, error) {
	rest, top, err := pop(u.Op, hst, 1)
	if err != nil {
		return SomeInstr{}, err
	}
	var leftT, rightT michelson.T
	var sub michelson.Notes
	if isLeft {
		leftT, rightT = top[0].Type, u.Type1
		sub = michelson.Concrete("", "", "", top[0].Notes, michelson.NoNotes)
	} else {
		leftT, rightT = u.Type1, top[0].Type
		sub = michelson.Concrete("", "", "", michelson.NoNotes, top[0].Notes)
	}
	notes := michelson.Concrete(u.Anno.Field, u.Anno.Type, "", sub.Args[0], sub.Args[1])
	outerVar := u.Anno.Var
	if outerVar == "" {
		suffix := "left"
		if !isLeft {
			suffix = "right"
		}
		outerVar = michelson.DeriveVar(suffix, top[0].Var)
	}
	item := Item{Type: michelson.TOr(leftT, rightT), Notes: notes, Var: outerVar}
	return SomeInstr{Instr: michelson.Instr{Op: u.Op, Type1: u.Type1, ResultNotes: notes}, Input: hst, Output: rest.Push(item)}, nil
}

func checkCons(u Untyped, hst HST) (SomeInstr, error) {
	rest, top, err := pop(u.Op, hst, 2)
	if err != nil {
		return SomeInstr{}, err
	}
	listT := top[1].Type
	if listT.Kind != michelson.KindList {
		return SomeInstr{}, failedOnInstr(u.Op, hst, "CONS expects a list on top of stack, got %s", listT)
	}
	if !top[0].Type.Equal(listT.Elem()) {
		return SomeInstr{}, failedOnInstr(u.Op, hst, "CONS element type %s does not match list element type %s", top[0].Type, listT.Elem())
	}
	item := Item{Type: listT, Var: u.Anno.Var}
	return SomeInstr{Instr: michelson.Instr{Op: u.Op}, Input: hst, Output: rest.Push(item)}, nil
}
