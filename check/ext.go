// Copyright (c) 2020-2021 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package check

import "blockwatch.cc/tzmorley/michelson"

// checkExt dispatches the four Morley extension meta-instructions (C5):
// STACKTYPE and FN match a user-supplied pattern against the live HST and
// bind named pattern variables to the concrete types they find; PRINT
// validates that every stack reference it prints exists; TEST_ASSERT
// requires its body to leave a single bool on top.
func checkExt(c ctx, u Untyped, hst HST) (SomeInstr, error) {
	if u.Ext == nil {
		return SomeInstr{}, extWrap(extErr(ExtTypeMismatch, "missing extension payload for %s", u.Op))
	}
	switch u.Op {
	case michelson.STACKTYPE:
		return checkStackType(u, hst)
	case michelson.FN:
		return checkFn(c, u, hst)
	case michelson.PRINT:
		return checkPrint(u, hst)
	case michelson.TEST_ASSERT:
		return checkTestAssert(c, u, hst)
	default:
		return SomeInstr{}, extWrap(extErr(ExtTypeMismatch, "unreachable: not an extension instruction"))
	}
}

// bindings collects the concrete type/notes a pattern variable resolved
// to the first time it is seen; every later occurrence (in the same
// pattern, or across STACKTYPE scopes) must unify with it via Converge.
type bindings map[string]Item

func matchPattern(op michelson.OpCode, pattern UntypedPattern, hst HST, binds bindings) error {
	if pattern.Rest == michelson.RestNone && len(hst) != len(pattern.Items) {
		return extWrap(extErr(ExtStkRestMismatch, "%s: pattern expects exactly %d stack item(s), found %d", op, len(pattern.Items), len(hst)))
	}
	if pattern.Rest == michelson.RestEmpty && len(hst) != len(pattern.Items) {
		return extWrap(extErr(ExtStkRestMismatch, "%s: StkEmpty requires the stack to end exactly at the pattern", op))
	}
	if len(hst) < len(pattern.Items) {
		return extWrap(extErr(ExtStkRestMismatch, "%s: stack shorter than pattern", op))
	}
	for i, pi := range pattern.Items {
		slot := hst[i]
		if pi.Var == "" {
			if !slot.Type.Equal(pi.Conc) {
				return extWrap(typeMismatch(i, "%s: expected %s at position %d, got %s", op, pi.Conc, i, slot.Type))
			}
			continue
		}
		prior, seen := binds[pi.Var]
		if !seen {
			binds[pi.Var] = slot
			continue
		}
		if !prior.Type.Equal(slot.Type) {
			return extWrap(&ExtError{Kind: ExtTyVarMismatch, Msg: "pattern variable $" + pi.Var + " bound to incompatible types"})
		}
		if _, err := michelson.Converge(prior.Notes, slot.Notes); err != nil {
			return extWrap(&ExtError{Kind: ExtAnnError, Msg: err.Error()})
		}
	}
	return nil
}

func checkStackType(u Untyped, hst HST) (SomeInstr, error) {
	if u.Ext.Pattern == nil {
		return SomeInstr{}, extWrap(extErr(ExtTypeMismatch, "STACKTYPE requires a pattern"))
	}
	binds := bindings{}
	if err := matchPattern(u.Op, *u.Ext.Pattern, hst, binds); err != nil {
		return SomeInstr{}, err
	}
	instr := michelson.Instr{Op: u.Op, Ext: &michelson.ExtInstr{Pattern: toTypedPattern(*u.Ext.Pattern)}}
	return SomeInstr{Instr: instr, Input: hst, Output: hst}, nil
}

func toTypedPattern(p UntypedPattern) *michelson.StackTypePattern {
	items := make([]michelson.PatternItem, len(p.Items))
	for i, it := range p.Items {
		items[i] = michelson.PatternItem{Var: it.Var, Conc: it.Conc, Notes: it.Anno.notes()}
	}
	return &michelson.StackTypePattern{Items: items, Rest: p.Rest}
}

// checkFn type-checks a named stack-pattern frame (§4.5): the pattern's
// `in` side reconstructs a concrete HST for the body (quantified
// variables are opaque at this level, since Go erases them the same way
// it erases every other type index -- a quantified slot only needs to
// unify with itself across in/out, which Converge already enforces), the
// body is checked against it, and the body's output must match `out`.
func checkFn(c ctx, u Untyped, hst HST) (SomeInstr, error) {
	if u.Ext.FnPattern == nil || u.Ext.FnBody == nil {
		return SomeInstr{}, extWrap(extErr(ExtTypeMismatch, "FN requires a pattern and a body"))
	}
	binds := bindings{}
	if err := matchPattern(u.Op, u.Ext.FnPattern.In, hst, binds); err != nil {
		return SomeInstr{}, err
	}
	bodyIn, err := reifyPattern(u.Op, u.Ext.FnPattern.In, hst, binds)
	if err != nil {
		return SomeInstr{}, err
	}
	bodyS, err := typecheckOne(c, *u.Ext.FnBody, bodyIn)
	if err != nil {
		return SomeInstr{}, err
	}
	// A body that unconditionally FAILWITHs has no real output to match
	// against `out` -- it never produces one.
	if !bodyS.Diverges {
		if err := matchPattern(u.Op, u.Ext.FnPattern.Out, bodyS.Output, binds); err != nil {
			return SomeInstr{}, err
		}
	}
	fnPattern := &michelson.FnPattern{
		Quantified: append([]string(nil), u.Ext.FnPattern.Quantified...),
		In:         *toTypedPattern(u.Ext.FnPattern.In),
		Out:        *toTypedPattern(u.Ext.FnPattern.Out),
	}
	instr := michelson.Instr{Op: u.Op, Ext: &michelson.ExtInstr{
		FnName: u.Ext.FnName, FnPattern: fnPattern, FnBody: &bodyS.Instr,
	}}
	return SomeInstr{Instr: instr, Input: hst, Output: bodyS.Output, Diverges: bodyS.Diverges}, nil
}

// reifyPattern rebuilds a concrete HST of the pattern's length from hst,
// using hst's own slots wherever the pattern only names a variable (the
// quantified/named slots are opaque to the checker, so the safest
// concrete stand-in is whatever is already sitting there).
func reifyPattern(op michelson.OpCode, pattern UntypedPattern, hst HST, binds bindings) (HST, error) {
	out := make(HST, len(pattern.Items))
	for i, pi := range pattern.Items {
		if pi.Var == "" {
			out[i] = Item{Type: pi.Conc, Notes: pi.Anno.notes()}
			continue
		}
		b, ok := binds[pi.Var]
		if !ok {
			return nil, extWrap(&ExtError{Kind: ExtVarError, Msg: "FN: pattern variable $" + pi.Var + " is unbound"})
		}
		out[i] = b
	}
	if pattern.Rest == michelson.RestOpen {
		out = append(out, hst[len(pattern.Items):]...)
	}
	return out, nil
}

// checkPrint validates every stack reference (the Morley %stack[i]
// syntax) names a position that actually exists; it never changes the
// stack.
func checkPrint(u Untyped, hst HST) (SomeInstr, error) {
	for _, ref := range u.Ext.PrintRefs {
		if ref < 0 || ref >= len(hst) {
			return SomeInstr{}, extWrap(invalidStackRef(ref, len(hst)))
		}
	}
	instr := michelson.Instr{Op: u.Op, Ext: &michelson.ExtInstr{PrintRefs: append([]int(nil), u.Ext.PrintRefs...)}}
	return SomeInstr{Instr: instr, Input: hst, Output: hst}, nil
}

// checkTestAssert requires the body to be well-typed against the current
// stack and to leave exactly a bool on top (§4.5's "TEST_ASSERT(body)
// requires the body, type-checked as an ordinary instruction sequence
// against the current HST, to produce a stack whose top is Tc bool").
func checkTestAssert(c ctx, u Untyped, hst HST) (SomeInstr, error) {
	if u.Ext.AssertBody == nil {
		return SomeInstr{}, extWrap(extErr(ExtTypeMismatch, "TEST_ASSERT requires a body"))
	}
	bodyS, err := typecheckOne(c, *u.Ext.AssertBody, hst)
	if err != nil {
		return SomeInstr{}, extWrap(&ExtError{Kind: ExtTestAssertError, Msg: err.Error()})
	}
	if len(bodyS.Output) == 0 || !bodyS.Output[0].Type.Equal(michelson.Tc(michelson.CTBool)) {
		return SomeInstr{}, extWrap(&ExtError{Kind: ExtTestAssertError, Msg: "TEST_ASSERT body must leave a bool on top of the stack"})
	}
	instr := michelson.Instr{Op: u.Op, Ext: &michelson.ExtInstr{
		AssertName: u.Ext.AssertName, AssertComment: u.Ext.AssertComment, AssertBody: &bodyS.Instr,
	}}
	return SomeInstr{Instr: instr, Input: hst, Output: hst}, nil
}
