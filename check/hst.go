// Copyright (c) 2020-2021 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

// Package check implements the bidirectional Michelson type checker (C4)
// and the Morley extension-instruction checker (C5): untyped instruction
// trees in, typed michelson.Instr trees out, with full stack-discipline
// enforcement and annotation derivation along the way.
package check

import "blockwatch.cc/tzmorley/michelson"

// Item is one hypothetical-stack-type slot: a type, its parallel
// annotation tree, and the variable annotation bound to that stack
// position (§4.4 "HST is a vector of triples (Sing<t>, Notes<t>,
// VarAnn)"). Since Go erases the type index, Type plays the role the
// source's Sing<t> singleton plays: a runtime witness of which t this
// slot holds.
type Item struct {
	Type  michelson.T
	Notes michelson.Notes
	Var   michelson.VarAnno
}

// HST is the hypothetical stack type: top of stack is index 0.
type HST []Item

// Clone returns an independent copy (HSTs are conceptually immutable;
// every checker function below returns a new one rather than mutating in
// place).
func (h HST) Clone() HST {
	out := make(HST, len(h))
	copy(out, h)
	return out
}

// Push returns a new HST with item prepended (pushed) on top.
func (h HST) Push(item Item) HST {
	out := make(HST, 0, len(h)+1)
	out = append(out, item)
	out = append(out, h...)
	return out
}

// PushN prepends items in the given order, so items[0] ends on top.
func (h HST) PushN(items ...Item) HST {
	out := h
	for i := len(items) - 1; i >= 0; i-- {
		out = out.Push(items[i])
	}
	return out
}

// SomeInstr is the checker's existential return value: an index-erased
// Instr paired with the two HSTs (supplied input, derived output) that
// must line up with it (Design Notes §9). Every exported checking
// function returns one of these (or an error) rather than a bare Instr,
// so the input/output correspondence is never silently lost.
type SomeInstr struct {
	Instr  michelson.Instr
	Input  HST
	Output HST

	// Diverges marks an instruction whose every execution path ends in
	// FAILWITH: Output carries no meaningful type in that case, since
	// control never actually reaches it. Branch convergence (IF*/LOOP*)
	// and FN's output check both treat a diverging side as unifying with
	// whatever the other side requires, per the usual Michelson rule that
	// an always-failing branch is compatible with any stack type.
	Diverges bool
}
