// Copyright (c) 2020-2021 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package check

import "blockwatch.cc/tzmorley/michelson"

// checkPoly resolves MEM/GET/UPDATE/SIZE/SLICE/CONCAT/ADD/SUB/MUL/EDIV/
// COMPARE against the concrete input type combination it finds on the
// stack and attaches the matching michelson.PolyInfo to the typed node
// (Design Notes §9: "model each family as a capability record keyed on
// the input type combination" rather than open dispatch).
func checkPoly(u Untyped, hst HST) (SomeInstr, error) {
	switch u.Op {
	case michelson.MEM:
		return checkMem(u, hst)
	case michelson.GET:
		return checkGet(u, hst)
	case michelson.UPDATE:
		return checkUpdate(u, hst)
	case michelson.SIZE:
		return checkSize(u, hst)
	case michelson.SLICE:
		return checkSlice(u, hst)
	case michelson.CONCAT:
		return checkConcat(u, hst)
	case michelson.ADD:
		return checkArith(u, hst, true)
	case michelson.SUB:
		return checkArith(u, hst, false)
	case michelson.MUL:
		return checkMul(u, hst)
	case michelson.EDIV:
		return checkEDiv(u, hst)
	case michelson.COMPARE:
		return checkCompare(u, hst)
	default:
		return SomeInstr{}, failedOnInstr(u.Op, hst, "unreachable: not a polymorphic primitive")
	}
}

func checkMem(u Untyped, hst HST) (SomeInstr, error) {
	rest, top, err := pop(u.Op, hst, 2)
	if err != nil {
		return SomeInstr{}, err
	}
	key, container := top[0], top[1]
	var kind michelson.PolyKind
	switch container.Type.Kind {
	case michelson.KindSet:
		kind = michelson.PolyMemSet
	case michelson.KindMap:
		kind = michelson.PolyMemMap
	case michelson.KindBigMap:
		kind = michelson.PolyMemBigMap
	default:
		return SomeInstr{}, failedOnInstr(u.Op, hst, "MEM expects set/map/big_map, got %s", container.Type)
	}
	if !key.Type.Equal(michelson.Tc(container.Type.KeyType())) {
		return SomeInstr{}, failedOnInstr(u.Op, hst, "MEM key type %s does not match container key type", key.Type)
	}
	poly := michelson.PolyInfo{Kind: kind, KeyType: container.Type.KeyType()}
	item := Item{Type: michelson.Tc(michelson.CTBool)}
	instr := michelson.Instr{Op: u.Op, Poly: poly}
	return SomeInstr{Instr: instr, Input: hst, Output: rest.Push(item)}, nil
}

func checkGet(u Untyped, hst HST) (SomeInstr, error) {
	rest, top, err := pop(u.Op, hst, 2)
	if err != nil {
		return SomeInstr{}, err
	}
	key, container := top[0], top[1]
	var kind michelson.PolyKind
	switch container.Type.Kind {
	case michelson.KindMap:
		kind = michelson.PolyGetMap
	case michelson.KindBigMap:
		kind = michelson.PolyGetBigMap
	default:
		return SomeInstr{}, failedOnInstr(u.Op, hst, "GET expects map/big_map, got %s", container.Type)
	}
	if !key.Type.Equal(michelson.Tc(container.Type.KeyType())) {
		return SomeInstr{}, failedOnInstr(u.Op, hst, "GET key type %s does not match container key type", key.Type)
	}
	valT := container.Type.ValueType()
	poly := michelson.PolyInfo{Kind: kind, KeyType: container.Type.KeyType(), ValueType: valT}
	item := Item{Type: michelson.TOption(valT)}
	instr := michelson.Instr{Op: u.Op, Poly: poly}
	return SomeInstr{Instr: instr, Input: hst, Output: rest.Push(item)}, nil
}

func checkUpdate(u Untyped, hst HST) (SomeInstr, error) {
	rest, top, err := pop(u.Op, hst, 3)
	if err != nil {
		return SomeInstr{}, err
	}
	key, val, container := top[0], top[1], top[2]
	if !key.Type.Equal(michelson.Tc(container.Type.KeyType())) {
		return SomeInstr{}, failedOnInstr(u.Op, hst, "UPDATE key type %s does not match container key type", key.Type)
	}
	var kind michelson.PolyKind
	switch container.Type.Kind {
	case michelson.KindSet:
		kind = michelson.PolyUpdateSet
		if !val.Type.Equal(michelson.Tc(michelson.CTBool)) {
			return SomeInstr{}, failedOnInstr(u.Op, hst, "UPDATE on a set expects a bool presence flag")
		}
	case michelson.KindMap:
		kind = michelson.PolyUpdateMap
		if !val.Type.Equal(michelson.TOption(container.Type.ValueType())) {
			return SomeInstr{}, failedOnInstr(u.Op, hst, "UPDATE value type does not match map's option(value)")
		}
	case michelson.KindBigMap:
		kind = michelson.PolyUpdateBigMap
		if !val.Type.Equal(michelson.TOption(container.Type.ValueType())) {
			return SomeInstr{}, failedOnInstr(u.Op, hst, "UPDATE value type does not match big_map's option(value)")
		}
	default:
		return SomeInstr{}, failedOnInstr(u.Op, hst, "UPDATE expects set/map/big_map, got %s", container.Type)
	}
	poly := michelson.PolyInfo{Kind: kind, KeyType: container.Type.KeyType(), ResultT: container.Type}
	item := Item{Type: container.Type}
	instr := michelson.Instr{Op: u.Op, Poly: poly}
	return SomeInstr{Instr: instr, Input: hst, Output: rest.Push(item)}, nil
}

func checkSize(u Untyped, hst HST) (SomeInstr, error) {
	rest, top, err := pop(u.Op, hst, 1)
	if err != nil {
		return SomeInstr{}, err
	}
	var kind michelson.PolyKind
	switch top[0].Type.Kind {
	case michelson.KindSet:
		kind = michelson.PolySizeSet
	case michelson.KindMap:
		kind = michelson.PolySizeMap
	case michelson.KindBigMap:
		kind = michelson.PolySizeBigMap
	case michelson.KindList:
		kind = michelson.PolySizeList
	case michelson.KindComparable:
		switch top[0].Type.CT {
		case michelson.CTString:
			kind = michelson.PolySizeString
		case michelson.CTBytes:
			kind = michelson.PolySizeBytes
		default:
			return SomeInstr{}, failedOnInstr(u.Op, hst, "SIZE does not apply to %s", top[0].Type)
		}
	default:
		return SomeInstr{}, failedOnInstr(u.Op, hst, "SIZE does not apply to %s", top[0].Type)
	}
	poly := michelson.PolyInfo{Kind: kind}
	item := Item{Type: michelson.Tc(michelson.CTNat)}
	instr := michelson.Instr{Op: u.Op, Poly: poly}
	return SomeInstr{Instr: instr, Input: hst, Output: rest.Push(item)}, nil
}

func checkSlice(u Untyped, hst HST) (SomeInstr, error) {
	rest, top, err := pop(u.Op, hst, 3)
	if err != nil {
		return SomeInstr{}, err
	}
	offset, length, x := top[0], top[1], top[2]
	if !offset.Type.Equal(michelson.Tc(michelson.CTNat)) || !length.Type.Equal(michelson.Tc(michelson.CTNat)) {
		return SomeInstr{}, failedOnInstr(u.Op, hst, "SLICE expects (nat, nat, string|bytes)")
	}
	var kind michelson.PolyKind
	switch x.Type.CT {
	case michelson.CTString:
		kind = michelson.PolySliceString
	case michelson.CTBytes:
		kind = michelson.PolySliceBytes
	default:
		return SomeInstr{}, failedOnInstr(u.Op, hst, "SLICE expects string or bytes, got %s", x.Type)
	}
	poly := michelson.PolyInfo{Kind: kind}
	item := Item{Type: michelson.TOption(x.Type)}
	instr := michelson.Instr{Op: u.Op, Poly: poly}
	return SomeInstr{Instr: instr, Input: hst, Output: rest.Push(item)}, nil
}

func checkConcat(u Untyped, hst HST) (SomeInstr, error) {
	rest, top, err := pop(u.Op, hst, 1)
	if err != nil {
		return SomeInstr{}, err
	}
	head := top[0]
	// CONCAT has both a binary form (string*string -> string) and a
	// unary list-folding form (list(string) -> string); the binary form
	// needs a second operand, the list form doesn't.
	if head.Type.Kind == michelson.KindList {
		var kind michelson.PolyKind
		switch head.Type.Elem().CT {
		case michelson.CTString:
			kind = michelson.PolyConcatStringList
		case michelson.CTBytes:
			kind = michelson.PolyConcatBytesList
		default:
			return SomeInstr{}, failedOnInstr(u.Op, hst, "CONCAT list form expects list(string) or list(bytes)")
		}
		poly := michelson.PolyInfo{Kind: kind, ResultT: head.Type.Elem()}
		item := Item{Type: head.Type.Elem()}
		instr := michelson.Instr{Op: u.Op, Poly: poly}
		return SomeInstr{Instr: instr, Input: hst, Output: rest.Push(item)}, nil
	}

	rest2, top2, err := pop(u.Op, hst, 2)
	if err != nil {
		return SomeInstr{}, err
	}
	a, b := top2[0], top2[1]
	if !a.Type.Equal(b.Type) {
		return SomeInstr{}, failedOnInstr(u.Op, hst, "CONCAT operand type mismatch: %s vs %s", a.Type, b.Type)
	}
	var kind michelson.PolyKind
	switch a.Type.CT {
	case michelson.CTString:
		kind = michelson.PolyConcatString
	case michelson.CTBytes:
		kind = michelson.PolyConcatBytes
	default:
		return SomeInstr{}, failedOnInstr(u.Op, hst, "CONCAT expects string or bytes, got %s", a.Type)
	}
	poly := michelson.PolyInfo{Kind: kind, ResultT: a.Type}
	item := Item{Type: a.Type}
	instr := michelson.Instr{Op: u.Op, Poly: poly}
	return SomeInstr{Instr: instr, Input: hst, Output: rest2.Push(item)}, nil
}

func checkArith(u Untyped, hst HST, isAdd bool) (SomeInstr, error) {
	rest, top, err := pop(u.Op, hst, 2)
	if err != nil {
		return SomeInstr{}, err
	}
	a, b := top[0], top[1]
	kind, resultT, ok := arithCombination(a.Type, b.Type, isAdd)
	if !ok {
		return SomeInstr{}, failedOnInstr(u.Op, hst, "%s does not apply to (%s, %s)", u.Op, a.Type, b.Type)
	}
	poly := michelson.PolyInfo{Kind: kind, ResultT: resultT}
	item := Item{Type: resultT}
	instr := michelson.Instr{Op: u.Op, Poly: poly}
	return SomeInstr{Instr: instr, Input: hst, Output: rest.Push(item)}, nil
}

// arithCombination resolves ADD/SUB's type table (§4.4). SUB(mutez,
// mutez) still yields mutez (it may fail at runtime on underflow, which
// is a RuntimeFailure, not a type error); the other mutez combinations
// below mirror ADD's since SUB only accepts matching unit kinds.
func arithCombination(a, b michelson.T, isAdd bool) (michelson.PolyKind, michelson.T, bool) {
	ia, ib := a.Kind == michelson.KindComparable, b.Kind == michelson.KindComparable
	if !ia || !ib {
		return 0, michelson.T{}, false
	}
	switch {
	case a.CT == michelson.CTInt && b.CT == michelson.CTInt:
		return michelson.PolyArithIntInt, michelson.Tc(michelson.CTInt), true
	case a.CT == michelson.CTInt && b.CT == michelson.CTNat:
		return michelson.PolyArithIntNat, michelson.Tc(michelson.CTInt), true
	case a.CT == michelson.CTNat && b.CT == michelson.CTInt:
		return michelson.PolyArithNatInt, michelson.Tc(michelson.CTInt), true
	case a.CT == michelson.CTNat && b.CT == michelson.CTNat:
		if isAdd {
			return michelson.PolyArithNatNat, michelson.Tc(michelson.CTNat), true
		}
		return michelson.PolyArithNatNat, michelson.Tc(michelson.CTInt), true
	case isAdd && a.CT == michelson.CTInt && b.CT == michelson.CTTimestamp:
		return michelson.PolyArithIntTimestamp, michelson.Tc(michelson.CTTimestamp), true
	case isAdd && a.CT == michelson.CTTimestamp && b.CT == michelson.CTInt:
		return michelson.PolyArithTimestampInt, michelson.Tc(michelson.CTTimestamp), true
	case !isAdd && a.CT == michelson.CTTimestamp && b.CT == michelson.CTInt:
		return michelson.PolyArithTimestampInt, michelson.Tc(michelson.CTTimestamp), true
	case !isAdd && a.CT == michelson.CTTimestamp && b.CT == michelson.CTTimestamp:
		return michelson.PolyArithTimestampTimestamp, michelson.Tc(michelson.CTInt), true
	case a.CT == michelson.CTMutez && b.CT == michelson.CTMutez:
		return michelson.PolyArithMutezMutez, michelson.Tc(michelson.CTMutez), true
	case isAdd && a.CT == michelson.CTNat && b.CT == michelson.CTMutez:
		return michelson.PolyArithNatMutez, michelson.Tc(michelson.CTMutez), true
	case isAdd && a.CT == michelson.CTMutez && b.CT == michelson.CTNat:
		return michelson.PolyArithMutezNat, michelson.Tc(michelson.CTMutez), true
	default:
		return 0, michelson.T{}, false
	}
}

func checkMul(u Untyped, hst HST) (SomeInstr, error) {
	rest, top, err := pop(u.Op, hst, 2)
	if err != nil {
		return SomeInstr{}, err
	}
	a, b := top[0], top[1]
	if a.Type.Kind != michelson.KindComparable || b.Type.Kind != michelson.KindComparable {
		return SomeInstr{}, failedOnInstr(u.Op, hst, "MUL does not apply to (%s, %s)", a.Type, b.Type)
	}
	var kind michelson.PolyKind
	var resultT michelson.T
	switch {
	case a.Type.CT == michelson.CTInt && b.Type.CT == michelson.CTInt:
		kind, resultT = michelson.PolyArithIntInt, michelson.Tc(michelson.CTInt)
	case a.Type.CT == michelson.CTInt && b.Type.CT == michelson.CTNat:
		kind, resultT = michelson.PolyArithIntNat, michelson.Tc(michelson.CTInt)
	case a.Type.CT == michelson.CTNat && b.Type.CT == michelson.CTInt:
		kind, resultT = michelson.PolyArithNatInt, michelson.Tc(michelson.CTInt)
	case a.Type.CT == michelson.CTNat && b.Type.CT == michelson.CTNat:
		kind, resultT = michelson.PolyArithNatNat, michelson.Tc(michelson.CTNat)
	case a.Type.CT == michelson.CTNat && b.Type.CT == michelson.CTMutez:
		kind, resultT = michelson.PolyArithNatMutez, michelson.Tc(michelson.CTMutez)
	case a.Type.CT == michelson.CTMutez && b.Type.CT == michelson.CTNat:
		kind, resultT = michelson.PolyArithMutezNat, michelson.Tc(michelson.CTMutez)
	default:
		return SomeInstr{}, failedOnInstr(u.Op, hst, "MUL does not apply to (%s, %s)", a.Type, b.Type)
	}
	poly := michelson.PolyInfo{Kind: kind, ResultT: resultT}
	item := Item{Type: resultT}
	instr := michelson.Instr{Op: u.Op, Poly: poly}
	return SomeInstr{Instr: instr, Input: hst, Output: rest.Push(item)}, nil
}

func checkEDiv(u Untyped, hst HST) (SomeInstr, error) {
	rest, top, err := pop(u.Op, hst, 2)
	if err != nil {
		return SomeInstr{}, err
	}
	a, b := top[0], top[1]
	if a.Type.Kind != michelson.KindComparable || b.Type.Kind != michelson.KindComparable {
		return SomeInstr{}, failedOnInstr(u.Op, hst, "EDIV does not apply to (%s, %s)", a.Type, b.Type)
	}
	var kind michelson.PolyKind
	var qT, rT michelson.T
	switch {
	case a.Type.CT == michelson.CTInt && b.Type.CT == michelson.CTInt:
		kind, qT, rT = michelson.PolyEDivIntInt, michelson.Tc(michelson.CTInt), michelson.Tc(michelson.CTNat)
	case a.Type.CT == michelson.CTInt && b.Type.CT == michelson.CTNat:
		kind, qT, rT = michelson.PolyEDivIntNat, michelson.Tc(michelson.CTInt), michelson.Tc(michelson.CTNat)
	case a.Type.CT == michelson.CTNat && b.Type.CT == michelson.CTInt:
		kind, qT, rT = michelson.PolyEDivNatInt, michelson.Tc(michelson.CTInt), michelson.Tc(michelson.CTNat)
	case a.Type.CT == michelson.CTNat && b.Type.CT == michelson.CTNat:
		kind, qT, rT = michelson.PolyEDivNatNat, michelson.Tc(michelson.CTNat), michelson.Tc(michelson.CTNat)
	case a.Type.CT == michelson.CTMutez && b.Type.CT == michelson.CTNat:
		kind, qT, rT = michelson.PolyEDivMutezNat, michelson.Tc(michelson.CTMutez), michelson.Tc(michelson.CTMutez)
	case a.Type.CT == michelson.CTMutez && b.Type.CT == michelson.CTMutez:
		kind, qT, rT = michelson.PolyEDivMutezMutez, michelson.Tc(michelson.CTNat), michelson.Tc(michelson.CTMutez)
	default:
		return SomeInstr{}, failedOnInstr(u.Op, hst, "EDIV does not apply to (%s, %s)", a.Type, b.Type)
	}
	pairT := michelson.TPair(qT, rT)
	resultT := michelson.TOption(pairT)
	poly := michelson.PolyInfo{Kind: kind, ResultT: resultT}
	item := Item{Type: resultT}
	instr := michelson.Instr{Op: u.Op, Poly: poly}
	return SomeInstr{Instr: instr, Input: hst, Output: rest.Push(item)}, nil
}

func checkCompare(u Untyped, hst HST) (SomeInstr, error) {
	rest, top, err := pop(u.Op, hst, 2)
	if err != nil {
		return SomeInstr{}, err
	}
	a, b := top[0], top[1]
	if !michelson.IsComparable(a.Type) || !a.Type.Equal(b.Type) {
		return SomeInstr{}, failedOnInstr(u.Op, hst, "COMPARE expects two values of the same comparable type, got %s and %s", a.Type, b.Type)
	}
	poly := michelson.PolyInfo{Kind: michelson.PolyCompareAny}
	item := Item{Type: michelson.Tc(michelson.CTInt)}
	instr := michelson.Instr{Op: u.Op, Poly: poly}
	return SomeInstr{Instr: instr, Input: hst, Output: rest.Push(item)}, nil
}
