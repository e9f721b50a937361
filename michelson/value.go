// Copyright (c) 2020-2021 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package michelson

import (
	"fmt"
	"math/big"

	"blockwatch.cc/tzmorley/tezos"
)

// Value is a well-typed Michelson value. The type index that in a
// dependently-typed encoding would be a compile-time parameter is here a
// runtime witness returned by Type() -- every constructor below is the
// only way to obtain a Value of its shape, so a Value in hand is always
// well-typed by construction (see package doc).
type Value interface {
	Type() T
	// Clone returns a deep, independent copy. Values are otherwise
	// treated as immutable (§3 invariants).
	Clone() Value
	String() string
}

// ---- comparable leaves -----------------------------------------------

type VInt struct{ X *big.Int }

func NewInt(x int64) VInt       { return VInt{big.NewInt(x)} }
func (VInt) Type() T            { return Tc(CTInt) }
func (v VInt) Clone() Value     { return VInt{new(big.Int).Set(v.X)} }
func (v VInt) String() string   { return v.X.String() }

type VNat struct{ X *big.Int }

func NewNat(x uint64) VNat {
	return VNat{new(big.Int).SetUint64(x)}
}
func (VNat) Type() T          { return Tc(CTNat) }
func (v VNat) Clone() Value   { return VNat{new(big.Int).Set(v.X)} }
func (v VNat) String() string { return v.X.String() }

type VString struct{ X string }

func (VString) Type() T          { return Tc(CTString) }
func (v VString) Clone() Value   { return v }
func (v VString) String() string { return fmt.Sprintf("%q", v.X) }

type VBytes struct{ X []byte }

func (VBytes) Type() T        { return Tc(CTBytes) }
func (v VBytes) Clone() Value { b := make([]byte, len(v.X)); copy(b, v.X); return VBytes{b} }
func (v VBytes) String() string { return fmt.Sprintf("0x%x", v.X) }

// VMutez is a non-negative amount of micro-tez. Arithmetic producing a
// negative or overflowing mutez is a runtime failure, never a valid
// VMutez (§3 invariant); see interp's runArith and runMul.
type VMutez struct{ X int64 }

func NewMutez(x int64) (VMutez, error) {
	if x < 0 {
		return VMutez{}, fmt.Errorf("michelson: negative mutez %d", x)
	}
	return VMutez{x}, nil
}
func (VMutez) Type() T          { return Tc(CTMutez) }
func (v VMutez) Clone() Value   { return v }
func (v VMutez) String() string { return fmt.Sprintf("%dmutez", v.X) }

type VBool struct{ X bool }

func (VBool) Type() T          { return Tc(CTBool) }
func (v VBool) Clone() Value   { return v }
func (v VBool) String() string { return fmt.Sprintf("%v", v.X) }

type VKeyHash struct{ X tezos.KeyHash }

func (VKeyHash) Type() T          { return Tc(CTKeyHash) }
func (v VKeyHash) Clone() Value   { return v }
func (v VKeyHash) String() string { return v.X.String() }

// VTimestamp is signed Unix seconds, matching Michelson's unbounded
// `timestamp` (arithmetic with `int` may move it before 1970).
type VTimestamp struct{ X int64 }

func (VTimestamp) Type() T          { return Tc(CTTimestamp) }
func (v VTimestamp) Clone() Value   { return v }
func (v VTimestamp) String() string { return fmt.Sprintf("%d", v.X) }

type VAddress struct{ X tezos.Address }

func (VAddress) Type() T          { return Tc(CTAddress) }
func (v VAddress) Clone() Value   { return v }
func (v VAddress) String() string { return v.X.String() }

// ---- non-comparable leaves --------------------------------------------

type VKey struct{ X tezos.Key }

func (VKey) Type() T          { return TKey }
func (v VKey) Clone() Value   { return v }
func (v VKey) String() string { return fmt.Sprintf("key(%x)", v.X.Data) }

type VUnit struct{}

func (VUnit) Type() T          { return TUnit }
func (v VUnit) Clone() Value   { return v }
func (v VUnit) String() string { return "Unit" }

type VSignature struct{ X tezos.Signature }

func (VSignature) Type() T          { return TSignature }
func (v VSignature) Clone() Value   { return v }
func (v VSignature) String() string { return "sig(...)" }

// ---- containers ---------------------------------------------------

type VOption struct {
	Elem T // element type, carried even when Val == nil
	Val  Value
}

func NewSome(v Value) VOption  { return VOption{Elem: v.Type(), Val: v} }
func NewNone(elem T) VOption   { return VOption{Elem: elem} }
func (v VOption) Type() T      { return TOption(v.Elem) }
func (v VOption) IsSome() bool { return v.Val != nil }
func (v VOption) Clone() Value {
	if v.Val == nil {
		return VOption{Elem: v.Elem}
	}
	return VOption{Elem: v.Elem, Val: v.Val.Clone()}
}
func (v VOption) String() string {
	if v.Val == nil {
		return "None"
	}
	return fmt.Sprintf("Some(%s)", v.Val)
}

type VList struct {
	Elem T
	Vals []Value
}

func NewList(elem T, vals ...Value) VList { return VList{Elem: elem, Vals: vals} }
func (v VList) Type() T                   { return TList(v.Elem) }
func (v VList) Clone() Value {
	out := make([]Value, len(v.Vals))
	for i, x := range v.Vals {
		out[i] = x.Clone()
	}
	return VList{Elem: v.Elem, Vals: out}
}
func (v VList) String() string { return fmt.Sprintf("%v", v.Vals) }

// VSet stores comparable elements in strict ascending order; duplicates
// are structurally impossible because the only way to build one
// (NewSet, or the interpreter's UPDATE) keeps the invariant.
type VSet struct {
	Key  CT
	Vals []Value // strictly ascending by CompareValues
}

func NewSet(key CT, vals ...Value) VSet {
	s := VSet{Key: key, Vals: append([]Value(nil), vals...)}
	s.Vals = sortUnique(s.Vals)
	return s
}
func (v VSet) Type() T { return TSet(v.Key) }
func (v VSet) Clone() Value {
	out := make([]Value, len(v.Vals))
	for i, x := range v.Vals {
		out[i] = x.Clone()
	}
	return VSet{Key: v.Key, Vals: out}
}
func (v VSet) String() string { return fmt.Sprintf("%v", v.Vals) }

func sortUnique(vals []Value) []Value {
	for i := 1; i < len(vals); i++ {
		for j := i; j > 0 && CompareValues(vals[j-1], vals[j]) > 0; j-- {
			vals[j-1], vals[j] = vals[j], vals[j-1]
		}
	}
	out := vals[:0]
	for i, v := range vals {
		if i == 0 || CompareValues(out[len(out)-1], v) != 0 {
			out = append(out, v)
		}
	}
	return out
}

type VOr struct {
	LeftT, RightT T
	IsLeft        bool
	Val           Value
}

func NewLeft(v Value, rightT T) VOr  { return VOr{LeftT: v.Type(), RightT: rightT, IsLeft: true, Val: v} }
func NewRight(leftT T, v Value) VOr  { return VOr{LeftT: leftT, RightT: v.Type(), IsLeft: false, Val: v} }
func (v VOr) Type() T                { return TOr(v.LeftT, v.RightT) }
func (v VOr) Clone() Value           { return VOr{LeftT: v.LeftT, RightT: v.RightT, IsLeft: v.IsLeft, Val: v.Val.Clone()} }
func (v VOr) String() string {
	if v.IsLeft {
		return fmt.Sprintf("Left(%s)", v.Val)
	}
	return fmt.Sprintf("Right(%s)", v.Val)
}

type VPair struct {
	Car, Cdr Value
}

func NewPair(a, b Value) VPair { return VPair{Car: a, Cdr: b} }
func (v VPair) Type() T        { return TPair(v.Car.Type(), v.Cdr.Type()) }
func (v VPair) Clone() Value   { return VPair{Car: v.Car.Clone(), Cdr: v.Cdr.Clone()} }
func (v VPair) String() string { return fmt.Sprintf("Pair(%s, %s)", v.Car, v.Cdr) }

// MapEntry is one key/value pair of a VMap or VBigMap.
type MapEntry struct {
	Key Value
	Val Value
}

// VMap is an insertion-agnostic key->value mapping, kept sorted by key so
// that two maps with the same content always compare/print identically.
type VMap struct {
	Key     CT
	ValType T
	Entries []MapEntry // strictly ascending by key
}

func NewMap(key CT, valType T, entries ...MapEntry) VMap {
	m := VMap{Key: key, ValType: valType, Entries: append([]MapEntry(nil), entries...)}
	sortMapEntries(m.Entries)
	return m
}
func (v VMap) Type() T { return TMap(v.Key, v.ValType) }
func (v VMap) Clone() Value {
	out := make([]MapEntry, len(v.Entries))
	for i, e := range v.Entries {
		out[i] = MapEntry{Key: e.Key.Clone(), Val: e.Val.Clone()}
	}
	return VMap{Key: v.Key, ValType: v.ValType, Entries: out}
}
func (v VMap) String() string { return fmt.Sprintf("%v", v.Entries) }

func (v VMap) Get(k Value) (Value, bool) {
	for _, e := range v.Entries {
		if CompareValues(e.Key, k) == 0 {
			return e.Val, true
		}
	}
	return nil, false
}

// Updated returns a new VMap with k bound to val (or removed, when val is
// nil), leaving the receiver untouched (persistent update).
func (v VMap) Updated(k Value, val Value) VMap {
	out := make([]MapEntry, 0, len(v.Entries)+1)
	replaced := false
	for _, e := range v.Entries {
		if CompareValues(e.Key, k) == 0 {
			replaced = true
			if val != nil {
				out = append(out, MapEntry{Key: k, Val: val})
			}
			continue
		}
		out = append(out, e)
	}
	if !replaced && val != nil {
		out = append(out, MapEntry{Key: k, Val: val})
	}
	sortMapEntries(out)
	return VMap{Key: v.Key, ValType: v.ValType, Entries: out}
}

func sortMapEntries(entries []MapEntry) {
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && CompareValues(entries[j-1].Key, entries[j].Key) > 0; j-- {
			entries[j-1], entries[j] = entries[j], entries[j-1]
		}
	}
}

// VBigMap follows the source's "materialized map" approximation (see
// DESIGN.md open question): no lazy diffs, identical
// representation and operations to VMap.
type VBigMap struct {
	Key     CT
	ValType T
	Entries []MapEntry
}

func NewBigMap(key CT, valType T, entries ...MapEntry) VBigMap {
	m := VBigMap{Key: key, ValType: valType, Entries: append([]MapEntry(nil), entries...)}
	sortMapEntries(m.Entries)
	return m
}
func (v VBigMap) Type() T { return TBigMap(v.Key, v.ValType) }
func (v VBigMap) Clone() Value {
	out := make([]MapEntry, len(v.Entries))
	for i, e := range v.Entries {
		out[i] = MapEntry{Key: e.Key.Clone(), Val: e.Val.Clone()}
	}
	return VBigMap{Key: v.Key, ValType: v.ValType, Entries: out}
}
func (v VBigMap) String() string { return fmt.Sprintf("%v", v.Entries) }

func (v VBigMap) Get(k Value) (Value, bool) {
	for _, e := range v.Entries {
		if CompareValues(e.Key, k) == 0 {
			return e.Val, true
		}
	}
	return nil, false
}

func (v VBigMap) Updated(k Value, val Value) VBigMap {
	asMap := VMap(v).Updated(k, val)
	return VBigMap(asMap)
}

type VContract struct {
	Param T
	Addr  tezos.Address
}

func (v VContract) Type() T      { return TContract(v.Param) }
func (v VContract) Clone() Value { return v }
func (v VContract) String() string { return fmt.Sprintf("Contract(%s)", v.Addr) }

// VLambda carries a typed instruction tree whose input stack is [In] and
// output stack is [Out]. Instr is defined in instr.go, in this same
// package.
type VLambda struct {
	In, Out T
	Body    Instr
}

func (v VLambda) Type() T        { return TLambda(v.In, v.Out) }
func (v VLambda) Clone() Value   { return VLambda{In: v.In, Out: v.Out, Body: v.Body} }
func (v VLambda) String() string { return fmt.Sprintf("Lambda(%s -> %s)", v.In, v.Out) }

type VOperation struct {
	Op Operation
}

func (v VOperation) Type() T        { return TOperation }
func (v VOperation) Clone() Value   { return VOperation{Op: v.Op.Clone()} }
func (v VOperation) String() string { return v.Op.String() }
