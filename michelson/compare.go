// Copyright (c) 2020-2021 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package michelson

import "bytes"

// CompareValues implements Michelson's comparable total order: lexicographic
// on bytes and numeric on numbers (§4.3). It is only ever invoked by the
// checker/interpreter on two values of the same comparable type (set/map
// keys, COMPARE's operands) -- called on anything else it panics, which
// signals a checker bug rather than a user error (§7).
func CompareValues(a, b Value) int {
	switch x := a.(type) {
	case VInt:
		return x.X.Cmp(b.(VInt).X)
	case VNat:
		return x.X.Cmp(b.(VNat).X)
	case VString:
		return bytes.Compare([]byte(x.X), []byte(b.(VString).X))
	case VBytes:
		return bytes.Compare(x.X, b.(VBytes).X)
	case VMutez:
		return cmpInt64(x.X, b.(VMutez).X)
	case VBool:
		return cmpBool(x.X, b.(VBool).X)
	case VKeyHash:
		return bytes.Compare(x.X.Bytes(), b.(VKeyHash).X.Bytes())
	case VTimestamp:
		return cmpInt64(x.X, b.(VTimestamp).X)
	case VAddress:
		return bytes.Compare(x.X.Bytes(), b.(VAddress).X.Bytes())
	default:
		panic("michelson: CompareValues on non-comparable value")
	}
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpBool(a, b bool) int {
	if a == b {
		return 0
	}
	if !a && b {
		return -1
	}
	return 1
}

// ValuesEqual is full structural equality over any pair of values of the
// same type: comparable leaves compare equal via CompareValues == 0,
// containers compare element-wise.
func ValuesEqual(a, b Value) bool {
	if !a.Type().Equal(b.Type()) {
		return false
	}
	switch x := a.(type) {
	case VInt, VNat, VString, VBytes, VMutez, VBool, VKeyHash, VTimestamp, VAddress:
		return CompareValues(a, b) == 0
	case VKey:
		return x.X.Equal(b.(VKey).X)
	case VUnit:
		return true
	case VSignature:
		return x.X.Equal(b.(VSignature).X)
	case VOption:
		y := b.(VOption)
		if x.IsSome() != y.IsSome() {
			return false
		}
		if !x.IsSome() {
			return true
		}
		return ValuesEqual(x.Val, y.Val)
	case VList:
		y := b.(VList)
		if len(x.Vals) != len(y.Vals) {
			return false
		}
		for i := range x.Vals {
			if !ValuesEqual(x.Vals[i], y.Vals[i]) {
				return false
			}
		}
		return true
	case VSet:
		y := b.(VSet)
		if len(x.Vals) != len(y.Vals) {
			return false
		}
		for i := range x.Vals {
			if CompareValues(x.Vals[i], y.Vals[i]) != 0 {
				return false
			}
		}
		return true
	case VOr:
		y := b.(VOr)
		if x.IsLeft != y.IsLeft {
			return false
		}
		return ValuesEqual(x.Val, y.Val)
	case VPair:
		y := b.(VPair)
		return ValuesEqual(x.Car, y.Car) && ValuesEqual(x.Cdr, y.Cdr)
	case VMap:
		y := b.(VMap)
		if len(x.Entries) != len(y.Entries) {
			return false
		}
		for i := range x.Entries {
			if CompareValues(x.Entries[i].Key, y.Entries[i].Key) != 0 {
				return false
			}
			if !ValuesEqual(x.Entries[i].Val, y.Entries[i].Val) {
				return false
			}
		}
		return true
	case VBigMap:
		return ValuesEqual(VMap(x), VMap(b.(VBigMap)))
	case VContract:
		y := b.(VContract)
		return x.Addr.Equal(y.Addr)
	case VLambda:
		// lambdas compare by type only; body identity is not observable
		// at the value level in this core.
		return true
	case VOperation:
		return false // operations are never observably compared in Michelson
	default:
		return false
	}
}
