// Copyright (c) 2020-2021 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

// Package michelson implements the closed universe of Michelson types and
// values (C1, C3 of the core design): the comparable-type algebra, the
// full type algebra built on top of it, typed values indexed by that
// algebra, and the typed instruction tree the type checker produces.
//
// A real dependently-typed encoding (as in the reference implementation)
// indexes every value and instruction by its Michelson type at compile
// time. Go has no such indexing, so this package erases the type index at
// the value level -- every Value carries its own Type() -- and the type
// checker (package check) re-establishes the correspondence explicitly:
// a SomeInstr pairs an index-erased Instr with the two HST descriptors
// that must line up with it.
package michelson

import "fmt"

// CT is the closed set of comparable primitive types: the leaves of the
// type algebra that may appear as set/map keys or be compared directly.
type CT byte

const (
	CTInt CT = iota
	CTNat
	CTString
	CTBytes
	CTMutez
	CTBool
	CTKeyHash
	CTTimestamp
	CTAddress
)

func (ct CT) String() string {
	switch ct {
	case CTInt:
		return "int"
	case CTNat:
		return "nat"
	case CTString:
		return "string"
	case CTBytes:
		return "bytes"
	case CTMutez:
		return "mutez"
	case CTBool:
		return "bool"
	case CTKeyHash:
		return "key_hash"
	case CTTimestamp:
		return "timestamp"
	case CTAddress:
		return "address"
	default:
		return fmt.Sprintf("CT(%d)", byte(ct))
	}
}

func (ct CT) IsValid() bool { return ct <= CTAddress }

// Kind enumerates the closed sum of Michelson types. Comparable types are
// folded into KindComparable carrying a CT; everything else gets its own
// tag.
type Kind byte

const (
	KindComparable Kind = iota
	KindKey
	KindUnit
	KindSignature
	KindOption
	KindList
	KindSet
	KindOperation
	KindContract
	KindPair
	KindOr
	KindLambda
	KindMap
	KindBigMap
)

func (k Kind) String() string {
	switch k {
	case KindComparable:
		return "comparable"
	case KindKey:
		return "key"
	case KindUnit:
		return "unit"
	case KindSignature:
		return "signature"
	case KindOption:
		return "option"
	case KindList:
		return "list"
	case KindSet:
		return "set"
	case KindOperation:
		return "operation"
	case KindContract:
		return "contract"
	case KindPair:
		return "pair"
	case KindOr:
		return "or"
	case KindLambda:
		return "lambda"
	case KindMap:
		return "map"
	case KindBigMap:
		return "big_map"
	default:
		return fmt.Sprintf("Kind(%d)", byte(k))
	}
}

// T is a Michelson type. It is built with the constructors below, which
// enforce the "no operation under big_map/set/map/contract-parameter"
// nesting rule on construction, so that any T value in hand is already
// known-valid.
type T struct {
	Kind Kind
	CT   CT // meaningful iff Kind == KindComparable
	Args []T // children, in type-specific order (see constructors)
}

// Tc builds a comparable type.
func Tc(ct CT) T { return T{Kind: KindComparable, CT: ct} }

var (
	TKey       = T{Kind: KindKey}
	TUnit      = T{Kind: KindUnit}
	TSignature = T{Kind: KindSignature}
	TOperation = T{Kind: KindOperation}
)

// TContract, TMap and TBigMap validate the "no operation inside storable"
// rule and panic on violation (TSet's key is a CT, which can never be
// operation): a caller able to construct an invalid T indicates a type
// checker bug, not a user error (see §7 "fatal" errors). TOption, TList,
// TOr, TLambda and TPair accept any component type.

func TOption(elem T) T {
	return T{Kind: KindOption, Args: []T{elem}}
}

func TList(elem T) T {
	return T{Kind: KindList, Args: []T{elem}}
}

func TSet(key CT) T {
	return T{Kind: KindSet, Args: []T{Tc(key)}}
}

func TContract(param T) T {
	mustNoOp(param, "contract")
	return T{Kind: KindContract, Args: []T{param}}
}

func TPair(a, b T) T {
	return T{Kind: KindPair, Args: []T{a, b}}
}

func TOr(a, b T) T {
	return T{Kind: KindOr, Args: []T{a, b}}
}

func TLambda(in, out T) T {
	return T{Kind: KindLambda, Args: []T{in, out}}
}

func TMap(key CT, val T) T {
	mustNoOp(val, "map")
	return T{Kind: KindMap, Args: []T{Tc(key), val}}
}

func TBigMap(key CT, val T) T {
	mustNoOp(val, "big_map")
	return T{Kind: KindBigMap, Args: []T{Tc(key), val}}
}

func mustNoOp(t T, container string) {
	if HasOp(t) {
		panic(fmt.Sprintf("michelson: %s may not contain operation", container))
	}
}

// HasOp reports whether t contains `operation` anywhere in its structure.
// Used by the constructors above to reject storables that embed
// operation.
func HasOp(t T) bool {
	if t.Kind == KindOperation {
		return true
	}
	for _, a := range t.Args {
		if HasOp(a) {
			return true
		}
	}
	return false
}

// IsComparable reports whether t is a leaf comparable type. Pairs of
// comparable types are comparable too under post-005 Michelson, but this
// core follows the source's scope and only treats the CT leaves as
// comparable.
func IsComparable(t T) bool {
	return t.Kind == KindComparable
}

// KeyType returns the CT of a set/map/big_map's key type. Panics if t is
// not one of those kinds -- a checker-internal invariant, not user error.
func (t T) KeyType() CT {
	switch t.Kind {
	case KindSet, KindMap, KindBigMap:
		return t.Args[0].CT
	default:
		panic("michelson: KeyType on non-container type")
	}
}

// Elem returns the element type of list/set/option/contract.
func (t T) Elem() T {
	switch t.Kind {
	case KindList, KindOption, KindContract:
		return t.Args[0]
	case KindSet:
		return Tc(t.Args[0].CT)
	default:
		panic("michelson: Elem on non-unary type")
	}
}

// ValueType returns the value type of map/big_map.
func (t T) ValueType() T {
	switch t.Kind {
	case KindMap, KindBigMap:
		return t.Args[1]
	default:
		panic("michelson: ValueType on non-map type")
	}
}

// Left, Right return the branch types of an `or`, or the component types
// of a pair / lambda input,output.
func (t T) Left() T  { return t.Args[0] }
func (t T) Right() T { return t.Args[1] }

// Equal is structural type equality, ignoring annotations (types carry
// none themselves -- annotations live in the parallel Notes tree).
func (t T) Equal(o T) bool {
	if t.Kind != o.Kind {
		return false
	}
	if t.Kind == KindComparable {
		return t.CT == o.CT
	}
	if len(t.Args) != len(o.Args) {
		return false
	}
	for i := range t.Args {
		if !t.Args[i].Equal(o.Args[i]) {
			return false
		}
	}
	return true
}

// String renders t as Michelson type syntax, for error messages only.
func (t T) String() string {
	switch t.Kind {
	case KindComparable:
		return t.CT.String()
	case KindKey:
		return "key"
	case KindUnit:
		return "unit"
	case KindSignature:
		return "signature"
	case KindOperation:
		return "operation"
	case KindOption:
		return fmt.Sprintf("option(%s)", t.Args[0])
	case KindList:
		return fmt.Sprintf("list(%s)", t.Args[0])
	case KindSet:
		return fmt.Sprintf("set(%s)", t.Args[0])
	case KindContract:
		return fmt.Sprintf("contract(%s)", t.Args[0])
	case KindPair:
		return fmt.Sprintf("pair(%s,%s)", t.Args[0], t.Args[1])
	case KindOr:
		return fmt.Sprintf("or(%s,%s)", t.Args[0], t.Args[1])
	case KindLambda:
		return fmt.Sprintf("lambda(%s,%s)", t.Args[0], t.Args[1])
	case KindMap:
		return fmt.Sprintf("map(%s,%s)", t.Args[0], t.Args[1])
	case KindBigMap:
		return fmt.Sprintf("big_map(%s,%s)", t.Args[0], t.Args[1])
	default:
		return "invalid"
	}
}
