// Copyright (c) 2020-2021 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package check

import (
	"blockwatch.cc/tzmorley/michelson"
	"blockwatch.cc/tzmorley/tezos"
)

// TypecheckValue lowers an untyped literal against an expected type,
// producing a well-typed michelson.Value or a TCFailedOnValue error
// (§6 "typecheck_value(untyped_value, expected_T)"). A lambda literal
// whose body fails to typecheck returns Typecheck's own error unchanged.
func TypecheckValue(v UntypedValue, expected michelson.T) (michelson.Value, error) {
	switch expected.Kind {
	case michelson.KindComparable:
		return typecheckComparable(v, expected.CT)
	case michelson.KindUnit:
		return michelson.VUnit{}, nil
	case michelson.KindKey:
		k, err := parseKeyLiteral(v)
		if err != nil {
			return nil, failedOnValue(expected, "%v", err)
		}
		return michelson.VKey{X: k}, nil
	case michelson.KindSignature:
		return michelson.VSignature{X: tezos.Signature{Data: v.Bytes}}, nil
	case michelson.KindOption:
		if !v.IsSome {
			return michelson.NewNone(expected.Elem()), nil
		}
		if v.Elem == nil {
			return nil, failedOnValue(expected, "Some requires a payload")
		}
		inner, err := TypecheckValue(*v.Elem, expected.Elem())
		if err != nil {
			return nil, err
		}
		return michelson.NewSome(inner), nil
	case michelson.KindList:
		vals := make([]michelson.Value, 0, len(v.Items))
		for i, it := range v.Items {
			x, err := TypecheckValue(it, expected.Elem())
			if err != nil {
				return nil, failedOnValue(expected, "list item %d: %v", i, err)
			}
			vals = append(vals, x)
		}
		return michelson.NewList(expected.Elem(), vals...), nil
	case michelson.KindSet:
		vals := make([]michelson.Value, 0, len(v.Items))
		for i, it := range v.Items {
			x, err := typecheckComparable(it, expected.KeyType())
			if err != nil {
				return nil, failedOnValue(expected, "set item %d: %v", i, err)
			}
			vals = append(vals, x)
		}
		return michelson.NewSet(expected.KeyType(), vals...), nil
	case michelson.KindOr:
		if v.Or == nil {
			return nil, failedOnValue(expected, "Left/Right requires a payload")
		}
		if v.IsLeft {
			inner, err := TypecheckValue(*v.Or, expected.Left())
			if err != nil {
				return nil, err
			}
			return michelson.NewLeft(inner, expected.Right()), nil
		}
		inner, err := TypecheckValue(*v.Or, expected.Right())
		if err != nil {
			return nil, err
		}
		return michelson.NewRight(expected.Left(), inner), nil
	case michelson.KindPair:
		if v.Car == nil || v.Cdr == nil {
			return nil, failedOnValue(expected, "Pair requires two components")
		}
		car, err := TypecheckValue(*v.Car, expected.Left())
		if err != nil {
			return nil, err
		}
		cdr, err := TypecheckValue(*v.Cdr, expected.Right())
		if err != nil {
			return nil, err
		}
		return michelson.NewPair(car, cdr), nil
	case michelson.KindMap, michelson.KindBigMap:
		entries := make([]michelson.MapEntry, 0, len(v.Entries))
		for i, e := range v.Entries {
			k, err := typecheckComparable(e.Key, expected.KeyType())
			if err != nil {
				return nil, failedOnValue(expected, "map entry %d key: %v", i, err)
			}
			val, err := TypecheckValue(e.Val, expected.ValueType())
			if err != nil {
				return nil, failedOnValue(expected, "map entry %d value: %v", i, err)
			}
			entries = append(entries, michelson.MapEntry{Key: k, Val: val})
		}
		if expected.Kind == michelson.KindMap {
			return michelson.NewMap(expected.KeyType(), expected.ValueType(), entries...), nil
		}
		return michelson.NewBigMap(expected.KeyType(), expected.ValueType(), entries...), nil
	case michelson.KindLambda:
		if v.LambdaBody == nil {
			return nil, failedOnValue(expected, "lambda literal requires a body")
		}
		in := HST{{Type: expected.Left(), Notes: michelson.NoNotes}}
		some, err := Typecheck([]Untyped{*v.LambdaBody}, in)
		if err != nil {
			return nil, err
		}
		if len(some.Output) != 1 || !some.Output[0].Type.Equal(expected.Right()) {
			return nil, failedOnValue(expected, "lambda body output does not match declared return type")
		}
		return michelson.VLambda{In: expected.Left(), Out: expected.Right(), Body: some.Instr}, nil
	case michelson.KindOperation:
		return nil, failedOnValue(expected, "operation is not a literal type")
	default:
		return nil, failedOnValue(expected, "unsupported type")
	}
}

func typecheckComparable(v UntypedValue, ct michelson.CT) (michelson.Value, error) {
	switch ct {
	case michelson.CTInt:
		return michelson.NewInt(v.Int), nil
	case michelson.CTNat:
		if v.Int < 0 {
			return nil, failedOnValue(michelson.Tc(ct), "negative nat literal %d", v.Int)
		}
		return michelson.NewNat(uint64(v.Int)), nil
	case michelson.CTString:
		return michelson.VString{X: v.Str}, nil
	case michelson.CTBytes:
		return michelson.VBytes{X: v.Bytes}, nil
	case michelson.CTMutez:
		m, err := michelson.NewMutez(v.Int)
		if err != nil {
			return nil, failedOnValue(michelson.Tc(ct), "%v", err)
		}
		return m, nil
	case michelson.CTBool:
		return michelson.VBool{X: v.Bool}, nil
	case michelson.CTKeyHash:
		kh, err := tezos.ParseKeyHash(v.Str)
		if err != nil {
			return nil, failedOnValue(michelson.Tc(ct), "%v", err)
		}
		return michelson.VKeyHash{X: kh}, nil
	case michelson.CTTimestamp:
		return michelson.VTimestamp{X: v.Int}, nil
	case michelson.CTAddress:
		addr, err := tezos.ParseAddress(v.Str)
		if err != nil {
			return nil, failedOnValue(michelson.Tc(ct), "%v", err)
		}
		return michelson.VAddress{X: addr}, nil
	default:
		return nil, failedOnValue(michelson.Tc(ct), "unknown comparable type")
	}
}

func parseKeyLiteral(v UntypedValue) (tezos.Key, error) {
	return tezos.Key{Type: tezos.KeyTypeEd25519, Data: v.Bytes}, nil
}
