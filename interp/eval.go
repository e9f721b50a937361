// Copyright (c) 2020-2021 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package interp

import (
	"math/big"

	"blockwatch.cc/tzmorley/gstate"
	"blockwatch.cc/tzmorley/michelson"
	"blockwatch.cc/tzmorley/tezos"
)

// run executes one typed instruction node against stack (top of stack is
// index 0, matching package check's HST convention) and returns the
// resulting stack. The only errors it returns are RuntimeFailure values
// (FAILWITH, gas exhaustion, mutez overflow); anything else is a checker
// bug, since run only ever sees already-typechecked trees.
func run(ctx *execCtx, instr michelson.Instr, stack []michelson.Value) ([]michelson.Value, error) {
	if instr.Op != "SEQ" {
		if ctx.steps.Tick() {
			return nil, RuntimeFailure{Kind: RFGasExhaustion}
		}
	}

	switch instr.Op {
	case "SEQ":
		cur := stack
		var err error
		for _, s := range instr.Seq {
			cur, err = run(ctx, s, cur)
			if err != nil {
				return nil, err
			}
		}
		return cur, nil

	case michelson.DROP:
		n := instr.N
		if n == 0 {
			n = 1
		}
		return stack[n:], nil

	case michelson.DUP:
		n := instr.N
		if n == 0 {
			n = 1
		}
		return prepend(stack[n-1].Clone(), stack), nil

	case michelson.SWAP:
		out := append([]michelson.Value(nil), stack...)
		out[0], out[1] = out[1], out[0]
		return out, nil

	case michelson.PUSH:
		return prepend(instr.PushVal.Clone(), stack), nil

	case michelson.UNIT:
		return prepend(michelson.VUnit{}, stack), nil

	case michelson.PAIR:
		p, q, rest := stack[0], stack[1], stack[2:]
		return prepend(michelson.NewPair(p, q), rest), nil

	case michelson.UNPAIR:
		pair := stack[0].(michelson.VPair)
		return prepend(pair.Car, prepend(pair.Cdr, stack[1:])), nil

	case michelson.CAR:
		return prependRest(stack[0].(michelson.VPair).Car, stack[1:]), nil
	case michelson.CDR:
		return prependRest(stack[0].(michelson.VPair).Cdr, stack[1:]), nil

	case michelson.SOME:
		return prepend(michelson.NewSome(stack[0]), stack[1:]), nil
	case michelson.NONE:
		return prepend(michelson.NewNone(instr.Type1), stack), nil
	case michelson.LEFT:
		return prepend(michelson.NewLeft(stack[0], instr.Type1), stack[1:]), nil
	case michelson.RIGHT:
		return prepend(michelson.NewRight(instr.Type1, stack[0]), stack[1:]), nil

	case michelson.NIL:
		return prepend(michelson.NewList(instr.Type1), stack), nil
	case michelson.CONS:
		elem, list := stack[0], stack[1].(michelson.VList)
		return prepend(michelson.NewList(list.Elem, append([]michelson.Value{elem}, list.Vals...)...), stack[2:]), nil

	case michelson.EMPTY_SET:
		return prepend(michelson.NewSet(instr.Type1.CT), stack), nil
	case michelson.EMPTY_MAP:
		return prepend(michelson.NewMap(instr.Type1.CT, instr.Type2), stack), nil
	case michelson.EMPTY_BIG_MAP:
		return prepend(michelson.NewBigMap(instr.Type1.CT, instr.Type2), stack), nil

	case michelson.IF:
		b, rest := stack[0].(michelson.VBool), stack[1:]
		if b.X {
			return run(ctx, *instr.BranchTrue, rest)
		}
		return run(ctx, *instr.BranchFalse, rest)

	case michelson.IF_LEFT:
		or, rest := stack[0].(michelson.VOr), stack[1:]
		if or.IsLeft {
			return run(ctx, *instr.BranchTrue, prepend(or.Val, rest))
		}
		return run(ctx, *instr.BranchFalse, prepend(or.Val, rest))

	case michelson.IF_NONE:
		opt, rest := stack[0].(michelson.VOption), stack[1:]
		if !opt.IsSome() {
			return run(ctx, *instr.BranchTrue, rest)
		}
		return run(ctx, *instr.BranchFalse, prepend(opt.Val, rest))

	case michelson.IF_CONS:
		list, rest := stack[0].(michelson.VList), stack[1:]
		if len(list.Vals) > 0 {
			tail := michelson.NewList(list.Elem, list.Vals[1:]...)
			return run(ctx, *instr.BranchTrue, prepend(list.Vals[0], prepend(tail, rest)))
		}
		return run(ctx, *instr.BranchFalse, rest)

	case michelson.LOOP:
		b, rest := stack[0].(michelson.VBool), stack[1:]
		for b.X {
			out, err := run(ctx, *instr.Body, rest)
			if err != nil {
				return nil, err
			}
			b, rest = out[0].(michelson.VBool), out[1:]
		}
		return rest, nil

	case michelson.LOOP_LEFT:
		or, rest := stack[0].(michelson.VOr), stack[1:]
		for or.IsLeft {
			out, err := run(ctx, *instr.Body, prepend(or.Val, rest))
			if err != nil {
				return nil, err
			}
			or, rest = out[0].(michelson.VOr), out[1:]
		}
		return prepend(or.Val, rest), nil

	case michelson.ITER:
		container, rest := stack[0], stack[1:]
		elems, err := iterElements(container)
		if err != nil {
			return nil, err
		}
		cur := rest
		for _, e := range elems {
			cur, err = run(ctx, *instr.Body, prepend(e, cur))
			if err != nil {
				return nil, err
			}
		}
		return cur, nil

	case michelson.MAP:
		container, rest := stack[0], stack[1:]
		return runMap(ctx, instr, container, rest)

	case michelson.DIP:
		n := instr.N
		if n == 0 {
			n = 1
		}
		protected, below := stack[:n], stack[n:]
		out, err := run(ctx, *instr.Body, below)
		if err != nil {
			return nil, err
		}
		return append(append([]michelson.Value(nil), protected...), out...), nil

	case michelson.LAMBDA:
		return prepend(michelson.VLambda{In: instr.Type1, Out: instr.Type2, Body: *instr.Body}, stack), nil

	case michelson.EXEC:
		arg, lambda, rest := stack[0], stack[1].(michelson.VLambda), stack[2:]
		out, err := run(ctx, lambda.Body, []michelson.Value{arg})
		if err != nil {
			return nil, err
		}
		return prepend(out[0], rest), nil

	case michelson.FAILWITH:
		return nil, RuntimeFailure{Kind: RFMichelsonFailed, Value: stack[0]}

	case michelson.MEM, michelson.GET, michelson.UPDATE, michelson.SIZE, michelson.SLICE, michelson.CONCAT,
		michelson.COMPARE:
		return runPoly(instr, stack)

	case michelson.ADD, michelson.SUB:
		return runArith(instr, stack)
	case michelson.MUL:
		return runMul(instr, stack)
	case michelson.EDIV:
		return runEDiv(instr, stack)

	case michelson.NEG, michelson.ABS, michelson.NOT, michelson.EQ, michelson.NEQ,
		michelson.LT, michelson.GT, michelson.LE, michelson.GE:
		return runUnaryArith(instr, stack)

	case michelson.AND, michelson.OR, michelson.XOR:
		return runBoolBinop(instr, stack)

	case michelson.AMOUNT:
		return prepend(michelson.VMutez{X: ctx.amount}, stack), nil
	case michelson.BALANCE:
		return prepend(michelson.VMutez{X: ctx.balance}, stack), nil
	case michelson.NOW:
		return prepend(michelson.VTimestamp{X: ctx.now}, stack), nil
	case michelson.SENDER:
		return prepend(michelson.VAddress{X: ctx.sender}, stack), nil
	case michelson.SOURCE:
		return prepend(michelson.VAddress{X: ctx.source}, stack), nil
	case michelson.SELF:
		return prepend(michelson.VContract{Param: ctx.selfParamT, Addr: ctx.self}, stack), nil

	case michelson.ADDRESS:
		return prepend(michelson.VAddress{X: stack[0].(michelson.VContract).Addr}, stack[1:]), nil

	case michelson.CONTRACT:
		return runContractLookup(ctx, instr, stack)

	case michelson.IMPLICIT_ACCOUNT:
		kh := stack[0].(michelson.VKeyHash)
		return prepend(michelson.VContract{Param: michelson.TUnit, Addr: kh.X.Address()}, stack[1:]), nil

	case michelson.TRANSFER_TOKENS:
		param, amount, dest := stack[0], stack[1].(michelson.VMutez), stack[2].(michelson.VContract)
		op := michelson.Operation{Kind: michelson.OpTransferTokens, Transfer: &michelson.TransferTokens{
			Parameter: param, Amount: amount, Dest: dest,
		}}
		return prepend(michelson.VOperation{Op: op}, stack[3:]), nil

	case michelson.SET_DELEGATE:
		opt := stack[0].(michelson.VOption)
		var kh *tezos.KeyHash
		if opt.IsSome() {
			v := opt.Val.(michelson.VKeyHash).X
			kh = &v
		}
		op := michelson.Operation{Kind: michelson.OpSetDelegate, SetDelegate: &michelson.SetDelegateOp{Delegate: kh}}
		return prepend(michelson.VOperation{Op: op}, stack[1:]), nil

	case michelson.CREATE_CONTRACT:
		return runCreateContract(ctx, instr, stack)

	case michelson.CREATE_ACCOUNT:
		return runCreateAccount(ctx, stack)

	case michelson.RENAME:
		return stack, nil

	case michelson.STACKTYPE:
		return stack, nil
	case michelson.PRINT:
		return stack, nil
	case michelson.FN:
		return run(ctx, *instr.Ext.FnBody, stack)
	case michelson.TEST_ASSERT:
		out, err := run(ctx, *instr.Ext.AssertBody, stack)
		if err != nil {
			return nil, err
		}
		if !out[0].(michelson.VBool).X {
			return nil, RuntimeFailure{Kind: RFMichelsonFailed, Value: out[0]}
		}
		return stack, nil

	default:
		panic("interp: unreachable: unhandled instruction " + string(instr.Op))
	}
}

func prepend(v michelson.Value, rest []michelson.Value) []michelson.Value {
	out := make([]michelson.Value, 0, len(rest)+1)
	out = append(out, v)
	return append(out, rest...)
}

// prependRest is prepend with a descriptive name at CAR/CDR call sites,
// which don't otherwise touch the rest of the stack.
func prependRest(v michelson.Value, rest []michelson.Value) []michelson.Value {
	return prepend(v, rest)
}

func iterElements(container michelson.Value) ([]michelson.Value, error) {
	switch c := container.(type) {
	case michelson.VList:
		return c.Vals, nil
	case michelson.VSet:
		return c.Vals, nil
	case michelson.VMap:
		out := make([]michelson.Value, len(c.Entries))
		for i, e := range c.Entries {
			out[i] = michelson.NewPair(e.Key, e.Val)
		}
		return out, nil
	case michelson.VBigMap:
		out := make([]michelson.Value, len(c.Entries))
		for i, e := range c.Entries {
			out[i] = michelson.NewPair(e.Key, e.Val)
		}
		return out, nil
	default:
		panic("interp: unreachable: ITER on non-iterable value")
	}
}

func runMap(ctx *execCtx, instr michelson.Instr, container michelson.Value, rest []michelson.Value) ([]michelson.Value, error) {
	switch c := container.(type) {
	case michelson.VList:
		out := make([]michelson.Value, len(c.Vals))
		var resultT michelson.T
		for i, e := range c.Vals {
			res, err := run(ctx, *instr.Body, prepend(e, rest))
			if err != nil {
				return nil, err
			}
			out[i] = res[0]
			resultT = res[0].Type()
		}
		return prepend(michelson.NewList(resultT, out...), rest), nil
	case michelson.VMap:
		entries := make([]michelson.MapEntry, len(c.Entries))
		var valT michelson.T
		for i, e := range c.Entries {
			res, err := run(ctx, *instr.Body, prepend(michelson.NewPair(e.Key, e.Val), rest))
			if err != nil {
				return nil, err
			}
			entries[i] = michelson.MapEntry{Key: e.Key, Val: res[0]}
			valT = res[0].Type()
		}
		return prepend(michelson.NewMap(c.Key, valT, entries...), rest), nil
	case michelson.VBigMap:
		entries := make([]michelson.MapEntry, len(c.Entries))
		var valT michelson.T
		for i, e := range c.Entries {
			res, err := run(ctx, *instr.Body, prepend(michelson.NewPair(e.Key, e.Val), rest))
			if err != nil {
				return nil, err
			}
			entries[i] = michelson.MapEntry{Key: e.Key, Val: res[0]}
			valT = res[0].Type()
		}
		return prepend(michelson.NewBigMap(c.Key, valT, entries...), rest), nil
	default:
		panic("interp: unreachable: MAP on non-mappable value")
	}
}

func runContractLookup(ctx *execCtx, instr michelson.Instr, stack []michelson.Value) ([]michelson.Value, error) {
	addr := stack[0].(michelson.VAddress).X
	rest := stack[1:]
	acc, ok := ctx.gs.Get(addr)
	if !ok {
		return prepend(michelson.NewNone(michelson.TContract(instr.Type1)), rest), nil
	}
	var paramT michelson.T
	if acc.Kind == gstate.Simple {
		paramT = michelson.TUnit
	} else {
		paramT = acc.ParamType
	}
	if !paramT.Equal(instr.Type1) {
		return prepend(michelson.NewNone(michelson.TContract(instr.Type1)), rest), nil
	}
	return prepend(michelson.NewSome(michelson.VContract{Param: instr.Type1, Addr: addr}), rest), nil
}

func runCreateContract(ctx *execCtx, instr michelson.Instr, stack []michelson.Value) ([]michelson.Value, error) {
	delegateOpt, amount, storage, rest := stack[0].(michelson.VOption), stack[1].(michelson.VMutez), stack[2], stack[3:]
	var delegate *tezos.KeyHash
	if delegateOpt.IsSome() {
		kh := delegateOpt.Val.(michelson.VKeyHash).X
		delegate = &kh
	}
	addr := ctx.nextOriginationAddress()
	op := michelson.Operation{Kind: michelson.OpCreateContract, CreateContract: &michelson.CreateContractOp{
		Delegate: delegate, Balance: amount, InitialStorage: storage,
		Code: *instr.Body, ParamType: instr.Type1, StorageType: instr.Type2, Address: addr,
	}}
	out := prepend(michelson.VAddress{X: addr}, rest)
	return prepend(michelson.VOperation{Op: op}, out), nil
}

func runCreateAccount(ctx *execCtx, stack []michelson.Value) ([]michelson.Value, error) {
	spendable, delegatable, balance, manager, rest := stack[0].(michelson.VBool), stack[1].(michelson.VBool), stack[2].(michelson.VMutez), stack[3].(michelson.VKeyHash), stack[4:]
	addr := ctx.nextOriginationAddress()
	op := michelson.Operation{Kind: michelson.OpCreateAccount, CreateAccount: &michelson.CreateAccountOp{
		Manager: manager.X, Spendable: spendable.X, Balance: balance, Address: addr,
	}}
	_ = delegatable
	out := prepend(michelson.VAddress{X: addr}, rest)
	return prepend(michelson.VOperation{Op: op}, out), nil
}

func runPoly(instr michelson.Instr, stack []michelson.Value) ([]michelson.Value, error) {
	switch instr.Poly.Kind {
	case michelson.PolyMemSet:
		key, set, rest := stack[0], stack[1].(michelson.VSet), stack[2:]
		found := false
		for _, v := range set.Vals {
			if michelson.CompareValues(v, key) == 0 {
				found = true
				break
			}
		}
		return prepend(michelson.VBool{X: found}, rest), nil
	case michelson.PolyMemMap:
		key, m, rest := stack[0], stack[1].(michelson.VMap), stack[2:]
		_, found := m.Get(key)
		return prepend(michelson.VBool{X: found}, rest), nil
	case michelson.PolyMemBigMap:
		key, m, rest := stack[0], stack[1].(michelson.VBigMap), stack[2:]
		_, found := m.Get(key)
		return prepend(michelson.VBool{X: found}, rest), nil

	case michelson.PolyGetMap:
		key, m, rest := stack[0], stack[1].(michelson.VMap), stack[2:]
		val, found := m.Get(key)
		if !found {
			return prepend(michelson.NewNone(m.ValType), rest), nil
		}
		return prepend(michelson.NewSome(val), rest), nil
	case michelson.PolyGetBigMap:
		key, m, rest := stack[0], stack[1].(michelson.VBigMap), stack[2:]
		val, found := m.Get(key)
		if !found {
			return prepend(michelson.NewNone(m.ValType), rest), nil
		}
		return prepend(michelson.NewSome(val), rest), nil

	case michelson.PolyUpdateSet:
		key, present, set, rest := stack[0], stack[1].(michelson.VBool), stack[2].(michelson.VSet), stack[3:]
		var newVals []michelson.Value
		for _, v := range set.Vals {
			if michelson.CompareValues(v, key) != 0 {
				newVals = append(newVals, v)
			}
		}
		if present.X {
			newVals = append(newVals, key)
		}
		return prepend(michelson.NewSet(set.Key, newVals...), rest), nil
	case michelson.PolyUpdateMap:
		key, val, m, rest := stack[0], stack[1].(michelson.VOption), stack[2].(michelson.VMap), stack[3:]
		return prepend(m.Updated(key, val.Val), rest), nil
	case michelson.PolyUpdateBigMap:
		key, val, m, rest := stack[0], stack[1].(michelson.VOption), stack[2].(michelson.VBigMap), stack[3:]
		return prepend(m.Updated(key, val.Val), rest), nil

	case michelson.PolySizeSet:
		return prepend(michelson.NewNat(uint64(len(stack[0].(michelson.VSet).Vals))), stack[1:]), nil
	case michelson.PolySizeMap:
		return prepend(michelson.NewNat(uint64(len(stack[0].(michelson.VMap).Entries))), stack[1:]), nil
	case michelson.PolySizeBigMap:
		return prepend(michelson.NewNat(uint64(len(stack[0].(michelson.VBigMap).Entries))), stack[1:]), nil
	case michelson.PolySizeList:
		return prepend(michelson.NewNat(uint64(len(stack[0].(michelson.VList).Vals))), stack[1:]), nil
	case michelson.PolySizeString:
		return prepend(michelson.NewNat(uint64(len(stack[0].(michelson.VString).X))), stack[1:]), nil
	case michelson.PolySizeBytes:
		return prepend(michelson.NewNat(uint64(len(stack[0].(michelson.VBytes).X))), stack[1:]), nil

	case michelson.PolySliceString, michelson.PolySliceBytes:
		return runSlice(instr, stack)

	case michelson.PolyConcatString:
		a, b, rest := stack[0].(michelson.VString), stack[1].(michelson.VString), stack[2:]
		return prepend(michelson.VString{X: a.X + b.X}, rest), nil
	case michelson.PolyConcatBytes:
		a, b, rest := stack[0].(michelson.VBytes), stack[1].(michelson.VBytes), stack[2:]
		return prepend(michelson.VBytes{X: append(append([]byte(nil), a.X...), b.X...)}, rest), nil
	case michelson.PolyConcatStringList:
		list, rest := stack[0].(michelson.VList), stack[1:]
		var sb []byte
		for _, v := range list.Vals {
			sb = append(sb, v.(michelson.VString).X...)
		}
		return prepend(michelson.VString{X: string(sb)}, rest), nil
	case michelson.PolyConcatBytesList:
		list, rest := stack[0].(michelson.VList), stack[1:]
		var bs []byte
		for _, v := range list.Vals {
			bs = append(bs, v.(michelson.VBytes).X...)
		}
		return prepend(michelson.VBytes{X: bs}, rest), nil

	case michelson.PolyCompareAny:
		a, b, rest := stack[0], stack[1], stack[2:]
		return prepend(michelson.NewInt(int64(michelson.CompareValues(a, b))), rest), nil

	default:
		panic("interp: unreachable: unresolved polymorphic instruction")
	}
}

func runSlice(instr michelson.Instr, stack []michelson.Value) ([]michelson.Value, error) {
	offset, length, rest := stack[0].(michelson.VNat).X.Uint64(), stack[1].(michelson.VNat).X.Uint64(), stack[3:]
	if instr.Poly.Kind == michelson.PolySliceString {
		s := stack[2].(michelson.VString).X
		if offset+length > uint64(len(s)) {
			return prepend(michelson.NewNone(michelson.Tc(michelson.CTString)), rest), nil
		}
		return prepend(michelson.NewSome(michelson.VString{X: s[offset : offset+length]}), rest), nil
	}
	b := stack[2].(michelson.VBytes).X
	if offset+length > uint64(len(b)) {
		return prepend(michelson.NewNone(michelson.Tc(michelson.CTBytes)), rest), nil
	}
	return prepend(michelson.NewSome(michelson.VBytes{X: append([]byte(nil), b[offset:offset+length]...)}), rest), nil
}

func runArith(instr michelson.Instr, stack []michelson.Value) ([]michelson.Value, error) {
	a, b, rest := stack[0], stack[1], stack[2:]
	switch instr.Poly.Kind {
	case michelson.PolyArithMutezMutez:
		av, bv := a.(michelson.VMutez).X, b.(michelson.VMutez).X
		sum := av + bv
		if instr.Op == michelson.SUB {
			sum = av - bv
		}
		if sum < 0 || (instr.Op == michelson.ADD && sum < av) {
			return nil, RuntimeFailure{Kind: RFMutezOverflow}
		}
		return prepend(michelson.VMutez{X: sum}, rest), nil
	case michelson.PolyArithNatMutez:
		z := new(big.Int).Add(bigOf(a), big.NewInt(b.(michelson.VMutez).X))
		if !z.IsInt64() {
			return nil, RuntimeFailure{Kind: RFMutezOverflow}
		}
		return prepend(michelson.VMutez{X: z.Int64()}, rest), nil
	case michelson.PolyArithMutezNat:
		z := new(big.Int).Add(big.NewInt(a.(michelson.VMutez).X), bigOf(b))
		if !z.IsInt64() {
			return nil, RuntimeFailure{Kind: RFMutezOverflow}
		}
		return prepend(michelson.VMutez{X: z.Int64()}, rest), nil
	case michelson.PolyArithIntTimestamp:
		i, t := a.(michelson.VInt).X.Int64(), b.(michelson.VTimestamp).X
		return prepend(michelson.VTimestamp{X: t + i}, rest), nil
	case michelson.PolyArithTimestampInt:
		t, i := a.(michelson.VTimestamp).X, intOf(b)
		if instr.Op == michelson.SUB {
			return prepend(michelson.VTimestamp{X: t - i}, rest), nil
		}
		return prepend(michelson.VTimestamp{X: t + i}, rest), nil
	case michelson.PolyArithTimestampTimestamp:
		t1, t2 := a.(michelson.VTimestamp).X, b.(michelson.VTimestamp).X
		return prepend(michelson.NewInt(t1-t2), rest), nil
	default:
		x, y := bigOf(a), bigOf(b)
		var z *big.Int
		if instr.Op == michelson.SUB {
			z = new(big.Int).Sub(x, y)
		} else {
			z = new(big.Int).Add(x, y)
		}
		if instr.Poly.ResultT.CT == michelson.CTNat {
			return prepend(michelson.VNat{X: z}, rest), nil
		}
		return prepend(michelson.VInt{X: z}, rest), nil
	}
}

// runMul implements MUL. It cannot share runArith's dispatch because the
// checker tags MUL's int/nat result combinations with the same PolyKind
// values ADD/SUB use for the same type pairs (Design Notes §9) -- only
// the instruction's Op, not its Poly.Kind, tells the two apart.
func runMul(instr michelson.Instr, stack []michelson.Value) ([]michelson.Value, error) {
	a, b, rest := stack[0], stack[1], stack[2:]
	switch instr.Poly.Kind {
	case michelson.PolyArithNatMutez:
		z := new(big.Int).Mul(bigOf(a), big.NewInt(b.(michelson.VMutez).X))
		if !z.IsInt64() {
			return nil, RuntimeFailure{Kind: RFMutezOverflow}
		}
		return prepend(michelson.VMutez{X: z.Int64()}, rest), nil
	case michelson.PolyArithMutezNat:
		z := new(big.Int).Mul(big.NewInt(a.(michelson.VMutez).X), bigOf(b))
		if !z.IsInt64() {
			return nil, RuntimeFailure{Kind: RFMutezOverflow}
		}
		return prepend(michelson.VMutez{X: z.Int64()}, rest), nil
	default:
		z := new(big.Int).Mul(bigOf(a), bigOf(b))
		if instr.Poly.ResultT.CT == michelson.CTNat {
			return prepend(michelson.VNat{X: z}, rest), nil
		}
		return prepend(michelson.VInt{X: z}, rest), nil
	}
}

func intOf(v michelson.Value) int64 {
	switch x := v.(type) {
	case michelson.VInt:
		return x.X.Int64()
	case michelson.VNat:
		return x.X.Int64()
	default:
		panic("interp: unreachable: intOf on non-integer value")
	}
}

func bigOf(v michelson.Value) *big.Int {
	switch x := v.(type) {
	case michelson.VInt:
		return x.X
	case michelson.VNat:
		return x.X
	default:
		panic("interp: unreachable: bigOf on non-integer value")
	}
}

func runEDiv(instr michelson.Instr, stack []michelson.Value) ([]michelson.Value, error) {
	a, b, rest := stack[0], stack[1], stack[2:]
	var x, y *big.Int
	switch instr.Poly.Kind {
	case michelson.PolyEDivMutezNat:
		x, y = big.NewInt(a.(michelson.VMutez).X), b.(michelson.VNat).X
	case michelson.PolyEDivMutezMutez:
		x, y = big.NewInt(a.(michelson.VMutez).X), big.NewInt(b.(michelson.VMutez).X)
	default:
		x, y = bigOf(a), bigOf(b)
	}
	if y.Sign() == 0 {
		return prepend(michelson.NewNone(instr.Poly.ResultT.Elem()), rest), nil
	}
	q, r := new(big.Int), new(big.Int)
	q.QuoRem(x, y, r)
	if r.Sign() < 0 {
		r.Add(r, new(big.Int).Abs(y))
		q.Sub(q, big.NewInt(1))
	}
	pairT := instr.Poly.ResultT.Elem()
	qT, rT := pairT.Left(), pairT.Right()
	var qVal, rVal michelson.Value
	if qT.CT == michelson.CTNat {
		qVal = michelson.VNat{X: q}
	} else if qT.CT == michelson.CTMutez {
		qVal = michelson.VMutez{X: q.Int64()}
	} else {
		qVal = michelson.VInt{X: q}
	}
	if rT.CT == michelson.CTMutez {
		rVal = michelson.VMutez{X: r.Int64()}
	} else {
		rVal = michelson.VNat{X: r}
	}
	return prepend(michelson.NewSome(michelson.NewPair(qVal, rVal)), rest), nil
}

func runUnaryArith(instr michelson.Instr, stack []michelson.Value) ([]michelson.Value, error) {
	x, rest := stack[0], stack[1:]
	switch instr.Op {
	case michelson.NEG:
		return prepend(michelson.VInt{X: new(big.Int).Neg(bigOf(x))}, rest), nil
	case michelson.ABS:
		return prepend(michelson.VNat{X: new(big.Int).Abs(bigOf(x))}, rest), nil
	case michelson.NOT:
		if b, ok := x.(michelson.VBool); ok {
			return prepend(michelson.VBool{X: !b.X}, rest), nil
		}
		return prepend(michelson.VInt{X: new(big.Int).Not(bigOf(x))}, rest), nil
	case michelson.EQ:
		return prepend(michelson.VBool{X: bigOf(x).Sign() == 0}, rest), nil
	case michelson.NEQ:
		return prepend(michelson.VBool{X: bigOf(x).Sign() != 0}, rest), nil
	case michelson.LT:
		return prepend(michelson.VBool{X: bigOf(x).Sign() < 0}, rest), nil
	case michelson.GT:
		return prepend(michelson.VBool{X: bigOf(x).Sign() > 0}, rest), nil
	case michelson.LE:
		return prepend(michelson.VBool{X: bigOf(x).Sign() <= 0}, rest), nil
	case michelson.GE:
		return prepend(michelson.VBool{X: bigOf(x).Sign() >= 0}, rest), nil
	default:
		panic("interp: unreachable: not a unary arith/logic op")
	}
}

func runBoolBinop(instr michelson.Instr, stack []michelson.Value) ([]michelson.Value, error) {
	a, b, rest := stack[0], stack[1], stack[2:]
	ab, aIsBool := a.(michelson.VBool)
	bb, bIsBool := b.(michelson.VBool)
	if aIsBool && bIsBool {
		var r bool
		switch instr.Op {
		case michelson.AND:
			r = ab.X && bb.X
		case michelson.OR:
			r = ab.X || bb.X
		case michelson.XOR:
			r = ab.X != bb.X
		}
		return prepend(michelson.VBool{X: r}, rest), nil
	}
	x, y := bigOf(a), bigOf(b)
	z := new(big.Int)
	switch instr.Op {
	case michelson.AND:
		z.And(x, y)
	case michelson.OR:
		z.Or(x, y)
	case michelson.XOR:
		z.Xor(x, y)
	}
	return prepend(michelson.VNat{X: z}, rest), nil
}
