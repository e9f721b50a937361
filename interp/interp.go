// Copyright (c) 2020-2021 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package interp

import (
	"encoding/binary"
	"math/big"

	"golang.org/x/crypto/blake2b"

	"blockwatch.cc/tzmorley/check"
	"blockwatch.cc/tzmorley/gstate"
	"blockwatch.cc/tzmorley/michelson"
	"blockwatch.cc/tzmorley/tezos"
)

// execCtx carries the per-transfer context that AMOUNT/BALANCE/NOW/
// SENDER/SOURCE/SELF/CONTRACT read, plus the resources (gas counter,
// origination nonce source) shared across one interpret() call.
type execCtx struct {
	now        int64
	self       tezos.Address
	selfParamT michelson.T
	amount     int64
	balance    int64
	sender     tezos.Address
	source     tezos.Address

	gs    gstate.GState
	steps *RemainingSteps

	nonceSeed    []byte
	nonceCounter *uint32
}

func (c *execCtx) nextOriginationAddress() tezos.Address {
	*c.nonceCounter++
	return tezos.NewContractAddress(tezos.OriginationNonce{OperationHash: c.nonceSeed, Counter: *c.nonceCounter})
}

// Interpret is the pure entry point (§4.6): it never mutates gs, and
// returns either a new snapshot plus its update journal or a specific
// InterpreterError. Newly emitted operations are appended to the pending
// queue in emission order and processed FIFO, so a contract called
// transitively executes after every operation enqueued ahead of it
// (§5 "breadth-first at equal depth ... in emission order").
func Interpret(now int64, maxSteps int, gs gstate.GState, ops []Op) (InterpreterRes, error) {
	log.Tracef("interpreting batch: %d ops, now=%d max_steps=%d", len(ops), now, maxSteps)
	cur := gs
	var updates []gstate.Update
	steps := NewRemainingSteps(maxSteps)
	queue := append([]Op(nil), ops...)

	for i := 0; len(queue) > 0; i++ {
		op := queue[0]
		queue = queue[1:]

		switch op.Kind {
		case OpOriginate:
			u, err := originate(cur, *op.Originate)
			if err != nil {
				return InterpreterRes{}, err
			}
			updates = append(updates, u)
			cur = cur.ApplyUpdates([]gstate.Update{u})

		case OpTransfer:
			us, emitted, err := transfer(cur, steps, now, i, *op.Transfer)
			if err != nil {
				return InterpreterRes{}, err
			}
			updates = append(updates, us...)
			cur = cur.ApplyUpdates(us)
			queue = append(queue, emitted...)

		case OpDelegate:
			if _, ok := cur.Get(op.SetDelegate.Addr); !ok {
				return InterpreterRes{}, &InterpreterError{Kind: IEUnknownContract, Addr: op.SetDelegate.Addr}
			}
			u := gstate.DelegateSet{Addr: op.SetDelegate.Addr, Delegate: op.SetDelegate.Delegate}
			updates = append(updates, u)
			cur = cur.ApplyUpdates([]gstate.Update{u})
		}
	}

	return InterpreterRes{GState: cur, Updates: updates}, nil
}

func originate(gs gstate.GState, op OriginateOp) (gstate.Update, error) {
	if _, err := check.TypecheckContract([]check.Untyped{instrToUntyped(op.Code)}, op.ParamType, op.StorageType); err != nil {
		return nil, &InterpreterError{Kind: IEIllTypedContract, Addr: op.Address, TCErr: err}
	}
	acc := gstate.NewContract(op.Balance, op.InitialStorage, op.Code, op.ParamType, op.StorageType)
	acc.Delegate = op.Delegate
	return gstate.ContractCreated{Addr: op.Address, Account: acc}, nil
}

// transfer executes one TransferOp and returns the updates it produces
// plus any operations it emits (to be enqueued by the caller).
func transfer(gs gstate.GState, steps *RemainingSteps, now int64, seq int, op TransferOp) ([]gstate.Update, []Op, error) {
	sender, ok := gs.Get(op.Sender)
	if !ok {
		return nil, nil, &InterpreterError{Kind: IEUnknownSender, Addr: op.Sender}
	}
	_ = sender

	dest, ok := gs.Get(op.Dest)
	if !ok {
		return nil, nil, &InterpreterError{Kind: IEUnknownContract, Addr: op.Dest}
	}

	newBalance := dest.Balance + op.Amount
	if newBalance < dest.Balance {
		return nil, nil, &InterpreterError{Kind: IEInterpreterFailed, Addr: op.Dest, Failure: &RuntimeFailure{Kind: RFMutezOverflow}}
	}

	if dest.Kind == gstate.Simple {
		return []gstate.Update{gstate.BalanceUpdated{Addr: op.Dest, New: newBalance}}, nil, nil
	}

	if op.Param != nil && !op.Param.Type().Equal(dest.ParamType) {
		return nil, nil, &InterpreterError{Kind: IEIllTypedParameter, Addr: op.Dest,
			TCErr: &paramTypeErr{got: op.Param.Type(), want: dest.ParamType}}
	}

	ctx := &execCtx{
		now: now, self: op.Dest, selfParamT: dest.ParamType,
		amount: op.Amount, balance: newBalance,
		sender: op.Sender, source: op.Source,
		gs: gs, steps: steps,
		nonceSeed:    syntheticOperationHash(seq, op.Sender, op.Dest),
		nonceCounter: new(uint32),
	}

	param := op.Param
	if param == nil {
		param = michelson.VUnit{}
	}
	initial := []michelson.Value{michelson.NewPair(param, dest.Storage)}
	result, err := run(ctx, dest.Code, initial)
	if err != nil {
		rf, ok := err.(RuntimeFailure)
		if !ok {
			return nil, nil, err
		}
		return nil, nil, &InterpreterError{Kind: IEInterpreterFailed, Addr: op.Dest, Failure: &rf}
	}
	if len(result) != 1 {
		return nil, nil, &InterpreterError{Kind: IEInterpreterFailed, Addr: op.Dest,
			Failure: &RuntimeFailure{Kind: RFMichelsonFailed, Value: michelson.VString{X: "contract did not return exactly one value"}}}
	}
	out, ok := result[0].(michelson.VPair)
	if !ok {
		return nil, nil, &InterpreterError{Kind: IEInterpreterFailed, Addr: op.Dest,
			Failure: &RuntimeFailure{Kind: RFMichelsonFailed, Value: michelson.VString{X: "contract did not return (list(operation), storage)"}}}
	}
	opsList, ok := out.Car.(michelson.VList)
	if !ok {
		return nil, nil, &InterpreterError{Kind: IEInterpreterFailed, Addr: op.Dest,
			Failure: &RuntimeFailure{Kind: RFMichelsonFailed, Value: michelson.VString{X: "contract did not return a list(operation)"}}}
	}

	updates := []gstate.Update{
		gstate.BalanceUpdated{Addr: op.Dest, New: newBalance},
		gstate.StorageValueSet{Addr: op.Dest, Value: out.Cdr},
	}

	emitted := make([]Op, 0, len(opsList.Vals))
	for _, v := range opsList.Vals {
		vop, ok := v.(michelson.VOperation)
		if !ok {
			continue
		}
		emitted = append(emitted, operationToOp(op.Dest, op.Source, vop.Op))
	}

	return updates, emitted, nil
}

func operationToOp(emitter, source tezos.Address, o michelson.Operation) Op {
	switch o.Kind {
	case michelson.OpTransferTokens:
		return Transfer(TransferOp{
			Sender: emitter, Source: source,
			Dest:   o.Transfer.Dest.Addr,
			Amount: o.Transfer.Amount.X,
			Param:  o.Transfer.Parameter,
		})
	case michelson.OpCreateContract:
		return Originate(OriginateOp{
			Address: o.CreateContract.Address, Sender: emitter,
			Code: o.CreateContract.Code, ParamType: o.CreateContract.ParamType,
			StorageType: o.CreateContract.StorageType, InitialStorage: o.CreateContract.InitialStorage,
			Balance: o.CreateContract.Balance.X, Delegate: o.CreateContract.Delegate,
		})
	case michelson.OpCreateAccount:
		return Originate(OriginateOp{
			Address: o.CreateAccount.Address, Sender: emitter,
			Code: michelson.Instr{Op: "SEQ"}, ParamType: michelson.TUnit, StorageType: michelson.TUnit,
			InitialStorage: michelson.VUnit{}, Balance: o.CreateAccount.Balance.X, Delegate: o.CreateAccount.Delegate,
		})
	case michelson.OpSetDelegate:
		return SetDelegate(SetDelegateOp{Addr: emitter, Delegate: o.SetDelegate.Delegate})
	default:
		return Op{}
	}
}

// syntheticOperationHash stands in for the real signed operation's hash
// (out of scope, §1: no binary codec, no crypto primitives): a
// deterministic digest of the batch position and the transfer's
// endpoints, stable across a replay of the same ops slice.
func syntheticOperationHash(seq int, sender, dest tezos.Address) []byte {
	h, _ := blake2b.New(20, nil)
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(seq))
	h.Write(b[:])
	h.Write(sender.Bytes())
	h.Write(dest.Bytes())
	return h.Sum(nil)
}

type paramTypeErr struct {
	got, want michelson.T
}

func (e *paramTypeErr) Error() string {
	return "parameter type " + e.got.String() + " does not match contract parameter type " + e.want.String()
}

// instrToUntyped lets originate() re-typecheck an already-typed Instr
// tree as a sanity gate (OriginateOp already carries a typed Instr, but
// interpret() is the trust boundary, so it checks again rather than
// assume). A typed Instr is trivially its own untyped shadow: every
// operand is already concrete, so round-tripping loses nothing.
func instrToUntyped(i michelson.Instr) check.Untyped {
	u := check.Untyped{Op: i.Op, N: i.N, Type1: i.Type1, Type2: i.Type2}
	for _, s := range i.Seq {
		u.Seq = append(u.Seq, instrToUntyped(s))
	}
	if i.PushVal != nil {
		u.PushType = i.PushType
		uv := valueToUntyped(i.PushVal)
		u.PushVal = &uv
	}
	if i.Body != nil {
		b := instrToUntyped(*i.Body)
		u.Body = &b
	}
	if i.BranchTrue != nil {
		b := instrToUntyped(*i.BranchTrue)
		u.BranchTrue = &b
	}
	if i.BranchFalse != nil {
		b := instrToUntyped(*i.BranchFalse)
		u.BranchFalse = &b
	}
	return u
}

func valueToUntyped(v michelson.Value) check.UntypedValue {
	switch x := v.(type) {
	case michelson.VInt:
		return check.UntypedValue{Int: x.X.Int64()}
	case michelson.VNat:
		return check.UntypedValue{Int: new(big.Int).Set(x.X).Int64()}
	case michelson.VString:
		return check.UntypedValue{Str: x.X}
	case michelson.VBytes:
		return check.UntypedValue{Bytes: x.X}
	case michelson.VMutez:
		return check.UntypedValue{Int: x.X}
	case michelson.VBool:
		return check.UntypedValue{Bool: x.X}
	case michelson.VTimestamp:
		return check.UntypedValue{Int: x.X}
	case michelson.VKeyHash:
		return check.UntypedValue{Str: x.X.String()}
	case michelson.VAddress:
		return check.UntypedValue{Str: x.X.String()}
	case michelson.VUnit:
		return check.UntypedValue{}
	case michelson.VOption:
		if !x.IsSome() {
			return check.UntypedValue{IsSome: false}
		}
		inner := valueToUntyped(x.Val)
		return check.UntypedValue{IsSome: true, Elem: &inner}
	case michelson.VList:
		items := make([]check.UntypedValue, len(x.Vals))
		for i, e := range x.Vals {
			items[i] = valueToUntyped(e)
		}
		return check.UntypedValue{Items: items}
	case michelson.VSet:
		items := make([]check.UntypedValue, len(x.Vals))
		for i, e := range x.Vals {
			items[i] = valueToUntyped(e)
		}
		return check.UntypedValue{Items: items}
	case michelson.VOr:
		inner := valueToUntyped(x.Val)
		return check.UntypedValue{IsLeft: x.IsLeft, Or: &inner}
	case michelson.VPair:
		car, cdr := valueToUntyped(x.Car), valueToUntyped(x.Cdr)
		return check.UntypedValue{Car: &car, Cdr: &cdr}
	case michelson.VMap:
		entries := make([]check.UntypedMapEntry, len(x.Entries))
		for i, e := range x.Entries {
			entries[i] = check.UntypedMapEntry{Key: valueToUntyped(e.Key), Val: valueToUntyped(e.Val)}
		}
		return check.UntypedValue{Entries: entries}
	case michelson.VBigMap:
		entries := make([]check.UntypedMapEntry, len(x.Entries))
		for i, e := range x.Entries {
			entries[i] = check.UntypedMapEntry{Key: valueToUntyped(e.Key), Val: valueToUntyped(e.Val)}
		}
		return check.UntypedValue{Entries: entries}
	case michelson.VLambda:
		body := instrToUntyped(x.Body)
		return check.UntypedValue{LambdaBody: &body}
	default:
		return check.UntypedValue{}
	}
}
