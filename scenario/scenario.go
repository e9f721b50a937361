// Copyright (c) 2020-2021 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

// Package scenario implements the integrational scenario driver (C8):
// originate/transfer/validate state machine that batches operations
// against the interpreter and a persistent GState, with composable
// post-hoc validators (§4.8).
package scenario

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"

	"blockwatch.cc/tzmorley/gstate"
	"blockwatch.cc/tzmorley/interp"
	"blockwatch.cc/tzmorley/michelson"
	"blockwatch.cc/tzmorley/tezos"
)

// syntheticBatchHash stands in for the hash of the (unsigned, unmodelled)
// operation that would carry a scenario-level Originate call, the same
// way interp's own syntheticOperationHash stands in for a transfer's.
// Distinct scenarios never share a sequence counter, so this never needs
// to depend on anything but seq itself.
func syntheticBatchHash(seq uint32) []byte {
	h, _ := blake2b.New(20, nil)
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], seq)
	h.Write([]byte("scenario-originate"))
	h.Write(b[:])
	return h.Sum(nil)
}

// TxData is the payload of one transfer (§4.8 "transfer(tx_data, dest)").
// Sender is not named in the distilled contract but TransferOp requires
// one; every caller supplies it explicitly rather than the driver
// guessing an implicit default.
type TxData struct {
	Sender tezos.Address
	Amount int64
	Param  michelson.Value
}

// Scenario is the explicit state+error effect stack the source's monad
// is replaced with (Design Notes §9 "Scenario monad"): now, max_steps,
// gstate, pending queue, and a sticky error that short-circuits every
// subsequent call once set.
type Scenario struct {
	now      int64
	maxSteps int
	gs       gstate.GState
	pending  []interp.Op
	err      *ValidationError

	originationSeq uint32
}

// New starts a scenario with an empty GState. now and maxSteps are the
// defaults used by Validate until overridden by SetNow/SetMaxSteps.
func New(now int64, maxSteps int) *Scenario {
	return &Scenario{now: now, maxSteps: maxSteps, gs: gstate.New()}
}

// SeedAccount installs a simple (non-contract) account directly into the
// scenario's GState, ahead of any validate call. Scenarios need funded
// senders to exist before the first transfer; the source's harness seeds
// its sandbox the same way, outside the monad proper.
func (s *Scenario) SeedAccount(addr tezos.Address, balance int64) {
	if s.err != nil {
		return
	}
	s.gs = s.gs.ApplyUpdates([]gstate.Update{gstate.SimpleAccountCreated{Addr: addr, Balance: balance}})
}

// GState exposes the scenario's current committed snapshot, e.g. for a
// validator written outside the provided library to inspect directly.
func (s *Scenario) GState() gstate.GState { return s.gs }

// Err returns the sticky validation error, if any call has failed.
func (s *Scenario) Err() *ValidationError { return s.err }

func (s *Scenario) nextOriginationNonce() tezos.OriginationNonce {
	s.originationSeq++
	seed := syntheticBatchHash(s.originationSeq)
	return tezos.OriginationNonce{OperationHash: seed, Counter: s.originationSeq}
}

// Originate computes the contract's address deterministically, queues an
// OriginateOp, and returns the address without executing anything yet
// (§4.8: "returns the address without executing yet").
func (s *Scenario) Originate(code michelson.Instr, paramT, storageT michelson.T, initialStorage michelson.Value, balance int64) tezos.Address {
	if s.err != nil {
		return tezos.InvalidAddress
	}
	nonce := s.nextOriginationNonce()
	addr := tezos.NewContractAddress(nonce)
	s.pending = append(s.pending, interp.Originate(interp.OriginateOp{
		Address: addr, Code: code, ParamType: paramT, StorageType: storageT,
		InitialStorage: initialStorage, Balance: balance,
	}))
	return addr
}

// Transfer queues a TransferOp (§4.8 "transfer(tx_data, dest)").
func (s *Scenario) Transfer(tx TxData, dest tezos.Address) {
	if s.err != nil {
		return
	}
	s.pending = append(s.pending, interp.Transfer(interp.TransferOp{
		Sender: tx.Sender, Source: tx.Sender, Dest: dest, Amount: tx.Amount, Param: tx.Param,
	}))
}

// SetDelegate queues a delegate change outside of any contract's own
// SET_DELEGATE, the way a scenario directly controlling an implicit
// account would.
func (s *Scenario) SetDelegate(addr tezos.Address, delegate *tezos.KeyHash) {
	if s.err != nil {
		return
	}
	s.pending = append(s.pending, interp.SetDelegate(interp.SetDelegateOp{Addr: addr, Delegate: delegate}))
}

// SetNow mutates the timestamp used by subsequent Validate calls.
func (s *Scenario) SetNow(now int64) {
	if s.err != nil {
		return
	}
	s.now = now
}

// SetMaxSteps mutates the gas bound used by subsequent Validate calls.
func (s *Scenario) SetMaxSteps(n int) {
	if s.err != nil {
		return
	}
	s.maxSteps = n
}

// Validate flushes the pending queue through the interpreter and applies
// validator to the outcome, per the truth table in §4.8. It is a no-op if
// the scenario has already failed.
func (s *Scenario) Validate(validator Validator) {
	if s.err != nil {
		return
	}
	ops := s.pending
	res, ierr := interp.Interpret(s.now, s.maxSteps, s.gs, ops)
	if ierr != nil {
		ie, ok := ierr.(*interp.InterpreterError)
		if !ok {
			s.fail(&ValidationError{Kind: VEUnexpectedInterpreterError, Raw: ierr})
			return
		}
		if validator.isLeft {
			if validator.left(ie) {
				s.pending = nil
				return
			}
			s.fail(&ValidationError{Kind: VEUnexpectedInterpreterError, Raw: ierr})
			return
		}
		s.fail(&ValidationError{Kind: VEUnexpectedInterpreterError, Raw: ierr})
		return
	}

	if validator.isLeft {
		s.fail(&ValidationError{Kind: VEExpectingInterpreterToFail})
		return
	}
	if err := validator.right(res.GState, res.Updates); err != nil {
		s.fail(&ValidationError{Kind: VEIncorrectUpdates, Raw: err, Updates: res.Updates})
		return
	}
	s.gs = res.GState
	s.pending = nil
}

func (s *Scenario) fail(e *ValidationError) {
	s.err = e
}
