// Copyright (c) 2020-2021 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package scenario

import (
	"fmt"

	"github.com/pkg/errors"

	"blockwatch.cc/tzmorley/gstate"
	"blockwatch.cc/tzmorley/interp"
	"blockwatch.cc/tzmorley/michelson"
	"blockwatch.cc/tzmorley/tezos"
)

// ValidationErrorKind enumerates the three ways Validate can fail
// (§4.8's outcome table): the interpreter's result didn't match what the
// validator expected, or a success validator rejected the updates it was
// handed.
type ValidationErrorKind byte

const (
	VEUnexpectedInterpreterError ValidationErrorKind = iota
	VEExpectingInterpreterToFail
	VEIncorrectUpdates
)

// ValidationError is what Scenario.Err returns once a scenario has
// failed; Raw carries the interpreter error or the rejecting validator's
// error, whichever applies.
type ValidationError struct {
	Kind    ValidationErrorKind
	Raw     error
	Updates []gstate.Update
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case VEUnexpectedInterpreterError:
		return fmt.Sprintf("unexpected interpreter error: %s", e.Raw)
	case VEExpectingInterpreterToFail:
		return "expected the interpreter to fail, it succeeded"
	case VEIncorrectUpdates:
		return fmt.Sprintf("incorrect updates: %s", e.Raw)
	default:
		return "validation error"
	}
}

// Validator is the sum type from §4.8: Left wraps a predicate that must
// match the InterpreterError the batch failed with; Right wraps a
// predicate over a successful outcome's GState and update journal.
type Validator struct {
	isLeft bool
	left   func(*interp.InterpreterError) bool
	right  func(gstate.GState, []gstate.Update) error
}

// Left builds a validator expecting the batch to fail with an error
// matching pred.
func Left(pred func(*interp.InterpreterError) bool) Validator {
	return Validator{isLeft: true, left: pred}
}

// Right builds a validator expecting the batch to succeed, and checking
// the resulting GState/update journal with check.
func Right(check func(gstate.GState, []gstate.Update) error) Validator {
	return Validator{right: check}
}

// compose runs a sequence of success validators against the same
// outcome, short-circuiting on the first failure. It is only meaningful
// for Right validators; composing a Left with anything makes no sense
// and compose treats any Left argument as always-failing.
func compose(vs ...Validator) Validator {
	return Right(func(gs gstate.GState, updates []gstate.Update) error {
		for _, v := range vs {
			if v.isLeft {
				return errors.New("scenario: cannot compose a Left validator")
			}
			if err := v.right(gs, updates); err != nil {
				return err
			}
		}
		return nil
	})
}

// expectAnySuccess is the identity success validator: compose(v,
// expectAnySuccess) == v for any success validator v.
func expectAnySuccess() Validator {
	return Right(func(gstate.GState, []gstate.Update) error { return nil })
}

// ExpectAnySuccess is the exported form of expectAnySuccess, the neutral
// element callers reach for directly.
func ExpectAnySuccess() Validator { return expectAnySuccess() }

// Compose is the exported form of compose.
func Compose(vs ...Validator) Validator { return compose(vs...) }

// lastStorageUpdate scans updates in reverse for the last StorageValueSet
// touching addr, since a single invocation or a chained set of
// transfers may set a contract's storage more than once.
func lastStorageUpdate(updates []gstate.Update, addr tezos.Address) (michelson.Value, bool) {
	for i := len(updates) - 1; i >= 0; i-- {
		if su, ok := updates[i].(gstate.StorageValueSet); ok && su.Addr.Equal(addr) {
			return su.Value, true
		}
	}
	return nil, false
}

// ExpectStorageUpdate passes if the last storage write to addr in this
// batch's update journal satisfies pred.
func ExpectStorageUpdate(addr tezos.Address, pred func(michelson.Value) bool) Validator {
	return Right(func(_ gstate.GState, updates []gstate.Update) error {
		v, ok := lastStorageUpdate(updates, addr)
		if !ok {
			return errors.Errorf("scenario: no storage update for %s", addr)
		}
		if !pred(v) {
			return errors.Errorf("scenario: storage update for %s did not satisfy predicate: %s", addr, v)
		}
		return nil
	})
}

// ExpectStorageUpdateConst is ExpectStorageUpdate specialised to exact
// structural equality (michelson.ValuesEqual).
func ExpectStorageUpdateConst(addr tezos.Address, want michelson.Value) Validator {
	return ExpectStorageUpdate(addr, func(got michelson.Value) bool {
		return michelson.ValuesEqual(got, want)
	})
}

// ExpectStorageConst passes if addr's final committed storage (post
// Validate, were it to succeed) equals want; unlike ExpectStorageUpdate
// this reads the resulting GState rather than the journal, so it also
// matches a contract whose storage wasn't touched this batch.
func ExpectStorageConst(addr tezos.Address, want michelson.Value) Validator {
	return Right(func(gs gstate.GState, _ []gstate.Update) error {
		acc, ok := gs.Get(addr)
		if !ok {
			return errors.Errorf("scenario: unknown account %s", addr)
		}
		if acc.Storage == nil || !michelson.ValuesEqual(acc.Storage, want) {
			return errors.Errorf("scenario: storage of %s is %s, want %s", addr, acc.Storage, want)
		}
		return nil
	})
}

// ExpectBalance passes if addr's final balance equals mutez.
func ExpectBalance(addr tezos.Address, mutez int64) Validator {
	return Right(func(gs gstate.GState, _ []gstate.Update) error {
		acc, ok := gs.Get(addr)
		if !ok {
			return errors.Errorf("scenario: unknown account %s", addr)
		}
		if acc.Balance != mutez {
			return errors.Errorf("scenario: balance of %s is %d, want %d", addr, acc.Balance, mutez)
		}
		return nil
	})
}

// ExpectGasExhaustion passes if the batch failed on gas exhaustion.
func ExpectGasExhaustion() Validator {
	return Left(func(ie *interp.InterpreterError) bool {
		return interp.IsGasExhaustion(ie)
	})
}

// ExpectMichelsonFailed passes if addr's contract invocation FAILWITH'd
// with a value satisfying pred.
func ExpectMichelsonFailed(addr tezos.Address, pred func(michelson.Value) bool) Validator {
	return Left(func(ie *interp.InterpreterError) bool {
		v, ok := interp.MichelsonFailedAt(ie, addr)
		return ok && pred(v)
	})
}
