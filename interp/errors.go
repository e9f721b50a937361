// Copyright (c) 2020-2021 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package interp

import (
	"fmt"

	"blockwatch.cc/tzmorley/michelson"
	"blockwatch.cc/tzmorley/tezos"
)

// RuntimeFailureKind enumerates the ways a well-typed contract can still
// fail at runtime (§4.6): FAILWITH, gas exhaustion, and mutez overflow
// are failures; EDIV-by-zero is not (it returns None).
type RuntimeFailureKind byte

const (
	RFMichelsonFailed RuntimeFailureKind = iota
	RFGasExhaustion
	RFMutezOverflow
)

func (k RuntimeFailureKind) String() string {
	switch k {
	case RFMichelsonFailed:
		return "MichelsonFailed"
	case RFGasExhaustion:
		return "MichelsonGasExhaustion"
	case RFMutezOverflow:
		return "MichelsonFailed(arith)"
	default:
		return "RuntimeFailure(?)"
	}
}

// RuntimeFailure is the payload of IEInterpreterFailed: what stopped
// execution of one contract invocation.
type RuntimeFailure struct {
	Kind  RuntimeFailureKind
	Value michelson.Value // meaningful for RFMichelsonFailed
}

func (f RuntimeFailure) Error() string {
	if f.Value != nil {
		return fmt.Sprintf("%s: %s", f.Kind, f.Value.String())
	}
	return f.Kind.String()
}

// InterpreterErrorKind enumerates the five ways interpret() can fail
// before producing an InterpreterRes (§4.6).
type InterpreterErrorKind byte

const (
	IEUnknownContract InterpreterErrorKind = iota
	IEInterpreterFailed
	IEIllTypedContract
	IEIllTypedParameter
	IEUnknownSender
)

// InterpreterError is the sum-typed failure interpret() returns. Exactly
// one of the optional fields is populated, selected by Kind.
type InterpreterError struct {
	Kind InterpreterErrorKind
	Addr tezos.Address

	Failure *RuntimeFailure // IEInterpreterFailed
	TCErr   error           // IEIllTypedContract / IEIllTypedParameter
}

func (e *InterpreterError) Error() string {
	switch e.Kind {
	case IEUnknownContract:
		return fmt.Sprintf("unknown contract: %s", e.Addr)
	case IEInterpreterFailed:
		return fmt.Sprintf("contract %s failed: %s", e.Addr, e.Failure)
	case IEIllTypedContract:
		return fmt.Sprintf("ill-typed contract: %s", e.TCErr)
	case IEIllTypedParameter:
		return fmt.Sprintf("ill-typed parameter: %s", e.TCErr)
	case IEUnknownSender:
		return fmt.Sprintf("unknown sender: %s", e.Addr)
	default:
		return "interpreter error"
	}
}

// IsGasExhaustion reports whether err is the specific failure
// expect_gas_exhaustion (§4.8) matches: IEInterpreterFailed wrapping a
// RuntimeFailure of kind RFGasExhaustion.
func IsGasExhaustion(err error) bool {
	ie, ok := err.(*InterpreterError)
	return ok && ie.Kind == IEInterpreterFailed && ie.Failure != nil && ie.Failure.Kind == RFGasExhaustion
}

// MichelsonFailedAt reports whether err is IEInterpreterFailed(addr, ...)
// with a RFMichelsonFailed payload, returning the failure value so
// expect_michelson_failed's predicate can inspect it.
func MichelsonFailedAt(err error, addr tezos.Address) (michelson.Value, bool) {
	ie, ok := err.(*InterpreterError)
	if !ok || ie.Kind != IEInterpreterFailed || !ie.Addr.Equal(addr) {
		return nil, false
	}
	if ie.Failure == nil || ie.Failure.Kind != RFMichelsonFailed {
		return nil, false
	}
	return ie.Failure.Value, true
}
