// Copyright (c) 2020-2021 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package check

import (
	"fmt"

	"blockwatch.cc/tzmorley/michelson"
)

// ExtErrorKind enumerates the ways a Morley extension instruction (C5)
// can fail to check, plus the annotation/variable failures shared with
// the core checker's branch-convergence logic (§4.4 error taxonomy).
type ExtErrorKind byte

const (
	ExtLengthMismatch ExtErrorKind = iota
	ExtTypeMismatch
	ExtStkRestMismatch
	ExtVarError
	ExtAnnError
	ExtTyVarMismatch
	ExtTestAssertError
	ExtInvalidStackReference
)

func (k ExtErrorKind) String() string {
	switch k {
	case ExtLengthMismatch:
		return "LengthMismatch"
	case ExtTypeMismatch:
		return "TypeMismatch"
	case ExtStkRestMismatch:
		return "StkRestMismatch"
	case ExtVarError:
		return "VarError"
	case ExtAnnError:
		return "AnnError"
	case ExtTyVarMismatch:
		return "TyVarMismatch"
	case ExtTestAssertError:
		return "TestAssertError"
	case ExtInvalidStackReference:
		return "InvalidStackReference"
	default:
		return "ExtError(?)"
	}
}

// ExtError is one C5 extension-checking failure.
type ExtError struct {
	Kind    ExtErrorKind
	Pos     int // meaningful for ExtTypeMismatch / ExtInvalidStackReference
	StkSize int // meaningful for ExtInvalidStackReference
	Msg     string
}

func (e *ExtError) Error() string {
	switch e.Kind {
	case ExtTypeMismatch:
		return fmt.Sprintf("%s at position %d: %s", e.Kind, e.Pos, e.Msg)
	case ExtInvalidStackReference:
		return fmt.Sprintf("%s: index %d, stack size %d", e.Kind, e.Pos, e.StkSize)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
}

func extErr(kind ExtErrorKind, format string, args ...interface{}) error {
	return &ExtError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func typeMismatch(pos int, format string, args ...interface{}) error {
	return &ExtError{Kind: ExtTypeMismatch, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func invalidStackRef(ref, size int) error {
	return &ExtError{Kind: ExtInvalidStackReference, Pos: ref, StkSize: size}
}

// TCErrorKind enumerates the four shapes a core type-check failure can
// take (§4.4).
type TCErrorKind byte

const (
	TCFailedOnInstr TCErrorKind = iota
	TCFailedOnValue
	TCExtError
	TCUnreachable
)

// TCError is the checker's error type. Exactly one of the optional
// fields is populated, selected by Kind.
type TCError struct {
	Kind TCErrorKind

	// TCFailedOnInstr
	InstrOp  michelson.OpCode
	SomeHST  HST
	Msg      string

	// TCFailedOnValue
	Value      interface{}
	ExpectedT  michelson.T

	// TCExtError
	Ext *ExtError
}

func (e *TCError) Error() string {
	switch e.Kind {
	case TCFailedOnInstr:
		return fmt.Sprintf("type error in %s: %s", e.InstrOp, e.Msg)
	case TCFailedOnValue:
		return fmt.Sprintf("value does not match expected type %s: %s", e.ExpectedT, e.Msg)
	case TCExtError:
		return fmt.Sprintf("extension checker error: %s", e.Ext.Error())
	case TCUnreachable:
		return "internal error: unreachable type checker state: " + e.Msg
	default:
		return "type error"
	}
}

func failedOnInstr(op michelson.OpCode, hst HST, format string, args ...interface{}) error {
	return &TCError{Kind: TCFailedOnInstr, InstrOp: op, SomeHST: hst, Msg: fmt.Sprintf(format, args...)}
}

func failedOnValue(expected michelson.T, format string, args ...interface{}) error {
	return &TCError{Kind: TCFailedOnValue, ExpectedT: expected, Msg: fmt.Sprintf(format, args...)}
}

func extWrap(err error) error {
	if err == nil {
		return nil
	}
	if ee, ok := err.(*ExtError); ok {
		return &TCError{Kind: TCExtError, Ext: ee}
	}
	return err
}

// unreachable panics: a polymorphic-primitive dispatch reaching its
// default case is an internal invariant violation, not a user error
// (§7 "fatal").
func unreachable(msg string) error {
	panic("michelson/check: unreachable: " + msg)
}

var _ = unreachable
