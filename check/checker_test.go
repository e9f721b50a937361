// Copyright (c) 2020-2021 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package check

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blockwatch.cc/tzmorley/michelson"
)

func TestTypecheckDropPairPushNilPair(t *testing.T) {
	prog := []Untyped{
		{Op: michelson.DROP, N: 1},
		{Op: michelson.PUSH, PushType: michelson.Tc(michelson.CTInt), PushVal: &UntypedValue{Int: 42}},
		{Op: michelson.NIL, Type1: michelson.TOperation},
		{Op: michelson.PAIR},
	}
	some, err := TypecheckContract(prog, michelson.TUnit, michelson.Tc(michelson.CTInt))
	require.NoError(t, err)
	require.Len(t, some.Output, 1)
	want := michelson.TPair(michelson.TList(michelson.TOperation), michelson.Tc(michelson.CTInt))
	assert.True(t, some.Output[0].Type.Equal(want))
}

func TestTypecheckAddVsMulSharePolyKind(t *testing.T) {
	input := HST{
		{Type: michelson.Tc(michelson.CTNat)},
		{Type: michelson.Tc(michelson.CTMutez)},
	}
	addProg := []Untyped{{Op: michelson.ADD}}
	addSome, err := Typecheck(addProg, input)
	require.NoError(t, err)

	mulProg := []Untyped{{Op: michelson.MUL}}
	mulSome, err := Typecheck(mulProg, input)
	require.NoError(t, err)

	// Both resolve to the same PolyKind tag (documented quirk, DESIGN.md) --
	// only Op distinguishes them, which is exactly what interp/eval.go relies on.
	assert.Equal(t, addSome.Instr.Poly.Kind, mulSome.Instr.Poly.Kind)
	assert.Equal(t, michelson.ADD, addSome.Instr.Op)
	assert.Equal(t, michelson.MUL, mulSome.Instr.Op)
	assert.True(t, addSome.Output[0].Type.Equal(michelson.Tc(michelson.CTMutez)))
	assert.True(t, mulSome.Output[0].Type.Equal(michelson.Tc(michelson.CTMutez)))
}

func TestTypecheckIllTypedContractRejected(t *testing.T) {
	prog := []Untyped{
		{Op: michelson.DROP, N: 1},
	}
	_, err := TypecheckContract(prog, michelson.TUnit, michelson.Tc(michelson.CTInt))
	assert.Error(t, err)
}

func TestTypecheckIfBranchFailwithConvergesWithMismatchedShape(t *testing.T) {
	// IF { PUSH string "bad"; FAILWITH } { } on a [bool, nat] stack: the
	// true branch's real shape ([string, nat]) never actually materializes
	// since it always fails, so it must converge with the false branch's
	// [nat] rather than being compared against it structurally.
	input := HST{
		{Type: michelson.Tc(michelson.CTBool)},
		{Type: michelson.Tc(michelson.CTNat)},
	}
	failBranch := Untyped{
		Op: "SEQ",
		Seq: []Untyped{
			{Op: michelson.PUSH, PushType: michelson.Tc(michelson.CTString), PushVal: &UntypedValue{Str: "bad"}},
			{Op: michelson.FAILWITH},
		},
	}
	okBranch := Untyped{Op: "SEQ"}
	prog := []Untyped{{Op: michelson.IF, BranchTrue: &failBranch, BranchFalse: &okBranch}}

	some, err := Typecheck(prog, input)
	require.NoError(t, err)
	require.Len(t, some.Output, 1)
	assert.True(t, some.Output[0].Type.Equal(michelson.Tc(michelson.CTNat)))
	assert.False(t, some.Diverges)
}

func TestTypecheckContractAlwaysFailingBodySkipsOutputCheck(t *testing.T) {
	prog := []Untyped{
		{Op: michelson.DROP, N: 1},
		{Op: michelson.PUSH, PushType: michelson.Tc(michelson.CTString), PushVal: &UntypedValue{Str: "rejected"}},
		{Op: michelson.FAILWITH},
	}
	some, err := TypecheckContract(prog, michelson.TUnit, michelson.Tc(michelson.CTInt))
	require.NoError(t, err)
	assert.True(t, some.Diverges)
}

func TestTypecheckCompareRequiresSameType(t *testing.T) {
	input := HST{
		{Type: michelson.Tc(michelson.CTInt)},
		{Type: michelson.Tc(michelson.CTString)},
	}
	_, err := Typecheck([]Untyped{{Op: michelson.COMPARE}}, input)
	assert.Error(t, err)
}
