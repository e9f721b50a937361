// Copyright (c) 2020-2021 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package michelson

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvergeCommutative(t *testing.T) {
	a := Concrete("%x", "", "@v", NoNotes, NoNotes)
	b := Concrete("", "", "@v", NoNotes, NoNotes)

	ab, err := Converge(a, b)
	require.NoError(t, err)
	ba, err := Converge(b, a)
	require.NoError(t, err)
	assert.Equal(t, ab, ba)
}

func TestConvergeAssociative(t *testing.T) {
	a := Concrete("%x", "", "", NoNotes)
	b := NoNotes
	c := Concrete("", "", "@v", NoNotes)

	abc1, err := Converge(a, b)
	require.NoError(t, err)
	abc1, err = Converge(abc1, c)
	require.NoError(t, err)

	abc2, err := Converge(b, c)
	require.NoError(t, err)
	abc2, err = Converge(a, abc2)
	require.NoError(t, err)

	assert.Equal(t, abc1, abc2)
}

func TestConvergeIdempotent(t *testing.T) {
	a := Concrete("%x", ":t", "@v", NoNotes)
	aa, err := Converge(a, a)
	require.NoError(t, err)
	assert.Equal(t, a, aa)
}

func TestConvergeWildcard(t *testing.T) {
	a := Concrete("%x", "", "", NoNotes)
	merged, err := Converge(a, NoNotes)
	require.NoError(t, err)
	assert.Equal(t, a, merged)
}

func TestConvergeMismatch(t *testing.T) {
	a := Concrete("%x", "", "", NoNotes)
	b := Concrete("%y", "", "", NoNotes)
	_, err := Converge(a, b)
	assert.Error(t, err)
	var annErr *AnnError
	assert.ErrorAs(t, err, &annErr)
}

func TestDerivePairAnnotationsCommonPrefix(t *testing.T) {
	v, pf, qf := DerivePairAnnotations("", "", "a.x", "a.y")
	assert.Equal(t, "a", v)
	assert.Equal(t, "%x", pf)
	assert.Equal(t, "%y", qf)
}

func TestDerivePairAnnotationsPromote(t *testing.T) {
	v, pf, qf := DerivePairAnnotations("", "%y", "a", "")
	assert.Equal(t, "", v)
	assert.Equal(t, "%a", pf)
	assert.Equal(t, "%y", qf)
}

func TestDeriveCarCdrVar(t *testing.T) {
	assert.Equal(t, "x", DeriveCarCdrVar("%", "%x", "p"))
	assert.Equal(t, "p.x", DeriveCarCdrVar("%%", "%x", "p"))
	assert.Equal(t, "custom", DeriveCarCdrVar("custom", "%x", "p"))
}

func TestDeriveOrSubDefaults(t *testing.T) {
	left, right, lv, rv := DeriveOrSub(NoNotes, "a")
	assert.Equal(t, NoNotes, left)
	assert.Equal(t, NoNotes, right)
	assert.Equal(t, "a.left", lv)
	assert.Equal(t, "a.right", rv)
}

func TestHasOpRejectsContainers(t *testing.T) {
	assert.True(t, HasOp(TOperation))
	assert.False(t, HasOp(Tc(CTInt)))

	assert.Panics(t, func() { TSet(CTInt); TMap(CTInt, TOperation) })
}
