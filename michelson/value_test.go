// Copyright (c) 2020-2021 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package michelson

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareValuesOrdering(t *testing.T) {
	assert.Equal(t, -1, CompareValues(NewInt(1), NewInt(2)))
	assert.Equal(t, 0, CompareValues(NewInt(2), NewInt(2)))
	assert.Equal(t, 1, CompareValues(NewInt(3), NewInt(2)))
	assert.Equal(t, -1, CompareValues(VString{X: "a"}, VString{X: "b"}))
}

func TestMapUpdatedInsertReplaceRemove(t *testing.T) {
	m := NewMap(CTInt, Tc(CTString))

	m1 := m.Updated(NewInt(1), VString{X: "one"})
	v, ok := m1.Get(NewInt(1))
	require.True(t, ok)
	assert.Equal(t, VString{X: "one"}, v)

	m2 := m1.Updated(NewInt(1), VString{X: "uno"})
	v, ok = m2.Get(NewInt(1))
	require.True(t, ok)
	assert.Equal(t, VString{X: "uno"}, v)

	m3 := m2.Updated(NewInt(1), nil)
	_, ok = m3.Get(NewInt(1))
	assert.False(t, ok)

	// m1 must be untouched by later updates (persistent structure).
	v, ok = m1.Get(NewInt(1))
	require.True(t, ok)
	assert.Equal(t, VString{X: "one"}, v)
}

func TestMapKeysStayOrdered(t *testing.T) {
	m := NewMap(CTInt, Tc(CTString))
	m = m.Updated(NewInt(3), VString{X: "three"})
	m = m.Updated(NewInt(1), VString{X: "one"})
	m = m.Updated(NewInt(2), VString{X: "two"})

	require.Len(t, m.Entries, 3)
	assert.Equal(t, int64(1), m.Entries[0].Key.(VInt).X.Int64())
	assert.Equal(t, int64(2), m.Entries[1].Key.(VInt).X.Int64())
	assert.Equal(t, int64(3), m.Entries[2].Key.(VInt).X.Int64())
}

func TestSetDeduplicatesAndOrders(t *testing.T) {
	s := NewSet(CTInt, NewInt(3), NewInt(1), NewInt(1), NewInt(2))
	require.Len(t, s.Vals, 3)
	assert.Equal(t, int64(1), s.Vals[0].(VInt).X.Int64())
	assert.Equal(t, int64(2), s.Vals[1].(VInt).X.Int64())
	assert.Equal(t, int64(3), s.Vals[2].(VInt).X.Int64())
}

func TestOptionIsSome(t *testing.T) {
	none := NewNone(Tc(CTInt))
	assert.False(t, none.IsSome())

	some := NewSome(NewInt(7))
	assert.True(t, some.IsSome())
	assert.Equal(t, NewInt(7), some.Val)
}
