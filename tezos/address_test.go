// Copyright (c) 2020-2021 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package tezos

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressRoundtrip(t *testing.T) {
	cases := []struct {
		addr string
		typ  AddressType
	}{
		{"tz1LggX2HUdvJ1tF4Fvv8fjsrzLeW4Jr9t2Q", AddressTypeEd25519},
		{"tz2VN9n2C56xGLykHCjhNvZQqUeTVisrHjxA", AddressTypeSecp256k1},
		{"tz3Qa3kjWa6B3XgvZcVe24gTfjkc5WZRz59Q", AddressTypeP256},
		{"KT1GyeRktoGPEKsWpchWguyy8FAf3aNHkw2T", AddressTypeContract},
	}
	for _, c := range cases {
		a, err := ParseAddress(c.addr)
		require.NoError(t, err, c.addr)
		assert.Equal(t, c.typ, a.Type)
		assert.True(t, a.IsValid())
		assert.Equal(t, c.addr, a.String())

		var b Address
		require.NoError(t, b.UnmarshalBinary(a.Bytes()))
		assert.True(t, a.Equal(b))
	}
}

func TestAddressInvalid(t *testing.T) {
	_, err := ParseAddress("not-an-address")
	assert.Error(t, err)
	assert.False(t, InvalidAddress.IsValid())
}

func TestContractHashDeterministic(t *testing.T) {
	nonce := OriginationNonce{OperationHash: []byte("op-hash-a"), Counter: 0}
	a1 := NewContractAddress(nonce)
	a2 := NewContractAddress(nonce)
	assert.True(t, a1.Equal(a2))
	assert.True(t, a1.IsContract())

	other := NewContractAddress(OriginationNonce{OperationHash: []byte("op-hash-a"), Counter: 1})
	assert.False(t, a1.Equal(other))
}
