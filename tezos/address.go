// Copyright (c) 2020-2021 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

// Package tezos provides the small set of Tezos primitives the Michelson
// value model depends on: addresses, key hashes, keys and signatures.
// Actual signature verification and key derivation are external
// collaborators here -- this package only carries the tagged-byte
// representations and their base58-check string encodings.
package tezos

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"

	"blockwatch.cc/tzmorley/base58"
)

// ErrUnknownAddressType describes an error where an address cannot be
// decoded because its base58 prefix is not one of the known types.
var ErrUnknownAddressType = errors.New("tezos: unknown address type")

// InvalidAddress is the zero-value, invalid address.
var InvalidAddress = Address{}

// AddressType distinguishes implicit (tz1/tz2/tz3) accounts from
// originated (KT1) contracts.
type AddressType byte

const (
	AddressTypeInvalid AddressType = iota
	AddressTypeEd25519
	AddressTypeSecp256k1
	AddressTypeP256
	AddressTypeContract
)

func (t AddressType) IsValid() bool { return t != AddressTypeInvalid }

func (t AddressType) String() string {
	switch t {
	case AddressTypeEd25519:
		return "tz1"
	case AddressTypeSecp256k1:
		return "tz2"
	case AddressTypeP256:
		return "tz3"
	case AddressTypeContract:
		return "KT1"
	default:
		return "invalid"
	}
}

// base58-check prefixes, as defined by the Tezos client. Each decodes to a
// fixed 20-byte payload (a public key hash, or a contract hash truncated
// the same way).
var addressPrefix = map[AddressType][]byte{
	AddressTypeEd25519:   {6, 161, 159},
	AddressTypeSecp256k1: {6, 161, 161},
	AddressTypeP256:      {6, 161, 164},
	AddressTypeContract:  {2, 90, 121},
}

const addressHashLen = 20

// Address is a tagged 20-byte hash: an implicit account public key hash or
// an originated contract hash.
type Address struct {
	Type AddressType
	Hash []byte
}

// NewAddress builds an address from its type tag and raw 20-byte hash.
func NewAddress(typ AddressType, hash []byte) Address {
	return Address{Type: typ, Hash: hash}
}

// IsValid reports whether a is a well-formed, non-zero-value address.
func (a Address) IsValid() bool {
	return a.Type.IsValid() && len(a.Hash) == addressHashLen
}

// IsContract reports whether a refers to an originated (KT1) contract.
func (a Address) IsContract() bool {
	return a.Type == AddressTypeContract
}

// Equal compares two addresses by tag and hash.
func (a Address) Equal(b Address) bool {
	return a.Type == b.Type && bytes.Equal(a.Hash, b.Hash)
}

// Clone returns a deep copy of a.
func (a Address) Clone() Address {
	h := make([]byte, len(a.Hash))
	copy(h, a.Hash)
	return Address{Type: a.Type, Hash: h}
}

func (a Address) String() string {
	if !a.IsValid() {
		return "invalid address"
	}
	return base58.CheckEncode(a.Hash, addressPrefix[a.Type])
}

// Bytes returns the raw tagged representation used as a Michelson byte
// payload for `address` and `key_hash` values: one tag byte followed by
// the 20-byte hash.
func (a Address) Bytes() []byte {
	buf := make([]byte, 0, 1+len(a.Hash))
	buf = append(buf, byte(a.Type))
	buf = append(buf, a.Hash...)
	return buf
}

// ParseAddress decodes a base58-check encoded address string.
func ParseAddress(s string) (Address, error) {
	if len(s) < 3 {
		return InvalidAddress, ErrUnknownAddressType
	}
	for typ, prefix := range addressPrefix {
		payload, _, err := base58.CheckDecode(s, len(prefix))
		if err != nil {
			continue
		}
		if len(payload) != addressHashLen {
			continue
		}
		// verify the decoded prefix actually matches this type (CheckDecode
		// blindly slices prefixLen bytes off any valid base58-check string).
		enc := base58.CheckEncode(payload, prefix)
		if enc == s {
			return Address{Type: typ, Hash: payload}, nil
		}
	}
	return InvalidAddress, ErrUnknownAddressType
}

// MustParseAddress is ParseAddress, panicking on error. Intended for tests
// and package-level constants.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// UnmarshalBinary decodes the tagged representation produced by Bytes.
func (a *Address) UnmarshalBinary(b []byte) error {
	if len(b) != 1+addressHashLen {
		return fmt.Errorf("tezos: invalid address length %d", len(b))
	}
	typ := AddressType(b[0])
	if !typ.IsValid() {
		return ErrUnknownAddressType
	}
	hash := make([]byte, addressHashLen)
	copy(hash, b[1:])
	a.Type = typ
	a.Hash = hash
	return nil
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(data []byte) error {
	addr, err := ParseAddress(string(data))
	if err != nil {
		return err
	}
	*a = addr
	return nil
}

// HexHash is a convenience accessor used by log lines and error messages.
func (a Address) HexHash() string {
	return hex.EncodeToString(a.Hash)
}
