// Copyright (c) 2020-2021 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package tezos

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
)

// HashKey derives a public key hash from a public key the same way the
// reference client does: blake2b with a 20-byte digest size over the raw
// encoded point.
func HashKey(k Key) []byte {
	h, _ := blake2b.New(20, nil)
	h.Write(k.Data)
	return h.Sum(nil)
}

// OriginationNonce identifies one contract origination within a batch of
// operations: the originating operation's hash plus the index of this
// origination among the operations it produced (an origination counter,
// the same disambiguator the reference node uses so that two contracts
// originated by the same operation -- or in the same simulated batch --
// never collide). See DESIGN.md for the open question this resolves.
type OriginationNonce struct {
	OperationHash []byte
	Counter       uint32
}

// ContractHash deterministically derives a KT1 contract hash from an
// origination nonce: blake2b-160 of the operation hash concatenated with
// a big-endian origination counter, mirroring how the reference client
// derives KT1 addresses from (operation_hash, origination_index).
func ContractHash(nonce OriginationNonce) []byte {
	h, _ := blake2b.New(20, nil)
	h.Write(nonce.OperationHash)
	var ctr [4]byte
	binary.BigEndian.PutUint32(ctr[:], nonce.Counter)
	h.Write(ctr[:])
	return h.Sum(nil)
}

// NewContractAddress wraps ContractHash into a ready-to-use KT1 Address.
func NewContractAddress(nonce OriginationNonce) Address {
	return Address{Type: AddressTypeContract, Hash: ContractHash(nonce)}
}
