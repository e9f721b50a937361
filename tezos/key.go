// Copyright (c) 2020-2021 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package tezos

// KeyHash is the hash of a public key -- structurally identical to an
// implicit Address, kept as a distinct type because Michelson's
// `key_hash` and `address` are distinct comparable types even though both
// are rendered as tz1/tz2/tz3 strings.
type KeyHash struct {
	Type AddressType
	Hash []byte
}

// ZeroKeyHash is the zero value, used as the default baker/delegate.
var ZeroKeyHash = KeyHash{}

func NewKeyHash(typ AddressType, hash []byte) KeyHash {
	return KeyHash{Type: typ, Hash: hash}
}

func (k KeyHash) IsValid() bool {
	return k.Type.IsValid() && k.Type != AddressTypeContract && len(k.Hash) == addressHashLen
}

func (k KeyHash) Equal(o KeyHash) bool {
	return k.Type == o.Type && string(k.Hash) == string(o.Hash)
}

func (k KeyHash) Address() Address {
	return Address{Type: k.Type, Hash: k.Hash}
}

func (k KeyHash) String() string {
	return k.Address().String()
}

func (k KeyHash) Bytes() []byte {
	return k.Address().Bytes()
}

func ParseKeyHash(s string) (KeyHash, error) {
	a, err := ParseAddress(s)
	if err != nil {
		return ZeroKeyHash, err
	}
	if a.Type == AddressTypeContract {
		return ZeroKeyHash, ErrUnknownAddressType
	}
	return KeyHash{Type: a.Type, Hash: a.Hash}, nil
}

// KeyType distinguishes the three curves Tezos keys may use. Actual
// signature verification is an external collaborator; this package only
// carries the tagged bytes.
type KeyType byte

const (
	KeyTypeEd25519 KeyType = iota
	KeyTypeSecp256k1
	KeyTypeP256
)

func (t KeyType) AddressType() AddressType {
	switch t {
	case KeyTypeSecp256k1:
		return AddressTypeSecp256k1
	case KeyTypeP256:
		return AddressTypeP256
	default:
		return AddressTypeEd25519
	}
}

// Key is an opaque public key: a curve tag plus the raw encoded point.
// Hashing a Key into its KeyHash is assumed to be provided by the
// collaborator that implements HashKey (tz1/tz2/tz3 derivation uses
// blake2b-160 over the raw point in the reference client).
type Key struct {
	Type KeyType
	Data []byte
}

func (k Key) IsValid() bool { return len(k.Data) > 0 }

func (k Key) Bytes() []byte {
	buf := make([]byte, 0, 1+len(k.Data))
	buf = append(buf, byte(k.Type))
	buf = append(buf, k.Data...)
	return buf
}

func (k Key) Equal(o Key) bool {
	return k.Type == o.Type && string(k.Data) == string(o.Data)
}

// Hash derives the public key hash using the package-level HashKey
// collaborator (blake2b-160 in the reference client, wired in hash.go).
func (k Key) Hash() KeyHash {
	return KeyHash{Type: k.Type.AddressType(), Hash: HashKey(k)}
}

// Signature is an opaque cryptographic signature. Verification against a
// Key and a message is an external collaborator outside this core.
type Signature struct {
	Type KeyType
	Data []byte
}

func (s Signature) IsValid() bool { return len(s.Data) > 0 }

func (s Signature) Equal(o Signature) bool {
	return s.Type == o.Type && string(s.Data) == string(o.Data)
}

func (s Signature) Bytes() []byte {
	buf := make([]byte, 0, 1+len(s.Data))
	buf = append(buf, byte(s.Type))
	buf = append(buf, s.Data...)
	return buf
}
