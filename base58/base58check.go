package base58

import (
	"crypto/sha256"
	"errors"
)

// ErrChecksum indicates that the checksum of a check-encoded string does
// not verify against the checksum.
var ErrChecksum = errors.New("base58: checksum mismatch")

// ErrInvalidFormat indicates that the check-encoded string has an invalid
// format.
var ErrInvalidFormat = errors.New("base58: invalid format")

func checksum(input []byte) (cksum [4]byte) {
	h := sha256.Sum256(input)
	h2 := sha256.Sum256(h[:])
	copy(cksum[:], h2[:4])
	return
}

// CheckEncode prepends a version prefix to b, appends a 4-byte double
// SHA-256 checksum and base58-encodes the result. Tezos uses this scheme
// with multi-byte prefixes (tz1, tz2, tz3, KT1, ...) to keep human-readable
// address and hash strings self-checking.
func CheckEncode(b []byte, prefix []byte) string {
	buf := make([]byte, 0, len(prefix)+len(b)+4)
	buf = append(buf, prefix...)
	buf = append(buf, b...)
	cksum := checksum(buf)
	buf = append(buf, cksum[:]...)
	return Encode(buf)
}

// CheckDecode decodes a base58-check string with a prefix of prefixLen
// bytes, verifies the checksum and returns the payload without prefix or
// checksum.
func CheckDecode(s string, prefixLen int) (payload []byte, prefix []byte, err error) {
	decoded := Decode(s, nil)
	if decoded == nil {
		return nil, nil, ErrInvalidFormat
	}
	if len(decoded) < prefixLen+4 {
		return nil, nil, ErrInvalidFormat
	}
	body := decoded[:len(decoded)-4]
	var cksum [4]byte
	copy(cksum[:], decoded[len(decoded)-4:])
	if checksum(body) != cksum {
		return nil, nil, ErrChecksum
	}
	return body[prefixLen:], body[:prefixLen], nil
}
