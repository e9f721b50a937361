// Copyright (c) 2020-2021 Blockwatch Data Inc.
// Copyright (c) 2013-2014 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package base58 implements the Base58 alphabet used by Tezos (and
// Bitcoin) to render raw bytes as human-friendly, error-detecting
// strings.
package base58

import (
	"math/big"
)

const alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

var (
	bigRadix  = big.NewInt(58)
	bigZero   = big.NewInt(0)
	decodeMap [256]int8
)

func init() {
	for i := range decodeMap {
		decodeMap[i] = -1
	}
	for i, c := range alphabet {
		decodeMap[c] = int8(i)
	}
}

// Encode renders b as a base58 string, preserving leading zero bytes as
// leading '1' characters the way Bitcoin/Tezos addresses do.
func Encode(b []byte) string {
	x := new(big.Int).SetBytes(b)

	answer := make([]byte, 0, len(b)*136/100)
	mod := new(big.Int)
	for x.Cmp(bigZero) > 0 {
		x.DivMod(x, bigRadix, mod)
		answer = append(answer, alphabet[mod.Int64()])
	}

	for _, i := range b {
		if i != 0 {
			break
		}
		answer = append(answer, alphabet[0])
	}

	// reverse
	for i, j := 0, len(answer)-1; i < j; i, j = i+1, j-1 {
		answer[i], answer[j] = answer[j], answer[i]
	}

	return string(answer)
}

// Decode decodes a base58 string into bytes. If dst is non-nil and large
// enough the result is written into it (and dst[:n] returned); otherwise a
// freshly allocated slice is returned.
func Decode(s string, dst []byte) []byte {
	answer := big.NewInt(0)
	scratch := new(big.Int)
	for _, r := range s {
		d := int8(-1)
		if r >= 0 && r < 256 {
			d = decodeMap[r]
		}
		if d == -1 {
			return nil
		}
		scratch.SetInt64(int64(d))
		answer.Mul(answer, bigRadix)
		answer.Add(answer, scratch)
	}

	decoded := answer.Bytes()
	var numZeros int
	for numZeros = 0; numZeros < len(s); numZeros++ {
		if s[numZeros] != alphabet[0] {
			break
		}
	}
	flen := numZeros + len(decoded)
	if cap(dst) >= flen {
		dst = dst[:flen]
	} else {
		dst = make([]byte, flen)
	}
	copy(dst[numZeros:], decoded)
	return dst
}
