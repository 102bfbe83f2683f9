// Package hash160 implements the Hash160 digest used to address
// scripts and computed by the HASH160 opcode.
//
// Sum(data) is ripemd160(sha256(data)). A script hash is that digest
// with its byte order reversed, the order in which NEO displays and
// compares script hashes.
package hash160

import (
	"crypto/sha256"

	"golang.org/x/crypto/ripemd160"
)

// Size is the size of a Hash160 checksum in bytes.
const Size = ripemd160.Size

// Sum returns the Hash160 checksum of the data.
func Sum(data []byte) [Size]byte {
	inner := sha256.Sum256(data)
	h := ripemd160.New()
	h.Write(inner[:])
	var sum [Size]byte
	h.Sum(sum[:0])
	return sum
}

// ScriptHash returns the content address of a script.
func ScriptHash(script []byte) [Size]byte {
	sum := Sum(script)
	for i, j := 0, Size-1; i < j; i, j = i+1, j-1 {
		sum[i], sum[j] = sum[j], sum[i]
	}
	return sum
}
