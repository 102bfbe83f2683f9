// Package hash256 implements the double SHA-256 digest computed by
// the HASH256 opcode and used for block hashes.
package hash256

import "crypto/sha256"

// Size is the size of a Hash256 checksum in bytes.
const Size = sha256.Size

// Sum returns sha256(sha256(data)).
func Sum(data []byte) [Size]byte {
	inner := sha256.Sum256(data)
	return sha256.Sum256(inner[:])
}
