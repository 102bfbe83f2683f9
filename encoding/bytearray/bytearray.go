// Package bytearray implements the byte buffer used throughout the
// VM: scripts, operands, stack values and storage keys are all
// ByteArrays.
//
// Integers are encoded as little-endian two's complement using the
// fewest bytes that preserve the sign. Zero encodes as the empty
// array.
package bytearray

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"math/big"
	"strings"

	"github.com/CityOfZion/neo-ruby-sdk/errors"
)

// ErrShort is returned by the fixed-width readers when the
// array holds fewer bytes than the width requires.
var ErrShort = errors.New("byte array too short")

// ByteArray is an ordered, mutable sequence of bytes.
type ByteArray []byte

// FromHex decodes s, which may carry a 0x prefix.
func FromHex(s string) (ByteArray, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.WithDetailf(err, "decoding hex %q", s)
	}
	return ByteArray(b), nil
}

// FromString returns the UTF-8 bytes of s.
func FromString(s string) ByteArray { return ByteArray(s) }

// Append adds bytes to the end of a and returns the updated array.
func (a ByteArray) Append(b ...byte) ByteArray { return append(a, b...) }

// Len returns the number of bytes in a.
func (a ByteArray) Len() int { return len(a) }

// At returns the byte at index i. It panics if i is out of range.
func (a ByteArray) At(i int) byte { return a[i] }

// Set replaces the byte at index i. It panics if i is out of range.
func (a ByteArray) Set(i int, b byte) { a[i] = b }

// Slice returns a copy of a[from:to].
func (a ByteArray) Slice(from, to int) ByteArray {
	return append(ByteArray(nil), a[from:to]...)
}

// Hex renders a as lowercase hex, with a 0x prefix if prefix is set.
func (a ByteArray) Hex(prefix bool) string {
	s := hex.EncodeToString(a)
	if prefix {
		return "0x" + s
	}
	return s
}

// String interprets a as text.
func (a ByteArray) String() string { return string(a) }

// Uint16 reads the first two bytes as a little-endian uint16.
func (a ByteArray) Uint16() (uint16, error) {
	if len(a) < 2 {
		return 0, ErrShort
	}
	return binary.LittleEndian.Uint16(a), nil
}

// Int16 reads the first two bytes as a little-endian int16.
func (a ByteArray) Int16() (int16, error) {
	n, err := a.Uint16()
	return int16(n), err
}

// Uint32 reads the first four bytes as a little-endian uint32.
func (a ByteArray) Uint32() (uint32, error) {
	if len(a) < 4 {
		return 0, ErrShort
	}
	return binary.LittleEndian.Uint32(a), nil
}

// Equal reports whether a and b hold the same bytes.
func (a ByteArray) Equal(b ByteArray) bool { return bytes.Equal(a, b) }

// Reverse returns a reversed copy of a.
func (a ByteArray) Reverse() ByteArray {
	r := make(ByteArray, len(a))
	for i, b := range a {
		r[len(a)-1-i] = b
	}
	return r
}

// Int decodes a as a little-endian two's-complement integer.
func (a ByteArray) Int() *big.Int {
	n := new(big.Int)
	if len(a) == 0 {
		return n
	}
	n.SetBytes(a.Reverse())
	if a[len(a)-1]&0x80 != 0 {
		// negative: subtract 2^(8*len)
		n.Sub(n, new(big.Int).Lsh(big.NewInt(1), uint(8*len(a))))
	}
	return n
}

// FromInt encodes n as minimal little-endian two's complement.
func FromInt(n *big.Int) ByteArray {
	switch n.Sign() {
	case 0:
		return ByteArray{}
	case 1:
		l := n.BitLen()/8 + 1
		b := make([]byte, l)
		n.FillBytes(b)
		return ByteArray(b).Reverse()
	}
	// For n < 0 the width is the one needed by -n-1 plus a sign bit.
	m := new(big.Int).Neg(n)
	m.Sub(m, big.NewInt(1))
	l := m.BitLen()/8 + 1
	v := new(big.Int).Lsh(big.NewInt(1), uint(8*l))
	v.Add(v, n)
	b := make([]byte, l)
	v.FillBytes(b)
	return ByteArray(b).Reverse()
}

// FromInt64 is FromInt for machine integers.
func FromInt64(n int64) ByteArray { return FromInt(big.NewInt(n)) }
