package vm

import (
	"encoding/hex"
	"sort"

	"github.com/CityOfZion/neo-ruby-sdk/crypto/hash160"
	"github.com/CityOfZion/neo-ruby-sdk/errors"
)

// HashSize is the length of a script hash in bytes.
const HashSize = hash160.Size

// Hash is the content address of a script.
type Hash [HashSize]byte

// String returns the hash bytes as hex, in stored order.
func (h Hash) String() string { return hex.EncodeToString(h[:]) }

// IsZero reports whether every byte of h is zero.
func (h Hash) IsZero() bool { return h == Hash{} }

// ParseHash decodes a 40-character hex string, with or without a
// 0x prefix.
func ParseHash(s string) (Hash, error) {
	var h Hash
	if len(s) >= 2 && s[:2] == "0x" {
		s = s[2:]
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, errors.WithDetailf(ErrBadValue, "script hash %q: %v", s, err)
	}
	if len(b) != HashSize {
		return h, errors.WithDetailf(ErrBadValue, "script hash %q has %d bytes", s, len(b))
	}
	copy(h[:], b)
	return h, nil
}

// HashOf returns the script hash of prog.
func HashOf(prog []byte) Hash { return Hash(hash160.ScriptHash(prog)) }

// Script is an immutable program together with its decoded
// operations and content hash.
type Script struct {
	prog []byte
	ops  []Operation
	hash Hash
}

// NewScript decodes prog. The bytes are copied; the Script does not
// alias the caller's slice.
func NewScript(prog []byte) (*Script, error) {
	prog = append([]byte(nil), prog...)
	ops, err := ParseProgram(prog)
	if err != nil {
		return nil, err
	}
	return &Script{prog: prog, ops: ops, hash: HashOf(prog)}, nil
}

// MustScript is like NewScript but panics on decode errors.
// It is intended for scripts built in tests and package init.
func MustScript(prog []byte) *Script {
	s, err := NewScript(prog)
	if err != nil {
		panic(err)
	}
	return s
}

// Bytes returns the raw program. Callers must not modify it.
func (s *Script) Bytes() []byte { return s.prog }

// Hash returns the script's content address.
func (s *Script) Hash() Hash { return s.hash }

// Len returns the program length in bytes.
func (s *Script) Len() int { return len(s.prog) }

// Operations returns the decoded operations. Callers must not
// modify the result.
func (s *Script) Operations() []Operation { return s.ops }

// indexOf returns the index of the operation starting at byte
// address addr. An address equal to the program length maps to
// len(ops), the implicit RET.
func (s *Script) indexOf(addr int) (int, bool) {
	if addr == len(s.prog) {
		return len(s.ops), true
	}
	if addr < 0 || addr > len(s.prog) {
		return 0, false
	}
	i := sort.Search(len(s.ops), func(i int) bool { return int(s.ops[i].Addr) >= addr })
	if i < len(s.ops) && int(s.ops[i].Addr) == addr {
		return i, true
	}
	return 0, false
}
