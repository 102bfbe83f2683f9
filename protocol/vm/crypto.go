package vm

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/sha1"
	"crypto/sha256"
	"math/big"

	"github.com/CityOfZion/neo-ruby-sdk/crypto/hash160"
	"github.com/CityOfZion/neo-ruby-sdk/crypto/hash256"
	"github.com/CityOfZion/neo-ruby-sdk/errors"
)

func opHash(e *Engine, op Operation) error {
	x, err := e.popBytes()
	if err != nil {
		return err
	}
	var h []byte
	switch op.Op {
	case OP_SHA1:
		s := sha1.Sum(x)
		h = s[:]
	case OP_SHA256:
		s := sha256.Sum256(x)
		h = s[:]
	case OP_HASH160:
		s := hash160.Sum(x)
		h = s[:]
	case OP_HASH256:
		s := hash256.Sum(x)
		h = s[:]
	}
	e.push(ByteArray(h))
	return nil
}

// VerifySignature checks a 64-byte r||s ECDSA P-256 signature of
// sha256(msg) against a compressed (33-byte) or uncompressed
// (65-byte) public key. Malformed keys and signatures do not verify.
func VerifySignature(msg, sig, pubkey []byte) bool {
	if len(sig) != 64 {
		return false
	}
	var x, y *big.Int
	curve := elliptic.P256()
	switch len(pubkey) {
	case 33:
		x, y = elliptic.UnmarshalCompressed(curve, pubkey)
	case 65:
		x, y = elliptic.Unmarshal(curve, pubkey)
	}
	if x == nil {
		return false
	}
	pub := &ecdsa.PublicKey{Curve: curve, X: x, Y: y}
	digest := sha256.Sum256(msg)
	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:])
	return ecdsa.Verify(pub, digest[:], r, s)
}

func opCheckSig(e *Engine, op Operation) error {
	pubkey, err := e.popBytes()
	if err != nil {
		return err
	}
	sig, err := e.popBytes()
	if err != nil {
		return err
	}
	e.pushBool(VerifySignature(e.container, sig, pubkey))
	return nil
}

// popByteList pops either an array of byte strings, or a count n
// followed by n byte strings.
func (e *Engine) popByteList() ([][]byte, error) {
	it, err := e.pop()
	if err != nil {
		return nil, err
	}
	var items []Item
	if a, ok := it.(*Array); ok {
		items = a.Items
	} else {
		n, err := ToBigInt(it)
		if err != nil {
			return nil, err
		}
		if n.Sign() < 1 || n.Cmp(big.NewInt(int64(e.eval.Len()))) > 0 {
			return nil, errors.WithDetailf(ErrRange, "list of %s items", n)
		}
		for i := int64(0); i < n.Int64(); i++ {
			it, err := e.pop()
			if err != nil {
				return nil, err
			}
			items = append(items, it)
		}
	}
	res := make([][]byte, len(items))
	for i, it := range items {
		b, err := ToBytes(it)
		if err != nil {
			return nil, err
		}
		res[i] = b
	}
	return res, nil
}

// opCheckMultiSig verifies m signatures against n keys. Signatures
// must appear in the same order as the keys they match.
func opCheckMultiSig(e *Engine, op Operation) error {
	keys, err := e.popByteList()
	if err != nil {
		return err
	}
	sigs, err := e.popByteList()
	if err != nil {
		return err
	}
	n, m := len(keys), len(sigs)
	if n == 0 || m == 0 || m > n {
		return errors.WithDetailf(ErrRange, "CHECKMULTISIG %d of %d", m, n)
	}
	i, j := 0, 0
	for i < m && j < n {
		if VerifySignature(e.container, sigs[i], keys[j]) {
			i++
		}
		j++
		if m-i > n-j {
			break
		}
	}
	e.pushBool(i == m)
	return nil
}
