package vmutil

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"testing"

	"github.com/CityOfZion/neo-ruby-sdk/errors"
	"github.com/CityOfZion/neo-ruby-sdk/protocol/vm"
)

func genKey(t *testing.T) (*ecdsa.PrivateKey, []byte) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	return priv, elliptic.MarshalCompressed(elliptic.P256(), priv.X, priv.Y)
}

func sign(t *testing.T, priv *ecdsa.PrivateKey, msg []byte) []byte {
	digest := sha256.Sum256(msg)
	r, s, err := ecdsa.Sign(rand.Reader, priv, digest[:])
	if err != nil {
		t.Fatal(err)
	}
	sig := make([]byte, 64)
	r.FillBytes(sig[:32])
	s.FillBytes(sig[32:])
	return sig
}

// verify runs invocation (push-only) followed by verification and
// reports the boolean left on the stack.
func verify(t *testing.T, invocation, verification, container []byte) bool {
	e := vm.New(nil, nil, vm.WithContainer(container))
	e.LoadScript(vm.MustScript(verification), false)
	e.LoadScript(vm.MustScript(invocation), true)
	if err := e.Execute(context.Background()); err != nil {
		t.Fatal(err)
	}
	top, err := e.EvaluationStack().Peek(0)
	if err != nil {
		t.Fatal(err)
	}
	return vm.ToBool(top)
}

func TestCheckSigScript(t *testing.T) {
	priv, pub := genKey(t)
	msg := []byte("tx")
	verification, err := CheckSigScript(pub)
	if err != nil {
		t.Fatal(err)
	}
	invocation, err := InvocationScript(sign(t, priv, msg))
	if err != nil {
		t.Fatal(err)
	}
	if !verify(t, invocation, verification, msg) {
		t.Error("valid witness rejected")
	}
	if verify(t, invocation, verification, []byte("other")) {
		t.Error("witness accepted for another container")
	}
	if _, err := CheckSigScript(pub[1:]); errors.Root(err) != ErrBadValue {
		t.Errorf("short key err = %v", err)
	}
}

func TestMultiSigScript(t *testing.T) {
	msg := []byte("block")
	var privs []*ecdsa.PrivateKey
	var pubs [][]byte
	for i := 0; i < 3; i++ {
		priv, pub := genKey(t)
		privs = append(privs, priv)
		pubs = append(pubs, pub)
	}
	verification, err := MultiSigScript(pubs, 2)
	if err != nil {
		t.Fatal(err)
	}

	keys, quorum, err := ParseMultiSigScript(verification)
	if err != nil {
		t.Fatal(err)
	}
	if quorum != 2 || len(keys) != 3 {
		t.Fatalf("ParseMultiSigScript = %d keys, quorum %d", len(keys), quorum)
	}

	// Signatures are pushed in key order.
	invocation, err := InvocationScript(sign(t, privs[0], msg), sign(t, privs[2], msg))
	if err != nil {
		t.Fatal(err)
	}
	if !verify(t, invocation, verification, msg) {
		t.Error("2-of-3 witness rejected")
	}

	invocation, err = InvocationScript(sign(t, privs[1], msg))
	if err != nil {
		t.Fatal(err)
	}
	e := vm.New(nil, nil, vm.WithContainer(msg))
	e.LoadScript(vm.MustScript(verification), false)
	e.LoadScript(vm.MustScript(invocation), true)
	if err := e.Execute(context.Background()); err == nil {
		if top, _ := e.EvaluationStack().Peek(0); vm.ToBool(top) {
			t.Error("1 signature satisfied a 2-of-3 script")
		}
	}
}

func TestMultiSigParams(t *testing.T) {
	_, pub := genKey(t)
	cases := []struct {
		keys      [][]byte
		nrequired int
	}{
		{nil, 0},
		{[][]byte{pub}, 0},
		{[][]byte{pub}, 2},
		{[][]byte{pub}, -1},
	}
	for _, c := range cases {
		if _, err := MultiSigScript(c.keys, c.nrequired); errors.Root(err) != ErrBadValue {
			t.Errorf("MultiSigScript(%d keys, %d) err = %v want %v", len(c.keys), c.nrequired, err, ErrBadValue)
		}
	}
	if _, _, err := ParseMultiSigScript([]byte{0x51, 0x51, 0x51, 0x66}); errors.Root(err) != ErrMultisigFormat {
		t.Errorf("parse without CHECKMULTISIG err = %v", err)
	}
}
