package hash160

import (
	"encoding/hex"
	"testing"
)

func TestSum(t *testing.T) {
	// ripemd160(sha256("")) as published for Bitcoin's HASH160.
	const want = "b472a266d0bd89c13706a4132ccfb16f7c3b9fcb"
	got := Sum(nil)
	if hex.EncodeToString(got[:]) != want {
		t.Fatalf("Sum(nil) = %x want %s", got, want)
	}
}

func TestScriptHash(t *testing.T) {
	script := []byte{0x52, 0x52, 0x93}
	sum := Sum(script)
	h := ScriptHash(script)
	for i := range h {
		if h[i] != sum[Size-1-i] {
			t.Fatalf("ScriptHash = %x, not the reverse of %x", h, sum)
		}
	}
	if ScriptHash(script) != h {
		t.Fatal("ScriptHash is not deterministic")
	}
	if ScriptHash([]byte{0x52, 0x52, 0x94}) == h {
		t.Fatal("one-byte change kept the same hash")
	}
}
