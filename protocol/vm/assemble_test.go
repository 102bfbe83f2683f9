package vm

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/CityOfZion/neo-ruby-sdk/errors"
)

func TestAssemble(t *testing.T) {
	cases := []struct {
		src  string
		want []byte
	}{
		{"0 1 16 -1", []byte{0x00, 0x51, 0x60, 0x4f}},
		{"17", []byte{0x01, 0x11}},
		{"-2", []byte{0x01, 0xfe}},
		{"128", []byte{0x02, 0x80, 0x00}},
		{"0x0a0b", []byte{0x02, 0x0a, 0x0b}},
		{"'ab'", []byte{0x02, 'a', 'b'}},
		{`'it\'s'`, []byte{0x04, 'i', 't', '\'', 's'}},
		{"'a b'", []byte{0x03, 'a', ' ', 'b'}},
		{"DUP ADD", []byte{0x76, 0x93}},
		{"SYSCALL:'Neo.Runtime.Log'", append([]byte{0x68, 15}, "Neo.Runtime.Log"...)},
		{"JMP:0x0300", []byte{0x62, 0x03, 0x00}},
		{"$top NOP JMP:$top", []byte{0x61, 0x62, 0xff, 0xff}},
		{"JMP:$end NOP $end", []byte{0x62, 0x04, 0x00, 0x61}},
		{"PUSHDATA1:0x0102", []byte{0x4c, 0x02, 0x01, 0x02}},
	}
	for _, c := range cases {
		got, err := Assemble(c.src)
		if err != nil {
			t.Errorf("Assemble(%q): %v", c.src, err)
			continue
		}
		if !bytes.Equal(got, c.want) {
			t.Errorf("Assemble(%q) = %x want %x", c.src, got, c.want)
		}
	}
}

func TestAssembleErrors(t *testing.T) {
	for _, src := range []string{
		"FOO",
		"JMP",
		"JMP:$nowhere",
		"JMP:0x01",
		"ADD:$x",
		"'open",
		"12x",
	} {
		if _, err := Assemble(src); errors.Root(err) != ErrToken {
			t.Errorf("Assemble(%q) err = %v want %v", src, err, ErrToken)
		}
	}
}

func TestDisassembleRoundTrip(t *testing.T) {
	hash := "0x" + MustScript([]byte{0x51}).Hash().String()
	for _, src := range []string{
		"1 2 ADD",
		"0x00ff 'abc' CAT",
		"SYSCALL:'Neo.Storage.Get'",
		"APPCALL:" + hash,
		"JMPIF:0x0300 NOP RET",
		"PUSHDATA2:0x0000",
	} {
		prog, err := Assemble(src)
		if err != nil {
			t.Fatalf("Assemble(%q): %v", src, err)
		}
		text, err := Disassemble(prog)
		if err != nil {
			t.Fatalf("Disassemble(%x): %v", prog, err)
		}
		again, err := Assemble(text)
		if err != nil {
			t.Fatalf("Assemble(%q): %v", text, err)
		}
		if !bytes.Equal(prog, again) {
			t.Errorf("%q -> %q -> %x, want %x", src, text, again, prog)
		}
	}
}

func TestDisassembleFormat(t *testing.T) {
	prog := []byte{0x52, 0x02, 0xca, 0xfe, 0x68, 3, 'a', '.', 'b', 0x62, 3, 0}
	got, err := Disassemble(prog)
	if err != nil {
		t.Fatal(err)
	}
	want := "PUSH2 0xcafe SYSCALL:'a.b' JMP:0x0300"
	if got != want {
		t.Errorf("Disassemble = %q want %q", got, want)
	}
}

func TestPushdata(t *testing.T) {
	cases := []struct {
		n    int64
		want []byte
	}{
		{-1, []byte{0x4f}},
		{0, []byte{0x00}},
		{16, []byte{0x60}},
		{-128, []byte{0x01, 0x80}},
		{255, []byte{0x02, 0xff, 0x00}},
		{1000, []byte{0x02, 0xe8, 0x03}},
	}
	for _, c := range cases {
		if got := PushdataInt(big.NewInt(c.n)); !bytes.Equal(got, c.want) {
			t.Errorf("PushdataInt(%d) = %x want %x", c.n, got, c.want)
		}
	}
	long := bytes.Repeat([]byte{1}, 76)
	if got := PushdataBytes(long); got[0] != byte(OP_PUSHDATA1) || got[1] != 76 || len(got) != 78 {
		t.Errorf("PushdataBytes(76 bytes) prefix = %x", got[:2])
	}
}
