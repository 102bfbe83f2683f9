package vm

import (
	"bytes"
	"testing"

	"github.com/CityOfZion/neo-ruby-sdk/errors"
)

func TestParseOp(t *testing.T) {
	hash := bytes.Repeat([]byte{0xab}, HashSize)
	cases := []struct {
		prog     []byte
		wantOp   Op
		wantLen  uint32
		wantData []byte
	}{
		{[]byte{0x00}, OP_PUSH0, 1, nil},
		{[]byte{0x51}, OP_PUSH1, 1, nil},
		{[]byte{0x03, 1, 2, 3}, Op(3), 4, []byte{1, 2, 3}},
		{[]byte{0x4c, 2, 9, 9}, OP_PUSHDATA1, 4, []byte{9, 9}},
		{[]byte{0x4d, 1, 2}, OP_PUSHDATA2, 3, []byte{1, 2}},
		{[]byte{0x4e, 1, 2, 3, 4}, OP_PUSHDATA4, 5, []byte{1, 2, 3, 4}},
		{[]byte{0x62, 0xfd, 0xff}, OP_JMP, 3, []byte{0xfd, 0xff}},
		{[]byte{0x65, 3, 0}, OP_CALL, 3, []byte{3, 0}},
		{append([]byte{0x67}, hash...), OP_APPCALL, 21, hash},
		{append([]byte{0x69}, hash...), OP_TAILCALL, 21, hash},
		{[]byte{0x68, 3, 'a', 'b', 'c'}, OP_SYSCALL, 5, []byte("abc")},
		{[]byte{0xff}, Op(0xff), 1, nil},
	}
	for _, c := range cases {
		got, err := ParseOp(c.prog, 0)
		if err != nil {
			t.Errorf("ParseOp(%x): %v", c.prog, err)
			continue
		}
		if got.Op != c.wantOp || got.Len != c.wantLen || !bytes.Equal(got.Data, c.wantData) {
			t.Errorf("ParseOp(%x) = %s len %d, want %s len %d data %x", c.prog, got, got.Len, c.wantOp, c.wantLen, c.wantData)
		}
	}
}

func TestParseOpShort(t *testing.T) {
	progs := [][]byte{
		{0x03, 1, 2},
		{0x4c},
		{0x4c, 5, 1},
		{0x4d, 1},
		{0x62, 0},
		{0x67, 1, 2, 3},
		{0x68},
	}
	for _, prog := range progs {
		if _, err := ParseOp(prog, 0); err != ErrShortProgram {
			t.Errorf("ParseOp(%x) err = %v want %v", prog, err, ErrShortProgram)
		}
		if _, err := NewScript(prog); errors.Root(err) != ErrShortProgram {
			t.Errorf("NewScript(%x) err = %v want %v", prog, err, ErrShortProgram)
		}
	}
}

func TestParseProgramAddresses(t *testing.T) {
	prog := []byte{0x51, 0x02, 7, 7, 0x62, 0xfc, 0xff, 0x66}
	insts, err := ParseProgram(prog)
	if err != nil {
		t.Fatal(err)
	}
	wantAddrs := []uint32{0, 1, 4, 7}
	if len(insts) != len(wantAddrs) {
		t.Fatalf("got %d operations want %d", len(insts), len(wantAddrs))
	}
	var total uint32
	for i, inst := range insts {
		if inst.Addr != wantAddrs[i] {
			t.Errorf("op %d at %d want %d", i, inst.Addr, wantAddrs[i])
		}
		total += inst.Len
	}
	if total != uint32(len(prog)) {
		t.Errorf("operation lengths sum to %d want %d", total, len(prog))
	}
}

func TestOpNames(t *testing.T) {
	for i := 0; i < 256; i++ {
		op := Op(i)
		name := op.String()
		if name == "" {
			t.Errorf("opcode 0x%02x has no name", i)
			continue
		}
		if isUnknown[i] {
			continue
		}
		got, ok := OpByName(name)
		if !ok || got != op {
			t.Errorf("OpByName(%q) = 0x%02x, %v want 0x%02x", name, byte(got), ok, i)
		}
	}
	if op, _ := OpByName("PUSHT"); op != OP_PUSH1 {
		t.Errorf("PUSHT = %s", op)
	}
}

func TestScriptHash(t *testing.T) {
	a := MustScript([]byte{0x51, 0x52})
	b := MustScript([]byte{0x51, 0x52})
	c := MustScript([]byte{0x52, 0x51})
	if a.Hash() != b.Hash() {
		t.Error("equal programs hash differently")
	}
	if a.Hash() == c.Hash() {
		t.Error("different programs hash equally")
	}
	h, err := ParseHash("0x" + a.Hash().String())
	if err != nil || h != a.Hash() {
		t.Errorf("ParseHash(%s) = %s, %v", a.Hash(), h, err)
	}
	if _, err := ParseHash("abcd"); errors.Root(err) != ErrBadValue {
		t.Errorf("short hash err = %v", err)
	}
}

func TestScriptCopiesInput(t *testing.T) {
	prog := []byte{0x51}
	s := MustScript(prog)
	prog[0] = 0x52
	if s.Bytes()[0] != 0x51 {
		t.Error("script aliases caller's slice")
	}
}
