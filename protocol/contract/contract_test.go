package contract

import (
	"bytes"
	"math/big"
	"reflect"
	"testing"

	"github.com/CityOfZion/neo-ruby-sdk/errors"
	"github.com/CityOfZion/neo-ruby-sdk/protocol/vm"
)

func TestParamTypeNames(t *testing.T) {
	for typ, name := range typeNames {
		got, err := ParseParamType(name)
		if err != nil || got != typ {
			t.Errorf("ParseParamType(%q) = %s, %v want %s", name, got, err, typ)
		}
	}
	if _, err := ParseParamType("Float"); errors.Root(err) != ErrUnknownType {
		t.Errorf("Float err = %v", err)
	}
	if Hash160 != 0x03 || InteropInterface != 0xf0 || Void != 0xff {
		t.Error("type codes changed")
	}
}

func TestParseHeader(t *testing.T) {
	cases := []struct {
		src  string
		want Header
	}{
		{
			"# return: Boolean\n# params: Integer, PublicKey, Signature\n\ndef main(a, b, c)\nend\n",
			Header{Return: Boolean, Params: []ParamType{Integer, PublicKey, Signature}},
		},
		{
			"def main\n# return: Integer\nend\n",
			Header{Return: Void},
		},
		{
			"# frozen\n#   return:   String  \n",
			Header{Return: String},
		},
		{
			"# params:\n",
			Header{Return: Void},
		},
	}
	for _, c := range cases {
		got, err := ParseHeader([]byte(c.src))
		if err != nil {
			t.Errorf("ParseHeader(%q): %v", c.src, err)
			continue
		}
		if !reflect.DeepEqual(got, c.want) {
			t.Errorf("ParseHeader(%q) = %+v want %+v", c.src, got, c.want)
		}
	}

	_, err := ParseHeader([]byte("# params: Integer, Decimal\n"))
	if errors.Root(err) != ErrHeader {
		t.Errorf("bad params err = %v want %v", err, ErrHeader)
	}
}

func TestCast(t *testing.T) {
	var h vm.Hash
	h[0] = 7
	cases := []struct {
		item vm.Item
		typ  ParamType
		want interface{}
	}{
		{vm.NewInt(0), Boolean, false},
		{vm.NewInt(3), Boolean, true},
		{vm.Boolean(true), Boolean, true},
		{vm.ByteArray{0x2a}, Integer, big.NewInt(42)},
		{vm.NewInt(-5), Integer, big.NewInt(-5)},
		{vm.ByteArray("hi"), String, "hi"},
		{vm.NewInt(1), ByteArray, []byte{1}},
		{vm.ByteArray(h[:]), Hash160, h},
		{&vm.Array{Items: []vm.Item{vm.NewInt(1), vm.Boolean(false), vm.ByteArray("x")}}, Array,
			[]interface{}{big.NewInt(1), false, []byte("x")}},
		{vm.InteropItem{Value: "ctx"}, InteropInterface, "ctx"},
		{vm.NewInt(9), Void, nil},
	}
	for _, c := range cases {
		got, err := Cast(c.item, c.typ)
		if err != nil {
			t.Errorf("Cast(%s, %s): %v", c.item, c.typ, err)
			continue
		}
		if !reflect.DeepEqual(got, c.want) {
			t.Errorf("Cast(%s, %s) = %#v want %#v", c.item, c.typ, got, c.want)
		}
	}

	bad := []struct {
		item vm.Item
		typ  ParamType
	}{
		{&vm.Array{}, Integer},
		{vm.NewInt(1), Array},
		{vm.ByteArray{1, 2}, Hash160},
		{nil, Integer},
		{vm.NewInt(1), InteropInterface},
	}
	for _, c := range bad {
		if _, err := Cast(c.item, c.typ); errors.Root(err) != ErrCast {
			t.Errorf("Cast(%v, %s) err = %v want %v", c.item, c.typ, err, ErrCast)
		}
	}
}

func TestParseArg(t *testing.T) {
	cases := []struct {
		s    string
		typ  ParamType
		want interface{}
	}{
		{"true", Boolean, true},
		{"41", Integer, big.NewInt(41)},
		{"0x10", Integer, big.NewInt(16)},
		{"hello", String, "hello"},
		{"0xcafe", ByteArray, []byte{0xca, 0xfe}},
		{"00ff", PublicKey, []byte{0, 0xff}},
	}
	for _, c := range cases {
		got, err := ParseArg(c.s, c.typ)
		if err != nil {
			t.Errorf("ParseArg(%q, %s): %v", c.s, c.typ, err)
			continue
		}
		if n, ok := got.(*big.Int); ok {
			if n.Cmp(c.want.(*big.Int)) != 0 {
				t.Errorf("ParseArg(%q) = %s", c.s, n)
			}
			continue
		}
		if b, ok := got.([]byte); ok {
			if !bytes.Equal(b, c.want.([]byte)) {
				t.Errorf("ParseArg(%q) = %x", c.s, b)
			}
			continue
		}
		if got != c.want {
			t.Errorf("ParseArg(%q, %s) = %v want %v", c.s, c.typ, got, c.want)
		}
	}
	for _, c := range []struct {
		s   string
		typ ParamType
	}{{"yes!", Boolean}, {"4x", Integer}, {"zz", ByteArray}, {"1", Array}} {
		if _, err := ParseArg(c.s, c.typ); errors.Root(err) != ErrCast {
			t.Errorf("ParseArg(%q, %s) err = %v", c.s, c.typ, err)
		}
	}
}
