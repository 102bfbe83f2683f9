package main

import (
	"math/big"
	"testing"

	"github.com/CityOfZion/neo-ruby-sdk/errors"
	"github.com/CityOfZion/neo-ruby-sdk/protocol/contract"
	"github.com/CityOfZion/neo-ruby-sdk/testutil"
)

func TestParseArgs(t *testing.T) {
	got, err := parseArgs([]string{"5", "00ff", "hi"}, []contract.ParamType{contract.Integer, contract.ByteArray, contract.String})
	if err != nil {
		t.Fatal(err)
	}
	testutil.ExpectEqual(t, got, []interface{}{big.NewInt(5), []byte{0, 0xff}, "hi"}, "typed")

	got, err = parseArgs([]string{"12", "Boolean:true", "ByteArray:0x01", "abc", "x:y"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	testutil.ExpectEqual(t, got, []interface{}{big.NewInt(12), true, []byte{1}, "abc", "x:y"}, "untyped")

	_, err = parseArgs([]string{"1"}, []contract.ParamType{contract.Integer, contract.Integer})
	if !errors.Is(err, contract.ErrCast) {
		t.Errorf("arity err = %v", err)
	}
	_, err = parseArgs([]string{"one"}, []contract.ParamType{contract.Integer})
	if !errors.Is(err, contract.ErrCast) {
		t.Errorf("parse err = %v", err)
	}
}

func TestFormatResult(t *testing.T) {
	cases := []struct {
		v    interface{}
		want string
	}{
		{big.NewInt(-3), "-3"},
		{true, "true"},
		{"hello", "hello"},
		{[]byte{0xca, 0xfe}, "cafe"},
		{[]interface{}{big.NewInt(1), []byte{2}}, "[1, 02]"},
		{nil, "nil"},
	}
	for _, c := range cases {
		if got := formatResult(c.v); got != c.want {
			t.Errorf("formatResult(%v) = %q want %q", c.v, got, c.want)
		}
	}
}
