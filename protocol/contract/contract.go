// Package contract describes the parameter and return types of a
// contract and converts values between Go and the VM at the
// contract's boundary.
package contract

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/CityOfZion/neo-ruby-sdk/errors"
	"github.com/CityOfZion/neo-ruby-sdk/protocol/vm"
)

var (
	ErrUnknownType = errors.New("unknown parameter type")
	ErrCast        = errors.New("cannot convert value")
	ErrHeader      = errors.New("bad contract header")
)

// ParamType is a contract parameter or return type. The values are
// the type codes used in contract manifests.
type ParamType byte

const (
	Signature        ParamType = 0x00
	Boolean          ParamType = 0x01
	Integer          ParamType = 0x02
	Hash160          ParamType = 0x03
	Hash256          ParamType = 0x04
	ByteArray        ParamType = 0x05
	PublicKey        ParamType = 0x06
	String           ParamType = 0x07
	Array            ParamType = 0x10
	InteropInterface ParamType = 0xf0
	Void             ParamType = 0xff
)

var typeNames = map[ParamType]string{
	Signature:        "Signature",
	Boolean:          "Boolean",
	Integer:          "Integer",
	Hash160:          "Hash160",
	Hash256:          "Hash256",
	ByteArray:        "ByteArray",
	PublicKey:        "PublicKey",
	String:           "String",
	Array:            "Array",
	InteropInterface: "InteropInterface",
	Void:             "Void",
}

func (t ParamType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ParamType(0x%02x)", byte(t))
}

// ParseParamType returns the type with the given name.
func ParseParamType(name string) (ParamType, error) {
	name = strings.TrimSpace(name)
	for t, n := range typeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, errors.WithDetailf(ErrUnknownType, "%q", name)
}

// Header is the signature declared in the leading comment of a
// contract source file:
//
//	# return: Boolean
//	# params: Integer, PublicKey, Signature
type Header struct {
	Return ParamType
	Params []ParamType
}

// ParseHeader reads the header comment lines at the top of src.
// Parsing stops at the first line that is not a comment or blank.
// A missing return declaration means Void.
func ParseHeader(src []byte) (Header, error) {
	h := Header{Return: Void}
	sc := bufio.NewScanner(bytes.NewReader(src))
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		if !strings.HasPrefix(text, "#") {
			break
		}
		text = strings.TrimSpace(strings.TrimPrefix(text, "#"))
		i := strings.IndexByte(text, ':')
		if i < 0 {
			continue
		}
		key, val := strings.TrimSpace(text[:i]), strings.TrimSpace(text[i+1:])
		switch key {
		case "return":
			t, err := ParseParamType(val)
			if err != nil {
				return h, errors.WithDetailf(errors.Sub(ErrHeader, err), "line %d", line)
			}
			h.Return = t
		case "params":
			h.Params = nil
			if val == "" {
				continue
			}
			for _, name := range strings.Split(val, ",") {
				t, err := ParseParamType(name)
				if err != nil {
					return h, errors.WithDetailf(errors.Sub(ErrHeader, err), "line %d", line)
				}
				h.Params = append(h.Params, t)
			}
		}
	}
	return h, sc.Err()
}

// Cast converts a result item to the Go value for type t:
//
//	Boolean                       bool
//	Integer                       *big.Int
//	String                        string
//	ByteArray, Signature,
//	PublicKey, Hash256            []byte
//	Hash160                       vm.Hash
//	Array                         []interface{} of the elements' natural values
//	InteropInterface              the host value
//	Void                          nil
func Cast(it vm.Item, t ParamType) (interface{}, error) {
	if t == Void {
		return nil, nil
	}
	if it == nil {
		return nil, errors.WithDetailf(ErrCast, "no result for %s", t)
	}
	switch t {
	case Boolean:
		return vm.ToBool(it), nil
	case Integer:
		n, err := vm.ToBigInt(it)
		if err != nil {
			return nil, errors.Sub(ErrCast, err)
		}
		return new(big.Int).Set(n), nil
	case String:
		b, err := vm.ToBytes(it)
		if err != nil {
			return nil, errors.Sub(ErrCast, err)
		}
		return string(b), nil
	case ByteArray, Signature, PublicKey, Hash256:
		b, err := vm.ToBytes(it)
		if err != nil {
			return nil, errors.Sub(ErrCast, err)
		}
		return append([]byte(nil), b...), nil
	case Hash160:
		b, err := vm.ToBytes(it)
		if err != nil {
			return nil, errors.Sub(ErrCast, err)
		}
		if len(b) != vm.HashSize {
			return nil, errors.WithDetailf(ErrCast, "Hash160 of %d bytes", len(b))
		}
		var h vm.Hash
		copy(h[:], b)
		return h, nil
	case Array:
		a, ok := it.(*vm.Array)
		if !ok {
			return nil, errors.WithDetailf(ErrCast, "%s is not an array", it)
		}
		res := make([]interface{}, len(a.Items))
		for i, el := range a.Items {
			v, err := Cast(el, naturalType(el))
			if err != nil {
				return nil, err
			}
			res[i] = v
		}
		return res, nil
	case InteropInterface:
		ii, ok := it.(vm.InteropItem)
		if !ok {
			return nil, errors.WithDetailf(ErrCast, "%s is not an interop item", it)
		}
		return ii.Value, nil
	}
	return nil, errors.WithDetailf(ErrUnknownType, "%s", t)
}

func naturalType(it vm.Item) ParamType {
	switch it.(type) {
	case vm.Boolean:
		return Boolean
	case vm.Integer:
		return Integer
	case *vm.Array:
		return Array
	case vm.InteropItem:
		return InteropInterface
	}
	return ByteArray
}

// ParseArg converts a textual argument, such as one given on a
// command line, to a value accepted by vmutil.Builder.EmitPush.
// Byte-valued types are written in hex.
func ParseArg(s string, t ParamType) (interface{}, error) {
	switch t {
	case Boolean:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, errors.WithDetailf(ErrCast, "boolean %q", s)
		}
		return b, nil
	case Integer:
		n, ok := new(big.Int).SetString(s, 0)
		if !ok {
			return nil, errors.WithDetailf(ErrCast, "integer %q", s)
		}
		return n, nil
	case String:
		return s, nil
	case ByteArray, Signature, PublicKey, Hash160, Hash256:
		b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
		if err != nil {
			return nil, errors.WithDetailf(ErrCast, "%s %q", t, s)
		}
		return b, nil
	}
	return nil, errors.WithDetailf(ErrCast, "cannot pass %s arguments", t)
}
