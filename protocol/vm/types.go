package vm

import (
	"bytes"
	"fmt"
	"math/big"
	"reflect"
	"strings"

	"github.com/CityOfZion/neo-ruby-sdk/encoding/bytearray"
	"github.com/CityOfZion/neo-ruby-sdk/errors"
)

// Item is a value on the evaluation or alt stack. It is one of
// Integer, Boolean, ByteArray, *Array or InteropItem.
type Item interface {
	fmt.Stringer
	isItem()
}

type (
	// Integer is an arbitrary-precision integer. The wrapped value is
	// never mutated after construction.
	Integer struct{ v *big.Int }

	Boolean bool

	ByteArray []byte

	// Array is a mutable, reference-typed list of items. Struct arrays
	// (made by NEWSTRUCT) compare by value rather than identity.
	Array struct {
		Items  []Item
		Struct bool
	}

	// InteropItem carries an opaque host value, such as a storage
	// context or a block header, through the stacks.
	InteropItem struct{ Value interface{} }
)

func (Integer) isItem()     {}
func (Boolean) isItem()     {}
func (ByteArray) isItem()   {}
func (*Array) isItem()      {}
func (InteropItem) isItem() {}

// NewInt returns an Integer item holding n.
func NewInt(n int64) Integer { return Integer{big.NewInt(n)} }

// NewBigInt returns an Integer item holding a copy of n.
func NewBigInt(n *big.Int) Integer { return Integer{new(big.Int).Set(n)} }

// Big returns the integer value. Callers must not modify it.
func (i Integer) Big() *big.Int {
	if i.v == nil {
		return new(big.Int)
	}
	return i.v
}

func (i Integer) String() string     { return i.Big().String() }
func (b Boolean) String() string     { return fmt.Sprint(bool(b)) }
func (b ByteArray) String() string   { return fmt.Sprintf("0x%x", []byte(b)) }
func (i InteropItem) String() string { return fmt.Sprintf("<%T>", i.Value) }

func (a *Array) String() string {
	parts := make([]string, len(a.Items))
	for i, it := range a.Items {
		parts[i] = it.String()
	}
	if a.Struct {
		return "{" + strings.Join(parts, " ") + "}"
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// ToBigInt coerces it to an integer. Byte arrays are decoded as
// little-endian two's complement; booleans become 1 or 0.
func ToBigInt(it Item) (*big.Int, error) {
	switch v := it.(type) {
	case Integer:
		return v.Big(), nil
	case Boolean:
		if v {
			return big.NewInt(1), nil
		}
		return new(big.Int), nil
	case ByteArray:
		return bytearray.ByteArray(v).Int(), nil
	}
	return nil, errors.WithDetailf(ErrBadValue, "cannot use %T as an integer", it)
}

// ToBool coerces it to a boolean. Integers are true when nonzero,
// byte arrays when any byte is nonzero. Arrays and interop items
// are always true.
func ToBool(it Item) bool {
	switch v := it.(type) {
	case Integer:
		return v.Big().Sign() != 0
	case Boolean:
		return bool(v)
	case ByteArray:
		for _, b := range v {
			if b != 0 {
				return true
			}
		}
		return false
	}
	return true
}

// ToBytes coerces it to a byte string.
func ToBytes(it Item) ([]byte, error) {
	switch v := it.(type) {
	case Integer:
		return bytearray.FromInt(v.Big()), nil
	case Boolean:
		if v {
			return []byte{1}, nil
		}
		return []byte{}, nil
	case ByteArray:
		return v, nil
	}
	return nil, errors.WithDetailf(ErrBadValue, "cannot use %T as bytes", it)
}

// Equals implements EQUAL. Primitive items compare by their byte
// encoding, arrays by identity, structs element-wise.
func Equals(a, b Item) bool {
	switch av := a.(type) {
	case *Array:
		bv, ok := b.(*Array)
		if !ok {
			return false
		}
		if av == bv {
			return true
		}
		if !av.Struct || !bv.Struct || len(av.Items) != len(bv.Items) {
			return false
		}
		for i := range av.Items {
			if !Equals(av.Items[i], bv.Items[i]) {
				return false
			}
		}
		return true
	case InteropItem:
		bv, ok := b.(InteropItem)
		if !ok {
			return false
		}
		if av.Value == nil || bv.Value == nil {
			return av.Value == bv.Value
		}
		if !reflect.TypeOf(av.Value).Comparable() || reflect.TypeOf(av.Value) != reflect.TypeOf(bv.Value) {
			return false
		}
		return av.Value == bv.Value
	}
	ab, err := ToBytes(a)
	if err != nil {
		return false
	}
	bb, err := ToBytes(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}

// clone copies a struct item deeply and returns other items as-is.
// Structs have value semantics when pushed into arrays.
func clone(it Item) Item {
	a, ok := it.(*Array)
	if !ok || !a.Struct {
		return it
	}
	c := &Array{Items: make([]Item, len(a.Items)), Struct: true}
	for i, v := range a.Items {
		c.Items[i] = clone(v)
	}
	return c
}

// ItemOf converts a Go value to a stack item. It accepts Items,
// bool, int, int64, *big.Int, string, []byte and slices of those.
func ItemOf(v interface{}) (Item, error) {
	switch v := v.(type) {
	case Item:
		return v, nil
	case bool:
		return Boolean(v), nil
	case int:
		return NewInt(int64(v)), nil
	case int64:
		return NewInt(v), nil
	case *big.Int:
		return NewBigInt(v), nil
	case string:
		return ByteArray(v), nil
	case []byte:
		return ByteArray(v), nil
	case bytearray.ByteArray:
		return ByteArray(v), nil
	case []interface{}:
		a := &Array{Items: make([]Item, len(v))}
		for i, x := range v {
			it, err := ItemOf(x)
			if err != nil {
				return nil, err
			}
			a.Items[i] = it
		}
		return a, nil
	}
	return nil, errors.WithDetailf(ErrBadValue, "no stack item for %T", v)
}
