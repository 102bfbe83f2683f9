package sqlstore

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/CityOfZion/neo-ruby-sdk/encoding/bytearray"
	"github.com/CityOfZion/neo-ruby-sdk/errors"
	"github.com/CityOfZion/neo-ruby-sdk/protocol/simulation"
	"github.com/CityOfZion/neo-ruby-sdk/protocol/vm"
)

var ErrCorrupt = errors.New("corrupt stored value")

// Item kinds in the stored encoding.
const (
	kindBytes uint8 = iota
	kindInt
	kindBool
	kindArray
	kindStruct
)

// storedItem is the CBOR form of a vm.Item. Integers are
// little-endian two's complement, as on the evaluation stack.
type storedItem struct {
	Kind  uint8        `cbor:"1,keyasint"`
	Bytes []byte       `cbor:"2,keyasint,omitempty"`
	Items []storedItem `cbor:"3,keyasint,omitempty"`
}

var encMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("sqlstore: CBOR enc mode: %v", err))
	}
	encMode = em
}

func toStored(it vm.Item, open map[*vm.Array]bool) (storedItem, error) {
	switch v := it.(type) {
	case vm.ByteArray:
		return storedItem{Kind: kindBytes, Bytes: v}, nil
	case vm.Integer:
		return storedItem{Kind: kindInt, Bytes: bytearray.FromInt(v.Big())}, nil
	case vm.Boolean:
		s := storedItem{Kind: kindBool}
		if v {
			s.Bytes = []byte{1}
		}
		return s, nil
	case *vm.Array:
		if open[v] {
			return storedItem{}, errors.WithDetail(simulation.ErrNotStorable, "array contains itself")
		}
		if open == nil {
			open = make(map[*vm.Array]bool)
		}
		open[v] = true
		defer delete(open, v)
		s := storedItem{Kind: kindArray}
		if v.Struct {
			s.Kind = kindStruct
		}
		for _, el := range v.Items {
			e, err := toStored(el, open)
			if err != nil {
				return s, err
			}
			s.Items = append(s.Items, e)
		}
		return s, nil
	}
	return storedItem{}, errors.WithDetailf(simulation.ErrNotStorable, "%v", it)
}

func (s storedItem) item() (vm.Item, error) {
	switch s.Kind {
	case kindBytes:
		return vm.ByteArray(s.Bytes), nil
	case kindInt:
		return vm.NewBigInt(bytearray.ByteArray(s.Bytes).Int()), nil
	case kindBool:
		return vm.Boolean(len(s.Bytes) > 0), nil
	case kindArray, kindStruct:
		a := &vm.Array{Struct: s.Kind == kindStruct, Items: make([]vm.Item, len(s.Items))}
		for i, el := range s.Items {
			it, err := el.item()
			if err != nil {
				return nil, err
			}
			a.Items[i] = it
		}
		return a, nil
	}
	return nil, errors.WithDetailf(ErrCorrupt, "item kind %d", s.Kind)
}

// EncodeItem returns the stored form of it. Interop items cannot be
// stored.
func EncodeItem(it vm.Item) ([]byte, error) {
	s, err := toStored(it, nil)
	if err != nil {
		return nil, err
	}
	b, err := encMode.Marshal(s)
	return b, errors.Wrap(err, "encoding item")
}

// DecodeItem parses a value written by EncodeItem.
func DecodeItem(b []byte) (vm.Item, error) {
	var s storedItem
	if err := cbor.Unmarshal(b, &s); err != nil {
		return nil, errors.Sub(ErrCorrupt, err)
	}
	return s.item()
}
