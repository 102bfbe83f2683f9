package vm

import (
	"math/big"

	"github.com/CityOfZion/neo-ruby-sdk/errors"
)

func opArraySize(e *Engine, op Operation) error {
	it, err := e.pop()
	if err != nil {
		return err
	}
	if a, ok := it.(*Array); ok {
		e.pushInt(big.NewInt(int64(len(a.Items))))
		return nil
	}
	b, err := ToBytes(it)
	if err != nil {
		return err
	}
	e.pushInt(big.NewInt(int64(len(b))))
	return nil
}

// opPack pops n and then n items; the first item popped becomes
// element 0.
func opPack(e *Engine, op Operation) error {
	n, err := e.popDepth(op.Op)
	if err != nil {
		return err
	}
	if n > e.eval.Len() {
		return errors.WithDetailf(ErrStackUnderflow, "PACK %d of %d", n, e.eval.Len())
	}
	a := &Array{Items: make([]Item, n)}
	for i := 0; i < n; i++ {
		a.Items[i], _ = e.pop()
	}
	e.push(a)
	return nil
}

// opUnpack is the inverse of PACK: it pushes the elements so that
// element 0 is on top, then the count.
func opUnpack(e *Engine, op Operation) error {
	a, err := e.popArray()
	if err != nil {
		return err
	}
	for i := len(a.Items) - 1; i >= 0; i-- {
		e.push(a.Items[i])
	}
	e.pushInt(big.NewInt(int64(len(a.Items))))
	return nil
}

func checkIndex(a *Array, i int) error {
	if i < 0 || i >= len(a.Items) {
		return errors.WithDetailf(ErrRange, "index %d of %d", i, len(a.Items))
	}
	return nil
}

// opPickItem pops an index, then a container, and pushes the element.
func opPickItem(e *Engine, op Operation) error {
	i, err := e.popIndex()
	if err != nil {
		return err
	}
	a, err := e.popArray()
	if err != nil {
		return err
	}
	if err := checkIndex(a, i); err != nil {
		return err
	}
	e.push(a.Items[i])
	return nil
}

// opSetItem pops a value, an index and a container, in that order,
// and stores the value in the container. Nothing is pushed.
func opSetItem(e *Engine, op Operation) error {
	v, err := e.pop()
	if err != nil {
		return err
	}
	i, err := e.popIndex()
	if err != nil {
		return err
	}
	a, err := e.popArray()
	if err != nil {
		return err
	}
	if err := checkIndex(a, i); err != nil {
		return err
	}
	a.Items[i] = clone(v)
	return nil
}

// opNewArray implements NEWARRAY and NEWSTRUCT. Given a size it
// makes that many false-valued slots; given an array it converts it.
func opNewArray(e *Engine, op Operation) error {
	isStruct := op.Op == OP_NEWSTRUCT
	it, err := e.pop()
	if err != nil {
		return err
	}
	if a, ok := it.(*Array); ok {
		e.push(&Array{Items: append([]Item(nil), a.Items...), Struct: isStruct})
		return nil
	}
	n, err := ToBigInt(it)
	if err != nil {
		return err
	}
	if n.Sign() < 0 || n.Cmp(big.NewInt(maxArraySize)) > 0 {
		return errors.WithDetailf(ErrRange, "%s of size %s", op.Op, n)
	}
	a := &Array{Items: make([]Item, n.Int64()), Struct: isStruct}
	for i := range a.Items {
		a.Items[i] = Boolean(false)
	}
	e.push(a)
	return nil
}

func opAppend(e *Engine, op Operation) error {
	v, err := e.pop()
	if err != nil {
		return err
	}
	a, err := e.popArray()
	if err != nil {
		return err
	}
	if len(a.Items) >= maxArraySize {
		return errors.WithDetailf(ErrRange, "APPEND to %d items", len(a.Items))
	}
	a.Items = append(a.Items, clone(v))
	return nil
}

func opReverse(e *Engine, op Operation) error {
	a, err := e.popArray()
	if err != nil {
		return err
	}
	for i, j := 0, len(a.Items)-1; i < j; i, j = i+1, j-1 {
		a.Items[i], a.Items[j] = a.Items[j], a.Items[i]
	}
	return nil
}

func opRemove(e *Engine, op Operation) error {
	i, err := e.popIndex()
	if err != nil {
		return err
	}
	a, err := e.popArray()
	if err != nil {
		return err
	}
	if err := checkIndex(a, i); err != nil {
		return err
	}
	a.Items = append(a.Items[:i], a.Items[i+1:]...)
	return nil
}
