package vm

import (
	"math/big"

	"github.com/CityOfZion/neo-ruby-sdk/errors"
)

func opCat(e *Engine, op Operation) error {
	b, err := e.popBytes()
	if err != nil {
		return err
	}
	a, err := e.popBytes()
	if err != nil {
		return err
	}
	if len(a)+len(b) > maxItemSize {
		return errors.WithDetailf(ErrRange, "CAT result of %d bytes", len(a)+len(b))
	}
	res := make([]byte, 0, len(a)+len(b))
	res = append(append(res, a...), b...)
	e.push(ByteArray(res))
	return nil
}

func opSubstr(e *Engine, op Operation) error {
	count, err := e.popDepth(op.Op)
	if err != nil {
		return err
	}
	index, err := e.popDepth(op.Op)
	if err != nil {
		return err
	}
	s, err := e.popBytes()
	if err != nil {
		return err
	}
	if index > len(s) {
		index = len(s)
	}
	end := index + count
	if end > len(s) {
		end = len(s)
	}
	e.push(ByteArray(append([]byte(nil), s[index:end]...)))
	return nil
}

func opLeft(e *Engine, op Operation) error {
	count, err := e.popDepth(op.Op)
	if err != nil {
		return err
	}
	s, err := e.popBytes()
	if err != nil {
		return err
	}
	if count > len(s) {
		count = len(s)
	}
	e.push(ByteArray(append([]byte(nil), s[:count]...)))
	return nil
}

func opRight(e *Engine, op Operation) error {
	count, err := e.popDepth(op.Op)
	if err != nil {
		return err
	}
	s, err := e.popBytes()
	if err != nil {
		return err
	}
	if count > len(s) {
		return errors.WithDetailf(ErrRange, "RIGHT %d of %d bytes", count, len(s))
	}
	e.push(ByteArray(append([]byte(nil), s[len(s)-count:]...)))
	return nil
}

func opSize(e *Engine, op Operation) error {
	s, err := e.popBytes()
	if err != nil {
		return err
	}
	e.pushInt(big.NewInt(int64(len(s))))
	return nil
}

func opInvert(e *Engine, op Operation) error {
	x, err := e.popInt()
	if err != nil {
		return err
	}
	e.pushInt(new(big.Int).Not(x))
	return nil
}

// opBitwise implements AND, OR and XOR with two's-complement
// semantics on unbounded integers.
func opBitwise(e *Engine, op Operation) error {
	b, err := e.popInt()
	if err != nil {
		return err
	}
	a, err := e.popInt()
	if err != nil {
		return err
	}
	res := new(big.Int)
	switch op.Op {
	case OP_AND:
		res.And(a, b)
	case OP_OR:
		res.Or(a, b)
	case OP_XOR:
		res.Xor(a, b)
	}
	e.pushInt(res)
	return nil
}

func opEqual(e *Engine, op Operation) error {
	b, err := e.pop()
	if err != nil {
		return err
	}
	a, err := e.pop()
	if err != nil {
		return err
	}
	e.pushBool(Equals(a, b))
	return nil
}
