package vm

import (
	"math/big"

	"github.com/CityOfZion/neo-ruby-sdk/errors"
)

func opPushInt(e *Engine, op Operation) error {
	switch {
	case op.Op == OP_PUSH0:
		e.push(NewInt(0))
	case op.Op == OP_PUSHM1:
		e.push(NewInt(-1))
	default:
		e.push(NewInt(int64(op.Op-OP_PUSH1) + 1))
	}
	return nil
}

func opPushData(e *Engine, op Operation) error {
	e.push(ByteArray(op.Data))
	return nil
}

func opDupFromAltStack(e *Engine, op Operation) error {
	it, err := e.alt.Peek(0)
	if err != nil {
		return err
	}
	e.push(it)
	return nil
}

func opToAltStack(e *Engine, op Operation) error {
	it, err := e.pop()
	if err != nil {
		return err
	}
	e.alt.Push(it)
	return nil
}

func opFromAltStack(e *Engine, op Operation) error {
	it, err := e.alt.Pop()
	if err != nil {
		return err
	}
	e.push(it)
	return nil
}

// popDepth pops a stack depth operand, which must not be negative.
func (e *Engine) popDepth(op Op) (int, error) {
	n, err := e.popIndex()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, errors.WithDetailf(ErrRange, "%s with negative index %d", op, n)
	}
	return n, nil
}

func opXDrop(e *Engine, op Operation) error {
	n, err := e.popDepth(op.Op)
	if err != nil {
		return err
	}
	_, err = e.eval.Remove(n)
	return err
}

func opXSwap(e *Engine, op Operation) error {
	n, err := e.popDepth(op.Op)
	if err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	it, err := e.eval.Peek(n)
	if err != nil {
		return err
	}
	top, err := e.eval.Peek(0)
	if err != nil {
		return err
	}
	if err := e.eval.Set(n, top); err != nil {
		return err
	}
	return e.eval.Set(0, it)
}

func opXTuck(e *Engine, op Operation) error {
	n, err := e.popDepth(op.Op)
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.WithDetail(ErrRange, "XTUCK with index 0")
	}
	top, err := e.eval.Peek(0)
	if err != nil {
		return err
	}
	return e.eval.Insert(n, top)
}

func opDepth(e *Engine, op Operation) error {
	e.pushInt(big.NewInt(int64(e.eval.Len())))
	return nil
}

func opDrop(e *Engine, op Operation) error {
	_, err := e.pop()
	return err
}

func opDup(e *Engine, op Operation) error {
	it, err := e.eval.Peek(0)
	if err != nil {
		return err
	}
	e.push(it)
	return nil
}

func opNip(e *Engine, op Operation) error {
	_, err := e.eval.Remove(1)
	return err
}

func opOver(e *Engine, op Operation) error {
	it, err := e.eval.Peek(1)
	if err != nil {
		return err
	}
	e.push(it)
	return nil
}

func opPick(e *Engine, op Operation) error {
	n, err := e.popDepth(op.Op)
	if err != nil {
		return err
	}
	it, err := e.eval.Peek(n)
	if err != nil {
		return err
	}
	e.push(it)
	return nil
}

func opRoll(e *Engine, op Operation) error {
	n, err := e.popDepth(op.Op)
	if err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	it, err := e.eval.Remove(n)
	if err != nil {
		return err
	}
	e.push(it)
	return nil
}

func opRot(e *Engine, op Operation) error {
	it, err := e.eval.Remove(2)
	if err != nil {
		return err
	}
	e.push(it)
	return nil
}

func opSwap(e *Engine, op Operation) error {
	it, err := e.eval.Remove(1)
	if err != nil {
		return err
	}
	e.push(it)
	return nil
}

func opTuck(e *Engine, op Operation) error {
	top, err := e.eval.Peek(0)
	if err != nil {
		return err
	}
	if e.eval.Len() < 2 {
		return ErrStackUnderflow
	}
	return e.eval.Insert(2, top)
}
