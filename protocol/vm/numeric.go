package vm

import (
	"math/big"

	"github.com/CityOfZion/neo-ruby-sdk/errors"
)

var bigOne = big.NewInt(1)

func opUnaryNum(e *Engine, op Operation) error {
	x, err := e.popInt()
	if err != nil {
		return err
	}
	res := new(big.Int)
	switch op.Op {
	case OP_INC:
		res.Add(x, bigOne)
	case OP_DEC:
		res.Sub(x, bigOne)
	case OP_SIGN:
		res.SetInt64(int64(x.Sign()))
	case OP_NEGATE:
		res.Neg(x)
	case OP_ABS:
		res.Abs(x)
	}
	e.pushInt(res)
	return nil
}

func opNot(e *Engine, op Operation) error {
	b, err := e.popBool()
	if err != nil {
		return err
	}
	e.pushBool(!b)
	return nil
}

func opNz(e *Engine, op Operation) error {
	x, err := e.popInt()
	if err != nil {
		return err
	}
	e.pushBool(x.Sign() != 0)
	return nil
}

// opBinaryNum implements the arithmetic ops taking two integers and
// producing one. DIV and MOD truncate toward zero.
func opBinaryNum(e *Engine, op Operation) error {
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
	case OP_ADD:
		res.Add(a, b)
	case OP_SUB:
		res.Sub(a, b)
	case OP_MUL:
		res.Mul(a, b)
	case OP_DIV, OP_MOD:
		if b.Sign() == 0 {
			return ErrDivZero
		}
		if op.Op == OP_DIV {
			res.Quo(a, b)
		} else {
			res.Rem(a, b)
		}
	case OP_MIN:
		res.Set(a)
		if b.Cmp(a) < 0 {
			res.Set(b)
		}
	case OP_MAX:
		res.Set(a)
		if b.Cmp(a) > 0 {
			res.Set(b)
		}
	}
	e.pushInt(res)
	return nil
}

func opShift(e *Engine, op Operation) error {
	n, err := e.popInt()
	if err != nil {
		return err
	}
	x, err := e.popInt()
	if err != nil {
		return err
	}
	if n.Sign() < 0 || n.Cmp(big.NewInt(maxShift)) > 0 {
		return errors.WithDetailf(ErrRange, "%s by %s", op.Op, n)
	}
	res := new(big.Int)
	if op.Op == OP_SHL {
		res.Lsh(x, uint(n.Uint64()))
	} else {
		res.Rsh(x, uint(n.Uint64()))
	}
	e.pushInt(res)
	return nil
}

// opBoolean implements BOOLAND and BOOLOR. Both operands are already
// evaluated, so there is no short circuit.
func opBoolean(e *Engine, op Operation) error {
	b, err := e.popBool()
	if err != nil {
		return err
	}
	a, err := e.popBool()
	if err != nil {
		return err
	}
	if op.Op == OP_BOOLAND {
		e.pushBool(a && b)
	} else {
		e.pushBool(a || b)
	}
	return nil
}

func opCompare(e *Engine, op Operation) error {
	b, err := e.popInt()
	if err != nil {
		return err
	}
	a, err := e.popInt()
	if err != nil {
		return err
	}
	c := a.Cmp(b)
	var res bool
	switch op.Op {
	case OP_NUMEQUAL:
		res = c == 0
	case OP_NUMNOTEQUAL:
		res = c != 0
	case OP_LT:
		res = c < 0
	case OP_GT:
		res = c > 0
	case OP_LTE:
		res = c <= 0
	case OP_GTE:
		res = c >= 0
	}
	e.pushBool(res)
	return nil
}

// opWithin pops hi, lo and x and pushes lo <= x < hi.
func opWithin(e *Engine, op Operation) error {
	hi, err := e.popInt()
	if err != nil {
		return err
	}
	lo, err := e.popInt()
	if err != nil {
		return err
	}
	x, err := e.popInt()
	if err != nil {
		return err
	}
	e.pushBool(lo.Cmp(x) <= 0 && x.Cmp(hi) < 0)
	return nil
}
