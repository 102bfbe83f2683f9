package vm

import (
	"github.com/CityOfZion/neo-ruby-sdk/errors"
)

func opNop(e *Engine, op Operation) error {
	return nil
}

func opUnknown(e *Engine, op Operation) error {
	return errors.WithDetailf(ErrUnknownOpcode, "0x%02x", byte(op.Op))
}

// jumpTarget resolves the operand of a relative jump or call to an
// operation index in the current script. The target address is the
// address of the jumping opcode plus the signed operand, which equals
// the position after the operand plus the offset minus 3.
func (e *Engine) jumpTarget(op Operation) (int, error) {
	c := e.CurrentContext()
	addr := int(op.Addr) + int(jumpOffset(op.Data))
	i, ok := c.Script.indexOf(addr)
	if !ok {
		return 0, errors.WithDetailf(ErrBadJump, "%s from %d to %d", op.Op, op.Addr, addr)
	}
	return i, nil
}

func opJump(e *Engine, op Operation) error {
	target, err := e.jumpTarget(op)
	if err != nil {
		return err
	}
	if op.Op != OP_JMP {
		cond, err := e.popBool()
		if err != nil {
			return err
		}
		if op.Op == OP_JMPIFNOT {
			cond = !cond
		}
		if !cond {
			return nil
		}
	}
	e.CurrentContext().IP = target
	return nil
}

func opCall(e *Engine, op Operation) error {
	target, err := e.jumpTarget(op)
	if err != nil {
		return err
	}
	if len(e.invocation) >= maxInvocationDepth {
		return ErrCallDepth
	}
	c := e.CurrentContext()
	e.invocation = append(e.invocation, &Context{Script: c.Script, IP: target, PushOnly: c.PushOnly})
	return nil
}

func opRet(e *Engine, op Operation) error {
	e.invocation[len(e.invocation)-1] = nil
	e.invocation = e.invocation[:len(e.invocation)-1]
	if len(e.invocation) == 0 {
		e.state = Halted
	}
	return nil
}

// opAppCall implements APPCALL and TAILCALL. An all-zero operand
// takes the script hash from the evaluation stack instead.
func opAppCall(e *Engine, op Operation) error {
	var h Hash
	copy(h[:], op.Data)
	if h.IsZero() {
		b, err := e.popBytes()
		if err != nil {
			return err
		}
		if len(b) != HashSize {
			return errors.WithDetailf(ErrBadValue, "dynamic call hash has %d bytes", len(b))
		}
		copy(h[:], b)
	}
	if e.registry == nil {
		return errors.WithDetailf(ErrUnknownScript, "%s (no registry)", h)
	}
	s, err := e.registry.Script(e.Context(), h)
	if err != nil {
		return errors.Wrapf(err, "%s %s", op.Op, h)
	}
	if s == nil {
		return errors.WithDetailf(ErrUnknownScript, "%s", h)
	}
	if op.Op == OP_TAILCALL {
		e.invocation[len(e.invocation)-1] = nil
		e.invocation = e.invocation[:len(e.invocation)-1]
	} else if len(e.invocation) >= maxInvocationDepth {
		return ErrCallDepth
	}
	e.LoadScript(s, false)
	return nil
}

func opSysCall(e *Engine, op Operation) error {
	if e.interop == nil {
		return errors.WithDetailf(ErrUnknownService, "%s (no interop)", op.Data)
	}
	return e.interop.Invoke(e, string(op.Data))
}

func opThrow(e *Engine, op Operation) error {
	return ErrThrow
}

func opThrowIfNot(e *Engine, op Operation) error {
	ok, err := e.popBool()
	if err != nil {
		return err
	}
	if !ok {
		return ErrThrow
	}
	return nil
}
