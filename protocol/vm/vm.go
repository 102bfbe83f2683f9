package vm

import (
	"context"
	"fmt"
	"io"
	"math/big"

	"github.com/CityOfZion/neo-ruby-sdk/errors"
)

const (
	maxInvocationDepth = 1024
	maxArraySize       = 1024
	maxItemSize        = 1024 * 1024
	maxShift           = 256
)

// State is the execution state of an Engine.
type State uint8

const (
	Running State = iota
	Halted
	Faulted
)

func (s State) String() string {
	switch s {
	case Running:
		return "RUNNING"
	case Halted:
		return "HALT"
	case Faulted:
		return "FAULT"
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// Registry resolves script hashes for APPCALL and TAILCALL.
type Registry interface {
	Script(ctx context.Context, h Hash) (*Script, error)
	Register(ctx context.Context, s *Script) error
}

// Context is one activation record on the invocation stack.
type Context struct {
	Script   *Script
	IP       int // index into Script.Operations()
	PushOnly bool
}

// Engine is a stack machine executing Scripts.
// An Engine is not safe for concurrent use.
type Engine struct {
	registry Registry
	interop  *Interop

	eval       *Stack
	alt        *Stack
	invocation []*Context

	state State
	err   error
	op    Operation // operation being dispatched

	runLimit  int64
	steps     int64
	container []byte

	traceOut   io.Writer
	traceOp    func(*Engine, Operation)
	traceError func(*Engine, Operation, error)

	ctx context.Context // valid during Execute
}

// Option configures an Engine.
type Option func(*Engine)

// WithRunLimit bounds the number of operations Execute may dispatch.
// Zero means no limit.
func WithRunLimit(n int64) Option {
	return func(e *Engine) { e.runLimit = n }
}

// WithTrace writes one line per dispatched operation to w, followed
// by the evaluation stack.
func WithTrace(w io.Writer) Option {
	return func(e *Engine) { e.traceOut = w }
}

// TraceOp calls f before each operation is dispatched.
func TraceOp(f func(*Engine, Operation)) Option {
	return func(e *Engine) { e.traceOp = f }
}

// TraceError calls f when an operation faults.
func TraceError(f func(*Engine, Operation, error)) Option {
	return func(e *Engine) { e.traceError = f }
}

// WithContainer sets the message verified by CHECKSIG and
// CHECKMULTISIG, typically the serialized transaction.
func WithContainer(msg []byte) Option {
	return func(e *Engine) { e.container = msg }
}

// New returns a running Engine with an empty invocation stack.
// Either dependency may be nil; APPCALL and SYSCALL then fault.
func New(registry Registry, interop *Interop, opts ...Option) *Engine {
	e := &Engine{
		registry: registry,
		interop:  interop,
		eval:     newStack(ErrStackUnderflow),
		alt:      newStack(ErrAltStackUnderflow),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// LoadScript pushes a new context executing s from its first
// operation.
func (e *Engine) LoadScript(s *Script, pushOnly bool) {
	e.invocation = append(e.invocation, &Context{Script: s, PushOnly: pushOnly})
}

// Execute runs until the engine halts or faults. It returns nil on
// halt and an Error describing the faulting operation otherwise.
// Calling Execute on a terminated engine returns the same result
// again without dispatching anything.
func (e *Engine) Execute(ctx context.Context) (err error) {
	if e.state != Running {
		return e.result()
	}
	e.ctx = ctx
	defer func() {
		e.ctx = nil
		if panErr := recover(); panErr != nil {
			e.fault(errors.WithDetailf(ErrUnexpected, "%v", panErr))
			err = e.result()
		}
	}()
	for e.state == Running {
		e.step()
	}
	return e.result()
}

func (e *Engine) result() error {
	if e.state != Faulted {
		return nil
	}
	return Error{Err: e.err, Op: e.op, Script: e.faultScript()}
}

func (e *Engine) faultScript() *Script {
	if c := e.CurrentContext(); c != nil {
		return c.Script
	}
	return nil
}

func (e *Engine) step() {
	c := e.CurrentContext()
	if c == nil {
		e.state = Halted
		return
	}

	var op Operation
	implicit := c.IP >= len(c.Script.ops)
	if implicit {
		op = Operation{Op: OP_RET, Addr: uint32(c.Script.Len()), Len: 1}
	} else {
		op = c.Script.ops[c.IP]
	}
	e.op = op

	if e.runLimit > 0 && e.steps >= e.runLimit {
		e.fault(ErrRunLimitExceeded)
		return
	}
	e.steps++

	if c.PushOnly && !implicit && op.Op > OP_PUSH16 {
		e.fault(errors.WithDetailf(ErrPushOnly, "%s", op.Op))
		return
	}

	if e.traceOut != nil {
		fmt.Fprintf(e.traceOut, "vm %d ip %d %s", len(e.invocation)-1, op.Addr, op.Op)
		if len(op.Data) > 0 {
			fmt.Fprintf(e.traceOut, " %x", op.Data)
		}
		fmt.Fprint(e.traceOut, "\n")
	}
	if e.traceOp != nil {
		e.traceOp(e, op)
	}

	c.IP++
	if err := ops[op.Op].fn(e, op); err != nil {
		e.fault(err)
		return
	}

	if e.traceOut != nil {
		for i, it := range e.eval.Items() {
			fmt.Fprintf(e.traceOut, "  stack %d: %s\n", i, it)
		}
	}
}

func (e *Engine) fault(err error) {
	e.state = Faulted
	e.err = err
	if e.traceError != nil {
		e.traceError(e, e.op, err)
	}
	if e.traceOut != nil {
		fmt.Fprintf(e.traceOut, "vm fault: %v\n", err)
	}
}

// State returns the engine's execution state.
func (e *Engine) State() State { return e.state }

// Halted reports whether execution ended normally.
func (e *Engine) Halted() bool { return e.state == Halted }

// Faulted reports whether execution ended abnormally.
func (e *Engine) Faulted() bool { return e.state == Faulted }

// Err returns the fault cause, or nil. errors.Root of the result is
// one of the sentinel errors of this package or a service's error.
func (e *Engine) Err() error { return e.err }

// EvaluationStack returns the operand stack.
func (e *Engine) EvaluationStack() *Stack { return e.eval }

// AltStack returns the auxiliary stack.
func (e *Engine) AltStack() *Stack { return e.alt }

// InvocationDepth returns the number of contexts on the
// invocation stack.
func (e *Engine) InvocationDepth() int { return len(e.invocation) }

// CurrentContext returns the executing context, or nil.
func (e *Engine) CurrentContext() *Context {
	if len(e.invocation) == 0 {
		return nil
	}
	return e.invocation[len(e.invocation)-1]
}

// EntryContext returns the first context loaded, or nil.
func (e *Engine) EntryContext() *Context {
	if len(e.invocation) == 0 {
		return nil
	}
	return e.invocation[0]
}

// Steps returns the number of operations dispatched so far.
func (e *Engine) Steps() int64 { return e.steps }

// Container returns the message set with WithContainer.
func (e *Engine) Container() []byte { return e.container }

// Registry returns the engine's script registry.
func (e *Engine) Registry() Registry { return e.registry }

// Context returns the context passed to Execute. Services use it
// for storage and registry calls.
func (e *Engine) Context() context.Context {
	if e.ctx == nil {
		return context.Background()
	}
	return e.ctx
}

func (e *Engine) push(it Item) { e.eval.Push(it) }

func (e *Engine) pushBool(b bool) { e.eval.Push(Boolean(b)) }

func (e *Engine) pushInt(n *big.Int) { e.eval.Push(Integer{n}) }

func (e *Engine) pop() (Item, error) { return e.eval.Pop() }

func (e *Engine) popInt() (*big.Int, error) {
	it, err := e.eval.Pop()
	if err != nil {
		return nil, err
	}
	return ToBigInt(it)
}

// popIndex pops an integer that must fit in an int.
func (e *Engine) popIndex() (int, error) {
	n, err := e.popInt()
	if err != nil {
		return 0, err
	}
	if !n.IsInt64() || n.Int64() > maxItemSize || n.Int64() < -maxItemSize {
		return 0, errors.WithDetailf(ErrRange, "index %s", n)
	}
	return int(n.Int64()), nil
}

func (e *Engine) popBool() (bool, error) {
	it, err := e.eval.Pop()
	if err != nil {
		return false, err
	}
	return ToBool(it), nil
}

func (e *Engine) popBytes() ([]byte, error) {
	it, err := e.eval.Pop()
	if err != nil {
		return nil, err
	}
	return ToBytes(it)
}

func (e *Engine) popArray() (*Array, error) {
	it, err := e.eval.Pop()
	if err != nil {
		return nil, err
	}
	a, ok := it.(*Array)
	if !ok {
		return nil, errors.WithDetailf(ErrBadValue, "%T is not an array", it)
	}
	return a, nil
}

// Error describes a fault: the cause, the operation that raised it,
// and the script it belongs to.
type Error struct {
	Err    error
	Op     Operation
	Script *Script
}

func (e Error) Error() string {
	if e.Script == nil {
		return fmt.Sprintf("%s [%s]", e.Err.Error(), e.Op)
	}
	dis, err := Disassemble(e.Script.Bytes())
	if err != nil {
		dis = "???"
	}
	return fmt.Sprintf("%s [%s at %d in %s = %s]", e.Err.Error(), e.Op, e.Op.Addr, e.Script.Hash(), dis)
}

// Unwrap returns the fault cause.
func (e Error) Unwrap() error { return e.Err }
