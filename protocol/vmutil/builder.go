package vmutil

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/big"

	"github.com/CityOfZion/neo-ruby-sdk/encoding/bytearray"
	"github.com/CityOfZion/neo-ruby-sdk/errors"
	"github.com/CityOfZion/neo-ruby-sdk/protocol/vm"
)

var (
	ErrPushTooLong      = errors.New("push data too long")
	ErrUnsupportedValue = errors.New("unsupported push value")
	ErrUnresolvedJump   = errors.New("unresolved jump target")
	ErrJumpRange        = errors.New("jump offset out of range")
)

// maxPushBytes is the longest operand EmitPush writes with a single
// PUSHBYTES opcode.
const maxPushBytes = 75

// Builder accumulates a program. The first error encountered is
// kept and returned by Build; later Emit calls are ignored.
type Builder struct {
	program     []byte
	err         error
	jumpCounter int

	// Maps a jump target number to its absolute address.
	jumpAddr map[int]uint32

	// Maps a jump target number to the jumps that refer to it.
	jumpPlaceholders map[int][]jumpSite
}

type jumpSite struct {
	opAddr  int // address of the jump opcode
	operand int // address of its 2-byte operand
}

func NewBuilder() *Builder {
	return &Builder{
		jumpAddr:         make(map[int]uint32),
		jumpPlaceholders: make(map[int][]jumpSite),
	}
}

// Len returns the number of bytes emitted so far.
func (b *Builder) Len() int { return len(b.program) }

// Err returns the first error recorded by an Emit call.
func (b *Builder) Err() error { return b.err }

func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

// Emit appends op followed by the raw operand bytes.
func (b *Builder) Emit(op vm.Op, operand []byte) *Builder {
	if b.err != nil {
		return b
	}
	b.program = append(b.program, byte(op))
	b.program = append(b.program, operand...)
	return b
}

// EmitOperand is like Emit but accepts the operand as an interface
// value. It panics if v is not a byte string; passing anything else
// is a programming error.
func (b *Builder) EmitOperand(op vm.Op, v interface{}) *Builder {
	switch v := v.(type) {
	case nil:
		return b.Emit(op, nil)
	case []byte:
		return b.Emit(op, v)
	case bytearray.ByteArray:
		return b.Emit(op, v)
	}
	panic(fmt.Sprintf("vmutil: operand of %s must be bytes, got %T", op, v))
}

// AddRawBytes simply appends the given bytes to the program. (It does
// not introduce a pushdata opcode.)
func (b *Builder) AddRawBytes(data []byte) *Builder {
	if b.err != nil {
		return b
	}
	b.program = append(b.program, data...)
	return b
}

// EmitPush adds the shortest instruction pushing v. Booleans push
// PUSHT or PUSHF, small integers use PUSHM1 and PUSH0..PUSH16, other
// integers and byte strings use PUSHBYTES. A slice pushes its
// elements in reverse, its length and PACK.
func (b *Builder) EmitPush(v interface{}) *Builder {
	if b.err != nil {
		return b
	}
	switch v := v.(type) {
	case bool:
		if v {
			return b.Emit(vm.OP_PUSHT, nil)
		}
		return b.Emit(vm.OP_PUSHF, nil)
	case int:
		return b.emitInt(big.NewInt(int64(v)))
	case int64:
		return b.emitInt(big.NewInt(v))
	case *big.Int:
		return b.emitInt(v)
	case string:
		return b.emitBytes([]byte(v))
	case []byte:
		return b.emitBytes(v)
	case bytearray.ByteArray:
		return b.emitBytes(v)
	case vm.Hash:
		return b.emitBytes(v[:])
	case []interface{}:
		for i := len(v) - 1; i >= 0; i-- {
			b.EmitPush(v[i])
		}
		b.EmitPush(len(v))
		return b.Emit(vm.OP_PACK, nil)
	}
	return b.fail(errors.WithDetailf(ErrUnsupportedValue, "%T", v))
}

func (b *Builder) emitInt(n *big.Int) *Builder {
	if n.IsInt64() && n.Int64() >= -1 && n.Int64() <= 16 {
		return b.AddRawBytes(vm.PushdataInt(n))
	}
	return b.emitBytes(bytearray.FromInt(n))
}

func (b *Builder) emitBytes(data []byte) *Builder {
	if len(data) > maxPushBytes {
		return b.fail(errors.WithDetailf(ErrPushTooLong, "%d bytes", len(data)))
	}
	return b.AddRawBytes(vm.PushdataBytes(data))
}

// EmitAppCall pushes params in reverse order and adds an APPCALL, or
// a TAILCALL when tail is set, to the script with hash h.
func (b *Builder) EmitAppCall(h vm.Hash, params []interface{}, tail bool) *Builder {
	for i := len(params) - 1; i >= 0; i-- {
		b.EmitPush(params[i])
	}
	op := vm.OP_APPCALL
	if tail {
		op = vm.OP_TAILCALL
	}
	return b.Emit(op, h[:])
}

// EmitSysCall adds a SYSCALL to the named interop service.
func (b *Builder) EmitSysCall(name string) *Builder {
	if len(name) > math.MaxUint8 {
		return b.fail(errors.WithDetailf(ErrPushTooLong, "service name of %d bytes", len(name)))
	}
	return b.Emit(vm.OP_SYSCALL, append([]byte{byte(len(name))}, name...))
}

// NewJumpTarget allocates a number that can be used as a jump target
// in AddJump. Call SetJumpTarget to associate the number with a
// program location.
func (b *Builder) NewJumpTarget() int {
	b.jumpCounter++
	return b.jumpCounter
}

// AddJump adds a JMP, JMPIF, JMPIFNOT or CALL whose target is the
// given target number. The actual program location of the target
// does not need to be known yet, as long as SetJumpTarget is called
// before Build.
func (b *Builder) AddJump(op vm.Op, target int) *Builder {
	switch op {
	case vm.OP_JMP, vm.OP_JMPIF, vm.OP_JMPIFNOT, vm.OP_CALL:
	default:
		panic(fmt.Sprintf("vmutil: AddJump with %s", op))
	}
	if b.err != nil {
		return b
	}
	site := jumpSite{opAddr: len(b.program), operand: len(b.program) + 1}
	b.jumpPlaceholders[target] = append(b.jumpPlaceholders[target], site)
	return b.Emit(op, []byte{0, 0})
}

// SetJumpTarget associates the given jump-target number with the
// current position in the program, such that the first instruction
// executed by a jump using this target will be whatever instruction
// is added next. It is legal for SetJumpTarget to be called at the
// end of the program, causing jumps using that target to reach the
// implicit RET.
func (b *Builder) SetJumpTarget(target int) *Builder {
	b.jumpAddr[target] = uint32(len(b.program))
	return b
}

// Build produces the bytecode of the program. It resolves every jump
// to the signed distance from the jump opcode to its target. It
// returns the first error recorded while emitting, ErrUnresolvedJump
// if a target was never set, or ErrJumpRange if a distance does not
// fit in 16 bits. The builder may be extended after Build.
func (b *Builder) Build() ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}
	prog := append([]byte(nil), b.program...)
	for target, sites := range b.jumpPlaceholders {
		addr, ok := b.jumpAddr[target]
		if !ok {
			return nil, errors.Wrapf(ErrUnresolvedJump, "target %d", target)
		}
		for _, site := range sites {
			off := int(addr) - site.opAddr
			if off < math.MinInt16 || off > math.MaxInt16 {
				return nil, errors.WithDetailf(ErrJumpRange, "jump from %d to %d", site.opAddr, addr)
			}
			binary.LittleEndian.PutUint16(prog[site.operand:], uint16(int16(off)))
		}
	}
	return prog, nil
}

// Script builds the program and decodes it.
func (b *Builder) Script() (*vm.Script, error) {
	prog, err := b.Build()
	if err != nil {
		return nil, err
	}
	return vm.NewScript(prog)
}

// EntryScript returns the invocation script that calls the contract
// with hash h, passing params.
func EntryScript(h vm.Hash, params ...interface{}) ([]byte, error) {
	return NewBuilder().EmitAppCall(h, params, false).Build()
}
