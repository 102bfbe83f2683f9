package vm

import (
	"encoding/binary"
	"fmt"
)

type Op uint8

func (op Op) String() string {
	return ops[op].name
}

// Operation is one decoded instruction: an opcode, its operand
// (without any length prefix) and its location in the script.
type Operation struct {
	Op   Op
	Addr uint32 // byte offset of the opcode
	Len  uint32 // opcode, length prefix and operand bytes
	Data []byte
}

func (o Operation) String() string {
	if len(o.Data) == 0 {
		return o.Op.String()
	}
	return fmt.Sprintf("%s 0x%x", o.Op, o.Data)
}

const (
	// Constants
	OP_PUSH0       Op = 0x00
	OP_PUSHF       Op = 0x00 // synonym
	OP_PUSHBYTES1  Op = 0x01
	OP_PUSHBYTES20 Op = 0x14
	OP_PUSHBYTES33 Op = 0x21
	OP_PUSHBYTES64 Op = 0x40
	OP_PUSHBYTES75 Op = 0x4b
	OP_PUSHDATA1   Op = 0x4c
	OP_PUSHDATA2   Op = 0x4d
	OP_PUSHDATA4   Op = 0x4e
	OP_PUSHM1      Op = 0x4f
	OP_PUSH1       Op = 0x51
	OP_PUSHT       Op = 0x51 // synonym
	OP_PUSH2       Op = 0x52
	OP_PUSH3       Op = 0x53
	OP_PUSH4       Op = 0x54
	OP_PUSH5       Op = 0x55
	OP_PUSH6       Op = 0x56
	OP_PUSH7       Op = 0x57
	OP_PUSH8       Op = 0x58
	OP_PUSH9       Op = 0x59
	OP_PUSH10      Op = 0x5a
	OP_PUSH11      Op = 0x5b
	OP_PUSH12      Op = 0x5c
	OP_PUSH13      Op = 0x5d
	OP_PUSH14      Op = 0x5e
	OP_PUSH15      Op = 0x5f
	OP_PUSH16      Op = 0x60

	// Flow control
	OP_NOP      Op = 0x61
	OP_JMP      Op = 0x62
	OP_JMPIF    Op = 0x63
	OP_JMPIFNOT Op = 0x64
	OP_CALL     Op = 0x65
	OP_RET      Op = 0x66
	OP_APPCALL  Op = 0x67
	OP_SYSCALL  Op = 0x68
	OP_TAILCALL Op = 0x69

	// Stack
	OP_DUPFROMALTSTACK Op = 0x6a
	OP_TOALTSTACK      Op = 0x6b
	OP_FROMALTSTACK    Op = 0x6c
	OP_XDROP           Op = 0x6d
	OP_XSWAP           Op = 0x72
	OP_XTUCK           Op = 0x73
	OP_DEPTH           Op = 0x74
	OP_DROP            Op = 0x75
	OP_DUP             Op = 0x76
	OP_NIP             Op = 0x77
	OP_OVER            Op = 0x78
	OP_PICK            Op = 0x79
	OP_ROLL            Op = 0x7a
	OP_ROT             Op = 0x7b
	OP_SWAP            Op = 0x7c
	OP_TUCK            Op = 0x7d

	// Splice
	OP_CAT    Op = 0x7e
	OP_SUBSTR Op = 0x7f
	OP_LEFT   Op = 0x80
	OP_RIGHT  Op = 0x81
	OP_SIZE   Op = 0x82

	// Bitwise logic
	OP_INVERT Op = 0x83
	OP_AND    Op = 0x84
	OP_OR     Op = 0x85
	OP_XOR    Op = 0x86
	OP_EQUAL  Op = 0x87

	// Arithmetic
	OP_INC         Op = 0x8b
	OP_DEC         Op = 0x8c
	OP_SIGN        Op = 0x8d
	OP_NEGATE      Op = 0x8f
	OP_ABS         Op = 0x90
	OP_NOT         Op = 0x91
	OP_NZ          Op = 0x92
	OP_ADD         Op = 0x93
	OP_SUB         Op = 0x94
	OP_MUL         Op = 0x95
	OP_DIV         Op = 0x96
	OP_MOD         Op = 0x97
	OP_SHL         Op = 0x98
	OP_SHR         Op = 0x99
	OP_BOOLAND     Op = 0x9a
	OP_BOOLOR      Op = 0x9b
	OP_NUMEQUAL    Op = 0x9c
	OP_NUMNOTEQUAL Op = 0x9e
	OP_LT          Op = 0x9f
	OP_GT          Op = 0xa0
	OP_LTE         Op = 0xa1
	OP_GTE         Op = 0xa2
	OP_MIN         Op = 0xa3
	OP_MAX         Op = 0xa4
	OP_WITHIN      Op = 0xa5

	// Crypto
	OP_SHA1          Op = 0xa7
	OP_SHA256        Op = 0xa8
	OP_HASH160       Op = 0xa9
	OP_HASH256       Op = 0xaa
	OP_CHECKSIG      Op = 0xac
	OP_CHECKMULTISIG Op = 0xae

	// Array
	OP_ARRAYSIZE Op = 0xc0
	OP_PACK      Op = 0xc1
	OP_UNPACK    Op = 0xc2
	OP_PICKITEM  Op = 0xc3
	OP_SETITEM   Op = 0xc4
	OP_NEWARRAY  Op = 0xc5
	OP_NEWSTRUCT Op = 0xc6
	OP_APPEND    Op = 0xc8
	OP_REVERSE   Op = 0xc9
	OP_REMOVE    Op = 0xca

	// Exceptions
	OP_THROW      Op = 0xf0
	OP_THROWIFNOT Op = 0xf1
)

type opInfo struct {
	op   Op
	name string
	fn   func(*Engine, Operation) error
}

var (
	ops = [256]opInfo{
		OP_PUSH0: {OP_PUSH0, "PUSH0", opPushInt},

		// sic: the PUSHDATA ops all share an implementation
		OP_PUSHDATA1: {OP_PUSHDATA1, "PUSHDATA1", opPushData},
		OP_PUSHDATA2: {OP_PUSHDATA2, "PUSHDATA2", opPushData},
		OP_PUSHDATA4: {OP_PUSHDATA4, "PUSHDATA4", opPushData},
		OP_PUSHM1:    {OP_PUSHM1, "PUSHM1", opPushInt},

		OP_NOP:      {OP_NOP, "NOP", opNop},
		OP_JMP:      {OP_JMP, "JMP", opJump},
		OP_JMPIF:    {OP_JMPIF, "JMPIF", opJump},
		OP_JMPIFNOT: {OP_JMPIFNOT, "JMPIFNOT", opJump},
		OP_CALL:     {OP_CALL, "CALL", opCall},
		OP_RET:      {OP_RET, "RET", opRet},
		OP_APPCALL:  {OP_APPCALL, "APPCALL", opAppCall},
		OP_SYSCALL:  {OP_SYSCALL, "SYSCALL", opSysCall},
		OP_TAILCALL: {OP_TAILCALL, "TAILCALL", opAppCall},

		OP_DUPFROMALTSTACK: {OP_DUPFROMALTSTACK, "DUPFROMALTSTACK", opDupFromAltStack},
		OP_TOALTSTACK:      {OP_TOALTSTACK, "TOALTSTACK", opToAltStack},
		OP_FROMALTSTACK:    {OP_FROMALTSTACK, "FROMALTSTACK", opFromAltStack},
		OP_XDROP:           {OP_XDROP, "XDROP", opXDrop},
		OP_XSWAP:           {OP_XSWAP, "XSWAP", opXSwap},
		OP_XTUCK:           {OP_XTUCK, "XTUCK", opXTuck},
		OP_DEPTH:           {OP_DEPTH, "DEPTH", opDepth},
		OP_DROP:            {OP_DROP, "DROP", opDrop},
		OP_DUP:             {OP_DUP, "DUP", opDup},
		OP_NIP:             {OP_NIP, "NIP", opNip},
		OP_OVER:            {OP_OVER, "OVER", opOver},
		OP_PICK:            {OP_PICK, "PICK", opPick},
		OP_ROLL:            {OP_ROLL, "ROLL", opRoll},
		OP_ROT:             {OP_ROT, "ROT", opRot},
		OP_SWAP:            {OP_SWAP, "SWAP", opSwap},
		OP_TUCK:            {OP_TUCK, "TUCK", opTuck},

		OP_CAT:    {OP_CAT, "CAT", opCat},
		OP_SUBSTR: {OP_SUBSTR, "SUBSTR", opSubstr},
		OP_LEFT:   {OP_LEFT, "LEFT", opLeft},
		OP_RIGHT:  {OP_RIGHT, "RIGHT", opRight},
		OP_SIZE:   {OP_SIZE, "SIZE", opSize},

		OP_INVERT: {OP_INVERT, "INVERT", opInvert},
		OP_AND:    {OP_AND, "AND", opBitwise},
		OP_OR:     {OP_OR, "OR", opBitwise},
		OP_XOR:    {OP_XOR, "XOR", opBitwise},
		OP_EQUAL:  {OP_EQUAL, "EQUAL", opEqual},

		OP_INC:         {OP_INC, "INC", opUnaryNum},
		OP_DEC:         {OP_DEC, "DEC", opUnaryNum},
		OP_SIGN:        {OP_SIGN, "SIGN", opUnaryNum},
		OP_NEGATE:      {OP_NEGATE, "NEGATE", opUnaryNum},
		OP_ABS:         {OP_ABS, "ABS", opUnaryNum},
		OP_NOT:         {OP_NOT, "NOT", opNot},
		OP_NZ:          {OP_NZ, "NZ", opNz},
		OP_ADD:         {OP_ADD, "ADD", opBinaryNum},
		OP_SUB:         {OP_SUB, "SUB", opBinaryNum},
		OP_MUL:         {OP_MUL, "MUL", opBinaryNum},
		OP_DIV:         {OP_DIV, "DIV", opBinaryNum},
		OP_MOD:         {OP_MOD, "MOD", opBinaryNum},
		OP_SHL:         {OP_SHL, "SHL", opShift},
		OP_SHR:         {OP_SHR, "SHR", opShift},
		OP_BOOLAND:     {OP_BOOLAND, "BOOLAND", opBoolean},
		OP_BOOLOR:      {OP_BOOLOR, "BOOLOR", opBoolean},
		OP_NUMEQUAL:    {OP_NUMEQUAL, "NUMEQUAL", opCompare},
		OP_NUMNOTEQUAL: {OP_NUMNOTEQUAL, "NUMNOTEQUAL", opCompare},
		OP_LT:          {OP_LT, "LT", opCompare},
		OP_GT:          {OP_GT, "GT", opCompare},
		OP_LTE:         {OP_LTE, "LTE", opCompare},
		OP_GTE:         {OP_GTE, "GTE", opCompare},
		OP_MIN:         {OP_MIN, "MIN", opBinaryNum},
		OP_MAX:         {OP_MAX, "MAX", opBinaryNum},
		OP_WITHIN:      {OP_WITHIN, "WITHIN", opWithin},

		OP_SHA1:          {OP_SHA1, "SHA1", opHash},
		OP_SHA256:        {OP_SHA256, "SHA256", opHash},
		OP_HASH160:       {OP_HASH160, "HASH160", opHash},
		OP_HASH256:       {OP_HASH256, "HASH256", opHash},
		OP_CHECKSIG:      {OP_CHECKSIG, "CHECKSIG", opCheckSig},
		OP_CHECKMULTISIG: {OP_CHECKMULTISIG, "CHECKMULTISIG", opCheckMultiSig},

		OP_ARRAYSIZE: {OP_ARRAYSIZE, "ARRAYSIZE", opArraySize},
		OP_PACK:      {OP_PACK, "PACK", opPack},
		OP_UNPACK:    {OP_UNPACK, "UNPACK", opUnpack},
		OP_PICKITEM:  {OP_PICKITEM, "PICKITEM", opPickItem},
		OP_SETITEM:   {OP_SETITEM, "SETITEM", opSetItem},
		OP_NEWARRAY:  {OP_NEWARRAY, "NEWARRAY", opNewArray},
		OP_NEWSTRUCT: {OP_NEWSTRUCT, "NEWSTRUCT", opNewArray},
		OP_APPEND:    {OP_APPEND, "APPEND", opAppend},
		OP_REVERSE:   {OP_REVERSE, "REVERSE", opReverse},
		OP_REMOVE:    {OP_REMOVE, "REMOVE", opRemove},

		OP_THROW:      {OP_THROW, "THROW", opThrow},
		OP_THROWIFNOT: {OP_THROWIFNOT, "THROWIFNOT", opThrowIfNot},
	}

	opsByName map[string]opInfo

	// isUnknown marks bytes that are not part of the instruction set.
	// They decode without an operand and fault when executed.
	isUnknown [256]bool
)

// operandWidth reports how many operand bytes follow op, and
// whether they are preceded by a one-byte length prefix.
func operandWidth(op Op) (n uint32, prefixed bool) {
	switch {
	case op >= OP_PUSHBYTES1 && op <= OP_PUSHBYTES75:
		return uint32(op), false
	case op == OP_PUSHDATA1, op == OP_SYSCALL:
		return 0, true
	case op == OP_PUSHDATA2, op == OP_JMP, op == OP_JMPIF, op == OP_JMPIFNOT, op == OP_CALL:
		return 2, false
	case op == OP_PUSHDATA4:
		return 4, false
	case op == OP_APPCALL, op == OP_TAILCALL:
		return HashSize, false
	}
	return 0, false
}

// ParseOp parses the op at position pc in prog, returning the parsed
// operation (opcode plus any associated data).
func ParseOp(prog []byte, pc uint32) (inst Operation, err error) {
	l := uint32(len(prog))
	if pc >= l {
		err = ErrShortProgram
		return
	}
	inst.Op = Op(prog[pc])
	inst.Addr = pc
	inst.Len = 1

	n, prefixed := operandWidth(inst.Op)
	start := pc + 1
	if prefixed {
		if start >= l {
			err = ErrShortProgram
			return
		}
		n = uint32(prog[start])
		start++
		inst.Len++
	}
	if n == 0 {
		return
	}
	end := uint64(start) + uint64(n)
	if end > uint64(l) {
		err = ErrShortProgram
		return
	}
	inst.Len += n
	inst.Data = prog[start:end]
	return
}

// ParseProgram decodes every operation in prog.
func ParseProgram(prog []byte) ([]Operation, error) {
	var result []Operation
	for pc := uint32(0); pc < uint32(len(prog)); { // update pc inside the loop
		inst, err := ParseOp(prog, pc)
		if err != nil {
			return nil, wrapDecodeErr(err, prog, pc)
		}
		result = append(result, inst)
		pc += inst.Len
	}
	return result, nil
}

// jumpOffset decodes the signed relative offset of a JMP, JMPIF,
// JMPIFNOT or CALL operand.
func jumpOffset(data []byte) int16 {
	return int16(binary.LittleEndian.Uint16(data))
}

func init() {
	for i := 1; i <= 75; i++ {
		ops[i] = opInfo{Op(i), fmt.Sprintf("PUSHBYTES%d", i), opPushData}
	}
	for i := uint8(0); i <= 15; i++ {
		op := uint8(OP_PUSH1) + i
		ops[op] = opInfo{Op(op), fmt.Sprintf("PUSH%d", i+1), opPushInt}
	}

	opsByName = make(map[string]opInfo)
	for _, info := range ops {
		if info.name != "" {
			opsByName[info.name] = info
		}
	}
	opsByName["PUSHF"] = ops[OP_PUSHF]
	opsByName["PUSHT"] = ops[OP_PUSHT]

	for i := 0; i <= 255; i++ {
		if ops[i].name == "" {
			ops[i] = opInfo{Op(i), fmt.Sprintf("UNKNOWN%02x", i), opUnknown}
			isUnknown[i] = true
		}
	}
}

// OpByName returns the opcode with the given mnemonic.
func OpByName(name string) (Op, bool) {
	info, ok := opsByName[name]
	return info.op, ok
}
