package vm

import "github.com/CityOfZion/neo-ruby-sdk/errors"

var (
	ErrAltStackUnderflow = errors.New("alt stack underflow")
	ErrBadJump           = errors.New("jump target out of range")
	ErrBadValue          = errors.New("bad value")
	ErrCallDepth         = errors.New("invocation stack too deep")
	ErrDivZero           = errors.New("division by zero")
	ErrPushOnly          = errors.New("non-push opcode in push-only context")
	ErrRange             = errors.New("range error")
	ErrRunLimitExceeded  = errors.New("run limit exceeded")
	ErrShortProgram      = errors.New("unexpected end of program")
	ErrStackUnderflow    = errors.New("evaluation stack underflow")
	ErrThrow             = errors.New("THROW executed")
	ErrToken             = errors.New("unrecognized token")
	ErrUnexpected        = errors.New("unexpected error")
	ErrUnknownOpcode     = errors.New("unknown opcode")
	ErrUnknownScript     = errors.New("unknown script hash")
	ErrUnknownService    = errors.New("unknown interop service")
)
