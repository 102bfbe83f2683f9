package compiler

import (
	"fmt"

	"github.com/CityOfZion/neo-ruby-sdk/errors"
)

var (
	ErrSyntax        = errors.New("syntax error")
	ErrUndefined     = errors.New("undefined name")
	ErrArity         = errors.New("wrong number of arguments")
	ErrUnsupported   = errors.New("unsupported construct")
	ErrTooManyLocals = errors.New("too many local variables")
	ErrNestedDef     = errors.New("nested function definition")
	ErrNoValue       = errors.New("expression has no value")
	ErrTopLevelLocal = errors.New("local variable outside a function")
	ErrDuplicateDef  = errors.New("function defined twice")
	ErrRuntime       = errors.New("runtime error")
)

// Error is a build error at a source position.
type Error struct {
	Pos  Pos
	Node Node // may be nil for syntax errors
	Err  error
}

func (e Error) Error() string {
	if e.Node != nil {
		return fmt.Sprintf("%s: %s (in %s)", e.Pos, e.Err, e.Node)
	}
	return fmt.Sprintf("%s: %s", e.Pos, e.Err)
}

func (e Error) Unwrap() error { return e.Err }

func nodeErr(n Node, err error, format string, args ...interface{}) error {
	e := Error{Node: n, Err: errors.WithDetailf(err, format, args...)}
	if n != nil {
		e.Pos = n.Position()
	}
	return e
}
