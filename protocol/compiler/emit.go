package compiler

import (
	"math/big"

	"github.com/CityOfZion/neo-ruby-sdk/protocol/vm"
	"github.com/CityOfZion/neo-ruby-sdk/protocol/vmutil"
)

// maxLocals is the number of local slots a function may use.
const maxLocals = 16

type instrKind int

const (
	kindCode  instrKind = iota // fully encoded instruction
	kindLabel                  // position marker, no bytes
	kindJump                   // JMP, JMPIF or JMPIFNOT to a label
	kindCall                   // CALL to a function's entry label
)

// instr is one entry in the arena. Its index in the arena is its ID;
// jumps refer to labels by ID and calls refer to functions by name,
// so no address is known until link time.
type instr struct {
	kind  instrKind
	op    vm.Op
	code  []byte
	label int // kindJump
	fn    string
	node  Node
}

func (in *instr) size() int {
	switch in.kind {
	case kindLabel:
		return 0
	case kindJump, kindCall:
		return 3
	}
	return len(in.code)
}

// unit is a contiguous block of code: the entry block or one
// function body.
type unit struct {
	name   string
	ids    []int
	locals []string
}

func (u *unit) slot(name string) (int, bool) {
	for i, l := range u.locals {
		if l == name {
			return i, true
		}
	}
	return 0, false
}

type emitter struct {
	arena  []*instr
	units  []*unit
	defs   map[string]*Def
	labels map[string]int // function name to entry label ID
	cur    *unit
	fn     *Def // function being compiled, nil in the entry block
}

func newEmitter() *emitter {
	return &emitter{
		defs:   make(map[string]*Def),
		labels: make(map[string]int),
	}
}

func (c *emitter) startUnit(name string) *unit {
	u := &unit{name: name}
	c.units = append(c.units, u)
	c.cur = u
	return u
}

func (c *emitter) add(in *instr) int {
	id := len(c.arena)
	c.arena = append(c.arena, in)
	return id
}

func (c *emitter) place(id int) {
	c.cur.ids = append(c.cur.ids, id)
}

func (c *emitter) emitCode(n Node, code []byte) int {
	id := c.add(&instr{kind: kindCode, op: vm.Op(code[0]), code: code, node: n})
	c.place(id)
	return id
}

func (c *emitter) emit(n Node, ops ...vm.Op) {
	for _, op := range ops {
		c.emitCode(n, []byte{byte(op)})
	}
}

func (c *emitter) emitPush(n Node, v interface{}) error {
	code, err := vmutil.NewBuilder().EmitPush(v).Build()
	if err != nil {
		return Error{Pos: n.Position(), Node: n, Err: err}
	}
	c.emitCode(n, code)
	return nil
}

func (c *emitter) emitInt(n Node, i int) {
	c.emitCode(n, vm.PushdataInt(big.NewInt(int64(i))))
}

func (c *emitter) emitSysCall(n Node, name string) error {
	code, err := vmutil.NewBuilder().EmitSysCall(name).Build()
	if err != nil {
		return Error{Pos: n.Position(), Node: n, Err: err}
	}
	c.emitCode(n, code)
	return nil
}

func (c *emitter) newLabel() int {
	return c.add(&instr{kind: kindLabel})
}

func (c *emitter) emitJump(n Node, op vm.Op, label int) {
	c.place(c.add(&instr{kind: kindJump, op: op, label: label, node: n}))
}

func (c *emitter) emitCall(n Node, fn string) {
	c.place(c.add(&instr{kind: kindCall, op: vm.OP_CALL, fn: fn, node: n}))
}

func (c *emitter) entryLabel(fn string) int {
	id, ok := c.labels[fn]
	if !ok {
		id = c.newLabel()
		c.labels[fn] = id
	}
	return id
}

// file compiles the entry block followed by every function.
func (c *emitter) file(f *File) error {
	for _, d := range f.Defs {
		if _, ok := c.defs[d.Name]; ok {
			return nodeErr(d, ErrDuplicateDef, "%s", d.Name)
		}
		c.defs[d.Name] = d
	}

	c.startUnit("")
	for _, s := range f.Stmts {
		if err := c.stmt(s, false); err != nil {
			return err
		}
	}
	if _, ok := c.defs["main"]; ok {
		c.emitCall(nil, "main")
	}
	c.emit(nil, vm.OP_RET)

	for _, d := range f.Defs {
		if err := c.def(d); err != nil {
			return err
		}
	}
	return nil
}

func (c *emitter) def(d *Def) error {
	u := c.startUnit(d.Name)
	c.fn = d
	defer func() { c.fn = nil }()

	c.place(c.entryLabel(d.Name))
	prologue := c.emitCode(d, vm.PushdataInt(big.NewInt(0)))
	c.emit(d, vm.OP_NEWARRAY, vm.OP_TOALTSTACK)
	for i, p := range d.Params {
		if _, ok := u.slot(p); ok {
			return nodeErr(d, ErrSyntax, "duplicate parameter %s", p)
		}
		u.locals = append(u.locals, p)
		c.storeLocal(d, i)
	}
	if err := c.block(d.Body, true); err != nil {
		return err
	}
	c.epilogue(d)

	if len(u.locals) > maxLocals {
		return nodeErr(d, ErrTooManyLocals, "%s uses %d", d.Name, len(u.locals))
	}
	c.arena[prologue].code = vm.PushdataInt(big.NewInt(int64(len(u.locals))))
	return nil
}

func (c *emitter) epilogue(n Node) {
	c.emit(n, vm.OP_FROMALTSTACK, vm.OP_DROP, vm.OP_RET)
}

func (c *emitter) loadLocal(n Node, i int) {
	c.emit(n, vm.OP_FROMALTSTACK, vm.OP_DUP, vm.OP_TOALTSTACK)
	c.emitInt(n, i)
	c.emit(n, vm.OP_PICKITEM)
}

// storeLocal pops the value on top of the stack into slot i.
func (c *emitter) storeLocal(n Node, i int) {
	c.emit(n, vm.OP_FROMALTSTACK, vm.OP_DUP, vm.OP_TOALTSTACK)
	c.emitInt(n, i)
	c.emitInt(n, 2)
	c.emit(n, vm.OP_ROLL, vm.OP_SETITEM)
}

// block compiles a statement list. When want is set, the last
// statement leaves exactly one value and an empty block pushes 0.
func (c *emitter) block(stmts []Node, want bool) error {
	if len(stmts) == 0 {
		if want {
			c.emitInt(nil, 0)
		}
		return nil
	}
	for i, s := range stmts {
		if err := c.stmt(s, want && i == len(stmts)-1); err != nil {
			return err
		}
	}
	return nil
}

func (c *emitter) stmt(s Node, want bool) error {
	switch s := s.(type) {
	case *Def:
		return nodeErr(s, ErrNestedDef, "%s", s.Name)

	case *Assign:
		i, err := c.assign(s)
		if err != nil {
			return err
		}
		if want {
			c.loadLocal(s, i)
		}
		return nil

	case *IndexAssign:
		for _, x := range []Node{s.X, s.Index, s.Value} {
			if err := c.value(x); err != nil {
				return err
			}
		}
		c.emit(s, vm.OP_SETITEM)
		if want {
			c.emitInt(s, 0)
		}
		return nil

	case *If:
		if err := c.value(s.Cond); err != nil {
			return err
		}
		end := c.newLabel()
		if len(s.Else) == 0 && !want {
			c.emitJump(s, vm.OP_JMPIFNOT, end)
			if err := c.block(s.Then, false); err != nil {
				return err
			}
			c.place(end)
			return nil
		}
		els := c.newLabel()
		c.emitJump(s, vm.OP_JMPIFNOT, els)
		if err := c.block(s.Then, want); err != nil {
			return err
		}
		c.emitJump(s, vm.OP_JMP, end)
		c.place(els)
		if err := c.block(s.Else, want); err != nil {
			return err
		}
		c.place(end)
		return nil

	case *While:
		start, end := c.newLabel(), c.newLabel()
		c.place(start)
		if err := c.value(s.Cond); err != nil {
			return err
		}
		c.emitJump(s, vm.OP_JMPIFNOT, end)
		if err := c.block(s.Body, false); err != nil {
			return err
		}
		c.emitJump(s, vm.OP_JMP, start)
		c.place(end)
		if want {
			c.emitInt(s, 0)
		}
		return nil

	case *Return:
		if s.Value != nil {
			if err := c.value(s.Value); err != nil {
				return err
			}
		} else {
			c.emitInt(s, 0)
		}
		if c.fn == nil {
			c.emit(s, vm.OP_RET)
		} else {
			c.epilogue(s)
		}
		return nil
	}

	produced, err := c.expr(s)
	if err != nil {
		return err
	}
	switch {
	case want && !produced:
		c.emitInt(s, 0)
	case !want && produced:
		c.emit(s, vm.OP_DROP)
	}
	return nil
}

// assign compiles an assignment and returns the slot written.
func (c *emitter) assign(s *Assign) (int, error) {
	if c.fn == nil {
		return 0, nodeErr(s, ErrTopLevelLocal, "%s", s.Name)
	}
	i, ok := c.cur.slot(s.Name)
	if s.Op != "" {
		if !ok {
			return 0, nodeErr(s, ErrUndefined, "local %s", s.Name)
		}
		op, ok := binaryOps[s.Op]
		if !ok {
			return 0, nodeErr(s, ErrUnsupported, "operator %s=", s.Op)
		}
		c.loadLocal(s, i)
		if err := c.value(s.Value); err != nil {
			return 0, err
		}
		c.emit(s, op)
	} else {
		if err := c.value(s.Value); err != nil {
			return 0, err
		}
		if !ok {
			i = len(c.cur.locals)
			c.cur.locals = append(c.cur.locals, s.Name)
		}
	}
	c.storeLocal(s, i)
	return i, nil
}

// value compiles an expression that must produce a value.
func (c *emitter) value(n Node) error {
	produced, err := c.expr(n)
	if err != nil {
		return err
	}
	if !produced {
		return nodeErr(n, ErrNoValue, "%s", n)
	}
	return nil
}

// expr compiles an expression and reports whether it left a value.
func (c *emitter) expr(n Node) (bool, error) {
	switch n := n.(type) {
	case *IntLit:
		return true, c.emitPush(n, n.Val)

	case *BoolLit:
		return true, c.emitPush(n, n.Val)

	case *StrLit:
		return true, c.emitPush(n, n.Val)

	case *ArrayLit:
		for i := len(n.Elems) - 1; i >= 0; i-- {
			if err := c.value(n.Elems[i]); err != nil {
				return false, err
			}
		}
		c.emitInt(n, len(n.Elems))
		c.emit(n, vm.OP_PACK)
		return true, nil

	case *Ident:
		if c.fn != nil {
			if i, ok := c.cur.slot(n.Name); ok {
				c.loadLocal(n, i)
				return true, nil
			}
		}
		if d, ok := c.defs[n.Name]; ok && len(d.Params) == 0 {
			c.emitCall(n, n.Name)
			return true, nil
		}
		if b, ok := builtins[n.Name]; ok && b.arity == 0 {
			c.emit(n, b.ops...)
			return true, nil
		}
		if c.fn == nil {
			return false, nodeErr(n, ErrTopLevelLocal, "%s", n.Name)
		}
		return false, nodeErr(n, ErrUndefined, "local %s", n.Name)

	case *Binary:
		return true, c.binary(n)

	case *Unary:
		op, ok := unaryOps[n.Op]
		if !ok {
			return false, nodeErr(n, ErrUnsupported, "operator %s", n.Op)
		}
		if err := c.value(n.X); err != nil {
			return false, err
		}
		c.emit(n, op)
		return true, nil

	case *Index:
		if err := c.value(n.X); err != nil {
			return false, err
		}
		if err := c.value(n.Index); err != nil {
			return false, err
		}
		c.emit(n, vm.OP_PICKITEM)
		return true, nil

	case *Call:
		return c.call(n)

	case *Const:
		return false, nodeErr(n, ErrUnsupported, "bare namespace %s", n.Name)

	case *Assign, *IndexAssign, *If, *While, *Return, *Def:
		return false, nodeErr(n, ErrUnsupported, "statement used as a value")
	}
	if n == nil {
		return false, Error{Err: ErrUnsupported}
	}
	return false, nodeErr(n, ErrUnsupported, "node %T", n)
}

func isIntLit(n Node) bool {
	_, ok := n.(*IntLit)
	return ok
}

func (c *emitter) binary(n *Binary) error {
	if err := c.value(n.L); err != nil {
		return err
	}
	if err := c.value(n.R); err != nil {
		return err
	}
	numeric := isIntLit(n.L) || isIntLit(n.R)
	switch n.Op {
	case "==":
		if numeric {
			c.emit(n, vm.OP_NUMEQUAL)
		} else {
			c.emit(n, vm.OP_EQUAL)
		}
		return nil
	case "!=":
		if numeric {
			c.emit(n, vm.OP_NUMNOTEQUAL)
		} else {
			c.emit(n, vm.OP_EQUAL, vm.OP_NOT)
		}
		return nil
	}
	op, ok := binaryOps[n.Op]
	if !ok {
		return nodeErr(n, ErrUnsupported, "operator %s", n.Op)
	}
	c.emit(n, op)
	return nil
}

func (c *emitter) args(n *Call, args []Node, reversed bool) error {
	for i := range args {
		a := args[i]
		if reversed {
			a = args[len(args)-1-i]
		}
		if err := c.value(a); err != nil {
			return err
		}
	}
	return nil
}

func checkArity(n *Call, want int) error {
	if len(n.Args) != want {
		return nodeErr(n, ErrArity, "%s takes %d, got %d", n.Name, want, len(n.Args))
	}
	return nil
}

func (c *emitter) call(n *Call) (bool, error) {
	switch recv := n.Recv.(type) {
	case nil:
		if d, ok := c.defs[n.Name]; ok {
			if err := checkArity(n, len(d.Params)); err != nil {
				return false, err
			}
			if err := c.args(n, n.Args, true); err != nil {
				return false, err
			}
			c.emitCall(n, n.Name)
			return true, nil
		}
		if b, ok := builtins[n.Name]; ok {
			if err := checkArity(n, b.arity); err != nil {
				return false, err
			}
			if err := c.args(n, n.Args, false); err != nil {
				return false, err
			}
			c.emit(n, b.ops...)
			return true, nil
		}
		return false, nodeErr(n, ErrUndefined, "function %s", n.Name)

	case *Const:
		hc, ok := hostCalls[recv.Name][n.Name]
		if !ok {
			return false, nodeErr(n, ErrUndefined, "method %s.%s", recv.Name, n.Name)
		}
		if err := checkArity(n, hc.arity); err != nil {
			return false, err
		}
		if err := c.args(n, n.Args, true); err != nil {
			return false, err
		}
		return hc.value, c.emitSysCall(n, hc.service)
	}

	if hc, ok := properties[n.Name]; ok {
		if err := checkArity(n, hc.arity-1); err != nil {
			return false, err
		}
		if err := c.value(n.Recv); err != nil {
			return false, err
		}
		return hc.value, c.emitSysCall(n, hc.service)
	}
	if op, ok := valueMethods[n.Name]; ok {
		if err := checkArity(n, 0); err != nil {
			return false, err
		}
		if err := c.value(n.Recv); err != nil {
			return false, err
		}
		c.emit(n, op)
		return true, nil
	}
	return false, nodeErr(n, ErrUndefined, "method %s", n.Name)
}
