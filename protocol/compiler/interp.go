package compiler

import (
	"crypto/sha1"
	"crypto/sha256"
	"math/big"

	"github.com/CityOfZion/neo-ruby-sdk/crypto/hash160"
	"github.com/CityOfZion/neo-ruby-sdk/crypto/hash256"
	"github.com/CityOfZion/neo-ruby-sdk/protocol/vm"
)

// maxInterpSteps bounds the nodes Interpret evaluates.
const maxInterpSteps = 1 << 20

// Interpret evaluates f directly, without compiling it, and returns
// the value main returns when called with args. It follows the
// engine's value semantics, so for any program without host calls
// the result equals that of running the compiled script. A file
// without main returns nil.
func Interpret(f *File, args ...interface{}) (vm.Item, error) {
	in := &interp{defs: make(map[string]*Def)}
	for _, d := range f.Defs {
		if _, ok := in.defs[d.Name]; ok {
			return nil, nodeErr(d, ErrDuplicateDef, "%s", d.Name)
		}
		in.defs[d.Name] = d
	}

	top := &frame{}
	for _, s := range f.Stmts {
		r, err := in.stmt(top, s)
		if err != nil {
			return nil, err
		}
		if ret, ok := r.(returned); ok {
			return ret.v, nil
		}
	}
	main, ok := in.defs["main"]
	if !ok {
		return nil, nil
	}
	items := make([]vm.Item, len(args))
	for i, a := range args {
		it, err := vm.ItemOf(a)
		if err != nil {
			return nil, err
		}
		items[i] = it
	}
	if len(items) != len(main.Params) {
		return nil, nodeErr(main, ErrArity, "main takes %d, got %d", len(main.Params), len(items))
	}
	return in.call(main, items)
}

type interp struct {
	defs  map[string]*Def
	steps int
}

type frame struct {
	fn       *Def
	locals   map[string]vm.Item
	declared map[string]bool
}

// returned carries a return value up through nested statements.
type returned struct{ v vm.Item }

func (in *interp) call(d *Def, args []vm.Item) (vm.Item, error) {
	fr := &frame{fn: d, locals: make(map[string]vm.Item), declared: make(map[string]bool)}
	for i, p := range d.Params {
		fr.locals[p] = args[i]
	}
	declare(fr.declared, d.Body)

	var v vm.Item = vm.NewInt(0)
	for _, s := range d.Body {
		r, err := in.stmt(fr, s)
		if err != nil {
			return nil, err
		}
		if ret, ok := r.(returned); ok {
			return ret.v, nil
		}
		v = r.(vm.Item)
	}
	return v, nil
}

// declare records every name assigned anywhere in stmts. Such a name
// reads as false before its first assignment, like an unset slot.
func declare(m map[string]bool, stmts []Node) {
	for _, s := range stmts {
		switch s := s.(type) {
		case *Assign:
			m[s.Name] = true
		case *If:
			declare(m, s.Then)
			declare(m, s.Else)
		case *While:
			declare(m, s.Body)
		}
	}
}

func (in *interp) tick(n Node) error {
	in.steps++
	if in.steps > maxInterpSteps {
		return nodeErr(n, ErrRuntime, "step limit exceeded")
	}
	return nil
}

// block runs stmts and returns the last value, 0 for an empty
// block, or a returned.
func (in *interp) block(fr *frame, stmts []Node) (interface{}, error) {
	var v interface{} = vm.NewInt(0)
	for _, s := range stmts {
		r, err := in.stmt(fr, s)
		if err != nil {
			return nil, err
		}
		if _, ok := r.(returned); ok {
			return r, nil
		}
		v = r
	}
	return v, nil
}

// stmt returns a vm.Item or a returned.
func (in *interp) stmt(fr *frame, s Node) (interface{}, error) {
	if err := in.tick(s); err != nil {
		return nil, err
	}
	switch s := s.(type) {
	case *Def:
		return nil, nodeErr(s, ErrNestedDef, "%s", s.Name)

	case *Assign:
		if fr.fn == nil {
			return nil, nodeErr(s, ErrTopLevelLocal, "%s", s.Name)
		}
		v, err := in.expr(fr, s.Value)
		if err != nil {
			return nil, err
		}
		if s.Op != "" {
			old, ok := fr.locals[s.Name]
			if !ok && !fr.declared[s.Name] {
				return nil, nodeErr(s, ErrUndefined, "local %s", s.Name)
			}
			if !ok {
				old = vm.Boolean(false)
			}
			v, err = in.binop(s, s.Op, old, v)
			if err != nil {
				return nil, err
			}
		}
		fr.locals[s.Name] = v
		return v, nil

	case *IndexAssign:
		x, err := in.expr(fr, s.X)
		if err != nil {
			return nil, err
		}
		i, err := in.expr(fr, s.Index)
		if err != nil {
			return nil, err
		}
		v, err := in.expr(fr, s.Value)
		if err != nil {
			return nil, err
		}
		a, idx, err := in.element(s, x, i)
		if err != nil {
			return nil, err
		}
		a.Items[idx] = v
		return vm.NewInt(0), nil

	case *If:
		cond, err := in.expr(fr, s.Cond)
		if err != nil {
			return nil, err
		}
		if vm.ToBool(cond) {
			return in.block(fr, s.Then)
		}
		return in.block(fr, s.Else)

	case *While:
		for {
			cond, err := in.expr(fr, s.Cond)
			if err != nil {
				return nil, err
			}
			if !vm.ToBool(cond) {
				return vm.NewInt(0), nil
			}
			r, err := in.block(fr, s.Body)
			if err != nil {
				return nil, err
			}
			if _, ok := r.(returned); ok {
				return r, nil
			}
		}

	case *Return:
		if s.Value == nil {
			return returned{vm.NewInt(0)}, nil
		}
		v, err := in.expr(fr, s.Value)
		if err != nil {
			return nil, err
		}
		return returned{v}, nil
	}
	return in.expr(fr, s)
}

func (in *interp) expr(fr *frame, n Node) (vm.Item, error) {
	if err := in.tick(n); err != nil {
		return nil, err
	}
	switch n := n.(type) {
	case *IntLit:
		return vm.NewBigInt(n.Val), nil

	case *BoolLit:
		if n.Val {
			return vm.NewInt(1), nil
		}
		return vm.NewInt(0), nil

	case *StrLit:
		return vm.ByteArray(append([]byte(nil), n.Val...)), nil

	case *ArrayLit:
		a := &vm.Array{Items: make([]vm.Item, len(n.Elems))}
		for i, e := range n.Elems {
			v, err := in.expr(fr, e)
			if err != nil {
				return nil, err
			}
			a.Items[i] = v
		}
		return a, nil

	case *Ident:
		if v, ok := fr.locals[n.Name]; ok {
			return v, nil
		}
		if fr.declared[n.Name] {
			return vm.Boolean(false), nil
		}
		if d, ok := in.defs[n.Name]; ok && len(d.Params) == 0 {
			return in.call(d, nil)
		}
		return nil, nodeErr(n, ErrUndefined, "local %s", n.Name)

	case *Binary:
		l, err := in.expr(fr, n.L)
		if err != nil {
			return nil, err
		}
		r, err := in.expr(fr, n.R)
		if err != nil {
			return nil, err
		}
		numeric := isIntLit(n.L) || isIntLit(n.R)
		switch n.Op {
		case "==", "!=":
			var eq bool
			if numeric {
				c, err := in.cmp(n, l, r)
				if err != nil {
					return nil, err
				}
				eq = c == 0
			} else {
				eq = vm.Equals(l, r)
			}
			return vm.Boolean(eq == (n.Op == "==")), nil
		}
		return in.binop(n, n.Op, l, r)

	case *Unary:
		x, err := in.expr(fr, n.X)
		if err != nil {
			return nil, err
		}
		if n.Op == "!" {
			return vm.Boolean(!vm.ToBool(x)), nil
		}
		v, err := toInt(n, x)
		if err != nil {
			return nil, err
		}
		switch n.Op {
		case "-":
			return vm.NewBigInt(new(big.Int).Neg(v)), nil
		case "~":
			return vm.NewBigInt(new(big.Int).Not(v)), nil
		}
		return nil, nodeErr(n, ErrUnsupported, "operator %s", n.Op)

	case *Index:
		x, err := in.expr(fr, n.X)
		if err != nil {
			return nil, err
		}
		i, err := in.expr(fr, n.Index)
		if err != nil {
			return nil, err
		}
		a, idx, err := in.element(n, x, i)
		if err != nil {
			return nil, err
		}
		return a.Items[idx], nil

	case *Call:
		return in.callExpr(fr, n)
	}
	if n == nil {
		return nil, Error{Err: ErrUnsupported}
	}
	return nil, nodeErr(n, ErrUnsupported, "node %T", n)
}

func (in *interp) element(n Node, x, i vm.Item) (*vm.Array, int, error) {
	a, ok := x.(*vm.Array)
	if !ok {
		return nil, 0, nodeErr(n, ErrRuntime, "indexing %s", x)
	}
	idx, err := toInt(n, i)
	if err != nil {
		return nil, 0, err
	}
	if !idx.IsInt64() || idx.Int64() < 0 || idx.Int64() >= int64(len(a.Items)) {
		return nil, 0, nodeErr(n, ErrRuntime, "index %s of %d", idx, len(a.Items))
	}
	return a, int(idx.Int64()), nil
}

func toInt(n Node, it vm.Item) (*big.Int, error) {
	v, err := vm.ToBigInt(it)
	if err != nil {
		return nil, nodeErr(n, ErrRuntime, "%s", err)
	}
	return v, nil
}

func toBytes(n Node, it vm.Item) ([]byte, error) {
	b, err := vm.ToBytes(it)
	if err != nil {
		return nil, nodeErr(n, ErrRuntime, "%s", err)
	}
	return b, nil
}

func (in *interp) cmp(n Node, l, r vm.Item) (int, error) {
	a, err := toInt(n, l)
	if err != nil {
		return 0, err
	}
	b, err := toInt(n, r)
	if err != nil {
		return 0, err
	}
	return a.Cmp(b), nil
}

func (in *interp) binop(n Node, op string, l, r vm.Item) (vm.Item, error) {
	switch op {
	case "&&":
		return vm.Boolean(vm.ToBool(l) && vm.ToBool(r)), nil
	case "||":
		return vm.Boolean(vm.ToBool(l) || vm.ToBool(r)), nil
	case "<", "<=", ">", ">=":
		c, err := in.cmp(n, l, r)
		if err != nil {
			return nil, err
		}
		switch op {
		case "<":
			return vm.Boolean(c < 0), nil
		case "<=":
			return vm.Boolean(c <= 0), nil
		case ">":
			return vm.Boolean(c > 0), nil
		}
		return vm.Boolean(c >= 0), nil
	}

	a, err := toInt(n, l)
	if err != nil {
		return nil, err
	}
	b, err := toInt(n, r)
	if err != nil {
		return nil, err
	}
	res := new(big.Int)
	switch op {
	case "+":
		res.Add(a, b)
	case "-":
		res.Sub(a, b)
	case "*":
		res.Mul(a, b)
	case "/", "%":
		if b.Sign() == 0 {
			return nil, nodeErr(n, ErrRuntime, "%s", vm.ErrDivZero)
		}
		if op == "/" {
			res.Quo(a, b)
		} else {
			res.Rem(a, b)
		}
	case "&":
		res.And(a, b)
	case "|":
		res.Or(a, b)
	case "^":
		res.Xor(a, b)
	case "<<", ">>":
		if b.Sign() < 0 || b.Cmp(big.NewInt(256)) > 0 {
			return nil, nodeErr(n, ErrRuntime, "shift by %s", b)
		}
		if op == "<<" {
			res.Lsh(a, uint(b.Uint64()))
		} else {
			res.Rsh(a, uint(b.Uint64()))
		}
	default:
		return nil, nodeErr(n, ErrUnsupported, "operator %s", op)
	}
	return vm.NewBigInt(res), nil
}

func (in *interp) callExpr(fr *frame, n *Call) (vm.Item, error) {
	if n.Recv != nil {
		if _, ok := n.Recv.(*Const); ok {
			return nil, nodeErr(n, ErrUnsupported, "host call %s in interpreter", n)
		}
		if _, ok := valueMethods[n.Name]; ok {
			x, err := in.expr(fr, n.Recv)
			if err != nil {
				return nil, err
			}
			a, ok := x.(*vm.Array)
			if !ok {
				return nil, nodeErr(n, ErrRuntime, "%s of %s", n.Name, x)
			}
			return vm.NewInt(int64(len(a.Items))), nil
		}
		return nil, nodeErr(n, ErrUnsupported, "method %s in interpreter", n.Name)
	}

	args := make([]vm.Item, len(n.Args))
	for i, a := range n.Args {
		v, err := in.expr(fr, a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	if d, ok := in.defs[n.Name]; ok {
		if err := checkArity(n, len(d.Params)); err != nil {
			return nil, err
		}
		return in.call(d, args)
	}
	b, ok := builtins[n.Name]
	if !ok {
		return nil, nodeErr(n, ErrUndefined, "function %s", n.Name)
	}
	if err := checkArity(n, b.arity); err != nil {
		return nil, err
	}
	return in.builtin(n, args)
}

func (in *interp) builtin(n *Call, args []vm.Item) (vm.Item, error) {
	switch n.Name {
	case "sha1", "sha256", "hash160", "hash256", "size":
		x, err := toBytes(n, args[0])
		if err != nil {
			return nil, err
		}
		switch n.Name {
		case "sha1":
			h := sha1.Sum(x)
			return vm.ByteArray(h[:]), nil
		case "sha256":
			h := sha256.Sum256(x)
			return vm.ByteArray(h[:]), nil
		case "hash160":
			h := hash160.Sum(x)
			return vm.ByteArray(h[:]), nil
		case "hash256":
			h := hash256.Sum(x)
			return vm.ByteArray(h[:]), nil
		}
		return vm.NewInt(int64(len(x))), nil

	case "concat":
		a, err := toBytes(n, args[0])
		if err != nil {
			return nil, err
		}
		b, err := toBytes(n, args[1])
		if err != nil {
			return nil, err
		}
		return vm.ByteArray(append(append([]byte(nil), a...), b...)), nil

	case "abs", "min", "max", "within":
		v := make([]*big.Int, len(args))
		for i, a := range args {
			x, err := toInt(n, a)
			if err != nil {
				return nil, err
			}
			v[i] = x
		}
		res := new(big.Int)
		switch n.Name {
		case "abs":
			res.Abs(v[0])
		case "min":
			res.Set(v[0])
			if v[1].Cmp(v[0]) < 0 {
				res.Set(v[1])
			}
		case "max":
			res.Set(v[0])
			if v[1].Cmp(v[0]) > 0 {
				res.Set(v[1])
			}
		case "within":
			return vm.Boolean(v[1].Cmp(v[0]) <= 0 && v[0].Cmp(v[2]) < 0), nil
		}
		return vm.NewBigInt(res), nil
	}
	return nil, nodeErr(n, ErrUnsupported, "%s in interpreter", n.Name)
}
