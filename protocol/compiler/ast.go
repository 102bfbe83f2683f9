package compiler

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

// Pos is a source position.
type Pos struct {
	Line, Col int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Node is an element of the syntax tree. Front ends other than Parse
// may build trees from these types directly.
type Node interface {
	Position() Pos
	String() string
}

// File is a parsed source file: its function definitions and the
// top-level statements that make up the entry block.
type File struct {
	Name  string
	Defs  []*Def
	Stmts []Node
}

type (
	// Def is a function definition.
	Def struct {
		Pos    Pos
		Name   string
		Params []string
		Body   []Node
	}

	IntLit struct {
		Pos Pos
		Val *big.Int
	}

	BoolLit struct {
		Pos Pos
		Val bool
	}

	StrLit struct {
		Pos Pos
		Val []byte
	}

	ArrayLit struct {
		Pos   Pos
		Elems []Node
	}

	// Ident is a bare name: a local variable, or a call without
	// arguments.
	Ident struct {
		Pos  Pos
		Name string
	}

	// Assign stores Value in a local. Op is empty for plain
	// assignment, or the binary operator of a compound assignment
	// such as "+" for +=.
	Assign struct {
		Pos   Pos
		Name  string
		Op    string
		Value Node
	}

	// IndexAssign stores Value at X[Index].
	IndexAssign struct {
		Pos      Pos
		X, Index Node
		Value    Node
	}

	Binary struct {
		Pos  Pos
		Op   string
		L, R Node
	}

	Unary struct {
		Pos Pos
		Op  string
		X   Node
	}

	Index struct {
		Pos      Pos
		X, Index Node
	}

	// Call invokes a function. Recv is nil for plain calls, a
	// *Const for namespaced host calls such as Storage.get, or any
	// expression for property calls such as header.timestamp.
	Call struct {
		Pos  Pos
		Recv Node
		Name string
		Args []Node
	}

	// Const is a capitalized namespace name such as Storage.
	Const struct {
		Pos  Pos
		Name string
	}

	If struct {
		Pos  Pos
		Cond Node
		Then []Node
		Else []Node
	}

	While struct {
		Pos  Pos
		Cond Node
		Body []Node
	}

	Return struct {
		Pos   Pos
		Value Node // may be nil
	}
)

func (n *Def) Position() Pos         { return n.Pos }
func (n *IntLit) Position() Pos      { return n.Pos }
func (n *BoolLit) Position() Pos     { return n.Pos }
func (n *StrLit) Position() Pos      { return n.Pos }
func (n *ArrayLit) Position() Pos    { return n.Pos }
func (n *Ident) Position() Pos       { return n.Pos }
func (n *Assign) Position() Pos      { return n.Pos }
func (n *IndexAssign) Position() Pos { return n.Pos }
func (n *Binary) Position() Pos      { return n.Pos }
func (n *Unary) Position() Pos       { return n.Pos }
func (n *Index) Position() Pos       { return n.Pos }
func (n *Call) Position() Pos        { return n.Pos }
func (n *Const) Position() Pos       { return n.Pos }
func (n *If) Position() Pos          { return n.Pos }
func (n *While) Position() Pos       { return n.Pos }
func (n *Return) Position() Pos      { return n.Pos }

func (n *Def) String() string {
	return fmt.Sprintf("def %s(%s)", n.Name, strings.Join(n.Params, ", "))
}

func (n *IntLit) String() string  { return n.Val.String() }
func (n *BoolLit) String() string { return fmt.Sprint(n.Val) }

func (n *StrLit) String() string {
	for _, c := range n.Val {
		if c < ' ' || c > '~' {
			return "0x" + hex.EncodeToString(n.Val)
		}
	}
	return fmt.Sprintf("%q", n.Val)
}

func (n *ArrayLit) String() string { return "[" + joinNodes(n.Elems) + "]" }
func (n *Ident) String() string    { return n.Name }
func (n *Const) String() string    { return n.Name }

func (n *Assign) String() string {
	return fmt.Sprintf("%s %s= %s", n.Name, n.Op, n.Value)
}

func (n *IndexAssign) String() string {
	return fmt.Sprintf("%s[%s] = %s", n.X, n.Index, n.Value)
}

func (n *Binary) String() string { return fmt.Sprintf("(%s %s %s)", n.L, n.Op, n.R) }
func (n *Unary) String() string  { return fmt.Sprintf("%s%s", n.Op, n.X) }
func (n *Index) String() string  { return fmt.Sprintf("%s[%s]", n.X, n.Index) }

func (n *Call) String() string {
	if n.Recv != nil {
		return fmt.Sprintf("%s.%s(%s)", n.Recv, n.Name, joinNodes(n.Args))
	}
	return fmt.Sprintf("%s(%s)", n.Name, joinNodes(n.Args))
}

func (n *If) String() string    { return fmt.Sprintf("if %s", n.Cond) }
func (n *While) String() string { return fmt.Sprintf("while %s", n.Cond) }

func (n *Return) String() string {
	if n.Value == nil {
		return "return"
	}
	return "return " + n.Value.String()
}

func joinNodes(nodes []Node) string {
	s := make([]string, len(nodes))
	for i, n := range nodes {
		s[i] = n.String()
	}
	return strings.Join(s, ", ")
}
