package compiler

import (
	"context"
	"io"
	"io/ioutil"

	"github.com/davecgh/go-spew/spew"

	"github.com/CityOfZion/neo-ruby-sdk/errors"
	"github.com/CityOfZion/neo-ruby-sdk/log"
	"github.com/CityOfZion/neo-ruby-sdk/protocol/contract"
	"github.com/CityOfZion/neo-ruby-sdk/protocol/vm"
)

// Contract is a compiled contract and the signature declared in its
// source header.
type Contract struct {
	Script []byte
	Return contract.ParamType
	Params []contract.ParamType
	File   *File
}

// Hash returns the script hash of the compiled contract.
func (c *Contract) Hash() vm.Hash { return vm.HashOf(c.Script) }

// Compile parses contract source read from r and produces its
// bytecode. The name is used in error positions and logs.
func Compile(ctx context.Context, name string, r io.Reader) (*Contract, error) {
	src, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading source")
	}
	h, err := contract.ParseHeader(src)
	if err != nil {
		return nil, errors.Wrap(err, name)
	}
	f, err := Parse(name, src)
	if err != nil {
		return nil, err
	}
	if main := f.Def("main"); main != nil && len(h.Params) > 0 && len(h.Params) != len(main.Params) {
		return nil, nodeErr(main, ErrArity, "header declares %d params, main takes %d", len(h.Params), len(main.Params))
	}
	prog, err := CompileFile(f)
	if err != nil {
		return nil, err
	}
	c := &Contract{Script: prog, Return: h.Return, Params: h.Params, File: f}
	log.Printkv(ctx, log.KeyMessage, "compiled", "file", name, "defs", len(f.Defs), "bytes", len(prog), "hash", c.Hash())
	return c, nil
}

// CompileFile compiles a syntax tree. Trees may come from Parse or
// from any other front end. On error no bytecode is returned.
func CompileFile(f *File) ([]byte, error) {
	c := newEmitter()
	if err := c.file(f); err != nil {
		return nil, err
	}
	return c.link()
}

// Def returns the function with the given name, or nil.
func (f *File) Def(name string) *Def {
	for _, d := range f.Defs {
		if d.Name == name {
			return d
		}
	}
	return nil
}

// Dump writes the syntax tree of c for debugging.
func Dump(w io.Writer, c *Contract) {
	cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true}
	cfg.Fdump(w, c.File)
}
