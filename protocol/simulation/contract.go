package simulation

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/CityOfZion/neo-ruby-sdk/errors"
	"github.com/CityOfZion/neo-ruby-sdk/protocol/compiler"
	"github.com/CityOfZion/neo-ruby-sdk/protocol/contract"
	"github.com/CityOfZion/neo-ruby-sdk/protocol/vm"
)

// Contract is a deployed contract with a known signature.
type Contract struct {
	Hash   vm.Hash
	Return contract.ParamType
	Params []contract.ParamType

	sim *Simulation
}

// LoadContract deploys the contract at path, with storage. Source
// files (.rb) are compiled and take their signature from the header
// comment; any other file is treated as bytecode returning ret.
func (s *Simulation) LoadContract(ctx context.Context, path string, ret contract.ParamType) (*Contract, error) {
	if filepath.Ext(path) == ".rb" {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrap(err, "loading contract")
		}
		defer f.Close()
		c, err := compiler.Compile(ctx, filepath.Base(path), f)
		if err != nil {
			return nil, err
		}
		return s.DeployCompiled(ctx, c)
	}

	prog, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "loading contract")
	}
	h, err := s.Deploy(ctx, prog, true)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return &Contract{Hash: h, Return: ret, sim: s}, nil
}

// DeployCompiled deploys a compiled contract, with storage.
func (s *Simulation) DeployCompiled(ctx context.Context, c *compiler.Contract) (*Contract, error) {
	h, err := s.Deploy(ctx, c.Script, true)
	if err != nil {
		return nil, err
	}
	return &Contract{Hash: h, Return: c.Return, Params: c.Params, sim: s}, nil
}

// Invoke calls the contract and converts its result with
// contract.Cast according to the return type.
func (c *Contract) Invoke(ctx context.Context, params ...interface{}) (interface{}, error) {
	if c.Params != nil && len(params) != len(c.Params) {
		return nil, errors.WithDetailf(contract.ErrCast, "%d arguments for %d parameters", len(params), len(c.Params))
	}
	it, err := c.sim.Invoke(ctx, c.Hash, params...)
	if err != nil {
		return nil, err
	}
	return contract.Cast(it, c.Return)
}
