// Package simulation runs contracts against mock chain services.
//
// A Simulation owns a script registry, contract storage, a mock
// blockchain and a runtime that collects log output, and exposes
// them to scripts through the Neo.* interop services.
package simulation

import (
	"context"
	"time"

	"github.com/CityOfZion/neo-ruby-sdk/errors"
	"github.com/CityOfZion/neo-ruby-sdk/log"
	"github.com/CityOfZion/neo-ruby-sdk/metrics"
	"github.com/CityOfZion/neo-ruby-sdk/protocol/vm"
	"github.com/CityOfZion/neo-ruby-sdk/protocol/vmutil"
)

// Simulation is an execution environment for contracts.
// Invocations may run concurrently; each uses its own engine.
type Simulation struct {
	Registry vm.Registry
	Store    Store
	Chain    *Blockchain
	Runtime  *Runtime

	interop    *vm.Interop
	engineOpts []vm.Option
	genesis    time.Time
}

// Option configures a Simulation.
type Option func(*Simulation)

// WithRegistry replaces the in-memory script registry.
func WithRegistry(r vm.Registry) Option {
	return func(s *Simulation) { s.Registry = r }
}

// WithStore replaces the in-memory contract storage.
func WithStore(st Store) Option {
	return func(s *Simulation) { s.Store = st }
}

// WithEngineOptions passes opts to every engine the simulation
// creates.
func WithEngineOptions(opts ...vm.Option) Option {
	return func(s *Simulation) { s.engineOpts = append(s.engineOpts, opts...) }
}

// WithGenesis sets the timestamp of block 0.
func WithGenesis(t time.Time) Option {
	return func(s *Simulation) { s.genesis = t }
}

// Verbose writes contract log messages to the log package as well
// as collecting them.
func Verbose() Option {
	return func(s *Simulation) { s.Runtime.Verbose = true }
}

// New returns a simulation with an empty chain.
func New(opts ...Option) *Simulation {
	s := &Simulation{
		Registry: NewMemRegistry(),
		Store:    NewMemStore(),
		Runtime:  new(Runtime),
		interop:  vm.NewInterop(),
		genesis:  time.Unix(1468595301, 0),
	}
	for _, o := range opts {
		o(s)
	}
	s.Chain = NewBlockchain(s.genesis)
	s.registerServices()
	return s
}

// Interop returns the service table scripts see.
func (s *Simulation) Interop() *vm.Interop { return s.interop }

// NewEngine returns an engine wired to the simulation's registry and
// services.
func (s *Simulation) NewEngine(opts ...vm.Option) *vm.Engine {
	all := append(append([]vm.Option(nil), s.engineOpts...), opts...)
	return vm.New(s.Registry, s.interop, all...)
}

// Deploy registers prog and records it as a contract on the chain.
// Only contracts deployed with storage may use the Storage services.
func (s *Simulation) Deploy(ctx context.Context, prog []byte, storage bool) (vm.Hash, error) {
	script, err := vm.NewScript(prog)
	if err != nil {
		return vm.Hash{}, errors.Wrap(err, "deploying")
	}
	if err := s.Registry.Register(ctx, script); err != nil {
		return vm.Hash{}, errors.Wrap(err, "deploying")
	}
	s.Chain.SetContract(script, storage)
	log.Printkv(ctx, log.KeyMessage, "deployed", "hash", script.Hash(), "bytes", script.Len(), "storage", storage)
	return script.Hash(), nil
}

// Invoke calls the contract with hash h, passing params, and returns
// the item on top of the evaluation stack, or nil if it is empty.
func (s *Simulation) Invoke(ctx context.Context, h vm.Hash, params ...interface{}) (vm.Item, error) {
	defer metrics.RecordElapsed(time.Now())

	entry, err := vmutil.EntryScript(h, params...)
	if err != nil {
		return nil, errors.Wrap(err, "building entry script")
	}
	e := s.NewEngine()
	e.LoadScript(vm.MustScript(entry), false)
	ctx = log.WithScript(ctx, h)
	if err := e.Execute(ctx); err != nil {
		log.Error(ctx, err, "invocation faulted")
		return nil, err
	}
	if e.EvaluationStack().Len() == 0 {
		return nil, nil
	}
	return e.EvaluationStack().Pop()
}

// Verify runs the push-only invocation script followed by the
// verification script, with msg as the signed container, and
// reports whether it left true on the stack.
func (s *Simulation) Verify(ctx context.Context, verification, invocation, msg []byte) (bool, error) {
	vs, err := vm.NewScript(verification)
	if err != nil {
		return false, errors.Wrap(err, "verification script")
	}
	is, err := vm.NewScript(invocation)
	if err != nil {
		return false, errors.Wrap(err, "invocation script")
	}
	e := s.NewEngine(vm.WithContainer(msg))
	e.LoadScript(vs, false)
	e.LoadScript(is, true)
	if err := e.Execute(log.WithScript(ctx, vs.Hash())); err != nil {
		return false, err
	}
	if e.EvaluationStack().Len() != 1 {
		return false, nil
	}
	top, err := e.EvaluationStack().Pop()
	if err != nil {
		return false, err
	}
	return vm.ToBool(top), nil
}

// Reset clears storage, the chain, collected runtime output and, if
// it is in memory, the registry.
func (s *Simulation) Reset(ctx context.Context) error {
	if err := s.Store.Reset(ctx); err != nil {
		return errors.Wrap(err, "resetting storage")
	}
	if r, ok := s.Registry.(*MemRegistry); ok {
		r.reset()
	}
	s.Chain.reset(s.genesis)
	s.Runtime.reset()
	return nil
}
