package simulation

import (
	"math/big"
	"time"

	"github.com/CityOfZion/neo-ruby-sdk/errors"
	"github.com/CityOfZion/neo-ruby-sdk/metrics"
	"github.com/CityOfZion/neo-ruby-sdk/protocol/vm"
	"github.com/CityOfZion/neo-ruby-sdk/protocol/vmutil"
)

// StorageContext grants access to one contract's storage.
type StorageContext struct {
	Script vm.Hash
}

func (c StorageContext) String() string {
	return "<SC " + c.Script.String()[:8] + ">"
}

// register adds fn to the interop table, recording its latency
// under "syscall.<key>".
func (s *Simulation) register(name string, fn vm.Service) {
	m := metrics.Get("syscall." + vm.ServiceKey(name))
	s.interop.Register(name, func(e *vm.Engine) error {
		defer func(t time.Time) { m.Record(time.Since(t)) }(time.Now())
		return fn(e)
	})
}

func (s *Simulation) registerServices() {
	s.register("Neo.Runtime.Log", s.runtimeLog)
	s.register("Neo.Runtime.Notify", s.runtimeNotify)
	s.register("Neo.Runtime.CheckWitness", s.runtimeCheckWitness)
	s.register("Neo.Storage.GetContext", s.storageGetContext)
	s.register("Neo.Storage.Get", s.storageGet)
	s.register("Neo.Storage.Put", s.storagePut)
	s.register("Neo.Storage.Delete", s.storageDelete)
	s.register("Neo.Blockchain.GetHeight", s.blockchainGetHeight)
	s.register("Neo.Blockchain.GetHeader", s.blockchainGetHeader)
	s.register("Neo.Blockchain.GetContract", s.blockchainGetContract)
	s.register("Neo.Header.GetIndex", headerGetIndex)
	s.register("Neo.Header.GetHash", headerGetHash)
	s.register("Neo.Header.GetTimestamp", headerGetTimestamp)
	s.register("Neo.Contract.GetScript", contractGetScript)
	s.register("Neo.Contract.GetStorageContext", contractGetStorageContext)
	s.register("System.ExecutionEngine.GetExecutingScriptHash", executingScriptHash)
	s.register("System.ExecutionEngine.GetEntryScriptHash", entryScriptHash)
}

func currentHash(e *vm.Engine) vm.Hash {
	return e.CurrentContext().Script.Hash()
}

func pushHash(e *vm.Engine, h vm.Hash) {
	e.EvaluationStack().Push(vm.ByteArray(append([]byte(nil), h[:]...)))
}

func executingScriptHash(e *vm.Engine) error {
	pushHash(e, currentHash(e))
	return nil
}

// entryScriptHash pushes the hash of the script the engine was
// started with, which for Invoke is the generated entry script.
func entryScriptHash(e *vm.Engine) error {
	pushHash(e, e.EntryContext().Script.Hash())
	return nil
}

func popBytes(e *vm.Engine) ([]byte, error) {
	it, err := e.EvaluationStack().Pop()
	if err != nil {
		return nil, err
	}
	return vm.ToBytes(it)
}

func popInterop(e *vm.Engine) (interface{}, error) {
	it, err := e.EvaluationStack().Pop()
	if err != nil {
		return nil, err
	}
	ii, ok := it.(vm.InteropItem)
	if !ok {
		return nil, errors.WithDetailf(vm.ErrBadValue, "%s is not an interop item", it)
	}
	return ii.Value, nil
}

func (s *Simulation) runtimeLog(e *vm.Engine) error {
	msg, err := popBytes(e)
	if err != nil {
		return err
	}
	s.Runtime.log(e.Context(), currentHash(e), string(msg))
	return nil
}

func (s *Simulation) runtimeNotify(e *vm.Engine) error {
	it, err := e.EvaluationStack().Pop()
	if err != nil {
		return err
	}
	s.Runtime.notify(currentHash(e), it)
	return nil
}

// runtimeCheckWitness accepts a script hash or a compressed public
// key, which stands for the hash of its signature script.
func (s *Simulation) runtimeCheckWitness(e *vm.Engine) error {
	b, err := popBytes(e)
	if err != nil {
		return err
	}
	var h vm.Hash
	switch len(b) {
	case vm.HashSize:
		copy(h[:], b)
	case 33:
		prog, err := vmutil.CheckSigScript(b)
		if err != nil {
			return err
		}
		h = vm.HashOf(prog)
	default:
		return errors.WithDetailf(vm.ErrBadValue, "witness of %d bytes", len(b))
	}
	e.EvaluationStack().Push(vm.Boolean(s.Chain.CheckWitness(h)))
	return nil
}

func (s *Simulation) storageGetContext(e *vm.Engine) error {
	e.EvaluationStack().Push(vm.InteropItem{Value: StorageContext{Script: currentHash(e)}})
	return nil
}

// popStorage pops a storage context and a key. Writes are only
// allowed to the executing contract's own storage.
func (s *Simulation) popStorage(e *vm.Engine, write bool) (StorageContext, []byte, error) {
	v, err := popInterop(e)
	if err != nil {
		return StorageContext{}, nil, err
	}
	sc, ok := v.(StorageContext)
	if !ok {
		return sc, nil, errors.WithDetailf(vm.ErrBadValue, "%T is not a storage context", v)
	}
	if write && sc.Script != currentHash(e) {
		return sc, nil, errors.WithDetailf(ErrStorageContext, "%s", sc)
	}
	if c := s.Chain.Contract(sc.Script); c == nil || !c.Storage {
		return sc, nil, errors.WithDetailf(ErrNoStorage, "%s", sc.Script)
	}
	key, err := popBytes(e)
	if err != nil {
		return sc, nil, err
	}
	if len(key) > MaxKeySize {
		return sc, nil, errors.WithDetailf(ErrKeyTooLong, "%d bytes", len(key))
	}
	return sc, key, nil
}

func (s *Simulation) storageGet(e *vm.Engine) error {
	sc, key, err := s.popStorage(e, false)
	if err != nil {
		return err
	}
	v, ok, err := s.Store.Get(e.Context(), sc.Script, key)
	if err != nil {
		return err
	}
	if !ok {
		v = vm.ByteArray{}
	}
	e.EvaluationStack().Push(v)
	return nil
}

func (s *Simulation) storagePut(e *vm.Engine) error {
	sc, key, err := s.popStorage(e, true)
	if err != nil {
		return err
	}
	v, err := e.EvaluationStack().Pop()
	if err != nil {
		return err
	}
	return s.Store.Put(e.Context(), sc.Script, key, v)
}

func (s *Simulation) storageDelete(e *vm.Engine) error {
	sc, key, err := s.popStorage(e, true)
	if err != nil {
		return err
	}
	return s.Store.Delete(e.Context(), sc.Script, key)
}

func (s *Simulation) blockchainGetHeight(e *vm.Engine) error {
	e.EvaluationStack().Push(vm.NewInt(int64(s.Chain.Height())))
	return nil
}

// blockchainGetHeader takes a 32-byte block hash or a height.
func (s *Simulation) blockchainGetHeader(e *vm.Engine) error {
	it, err := e.EvaluationStack().Pop()
	if err != nil {
		return err
	}
	var hdr *Header
	if b, ok := it.(vm.ByteArray); ok && len(b) == len(BlockHash{}) {
		var h BlockHash
		copy(h[:], b)
		hdr, err = s.Chain.HeaderByHash(h)
	} else {
		var n *big.Int
		n, err = vm.ToBigInt(it)
		if err != nil {
			return err
		}
		if !n.IsUint64() || n.Uint64() > 1<<32-1 {
			return errors.WithDetailf(vm.ErrRange, "height %s", n)
		}
		hdr, err = s.Chain.HeaderByIndex(uint32(n.Uint64()))
	}
	if err != nil {
		return err
	}
	e.EvaluationStack().Push(vm.InteropItem{Value: hdr})
	return nil
}

// blockchainGetContract pushes an empty byte array when nothing is
// deployed at the hash.
func (s *Simulation) blockchainGetContract(e *vm.Engine) error {
	b, err := popBytes(e)
	if err != nil {
		return err
	}
	if len(b) != vm.HashSize {
		return errors.WithDetailf(vm.ErrBadValue, "contract hash of %d bytes", len(b))
	}
	var h vm.Hash
	copy(h[:], b)
	c := s.Chain.Contract(h)
	if c == nil {
		e.EvaluationStack().Push(vm.ByteArray{})
		return nil
	}
	e.EvaluationStack().Push(vm.InteropItem{Value: c})
	return nil
}

func popHeader(e *vm.Engine) (*Header, error) {
	v, err := popInterop(e)
	if err != nil {
		return nil, err
	}
	h, ok := v.(*Header)
	if !ok {
		return nil, errors.WithDetailf(vm.ErrBadValue, "%T is not a header", v)
	}
	return h, nil
}

func headerGetIndex(e *vm.Engine) error {
	h, err := popHeader(e)
	if err != nil {
		return err
	}
	e.EvaluationStack().Push(vm.NewInt(int64(h.Index)))
	return nil
}

func headerGetHash(e *vm.Engine) error {
	h, err := popHeader(e)
	if err != nil {
		return err
	}
	e.EvaluationStack().Push(vm.ByteArray(append([]byte(nil), h.Hash[:]...)))
	return nil
}

func headerGetTimestamp(e *vm.Engine) error {
	h, err := popHeader(e)
	if err != nil {
		return err
	}
	e.EvaluationStack().Push(vm.NewBigInt(new(big.Int).SetUint64(h.Timestamp)))
	return nil
}

func popContract(e *vm.Engine) (*ContractState, error) {
	v, err := popInterop(e)
	if err != nil {
		return nil, err
	}
	c, ok := v.(*ContractState)
	if !ok {
		return nil, errors.WithDetailf(vm.ErrBadValue, "%T is not a contract", v)
	}
	return c, nil
}

func contractGetScript(e *vm.Engine) error {
	c, err := popContract(e)
	if err != nil {
		return err
	}
	e.EvaluationStack().Push(vm.ByteArray(append([]byte(nil), c.Script.Bytes()...)))
	return nil
}

func contractGetStorageContext(e *vm.Engine) error {
	c, err := popContract(e)
	if err != nil {
		return err
	}
	if !c.Storage {
		return errors.WithDetailf(ErrNoStorage, "%s", c.Script.Hash())
	}
	e.EvaluationStack().Push(vm.InteropItem{Value: StorageContext{Script: c.Script.Hash()}})
	return nil
}
