package simulation

import (
	"context"
	"sync"

	"github.com/CityOfZion/neo-ruby-sdk/errors"
	"github.com/CityOfZion/neo-ruby-sdk/protocol/vm"
)

// MaxKeySize is the longest storage key a contract may use.
const MaxKeySize = 1024

var (
	ErrKeyTooLong     = errors.New("storage key too long")
	ErrNoStorage      = errors.New("contract has no storage")
	ErrStorageContext = errors.New("storage context of another contract")
	ErrNotStorable    = errors.New("value cannot be stored")
)

// Store holds contract storage. Each script hash is a separate
// namespace. Implementations must be safe for concurrent use.
type Store interface {
	Get(ctx context.Context, h vm.Hash, key []byte) (vm.Item, bool, error)
	Put(ctx context.Context, h vm.Hash, key []byte, v vm.Item) error
	Delete(ctx context.Context, h vm.Hash, key []byte) error
	Reset(ctx context.Context) error
}

// MemStore is an in-memory Store. Each namespace has its own lock,
// so contracts running concurrently do not contend unless they share
// storage.
type MemStore struct {
	mu sync.Mutex
	ns map[vm.Hash]*namespace
}

type namespace struct {
	mu    sync.RWMutex
	items map[string]vm.Item
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{ns: make(map[vm.Hash]*namespace)}
}

func (s *MemStore) namespace(h vm.Hash) *namespace {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.ns[h]
	if !ok {
		n = &namespace{items: make(map[string]vm.Item)}
		s.ns[h] = n
	}
	return n
}

func (s *MemStore) Get(ctx context.Context, h vm.Hash, key []byte) (vm.Item, bool, error) {
	n := s.namespace(h)
	n.mu.RLock()
	defer n.mu.RUnlock()
	v, ok := n.items[string(key)]
	if !ok {
		return nil, false, nil
	}
	// stored values were copied in by Put, so copying out cannot fail
	c, _ := copyStorable(v, nil)
	return c, true, nil
}

func (s *MemStore) Put(ctx context.Context, h vm.Hash, key []byte, v vm.Item) error {
	c, err := copyStorable(v, nil)
	if err != nil {
		return err
	}
	n := s.namespace(h)
	n.mu.Lock()
	n.items[string(key)] = c
	n.mu.Unlock()
	return nil
}

func (s *MemStore) Delete(ctx context.Context, h vm.Hash, key []byte) error {
	n := s.namespace(h)
	n.mu.Lock()
	delete(n.items, string(key))
	n.mu.Unlock()
	return nil
}

func (s *MemStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	s.ns = make(map[vm.Hash]*namespace)
	s.mu.Unlock()
	return nil
}

// Keys returns the keys stored under h, in no particular order.
func (s *MemStore) Keys(h vm.Hash) []string {
	n := s.namespace(h)
	n.mu.RLock()
	defer n.mu.RUnlock()
	keys := make([]string, 0, len(n.items))
	for k := range n.items {
		keys = append(keys, k)
	}
	return keys
}

// copyStorable returns a deep copy of it, so a stored value never
// shares arrays or bytes with a running engine. Items that only have
// meaning inside one execution, such as interop handles, and arrays
// that contain themselves are rejected.
func copyStorable(it vm.Item, open map[*vm.Array]bool) (vm.Item, error) {
	switch v := it.(type) {
	case vm.InteropItem:
		return nil, errors.WithDetailf(ErrNotStorable, "%s", v)
	case vm.ByteArray:
		return append(vm.ByteArray{}, v...), nil
	case *vm.Array:
		if open[v] {
			return nil, errors.WithDetail(ErrNotStorable, "array contains itself")
		}
		if open == nil {
			open = make(map[*vm.Array]bool)
		}
		open[v] = true
		defer delete(open, v)
		c := &vm.Array{Items: make([]vm.Item, len(v.Items)), Struct: v.Struct}
		for i, e := range v.Items {
			ce, err := copyStorable(e, open)
			if err != nil {
				return nil, err
			}
			c.Items[i] = ce
		}
		return c, nil
	case nil:
		return nil, errors.WithDetail(ErrNotStorable, "nil item")
	}
	return it, nil
}
