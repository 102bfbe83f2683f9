package simulation

import (
	"context"
	"sync"

	"github.com/CityOfZion/neo-ruby-sdk/errors"
	"github.com/CityOfZion/neo-ruby-sdk/protocol/vm"
)

// MemRegistry is an in-memory vm.Registry.
type MemRegistry struct {
	mu      sync.RWMutex
	scripts map[vm.Hash]*vm.Script
}

// NewMemRegistry returns an empty registry.
func NewMemRegistry() *MemRegistry {
	return &MemRegistry{scripts: make(map[vm.Hash]*vm.Script)}
}

// Script returns the script with hash h.
func (r *MemRegistry) Script(ctx context.Context, h vm.Hash) (*vm.Script, error) {
	r.mu.RLock()
	s, ok := r.scripts[h]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.WithDetailf(vm.ErrUnknownScript, "%s", h)
	}
	return s, nil
}

// Register adds s. Registering the same script again is a no-op.
func (r *MemRegistry) Register(ctx context.Context, s *vm.Script) error {
	r.mu.Lock()
	r.scripts[s.Hash()] = s
	r.mu.Unlock()
	return nil
}

// Len returns the number of registered scripts.
func (r *MemRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.scripts)
}

func (r *MemRegistry) reset() {
	r.mu.Lock()
	r.scripts = make(map[vm.Hash]*vm.Script)
	r.mu.Unlock()
}
