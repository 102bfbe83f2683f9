package simulation

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/CityOfZion/neo-ruby-sdk/errors"
	"github.com/CityOfZion/neo-ruby-sdk/protocol/vm"
)

func TestMemStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	a, b := vm.Hash{1}, vm.Hash{2}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h := a
			if i%2 == 1 {
				h = b
			}
			if err := s.Put(ctx, h, []byte(fmt.Sprint(i)), vm.NewInt(int64(i))); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()

	keys := s.Keys(a)
	sort.Strings(keys)
	if fmt.Sprint(keys) != "[0 2 4 6]" {
		t.Errorf("Keys(a) = %v", keys)
	}
	v, ok, err := s.Get(ctx, b, []byte("3"))
	if err != nil || !ok || v.String() != "3" {
		t.Errorf("Get(b, 3) = %v, %v, %v", v, ok, err)
	}
	if _, ok, _ := s.Get(ctx, a, []byte("3")); ok {
		t.Error("namespaces overlap")
	}

	if err := s.Delete(ctx, b, []byte("3")); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.Get(ctx, b, []byte("3")); ok {
		t.Error("key survived Delete")
	}

	nested := &vm.Array{Items: []vm.Item{vm.NewInt(1), vm.InteropItem{Value: StorageContext{}}}}
	if err := s.Put(ctx, a, []byte("x"), nested); !errors.Is(err, ErrNotStorable) {
		t.Errorf("Put(interop) err = %v", err)
	}

	if err := s.Reset(ctx); err != nil {
		t.Fatal(err)
	}
	if n := len(s.Keys(a)); n != 0 {
		t.Errorf("%d keys after Reset", n)
	}
}

func TestMemStoreCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	h := vm.Hash{1}

	inner := &vm.Array{Items: []vm.Item{vm.ByteArray("ab")}, Struct: true}
	a := &vm.Array{Items: []vm.Item{vm.NewInt(1), inner}}
	if err := s.Put(ctx, h, []byte("k"), a); err != nil {
		t.Fatal(err)
	}
	a.Items[0] = vm.NewInt(9)
	inner.Items[0] = vm.ByteArray("zz")

	got, _, err := s.Get(ctx, h, []byte("k"))
	if err != nil {
		t.Fatal(err)
	}
	ga := got.(*vm.Array)
	if n, _ := vm.ToBigInt(ga.Items[0]); n.Int64() != 1 {
		t.Errorf("item 0 = %s want 1", ga.Items[0])
	}
	gi := ga.Items[1].(*vm.Array)
	if string(gi.Items[0].(vm.ByteArray)) != "ab" || !gi.Struct {
		t.Errorf("inner = %s struct=%v want [ab] struct", gi, gi.Struct)
	}

	// changing what Get returned does not change storage either
	ga.Items[0] = vm.NewInt(7)
	again, _, _ := s.Get(ctx, h, []byte("k"))
	if n, _ := vm.ToBigInt(again.(*vm.Array).Items[0]); n.Int64() != 1 {
		t.Errorf("after changing a Get result, item 0 = %s want 1", again.(*vm.Array).Items[0])
	}

	loop := &vm.Array{}
	loop.Items = []vm.Item{loop}
	if err := s.Put(ctx, h, []byte("loop"), loop); !errors.Is(err, ErrNotStorable) {
		t.Errorf("Put(cycle) err = %v", err)
	}
	// the same array twice is not a cycle
	twice := &vm.Array{Items: []vm.Item{inner, inner}}
	if err := s.Put(ctx, h, []byte("twice"), twice); err != nil {
		t.Errorf("Put(shared) err = %v", err)
	}
}

func TestMemRegistry(t *testing.T) {
	ctx := context.Background()
	r := NewMemRegistry()
	s := vm.MustScript([]byte{byte(vm.OP_PUSH1)})
	if _, err := r.Script(ctx, s.Hash()); !errors.Is(err, vm.ErrUnknownScript) {
		t.Errorf("missing script err = %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := r.Register(ctx, s); err != nil {
			t.Fatal(err)
		}
	}
	got, err := r.Script(ctx, s.Hash())
	if err != nil || got != s {
		t.Errorf("Script = %v, %v", got, err)
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d", r.Len())
	}
}
