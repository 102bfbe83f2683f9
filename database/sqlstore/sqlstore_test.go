package sqlstore

import (
	"bytes"
	"context"
	"math/big"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/CityOfZion/neo-ruby-sdk/errors"
	"github.com/CityOfZion/neo-ruby-sdk/protocol/simulation"
	"github.com/CityOfZion/neo-ruby-sdk/protocol/vm"
	"github.com/CityOfZion/neo-ruby-sdk/protocol/vmutil"
)

// openTest opens a fresh SQLite database, or the Postgres database
// named by NEOVM_TEST_DB_URL when it is set.
func openTest(t *testing.T, opts ...Option) *DB {
	ctx := context.Background()
	driver, dsn := DriverSQLite, filepath.Join(t.TempDir(), "neovm.db")
	if u := os.Getenv("NEOVM_TEST_DB_URL"); u != "" {
		driver, dsn = DriverPostgres, u
	}
	db, err := Open(ctx, driver, dsn, opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		if driver == DriverPostgres {
			db.exec(ctx, `DELETE FROM storage`)
			db.exec(ctx, `DELETE FROM scripts`)
		}
		db.Close()
	})
	return db
}

func TestItemCodec(t *testing.T) {
	big1, _ := new(big.Int).SetString("-123456789012345678901234567890", 10)
	items := []vm.Item{
		vm.ByteArray("hello"),
		vm.ByteArray{},
		vm.NewInt(0),
		vm.NewInt(-1),
		vm.NewBigInt(big1),
		vm.Boolean(true),
		vm.Boolean(false),
		&vm.Array{Items: []vm.Item{vm.NewInt(1), vm.ByteArray("x"), &vm.Array{Struct: true}}},
	}
	for _, it := range items {
		b, err := EncodeItem(it)
		require.NoError(t, err)
		got, err := DecodeItem(b)
		require.NoError(t, err)
		require.Equal(t, it.String(), got.String())
		if a, ok := it.(*vm.Array); ok {
			require.Equal(t, a.Struct, got.(*vm.Array).Struct)
		} else {
			require.True(t, vm.Equals(it, got), "%s != %s", it, got)
		}
	}

	_, err := EncodeItem(vm.InteropItem{Value: 1})
	require.True(t, errors.Is(err, simulation.ErrNotStorable))
	loop := &vm.Array{}
	loop.Items = []vm.Item{vm.NewInt(1), loop}
	_, err = EncodeItem(loop)
	require.True(t, errors.Is(err, simulation.ErrNotStorable))
	_, err = DecodeItem([]byte{0xff, 0x00})
	require.True(t, errors.Is(err, ErrCorrupt))
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	st := openTest(t).Store()
	h := vm.Hash{1}

	_, ok, err := st.Get(ctx, h, []byte("k"))
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, st.Put(ctx, h, []byte("k"), vm.NewInt(1)))
	require.NoError(t, st.Put(ctx, h, []byte("k"), vm.NewInt(2)))
	require.NoError(t, st.Put(ctx, h, []byte("a"), vm.ByteArray("v")))
	require.NoError(t, st.Put(ctx, vm.Hash{2}, []byte("k"), vm.Boolean(true)))

	v, ok, err := st.Get(ctx, h, []byte("k"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "2", v.String())

	keys, err := st.Keys(ctx, h)
	require.NoError(t, err)
	require.Equal(t, [][]byte{[]byte("a"), []byte("k")}, keys)

	require.NoError(t, st.Delete(ctx, h, []byte("k")))
	_, ok, err = st.Get(ctx, h, []byte("k"))
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, st.Reset(ctx))
	_, ok, err = st.Get(ctx, vm.Hash{2}, []byte("k"))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRegistry(t *testing.T) {
	ctx := context.Background()
	db := openTest(t)
	r := db.Registry(1)

	s1 := vm.MustScript([]byte{byte(vm.OP_PUSH1)})
	s2 := vm.MustScript([]byte{byte(vm.OP_PUSH2)})
	require.NoError(t, r.Register(ctx, s1))
	require.NoError(t, r.Register(ctx, s1))
	require.NoError(t, r.Register(ctx, s2)) // evicts s1

	// a second registry has a cold cache
	cold := db.Registry(0)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := cold.Script(ctx, s1.Hash())
			if err != nil || !bytes.Equal(got.Bytes(), s1.Bytes()) {
				t.Errorf("Script = %v, %v", got, err)
			}
		}()
	}
	wg.Wait()
	loads := cold.loads
	require.True(t, loads >= 1 && loads <= 8, "loads = %d", loads)
	_, err := cold.Script(ctx, s1.Hash())
	require.NoError(t, err)
	require.Equal(t, loads, cold.loads, "cached script was reloaded")

	_, err = r.Script(ctx, vm.Hash{9})
	require.True(t, errors.Is(err, vm.ErrUnknownScript), "err = %v", err)

	infos, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	for _, info := range infos {
		require.Equal(t, 1, info.Size)
	}
}

func TestSimulationBackend(t *testing.T) {
	ctx := context.Background()
	db := openTest(t, LogQueries())
	sim := simulation.New(simulation.WithStore(db.Store()), simulation.WithRegistry(db.Registry(0)))

	b := vmutil.NewBuilder()
	b.EmitPush("k").EmitSysCall("Neo.Storage.GetContext").EmitSysCall("Neo.Storage.Get")
	b.EmitPush(1).Emit(vm.OP_ADD, nil).Emit(vm.OP_DUP, nil)
	b.EmitPush("k").EmitSysCall("Neo.Storage.GetContext").EmitSysCall("Neo.Storage.Put")
	prog, err := b.Build()
	require.NoError(t, err)
	h, err := sim.Deploy(ctx, prog, true)
	require.NoError(t, err)

	for want := int64(1); want <= 3; want++ {
		it, err := sim.Invoke(ctx, h)
		require.NoError(t, err)
		n, err := vm.ToBigInt(it)
		require.NoError(t, err)
		require.Equal(t, want, n.Int64())
	}

	// a fresh simulation over the same database sees the state
	sim2 := simulation.New(simulation.WithStore(db.Store()), simulation.WithRegistry(db.Registry(0)))
	sim2.Chain.SetContract(vm.MustScript(prog), true)
	it, err := sim2.Invoke(ctx, h)
	require.NoError(t, err)
	require.Equal(t, "4", it.String())
}

func TestOpenBadDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "")
	require.True(t, errors.Is(err, ErrDriver))
}
