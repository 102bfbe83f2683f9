package simulation

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/CityOfZion/neo-ruby-sdk/crypto/hash256"
	"github.com/CityOfZion/neo-ruby-sdk/encoding/blockchain"
	"github.com/CityOfZion/neo-ruby-sdk/errors"
	"github.com/CityOfZion/neo-ruby-sdk/metrics"
	"github.com/CityOfZion/neo-ruby-sdk/protocol/compiler"
	"github.com/CityOfZion/neo-ruby-sdk/protocol/contract"
	"github.com/CityOfZion/neo-ruby-sdk/protocol/vm"
	"github.com/CityOfZion/neo-ruby-sdk/protocol/vmutil"
	"github.com/CityOfZion/neo-ruby-sdk/testutil"
)

var genesis = time.Unix(1500000000, 0)

func genKey(t *testing.T) (*ecdsa.PrivateKey, []byte) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return priv, elliptic.MarshalCompressed(elliptic.P256(), priv.X, priv.Y)
}

func sign(t *testing.T, priv *ecdsa.PrivateKey, msg []byte) []byte {
	digest := sha256.Sum256(msg)
	r, s, err := ecdsa.Sign(rand.Reader, priv, digest[:])
	require.NoError(t, err)
	sig := make([]byte, 64)
	r.FillBytes(sig[:32])
	s.FillBytes(sig[32:])
	return sig
}

// deploy builds a script with f and deploys it.
func deploy(t *testing.T, sim *Simulation, storage bool, f func(b *vmutil.Builder)) vm.Hash {
	b := vmutil.NewBuilder()
	f(b)
	prog, err := b.Build()
	require.NoError(t, err)
	h, err := sim.Deploy(context.Background(), prog, storage)
	require.NoError(t, err)
	return h
}

func TestLockContract(t *testing.T) {
	ctx := context.Background()
	msg := []byte("spend")
	sim := New(WithGenesis(genesis), WithEngineOptions(vm.WithContainer(msg)))
	sim.Chain.AddBlock(genesis.Add(time.Hour))

	c, err := sim.LoadContract(ctx, "testdata/lock.rb", contract.Void)
	require.NoError(t, err)
	require.Equal(t, contract.Boolean, c.Return)
	require.Equal(t, []contract.ParamType{contract.Integer, contract.PublicKey, contract.Signature}, c.Params)

	priv, pub := genKey(t)
	sig := sign(t, priv, msg)
	_, other := genKey(t)

	cases := []struct {
		ts     int64
		pubkey []byte
		want   bool
	}{
		{genesis.Unix(), pub, true},
		{genesis.Add(time.Hour).Unix(), pub, true},
		{genesis.Add(2 * time.Hour).Unix(), pub, false},
		{genesis.Unix(), other, false},
	}
	for _, tc := range cases {
		got, err := c.Invoke(ctx, tc.ts, tc.pubkey, sig)
		require.NoError(t, err)
		require.Equal(t, tc.want, got, "timestamp %d", tc.ts)
	}

	_, err = c.Invoke(ctx, genesis.Unix())
	require.True(t, errors.Is(err, contract.ErrCast), "err = %v", err)
}

func TestHelloStorage(t *testing.T) {
	ctx := context.Background()
	sim := New()
	c, err := sim.LoadContract(ctx, "testdata/hello.rb", contract.Void)
	require.NoError(t, err)

	got, err := c.Invoke(ctx)
	require.NoError(t, err)
	require.Equal(t, "world", got)
	require.Equal(t, []string{"saying hello"}, sim.Runtime.Logs())

	v, ok, err := sim.Store.Get(ctx, c.Hash, []byte("hello"))
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, vm.Equals(vm.ByteArray("world"), v))

	require.NoError(t, sim.Reset(ctx))
	require.Empty(t, sim.Runtime.Logs())
	_, ok, _ = sim.Store.Get(ctx, c.Hash, []byte("hello"))
	require.False(t, ok)
	_, err = sim.Registry.Script(ctx, c.Hash)
	require.True(t, errors.Is(err, vm.ErrUnknownScript))
}

func TestCounter(t *testing.T) {
	ctx := context.Background()
	sim := New()
	c, err := sim.LoadContract(ctx, "testdata/counter.rb", contract.Void)
	require.NoError(t, err)

	for want := int64(1); want <= 3; want++ {
		got, err := c.Invoke(ctx, []byte("n"))
		require.NoError(t, err)
		require.Equal(t, 0, big.NewInt(want).Cmp(got.(*big.Int)), "got %v want %d", got, want)
	}
	got, err := c.Invoke(ctx, []byte("m"))
	require.NoError(t, err)
	require.Equal(t, int64(1), got.(*big.Int).Int64())

	notes := sim.Runtime.Notifications()
	require.Len(t, notes, 4)
	require.Equal(t, c.Hash, notes[0].Script)
	require.Equal(t, "3", notes[2].Item.String())
}

func TestStorageErrors(t *testing.T) {
	ctx := context.Background()
	sim := New()

	noStorage := deploy(t, sim, false, func(b *vmutil.Builder) {
		b.EmitPush("k").EmitSysCall("Neo.Storage.GetContext").EmitSysCall("Neo.Storage.Get")
	})
	testutil.ExpectError(t, ErrNoStorage, "contract without storage", func() error {
		_, err := sim.Invoke(ctx, noStorage)
		return err
	})

	longKey := deploy(t, sim, true, func(b *vmutil.Builder) {
		// 255*4 + 5 bytes
		b.EmitPush("v").AddRawBytes(vm.PushdataBytes([]byte(strings.Repeat("k", 255))))
		b.Emit(vm.OP_DUP, nil).Emit(vm.OP_CAT, nil).Emit(vm.OP_DUP, nil).Emit(vm.OP_CAT, nil)
		b.EmitPush("kkkkk").Emit(vm.OP_CAT, nil)
		b.EmitSysCall("Neo.Storage.GetContext").EmitSysCall("Neo.Storage.Put")
	})
	testutil.ExpectError(t, ErrKeyTooLong, "key of 1025 bytes", func() error {
		_, err := sim.Invoke(ctx, longKey)
		return err
	})

	// A contract may read but not write another contract's storage
	// through Contract.GetStorageContext.
	owner := deploy(t, sim, true, func(b *vmutil.Builder) {
		b.EmitPush("v").EmitPush("k")
		b.EmitSysCall("Neo.Storage.GetContext").EmitSysCall("Neo.Storage.Put")
		b.EmitPush(true)
	})
	_, err := sim.Invoke(ctx, owner)
	require.NoError(t, err)

	reader := deploy(t, sim, true, func(b *vmutil.Builder) {
		b.EmitPush("k").EmitPush(owner)
		b.EmitSysCall("Neo.Blockchain.GetContract").EmitSysCall("Neo.Contract.GetStorageContext")
		b.EmitSysCall("Neo.Storage.Get")
	})
	it, err := sim.Invoke(ctx, reader)
	require.NoError(t, err)
	require.Equal(t, "0x76", it.String())

	writer := deploy(t, sim, true, func(b *vmutil.Builder) {
		b.EmitPush("x").EmitPush("k").EmitPush(owner)
		b.EmitSysCall("Neo.Blockchain.GetContract").EmitSysCall("Neo.Contract.GetStorageContext")
		b.EmitSysCall("Neo.Storage.Put")
	})
	testutil.ExpectError(t, ErrStorageContext, "write through a foreign context", func() error {
		_, err := sim.Invoke(ctx, writer)
		return err
	})

	interop := deploy(t, sim, true, func(b *vmutil.Builder) {
		b.EmitSysCall("Neo.Storage.GetContext").EmitPush("k")
		b.EmitSysCall("Neo.Storage.GetContext").EmitSysCall("Neo.Storage.Put")
	})
	testutil.ExpectError(t, ErrNotStorable, "store an interop item", func() error {
		_, err := sim.Invoke(ctx, interop)
		return err
	})
}

func TestStorageDelete(t *testing.T) {
	ctx := context.Background()
	sim := New()
	h := deploy(t, sim, true, func(b *vmutil.Builder) {
		b.EmitPush("v").EmitPush("k")
		b.EmitSysCall("Neo.Storage.GetContext").EmitSysCall("Neo.Storage.Put")
		b.EmitPush("k").EmitSysCall("Neo.Storage.GetContext").EmitSysCall("Neo.Storage.Delete")
		b.EmitPush("k").EmitSysCall("Neo.Storage.GetContext").EmitSysCall("Neo.Storage.Get")
	})
	it, err := sim.Invoke(ctx, h)
	require.NoError(t, err)
	require.True(t, vm.Equals(vm.ByteArray{}, it), "got %s", it)
}

func TestBlockchainServices(t *testing.T) {
	ctx := context.Background()
	sim := New(WithGenesis(genesis))
	hdr := sim.Chain.AddBlock(genesis.Add(time.Minute))
	require.Equal(t, uint32(1), hdr.Index)
	require.Equal(t, uint32(1), sim.Chain.Height())

	prev, err := sim.Chain.HeaderByIndex(0)
	require.NoError(t, err)
	require.Equal(t, prev.Hash, hdr.PrevHash)
	byHash, err := sim.Chain.HeaderByHash(hdr.Hash)
	require.NoError(t, err)
	require.Equal(t, hdr, byHash)
	_, err = sim.Chain.HeaderByIndex(2)
	require.True(t, errors.Is(err, ErrNoBlock))

	// earlier timestamps are raised to the previous block's
	late := sim.Chain.AddBlock(genesis)
	require.Equal(t, hdr.Timestamp, late.Timestamp)
	require.NotEqual(t, hdr.Hash, late.Hash)

	raw := late.Bytes()
	require.Len(t, raw, unsignedSize+3)
	require.Equal(t, late.Hash, BlockHash(hash256.Sum(raw[:unsignedSize])))
	idx, _, err := blockchain.ReadUint32(bytes.NewReader(raw[unsignedSize-32:]))
	require.NoError(t, err)
	require.Equal(t, late.Index, idx)

	cases := []struct {
		build func(b *vmutil.Builder)
		want  string
	}{
		{func(b *vmutil.Builder) { b.EmitSysCall("Neo.Blockchain.GetHeight") }, "2"},
		{func(b *vmutil.Builder) {
			b.EmitPush(1).EmitSysCall("Neo.Blockchain.GetHeader").EmitSysCall("Neo.Header.GetTimestamp")
		}, "1500000060"},
		{func(b *vmutil.Builder) {
			b.EmitPush(hdr.Hash[:]).EmitSysCall("Neo.Blockchain.GetHeader").EmitSysCall("Neo.Header.GetIndex")
		}, "1"},
		{func(b *vmutil.Builder) {
			b.EmitPush(0).EmitSysCall("Neo.Blockchain.GetHeader").EmitSysCall("Neo.Header.GetHash")
		}, "0x" + prev.Hash.String()},
		{func(b *vmutil.Builder) {
			b.EmitPush(make([]byte, vm.HashSize)).EmitSysCall("Neo.Blockchain.GetContract")
		}, "0x"},
	}
	for i, c := range cases {
		h := deploy(t, sim, false, c.build)
		it, err := sim.Invoke(ctx, h)
		require.NoError(t, err, "case %d", i)
		require.Equal(t, c.want, it.String(), "case %d", i)
	}

	bad := deploy(t, sim, false, func(b *vmutil.Builder) {
		b.EmitPush(9).EmitSysCall("Neo.Blockchain.GetHeader")
	})
	_, err = sim.Invoke(ctx, bad)
	require.True(t, errors.Is(err, ErrNoBlock), "err = %v", err)

	self := deploy(t, sim, false, func(b *vmutil.Builder) {
		b.EmitPush(make([]byte, 1)).EmitSysCall("Neo.Blockchain.GetContract")
	})
	_, err = sim.Invoke(ctx, self)
	require.True(t, errors.Is(err, vm.ErrBadValue), "err = %v", err)
}

func TestContractGetScript(t *testing.T) {
	ctx := context.Background()
	sim := New()
	target := deploy(t, sim, false, func(b *vmutil.Builder) { b.EmitPush(7) })
	script, err := sim.Registry.Script(ctx, target)
	require.NoError(t, err)

	h := deploy(t, sim, false, func(b *vmutil.Builder) {
		b.EmitPush(target).EmitSysCall("Neo.Blockchain.GetContract").EmitSysCall("Neo.Contract.GetScript")
	})
	it, err := sim.Invoke(ctx, h)
	require.NoError(t, err)
	require.True(t, vm.Equals(vm.ByteArray(script.Bytes()), it))
}

func TestExecutionEngineHashes(t *testing.T) {
	ctx := context.Background()
	sim := New()
	h := deploy(t, sim, false, func(b *vmutil.Builder) {
		b.EmitSysCall("System.ExecutionEngine.GetEntryScriptHash")
		b.EmitSysCall("System.ExecutionEngine.GetExecutingScriptHash")
		b.EmitPush(2).Emit(vm.OP_PACK, nil)
	})
	entry, err := vmutil.EntryScript(h)
	require.NoError(t, err)

	it, err := sim.Invoke(ctx, h)
	require.NoError(t, err)
	arr, ok := it.(*vm.Array)
	require.True(t, ok, "got %s", it)
	require.Len(t, arr.Items, 2)
	// PACK puts the last pushed item first
	entryHash := vm.HashOf(entry)
	require.True(t, vm.Equals(vm.ByteArray(h[:]), arr.Items[0]))
	require.True(t, vm.Equals(vm.ByteArray(entryHash[:]), arr.Items[1]))
}

func TestCheckWitness(t *testing.T) {
	ctx := context.Background()
	sim := New()
	_, pub := genKey(t)
	sigScript, err := vmutil.CheckSigScript(pub)
	require.NoError(t, err)
	sim.Chain.AddWitness(vm.HashOf(sigScript))

	var stranger vm.Hash
	stranger[0] = 1
	cases := []struct {
		arg  interface{}
		want bool
	}{
		{pub, true},
		{vm.HashOf(sigScript), true},
		{stranger, false},
	}
	for _, c := range cases {
		h := deploy(t, sim, false, func(b *vmutil.Builder) {
			b.EmitPush(c.arg).EmitSysCall("Neo.Runtime.CheckWitness")
		})
		it, err := sim.Invoke(ctx, h)
		require.NoError(t, err)
		require.Equal(t, c.want, vm.ToBool(it), "CheckWitness(%v)", c.arg)
	}
}

func TestVerify(t *testing.T) {
	ctx := context.Background()
	sim := New()
	msg := []byte("tx")

	var privs []*ecdsa.PrivateKey
	var pubs [][]byte
	for i := 0; i < 3; i++ {
		priv, pub := genKey(t)
		privs = append(privs, priv)
		pubs = append(pubs, pub)
	}
	verification, err := vmutil.MultiSigScript(pubs, 2)
	require.NoError(t, err)

	invocation, err := vmutil.InvocationScript(sign(t, privs[0], msg), sign(t, privs[1], msg))
	require.NoError(t, err)
	ok, err := sim.Verify(ctx, verification, invocation, msg)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = sim.Verify(ctx, verification, invocation, []byte("other"))
	require.NoError(t, err)
	require.False(t, ok)

	single, err := vmutil.CheckSigScript(pubs[2])
	require.NoError(t, err)
	invocation, err = vmutil.InvocationScript(sign(t, privs[2], msg))
	require.NoError(t, err)
	ok, err = sim.Verify(ctx, single, invocation, msg)
	require.NoError(t, err)
	require.True(t, ok)

	// invocation scripts must be push-only
	_, err = sim.Verify(ctx, single, []byte{byte(vm.OP_PUSH1), byte(vm.OP_DUP)}, msg)
	require.True(t, errors.Is(err, vm.ErrPushOnly), "err = %v", err)
}

func TestStoredArraySnapshot(t *testing.T) {
	ctx := context.Background()
	src := `# return: Integer
def main
  ctx = Storage.get_context
  a = [1, 2]
  Storage.put ctx, 'k', a
  a[0] = 9
  b = Storage.get(ctx, 'k')
  b[0]
end
`
	c, err := compiler.Compile(ctx, "snapshot.rb", strings.NewReader(src))
	require.NoError(t, err)
	sim := New()
	con, err := sim.DeployCompiled(ctx, c)
	require.NoError(t, err)
	got, err := con.Invoke(ctx)
	require.NoError(t, err)
	testutil.ExpectEqual(t, got, big.NewInt(1), "stored array after SETITEM")
}

func TestInvokeAll(t *testing.T) {
	ctx := context.Background()
	sim := New()
	c, err := compiler.Compile(ctx, "square.rb", strings.NewReader("def main(x)\n  x * x\nend\n"))
	require.NoError(t, err)
	sq, err := sim.DeployCompiled(ctx, c)
	require.NoError(t, err)
	div := deploy(t, sim, false, func(b *vmutil.Builder) {
		b.EmitPush(1).EmitPush(0).Emit(vm.OP_DIV, nil)
	})

	var calls []Call
	for i := 0; i < 20; i++ {
		calls = append(calls, Call{Hash: sq.Hash, Params: []interface{}{i}})
	}
	calls = append(calls, Call{Hash: div})

	before := metrics.Get("simulation.(*Simulation).Invoke").Summary().Count
	results, err := sim.InvokeAll(ctx, calls)
	require.NoError(t, err)
	require.Len(t, results, 21)
	for i := 0; i < 20; i++ {
		require.NoError(t, results[i].Err)
		n, err := vm.ToBigInt(results[i].Item)
		require.NoError(t, err)
		require.Equal(t, int64(i*i), n.Int64())
	}
	require.True(t, errors.Is(results[20].Err, vm.ErrDivZero), "err = %v", results[20].Err)
	require.Equal(t, before+21, metrics.Get("simulation.(*Simulation).Invoke").Summary().Count)

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	_, err = sim.InvokeAll(cctx, calls)
	require.Equal(t, context.Canceled, err)
}

func TestServiceMetrics(t *testing.T) {
	sim := New()
	h := deploy(t, sim, false, func(b *vmutil.Builder) { b.EmitSysCall("AntShares.Blockchain.GetHeight") })
	before := metrics.Get("syscall.neo_blockchain_get_height").Summary().Count
	_, err := sim.Invoke(context.Background(), h)
	require.NoError(t, err)
	require.Equal(t, before+1, metrics.Get("syscall.neo_blockchain_get_height").Summary().Count)
	require.Contains(t, sim.Interop().Keys(), "neo_storage_get_context")
}

func TestInvokeUnknown(t *testing.T) {
	_, err := New().Invoke(context.Background(), vm.Hash{1})
	require.True(t, errors.Is(err, vm.ErrUnknownScript), "err = %v", err)
}
