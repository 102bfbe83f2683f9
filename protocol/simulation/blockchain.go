package simulation

import (
	"bytes"
	"encoding/hex"
	"io"
	"sync"
	"time"

	"github.com/CityOfZion/neo-ruby-sdk/crypto/hash256"
	"github.com/CityOfZion/neo-ruby-sdk/encoding/blockchain"
	"github.com/CityOfZion/neo-ruby-sdk/errors"
	"github.com/CityOfZion/neo-ruby-sdk/protocol/vm"
)

var ErrNoBlock = errors.New("no such block")

// BlockHash identifies a header.
type BlockHash [hash256.Size]byte

func (h BlockHash) String() string { return hex.EncodeToString(h[:]) }

// Header is a simulated block header.
type Header struct {
	Index     uint32
	PrevHash  BlockHash
	Timestamp uint64 // Unix seconds
	Hash      BlockHash
}

func (h *Header) String() string { return h.Hash.String() }

// ContractState is a deployed contract.
type ContractState struct {
	Script  *vm.Script
	Storage bool
}

// Blockchain is a mock chain: an append-only list of headers, the
// deployed contracts and the set of hashes whose witness is
// considered present. It is safe for concurrent use.
type Blockchain struct {
	mu        sync.RWMutex
	headers   []*Header
	byHash    map[BlockHash]*Header
	contracts map[vm.Hash]*ContractState
	witnesses map[vm.Hash]bool
}

// NewBlockchain returns a chain holding a genesis block with the
// given timestamp.
func NewBlockchain(genesis time.Time) *Blockchain {
	c := &Blockchain{}
	c.reset(genesis)
	return c
}

func (c *Blockchain) reset(genesis time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.headers = nil
	c.byHash = make(map[BlockHash]*Header)
	c.contracts = make(map[vm.Hash]*ContractState)
	c.witnesses = make(map[vm.Hash]bool)
	c.appendLocked(uint64(genesis.Unix()))
}

func (c *Blockchain) appendLocked(ts uint64) *Header {
	h := &Header{Index: uint32(len(c.headers)), Timestamp: ts}
	if n := len(c.headers); n > 0 {
		h.PrevHash = c.headers[n-1].Hash
	}
	h.Hash = headerHash(h)
	c.headers = append(c.headers, h)
	c.byHash[h.Hash] = h
	return h
}

// unsignedSize is the length of a header without its witness.
const unsignedSize = 4 + 2*hash256.Size + 4 + 4 + 8 + vm.HashSize

// writeUnsigned writes the hashed part of h in the chain's wire
// layout. The merkle root, consensus data and next consensus address
// are always zero on the mock chain.
func (h *Header) writeUnsigned(w io.Writer) {
	var zero [hash256.Size]byte
	blockchain.WriteUint32(w, 0) // version
	w.Write(h.PrevHash[:])
	w.Write(zero[:]) // merkle root
	blockchain.WriteUint32(w, uint32(h.Timestamp))
	blockchain.WriteUint32(w, h.Index)
	blockchain.WriteUint64(w, 0)
	w.Write(zero[:vm.HashSize])
}

// Bytes returns the serialized header, followed by a single empty
// witness.
func (h *Header) Bytes() []byte {
	var buf bytes.Buffer
	h.writeUnsigned(&buf)
	blockchain.WriteVarint(&buf, 1)
	blockchain.WriteVarbytes(&buf, nil) // invocation
	blockchain.WriteVarbytes(&buf, nil) // verification
	return buf.Bytes()
}

func headerHash(h *Header) BlockHash {
	var buf bytes.Buffer
	h.writeUnsigned(&buf)
	return BlockHash(hash256.Sum(buf.Bytes()))
}

// AddBlock appends a block with timestamp t and returns its header.
// Timestamps earlier than the previous block's are raised to it.
func (c *Blockchain) AddBlock(t time.Time) *Header {
	c.mu.Lock()
	defer c.mu.Unlock()
	ts := uint64(t.Unix())
	if last := c.headers[len(c.headers)-1]; ts < last.Timestamp {
		ts = last.Timestamp
	}
	return c.appendLocked(ts)
}

// Height returns the index of the newest block.
func (c *Blockchain) Height() uint32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return uint32(len(c.headers) - 1)
}

// HeaderByIndex returns the header at height i.
func (c *Blockchain) HeaderByIndex(i uint32) (*Header, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if int64(i) >= int64(len(c.headers)) {
		return nil, errors.WithDetailf(ErrNoBlock, "height %d", i)
	}
	return c.headers[i], nil
}

// HeaderByHash returns the header with hash h.
func (c *Blockchain) HeaderByHash(h BlockHash) (*Header, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	hdr, ok := c.byHash[h]
	if !ok {
		return nil, errors.WithDetailf(ErrNoBlock, "hash %s", h)
	}
	return hdr, nil
}

// SetContract records s as a deployed contract.
func (c *Blockchain) SetContract(s *vm.Script, storage bool) {
	c.mu.Lock()
	c.contracts[s.Hash()] = &ContractState{Script: s, Storage: storage}
	c.mu.Unlock()
}

// Contract returns the contract deployed at h, or nil.
func (c *Blockchain) Contract(h vm.Hash) *ContractState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.contracts[h]
}

// AddWitness makes CheckWitness succeed for h.
func (c *Blockchain) AddWitness(h vm.Hash) {
	c.mu.Lock()
	c.witnesses[h] = true
	c.mu.Unlock()
}

// CheckWitness reports whether a witness for h was added.
func (c *Blockchain) CheckWitness(h vm.Hash) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.witnesses[h]
}
