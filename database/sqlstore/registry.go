package sqlstore

import (
	"context"
	stdsql "database/sql"
	"sync"
	"sync/atomic"

	"github.com/golang/groupcache/lru"
	"github.com/golang/groupcache/singleflight"

	"github.com/CityOfZion/neo-ruby-sdk/database/pg"
	"github.com/CityOfZion/neo-ruby-sdk/database/sql"
	"github.com/CityOfZion/neo-ruby-sdk/errors"
	"github.com/CityOfZion/neo-ruby-sdk/protocol/vm"
)

// DefaultCacheSize is the number of scripts a Registry keeps in
// memory when no size is given.
const DefaultCacheSize = 128

// Registry is a vm.Registry backed by the scripts table, with an
// LRU cache of parsed scripts in front of it.
type Registry struct {
	db *DB

	mu    sync.Mutex
	cache *lru.Cache

	single singleflight.Group // for cache misses
	loads  int64              // database reads, for tests
}

var _ vm.Registry = (*Registry)(nil)

// Registry returns a registry caching up to size scripts.
// A size of zero or less means DefaultCacheSize.
func (db *DB) Registry(size int) *Registry {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &Registry{db: db, cache: lru.New(size)}
}

func (r *Registry) get(h vm.Hash) (*vm.Script, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.cache.Get(h)
	if !ok {
		return nil, false
	}
	return s.(*vm.Script), true
}

func (r *Registry) add(s *vm.Script) {
	r.mu.Lock()
	r.cache.Add(s.Hash(), s)
	r.mu.Unlock()
}

// Script returns the script with hash h.
func (r *Registry) Script(ctx context.Context, h vm.Hash) (*vm.Script, error) {
	if s, ok := r.get(h); ok {
		return s, nil
	}
	s, err := r.single.Do(h.String(), func() (interface{}, error) {
		atomic.AddInt64(&r.loads, 1)
		var code []byte
		err := r.db.queryRow(ctx, `SELECT code FROM scripts WHERE hash = ?`, h[:]).Scan(&code)
		if err == stdsql.ErrNoRows {
			return nil, errors.WithDetailf(vm.ErrUnknownScript, "%s", h)
		}
		if err != nil {
			return nil, errors.Wrap(err, "select script")
		}
		s, err := vm.NewScript(code)
		if err != nil {
			return nil, errors.Wrapf(err, "stored script %s", h)
		}
		r.add(s)
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return s.(*vm.Script), nil
}

// Register stores s. Registering a script that is already stored is
// a no-op.
func (r *Registry) Register(ctx context.Context, s *vm.Script) error {
	h := s.Hash()
	const q = `INSERT INTO scripts (hash, code) VALUES (?, ?) ON CONFLICT (hash) DO NOTHING`
	_, err := r.db.exec(ctx, q, h[:], s.Bytes())
	if err != nil && !pg.IsUniqueViolation(err) {
		return errors.Wrap(err, "insert script")
	}
	r.add(s)
	return nil
}

// ScriptInfo describes a stored script.
type ScriptInfo struct {
	Hash []byte
	Size int
}

// List returns every stored script's hash and size, ordered by
// hash.
func (r *Registry) List(ctx context.Context) ([]ScriptInfo, error) {
	rows, err := r.db.query(ctx, `SELECT hash, length(code) FROM scripts ORDER BY hash`)
	if err != nil {
		return nil, errors.Wrap(err, "list scripts")
	}
	var infos []ScriptInfo
	err = sql.Collect(rows, &infos)
	return infos, err
}
