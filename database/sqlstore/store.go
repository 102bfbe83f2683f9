package sqlstore

import (
	"context"
	stdsql "database/sql"

	"github.com/CityOfZion/neo-ruby-sdk/database/pg"
	"github.com/CityOfZion/neo-ruby-sdk/errors"
	"github.com/CityOfZion/neo-ruby-sdk/protocol/simulation"
	"github.com/CityOfZion/neo-ruby-sdk/protocol/vm"
)

// Store is contract storage backed by the storage table. Each
// statement is atomic on its own; there are no transactions
// spanning an invocation.
type Store struct {
	db *DB
}

var _ simulation.Store = (*Store)(nil)

// Store returns the contract storage in db.
func (db *DB) Store() *Store { return &Store{db: db} }

func (s *Store) Get(ctx context.Context, h vm.Hash, key []byte) (vm.Item, bool, error) {
	const q = `SELECT value FROM storage WHERE script_hash = ? AND key = ?`
	var b []byte
	err := s.db.queryRow(ctx, q, h[:], key).Scan(&b)
	if err == stdsql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "select storage")
	}
	it, err := DecodeItem(b)
	if err != nil {
		return nil, false, errors.Wrapf(err, "%s %x", h, key)
	}
	return it, true, nil
}

func (s *Store) Put(ctx context.Context, h vm.Hash, key []byte, v vm.Item) error {
	if key == nil {
		key = []byte{} // NOT NULL
	}
	b, err := EncodeItem(v)
	if err != nil {
		return err
	}
	const q = `
		INSERT INTO storage (script_hash, key, value) VALUES (?, ?, ?)
		ON CONFLICT (script_hash, key) DO UPDATE SET value = excluded.value
	`
	_, err = s.db.exec(ctx, q, h[:], key, b)
	return errors.Wrap(err, "upsert storage")
}

func (s *Store) Delete(ctx context.Context, h vm.Hash, key []byte) error {
	const q = `DELETE FROM storage WHERE script_hash = ? AND key = ?`
	_, err := s.db.exec(ctx, q, h[:], key)
	return errors.Wrap(err, "delete storage")
}

// Reset deletes every stored value. Deployed scripts are kept.
func (s *Store) Reset(ctx context.Context) error {
	_, err := s.db.exec(ctx, `DELETE FROM storage`)
	return errors.Wrap(err, "reset storage")
}

// Keys returns the keys stored under h, in byte order.
func (s *Store) Keys(ctx context.Context, h vm.Hash) ([][]byte, error) {
	const q = `SELECT key FROM storage WHERE script_hash = ? ORDER BY key`
	var keys [][]byte
	err := pg.ForQueryRows(ctx, s.db.conn(), s.db.bind(q), h[:], func(key []byte) {
		keys = append(keys, key)
	})
	return keys, err
}
