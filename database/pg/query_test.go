package pg

import (
	"context"
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/CityOfZion/neo-ruby-sdk/errors"
)

func memDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	_, err = db.Exec(`CREATE TABLE kv (k TEXT, v INTEGER); INSERT INTO kv VALUES ('a', 1), ('b', 2), ('c', 3)`)
	if err != nil {
		t.Fatal(err)
	}
	return db
}

func TestForQueryRows(t *testing.T) {
	ctx := context.Background()
	db := memDB(t)

	var sum int64
	var keys []string
	err := ForQueryRows(ctx, db, `SELECT k, v FROM kv WHERE v > ? ORDER BY k`, 1, func(k string, v int64) {
		keys = append(keys, k)
		sum += v
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 2 || keys[0] != "b" || keys[1] != "c" || sum != 5 {
		t.Errorf("got keys %v sum %d", keys, sum)
	}

	stop := errors.New("stop")
	var n int
	err = ForQueryRows(ctx, db, `SELECT v FROM kv`, func(v int64) error {
		n++
		return stop
	})
	if errors.Root(err) != stop || n != 1 {
		t.Errorf("err = %v after %d rows, want %v after 1", err, n, stop)
	}
}

func TestForQueryRowsBadCallback(t *testing.T) {
	ctx := context.Background()
	db := memDB(t)
	cases := []interface{}{
		"not a func",
		func(v int64) int { return 0 },
		func(v int64) (error, error) { return nil, nil },
	}
	for _, fn := range cases {
		err := ForQueryRows(ctx, db, `SELECT v FROM kv`, fn)
		if errors.Root(err) != ErrBadCallback {
			t.Errorf("ForQueryRows(%T) err = %v want %v", fn, err, ErrBadCallback)
		}
	}
	if err := ForQueryRows(ctx, db, `SELECT v FROM kv`); errors.Root(err) != ErrBadCallback {
		t.Errorf("no callback: err = %v", err)
	}
}
