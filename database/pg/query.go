package pg

import (
	"context"
	"reflect"

	"github.com/CityOfZion/neo-ruby-sdk/errors"
)

var ErrBadCallback = errors.New("bad row callback")

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// ForQueryRows runs query and calls fn once per result row. The
// parameters of fn give the number and types of the scanned columns;
// fn may return an error, which stops the iteration and is returned.
//
//	err := ForQueryRows(ctx, db, `SELECT key FROM storage WHERE script_hash = $1`, h[:],
//		func(key []byte) { keys = append(keys, key) })
//
// The last element of args is fn; the rest are query arguments.
func ForQueryRows(ctx context.Context, db DB, query string, args ...interface{}) error {
	if len(args) == 0 {
		return errors.WithDetail(ErrBadCallback, "missing callback")
	}
	fn := reflect.ValueOf(args[len(args)-1])
	args = args[:len(args)-1]

	ft := fn.Type()
	switch {
	case ft.Kind() != reflect.Func:
		return errors.WithDetailf(ErrBadCallback, "%s is not a function", ft)
	case ft.NumOut() > 1, ft.NumOut() == 1 && ft.Out(0) != errorType:
		return errors.WithDetailf(ErrBadCallback, "%s must return nothing or error", ft)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "query")
	}
	defer rows.Close()

	dest := make([]interface{}, ft.NumIn())
	in := make([]reflect.Value, ft.NumIn())
	for rows.Next() {
		for i := range dest {
			p := reflect.New(ft.In(i))
			dest[i] = p.Interface()
			in[i] = p.Elem()
		}
		if err := rows.Scan(dest...); err != nil {
			return errors.Wrap(err, "scan")
		}
		out := fn.Call(in)
		if len(out) == 1 && !out[0].IsNil() {
			return errors.Wrap(out[0].Interface().(error), "callback")
		}
	}
	return errors.Wrap(rows.Err(), "end scan")
}
