// Package sql holds helpers for reading rows from package
// database/sql into Go values.
package sql

import (
	"database/sql"
	"reflect"

	"github.com/CityOfZion/neo-ruby-sdk/errors"
)

var ErrCollectType = errors.New("destination must be pointer to a slice of structs")

// Collect assembles the results of rows into dest, which must be a
// pointer to a slice of structs. Each row is scanned into the
// exported fields of a new element, in field order.
// Collect always closes rows.
func Collect(rows *sql.Rows, dest interface{}) error {
	defer rows.Close()
	destVal := reflect.ValueOf(dest)
	t, err := makeType(dest)
	if err != nil {
		return err
	}
	for rows.Next() {
		d, args := makeArgs(t)
		err := rows.Scan(args...)
		if err != nil {
			return errors.Wrap(err, "scan")
		}
		appendVal(destVal, d)
	}
	return rows.Err()
}

func makeType(dest interface{}) (reflect.Type, error) {
	typ := reflect.TypeOf(dest)
	if typ.Kind() != reflect.Ptr {
		return nil, errors.WithDetailf(ErrCollectType, "%T", dest)
	}
	if typ.Elem().Kind() != reflect.Slice {
		return nil, errors.WithDetailf(ErrCollectType, "%T", dest)
	}
	if typ.Elem().Elem().Kind() != reflect.Struct {
		return nil, errors.WithDetailf(ErrCollectType, "%T", dest)
	}
	return typ.Elem().Elem(), nil
}

func makeArgs(t reflect.Type) (v reflect.Value, args []interface{}) {
	v = reflect.New(t)
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.PkgPath != "" {
			continue
		}
		val := v.Elem().Field(i)
		args = append(args, val.Addr().Interface())
	}
	return v, args
}

func appendVal(dest, v reflect.Value) {
	slice := dest.Elem()
	slice = reflect.Append(slice, v.Elem())
	dest.Elem().Set(slice)
}
