// Package sqlutil wraps SQL drivers with query logging.
package sqlutil

import (
	"context"
	"database/sql/driver"
	"fmt"

	"github.com/CityOfZion/neo-ruby-sdk/log"
)

const maxArgsLogLen = 20 // bytes

func logQuery(ctx context.Context, query string, args interface{}) {
	s := fmt.Sprint(args)
	if len(s) > maxArgsLogLen {
		s = s[:maxArgsLogLen-3] + "..."
	}
	log.Printkv(ctx, "query", query, "args", s)
}

type logDriver struct {
	driver driver.Driver
}

// LogDriver returns a Driver that logs each query
// before forwarding it to d.
func LogDriver(d driver.Driver) driver.Driver {
	return &logDriver{d}
}

func (ld *logDriver) Open(name string) (driver.Conn, error) {
	c, err := ld.driver.Open(name)
	if err != nil {
		return nil, err
	}
	return &logConn{c}, nil
}

type logConn struct {
	driver.Conn
}

func (lc *logConn) Prepare(query string) (driver.Stmt, error) {
	stmt, err := lc.Conn.Prepare(query)
	if err != nil {
		return nil, err
	}
	return &logStmt{query, stmt}, nil
}

func (lc *logConn) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	var (
		stmt driver.Stmt
		err  error
	)
	if p, ok := lc.Conn.(driver.ConnPrepareContext); ok {
		stmt, err = p.PrepareContext(ctx, query)
	} else {
		stmt, err = lc.Conn.Prepare(query)
	}
	if err != nil {
		return nil, err
	}
	return &logStmt{query, stmt}, nil
}

func (lc *logConn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	if b, ok := lc.Conn.(driver.ConnBeginTx); ok {
		return b.BeginTx(ctx, opts)
	}
	return lc.Conn.Begin()
}

func (lc *logConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	execer, ok := lc.Conn.(driver.ExecerContext)
	if !ok {
		return nil, driver.ErrSkip
	}
	logQuery(ctx, query, namedValues(args))
	return execer.ExecContext(ctx, query, args)
}

func (lc *logConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	queryer, ok := lc.Conn.(driver.QueryerContext)
	if !ok {
		return nil, driver.ErrSkip
	}
	logQuery(ctx, query, namedValues(args))
	return queryer.QueryContext(ctx, query, args)
}

func namedValues(args []driver.NamedValue) []driver.Value {
	vals := make([]driver.Value, len(args))
	for i, a := range args {
		vals[i] = a.Value
	}
	return vals
}

type logStmt struct {
	query string
	driver.Stmt
}

func (ls *logStmt) Exec(args []driver.Value) (driver.Result, error) {
	logQuery(context.Background(), ls.query, args)
	return ls.Stmt.Exec(args)
}

func (ls *logStmt) Query(args []driver.Value) (driver.Rows, error) {
	logQuery(context.Background(), ls.query, args)
	return ls.Stmt.Query(args)
}
