// Package store is the relational record store shared by credentials and
// business entities. Queries are written with ? placeholders and rebound for
// the configured driver, so the same code runs on Postgres (pgx) and SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite3"
)

// DB wraps the connection pool and the transactional scope.
type DB struct {
	x      *sqlx.DB
	driver string
	now    func() time.Time
}

type txKey struct{}

// Open connects using driver and dsn and applies pool defaults.
func Open(driver, dsn string, maxOpen int) (*DB, error) {
	x, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	switch driver {
	case DriverSQLite:
		// a single connection keeps :memory: databases and write locks coherent
		x.SetMaxOpenConns(1)
	default:
		if maxOpen <= 0 {
			maxOpen = 10
		}
		x.SetMaxOpenConns(maxOpen)
		x.SetMaxIdleConns(maxOpen / 2)
		x.SetConnMaxLifetime(15 * time.Minute)
		x.SetConnMaxIdleTime(5 * time.Minute)
	}
	return &DB{x: x, driver: driver, now: time.Now}, nil
}

// New wraps an existing handle. driverName selects the placeholder style.
func New(db *sql.DB, driverName string) *DB {
	return &DB{x: sqlx.NewDb(db, driverName), driver: driverName, now: time.Now}
}

// WithClock overrides the time source used for audit columns.
func (d *DB) WithClock(fn func() time.Time) *DB {
	if fn != nil {
		d.now = fn
	}
	return d
}

func (d *DB) Close() error { return d.x.Close() }

func (d *DB) Driver() string { return d.driver }

// Ping satisfies the readiness probe.
func (d *DB) Ping(ctx context.Context) error {
	if d == nil || d.x == nil {
		return errors.New("database connection unavailable")
	}
	return d.x.PingContext(ctx)
}

// WithinTx runs fn in a transaction carried by the context passed to fn.
// Nested calls join the outer transaction.
func (d *DB) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}
	tx, err := d.x.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// ext returns the transaction in ctx, or the pool.
func (d *DB) ext(ctx context.Context) sqlx.ExtContext {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return d.x
}

func (d *DB) rebind(query string) string {
	return d.x.Rebind(query)
}

// Select runs query and scans every row into a T.
func Select[T any](ctx context.Context, d *DB, query string, args ...any) ([]T, error) {
	out := []T{}
	if err := sqlx.SelectContext(ctx, d.ext(ctx), &out, d.rebind(query), args...); err != nil {
		return nil, err
	}
	return out, nil
}

// Get runs query and scans a single row. sql.ErrNoRows is returned unchanged.
func Get[T any](ctx context.Context, d *DB, query string, args ...any) (T, error) {
	var out T
	err := sqlx.GetContext(ctx, d.ext(ctx), &out, d.rebind(query), args...)
	return out, err
}

// Exec runs a statement and maps constraint violations to ErrConflict.
func Exec(ctx context.Context, d *DB, query string, args ...any) (int64, error) {
	res, err := d.ext(ctx).ExecContext(ctx, d.rebind(query), args...)
	if err != nil {
		return 0, mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}
