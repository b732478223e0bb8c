package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Querier is the query interface shared by databases and transactions.
// All queries use ? placeholders.
type Querier interface {
	Dialect() Dialect
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// DB is a connection pool for one of the supported dialects.
type DB struct {
	db      *sql.DB
	dialect Dialect
	spec    Specification
}

var _ Querier = (*DB)(nil)

// Open connects to the database described by the specification.
// The schema is not touched, use Migrate to create or upgrade it.
func Open(ctx context.Context, spec *Specification) (*DB, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	db, err := sql.Open(spec.Driver, spec.dsn())
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}

	if spec.Driver == DRIVER_SQLITE && IsMemoryDSN(spec.DSN) {
		// every connection would get its own in-memory database
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
	}
	db.SetConnMaxIdleTime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s database: %w", spec.Driver, err)
	}
	log.Debug("opened {{driver}} database", "driver", spec.Driver)
	return &DB{db: db, dialect: dialects[spec.Driver], spec: *spec}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) Dialect() Dialect {
	return d.dialect
}

func (d *DB) Specification() Specification {
	return d.spec
}

func (d *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return d.db.ExecContext(ctx, d.dialect.Rebind(query), args...)
}

func (d *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return d.db.QueryContext(ctx, d.dialect.Rebind(query), args...)
}

func (d *DB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return d.db.QueryRowContext(ctx, d.dialect.Rebind(query), args...)
}

// Transaction executes f in a database transaction. The transaction
// is committed if f succeeds and rolled back otherwise.
func (d *DB) Transaction(ctx context.Context, f func(tx *Tx) error) error {
	sqltx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer sqltx.Rollback()

	if err := f(&Tx{tx: sqltx, dialect: d.dialect}); err != nil {
		return err
	}
	if err := sqltx.Commit(); err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("%w: %w", ErrPathCollision, err)
		}
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Tx is a transaction rebinding queries for its dialect.
type Tx struct {
	tx      *sql.Tx
	dialect Dialect
}

var _ Querier = (*Tx)(nil)

func (t *Tx) Dialect() Dialect {
	return t.dialect
}

func (t *Tx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return t.tx.ExecContext(ctx, t.dialect.Rebind(query), args...)
}

func (t *Tx) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return t.tx.QueryContext(ctx, t.dialect.Rebind(query), args...)
}

func (t *Tx) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return t.tx.QueryRowContext(ctx, t.dialect.Rebind(query), args...)
}

// ExecAffected executes a statement and returns the number of affected rows.
func ExecAffected(ctx context.Context, q Querier, query string, args ...interface{}) (int64, error) {
	r, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return r.RowsAffected()
}
