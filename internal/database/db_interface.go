// Package database provides database access and management functions for the
// VPN backend. It implements a connection pool, transaction management, and
// health checking.
package database

import (
	"context"
	"database/sql"
	"time"
)

// SQLDatabase defines the interface for database operations.
// This interface abstracts the underlying database implementation,
// allowing for easier testing with mock implementations.
//
// It includes all the essential methods from sql.DB that are used
// by the application, making it easier to create test doubles.
type SQLDatabase interface {
	// BeginTx starts a transaction with the provided context and options.
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)

	// Close closes the database, releasing any open resources.
	Close() error

	// ExecContext executes a query with the provided context without returning any rows.
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)

	// PingContext verifies a connection to the database is still alive using the provided context.
	PingContext(ctx context.Context) error

	// QueryContext executes a query with the provided context that returns rows.
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)

	// QueryRowContext executes a query with the provided context that is expected to return at most one row.
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row

	// SetConnMaxIdleTime sets the maximum amount of time a connection may be idle.
	SetConnMaxIdleTime(d time.Duration)

	// SetConnMaxLifetime sets the maximum amount of time a connection may be reused.
	SetConnMaxLifetime(d time.Duration)

	// SetMaxIdleConns sets the maximum number of connections in the idle connection pool.
	SetMaxIdleConns(n int)

	// SetMaxOpenConns sets the maximum number of open connections to the database.
	SetMaxOpenConns(n int)
}

// Ensure sql.DB implements SQLDatabase.
var _ SQLDatabase = (*sql.DB)(nil)
