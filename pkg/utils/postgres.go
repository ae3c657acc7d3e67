package utils

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresPoolConfig sizes the database/sql pool.
//
// The service only reads tenant rows per request and appends audit rows, so the
// defaults stay small. Zero values take the defaults.
type PostgresPoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration

	// ConnectAttempts bounds the startup ping loop; RetryDelay separates attempts.
	ConnectAttempts int
	RetryDelay      time.Duration
}

func (c PostgresPoolConfig) withDefaults() PostgresPoolConfig {
	out := c
	if out.MaxOpenConns <= 0 {
		out.MaxOpenConns = 10
	}
	if out.MaxIdleConns <= 0 || out.MaxIdleConns > out.MaxOpenConns {
		out.MaxIdleConns = min(5, out.MaxOpenConns)
	}
	if out.ConnMaxLifetime <= 0 {
		out.ConnMaxLifetime = 30 * time.Minute
	}
	if out.ConnMaxIdleTime <= 0 {
		out.ConnMaxIdleTime = 5 * time.Minute
	}
	if out.PingTimeout <= 0 {
		out.PingTimeout = 5 * time.Second
	}
	if out.ConnectAttempts <= 0 {
		out.ConnectAttempts = 1
	}
	if out.RetryDelay <= 0 {
		out.RetryDelay = time.Second
	}
	return out
}

// OpenPostgres opens the pool and pings it until it answers or the attempts run out.
// driverName is "pgx" in deployment. dsn carries the password and must not be logged.
func OpenPostgres(ctx context.Context, driverName, dsn string, pool PostgresPoolConfig) (*sql.DB, error) {
	pool = pool.withDefaults()

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	db.SetConnMaxIdleTime(pool.ConnMaxIdleTime)

	for attempt := 1; ; attempt++ {
		err = HealthCheck(ctx, db, pool.PingTimeout)
		if err == nil {
			return db, nil
		}
		if attempt >= pool.ConnectAttempts {
			break
		}
		t := time.NewTimer(pool.RetryDelay)
		select {
		case <-ctx.Done():
			t.Stop()
			_ = db.Close()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
	_ = db.Close()
	return nil, fmt.Errorf("postgres: %d attempt(s): %w", pool.ConnectAttempts, err)
}

// HealthCheck pings the DB with a timeout.
func HealthCheck(ctx context.Context, db *sql.DB, timeout time.Duration) error {
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("db ping failed: %w", err)
	}
	return nil
}

// TxFunc is the unit of work executed inside a transaction.
type TxFunc func(ctx context.Context, tx *sql.Tx) error

// WithTx runs fn inside a transaction. It rolls back when fn errors or panics
// (the panic is re-raised) and commits otherwise.
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn TxFunc) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	return fn(ctx, tx)
}

// ReadSnapshot runs fn in a read-only transaction so multi-statement reads see one state.
func ReadSnapshot(ctx context.Context, db *sql.DB, fn TxFunc) error {
	return WithTx(ctx, db, &sql.TxOptions{ReadOnly: true}, fn)
}
