// Package db provides database access for the sqlite document store.
package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/starquake/quizbook/internal/migrations"
)

var (
	// ErrUnsupportedDriver is returned when the database driver is not supported. We only support sqlite for now.
	ErrUnsupportedDriver = errors.New("unsupported database driver")
	// ErrConvertingValueIntoTimestamp is returned when a value cannot be converted into a Timestamp.
	ErrConvertingValueIntoTimestamp = errors.New("cannot convert value into Timestamp")
)

// goose keeps its configuration in package globals; set it up once.
var (
	gooseOnce sync.Once
	gooseErr  error
)

// Open opens a database connection and verifies it with a ping.
func Open(
	ctx context.Context,
	driver, uri string,
	dbMaxOpenConns, dbMaxIdleConns int,
	dbConnMaxLifetime time.Duration,
) (*sql.DB, error) {
	if driver != "sqlite" && driver != "sqlite3" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, driver)
	}

	conn, err := sql.Open("sqlite", uri)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err = conn.PingContext(ctx); err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			return nil, fmt.Errorf("error pinging database: %w (close error: %w)", err, closeErr)
		}

		return nil, fmt.Errorf("error pinging database: %w", err)
	}

	conn.SetMaxOpenConns(dbMaxOpenConns)
	conn.SetMaxIdleConns(dbMaxIdleConns)
	conn.SetConnMaxLifetime(dbConnMaxLifetime)

	return conn, nil
}

// Migrate runs the embedded migrations.
func Migrate(conn *sql.DB) error {
	gooseOnce.Do(func() {
		goose.SetBaseFS(migrations.FS)
		goose.SetLogger(goose.NopLogger())
		gooseErr = goose.SetDialect("sqlite3")
	})
	if gooseErr != nil {
		return fmt.Errorf("error setting dialect: %w", gooseErr)
	}

	if err := goose.Up(conn, "."); err != nil {
		return fmt.Errorf("error running migrations: %w", err)
	}

	return nil
}

// ExecTx runs fn within a transaction and commits it if fn succeeds.
func ExecTx(ctx context.Context, conn *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction failed: %w (rollback error: %w)", err, rbErr)
		}

		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}

	return nil
}

// Timestamp is a timestamp with millisecond precision, stored as unix milliseconds.
//
//nolint:recvcheck // Mixing pointer receivers and value receivers is needed here because we are implementing sql.Scanner and driver.Valuer.
type Timestamp time.Time

// Scan converts a value to a Timestamp.
// Currently, only int64 values are supported.
func (t *Timestamp) Scan(value any) error {
	if value == nil {
		*t = Timestamp(time.Time{})

		return nil
	}

	ms, ok := value.(int64)
	if !ok {
		return fmt.Errorf("%w: %T", ErrConvertingValueIntoTimestamp, value)
	}

	*t = Timestamp(time.UnixMilli(ms).UTC())

	return nil
}

// Value converts a Timestamp to a value suitable for database storage.
func (t Timestamp) Value() (driver.Value, error) {
	return time.Time(t).UnixMilli(), nil
}
