// Package dbtest provides helpers for testing database code.
package dbtest

import (
	"database/sql"
	"testing"

	"github.com/starquake/quizbook/internal/db"
)

// Open opens an in-memory SQLite database with migrations applied.
// The connection is closed when the test finishes.
func Open(t *testing.T) *sql.DB {
	t.Helper()

	conn := OpenUnmigrated(t)

	if err := db.Migrate(conn); err != nil {
		t.Fatalf("error running migrations: %v", err)
	}

	return conn
}

// OpenUnmigrated opens an in-memory SQLite database without migrations applied.
func OpenUnmigrated(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("error opening SQLite database: %v", err)
	}
	// Every connection to :memory: is its own database.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	t.Cleanup(func() {
		_ = conn.Close()
	})

	return conn
}
