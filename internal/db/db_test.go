package db_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/starquake/quizbook/internal/db"
)

func openTemp(t *testing.T) *sql.DB {
	t.Helper()

	uri := "file:" + filepath.Join(t.TempDir(), "db-test.sqlite")
	conn, err := db.Open(t.Context(), "sqlite", uri, 1, 1, time.Minute)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	t.Cleanup(func() {
		if err := conn.Close(); err != nil {
			t.Errorf("failed to close database: %v", err)
		}
	})

	return conn
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		conn := openTemp(t)
		if err := conn.PingContext(t.Context()); err != nil {
			t.Errorf("failed to ping database: %v", err)
		}
	})

	t.Run("unsupported driver", func(t *testing.T) {
		t.Parallel()

		_, err := db.Open(t.Context(), "postgres", "postgres://localhost", 1, 1, time.Minute)
		if got, want := err, db.ErrUnsupportedDriver; !errors.Is(got, want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("context canceled", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		uri := "file:" + filepath.Join(t.TempDir(), "canceled.sqlite")
		conn, err := db.Open(ctx, "sqlite", uri, 1, 1, time.Minute)
		if err == nil {
			_ = conn.Close()
			t.Fatal("expected error due to canceled context, got nil")
		}
	})
}

func TestMigrate(t *testing.T) {
	t.Parallel()

	conn := openTemp(t)
	if err := db.Migrate(conn); err != nil {
		t.Fatalf("error running migrations: %v", err)
	}
	// Running twice is a no-op.
	if err := db.Migrate(conn); err != nil {
		t.Fatalf("error re-running migrations: %v", err)
	}

	var n int
	err := conn.QueryRowContext(t.Context(), `SELECT COUNT(*) FROM documents`).Scan(&n)
	if err != nil {
		t.Fatalf("documents table missing: %v", err)
	}
	if n != 0 {
		t.Errorf("got %d rows, want 0", n)
	}
}

func TestExecTx(t *testing.T) {
	t.Parallel()

	conn := openTemp(t)
	if err := db.Migrate(conn); err != nil {
		t.Fatalf("error running migrations: %v", err)
	}

	insert := func(tx *sql.Tx, name string) error {
		_, err := tx.ExecContext(t.Context(),
			`INSERT INTO documents (name, body, updated_at) VALUES (?, '{}', 0)`, name)

		return err
	}

	if err := db.ExecTx(t.Context(), conn, func(tx *sql.Tx) error { return insert(tx, "committed") }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	errBoom := errors.New("boom")
	err := db.ExecTx(t.Context(), conn, func(tx *sql.Tx) error {
		if err := insert(tx, "rolled-back"); err != nil {
			return err
		}

		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("got %v, want %v", err, errBoom)
	}

	var n int
	if err = conn.QueryRowContext(t.Context(), `SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		t.Fatalf("error counting rows: %v", err)
	}
	if got, want := n, 1; got != want {
		t.Errorf("got %d rows, want %d", got, want)
	}
}

func TestTimestamp(t *testing.T) {
	t.Parallel()

	want := time.Date(2024, 5, 6, 12, 30, 0, 123_000_000, time.UTC)

	v, err := db.Timestamp(want).Value()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var ts db.Timestamp
	if err = ts.Scan(v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := time.Time(ts); !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}

	if err = ts.Scan(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !time.Time(ts).IsZero() {
		t.Errorf("got %v, want zero time", time.Time(ts))
	}

	if err = ts.Scan("yesterday"); !errors.Is(err, db.ErrConvertingValueIntoTimestamp) {
		t.Errorf("got %v, want %v", err, db.ErrConvertingValueIntoTimestamp)
	}
}
