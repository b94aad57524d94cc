package store_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/starquake/quizbook/internal/config"
	. "github.com/starquake/quizbook/internal/store"
	"github.com/starquake/quizbook/internal/testutil"
)

func TestOpen(t *testing.T) {
	t.Parallel()

	newConfig := func(t *testing.T, env map[string]string) *config.Config {
		t.Helper()

		c, err := config.Parse(func(key string) string { return env[key] })
		if err != nil {
			t.Fatalf("error parsing config: %v", err)
		}

		return c
	}

	t.Run("file driver", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		cfg := newConfig(t, map[string]string{"DATA_DIR": dir, "DATASET": "quizzes_test"})

		s, err := Open(t.Context(), cfg, testutil.Logger(t))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer func() { _ = s.Close() }()

		fs, ok := s.(*FileStore)
		if !ok {
			t.Fatalf("got %T, want *store.FileStore", s)
		}
		if got, want := fs.Path(), filepath.Join(dir, "quizzes_test.json"); got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("sqlite driver", func(t *testing.T) {
		t.Parallel()

		uri := "file:" + filepath.Join(t.TempDir(), "quizbook-test.sqlite")
		cfg := newConfig(t, map[string]string{"STORE_DRIVER": "sqlite", "DB_URI": uri})

		s, err := Open(t.Context(), cfg, testutil.Logger(t))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer func() {
			if err := s.Close(); err != nil {
				t.Errorf("failed to close store: %v", err)
			}
		}()

		if _, ok := s.(*SQLiteStore); !ok {
			t.Fatalf("got %T, want *store.SQLiteStore", s)
		}
		if err = s.Save(t.Context(), newTestDocument()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("invalid dataset", func(t *testing.T) {
		t.Parallel()

		cfg := newConfig(t, map[string]string{"DATA_DIR": t.TempDir(), "DATASET": "../escape"})
		if _, err := Open(t.Context(), cfg, testutil.Logger(t)); !errors.Is(err, ErrInvalidDataset) {
			t.Errorf("got %v, want %v", err, ErrInvalidDataset)
		}
	})

	t.Run("unsupported driver", func(t *testing.T) {
		t.Parallel()

		cfg := &config.Config{StoreDriver: "csv"}
		if _, err := Open(t.Context(), cfg, testutil.Logger(t)); !errors.Is(err, config.ErrUnsupportedStoreDriver) {
			t.Errorf("got %v, want %v", err, config.ErrUnsupportedStoreDriver)
		}
	})
}
