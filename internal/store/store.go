// Package store provides the persistence backends for the quiz document.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/starquake/quizbook/internal/config"
	"github.com/starquake/quizbook/internal/db"
	"github.com/starquake/quizbook/internal/quiz"
)

// ErrInvalidDataset is returned when a dataset name could escape its directory or is empty.
var ErrInvalidDataset = errors.New("invalid dataset name")

var datasetPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Store is a quiz.Store that must be closed when no longer needed.
type Store interface {
	quiz.Store
	Close() error
}

// Open returns the store selected by cfg.StoreDriver.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Store, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverFile:
		s, err := NewFileStore(cfg.DataDir, cfg.Dataset, cfg.StoreCompact, logger)
		if err != nil {
			return nil, err
		}

		return s, nil
	case config.StoreDriverSQLite:
		return openSQLite(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnsupportedStoreDriver, cfg.StoreDriver)
	}
}

func openSQLite(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Store, error) {
	conn, err := db.Open(ctx, cfg.DBDriver, cfg.DBURI, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBConnMaxLifetime)
	if err != nil {
		return nil, fmt.Errorf("error opening database connection: %w", err)
	}

	if err = db.Migrate(conn); err != nil {
		_ = conn.Close()

		return nil, fmt.Errorf("error migrating database: %w", err)
	}

	s, err := NewSQLiteStore(conn, cfg.Dataset, logger)
	if err != nil {
		_ = conn.Close()

		return nil, err
	}

	return s, nil
}

func validateDataset(name string) error {
	if !datasetPattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidDataset, name)
	}

	return nil
}
