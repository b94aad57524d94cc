package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/starquake/quizbook/internal/db"
	"github.com/starquake/quizbook/internal/quiz"
)

const (
	loadDocumentSQL = `SELECT body, updated_at FROM documents WHERE name = ?`
	saveDocumentSQL = `INSERT INTO documents (name, body, updated_at) VALUES (?, ?, ?)
ON CONFLICT(name) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`
)

// SQLiteStore keeps one dataset as a single row in the documents table.
type SQLiteStore struct {
	db     *sql.DB
	name   string
	codec  codec
	logger *slog.Logger
}

// NewSQLiteStore returns a store for the dataset in an already migrated database.
// Documents are always stored minified.
func NewSQLiteStore(conn *sql.DB, dataset string, logger *slog.Logger) (*SQLiteStore, error) {
	if err := validateDataset(dataset); err != nil {
		return nil, err
	}

	return &SQLiteStore{db: conn, name: dataset, codec: newCodec(true), logger: logger}, nil
}

// Ping checks the connection to the database, ensuring it's reachable and responsive.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	err := s.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// Load reads the dataset row. A missing row is an empty collection.
func (s *SQLiteStore) Load(ctx context.Context) (*quiz.Document, error) {
	var body string
	var updatedAt db.Timestamp
	err := s.db.QueryRowContext(ctx, loadDocumentSQL, s.name).Scan(&body, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		s.logger.DebugContext(ctx, "no quiz document yet", slog.String("dataset", s.name))

		return &quiz.Document{Quizzes: []quiz.QuizRecord{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document %q: %w", s.name, err)
	}

	doc, err := s.codec.decode([]byte(body))
	if err != nil {
		return nil, &quiz.CorruptDataError{Source: "dataset " + s.name, Err: err}
	}
	s.logger.DebugContext(ctx, "quiz document loaded",
		slog.String("dataset", s.name),
		slog.Time("updated_at", time.Time(updatedAt)),
	)

	return doc, nil
}

// Save upserts the dataset row inside a transaction.
func (s *SQLiteStore) Save(ctx context.Context, doc *quiz.Document) error {
	data, err := s.codec.encode(doc)
	if err != nil {
		return err
	}

	err = db.ExecTx(ctx, s.db, func(tx *sql.Tx) error {
		_, execErr := tx.ExecContext(ctx, saveDocumentSQL, s.name, string(data), db.Timestamp(time.Now().UTC()))

		return execErr
	})
	if err != nil {
		return fmt.Errorf("failed to save document %q: %w", s.name, err)
	}

	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("error closing database: %w", err)
	}

	return nil
}
