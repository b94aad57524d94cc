package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/starquake/quizbook/internal/quiz"
)

const (
	fileExt  = ".json"
	filePerm = 0o644
	dirPerm  = 0o755
)

// FileStore keeps one dataset as a JSON document on disk.
type FileStore struct {
	path   string
	codec  codec
	logger *slog.Logger
}

// NewFileStore returns a FileStore for <dir>/<dataset>.json.
// If compact is set the document is minified when written.
func NewFileStore(dir, dataset string, compact bool, logger *slog.Logger) (*FileStore, error) {
	if err := validateDataset(dataset); err != nil {
		return nil, err
	}

	return &FileStore{
		path:   filepath.Join(dir, dataset+fileExt),
		codec:  newCodec(compact),
		logger: logger,
	}, nil
}

// Path returns the location of the backing document.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the backing document. A missing file is an empty collection.
func (s *FileStore) Load(ctx context.Context) (*quiz.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", s.path, err)
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.DebugContext(ctx, "no quiz document yet", slog.String("path", s.path))

		return &quiz.Document{Quizzes: []quiz.QuizRecord{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	doc, err := s.codec.decode(data)
	if err != nil {
		return nil, &quiz.CorruptDataError{Source: s.path, Err: err}
	}

	return doc, nil
}

// Save replaces the backing document. The new content is written to a temporary file
// in the same directory and renamed over the old one, so readers see either the old
// or the new document and never a partial write.
func (s *FileStore) Save(ctx context.Context, doc *quiz.Document) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to save %s: %w", s.path, err)
	}

	data, err := s.codec.encode(doc)
	if err != nil {
		return err
	}

	if err = writeFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("failed to save %s: %w", s.path, err)
	}
	s.logger.DebugContext(ctx, "quiz document written", slog.String("path", s.path), slog.Int("bytes", len(data)))

	return nil
}

// Close is a no-op; FileStore holds no open resources.
func (s *FileStore) Close() error {
	return nil
}

func writeFileAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err = os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("error creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()

		return fmt.Errorf("error writing temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()

		return fmt.Errorf("error syncing temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("error closing temp file: %w", err)
	}
	if err = os.Chmod(tmpName, filePerm); err != nil {
		return fmt.Errorf("error setting permissions: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("error replacing document: %w", err)
	}

	return nil
}
