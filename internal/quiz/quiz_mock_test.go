package quiz_test

import (
	"context"

	"github.com/starquake/quizbook/internal/quiz"
)

// memStore is an in-memory quiz.Store with injectable failures.
type memStore struct {
	doc     *quiz.Document
	loadErr error
	saveErr error
	loads   int
	saves   int
}

func (m *memStore) Load(_ context.Context) (*quiz.Document, error) {
	m.loads++
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.doc == nil {
		return &quiz.Document{}, nil
	}

	return m.doc.Clone(), nil
}

func (m *memStore) Save(_ context.Context, doc *quiz.Document) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.doc = doc.Clone()

	return nil
}
