// Package quiz provides the quiz domain: quizzes, questions, the persisted
// document shape, and the Controller that validates and applies changes to it.
package quiz

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	// TimestampLayout is the canonical layout for timestamps crossing into storage.
	TimestampLayout = "2006-01-02T15:04:05"
	// timestampMicroLayout is used when the timestamp has a sub-second part.
	timestampMicroLayout = "2006-01-02T15:04:05.000000"
	dateLayout           = "2006-01-02"
)

// Quiz represents a quiz.
type Quiz struct {
	ID          string
	Title       string
	Description string
	OpensAt     time.Time
	ClosesAt    time.Time
	UpdatedAt   time.Time
	Questions   []*Question
}

// Question represents a question in a quiz.
type Question struct {
	ID        string
	QuizID    string
	CreatedAt time.Time
	Text      string
}

// Document is the full collection of quizzes in its persisted form.
// Every value in it is a primitive; timestamps are canonical strings.
type Document struct {
	Quizzes []QuizRecord `json:"quizzes"`
}

// QuizRecord is the persisted form of a Quiz.
type QuizRecord struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	OpensAt     string           `json:"opens_at"`
	ClosesAt    string           `json:"closes_at"`
	UpdatedAt   string           `json:"updated_at,omitempty"`
	Questions   []QuestionRecord `json:"questions"`
}

// QuestionRecord is the persisted form of a Question.
type QuestionRecord struct {
	ID        string `json:"id"`
	CreatedAt string `json:"created_at"`
	Text      string `json:"text"`
}

// Store loads and saves the whole Document.
// This can be implemented for different backends.
type Store interface {
	// Load returns the persisted document, or an empty one if nothing has been saved yet.
	// It returns a *CorruptDataError if the persisted form cannot be parsed.
	Load(ctx context.Context) (*Document, error)
	// Save replaces the persisted document. It returns a *SerializationError if a record
	// is not in a representable form; the previous document is left untouched in that case.
	Save(ctx context.Context, doc *Document) error
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	c := &Document{Quizzes: make([]QuizRecord, len(d.Quizzes))}
	for i, rec := range d.Quizzes {
		rec.Questions = append([]QuestionRecord(nil), rec.Questions...)
		if rec.Questions == nil {
			rec.Questions = []QuestionRecord{}
		}
		c.Quizzes[i] = rec
	}

	return c
}

// Record converts the quiz into its persisted form.
func (q *Quiz) Record() QuizRecord {
	rec := QuizRecord{
		ID:          q.ID,
		Title:       q.Title,
		Description: q.Description,
		OpensAt:     FormatTimestamp(q.OpensAt),
		ClosesAt:    FormatTimestamp(q.ClosesAt),
		Questions:   make([]QuestionRecord, 0, len(q.Questions)),
	}
	if !q.UpdatedAt.IsZero() {
		rec.UpdatedAt = FormatTimestamp(q.UpdatedAt)
	}
	for _, qs := range q.Questions {
		rec.Questions = append(rec.Questions, qs.Record())
	}

	return rec
}

// Record converts the question into its persisted form.
func (q *Question) Record() QuestionRecord {
	return QuestionRecord{
		ID:        q.ID,
		CreatedAt: FormatTimestamp(q.CreatedAt),
		Text:      q.Text,
	}
}

// FromRecord converts a persisted quiz back into a Quiz.
// It fails if one of the timestamps is not parseable.
func FromRecord(rec QuizRecord) (*Quiz, error) {
	var err error
	qz := &Quiz{
		ID:          rec.ID,
		Title:       rec.Title,
		Description: rec.Description,
		Questions:   make([]*Question, 0, len(rec.Questions)),
	}
	if qz.OpensAt, err = ParseTimestamp(rec.OpensAt); err != nil {
		return nil, fmt.Errorf("quiz %s opens_at: %w", rec.ID, err)
	}
	if qz.ClosesAt, err = ParseTimestamp(rec.ClosesAt); err != nil {
		return nil, fmt.Errorf("quiz %s closes_at: %w", rec.ID, err)
	}
	if rec.UpdatedAt != "" {
		if qz.UpdatedAt, err = ParseTimestamp(rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("quiz %s updated_at: %w", rec.ID, err)
		}
	}
	for _, qr := range rec.Questions {
		createdAt, err := ParseTimestamp(qr.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("question %s created_at: %w", qr.ID, err)
		}
		qz.Questions = append(qz.Questions, &Question{
			ID:        qr.ID,
			QuizID:    rec.ID,
			CreatedAt: createdAt,
			Text:      qr.Text,
		})
	}

	return qz, nil
}

// FormatTimestamp renders t in the canonical string form, in UTC.
// Microseconds are only written when they are non-zero.
func FormatTimestamp(t time.Time) string {
	t = t.UTC().Truncate(time.Microsecond)
	if t.Nanosecond() == 0 {
		return t.Format(TimestampLayout)
	}

	return t.Format(timestampMicroLayout)
}

// ParseTimestamp parses the canonical form, RFC 3339, or a bare date.
// The result is always in UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{TimestampLayout, timestampMicroLayout, time.RFC3339Nano, dateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
}

// IsCanonicalTimestamp reports whether s is already in the canonical form.
func IsCanonicalTimestamp(s string) bool {
	var layout string
	switch len(s) {
	case len(TimestampLayout):
		layout = TimestampLayout
	case len(timestampMicroLayout):
		layout = timestampMicroLayout
	default:
		return false
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return false
	}

	return FormatTimestamp(t) == s
}
