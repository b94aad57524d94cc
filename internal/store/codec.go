package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/tdewolff/minify/v2"
	mjson "github.com/tdewolff/minify/v2/json"

	"github.com/starquake/quizbook/internal/quiz"
)

const mediaTypeJSON = "application/json"

var (
	// ErrEmptyDocument is returned when a persisted document has no content.
	ErrEmptyDocument = errors.New("document is empty")
	// ErrMissingQuizzes is returned when a document has no quizzes array.
	ErrMissingQuizzes = errors.New("document has no quizzes array")
	// ErrMissingID is returned when a record has an empty identifier.
	ErrMissingID = errors.New("identifier is empty")
	// ErrDuplicateID is returned when an identifier is used more than once.
	ErrDuplicateID = errors.New("identifier is not unique")
	// ErrNonCanonicalTimestamp is returned when a timestamp is not in the canonical string form.
	ErrNonCanonicalTimestamp = errors.New("timestamp is not in canonical form")
	// ErrInvalidText is returned when a text field is not valid UTF-8.
	ErrInvalidText = errors.New("text is not valid UTF-8")
	// ErrNilDocument is returned when Save is called without a document.
	ErrNilDocument = errors.New("document is nil")
)

// fieldError ties a document error to the path of the offending field.
type fieldError struct {
	Field string
	Err   error
}

func (e *fieldError) Error() string { return e.Field + ": " + e.Err.Error() }

func (e *fieldError) Unwrap() error { return e.Err }

// codec converts documents to and from their persisted bytes.
type codec struct {
	compact bool
	m       *minify.M
}

func newCodec(compact bool) codec {
	m := minify.New()
	m.AddFunc(mediaTypeJSON, mjson.Minify)

	return codec{compact: compact, m: m}
}

// encode validates doc and serializes it. Nothing is returned unless every record
// is representable, so a failed encode never reaches the backing storage.
func (c codec) encode(doc *quiz.Document) ([]byte, error) {
	if doc == nil {
		return nil, &quiz.SerializationError{Field: "document", Err: ErrNilDocument}
	}
	// Clone normalizes nil slices so they persist as empty arrays.
	doc = doc.Clone()
	if fe := checkDocument(doc); fe != nil {
		return nil, &quiz.SerializationError{Field: fe.Field, Err: fe.Err}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, &quiz.SerializationError{Field: "document", Err: err}
	}
	if !c.compact {
		return append(data, '\n'), nil
	}

	out, err := c.m.Bytes(mediaTypeJSON, data)
	if err != nil {
		return nil, &quiz.SerializationError{Field: "document", Err: fmt.Errorf("minify: %w", err)}
	}

	return out, nil
}

// decode parses persisted bytes into a document and checks its shape.
// Callers classify any returned error as corrupt data.
func (c codec) decode(data []byte) (*quiz.Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyDocument
	}

	var raw struct {
		Quizzes *[]quiz.QuizRecord `json:"quizzes"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if raw.Quizzes == nil {
		return nil, ErrMissingQuizzes
	}

	doc := (&quiz.Document{Quizzes: *raw.Quizzes}).Clone()
	if fe := checkDocument(doc); fe != nil {
		return nil, fe
	}

	return doc, nil
}

func checkDocument(doc *quiz.Document) *fieldError {
	seen := make(map[string]string)
	checkID := func(field, id string) *fieldError {
		if id == "" {
			return &fieldError{Field: field, Err: ErrMissingID}
		}
		if prev, ok := seen[id]; ok {
			return &fieldError{Field: field, Err: fmt.Errorf("%w: %q also used by %s", ErrDuplicateID, id, prev)}
		}
		seen[id] = field

		return nil
	}

	for i, rec := range doc.Quizzes {
		prefix := fmt.Sprintf("quizzes[%d].", i)
		if fe := checkID(prefix+"id", rec.ID); fe != nil {
			return fe
		}
		if fe := checkText(prefix+"title", rec.Title); fe != nil {
			return fe
		}
		if fe := checkText(prefix+"description", rec.Description); fe != nil {
			return fe
		}
		if fe := checkTimestamp(prefix+"opens_at", rec.OpensAt); fe != nil {
			return fe
		}
		if fe := checkTimestamp(prefix+"closes_at", rec.ClosesAt); fe != nil {
			return fe
		}
		if rec.UpdatedAt != "" {
			if fe := checkTimestamp(prefix+"updated_at", rec.UpdatedAt); fe != nil {
				return fe
			}
		}
		for j, qr := range rec.Questions {
			qprefix := fmt.Sprintf("%squestions[%d].", prefix, j)
			if fe := checkID(qprefix+"id", qr.ID); fe != nil {
				return fe
			}
			if fe := checkTimestamp(qprefix+"created_at", qr.CreatedAt); fe != nil {
				return fe
			}
			if fe := checkText(qprefix+"text", qr.Text); fe != nil {
				return fe
			}
		}
	}

	return nil
}

func checkText(field, s string) *fieldError {
	if !utf8.ValidString(s) {
		return &fieldError{Field: field, Err: ErrInvalidText}
	}

	return nil
}

func checkTimestamp(field, s string) *fieldError {
	if !quiz.IsCanonicalTimestamp(s) {
		return &fieldError{Field: field, Err: fmt.Errorf("%w: %q", ErrNonCanonicalTimestamp, s)}
	}

	return nil
}
