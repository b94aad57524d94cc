package quiz

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is matched by every *NotFoundError.
	ErrNotFound = errors.New("not found")
	// ErrCorruptData is matched by every *CorruptDataError.
	ErrCorruptData = errors.New("corrupt data")
	// ErrSerialization is matched by every *SerializationError.
	ErrSerialization = errors.New("serialization failed")

	// ErrInvalidTimestamp is returned when a string is not a recognized timestamp.
	ErrInvalidTimestamp = errors.New("invalid timestamp")
)

const (
	// KindQuiz is the NotFoundError kind for quizzes.
	KindQuiz = "quiz"
	// KindQuestion is the NotFoundError kind for questions.
	KindQuestion = "question"
)

// ValidationError is returned when caller input is malformed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrValidation, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NotFoundError is returned when an identifier does not resolve.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q %s", e.Kind, e.ID, ErrNotFound)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// CorruptDataError is returned when the persisted document exists but cannot be
// parsed into the expected shape.
type CorruptDataError struct {
	Source string
	Err    error
}

func (e *CorruptDataError) Error() string {
	return fmt.Sprintf("%s in %s: %v", ErrCorruptData, e.Source, e.Err)
}

func (e *CorruptDataError) Unwrap() []error { return []error{ErrCorruptData, e.Err} }

// SerializationError is returned when an in-memory value cannot be converted to
// the persisted representation.
type SerializationError struct {
	Field string
	Err   error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrSerialization, e.Field, e.Err)
}

func (e *SerializationError) Unwrap() []error { return []error{ErrSerialization, e.Err} }

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
