package quiz

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// NewQuiz is the input for creating a quiz.
type NewQuiz struct {
	Title       string
	Description string
	OpensAt     time.Time
	ClosesAt    time.Time
	Questions   []NewQuestion
}

// NewQuestion is the input for creating a question. A zero CreatedAt means "now" on import.
type NewQuestion struct {
	CreatedAt time.Time
	Text      string
}

type rawObject = map[string]json.RawMessage

// DecodeNewQuizzes decodes a JSON array of quiz definitions.
//
// Each element has title, description, opens_at, closes_at and an optional
// questions array of {created_at, text}. Any value of the wrong type is reported
// as a *ValidationError naming the offending field.
func DecodeNewQuizzes(r io.Reader) ([]NewQuiz, error) {
	var raw []rawObject
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, invalid("input", "must be a JSON array of quiz objects")
	}

	quizzes := make([]NewQuiz, 0, len(raw))
	for i, obj := range raw {
		nq, err := decodeNewQuiz(fmt.Sprintf("quizzes[%d].", i), obj)
		if err != nil {
			return nil, err
		}
		quizzes = append(quizzes, nq)
	}

	return quizzes, nil
}

func decodeNewQuiz(prefix string, obj rawObject) (NewQuiz, error) {
	var nq NewQuiz
	var err error
	if nq.Title, err = decodeString(obj, prefix, "title"); err != nil {
		return nq, err
	}
	if nq.Description, err = decodeString(obj, prefix, "description"); err != nil {
		return nq, err
	}
	if nq.OpensAt, err = decodeTimestamp(obj, prefix, "opens_at", true); err != nil {
		return nq, err
	}
	if nq.ClosesAt, err = decodeTimestamp(obj, prefix, "closes_at", true); err != nil {
		return nq, err
	}

	raw, ok := obj["questions"]
	if !ok || isNull(raw) {
		return nq, nil
	}
	var questions []rawObject
	if err = json.Unmarshal(raw, &questions); err != nil {
		return nq, invalid(prefix+"questions", "must be an array of question objects")
	}
	for j, qobj := range questions {
		qprefix := fmt.Sprintf("%squestions[%d].", prefix, j)
		var nqs NewQuestion
		if nqs.Text, err = decodeString(qobj, qprefix, "text"); err != nil {
			return nq, err
		}
		if nqs.CreatedAt, err = decodeTimestamp(qobj, qprefix, "created_at", false); err != nil {
			return nq, err
		}
		nq.Questions = append(nq.Questions, nqs)
	}

	return nq, nil
}

func decodeString(obj rawObject, prefix, key string) (string, error) {
	raw, ok := obj[key]
	if !ok || isNull(raw) {
		return "", invalid(prefix+key, "is required")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", invalid(prefix+key, "must be a string")
	}

	return s, nil
}

func decodeTimestamp(obj rawObject, prefix, key string, required bool) (time.Time, error) {
	raw, ok := obj[key]
	if !ok || isNull(raw) {
		if required {
			return time.Time{}, invalid(prefix+key, "is required")
		}

		return time.Time{}, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, invalid(prefix+key, "must be a timestamp string")
	}
	t, err := ParseTimestamp(s)
	if err != nil {
		return time.Time{}, invalid(prefix+key, "is not a valid timestamp")
	}

	return t, nil
}

func isNull(raw json.RawMessage) bool {
	return string(raw) == "null"
}
