package quiz_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/starquake/quizbook/internal/quiz"
	"github.com/starquake/quizbook/internal/testutil"
)

func TestDecodeNewQuizzes(t *testing.T) {
	t.Parallel()

	input := `[
		{
			"title": "Software Engineering - Quiz 1",
			"description": "Welcome to the quiz 1",
			"opens_at": "2024-05-06T00:00:00",
			"closes_at": "2024-05-17",
			"questions": [
				{"created_at": "2024-05-17T02:00:00+02:00", "text": "Why is SDLC important?"},
				{"text": "What is a unit test?"}
			]
		},
		{
			"title": "Quiz 2",
			"description": "Second",
			"opens_at": "2024-06-01T00:00:00.500000",
			"closes_at": "2024-06-02T00:00:00"
		}
	]`

	got, err := quiz.DecodeNewQuizzes(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []quiz.NewQuiz{
		{
			Title:       "Software Engineering - Quiz 1",
			Description: "Welcome to the quiz 1",
			OpensAt:     testutil.Date(2024, 5, 6),
			ClosesAt:    testutil.Date(2024, 5, 17),
			Questions: []quiz.NewQuestion{
				{CreatedAt: testutil.Date(2024, 5, 17), Text: "Why is SDLC important?"},
				{Text: "What is a unit test?"},
			},
		},
		{
			Title:       "Quiz 2",
			Description: "Second",
			OpensAt:     testutil.Date(2024, 6, 1).Add(500 * time.Millisecond),
			ClosesAt:    testutil.Date(2024, 6, 2),
		},
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("quizzes diff (-got +want):\n%s", diff)
	}
}

func TestDecodeNewQuizzes_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		wantField string
	}{
		{name: "not JSON", input: `{{`, wantField: "input"},
		{name: "object instead of array", input: `{"title": "x"}`, wantField: "input"},
		{name: "numeric title", input: `[{"title": -1}]`, wantField: "quizzes[0].title"},
		{name: "missing title", input: `[{"description": "d"}]`, wantField: "quizzes[0].title"},
		{name: "null description", input: `[{"title": "t", "description": null}]`, wantField: "quizzes[0].description"},
		{
			name:      "object description",
			input:     `[{"title": "t", "description": {"a": 1}}]`,
			wantField: "quizzes[0].description",
		},
		{
			name:      "numeric opens_at",
			input:     `[{"title": "t", "description": "d", "opens_at": 1715000000}]`,
			wantField: "quizzes[0].opens_at",
		},
		{
			name:      "unparseable closes_at",
			input:     `[{"title": "t", "description": "d", "opens_at": "2024-05-06", "closes_at": "next tuesday"}]`,
			wantField: "quizzes[0].closes_at",
		},
		{
			name:      "questions not an array",
			input:     `[{"title": "t", "description": "d", "opens_at": "2024-05-06", "closes_at": "2024-05-17", "questions": "q"}]`,
			wantField: "quizzes[0].questions",
		},
		{
			name: "boolean question text",
			input: `[{"title": "t", "description": "d", "opens_at": "2024-05-06", "closes_at": "2024-05-17",
				"questions": [{"text": "ok"}, {"text": true}]}]`,
			wantField: "quizzes[0].questions[1].text",
		},
		{
			name: "second quiz invalid",
			input: `[{"title": "t", "description": "d", "opens_at": "2024-05-06", "closes_at": "2024-05-17"},
				{"title": ["t"]}]`,
			wantField: "quizzes[1].title",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := quiz.DecodeNewQuizzes(strings.NewReader(tt.input))
			if got != nil {
				t.Errorf("got %v, want nil", got)
			}
			var verr *quiz.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("got %v, want *quiz.ValidationError", err)
			}
			if got, want := verr.Field, tt.wantField; got != want {
				t.Errorf("got field %q, want %q", got, want)
			}
		})
	}
}
