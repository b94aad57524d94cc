package quiz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/xid"

	"github.com/starquake/quizbook/internal/logging"
)

// maxYear is the last year representable in the canonical timestamp form.
const maxYear = 9999

// State is the lifecycle state of a Controller.
type State int

const (
	// StateUninitialized is the state before the first load.
	StateUninitialized State = iota
	// StateLoaded is entered after a successful load or save.
	StateLoaded
	// StateFailed is entered when the persisted document could not be parsed.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Controller is the only mutation and query surface above a Store.
// It is not safe for concurrent use.
type Controller struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
	newID  func() string

	state   State
	doc     *Document
	failure error
}

// NewController creates a Controller and performs the initial load.
// Corrupt storage does not fail construction; the Controller starts in StateFailed
// and every query returns the load error until ClearData is called.
func NewController(ctx context.Context, store Store, logger *slog.Logger) *Controller {
	c := &Controller{
		store:  store,
		logger: logger,
		now:    time.Now,
		newID:  func() string { return xid.New().String() },
	}
	if err := c.Reload(ctx); err != nil {
		logger.ErrorContext(ctx, "initial load failed", logging.ErrAttr(err))
	}

	return c
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	return c.state
}

// Reload loads the persisted document into memory.
// Once the Controller has failed it keeps returning the recorded error; only ClearData recovers it.
func (c *Controller) Reload(ctx context.Context) error {
	if c.state == StateFailed {
		return c.failure
	}

	doc, err := c.store.Load(ctx)
	if err != nil {
		err = fmt.Errorf("failed to load quizzes: %w", err)
		if errors.Is(err, ErrCorruptData) {
			c.state = StateFailed
			c.failure = err
			c.doc = nil
			c.logger.ErrorContext(ctx, "quiz data is corrupt", logging.ErrAttr(err))
		}

		return err
	}
	if doc == nil {
		doc = &Document{}
	}

	c.doc = doc
	c.state = StateLoaded
	c.logger.DebugContext(ctx, "quizzes loaded", slog.Int("quizzes", len(doc.Quizzes)))

	return nil
}

// AddQuiz validates and stores a new quiz and returns its identifier.
func (c *Controller) AddQuiz(ctx context.Context, title, description string, opensAt, closesAt time.Time) (string, error) {
	nq := NewQuiz{Title: title, Description: description, OpensAt: opensAt, ClosesAt: closesAt}
	if err := validateNewQuiz("", nq); err != nil {
		return "", err
	}

	doc, err := c.load(ctx)
	if err != nil {
		return "", err
	}

	rec := c.newQuizRecord(nq)
	next := doc.Clone()
	next.Quizzes = append(next.Quizzes, rec)
	if err = c.save(ctx, next); err != nil {
		return "", err
	}
	c.logger.DebugContext(ctx, "quiz added", slog.String("quiz_id", rec.ID))

	return rec.ID, nil
}

// AddQuestion appends a question to the quiz with the given identifier and returns
// the identifier of the new question.
func (c *Controller) AddQuestion(ctx context.Context, quizID string, createdAt time.Time, text string) (string, error) {
	if err := validateNewQuestion("", NewQuestion{CreatedAt: createdAt, Text: text}); err != nil {
		return "", err
	}
	if createdAt.IsZero() {
		return "", invalid("created_at", "is required")
	}

	doc, err := c.load(ctx)
	if err != nil {
		return "", err
	}

	idx := indexOfQuiz(doc, quizID)
	if idx < 0 {
		return "", &NotFoundError{Kind: KindQuiz, ID: quizID}
	}

	// Timestamps are converted to their canonical form before the record exists.
	rec := QuestionRecord{ID: c.newID(), CreatedAt: FormatTimestamp(createdAt), Text: text}
	next := doc.Clone()
	next.Quizzes[idx].Questions = append(next.Quizzes[idx].Questions, rec)
	next.Quizzes[idx].UpdatedAt = FormatTimestamp(c.now())
	if err = c.save(ctx, next); err != nil {
		return "", err
	}
	c.logger.DebugContext(ctx, "question added", slog.String("quiz_id", quizID), slog.String("question_id", rec.ID))

	return rec.ID, nil
}

// ImportQuizzes stores a batch of quizzes with their questions in a single save.
// Every quiz is validated before anything is changed. Questions without a creation
// time are stamped with the current time.
func (c *Controller) ImportQuizzes(ctx context.Context, quizzes []NewQuiz) ([]string, error) {
	for i, nq := range quizzes {
		if err := validateNewQuiz(fmt.Sprintf("quizzes[%d].", i), nq); err != nil {
			return nil, err
		}
		for j, nqs := range nq.Questions {
			if err := validateNewQuestion(fmt.Sprintf("quizzes[%d].questions[%d].", i, j), nqs); err != nil {
				return nil, err
			}
		}
	}

	doc, err := c.load(ctx)
	if err != nil {
		return nil, err
	}

	next := doc.Clone()
	ids := make([]string, 0, len(quizzes))
	for _, nq := range quizzes {
		rec := c.newQuizRecord(nq)
		for _, nqs := range nq.Questions {
			createdAt := nqs.CreatedAt
			if createdAt.IsZero() {
				createdAt = c.now()
			}
			rec.Questions = append(rec.Questions, QuestionRecord{
				ID:        c.newID(),
				CreatedAt: FormatTimestamp(createdAt),
				Text:      nqs.Text,
			})
		}
		next.Quizzes = append(next.Quizzes, rec)
		ids = append(ids, rec.ID)
	}
	if err = c.save(ctx, next); err != nil {
		return nil, err
	}
	c.logger.DebugContext(ctx, "quizzes imported", slog.Int("count", len(ids)))

	return ids, nil
}

// GetQuizByID returns the quiz with the given identifier, including its questions.
func (c *Controller) GetQuizByID(ctx context.Context, id string) (*Quiz, error) {
	doc, err := c.load(ctx)
	if err != nil {
		return nil, err
	}

	idx := indexOfQuiz(doc, id)
	if idx < 0 {
		return nil, &NotFoundError{Kind: KindQuiz, ID: id}
	}

	return c.fromRecord(doc.Quizzes[idx])
}

// ListQuizzes returns all quizzes in insertion order.
func (c *Controller) ListQuizzes(ctx context.Context) ([]*Quiz, error) {
	doc, err := c.load(ctx)
	if err != nil {
		return nil, err
	}

	quizzes := make([]*Quiz, 0, len(doc.Quizzes))
	for _, rec := range doc.Quizzes {
		qz, err := c.fromRecord(rec)
		if err != nil {
			return nil, err
		}
		quizzes = append(quizzes, qz)
	}

	return quizzes, nil
}

// GetQuestionByID returns the question with the given identifier.
func (c *Controller) GetQuestionByID(ctx context.Context, id string) (*Question, error) {
	doc, err := c.load(ctx)
	if err != nil {
		return nil, err
	}

	for _, rec := range doc.Quizzes {
		for _, qr := range rec.Questions {
			if qr.ID != id {
				continue
			}
			createdAt, err := ParseTimestamp(qr.CreatedAt)
			if err != nil {
				return nil, &CorruptDataError{Source: "question " + id, Err: err}
			}

			return &Question{ID: qr.ID, QuizID: rec.ID, CreatedAt: createdAt, Text: qr.Text}, nil
		}
	}

	return nil, &NotFoundError{Kind: KindQuestion, ID: id}
}

// ClearData replaces the collection with an empty one and persists it.
// It is the only way out of StateFailed.
func (c *Controller) ClearData(ctx context.Context) error {
	if err := c.save(ctx, &Document{Quizzes: []QuizRecord{}}); err != nil {
		return err
	}
	c.logger.DebugContext(ctx, "quiz data cleared")

	return nil
}

func (c *Controller) load(ctx context.Context) (*Document, error) {
	if err := c.Reload(ctx); err != nil {
		return nil, err
	}

	return c.doc, nil
}

// save persists next and only then makes it the in-memory copy.
func (c *Controller) save(ctx context.Context, next *Document) error {
	if err := c.store.Save(ctx, next); err != nil {
		return fmt.Errorf("failed to save quizzes: %w", err)
	}
	c.doc = next
	c.state = StateLoaded
	c.failure = nil
	c.logger.DebugContext(ctx, "quizzes saved", slog.Int("quizzes", len(next.Quizzes)))

	return nil
}

func (c *Controller) newQuizRecord(nq NewQuiz) QuizRecord {
	return QuizRecord{
		ID:          c.newID(),
		Title:       nq.Title,
		Description: nq.Description,
		OpensAt:     FormatTimestamp(nq.OpensAt),
		ClosesAt:    FormatTimestamp(nq.ClosesAt),
		UpdatedAt:   FormatTimestamp(c.now()),
		Questions:   []QuestionRecord{},
	}
}

func (c *Controller) fromRecord(rec QuizRecord) (*Quiz, error) {
	qz, err := FromRecord(rec)
	if err != nil {
		return nil, &CorruptDataError{Source: "quiz " + rec.ID, Err: err}
	}

	return qz, nil
}

func indexOfQuiz(doc *Document, id string) int {
	for i, rec := range doc.Quizzes {
		if rec.ID == id {
			return i
		}
	}

	return -1
}

func validateNewQuiz(prefix string, nq NewQuiz) error {
	if err := validateText(prefix+"title", nq.Title); err != nil {
		return err
	}
	if err := validateText(prefix+"description", nq.Description); err != nil {
		return err
	}
	if err := validateTime(prefix+"opens_at", nq.OpensAt); err != nil {
		return err
	}
	if err := validateTime(prefix+"closes_at", nq.ClosesAt); err != nil {
		return err
	}
	// Compare at the precision that is persisted.
	if !nq.OpensAt.Truncate(time.Microsecond).Before(nq.ClosesAt.Truncate(time.Microsecond)) {
		return invalid(prefix+"closes_at", "must be after opens_at")
	}

	return nil
}

// validateNewQuestion allows a zero CreatedAt; callers decide whether it is required.
func validateNewQuestion(prefix string, nqs NewQuestion) error {
	if err := validateText(prefix+"text", nqs.Text); err != nil {
		return err
	}
	if nqs.CreatedAt.IsZero() {
		return nil
	}

	return validateTime(prefix+"created_at", nqs.CreatedAt)
}

// validateTime rejects zero times and years that the four-digit canonical form cannot hold.
func validateTime(field string, t time.Time) error {
	if t.IsZero() {
		return invalid(field, "is required")
	}
	if y := t.UTC().Year(); y < 0 || y > maxYear {
		return invalid(field, "is out of range")
	}

	return nil
}

func validateText(field, s string) error {
	if !utf8.ValidString(s) {
		return invalid(field, "must be valid UTF-8 text")
	}
	if strings.TrimSpace(s) == "" {
		return invalid(field, "is required")
	}

	return nil
}
