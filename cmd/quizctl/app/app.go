// Package app contains the main entrypoint for quizctl.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/starquake/quizbook/internal/config"
	"github.com/starquake/quizbook/internal/logging"
	"github.com/starquake/quizbook/internal/quiz"
	"github.com/starquake/quizbook/internal/store"
)

var (
	// ErrUsage is returned when the command line cannot be parsed.
	ErrUsage = errors.New("usage error")
	// ErrUnknownCommand is returned for a command that does not exist.
	ErrUnknownCommand = errors.New("unknown command")
)

const usage = `usage: quizctl <command> [flags]

commands:
  add-quiz      -title T -description D -opens TS -closes TS
  add-question  -quiz ID -text T [-created TS]
  get-quiz      -id ID
  list-quizzes
  import        -file PATH ("-" reads stdin)
`

type command func(ctx context.Context, ctrl *quiz.Controller, args []string, stdin io.Reader, stdout io.Writer) error

var commands = map[string]command{
	"add-quiz":     addQuiz,
	"add-question": addQuestion,
	"get-quiz":     getQuiz,
	"list-quizzes": listQuizzes,
	"import":       importQuizzes,
}

// Run parses the configuration, opens the configured store, and executes a single command.
func Run(
	ctx context.Context,
	args []string,
	getenv func(string) string,
	stdin io.Reader,
	stdout, stderr io.Writer,
) error {
	var err error
	mainCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	if len(args) == 0 {
		_, _ = io.WriteString(stderr, usage)

		return fmt.Errorf("%w: missing command", ErrUsage)
	}
	cmd, ok := commands[args[0]]
	if !ok {
		_, _ = io.WriteString(stderr, usage)

		return fmt.Errorf("%w: %q", ErrUnknownCommand, args[0])
	}

	var cfg *config.Config
	if cfg, err = config.Parse(getenv); err != nil {
		return fmt.Errorf("error parsing config: %w", err)
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("error parsing config: %w", err)
	}
	logger := logging.New(stderr, level)

	s, err := store.Open(mainCtx, cfg, logger)
	if err != nil {
		msg := "error opening store"
		logger.ErrorContext(mainCtx, msg, logging.ErrAttr(err))

		return fmt.Errorf("%s: %w", msg, err)
	}
	defer func() {
		if closeErr := s.Close(); closeErr != nil {
			logger.ErrorContext(mainCtx, "error closing store", logging.ErrAttr(closeErr))
		}
	}()

	ctrl := quiz.NewController(mainCtx, s, logger)

	return cmd(mainCtx, ctrl, args[1:], stdin, stdout)
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUsage, fs.Name(), err)
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("%w: %s: unexpected arguments %q", ErrUsage, fs.Name(), fs.Args())
	}

	return nil
}

// parseTime returns the zero time for an empty value so that the controller reports the missing field.
func parseTime(name, value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, nil
	}
	t, err := quiz.ParseTimestamp(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: -%s: %w", ErrUsage, name, err)
	}

	return t, nil
}

func addQuiz(ctx context.Context, ctrl *quiz.Controller, args []string, _ io.Reader, stdout io.Writer) error {
	fs := newFlagSet("add-quiz")
	title := fs.String("title", "", "quiz title")
	description := fs.String("description", "", "quiz description")
	opens := fs.String("opens", "", "time the quiz opens")
	closes := fs.String("closes", "", "time the quiz closes")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	opensAt, err := parseTime("opens", *opens)
	if err != nil {
		return err
	}
	closesAt, err := parseTime("closes", *closes)
	if err != nil {
		return err
	}

	id, err := ctrl.AddQuiz(ctx, *title, *description, opensAt, closesAt)
	if err != nil {
		return fmt.Errorf("error adding quiz: %w", err)
	}

	return writeJSON(stdout, map[string]string{"id": id})
}

func addQuestion(ctx context.Context, ctrl *quiz.Controller, args []string, _ io.Reader, stdout io.Writer) error {
	fs := newFlagSet("add-question")
	quizID := fs.String("quiz", "", "identifier of the quiz")
	text := fs.String("text", "", "question text")
	created := fs.String("created", "", "creation time, defaults to now")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	createdAt, err := parseTime("created", *created)
	if err != nil {
		return err
	}
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	id, err := ctrl.AddQuestion(ctx, *quizID, createdAt, *text)
	if err != nil {
		return fmt.Errorf("error adding question: %w", err)
	}

	return writeJSON(stdout, map[string]string{"id": id})
}

func getQuiz(ctx context.Context, ctrl *quiz.Controller, args []string, _ io.Reader, stdout io.Writer) error {
	fs := newFlagSet("get-quiz")
	id := fs.String("id", "", "identifier of the quiz")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	qz, err := ctrl.GetQuizByID(ctx, *id)
	if err != nil {
		return fmt.Errorf("error getting quiz: %w", err)
	}

	return writeJSON(stdout, qz.Record())
}

func listQuizzes(ctx context.Context, ctrl *quiz.Controller, args []string, _ io.Reader, stdout io.Writer) error {
	if err := parseFlags(newFlagSet("list-quizzes"), args); err != nil {
		return err
	}

	quizzes, err := ctrl.ListQuizzes(ctx)
	if err != nil {
		return fmt.Errorf("error listing quizzes: %w", err)
	}
	records := make([]quiz.QuizRecord, 0, len(quizzes))
	for _, qz := range quizzes {
		records = append(records, qz.Record())
	}

	return writeJSON(stdout, records)
}

func importQuizzes(ctx context.Context, ctrl *quiz.Controller, args []string, stdin io.Reader, stdout io.Writer) error {
	fs := newFlagSet("import")
	path := fs.String("file", "-", `JSON file to import, "-" for stdin`)
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	r := stdin
	if *path != "-" {
		f, err := os.Open(*path)
		if err != nil {
			return fmt.Errorf("error opening import file: %w", err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	quizzes, err := quiz.DecodeNewQuizzes(r)
	if err != nil {
		return fmt.Errorf("error decoding import: %w", err)
	}
	ids, err := ctrl.ImportQuizzes(ctx, quizzes)
	if err != nil {
		return fmt.Errorf("error importing quizzes: %w", err)
	}

	return writeJSON(stdout, map[string][]string{"ids": ids})
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("error writing output: %w", err)
	}

	return nil
}

