// Package followup generates clarifying questions for a submitted answer and
// rewrites idea descriptions from user notes. Both flows gate on input length
// before any model call so trivially short input never spends tokens.
package followup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/bkyoung/ideaminer/internal/config"
	"github.com/bkyoung/ideaminer/internal/llm"
	"github.com/bkyoung/ideaminer/internal/parse"
	"github.com/bkyoung/ideaminer/internal/prompt"
	"github.com/bkyoung/ideaminer/internal/sanitize"
	"go.uber.org/zap"
)

var (
	// ErrAnswerTooShort rejects answers below the minimum length before any
	// network call is made.
	ErrAnswerTooShort = errors.New("answer too short for follow-up questions")

	// ErrNotesTooShort rejects improvement notes below the minimum length.
	ErrNotesTooShort = errors.New("notes too short to improve description")
)

// Service drives the follow-up and improvement flows.
type Service struct {
	model   llm.Invoker
	scanner *sanitize.Scanner
	logger  *zap.Logger

	minAnswerChars int
	minNotesChars  int
}

// Option tunes a Service.
type Option func(*Service)

// WithMinAnswerChars overrides the answer-length gate.
func WithMinAnswerChars(n int) Option {
	return func(s *Service) { s.minAnswerChars = n }
}

// WithMinNotesChars overrides the notes-length gate.
func WithMinNotesChars(n int) Option {
	return func(s *Service) { s.minNotesChars = n }
}

// New constructs a Service with the default length gates.
func New(model llm.Invoker, scanner *sanitize.Scanner, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if scanner == nil {
		scanner = sanitize.NewScanner(logger)
	}
	s := &Service{
		model:          model,
		scanner:        scanner,
		logger:         logger,
		minAnswerChars: config.DefaultMinAnswerChars,
		minNotesChars:  config.DefaultMinNotesChars,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Questions asks the model for exactly three clarifying questions about the
// given answer. Short answers fail fast with ErrAnswerTooShort.
func (s *Service) Questions(ctx context.Context, answer string) ([]string, error) {
	if utf8.RuneCountInString(strings.TrimSpace(answer)) < s.minAnswerChars {
		return nil, ErrAnswerTooShort
	}

	s.scanner.FlagIfSuspicious("answer", answer)

	p, err := prompt.FollowUp.Build(map[string]string{"answer": answer})
	if err != nil {
		return nil, fmt.Errorf("build prompt: %w", err)
	}

	reply, err := s.model.Invoke(ctx, llm.Request{System: p.System, User: p.User})
	if err != nil {
		return nil, err
	}

	list, err := parse.Parse[parse.QuestionList](reply.Text, parse.QuestionListSchema)
	if err != nil {
		s.logRejectedReply("followup", err)
		return nil, err
	}
	return list.Questions, nil
}

// Improve rewrites a description using the user's notes and returns the
// rewritten prose. Short notes fail fast with ErrNotesTooShort.
func (s *Service) Improve(ctx context.Context, description, notes string) (string, error) {
	if utf8.RuneCountInString(strings.TrimSpace(notes)) < s.minNotesChars {
		return "", ErrNotesTooShort
	}

	s.scanner.FlagIfSuspicious("description", description)
	s.scanner.FlagIfSuspicious("notes", notes)

	p, err := prompt.Improve.Build(map[string]string{
		"description": description,
		"notes":       notes,
	})
	if err != nil {
		return "", fmt.Errorf("build prompt: %w", err)
	}

	reply, err := s.model.Invoke(ctx, llm.Request{System: p.System, User: p.User})
	if err != nil {
		return "", err
	}

	improved := parse.Text(reply.Text)
	if improved == "" {
		err := parse.NewError("improve text", "empty reply after fence strip", reply.Text)
		s.logRejectedReply("improve", err)
		return "", err
	}
	return improved, nil
}

func (s *Service) logRejectedReply(flow string, err error) {
	var perr *parse.Error
	if errors.As(err, &perr) {
		s.logger.Error("model reply rejected",
			zap.String("flow", flow),
			zap.String("detail", perr.Detail()),
			zap.String("raw", perr.Raw()),
		)
	}
}
