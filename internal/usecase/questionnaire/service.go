// Package questionnaire handles public response submission. Submission
// freezes a snapshot of the questions the respondent actually saw, so later
// edits to the live questionnaire never change what a stored response meant.
package questionnaire

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/bkyoung/ideaminer/internal/domain"
	"github.com/bkyoung/ideaminer/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrInactive is returned when the questionnaire exists but is not accepting
// responses. Callers treat it the same as a missing questionnaire so the
// public surface does not reveal which inactive ids exist.
var ErrInactive = errors.New("questionnaire inactive")

// emailPattern is deliberately loose; delivery is the real validator.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidationError lists the fields that failed submission validation.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid submission: " + strings.Join(e.Fields, ", ")
}

// Submission is one incoming response.
type Submission struct {
	Answers map[string]string
	Email   string
}

// Receipt is what a successful submission returns.
type Receipt struct {
	ResponseID       string
	ExtractionQueued bool
}

// Service handles submissions against the questionnaire store.
type Service struct {
	store  store.Questionnaires
	logger *zap.Logger

	newID func() string
	now   func() time.Time
}

// Option tunes a Service.
type Option func(*Service)

// WithIDFunc replaces the id generator, for deterministic tests.
func WithIDFunc(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// WithClock replaces the clock, for deterministic tests.
func WithClock(fn func() time.Time) Option {
	return func(s *Service) { s.now = fn }
}

// New constructs a Service.
func New(st store.Questionnaires, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		store:  st,
		logger: logger,
		newID:  uuid.NewString,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates the submission against the live questionnaire, freezes the
// snapshot and stores the response. The receipt reports whether the
// questionnaire queues automatic extraction.
func (s *Service) Submit(ctx context.Context, questionnaireID string, sub Submission) (Receipt, error) {
	q, err := s.store.GetQuestionnaire(ctx, questionnaireID)
	if err != nil {
		return Receipt{}, err
	}
	if !q.Active {
		return Receipt{}, ErrInactive
	}

	if err := validate(q, sub); err != nil {
		return Receipt{}, err
	}

	snapshot := freeze(q, sub)
	response := store.Response{
		ID:              s.newID(),
		QuestionnaireID: q.ID,
		Snapshot:        snapshot,
		SubmittedAt:     s.now().UTC(),
	}
	if err := s.store.CreateResponse(ctx, response); err != nil {
		return Receipt{}, fmt.Errorf("store response: %w", err)
	}

	s.logger.Info("response submitted",
		zap.String("questionnaire_id", q.ID),
		zap.String("response_id", response.ID),
		zap.Bool("auto_extract", q.AutoExtract),
	)
	return Receipt{ResponseID: response.ID, ExtractionQueued: q.AutoExtract}, nil
}

// validate checks required answers and the optional email. All failures are
// collected so the caller sees the whole list at once.
func validate(q store.Questionnaire, sub Submission) error {
	var fields []string
	for _, question := range q.Questions {
		if question.Required && strings.TrimSpace(sub.Answers[question.ID]) == "" {
			fields = append(fields, question.ID)
		}
	}
	if sub.Email != "" && !emailPattern.MatchString(sub.Email) {
		fields = append(fields, "email")
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// freeze captures the question set as seen at submission time. Answers to
// questions that no longer exist on the live questionnaire are dropped; the
// snapshot carries exactly what the respondent was shown.
func freeze(q store.Questionnaire, sub Submission) domain.ResponseSnapshot {
	questions := make([]domain.SnapshotQuestion, 0, len(q.Questions))
	answers := make(map[string]string, len(q.Questions))
	for _, question := range q.Questions {
		questions = append(questions, domain.SnapshotQuestion{
			QuestionID: question.ID,
			Label:      question.Label,
		})
		if answer, ok := sub.Answers[question.ID]; ok {
			answers[question.ID] = answer
		}
	}
	return domain.ResponseSnapshot{
		Questions: questions,
		Answers:   answers,
		Email:     sub.Email,
	}
}
