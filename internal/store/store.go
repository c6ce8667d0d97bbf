// Package store defines the persistence ports and records. Storage design
// is an external concern; these interfaces are the narrow surface the use
// cases need, and adapters (see adapter/store/sqlite) provide the plumbing.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/bkyoung/ideaminer/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: not found")

// ErrStatusConflict is returned when a guarded status transition finds the
// record in a different state than expected. It backs the idempotent
// extraction guard: a response already complete or in progress is never
// re-processed.
var ErrStatusConflict = errors.New("store: status conflict")

// ExtractionStatus tracks where a response is in the extraction pipeline.
type ExtractionStatus string

const (
	ExtractionPending    ExtractionStatus = "pending"
	ExtractionInProgress ExtractionStatus = "in_progress"
	ExtractionComplete   ExtractionStatus = "complete"
)

// Idea is a persisted automation idea.
type Idea struct {
	ID          string
	Title       string
	Description string
	Source      string // "manual", "voice", "extraction"
	ResponseID  string // set when Source == "extraction"
	CreatedAt   time.Time
}

// Question is one live questionnaire question.
type Question struct {
	ID       string
	Label    string
	Required bool
	Position int
}

// Questionnaire is a live question set.
type Questionnaire struct {
	ID          string
	Name        string
	Active      bool
	AutoExtract bool
	Questions   []Question
}

// Response is a submitted questionnaire response. The snapshot is frozen at
// submission; edits to the live questionnaire never touch it.
type Response struct {
	ID               string
	QuestionnaireID  string
	Snapshot         domain.ResponseSnapshot
	ExtractionStatus ExtractionStatus
	SubmittedAt      time.Time
}

// Ideas is the idea persistence port.
type Ideas interface {
	CreateIdea(ctx context.Context, idea Idea) error
	GetIdea(ctx context.Context, id string) (Idea, error)
	SaveEvaluation(ctx context.Context, ideaID string, result domain.EvaluationResult) error
}

// Questionnaires is the questionnaire and response persistence port.
type Questionnaires interface {
	CreateQuestionnaire(ctx context.Context, q Questionnaire) error
	GetQuestionnaire(ctx context.Context, id string) (Questionnaire, error)
	CreateResponse(ctx context.Context, r Response) error
	GetResponse(ctx context.Context, id string) (Response, error)

	// TransitionExtraction moves a response's extraction status from one
	// state to another, failing with ErrStatusConflict when the response is
	// not in the expected state.
	TransitionExtraction(ctx context.Context, responseID string, from, to ExtractionStatus) error
}

// Store is the full persistence surface.
type Store interface {
	Ideas
	Questionnaires
	Close() error
}
