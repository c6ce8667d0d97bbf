// Package extract mines automation opportunities out of frozen questionnaire
// responses. The extraction status on the response acts as a claim: the
// compare-and-set to in_progress happens before any model call, so concurrent
// or repeated triggers cannot double-spend tokens or duplicate ideas.
package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bkyoung/ideaminer/internal/config"
	"github.com/bkyoung/ideaminer/internal/domain"
	"github.com/bkyoung/ideaminer/internal/llm"
	"github.com/bkyoung/ideaminer/internal/parse"
	"github.com/bkyoung/ideaminer/internal/prompt"
	"github.com/bkyoung/ideaminer/internal/sanitize"
	"github.com/bkyoung/ideaminer/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// sourceExtraction marks ideas persisted by this flow.
const sourceExtraction = "extraction"

// Extractor runs the full extraction flow for one response.
type Extractor struct {
	store   store.Store
	model   llm.Invoker
	scanner *sanitize.Scanner
	logger  *zap.Logger

	threshold float64
	newID     func() string
	now       func() time.Time
}

// Option tunes an Extractor.
type Option func(*Extractor)

// WithThreshold overrides the confidence threshold.
func WithThreshold(threshold float64) Option {
	return func(e *Extractor) { e.threshold = threshold }
}

// WithIDFunc replaces the id generator, for deterministic tests.
func WithIDFunc(fn func() string) Option {
	return func(e *Extractor) { e.newID = fn }
}

// WithClock replaces the clock, for deterministic tests.
func WithClock(fn func() time.Time) Option {
	return func(e *Extractor) { e.now = fn }
}

// NewExtractor constructs an Extractor with the default threshold.
func NewExtractor(st store.Store, model llm.Invoker, scanner *sanitize.Scanner, logger *zap.Logger, opts ...Option) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if scanner == nil {
		scanner = sanitize.NewScanner(logger)
	}
	e := &Extractor{
		store:     st,
		model:     model,
		scanner:   scanner,
		logger:    logger,
		threshold: config.DefaultConfidenceThreshold,
		newID:     uuid.NewString,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract claims the response, asks the model for opportunities, filters
// them by confidence and persists the survivors as ideas. It returns
// store.ErrStatusConflict when the response is already claimed or complete,
// which makes repeated triggers idempotent. On a mid-flight failure the
// claim is released so the response can be retried.
func (e *Extractor) Extract(ctx context.Context, responseID string) ([]domain.IdeaSummary, error) {
	response, err := e.store.GetResponse(ctx, responseID)
	if err != nil {
		return nil, err
	}

	// Claim before spending anything on the model.
	if err := e.store.TransitionExtraction(ctx, responseID, store.ExtractionPending, store.ExtractionInProgress); err != nil {
		return nil, err
	}

	summaries, err := e.run(ctx, response)
	if err != nil {
		e.release(responseID)
		return nil, err
	}

	if err := e.store.TransitionExtraction(ctx, responseID, store.ExtractionInProgress, store.ExtractionComplete); err != nil {
		return nil, fmt.Errorf("complete extraction: %w", err)
	}

	e.logger.Info("extraction complete",
		zap.String("response_id", responseID),
		zap.Int("ideas", len(summaries)),
	)
	return summaries, nil
}

func (e *Extractor) run(ctx context.Context, response store.Response) ([]domain.IdeaSummary, error) {
	text := renderPairs(response.Snapshot.Pairs())
	e.scanner.FlagIfSuspicious("response", text)

	p, err := prompt.Extraction.Build(map[string]string{"response": text})
	if err != nil {
		return nil, fmt.Errorf("build prompt: %w", err)
	}

	reply, err := e.model.Invoke(ctx, llm.Request{System: p.System, User: p.User})
	if err != nil {
		return nil, err
	}

	list, err := parse.Parse[parse.IdeaList](reply.Text, parse.IdeaListSchema)
	if err != nil {
		e.logRejectedReply(response.ID, err)
		return nil, err
	}

	kept := Filter(list.Ideas, e.threshold)
	e.logger.Debug("ideas filtered",
		zap.String("response_id", response.ID),
		zap.Int("extracted", len(list.Ideas)),
		zap.Int("kept", len(kept)),
	)

	summaries := make([]domain.IdeaSummary, 0, len(kept))
	for _, idea := range kept {
		record := store.Idea{
			ID:          e.newID(),
			Title:       idea.Title,
			Description: describeIdea(idea),
			Source:      sourceExtraction,
			ResponseID:  response.ID,
			CreatedAt:   e.now().UTC(),
		}
		if err := e.store.CreateIdea(ctx, record); err != nil {
			return nil, fmt.Errorf("persist idea: %w", err)
		}
		summaries = append(summaries, domain.IdeaSummary{ID: record.ID, Title: record.Title})
	}
	return summaries, nil
}

// release returns a claimed response to pending so a later trigger can retry.
// Best effort: the claim holder is the only writer, so a failure here only
// strands the response in in_progress until an operator intervenes.
func (e *Extractor) release(responseID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.store.TransitionExtraction(ctx, responseID, store.ExtractionInProgress, store.ExtractionPending); err != nil {
		e.logger.Error("release extraction claim", zap.String("response_id", responseID), zap.Error(err))
	}
}

func (e *Extractor) logRejectedReply(responseID string, err error) {
	var perr *parse.Error
	if errors.As(err, &perr) {
		e.logger.Error("model reply rejected",
			zap.String("response_id", responseID),
			zap.String("detail", perr.Detail()),
			zap.String("raw", perr.Raw()),
		)
	}
}

// renderPairs lays out the frozen question/answer pairs as plain text. Blank
// answers still appear so the model sees which questions went unanswered.
func renderPairs(pairs []domain.QA) string {
	var b strings.Builder
	for i, pair := range pairs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("Q: ")
		b.WriteString(pair.Question)
		b.WriteString("\nA: ")
		b.WriteString(pair.Answer)
	}
	return b.String()
}

// describeIdea folds the optional extraction fields into the stored
// description so nothing the model surfaced is lost.
func describeIdea(idea domain.ExtractedIdea) string {
	var b strings.Builder
	b.WriteString(idea.Description)
	if idea.PainPoints != "" {
		b.WriteString("\n\nPain points: ")
		b.WriteString(idea.PainPoints)
	}
	if idea.DesiredOutcome != "" {
		b.WriteString("\n\nDesired outcome: ")
		b.WriteString(idea.DesiredOutcome)
	}
	if idea.Frequency != "" {
		b.WriteString("\n\nFrequency: ")
		b.WriteString(string(idea.Frequency))
	}
	if idea.TimeSpent > 0 {
		fmt.Fprintf(&b, "\n\nTime spent: %d hours per occurrence", idea.TimeSpent)
	}
	if idea.Owner != "" {
		b.WriteString("\n\nOwner: ")
		b.WriteString(idea.Owner)
	}
	return b.String()
}
