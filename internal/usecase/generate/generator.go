// Package generate turns a voice transcript into an idea draft. The draft is
// not persisted here; it goes back to the caller (the capture flow or the
// HTTP surface) for human review first.
package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/bkyoung/ideaminer/internal/config"
	"github.com/bkyoung/ideaminer/internal/domain"
	"github.com/bkyoung/ideaminer/internal/llm"
	"github.com/bkyoung/ideaminer/internal/parse"
	"github.com/bkyoung/ideaminer/internal/prompt"
	"github.com/bkyoung/ideaminer/internal/sanitize"
	"go.uber.org/zap"
)

// Length gates applied before any model call. Both bounds are input
// validation, distinct from the block truncation inside prompt assembly.
var (
	ErrTranscriptTooShort = errors.New("transcript too short to generate an idea")
	ErrTranscriptTooLong  = errors.New("transcript too long to generate an idea")
)

// Generator drives the transcript-to-draft flow.
type Generator struct {
	model   llm.Invoker
	scanner *sanitize.Scanner
	logger  *zap.Logger

	minChars int
	maxChars int
}

// Option tunes a Generator.
type Option func(*Generator)

// WithMinTranscriptChars overrides the lower transcript-length gate.
func WithMinTranscriptChars(n int) Option {
	return func(g *Generator) { g.minChars = n }
}

// WithMaxTranscriptChars overrides the upper transcript-length gate.
func WithMaxTranscriptChars(n int) Option {
	return func(g *Generator) { g.maxChars = n }
}

// New constructs a Generator with the default length gate.
func New(model llm.Invoker, scanner *sanitize.Scanner, logger *zap.Logger, opts ...Option) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if scanner == nil {
		scanner = sanitize.NewScanner(logger)
	}
	g := &Generator{
		model:    model,
		scanner:  scanner,
		logger:   logger,
		minChars: config.DefaultMinTranscriptChars,
		maxChars: config.DefaultMaxTranscriptChars,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// FromTranscript asks the model for a title and description drafted from the
// spoken note.
func (g *Generator) FromTranscript(ctx context.Context, transcript string) (domain.GeneratedIdea, error) {
	runes := utf8.RuneCountInString(strings.TrimSpace(transcript))
	if runes < g.minChars {
		return domain.GeneratedIdea{}, ErrTranscriptTooShort
	}
	if runes > g.maxChars {
		return domain.GeneratedIdea{}, ErrTranscriptTooLong
	}

	g.scanner.FlagIfSuspicious("transcript", transcript)

	p, err := prompt.IdeaFromTranscript.Build(map[string]string{"transcript": transcript})
	if err != nil {
		return domain.GeneratedIdea{}, fmt.Errorf("build prompt: %w", err)
	}

	reply, err := g.model.Invoke(ctx, llm.Request{System: p.System, User: p.User})
	if err != nil {
		return domain.GeneratedIdea{}, err
	}

	draft, err := parse.Parse[domain.GeneratedIdea](reply.Text, parse.TitleDescriptionSchema)
	if err != nil {
		g.logRejectedReply(err)
		return domain.GeneratedIdea{}, err
	}
	return draft, nil
}

func (g *Generator) logRejectedReply(err error) {
	var perr *parse.Error
	if errors.As(err, &perr) {
		g.logger.Error("model reply rejected",
			zap.String("flow", "generate"),
			zap.String("detail", perr.Detail()),
			zap.String("raw", perr.Raw()),
		)
	}
}
