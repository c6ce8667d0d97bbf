// Package evaluate runs the scoring flow for one stored idea: load, build
// the prompt, invoke the model, validate the reply, persist the result.
package evaluate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bkyoung/ideaminer/internal/domain"
	"github.com/bkyoung/ideaminer/internal/llm"
	"github.com/bkyoung/ideaminer/internal/parse"
	"github.com/bkyoung/ideaminer/internal/prompt"
	"github.com/bkyoung/ideaminer/internal/sanitize"
	"github.com/bkyoung/ideaminer/internal/store"
	"go.uber.org/zap"
)

// notProvided stands in for an absent description so the template never
// renders an empty delimited block.
const notProvided = "Not provided"

// Evaluator scores ideas through the model and stores the verdict.
type Evaluator struct {
	ideas   store.Ideas
	model   llm.Invoker
	scanner *sanitize.Scanner
	logger  *zap.Logger
}

// New constructs an Evaluator. A nil logger is replaced with a no-op.
func New(ideas store.Ideas, model llm.Invoker, scanner *sanitize.Scanner, logger *zap.Logger) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if scanner == nil {
		scanner = sanitize.NewScanner(logger)
	}
	return &Evaluator{ideas: ideas, model: model, scanner: scanner, logger: logger}
}

// Evaluate loads the idea, asks the model for a structured verdict and saves
// it. The result is valid as a whole or rejected as a whole; a rejected reply
// leaves any previous evaluation untouched.
func (e *Evaluator) Evaluate(ctx context.Context, ideaID string) (domain.EvaluationResult, error) {
	idea, err := e.ideas.GetIdea(ctx, ideaID)
	if err != nil {
		return domain.EvaluationResult{}, err
	}

	e.scanner.FlagIfSuspicious("idea_title", idea.Title)
	e.scanner.FlagIfSuspicious("idea_description", idea.Description)

	description := idea.Description
	if strings.TrimSpace(description) == "" {
		description = notProvided
	}

	p, err := prompt.Evaluation.Build(map[string]string{
		"title":       idea.Title,
		"description": description,
	})
	if err != nil {
		return domain.EvaluationResult{}, fmt.Errorf("build prompt: %w", err)
	}

	reply, err := e.model.Invoke(ctx, llm.Request{System: p.System, User: p.User})
	if err != nil {
		return domain.EvaluationResult{}, err
	}

	result, err := parse.Parse[domain.EvaluationResult](reply.Text, parse.EvaluationSchema)
	if err != nil {
		e.logRejectedReply(ideaID, err)
		return domain.EvaluationResult{}, err
	}

	if err := e.ideas.SaveEvaluation(ctx, ideaID, result); err != nil {
		return domain.EvaluationResult{}, fmt.Errorf("save evaluation: %w", err)
	}

	e.logger.Info("idea evaluated",
		zap.String("idea_id", ideaID),
		zap.String("priority", string(result.OverallPriority)),
	)
	return result, nil
}

// logRejectedReply keeps the raw model output and the validation detail in
// the server logs, where they are useful, without letting them near callers.
func (e *Evaluator) logRejectedReply(ideaID string, err error) {
	var perr *parse.Error
	if errors.As(err, &perr) {
		e.logger.Error("model reply rejected",
			zap.String("idea_id", ideaID),
			zap.String("detail", perr.Detail()),
			zap.String("raw", perr.Raw()),
		)
	}
}
