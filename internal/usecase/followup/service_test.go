package followup_test

import (
	"context"
	"testing"

	"github.com/bkyoung/ideaminer/internal/llm"
	"github.com/bkyoung/ideaminer/internal/parse"
	"github.com/bkyoung/ideaminer/internal/usecase/followup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeModel struct {
	reply string
	err   error
	calls int
	last  llm.Request
}

func (m *fakeModel) Invoke(_ context.Context, req llm.Request) (*llm.Reply, error) {
	m.calls++
	m.last = req
	if m.err != nil {
		return nil, m.err
	}
	return &llm.Reply{Text: m.reply}, nil
}

func TestQuestions_Success(t *testing.T) {
	model := &fakeModel{reply: `{"questions": ["How often?", "Which systems?", "Who owns it?"]}`}
	svc := followup.New(model, nil, nil)

	questions, err := svc.Questions(context.Background(), "I spend every Friday reconciling spreadsheets")

	require.NoError(t, err)
	assert.Equal(t, []string{"How often?", "Which systems?", "Who owns it?"}, questions)
}

func TestQuestions_TooShortSkipsModel(t *testing.T) {
	model := &fakeModel{}
	svc := followup.New(model, nil, nil)

	_, err := svc.Questions(context.Background(), "short")

	assert.ErrorIs(t, err, followup.ErrAnswerTooShort)
	assert.Zero(t, model.calls)
}

func TestQuestions_WhitespaceDoesNotCount(t *testing.T) {
	model := &fakeModel{}
	svc := followup.New(model, nil, nil)

	_, err := svc.Questions(context.Background(), "   hi     \n\n\t   ")

	assert.ErrorIs(t, err, followup.ErrAnswerTooShort)
	assert.Zero(t, model.calls)
}

func TestQuestions_WrongCountRejected(t *testing.T) {
	model := &fakeModel{reply: `{"questions": ["only one"]}`}
	svc := followup.New(model, nil, nil)

	_, err := svc.Questions(context.Background(), "a perfectly reasonable answer about workflows")

	var perr *parse.Error
	require.ErrorAs(t, err, &perr)
}

func TestImprove_Success(t *testing.T) {
	model := &fakeModel{reply: "A tighter description of the idea."}
	svc := followup.New(model, nil, nil)

	improved, err := svc.Improve(context.Background(), "old description", "mention the nightly batch")

	require.NoError(t, err)
	assert.Equal(t, "A tighter description of the idea.", improved)
}

func TestImprove_StripsFence(t *testing.T) {
	model := &fakeModel{reply: "```\nimproved text\n```"}
	svc := followup.New(model, nil, nil)

	improved, err := svc.Improve(context.Background(), "old", "add the batch detail")

	require.NoError(t, err)
	assert.Equal(t, "improved text", improved)
}

func TestImprove_NotesTooShortSkipsModel(t *testing.T) {
	model := &fakeModel{}
	svc := followup.New(model, nil, nil)

	_, err := svc.Improve(context.Background(), "a fine description", "meh")

	assert.ErrorIs(t, err, followup.ErrNotesTooShort)
	assert.Zero(t, model.calls)
}

func TestImprove_EmptyReplyRejected(t *testing.T) {
	model := &fakeModel{reply: "   \n  "}
	svc := followup.New(model, nil, nil)

	_, err := svc.Improve(context.Background(), "a fine description", "longer notes here")

	var perr *parse.Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "invalid model response", perr.Error())
}

func TestQuestions_AnswerIsDelimited(t *testing.T) {
	model := &fakeModel{reply: `{"questions": ["a?", "b?", "c?"]}`}
	svc := followup.New(model, nil, nil)

	_, err := svc.Questions(context.Background(), "my answer about the weekly report grind")

	require.NoError(t, err)
	assert.Contains(t, model.last.User, "<<<ANSWER>>>")
	assert.Contains(t, model.last.User, "<<<END_ANSWER>>>")
}
