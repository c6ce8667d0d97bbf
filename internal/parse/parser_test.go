package parse_test

import (
	"strings"
	"testing"

	"github.com/bkyoung/ideaminer/internal/domain"
	"github.com/bkyoung/ideaminer/internal/parse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validEvaluation = `{
	"complexity_score": 3,
	"complexity_rationale": "needs two integrations",
	"roi_score": 4,
	"roi_rationale": "saves a weekly manual pass",
	"time_saved_hours": 6.5,
	"recommendations": ["start with the export step"],
	"risks": ["source format may drift"],
	"overall_priority": "high",
	"overall_summary": "worth doing this quarter"
}`

func TestParse_ValidEvaluation(t *testing.T) {
	result, err := parse.Parse[domain.EvaluationResult](validEvaluation, parse.EvaluationSchema)

	require.NoError(t, err)
	assert.Equal(t, 3, result.ComplexityScore)
	assert.Equal(t, domain.PriorityHigh, result.OverallPriority)
	assert.InDelta(t, 6.5, result.TimeSavedHours, 0.001)
}

func TestParse_FencedAndUnfencedAreIdentical(t *testing.T) {
	fenced := "```json\n" + validEvaluation + "\n```"
	bare := "```\n" + validEvaluation + "\n```"

	fromFenced, err := parse.Parse[domain.EvaluationResult](fenced, parse.EvaluationSchema)
	require.NoError(t, err)
	fromBare, err := parse.Parse[domain.EvaluationResult](bare, parse.EvaluationSchema)
	require.NoError(t, err)
	fromPlain, err := parse.Parse[domain.EvaluationResult](validEvaluation, parse.EvaluationSchema)
	require.NoError(t, err)

	assert.Equal(t, fromPlain, fromFenced)
	assert.Equal(t, fromPlain, fromBare)
}

func TestParse_TruncatedJSONIsOneOpaqueError(t *testing.T) {
	truncated := validEvaluation[:len(validEvaluation)/2]

	_, err := parse.Parse[domain.EvaluationResult](truncated, parse.EvaluationSchema)

	require.Error(t, err)
	var parseErr *parse.Error
	require.ErrorAs(t, err, &parseErr)
	// Caller-facing message stays generic; detail is for logs.
	assert.Equal(t, "invalid model response", parseErr.Error())
	assert.NotEmpty(t, parseErr.Detail())
	assert.Equal(t, truncated, parseErr.Raw())
}

func TestParse_MissingRequiredFieldRejectsWholeResult(t *testing.T) {
	missingSummary := `{
		"complexity_score": 3, "complexity_rationale": "r",
		"roi_score": 4, "roi_rationale": "r",
		"time_saved_hours": 1,
		"recommendations": [], "risks": [],
		"overall_priority": "low"
	}`

	_, err := parse.Parse[domain.EvaluationResult](missingSummary, parse.EvaluationSchema)

	var parseErr *parse.Error
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, parseErr.Detail(), "overall_summary")
}

func TestParse_OutOfBoundsValues(t *testing.T) {
	tests := []struct {
		name  string
		score string
		hours string
	}{
		{"score too high", "6", "1"},
		{"score too low", "0", "1"},
		{"negative hours", "3", "-1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			doc := `{
				"complexity_score": ` + tc.score + `, "complexity_rationale": "r",
				"roi_score": 4, "roi_rationale": "r",
				"time_saved_hours": ` + tc.hours + `,
				"recommendations": [], "risks": [],
				"overall_priority": "low", "overall_summary": "s"
			}`
			_, err := parse.Parse[domain.EvaluationResult](doc, parse.EvaluationSchema)
			require.Error(t, err)
		})
	}
}

func TestParse_UnknownPriorityLiteral(t *testing.T) {
	doc := `{
		"complexity_score": 3, "complexity_rationale": "r",
		"roi_score": 4, "roi_rationale": "r",
		"time_saved_hours": 1,
		"recommendations": [], "risks": [],
		"overall_priority": "urgent", "overall_summary": "s"
	}`

	_, err := parse.Parse[domain.EvaluationResult](doc, parse.EvaluationSchema)

	require.Error(t, err)
}

func TestParse_QuestionListRequiresExactlyThree(t *testing.T) {
	two := `{"questions": ["a?", "b?"]}`
	four := `{"questions": ["a?", "b?", "c?", "d?"]}`
	three := `{"questions": ["a?", "b?", "c?"]}`

	_, err := parse.Parse[parse.QuestionList](two, parse.QuestionListSchema)
	require.Error(t, err)

	_, err = parse.Parse[parse.QuestionList](four, parse.QuestionListSchema)
	require.Error(t, err)

	list, err := parse.Parse[parse.QuestionList](three, parse.QuestionListSchema)
	require.NoError(t, err)
	assert.Len(t, list.Questions, 3)
}

func TestParse_IdeaListEmptyIsValid(t *testing.T) {
	list, err := parse.Parse[parse.IdeaList](`{"ideas": []}`, parse.IdeaListSchema)

	require.NoError(t, err)
	assert.Empty(t, list.Ideas)
}

func TestParse_IdeaListBounds(t *testing.T) {
	shortTitle := `{"ideas": [{"title": "abc", "description": "long enough here", "confidence": 0.9}]}`
	badFrequency := `{"ideas": [{"title": "valid title", "description": "long enough here", "confidence": 0.9, "frequency": "hourly"}]}`
	valid := `{"ideas": [{"title": "valid title", "description": "long enough here", "confidence": 0.9, "frequency": "weekly", "time_spent": 3}]}`

	_, err := parse.Parse[parse.IdeaList](shortTitle, parse.IdeaListSchema)
	require.Error(t, err)

	_, err = parse.Parse[parse.IdeaList](badFrequency, parse.IdeaListSchema)
	require.Error(t, err)

	list, err := parse.Parse[parse.IdeaList](valid, parse.IdeaListSchema)
	require.NoError(t, err)
	require.Len(t, list.Ideas, 1)
	assert.Equal(t, domain.FrequencyWeekly, list.Ideas[0].Frequency)
}

func TestParse_TitleDescription(t *testing.T) {
	valid := `{"title": "Automate invoice matching", "description": "Match invoices to POs automatically."}`
	overlong := `{"title": "` + strings.Repeat("x", 81) + `", "description": "d"}`
	missing := `{"title": "Just a title"}`

	idea, err := parse.Parse[domain.GeneratedIdea](valid, parse.TitleDescriptionSchema)
	require.NoError(t, err)
	assert.Equal(t, "Automate invoice matching", idea.Title)

	_, err = parse.Parse[domain.GeneratedIdea](overlong, parse.TitleDescriptionSchema)
	require.Error(t, err)

	_, err = parse.Parse[domain.GeneratedIdea](missing, parse.TitleDescriptionSchema)
	require.Error(t, err)
}

func TestText_StripsFencesFromProse(t *testing.T) {
	assert.Equal(t, "improved description", parse.Text("```\nimproved description\n```"))
	assert.Equal(t, "improved description", parse.Text("  improved description  "))
}
