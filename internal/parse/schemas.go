package parse

import "github.com/bkyoung/ideaminer/internal/domain"

// Wrapper shapes for list-valued replies.
type (
	// IdeaList is the extraction reply envelope.
	IdeaList struct {
		Ideas []domain.ExtractedIdea `json:"ideas"`
	}

	// QuestionList is the follow-up reply envelope.
	QuestionList struct {
		Questions []string `json:"questions"`
	}
)

// EvaluationSchema validates a full evaluation record. Every field is
// required: absence of any one invalidates the whole result.
var EvaluationSchema = MustSchema("evaluation", `{
	"type": "object",
	"required": [
		"complexity_score", "complexity_rationale",
		"roi_score", "roi_rationale",
		"time_saved_hours", "recommendations", "risks",
		"overall_priority", "overall_summary"
	],
	"properties": {
		"complexity_score":     {"type": "integer", "minimum": 1, "maximum": 5},
		"complexity_rationale": {"type": "string"},
		"roi_score":            {"type": "integer", "minimum": 1, "maximum": 5},
		"roi_rationale":        {"type": "string"},
		"time_saved_hours":     {"type": "number", "minimum": 0},
		"recommendations":      {"type": "array", "items": {"type": "string"}},
		"risks":                {"type": "array", "items": {"type": "string"}},
		"overall_priority":     {"type": "string", "enum": ["low", "medium", "high", "critical"]},
		"overall_summary":      {"type": "string"}
	}
}`)

// IdeaListSchema validates the multi-item extraction reply. The list may be
// empty; each present item must be complete.
var IdeaListSchema = MustSchema("idea_list", `{
	"type": "object",
	"required": ["ideas"],
	"properties": {
		"ideas": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["title", "description", "confidence"],
				"properties": {
					"title":           {"type": "string", "minLength": 5, "maxLength": 100},
					"description":     {"type": "string", "minLength": 10, "maxLength": 2000},
					"pain_points":     {"type": "string"},
					"desired_outcome": {"type": "string"},
					"frequency":       {"type": "string", "enum": ["daily", "weekly", "monthly", "quarterly", "yearly", "adhoc"]},
					"time_spent":      {"type": "integer", "minimum": 1},
					"owner":           {"type": "string"},
					"confidence":      {"type": "number", "minimum": 0, "maximum": 1}
				}
			}
		}
	}
}`)

// QuestionListSchema validates the follow-up reply: exactly three questions.
var QuestionListSchema = MustSchema("question_list", `{
	"type": "object",
	"required": ["questions"],
	"properties": {
		"questions": {
			"type": "array",
			"minItems": 3,
			"maxItems": 3,
			"items": {"type": "string", "minLength": 1}
		}
	}
}`)

// TitleDescriptionSchema validates a generated idea draft.
var TitleDescriptionSchema = MustSchema("title_description", `{
	"type": "object",
	"required": ["title", "description"],
	"properties": {
		"title":       {"type": "string", "minLength": 1, "maxLength": 80},
		"description": {"type": "string", "minLength": 1}
	}
}`)
