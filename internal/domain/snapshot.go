package domain

// SnapshotQuestion is a question definition frozen at submission time.
type SnapshotQuestion struct {
	QuestionID string `json:"question_id"`
	Label      string `json:"label"`
}

// ResponseSnapshot pairs the question set a respondent actually saw with the
// answers they gave. It is frozen when the response is submitted, so later
// edits to the live question template never change what a historical
// response meant.
type ResponseSnapshot struct {
	Questions []SnapshotQuestion `json:"questions"`
	Answers   map[string]string  `json:"answers"`
	Email     string             `json:"email,omitempty"`
}

// Answer returns the submitted answer for a question id, or "" if the
// question was left blank.
func (s ResponseSnapshot) Answer(questionID string) string {
	return s.Answers[questionID]
}

// Pairs returns question labels joined with their answers in the frozen
// question order, for feeding into extraction prompts.
func (s ResponseSnapshot) Pairs() []QA {
	pairs := make([]QA, 0, len(s.Questions))
	for _, q := range s.Questions {
		pairs = append(pairs, QA{Question: q.Label, Answer: s.Answers[q.QuestionID]})
	}
	return pairs
}

// QA is one question/answer pairing from a frozen snapshot.
type QA struct {
	Question string
	Answer   string
}
