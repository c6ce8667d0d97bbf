package domain

// Priority classifies how urgently an idea should be pursued.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Valid reports whether the priority is one of the four known literals.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Frequency describes how often an automated task currently recurs.
type Frequency string

const (
	FrequencyDaily     Frequency = "daily"
	FrequencyWeekly    Frequency = "weekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
	FrequencyAdhoc     Frequency = "adhoc"
)

// Valid reports whether the frequency is a known literal. The empty string is
// valid because frequency is optional on extracted ideas.
func (f Frequency) Valid() bool {
	switch f {
	case "", FrequencyDaily, FrequencyWeekly, FrequencyMonthly,
		FrequencyQuarterly, FrequencyYearly, FrequencyAdhoc:
		return true
	}
	return false
}

// EvaluationResult is the structured verdict the model returns for one idea.
// A result is valid as a whole or not at all; partially filled results are
// rejected before they reach callers.
type EvaluationResult struct {
	ComplexityScore     int      `json:"complexity_score"`
	ComplexityRationale string   `json:"complexity_rationale"`
	ROIScore            int      `json:"roi_score"`
	ROIRationale        string   `json:"roi_rationale"`
	TimeSavedHours      float64  `json:"time_saved_hours"`
	Recommendations     []string `json:"recommendations"`
	Risks               []string `json:"risks"`
	OverallPriority     Priority `json:"overall_priority"`
	OverallSummary      string   `json:"overall_summary"`
}

// ExtractedIdea is one automation opportunity pulled out of a questionnaire
// response. Instances are ephemeral: produced by the model, filtered by
// confidence, then either persisted by the caller or dropped.
type ExtractedIdea struct {
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	PainPoints     string    `json:"pain_points,omitempty"`
	DesiredOutcome string    `json:"desired_outcome,omitempty"`
	Frequency      Frequency `json:"frequency,omitempty"`
	TimeSpent      int       `json:"time_spent,omitempty"`
	Owner          string    `json:"owner,omitempty"`
	Confidence     float64   `json:"confidence"`
}

// GeneratedIdea is the draft produced from a voice transcript. It lives in
// the capture review state until a human accepts or discards it.
type GeneratedIdea struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// IdeaSummary is the caller-facing digest of a persisted extracted idea.
type IdeaSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}
