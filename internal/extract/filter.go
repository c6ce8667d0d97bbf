package extract

import "github.com/bkyoung/ideaminer/internal/domain"

// Filter keeps ideas whose model-reported confidence meets the threshold.
// The boundary value itself passes. Relative order is preserved, and an
// empty result is a legitimate outcome, not an error: a response may simply
// describe nothing automatable.
func Filter(ideas []domain.ExtractedIdea, threshold float64) []domain.ExtractedIdea {
	kept := make([]domain.ExtractedIdea, 0, len(ideas))
	for _, idea := range ideas {
		if idea.Confidence >= threshold {
			kept = append(kept, idea)
		}
	}
	return kept
}
