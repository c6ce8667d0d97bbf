package extract_test

import (
	"testing"

	"github.com/bkyoung/ideaminer/internal/domain"
	"github.com/bkyoung/ideaminer/internal/extract"
	"github.com/stretchr/testify/assert"
)

func TestFilter_BoundaryValuePasses(t *testing.T) {
	ideas := []domain.ExtractedIdea{
		{Title: "exact", Confidence: 0.6},
		{Title: "below", Confidence: 0.59},
		{Title: "above", Confidence: 0.61},
	}

	kept := extract.Filter(ideas, 0.6)

	assert.Len(t, kept, 2)
	assert.Equal(t, "exact", kept[0].Title)
	assert.Equal(t, "above", kept[1].Title)
}

func TestFilter_PreservesOrder(t *testing.T) {
	ideas := []domain.ExtractedIdea{
		{Title: "c", Confidence: 0.9},
		{Title: "a", Confidence: 0.7},
		{Title: "b", Confidence: 0.8},
	}

	kept := extract.Filter(ideas, 0.6)

	assert.Equal(t, "c", kept[0].Title)
	assert.Equal(t, "a", kept[1].Title)
	assert.Equal(t, "b", kept[2].Title)
}

func TestFilter_EmptyInputIsValid(t *testing.T) {
	assert.Empty(t, extract.Filter(nil, 0.6))
	assert.Empty(t, extract.Filter([]domain.ExtractedIdea{}, 0.6))
}

func TestFilter_AllBelowThreshold(t *testing.T) {
	ideas := []domain.ExtractedIdea{
		{Title: "a", Confidence: 0.1},
		{Title: "b", Confidence: 0.5},
	}

	assert.Empty(t, extract.Filter(ideas, 0.6))
}
