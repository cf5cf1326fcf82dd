package recommend

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExplainer_Explain(t *testing.T) {
	var explainer Explainer
	inputs := NewInputSet([]BookRecord{
		{ID: "in", Subjects: []string{"Space Opera", "Dragons"}, Year: 1970, Authors: []string{"Jane Smith"}},
	})

	t.Run("fallback always carries the score", func(t *testing.T) {
		got := explainer.Explain(BookRecord{ID: "c"}, inputs, 0.12, map[string]float64{})
		assert.NotEmpty(t, got)
		assert.Contains(t, got, "12.0%")
	})

	t.Run("subject clause lists shared genres", func(t *testing.T) {
		candidate := BookRecord{ID: "c", Subjects: []string{"Space Opera", "Robots"}}
		breakdown := map[string]float64{"subject_overlap": 0.8}

		got := explainer.Explain(candidate, inputs, 0.8, breakdown)
		assert.Contains(t, got, "shares genres you enjoy like Space Opera")
		assert.Contains(t, got, "80.0% match")
	})

	t.Run("weak overlap emits no subject clause", func(t *testing.T) {
		candidate := BookRecord{ID: "c", Subjects: []string{"Space Opera"}}
		breakdown := map[string]float64{"subject_overlap": 0.3}

		got := explainer.Explain(candidate, inputs, 0.3, breakdown)
		assert.NotContains(t, got, "shares genres")
	})

	t.Run("exact and partial author clauses differ", func(t *testing.T) {
		candidate := BookRecord{ID: "c", Authors: []string{"Jane Smith"}}

		exact := explainer.Explain(candidate, inputs, 0.5, map[string]float64{"author": 1.0})
		partial := explainer.Explain(candidate, inputs, 0.5, map[string]float64{"author": 0.5})

		assert.Contains(t, exact, "an author you already read")
		assert.Contains(t, partial, "closely related to an author you read")
	})

	t.Run("year clauses follow the sub-score", func(t *testing.T) {
		sameTime := explainer.Explain(BookRecord{ID: "c"}, inputs, 0.5, map[string]float64{"year": 0.8})
		similarEra := explainer.Explain(BookRecord{ID: "c"}, inputs, 0.5, map[string]float64{"year": 0.6})

		assert.Contains(t, sameTime, "around the same time")
		assert.Contains(t, similarEra, "in a similar era")
	})

	t.Run("deterministic for identical inputs", func(t *testing.T) {
		candidate := BookRecord{ID: "c", Subjects: []string{"Space Opera"}}
		breakdown := map[string]float64{"subject_overlap": 0.9, "year": 0.8}

		first := explainer.Explain(candidate, inputs, 0.77, breakdown)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, explainer.Explain(candidate, inputs, 0.77, breakdown))
		}
	})
}

func TestExplainer_WhyRead(t *testing.T) {
	var explainer Explainer

	t.Run("genre and theme clauses", func(t *testing.T) {
		candidate := BookRecord{
			ID:       "c",
			Subjects: []string{"Fantasy", "Adventure", "Magic", "Dragons", "Courage"},
		}
		got := explainer.WhyRead(candidate)
		assert.Contains(t, got, "A notable work in the fantasy genre")
		assert.Contains(t, got, "explores themes of dragons, courage")
	})

	t.Run("era buckets", func(t *testing.T) {
		assert.Contains(t, explainer.WhyRead(BookRecord{ID: "c", Year: 1850}), "historical perspective")
		assert.Contains(t, explainer.WhyRead(BookRecord{ID: "c", Year: 1930}), "mid-century")
		assert.Contains(t, explainer.WhyRead(BookRecord{ID: "c", Year: 2015}), "contemporary")
	})

	t.Run("page count buckets", func(t *testing.T) {
		assert.Contains(t, explainer.WhyRead(BookRecord{ID: "c", PageCount: 150}), "concise narrative")
		assert.Contains(t, explainer.WhyRead(BookRecord{ID: "c", PageCount: 700}), "extensive literary experience")
	})

	t.Run("at most three clauses", func(t *testing.T) {
		candidate := BookRecord{
			ID:        "c",
			Subjects:  []string{"Fantasy", "Adventure", "Magic", "Dragons"},
			Year:      1850,
			PageCount: 700,
		}
		got := explainer.WhyRead(candidate)
		assert.LessOrEqual(t, strings.Count(got, " and "), 2)
	})

	t.Run("fallback is never empty", func(t *testing.T) {
		got := explainer.WhyRead(BookRecord{ID: "c"})
		assert.Equal(t, "A noteworthy addition to its genre, offering readers a distinctive literary perspective.", got)
	})
}

func TestEstimateReadingTime(t *testing.T) {
	assert.Nil(t, EstimateReadingTime(0))

	rt := EstimateReadingTime(320)
	// 320 pages * 250 words / 200 wpm = 400 minutes
	assert.Equal(t, 6, rt.Hours)
	assert.Equal(t, 40, rt.Minutes)
}
