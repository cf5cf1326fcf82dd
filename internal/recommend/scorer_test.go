package recommend

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSubject(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Science Fiction", "science"},
		{"Science-Fiction & Fantasy", "science fantasy"},
		{"The Novel", ""},
		{"Fiction", ""},
		{"Space Opera", "space opera"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeSubject(tt.in), "input %q", tt.in)
	}
}

func TestExtractYear(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"1965", 1965, true},
		{"1851-03", 1851, true},
		{"c. 1844", 1844, true},
		{"published 1999 in London", 1999, true},
		{"unknown", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := extractYear(tt.in)
		assert.Equal(t, tt.ok, ok, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestYearProximity_StepBoundaries(t *testing.T) {
	tests := []struct {
		diff float64
		want float64
	}{
		{0, 1.0},
		{5, 1.0},
		{6, 0.8},
		{20, 0.8},
		{21, 0.6},
		{50, 0.6},
		{51, 0.4},
		{100, 0.4},
		{101, 0.2},
		{500, 0.2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, yearProximity(tt.diff), "diff %v", tt.diff)
	}
}

func TestJaccard(t *testing.T) {
	assert.Equal(t, 0.0, jaccard(nil, nil))
	assert.Equal(t, 1.0, jaccard(toSet([]string{"a", "b"}), toSet([]string{"b", "a"})))
	assert.InDelta(t, 1.0/3.0, jaccard(toSet([]string{"a", "b"}), toSet([]string{"a", "c"})), 1e-9)
}

func TestBasicScorer(t *testing.T) {
	t.Run("identical subjects and year score 1", func(t *testing.T) {
		input := BookRecord{ID: "in", Subjects: []string{"Space Opera"}, Year: 1970}
		candidate := BookRecord{ID: "c", Subjects: []string{"Space Opera"}, Year: 1970}

		score, breakdown := BasicScorer{}.Score(candidate, NewInputSet([]BookRecord{input}))
		assert.InDelta(t, 1.0, score, 1e-9)
		assert.Equal(t, 1.0, breakdown["subject_match"])
		assert.Equal(t, 1.0, breakdown["year_match"])
	})

	t.Run("missing year scores zero on the year factor", func(t *testing.T) {
		input := BookRecord{ID: "in", Subjects: []string{"Space Opera"}, Year: 1970}
		candidate := BookRecord{ID: "c", Subjects: []string{"Space Opera"}}

		_, breakdown := BasicScorer{}.Score(candidate, NewInputSet([]BookRecord{input}))
		assert.Equal(t, 0.0, breakdown["year_match"])
	})
}

func TestEnhancedScorer_YearRelevance(t *testing.T) {
	scorer := NewEnhancedScorer()
	inputs := NewInputSet([]BookRecord{
		{ID: "a", Year: 1965},
		{ID: "b", Year: 1951},
	})
	// mean input year is 1958

	t.Run("close year scores full", func(t *testing.T) {
		_, breakdown := scorer.Score(BookRecord{ID: "c", Year: 1960}, inputs)
		assert.Equal(t, 1.0, breakdown["year"])
	})

	t.Run("distant year decays", func(t *testing.T) {
		_, breakdown := scorer.Score(BookRecord{ID: "c", Year: 2020}, inputs)
		assert.Equal(t, 0.6, breakdown["year"])
	})

	t.Run("missing year is neutral", func(t *testing.T) {
		_, breakdown := scorer.Score(BookRecord{ID: "c"}, inputs)
		assert.Equal(t, 0.5, breakdown["year"])
	})

	t.Run("no resolvable input years is neutral", func(t *testing.T) {
		empty := NewInputSet([]BookRecord{{ID: "a", FirstPublishDate: "unknown"}})
		_, breakdown := scorer.Score(BookRecord{ID: "c", Year: 1960}, empty)
		assert.Equal(t, 0.5, breakdown["year"])
	})
}

func TestEnhancedScorer_AuthorRelation(t *testing.T) {
	scorer := NewEnhancedScorer()
	inputs := NewInputSet([]BookRecord{
		{ID: "a", Authors: []string{"Ursula K. Le Guin"}},
	})

	tests := []struct {
		name    string
		authors []string
		want    float64
	}{
		{"exact match ignoring case", []string{"ursula k. le guin"}, 1.0},
		{"surname match", []string{"Magnus Guin"}, 0.5},
		{"unrelated author keeps the floor", []string{"Frank Herbert"}, 0.1},
		{"no authors keeps the floor", nil, 0.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, breakdown := scorer.Score(BookRecord{ID: "c", Authors: tt.authors}, inputs)
			assert.Equal(t, tt.want, breakdown["author"])
		})
	}
}

func TestEnhancedScorer_PrimarySubjectOrderMatters(t *testing.T) {
	scorer := NewEnhancedScorer()
	inputs := NewInputSet([]BookRecord{
		{ID: "a", Subjects: []string{"Dragons", "Wizards", "Castles"}},
	})

	ordered := BookRecord{ID: "c", Subjects: []string{"Dragons", "Wizards", "Castles", "Cooking"}}
	reordered := BookRecord{ID: "c", Subjects: []string{"Cooking", "Castles", "Wizards", "Dragons"}}

	_, orderedBreakdown := scorer.Score(ordered, inputs)
	_, reorderedBreakdown := scorer.Score(reordered, inputs)

	// The full sets are identical; only the primary split moves the score.
	assert.Greater(t, orderedBreakdown["subject_overlap"], reorderedBreakdown["subject_overlap"])
}

func TestEnhancedScorer_Popularity(t *testing.T) {
	scorer := NewEnhancedScorer()
	inputs := NewInputSet([]BookRecord{{ID: "a"}})

	_, breakdown := scorer.Score(BookRecord{ID: "c"}, inputs)
	assert.Equal(t, 0.0, breakdown["popularity"])

	_, breakdown = scorer.Score(BookRecord{ID: "c", EditionCount: 3, PageCount: 200}, inputs)
	assert.InDelta(t, 2.0/3.0, breakdown["popularity"], 1e-9)

	_, breakdown = scorer.Score(BookRecord{ID: "c", EditionCount: 3, PageCount: 200, Publishers: []string{"Ace"}}, inputs)
	assert.Equal(t, 1.0, breakdown["popularity"])
}

func TestEnhancedScorer_RatingBonusClamped(t *testing.T) {
	scorer := NewEnhancedScorer()
	input := BookRecord{ID: "a", Subjects: []string{"Dragons", "Wizards", "Castles"}, Authors: []string{"Jane Smith"}, Year: 1980}
	inputs := NewInputSet([]BookRecord{input})

	perfect := BookRecord{
		ID:           "c",
		Subjects:     []string{"Dragons", "Wizards", "Castles"},
		Authors:      []string{"Jane Smith"},
		Year:         1980,
		EditionCount: 10,
		Publishers:   []string{"Tor"},
		PageCount:    300,
		Rating:       4.8,
	}

	score, _ := scorer.Score(perfect, inputs)
	assert.LessOrEqual(t, score, 1.0)
	assert.Greater(t, score, 0.9)
}

func TestScorers_BoundedOnMalformedData(t *testing.T) {
	malformed := []BookRecord{
		{},
		{ID: "x", Subjects: []string{"", "The", "Fiction"}, FirstPublishDate: "????"},
		{ID: "y", Authors: []string{"", "  "}, FirstPublishDate: "12"},
		{ID: "z", Subjects: []string{"a b c d e f g h"}, Year: -50},
	}
	inputSets := []InputSet{
		NewInputSet(nil),
		NewInputSet([]BookRecord{{}}),
		NewInputSet(malformed),
	}

	scorers := []Scorer{BasicScorer{}, NewEnhancedScorer()}
	for _, scorer := range scorers {
		for _, candidate := range malformed {
			for _, inputs := range inputSets {
				score, breakdown := scorer.Score(candidate, inputs)
				require.False(t, math.IsNaN(score), "score is NaN for %+v", candidate)
				assert.GreaterOrEqual(t, score, 0.0)
				assert.LessOrEqual(t, score, 1.0)
				for name, sub := range breakdown {
					require.False(t, math.IsNaN(sub), "sub-score %s is NaN", name)
					assert.GreaterOrEqual(t, sub, 0.0, "sub-score %s", name)
					assert.LessOrEqual(t, sub, 1.0, "sub-score %s", name)
				}
			}
		}
	}
}
