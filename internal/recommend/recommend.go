// Package recommend implements the book recommendation pipeline: resolve
// input titles against the catalog, aggregate their subjects, search for
// candidate works, score them, and rank the best few with generated
// explanations.
package recommend

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoInputsResolved means none of the submitted titles matched a catalog
// record. The whole request fails; there is nothing to recommend from.
var ErrNoInputsResolved = errors.New("could not resolve any of the input books")

// NoCandidatesError means search and scoring produced nothing even after the
// score threshold was relaxed.
type NoCandidatesError struct {
	Subjects []string
}

func (e *NoCandidatesError) Error() string {
	if len(e.Subjects) == 0 {
		return "no similar books found"
	}
	return fmt.Sprintf("no similar books found in categories: %s", strings.Join(e.Subjects, ", "))
}

// BookRecord is a bibliographic record as fetched from the catalog. Records
// are immutable once fetched within a request.
type BookRecord struct {
	ID               string
	Title            string
	Authors          []string
	Subjects         []string
	Year             int    // 0 when unknown
	FirstPublishDate string // free-form, often just a year
	PageCount        int
	EditionCount     int
	Publishers       []string
	Rating           float64
	CoverURL         string
}

// maxGenres limits the genre list shown on a recommendation.
const maxGenres = 5

// Genres returns the record's primary subject tags for display.
func (b BookRecord) Genres() []string {
	if len(b.Subjects) <= maxGenres {
		return b.Subjects
	}
	return b.Subjects[:maxGenres]
}

// PrimaryAuthor returns the first listed author, or "Unknown".
func (b BookRecord) PrimaryAuthor() string {
	if len(b.Authors) == 0 {
		return "Unknown"
	}
	return b.Authors[0]
}

// withDetails overlays work-detail fields onto a search result record.
func (b BookRecord) withDetails(d BookRecord) BookRecord {
	if len(d.Subjects) > 0 {
		b.Subjects = d.Subjects
	}
	if d.FirstPublishDate != "" {
		b.FirstPublishDate = d.FirstPublishDate
	}
	if d.PageCount > 0 {
		b.PageCount = d.PageCount
	}
	return b
}

// InputSet is the resolved input books plus the derived aggregates the
// pipeline needs: the subject union and the exclusion sets that keep inputs
// (and their authors) out of the results.
type InputSet struct {
	Books    []BookRecord
	Subjects []string

	ids     map[string]bool
	authors map[string]bool
}

func NewInputSet(books []BookRecord) InputSet {
	in := InputSet{
		Books:   books,
		ids:     make(map[string]bool),
		authors: make(map[string]bool),
	}
	seen := make(map[string]bool)
	for _, b := range books {
		in.ids[b.ID] = true
		if len(b.Authors) > 0 {
			in.authors[strings.ToLower(b.Authors[0])] = true
		}
		for _, s := range b.Subjects {
			if !seen[s] {
				seen[s] = true
				in.Subjects = append(in.Subjects, s)
			}
		}
	}
	return in
}

// Excludes reports whether a candidate must not be recommended: it is one of
// the inputs, or its primary author wrote one of the inputs.
func (in InputSet) Excludes(candidate BookRecord) bool {
	if in.ids[candidate.ID] {
		return true
	}
	if len(candidate.Authors) > 0 && in.authors[strings.ToLower(candidate.Authors[0])] {
		return true
	}
	return false
}

// ScoredCandidate pairs a record with its similarity score in [0,1] and the
// per-component breakdown behind it.
type ScoredCandidate struct {
	Book      BookRecord
	Score     float64
	Breakdown map[string]float64
}

// ReadingTime is a rough estimate derived from the page count.
type ReadingTime struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
}

// EstimateReadingTime assumes 250 words per page at 200 words per minute.
// Returns nil when the page count is unknown.
func EstimateReadingTime(pageCount int) *ReadingTime {
	if pageCount <= 0 {
		return nil
	}
	totalMinutes := pageCount * 250 / 200
	return &ReadingTime{
		Hours:   totalMinutes / 60,
		Minutes: totalMinutes % 60,
	}
}

// Recommendation is the user-facing projection of a scored candidate.
// SimilarityScore is presented on a 0-100 scale.
type Recommendation struct {
	ID              string       `json:"id"`
	Title           string       `json:"title"`
	Author          string       `json:"author"`
	Year            int          `json:"year,omitempty"`
	Genres          []string     `json:"genres"`
	SimilarityScore float64      `json:"similarity_score"`
	Explanation     string       `json:"explanation"`
	WhyRead         string       `json:"why_read,omitempty"`
	CoverURL        string       `json:"cover_url,omitempty"`
	PageCount       int          `json:"page_count,omitempty"`
	ReadingTime     *ReadingTime `json:"reading_time,omitempty"`
}
