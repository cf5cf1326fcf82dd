package recommend

import (
	"fmt"
	"strings"
)

// Explainer renders deterministic, template-based explanation text from a
// score breakdown. It never touches the network, so it is always available
// as the fallback when language-model enhancement fails.
type Explainer struct{}

// Clause thresholds. A clause is only emitted when its sub-score clears the
// bar, so weak matches degrade to the generic sentence instead of
// overclaiming.
const (
	subjectClauseThreshold     = 0.6
	authorClauseThreshold      = 0.4
	authorExactClauseThreshold = 0.9
	sameTimeClauseThreshold    = 0.8
	similarEraClauseThreshold  = 0.6
)

// Explain builds the "why was this recommended" sentence. Output is never
// empty and is deterministic for identical inputs. score is in [0,1].
func (Explainer) Explain(candidate BookRecord, inputs InputSet, score float64, breakdown map[string]float64) string {
	var clauses []string

	if subScore(breakdown, "subject_overlap", "subject_match") > subjectClauseThreshold {
		if shared := sharedSubjects(candidate, inputs, 3); len(shared) > 0 {
			clauses = append(clauses, fmt.Sprintf("shares genres you enjoy like %s", strings.Join(shared, ", ")))
		}
	}

	if authorScore := subScore(breakdown, "author"); authorScore > authorClauseThreshold {
		if authorScore > authorExactClauseThreshold {
			clauses = append(clauses, fmt.Sprintf("is written by %s, an author you already read", candidate.PrimaryAuthor()))
		} else {
			clauses = append(clauses, fmt.Sprintf("is written by %s, closely related to an author you read", candidate.PrimaryAuthor()))
		}
	}

	switch yearScore := subScore(breakdown, "year", "year_match"); {
	case yearScore >= sameTimeClauseThreshold:
		clauses = append(clauses, "was published around the same time")
	case yearScore >= similarEraClauseThreshold:
		clauses = append(clauses, "was published in a similar era")
	}

	if len(clauses) == 0 {
		return fmt.Sprintf("This book matches your reading preferences with a %.1f%% similarity.", score*100)
	}
	return fmt.Sprintf("This book was recommended because it %s, with a %.1f%% match to your preferences.",
		strings.Join(clauses, " and "), score*100)
}

// WhyRead builds the deterministic reading recommendation from genre labels,
// era buckets and page-count buckets. At most three clauses.
func (Explainer) WhyRead(candidate BookRecord) string {
	var clauses []string

	genres := head(candidate.Subjects, 3)
	if len(genres) > 0 {
		clauses = append(clauses, fmt.Sprintf("A notable work in the %s genre", strings.ToLower(genres[0])))
	}
	if len(candidate.Subjects) > 3 {
		themes := candidate.Subjects[3:]
		if len(themes) > 3 {
			themes = themes[:3]
		}
		clauses = append(clauses, fmt.Sprintf("explores themes of %s", strings.ToLower(strings.Join(themes, ", "))))
	}

	if year, ok := recordYear(candidate); ok {
		switch {
		case year < 1900:
			clauses = append(clauses, "represents a significant historical perspective")
		case year < 1950:
			clauses = append(clauses, "offers insights into mid-century literary development")
		case year > 2010:
			clauses = append(clauses, "presents contemporary narrative techniques")
		}
	}

	switch {
	case candidate.PageCount > 0 && candidate.PageCount < 200:
		clauses = append(clauses, "provides a focused, concise narrative")
	case candidate.PageCount > 500:
		clauses = append(clauses, "delivers an extensive literary experience")
	}

	if len(clauses) == 0 {
		return "A noteworthy addition to its genre, offering readers a distinctive literary perspective."
	}
	if len(clauses) > 3 {
		clauses = clauses[:3]
	}
	return strings.Join(clauses, " and ") + "."
}

// sharedSubjects returns up to limit of the candidate's subject tags whose
// normalized form also appears in the inputs, keeping original casing for
// display.
func sharedSubjects(candidate BookRecord, inputs InputSet, limit int) []string {
	inputSet := toSet(normalizeSubjects(inputs.Subjects))

	var shared []string
	seen := make(map[string]bool)
	for _, subject := range candidate.Subjects {
		n := normalizeSubject(subject)
		if n == "" || seen[n] || !inputSet[n] {
			continue
		}
		seen[n] = true
		shared = append(shared, subject)
		if len(shared) == limit {
			break
		}
	}
	return shared
}

// subScore reads the first present key, so the same templates serve both
// scorer breakdowns.
func subScore(breakdown map[string]float64, keys ...string) float64 {
	for _, key := range keys {
		if v, ok := breakdown[key]; ok {
			return v
		}
	}
	return 0
}
