package recommend

// Filters are the caller-supplied constraints on the candidate list. A zero
// value applies nothing. ReadingLevel is accepted for forward compatibility
// but not evaluated: the catalog carries no reading-level data to check it
// against.
type Filters struct {
	Genre        string   `json:"genre,omitempty"`
	YearRange    []int    `json:"yearRange,omitempty" validate:"omitempty,len=2"`
	PageCount    []int    `json:"pageCount,omitempty" validate:"omitempty,len=2"`
	MinScore     *float64 `json:"minScore,omitempty" validate:"omitempty,gte=0,lte=100"`
	ReadingLevel string   `json:"readingLevel,omitempty"`
}

// IsZero reports whether no evaluated filter is set.
func (f Filters) IsZero() bool {
	return f.Genre == "" && len(f.YearRange) == 0 && len(f.PageCount) == 0 && f.MinScore == nil
}

// applyFilters keeps candidates satisfying every set filter. Fail-closed: a
// candidate missing the field a filter targets is excluded by that filter.
// MinScore is compared on the presented 0-100 scale.
func applyFilters(candidates []ScoredCandidate, f Filters) []ScoredCandidate {
	if f.IsZero() {
		return candidates
	}

	var kept []ScoredCandidate
	for _, c := range candidates {
		if !matchesFilters(c, f) {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

func matchesFilters(c ScoredCandidate, f Filters) bool {
	if f.Genre != "" && !containsString(c.Book.Genres(), f.Genre) {
		return false
	}

	if len(f.YearRange) == 2 {
		year, ok := recordYear(c.Book)
		if !ok || year < f.YearRange[0] || year > f.YearRange[1] {
			return false
		}
	}

	if len(f.PageCount) == 2 {
		if c.Book.PageCount <= 0 || c.Book.PageCount < f.PageCount[0] || c.Book.PageCount > f.PageCount[1] {
			return false
		}
	}

	if f.MinScore != nil && c.Score*100 < *f.MinScore {
		return false
	}

	return true
}

func containsString(items []string, target string) bool {
	for _, it := range items {
		if it == target {
			return true
		}
	}
	return false
}
