package recommend

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Scorer computes a similarity score in [0,1] between a candidate and the
// resolved input set, plus a breakdown of the component sub-scores.
type Scorer interface {
	Score(candidate BookRecord, inputs InputSet) (float64, map[string]float64)
}

// Tokens that carry no signal in catalog subject tags.
var subjectStopwords = map[string]bool{
	"fiction": true,
	"novel":   true,
	"novels":  true,
	"general": true,
	"the":     true,
	"a":       true,
	"an":      true,
	"and":     true,
	"of":      true,
	"in":      true,
}

var (
	nonAlnum    = regexp.MustCompile(`[^a-z0-9 ]+`)
	yearPattern = regexp.MustCompile(`\d{4}`)
)

// normalizeSubject lowercases, strips punctuation and drops stopword tokens.
// Returns "" when nothing survives.
func normalizeSubject(s string) string {
	s = nonAlnum.ReplaceAllString(strings.ToLower(s), " ")
	var kept []string
	for _, tok := range strings.Fields(s) {
		if !subjectStopwords[tok] {
			kept = append(kept, tok)
		}
	}
	return strings.Join(kept, " ")
}

// normalizeSubjects preserves order and drops duplicates and empties.
func normalizeSubjects(subjects []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, s := range subjects {
		n := normalizeSubject(s)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, it := range items {
		set[it] = true
	}
	return set
}

// jaccard is |intersection| / |union|, and 0 when both sets are empty.
func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	intersection := 0
	for k := range a {
		if b[k] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// extractYear pulls a 4-digit year out of a free-form date string: a direct
// prefix parse first, then the first 4-digit run anywhere in the string.
func extractYear(dateStr string) (int, bool) {
	dateStr = strings.TrimSpace(dateStr)
	if len(dateStr) >= 4 {
		if y, err := strconv.Atoi(dateStr[:4]); err == nil {
			return y, true
		}
	}
	if m := yearPattern.FindString(dateStr); m != "" {
		y, _ := strconv.Atoi(m)
		return y, true
	}
	return 0, false
}

// recordYear prefers the structured year from search results over the
// free-form work date.
func recordYear(b BookRecord) (int, bool) {
	if b.Year > 0 {
		return b.Year, true
	}
	return extractYear(b.FirstPublishDate)
}

// meanInputYear averages the resolvable input years.
func meanInputYear(inputs InputSet) (float64, bool) {
	sum, n := 0, 0
	for _, b := range inputs.Books {
		if y, ok := recordYear(b); ok {
			sum += y
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return float64(sum) / float64(n), true
}

// yearProximity maps the distance from the mean input year to a decaying
// step score.
func yearProximity(diff float64) float64 {
	switch {
	case diff <= 5:
		return 1.0
	case diff <= 20:
		return 0.8
	case diff <= 50:
		return 0.6
	case diff <= 100:
		return 0.4
	default:
		return 0.2
	}
}

// BasicScorer is the two-factor fallback used when a candidate carries no
// auxiliary signals (editions, publishers, rating). Subject overlap is plain
// Jaccard over normalized tags; year proximity decays continuously and an
// unresolvable year scores 0.
type BasicScorer struct{}

func (BasicScorer) Score(candidate BookRecord, inputs InputSet) (float64, map[string]float64) {
	candidateSet := toSet(normalizeSubjects(candidate.Subjects))
	inputSet := toSet(normalizeSubjects(inputs.Subjects))
	subjectScore := jaccard(candidateSet, inputSet)

	yearScore := 0.0
	if candidateYear, ok := recordYear(candidate); ok {
		if mean, ok := meanInputYear(inputs); ok {
			yearScore = 1 / (1 + math.Abs(float64(candidateYear)-mean)/100)
		}
	}

	breakdown := map[string]float64{
		"subject_match": subjectScore,
		"year_match":    yearScore,
	}
	return 0.6*subjectScore + 0.4*yearScore, breakdown
}

// Weights for the enhanced scorer's five components. They must sum to 1.
type Weights struct {
	SubjectOverlap float64
	SubjectDepth   float64
	Year           float64
	Author         float64
	Popularity     float64
}

var DefaultWeights = Weights{
	SubjectOverlap: 0.40,
	SubjectDepth:   0.15,
	Year:           0.15,
	Author:         0.15,
	Popularity:     0.15,
}

// primarySubjectCount is how many leading tags per record count as primary.
// Catalog data lists the most specific subjects first.
const primarySubjectCount = 3

// EnhancedScorer is the five-factor scorer used when candidates carry richer
// catalog fields.
type EnhancedScorer struct {
	Weights Weights
}

func NewEnhancedScorer() *EnhancedScorer {
	return &EnhancedScorer{Weights: DefaultWeights}
}

func (s *EnhancedScorer) Score(candidate BookRecord, inputs InputSet) (float64, map[string]float64) {
	breakdown := map[string]float64{
		"subject_overlap": s.subjectOverlap(candidate, inputs),
		"subject_depth":   s.subjectDepth(candidate, inputs),
		"year":            s.yearRelevance(candidate, inputs),
		"author":          s.authorRelation(candidate, inputs),
		"popularity":      s.popularity(candidate),
	}

	score := s.Weights.SubjectOverlap*breakdown["subject_overlap"] +
		s.Weights.SubjectDepth*breakdown["subject_depth"] +
		s.Weights.Year*breakdown["year"] +
		s.Weights.Author*breakdown["author"] +
		s.Weights.Popularity*breakdown["popularity"]

	if candidate.Rating > 4.0 {
		score *= 1.1
	}
	return clamp01(score), breakdown
}

// subjectOverlap weights Jaccard on the primary tags (first 3 per record)
// over Jaccard on the full sets, 70/30.
func (s *EnhancedScorer) subjectOverlap(candidate BookRecord, inputs InputSet) float64 {
	candidateAll := normalizeSubjects(candidate.Subjects)
	candidatePrimary := head(candidateAll, primarySubjectCount)

	var inputAll, inputPrimary []string
	for _, b := range inputs.Books {
		normalized := normalizeSubjects(b.Subjects)
		inputAll = append(inputAll, normalized...)
		inputPrimary = append(inputPrimary, head(normalized, primarySubjectCount)...)
	}

	primary := jaccard(toSet(candidatePrimary), toSet(inputPrimary))
	all := jaccard(toSet(candidateAll), toSet(inputAll))
	return 0.7*primary + 0.3*all
}

// subjectDepth rewards rare shared words over generic ones: each shared word
// contributes 1/(candidate frequency + input frequency).
func (s *EnhancedScorer) subjectDepth(candidate BookRecord, inputs InputSet) float64 {
	candidateFreq := wordFrequencies(candidate.Subjects)

	inputFreq := make(map[string]int)
	for _, b := range inputs.Books {
		for word, n := range wordFrequencies(b.Subjects) {
			inputFreq[word] += n
		}
	}

	sum, shared := 0.0, 0
	for word, cn := range candidateFreq {
		if in, ok := inputFreq[word]; ok {
			sum += 1 / float64(cn+in)
			shared++
		}
	}
	if shared == 0 {
		return 0
	}
	return clamp01(sum / float64(shared))
}

// yearRelevance applies the step decay; a missing year on either side scores
// a neutral 0.5 rather than penalizing absent data.
func (s *EnhancedScorer) yearRelevance(candidate BookRecord, inputs InputSet) float64 {
	candidateYear, ok := recordYear(candidate)
	if !ok {
		return 0.5
	}
	mean, ok := meanInputYear(inputs)
	if !ok {
		return 0.5
	}
	return yearProximity(math.Abs(float64(candidateYear) - mean))
}

// authorRelation: exact full-name match 1.0, shared surname 0.5, otherwise a
// small floor so unrelated authors are not punished.
func (s *EnhancedScorer) authorRelation(candidate BookRecord, inputs InputSet) float64 {
	best := 0.1
	for _, candidateAuthor := range candidate.Authors {
		ca := strings.ToLower(strings.TrimSpace(candidateAuthor))
		if ca == "" {
			continue
		}
		for _, b := range inputs.Books {
			for _, inputAuthor := range b.Authors {
				ia := strings.ToLower(strings.TrimSpace(inputAuthor))
				if ia == "" {
					continue
				}
				if ca == ia {
					return 1.0
				}
				if surname(ca) == surname(ia) && best < 0.5 {
					best = 0.5
				}
			}
		}
	}
	return best
}

// popularity is a presence-based proxy over edition count, publishers and
// page count.
func (s *EnhancedScorer) popularity(candidate BookRecord) float64 {
	present := 0
	if candidate.EditionCount > 0 {
		present++
	}
	if len(candidate.Publishers) > 0 {
		present++
	}
	if candidate.PageCount > 0 {
		present++
	}
	return float64(present) / 3
}

func wordFrequencies(subjects []string) map[string]int {
	freq := make(map[string]int)
	for _, s := range normalizeSubjects(subjects) {
		for _, word := range strings.Fields(s) {
			freq[word]++
		}
	}
	return freq
}

func surname(fullName string) string {
	fields := strings.Fields(fullName)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

func head(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
