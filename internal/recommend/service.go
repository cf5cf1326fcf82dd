package recommend

import (
	"context"
	"log"
	"math"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// CatalogClient is the external bibliographic catalog boundary.
type CatalogClient interface {
	// FindBook returns the best match for a free-text title.
	FindBook(ctx context.Context, title string) (BookRecord, error)
	// WorkDetails returns the richer work-level record for an ID.
	WorkDetails(ctx context.Context, workID string) (BookRecord, error)
	// SearchSubject returns up to limit records tagged with the subject.
	SearchSubject(ctx context.Context, subject string, limit int) ([]BookRecord, error)
}

type Config struct {
	MaxInputTitles   int
	SeedSubjects     int
	SubjectLimit     int
	TopK             int
	Concurrency      int
	ScoreThreshold   float64
	RelaxedThreshold float64
}

func (c Config) withDefaults() Config {
	if c.MaxInputTitles <= 0 {
		c.MaxInputTitles = 5
	}
	if c.SeedSubjects <= 0 {
		c.SeedSubjects = 10
	}
	if c.SubjectLimit <= 0 {
		c.SubjectLimit = 20
	}
	if c.TopK <= 0 {
		c.TopK = 2
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 3
	}
	if c.ScoreThreshold <= 0 {
		c.ScoreThreshold = 0.30
	}
	if c.RelaxedThreshold <= 0 {
		c.RelaxedThreshold = 0.15
	}
	return c
}

// Service orchestrates the recommendation pipeline: resolve inputs, aggregate
// subjects, search candidates, score, filter, rank, enhance.
type Service struct {
	catalog  CatalogClient
	enhancer *Enhancer
	basic    Scorer
	enhanced Scorer
	cfg      Config
}

// NewService wires the pipeline. gen may be nil, in which case explanations
// stay template-based.
func NewService(catalog CatalogClient, gen TextGenerator, cfg Config) *Service {
	return &Service{
		catalog:  catalog,
		enhancer: NewEnhancer(gen),
		basic:    BasicScorer{},
		enhanced: NewEnhancedScorer(),
		cfg:      cfg.withDefaults(),
	}
}

type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

type Result struct {
	Recommendations []Recommendation
	Pagination      *Pagination
}

// Recommend runs the pipeline without progress reporting.
func (s *Service) Recommend(ctx context.Context, titles []string, filters Filters, page, perPage int) (Result, error) {
	return s.run(ctx, titles, filters, page, perPage, func(ProgressEvent) {})
}

// RecommendProgress runs the pipeline, emitting a progress event at each
// stage transition. The terminal StageCompleted event carries the final
// recommendations; on error no terminal event is emitted and the error is
// returned instead.
func (s *Service) RecommendProgress(ctx context.Context, titles []string, filters Filters, page, perPage int, emit ProgressFunc) (Result, error) {
	if emit == nil {
		emit = func(ProgressEvent) {}
	}
	return s.run(ctx, titles, filters, page, perPage, emit)
}

func (s *Service) run(ctx context.Context, titles []string, filters Filters, page, perPage int, emit ProgressFunc) (Result, error) {
	emit(ProgressEvent{Stage: StageInputProcessing, Message: "Resolving your books"})
	resolved, err := s.resolveInputs(ctx, titles)
	if err != nil {
		return Result{}, err
	}
	inputs := NewInputSet(resolved)

	emit(ProgressEvent{Stage: StageFinding, Message: "Searching for similar books"})
	seeds := seedSubjects(inputs, s.cfg.SeedSubjects)
	candidates, err := s.searchCandidates(ctx, inputs, seeds)
	if err != nil {
		return Result{}, err
	}

	ranked, err := s.rank(s.scoreCandidates(candidates, inputs), filters, seeds)
	if err != nil {
		return Result{}, err
	}
	final, pagination := s.paginate(ranked, page, perPage)

	emit(ProgressEvent{Stage: StageEnhancing, Message: "Writing explanations"})
	recommendations := make([]Recommendation, 0, len(final))
	for _, candidate := range final {
		recommendations = append(recommendations, s.buildRecommendation(ctx, candidate, inputs))
	}

	emit(ProgressEvent{Stage: StageCompleted, Recommendations: recommendations})
	return Result{Recommendations: recommendations, Pagination: pagination}, nil
}

// resolveInputs looks up every title with bounded parallelism. Titles that
// fail to resolve are skipped; the request fails only when none resolve.
func (s *Service) resolveInputs(ctx context.Context, titles []string) ([]BookRecord, error) {
	if len(titles) > s.cfg.MaxInputTitles {
		titles = titles[:s.cfg.MaxInputTitles]
	}

	resolved := make([]*BookRecord, len(titles))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i, title := range titles {
		i, title := i, title
		g.Go(func() error {
			record, err := s.catalog.FindBook(gctx, title)
			if err != nil {
				log.Printf("input unresolved title=%q err=%v", title, err)
				return nil
			}
			if details, err := s.catalog.WorkDetails(gctx, record.ID); err == nil {
				record = record.withDetails(details)
			} else {
				log.Printf("work details unavailable id=%s err=%v", record.ID, err)
			}
			resolved[i] = &record
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []BookRecord
	for _, r := range resolved {
		if r != nil {
			out = append(out, *r)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoInputsResolved
	}
	return out, nil
}

// seedSubjects picks the most frequent subjects across the inputs as search
// seeds. Any tag mentioning fiction also feeds a broadened "Fiction" bucket
// to widen recall. Ties keep first-seen order so seeding is deterministic.
func seedSubjects(inputs InputSet, n int) []string {
	counts := make(map[string]int)
	var order []string
	add := func(subject string) {
		if _, ok := counts[subject]; !ok {
			order = append(order, subject)
		}
		counts[subject]++
	}

	for _, b := range inputs.Books {
		for _, subject := range b.Subjects {
			add(subject)
			if strings.Contains(strings.ToLower(subject), "fiction") {
				add("Fiction")
			}
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > n {
		order = order[:n]
	}
	return order
}

// searchCandidates queries every seed subject and hydrates surviving
// candidates. Deduplication and exclusion run on the single collecting
// goroutine so the seen-set stays consistent; only the detail fetches fan
// out. Per-item failures skip that item.
func (s *Service) searchCandidates(ctx context.Context, inputs InputSet, seeds []string) ([]BookRecord, error) {
	var candidates []BookRecord
	seen := make(map[string]bool)
	for _, seed := range seeds {
		docs, err := s.catalog.SearchSubject(ctx, seed, s.cfg.SubjectLimit)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Printf("subject search failed subject=%q err=%v", seed, err)
			continue
		}
		for _, doc := range docs {
			if doc.ID == "" || seen[doc.ID] || inputs.Excludes(doc) {
				continue
			}
			seen[doc.ID] = true
			candidates = append(candidates, doc)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i := range candidates {
		i := i
		g.Go(func() error {
			details, err := s.catalog.WorkDetails(gctx, candidates[i].ID)
			if err != nil {
				log.Printf("candidate details unavailable id=%s err=%v", candidates[i].ID, err)
				return nil
			}
			candidates[i] = candidates[i].withDetails(details)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return candidates, nil
}

func (s *Service) scoreCandidates(candidates []BookRecord, inputs InputSet) []ScoredCandidate {
	scored := make([]ScoredCandidate, 0, len(candidates))
	for _, candidate := range candidates {
		score, breakdown := s.scorerFor(candidate).Score(candidate, inputs)
		scored = append(scored, ScoredCandidate{Book: candidate, Score: score, Breakdown: breakdown})
	}
	return scored
}

// scorerFor selects the five-factor scorer when the record carries auxiliary
// signals, and the two-factor fallback otherwise.
func (s *Service) scorerFor(candidate BookRecord) Scorer {
	if candidate.EditionCount > 0 || len(candidate.Publishers) > 0 || candidate.Rating > 0 {
		return s.enhanced
	}
	return s.basic
}

// rank applies the score threshold (relaxing once if the first pass is
// empty), then the user filters, then sorts. When the filters eliminate
// every candidate the unfiltered ranked list is returned instead: never an
// empty response while unfiltered matches exist.
func (s *Service) rank(scored []ScoredCandidate, filters Filters, seeds []string) ([]ScoredCandidate, error) {
	for _, threshold := range []float64{s.cfg.ScoreThreshold, s.cfg.RelaxedThreshold} {
		var passing []ScoredCandidate
		for _, c := range scored {
			if c.Score >= threshold {
				passing = append(passing, c)
			}
		}
		if len(passing) == 0 {
			continue
		}

		kept := applyFilters(passing, filters)
		if len(kept) == 0 {
			log.Printf("filters removed all %d candidates, falling back to unfiltered ranking", len(passing))
			kept = passing
		}

		sort.SliceStable(kept, func(i, j int) bool {
			return kept[i].Score > kept[j].Score
		})
		return kept, nil
	}
	return nil, &NoCandidatesError{Subjects: seeds}
}

func (s *Service) paginate(ranked []ScoredCandidate, page, perPage int) ([]ScoredCandidate, *Pagination) {
	if perPage <= 0 {
		if len(ranked) > s.cfg.TopK {
			ranked = ranked[:s.cfg.TopK]
		}
		return ranked, nil
	}

	if page < 1 {
		page = 1
	}
	total := len(ranked)
	pagination := &Pagination{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: (total + perPage - 1) / perPage,
	}

	start := (page - 1) * perPage
	if start >= total {
		return nil, pagination
	}
	end := start + perPage
	if end > total {
		end = total
	}
	return ranked[start:end], pagination
}

func (s *Service) buildRecommendation(ctx context.Context, candidate ScoredCandidate, inputs InputSet) Recommendation {
	book := candidate.Book
	// Enhancement prompts want the freshest work detail; a failure here just
	// reuses what scoring already had.
	if details, err := s.catalog.WorkDetails(ctx, book.ID); err == nil {
		book = book.withDetails(details)
	}

	year, _ := recordYear(book)
	genres := book.Genres()
	if genres == nil {
		genres = []string{}
	}

	return Recommendation{
		ID:              book.ID,
		Title:           book.Title,
		Author:          book.PrimaryAuthor(),
		Year:            year,
		Genres:          genres,
		SimilarityScore: math.Round(candidate.Score*1000) / 10,
		Explanation:     s.enhancer.Explanation(ctx, book, inputs, candidate.Score, candidate.Breakdown),
		WhyRead:         s.enhancer.WhyRead(ctx, book),
		CoverURL:        book.CoverURL,
		PageCount:       book.PageCount,
		ReadingTime:     EstimateReadingTime(book.PageCount),
	}
}
