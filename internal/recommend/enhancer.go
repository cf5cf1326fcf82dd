package recommend

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// TextGenerator is the language-model boundary: a rate-limited prompt-in,
// text-out call that may fail at any time.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// Output this short is treated as a failed generation regardless of what the
// generator itself reported.
const minEnhancedLength = 10

// Enhancer rewrites the deterministic explanation texts with a language
// model. Strictly best-effort: any failure keeps the template text.
type Enhancer struct {
	gen       TextGenerator
	explainer Explainer
}

func NewEnhancer(gen TextGenerator) *Enhancer {
	return &Enhancer{gen: gen}
}

// Explanation returns the model-written match explanation, falling back to
// the deterministic template. score is in [0,1].
func (e *Enhancer) Explanation(ctx context.Context, candidate BookRecord, inputs InputSet, score float64, breakdown map[string]float64) string {
	fallback := e.explainer.Explain(candidate, inputs, score, breakdown)
	if e.gen == nil {
		return fallback
	}

	out, err := e.gen.Generate(ctx, explanationPrompt(candidate, inputs, score), 256)
	if err != nil {
		log.Printf("enhancement failed book=%s kind=explanation err=%v", candidate.ID, err)
		return fallback
	}
	if out = strings.TrimSpace(out); len(out) <= minEnhancedLength {
		return fallback
	}
	return out
}

// WhyRead returns the model-written reading recommendation, falling back to
// the deterministic template.
func (e *Enhancer) WhyRead(ctx context.Context, candidate BookRecord) string {
	fallback := e.explainer.WhyRead(candidate)
	if e.gen == nil {
		return fallback
	}

	out, err := e.gen.Generate(ctx, whyReadPrompt(candidate), 512)
	if err != nil {
		log.Printf("enhancement failed book=%s kind=why_read err=%v", candidate.ID, err)
		return fallback
	}
	if out = strings.TrimSpace(out); len(out) <= minEnhancedLength {
		return fallback
	}
	return out
}

func explanationPrompt(candidate BookRecord, inputs InputSet, score float64) string {
	shared := sharedSubjects(candidate, inputs, 3)

	var favorite []string
	seen := make(map[string]bool)
	for _, b := range inputs.Books {
		for _, s := range head(b.Subjects, 3) {
			if !seen[s] {
				seen[s] = true
				favorite = append(favorite, s)
			}
		}
	}

	era := "Unknown"
	if mean, ok := meanInputYear(inputs); ok {
		era = fmt.Sprintf("Around %d", int(mean))
	}
	year := "Unknown"
	if y, ok := recordYear(candidate); ok {
		year = fmt.Sprintf("%d", y)
	}

	return fmt.Sprintf(`Analyze why this book matches the reader's preferences:

Book Details:
Title: %s
Author: %s
Year: %s
Shared Genres: %s
Similarity Score: %.1f%%

Reader's Preferences:
- Favorite Genres: %s
- Preferred Era: %s

Explain why this book would appeal to the reader based on these matches. Use 2nd person like you and your. Focus on specific connections and shared elements. Keep it concise (4-5 sentences) and analytical.`,
		candidate.Title, candidate.PrimaryAuthor(), year,
		strings.Join(shared, ", "), score*100,
		strings.Join(favorite, ", "), era)
}

func whyReadPrompt(candidate BookRecord) string {
	genres := "Unknown"
	if len(candidate.Subjects) > 0 {
		genres = strings.Join(head(candidate.Subjects, 5), ", ")
	}
	year := candidate.FirstPublishDate
	if year == "" {
		year = "Unknown"
	}

	return fmt.Sprintf(`Create a detailed and compelling recommendation for why someone should read this book:

Title: %s
Author: %s
Year: %s
Genres: %s

Create an engaging recommendation that covers:
1. The unique aspects and standout features of this book
2. The emotional journey and reading experience it offers
3. The book's cultural or literary significance
4. Who would particularly enjoy or benefit from reading it
5. What lasting impact or insights readers can expect to gain

Write in an enthusiastic, persuasive tone that makes readers excited to start the book.
Use 2nd person like you and your.
Provide specific details and compelling reasons.
Aim for 4-6 sentences that paint a vivid picture of the reading experience.`,
		candidate.Title, candidate.PrimaryAuthor(), year, genres)
}
