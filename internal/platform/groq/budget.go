package groq

import (
	"sync"
	"time"
)

// Budget tracks the two Groq quota windows: requests per day and tokens per
// minute. Check-and-consume is a single locked step so concurrent requests
// cannot both spend the last slot.
type Budget struct {
	mu sync.Mutex

	dailyLimit  int
	minuteLimit int

	dailyRequests int
	minuteTokens  int
	dayReset      time.Time
	minuteReset   time.Time

	now func() time.Time
}

func NewBudget(requestsPerDay, tokensPerMinute int) *Budget {
	now := time.Now()
	return &Budget{
		dailyLimit:  requestsPerDay,
		minuteLimit: tokensPerMinute,
		dayReset:    now,
		minuteReset: now,
		now:         time.Now,
	}
}

// Allow reports whether a call costing estimatedTokens fits the remaining
// budget, consuming it when it does.
func (b *Budget) Allow(estimatedTokens int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	current := b.now()
	if current.Sub(b.dayReset) > 24*time.Hour {
		b.dailyRequests = 0
		b.dayReset = current
	}
	if current.Sub(b.minuteReset) > time.Minute {
		b.minuteTokens = 0
		b.minuteReset = current
	}

	if b.dailyRequests < b.dailyLimit && b.minuteTokens+estimatedTokens <= b.minuteLimit {
		b.dailyRequests++
		b.minuteTokens += estimatedTokens
		return true
	}
	return false
}
