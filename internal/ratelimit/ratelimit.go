// Package ratelimit caps how many model-enrichment requests the pipeline may
// spend per day. The cap protects free-tier quotas; work beyond it degrades
// to the local enricher instead of queueing.
package ratelimit

import (
	"log/slog"
	"sync"
	"time"
)

type Budget struct {
	mu      sync.Mutex
	used    int
	max     int // 0 = unlimited
	resetAt time.Time
}

// NewBudget creates a daily request budget. max <= 0 means unlimited.
func NewBudget(max int) *Budget {
	return &Budget{
		max:     max,
		resetAt: time.Now().Add(24 * time.Hour),
	}
}

// Allow consumes one request from the budget. It reports false once the
// daily cap is reached; counters reset a day after the first use.
func (b *Budget) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.checkReset()

	if b.max > 0 && b.used >= b.max {
		slog.Debug("enrichment budget exhausted", "used", b.used, "max", b.max)
		return false
	}

	b.used++
	return true
}

// Stats returns the consumed and maximum request counts.
func (b *Budget) Stats() (used, max int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.used, b.max
}

func (b *Budget) checkReset() {
	if time.Now().After(b.resetAt) {
		slog.Info("resetting enrichment budget", "used", b.used, "max", b.max)
		b.used = 0
		b.resetAt = time.Now().Add(24 * time.Hour)
	}
}
