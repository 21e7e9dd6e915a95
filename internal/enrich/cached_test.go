package enrich

import (
	"context"
	"testing"
	"time"

	"github.com/newsforge/newsforge/internal/news"
	"github.com/newsforge/newsforge/internal/ratelimit"
)

type countingEnricher struct {
	calls int
}

func (c *countingEnricher) Enrich(ctx context.Context, title, content string) news.Enrichment {
	c.calls++
	return news.Enrichment{
		Summary:   "model summary",
		Category:  "Technology",
		Sentiment: news.SentimentPositive,
		Tags:      []string{"model"},
	}
}

func TestCachedEnrichHitsCache(t *testing.T) {
	t.Parallel()

	inner := &countingEnricher{}
	c := NewCached(inner, ratelimit.NewBudget(0), time.Hour)

	first := c.Enrich(context.Background(), "Title", "Content")
	second := c.Enrich(context.Background(), "Title", "Content")

	if inner.calls != 1 {
		t.Errorf("identical input should hit the cache, inner called %d times", inner.calls)
	}
	if first.Summary != second.Summary || second.Summary != "model summary" {
		t.Errorf("cache must return the stored enrichment: %+v", second)
	}

	c.Enrich(context.Background(), "Other title", "Content")
	if inner.calls != 2 {
		t.Errorf("different input should miss the cache, inner called %d times", inner.calls)
	}
}

func TestCachedEnrichBudgetExhausted(t *testing.T) {
	t.Parallel()

	inner := &countingEnricher{}
	c := NewCached(inner, ratelimit.NewBudget(1), time.Hour)

	got := c.Enrich(context.Background(), "First", "strong growth and a record win today")
	if inner.calls != 1 || got.Summary != "model summary" {
		t.Fatalf("first call should use the model: calls=%d got=%+v", inner.calls, got)
	}

	got = c.Enrich(context.Background(), "Second", "strong growth and a record win today again")
	if inner.calls != 1 {
		t.Errorf("over-budget call must not reach the model, calls=%d", inner.calls)
	}
	if got.Sentiment != news.SentimentPositive || got.Category == "" {
		t.Errorf("over-budget result must still be complete: %+v", got)
	}
}
