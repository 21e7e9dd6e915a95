// Package enrich turns raw article text into summary, category, sentiment
// and tags. Enrichers never fail: every sub-stage degrades to a default
// value on its own, so callers always get a fully populated Enrichment.
package enrich

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/newsforge/newsforge/internal/news"
)

// Enricher is the capability boundary the pipeline depends on.
type Enricher interface {
	Enrich(ctx context.Context, title, content string) news.Enrichment
}

const summaryFallbackRunes = 200

// fallbackSummary cuts the leading text at a rune boundary, preferring to
// end on a full sentence.
func fallbackSummary(content string) string {
	content = strings.Join(strings.Fields(content), " ")
	if content == "" {
		return ""
	}
	if utf8.RuneCountInString(content) <= summaryFallbackRunes {
		return content
	}

	runes := []rune(content)
	trimmed := string(runes[:summaryFallbackRunes])
	if idx := strings.LastIndex(trimmed, ". "); idx > summaryFallbackRunes/3 {
		return trimmed[:idx+1]
	}
	return trimmed + "..."
}

func normalizeSentiment(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case news.SentimentPositive:
		return news.SentimentPositive
	case news.SentimentNegative:
		return news.SentimentNegative
	case news.SentimentNeutral:
		return news.SentimentNeutral
	}
	return ""
}
