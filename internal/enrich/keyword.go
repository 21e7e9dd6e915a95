package enrich

import (
	"context"
	"sort"
	"strings"

	"github.com/newsforge/newsforge/internal/news"
)

// Keyword is a dependency-free enricher built on keyword rules. It serves as
// the default when no model API key is configured and as the per-field
// fallback for model-backed enrichers.
type Keyword struct{}

func NewKeyword() *Keyword {
	return &Keyword{}
}

var categoryRules = []struct {
	name     string
	keywords []string
}{
	{"Technology", []string{"tech", "software", " ai ", "artificial intelligence", "computer", "gadget", "chip", "startup"}},
	{"Politics", []string{"election", "government", "senate", "parliament", "policy", "minister"}},
	{"Business", []string{"market", "stock", "finance", "economy", "inflation", "earnings"}},
	{"Health", []string{"health", "medicine", "virus", "covid", "vaccine", "hospital"}},
	{"Sports", []string{"football", "soccer", "nba", "olympics", "championship", "tournament"}},
}

var positiveWords = []string{
	"win", "wins", "growth", "success", "breakthrough", "record", "improve",
	"gain", "boost", "recovery", "agreement", "celebrate", "strong",
}

var negativeWords = []string{
	"death", "dead", "crisis", "war", "crash", "loss", "losses", "decline",
	"attack", "fraud", "fail", "failure", "disaster", "recession", "fear",
}

var stopwords = map[string]struct{}{
	"about": {}, "after": {}, "again": {}, "their": {}, "there": {},
	"these": {}, "those": {}, "which": {}, "while": {}, "would": {},
	"could": {}, "should": {}, "because": {}, "between": {}, "during": {},
	"where": {}, "being": {}, "other": {}, "every": {}, "first": {},
	"still": {}, "since": {}, "against": {}, "before": {}, "under": {},
	"people": {}, "years": {}, "said": {}, "says": {}, "today": {},
}

func (k *Keyword) Enrich(ctx context.Context, title, content string) news.Enrichment {
	text := title + " " + content
	return news.Enrichment{
		Summary:   fallbackSummary(content),
		Category:  ClassifyCategory(text),
		Sentiment: ScoreSentiment(text),
		Tags:      ExtractTags(text, 5),
	}
}

// ClassifyCategory assigns the first rule whose keyword appears in the text,
// "General" otherwise.
func ClassifyCategory(text string) string {
	padded := " " + strings.ToLower(text) + " "
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(padded, kw) {
				return rule.name
			}
		}
	}
	return news.CategoryGeneral
}

// ScoreSentiment counts lexicon hits; ties and silence are neutral.
func ScoreSentiment(text string) string {
	words := tokenize(text)
	var pos, neg int
	for _, w := range words {
		for _, p := range positiveWords {
			if w == p {
				pos++
			}
		}
		for _, n := range negativeWords {
			if w == n {
				neg++
			}
		}
	}
	switch {
	case pos > neg:
		return news.SentimentPositive
	case neg > pos:
		return news.SentimentNegative
	default:
		return news.SentimentNeutral
	}
}

// ExtractTags returns the most frequent meaningful words, most frequent
// first. Ties keep text order so results stay deterministic.
func ExtractTags(text string, limit int) []string {
	counts := map[string]int{}
	firstSeen := map[string]int{}

	for i, w := range tokenize(text) {
		if len(w) < 5 {
			continue
		}
		if _, skip := stopwords[w]; skip {
			continue
		}
		counts[w]++
		if _, ok := firstSeen[w]; !ok {
			firstSeen[w] = i
		}
	}

	tags := make([]string, 0, len(counts))
	for w := range counts {
		tags = append(tags, w)
	}
	sort.Slice(tags, func(i, j int) bool {
		if counts[tags[i]] != counts[tags[j]] {
			return counts[tags[i]] > counts[tags[j]]
		}
		return firstSeen[tags[i]] < firstSeen[tags[j]]
	})

	if len(tags) > limit {
		tags = tags[:limit]
	}
	return tags
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
}
