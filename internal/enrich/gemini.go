package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/newsforge/newsforge/internal/news"
)

// Gemini enriches articles through the Gemini API. Any API failure, and any
// field the model leaves out, falls back to the keyword enricher so the
// result is always complete.
type Gemini struct {
	client   *genai.Client
	model    string
	fallback *Keyword
}

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Gemini{client: client, model: model, fallback: NewKeyword()}, nil
}

func (g *Gemini) Close() {
	if g.client != nil {
		g.client.Close()
	}
}

const maxPromptRunes = 6000

func (g *Gemini) Enrich(ctx context.Context, title, content string) news.Enrichment {
	model := g.client.GenerativeModel(g.model)

	prompt := buildPrompt(title, content)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		slog.Warn("gemini request failed, using keyword fallback", "error", err)
		return g.fallback.Enrich(ctx, title, content)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		slog.Warn("gemini returned empty response, using keyword fallback")
		return g.fallback.Enrich(ctx, title, content)
	}

	response := fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])
	result := parseEnrichment(response)

	// Per-field degradation: any field the model missed is filled locally.
	text := title + " " + content
	if result.Summary == "" {
		result.Summary = fallbackSummary(content)
	}
	if result.Category == "" {
		result.Category = ClassifyCategory(text)
	}
	if result.Sentiment == "" {
		result.Sentiment = ScoreSentiment(text)
	}
	if len(result.Tags) == 0 {
		result.Tags = ExtractTags(text, 5)
	}

	return result
}

func buildPrompt(title, content string) string {
	// Sanitize & limit content size (avoid over-long prompts)
	content = strings.ReplaceAll(content, "\r", "")
	content = strings.Join(strings.Fields(content), " ")
	if utf8.RuneCountInString(content) > maxPromptRunes {
		runes := []rune(content)
		trimmed := string(runes[:maxPromptRunes])
		if idx := strings.LastIndex(trimmed, ". "); idx > 1200 {
			trimmed = trimmed[:idx+1]
		}
		content = trimmed + "\n[TRUNCATED]"
	}

	return fmt.Sprintf(`Analyze this news article and respond strictly in the template below.

ARTICLE:
Title: %s
Content: %s

TASKS:
1. Write a concise summary (2-4 sentences, plain text, no preamble).
2. Pick ONE category: Technology, Politics, Business, Health, Sports or General.
3. Pick ONE sentiment: positive, negative or neutral.
4. List up to five topical tags, comma separated, lowercase.

FORMAT:

SUMMARY: <summary>

CATEGORY: <category>

SENTIMENT: <sentiment>

TAGS: <tag1, tag2, ...>
`, title, content)
}

var enrichLabels = []struct {
	name  string
	regex *regexp.Regexp
}{
	{"summary", regexp.MustCompile(`(?i)^\**\s*SUMMARY\s*\**\s*: ?`)},
	{"category", regexp.MustCompile(`(?i)^\**\s*CATEGORY\s*\**\s*: ?`)},
	{"sentiment", regexp.MustCompile(`(?i)^\**\s*SENTIMENT\s*\**\s*: ?`)},
	{"tags", regexp.MustCompile(`(?i)^\**\s*TAGS\s*\**\s*: ?`)},
}

// parseEnrichment reads the labeled response format. Sections may span
// several lines; unlabeled leading lines are ignored. Missing sections come
// back empty and the caller fills them in.
func parseEnrichment(response string) news.Enrichment {
	sections := map[string]*strings.Builder{
		"summary":   {},
		"category":  {},
		"sentiment": {},
		"tags":      {},
	}

	current := ""
	for _, raw := range strings.Split(response, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		matched := false
		for _, lp := range enrichLabels {
			if lp.regex.MatchString(line) {
				current = lp.name
				rest := strings.TrimSpace(lp.regex.ReplaceAllString(line, ""))
				appendSection(sections[current], rest)
				matched = true
				break
			}
		}
		if matched || current == "" {
			continue
		}
		appendSection(sections[current], line)
	}

	return news.Enrichment{
		Summary:   cleanAIText(sections["summary"].String()),
		Category:  cleanCategory(sections["category"].String()),
		Sentiment: normalizeSentiment(sections["sentiment"].String()),
		Tags:      splitTags(sections["tags"].String()),
	}
}

func appendSection(b *strings.Builder, text string) {
	if text == "" {
		return
	}
	if b.Len() > 0 {
		b.WriteString(" ")
	}
	b.WriteString(text)
}

var aiDisclaimerRe = regexp.MustCompile(`(?i)[\(\[]\s*note:[^)\]]*[\)\]]`)

// cleanAIText strips markdown emphasis and model disclaimers.
func cleanAIText(s string) string {
	s = aiDisclaimerRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "**", "")
	return strings.TrimSpace(strings.Join(strings.Fields(s), " "))
}

func cleanCategory(s string) string {
	s = cleanAIText(s)
	s = strings.Trim(s, ".")
	if s == "" || utf8.RuneCountInString(s) > 40 {
		return ""
	}
	return s
}

func splitTags(s string) []string {
	var tags []string
	for _, part := range strings.Split(cleanAIText(s), ",") {
		tag := strings.ToLower(strings.TrimSpace(strings.TrimLeft(part, "#-• ")))
		tag = strings.Trim(tag, ".")
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	if len(tags) > 5 {
		tags = tags[:5]
	}
	return tags
}
