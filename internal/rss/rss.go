// Package rss fetches syndication feeds and turns entries into raw articles.
package rss

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/mmcdole/gofeed"
	"gopkg.in/yaml.v3"

	"github.com/newsforge/newsforge/internal/news"
)

// FeedsConfig is YAML config structure
// feeds:
//   - https://...
type FeedsConfig struct {
	Feeds []string `yaml:"feeds"`
}

// LoadFeeds reads the RSS feeds list from a YAML file.
func LoadFeeds(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg FeedsConfig
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}
	return cfg.Feeds, nil
}

// Parser wraps gofeed and converts feed entries into news.RawArticle values.
type Parser struct {
	parser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{parser: gofeed.NewParser()}
}

// Parse downloads one feed and returns its entries as raw article candidates.
// It is a pure function of the feed's current content; entries without a link
// are dropped. A network or parse error returns zero candidates.
func (p *Parser) Parse(ctx context.Context, feedURL string) ([]news.RawArticle, error) {
	feed, err := p.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feedURL, err)
	}

	articles := make([]news.RawArticle, 0, len(feed.Items))
	for _, item := range feed.Items {
		link := strings.TrimSpace(item.Link)
		if link == "" {
			continue
		}

		raw := news.RawArticle{
			URL:      link,
			Title:    strings.TrimSpace(item.Title),
			Summary:  strings.TrimSpace(item.Description),
			Content:  strings.TrimSpace(item.Content),
			Source:   feed.Title,
			Tags:     item.Categories,
			ImageURL: ExtractImage(item),
		}

		if item.PublishedParsed != nil {
			t := *item.PublishedParsed
			raw.PublishedAt = &t
		} else if item.UpdatedParsed != nil {
			t := *item.UpdatedParsed
			raw.PublishedAt = &t
		}

		articles = append(articles, raw)
	}

	return articles, nil
}

var inlineImgRe = regexp.MustCompile(`<img[^>]+src=["']?([^"'\s>]+)`)

// ExtractImage picks the best image URL for a feed entry. Fallback order:
// media:content (widest), media:thumbnail (widest), image enclosure, first
// inline <img> in content or summary. Empty string means no image, which is
// a valid outcome.
func ExtractImage(item *gofeed.Item) string {
	if u := widestMediaURL(item, "content"); u != "" {
		return u
	}
	if u := widestMediaURL(item, "thumbnail"); u != "" {
		return u
	}
	for _, enc := range item.Enclosures {
		if enc != nil && enc.URL != "" && strings.HasPrefix(enc.Type, "image/") {
			return enc.URL
		}
	}
	if u := firstInlineImage(item.Content); u != "" {
		return u
	}
	return firstInlineImage(item.Description)
}

// widestMediaURL scans media:<name> extensions, including ones nested under
// media:group, preferring the highest declared width.
func widestMediaURL(item *gofeed.Item, name string) string {
	best := ""
	bestWidth := -1

	consider := func(attrs map[string]string) {
		u := attrs["url"]
		if u == "" {
			return
		}
		if t := attrs["type"]; t != "" && !strings.HasPrefix(t, "image") {
			return
		}
		if m := attrs["medium"]; m != "" && m != "image" {
			return
		}
		w, _ := strconv.Atoi(attrs["width"])
		if w > bestWidth {
			best = u
			bestWidth = w
		}
	}

	media, ok := item.Extensions["media"]
	if !ok {
		return ""
	}
	for _, e := range media[name] {
		consider(e.Attrs)
	}
	for _, group := range media["group"] {
		for _, e := range group.Children[name] {
			consider(e.Attrs)
		}
	}

	return best
}

func firstInlineImage(html string) string {
	m := inlineImgRe.FindStringSubmatch(html)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}
