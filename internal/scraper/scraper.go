// Package scraper extracts article text from web pages when the feed itself
// did not carry a full body.
package scraper

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/newsforge/newsforge/internal/news"
)

// Client fetches article pages with a bounded timeout.
type Client struct {
	http *http.Client
}

func New(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{http: &http.Client{Timeout: timeout}}
}

// Scrape downloads an article page and extracts its paragraph text plus the
// first image as a fallback illustration. A non-2xx response, timeout, parse
// error or empty body all come back as an error; the caller drops the article
// from the current run.
func (c *Client) Scrape(ctx context.Context, url string) (news.PageContent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return news.PageContent{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "newsforge/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return news.PageContent{}, fmt.Errorf("load page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return news.PageContent{}, fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return news.PageContent{}, fmt.Errorf("parse HTML: %w", err)
	}

	content := extractContent(doc)
	if content == "" {
		return news.PageContent{}, fmt.Errorf("no content extracted from %s", url)
	}

	page := news.PageContent{Content: content}
	if src, ok := doc.Find("img").First().Attr("src"); ok {
		page.ImageURL = strings.TrimSpace(src)
	}

	return page, nil
}

// extractContent tries the most common article selectors and falls back to
// bare paragraphs. Three good paragraphs are enough to stop probing.
func extractContent(doc *goquery.Document) string {
	selectors := []string{
		"article p",
		".article-body p",
		".article p",
		".content p",
		".post-content p",
		".entry-content p",
		"main p",
		"p",
	}

	var paragraphs []string
	for _, selector := range selectors {
		doc.Find(selector).Each(func(i int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			if len(text) > 20 && !isJunkLine(text) {
				paragraphs = append(paragraphs, text)
			}
		})
		if len(paragraphs) >= 3 {
			break
		}
		paragraphs = paragraphs[:0]
	}

	// Short pages still count as long as something was extracted.
	if len(paragraphs) == 0 {
		doc.Find("p").Each(func(i int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			if text != "" {
				paragraphs = append(paragraphs, text)
			}
		})
	}

	return normalize(strings.Join(paragraphs, "\n"))
}

var junkIndicators = []string{
	"cookie", "gdpr", "subscribe to", "sign up for", "newsletter",
	"all rights reserved", "follow us", "share this article",
	"advertisement", "read more:",
}

func isJunkLine(line string) bool {
	lower := strings.ToLower(line)
	for _, indicator := range junkIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}

func normalize(content string) string {
	for strings.Contains(content, "  ") {
		content = strings.ReplaceAll(content, "  ", " ")
	}
	for strings.Contains(content, "\n\n\n") {
		content = strings.ReplaceAll(content, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(content)
}
