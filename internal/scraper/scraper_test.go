package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const articlePage = `<!DOCTYPE html>
<html>
<head><title>Story</title></head>
<body>
<img src="https://img.example.com/lead.jpg">
<nav><p>Subscribe to our newsletter for updates!</p></nav>
<article>
<p>The first paragraph of the story carries enough words to pass the filter.</p>
<p>A second paragraph continues the account with additional reporting detail.</p>
<p>The third paragraph closes out the article with final remarks and context.</p>
<p>ok</p>
</article>
<footer><p>All rights reserved. Follow us on social media.</p></footer>
</body>
</html>`

func TestScrape(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); !strings.HasPrefix(got, "newsforge/") {
			t.Errorf("unexpected user agent: %s", got)
		}
		_, _ = w.Write([]byte(articlePage))
	}))
	defer server.Close()

	page, err := New(5*time.Second).Scrape(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Scrape error: %v", err)
	}

	if !strings.Contains(page.Content, "first paragraph of the story") {
		t.Errorf("content missing article body: %q", page.Content)
	}
	if strings.Contains(page.Content, "newsletter") || strings.Contains(page.Content, "rights reserved") {
		t.Errorf("boilerplate leaked into content: %q", page.Content)
	}
	if strings.Contains(page.Content, "\nok") {
		t.Errorf("too-short paragraph should be dropped: %q", page.Content)
	}
	if page.ImageURL != "https://img.example.com/lead.jpg" {
		t.Errorf("unexpected image: %s", page.ImageURL)
	}
}

func TestScrapeShortPageFallsBackToAllParagraphs(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><div><p>Brief note.</p></div></body></html>`))
	}))
	defer server.Close()

	page, err := New(5*time.Second).Scrape(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Scrape error: %v", err)
	}
	if page.Content != "Brief note." {
		t.Errorf("unexpected content: %q", page.Content)
	}
}

func TestScrapeHTTPError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	if _, err := New(5*time.Second).Scrape(context.Background(), server.URL); err == nil {
		t.Fatal("expected error for 404 response")
	}
}

func TestScrapeEmptyPage(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><div>no paragraphs here</div></body></html>`))
	}))
	defer server.Close()

	if _, err := New(5*time.Second).Scrape(context.Background(), server.URL); err == nil {
		t.Fatal("expected error for page without extractable content")
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	got := normalize("a   b\n\n\n\nc  d ")
	if got != "a b\n\nc d" {
		t.Errorf("normalize: got %q", got)
	}
}
