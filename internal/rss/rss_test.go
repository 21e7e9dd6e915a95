package rss

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/">
<channel>
<title>Example World News</title>
<item>
  <title>Alpha story</title>
  <link>https://example.com/articles/alpha</link>
  <description>Short alpha summary &lt;img src="https://img.example.com/inline-alpha.jpg"&gt;</description>
  <pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate>
  <category>world</category>
  <category>politics</category>
  <media:thumbnail url="https://img.example.com/thumb-alpha.jpg" width="640"/>
</item>
<item>
  <title>Beta story</title>
  <link>https://example.com/articles/beta</link>
  <description>Beta summary</description>
</item>
<item>
  <title>No link entry</title>
  <description>dropped</description>
</item>
</channel>
</rss>`

func TestParse(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer server.Close()

	articles, err := NewParser().Parse(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	if len(articles) != 2 {
		t.Fatalf("expected 2 articles (link-less entry dropped), got %d", len(articles))
	}

	alpha := articles[0]
	if alpha.URL != "https://example.com/articles/alpha" {
		t.Errorf("unexpected url: %s", alpha.URL)
	}
	if alpha.Title != "Alpha story" {
		t.Errorf("unexpected title: %s", alpha.Title)
	}
	if alpha.Source != "Example World News" {
		t.Errorf("unexpected source: %s", alpha.Source)
	}
	if alpha.PublishedAt == nil {
		t.Error("expected published timestamp to be parsed")
	}
	if len(alpha.Tags) != 2 || alpha.Tags[0] != "world" {
		t.Errorf("unexpected tags: %v", alpha.Tags)
	}
	if alpha.Content != "" {
		t.Errorf("feed has no full content, expected empty, got %q", alpha.Content)
	}

	// media:thumbnail must win over the inline <img> in the description.
	if alpha.ImageURL != "https://img.example.com/thumb-alpha.jpg" {
		t.Errorf("expected thumbnail image, got %s", alpha.ImageURL)
	}

	beta := articles[1]
	if beta.PublishedAt != nil {
		t.Errorf("entry without pubDate should have nil timestamp, got %v", beta.PublishedAt)
	}
	if beta.ImageURL != "" {
		t.Errorf("entry without images should yield none, got %s", beta.ImageURL)
	}
}

func TestParseMalformedFeed(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("this is not a feed"))
	}))
	defer server.Close()

	articles, err := NewParser().Parse(context.Background(), server.URL)
	if err == nil {
		t.Fatal("expected error for malformed feed")
	}
	if len(articles) != 0 {
		t.Fatalf("expected zero candidates, got %d", len(articles))
	}
}

func mediaItem(name string, attrs ...map[string]string) *gofeed.Item {
	exts := make([]ext.Extension, 0, len(attrs))
	for _, a := range attrs {
		exts = append(exts, ext.Extension{Name: name, Attrs: a})
	}
	return &gofeed.Item{
		Extensions: ext.Extensions{
			"media": {name: exts},
		},
	}
}

func TestExtractImagePrefersWidestMediaContent(t *testing.T) {
	t.Parallel()

	item := mediaItem("content",
		map[string]string{"url": "https://img.example.com/small.jpg", "width": "320", "medium": "image"},
		map[string]string{"url": "https://img.example.com/large.jpg", "width": "1280", "medium": "image"},
		map[string]string{"url": "https://video.example.com/clip.mp4", "medium": "video", "width": "1920"},
	)

	if got := ExtractImage(item); got != "https://img.example.com/large.jpg" {
		t.Errorf("expected widest image media:content, got %s", got)
	}
}

func TestExtractImageMediaGroup(t *testing.T) {
	t.Parallel()

	item := &gofeed.Item{
		Extensions: ext.Extensions{
			"media": {"group": []ext.Extension{{
				Name: "group",
				Children: map[string][]ext.Extension{
					"content": {{Name: "content", Attrs: map[string]string{
						"url": "https://img.example.com/grouped.jpg", "type": "image/jpeg",
					}}},
				},
			}}},
		},
	}

	if got := ExtractImage(item); got != "https://img.example.com/grouped.jpg" {
		t.Errorf("expected grouped media:content image, got %s", got)
	}
}

func TestExtractImageEnclosureFallback(t *testing.T) {
	t.Parallel()

	item := &gofeed.Item{
		Enclosures: []*gofeed.Enclosure{
			{URL: "https://example.com/audio.mp3", Type: "audio/mpeg"},
			{URL: "https://img.example.com/enc.png", Type: "image/png"},
		},
		Content: `<p>text</p><img src="https://img.example.com/inline.png">`,
	}

	if got := ExtractImage(item); got != "https://img.example.com/enc.png" {
		t.Errorf("expected image enclosure before inline tag, got %s", got)
	}
}

func TestExtractImageInlineFallback(t *testing.T) {
	t.Parallel()

	item := &gofeed.Item{
		Description: `leading text <img class="x" src="https://img.example.com/desc.jpg" alt="y">`,
	}

	if got := ExtractImage(item); got != "https://img.example.com/desc.jpg" {
		t.Errorf("expected inline image from description, got %s", got)
	}

	if got := ExtractImage(&gofeed.Item{}); got != "" {
		t.Errorf("item without any image should yield empty, got %s", got)
	}
}

func TestLoadFeeds(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "feeds.yaml")
	content := "feeds:\n  - https://example.com/rss\n  - https://example.org/feed.xml\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	feeds, err := LoadFeeds(path)
	if err != nil {
		t.Fatalf("LoadFeeds error: %v", err)
	}
	if len(feeds) != 2 || feeds[0] != "https://example.com/rss" {
		t.Fatalf("unexpected feeds: %v", feeds)
	}

	if _, err := LoadFeeds(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
