// Package news holds the domain types shared by the ingestion pipeline,
// the document store and the enrichment stage.
package news

import "time"

// Sentiment labels produced by the enrichment stage.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// CategoryGeneral is the fallback category when classification fails.
const CategoryGeneral = "General"

// RawArticle is an article as captured from a feed, before enrichment.
// One record exists per distinct URL; it is never updated after staging.
type RawArticle struct {
	URL         string     `bson:"url" json:"url"`
	Title       string     `bson:"title" json:"title"`
	Summary     string     `bson:"summary" json:"summary"`
	Content     string     `bson:"content" json:"content"`
	PublishedAt *time.Time `bson:"published_at,omitempty" json:"published_at,omitempty"`
	Source      string     `bson:"source" json:"source"`
	Tags        []string   `bson:"tags" json:"tags"`
	ImageURL    string     `bson:"image_url,omitempty" json:"image_url,omitempty"`
	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
}

// Enrichment is the output of the enrichment stage. Every field is always
// populated: enrichers degrade to per-field defaults instead of failing.
type Enrichment struct {
	Summary   string
	Category  string
	Sentiment string
	Tags      []string
}

// Article is a published, enriched article. Created exactly once per URL;
// the vote/comment/view counters are mutated by side channels afterwards.
type Article struct {
	URL           string    `bson:"url" json:"url"`
	Title         string    `bson:"title" json:"title"`
	Summary       string    `bson:"summary" json:"summary"`
	Content       string    `bson:"content" json:"content"`
	Category      string    `bson:"category" json:"category"`
	Tags          []string  `bson:"tags" json:"tags"`
	Sentiment     string    `bson:"sentiment" json:"sentiment"`
	ImageURL      string    `bson:"image_url,omitempty" json:"image_url,omitempty"`
	SourceURL     string    `bson:"source_url" json:"source_url"`
	Author        string    `bson:"author" json:"author"`
	Upvotes       int       `bson:"upvotes" json:"upvotes"`
	Downvotes     int       `bson:"downvotes" json:"downvotes"`
	CommentsCount int       `bson:"comments_count" json:"comments_count"`
	Views         int       `bson:"views" json:"views"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at" json:"updated_at"`
}

// Comment is attached to an article by readers.
type Comment struct {
	Author    string    `bson:"author" json:"author"`
	Text      string    `bson:"text" json:"text"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// PageContent is what the scraper extracts from an article page.
type PageContent struct {
	Content  string
	ImageURL string
}

// FeedCheckpoint records the last fetch attempt for a feed. It is upserted
// after every attempt, so a stale checkpoint means the feed stopped being
// polled successfully.
type FeedCheckpoint struct {
	URL           string    `bson:"url" json:"url"`
	LastFetchedAt time.Time `bson:"last_fetched_at" json:"last_fetched_at"`
}

// PipelineRun is one appended audit record per orchestrator invocation.
type PipelineRun struct {
	Timestamp  time.Time `bson:"timestamp" json:"timestamp"`
	Fetched    int       `bson:"fetched" json:"fetched"`
	Processed  int       `bson:"processed" json:"processed"`
	NLPSuccess int       `bson:"nlp_success" json:"nlp_success"`
	NLPFail    int       `bson:"nlp_fail" json:"nlp_fail"`
}

// CategoryCount is one bucket of a grouped aggregation over articles.
type CategoryCount struct {
	Category string `bson:"_id" json:"label"`
	Count    int    `bson:"count" json:"count"`
}

// SentimentCount is one bucket of the sentiment aggregation.
type SentimentCount struct {
	Sentiment string `bson:"_id" json:"label"`
	Count     int    `bson:"count" json:"count"`
}
