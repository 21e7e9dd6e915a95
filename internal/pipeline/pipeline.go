// Package pipeline orchestrates one ingestion run: fetch all feeds, stage
// unseen articles, process them with bounded concurrency and append an
// audit record. Individual feed and article failures are isolated; nothing
// inside a run is fatal to the process.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/newsforge/newsforge/internal/enrich"
	"github.com/newsforge/newsforge/internal/metrics"
	"github.com/newsforge/newsforge/internal/news"
)

// ErrRunInProgress is returned when a run is requested while another one is
// still in flight. Callers skip the trigger instead of queueing it.
var ErrRunInProgress = errors.New("pipeline run already in progress")

// Fetcher parses one feed URL into raw article candidates.
type Fetcher interface {
	Parse(ctx context.Context, feedURL string) ([]news.RawArticle, error)
}

// Scraper extracts page content for articles whose feed had no body.
type Scraper interface {
	Scrape(ctx context.Context, url string) (news.PageContent, error)
}

// Staging is the dedup ledger: URL uniqueness decides novelty, and staging
// a known URL is a no-op.
type Staging interface {
	IsKnown(ctx context.Context, url string) (bool, error)
	StageRaw(ctx context.Context, raw news.RawArticle) (bool, error)
	Checkpoint(ctx context.Context, feedURL string, at time.Time) error
}

// Articles is the published-article sink.
type Articles interface {
	ArticleExists(ctx context.Context, url string) (bool, error)
	InsertArticle(ctx context.Context, a news.Article) error
}

// RunLog appends one audit record per run.
type RunLog interface {
	AppendRun(ctx context.Context, run news.PipelineRun) error
}

type Deps struct {
	Fetcher     Fetcher
	Scraper     Scraper
	Enricher    enrich.Enricher
	Staging     Staging
	Articles    Articles
	Runs        RunLog
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
	Concurrency int // max concurrent article-processing tasks
}

type Pipeline struct {
	fetcher     Fetcher
	scraper     Scraper
	enricher    enrich.Enricher
	staging     Staging
	articles    Articles
	runs        RunLog
	metrics     *metrics.Metrics
	logger      *slog.Logger
	concurrency int

	running atomic.Bool
}

func New(deps Deps) *Pipeline {
	if deps.Concurrency <= 0 {
		deps.Concurrency = 5
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.Global
	}

	return &Pipeline{
		fetcher:     deps.Fetcher,
		scraper:     deps.Scraper,
		enricher:    deps.Enricher,
		staging:     deps.Staging,
		articles:    deps.Articles,
		runs:        deps.Runs,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
		concurrency: deps.Concurrency,
	}
}

type articleStatus int

const (
	statusSuccess articleStatus = iota
	statusSkipped
	statusFailed
)

// Run executes one full cycle over the given feed list and returns the
// appended audit record. A second concurrent call gets ErrRunInProgress:
// scheduled ticks and manual triggers never overlap.
func (p *Pipeline) Run(ctx context.Context, feedURLs []string) (news.PipelineRun, error) {
	if !p.running.CompareAndSwap(false, true) {
		return news.PipelineRun{}, ErrRunInProgress
	}
	defer p.running.Store(false)

	start := time.Now()

	var (
		mu      sync.Mutex
		fetched int
		fresh   []news.RawArticle
		wg      sync.WaitGroup
	)

	for _, feedURL := range feedURLs {
		wg.Add(1)
		go func(feedURL string) {
			defer wg.Done()

			items, err := p.fetcher.Parse(ctx, feedURL)
			if err != nil {
				p.logger.Warn("feed fetch failed", "feed", feedURL, "error", err)
			}

			staged := p.stageFeed(ctx, feedURL, items)

			mu.Lock()
			fetched += len(items)
			fresh = append(fresh, staged...)
			mu.Unlock()

			// Checkpoint after every attempt, found items or not. A stale
			// checkpoint is itself the health signal for a dead feed.
			if err := p.staging.Checkpoint(ctx, feedURL, time.Now().UTC()); err != nil {
				p.logger.Warn("feed checkpoint failed", "feed", feedURL, "error", err)
			}
		}(feedURL)
	}
	wg.Wait()

	var success, fail int64
	sem := make(chan struct{}, p.concurrency)
	var procWG sync.WaitGroup

	for _, raw := range fresh {
		procWG.Add(1)
		go func(raw news.RawArticle) {
			defer procWG.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			switch p.processOne(ctx, raw) {
			case statusSuccess:
				atomic.AddInt64(&success, 1)
			case statusFailed:
				atomic.AddInt64(&fail, 1)
			}
		}(raw)
	}
	procWG.Wait()

	run := news.PipelineRun{
		Timestamp:  time.Now().UTC(),
		Fetched:    fetched,
		Processed:  len(fresh),
		NLPSuccess: int(success),
		NLPFail:    int(fail),
	}

	// The audit record is written even when the run did nothing or
	// everything in it failed.
	if err := p.runs.AppendRun(ctx, run); err != nil {
		p.logger.Error("append run log failed", "error", err)
	}

	p.metrics.RecordRun(run, len(fresh), time.Since(start))
	p.logger.Info("pipeline run complete",
		"fetched", run.Fetched,
		"processed", run.Processed,
		"nlp_success", run.NLPSuccess,
		"nlp_fail", run.NLPFail,
		"duration", time.Since(start).Round(time.Millisecond))

	return run, nil
}

// stageFeed stages unseen items in feed entry order and returns the ones
// this run is responsible for processing.
func (p *Pipeline) stageFeed(ctx context.Context, feedURL string, items []news.RawArticle) []news.RawArticle {
	var staged []news.RawArticle

	for _, item := range items {
		known, err := p.staging.IsKnown(ctx, item.URL)
		if err != nil {
			p.logger.Warn("dedup check failed", "url", item.URL, "error", err)
			continue
		}
		if known {
			continue
		}

		item.CreatedAt = time.Now().UTC()
		inserted, err := p.staging.StageRaw(ctx, item)
		if err != nil {
			p.logger.Warn("staging failed", "url", item.URL, "error", err)
			continue
		}
		if !inserted {
			// Lost the race to another run or a duplicate entry in the
			// same feed; the winner processes it.
			continue
		}

		staged = append(staged, item)
	}

	if len(staged) > 0 {
		p.logger.Info("staged new articles", "feed", feedURL, "count", len(staged))
	}
	return staged
}

func (p *Pipeline) processOne(ctx context.Context, raw news.RawArticle) articleStatus {
	exists, err := p.articles.ArticleExists(ctx, raw.URL)
	if err != nil {
		p.logger.Warn("article lookup failed", "url", raw.URL, "error", err)
		return statusFailed
	}
	if exists {
		// Staged in an earlier run and already published. No-op.
		return statusSkipped
	}

	content := raw.Content
	imageURL := raw.ImageURL
	if content == "" {
		page, err := p.scraper.Scrape(ctx, raw.URL)
		if err != nil {
			p.logger.Debug("scrape failed, dropping article from this run", "url", raw.URL, "error", err)
			return statusFailed
		}
		content = page.Content
		if imageURL == "" {
			imageURL = page.ImageURL
		}
	}
	if content == "" {
		return statusFailed
	}

	enrichment := p.enricher.Enrich(ctx, raw.Title, content)

	now := time.Now().UTC()
	article := news.Article{
		URL:       raw.URL,
		Title:     raw.Title,
		Summary:   enrichment.Summary,
		Content:   content,
		Category:  enrichment.Category,
		Tags:      enrichment.Tags,
		Sentiment: enrichment.Sentiment,
		ImageURL:  imageURL,
		SourceURL: raw.URL,
		Author:    "system",
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := p.articles.InsertArticle(ctx, article); err != nil {
		// Duplicate-key races surface as nil from the store; anything else
		// is logged and swallowed at article granularity.
		p.logger.Warn("insert article failed", "url", raw.URL, "error", err)
	}

	return statusSuccess
}
