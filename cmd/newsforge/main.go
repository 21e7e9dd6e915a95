package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/newsforge/newsforge/internal/config"
	"github.com/newsforge/newsforge/internal/enrich"
	"github.com/newsforge/newsforge/internal/logger"
	"github.com/newsforge/newsforge/internal/metrics"
	"github.com/newsforge/newsforge/internal/news"
	"github.com/newsforge/newsforge/internal/pipeline"
	"github.com/newsforge/newsforge/internal/ratelimit"
	"github.com/newsforge/newsforge/internal/retry"
	"github.com/newsforge/newsforge/internal/rss"
	"github.com/newsforge/newsforge/internal/scraper"
	"github.com/newsforge/newsforge/internal/store"
)

func main() {
	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	feeds, err := rss.LoadFeeds(cfg.FeedsConfigPath)
	if err != nil {
		log.Fatalf("load feeds list: %v", err)
	}
	if len(feeds) == 0 {
		log.Fatalf("no feeds configured in %s", cfg.FeedsConfigPath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, retry.Config{
		MaxAttempts: cfg.RetryAttempts,
		Delay:       cfg.RetryDelay,
		Backoff:     true,
	})
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = db.Close(closeCtx)
	}()

	// The enricher is constructed once here and injected; Gemini when a key
	// is configured, the local keyword enricher otherwise.
	var enricher enrich.Enricher
	if cfg.GeminiAPIKey != "" {
		gem, err := enrich.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Fatalf("gemini: %v", err)
		}
		defer gem.Close()
		enricher = enrich.NewCached(gem, ratelimit.NewBudget(cfg.MaxEnrichRequests), cfg.EnrichCacheTTL)
		logger.Info("enricher ready", "backend", "gemini", "model", cfg.GeminiModel)
	} else {
		enricher = enrich.NewKeyword()
		logger.Info("enricher ready", "backend", "keyword")
	}

	pipe := pipeline.New(pipeline.Deps{
		Fetcher:     rss.NewParser(),
		Scraper:     scraper.New(cfg.ScrapeTimeout),
		Enricher:    enricher,
		Staging:     db,
		Articles:    db,
		Runs:        db,
		Logger:      logger.Logger,
		Concurrency: cfg.ProcessConcurrency,
	})

	if cfg.MonitoringEnabled {
		go startMonitoringServer(cfg.MonitoringPort, pipe, db, feeds)
	}

	sched := pipeline.NewScheduler(pipe, feeds, cfg.FetchInterval, logger.Logger)
	sched.Start(ctx)
}

func startMonitoringServer(port string, pipe *pipeline.Pipeline, db *store.Mongo, feeds []string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/metrics", metricsHandler)
	mux.HandleFunc("/run", runHandler(pipe, feeds))
	mux.HandleFunc("/articles", articlesHandler(db))
	mux.HandleFunc("/articles/vote", voteHandler(db))
	mux.HandleFunc("/articles/comment", commentHandler(db))
	mux.HandleFunc("/articles/view", viewHandler(db))
	mux.HandleFunc("/articles/tag", tagHandler(db))
	mux.HandleFunc("/stats", statsHandler(db))
	mux.HandleFunc("/runs", runsHandler(db))
	mux.HandleFunc("/feeds", feedsHandler(db, feeds))
	mux.HandleFunc("/pending", pendingHandler(db))

	log.Printf("Starting monitoring server on port %s", port)
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		log.Printf("Monitoring server error: %v", err)
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	stats := metrics.Global.GetStats()

	status := "ok"
	if !stats["is_healthy"].(bool) {
		status = "error"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	response := map[string]interface{}{
		"status":     status,
		"last_run":   stats["last_run_time"],
		"last_error": stats["last_error"],
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func metricsHandler(w http.ResponseWriter, r *http.Request) {
	stats := metrics.Global.GetStats()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// runHandler is the operator trigger: synchronously runs one full cycle and
// reports how many articles were processed successfully.
func runHandler(pipe *pipeline.Pipeline, feeds []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		run, err := pipe.Run(r.Context(), feeds)
		if errors.Is(err, pipeline.ErrRunInProgress) {
			http.Error(w, "run already in progress", http.StatusConflict)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]int{
			"processed_articles": run.NLPSuccess,
		})
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func articlesHandler(db *store.Mongo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

		articles, err := db.ListArticles(r.Context(), page, perPage)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if articles == nil {
			articles = []news.Article{}
		}
		writeJSON(w, articles)
	}
}

func voteHandler(db *store.Mongo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		url := r.URL.Query().Get("url")
		dir := r.URL.Query().Get("dir")
		if url == "" || (dir != "up" && dir != "down") {
			http.Error(w, "url and dir=up|down are required", http.StatusBadRequest)
			return
		}

		if err := db.VoteArticle(r.Context(), url, dir == "up"); err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func commentHandler(db *store.Mongo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		url := r.URL.Query().Get("url")
		var c news.Comment
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil || url == "" || c.Text == "" {
			http.Error(w, "url and a comment body are required", http.StatusBadRequest)
			return
		}

		if err := db.AddComment(r.Context(), url, c); err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func viewHandler(db *store.Mongo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		url := r.URL.Query().Get("url")
		if url == "" {
			http.Error(w, "url is required", http.StatusBadRequest)
			return
		}

		if err := db.IncrementViews(r.Context(), url); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func tagHandler(db *store.Mongo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		url := r.URL.Query().Get("url")
		tag := r.URL.Query().Get("tag")
		if url == "" || tag == "" {
			http.Error(w, "url and tag are required", http.StatusBadRequest)
			return
		}

		if err := db.AddArticleTag(r.Context(), url, tag); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func statsHandler(db *store.Mongo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := db.CategoryCounts(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		sentiments, err := db.SentimentCounts(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		writeJSON(w, map[string]interface{}{
			"categories": categories,
			"sentiments": sentiments,
		})
	}
}

func runsHandler(db *store.Mongo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		runs, err := db.RecentRuns(r.Context(), limit)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if runs == nil {
			runs = []news.PipelineRun{}
		}
		writeJSON(w, runs)
	}
}

// feedsHandler reports the configured feeds with their last fetch attempt.
// A stale checkpoint is the signal that a feed stopped being polled.
func feedsHandler(db *store.Mongo, feeds []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out := make([]news.FeedCheckpoint, 0, len(feeds))
		for _, feedURL := range feeds {
			cp, err := db.FeedCheckpoint(r.Context(), feedURL)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			if cp == nil {
				cp = &news.FeedCheckpoint{URL: feedURL}
			}
			out = append(out, *cp)
		}
		writeJSON(w, out)
	}
}

// pendingHandler lists staged articles that never made it to publication,
// so an operator can see what a scrape or enrichment outage left behind.
func pendingHandler(db *store.Mongo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		pending, err := db.PendingRawArticles(r.Context(), limit)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if pending == nil {
			pending = []news.RawArticle{}
		}
		writeJSON(w, pending)
	}
}
