// Package store persists pipeline state in MongoDB. Four collections:
// raw article staging, published articles, feed checkpoints and the run
// audit log. Unique indexes on url are the only dedup mechanism; duplicate
// inserts are treated as no-ops, never as errors.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/newsforge/newsforge/internal/news"
	"github.com/newsforge/newsforge/internal/retry"
)

const (
	rawCollection      = "raw_articles"
	articlesCollection = "articles"
	feedsCollection    = "feeds_metadata"
	runsCollection     = "pipeline_runs"
)

type Mongo struct {
	client   *mongo.Client
	raw      *mongo.Collection
	articles *mongo.Collection
	feeds    *mongo.Collection
	runs     *mongo.Collection
}

// Connect opens the MongoDB connection, pinging with retry so a slow
// database at process start does not kill the service.
func Connect(ctx context.Context, uri, database string, retryCfg retry.Config) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	err = retry.WithRetry(ctx, retryCfg, func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return client.Ping(pingCtx, nil)
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(database)
	m := &Mongo{
		client:   client,
		raw:      db.Collection(rawCollection),
		articles: db.Collection(articlesCollection),
		feeds:    db.Collection(feedsCollection),
		runs:     db.Collection(runsCollection),
	}

	if err := m.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	return m, nil
}

func (m *Mongo) ensureIndexes(ctx context.Context) error {
	urlUnique := mongo.IndexModel{
		Keys:    bson.D{{Key: "url", Value: 1}},
		Options: options.Index().SetUnique(true),
	}

	for _, coll := range []*mongo.Collection{m.raw, m.articles, m.feeds} {
		if _, err := coll.Indexes().CreateOne(ctx, urlUnique); err != nil {
			return fmt.Errorf("create index on %s: %w", coll.Name(), err)
		}
	}

	timestamp := mongo.IndexModel{Keys: bson.D{{Key: "timestamp", Value: -1}}}
	if _, err := m.runs.Indexes().CreateOne(ctx, timestamp); err != nil {
		return fmt.Errorf("create index on %s: %w", m.runs.Name(), err)
	}

	return nil
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// IsKnown reports whether a raw article with this URL was ever staged.
func (m *Mongo) IsKnown(ctx context.Context, url string) (bool, error) {
	err := m.raw.FindOne(ctx, bson.M{"url": url}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("find raw article: %w", err)
	}
	return true, nil
}

// StageRaw inserts a raw article once. A duplicate URL, from a concurrent run or a
// repeated feed entry, is a silent no-op and returns false.
func (m *Mongo) StageRaw(ctx context.Context, raw news.RawArticle) (bool, error) {
	_, err := m.raw.InsertOne(ctx, raw)
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stage raw article: %w", err)
	}
	return true, nil
}

// Checkpoint upserts the last fetch attempt timestamp for a feed. It runs
// after every attempt, whether or not new items were found.
func (m *Mongo) Checkpoint(ctx context.Context, feedURL string, at time.Time) error {
	_, err := m.feeds.UpdateOne(ctx,
		bson.M{"url": feedURL},
		bson.M{"$set": bson.M{"last_fetched_at": at}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("checkpoint feed %s: %w", feedURL, err)
	}
	return nil
}

// FeedCheckpoint returns the stored checkpoint for a feed, if any.
func (m *Mongo) FeedCheckpoint(ctx context.Context, feedURL string) (*news.FeedCheckpoint, error) {
	var cp news.FeedCheckpoint
	err := m.feeds.FindOne(ctx, bson.M{"url": feedURL}).Decode(&cp)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find feed checkpoint: %w", err)
	}
	return &cp, nil
}

// ArticleExists reports whether a published article exists for the URL.
func (m *Mongo) ArticleExists(ctx context.Context, url string) (bool, error) {
	err := m.articles.FindOne(ctx, bson.M{"url": url}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("find article: %w", err)
	}
	return true, nil
}

// InsertArticle publishes an enriched article. A duplicate-key race with a
// concurrent run is tolerated as a no-op.
func (m *Mongo) InsertArticle(ctx context.Context, a news.Article) error {
	_, err := m.articles.InsertOne(ctx, a)
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("insert article: %w", err)
	}
	return nil
}

// AppendRun appends one audit record; the log is never mutated or pruned.
func (m *Mongo) AppendRun(ctx context.Context, run news.PipelineRun) error {
	_, err := m.runs.InsertOne(ctx, run)
	if err != nil {
		return fmt.Errorf("append pipeline run: %w", err)
	}
	return nil
}
