package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/newsforge/newsforge/internal/news"
)

// Serving-side operations: listing, vote/comment/view side channels and
// analytics aggregations. The pipeline never calls these; they back the
// surrounding HTTP layer.

// ListArticles returns one page of published articles, newest first.
func (m *Mongo) ListArticles(ctx context.Context, page, perPage int) ([]news.Article, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((page - 1) * perPage)).
		SetLimit(int64(perPage))

	cur, err := m.articles.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer cur.Close(ctx)

	var out []news.Article
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode articles: %w", err)
	}
	return out, nil
}

// VoteArticle increments the up- or downvote counter.
func (m *Mongo) VoteArticle(ctx context.Context, url string, upvote bool) error {
	field := "downvotes"
	if upvote {
		field = "upvotes"
	}

	res, err := m.articles.UpdateOne(ctx,
		bson.M{"url": url},
		bson.M{
			"$inc": bson.M{field: 1},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return fmt.Errorf("vote article: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("vote article: no article with url %s", url)
	}
	return nil
}

// AddComment pushes a comment onto the article and bumps comments_count.
func (m *Mongo) AddComment(ctx context.Context, url string, c news.Comment) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	res, err := m.articles.UpdateOne(ctx,
		bson.M{"url": url},
		bson.M{
			"$push": bson.M{"comments": c},
			"$inc":  bson.M{"comments_count": 1},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return fmt.Errorf("add comment: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("add comment: no article with url %s", url)
	}
	return nil
}

// AddArticleTag attaches a tag without duplicating existing ones.
func (m *Mongo) AddArticleTag(ctx context.Context, url, tag string) error {
	_, err := m.articles.UpdateOne(ctx,
		bson.M{"url": url},
		bson.M{"$addToSet": bson.M{"tags": tag}},
	)
	if err != nil {
		return fmt.Errorf("add tag: %w", err)
	}
	return nil
}

// IncrementViews bumps the view counter; missing articles are ignored.
func (m *Mongo) IncrementViews(ctx context.Context, url string) error {
	_, err := m.articles.UpdateOne(ctx,
		bson.M{"url": url},
		bson.M{"$inc": bson.M{"views": 1}},
	)
	if err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	return nil
}

// CategoryCounts groups published articles per category.
func (m *Mongo) CategoryCounts(ctx context.Context) ([]news.CategoryCount, error) {
	pipe := mongo.Pipeline{
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$category"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}}}},
	}

	cur, err := m.articles.Aggregate(ctx, pipe)
	if err != nil {
		return nil, fmt.Errorf("aggregate categories: %w", err)
	}
	defer cur.Close(ctx)

	var out []news.CategoryCount
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode category counts: %w", err)
	}
	return out, nil
}

// SentimentCounts groups published articles per sentiment label.
func (m *Mongo) SentimentCounts(ctx context.Context) ([]news.SentimentCount, error) {
	pipe := mongo.Pipeline{
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$sentiment"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	cur, err := m.articles.Aggregate(ctx, pipe)
	if err != nil {
		return nil, fmt.Errorf("aggregate sentiments: %w", err)
	}
	defer cur.Close(ctx)

	var out []news.SentimentCount
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode sentiment counts: %w", err)
	}
	return out, nil
}

// RecentRuns returns the newest audit log entries.
func (m *Mongo) RecentRuns(ctx context.Context, limit int) ([]news.PipelineRun, error) {
	if limit <= 0 {
		limit = 10
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := m.runs.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer cur.Close(ctx)

	var out []news.PipelineRun
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode runs: %w", err)
	}
	return out, nil
}

// PendingRawArticles selects staged articles not yet mirrored in the
// published collection: the replay set for articles whose scrape or
// enrichment failed in earlier runs.
func (m *Mongo) PendingRawArticles(ctx context.Context, limit int) ([]news.RawArticle, error) {
	if limit <= 0 {
		limit = 50
	}

	pipe := mongo.Pipeline{
		bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: articlesCollection},
			{Key: "localField", Value: "url"},
			{Key: "foreignField", Value: "url"},
			{Key: "as", Value: "published"},
		}}},
		bson.D{{Key: "$match", Value: bson.D{
			{Key: "published", Value: bson.D{{Key: "$size", Value: 0}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: 1}}}},
		bson.D{{Key: "$limit", Value: limit}},
	}

	cur, err := m.raw.Aggregate(ctx, pipe)
	if err != nil {
		return nil, fmt.Errorf("aggregate pending: %w", err)
	}
	defer cur.Close(ctx)

	var out []news.RawArticle
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode pending: %w", err)
	}
	return out, nil
}
