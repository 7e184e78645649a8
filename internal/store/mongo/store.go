// Package mongo implements the work-log document store on MongoDB Atlas
// vector search.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/davidbz/scribe/internal/domain"
	"github.com/davidbz/scribe/internal/observability"
)

const defaultContentBudget = 700

// worklogRecord is the projected shape both pipelines produce.
type worklogRecord struct {
	ID         primitive.ObjectID `bson:"_id"`
	Title      string             `bson:"title"`
	Content    string             `bson:"content"`
	Truncated  bool               `bson:"truncated"`
	Tags       []string           `bson:"tags"`
	CreatedAt  time.Time          `bson:"createdAt"`
	AuthorName string             `bson:"authorName"`
	Division   string             `bson:"division"`
	Score      *float64           `bson:"score,omitempty"`
}

// WorklogStore implements domain.DocumentStore.
type WorklogStore struct {
	worklogs *mongo.Collection
	cfg      Config
}

// Connect opens a client and verifies the primary is reachable.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, error) {
	if cfg.URI == "" {
		return nil, errors.New("mongo URI is required")
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	return client, nil
}

// NewWorklogStore creates a store over the configured work-log collection.
func NewWorklogStore(db *mongo.Database, cfg Config) *WorklogStore {
	if cfg.ContentBudget <= 0 {
		cfg.ContentBudget = defaultContentBudget
	}

	return &WorklogStore{
		worklogs: db.Collection(cfg.WorklogCollection),
		cfg:      cfg,
	}
}

// SimilaritySearch implements domain.DocumentStore.
func (s *WorklogStore) SimilaritySearch(
	ctx context.Context,
	vector []float64,
	candidates, limit int,
) ([]domain.RetrievedDocument, error) {
	if len(vector) == 0 {
		return nil, errors.New("query vector cannot be empty")
	}
	if limit <= 0 {
		return nil, nil
	}

	docs, err := s.aggregate(ctx, similarityPipeline(s.cfg, vector, candidates, limit))
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	observability.FromContext(ctx).Debug("mongo vector search completed",
		observability.Int("candidates", candidates),
		observability.Int("documents", len(docs)))

	return docs, nil
}

// Recent implements domain.DocumentStore.
func (s *WorklogStore) Recent(ctx context.Context, limit int) ([]domain.RetrievedDocument, error) {
	if limit <= 0 {
		return nil, nil
	}

	docs, err := s.aggregate(ctx, recentPipeline(s.cfg, limit))
	if err != nil {
		return nil, fmt.Errorf("recent work logs listing failed: %w", err)
	}

	for i := range docs {
		docs[i].Score = nil
	}
	return docs, nil
}

func (s *WorklogStore) aggregate(ctx context.Context, pipeline mongo.Pipeline) ([]domain.RetrievedDocument, error) {
	cursor, err := s.worklogs.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}

	var records []worklogRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode work logs: %w", err)
	}

	docs := make([]domain.RetrievedDocument, 0, len(records))
	for _, r := range records {
		docs = append(docs, domain.RetrievedDocument{
			ID:        r.ID.Hex(),
			Title:     r.Title,
			Content:   r.Content,
			Truncated: r.Truncated,
			Tags:      r.Tags,
			CreatedAt: r.CreatedAt,
			Author:    r.AuthorName,
			Division:  r.Division,
			Score:     r.Score,
		})
	}
	return docs, nil
}
