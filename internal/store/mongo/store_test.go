package mongo_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	mongostore "github.com/davidbz/scribe/internal/store/mongo"
)

var storeConfig = mongostore.Config{
	Database:           "scribe",
	WorklogCollection:  "worklogs",
	EmployeeCollection: "employees",
	VectorIndex:        "worklog_embedding_index",
	EmbeddingField:     "embedding",
	ContentBudget:      700,
}

func TestWorklogStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	created := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	id := primitive.NewObjectID()

	mt.Run("similarity search decodes joined documents", func(mt *mtest.T) {
		store := mongostore.NewWorklogStore(mt.DB, storeConfig)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "scribe.worklogs", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "title", Value: "Billing migration"},
			{Key: "content", Value: "Moved invoices to the new ledger"},
			{Key: "truncated", Value: true},
			{Key: "tags", Value: bson.A{"billing", "migration"}},
			{Key: "createdAt", Value: primitive.NewDateTimeFromTime(created)},
			{Key: "authorName", Value: "Alice Smith"},
			{Key: "division", Value: "Platform"},
			{Key: "score", Value: 0.87},
		}))

		docs, err := store.SimilaritySearch(context.Background(), []float64{0.1, 0.2}, 50, 5)
		require.NoError(mt, err)
		require.Len(mt, docs, 1)

		doc := docs[0]
		require.Equal(mt, id.Hex(), doc.ID)
		require.Equal(mt, "Billing migration", doc.Title)
		require.True(mt, doc.Truncated)
		require.Equal(mt, []string{"billing", "migration"}, doc.Tags)
		require.True(mt, created.Equal(doc.CreatedAt))
		require.Equal(mt, "Alice Smith", doc.Author)
		require.Equal(mt, "Platform", doc.Division)
		require.NotNil(mt, doc.Score)
		require.InDelta(mt, 0.87, *doc.Score, 1e-9)
	})

	mt.Run("similarity search surfaces server errors", func(mt *mtest.T) {
		store := mongostore.NewWorklogStore(mt.DB, storeConfig)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    8,
			Name:    "UnknownError",
			Message: "index worklog_embedding_index not found",
		}))

		_, err := store.SimilaritySearch(context.Background(), []float64{0.1}, 50, 5)
		require.ErrorContains(mt, err, "vector search failed")
	})

	mt.Run("similarity search rejects an empty vector", func(mt *mtest.T) {
		store := mongostore.NewWorklogStore(mt.DB, storeConfig)

		_, err := store.SimilaritySearch(context.Background(), nil, 50, 5)
		require.Error(mt, err)
	})

	mt.Run("recent listing has no scores", func(mt *mtest.T) {
		store := mongostore.NewWorklogStore(mt.DB, storeConfig)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "scribe.worklogs", mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: primitive.NewObjectID()},
				{Key: "title", Value: "Standup notes"},
				{Key: "createdAt", Value: primitive.NewDateTimeFromTime(created)},
			},
			bson.D{
				{Key: "_id", Value: primitive.NewObjectID()},
				{Key: "title", Value: "Oncall handover"},
				{Key: "createdAt", Value: primitive.NewDateTimeFromTime(created.Add(-time.Hour))},
			},
		))

		docs, err := store.Recent(context.Background(), 2)
		require.NoError(mt, err)
		require.Len(mt, docs, 2)
		require.Equal(mt, "Standup notes", docs[0].Title)
		for _, doc := range docs {
			require.Nil(mt, doc.Score)
		}
	})

	mt.Run("recent listing with no limit is empty", func(mt *mtest.T) {
		store := mongostore.NewWorklogStore(mt.DB, storeConfig)

		docs, err := store.Recent(context.Background(), 0)
		require.NoError(mt, err)
		require.Empty(mt, docs)
	})
}
