package mongo

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Atlas rejects $vectorSearch with more candidates than this.
const maxNumCandidates = 10000

// similarityPipeline ranks work logs by vector similarity to the query.
func similarityPipeline(cfg Config, vector []float64, candidates, limit int) mongo.Pipeline {
	candidates = min(max(candidates, limit), maxNumCandidates)

	pipeline := mongo.Pipeline{
		{{Key: "$vectorSearch", Value: bson.D{
			{Key: "index", Value: cfg.VectorIndex},
			{Key: "path", Value: cfg.EmbeddingField},
			{Key: "queryVector", Value: vector},
			{Key: "numCandidates", Value: candidates},
			{Key: "limit", Value: limit},
		}}},
		{{Key: "$addFields", Value: bson.D{
			{Key: "score", Value: bson.D{{Key: "$meta", Value: "vectorSearchScore"}}},
		}}},
	}
	return append(pipeline, projectionStages(cfg)...)
}

// recentPipeline lists the newest work logs.
func recentPipeline(cfg Config, limit int) mongo.Pipeline {
	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
		{{Key: "$limit", Value: limit}},
	}
	return append(pipeline, projectionStages(cfg)...)
}

// projectionStages joins the author and cuts content to the budget, so both
// retrieval paths yield the same document shape.
func projectionStages(cfg Config) mongo.Pipeline {
	content := bson.D{{Key: "$ifNull", Value: bson.A{"$content", ""}}}

	return mongo.Pipeline{
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: cfg.EmployeeCollection},
			{Key: "localField", Value: "authorId"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "author"},
		}}},
		{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$author"},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "title", Value: 1},
			{Key: "tags", Value: 1},
			{Key: "createdAt", Value: 1},
			{Key: "score", Value: 1},
			{Key: "content", Value: bson.D{{Key: "$substrCP", Value: bson.A{content, 0, cfg.ContentBudget}}}},
			{Key: "truncated", Value: bson.D{{Key: "$gt", Value: bson.A{
				bson.D{{Key: "$strLenCP", Value: content}},
				cfg.ContentBudget,
			}}}},
			{Key: "authorName", Value: "$author.name"},
			{Key: "division", Value: "$author.division"},
		}}},
	}
}
