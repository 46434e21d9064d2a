// vector.go - Vector similarity search over the vendor tax-reference catalog

package storage

import (
	"context"
	"fmt"
	"math"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// vendorSearchResult carries a catalog entry plus the Atlas relevance score
type vendorSearchResult struct {
	VendorTaxReference `bson:",inline"`
	Score              float64 `bson:"score"`
}

// SearchVendorReferences runs an Atlas $vectorSearch over the vendor
// tax-reference catalog, restricted to one vendor, and returns the topK
// nearest entries ordered by ascending distance.
//
// Atlas reports a relevance score in (0,1] where higher is better
// (score = 1/(1+distance) for euclidean similarity). Callers of this package
// always see a distance where lower = more similar, so the score is converted
// here at the storage boundary.
func (s *Store) SearchVendorReferences(ctx context.Context, vector []float64, vendorID string, topK int) ([]VendorCandidate, error) {
	if topK <= 0 {
		topK = 3
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$vectorSearch", Value: bson.D{
			{Key: "index", Value: VendorEmbeddingIndexName},
			{Key: "path", Value: VendorEmbeddingFieldPath},
			{Key: "queryVector", Value: vector},
			{Key: "numCandidates", Value: topK * 20},
			{Key: "limit", Value: topK},
			{Key: "filter", Value: bson.D{{Key: "vendorId", Value: vendorID}}},
		}}},
		bson.D{{Key: "$addFields", Value: bson.D{
			{Key: "score", Value: bson.D{{Key: "$meta", Value: "vectorSearchScore"}}},
		}}},
	}

	cursor, err := s.db.Collection(CollectionVendorTaxRefs).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("vector search failed for vendor %s: %w", vendorID, err)
	}
	defer cursor.Close(ctx)

	var rows []vendorSearchResult
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode vector search results: %w", err)
	}

	candidates := make([]VendorCandidate, 0, len(rows))
	for _, row := range rows {
		candidates = append(candidates, VendorCandidate{
			Reference: row.VendorTaxReference,
			Distance:  DistanceFromScore(row.Score),
		})
	}
	return candidates, nil
}

// DistanceFromScore converts an Atlas vectorSearchScore back into a distance.
// A zero or negative score (should not happen) maps to +Inf so the candidate
// sorts last.
func DistanceFromScore(score float64) float64 {
	if score <= 0 {
		return math.Inf(1)
	}
	return 1/score - 1
}
