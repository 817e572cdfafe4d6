package search

import (
	"math"
	"sort"
)

// CosineSimilarity computes the cosine similarity between two vectors.
// Returns a value between -1 (opposite) and 1 (identical), or 0 if either
// vector has zero magnitude or the lengths differ.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, magA, magB float64
	for i := range a {
		dot += a[i] * b[i]
		magA += a[i] * a[i]
		magB += b[i] * b[i]
	}

	if magA == 0 || magB == 0 {
		return 0
	}

	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

// ClampSimilarity forces a similarity into [0,1]. Normalized vectors keep
// cosine similarity in that range already; values outside it indicate a
// backend contract violation and are clamped rather than propagated.
func ClampSimilarity(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

// Normalize returns the L2-normalized copy of v. A zero vector is returned
// unchanged.
func Normalize(v []float64) []float64 {
	var mag float64
	for _, x := range v {
		mag += x * x
	}
	result := make([]float64, len(v))
	if mag == 0 {
		copy(result, v)
		return result
	}
	mag = math.Sqrt(mag)
	for i, x := range v {
		result[i] = x / mag
	}
	return result
}

// StoredVector holds an embedding vector with its product ID, for stores
// that rank in process rather than in the database.
type StoredVector struct {
	productID int64
	embedding []float64
}

// NewStoredVector creates a new StoredVector.
func NewStoredVector(productID int64, embedding []float64) StoredVector {
	return StoredVector{
		productID: productID,
		embedding: copyVector(embedding),
	}
}

// ProductID returns the product identifier.
func (v StoredVector) ProductID() int64 { return v.productID }

// Embedding returns the embedding vector (copy).
func (v StoredVector) Embedding() []float64 { return copyVector(v.embedding) }

// RankAboveThreshold computes cosine similarity of every stored vector
// against query, keeps those strictly above threshold, and returns them
// sorted by similarity descending, truncated to limit. Equal similarities
// keep the input order (stable sort), matching the natural-row-order tie
// rule of the database-backed stores.
func RankAboveThreshold(query []float64, vectors []StoredVector, threshold float64, limit int) []Match {
	if len(vectors) == 0 || limit <= 0 {
		return []Match{}
	}

	matches := make([]Match, 0, len(vectors))
	for _, v := range vectors {
		similarity := ClampSimilarity(CosineSimilarity(query, v.embedding))
		if similarity > threshold {
			matches = append(matches, NewMatch(v.productID, similarity))
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].similarity > matches[j].similarity
	})

	if limit < len(matches) {
		matches = matches[:limit]
	}
	return matches
}
