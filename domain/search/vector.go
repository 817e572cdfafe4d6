package search

import "context"

// VectorStore defines operations against the secondary store holding one
// embedding row per product. The store is independently reachable from the
// catalog store and the two are never transactionally consistent: a product
// may transiently lack an embedding, which callers must tolerate.
type VectorStore interface {
	// Available reports whether the store is reachable and its vector
	// similarity capability is installed. It must use a short timeout
	// independent of the main query path so a dead store fails fast.
	Available(ctx context.Context) bool

	// SimilaritySearch returns products whose combined-vector cosine
	// similarity to query strictly exceeds threshold, ordered by
	// similarity descending and truncated to limit. Ties fall back to
	// the store's natural row order.
	SimilaritySearch(ctx context.Context, query []float64, threshold float64, limit int) ([]Match, error)

	// Upsert writes all three vectors and the timestamp for a product,
	// inserting or overwriting the single row keyed by product ID.
	Upsert(ctx context.Context, embedding ProductEmbedding) error

	// ProductIDs returns the IDs of all products that have an embedding.
	ProductIDs(ctx context.Context) ([]int64, error)

	// Count returns the number of embedding rows.
	Count(ctx context.Context) (int64, error)
}
