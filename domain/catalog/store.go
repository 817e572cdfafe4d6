package catalog

import "context"

// Store defines read-only access to the product catalog. The search
// subsystem never mutates the catalog; writes belong to the upstream
// product management service.
type Store interface {
	// ActiveByIDs returns the active subset of the given products,
	// preserving the input ID ordering so similarity-ranked callers do
	// not need to re-sort.
	ActiveByIDs(ctx context.Context, ids []int64) ([]Product, error)

	// ActiveIDs returns the IDs of all active products.
	ActiveIDs(ctx context.Context) ([]int64, error)

	// AllActive returns all active products.
	AllActive(ctx context.Context) ([]Product, error)

	// KeywordSearch performs a case-insensitive substring match over name
	// and description, newest first. A query with no matches returns an
	// empty slice, not an error.
	KeywordSearch(ctx context.Context, query string, limit int) ([]Product, error)
}
