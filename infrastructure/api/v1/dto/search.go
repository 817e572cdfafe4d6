// Package dto defines the request and response shapes of the v1 API.
package dto

// SearchRequest is the body of POST /api/v1/search.
type SearchRequest struct {
	Query     string   `json:"query"`
	Limit     *int     `json:"limit,omitempty"`
	Threshold *float64 `json:"threshold,omitempty"`
}

// Product is a single search hit.
type Product struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Featured    bool     `json:"featured"`
	Similarity  *float64 `json:"similarity,omitempty"`
}

// SearchMetadata carries similarity figures for semantic results.
type SearchMetadata struct {
	Threshold     float64 `json:"threshold"`
	AvgSimilarity float64 `json:"avgSimilarity"`
	TopSimilarity float64 `json:"topSimilarity"`
}

// SearchResponse is the body of a successful search.
type SearchResponse struct {
	Products       []Product       `json:"products"`
	SearchType     string          `json:"search_type"`
	Query          string          `json:"query"`
	AIEnabled      bool            `json:"aiEnabled"`
	Message        string          `json:"message,omitempty"`
	SearchMetadata *SearchMetadata `json:"searchMetadata,omitempty"`
}

// SyncResponse is the body of POST /api/v1/sync.
type SyncResponse struct {
	Processed int           `json:"processed"`
	Skipped   int           `json:"skipped"`
	Failures  []SyncFailure `json:"failures,omitempty"`
}

// SyncFailure reports one product that could not be embedded.
type SyncFailure struct {
	ProductID int64  `json:"product_id"`
	Error     string `json:"error"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status      string `json:"status"`
	Database    bool   `json:"database"`
	VectorStore bool   `json:"vector_store"`
	ModelLoaded bool   `json:"model_loaded"`
}
