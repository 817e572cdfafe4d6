// Package v1 implements the v1 HTTP API routes.
package v1

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cataloghq/semsearch/application/service"
	"github.com/cataloghq/semsearch/domain/search"
	"github.com/cataloghq/semsearch/infrastructure/api/middleware"
	"github.com/cataloghq/semsearch/infrastructure/api/v1/dto"
)

// SearchRouter handles the search endpoint. Requests that omit limit or
// threshold fall back to the router's configured defaults.
type SearchRouter struct {
	searcher         *service.Searcher
	defaultLimit     int
	defaultThreshold float64
	logger           *slog.Logger
}

// SearchRouterOption is a functional option for SearchRouter.
type SearchRouterOption func(*SearchRouter)

// WithDefaultLimit sets the result limit used when a request omits one.
func WithDefaultLimit(n int) SearchRouterOption {
	return func(r *SearchRouter) {
		if n > 0 {
			r.defaultLimit = n
		}
	}
}

// WithDefaultThreshold sets the similarity threshold used when a request
// omits one. Values outside [0,1] are ignored.
func WithDefaultThreshold(t float64) SearchRouterOption {
	return func(r *SearchRouter) {
		if t >= 0 && t <= 1 {
			r.defaultThreshold = t
		}
	}
}

// NewSearchRouter creates a new SearchRouter.
func NewSearchRouter(searcher *service.Searcher, logger *slog.Logger, opts ...SearchRouterOption) *SearchRouter {
	if logger == nil {
		logger = slog.Default()
	}
	r := &SearchRouter{
		searcher:         searcher,
		defaultLimit:     search.DefaultLimit,
		defaultThreshold: search.DefaultThreshold,
		logger:           logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Routes returns the chi router for search endpoints.
func (r *SearchRouter) Routes() chi.Router {
	router := chi.NewRouter()
	router.Post("/", r.Search)
	return router
}

// Search handles POST /api/v1/search. Degraded infrastructure still
// returns 200 with a fallback search_type; only an empty query is a
// client error.
func (r *SearchRouter) Search(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	var body dto.SearchRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req,
			middleware.NewAPIError(http.StatusBadRequest, "invalid request body", err), r.logger)
		return
	}

	limit := r.defaultLimit
	if body.Limit != nil {
		limit = *body.Limit
	}
	threshold := r.defaultThreshold
	if body.Threshold != nil {
		threshold = *body.Threshold
	}

	query := search.NewQuery(body.Query, limit, threshold)
	response, err := r.searcher.Search(ctx, query)
	if err != nil {
		if errors.Is(err, service.ErrEmptyQuery) {
			middleware.WriteError(w, req,
				middleware.NewAPIError(http.StatusBadRequest, "query must not be empty", err), r.logger)
			return
		}
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, buildSearchResponse(response))
}

func buildSearchResponse(response service.Response) dto.SearchResponse {
	results := response.Results()
	products := make([]dto.Product, len(results))
	for i, result := range results {
		p := result.Product()
		products[i] = dto.Product{
			ID:          p.ID(),
			Name:        p.Name(),
			Description: p.Description(),
			Price:       p.Price(),
			Featured:    p.Featured(),
		}
		if sim, ok := result.Similarity(); ok {
			products[i].Similarity = &sim
		}
	}

	out := dto.SearchResponse{
		Products:   products,
		SearchType: string(response.SearchType()),
		Query:      response.Query(),
		AIEnabled:  response.AIEnabled(),
		Message:    response.Message(),
	}
	if md := response.Metadata(); md != nil {
		out.SearchMetadata = &dto.SearchMetadata{
			Threshold:     md.Threshold(),
			AvgSimilarity: md.AvgSimilarity(),
			TopSimilarity: md.TopSimilarity(),
		}
	}
	return out
}
