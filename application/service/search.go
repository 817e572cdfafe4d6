package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/cataloghq/semsearch/domain/catalog"
	"github.com/cataloghq/semsearch/domain/search"
)

// stage identifies a step of the search state machine. Stages run strictly
// in order within a request; each failing stage maps to exactly one
// terminal fallback, and there are no retries or cycles.
type stage int

const (
	stageAvailability stage = iota
	stageQueryEmbedding
	stageSimilaritySearch
	stageZeroResult
	stageCatalogJoin
)

// String returns the stage name for logging.
func (s stage) String() string {
	switch s {
	case stageAvailability:
		return "availability"
	case stageQueryEmbedding:
		return "query_embedding"
	case stageSimilaritySearch:
		return "similarity_search"
	case stageZeroResult:
		return "zero_result"
	case stageCatalogJoin:
		return "catalog_join"
	default:
		return "unknown"
	}
}

// Result is a single search hit: a catalog product, plus its similarity
// score when produced by the vector path.
type Result struct {
	product       catalog.Product
	similarity    float64
	hasSimilarity bool
}

// NewResult creates a keyword-path Result without a similarity score.
func NewResult(product catalog.Product) Result {
	return Result{product: product}
}

// NewScoredResult creates a vector-path Result with a similarity score.
func NewScoredResult(product catalog.Product, similarity float64) Result {
	return Result{
		product:       product,
		similarity:    similarity,
		hasSimilarity: true,
	}
}

// Product returns the catalog product.
func (r Result) Product() catalog.Product { return r.product }

// Similarity returns the similarity score and whether one is present.
func (r Result) Similarity() (float64, bool) { return r.similarity, r.hasSimilarity }

// Response is the terminal outcome of one pass through the state machine.
type Response struct {
	results    []Result
	searchType search.Type
	query      string
	aiEnabled  bool
	message    string
	metadata   *search.Metadata
}

// Results returns the ordered search results.
func (r Response) Results() []Result {
	out := make([]Result, len(r.results))
	copy(out, r.results)
	return out
}

// SearchType returns the result provenance tag.
func (r Response) SearchType() search.Type { return r.searchType }

// Query returns the query text the response was produced for.
func (r Response) Query() string { return r.query }

// AIEnabled reports whether the semantic infrastructure was operational
// for this request.
func (r Response) AIEnabled() bool { return r.aiEnabled }

// Message returns the human-readable provenance message.
func (r Response) Message() string { return r.message }

// Metadata returns similarity metadata for semantic results, or nil.
func (r Response) Metadata() *search.Metadata { return r.metadata }

// Searcher runs the request-time search state machine: probe the vector
// store, embed the query, rank by similarity, join against the catalog,
// and degrade to keyword search at each failure point. Infrastructure
// errors never escape; only invalid input does.
type Searcher struct {
	vectors  search.VectorStore
	catalog  catalog.Store
	embedder search.Embedder
	logger   *slog.Logger
}

// NewSearcher creates a new Searcher.
func NewSearcher(vectors search.VectorStore, catalogStore catalog.Store, embedder search.Embedder, logger *slog.Logger) *Searcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Searcher{
		vectors:  vectors,
		catalog:  catalogStore,
		embedder: embedder,
		logger:   logger,
	}
}

// Search executes one pass through the state machine for the given query.
// Every non-empty query terminates in a Response; ErrEmptyQuery is the
// only error and is returned before any downstream call.
func (s *Searcher) Search(ctx context.Context, query search.Query) (Response, error) {
	if !query.Valid() {
		return Response{}, ErrEmptyQuery
	}

	// Stage 1: availability. The probe never embeds; an unreachable
	// store short-circuits straight to keyword search.
	if !s.vectors.Available(ctx) {
		s.logger.Warn("vector store unavailable, AI search disabled",
			"stage", stageAvailability.String())
		return s.keywordFallback(ctx, query, search.TypeFallback, false,
			"AI search is currently disabled: vector store unavailable")
	}

	// Stage 2: query embedding.
	vectors, err := s.embedder.Embed(ctx, []string{query.Text()})
	if err != nil || len(vectors) == 0 {
		if err == nil {
			err = fmt.Errorf("embedder returned no vector")
		}
		s.logger.Error("query embedding failed",
			"stage", stageQueryEmbedding.String(), "error", err)
		return s.keywordFallback(ctx, query, search.TypeSemanticErrorFallback, false,
			fmt.Sprintf("semantic search failed (%v), showing keyword results", err))
	}

	// Stage 3: similarity search.
	matches, err := s.vectors.SimilaritySearch(ctx, vectors[0], query.Threshold(), query.Limit())
	if err != nil {
		s.logger.Error("similarity search failed",
			"stage", stageSimilaritySearch.String(), "error", err)
		return s.keywordFallback(ctx, query, search.TypeSemanticErrorFallback, false,
			fmt.Sprintf("semantic search failed (%v), showing keyword results", err))
	}

	// Stage 4: zero-result check. Distinct from "disabled": the
	// infrastructure worked, the corpus just has nothing close enough.
	if len(matches) == 0 {
		s.logger.Debug("no semantic matches above threshold",
			"stage", stageZeroResult.String(), "threshold", query.Threshold())
		return s.keywordFallback(ctx, query, search.TypeSemanticFallback, true,
			"no semantic matches found, showing keyword results")
	}

	// Stage 5: catalog join, preserving similarity order.
	ids := make([]int64, len(matches))
	similarityByID := make(map[int64]float64, len(matches))
	for i, m := range matches {
		ids[i] = m.ProductID()
		similarityByID[m.ProductID()] = m.Similarity()
	}

	products, err := s.catalog.ActiveByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("catalog join failed",
			"stage", stageCatalogJoin.String(), "error", err)
		return s.keywordFallback(ctx, query, search.TypeSemanticErrorFallback, false,
			fmt.Sprintf("semantic search failed (%v), showing keyword results", err))
	}

	// Stage 6: success.
	results := make([]Result, len(products))
	similarities := make([]float64, len(products))
	for i, p := range products {
		sim := roundSimilarity(similarityByID[p.ID()])
		results[i] = NewScoredResult(p, sim)
		similarities[i] = sim
	}
	metadata := search.NewMetadata(query.Threshold(), similarities)

	s.logger.Debug("semantic search served",
		"results", len(results),
		"top_similarity", metadata.TopSimilarity(),
		"avg_similarity", metadata.AvgSimilarity())

	return Response{
		results:    results,
		searchType: search.TypeSemantic,
		query:      query.Text(),
		aiEnabled:  true,
		message:    fmt.Sprintf("found %d semantically similar products", len(results)),
		metadata:   &metadata,
	}, nil
}

// keywordFallback is the terminal keyword path. It is total: zero matches
// produce an empty result list, and even a catalog failure degrades to an
// empty list rather than an error escaping to the caller.
func (s *Searcher) keywordFallback(ctx context.Context, query search.Query, searchType search.Type, aiEnabled bool, message string) (Response, error) {
	products, err := s.catalog.KeywordSearch(ctx, query.Text(), query.Limit())
	if err != nil {
		s.logger.Error("keyword fallback failed", "error", err)
		products = []catalog.Product{}
	}

	results := make([]Result, len(products))
	for i, p := range products {
		results[i] = NewResult(p)
	}

	return Response{
		results:    results,
		searchType: searchType,
		query:      query.Text(),
		aiEnabled:  aiEnabled,
		message:    message,
	}, nil
}

// roundSimilarity rounds to two decimals for presentation; ranking uses
// the raw scores upstream.
func roundSimilarity(s float64) float64 {
	return math.Round(s*100) / 100
}
