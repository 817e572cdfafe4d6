package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cataloghq/semsearch/application/service"
	"github.com/cataloghq/semsearch/domain/search"
	"github.com/cataloghq/semsearch/infrastructure/persistence"
	infrasearch "github.com/cataloghq/semsearch/infrastructure/search"
	"github.com/cataloghq/semsearch/internal/testdb"
)

type staticEmbedder struct{}

func (staticEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i] = []float64{1, 0}
	}
	return out, nil
}

type deadVectorStore struct{}

func (deadVectorStore) Available(_ context.Context) bool { return false }
func (deadVectorStore) SimilaritySearch(_ context.Context, _ []float64, _ float64, _ int) ([]search.Match, error) {
	return nil, nil
}
func (deadVectorStore) Upsert(_ context.Context, _ search.ProductEmbedding) error { return nil }
func (deadVectorStore) ProductIDs(_ context.Context) ([]int64, error)             { return nil, nil }
func (deadVectorStore) Count(_ context.Context) (int64, error)                    { return 0, nil }

func newTestAPIServer(t *testing.T, vectors search.VectorStore) *APIServer {
	t.Helper()
	db := testdb.New(t)
	logger := slog.New(slog.DiscardHandler)
	catalogStore := persistence.NewCatalogStore(db)
	embedder := staticEmbedder{}
	searcher := service.NewSearcher(vectors, catalogStore, embedder, logger)
	sync := service.NewSync(vectors, catalogStore, embedder, logger)
	return NewAPIServer(searcher, sync, db, vectors, embedder, logger)
}

func TestAPIServer_Health_OK(t *testing.T) {
	db := testdb.New(t)
	logger := slog.New(slog.DiscardHandler)
	vectors := infrasearch.NewSQLiteVectorStore(db, logger)
	catalogStore := persistence.NewCatalogStore(db)
	embedder := staticEmbedder{}
	searcher := service.NewSearcher(vectors, catalogStore, embedder, logger)
	sync := service.NewSync(vectors, catalogStore, embedder, logger)
	server := NewAPIServer(searcher, sync, db, vectors, embedder, logger)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
}

func TestAPIServer_Health_DegradedWhenVectorStoreDown(t *testing.T) {
	server := newTestAPIServer(t, deadVectorStore{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	// Keyword search still works without the vector store, so the service
	// reports degraded rather than failing the probe.
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if body["status"] != "degraded" {
		t.Errorf("status = %v, want degraded", body["status"])
	}
	if body["vector_store"] != false {
		t.Errorf("vector_store = %v, want false", body["vector_store"])
	}
}

func TestAPIServer_SearchRouteMounted(t *testing.T) {
	server := newTestAPIServer(t, deadVectorStore{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/search", nil)
	req.Body = http.NoBody
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	// An empty body is a 400 from the handler, not a 404 from the router.
	if w.Code == http.StatusNotFound {
		t.Fatalf("search route not mounted: %d", w.Code)
	}
}
