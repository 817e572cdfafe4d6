package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/cataloghq/semsearch/domain/catalog"
	"github.com/cataloghq/semsearch/domain/search"
)

// fakeEmbedder implements search.Embedder for testing.
type fakeEmbedder struct {
	vector []float64
	err    error
	calls  int
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	result := make([][]float64, len(texts))
	for i := range texts {
		result[i] = f.vector
	}
	return result, nil
}

// fakeVectorStore implements search.VectorStore for testing.
type fakeVectorStore struct {
	available bool
	matches   []search.Match
	searchErr error
	upserts   []search.ProductEmbedding
	ids       []int64
}

func (f *fakeVectorStore) Available(_ context.Context) bool { return f.available }

func (f *fakeVectorStore) SimilaritySearch(_ context.Context, _ []float64, threshold float64, limit int) ([]search.Match, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	out := make([]search.Match, 0, len(f.matches))
	for _, m := range f.matches {
		if m.Similarity() > threshold {
			out = append(out, m)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeVectorStore) Upsert(_ context.Context, e search.ProductEmbedding) error {
	f.upserts = append(f.upserts, e)
	return nil
}

func (f *fakeVectorStore) ProductIDs(_ context.Context) ([]int64, error) { return f.ids, nil }

func (f *fakeVectorStore) Count(_ context.Context) (int64, error) { return int64(len(f.ids)), nil }

// fakeCatalog implements catalog.Store for testing.
type fakeCatalog struct {
	products map[int64]catalog.Product
	keyword  []catalog.Product
	joinErr  error
}

func (f *fakeCatalog) ActiveByIDs(_ context.Context, ids []int64) ([]catalog.Product, error) {
	if f.joinErr != nil {
		return nil, f.joinErr
	}
	out := make([]catalog.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := f.products[id]; ok && p.Active() {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeCatalog) ActiveIDs(_ context.Context) ([]int64, error) {
	ids := make([]int64, 0, len(f.products))
	for id, p := range f.products {
		if p.Active() {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f *fakeCatalog) AllActive(_ context.Context) ([]catalog.Product, error) {
	out := make([]catalog.Product, 0, len(f.products))
	for _, p := range f.products {
		if p.Active() {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeCatalog) KeywordSearch(_ context.Context, _ string, limit int) ([]catalog.Product, error) {
	if len(f.keyword) > limit {
		return f.keyword[:limit], nil
	}
	return f.keyword, nil
}

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestSearch_EmptyQuery(t *testing.T) {
	svc := NewSearcher(&fakeVectorStore{}, &fakeCatalog{}, &fakeEmbedder{}, discard())

	_, err := svc.Search(context.Background(), search.NewQuery("   ", 0, -1))
	if !errors.Is(err, ErrEmptyQuery) {
		t.Fatalf("expected ErrEmptyQuery, got %v", err)
	}
}

func TestSearch_UnavailableStore_FallsBackWithoutEmbedding(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float64{1, 0}}
	cat := &fakeCatalog{keyword: []catalog.Product{
		catalog.NewProduct(1, "Copper Pipe", "15mm copper pipe", 4.50, true),
	}}
	svc := NewSearcher(&fakeVectorStore{available: false}, cat, embedder, discard())

	resp, err := svc.Search(context.Background(), search.NewQuery("pipe", 0, -1))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.SearchType() != search.TypeFallback {
		t.Errorf("SearchType = %q, want %q", resp.SearchType(), search.TypeFallback)
	}
	if resp.AIEnabled() {
		t.Error("AIEnabled = true, want false")
	}
	if embedder.calls != 0 {
		t.Errorf("embedder called %d times, want 0", embedder.calls)
	}
	if len(resp.Results()) != 1 {
		t.Errorf("got %d results, want 1", len(resp.Results()))
	}
}

func TestSearch_Semantic_OrderedBySimilarity(t *testing.T) {
	// The "pipe connector" shape: product 7 is the closest match and must
	// come back first even though the catalog holds lower IDs.
	store := &fakeVectorStore{
		available: true,
		matches: []search.Match{
			search.NewMatch(7, 0.91),
			search.NewMatch(2, 0.433),
			search.NewMatch(5, 0.25),
		},
	}
	cat := &fakeCatalog{products: map[int64]catalog.Product{
		2: catalog.NewProduct(2, "Hose Clamp", "steel clamp", 1.20, true),
		5: catalog.NewProduct(5, "PTFE Tape", "thread seal tape", 0.99, true),
		7: catalog.NewProduct(7, "Pipe Connector", "compression fitting", 3.75, true),
	}}
	svc := NewSearcher(store, cat, &fakeEmbedder{vector: []float64{1, 0}}, discard())

	resp, err := svc.Search(context.Background(), search.NewQuery("pipe connector", 0, -1))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.SearchType() != search.TypeSemantic {
		t.Fatalf("SearchType = %q, want %q", resp.SearchType(), search.TypeSemantic)
	}
	if !resp.AIEnabled() {
		t.Error("AIEnabled = false, want true")
	}

	results := resp.Results()
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if results[0].Product().ID() != 7 {
		t.Errorf("first result ID = %d, want 7", results[0].Product().ID())
	}
	if sim, ok := results[0].Similarity(); !ok || sim != 0.91 {
		t.Errorf("first similarity = %v (%v), want 0.91", sim, ok)
	}
	// Scores are rounded to two decimals for presentation.
	if sim, _ := results[1].Similarity(); sim != 0.43 {
		t.Errorf("second similarity = %v, want 0.43", sim)
	}

	md := resp.Metadata()
	if md == nil {
		t.Fatal("Metadata = nil, want populated")
	}
	if md.TopSimilarity() != 0.91 {
		t.Errorf("TopSimilarity = %v, want 0.91", md.TopSimilarity())
	}
}

func TestSearch_HighThreshold_SemanticFallback(t *testing.T) {
	// Matches exist below the requested threshold; the result is the
	// distinct zero-result fallback, with AI still reported as enabled.
	store := &fakeVectorStore{
		available: true,
		matches:   []search.Match{search.NewMatch(7, 0.91)},
	}
	cat := &fakeCatalog{keyword: []catalog.Product{
		catalog.NewProduct(7, "Pipe Connector", "compression fitting", 3.75, true),
	}}
	svc := NewSearcher(store, cat, &fakeEmbedder{vector: []float64{1, 0}}, discard())

	resp, err := svc.Search(context.Background(), search.NewQuery("pipe connector", 0, 0.99))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.SearchType() != search.TypeSemanticFallback {
		t.Errorf("SearchType = %q, want %q", resp.SearchType(), search.TypeSemanticFallback)
	}
	if !resp.AIEnabled() {
		t.Error("AIEnabled = false, want true")
	}
	if len(resp.Results()) != 1 {
		t.Errorf("got %d keyword results, want 1", len(resp.Results()))
	}
}

func TestSearch_EmbeddingError_KeywordResultsStillServed(t *testing.T) {
	embedErr := errors.New("model unavailable")
	cat := &fakeCatalog{keyword: []catalog.Product{
		catalog.NewProduct(1, "Copper Pipe", "15mm copper pipe", 4.50, true),
		catalog.NewProduct(3, "Pipe Cutter", "rotary cutter", 12.00, true),
	}}
	svc := NewSearcher(&fakeVectorStore{available: true}, cat, &fakeEmbedder{err: embedErr}, discard())

	resp, err := svc.Search(context.Background(), search.NewQuery("pipe", 0, -1))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.SearchType() != search.TypeSemanticErrorFallback {
		t.Errorf("SearchType = %q, want %q", resp.SearchType(), search.TypeSemanticErrorFallback)
	}
	if resp.AIEnabled() {
		t.Error("AIEnabled = true, want false")
	}
	if len(resp.Results()) == 0 {
		t.Error("expected keyword results despite embedding failure")
	}
	if resp.Message() == "" {
		t.Error("expected a non-empty provenance message")
	}
}

func TestSearch_SimilarityError_SemanticErrorFallback(t *testing.T) {
	store := &fakeVectorStore{available: true, searchErr: errors.New("connection reset")}
	svc := NewSearcher(store, &fakeCatalog{}, &fakeEmbedder{vector: []float64{1, 0}}, discard())

	resp, err := svc.Search(context.Background(), search.NewQuery("pipe", 0, -1))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.SearchType() != search.TypeSemanticErrorFallback {
		t.Errorf("SearchType = %q, want %q", resp.SearchType(), search.TypeSemanticErrorFallback)
	}
}

func TestSearch_CatalogJoinError_SemanticErrorFallback(t *testing.T) {
	store := &fakeVectorStore{
		available: true,
		matches:   []search.Match{search.NewMatch(7, 0.91)},
	}
	cat := &fakeCatalog{joinErr: errors.New("db down")}
	svc := NewSearcher(store, cat, &fakeEmbedder{vector: []float64{1, 0}}, discard())

	resp, err := svc.Search(context.Background(), search.NewQuery("pipe", 0, -1))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.SearchType() != search.TypeSemanticErrorFallback {
		t.Errorf("SearchType = %q, want %q", resp.SearchType(), search.TypeSemanticErrorFallback)
	}
	if len(resp.Results()) != 0 {
		t.Errorf("got %d results, want 0 when keyword path also fails", len(resp.Results()))
	}
}

func TestSearch_TypeAlwaysValid(t *testing.T) {
	cases := []struct {
		name     string
		store    *fakeVectorStore
		embedder *fakeEmbedder
	}{
		{"unavailable", &fakeVectorStore{}, &fakeEmbedder{vector: []float64{1}}},
		{"embed error", &fakeVectorStore{available: true}, &fakeEmbedder{err: errors.New("boom")}},
		{"search error", &fakeVectorStore{available: true, searchErr: errors.New("boom")}, &fakeEmbedder{vector: []float64{1}}},
		{"zero matches", &fakeVectorStore{available: true}, &fakeEmbedder{vector: []float64{1}}},
		{"matches", &fakeVectorStore{available: true, matches: []search.Match{search.NewMatch(1, 0.8)}}, &fakeEmbedder{vector: []float64{1}}},
	}

	cat := &fakeCatalog{products: map[int64]catalog.Product{
		1: catalog.NewProduct(1, "Widget", "a widget", 1.0, true),
	}}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewSearcher(tc.store, cat, tc.embedder, discard())
			resp, err := svc.Search(context.Background(), search.NewQuery("widget", 0, -1))
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if !resp.SearchType().Valid() {
				t.Errorf("invalid search type %q", resp.SearchType())
			}
		})
	}
}
