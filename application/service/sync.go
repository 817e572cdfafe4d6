package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cataloghq/semsearch/domain/catalog"
	"github.com/cataloghq/semsearch/domain/search"
)

// Preloader is implemented by embedders that can warm their model ahead
// of the first Embed call. The sync job preloads when available so a
// model failure surfaces once, before any product work starts.
type Preloader interface {
	Preload(ctx context.Context) error
}

// Failure records one product the sync job could not embed or persist.
type Failure struct {
	productID int64
	err       error
}

// ProductID returns the failing product's ID.
func (f Failure) ProductID() int64 { return f.productID }

// Err returns the underlying error.
func (f Failure) Err() error { return f.err }

// Report summarizes one sync run.
type Report struct {
	processed int
	skipped   int
	failures  []Failure
}

// Processed returns the number of products embedded and upserted.
func (r Report) Processed() int { return r.processed }

// Skipped returns the number of active products that already had an
// embedding and were left untouched.
func (r Report) Skipped() int { return r.skipped }

// Failures returns the per-product failures of the run.
func (r Report) Failures() []Failure {
	out := make([]Failure, len(r.failures))
	copy(out, r.failures)
	return out
}

// HasFailures reports whether any product failed during the run.
func (r Report) HasFailures() bool { return len(r.failures) > 0 }

// Sync is the batch job that reconciles the vector store against the
// catalog: every active product without an embedding row gets one. Runs
// are idempotent and incremental; products already embedded are skipped
// without re-embedding.
type Sync struct {
	vectors  search.VectorStore
	catalog  catalog.Store
	embedder search.Embedder
	delay    time.Duration
	logger   *slog.Logger
}

// SyncOption configures a Sync job.
type SyncOption func(*Sync)

// WithDelay sets the pause between consecutive products, throttling
// model and store load during large backfills.
func WithDelay(d time.Duration) SyncOption {
	return func(s *Sync) {
		s.delay = d
	}
}

// NewSync creates a new Sync job.
func NewSync(vectors search.VectorStore, catalogStore catalog.Store, embedder search.Embedder, logger *slog.Logger, opts ...SyncOption) *Sync {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Sync{
		vectors:  vectors,
		catalog:  catalogStore,
		embedder: embedder,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes one sync pass. A returned error means the run could not
// proceed at all (model preload, ID listing, catalog fetch, or
// cancellation); per-product failures do not abort the run and are
// collected in the Report instead.
func (s *Sync) Run(ctx context.Context) (Report, error) {
	if p, ok := s.embedder.(Preloader); ok {
		if err := p.Preload(ctx); err != nil {
			return Report{}, fmt.Errorf("preloading embedding model: %w", err)
		}
	}

	activeIDs, err := s.catalog.ActiveIDs(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("listing active products: %w", err)
	}
	embeddedIDs, err := s.vectors.ProductIDs(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("listing embedded products: %w", err)
	}

	embedded := make(map[int64]struct{}, len(embeddedIDs))
	for _, id := range embeddedIDs {
		embedded[id] = struct{}{}
	}

	missing := make([]int64, 0, len(activeIDs))
	for _, id := range activeIDs {
		if _, ok := embedded[id]; !ok {
			missing = append(missing, id)
		}
	}

	report := Report{skipped: len(activeIDs) - len(missing)}
	if len(missing) == 0 {
		s.logger.Info("embeddings up to date", "active", len(activeIDs))
		return report, nil
	}

	products, err := s.catalog.ActiveByIDs(ctx, missing)
	if err != nil {
		return Report{}, fmt.Errorf("fetching products to embed: %w", err)
	}

	s.logger.Info("syncing product embeddings",
		"active", len(activeIDs),
		"missing", len(products),
		"skipped", report.skipped)

	for i, product := range products {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if err := s.embedProduct(ctx, product); err != nil {
			s.logger.Error("product sync failed",
				"product_id", product.ID(), "error", err)
			report.failures = append(report.failures, Failure{
				productID: product.ID(),
				err:       err,
			})
			continue
		}
		report.processed++

		if s.delay > 0 && i < len(products)-1 {
			select {
			case <-ctx.Done():
				return report, ctx.Err()
			case <-time.After(s.delay):
			}
		}
	}

	s.logger.Info("embedding sync complete",
		"processed", report.processed,
		"skipped", report.skipped,
		"failed", len(report.failures))
	return report, nil
}

// embedProduct embeds the three text facets of one product in a single
// model call and upserts the resulting row.
func (s *Sync) embedProduct(ctx context.Context, product catalog.Product) error {
	vectors, err := s.embedder.Embed(ctx, []string{
		product.Name(),
		product.Description(),
		product.CombinedText(),
	})
	if err != nil {
		return fmt.Errorf("embedding product texts: %w", err)
	}
	if len(vectors) != 3 {
		return fmt.Errorf("expected 3 vectors, got %d", len(vectors))
	}

	embedding := search.NewProductEmbedding(product.ID(), vectors[0], vectors[1], vectors[2]).
		WithUpdatedAt(time.Now().UTC())
	if err := s.vectors.Upsert(ctx, embedding); err != nil {
		return fmt.Errorf("upserting embedding: %w", err)
	}
	return nil
}
