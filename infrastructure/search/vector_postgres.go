package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cataloghq/semsearch/domain/search"
	"github.com/cataloghq/semsearch/internal/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SQL specific to pgvector. Cosine distance via the <=> operator assumes
// normalized vectors, so 1 - distance is cosine similarity in [0,1].
const (
	pgvCreateExtension = `CREATE EXTENSION IF NOT EXISTS vector`

	pgvCheckExtension = `SELECT EXISTS(SELECT 1 FROM pg_extension WHERE extname = 'vector')`

	pgvCreateTableTemplate = `
CREATE TABLE IF NOT EXISTS %s (
    id SERIAL PRIMARY KEY,
    product_id BIGINT NOT NULL UNIQUE,
    title_vector VECTOR(%d) NOT NULL,
    description_vector VECTOR(%d) NOT NULL,
    combined_vector VECTOR(%d) NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

	pgvCreateIndexTemplate = `
CREATE INDEX IF NOT EXISTS %s_combined_idx
ON %s
USING ivfflat (combined_vector vector_cosine_ops)
WITH (lists = 100)`

	pgvSimilaritySearch = `
SELECT product_id, 1 - (combined_vector <=> ?) AS similarity
FROM %s
WHERE 1 - (combined_vector <=> ?) > ?
ORDER BY similarity DESC, id ASC
LIMIT ?`
)

// ErrPgvectorInitializationFailed indicates pgvector initialization failed.
var ErrPgvectorInitializationFailed = errors.New("failed to initialize pgvector store")

// PgvectorStore implements search.VectorStore using the PostgreSQL pgvector
// extension. The store may live in a different database than the catalog
// and is independently reachable or unreachable from it.
type PgvectorStore struct {
	db           database.Database
	probeTimeout time.Duration
	queryTimeout time.Duration
	logger       *slog.Logger
	initialized  bool
	mu           sync.Mutex
}

// PgvectorOption is a functional option for PgvectorStore.
type PgvectorOption func(*PgvectorStore)

// WithProbeTimeout sets the availability probe timeout.
func WithProbeTimeout(d time.Duration) PgvectorOption {
	return func(s *PgvectorStore) {
		if d > 0 {
			s.probeTimeout = d
		}
	}
}

// WithQueryTimeout sets the main query timeout.
func WithQueryTimeout(d time.Duration) PgvectorOption {
	return func(s *PgvectorStore) {
		if d > 0 {
			s.queryTimeout = d
		}
	}
}

// NewPgvectorStore creates a new PgvectorStore.
func NewPgvectorStore(db database.Database, logger *slog.Logger, opts ...PgvectorOption) *PgvectorStore {
	if logger == nil {
		logger = slog.Default()
	}
	s := &PgvectorStore{
		db:           db,
		probeTimeout: 3 * time.Second,
		queryTimeout: 8 * time.Second,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *PgvectorStore) initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}

	db := s.db.Session(ctx)
	if err := db.Exec(pgvCreateExtension).Error; err != nil {
		return errors.Join(ErrPgvectorInitializationFailed, err)
	}

	dim := search.Dimension
	createSQL := fmt.Sprintf(pgvCreateTableTemplate, pgEmbeddingTable, dim, dim, dim)
	if err := db.Exec(createSQL).Error; err != nil {
		return errors.Join(ErrPgvectorInitializationFailed, err)
	}

	indexSQL := fmt.Sprintf(pgvCreateIndexTemplate, pgEmbeddingTable, pgEmbeddingTable)
	if err := db.Exec(indexSQL).Error; err != nil {
		s.logger.Warn("failed to create ivfflat index (may already exist)", "error", err)
	}

	s.initialized = true
	return nil
}

// Available reports whether the store is reachable and the vector extension
// is installed. The probe runs on a pinned connection under its own short
// timeout, independent of the main query path.
func (s *PgvectorStore) Available(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, s.probeTimeout)
	defer cancel()

	var hasExtension bool
	err := s.db.Session(probeCtx).Connection(func(tx *gorm.DB) error {
		return tx.Raw(pgvCheckExtension).Scan(&hasExtension).Error
	})
	if err != nil {
		s.logger.Warn("vector store probe failed", "error", err)
		return false
	}
	if !hasExtension {
		s.logger.Warn("vector store reachable but pgvector extension missing")
	}
	return hasExtension
}

// SimilaritySearch returns products whose combined-vector cosine similarity
// to query strictly exceeds threshold, descending, truncated to limit.
func (s *PgvectorStore) SimilaritySearch(ctx context.Context, query []float64, threshold float64, limit int) ([]search.Match, error) {
	if err := s.initialize(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = search.DefaultLimit
	}

	queryCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	vec := database.NewPgVector(query).String()

	var rows []struct {
		ProductID  int64   `gorm:"column:product_id"`
		Similarity float64 `gorm:"column:similarity"`
	}
	sql := fmt.Sprintf(pgvSimilaritySearch, pgEmbeddingTable)
	err := s.db.Session(queryCtx).Raw(sql, vec, vec, threshold, limit).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}

	matches := make([]search.Match, len(rows))
	for i, row := range rows {
		matches[i] = search.NewMatch(row.ProductID, search.ClampSimilarity(row.Similarity))
	}
	return matches, nil
}

// Upsert writes all three vectors for a product, inserting or overwriting
// the single row keyed by product_id.
func (s *PgvectorStore) Upsert(ctx context.Context, embedding search.ProductEmbedding) error {
	if err := s.initialize(ctx); err != nil {
		return err
	}

	entity := PgEmbeddingEntity{
		ProductID:         embedding.ProductID(),
		TitleVector:       database.NewPgVector(embedding.Title()),
		DescriptionVector: database.NewPgVector(embedding.Description()),
		CombinedVector:    database.NewPgVector(embedding.Combined()),
		UpdatedAt:         time.Now().UTC(),
	}

	err := s.db.Session(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title_vector", "description_vector", "combined_vector", "updated_at",
		}),
	}).Create(&entity).Error
	if err != nil {
		return fmt.Errorf("upsert embedding for product %d: %w", embedding.ProductID(), err)
	}
	return nil
}

// ProductIDs returns the IDs of all products that have an embedding.
func (s *PgvectorStore) ProductIDs(ctx context.Context) ([]int64, error) {
	if err := s.initialize(ctx); err != nil {
		return nil, err
	}
	var ids []int64
	err := s.db.Session(ctx).
		Model(&PgEmbeddingEntity{}).
		Pluck("product_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list embedded product ids: %w", err)
	}
	return ids, nil
}

// Count returns the number of embedding rows.
func (s *PgvectorStore) Count(ctx context.Context) (int64, error) {
	if err := s.initialize(ctx); err != nil {
		return 0, err
	}
	var count int64
	err := s.db.Session(ctx).Model(&PgEmbeddingEntity{}).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count embeddings: %w", err)
	}
	return count, nil
}

var _ search.VectorStore = (*PgvectorStore)(nil)
