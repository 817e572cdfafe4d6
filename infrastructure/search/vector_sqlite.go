package search

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cataloghq/semsearch/domain/search"
	"github.com/cataloghq/semsearch/internal/database"
	"gorm.io/gorm/clause"
)

// Float64Slice is a custom type for JSON serialization of []float64 in SQLite.
type Float64Slice []float64

// Scan implements sql.Scanner for reading JSON from SQLite.
func (f *Float64Slice) Scan(value any) error {
	if value == nil {
		*f = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into Float64Slice", value)
	}

	return json.Unmarshal(data, f)
}

// Value implements driver.Valuer for writing JSON to SQLite.
func (f Float64Slice) Value() (driver.Value, error) {
	if f == nil {
		return nil, nil
	}
	return json.Marshal(f)
}

// SQLiteEmbeddingEntity represents a product embedding row in SQLite.
type SQLiteEmbeddingEntity struct {
	ID                int64        `gorm:"column:id;primaryKey;autoIncrement"`
	ProductID         int64        `gorm:"column:product_id;uniqueIndex"`
	TitleVector       Float64Slice `gorm:"column:title_vector;type:json"`
	DescriptionVector Float64Slice `gorm:"column:description_vector;type:json"`
	CombinedVector    Float64Slice `gorm:"column:combined_vector;type:json"`
	UpdatedAt         time.Time    `gorm:"column:updated_at"`
}

// TableName returns the embeddings table name.
func (SQLiteEmbeddingEntity) TableName() string { return pgEmbeddingTable }

// ErrSQLiteVectorInitializationFailed indicates SQLite vector initialization failed.
var ErrSQLiteVectorInitializationFailed = errors.New("failed to initialize SQLite vector store")

// SQLiteVectorStore implements search.VectorStore for SQLite. Embeddings
// are stored as JSON and ranked with in-process cosine similarity, which is
// fine at catalog scale and keeps single-binary deployments dependency-free.
type SQLiteVectorStore struct {
	db           database.Database
	probeTimeout time.Duration
	logger       *slog.Logger
	initialized  bool
	mu           sync.Mutex
}

// NewSQLiteVectorStore creates a new SQLiteVectorStore.
func NewSQLiteVectorStore(db database.Database, logger *slog.Logger) *SQLiteVectorStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteVectorStore{
		db:           db,
		probeTimeout: 3 * time.Second,
		logger:       logger,
	}
}

func (s *SQLiteVectorStore) initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}
	if err := s.db.Session(ctx).AutoMigrate(&SQLiteEmbeddingEntity{}); err != nil {
		return errors.Join(ErrSQLiteVectorInitializationFailed, err)
	}
	s.initialized = true
	return nil
}

// Available reports whether the embeddings table is reachable.
func (s *SQLiteVectorStore) Available(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, s.probeTimeout)
	defer cancel()

	if err := s.initialize(probeCtx); err != nil {
		s.logger.Warn("vector store probe failed", "error", err)
		return false
	}
	var count int64
	if err := s.db.Session(probeCtx).Model(&SQLiteEmbeddingEntity{}).Count(&count).Error; err != nil {
		s.logger.Warn("vector store probe failed", "error", err)
		return false
	}
	return true
}

// SimilaritySearch loads all combined vectors and ranks them in process.
func (s *SQLiteVectorStore) SimilaritySearch(ctx context.Context, query []float64, threshold float64, limit int) ([]search.Match, error) {
	if err := s.initialize(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = search.DefaultLimit
	}

	var entities []SQLiteEmbeddingEntity
	err := s.db.Session(ctx).Order("id ASC").Find(&entities).Error
	if err != nil {
		return nil, fmt.Errorf("load embeddings: %w", err)
	}

	vectors := make([]search.StoredVector, len(entities))
	for i, e := range entities {
		vectors[i] = search.NewStoredVector(e.ProductID, e.CombinedVector)
	}

	return search.RankAboveThreshold(query, vectors, threshold, limit), nil
}

// Upsert writes all three vectors for a product.
func (s *SQLiteVectorStore) Upsert(ctx context.Context, embedding search.ProductEmbedding) error {
	if err := s.initialize(ctx); err != nil {
		return err
	}

	entity := SQLiteEmbeddingEntity{
		ProductID:         embedding.ProductID(),
		TitleVector:       Float64Slice(embedding.Title()),
		DescriptionVector: Float64Slice(embedding.Description()),
		CombinedVector:    Float64Slice(embedding.Combined()),
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
func (s *SQLiteVectorStore) ProductIDs(ctx context.Context) ([]int64, error) {
	if err := s.initialize(ctx); err != nil {
		return nil, err
	}
	var ids []int64
	err := s.db.Session(ctx).
		Model(&SQLiteEmbeddingEntity{}).
		Pluck("product_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list embedded product ids: %w", err)
	}
	return ids, nil
}

// Count returns the number of embedding rows.
func (s *SQLiteVectorStore) Count(ctx context.Context) (int64, error) {
	if err := s.initialize(ctx); err != nil {
		return 0, err
	}
	var count int64
	err := s.db.Session(ctx).Model(&SQLiteEmbeddingEntity{}).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count embeddings: %w", err)
	}
	return count, nil
}

var _ search.VectorStore = (*SQLiteVectorStore)(nil)
