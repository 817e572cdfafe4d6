package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/cataloghq/semsearch/domain/catalog"
	"github.com/cataloghq/semsearch/internal/database"
)

// CatalogStore implements catalog.Store against the primary relational
// store. All operations are read-only.
type CatalogStore struct {
	db     database.Database
	mapper productMapper
}

// NewCatalogStore creates a new CatalogStore.
func NewCatalogStore(db database.Database) *CatalogStore {
	return &CatalogStore{db: db}
}

// ActiveByIDs returns the active subset of the given products, preserving
// the input ID ordering. IDs with no active row are dropped silently; a
// product can transiently lack a catalog row when the vector store is
// ahead of the catalog, and that is not an error.
func (s *CatalogStore) ActiveByIDs(ctx context.Context, ids []int64) ([]catalog.Product, error) {
	if len(ids) == 0 {
		return []catalog.Product{}, nil
	}

	var models []ProductModel
	err := s.db.Session(ctx).
		Where("id IN ?", ids).
		Where("active = ?", true).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("find products by ids: %w", err)
	}

	byID := make(map[int64]ProductModel, len(models))
	for _, m := range models {
		byID[m.ID] = m
	}

	// Re-order to match the input: callers pass IDs ranked by similarity
	// and expect that ordering back.
	products := make([]catalog.Product, 0, len(models))
	for _, id := range ids {
		if m, ok := byID[id]; ok {
			products = append(products, s.mapper.ToDomain(m))
		}
	}
	return products, nil
}

// ActiveIDs returns the IDs of all active products.
func (s *CatalogStore) ActiveIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := s.db.Session(ctx).
		Model(&ProductModel{}).
		Where("active = ?", true).
		Order("id ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list active product ids: %w", err)
	}
	return ids, nil
}

// AllActive returns all active products, newest first.
func (s *CatalogStore) AllActive(ctx context.Context) ([]catalog.Product, error) {
	var models []ProductModel
	err := s.db.Session(ctx).
		Where("active = ?", true).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("list active products: %w", err)
	}
	return s.toDomain(models), nil
}

// KeywordSearch performs a case-insensitive substring match over name and
// description, newest first. Zero matches return an empty slice.
func (s *CatalogStore) KeywordSearch(ctx context.Context, query string, limit int) ([]catalog.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" || limit <= 0 {
		return []catalog.Product{}, nil
	}

	// LOWER(...) LIKE keeps the match case-insensitive on both SQLite
	// and PostgreSQL; ILIKE is Postgres-only.
	pattern := "%" + strings.ToLower(query) + "%"

	var models []ProductModel
	err := s.db.Session(ctx).
		Where("active = ?", true).
		Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern).
		Order("created_at DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	return s.toDomain(models), nil
}

func (s *CatalogStore) toDomain(models []ProductModel) []catalog.Product {
	products := make([]catalog.Product, len(models))
	for i, m := range models {
		products[i] = s.mapper.ToDomain(m)
	}
	return products
}

var _ catalog.Store = (*CatalogStore)(nil)
