// Package search provides vector store clients for product embeddings.
package search

import (
	"time"

	"github.com/cataloghq/semsearch/internal/database"
)

// pgEmbeddingTable is the pgvector-backed embeddings table name.
const pgEmbeddingTable = "product_embeddings"

// PgEmbeddingEntity is the GORM model for the PostgreSQL product embedding
// table: one row per product, keyed by product_id, three fixed-dimension
// vector columns and an update timestamp.
type PgEmbeddingEntity struct {
	ID                int64             `gorm:"column:id;primaryKey;autoIncrement"`
	ProductID         int64             `gorm:"column:product_id;uniqueIndex"`
	TitleVector       database.PgVector `gorm:"column:title_vector;type:vector"`
	DescriptionVector database.PgVector `gorm:"column:description_vector;type:vector"`
	CombinedVector    database.PgVector `gorm:"column:combined_vector;type:vector"`
	UpdatedAt         time.Time         `gorm:"column:updated_at"`
}

// TableName returns the embeddings table name.
func (PgEmbeddingEntity) TableName() string { return pgEmbeddingTable }
