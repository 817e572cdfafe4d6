package search

import "time"

// Dimension is the fixed embedding vector length produced by the
// sentence-embedding model. Vector store schemas and the model pipeline
// must agree on this value.
const Dimension = 384

// ProductEmbedding holds the three embedding vectors persisted per product.
// The combined vector is derived from the product name and description
// joined by a single space and trimmed; it is the vector similarity search
// runs against.
type ProductEmbedding struct {
	productID   int64
	title       []float64
	description []float64
	combined    []float64
	updatedAt   time.Time
}

// NewProductEmbedding creates a ProductEmbedding. Vectors are defensively
// copied so later mutations of the source slices have no effect.
func NewProductEmbedding(productID int64, title, description, combined []float64) ProductEmbedding {
	return ProductEmbedding{
		productID:   productID,
		title:       copyVector(title),
		description: copyVector(description),
		combined:    copyVector(combined),
	}
}

// ProductID returns the owning product ID.
func (e ProductEmbedding) ProductID() int64 { return e.productID }

// Title returns a copy of the title vector.
func (e ProductEmbedding) Title() []float64 { return copyVector(e.title) }

// Description returns a copy of the description vector.
func (e ProductEmbedding) Description() []float64 { return copyVector(e.description) }

// Combined returns a copy of the combined vector.
func (e ProductEmbedding) Combined() []float64 { return copyVector(e.combined) }

// UpdatedAt returns the last upsert timestamp.
func (e ProductEmbedding) UpdatedAt() time.Time { return e.updatedAt }

// WithUpdatedAt returns a copy with the timestamp set.
func (e ProductEmbedding) WithUpdatedAt(t time.Time) ProductEmbedding {
	e.updatedAt = t
	return e
}

func copyVector(v []float64) []float64 {
	if v == nil {
		return nil
	}
	cp := make([]float64, len(v))
	copy(cp, v)
	return cp
}
