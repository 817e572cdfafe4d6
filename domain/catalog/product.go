// Package catalog provides the product catalog domain types.
package catalog

import (
	"strings"
	"time"
)

// Product represents a catalog product as read from the primary store.
// The search subsystem treats products as read-only; only active products
// are eligible for search results.
type Product struct {
	id          int64
	name        string
	description string
	price       float64
	featured    bool
	active      bool
	createdAt   time.Time
}

// NewProduct creates a new Product.
func NewProduct(id int64, name, description string, price float64, active bool) Product {
	return Product{
		id:          id,
		name:        name,
		description: description,
		price:       price,
		active:      active,
	}
}

// ID returns the product identifier.
func (p Product) ID() int64 { return p.id }

// Name returns the product name.
func (p Product) Name() string { return p.name }

// Description returns the product description.
func (p Product) Description() string { return p.description }

// Price returns the product price.
func (p Product) Price() float64 { return p.price }

// Featured returns whether the product is featured.
func (p Product) Featured() bool { return p.featured }

// Active returns whether the product is active.
func (p Product) Active() bool { return p.active }

// CreatedAt returns the creation timestamp.
func (p Product) CreatedAt() time.Time { return p.createdAt }

// WithFeatured returns a copy with the featured flag set.
func (p Product) WithFeatured(featured bool) Product {
	p.featured = featured
	return p
}

// WithCreatedAt returns a copy with the creation timestamp set.
func (p Product) WithCreatedAt(t time.Time) Product {
	p.createdAt = t
	return p
}

// CombinedText returns the text used for the combined embedding: name and
// description joined by a single space and trimmed. An empty name or
// description degrades to the remaining field rather than embedding a null.
func (p Product) CombinedText() string {
	return strings.TrimSpace(p.name + " " + p.description)
}
