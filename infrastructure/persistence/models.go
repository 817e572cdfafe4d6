// Package persistence provides catalog storage over the primary relational store.
package persistence

import (
	"time"

	"github.com/cataloghq/semsearch/domain/catalog"
)

// ProductModel is the GORM model for the products table. The search
// subsystem reads this table; writes belong to the upstream product
// management service.
type ProductModel struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Name        string    `gorm:"column:name;not null"`
	Description string    `gorm:"column:description"`
	Price       float64   `gorm:"column:price"`
	Featured    bool      `gorm:"column:featured;default:false"`
	Active      bool      `gorm:"column:active;default:true;index"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

// TableName returns the products table name.
func (ProductModel) TableName() string { return "products" }

// productMapper converts between catalog.Product and ProductModel.
type productMapper struct{}

func (productMapper) ToDomain(m ProductModel) catalog.Product {
	return catalog.NewProduct(m.ID, m.Name, m.Description, m.Price, m.Active).
		WithFeatured(m.Featured).
		WithCreatedAt(m.CreatedAt)
}

func (productMapper) ToModel(p catalog.Product) ProductModel {
	return ProductModel{
		ID:          p.ID(),
		Name:        p.Name(),
		Description: p.Description(),
		Price:       p.Price(),
		Featured:    p.Featured(),
		Active:      p.Active(),
		CreatedAt:   p.CreatedAt(),
	}
}
