package persistence

import "github.com/cataloghq/semsearch/internal/database"

// AutoMigrate runs GORM auto migration for the catalog models. The vector
// store manages its own schema (it may live in a different database).
func AutoMigrate(db database.Database) error {
	return db.GORM().AutoMigrate(
		&ProductModel{},
	)
}
