package repositories

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/anonto42/bsg-marketplace/backend/internal/models"
)

// Migrate creates or updates the relational schema.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Listing{},
		&models.ListingImage{},
		&models.Favorite{},
		&models.Message{},
	)
	return errors.Wrap(err, "auto migrate")
}
