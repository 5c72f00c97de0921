package repositories

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/anonto42/bsg-marketplace/backend/internal/models"
)

// FavoriteRepository defines the interface for favorite operations
type FavoriteRepository interface {
	Add(ctx context.Context, userID, listingID uint) error
	Remove(ctx context.Context, userID, listingID uint) error
	ListByUser(ctx context.Context, userID uint) ([]models.ListingView, error)
}

// GormFavoriteRepository implements FavoriteRepository on gorm
type GormFavoriteRepository struct {
	db *gorm.DB
}

func NewGormFavoriteRepository(db *gorm.DB) *GormFavoriteRepository {
	return &GormFavoriteRepository{db: db}
}

// Add inserts the favorite unless it already exists, in a single statement.
// An existing row yields ErrAlreadyFavorited.
func (r *GormFavoriteRepository) Add(ctx context.Context, userID, listingID uint) error {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Favorite{UserID: userID, ListingID: listingID})
	if res.Error != nil {
		return errors.Wrap(res.Error, "favoriteRepo.Add")
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyFavorited
	}
	return nil
}

// Remove deletes the favorite; a missing row yields ErrFavoriteNotFound.
func (r *GormFavoriteRepository) Remove(ctx context.Context, userID, listingID uint) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND listing_id = ?", userID, listingID).
		Delete(&models.Favorite{})
	if res.Error != nil {
		return errors.Wrap(res.Error, "favoriteRepo.Remove")
	}
	if res.RowsAffected == 0 {
		return ErrFavoriteNotFound
	}
	return nil
}

// ListByUser returns the user's favorited active listings, newest favorite first.
func (r *GormFavoriteRepository) ListByUser(ctx context.Context, userID uint) ([]models.ListingView, error) {
	columns := append(append([]string{}, listingColumns...), "f.user_id IS NOT NULL AS is_favorited")

	listings := []models.ListingView{}
	err := views(r.db.WithContext(ctx), columns).
		Joins("JOIN favorites f ON f.listing_id = l.id AND f.user_id = ?", userID).
		Where("l.is_active = ?", true).
		Order("f.created_at DESC").Order("l.id DESC").
		Find(&listings).Error
	return listings, errors.Wrap(err, "favoriteRepo.ListByUser")
}
