package repositories

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/anonto42/bsg-marketplace/backend/internal/models"
)

// CategoryRepository defines the interface for category data operations
type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	List(ctx context.Context) ([]models.Category, error)
	ListWithCounts(ctx context.Context) ([]models.CategoryWithCount, error)
	Counts(ctx context.Context) ([]models.CategoryCount, error)
	GetByID(ctx context.Context, id uint) (*models.Category, error)
}

// GormCategoryRepository implements CategoryRepository on gorm
type GormCategoryRepository struct {
	db *gorm.DB
}

func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

func (r *GormCategoryRepository) Create(ctx context.Context, category *models.Category) error {
	return errors.Wrap(r.db.WithContext(ctx).Create(category).Error, "categoryRepo.Create")
}

func (r *GormCategoryRepository) List(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("sort_order ASC").Order("name ASC").
		Find(&categories).Error
	return categories, errors.Wrap(err, "categoryRepo.List")
}

func (r *GormCategoryRepository) ListWithCounts(ctx context.Context) ([]models.CategoryWithCount, error) {
	categories := []models.CategoryWithCount{}
	err := r.db.WithContext(ctx).
		Table("categories AS c").
		Select("c.*, COUNT(l.id) AS listing_count").
		Joins("LEFT JOIN listings l ON l.category_id = c.id AND l.is_active = ?", true).
		Where("c.is_active = ?", true).
		Group("c.id").
		Order("c.sort_order ASC").Order("c.name ASC").
		Find(&categories).Error
	return categories, errors.Wrap(err, "categoryRepo.ListWithCounts")
}

func (r *GormCategoryRepository) Counts(ctx context.Context) ([]models.CategoryCount, error) {
	counts := []models.CategoryCount{}
	err := r.db.WithContext(ctx).
		Table("categories AS c").
		Select("c.id, c.name, c.slug, c.icon, COUNT(l.id) AS listing_count").
		Joins("LEFT JOIN listings l ON l.category_id = c.id AND l.is_active = ?", true).
		Where("c.is_active = ?", true).
		Group("c.id, c.name, c.slug, c.icon").
		Order("c.name ASC").
		Find(&counts).Error
	return counts, errors.Wrap(err, "categoryRepo.Counts")
}

// GetByID returns an active category.
func (r *GormCategoryRepository) GetByID(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).Take(&category).Error
	if err != nil {
		return nil, errors.Wrap(err, "categoryRepo.GetByID")
	}
	return &category, nil
}
