package repositories

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/anonto42/bsg-marketplace/backend/internal/listingquery"
	"github.com/anonto42/bsg-marketplace/backend/internal/models"
)

const (
	DefaultFeaturedLimit = 4
	DefaultAdminLimit    = 50
)

// ListingRepository defines the interface for listing data operations
type ListingRepository interface {
	Search(ctx context.Context, f listingquery.Filter) ([]models.ListingView, error)
	Count(ctx context.Context, f listingquery.Filter) (int64, error)
	Featured(ctx context.Context, limit int, viewerID uint) ([]models.ListingView, error)
	GetActiveByID(ctx context.Context, id, viewerID uint) (*models.ListingView, error)
	GetByID(ctx context.Context, id uint) (*models.Listing, error)
	Images(ctx context.Context, listingID uint) ([]models.ListingImage, error)
	ListAll(ctx context.Context, limit, offset int) ([]models.ListingView, error)
	Recent(ctx context.Context, n int) ([]models.ListingView, error)
	CountAll(ctx context.Context, activeOnly bool) (int64, error)
	Create(ctx context.Context, listing *models.Listing, imageURLs []string) error
	Update(ctx context.Context, id uint, patch map[string]interface{}) error
	Deactivate(ctx context.Context, id uint) error
	SetActive(ctx context.Context, id uint, active bool) error
	IncrementViews(ctx context.Context, id uint) error
}

// updatableColumns is the closed set of columns a listing patch may touch.
var updatableColumns = map[string]bool{
	"title":          true,
	"description":    true,
	"price":          true,
	"is_free":        true,
	"condition_type": true,
	"location":       true,
	"category_id":    true,
}

var listingColumns = []string{
	"l.*",
	"u.username",
	"u.first_name",
	"u.last_name",
	"u.avatar_url",
	"c.name AS category_name",
	"c.slug AS category_slug",
	"li.image_url AS primary_image",
}

// GormListingRepository implements ListingRepository on gorm
type GormListingRepository struct {
	db *gorm.DB
}

func NewGormListingRepository(db *gorm.DB) *GormListingRepository {
	return &GormListingRepository{db: db}
}

// views is the shared SELECT ... FROM listings l with seller, category and
// primary image joins.
func views(db *gorm.DB, columns []string) *gorm.DB {
	return db.Table("listings AS l").
		Select(columns).
		Joins("LEFT JOIN users u ON u.id = l.user_id").
		Joins("LEFT JOIN categories c ON c.id = l.category_id").
		Joins("LEFT JOIN listing_images li ON li.listing_id = l.id AND li.is_primary = ?", true)
}

// searchQuery renders a plan into the page query.
func searchQuery(db *gorm.DB, plan listingquery.Plan) *gorm.DB {
	q := plan.Annotate(views(db, plan.Columns(listingColumns)))
	return plan.Page(plan.Where(q))
}

func (r *GormListingRepository) Search(ctx context.Context, f listingquery.Filter) ([]models.ListingView, error) {
	listings := []models.ListingView{}
	err := searchQuery(r.db.WithContext(ctx), listingquery.Build(f)).Find(&listings).Error
	return listings, errors.Wrap(err, "listingRepo.Search")
}

// Count reports how many rows Search would enumerate across all pages.
func (r *GormListingRepository) Count(ctx context.Context, f listingquery.Filter) (int64, error) {
	var total int64
	plan := listingquery.Build(f)
	err := plan.Where(r.db.WithContext(ctx).Table("listings AS l")).Count(&total).Error
	return total, errors.Wrap(err, "listingRepo.Count")
}

func (r *GormListingRepository) Featured(ctx context.Context, limit int, viewerID uint) ([]models.ListingView, error) {
	if limit <= 0 {
		limit = DefaultFeaturedLimit
	}
	plan := listingquery.Build(listingquery.Filter{ViewerID: viewerID, Limit: limit})
	plan.Predicates = append(plan.Predicates, listingquery.Predicate{
		Kind:    listingquery.Equal,
		Columns: []string{"l.is_featured"},
		Value:   true,
	})

	listings := []models.ListingView{}
	err := searchQuery(r.db.WithContext(ctx), plan).Find(&listings).Error
	return listings, errors.Wrap(err, "listingRepo.Featured")
}

// GetActiveByID returns the public detail view: seller phone, ordered images
// and, for a signed-in viewer, the favorite flag.
func (r *GormListingRepository) GetActiveByID(ctx context.Context, id, viewerID uint) (*models.ListingView, error) {
	plan := listingquery.Build(listingquery.Filter{ViewerID: viewerID})
	plan.Predicates = append(plan.Predicates, listingquery.Predicate{
		Kind:    listingquery.Equal,
		Columns: []string{"l.id"},
		Value:   id,
	})

	columns := plan.Columns(append(append([]string{}, listingColumns...), "u.phone"))
	q := plan.Where(plan.Annotate(views(r.db.WithContext(ctx), columns)))

	var listing models.ListingView
	if err := q.Take(&listing).Error; err != nil {
		return nil, errors.Wrap(err, "listingRepo.GetActiveByID")
	}

	images, err := r.Images(ctx, id)
	if err != nil {
		return nil, err
	}
	listing.Images = images
	return &listing, nil
}

// GetByID returns the listing row in any state.
func (r *GormListingRepository) GetByID(ctx context.Context, id uint) (*models.Listing, error) {
	var listing models.Listing
	if err := r.db.WithContext(ctx).Take(&listing, id).Error; err != nil {
		return nil, errors.Wrap(err, "listingRepo.GetByID")
	}
	return &listing, nil
}

func (r *GormListingRepository) Images(ctx context.Context, listingID uint) ([]models.ListingImage, error) {
	images := []models.ListingImage{}
	err := r.db.WithContext(ctx).
		Where("listing_id = ?", listingID).
		Order("sort_order ASC").Order("id ASC").
		Find(&images).Error
	return images, errors.Wrap(err, "listingRepo.Images")
}

// ListAll is the moderation table: inactive listings included, seller name
// flattened.
func (r *GormListingRepository) ListAll(ctx context.Context, limit, offset int) ([]models.ListingView, error) {
	if limit <= 0 {
		limit = DefaultAdminLimit
	}
	columns := append(append([]string{}, listingColumns...), "CONCAT(u.first_name, ' ', u.last_name) AS seller_name")

	listings := []models.ListingView{}
	err := views(r.db.WithContext(ctx), columns).
		Order("l.created_at DESC").Order("l.id DESC").
		Limit(limit).Offset(offset).
		Find(&listings).Error
	return listings, errors.Wrap(err, "listingRepo.ListAll")
}

func (r *GormListingRepository) Recent(ctx context.Context, n int) ([]models.ListingView, error) {
	return r.ListAll(ctx, n, 0)
}

func (r *GormListingRepository) CountAll(ctx context.Context, activeOnly bool) (int64, error) {
	var total int64
	q := r.db.WithContext(ctx).Model(&models.Listing{})
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	err := q.Count(&total).Error
	return total, errors.Wrap(err, "listingRepo.CountAll")
}

// Create inserts the listing and its images in one transaction. The first
// image is the primary one.
func (r *GormListingRepository) Create(ctx context.Context, listing *models.Listing, imageURLs []string) error {
	listing.IsFree = listing.Price == 0

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(listing).Error; err != nil {
			return err
		}
		if len(imageURLs) == 0 {
			return nil
		}

		images := make([]models.ListingImage, len(imageURLs))
		for i, url := range imageURLs {
			images[i] = models.ListingImage{
				ListingID: listing.ID,
				ImageURL:  url,
				IsPrimary: i == 0,
				SortOrder: i,
			}
		}
		if err := tx.Create(&images).Error; err != nil {
			return err
		}
		listing.Images = images
		return nil
	})
	return errors.Wrap(err, "listingRepo.Create")
}

// Update applies a sparse patch. Columns outside updatableColumns are
// ignored; a patch left empty is rejected without touching the row.
// Callers check ownership first.
func (r *GormListingRepository) Update(ctx context.Context, id uint, patch map[string]interface{}) error {
	updates := make(map[string]interface{}, len(patch))
	for col, v := range patch {
		if updatableColumns[col] {
			updates[col] = v
		}
	}
	if len(updates) == 0 {
		return ErrEmptyPatch
	}
	if price, ok := updates["price"].(float64); ok {
		updates["is_free"] = price == 0
	}

	err := r.db.WithContext(ctx).Model(&models.Listing{ID: id}).Updates(updates).Error
	return errors.Wrap(err, "listingRepo.Update")
}

// Deactivate is the soft delete: the row stays, hidden from public reads.
func (r *GormListingRepository) Deactivate(ctx context.Context, id uint) error {
	return r.SetActive(ctx, id, false)
}

func (r *GormListingRepository) SetActive(ctx context.Context, id uint, active bool) error {
	err := r.db.WithContext(ctx).Model(&models.Listing{ID: id}).Update("is_active", active).Error
	return errors.Wrap(err, "listingRepo.SetActive")
}

func (r *GormListingRepository) IncrementViews(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Model(&models.Listing{ID: id}).
		UpdateColumn("views_count", gorm.Expr("views_count + ?", 1)).Error
	return errors.Wrap(err, "listingRepo.IncrementViews")
}
