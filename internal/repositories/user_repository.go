package repositories

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/anonto42/bsg-marketplace/backend/internal/models"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetActiveByEmail(ctx context.Context, email string) (*models.User, error)
	IsActive(ctx context.Context, id uint) (bool, error)
	GetByFirebaseUID(ctx context.Context, uid string) (*models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdateProfile(ctx context.Context, id uint, req *models.UpdateProfileRequest) error
	LinkFirebaseUID(ctx context.Context, id uint, uid string) error
	SetActive(ctx context.Context, id uint, active bool) error
	List(ctx context.Context, limit, offset int) ([]models.User, error)
	Recent(ctx context.Context, n int) ([]models.User, error)
	Count(ctx context.Context) (int64, error)
}

// GormUserRepository implements UserRepository on gorm
type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) Create(ctx context.Context, user *models.User) error {
	return errors.Wrap(r.db.WithContext(ctx).Create(user).Error, "userRepo.Create")
}

// GetByID returns the user whatever its active state.
func (r *GormUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Take(&user, id).Error; err != nil {
		return nil, errors.Wrap(err, "userRepo.GetByID")
	}
	return &user, nil
}

// IsActive reports whether the account exists and has not been deactivated.
func (r *GormUserRepository) IsActive(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND is_active = ?", id, true).
		Count(&count).Error
	return count > 0, errors.Wrap(err, "userRepo.IsActive")
}

// GetActiveByEmail is the login lookup: deactivated accounts are not found.
func (r *GormUserRepository) GetActiveByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("email = ? AND is_active = ?", email, true).Take(&user).Error
	if err != nil {
		return nil, errors.Wrap(err, "userRepo.GetActiveByEmail")
	}
	return &user, nil
}

func (r *GormUserRepository) GetByFirebaseUID(ctx context.Context, uid string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("firebase_uid = ?", uid).Take(&user).Error; err != nil {
		return nil, errors.Wrap(err, "userRepo.GetByFirebaseUID")
	}
	return &user, nil
}

func (r *GormUserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Count(&count).Error
	return count > 0, errors.Wrap(err, "userRepo.UsernameExists")
}

func (r *GormUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, errors.Wrap(err, "userRepo.EmailExists")
}

func (r *GormUserRepository) UpdateProfile(ctx context.Context, id uint, req *models.UpdateProfileRequest) error {
	err := r.db.WithContext(ctx).Model(&models.User{ID: id}).Updates(map[string]interface{}{
		"first_name": req.FirstName,
		"last_name":  req.LastName,
		"phone":      req.Phone,
	}).Error
	return errors.Wrap(err, "userRepo.UpdateProfile")
}

func (r *GormUserRepository) LinkFirebaseUID(ctx context.Context, id uint, uid string) error {
	err := r.db.WithContext(ctx).Model(&models.User{ID: id}).Update("firebase_uid", uid).Error
	return errors.Wrap(err, "userRepo.LinkFirebaseUID")
}

func (r *GormUserRepository) SetActive(ctx context.Context, id uint, active bool) error {
	err := r.db.WithContext(ctx).Model(&models.User{ID: id}).Update("is_active", active).Error
	return errors.Wrap(err, "userRepo.SetActive")
}

func (r *GormUserRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Limit(limit).Offset(offset).Find(&users).Error
	return users, errors.Wrap(err, "userRepo.List")
}

func (r *GormUserRepository) Recent(ctx context.Context, n int) ([]models.User, error) {
	return r.List(ctx, n, 0)
}

func (r *GormUserRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error
	return count, errors.Wrap(err, "userRepo.Count")
}
