package repositories

//go:generate mockgen -destination=mocks/repositories.go -package=mocks github.com/anonto42/bsg-marketplace/backend/internal/repositories AuditRepository,CategoryRepository,FavoriteRepository,ListingRepository,MessageRepository,UserRepository

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = gorm.ErrRecordNotFound
	ErrDuplicate = gorm.ErrDuplicatedKey

	ErrAlreadyFavorited = errors.New("listing already favorited")
	ErrFavoriteNotFound = errors.New("listing not in favorites")
	ErrEmptyPatch       = errors.New("no valid fields to update")
)
