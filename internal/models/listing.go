package models

import (
	"time"

	"github.com/anonto42/bsg-marketplace/backend/validators"
)

// Condition is the physical state of a listed item.
type Condition string

const (
	ConditionNew     Condition = "new"
	ConditionLikeNew Condition = "like_new"
	ConditionGood    Condition = "good"
	ConditionFair    Condition = "fair"
	ConditionPoor    Condition = "poor"
)

type Listing struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserID      uint      `json:"user_id" gorm:"not null;index"`
	CategoryID  uint      `json:"category_id" gorm:"not null;index"`
	Title       string    `json:"title" gorm:"size:200;not null"`
	Description string    `json:"description" gorm:"type:text;not null"`
	Price       float64   `json:"price" gorm:"type:decimal(10,2);not null;default:0"`
	IsFree      bool      `json:"is_free" gorm:"not null;default:false"`
	Condition   Condition `json:"condition_type" gorm:"column:condition_type;size:20;not null"`
	Location    string    `json:"location" gorm:"size:100;not null"`
	IsActive    bool      `json:"is_active" gorm:"not null;default:true;index"`
	IsFeatured  bool      `json:"is_featured" gorm:"not null;default:false"`
	ViewsCount  int       `json:"views_count" gorm:"not null;default:0"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Images []ListingImage `json:"images,omitempty" gorm:"-"`

	User     *User     `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Category *Category `json:"-"`
}

type ListingImage struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	ListingID uint   `json:"listing_id" gorm:"not null;index"`
	ImageURL  string `json:"image_url" gorm:"size:255;not null"`
	IsPrimary bool   `json:"is_primary" gorm:"not null;default:false"`
	SortOrder int    `json:"sort_order" gorm:"not null;default:0"`

	Listing *Listing `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

// ListingView is a listing joined with its seller, category and primary image.
type ListingView struct {
	Listing
	Username     string  `json:"username"`
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	AvatarURL    *string `json:"avatar_url"`
	Phone        *string `json:"phone,omitempty"`
	SellerName   string  `json:"seller_name,omitempty"`
	CategoryName string  `json:"category_name"`
	CategorySlug string  `json:"category_slug"`
	PrimaryImage *string `json:"primary_image"`
	IsFavorited  *bool   `json:"is_favorited,omitempty"`
}

// ListingPage is one page of a filtered listing query.
type ListingPage struct {
	Category *Category     `json:"category,omitempty"`
	Listings []ListingView `json:"listings"`
	Total    int64         `json:"total"`
	Query    string        `json:"query,omitempty"`
	Limit    int           `json:"limit"`
	Offset   int           `json:"offset"`
}

// CreateListingRequest is accepted as JSON or as multipart form fields.
type CreateListingRequest struct {
	Title       string             `json:"title" form:"title" validate:"required,max=200"`
	Description string             `json:"description" form:"description" validate:"required"`
	CategoryID  validators.Numeric `json:"category_id" form:"category_id" validate:"required,numeric,min=1"`
	Price       validators.Numeric `json:"price" form:"price" validate:"omitempty,numeric,price"`
	Condition   string             `json:"condition_type" form:"condition_type" validate:"required,oneof=new like_new good fair poor"`
	Location    string             `json:"location" form:"location" validate:"required,max=100"`
}

// Listing builds the row to insert for owner; is_free follows the price.
func (r *CreateListingRequest) Listing(ownerID uint) *Listing {
	price := 0.0
	if r.Price.Valid {
		price = r.Price.Value
	}
	return &Listing{
		UserID:      ownerID,
		CategoryID:  r.CategoryID.Uint(),
		Title:       r.Title,
		Description: r.Description,
		Price:       price,
		IsFree:      price == 0,
		Condition:   Condition(r.Condition),
		Location:    r.Location,
		IsActive:    true,
	}
}

// UpdateListingRequest carries a sparse patch: nil or unset fields are left untouched.
type UpdateListingRequest struct {
	Title       *string            `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string            `json:"description" validate:"omitempty,min=1"`
	CategoryID  validators.Numeric `json:"category_id" validate:"omitempty,numeric,min=1"`
	Price       validators.Numeric `json:"price" validate:"omitempty,numeric,price"`
	Condition   *string            `json:"condition_type" validate:"omitempty,oneof=new like_new good fair poor"`
	Location    *string            `json:"location" validate:"omitempty,min=1,max=100"`
}

// Patch returns the column updates described by the request. Changing the
// price also rewrites is_free.
func (r *UpdateListingRequest) Patch() map[string]interface{} {
	patch := map[string]interface{}{}
	if r.Title != nil {
		patch["title"] = *r.Title
	}
	if r.Description != nil {
		patch["description"] = *r.Description
	}
	if r.CategoryID.Set {
		patch["category_id"] = r.CategoryID.Uint()
	}
	if r.Price.Set && r.Price.Valid {
		patch["price"] = r.Price.Value
		patch["is_free"] = r.Price.Value == 0
	}
	if r.Condition != nil {
		patch["condition_type"] = *r.Condition
	}
	if r.Location != nil {
		patch["location"] = *r.Location
	}
	return patch
}

// AdminStats is the moderation dashboard summary.
type AdminStats struct {
	TotalUsers     int64         `json:"totalUsers"`
	TotalListings  int64         `json:"totalListings"`
	ActiveListings int64         `json:"activeListings"`
	RecentUsers    []User        `json:"recentUsers"`
	RecentListings []ListingView `json:"recentListings"`
}

// StatusToggle is returned by the admin activate/deactivate endpoints.
type StatusToggle struct {
	ID       uint `json:"id"`
	IsActive bool `json:"is_active"`
}
