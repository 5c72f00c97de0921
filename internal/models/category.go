package models

import "time"

type Category struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:100;not null"`
	Slug      string    `json:"slug" gorm:"size:100;not null;uniqueIndex"`
	Icon      *string   `json:"icon" gorm:"size:50"`
	SortOrder int       `json:"sort_order" gorm:"not null;default:0"`
	IsActive  bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at"`
}

// CategoryWithCount is a category annotated with its number of active listings.
type CategoryWithCount struct {
	Category
	ListingCount int64 `json:"listing_count"`
}

// CategoryCount is one row of the per-category listing tally.
type CategoryCount struct {
	ID           uint    `json:"id"`
	Name         string  `json:"name"`
	Slug         string  `json:"slug"`
	Icon         *string `json:"icon"`
	ListingCount int64   `json:"listing_count"`
}
