package models

import "time"

// Favorite marks a user's interest in a listing. The pair is the primary key,
// so a user can favorite a listing at most once.
type Favorite struct {
	UserID    uint      `json:"user_id" gorm:"primaryKey;autoIncrement:false"`
	ListingID uint      `json:"listing_id" gorm:"primaryKey;autoIncrement:false;index"`
	CreatedAt time.Time `json:"created_at"`

	User    *User    `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Listing *Listing `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

// FavoriteStatus is the body returned by the favorite toggles.
type FavoriteStatus struct {
	IsFavorited bool `json:"is_favorited"`
}
