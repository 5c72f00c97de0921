package models

import (
	"time"

	"github.com/anonto42/bsg-marketplace/backend/validators"
)

type Message struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	ListingID  uint      `json:"listing_id" gorm:"not null;index"`
	SenderID   uint      `json:"sender_id" gorm:"not null;index"`
	ReceiverID uint      `json:"receiver_id" gorm:"not null;index"`
	Body       string    `json:"message" gorm:"column:message;type:text;not null"`
	IsRead     bool      `json:"is_read" gorm:"not null;default:false"`
	CreatedAt  time.Time `json:"created_at"`

	Listing  *Listing `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Sender   *User    `json:"-" gorm:"foreignKey:SenderID"`
	Receiver *User    `json:"-" gorm:"foreignKey:ReceiverID"`
}

// MessageView is a message with sender/receiver names and the listing title.
type MessageView struct {
	Message
	SenderFirstName   string `json:"sender_first_name"`
	SenderLastName    string `json:"sender_last_name"`
	ReceiverFirstName string `json:"receiver_first_name"`
	ReceiverLastName  string `json:"receiver_last_name"`
	ListingTitle      string `json:"listing_title,omitempty"`
}

// Conversation summarizes the messages exchanged with one counterpart about one listing.
type Conversation struct {
	OtherUserID     uint      `json:"other_user_id"`
	OtherUserName   string    `json:"other_user_name"`
	ListingID       uint      `json:"listing_id"`
	ListingTitle    string    `json:"listing_title"`
	LastMessage     string    `json:"last_message"`
	LastMessageDate time.Time `json:"last_message_date"`
	UnreadCount     int       `json:"unread_count"`
}

// UnreadCount is the caller's number of unread received messages.
type UnreadCount struct {
	UnreadCount int64 `json:"unread_count"`
}

type SendMessageRequest struct {
	ListingID  validators.Numeric `json:"listing_id" validate:"required,numeric,min=1"`
	ReceiverID validators.Numeric `json:"receiver_id" validate:"required,numeric,min=1"`
	Message    string             `json:"message" validate:"required,max=1000"`
}

// ThreadRequest identifies a conversation: one listing, one counterpart.
type ThreadRequest struct {
	ListingID   uint `json:"listing_id" query:"listing_id"`
	OtherUserID uint `json:"other_user_id" query:"other_user_id"`
}
