package repositories

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/anonto42/bsg-marketplace/backend/internal/models"
)

// MessageRepository defines the interface for message operations
type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	GetByID(ctx context.Context, id uint) (*models.MessageView, error)
	Thread(ctx context.Context, userID, listingID, otherUserID uint) ([]models.MessageView, error)
	Conversations(ctx context.Context, userID uint) ([]models.Conversation, error)
	MarkRead(ctx context.Context, userID, listingID, otherUserID uint) (int64, error)
	UnreadCount(ctx context.Context, userID uint) (int64, error)
}

var messageColumns = []string{
	"m.*",
	"u1.first_name AS sender_first_name",
	"u1.last_name AS sender_last_name",
	"u2.first_name AS receiver_first_name",
	"u2.last_name AS receiver_last_name",
	"l.title AS listing_title",
}

// GormMessageRepository implements MessageRepository on gorm
type GormMessageRepository struct {
	db *gorm.DB
}

func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

func messageViews(db *gorm.DB) *gorm.DB {
	return db.Table("messages AS m").
		Select(messageColumns).
		Joins("LEFT JOIN users u1 ON u1.id = m.sender_id").
		Joins("LEFT JOIN users u2 ON u2.id = m.receiver_id").
		Joins("LEFT JOIN listings l ON l.id = m.listing_id")
}

func (r *GormMessageRepository) Create(ctx context.Context, msg *models.Message) error {
	return errors.Wrap(r.db.WithContext(ctx).Create(msg).Error, "messageRepo.Create")
}

func (r *GormMessageRepository) GetByID(ctx context.Context, id uint) (*models.MessageView, error) {
	var msg models.MessageView
	if err := messageViews(r.db.WithContext(ctx)).Where("m.id = ?", id).Take(&msg).Error; err != nil {
		return nil, errors.Wrap(err, "messageRepo.GetByID")
	}
	return &msg, nil
}

// Thread returns the messages between userID and otherUserID about one
// listing, oldest first.
func (r *GormMessageRepository) Thread(ctx context.Context, userID, listingID, otherUserID uint) ([]models.MessageView, error) {
	msgs := []models.MessageView{}
	err := messageViews(r.db.WithContext(ctx)).
		Where("m.listing_id = ?", listingID).
		Where("(m.sender_id = ? AND m.receiver_id = ?) OR (m.sender_id = ? AND m.receiver_id = ?)",
			userID, otherUserID, otherUserID, userID).
		Order("m.created_at ASC").Order("m.id ASC").
		Find(&msgs).Error
	return msgs, errors.Wrap(err, "messageRepo.Thread")
}

// Conversations groups every message the user sent or received by listing
// and counterpart, most recent conversation first.
func (r *GormMessageRepository) Conversations(ctx context.Context, userID uint) ([]models.Conversation, error) {
	var msgs []models.MessageView
	err := messageViews(r.db.WithContext(ctx)).
		Where("m.sender_id = ? OR m.receiver_id = ?", userID, userID).
		Order("m.created_at DESC").Order("m.id DESC").
		Find(&msgs).Error
	if err != nil {
		return nil, errors.Wrap(err, "messageRepo.Conversations")
	}
	return groupConversations(userID, msgs), nil
}

// MarkRead flags as read the unread messages otherUserID sent to userID
// about the listing and returns how many changed.
func (r *GormMessageRepository) MarkRead(ctx context.Context, userID, listingID, otherUserID uint) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("receiver_id = ? AND listing_id = ? AND sender_id = ? AND is_read = ?", userID, listingID, otherUserID, false).
		Update("is_read", true)
	return res.RowsAffected, errors.Wrap(res.Error, "messageRepo.MarkRead")
}

func (r *GormMessageRepository) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("receiver_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, errors.Wrap(err, "messageRepo.UnreadCount")
}
