package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/bsg-marketplace/backend/internal/middleware"
	"github.com/anonto42/bsg-marketplace/backend/internal/models"
	"github.com/anonto42/bsg-marketplace/backend/internal/repositories"
)

// MessageHandler handles buyer/seller messaging
type MessageHandler struct {
	messageRepository repositories.MessageRepository
	listingRepository repositories.ListingRepository
	userRepository    repositories.UserRepository
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(messageRepo repositories.MessageRepository, listingRepo repositories.ListingRepository, userRepo repositories.UserRepository) *MessageHandler {
	return &MessageHandler{
		messageRepository: messageRepo,
		listingRepository: listingRepo,
		userRepository:    userRepo,
	}
}

// RegisterMessageRoutes registers message routes
func (h *MessageHandler) RegisterMessageRoutes(g *echo.Group, guard *middleware.Guard) {
	g.GET("", h.Thread, guard.RequireAuth)
	g.GET("/conversations", h.Conversations, guard.RequireAuth)
	g.GET("/unread-count", h.UnreadCount, guard.RequireAuth)
	g.POST("", h.Send, guard.RequireAuth)
	g.POST("/mark-read", h.MarkRead, guard.RequireAuth)
}

func (h *MessageHandler) Conversations(c echo.Context) error {
	identity, err := currentUser(c)
	if err != nil {
		return err
	}

	conversations, err := h.messageRepository.Conversations(c.Request().Context(), identity.ID)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "", conversations)
}

// UnreadCount reports how many messages addressed to the caller are unread.
func (h *MessageHandler) UnreadCount(c echo.Context) error {
	identity, err := currentUser(c)
	if err != nil {
		return err
	}

	n, err := h.messageRepository.UnreadCount(c.Request().Context(), identity.ID)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "", models.UnreadCount{UnreadCount: n})
}

// Thread returns the messages exchanged with other_user_id about listing_id.
func (h *MessageHandler) Thread(c echo.Context) error {
	identity, err := currentUser(c)
	if err != nil {
		return err
	}
	req, err := threadRequest(c)
	if err != nil {
		return err
	}

	msgs, err := h.messageRepository.Thread(c.Request().Context(), identity.ID, req.ListingID, req.OtherUserID)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "", msgs)
}

func (h *MessageHandler) Send(c echo.Context) error {
	identity, err := currentUser(c)
	if err != nil {
		return err
	}

	var req models.SendMessageRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	listingID, receiverID := req.ListingID.Uint(), req.ReceiverID.Uint()
	if receiverID == identity.ID {
		return echo.NewHTTPError(http.StatusBadRequest, "You cannot send a message to yourself")
	}
	ctx := c.Request().Context()

	if _, err := h.listingRepository.GetActiveByID(ctx, listingID, 0); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Listing not found")
		}
		return err
	}
	if _, err := h.userRepository.GetByID(ctx, receiverID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Receiver not found")
		}
		return err
	}

	msg := &models.Message{
		ListingID:  listingID,
		SenderID:   identity.ID,
		ReceiverID: receiverID,
		Body:       req.Message,
	}
	if err := h.messageRepository.Create(ctx, msg); err != nil {
		return err
	}

	sent, err := h.messageRepository.GetByID(ctx, msg.ID)
	if err != nil {
		return err
	}
	return success(c, http.StatusCreated, "Message sent successfully", sent)
}

// MarkRead flags the counterpart's messages in a thread as read.
func (h *MessageHandler) MarkRead(c echo.Context) error {
	identity, err := currentUser(c)
	if err != nil {
		return err
	}
	req, err := threadRequest(c)
	if err != nil {
		return err
	}

	n, err := h.messageRepository.MarkRead(c.Request().Context(), identity.ID, req.ListingID, req.OtherUserID)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "Messages marked as read", echo.Map{"updated": n})
}

// threadRequest reads listing_id and other_user_id from the query string
// (GET) or the JSON body (POST).
func threadRequest(c echo.Context) (*models.ThreadRequest, error) {
	var req models.ThreadRequest
	if err := c.Bind(&req); err != nil || req.ListingID == 0 || req.OtherUserID == 0 {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "listing_id and other_user_id are required")
	}
	return &req, nil
}
