package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/bsg-marketplace/backend/internal/auth"
	"github.com/anonto42/bsg-marketplace/backend/internal/listingquery"
	"github.com/anonto42/bsg-marketplace/backend/internal/middleware"
	"github.com/anonto42/bsg-marketplace/backend/internal/models"
	"github.com/anonto42/bsg-marketplace/backend/internal/repositories"
	"github.com/anonto42/bsg-marketplace/backend/pkg/logger"
)

const recentItems = 5

// AdminHandler serves the moderation endpoints. Every route requires the
// admin role.
type AdminHandler struct {
	userRepository    repositories.UserRepository
	listingRepository repositories.ListingRepository
	auditRepository   repositories.AuditRepository
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(userRepo repositories.UserRepository, listingRepo repositories.ListingRepository, auditRepo repositories.AuditRepository) *AdminHandler {
	return &AdminHandler{
		userRepository:    userRepo,
		listingRepository: listingRepo,
		auditRepository:   auditRepo,
	}
}

// RegisterAdminRoutes registers admin routes
func (h *AdminHandler) RegisterAdminRoutes(g *echo.Group, guard *middleware.Guard) {
	admin := guard.RequireAdmin
	g.GET("/stats", h.Stats, admin)
	g.GET("/users", h.Users, admin)
	g.GET("/listings", h.Listings, admin)
	g.GET("/audit", h.Audit, admin)
	g.PUT("/users/:id/toggle-status", h.ToggleUserStatus, admin)
	g.PUT("/listings/:id/toggle-status", h.ToggleListingStatus, admin)
}

func (h *AdminHandler) Stats(c echo.Context) error {
	ctx := c.Request().Context()
	var (
		stats models.AdminStats
		err   error
	)

	if stats.TotalUsers, err = h.userRepository.Count(ctx); err != nil {
		return err
	}
	if stats.TotalListings, err = h.listingRepository.CountAll(ctx, false); err != nil {
		return err
	}
	if stats.ActiveListings, err = h.listingRepository.CountAll(ctx, true); err != nil {
		return err
	}
	if stats.RecentUsers, err = h.userRepository.Recent(ctx, recentItems); err != nil {
		return err
	}
	if stats.RecentListings, err = h.listingRepository.Recent(ctx, recentItems); err != nil {
		return err
	}
	return success(c, http.StatusOK, "", stats)
}

func (h *AdminHandler) Users(c echo.Context) error {
	limit, offset := adminPage(c)
	users, err := h.userRepository.List(c.Request().Context(), limit, offset)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "", users)
}

// Listings includes inactive listings and the seller's full name.
func (h *AdminHandler) Listings(c echo.Context) error {
	limit, offset := adminPage(c)
	listings, err := h.listingRepository.ListAll(c.Request().Context(), limit, offset)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "", listings)
}

func (h *AdminHandler) Audit(c echo.Context) error {
	limit, _ := adminPage(c)
	entries, err := h.auditRepository.Recent(c.Request().Context(), c.QueryParam("target_type"), int64(limit))
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "", entries)
}

// ToggleUserStatus flips a user's active flag. Admins cannot deactivate
// themselves.
func (h *AdminHandler) ToggleUserStatus(c echo.Context) error {
	identity, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id", "Invalid user ID")
	if err != nil {
		return err
	}
	if id == identity.ID {
		return echo.NewHTTPError(http.StatusBadRequest, "You cannot change your own status")
	}
	ctx := c.Request().Context()

	user, err := h.userRepository.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	}
	if err != nil {
		return err
	}

	active := !user.IsActive
	if err := h.userRepository.SetActive(ctx, id, active); err != nil {
		return err
	}
	h.audit(ctx, identity, models.AuditTargetUser, id, active)
	return success(c, http.StatusOK, "User status updated successfully", models.StatusToggle{ID: id, IsActive: active})
}

// ToggleListingStatus flips a listing's active flag, hiding or restoring it.
func (h *AdminHandler) ToggleListingStatus(c echo.Context) error {
	identity, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id", "Invalid listing ID")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	listing, err := h.listingRepository.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Listing not found")
	}
	if err != nil {
		return err
	}

	active := !listing.IsActive
	if err := h.listingRepository.SetActive(ctx, id, active); err != nil {
		return err
	}
	h.audit(ctx, identity, models.AuditTargetListing, id, active)
	return success(c, http.StatusOK, "Listing status updated successfully", models.StatusToggle{ID: id, IsActive: active})
}

// audit records a moderation action. The status change has already been
// committed, so a failed write is logged rather than returned.
func (h *AdminHandler) audit(ctx context.Context, identity *auth.Identity, targetType string, targetID uint, active bool) {
	entry := models.NewStatusAudit(identity.ID, identity.Username, targetType, targetID, active)
	if err := h.auditRepository.Record(ctx, entry); err != nil {
		logger.Warn("failed to record moderation audit", "target_type", targetType, "target_id", targetID, "error", err)
	}
}

func adminPage(c echo.Context) (int, int) {
	limit := queryInt(c, "limit", repositories.DefaultAdminLimit)
	if limit == 0 {
		limit = repositories.DefaultAdminLimit
	}
	return listingquery.Clamp(limit, queryInt(c, "offset", 0))
}
