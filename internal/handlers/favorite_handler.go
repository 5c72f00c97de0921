package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/bsg-marketplace/backend/internal/middleware"
	"github.com/anonto42/bsg-marketplace/backend/internal/models"
	"github.com/anonto42/bsg-marketplace/backend/internal/repositories"
)

// FavoriteHandler handles favorite HTTP requests
type FavoriteHandler struct {
	favoriteRepository repositories.FavoriteRepository
	listingRepository  repositories.ListingRepository
}

// NewFavoriteHandler creates a new FavoriteHandler
func NewFavoriteHandler(favoriteRepo repositories.FavoriteRepository, listingRepo repositories.ListingRepository) *FavoriteHandler {
	return &FavoriteHandler{
		favoriteRepository: favoriteRepo,
		listingRepository:  listingRepo,
	}
}

// RegisterFavoriteRoutes registers favorite routes
func (h *FavoriteHandler) RegisterFavoriteRoutes(g *echo.Group, guard *middleware.Guard) {
	g.GET("/user", h.List, guard.RequireAuth)
	g.POST("/:listingId", h.Add, guard.RequireAuth)
	g.DELETE("/:listingId", h.Remove, guard.RequireAuth)
}

// Add favorites an active listing; a second add is a 409.
func (h *FavoriteHandler) Add(c echo.Context) error {
	identity, err := currentUser(c)
	if err != nil {
		return err
	}
	listingID, err := idParam(c, "listingId", "Listing ID is required")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	// Verify listing exists
	if _, err := h.listingRepository.GetActiveByID(ctx, listingID, 0); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Listing not found")
		}
		return err
	}

	err = h.favoriteRepository.Add(ctx, identity.ID, listingID)
	if errors.Is(err, repositories.ErrAlreadyFavorited) {
		return echo.NewHTTPError(http.StatusConflict, "Listing already favorited")
	}
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "Listing added to favorites", models.FavoriteStatus{IsFavorited: true})
}

// Remove unfavorites a listing; removing one that is not favorited is a 404.
func (h *FavoriteHandler) Remove(c echo.Context) error {
	identity, err := currentUser(c)
	if err != nil {
		return err
	}
	listingID, err := idParam(c, "listingId", "Listing ID is required")
	if err != nil {
		return err
	}

	err = h.favoriteRepository.Remove(c.Request().Context(), identity.ID, listingID)
	if errors.Is(err, repositories.ErrFavoriteNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Listing not in favorites")
	}
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "Listing removed from favorites", models.FavoriteStatus{IsFavorited: false})
}

func (h *FavoriteHandler) List(c echo.Context) error {
	identity, err := currentUser(c)
	if err != nil {
		return err
	}

	listings, err := h.favoriteRepository.ListByUser(c.Request().Context(), identity.ID)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "", listings)
}
