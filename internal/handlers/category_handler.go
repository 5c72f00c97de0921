package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/bsg-marketplace/backend/internal/listingquery"
	"github.com/anonto42/bsg-marketplace/backend/internal/middleware"
	"github.com/anonto42/bsg-marketplace/backend/internal/models"
	"github.com/anonto42/bsg-marketplace/backend/internal/repositories"
)

// CategoryHandler handles category HTTP requests
type CategoryHandler struct {
	categoryRepository repositories.CategoryRepository
	listings           *ListingHandler
}

// NewCategoryHandler creates a new CategoryHandler. Category listing pages
// reuse the listing handler's paging.
func NewCategoryHandler(categoryRepo repositories.CategoryRepository, listings *ListingHandler) *CategoryHandler {
	return &CategoryHandler{categoryRepository: categoryRepo, listings: listings}
}

// RegisterCategoryRoutes registers category routes
func (h *CategoryHandler) RegisterCategoryRoutes(g *echo.Group, guard *middleware.Guard) {
	g.GET("", h.List)
	g.GET("/counts", h.Counts)
	g.GET("/:id", h.Get)
	g.GET("/:id/listings", h.Listings, guard.OptionalAuth)
}

// List returns active categories; with_count adds active listing counts.
func (h *CategoryHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	switch c.QueryParam("with_count") {
	case "", "0", "false":
		categories, err := h.categoryRepository.List(ctx)
		if err != nil {
			return err
		}
		return success(c, http.StatusOK, "", categories)
	}

	categories, err := h.categoryRepository.ListWithCounts(ctx)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "", categories)
}

func (h *CategoryHandler) Counts(c echo.Context) error {
	counts, err := h.categoryRepository.Counts(c.Request().Context())
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "", counts)
}

func (h *CategoryHandler) Get(c echo.Context) error {
	category, err := h.find(c)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "", category)
}

// Listings is GET /listings scoped to one category.
func (h *CategoryHandler) Listings(c echo.Context) error {
	category, err := h.find(c)
	if err != nil {
		return err
	}

	f := listingquery.FromQuery(c.QueryParams())
	f.CategoryID = category.ID
	f.ViewerID = middleware.CurrentUserID(c)

	page, err := h.listings.page(c.Request().Context(), f)
	if err != nil {
		return err
	}
	page.Category = category
	return success(c, http.StatusOK, "", page)
}

func (h *CategoryHandler) find(c echo.Context) (*models.Category, error) {
	id, err := idParam(c, "id", "Invalid category ID")
	if err != nil {
		return nil, err
	}
	category, err := h.categoryRepository.GetByID(c.Request().Context(), id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, echo.NewHTTPError(http.StatusNotFound, "Category not found")
	}
	return category, err
}
