package handlers

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/bsg-marketplace/backend/internal/auth"
	"github.com/anonto42/bsg-marketplace/backend/internal/listingquery"
	"github.com/anonto42/bsg-marketplace/backend/internal/middleware"
	"github.com/anonto42/bsg-marketplace/backend/internal/models"
	"github.com/anonto42/bsg-marketplace/backend/internal/repositories"
	"github.com/anonto42/bsg-marketplace/backend/internal/storage"
	"github.com/anonto42/bsg-marketplace/backend/pkg/logger"
	"github.com/anonto42/bsg-marketplace/backend/validators"
)

const MaxListingImages = 5

// ListingHandler handles listing HTTP requests
type ListingHandler struct {
	listingRepository  repositories.ListingRepository
	categoryRepository repositories.CategoryRepository
	storage            storage.Storage
}

// NewListingHandler creates a new ListingHandler
func NewListingHandler(listingRepo repositories.ListingRepository, categoryRepo repositories.CategoryRepository, store storage.Storage) *ListingHandler {
	return &ListingHandler{
		listingRepository:  listingRepo,
		categoryRepository: categoryRepo,
		storage:            store,
	}
}

// RegisterListingRoutes registers listing routes
func (h *ListingHandler) RegisterListingRoutes(g *echo.Group, guard *middleware.Guard) {
	g.GET("", h.List, guard.OptionalAuth)
	g.GET("/featured", h.Featured, guard.OptionalAuth)
	g.GET("/search", h.Search, guard.OptionalAuth)
	g.GET("/my", h.Mine, guard.RequireAuth)
	g.GET("/:id", h.Get, guard.OptionalAuth)
	g.POST("", h.Create, guard.RequireAuth)
	g.PUT("/:id", h.Update, guard.RequireAuth)
	g.DELETE("/:id", h.Delete, guard.RequireAuth)
}

// List returns one page of active listings matching the query filters.
func (h *ListingHandler) List(c echo.Context) error {
	f := listingquery.FromQuery(c.QueryParams())
	f.ViewerID = middleware.CurrentUserID(c)

	page, err := h.page(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "", page)
}

func (h *ListingHandler) Featured(c echo.Context) error {
	limit := queryInt(c, "limit", repositories.DefaultFeaturedLimit)
	if limit == 0 {
		limit = repositories.DefaultFeaturedLimit
	}
	limit, _ = listingquery.Clamp(limit, 0)

	listings, err := h.listingRepository.Featured(c.Request().Context(), limit, middleware.CurrentUserID(c))
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "", listings)
}

// Search is List with a mandatory q parameter.
func (h *ListingHandler) Search(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Search query is required")
	}

	f := listingquery.FromQuery(c.QueryParams())
	f.Search = q
	f.ViewerID = middleware.CurrentUserID(c)

	page, err := h.page(c.Request().Context(), f)
	if err != nil {
		return err
	}
	page.Query = q
	return success(c, http.StatusOK, "", page)
}

// Mine lists the caller's own active listings, newest first.
func (h *ListingHandler) Mine(c echo.Context) error {
	identity, err := currentUser(c)
	if err != nil {
		return err
	}

	f := listingquery.Filter{OwnerID: identity.ID}
	f.Limit, f.Offset = listingquery.Clamp(queryInt(c, "limit", listingquery.DefaultLimit), queryInt(c, "offset", 0))

	listings, err := h.listingRepository.Search(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "", listings)
}

// Get returns the listing detail and counts the view.
func (h *ListingHandler) Get(c echo.Context) error {
	id, err := idParam(c, "id", "Invalid listing ID")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	listing, err := h.listingRepository.GetActiveByID(ctx, id, middleware.CurrentUserID(c))
	if errors.Is(err, repositories.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Listing not found")
	}
	if err != nil {
		return err
	}

	if err := h.listingRepository.IncrementViews(ctx, id); err != nil {
		return err
	}
	listing.ViewsCount++
	return success(c, http.StatusOK, "", listing)
}

// Create accepts JSON or a multipart form with image files.
func (h *ListingHandler) Create(c echo.Context) error {
	identity, err := currentUser(c)
	if err != nil {
		return err
	}

	var req models.CreateListingRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	if err := h.checkCategory(ctx, req.CategoryID.Uint()); err != nil {
		return err
	}

	files, err := uploadedImages(c)
	if err != nil {
		return err
	}
	urls, err := h.saveImages(ctx, files)
	if err != nil {
		return err
	}

	listing := req.Listing(identity.ID)
	if err := h.listingRepository.Create(ctx, listing, urls); err != nil {
		h.discard(ctx, urls)
		return err
	}

	created, err := h.listingRepository.GetActiveByID(ctx, listing.ID, identity.ID)
	if err != nil {
		return err
	}
	return success(c, http.StatusCreated, "Listing created successfully", created)
}

// Update applies a sparse patch. Only the owner or an admin may edit.
func (h *ListingHandler) Update(c echo.Context) error {
	identity, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id", "Invalid listing ID")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	existing, err := h.editable(ctx, id, identity, "You can only edit your own listings")
	if err != nil {
		return err
	}

	var req models.UpdateListingRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.CategoryID.Set {
		if err := h.checkCategory(ctx, req.CategoryID.Uint()); err != nil {
			return err
		}
	}

	patch := req.Patch()
	if len(patch) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "No valid fields to update")
	}
	if err := h.listingRepository.Update(ctx, id, patch); err != nil {
		if errors.Is(err, repositories.ErrEmptyPatch) {
			return echo.NewHTTPError(http.StatusBadRequest, "No valid fields to update")
		}
		return err
	}

	if !existing.IsActive {
		updated, err := h.listingRepository.GetByID(ctx, id)
		if err != nil {
			return err
		}
		return success(c, http.StatusOK, "Listing updated successfully", updated)
	}
	updated, err := h.listingRepository.GetActiveByID(ctx, id, identity.ID)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "Listing updated successfully", updated)
}

// Delete soft-deletes the listing.
func (h *ListingHandler) Delete(c echo.Context) error {
	identity, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id", "Invalid listing ID")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	if _, err := h.editable(ctx, id, identity, "You can only delete your own listings"); err != nil {
		return err
	}
	if err := h.listingRepository.Deactivate(ctx, id); err != nil {
		return err
	}
	return success(c, http.StatusOK, "Listing deleted successfully", nil)
}

func (h *ListingHandler) page(ctx context.Context, f listingquery.Filter) (*models.ListingPage, error) {
	listings, err := h.listingRepository.Search(ctx, f)
	if err != nil {
		return nil, err
	}
	total, err := h.listingRepository.Count(ctx, f)
	if err != nil {
		return nil, err
	}
	return &models.ListingPage{Listings: listings, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}

// editable loads the listing and checks the caller may mutate it. Inactive
// listings are visible to admins only.
func (h *ListingHandler) editable(ctx context.Context, id uint, identity *auth.Identity, forbidden string) (*models.Listing, error) {
	listing, err := h.listingRepository.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) || (err == nil && !listing.IsActive && !identity.IsAdmin()) {
		return nil, echo.NewHTTPError(http.StatusNotFound, "Listing not found")
	}
	if err != nil {
		return nil, err
	}
	if listing.UserID != identity.ID && !identity.IsAdmin() {
		return nil, echo.NewHTTPError(http.StatusForbidden, forbidden)
	}
	return listing, nil
}

func (h *ListingHandler) checkCategory(ctx context.Context, id uint) error {
	_, err := h.categoryRepository.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return invalid(validators.FieldErrors{"category_id": "Invalid category"})
	}
	return err
}

func (h *ListingHandler) saveImages(ctx context.Context, files []*multipart.FileHeader) ([]string, error) {
	urls := make([]string, 0, len(files))
	for _, fh := range files {
		url, err := h.storage.Save(ctx, fh)
		if err != nil {
			h.discard(ctx, urls)
			if errors.Is(err, storage.ErrUnsupportedType) || errors.Is(err, storage.ErrTooLarge) {
				return nil, invalid(validators.FieldErrors{"images": err.Error()})
			}
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func (h *ListingHandler) discard(ctx context.Context, urls []string) {
	for _, url := range urls {
		if err := h.storage.Delete(ctx, url); err != nil {
			logger.Warn("failed to remove orphaned upload", "url", url, "error", err)
		}
	}
}

// uploadedImages collects files sent as "images" or "images[n]", in order.
func uploadedImages(c echo.Context) ([]*multipart.FileHeader, error) {
	if !strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid multipart form")
	}

	files := append([]*multipart.FileHeader{}, form.File["images"]...)

	type indexed struct {
		n  int
		fh []*multipart.FileHeader
	}
	var numbered []indexed
	for key, fhs := range form.File {
		if n, ok := imageIndex(key); ok {
			numbered = append(numbered, indexed{n: n, fh: fhs})
		}
	}
	sort.Slice(numbered, func(i, j int) bool { return numbered[i].n < numbered[j].n })
	for _, entry := range numbered {
		files = append(files, entry.fh...)
	}

	if len(files) > MaxListingImages {
		return nil, invalid(validators.FieldErrors{"images": "At most " + strconv.Itoa(MaxListingImages) + " images are allowed"})
	}
	return files, nil
}

func imageIndex(key string) (int, bool) {
	inner, ok := strings.CutPrefix(key, "images[")
	if !ok {
		return 0, false
	}
	inner, ok = strings.CutSuffix(inner, "]")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(inner)
	return n, err == nil
}
