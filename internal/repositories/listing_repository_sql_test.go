package repositories

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/anonto42/bsg-marketplace/backend/internal/listingquery"
	"github.com/anonto42/bsg-marketplace/backend/internal/models"
)

func dryRun(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=test dbname=test sslmode=disable",
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)
	return db
}

func TestSearchQuery_SQL(t *testing.T) {
	free := true
	plan := listingquery.Build(listingquery.Filter{
		IsFree:   &free,
		Search:   "lamp",
		ViewerID: 5,
		Sort:     listingquery.SortPriceDesc,
		Limit:    2,
	})

	var rows []models.ListingView
	stmt := searchQuery(dryRun(t), plan).Find(&rows).Statement
	sql := stmt.SQL.String()

	assert.Contains(t, sql, "SELECT l.*,u.username,u.first_name,u.last_name,u.avatar_url,c.name AS category_name,c.slug AS category_slug,li.image_url AS primary_image,f.user_id IS NOT NULL AS is_favorited FROM listings AS l")
	assert.Contains(t, sql, "LEFT JOIN users u ON u.id = l.user_id")
	assert.Contains(t, sql, "LEFT JOIN categories c ON c.id = l.category_id")
	assert.Contains(t, sql, "LEFT JOIN listing_images li ON li.listing_id = l.id AND li.is_primary = $1")
	assert.Contains(t, sql, "LEFT JOIN favorites f ON f.listing_id = l.id AND f.user_id = $2")
	assert.Contains(t, sql, "WHERE l.is_active = $3")
	assert.Contains(t, sql, "LOWER(l.title) LIKE $4 OR LOWER(l.description) LIKE $5")
	assert.Contains(t, sql, "l.is_free = $6")
	assert.Contains(t, sql, "ORDER BY l.price DESC,l.id DESC LIMIT $7")

	assert.Equal(t, []interface{}{true, uint(5), true, "%lamp%", "%lamp%", true, 2}, stmt.Vars)
}

func TestSearchQuery_AnonymousHasNoFavoriteJoin(t *testing.T) {
	var rows []models.ListingView
	stmt := searchQuery(dryRun(t), listingquery.Build(listingquery.Filter{})).Find(&rows).Statement

	assert.NotContains(t, stmt.SQL.String(), "favorites")
	assert.NotContains(t, stmt.SQL.String(), "is_favorited")
}
