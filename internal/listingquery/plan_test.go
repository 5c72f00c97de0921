package listingquery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func ptr[T any](v T) *T { return &v }

func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=test dbname=test sslmode=disable",
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)
	return db
}

func TestBuild_BaseOnly(t *testing.T) {
	p := Build(Filter{})

	require.Len(t, p.Predicates, 1)
	sql, args := p.Predicates[0].SQL()
	assert.Equal(t, "l.is_active = ?", sql)
	assert.Equal(t, []interface{}{true}, args)
	assert.Equal(t, []string{"l.created_at DESC", "l.id DESC"}, p.OrderBy)
	assert.Equal(t, DefaultLimit, p.Limit)
	assert.Zero(t, p.Offset)
}

func TestBuild_AllPredicates(t *testing.T) {
	p := Build(Filter{
		OwnerID:    9,
		CategoryID: 2,
		Search:     "IPhone",
		IsFree:     ptr(false),
		Condition:  "like_new",
		MinPrice:   ptr(0.0),
		MaxPrice:   ptr(500.0),
		Sort:       SortPriceAsc,
		Limit:      500,
		Offset:     -1,
	})

	var rendered []string
	var args []interface{}
	for _, pred := range p.Predicates {
		sql, a := pred.SQL()
		rendered = append(rendered, sql)
		args = append(args, a...)
	}

	assert.Equal(t, []string{
		"l.is_active = ?",
		"l.user_id = ?",
		"l.category_id = ?",
		"(LOWER(l.title) LIKE ? OR LOWER(l.description) LIKE ?)",
		"l.is_free = ?",
		"l.condition_type = ?",
		"l.price >= ?",
		"l.price <= ?",
	}, rendered)
	assert.Equal(t, []interface{}{true, uint(9), uint(2), "%iphone%", "%iphone%", false, "like_new", 0.0, 500.0}, args)
	assert.Equal(t, []string{"l.price ASC", "l.id DESC"}, p.OrderBy)
	assert.Equal(t, MaxLimit, p.Limit)
	assert.Zero(t, p.Offset)
}

func TestBuild_SearchEscapesWildcards(t *testing.T) {
	p := Build(Filter{Search: `100%_off\`})

	_, args := p.Predicates[1].SQL()
	assert.Equal(t, `%100\%\_off\\%`, args[0])
}

func TestBuild_SortIsClosed(t *testing.T) {
	p := Build(Filter{Sort: Sort("title; DELETE FROM listings")})
	assert.Equal(t, []string{"l.created_at DESC", "l.id DESC"}, p.OrderBy)

	p = Build(Filter{Sort: SortPriceDesc})
	assert.Equal(t, []string{"l.price DESC", "l.id DESC"}, p.OrderBy)
}

func TestPlan_Columns(t *testing.T) {
	base := []string{"l.*"}

	assert.Equal(t, []string{"l.*"}, Build(Filter{}).Columns(base))
	assert.Equal(t, []string{"l.*", "f.user_id IS NOT NULL AS is_favorited"}, Build(Filter{ViewerID: 4}).Columns(base))
	assert.Equal(t, []string{"l.*"}, base)
}

func TestPlan_RendersBoundQuery(t *testing.T) {
	db := dryRunDB(t)
	p := Build(Filter{Search: "bike'; --", CategoryID: 1, ViewerID: 7, Sort: SortOldest, Limit: 2, Offset: 4})

	var rows []map[string]interface{}
	q := db.Table("listings AS l").Select(p.Columns([]string{"l.id"}))
	q = p.Annotate(q)
	q = p.Where(q)
	stmt := p.Page(q).Find(&rows).Statement

	sql := stmt.SQL.String()
	assert.Contains(t, sql, "LEFT JOIN favorites f ON f.listing_id = l.id AND f.user_id = $1")
	assert.Contains(t, sql, "l.is_active = $2")
	assert.Contains(t, sql, "l.category_id = $3")
	assert.Contains(t, sql, "(LOWER(l.title) LIKE $4 OR LOWER(l.description) LIKE $5)")
	assert.Contains(t, sql, "ORDER BY l.created_at ASC,l.id DESC")
	assert.Contains(t, sql, "LIMIT $6 OFFSET $7")
	assert.NotContains(t, sql, "bike")

	assert.Equal(t, []interface{}{uint(7), true, uint(1), "%bike'; --%", "%bike'; --%", 2, 4}, stmt.Vars)
}

func TestPlan_CountSharesPredicates(t *testing.T) {
	db := dryRunDB(t)
	p := Build(Filter{IsFree: ptr(true), MinPrice: ptr(1.0), ViewerID: 7, Limit: 2})

	var total int64
	stmt := p.Where(db.Table("listings AS l")).Count(&total).Statement

	sql := stmt.SQL.String()
	assert.Contains(t, sql, "SELECT count(*) FROM listings AS l WHERE")
	assert.Contains(t, sql, "l.is_active = $1 AND l.is_free = $2 AND l.price >= $3")
	assert.NotContains(t, sql, "favorites")
	assert.NotContains(t, sql, "LIMIT")
	assert.Equal(t, []interface{}{true, true, 1.0}, stmt.Vars)
}
