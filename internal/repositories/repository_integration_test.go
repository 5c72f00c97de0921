package repositories

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/anonto42/bsg-marketplace/backend/internal/listingquery"
	"github.com/anonto42/bsg-marketplace/backend/internal/models"
)

var testDB *gorm.DB

func TestMain(m *testing.M) {
	flag.Parse()
	os.Exit(runWithDatabase(m))
}

// runWithDatabase starts a throwaway PostgreSQL when Docker is reachable.
// Without it the integration tests skip and the unit tests still run.
func runWithDatabase(m *testing.M) int {
	if testing.Short() {
		return m.Run()
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("marketplace"),
		postgres.WithUsername("marketplace"),
		postgres.WithPassword("password"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		log.Printf("postgres container unavailable, skipping integration tests: %v", err)
		return m.Run()
	}
	defer func() {
		if err := container.Terminate(ctx); err != nil {
			log.Printf("failed to terminate container: %s", err)
		}
	}()

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Printf("failed to get connection string: %v", err)
		return 1
	}

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		log.Printf("failed to open db: %v", err)
		return 1
	}
	if err := Migrate(db); err != nil {
		log.Printf("failed to migrate: %v", err)
		return 1
	}

	testDB = db
	return m.Run()
}

func requireDB(t *testing.T) *gorm.DB {
	t.Helper()
	if testDB == nil {
		t.Skip("integration database not available")
	}
	t.Cleanup(func() {
		err := testDB.Exec(`TRUNCATE TABLE messages, favorites, listing_images, listings, categories, users RESTART IDENTITY CASCADE`).Error
		require.NoError(t, err)
	})
	return testDB
}

type fixture struct {
	seller   *models.User
	buyer    *models.User
	category *models.Category
}

func seed(t *testing.T, db *gorm.DB) fixture {
	t.Helper()
	ctx := context.Background()
	users := NewGormUserRepository(db)

	seller := &models.User{Username: "seller", Email: "seller@example.com", PasswordHash: "x", FirstName: "Sam", LastName: "Seller", Role: models.RoleUser, IsActive: true}
	buyer := &models.User{Username: "buyer", Email: "buyer@example.com", PasswordHash: "x", FirstName: "Bea", LastName: "Buyer", Role: models.RoleUser, IsActive: true}
	require.NoError(t, users.Create(ctx, seller))
	require.NoError(t, users.Create(ctx, buyer))

	category := &models.Category{Name: "Electronics", Slug: "electronics", IsActive: true}
	require.NoError(t, NewGormCategoryRepository(db).Create(ctx, category))

	return fixture{seller: seller, buyer: buyer, category: category}
}

func createListing(t *testing.T, repo *GormListingRepository, fx fixture, title string, price float64, cond models.Condition, images ...string) *models.Listing {
	t.Helper()
	l := &models.Listing{
		UserID:      fx.seller.ID,
		CategoryID:  fx.category.ID,
		Title:       title,
		Description: title + " in working order",
		Price:       price,
		Condition:   cond,
		Location:    "NYC",
		IsActive:    true,
	}
	require.NoError(t, repo.Create(context.Background(), l, images))
	return l
}

func prices(views []models.ListingView) []float64 {
	out := make([]float64, len(views))
	for i, v := range views {
		out[i] = v.Price
	}
	return out
}

func TestListingRepository_FreeListingScenario(t *testing.T) {
	db := requireDB(t)
	fx := seed(t, db)
	repo := NewGormListingRepository(db)
	ctx := context.Background()

	phone := createListing(t, repo, fx, "Phone", 0, models.ConditionGood)
	assert.True(t, phone.IsFree)

	isFree := true
	got, err := repo.Search(ctx, listingquery.Filter{IsFree: &isFree})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, phone.ID, got[0].ID)
	assert.Equal(t, "Electronics", got[0].CategoryName)
	assert.Equal(t, "seller", got[0].Username)

	minPrice := 1.0
	got, err = repo.Search(ctx, listingquery.Filter{MinPrice: &minPrice})
	require.NoError(t, err)
	assert.Empty(t, got)

	zero := 0.0
	got, err = repo.Search(ctx, listingquery.Filter{MinPrice: &zero})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestListingRepository_SortPriceDesc(t *testing.T) {
	db := requireDB(t)
	fx := seed(t, db)
	repo := NewGormListingRepository(db)

	createListing(t, repo, fx, "Ten", 10, models.ConditionGood)
	createListing(t, repo, fx, "Five", 5, models.ConditionGood)
	createListing(t, repo, fx, "Twenty", 20, models.ConditionGood)

	got, err := repo.Search(context.Background(), listingquery.Filter{Sort: listingquery.SortPriceDesc, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []float64{20, 10}, prices(got))
}

func TestListingRepository_CountMatchesPaging(t *testing.T) {
	db := requireDB(t)
	fx := seed(t, db)
	repo := NewGormListingRepository(db)
	ctx := context.Background()

	createListing(t, repo, fx, "Red bike", 0, models.ConditionGood)
	createListing(t, repo, fx, "Blue bike", 50, models.ConditionFair)
	createListing(t, repo, fx, "Bike helmet", 15, models.ConditionNew)
	createListing(t, repo, fx, "Desk", 80, models.ConditionGood)
	createListing(t, repo, fx, "Lamp", 0, models.ConditionPoor)
	hidden := createListing(t, repo, fx, "Hidden bike", 30, models.ConditionGood)
	require.NoError(t, repo.Deactivate(ctx, hidden.ID))

	isFree, notFree := true, false
	minPrice, maxPrice := 10.0, 60.0
	filters := []listingquery.Filter{
		{},
		{Search: "BIKE"},
		{IsFree: &isFree},
		{IsFree: &notFree, Sort: listingquery.SortPriceAsc},
		{MinPrice: &minPrice, MaxPrice: &maxPrice},
		{Condition: "good"},
		{Condition: "mint"},
		{CategoryID: fx.category.ID, Search: "bike", ViewerID: fx.buyer.ID},
		{OwnerID: fx.buyer.ID},
	}

	for _, f := range filters {
		total, err := repo.Count(ctx, f)
		require.NoError(t, err)

		seen := map[uint]bool{}
		for offset := 0; ; offset += 2 {
			f.Limit, f.Offset = 2, offset
			page, err := repo.Search(ctx, f)
			require.NoError(t, err)
			if len(page) == 0 {
				break
			}
			for _, l := range page {
				assert.False(t, seen[l.ID], "listing %d returned twice", l.ID)
				seen[l.ID] = true
			}
		}
		assert.Equal(t, int(total), len(seen), "filter %+v", f)
	}
}

func TestListingRepository_SoftDelete(t *testing.T) {
	db := requireDB(t)
	fx := seed(t, db)
	repo := NewGormListingRepository(db)
	ctx := context.Background()

	l := createListing(t, repo, fx, "Chair", 25, models.ConditionGood)
	require.NoError(t, repo.Deactivate(ctx, l.ID))

	got, err := repo.Search(ctx, listingquery.Filter{})
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = repo.GetActiveByID(ctx, l.ID, 0)
	assert.ErrorIs(t, err, ErrNotFound)

	row, err := repo.GetByID(ctx, l.ID)
	require.NoError(t, err)
	assert.False(t, row.IsActive)
	assert.Equal(t, "Chair", row.Title)

	all, err := repo.ListAll(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Sam Seller", all[0].SellerName)
}

func TestListingRepository_CreateWithImagesAndDetail(t *testing.T) {
	db := requireDB(t)
	fx := seed(t, db)
	repo := NewGormListingRepository(db)
	ctx := context.Background()

	l := createListing(t, repo, fx, "Camera", 120, models.ConditionLikeNew, "/uploads/a.jpg", "/uploads/b.jpg")
	require.Len(t, l.Images, 2)

	detail, err := repo.GetActiveByID(ctx, l.ID, 0)
	require.NoError(t, err)
	require.NotNil(t, detail.PrimaryImage)
	assert.Equal(t, "/uploads/a.jpg", *detail.PrimaryImage)
	require.Len(t, detail.Images, 2)
	assert.True(t, detail.Images[0].IsPrimary)
	assert.False(t, detail.Images[1].IsPrimary)
	assert.Nil(t, detail.IsFavorited)

	require.NoError(t, repo.IncrementViews(ctx, l.ID))
	require.NoError(t, repo.IncrementViews(ctx, l.ID))
	row, err := repo.GetByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, row.ViewsCount)
}

func TestListingRepository_CreateRollsBackOnImageFailure(t *testing.T) {
	db := requireDB(t)
	fx := seed(t, db)
	repo := NewGormListingRepository(db)
	ctx := context.Background()

	tooLong := "/uploads/" + strings.Repeat("a", 300)
	l := &models.Listing{UserID: fx.seller.ID, CategoryID: fx.category.ID, Title: "Broken", Description: "d", Condition: models.ConditionGood, Location: "NYC", IsActive: true}
	require.Error(t, repo.Create(ctx, l, []string{tooLong}))

	total, err := repo.CountAll(ctx, false)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestListingRepository_UpdatePatch(t *testing.T) {
	db := requireDB(t)
	fx := seed(t, db)
	repo := NewGormListingRepository(db)
	ctx := context.Background()

	l := createListing(t, repo, fx, "Sofa", 100, models.ConditionFair)

	err := repo.Update(ctx, l.ID, map[string]interface{}{"is_active": false, "views_count": 99, "user_id": fx.buyer.ID})
	assert.ErrorIs(t, err, ErrEmptyPatch)

	row, err := repo.GetByID(ctx, l.ID)
	require.NoError(t, err)
	assert.True(t, row.IsActive)
	assert.Equal(t, fx.seller.ID, row.UserID)

	require.NoError(t, repo.Update(ctx, l.ID, map[string]interface{}{"price": 0.0, "title": "Free sofa", "user_id": fx.buyer.ID}))
	row, err = repo.GetByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "Free sofa", row.Title)
	assert.True(t, row.IsFree)
	assert.Equal(t, fx.seller.ID, row.UserID)
}

func TestFavoriteRepository_Toggle(t *testing.T) {
	db := requireDB(t)
	fx := seed(t, db)
	listings := NewGormListingRepository(db)
	favorites := NewGormFavoriteRepository(db)
	ctx := context.Background()

	liked := createListing(t, listings, fx, "Guitar", 200, models.ConditionGood)
	other := createListing(t, listings, fx, "Drum", 150, models.ConditionGood)

	require.NoError(t, favorites.Add(ctx, fx.buyer.ID, liked.ID))
	assert.ErrorIs(t, favorites.Add(ctx, fx.buyer.ID, liked.ID), ErrAlreadyFavorited)

	got, err := listings.Search(ctx, listingquery.Filter{ViewerID: fx.buyer.ID})
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, l := range got {
		require.NotNil(t, l.IsFavorited)
		assert.Equal(t, l.ID == liked.ID, *l.IsFavorited)
	}

	mine, err := favorites.ListByUser(ctx, fx.buyer.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, liked.ID, mine[0].ID)

	require.NoError(t, favorites.Remove(ctx, fx.buyer.ID, liked.ID))
	assert.ErrorIs(t, favorites.Remove(ctx, fx.buyer.ID, liked.ID), ErrFavoriteNotFound)

	mine, err = favorites.ListByUser(ctx, fx.buyer.ID)
	require.NoError(t, err)
	assert.Empty(t, mine)

	require.NoError(t, favorites.Add(ctx, fx.buyer.ID, other.ID))
	assert.Error(t, favorites.Add(ctx, fx.buyer.ID, 9999))
}

func TestMessageRepository_ConversationsAndMarkRead(t *testing.T) {
	db := requireDB(t)
	fx := seed(t, db)
	listings := NewGormListingRepository(db)
	messages := NewGormMessageRepository(db)
	ctx := context.Background()

	l := createListing(t, listings, fx, "Table", 60, models.ConditionGood)
	base := time.Now().Add(-time.Hour)

	for i, m := range []models.Message{
		{SenderID: fx.buyer.ID, ReceiverID: fx.seller.ID, Body: "is it available?"},
		{SenderID: fx.seller.ID, ReceiverID: fx.buyer.ID, Body: "yes"},
		{SenderID: fx.buyer.ID, ReceiverID: fx.seller.ID, Body: "great, 50?"},
	} {
		m.ListingID = l.ID
		m.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, messages.Create(ctx, &m))
	}

	convs, err := messages.Conversations(ctx, fx.seller.ID)
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, fx.buyer.ID, convs[0].OtherUserID)
	assert.Equal(t, "Bea Buyer", convs[0].OtherUserName)
	assert.Equal(t, "Table", convs[0].ListingTitle)
	assert.Equal(t, "great, 50?", convs[0].LastMessage)
	assert.Equal(t, 2, convs[0].UnreadCount)

	thread, err := messages.Thread(ctx, fx.seller.ID, l.ID, fx.buyer.ID)
	require.NoError(t, err)
	require.Len(t, thread, 3)
	assert.Equal(t, "is it available?", thread[0].Body)
	assert.Equal(t, "Sam", thread[1].SenderFirstName)

	n, err := messages.MarkRead(ctx, fx.seller.ID, l.ID, fx.buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	unread, err := messages.UnreadCount(ctx, fx.seller.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestUserRepository_Uniqueness(t *testing.T) {
	db := requireDB(t)
	fx := seed(t, db)
	users := NewGormUserRepository(db)
	ctx := context.Background()

	dup := &models.User{Username: "other", Email: fx.seller.Email, PasswordHash: "x", FirstName: "O", LastName: "T", Role: models.RoleUser, IsActive: true}
	assert.ErrorIs(t, users.Create(ctx, dup), ErrDuplicate)

	exists, err := users.UsernameExists(ctx, "seller")
	require.NoError(t, err)
	assert.True(t, exists)

	active, err := users.IsActive(ctx, fx.seller.ID)
	require.NoError(t, err)
	assert.True(t, active)

	require.NoError(t, users.SetActive(ctx, fx.seller.ID, false))
	active, err = users.IsActive(ctx, fx.seller.ID)
	require.NoError(t, err)
	assert.False(t, active)

	active, err = users.IsActive(ctx, 9999)
	require.NoError(t, err)
	assert.False(t, active)

	_, err = users.GetActiveByEmail(ctx, fx.seller.Email)
	assert.ErrorIs(t, err, ErrNotFound)

	u, err := users.GetByID(ctx, fx.seller.ID)
	require.NoError(t, err)
	assert.False(t, u.IsActive)
}
