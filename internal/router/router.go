package router

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/anonto42/bsg-marketplace/backend/internal/auth"
	"github.com/anonto42/bsg-marketplace/backend/internal/handlers"
	"github.com/anonto42/bsg-marketplace/backend/internal/middleware"
	"github.com/anonto42/bsg-marketplace/backend/internal/repositories"
	"github.com/anonto42/bsg-marketplace/backend/internal/storage"
	"github.com/anonto42/bsg-marketplace/backend/pkg/config"
	"github.com/anonto42/bsg-marketplace/backend/pkg/firebase"
	"github.com/anonto42/bsg-marketplace/backend/pkg/logger"
)

const authRateWindow = time.Minute

// Deps carries everything the API routes are built from.
type Deps struct {
	Users      repositories.UserRepository
	Listings   repositories.ListingRepository
	Categories repositories.CategoryRepository
	Favorites  repositories.FavoriteRepository
	Messages   repositories.MessageRepository
	Audit      repositories.AuditRepository
	Storage    storage.Storage
	Tokens     *auth.TokenService
	Firebase   handlers.IDTokenVerifier // nil disables federated login
	RateLimit  echo.MiddlewareFunc      // applied to login and register
}

// SetupRoutes migrates the schema, builds repositories and services from the
// open connections and mounts every route on e.
func SetupRoutes(e *echo.Echo, cfg *config.Config, db *config.DB, fb *firebase.App, reg *prometheus.Registry) error {
	if err := repositories.Migrate(db.SQL); err != nil {
		return err
	}
	logger.Info("database migrations completed")

	store, err := storage.NewLocalStorage(storage.Config{
		BasePath: cfg.UploadDir,
		BaseURL:  cfg.UploadURLPrefix,
		MaxBytes: cfg.UploadMaxBytes,
	})
	if err != nil {
		return err
	}

	deps := Deps{
		Users:      repositories.NewGormUserRepository(db.SQL),
		Listings:   repositories.NewGormListingRepository(db.SQL),
		Categories: repositories.NewGormCategoryRepository(db.SQL),
		Favorites:  repositories.NewGormFavoriteRepository(db.SQL),
		Messages:   repositories.NewGormMessageRepository(db.SQL),
		Audit:      auditRepository(cfg, db),
		Storage:    store,
		Tokens:     auth.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience),
		RateLimit:  rateLimit(db.Redis, cfg.AuthRateLimit),
	}
	if fb != nil {
		deps.Firebase = fb.AuthClient
	}

	metrics := middleware.NewMetrics(reg)
	e.Use(metrics.Middleware)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	sqlDB, err := db.SQL.DB()
	if err != nil {
		return err
	}
	e.GET("/health", handlers.NewHealthHandler(sqlDB).HealthCheck)
	e.Static(cfg.UploadURLPrefix, cfg.UploadDir)

	RegisterAPI(e.Group(cfg.APIPrefix), deps)
	logger.Info("routes configured", "prefix", cfg.APIPrefix)
	return nil
}

// RegisterAPI mounts the REST API on g.
func RegisterAPI(g *echo.Group, d Deps) {
	guard := middleware.NewGuard(d.Tokens).WithAccountCheck(d.Users)
	if d.RateLimit == nil {
		d.RateLimit = rateLimit(nil, 0)
	}
	if d.Audit == nil {
		d.Audit = repositories.NopAuditRepository{}
	}

	authHandler := handlers.NewAuthHandler(d.Users, d.Tokens, d.Firebase)
	authHandler.RegisterAuthRoutes(g.Group("/auth"), guard.RequireAuth, d.RateLimit)

	listingHandler := handlers.NewListingHandler(d.Listings, d.Categories, d.Storage)
	listingHandler.RegisterListingRoutes(g.Group("/listings"), guard)

	categoryHandler := handlers.NewCategoryHandler(d.Categories, listingHandler)
	categoryHandler.RegisterCategoryRoutes(g.Group("/categories"), guard)

	messageHandler := handlers.NewMessageHandler(d.Messages, d.Listings, d.Users)
	messageHandler.RegisterMessageRoutes(g.Group("/messages"), guard)

	favoriteHandler := handlers.NewFavoriteHandler(d.Favorites, d.Listings)
	favoriteHandler.RegisterFavoriteRoutes(g.Group("/favorites"), guard)

	adminHandler := handlers.NewAdminHandler(d.Users, d.Listings, d.Audit)
	adminHandler.RegisterAdminRoutes(g.Group("/admin"), guard)
}

func auditRepository(cfg *config.Config, db *config.DB) repositories.AuditRepository {
	if db.Mongo == nil {
		return repositories.NopAuditRepository{}
	}
	return repositories.NewMongoAuditRepository(db.Mongo.Database(cfg.MongoDatabase))
}

func rateLimit(rdb *redis.Client, limit int) echo.MiddlewareFunc {
	return middleware.RateLimit(rdb, limit, authRateWindow, "auth")
}
