package config

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/anonto42/bsg-marketplace/backend/pkg/logger"
)

// DB holds the database connections
type DB struct {
	SQL   *gorm.DB
	Mongo *mongo.Client // nil when MONGO_URI is not configured
	Redis *redis.Client // nil when REDIS_URL is not configured
}

// InitDB opens the relational store selected by DB_DRIVER and, if configured,
// the MongoDB client used for the moderation audit trail and the Redis client
// backing the auth rate limiter.
func InitDB(cfg *Config) (*DB, error) {
	sqlDB, err := initSQL(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.DBDriver, err)
	}

	db := &DB{SQL: sqlDB}
	if cfg.MongoURI == "" {
		logger.Warn("MONGO_URI not set, moderation audit trail disabled")
	} else {
		mongoClient, err := initMongo(cfg.MongoURI)
		if err != nil {
			db.CloseDB()
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		db.Mongo = mongoClient
	}

	if cfg.RedisURL == "" {
		logger.Warn("REDIS_URL not set, auth rate limiting disabled")
		return db, nil
	}
	redisClient, err := initRedis(cfg.RedisURL)
	if err != nil {
		db.CloseDB()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	db.Redis = redisClient
	return db, nil
}

func dialector(cfg *Config) gorm.Dialector {
	if cfg.DBDriver == "mysql" {
		return mysql.Open(cfg.DatabaseURL)
	}
	return postgres.Open(cfg.DatabaseURL)
}

// initSQL opens the gorm connection and verifies it with a ping
func initSQL(cfg *Config) (*gorm.DB, error) {
	level := gormlogger.Warn
	if cfg.IsDevelopment() {
		level = gormlogger.Info
	}

	db, err := gorm.Open(dialector(cfg), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err = sqlDB.Ping(); err != nil {
		return nil, err
	}

	logger.Info("connected to relational database", "driver", cfg.DBDriver)
	return db, nil
}

// initMongo initializes the MongoDB connection
func initMongo(uri string) (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(uri)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	// Ping the primary to verify connection
	if err = client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	logger.Info("connected to MongoDB")
	return client, nil
}

// initRedis parses a redis:// URL and verifies the connection
func initRedis(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	logger.Info("connected to Redis")
	return client, nil
}

// CloseDB closes the database connections
func (db *DB) CloseDB() {
	if db.SQL != nil {
		sqlDB, err := db.SQL.DB()
		if err != nil {
			logger.Error("error getting sql.DB from gorm", "error", err)
		} else if err := sqlDB.Close(); err != nil {
			logger.Error("error closing relational connection", "error", err)
		} else {
			logger.Info("relational connection closed")
		}
	}

	if db.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Mongo.Disconnect(ctx); err != nil {
			logger.Error("error closing MongoDB connection", "error", err)
		} else {
			logger.Info("MongoDB connection closed")
		}
	}

	if db.Redis != nil {
		if err := db.Redis.Close(); err != nil {
			logger.Error("error closing Redis connection", "error", err)
		}
	}
}
